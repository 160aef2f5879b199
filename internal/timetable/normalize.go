package timetable

import "strconv"

// CanonicalClass 规整后的课程条目，所有下游消费方只使用该结构
type CanonicalClass struct {
	Time       string `json:"time"`
	Discipline string `json:"discipline"`
	Teacher    string `json:"teacher"`
	Room       string `json:"room"`
	Semester   *int   `json:"semester,omitempty"`
}

// SemesterKey 学期的字符串形式，缺失时为空串
func (c CanonicalClass) SemesterKey() string {
	if c.Semester == nil {
		return ""
	}
	return strconv.Itoa(*c.Semester)
}

// InSemester 字符串比较：缺失学期的条目不匹配任何筛选值
func (c CanonicalClass) InSemester(filter string) bool {
	return c.Semester != nil && c.SemesterKey() == filter
}

type textAccessor func(RawClass) string

// 各规范字段的别名解析顺序，取第一个非空值
var (
	timeAccessors = []textAccessor{
		func(c RawClass) string { return c.Time },
		func(c RawClass) string { return c.Horario },
	}
	disciplineAccessors = []textAccessor{
		func(c RawClass) string { return c.Course },
		func(c RawClass) string { return c.Discipline },
		func(c RawClass) string { return c.Disciplina },
		func(c RawClass) string { return c.Code },
		func(c RawClass) string { return c.Codigo },
	}
	teacherAccessors = []textAccessor{
		func(c RawClass) string { return c.Teacher },
		func(c RawClass) string { return c.Professor },
	}
	roomAccessors = []textAccessor{
		func(c RawClass) string { return c.Room },
		func(c RawClass) string { return c.Sala },
	}
)

func firstText(c RawClass, accessors []textAccessor) string {
	for _, get := range accessors {
		if v := get(c); v != "" {
			return v
		}
	}
	return ""
}

// resolveSemester semester 为 0 或缺失时回退到 periodo
func resolveSemester(c RawClass) *int {
	if c.Semester != nil && *c.Semester != 0 {
		v := *c.Semester
		return &v
	}
	if c.Periodo != nil {
		v := *c.Periodo
		return &v
	}
	return nil
}

// Normalize 将原始条目映射为规范条目，纯函数，永不失败
func Normalize(c RawClass) CanonicalClass {
	return CanonicalClass{
		Time:       firstText(c, timeAccessors),
		Discipline: firstText(c, disciplineAccessors),
		Teacher:    firstText(c, teacherAccessors),
		Room:       firstText(c, roomAccessors),
		Semester:   resolveSemester(c),
	}
}

// NormalizeAll 逐条规整，保持顺序
func NormalizeAll(classes []RawClass) []CanonicalClass {
	out := make([]CanonicalClass, 0, len(classes))
	for _, c := range classes {
		out = append(out, Normalize(c))
	}
	return out
}
