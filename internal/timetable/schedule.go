// Package timetable 实现课表的规整化、时间轴、配色与网格投影。
//
// 包内函数均为纯函数：输入为调度服务返回的原始课表快照，
// 输出为屏幕网格与导出文档共用的规范结构。任何缺失或畸形字段
// 都退化为空值，不会返回错误。
package timetable

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON 课表内容不是合法 JSON
var ErrInvalidJSON = errors.New("课表内容不是合法的 JSON")

// RawClass 调度服务返回的原始课程条目
//
// 同一概念可能以英文或葡萄牙文字段名出现，任何字段都可能缺失。
type RawClass struct {
	Time       string `json:"time,omitempty"`
	Horario    string `json:"horario,omitempty"`
	Course     string `json:"course,omitempty"`
	Discipline string `json:"discipline,omitempty"`
	Disciplina string `json:"disciplina,omitempty"`
	Code       string `json:"code,omitempty"`
	Codigo     string `json:"codigo,omitempty"`
	Teacher    string `json:"teacher,omitempty"`
	Professor  string `json:"professor,omitempty"`
	Room       string `json:"room,omitempty"`
	Sala       string `json:"sala,omitempty"`
	Semester   *int   `json:"semester,omitempty"`
	Periodo    *int   `json:"periodo,omitempty"`
}

// UnmarshalJSON 宽松解码：非对象输入得到空条目，类型不符的字段视为缺失
func (c *RawClass) UnmarshalJSON(b []byte) error {
	*c = rawClassFrom(gjson.ParseBytes(b))
	return nil
}

func rawClassFrom(r gjson.Result) RawClass {
	if !r.IsObject() {
		return RawClass{}
	}
	return RawClass{
		Time:       textValue(r.Get("time")),
		Horario:    textValue(r.Get("horario")),
		Course:     textValue(r.Get("course")),
		Discipline: textValue(r.Get("discipline")),
		Disciplina: textValue(r.Get("disciplina")),
		Code:       textValue(r.Get("code")),
		Codigo:     textValue(r.Get("codigo")),
		Teacher:    textValue(r.Get("teacher")),
		Professor:  textValue(r.Get("professor")),
		Room:       textValue(r.Get("room")),
		Sala:       textValue(r.Get("sala")),
		Semester:   intValue(r.Get("semester")),
		Periodo:    intValue(r.Get("periodo")),
	}
}

// textValue 字符串原样返回，非零数字转为最短十进制表示，其余类型（含数字 0）为空
func textValue(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		if r.Num == 0 {
			return ""
		}
		return strconv.FormatFloat(r.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// intValue 接受整数或数字字符串，其余视为缺失
func intValue(r gjson.Result) *int {
	var f float64
	switch r.Type {
	case gjson.Number:
		f = r.Num
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(r.Str))
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// DaySchedule 某一天的原始课程序列
type DaySchedule struct {
	Key     string
	Classes []RawClass
}

// ScheduleByDay 按天分组的原始课表，保持源 JSON 中的键顺序
type ScheduleByDay struct {
	Days []DaySchedule
}

// ParseSchedule 解析调度服务返回的课表
//
// 根对象含 "timetable" 对象时先解包一层；值不是数组的键被忽略。
// 仅在输入不是合法 JSON 时返回错误。
func ParseSchedule(data []byte) (ScheduleByDay, error) {
	if !gjson.ValidBytes(data) {
		return ScheduleByDay{}, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if inner := root.Get("timetable"); root.IsObject() && inner.IsObject() {
		root = inner
	}
	return scheduleFrom(root), nil
}

func scheduleFrom(root gjson.Result) ScheduleByDay {
	var s ScheduleByDay
	if !root.IsObject() {
		return s
	}
	index := make(map[string]int)
	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			return true
		}
		items := value.Array()
		classes := make([]RawClass, 0, len(items))
		for _, item := range items {
			classes = append(classes, rawClassFrom(item))
		}
		// 重复键：后出现的值覆盖，位置保持首次出现处
		if i, ok := index[key.String()]; ok {
			s.Days[i].Classes = classes
			return true
		}
		index[key.String()] = len(s.Days)
		s.Days = append(s.Days, DaySchedule{Key: key.String(), Classes: classes})
		return true
	})
	return s
}

// UnmarshalJSON 与 ParseSchedule 相同的解码规则
func (s *ScheduleByDay) UnmarshalJSON(b []byte) error {
	parsed, err := ParseSchedule(b)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalJSON 按原键顺序输出对象
func (s ScheduleByDay) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range s.Days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		classes := d.Classes
		if classes == nil {
			classes = []RawClass{}
		}
		val, err := json.Marshal(classes)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AvailableDays 课程序列非空的天，按源顺序
func (s ScheduleByDay) AvailableDays() []string {
	days := make([]string, 0, len(s.Days))
	for _, d := range s.Days {
		if len(d.Classes) > 0 {
			days = append(days, d.Key)
		}
	}
	return days
}

// Classes 返回某天的原始课程序列
func (s ScheduleByDay) Classes(day string) []RawClass {
	for _, d := range s.Days {
		if d.Key == day {
			return d.Classes
		}
	}
	return nil
}

// IsEmpty 没有任何可用的天
func (s ScheduleByDay) IsEmpty() bool {
	return len(s.AvailableDays()) == 0
}

// ClassCount 所有天的原始条目总数
func (s ScheduleByDay) ClassCount() int {
	n := 0
	for _, d := range s.Days {
		n += len(d.Classes)
	}
	return n
}

// UnwrapTimetable 返回去掉一层 {"timetable": {...}} 包装后的原始 JSON
//
// 与 ParseSchedule 使用相同的解包规则，保留源文本（含非数组键）以便原样下载。
func UnwrapTimetable(data []byte) []byte {
	root := gjson.ParseBytes(data)
	if inner := root.Get("timetable"); root.IsObject() && inner.IsObject() {
		return []byte(inner.Raw)
	}
	return data
}
