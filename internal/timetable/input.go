package timetable

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// InputCourse 输入数据中的一门课程
type InputCourse struct {
	Code          string   `json:"code"`
	Workload      int      `json:"workload"`
	Semester      string   `json:"semester"`
	Professor     string   `json:"professor"`
	Prerequisites []string `json:"prerequisites"`
	FailureRate   float64  `json:"failure_rate"`
	Type          string   `json:"type"`
}

// ProfessorPreference 教师的上课日偏好
type ProfessorPreference struct {
	Professor     string   `json:"professor"`
	PreferredDays []string `json:"preferred_days"`
}

// InputSummary 提交给调度服务的输入数据
//
// 只用于展示与导出兜底，不做业务校验；缺失或类型不符的字段为空。
type InputSummary struct {
	Semesters            []string              `json:"semesters"`
	ClassDays            []string              `json:"class_days"`
	TimeSlots            []string              `json:"time_slots"`
	Courses              []InputCourse         `json:"courses"`
	ProfessorPreferences []ProfessorPreference `json:"professor_preferences,omitempty"`
}

// ParseInput 宽松解析输入数据，非法 JSON 返回 ErrInvalidJSON
func ParseInput(data []byte) (InputSummary, error) {
	if len(data) == 0 {
		return InputSummary{}, nil
	}
	if !gjson.ValidBytes(data) {
		return InputSummary{}, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	in := InputSummary{
		Semesters: textList(root.Get("semesters")),
		ClassDays: textList(root.Get("class_days")),
		TimeSlots: textList(root.Get("time_slots")),
	}
	root.Get("courses").ForEach(func(_, v gjson.Result) bool {
		if !v.IsObject() {
			return true
		}
		in.Courses = append(in.Courses, InputCourse{
			Code:          textValue(v.Get("code")),
			Workload:      int(v.Get("workload").Int()),
			Semester:      textValue(v.Get("semester")),
			Professor:     textValue(v.Get("professor")),
			Prerequisites: textList(v.Get("prerequisites")),
			FailureRate:   v.Get("failure_rate").Float(),
			Type:          textValue(v.Get("type")),
		})
		return true
	})
	if prefs := root.Get("professor_preferences"); prefs.IsArray() {
		in.ProfessorPreferences = []ProfessorPreference{}
		prefs.ForEach(func(_, v gjson.Result) bool {
			in.ProfessorPreferences = append(in.ProfessorPreferences, ProfessorPreference{
				Professor:     textValue(v.Get("professor")),
				PreferredDays: textList(v.Get("preferred_days")),
			})
			return true
		})
	}
	return in, nil
}

func textList(r gjson.Result) []string {
	if !r.IsArray() {
		return nil
	}
	var out []string
	r.ForEach(func(_, v gjson.Result) bool {
		if s := textValue(v); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

// NumericSemesters 可解析为整数的学期，去重后升序
func (in InputSummary) NumericSemesters() []int {
	seen := make(map[int]bool)
	var out []int
	for _, s := range in.Semesters {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
