package dto

import (
	"encoding/json"
	"time"

	"cefet-timetable/backend/internal/timetable"
)

// ── 课表结果请求 ──

// SaveTimetableRequest 导入已计算好的课表（即先前下载的 grade-horaria.json）
type SaveTimetableRequest struct {
	Timetable json.RawMessage `json:"timetable" binding:"required"`
	InputData json.RawMessage `json:"input_data"`
}

// ViewQuery 网格视图查询参数
type ViewQuery struct {
	Semester string `form:"semester" json:"semester"`
	Mode     string `form:"mode"     json:"mode"     binding:"omitempty,oneof=weekly daily"`
	Day      string `form:"day"      json:"day"`
}

// RenderViewRequest 无状态渲染网格视图
type RenderViewRequest struct {
	Timetable json.RawMessage `json:"timetable" binding:"required"`
	ViewQuery
}

// RenderPDFRequest 无状态生成 PDF
type RenderPDFRequest struct {
	Timetable json.RawMessage `json:"timetable"  binding:"required"`
	InputData json.RawMessage `json:"input_data"`
	Semesters []int           `json:"semesters"`
}

// ExportQuery 导出参数，semesters 为逗号分隔的学期列表
type ExportQuery struct {
	Semesters string `form:"semesters"`
}

// ── 课表结果响应 ──

// GenerateResponse 生成或导入成功的响应，与前端约定的 {success, timetable, inputData} 兼容
type GenerateResponse struct {
	Success    bool            `json:"success"`
	ResultID   string          `json:"result_id"`
	Token      string          `json:"token"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Semesters  []int           `json:"semesters"`
	ClassCount int             `json:"class_count"`
	Timetable  json.RawMessage `json:"timetable"`
	InputData  json.RawMessage `json:"inputData,omitempty"`
}

// ResultResponse 单个结果详情
type ResultResponse struct {
	ResultID   string          `json:"result_id"`
	Source     string          `json:"source"`
	Semesters  []int           `json:"semesters"`
	ClassCount int             `json:"class_count"`
	CreatedAt  time.Time       `json:"created_at"`
	Timetable  json.RawMessage `json:"timetable"`
	InputData  json.RawMessage `json:"input_data,omitempty"`
}

// ResultListItem 结果列表项（不含课表内容）
type ResultListItem struct {
	ResultID   string    `json:"result_id"`
	Source     string    `json:"source"`
	Semesters  []int     `json:"semesters"`
	ClassCount int       `json:"class_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// ── 网格视图模型 ──

// 视图模式
const (
	ViewModeWeekly = "weekly"
	ViewModeDaily  = "daily"
)

// SemesterOption 学期下拉选项
type SemesterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// DayTab 天的列头或页签
type DayTab struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// Tab 是否出现在日视图页签栏（最多前 5 天）
	Tab        bool `json:"tab"`
	HasClasses bool `json:"has_classes"`
}

// ViewCell 单元格；Empty 为 true 时 EmptyText 为占位文字
type ViewCell struct {
	Day        string                `json:"day"`
	TimeSlot   string                `json:"time_slot"`
	Empty      bool                  `json:"empty"`
	EmptyText  string                `json:"empty_text,omitempty"`
	Discipline string                `json:"discipline,omitempty"`
	Teacher    string                `json:"teacher,omitempty"`
	Room       string                `json:"room,omitempty"`
	Badge      *timetable.BadgeStyle `json:"badge,omitempty"`
	BadgeClass string                `json:"badge_class,omitempty"`
}

// ViewRow 周视图的一行（一个时间段）
type ViewRow struct {
	TimeSlot string     `json:"time_slot"`
	Cells    []ViewCell `json:"cells"`
}

// DailyView 日视图
type DailyView struct {
	Day       DayTab     `json:"day"`
	Title     string     `json:"title"`
	Subtitle  string     `json:"subtitle"`
	Empty     bool       `json:"empty"`
	EmptyText string     `json:"empty_text,omitempty"`
	Slots     []ViewCell `json:"slots,omitempty"`
}

// TimetableViewResponse 网格视图模型
type TimetableViewResponse struct {
	Empty            bool             `json:"empty"`
	EmptyText        string           `json:"empty_text,omitempty"`
	Title            string           `json:"title,omitempty"`
	Subtitle         string           `json:"subtitle,omitempty"`
	Mode             string           `json:"mode"`
	Semesters        []SemesterOption `json:"semesters"`
	SelectedSemester string           `json:"selected_semester"`
	Days             []DayTab         `json:"days"`
	TimeSlots        []string         `json:"time_slots"`
	Rows             []ViewRow        `json:"rows,omitempty"`
	Daily            *DailyView       `json:"daily,omitempty"`
	// DroppedDuplicates 同一 (天, 时段) 被丢弃的重复条目数
	DroppedDuplicates int `json:"dropped_duplicates"`
}

// ── 输入摘要 ──

// CourseSummary 课程摘要行
type CourseSummary struct {
	Code      string `json:"code"`
	Professor string `json:"professor"`
	Semester  string `json:"semester"`
	Text      string `json:"text"`
}

// PreferenceSummary 教师偏好摘要行
type PreferenceSummary struct {
	Professor     string   `json:"professor"`
	PreferredDays []string `json:"preferred_days"`
	Text          string   `json:"text"`
}

// InputSummaryResponse 输入数据摘要（课程与偏好各取前 5 条）
type InputSummaryResponse struct {
	Semesters       string              `json:"semesters"`
	ClassDays       string              `json:"class_days"`
	TimeSlots       string              `json:"time_slots"`
	CourseCount     int                 `json:"course_count"`
	Courses         []CourseSummary     `json:"courses"`
	MoreCourses     bool                `json:"more_courses"`
	HasPreferences  bool                `json:"has_preferences"`
	PreferenceCount int                 `json:"preference_count"`
	Preferences     []PreferenceSummary `json:"preferences,omitempty"`
	MorePreferences bool                `json:"more_preferences"`
}
