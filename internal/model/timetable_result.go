package model

import "gorm.io/datatypes"

// 结果来源
const (
	SourceGenerated = "generated"
	SourceImported  = "imported"
)

// TimetableResult 课表结果快照，对应 timetable_results
//
// Timetable 为解包后的按天课表，InputData 为提交给调度服务的原始输入，
// 两者均按原样保存，渲染时再解析。
type TimetableResult struct {
	ResultID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"result_id"`
	Source     string         `gorm:"type:varchar(20);not null"                      json:"source"`
	Timetable  datatypes.JSON `gorm:"type:jsonb;not null"                            json:"timetable"`
	InputData  datatypes.JSON `gorm:"type:jsonb"                                     json:"input_data,omitempty"`
	Semesters  IntArray       `gorm:"type:int[];not null"                            json:"semesters"`
	ClassCount int            `gorm:"not null;default:0"                             json:"class_count"`
	SoftDeleteModel
}

// TableName 指定表名
func (TimetableResult) TableName() string { return "timetable_results" }
