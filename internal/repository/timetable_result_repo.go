package repository

import (
	"context"

	"gorm.io/gorm"

	"cefet-timetable/backend/internal/model"
)

// TimetableResultRepository 课表结果数据访问接口
type TimetableResultRepository interface {
	Create(ctx context.Context, result *model.TimetableResult) error
	GetByID(ctx context.Context, id string) (*model.TimetableResult, error)
	// List 按创建时间倒序分页，不加载 timetable / input_data 两列
	List(ctx context.Context, offset, limit int) ([]model.TimetableResult, int64, error)
	Delete(ctx context.Context, id string) error
}

type timetableResultRepo struct {
	db *gorm.DB
}

// NewTimetableResultRepo 创建 TimetableResultRepository 实例
func NewTimetableResultRepo(db *gorm.DB) TimetableResultRepository {
	return &timetableResultRepo{db: db}
}

func (r *timetableResultRepo) Create(ctx context.Context, result *model.TimetableResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *timetableResultRepo) GetByID(ctx context.Context, id string) (*model.TimetableResult, error) {
	var result model.TimetableResult
	err := r.db.WithContext(ctx).
		Where("result_id = ?", id).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *timetableResultRepo) List(ctx context.Context, offset, limit int) ([]model.TimetableResult, int64, error) {
	var (
		results []model.TimetableResult
		total   int64
	)
	q := r.db.WithContext(ctx).Model(&model.TimetableResult{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Omit("timetable", "input_data").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error
	return results, total, err
}

// Delete 软删除；记录不存在时返回 gorm.ErrRecordNotFound
func (r *timetableResultRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where("result_id = ?", id).
		Delete(&model.TimetableResult{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
