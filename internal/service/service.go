package service

import (
	"go.uber.org/zap"

	"cefet-timetable/backend/config"
	"cefet-timetable/backend/internal/repository"
	"cefet-timetable/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Timetable TimetableService
	Export    ExportService
}

// NewService 创建 Service 聚合
//
// locker 为 nil 时导出锁退化为进程内实现。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	locker Locker,
	logger *zap.Logger,
) *Service {
	scheduler := NewSchedulerClient(&cfg.Scheduler, logger)
	composer := NewPDFComposer(&cfg.Export, logger)
	return &Service{
		Timetable: NewTimetableService(repo, scheduler, jwtMgr, logger),
		Export:    NewExportService(repo, composer, locker, &cfg.Export, logger),
	}
}
