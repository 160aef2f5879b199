package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cefet-timetable/backend/config"
	"cefet-timetable/backend/internal/dto"
	"cefet-timetable/backend/internal/repository"
	"cefet-timetable/backend/internal/timetable"
	apperrors "cefet-timetable/backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportInProgress   = apperrors.ErrExportBusy
	ErrExportNoInput      = errors.New("Nenhum dado de entrada disponível para este resultado")
	ErrExportGenerateFail = errors.New("Falha ao gerar o arquivo. Tente novamente.")
)

const (
	timetableDownloadName = "grade-horaria.json"
	inputDownloadName     = "dados-entrada.json"
	defaultLockTTL        = 2 * time.Minute
)

// ExportService 导出业务接口
//
// 设计说明：
//   - PDF、XLSX 共用 PlanDocument 的版面计划，颜色与行过滤规则一致
//   - 同一结果同一时刻只允许一个导出任务（Locker，键为结果 ID）
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入
//   - 原始 JSON 下载不做任何转换，仅按两空格缩进
type ExportService interface {
	// ExportPDF 导出课表 PDF，semesters 非空时只导出指定学期
	ExportPDF(ctx context.Context, resultID string, semesters []int) (*bytes.Buffer, string, error)
	// ExportXLSX 导出课表 Excel，每学期一个工作表
	ExportXLSX(ctx context.Context, resultID string, semesters []int) (*bytes.Buffer, string, error)
	// ExportICS 导出 iCalendar 周重复事件
	ExportICS(ctx context.Context, resultID string, semesters []int) (*bytes.Buffer, string, error)
	// DownloadTimetable 下载解包后的课表 JSON
	DownloadTimetable(ctx context.Context, resultID string) ([]byte, string, error)
	// DownloadInput 下载原始输入 JSON
	DownloadInput(ctx context.Context, resultID string) ([]byte, string, error)
	// RenderPDF 无状态导出：课表与输入随请求提交
	RenderPDF(ctx context.Context, req *dto.RenderPDFRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo     *repository.Repository
	composer PDFComposer
	locker   Locker
	cfg      *config.ExportConfig
	now      func() time.Time
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(
	repo *repository.Repository,
	composer PDFComposer,
	locker Locker,
	cfg *config.ExportConfig,
	logger *zap.Logger,
) ExportService {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &exportService{
		repo:     repo,
		composer: composer,
		locker:   locker,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// withExportLock 持有结果级导出锁执行 fn，结束后无论成败都释放
func (s *exportService) withExportLock(ctx context.Context, resultID string, fn func() error) error {
	key := "export:" + resultID
	token := uuid.NewString()
	ttl := s.cfg.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}

	ok, err := s.locker.TryLock(ctx, key, token, ttl)
	if err != nil {
		s.logger.Error("获取导出锁失败", zap.String("result_id", resultID), zap.Error(err))
		return err
	}
	if !ok {
		return apperrors.New(apperrors.KindExportBusy, "export.lock",
			"Uma exportação deste resultado já está em andamento.", nil)
	}
	defer func() {
		// 请求上下文可能已取消，释放锁使用独立上下文
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.locker.Unlock(rctx, key, token); err != nil {
			s.logger.Warn("释放导出锁失败", zap.String("result_id", resultID), zap.Error(err))
		}
	}()
	return fn()
}

// ════════════════════════════════════════════════════════════
// ExportPDF / ExportXLSX / ExportICS
// ════════════════════════════════════════════════════════════

func (s *exportService) ExportPDF(ctx context.Context, resultID string, semesters []int) (*bytes.Buffer, string, error) {
	snap, err := loadSnapshot(ctx, s.repo, resultID)
	if err != nil {
		return nil, "", err
	}

	var (
		buf  *bytes.Buffer
		name string
	)
	err = s.withExportLock(ctx, resultID, func() error {
		var cerr error
		buf, name, cerr = s.composer.Compose(ctx, snap.schedule, snap.input, PDFOptions{Semesters: semesters})
		return cerr
	})
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("PDF 导出完成", zap.String("result_id", resultID), zap.Int("bytes", buf.Len()))
	return buf, name, nil
}

func (s *exportService) ExportXLSX(ctx context.Context, resultID string, semesters []int) (*bytes.Buffer, string, error) {
	snap, err := loadSnapshot(ctx, s.repo, resultID)
	if err != nil {
		return nil, "", err
	}

	var (
		buf  *bytes.Buffer
		name string
	)
	err = s.withExportLock(ctx, resultID, func() error {
		now := s.now().In(s.cfg.Location())
		plan := PlanDocument(snap.schedule, snap.input, semesters, now)
		out, rerr := RenderXLSX(plan)
		if rerr != nil {
			s.logger.Error("写入 Excel 失败", zap.String("result_id", resultID), zap.Error(rerr))
			return ErrExportGenerateFail
		}
		buf = out
		name = "horario-academico-" + now.Format("02-01-2006") + ".xlsx"
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return buf, name, nil
}

func (s *exportService) ExportICS(ctx context.Context, resultID string, semesters []int) (*bytes.Buffer, string, error) {
	snap, err := loadSnapshot(ctx, s.repo, resultID)
	if err != nil {
		return nil, "", err
	}

	var (
		buf  *bytes.Buffer
		name string
	)
	err = s.withExportLock(ctx, resultID, func() error {
		loc := s.cfg.Location()
		anchor := snap.result.CreatedAt
		if anchor.IsZero() {
			anchor = s.now()
		}
		content, skipped := buildICS(snap.schedule, icsOptions{
			ResultID:  resultID,
			Semesters: ResolvePageSemesters(snap.schedule, snap.input, semesters),
			Anchor:    anchor.In(loc),
			Weeks:     s.cfg.ICSWeeks,
		})
		if skipped > 0 {
			s.logger.Warn("部分课程无法解析时间或星期，未写入日历",
				zap.String("result_id", resultID), zap.Int("skipped", skipped))
		}
		buf = bytes.NewBufferString(content)
		name = "horario-academico-" + s.now().In(loc).Format("02-01-2006") + ".ics"
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return buf, name, nil
}

// ════════════════════════════════════════════════════════════
// 原始 JSON 下载
// ════════════════════════════════════════════════════════════

func (s *exportService) DownloadTimetable(ctx context.Context, resultID string) ([]byte, string, error) {
	snap, err := loadSnapshot(ctx, s.repo, resultID)
	if err != nil {
		return nil, "", err
	}
	out, err := indentJSON(snap.result.Timetable)
	if err != nil {
		return nil, "", err
	}
	return out, timetableDownloadName, nil
}

func (s *exportService) DownloadInput(ctx context.Context, resultID string) ([]byte, string, error) {
	snap, err := loadSnapshot(ctx, s.repo, resultID)
	if err != nil {
		return nil, "", err
	}
	if len(snap.result.InputData) == 0 || string(snap.result.InputData) == "null" {
		return nil, "", ErrExportNoInput
	}
	out, err := indentJSON(snap.result.InputData)
	if err != nil {
		return nil, "", err
	}
	return out, inputDownloadName, nil
}

func indentJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("格式化 JSON 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// ════════════════════════════════════════════════════════════
// RenderPDF 无状态导出
// ════════════════════════════════════════════════════════════

func (s *exportService) RenderPDF(ctx context.Context, req *dto.RenderPDFRequest) (*bytes.Buffer, string, error) {
	sched, err := timetable.ParseSchedule(req.Timetable)
	if err != nil {
		return nil, "", ErrInvalidTimetable
	}
	input, err := timetable.ParseInput(req.InputData)
	if err != nil {
		return nil, "", ErrInvalidInput
	}
	return s.composer.Compose(ctx, sched, input, PDFOptions{Semesters: req.Semesters})
}
