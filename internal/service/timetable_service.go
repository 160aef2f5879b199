package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cefet-timetable/backend/internal/dto"
	"cefet-timetable/backend/internal/model"
	"cefet-timetable/backend/internal/repository"
	"cefet-timetable/backend/internal/timetable"
	apperrors "cefet-timetable/backend/pkg/errors"
	"cefet-timetable/backend/pkg/jwt"
)

// ── 课表模块业务错误 ──

var (
	ErrResultNotFound   = errors.New("Resultado não encontrado")
	ErrInvalidInput     = errors.New("Dados inválidos. Campos obrigatórios ausentes.")
	ErrInvalidTimetable = errors.New("Grade horária inválida")
	ErrSemesterNotFound = errors.New("Período não encontrado nesta grade horária")
	ErrDayNotFound      = errors.New("Dia não encontrado nesta grade horária")
)

// 摘要中课程与偏好各展示的条数
const summaryPreviewSize = 5

// ── TimetableService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 生成（Generate）转发输入到外部排课服务，解包一层 timetable 后保存快照
//   - 导入（Save）保存已有的课表与输入，供下载过的结果重新打开
//   - 快照按原文保存，视图与导出在读取时解析，解析规则变化无需迁移数据
//   - 生成与导入都签发结果访问令牌，之后凭令牌访问该结果
// ─────────────────────────────────────────────────────────────

// TimetableService 课表模块业务接口
type TimetableService interface {
	// Generate 调用排课服务生成课表并保存
	Generate(ctx context.Context, input []byte) (*dto.GenerateResponse, error)
	// Save 导入已计算好的课表
	Save(ctx context.Context, req *dto.SaveTimetableRequest) (*dto.GenerateResponse, error)
	// Get 获取结果详情
	Get(ctx context.Context, resultID string) (*dto.ResultResponse, error)
	// List 分页列出结果
	List(ctx context.Context, req *dto.PaginationRequest) ([]dto.ResultListItem, int64, error)
	// Delete 删除结果
	Delete(ctx context.Context, resultID string) error
	// GetView 构建已保存结果的网格视图
	GetView(ctx context.Context, resultID string, q *dto.ViewQuery) (*dto.TimetableViewResponse, error)
	// RenderView 无状态构建网格视图
	RenderView(ctx context.Context, req *dto.RenderViewRequest) (*dto.TimetableViewResponse, error)
	// GetSummary 输入数据摘要
	GetSummary(ctx context.Context, resultID string) (*dto.InputSummaryResponse, error)
}

type timetableService struct {
	repo      *repository.Repository
	scheduler SchedulerClient
	jwtMgr    *jwt.Manager
	logger    *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(
	repo *repository.Repository,
	scheduler SchedulerClient,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
) TimetableService {
	return &timetableService{repo: repo, scheduler: scheduler, jwtMgr: jwtMgr, logger: logger}
}

// ── 快照加载 ──

type snapshot struct {
	result   *model.TimetableResult
	schedule timetable.ScheduleByDay
	input    timetable.InputSummary
}

func loadSnapshot(ctx context.Context, repo *repository.Repository, resultID string) (*snapshot, error) {
	r, err := repo.TimetableResult.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	sched, err := timetable.ParseSchedule(r.Timetable)
	if err != nil {
		return nil, fmt.Errorf("结果 %s 的课表损坏: %w", resultID, err)
	}
	// 输入只用于摘要与兜底学期，损坏时按空处理
	input, _ := timetable.ParseInput(r.InputData)
	return &snapshot{result: r, schedule: sched, input: input}, nil
}

// ════════════════════════════════════════════════════════════
// Generate 生成课表
// ════════════════════════════════════════════════════════════
//
// 流程：
//   1. 校验输入为 JSON 对象（业务字段由排课服务校验）
//   2. 调用排课服务，失败时原样返回分类错误
//   3. 解包一层 timetable 后保存快照
//   4. 签发结果访问令牌

func (s *timetableService) Generate(ctx context.Context, input []byte) (*dto.GenerateResponse, error) {
	if !gjson.ValidBytes(input) || !gjson.ParseBytes(input).IsObject() {
		return nil, ErrInvalidInput
	}

	raw, err := s.scheduler.Generate(ctx, input)
	if err != nil {
		s.logger.Warn("排课服务调用失败", zap.Stringer("kind", apperrors.KindOf(err)), zap.Error(err))
		return nil, err
	}

	body := timetable.UnwrapTimetable(raw)
	if !gjson.ParseBytes(body).IsObject() {
		s.logger.Error("排课服务响应不是按天分组的对象", zap.String("body", excerpt(body)))
		return nil, apperrors.New(apperrors.KindBadResponse, schedulerOp,
			"Resposta inválida do serviço de horários.", errors.New("timetable is not an object"))
	}
	resp, err := s.store(ctx, model.SourceGenerated, body, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("课表生成完成",
		zap.String("result_id", resp.ResultID),
		zap.Ints("semesters", resp.Semesters),
		zap.Int("classes", resp.ClassCount),
	)
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// Save 导入已有课表
// ════════════════════════════════════════════════════════════

func (s *timetableService) Save(ctx context.Context, req *dto.SaveTimetableRequest) (*dto.GenerateResponse, error) {
	if !gjson.ValidBytes(req.Timetable) || !gjson.ParseBytes(req.Timetable).IsObject() {
		return nil, ErrInvalidTimetable
	}
	var input []byte
	if len(req.InputData) > 0 && string(req.InputData) != "null" {
		if !gjson.ValidBytes(req.InputData) || !gjson.ParseBytes(req.InputData).IsObject() {
			return nil, ErrInvalidInput
		}
		input = req.InputData
	}
	return s.store(ctx, model.SourceImported, timetable.UnwrapTimetable(req.Timetable), input)
}

func (s *timetableService) store(ctx context.Context, source string, body, input []byte) (*dto.GenerateResponse, error) {
	sched, err := timetable.ParseSchedule(body)
	if err != nil {
		return nil, ErrInvalidTimetable
	}
	semesters := timetable.Semesters(sched)

	result := &model.TimetableResult{
		Source:     source,
		Timetable:  datatypes.JSON(body),
		Semesters:  model.IntArray(semesters),
		ClassCount: sched.ClassCount(),
	}
	if len(input) > 0 {
		result.InputData = datatypes.JSON(input)
	}
	if err := s.repo.TimetableResult.Create(ctx, result); err != nil {
		s.logger.Error("保存课表结果失败", zap.Error(err))
		return nil, err
	}

	token, expiresAt, err := s.jwtMgr.GenerateResultToken(result.ResultID)
	if err != nil {
		s.logger.Error("签发结果令牌失败", zap.Error(err))
		return nil, err
	}

	if semesters == nil {
		semesters = []int{}
	}
	return &dto.GenerateResponse{
		Success:    true,
		ResultID:   result.ResultID,
		Token:      token,
		ExpiresAt:  expiresAt,
		Semesters:  semesters,
		ClassCount: result.ClassCount,
		Timetable:  json.RawMessage(body),
		InputData:  json.RawMessage(input),
	}, nil
}

// ════════════════════════════════════════════════════════════
// Get / List / Delete
// ════════════════════════════════════════════════════════════

func (s *timetableService) Get(ctx context.Context, resultID string) (*dto.ResultResponse, error) {
	r, err := s.repo.TimetableResult.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	resp := &dto.ResultResponse{
		ResultID:   r.ResultID,
		Source:     r.Source,
		Semesters:  intsOrEmpty(r.Semesters),
		ClassCount: r.ClassCount,
		CreatedAt:  r.CreatedAt,
		Timetable:  json.RawMessage(r.Timetable),
	}
	if len(r.InputData) > 0 {
		resp.InputData = json.RawMessage(r.InputData)
	}
	return resp, nil
}

func (s *timetableService) List(ctx context.Context, req *dto.PaginationRequest) ([]dto.ResultListItem, int64, error) {
	results, total, err := s.repo.TimetableResult.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询结果列表失败", zap.Error(err))
		return nil, 0, err
	}
	items := make([]dto.ResultListItem, 0, len(results))
	for _, r := range results {
		items = append(items, dto.ResultListItem{
			ResultID:   r.ResultID,
			Source:     r.Source,
			Semesters:  intsOrEmpty(r.Semesters),
			ClassCount: r.ClassCount,
			CreatedAt:  r.CreatedAt,
		})
	}
	return items, total, nil
}

func (s *timetableService) Delete(ctx context.Context, resultID string) error {
	if err := s.repo.TimetableResult.Delete(ctx, resultID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResultNotFound
		}
		s.logger.Error("删除结果失败", zap.String("result_id", resultID), zap.Error(err))
		return err
	}
	return nil
}

func intsOrEmpty(a model.IntArray) []int {
	if a == nil {
		return []int{}
	}
	return []int(a)
}

// ════════════════════════════════════════════════════════════
// 视图与摘要
// ════════════════════════════════════════════════════════════

func (s *timetableService) GetView(ctx context.Context, resultID string, q *dto.ViewQuery) (*dto.TimetableViewResponse, error) {
	snap, err := loadSnapshot(ctx, s.repo, resultID)
	if err != nil {
		return nil, err
	}
	return s.view(snap.schedule, q)
}

func (s *timetableService) RenderView(_ context.Context, req *dto.RenderViewRequest) (*dto.TimetableViewResponse, error) {
	sched, err := timetable.ParseSchedule(timetable.UnwrapTimetable(req.Timetable))
	if err != nil {
		return nil, ErrInvalidTimetable
	}
	return s.view(sched, &req.ViewQuery)
}

func (s *timetableService) view(sched timetable.ScheduleByDay, q *dto.ViewQuery) (*dto.TimetableViewResponse, error) {
	v, err := BuildView(sched, q)
	if err != nil {
		return nil, err
	}
	if v.DroppedDuplicates > 0 {
		s.logger.Warn("同一时段存在重复课程，已保留第一条",
			zap.String("semester", v.SelectedSemester),
			zap.Int("dropped", v.DroppedDuplicates),
		)
	}
	return v, nil
}

func (s *timetableService) GetSummary(ctx context.Context, resultID string) (*dto.InputSummaryResponse, error) {
	snap, err := loadSnapshot(ctx, s.repo, resultID)
	if err != nil {
		return nil, err
	}
	return BuildSummary(snap.input), nil
}

// BuildSummary 构建输入摘要
func BuildSummary(in timetable.InputSummary) *dto.InputSummaryResponse {
	resp := &dto.InputSummaryResponse{
		Semesters:   strings.Join(in.Semesters, ", "),
		ClassDays:   strings.Join(in.ClassDays, ", "),
		TimeSlots:   strings.Join(in.TimeSlots, ", "),
		CourseCount: len(in.Courses),
		Courses:     []dto.CourseSummary{},
		MoreCourses: len(in.Courses) > summaryPreviewSize,
	}
	for i, c := range in.Courses {
		if i == summaryPreviewSize {
			break
		}
		resp.Courses = append(resp.Courses, dto.CourseSummary{
			Code:      c.Code,
			Professor: c.Professor,
			Semester:  c.Semester,
			Text:      fmt.Sprintf("%s (Prof. %s) - Semestre %s", c.Code, c.Professor, c.Semester),
		})
	}

	if in.ProfessorPreferences != nil {
		resp.HasPreferences = true
		resp.PreferenceCount = len(in.ProfessorPreferences)
		resp.MorePreferences = len(in.ProfessorPreferences) > summaryPreviewSize
		resp.Preferences = []dto.PreferenceSummary{}
		for i, p := range in.ProfessorPreferences {
			if i == summaryPreviewSize {
				break
			}
			resp.Preferences = append(resp.Preferences, dto.PreferenceSummary{
				Professor:     p.Professor,
				PreferredDays: p.PreferredDays,
				Text:          p.Professor + ": " + strings.Join(p.PreferredDays, ", "),
			})
		}
	}
	return resp
}
