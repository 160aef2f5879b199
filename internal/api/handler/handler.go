package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cefet-timetable/backend/internal/service"
	apperrors "cefet-timetable/backend/pkg/errors"
	"cefet-timetable/backend/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Timetable *TimetableHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Timetable: NewTimetableHandler(svc.Timetable),
		Export:    NewExportHandler(svc.Export),
	}
}

// ── 错误码 ──
//
// 200xx 课表请求参数，201xx 课表资源，210xx 排课服务，211xx 导出。

const (
	codeInvalidBody      = 20001
	codeInvalidTimetable = 20002
	codeInvalidQuery     = 20003
	codeBodyTooLarge     = 20004
	codeResultNotFound   = 20101
	codeSemesterNotFound = 20102
	codeDayNotFound      = 20103
	codeNoInput          = 20104
	codeUnavailable      = 21001
	codeRejected         = 21002
	codeBadResponse      = 21003
	codeComposition      = 21101
	codeExportBusy       = 21102
)

// writeError 将 Service 层错误映射为统一响应
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.Error(c, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "Corpo da requisição excede o tamanho permitido.")
		return
	}

	switch {
	case errors.Is(err, service.ErrResultNotFound):
		response.NotFound(c, codeResultNotFound, err.Error())
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, codeSemesterNotFound, err.Error())
	case errors.Is(err, service.ErrDayNotFound):
		response.NotFound(c, codeDayNotFound, err.Error())
	case errors.Is(err, service.ErrExportNoInput):
		response.NotFound(c, codeNoInput, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, codeInvalidBody, err.Error())
	case errors.Is(err, service.ErrInvalidTimetable):
		response.BadRequest(c, codeInvalidTimetable, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, codeComposition, err.Error())
	default:
		writeAppError(c, err)
	}
}

// writeAppError 处理排课服务与文档生成两处边界上的 *apperrors.Error
func writeAppError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		response.InternalError(c)
		return
	}

	switch appErr.Kind {
	case apperrors.KindUnavailable:
		response.ServiceUnavailable(c, codeUnavailable, appErr.Message)
	case apperrors.KindRejected:
		status := appErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		response.Error(c, status, codeRejected, appErr.Message)
	case apperrors.KindBadResponse:
		response.Error(c, http.StatusBadGateway, codeBadResponse, appErr.Message)
	case apperrors.KindComposition:
		details := ""
		if appErr.Err != nil {
			details = appErr.Err.Error()
		}
		response.ErrorWithDetails(c, http.StatusInternalServerError, codeComposition, appErr.Message, details)
	case apperrors.KindExportBusy:
		response.Conflict(c, codeExportBusy, appErr.Message)
	default:
		response.InternalError(c)
	}
}
