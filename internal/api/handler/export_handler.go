package handler

import (
	"bytes"
	"context"

	"github.com/gin-gonic/gin"

	"cefet-timetable/backend/internal/dto"
	"cefet-timetable/backend/internal/service"
	"cefet-timetable/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

type exportFunc func(ctx context.Context, resultID string, semesters []int) (*bytes.Buffer, string, error)

// export 三种文档导出共用的流程
func (h *ExportHandler) export(c *gin.Context, fn exportFunc, contentType string) {
	id, ok := MustGetResultID(c)
	if !ok {
		return
	}
	semesters, ok := MustParseSemesters(c)
	if !ok {
		return
	}

	buf, filename, err := fn(c.Request.Context(), id, semesters)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Attachment(c, contentType, filename, buf.Bytes())
}

// ExportPDF 导出 PDF
// GET /api/v1/timetables/:id/export/pdf?semesters=1,2
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	h.export(c, h.exportSvc.ExportPDF, response.MIMEPDF)
}

// ExportXLSX 导出 Excel
// GET /api/v1/timetables/:id/export/xlsx?semesters=1,2
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	h.export(c, h.exportSvc.ExportXLSX, response.MIMEXLSX)
}

// ExportICS 导出 iCalendar
// GET /api/v1/timetables/:id/export/ics?semesters=1
func (h *ExportHandler) ExportICS(c *gin.Context) {
	h.export(c, h.exportSvc.ExportICS, response.MIMECalendar)
}

// DownloadTimetable 下载课表 JSON
// GET /api/v1/timetables/:id/download/timetable
func (h *ExportHandler) DownloadTimetable(c *gin.Context) {
	id, ok := MustGetResultID(c)
	if !ok {
		return
	}
	data, filename, err := h.exportSvc.DownloadTimetable(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Attachment(c, response.MIMEJSON, filename, data)
}

// DownloadInput 下载输入数据 JSON
// GET /api/v1/timetables/:id/download/input
func (h *ExportHandler) DownloadInput(c *gin.Context) {
	id, ok := MustGetResultID(c)
	if !ok {
		return
	}
	data, filename, err := h.exportSvc.DownloadInput(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Attachment(c, response.MIMEJSON, filename, data)
}

// RenderPDF 无状态导出 PDF
// POST /api/v1/render/pdf
func (h *ExportHandler) RenderPDF(c *gin.Context) {
	var req dto.RenderPDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidBody, "Dados inválidos. Campos obrigatórios ausentes.")
		return
	}

	buf, filename, err := h.exportSvc.RenderPDF(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Attachment(c, response.MIMEPDF, filename, buf.Bytes())
}
