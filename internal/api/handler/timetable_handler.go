package handler

import (
	"github.com/gin-gonic/gin"

	"cefet-timetable/backend/internal/dto"
	"cefet-timetable/backend/internal/service"
	"cefet-timetable/backend/pkg/response"
)

// TimetableHandler 课表模块 Handler
type TimetableHandler struct {
	svc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler 实例
func NewTimetableHandler(svc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

// Generate 调用排课服务生成课表
// POST /api/v1/timetables/generate
//
// 请求体为排课服务的输入数据，原样转发，不做字段绑定。
func (h *TimetableHandler) Generate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		writeError(c, err)
		return
	}

	resp, err := h.svc.Generate(c.Request.Context(), body)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, resp)
}

// Save 导入已计算好的课表
// POST /api/v1/timetables
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidBody, "Dados inválidos. Campos obrigatórios ausentes.")
		return
	}

	resp, err := h.svc.Save(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, resp)
}

// List 结果列表
// GET /api/v1/timetables?page=1&page_size=20
func (h *TimetableHandler) List(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, codeInvalidQuery, err.Error())
		return
	}

	items, total, err := h.svc.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// Get 结果详情
// GET /api/v1/timetables/:id
func (h *TimetableHandler) Get(c *gin.Context) {
	id, ok := MustGetResultID(c)
	if !ok {
		return
	}

	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, resp)
}

// Delete 删除结果
// DELETE /api/v1/timetables/:id
func (h *TimetableHandler) Delete(c *gin.Context) {
	id, ok := MustGetResultID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, nil)
}

// GetView 网格视图
// GET /api/v1/timetables/:id/view?semester=1&mode=weekly|daily&day=Monday
func (h *TimetableHandler) GetView(c *gin.Context) {
	id, ok := MustGetResultID(c)
	if !ok {
		return
	}
	var q dto.ViewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, codeInvalidQuery, "Parâmetros de visualização inválidos.")
		return
	}

	resp, err := h.svc.GetView(c.Request.Context(), id, &q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, resp)
}

// GetSummary 输入数据摘要
// GET /api/v1/timetables/:id/summary
func (h *TimetableHandler) GetSummary(c *gin.Context) {
	id, ok := MustGetResultID(c)
	if !ok {
		return
	}

	resp, err := h.svc.GetSummary(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, resp)
}

// RenderView 无状态网格视图
// POST /api/v1/render/view
func (h *TimetableHandler) RenderView(c *gin.Context) {
	var req dto.RenderViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidBody, "Dados inválidos. Campos obrigatórios ausentes.")
		return
	}

	resp, err := h.svc.RenderView(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, resp)
}
