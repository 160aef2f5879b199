package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"cefet-timetable/backend/internal/dto"
	"cefet-timetable/backend/internal/service"
	apperrors "cefet-timetable/backend/pkg/errors"
	"cefet-timetable/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock TimetableService ──

type mockTimetableService struct {
	generateResult *dto.GenerateResponse
	generateErr    error
	generateBody   []byte
	saveErr        error
	getResult      *dto.ResultResponse
	getErr         error
	listResult     []dto.ResultListItem
	listTotal      int64
	listErr        error
	deleteErr      error
	viewResult     *dto.TimetableViewResponse
	viewErr        error
	viewQuery      *dto.ViewQuery
	summaryResult  *dto.InputSummaryResponse
	summaryErr     error
}

func (m *mockTimetableService) Generate(_ context.Context, input []byte) (*dto.GenerateResponse, error) {
	m.generateBody = input
	return m.generateResult, m.generateErr
}
func (m *mockTimetableService) Save(_ context.Context, _ *dto.SaveTimetableRequest) (*dto.GenerateResponse, error) {
	return m.generateResult, m.saveErr
}
func (m *mockTimetableService) Get(_ context.Context, _ string) (*dto.ResultResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockTimetableService) List(_ context.Context, _ *dto.PaginationRequest) ([]dto.ResultListItem, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockTimetableService) Delete(_ context.Context, _ string) error {
	return m.deleteErr
}
func (m *mockTimetableService) GetView(_ context.Context, _ string, q *dto.ViewQuery) (*dto.TimetableViewResponse, error) {
	m.viewQuery = q
	return m.viewResult, m.viewErr
}
func (m *mockTimetableService) RenderView(_ context.Context, req *dto.RenderViewRequest) (*dto.TimetableViewResponse, error) {
	m.viewQuery = &req.ViewQuery
	return m.viewResult, m.viewErr
}
func (m *mockTimetableService) GetSummary(_ context.Context, _ string) (*dto.InputSummaryResponse, error) {
	return m.summaryResult, m.summaryErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf           *bytes.Buffer
	filename      string
	data          []byte
	err           error
	lastSemesters []int
}

func (m *mockExportService) exportDoc(_ context.Context, _ string, semesters []int) (*bytes.Buffer, string, error) {
	m.lastSemesters = semesters
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportPDF(ctx context.Context, id string, s []int) (*bytes.Buffer, string, error) {
	return m.exportDoc(ctx, id, s)
}
func (m *mockExportService) ExportXLSX(ctx context.Context, id string, s []int) (*bytes.Buffer, string, error) {
	return m.exportDoc(ctx, id, s)
}
func (m *mockExportService) ExportICS(ctx context.Context, id string, s []int) (*bytes.Buffer, string, error) {
	return m.exportDoc(ctx, id, s)
}
func (m *mockExportService) DownloadTimetable(_ context.Context, _ string) ([]byte, string, error) {
	return m.data, m.filename, m.err
}
func (m *mockExportService) DownloadInput(_ context.Context, _ string) ([]byte, string, error) {
	return m.data, m.filename, m.err
}
func (m *mockExportService) RenderPDF(_ context.Context, _ *dto.RenderPDFRequest) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── 辅助函数 ──

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(method, route, target string, h gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, h)
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// TimetableHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTimetableHandler_Generate_Success(t *testing.T) {
	mock := &mockTimetableService{generateResult: &dto.GenerateResponse{Success: true, ResultID: "r1"}}
	h := NewTimetableHandler(mock)

	w := serve("POST", "/generate", "/generate", h.Generate, `{"courses": []}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("期望 201，实际 %d", w.Code)
	}
	if string(mock.generateBody) != `{"courses": []}` {
		t.Errorf("请求体应原样传给 Service，实际 %s", mock.generateBody)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("期望 code=0，实际 %d", resp.Code)
	}
}

func TestTimetableHandler_Generate_ErrorMapping(t *testing.T) {
	rejected := apperrors.New(apperrors.KindRejected, "scheduler.generate",
		"Falha ao gerar horário. Por favor, verifique seus dados e tente novamente.", nil)
	rejected.Status = http.StatusUnprocessableEntity

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"invalid input", service.ErrInvalidInput, http.StatusBadRequest, codeInvalidBody},
		{"unavailable", apperrors.New(apperrors.KindUnavailable, "scheduler.generate", "Erro de conexão. Tente novamente.", nil), http.StatusServiceUnavailable, codeUnavailable},
		{"rejected", rejected, http.StatusUnprocessableEntity, codeRejected},
		{"bad response", apperrors.New(apperrors.KindBadResponse, "scheduler.generate", "x", nil), http.StatusBadGateway, codeBadResponse},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, 50000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewTimetableHandler(&mockTimetableService{generateErr: tc.err})
			w := serve("POST", "/generate", "/generate", h.Generate, `{}`)
			if w.Code != tc.wantStatus {
				t.Errorf("期望 %d，实际 %d", tc.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tc.wantCode {
				t.Errorf("期望 code=%d，实际 %d", tc.wantCode, resp.Code)
			}
		})
	}
}

func TestTimetableHandler_Generate_RejectedMessage(t *testing.T) {
	rejected := apperrors.New(apperrors.KindRejected, "scheduler.generate",
		"Falha ao gerar horário. Por favor, verifique seus dados e tente novamente.", nil)
	rejected.Status = http.StatusBadRequest
	h := NewTimetableHandler(&mockTimetableService{generateErr: rejected})

	w := serve("POST", "/generate", "/generate", h.Generate, `{}`)
	resp := parseResponse(w)
	if resp.Message != "Falha ao gerar horário. Por favor, verifique seus dados e tente novamente." {
		t.Errorf("提示文案不正确: %s", resp.Message)
	}
}

func TestTimetableHandler_Save_BadJSON(t *testing.T) {
	h := NewTimetableHandler(&mockTimetableService{})

	w := serve("POST", "/timetables", "/timetables", h.Save, `{"input_data": {}}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少 timetable 期望 400，实际 %d", w.Code)
	}
}

func TestTimetableHandler_Get_NotFound(t *testing.T) {
	h := NewTimetableHandler(&mockTimetableService{getErr: service.ErrResultNotFound})

	w := serve("GET", "/timetables/:id", "/timetables/abc", h.Get, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != codeResultNotFound {
		t.Errorf("期望 code=%d，实际 %d", codeResultNotFound, resp.Code)
	}
}

func TestTimetableHandler_List(t *testing.T) {
	mock := &mockTimetableService{
		listResult: []dto.ResultListItem{{ResultID: "a"}, {ResultID: "b"}},
		listTotal:  5,
	}
	h := NewTimetableHandler(mock)

	w := serve("GET", "/timetables", "/timetables?page=1&page_size=2", h.List, "")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	var body struct {
		Data response.PageData `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.TotalPages != 3 {
		t.Errorf("期望 3 页，实际 %d", body.Data.Pagination.TotalPages)
	}

	w = serve("GET", "/timetables", "/timetables?page_size=500", h.List, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("page_size 超限期望 400，实际 %d", w.Code)
	}
}

func TestTimetableHandler_GetView(t *testing.T) {
	mock := &mockTimetableService{viewResult: &dto.TimetableViewResponse{Mode: dto.ViewModeDaily}}
	h := NewTimetableHandler(mock)

	w := serve("GET", "/timetables/:id/view", "/timetables/r1/view?semester=2&mode=daily&day=Monday", h.GetView, "")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if mock.viewQuery.Semester != "2" || mock.viewQuery.Mode != "daily" || mock.viewQuery.Day != "Monday" {
		t.Errorf("查询参数绑定不正确: %+v", mock.viewQuery)
	}

	w = serve("GET", "/timetables/:id/view", "/timetables/r1/view?mode=monthly", h.GetView, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法 mode 期望 400，实际 %d", w.Code)
	}
}

func TestTimetableHandler_GetView_SemesterNotFound(t *testing.T) {
	h := NewTimetableHandler(&mockTimetableService{viewErr: service.ErrSemesterNotFound})

	w := serve("GET", "/timetables/:id/view", "/timetables/r1/view?semester=9", h.GetView, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
}

func TestTimetableHandler_RenderView(t *testing.T) {
	mock := &mockTimetableService{viewResult: &dto.TimetableViewResponse{Empty: true}}
	h := NewTimetableHandler(mock)

	w := serve("POST", "/render/view", "/render/view", h.RenderView, `{"timetable": {}, "semester": "1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if mock.viewQuery.Semester != "1" {
		t.Errorf("内嵌查询参数应从 JSON 绑定，实际 %+v", mock.viewQuery)
	}

	w = serve("POST", "/render/view", "/render/view", h.RenderView, `{"semester": "1"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少 timetable 期望 400，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportPDF_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("%PDF-1.3"),
		filename: "horario-academico-19-10-2026.pdf",
	}
	h := NewExportHandler(mock)

	w := serve("GET", "/timetables/:id/export/pdf", "/timetables/r1/export/pdf?semesters=2,1,2", h.ExportPDF, "")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != response.MIMEPDF {
		t.Errorf("Content-Type 不正确: %s", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `filename="horario-academico-19-10-2026.pdf"`) {
		t.Errorf("Content-Disposition 不正确: %s", cd)
	}
	if len(mock.lastSemesters) != 2 || mock.lastSemesters[0] != 1 || mock.lastSemesters[1] != 2 {
		t.Errorf("学期参数应去重并排序，实际 %v", mock.lastSemesters)
	}
}

func TestExportHandler_InvalidSemesters(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	w := serve("GET", "/timetables/:id/export/xlsx", "/timetables/r1/export/xlsx?semesters=1,x", h.ExportXLSX, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestExportHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"busy", apperrors.New(apperrors.KindExportBusy, "export.lock", "Uma exportação deste resultado já está em andamento.", nil), http.StatusConflict},
		{"composition", apperrors.New(apperrors.KindComposition, "pdf.compose", "Falha ao gerar PDF. Tente novamente.", errors.New("fpdf")), http.StatusInternalServerError},
		{"not found", service.ErrResultNotFound, http.StatusNotFound},
		{"generate fail", service.ErrExportGenerateFail, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewExportHandler(&mockExportService{err: tc.err})
			w := serve("GET", "/timetables/:id/export/pdf", "/timetables/r1/export/pdf", h.ExportPDF, "")
			if w.Code != tc.wantStatus {
				t.Errorf("期望 %d，实际 %d", tc.wantStatus, w.Code)
			}
		})
	}
}

func TestExportHandler_CompositionDetails(t *testing.T) {
	err := apperrors.New(apperrors.KindComposition, "pdf.compose", "Falha ao gerar PDF. Tente novamente.", errors.New("font missing"))
	h := NewExportHandler(&mockExportService{err: err})

	w := serve("GET", "/timetables/:id/export/pdf", "/timetables/r1/export/pdf", h.ExportPDF, "")
	resp := parseResponse(w)
	if resp.Details != "font missing" {
		t.Errorf("期望携带错误详情，实际 %q", resp.Details)
	}
}

func TestExportHandler_DownloadInput(t *testing.T) {
	mock := &mockExportService{data: []byte("{\n  \"a\": 1\n}"), filename: "dados-entrada.json"}
	h := NewExportHandler(mock)

	w := serve("GET", "/timetables/:id/download/input", "/timetables/r1/download/input", h.DownloadInput, "")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Content-Type 不正确: %s", w.Header().Get("Content-Type"))
	}

	h = NewExportHandler(&mockExportService{err: service.ErrExportNoInput})
	w = serve("GET", "/timetables/:id/download/input", "/timetables/r1/download/input", h.DownloadInput, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("无输入数据期望 404，实际 %d", w.Code)
	}
}
