package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"cefet-timetable/backend/config"
	"cefet-timetable/backend/internal/timetable"
	apperrors "cefet-timetable/backend/pkg/errors"
)

// ErrCompositionFailed 文档生成失败
var ErrCompositionFailed = apperrors.ErrComposition

// ── 版式常量（A4 横向，单位 mm） ──

const (
	pageWidth  = 297.0
	pageHeight = 210.0

	ptPerMM          = 72.0 / 25.4
	lineHeightFactor = 1.15

	pageMargin        = 15.0
	tableTopMargin    = 10.0
	tableBottomMargin = 10.0
	timeColumnWidth   = 25.0
	gridLineWidth     = 0.1

	titleY        = 15.0
	subtitleGap   = 10.0
	tableGap      = 15.0
	emptyMsgGap   = 50.0
	footerOffset  = 5.0
	legendGap     = 15.0
	legendFloor   = 25.0
	legendItemW   = 60.0
	legendRowGap  = 6.0
	legendFirstDy = 5.0
	swatchSize    = 3.0

	nominalFontSize    = 8.0
	minFontSize        = 6.0
	nominalPadding     = 2.0
	minPadding         = 1.0
	estimatedRowHeight = 12.0
	// 表格下方为图例与页脚预留的高度
	reservedBelowTable = 40.0

	placeholderText = "---"
	fontFamily      = "Helvetica"
)

var (
	headerColor    = timetable.RGB{R: 30, G: 64, B: 175}
	mutedColor     = timetable.RGB{R: 107, G: 114, B: 128}
	timeColumnFill = timetable.RGB{R: 243, G: 244, B: 246}
	bodyTextColor  = timetable.RGB{R: 80, G: 80, B: 80}
	gridLineColor  = timetable.RGB{R: 200, G: 200, B: 200}
	white          = timetable.RGB{R: 255, G: 255, B: 255}
	black          = timetable.RGB{}
)

// ── 文档计划（纯计算，不依赖渲染库） ──

// PlanCell 表体单元格
type PlanCell struct {
	Text        string
	Fill        timetable.RGB
	Placeholder bool
}

// PlanRow 表体的一行，对应一个时间段
type PlanRow struct {
	TimeSlot string
	Cells    []PlanCell
}

// LegendItem 图例项
type LegendItem struct {
	Teacher string
	Color   timetable.RGB
}

// PagePlan 一个学期（或兜底空页）的版面内容
type PagePlan struct {
	Semester    int
	HasSemester bool
	Title       string
	Subtitle    string
	Header      []string
	Rows        []PlanRow
	FontSize    float64
	Padding     float64
	Legend      []LegendItem
	// EmptyMessage 非空时代替表格与图例
	EmptyMessage string
}

// DocumentPlan 整份文档的版面计划
type DocumentPlan struct {
	GeneratedAt time.Time
	FileName    string
	Pages       []PagePlan
	// Dropped 各学期网格中被丢弃的重复条目总数
	Dropped int
}

// PDFFileName 按生成日期命名
func PDFFileName(t time.Time) string {
	return "horario-academico-" + t.Format("02-01-2006") + ".pdf"
}

// ResolvePageSemesters 决定文档的学期页序列
//
// 优先使用显式指定；否则为课表中出现的学期；再否则为输入数据中可解析的学期。
// 均为空时返回 nil，由调用方生成单个空页。
func ResolvePageSemesters(s timetable.ScheduleByDay, input timetable.InputSummary, override []int) []int {
	if len(override) > 0 {
		return override
	}
	if sems := timetable.Semesters(s); len(sems) > 0 {
		return sems
	}
	return input.NumericSemesters()
}

// PlanDocument 构建文档计划
func PlanDocument(s timetable.ScheduleByDay, input timetable.InputSummary, override []int, now time.Time) DocumentPlan {
	plan := DocumentPlan{
		GeneratedAt: now,
		FileName:    PDFFileName(now),
	}
	subtitle := "Gerado em: " + now.Format("02/01/2006")

	semesters := ResolvePageSemesters(s, input, override)
	if len(semesters) == 0 {
		plan.Pages = []PagePlan{{
			Title:        "Horário Acadêmico",
			Subtitle:     subtitle,
			EmptyMessage: "Nenhuma aula encontrada",
		}}
		return plan
	}

	allTeachers := timetable.Teachers(s)
	axis := timetable.BuildTimeAxis(s)
	days := s.AvailableDays()
	header := make([]string, 0, len(days)+1)
	header = append(header, "Horário")
	for _, d := range days {
		header = append(header, timetable.DayDisplayName(d))
	}

	for _, sem := range semesters {
		page := PagePlan{
			Semester:    sem,
			HasSemester: true,
			Title:       fmt.Sprintf("Horário Acadêmico - Semestre %d", sem),
			Subtitle:    subtitle,
			Header:      header,
		}
		grid := timetable.Project(s, axis, strconv.Itoa(sem))
		plan.Dropped += grid.Dropped

		for si, slot := range grid.Slots {
			row := PlanRow{TimeSlot: slot, Cells: make([]PlanCell, len(grid.Days))}
			occupied := false
			for di := range grid.Days {
				cell := grid.Cell(di, si)
				if !cell.Occupied {
					row.Cells[di] = PlanCell{Text: placeholderText, Fill: timetable.PlaceholderFill, Placeholder: true}
					continue
				}
				occupied = true
				row.Cells[di] = PlanCell{
					Text: cellText(cell.Class),
					Fill: timetable.TeacherColor(cell.Class.Teacher, allTeachers),
				}
			}
			if occupied {
				page.Rows = append(page.Rows, row)
			}
		}

		if len(page.Rows) == 0 {
			page.EmptyMessage = fmt.Sprintf("Nenhuma aula encontrada para o Semestre %d", sem)
			plan.Pages = append(plan.Pages, page)
			continue
		}

		page.FontSize, page.Padding = tableScale(len(page.Rows))
		for _, t := range timetable.TeachersOfSemester(s, sem) {
			page.Legend = append(page.Legend, LegendItem{Teacher: t, Color: timetable.TeacherColor(t, allTeachers)})
		}
		plan.Pages = append(plan.Pages, page)
	}
	return plan
}

// cellText 学科、教师、教室各占一行，空值省略
func cellText(c timetable.CanonicalClass) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Discipline, c.Teacher, c.Room} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

// tableScale 行数超过估算容量时缩小字号与内边距
func tableScale(rows int) (fontSize, padding float64) {
	startY := titleY + subtitleGap + tableGap
	maxRows := int(math.Floor((pageHeight - startY - reservedBelowTable) / estimatedRowHeight))
	fontSize, padding = nominalFontSize, nominalPadding
	if rows > maxRows {
		fontSize = math.Max(minFontSize, nominalFontSize-math.Floor(float64(rows-maxRows)/3))
		padding = math.Max(minPadding, padding-1)
	}
	return fontSize, padding
}

// ── PDF 渲染 ──

// PDFOptions 单次生成参数
type PDFOptions struct {
	// Semesters 非空时覆盖学期页序列
	Semesters []int
	// Now 生成时间，零值取当前时间
	Now time.Time
}

// PDFComposer 课表 PDF 生成器
type PDFComposer interface {
	// Compose 生成完整文档；失败时不返回任何部分内容
	Compose(ctx context.Context, s timetable.ScheduleByDay, input timetable.InputSummary, opts PDFOptions) (*bytes.Buffer, string, error)
}

type pdfComposer struct {
	loc      *time.Location
	compress bool
	now      func() time.Time
	logger   *zap.Logger
}

// NewPDFComposer 创建 PDFComposer 实例
func NewPDFComposer(cfg *config.ExportConfig, logger *zap.Logger) PDFComposer {
	return &pdfComposer{
		loc:      cfg.Location(),
		compress: cfg.Compress,
		now:      time.Now,
		logger:   logger,
	}
}

const composeOp = "pdf.compose"

func (c *pdfComposer) Compose(ctx context.Context, s timetable.ScheduleByDay, input timetable.InputSummary, opts PDFOptions) (buf *bytes.Buffer, name string, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("PDF 生成异常", zap.Any("panic", r))
			buf, name = nil, ""
			err = apperrors.New(apperrors.KindComposition, composeOp, "Falha ao gerar PDF. Tente novamente.", fmt.Errorf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, "", apperrors.New(apperrors.KindComposition, composeOp, "Geração do PDF cancelada.", err)
	}

	now := opts.Now
	if now.IsZero() {
		now = c.now()
	}
	plan := PlanDocument(s, input, opts.Semesters, now.In(c.loc))
	if plan.Dropped > 0 {
		c.logger.Warn("同一时段存在重复课程，已保留第一条", zap.Int("dropped", plan.Dropped))
	}

	out, err := renderPDF(plan, c.compress)
	if err != nil {
		c.logger.Error("PDF 渲染失败", zap.Error(err))
		return nil, "", apperrors.New(apperrors.KindComposition, composeOp, "Falha ao gerar PDF. Tente novamente.", err)
	}
	return out, plan.FileName, nil
}

type pdfRenderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func renderPDF(plan DocumentPlan, compress bool) (*bytes.Buffer, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(pageMargin, tableTopMargin, pageMargin)
	pdf.SetCellMargin(0)
	pdf.SetCreationDate(plan.GeneratedAt)
	pdf.SetTitle("Horário Acadêmico", true)
	pdf.SetCreator("grade-horaria", true)

	r := &pdfRenderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	for _, page := range plan.Pages {
		r.page(page)
	}
	r.footers()

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *pdfRenderer) setTextColor(c timetable.RGB) {
	r.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}

func (r *pdfRenderer) setFillColor(c timetable.RGB) {
	r.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

// centered 在页面水平居中输出一行文字
func (r *pdfRenderer) centered(text string, y float64) {
	s := r.tr(text)
	w, _ := r.pdf.GetPageSize()
	r.pdf.Text((w-r.pdf.GetStringWidth(s))/2, y, s)
}

func (r *pdfRenderer) page(p PagePlan) {
	r.pdf.AddPage()

	y := titleY
	r.pdf.SetFont(fontFamily, "", 18)
	r.setTextColor(headerColor)
	r.centered(p.Title, y)

	y += subtitleGap
	r.pdf.SetFont(fontFamily, "", 10)
	r.setTextColor(mutedColor)
	r.centered(p.Subtitle, y)

	y += tableGap
	if p.EmptyMessage != "" {
		r.pdf.SetFont(fontFamily, "", 12)
		r.setTextColor(mutedColor)
		r.centered(p.EmptyMessage, y+emptyMsgGap)
		return
	}

	finalY := r.table(p, y)
	r.legend(p, finalY)
}

// ── 表格 ──

type tableCell struct {
	lines [][]byte
	fill  timetable.RGB
	color timetable.RGB
	style string
}

func (r *pdfRenderer) table(p PagePlan, startY float64) float64 {
	w, h := r.pdf.GetPageSize()
	widths := make([]float64, len(p.Header))
	widths[0] = timeColumnWidth
	if n := len(p.Header) - 1; n > 0 {
		dayW := (w - 2*pageMargin - timeColumnWidth) / float64(n)
		for i := 1; i < len(widths); i++ {
			widths[i] = dayW
		}
	}

	headFont := p.FontSize + 1
	header := make([]tableCell, len(p.Header))
	r.pdf.SetFont(fontFamily, "B", headFont)
	for i, text := range p.Header {
		header[i] = tableCell{lines: r.wrap(text, widths[i]-2*p.Padding), fill: headerColor, color: white, style: "B"}
	}
	headH := rowHeight(header, headFont, p.Padding)

	y := startY
	r.row(header, widths, y, headH, headFont)
	y += headH

	for _, row := range p.Rows {
		cells := make([]tableCell, 0, len(row.Cells)+1)
		r.pdf.SetFont(fontFamily, "B", p.FontSize)
		cells = append(cells, tableCell{
			lines: r.wrap(row.TimeSlot, widths[0]-2*p.Padding),
			fill:  timeColumnFill,
			color: bodyTextColor,
			style: "B",
		})
		r.pdf.SetFont(fontFamily, "", p.FontSize)
		for i, c := range row.Cells {
			cells = append(cells, tableCell{
				lines: r.wrap(c.Text, widths[i+1]-2*p.Padding),
				fill:  c.Fill,
				color: bodyTextColor,
			})
		}
		rh := rowHeight(cells, p.FontSize, p.Padding)

		// 放不下时换页续表并重复表头
		if y+rh > h-tableBottomMargin && y > tableTopMargin+headH {
			r.pdf.AddPage()
			y = tableTopMargin
			r.row(header, widths, y, headH, headFont)
			y += headH
		}
		r.row(cells, widths, y, rh, p.FontSize)
		y += rh
	}
	return y
}

// wrap 按显式换行拆分后再按宽度折行，使用当前字体度量
func (r *pdfRenderer) wrap(text string, width float64) [][]byte {
	var lines [][]byte
	for _, seg := range strings.Split(text, "\n") {
		parts := r.pdf.SplitLines([]byte(r.tr(seg)), width)
		if len(parts) == 0 {
			parts = [][]byte{{}}
		}
		lines = append(lines, parts...)
	}
	return lines
}

func lineHeight(fontSize float64) float64 {
	return fontSize / ptPerMM * lineHeightFactor
}

func rowHeight(cells []tableCell, fontSize, padding float64) float64 {
	maxLines := 1
	for _, c := range cells {
		if len(c.lines) > maxLines {
			maxLines = len(c.lines)
		}
	}
	return float64(maxLines)*lineHeight(fontSize) + 2*padding
}

// row 绘制一行：底色与边框，文字水平、垂直居中
func (r *pdfRenderer) row(cells []tableCell, widths []float64, y, height, fontSize float64) {
	lh := lineHeight(fontSize)
	ascent := fontSize / ptPerMM * 0.75
	x := pageMargin
	for i, c := range cells {
		r.setFillColor(c.fill)
		r.pdf.SetDrawColor(int(gridLineColor.R), int(gridLineColor.G), int(gridLineColor.B))
		r.pdf.SetLineWidth(gridLineWidth)
		r.pdf.Rect(x, y, widths[i], height, "FD")

		r.pdf.SetFont(fontFamily, c.style, fontSize)
		r.setTextColor(c.color)
		top := y + (height-float64(len(c.lines))*lh)/2
		for li, line := range c.lines {
			if len(line) == 0 {
				continue
			}
			s := string(line)
			tx := x + (widths[i]-r.pdf.GetStringWidth(s))/2
			ty := top + float64(li)*lh + (lh-fontSize/ptPerMM)/2 + ascent
			r.pdf.Text(tx, ty, s)
		}
		x += widths[i]
	}
}

// ── 图例 ──

func (r *pdfRenderer) legend(p PagePlan, finalY float64) {
	w, h := r.pdf.GetPageSize()
	y := math.Min(finalY+legendGap, h-legendFloor)

	r.pdf.SetFont(fontFamily, "", 8)
	r.setTextColor(black)
	r.pdf.Text(pageMargin, y, r.tr("Legenda de Professores:"))

	perRow := int(math.Floor((w - 2*pageMargin) / legendItemW))
	if perRow < 1 {
		perRow = 1
	}
	x := pageMargin
	y += legendFirstDy
	for i, item := range p.Legend {
		if i > 0 && i%perRow == 0 {
			y += legendRowGap
			x = pageMargin
			if y > h-tableBottomMargin {
				r.pdf.AddPage()
				r.pdf.SetFont(fontFamily, "", 8)
				y = tableTopMargin + legendFirstDy
			}
		}
		r.setFillColor(item.Color)
		r.pdf.Rect(x, y-swatchSize, swatchSize, swatchSize, "F")
		r.setTextColor(black)
		r.pdf.Text(x+swatchSize+2, y, r.tr(item.Teacher))
		x += legendItemW
	}
}

// footers 所有页面生成后统一补页码
func (r *pdfRenderer) footers() {
	n := r.pdf.PageCount()
	_, h := r.pdf.GetPageSize()
	for i := 1; i <= n; i++ {
		r.pdf.SetPage(i)
		r.pdf.SetFont(fontFamily, "", 8)
		r.setTextColor(mutedColor)
		r.centered(fmt.Sprintf("Página %d de %d", i, n), h-footerOffset)
	}
}
