package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ── XLSX 导出 ──────────────────────────────────────────────
//
// 与 PDF 共用同一份 DocumentPlan：
//   - 每个学期页对应一个 Sheet（"Semestre N"）
//   - 第 1 行标题、第 2 行生成日期、第 4 行表头
//   - 单元格底色与 PDF 相同（教师色 / 占位灰 / 时间列灰）
//   - 表格下方空一行后输出教师图例
// ─────────────────────────────────────────────────────────────

const (
	xlsxTitleRow  = 1
	xlsxDateRow   = 2
	xlsxHeaderRow = 4
	xlsxTimeColW  = 16
	xlsxDayColW   = 28
	xlsxLineH     = 15
)

type xlsxWriter struct {
	f      *excelize.File
	styles map[string]int
}

// RenderXLSX 按文档计划生成工作簿
func RenderXLSX(plan DocumentPlan) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	w := &xlsxWriter{f: f, styles: make(map[string]int)}
	for i, page := range plan.Pages {
		name := sheetName(page, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
		if err := w.sheet(name, page); err != nil {
			return nil, fmt.Errorf("写入工作表 %s 失败: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func sheetName(p PagePlan, idx int) string {
	if p.HasSemester {
		return fmt.Sprintf("Semestre %d", p.Semester)
	}
	if idx == 0 {
		return "Horário"
	}
	return fmt.Sprintf("Horário %d", idx+1)
}

// style 按 (底色, 粗体, 字色) 缓存样式
func (w *xlsxWriter) style(fill, fontColor string, bold bool, size float64) (int, error) {
	key := fmt.Sprintf("%s|%s|%t|%.1f", fill, fontColor, bold, size)
	if id, ok := w.styles[key]; ok {
		return id, nil
	}
	st := &excelize.Style{
		Font: &excelize.Font{Bold: bold, Size: size, Color: fontColor},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	}
	if fill != "" {
		st.Fill = excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1}
		st.Border = []excelize.Border{
			{Type: "left", Color: gridLineColor.Hex(), Style: 1},
			{Type: "right", Color: gridLineColor.Hex(), Style: 1},
			{Type: "top", Color: gridLineColor.Hex(), Style: 1},
			{Type: "bottom", Color: gridLineColor.Hex(), Style: 1},
		}
	}
	id, err := w.f.NewStyle(st)
	if err != nil {
		return 0, err
	}
	w.styles[key] = id
	return id, nil
}

func (w *xlsxWriter) put(sheet string, col, row int, value interface{}, styleID int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := w.f.SetCellValue(sheet, cell, value); err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, cell, cell, styleID)
}

func (w *xlsxWriter) sheet(name string, p PagePlan) error {
	cols := len(p.Header)
	if cols < 1 {
		cols = 1
	}
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}

	// 标题与日期
	titleStyle, err := w.style("", headerColor.Hex(), true, 16)
	if err != nil {
		return err
	}
	dateStyle, err := w.style("", mutedColor.Hex(), false, 10)
	if err != nil {
		return err
	}
	if err := w.put(name, 1, xlsxTitleRow, p.Title, titleStyle); err != nil {
		return err
	}
	if err := w.put(name, 1, xlsxDateRow, p.Subtitle, dateStyle); err != nil {
		return err
	}
	if cols > 1 {
		for _, r := range []int{xlsxTitleRow, xlsxDateRow} {
			if err := w.f.MergeCell(name, fmt.Sprintf("A%d", r), fmt.Sprintf("%s%d", lastCol, r)); err != nil {
				return err
			}
		}
	}

	if err := w.f.SetColWidth(name, "A", "A", xlsxTimeColW); err != nil {
		return err
	}
	if cols > 1 {
		if err := w.f.SetColWidth(name, "B", lastCol, xlsxDayColW); err != nil {
			return err
		}
	}

	if p.EmptyMessage != "" {
		msgStyle, err := w.style("", mutedColor.Hex(), false, 12)
		if err != nil {
			return err
		}
		return w.put(name, 1, xlsxHeaderRow, p.EmptyMessage, msgStyle)
	}

	// 表头
	headStyle, err := w.style(headerColor.Hex(), white.Hex(), true, 11)
	if err != nil {
		return err
	}
	for i, h := range p.Header {
		if err := w.put(name, i+1, xlsxHeaderRow, h, headStyle); err != nil {
			return err
		}
	}

	// 表体
	timeStyle, err := w.style(timeColumnFill.Hex(), bodyTextColor.Hex(), true, 10)
	if err != nil {
		return err
	}
	row := xlsxHeaderRow + 1
	for _, r := range p.Rows {
		if err := w.put(name, 1, row, r.TimeSlot, timeStyle); err != nil {
			return err
		}
		maxLines := 1
		for i, c := range r.Cells {
			st, err := w.style(c.Fill.Hex(), bodyTextColor.Hex(), false, 10)
			if err != nil {
				return err
			}
			if err := w.put(name, i+2, row, c.Text, st); err != nil {
				return err
			}
			if n := strings.Count(c.Text, "\n") + 1; n > maxLines {
				maxLines = n
			}
		}
		if err := w.f.SetRowHeight(name, row, float64(maxLines*xlsxLineH)); err != nil {
			return err
		}
		row++
	}

	// 图例
	if len(p.Legend) == 0 {
		return nil
	}
	row++
	labelStyle, err := w.style("", "#000000", true, 10)
	if err != nil {
		return err
	}
	if err := w.put(name, 1, row, "Legenda de Professores:", labelStyle); err != nil {
		return err
	}
	for _, item := range p.Legend {
		row++
		st, err := w.style(item.Color.Hex(), "#000000", false, 10)
		if err != nil {
			return err
		}
		if err := w.put(name, 1, row, "", st); err != nil {
			return err
		}
		plain, err := w.style("", "#000000", false, 10)
		if err != nil {
			return err
		}
		if err := w.put(name, 2, row, item.Teacher, plain); err != nil {
			return err
		}
	}
	return nil
}
