package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"cefet-timetable/backend/config"
	"cefet-timetable/backend/internal/timetable"
)

var planNow = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func mustSchedule(t *testing.T, raw string) timetable.ScheduleByDay {
	t.Helper()
	s, err := timetable.ParseSchedule([]byte(raw))
	if err != nil {
		t.Fatalf("ParseSchedule 失败: %v", err)
	}
	return s
}

func mustInput(t *testing.T, raw string) timetable.InputSummary {
	t.Helper()
	in, err := timetable.ParseInput([]byte(raw))
	if err != nil {
		t.Fatalf("ParseInput 失败: %v", err)
	}
	return in
}

func newTestComposer() PDFComposer {
	return NewPDFComposer(&config.ExportConfig{Timezone: "UTC"}, zap.NewNop())
}

// ════════════════════════════════════════════════════════════
// PlanDocument
// ════════════════════════════════════════════════════════════

func TestPlanDocument_PagePerSemester(t *testing.T) {
	plan := PlanDocument(mustSchedule(t, sampleTimetable), timetable.InputSummary{}, nil, planNow)

	if plan.FileName != "horario-academico-19-10-2026.pdf" {
		t.Errorf("文件名不正确: %s", plan.FileName)
	}
	if len(plan.Pages) != 2 {
		t.Fatalf("期望 2 页（每学期一页），实际 %d", len(plan.Pages))
	}

	p1 := plan.Pages[0]
	if p1.Title != "Horário Acadêmico - Semestre 1" || p1.Subtitle != "Gerado em: 19/10/2026" {
		t.Errorf("页眉不正确: %q / %q", p1.Title, p1.Subtitle)
	}
	if strings.Join(p1.Header, "|") != "Horário|Segunda|Terça" {
		t.Errorf("表头不正确: %v", p1.Header)
	}
	if len(p1.Rows) != 2 {
		t.Fatalf("学期 1 期望 2 行，实际 %d", len(p1.Rows))
	}
	if got := p1.Rows[0].Cells[0].Text; got != "Calculus I\nA. Smith\n101" {
		t.Errorf("单元格文字不正确: %q", got)
	}
	if c := p1.Rows[0].Cells[1]; !c.Placeholder || c.Text != "---" || c.Fill != timetable.PlaceholderFill {
		t.Errorf("空单元格应为占位符: %+v", c)
	}

	// 学期 2 只有 08h00 一行，10h00 全空行被去掉
	p2 := plan.Pages[1]
	if len(p2.Rows) != 1 || p2.Rows[0].TimeSlot != "08h00-08h50" {
		t.Errorf("学期 2 应只保留 1 行，实际 %+v", p2.Rows)
	}
}

func TestPlanDocument_TeacherColors(t *testing.T) {
	plan := PlanDocument(mustSchedule(t, sampleTimetable), timetable.InputSummary{}, nil, planNow)
	all := []string{"A. Smith", "B. Souza", "C. Lima"}

	// 学期 2 的 C. Lima 使用跨学期列表中的下标 2
	p2 := plan.Pages[1]
	if got := p2.Rows[0].Cells[1].Fill; got != timetable.TeacherColor("C. Lima", all) {
		t.Errorf("颜色应按跨学期教师列表分配，实际 %v", got)
	}
	if len(p2.Legend) != 1 || p2.Legend[0].Teacher != "C. Lima" {
		t.Errorf("图例只应包含本学期教师: %+v", p2.Legend)
	}
	if len(plan.Pages[0].Legend) != 2 {
		t.Errorf("学期 1 图例应有 2 位教师，实际 %d", len(plan.Pages[0].Legend))
	}
}

func TestPlanDocument_EmptyCellText(t *testing.T) {
	s := mustSchedule(t, `{"Monday": [{"time": "08h00", "teacher": "X", "semester": 1}]}`)
	plan := PlanDocument(s, timetable.InputSummary{}, nil, planNow)

	if got := plan.Pages[0].Rows[0].Cells[0].Text; got != "X" {
		t.Errorf("空字段应省略，实际 %q", got)
	}
}

func TestPlanDocument_EmptyTimetable(t *testing.T) {
	for _, raw := range []string{`{}`, `{"Monday": [], "Friday": []}`} {
		plan := PlanDocument(mustSchedule(t, raw), timetable.InputSummary{}, nil, planNow)
		if len(plan.Pages) != 1 || plan.Pages[0].EmptyMessage != "Nenhuma aula encontrada" {
			t.Errorf("%s 应生成单个空页，实际 %+v", raw, plan.Pages)
		}
	}

	// 课表为空时按输入数据中的学期出页
	in := mustInput(t, `{"semesters": ["2", "1", "x"]}`)
	plan := PlanDocument(mustSchedule(t, `{}`), in, nil, planNow)
	if len(plan.Pages) != 2 {
		t.Fatalf("期望按输入学期生成 2 页，实际 %d", len(plan.Pages))
	}
	if plan.Pages[0].EmptyMessage != "Nenhuma aula encontrada para o Semestre 1" {
		t.Errorf("空页提示不正确: %s", plan.Pages[0].EmptyMessage)
	}
}

func TestPlanDocument_SemesterOverride(t *testing.T) {
	plan := PlanDocument(mustSchedule(t, sampleTimetable), timetable.InputSummary{}, []int{2, 5}, planNow)

	if len(plan.Pages) != 2 || plan.Pages[0].Semester != 2 || plan.Pages[1].Semester != 5 {
		t.Fatalf("应按指定学期出页: %+v", plan.Pages)
	}
	if plan.Pages[1].EmptyMessage == "" {
		t.Error("不存在的学期应为空页")
	}
}

func TestPlanDocument_DuplicatesCounted(t *testing.T) {
	s := mustSchedule(t, `{"Monday": [
		{"time": "08h00", "course": "A", "semester": 1},
		{"time": "08h00", "course": "B", "semester": 1}
	]}`)
	plan := PlanDocument(s, timetable.InputSummary{}, nil, planNow)

	if plan.Dropped != 1 {
		t.Errorf("期望丢弃 1 条重复，实际 %d", plan.Dropped)
	}
	if plan.Pages[0].Rows[0].Cells[0].Text != "A" {
		t.Error("重复时段应保留第一条")
	}
}

func TestTableScale(t *testing.T) {
	cases := []struct {
		rows        int
		wantFont    float64
		wantPadding float64
	}{
		{1, 8, 2},
		{10, 8, 2},
		{11, 8, 1},
		{13, 7, 1},
		{15, 7, 1},
		{40, 6, 1},
	}
	for _, tc := range cases {
		font, padding := tableScale(tc.rows)
		if font != tc.wantFont || padding != tc.wantPadding {
			t.Errorf("%d 行期望 (%v, %v)，实际 (%v, %v)", tc.rows, tc.wantFont, tc.wantPadding, font, padding)
		}
	}
}

func TestPlanDocument_ManyRowsKept(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"Monday": [`)
	for i := 0; i < 20; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"time": "%02dh00", "course": "C%d", "semester": 1}`, i+1, i)
	}
	b.WriteString("]}")
	plan := PlanDocument(mustSchedule(t, b.String()), timetable.InputSummary{}, nil, planNow)

	p := plan.Pages[0]
	if len(p.Rows) != 20 {
		t.Errorf("行不应因空间不足被丢弃，期望 20，实际 %d", len(p.Rows))
	}
	if p.FontSize >= nominalFontSize {
		t.Errorf("行数过多时应缩小字号，实际 %v", p.FontSize)
	}
}

// ════════════════════════════════════════════════════════════
// Compose
// ════════════════════════════════════════════════════════════

func TestPDFComposer_Compose(t *testing.T) {
	c := newTestComposer()
	buf, name, err := c.Compose(context.Background(), mustSchedule(t, sampleTimetable),
		timetable.InputSummary{}, PDFOptions{Now: planNow})
	if err != nil {
		t.Fatalf("Compose 失败: %v", err)
	}
	if name != "horario-academico-19-10-2026.pdf" {
		t.Errorf("文件名不正确: %s", name)
	}
	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("输出应以 %PDF 开头")
	}
	for _, want := range []string{"Semestre 1", "Semestre 2", "Calculus I", "Legenda de Professores:", "gina 1 de 2", "gina 2 de 2", "Gerado em: 19/10/2026"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("PDF 中缺少 %q", want)
		}
	}
}

func TestPDFComposer_LongTableAndLegendSpanPages(t *testing.T) {
	const slots, teachers = 60, 30
	var b strings.Builder
	b.WriteString(`{"Monday": [`)
	for i := 1; i <= slots; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"time": "S%02d", "course": "Disc%02d", "teacher": "Docente%02d", "semester": 1}`, i, i, i%teachers)
	}
	b.WriteString(`], "Tuesday": [{"time": "S01", "course": "Extra", "teacher": "Docente00", "semester": 1}]}`)

	buf, _, err := newTestComposer().Compose(context.Background(), mustSchedule(t, b.String()),
		timetable.InputSummary{}, PDFOptions{Now: planNow})
	if err != nil {
		t.Fatalf("Compose 失败: %v", err)
	}
	out := buf.String()

	// 找到总页数 N，并确认每页页脚都是 "Página i de N"
	pages := 0
	for n := 2; n <= 50; n++ {
		if strings.Contains(out, fmt.Sprintf("gina %d de %d", n, n)) {
			pages = n
			break
		}
	}
	if pages < 2 {
		t.Fatalf("单学期长表应续到多页，实际页数 %d", pages)
	}
	for i := 1; i <= pages; i++ {
		if !strings.Contains(out, fmt.Sprintf("gina %d de %d", i, pages)) {
			t.Errorf("缺少页脚 Página %d de %d", i, pages)
		}
	}

	// 续页重复表头
	if n := strings.Count(out, "Segunda"); n < 2 {
		t.Errorf("续页应重复表头，Segunda 出现 %d 次", n)
	}

	for i := 1; i <= slots; i++ {
		if label := fmt.Sprintf("(S%02d)", i); !strings.Contains(out, label) {
			t.Errorf("时段 %s 未输出，行被丢弃", label)
		}
	}
	for i := 0; i < teachers; i++ {
		name := fmt.Sprintf("Docente%02d", i)
		if strings.Count(out, "("+name+")") < 2 {
			t.Errorf("教师 %s 应同时出现在表格与图例中", name)
		}
	}
}

func TestPDFComposer_EmptyTimetable(t *testing.T) {
	c := newTestComposer()
	buf, _, err := c.Compose(context.Background(), mustSchedule(t, `{}`), timetable.InputSummary{}, PDFOptions{Now: planNow})
	if err != nil {
		t.Fatalf("空课表不应失败: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Nenhuma aula encontrada")) {
		t.Error("空课表应输出无课提示")
	}

	buf, _, err = c.Compose(context.Background(), mustSchedule(t, `{"Monday": []}`), timetable.InputSummary{},
		PDFOptions{Now: planNow, Semesters: []int{3}})
	if err != nil {
		t.Fatalf("空学期不应失败: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Nenhuma aula encontrada para o Semestre 3")) {
		t.Error("空学期应输出无课提示")
	}
}

func TestPDFComposer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf, _, err := newTestComposer().Compose(ctx, mustSchedule(t, sampleTimetable), timetable.InputSummary{}, PDFOptions{})
	if !errors.Is(err, ErrCompositionFailed) {
		t.Errorf("期望 ErrCompositionFailed，实际 %v", err)
	}
	if buf != nil {
		t.Error("失败时不应返回部分内容")
	}
}
