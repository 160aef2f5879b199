package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"cefet-timetable/backend/internal/timetable"
)

// ── ICS 导出 ──────────────────────────────────────────────
//
// 每个被占用的 (学期, 天, 时间段) 生成一个每周重复的 VEVENT：
//   - 首次上课日为生成日期所在周（周一起算）中对应的星期
//   - 时间从时间段标签解析（"07h00-07h50" / "07:00 - 07:50"），无法解析则跳过
//   - 只有开始时间时按一节课默认时长补齐
//   - UID 由结果 ID 与单元位置派生，重复导出时保持稳定
// ─────────────────────────────────────────────────────────────

const (
	defaultLessonLength = 50 * time.Minute
	icsProductID        = "-//grade-horaria//Horario Academico//PT"
)

var clockPattern = regexp.MustCompile(`(\d{1,2})\s*[hH:]\s*(\d{2})`)

var weekdayByKey = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
	"segunda":   time.Monday,
	"terca":     time.Tuesday,
	"terça":     time.Tuesday,
	"quarta":    time.Wednesday,
	"quinta":    time.Thursday,
	"sexta":     time.Friday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
	"domingo":   time.Sunday,
}

// dayWeekday 天的键对应的星期，未知键返回 false
func dayWeekday(day string) (time.Weekday, bool) {
	key := strings.ToLower(strings.TrimSpace(day))
	key = strings.TrimSuffix(key, "-feira")
	wd, ok := weekdayByKey[key]
	return wd, ok
}

// slotClock 从时间段标签解析开始、结束时刻（相对当天零点）
func slotClock(label string) (start, end time.Duration, ok bool) {
	m := clockPattern.FindAllStringSubmatch(label, 2)
	if len(m) == 0 {
		return 0, 0, false
	}
	toDur := func(hh, mm string) (time.Duration, bool) {
		h, err1 := strconv.Atoi(hh)
		mi, err2 := strconv.Atoi(mm)
		if err1 != nil || err2 != nil || h > 23 || mi > 59 {
			return 0, false
		}
		return time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute, true
	}
	start, ok = toDur(m[0][1], m[0][2])
	if !ok {
		return 0, 0, false
	}
	end = start + defaultLessonLength
	if len(m) > 1 {
		if e, ok2 := toDur(m[1][1], m[1][2]); ok2 && e > start {
			end = e
		}
	}
	return start, end, true
}

// weekStart 所在周的周一零点
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// icsOptions ICS 生成参数
type icsOptions struct {
	ResultID  string
	Semesters []int
	Anchor    time.Time
	Weeks     int
}

// buildICS 生成日历；返回内容与跳过的单元数
func buildICS(s timetable.ScheduleByDay, opts icsOptions) (string, int) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName("Horário Acadêmico")
	cal.SetXWRTimezone(opts.Anchor.Location().String())

	monday := weekStart(opts.Anchor)
	axis := timetable.BuildTimeAxis(s)
	stamp := opts.Anchor.UTC()
	skipped := 0

	for _, sem := range opts.Semesters {
		grid := timetable.Project(s, axis, strconv.Itoa(sem))
		for di, day := range grid.Days {
			wd, okDay := dayWeekday(day)
			for si, slot := range grid.Slots {
				cell := grid.Cell(di, si)
				if !cell.Occupied {
					continue
				}
				start, end, okTime := slotClock(slot)
				if !okDay || !okTime {
					skipped++
					continue
				}
				date := monday.AddDate(0, 0, (int(wd)+6)%7)

				uid := uuid.NewSHA1(uuid.NameSpaceURL,
					[]byte(fmt.Sprintf("%s/%d/%s/%s", opts.ResultID, sem, day, slot))).String()
				evt := cal.AddEvent(uid + "@grade-horaria")
				evt.SetDtStampTime(stamp)
				evt.SetStartAt(date.Add(start))
				evt.SetEndAt(date.Add(end))
				summary := cell.Class.Discipline
				if summary == "" {
					summary = "Aula"
				}
				evt.SetSummary(summary)
				if cell.Class.Room != "" {
					evt.SetLocation(cell.Class.Room)
				}
				desc := fmt.Sprintf("Semestre %d", sem)
				if cell.Class.Teacher != "" {
					desc = "Professor: " + cell.Class.Teacher + "\n" + desc
				}
				evt.SetDescription(desc)
				rule := "FREQ=WEEKLY"
				if opts.Weeks > 0 {
					rule += ";COUNT=" + strconv.Itoa(opts.Weeks)
				}
				evt.AddRrule(rule)
			}
		}
	}
	return cal.Serialize(), skipped
}
