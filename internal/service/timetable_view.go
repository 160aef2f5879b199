package service

import (
	"strconv"

	"cefet-timetable/backend/internal/dto"
	"cefet-timetable/backend/internal/timetable"
)

// 视图文案
const (
	viewTitle        = "Horário Semanal"
	viewSubtitle     = "Cronograma otimizado para todas as disciplinas"
	viewNoData       = "Nenhum dado de grade horária disponível"
	viewNoClass      = "Sem aula"
	viewNoClassInDay = "Sem aulas agendadas para este dia"
	// 日视图页签最多展示的天数
	dailyTabLimit = 5
)

// BuildView 由课表构建网格视图模型
//
// 周视图与日视图共用同一次 Project 结果；学期缺省取最小值，
// 日视图缺省取第一天。
func BuildView(s timetable.ScheduleByDay, q *dto.ViewQuery) (*dto.TimetableViewResponse, error) {
	if q == nil {
		q = &dto.ViewQuery{}
	}
	mode := q.Mode
	if mode == "" {
		mode = dto.ViewModeWeekly
	}

	v := &dto.TimetableViewResponse{
		Mode:      mode,
		Semesters: []dto.SemesterOption{},
		Days:      []dto.DayTab{},
		TimeSlots: []string{},
	}
	if s.IsEmpty() {
		v.Empty = true
		v.EmptyText = viewNoData
		return v, nil
	}

	semesters := timetable.Semesters(s)
	for _, sem := range semesters {
		opt := dto.SemesterOption{Value: strconv.Itoa(sem), Label: "Período " + strconv.Itoa(sem)}
		v.Semesters = append(v.Semesters, opt)
	}
	selected, err := selectSemester(v.Semesters, q.Semester)
	if err != nil {
		return nil, err
	}
	v.SelectedSemester = selected
	v.Title = viewTitle
	v.Subtitle = viewSubtitle

	axis := timetable.BuildTimeAxis(s)
	grid := timetable.Project(s, axis, selected)
	v.TimeSlots = append(v.TimeSlots, axis...)
	v.DroppedDuplicates = grid.Dropped

	for i, day := range grid.Days {
		v.Days = append(v.Days, dto.DayTab{
			Key:        day,
			Label:      timetable.DayDisplayName(day),
			Tab:        i < dailyTabLimit,
			HasClasses: grid.DayHasClasses(i),
		})
	}

	if mode == dto.ViewModeDaily {
		daily, err := buildDaily(grid, v.Days, q.Day)
		if err != nil {
			return nil, err
		}
		v.Daily = daily
		return v, nil
	}

	v.Rows = make([]dto.ViewRow, 0, len(axis))
	for si, slot := range axis {
		row := dto.ViewRow{TimeSlot: slot, Cells: make([]dto.ViewCell, 0, len(grid.Days))}
		for di, day := range grid.Days {
			row.Cells = append(row.Cells, viewCell(day, slot, grid.Cell(di, si)))
		}
		v.Rows = append(v.Rows, row)
	}
	return v, nil
}

func selectSemester(options []dto.SemesterOption, requested string) (string, error) {
	if requested == "" {
		if len(options) == 0 {
			return "", nil
		}
		return options[0].Value, nil
	}
	for _, o := range options {
		if o.Value == requested {
			return requested, nil
		}
	}
	return "", ErrSemesterNotFound
}

func buildDaily(grid *timetable.Grid, days []dto.DayTab, requested string) (*dto.DailyView, error) {
	idx := -1
	for i, d := range days {
		if !d.Tab {
			break
		}
		if requested == "" || d.Key == requested {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrDayNotFound
	}

	tab := days[idx]
	dv := &dto.DailyView{
		Day:      tab,
		Title:    "Cronograma diário para " + tab.Label,
		Subtitle: viewSubtitle,
	}
	if !tab.HasClasses {
		dv.Empty = true
		dv.EmptyText = viewNoClassInDay
		return dv, nil
	}
	dv.Slots = make([]dto.ViewCell, 0, len(grid.Slots))
	for si, slot := range grid.Slots {
		dv.Slots = append(dv.Slots, viewCell(tab.Key, slot, grid.Cell(idx, si)))
	}
	return dv, nil
}

func viewCell(day, slot string, c timetable.Cell) dto.ViewCell {
	cell := dto.ViewCell{Day: day, TimeSlot: slot}
	if !c.Occupied {
		cell.Empty = true
		cell.EmptyText = viewNoClass
		return cell
	}
	badge := timetable.BadgeColor(c.Class.Discipline)
	cell.Discipline = c.Class.Discipline
	cell.Teacher = c.Class.Teacher
	cell.Room = c.Class.Room
	cell.Badge = &badge
	cell.BadgeClass = badge.Class()
	return cell
}
