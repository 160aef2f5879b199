package timetable

import "strings"

// Cell 网格单元；Occupied 为 false 表示该时段无课
type Cell struct {
	Class    CanonicalClass
	Occupied bool
}

// Grid 指定学期的 天 × 时间段 查找表
type Grid struct {
	Semester string
	Days     []string
	Slots    []string
	// Dropped 因同一 (天, 时段) 已被占用而被丢弃的条目数
	Dropped int

	cells     [][]Cell
	dayCounts []int
	dayIndex  map[string]int
	slotIndex map[string]int
}

// Project 将课表投影为指定学期的网格
//
// 同一 (天, 时段) 有多条匹配时保留当天序列中的第一条，其余丢弃。
func Project(s ScheduleByDay, axis []string, semester string) *Grid {
	days := s.AvailableDays()
	g := &Grid{
		Semester:  semester,
		Days:      days,
		Slots:     axis,
		cells:     make([][]Cell, len(days)),
		dayCounts: make([]int, len(days)),
		dayIndex:  make(map[string]int, len(days)),
		slotIndex: make(map[string]int, len(axis)),
	}
	for i, slot := range axis {
		if _, ok := g.slotIndex[slot]; !ok {
			g.slotIndex[slot] = i
		}
	}

	for di, day := range days {
		g.dayIndex[day] = di
		row := make([]Cell, len(axis))
		for _, raw := range s.Classes(day) {
			c := Normalize(raw)
			if !c.InSemester(semester) {
				continue
			}
			g.dayCounts[di]++
			si, ok := g.slotIndex[c.Time]
			if !ok {
				continue
			}
			if row[si].Occupied {
				g.Dropped++
				continue
			}
			row[si] = Cell{Class: c, Occupied: true}
		}
		g.cells[di] = row
	}
	return g
}

// At 按天与时间段查找课程
func (g *Grid) At(day, slot string) (CanonicalClass, bool) {
	di, ok := g.dayIndex[day]
	if !ok {
		return CanonicalClass{}, false
	}
	si, ok := g.slotIndex[slot]
	if !ok {
		return CanonicalClass{}, false
	}
	c := g.cells[di][si]
	return c.Class, c.Occupied
}

// Cell 按下标取单元
func (g *Grid) Cell(dayIdx, slotIdx int) Cell {
	return g.cells[dayIdx][slotIdx]
}

// DayHasClasses 该天在本学期是否有任何课程（不论是否落在时间轴上）
func (g *Grid) DayHasClasses(dayIdx int) bool {
	return g.dayCounts[dayIdx] > 0
}

// Occupied 被占用的单元总数
func (g *Grid) Occupied() int {
	n := 0
	for _, row := range g.cells {
		for _, c := range row {
			if c.Occupied {
				n++
			}
		}
	}
	return n
}

// ── 星期名称 ──

var dayNames = map[string]string{
	"monday":    "Segunda",
	"tuesday":   "Terça",
	"wednesday": "Quarta",
	"thursday":  "Quinta",
	"friday":    "Sexta",
	"saturday":  "Sábado",
	"sunday":    "Domingo",
	"segunda":   "Segunda",
	"terca":     "Terça",
	"terça":     "Terça",
	"quarta":    "Quarta",
	"quinta":    "Quinta",
	"sexta":     "Sexta",
	"sabado":    "Sábado",
	"sábado":    "Sábado",
	"domingo":   "Domingo",
}

// DayDisplayName 星期键的显示名称，未知键原样返回
func DayDisplayName(day string) string {
	if name, ok := dayNames[strings.ToLower(day)]; ok {
		return name
	}
	return day
}
