package timetable

import (
	"regexp"
	"sort"
	"strconv"
)

var leadingNumber = regexp.MustCompile(`[0-9]+`)

// slotOrder 时间段标签中第一段连续数字的值，无数字或溢出时为 0
func slotOrder(label string) int {
	m := leadingNumber.FindString(label)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// BuildTimeAxis 收集可用天中出现的所有非空时间段
//
// 按发现顺序去重后稳定排序，"07h00-07h50" 按 7 排序，同值保持发现顺序。
func BuildTimeAxis(s ScheduleByDay) []string {
	seen := make(map[string]bool)
	var axis []string
	for _, d := range s.Days {
		if len(d.Classes) == 0 {
			continue
		}
		for _, raw := range d.Classes {
			t := Normalize(raw).Time
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			axis = append(axis, t)
		}
	}
	SortTimeSlots(axis)
	return axis
}

// SortTimeSlots 原地稳定排序时间段标签
func SortTimeSlots(slots []string) {
	sort.SliceStable(slots, func(i, j int) bool {
		return slotOrder(slots[i]) < slotOrder(slots[j])
	})
}
