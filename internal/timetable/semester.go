package timetable

import "sort"

// Semesters 可用天中出现过的学期，去重后升序
func Semesters(s ScheduleByDay) []int {
	seen := make(map[int]bool)
	var out []int
	for _, d := range s.Days {
		for _, raw := range d.Classes {
			c := Normalize(raw)
			if c.Semester == nil || seen[*c.Semester] {
				continue
			}
			seen[*c.Semester] = true
			out = append(out, *c.Semester)
		}
	}
	sort.Ints(out)
	return out
}

// Teachers 全部课程中的教师，按首次出现顺序
func Teachers(s ScheduleByDay) []string {
	return collectTeachers(s, func(CanonicalClass) bool { return true })
}

// TeachersOfSemester 指定学期课程中的教师，按首次出现顺序
func TeachersOfSemester(s ScheduleByDay, semester int) []string {
	return collectTeachers(s, func(c CanonicalClass) bool {
		return c.Semester != nil && *c.Semester == semester
	})
}

func collectTeachers(s ScheduleByDay, keep func(CanonicalClass) bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range s.Days {
		for _, raw := range d.Classes {
			c := Normalize(raw)
			if c.Teacher == "" || seen[c.Teacher] || !keep(c) {
				continue
			}
			seen[c.Teacher] = true
			out = append(out, c.Teacher)
		}
	}
	return out
}
