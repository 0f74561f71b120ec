package attendance

import (
	"math"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/trezcool/shule/core"
)

// Counts holds the per-status tallies of a set of records.
// Present + Absent + Leave + Late == Total.
type Counts struct {
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Leave      int `json:"leave"`
	Late       int `json:"late"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"` // present / total, rounded half up; 0 when total is 0
}

func (c *Counts) add(status string) {
	switch status {
	case StatusPresent:
		c.Present++
	case StatusAbsent:
		c.Absent++
	case StatusLeave:
		c.Leave++
	case StatusLate:
		c.Late++
	}
	c.Total++
}

func (c *Counts) computePercentage() {
	c.Percentage = Percentage(c.Present, c.Total)
}

// Percentage returns round(present / total * 100), or 0 when total is 0.
func Percentage(present, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(present)*100/float64(total) + 0.5))
}

type Scope struct {
	ClassID string         `json:"class_id,omitempty"`
	Period  core.DateRange `json:"-"`
}

func (s Scope) includes(r Record) bool {
	return (s.ClassID == "" || r.ClassID == s.ClassID) && s.Period.Contains(r.Date)
}

type ClassSummary struct {
	ClassID       string `json:"class_id"`
	ClassName     string `json:"class_name"`
	TotalStudents int    `json:"total_students"`
	Counts
}

type Summary struct {
	Scope         Scope          `json:"scope"`
	TotalStudents int            `json:"total_students"`
	Counts        Counts         `json:"overall"`
	Classes       []ClassSummary `json:"classes"`
	Skipped       int            `json:"skipped"` // malformed or repeated records left out
}

// Summarize groups the in-scope records by class and overall.
// Malformed records and repeated (student, date) pairs are skipped and counted, never fatal.
// Every in-scope record counts toward the total, weekends included.
func Summarize(records []Record, scope Scope) Summary {
	summary := Summary{Scope: scope, Classes: []ClassSummary{}}

	seen := make(map[string]bool, len(records))
	students := make(map[string]bool)
	classIdx := make(map[string]int)
	classStudents := make(map[string]map[string]bool)

	for _, r := range records {
		if !r.Valid() {
			summary.Skipped++
			continue
		}
		if !scope.includes(r) {
			continue
		}
		if seen[r.key()] {
			summary.Skipped++
			continue
		}
		seen[r.key()] = true

		summary.Counts.add(r.Status)
		students[r.StudentID] = true

		i, ok := classIdx[r.ClassID]
		if !ok {
			i = len(summary.Classes)
			classIdx[r.ClassID] = i
			summary.Classes = append(summary.Classes, ClassSummary{ClassID: r.ClassID, ClassName: r.ClassID})
			classStudents[r.ClassID] = make(map[string]bool)
		}
		summary.Classes[i].add(r.Status)
		classStudents[r.ClassID][r.StudentID] = true
	}

	summary.TotalStudents = len(students)
	summary.Counts.computePercentage()
	for i := range summary.Classes {
		row := &summary.Classes[i]
		row.TotalStudents = len(classStudents[row.ClassID])
		row.computePercentage()
	}
	SortClasses(summary.Classes, SortByName, false)
	return summary
}

// NameClasses sets the display name of every class row.
func (s *Summary) NameClasses(name func(classID string) string) {
	for i := range s.Classes {
		s.Classes[i].ClassName = name(s.Classes[i].ClassID)
	}
}

// StudentSummary is the attendance rollup of one student.
type StudentSummary struct {
	StudentID    string `json:"student_id"`
	ClassID      string `json:"class_id"`
	UnmarkedDays int    `json:"unmarked_days"` // instructional days in scope without a record
	Counts
}

// StudentSummaries rolls the in-scope records up per student, ordered by student id.
func StudentSummaries(records []Record, scope Scope) []StudentSummary {
	idx := make(map[string]int)
	seen := make(map[string]bool, len(records))
	rows := make([]StudentSummary, 0)

	for _, r := range records {
		if !r.Valid() || !scope.includes(r) || seen[r.key()] {
			continue
		}
		seen[r.key()] = true

		i, ok := idx[r.StudentID]
		if !ok {
			i = len(rows)
			idx[r.StudentID] = i
			rows = append(rows, StudentSummary{StudentID: r.StudentID, ClassID: r.ClassID})
		}
		rows[i].add(r.Status)
	}
	for i := range rows {
		rows[i].computePercentage()
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StudentID < rows[j].StudentID })
	return rows
}

// InstructionalDays returns the weekdays (Monday to Friday) between from and to, inclusive.
func InstructionalDays(from, to time.Time) []time.Time {
	from, to = core.Day(from), core.Day(to)
	if to.Before(from) {
		return []time.Time{}
	}
	days := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
	}
	return days
}

// CountUnmarked returns how many instructional days in [from, to] have no record for the student.
func CountUnmarked(records []Record, studentID string, from, to time.Time) int {
	marked := make(map[string]bool)
	for _, r := range records {
		if r.StudentID == studentID && r.Valid() {
			marked[core.DayKey(r.Date)] = true
		}
	}
	var n int
	for _, d := range InstructionalDays(from, to) {
		if !marked[core.DayKey(d)] {
			n++
		}
	}
	return n
}

// Sort keys of class rows
const (
	SortByName       = "name"
	SortByPresent    = "present"
	SortByAbsent     = "absent"
	SortByPercentage = "percentage"
)

var SortKeys = []string{SortByName, SortByPresent, SortByAbsent, SortByPercentage}

// SortClasses sorts class rows in place by key (name by default).
// Names sort naturally and case-insensitively ("Class 2" < "Class 10").
// The sort is stable for equal keys in both directions.
func SortClasses(rows []ClassSummary, key string, desc bool) {
	var less func(a, b ClassSummary) bool
	switch key {
	case SortByPresent:
		less = func(a, b ClassSummary) bool { return a.Present < b.Present }
	case SortByAbsent:
		less = func(a, b ClassSummary) bool { return a.Absent < b.Absent }
	case SortByPercentage:
		less = func(a, b ClassSummary) bool { return a.Percentage < b.Percentage }
	default:
		coll := collate.New(language.English, collate.Numeric, collate.IgnoreCase)
		less = func(a, b ClassSummary) bool { return coll.CompareString(a.ClassName, b.ClassName) < 0 }
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}
