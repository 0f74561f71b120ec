package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
)

func day(s string) time.Time {
	d, _ := time.Parse(core.DateLayout, s)
	return d
}

// records builds one record per status, each for a distinct student on the same date.
func records(classID, date string, statuses ...string) []Record {
	recs := make([]Record, 0, len(statuses))
	for i, s := range statuses {
		recs = append(recs, Record{
			StudentID: classID + "-s" + string(rune('a'+i)),
			ClassID:   classID,
			Date:      day(date),
			Status:    s,
		})
	}
	return recs
}

func repeat(status string, n int) []string {
	ss := make([]string, n)
	for i := range ss {
		ss[i] = status
	}
	return ss
}

func TestSummarize(t *testing.T) {
	seventy := append(append(repeat(StatusPresent, 7), repeat(StatusAbsent, 2)...), StatusLeave)

	tests := []struct {
		name        string
		records     []Record
		scope       Scope
		wantCounts  Counts
		wantStudent int
		wantSkipped int
	}{
		{name: "empty", records: nil, wantCounts: Counts{}},
		{
			name:        "7 present 2 absent 1 leave",
			records:     records("c1", "2021-03-01", seventy...),
			wantCounts:  Counts{Present: 7, Absent: 2, Leave: 1, Total: 10, Percentage: 70},
			wantStudent: 10,
		},
		{
			name:        "half rounds up",
			records:     records("c1", "2021-03-01", append([]string{StatusPresent}, repeat(StatusAbsent, 7)...)...),
			wantCounts:  Counts{Present: 1, Absent: 7, Total: 8, Percentage: 13},
			wantStudent: 8,
		},
		{
			name: "malformed and repeated records skipped",
			records: append(records("c1", "2021-03-01", StatusPresent, StatusAbsent),
				Record{StudentID: "c1-sa", ClassID: "c1", Date: day("2021-03-01"), Status: StatusAbsent}, // repeated
				Record{ClassID: "c1", Date: day("2021-03-01"), Status: StatusPresent},                      // no student
				Record{StudentID: "x", ClassID: "c1", Status: StatusPresent},                               // no date
				Record{StudentID: "y", ClassID: "c1", Date: day("2021-03-01"), Status: "excused"},          // bad status
			),
			wantCounts:  Counts{Present: 1, Absent: 1, Total: 2, Percentage: 50},
			wantStudent: 2,
			wantSkipped: 4,
		},
		{
			name:        "class scope",
			records:     append(records("c1", "2021-03-01", StatusPresent), records("c2", "2021-03-01", StatusAbsent)...),
			scope:       Scope{ClassID: "c2"},
			wantCounts:  Counts{Absent: 1, Total: 1, Percentage: 0},
			wantStudent: 1,
		},
		{
			name: "date range is inclusive",
			records: append(append(records("c1", "2021-03-01", StatusPresent),
				records("c1", "2021-03-05", StatusPresent)...),
				records("c1", "2021-03-06", StatusAbsent)...),
			scope:       Scope{Period: core.DateRange{From: day("2021-03-01"), To: day("2021-03-05")}},
			wantCounts:  Counts{Present: 2, Total: 2, Percentage: 100},
			wantStudent: 1,
		},
		{
			name:        "weekend records count",
			records:     records("c1", "2021-03-06", StatusPresent, StatusAbsent), // a saturday
			wantCounts:  Counts{Present: 1, Absent: 1, Total: 2, Percentage: 50},
			wantStudent: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.records, tt.scope)
			if got.Counts != tt.wantCounts {
				t.Errorf("Summarize().Counts = %+v, want %+v", got.Counts, tt.wantCounts)
			}
			if got.TotalStudents != tt.wantStudent {
				t.Errorf("Summarize().TotalStudents = %d, want %d", got.TotalStudents, tt.wantStudent)
			}
			if got.Skipped != tt.wantSkipped {
				t.Errorf("Summarize().Skipped = %d, want %d", got.Skipped, tt.wantSkipped)
			}
			c := got.Counts
			assert.Equal(t, c.Total, c.Present+c.Absent+c.Leave+c.Late)
			assert.NotNil(t, got.Classes)
		})
	}
}

func TestSummarizeGroupsByClass(t *testing.T) {
	recs := append(records("c1", "2021-03-01", StatusPresent, StatusPresent, StatusAbsent), records("c2", "2021-03-01", StatusLeave)...)
	recs = append(recs, records("c1", "2021-03-02", StatusPresent, StatusLate)...)

	got := Summarize(recs, Scope{})
	assert.Len(t, got.Classes, 2)
	assert.Equal(t, ClassSummary{ClassID: "c1", ClassName: "c1", TotalStudents: 3,
		Counts: Counts{Present: 3, Absent: 1, Late: 1, Total: 5, Percentage: 60}}, got.Classes[0])
	assert.Equal(t, ClassSummary{ClassID: "c2", ClassName: "c2", TotalStudents: 1,
		Counts: Counts{Leave: 1, Total: 1}}, got.Classes[1])
	assert.Equal(t, 4, got.TotalStudents)
}

func TestSortClasses(t *testing.T) {
	rows := func() []ClassSummary {
		return []ClassSummary{
			{ClassID: "a", ClassName: "Class 10", Counts: Counts{Present: 5, Absent: 1, Percentage: 80}},
			{ClassID: "b", ClassName: "class 2", Counts: Counts{Present: 3, Absent: 4, Percentage: 80}},
			{ClassID: "c", ClassName: "Class 1", Counts: Counts{Present: 5, Absent: 0, Percentage: 90}},
		}
	}
	ids := func(rs []ClassSummary) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ClassID)
		}
		return out
	}

	tests := []struct {
		name string
		key  string
		desc bool
		want []string
	}{
		{name: "natural name order", key: SortByName, want: []string{"c", "b", "a"}},
		{name: "unknown key sorts by name", key: "bogus", want: []string{"c", "b", "a"}},
		{name: "name desc", key: SortByName, desc: true, want: []string{"a", "b", "c"}},
		{name: "present is stable", key: SortByPresent, want: []string{"b", "a", "c"}},
		{name: "present desc is stable", key: SortByPresent, desc: true, want: []string{"a", "c", "b"}},
		{name: "absent", key: SortByAbsent, want: []string{"c", "a", "b"}},
		{name: "percentage desc is stable", key: SortByPercentage, desc: true, want: []string{"c", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := rows()
			SortClasses(rs, tt.key, tt.desc)
			assert.Equal(t, tt.want, ids(rs))
		})
	}
}

func TestInstructionalDays(t *testing.T) {
	// 2021-03-01 is a monday
	days := InstructionalDays(day("2021-03-01"), day("2021-03-14"))
	assert.Len(t, days, 10)
	for _, d := range days {
		assert.NotEqual(t, time.Saturday, d.Weekday())
		assert.NotEqual(t, time.Sunday, d.Weekday())
	}
	assert.Empty(t, InstructionalDays(day("2021-03-05"), day("2021-03-01")))
	assert.Len(t, InstructionalDays(day("2021-03-06"), day("2021-03-07")), 0)
}

func TestStudentSummaries(t *testing.T) {
	recs := []Record{
		{StudentID: "s2", ClassID: "c1", Date: day("2021-03-01"), Status: StatusPresent},
		{StudentID: "s1", ClassID: "c1", Date: day("2021-03-01"), Status: StatusAbsent},
		{StudentID: "s1", ClassID: "c1", Date: day("2021-03-02"), Status: StatusPresent},
		{StudentID: "s1", ClassID: "c1", Date: day("2021-03-02"), Status: StatusAbsent}, // repeated
	}
	got := StudentSummaries(recs, Scope{})
	assert.Equal(t, []StudentSummary{
		{StudentID: "s1", ClassID: "c1", Counts: Counts{Present: 1, Absent: 1, Total: 2, Percentage: 50}},
		{StudentID: "s2", ClassID: "c1", Counts: Counts{Present: 1, Total: 1, Percentage: 100}},
	}, got)

	assert.Equal(t, 3, CountUnmarked(recs, "s1", day("2021-03-01"), day("2021-03-05")))
}
