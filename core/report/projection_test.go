package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/result"
	"github.com/trezcool/shule/core/timetable"
)

func TestFormatValue(t *testing.T) {
	date := time.Date(2021, time.March, 5, 13, 30, 0, 0, time.UTC)
	var nilTime *time.Time

	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "string", value: "Two - A", want: "Two - A"},
		{name: "int", value: 42, want: "42"},
		{name: "negative int64", value: int64(-7), want: "-7"},
		{name: "float", value: 70.25, want: "70.25"},
		{name: "whole float", value: 1500.0, want: "1500"},
		{name: "bool", value: true, want: "true"},
		{name: "time", value: date, want: "2021-03-05"},
		{name: "zero time", value: time.Time{}, want: ""},
		{name: "time pointer", value: &date, want: "2021-03-05"},
		{name: "nil time pointer", value: nilTime, want: ""},
		{name: "weekday", value: time.Monday, want: "Monday"},
		{name: "clock", value: timetable.Clock(8*60 + 5), want: "08:05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.value); got != tt.want {
				t.Errorf("FormatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProjectTable(t *testing.T) {
	columns := []Column{
		{Header: "Name", Key: "name"},
		{Header: "Present", Key: "present"},
		{Header: "Rate", Key: "rate"},
	}
	rows := []Row{
		{"name": "Alice", "present": 9, "rate": 0.9},
		{"name": "Bob", "rate": nil},
		{},
	}

	table := ProjectTable(rows, columns)

	assert.Equal(t, []string{"Name", "Present", "Rate"}, table.Headers())
	assert.Equal(t, [][]string{
		{"Alice", "9", "0.9"},
		{"Bob", "", ""},
		{"", "", ""},
	}, table.Rows)

	// reading back by key recovers every projected value, "" for the missing ones
	for i, row := range rows {
		for _, col := range columns {
			assert.Equal(t, FormatValue(row[col.Key]), table.Value(i, col.Key), "row %d, key %s", i, col.Key)
		}
	}
	assert.Equal(t, "", table.Value(0, "unknown"))
	assert.Equal(t, "", table.Value(5, "name"))

	t.Run("empty", func(t *testing.T) {
		empty := ProjectTable(nil, columns)
		assert.Len(t, empty.Columns, 3)
		assert.Empty(t, empty.Rows)
	})
}

func TestProjectSummary(t *testing.T) {
	pairs := []Pair{{Label: "Total", Value: "10"}}
	block := ProjectSummary(pairs)
	pairs[0].Value = "changed"

	assert.Equal(t, []Pair{{Label: "Total", Value: "10"}}, block.Pairs)
	assert.False(t, block.IsEmpty())
	assert.True(t, ProjectSummary(nil).IsEmpty())
}

func TestAttendanceDocument(t *testing.T) {
	now := time.Date(2021, time.March, 8, 9, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	summary := attendance.Summary{
		TotalStudents: 2,
		Counts:        attendance.Counts{Present: 7, Absent: 2, Leave: 1, Total: 10, Percentage: 70},
		Classes: []attendance.ClassSummary{{
			ClassID:       "c1",
			ClassName:     "Two - A",
			TotalStudents: 2,
			Counts:        attendance.Counts{Present: 7, Absent: 2, Leave: 1, Total: 10, Percentage: 70},
		}},
	}

	doc := Attendance(summary)
	assert.Equal(t, "Attendance Report", doc.Title)
	assert.Equal(t, "All time", doc.Subtitle)
	assert.Equal(t, now, doc.GeneratedAt)
	if assert.Len(t, doc.Sections, 1) {
		sec := doc.Sections[0]
		assert.Equal(t, "Two - A", sec.Table.Value(0, "class"))
		assert.Equal(t, "70", sec.Table.Value(0, "percentage"))
		assert.Equal(t, "0", sec.Table.Value(0, "late"))
		assert.Contains(t, sec.Summary.Pairs, Pair{Label: "Attendance", Value: "70%"})
	}
}

func TestResultsDocument(t *testing.T) {
	results := []result.Result{
		{StudentName: "Ann", Obtained: 92, TotalMarks: 100, DisplayPercentage: "92.00", Grade: "A+", Passed: true, Position: 1},
		{StudentName: "Ben", Obtained: 92, TotalMarks: 100, DisplayPercentage: "92.00", Grade: "A+", Passed: true, Position: 1},
		{StudentName: "Cal", Obtained: 40, TotalMarks: 100, DisplayPercentage: "40.00", Grade: "F", Position: 3},
	}

	doc := Results(results, "Two - A", "Term 1")
	table := doc.Sections[0].Table

	assert.Equal(t, "Two - A, Term 1", doc.Subtitle)
	assert.Equal(t, "1", table.Value(1, "position"))
	assert.Equal(t, "3", table.Value(2, "position"))
	assert.Equal(t, "Fail", table.Value(2, "status"))
	assert.Equal(t, []Pair{
		{Label: "Students", Value: "3"},
		{Label: "Passed", Value: "2"},
		{Label: "Failed", Value: "1"},
	}, doc.Sections[0].Summary.Pairs)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "KES 1500.00", money("KES", 1500))
	assert.Equal(t, "0.10", money("", 0.1))
}
