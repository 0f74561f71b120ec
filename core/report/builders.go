package report

import (
	"fmt"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/result"
	"github.com/trezcool/shule/core/timetable"
)

var NowFunc = time.Now // mockable

var (
	attendanceColumns = []Column{
		{Header: "Class", Key: "class"},
		{Header: "Students", Key: "students"},
		{Header: "Present", Key: "present"},
		{Header: "Absent", Key: "absent"},
		{Header: "Leave", Key: "leave"},
		{Header: "Late", Key: "late"},
		{Header: "Total", Key: "total"},
		{Header: "Attendance %", Key: "percentage"},
	}

	feeColumns = []Column{
		{Header: "Roll No", Key: "roll_number"},
		{Header: "Student", Key: "student"},
		{Header: "Fee", Key: "fee"},
		{Header: "Period", Key: "period"},
		{Header: "Amount", Key: "amount"},
		{Header: "Due Date", Key: "due_date"},
		{Header: "Status", Key: "status"},
		{Header: "Paid On", Key: "payment_date"},
		{Header: "Receipt", Key: "receipt_number"},
	}

	resultColumns = []Column{
		{Header: "Position", Key: "position"},
		{Header: "Student", Key: "student"},
		{Header: "Obtained", Key: "obtained"},
		{Header: "Total", Key: "total"},
		{Header: "Percentage", Key: "percentage"},
		{Header: "Grade", Key: "grade"},
		{Header: "Status", Key: "status"},
	}

	voucherColumns = []Column{
		{Header: "Number", Key: "number"},
		{Header: "Date", Key: "date"},
		{Header: "Type", Key: "type"},
		{Header: "Student", Key: "student"},
		{Header: "Amount", Key: "amount"},
		{Header: "Description", Key: "description"},
	}

	slotColumns = []Column{
		{Header: "Day", Key: "day"},
		{Header: "Period", Key: "period"},
		{Header: "Start", Key: "start"},
		{Header: "End", Key: "end"},
		{Header: "Subject", Key: "subject"},
		{Header: "Teacher", Key: "teacher"},
	}

	conflictColumns = []Column{
		{Header: "Day", Key: "day"},
		{Header: "Kind", Key: "kind"},
		{Header: "Class", Key: "class"},
		{Header: "Teacher", Key: "teacher"},
		{Header: "Slots", Key: "slots"},
	}
)

func money(currency string, amount float64) string {
	s := fmt.Sprintf("%.2f", core.Round(amount, 2))
	if currency == "" {
		return s
	}
	return currency + " " + s
}

func periodLabel(period core.DateRange) string {
	switch {
	case period.IsZero():
		return "All time"
	case period.From.IsZero():
		return "Until " + period.To.Format(core.DateLayout)
	case period.To.IsZero():
		return "From " + period.From.Format(core.DateLayout)
	default:
		return period.From.Format(core.DateLayout) + " to " + period.To.Format(core.DateLayout)
	}
}

// Attendance projects an attendance summary, one row per class.
func Attendance(summary attendance.Summary) Document {
	rows := make([]Row, 0, len(summary.Classes))
	for _, c := range summary.Classes {
		rows = append(rows, Row{
			"class":      c.ClassName,
			"students":   c.TotalStudents,
			"present":    c.Present,
			"absent":     c.Absent,
			"leave":      c.Leave,
			"late":       c.Late,
			"total":      c.Total,
			"percentage": c.Percentage,
		})
	}

	overall := summary.Counts
	return Document{
		Title:       "Attendance Report",
		Subtitle:    periodLabel(summary.Scope.Period),
		GeneratedAt: NowFunc().UTC(),
		Sections: []Section{{
			Title: "Classes",
			Table: ProjectTable(rows, attendanceColumns),
			Summary: ProjectSummary([]Pair{
				{Label: "Total Students", Value: FormatValue(summary.TotalStudents)},
				{Label: "Present", Value: FormatValue(overall.Present)},
				{Label: "Absent", Value: FormatValue(overall.Absent)},
				{Label: "Leave", Value: FormatValue(overall.Leave)},
				{Label: "Late", Value: FormatValue(overall.Late)},
				{Label: "Attendance", Value: FormatValue(overall.Percentage) + "%"},
			}),
		}},
	}
}

func feeRows(records []fee.Record, dir academic.Directory, typeName func(id string) string, today time.Time) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		student := dir.Students[r.StudentID]
		rows = append(rows, Row{
			"roll_number":    student.RollNumber,
			"student":        dir.StudentName(r.StudentID),
			"fee":            typeName(r.TypeID),
			"period":         r.Period,
			"amount":         core.Round(r.Amount, 2),
			"due_date":       r.DueDate,
			"status":         r.EffectiveStatus(today),
			"payment_date":   r.PaymentDate,
			"receipt_number": r.ReceiptNumber,
		})
	}
	return rows
}

func feeSummary(s fee.Summary, currency string) SummaryBlock {
	return ProjectSummary([]Pair{
		{Label: "Total", Value: money(currency, s.Total)},
		{Label: "Paid", Value: money(currency, s.Paid)},
		{Label: "Pending", Value: money(currency, s.Pending)},
		{Label: "Overdue", Value: money(currency, s.Overdue)},
		{Label: "Records", Value: FormatValue(s.Records)},
	})
}

// Fees projects fee records with their totals.
func Fees(records []fee.Record, summary fee.Summary, dir academic.Directory, types []fee.Type, currency string) Document {
	names := make(map[string]string, len(types))
	for _, ft := range types {
		names[ft.ID] = ft.Name
	}
	typeName := func(id string) string { return names[id] }

	now := NowFunc().UTC()
	return Document{
		Title:       "Fee Report",
		Subtitle:    "As of " + now.Format(core.DateLayout),
		GeneratedAt: now,
		Sections: []Section{{
			Title:   "Fee Records",
			Table:   ProjectTable(feeRows(records, dir, typeName, now), feeColumns),
			Summary: feeSummary(summary, currency),
		}},
	}
}

// FeeStatement projects the fee account of one student.
func FeeStatement(student academic.Student, records []fee.Record, typeName func(id string) string, currency string) Document {
	now := NowFunc().UTC()
	dir := academic.Directory{Students: map[string]academic.Student{student.ID: student}}
	return Document{
		Title:       "Fee Statement",
		Subtitle:    fmt.Sprintf("%s (%s)", student.Name, student.RollNumber),
		GeneratedAt: now,
		Sections: []Section{{
			Title:   "Fee Records",
			Table:   ProjectTable(feeRows(records, dir, typeName, now), feeColumns),
			Summary: feeSummary(fee.Summarize(records, now), currency),
		}},
	}
}

// Results projects ranked class results.
func Results(results []result.Result, className, termName string) Document {
	rows := make([]Row, 0, len(results))
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
		rows = append(rows, Row{
			"position":   r.Position,
			"student":    r.StudentName,
			"obtained":   r.Obtained,
			"total":      r.TotalMarks,
			"percentage": r.DisplayPercentage,
			"grade":      r.Grade,
			"status":     r.Status(),
		})
	}

	return Document{
		Title:       "Results",
		Subtitle:    fmt.Sprintf("%s, %s", className, termName),
		GeneratedAt: NowFunc().UTC(),
		Sections: []Section{{
			Title: "Class Ranking",
			Table: ProjectTable(rows, resultColumns),
			Summary: ProjectSummary([]Pair{
				{Label: "Students", Value: FormatValue(len(results))},
				{Label: "Passed", Value: FormatValue(passed)},
				{Label: "Failed", Value: FormatValue(len(results) - passed)},
			}),
		}},
	}
}

// Vouchers projects vouchers with inflow, outflow and net totals.
func Vouchers(vouchers []fee.Voucher, summary fee.VoucherSummary, dir academic.Directory, period core.DateRange, currency string) Document {
	rows := make([]Row, 0, len(vouchers))
	for _, v := range vouchers {
		row := Row{
			"number":      v.Number,
			"date":        v.Date,
			"type":        v.Type,
			"amount":      core.Round(v.Amount, 2),
			"description": v.Description,
		}
		if v.StudentID != "" {
			row["student"] = dir.StudentName(v.StudentID)
		}
		rows = append(rows, row)
	}

	return Document{
		Title:       "Vouchers",
		Subtitle:    periodLabel(period),
		GeneratedAt: NowFunc().UTC(),
		Sections: []Section{{
			Title: "Vouchers",
			Table: ProjectTable(rows, voucherColumns),
			Summary: ProjectSummary([]Pair{
				{Label: "Inflow", Value: money(currency, summary.Inflow)},
				{Label: "Outflow", Value: money(currency, summary.Outflow)},
				{Label: "Net", Value: money(currency, summary.Net)},
				{Label: "Vouchers", Value: FormatValue(summary.Count)},
			}),
		}},
	}
}

// Timetables projects one section per timetable plus the conflicts found across them.
func Timetables(tts []timetable.Timetable, conflicts timetable.Report, dir academic.Directory, date time.Time) Document {
	doc := Document{
		Title:       "Timetables",
		Subtitle:    "In force on " + date.Format(core.DateLayout),
		GeneratedAt: NowFunc().UTC(),
	}
	for _, tt := range tts {
		rows := make([]Row, 0, len(tt.Slots))
		for _, s := range tt.Slots {
			rows = append(rows, Row{
				"day":     s.Day,
				"period":  s.Period,
				"start":   s.Start,
				"end":     s.End,
				"subject": dir.BookName(s.BookID),
				"teacher": dir.TeacherName(s.TeacherID),
			})
		}
		doc.Sections = append(doc.Sections, Section{
			Title: dir.ClassName(tt.ClassID),
			Table: ProjectTable(rows, slotColumns),
		})
	}
	doc.Sections = append(doc.Sections, Conflicts(conflicts, dir))
	return doc
}

// Conflicts projects a conflict report.
func Conflicts(report timetable.Report, dir academic.Directory) Section {
	rows := make([]Row, 0, len(report.Conflicts))
	for _, c := range report.Conflicts {
		row := Row{
			"day":   c.Day,
			"kind":  c.Kind,
			"slots": fmt.Sprintf("%s, %s", c.SlotIDs[0], c.SlotIDs[1]),
		}
		if c.ClassID != "" {
			row["class"] = dir.ClassName(c.ClassID)
		}
		if c.TeacherID != "" {
			row["teacher"] = dir.TeacherName(c.TeacherID)
		}
		rows = append(rows, row)
	}
	return Section{
		Title: "Conflicts",
		Table: ProjectTable(rows, conflictColumns),
		Summary: ProjectSummary([]Pair{
			{Label: "Conflicts", Value: FormatValue(len(report.Conflicts))},
			{Label: "Skipped Slots", Value: FormatValue(report.Skipped)},
		}),
	}
}
