package fee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
)

func day(s string) time.Time {
	d, _ := time.Parse(core.DateLayout, s)
	return d
}

func dayPtr(s string) *time.Time {
	d := day(s)
	return &d
}

func TestDeriveStatus(t *testing.T) {
	today := time.Date(2021, time.March, 10, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		due     time.Time
		payment *time.Time
		want    string
	}{
		{name: "paid before due", due: day("2021-03-15"), payment: dayPtr("2021-03-01"), want: StatusPaid},
		{name: "paid late", due: day("2021-03-01"), payment: dayPtr("2021-03-09"), want: StatusPaid},
		{name: "due in the future", due: day("2021-03-15"), want: StatusPending},
		{name: "due today is not overdue", due: day("2021-03-10"), want: StatusPending},
		{name: "due yesterday", due: day("2021-03-09"), want: StatusOverdue},
		{name: "zero payment date is unpaid", due: day("2021-03-09"), payment: &time.Time{}, want: StatusOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.due, tt.payment, today); got != tt.want {
				t.Errorf("DeriveStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	today := day("2021-03-10")

	tests := []struct {
		name    string
		records []Record
		want    Summary
	}{
		{name: "empty", records: nil, want: Summary{}},
		{
			name: "paid, overdue and pending",
			records: []Record{
				{StudentID: "s1", Amount: 6000, DueDate: day("2021-03-01"), PaymentDate: dayPtr("2021-03-01"), Status: StatusPaid},
				{StudentID: "s2", Amount: 1500, DueDate: day("2021-03-01"), Status: StatusPending}, // stale stored status
				{StudentID: "s3", Amount: 2500, DueDate: day("2021-04-01"), Status: StatusPending},
			},
			want: Summary{
				Total: 10000, Paid: 6000, Pending: 4000, Overdue: 1500,
				Records: 3, PaidCount: 1, PendingCount: 1, OverdueCount: 1,
			},
		},
		{
			name: "malformed records skipped",
			records: []Record{
				{StudentID: "s1", Amount: 100, DueDate: day("2021-04-01")},
				{Amount: 100, DueDate: day("2021-04-01")},
				{StudentID: "s2", Amount: -5, DueDate: day("2021-04-01")},
				{StudentID: "s3", Amount: 100},
			},
			want: Summary{Total: 100, Pending: 100, Records: 1, PendingCount: 1, Skipped: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.records, today)
			if got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
			assert.Equal(t, got.Total, core.Round(got.Paid+got.Pending, 2))
			assert.LessOrEqual(t, got.Overdue, got.Pending)
		})
	}
}

func TestSummarizeVouchers(t *testing.T) {
	vouchers := []Voucher{
		{Number: "V1", Type: VoucherReceipt, Amount: 1000, Date: day("2021-03-01")},
		{Number: "V2", Type: VoucherSales, Amount: 250.5, Date: day("2021-03-02")},
		{Number: "V3", Type: VoucherPayment, Amount: 400, Date: day("2021-03-03")},
		{Number: "V4", Type: VoucherPurchase, Amount: 100.25, Date: day("2021-03-04")},
		{Number: "V5", Type: "refund", Amount: 10, Date: day("2021-03-04")},
		{Type: VoucherSales, Amount: 10, Date: day("2021-03-04")},
	}
	got := SummarizeVouchers(vouchers)
	want := VoucherSummary{
		Sales: 250.5, Purchase: 100.25, Payment: 400, Receipt: 1000,
		Inflow: 1250.5, Outflow: 500.25, Net: 750.25, Count: 4, Skipped: 2,
	}
	if got != want {
		t.Errorf("SummarizeVouchers() = %+v, want %+v", got, want)
	}
}

func TestTypePeriodOf(t *testing.T) {
	tests := []struct {
		name      string
		ft        Type
		date      string
		wantLabel string
		wantDue   string
	}{
		{name: "monthly", ft: Type{Frequency: Monthly, DueDay: 10}, date: "2021-03-25", wantLabel: "2021-03", wantDue: "2021-03-10"},
		{name: "monthly due day clamped", ft: Type{Frequency: Monthly, DueDay: 31}, date: "2021-02-03", wantLabel: "2021-02", wantDue: "2021-02-28"},
		{name: "monthly no due day", ft: Type{Frequency: Monthly}, date: "2021-03-25", wantLabel: "2021-03", wantDue: "2021-03-01"},
		{name: "quarterly", ft: Type{Frequency: Quarterly, DueDay: 5}, date: "2021-08-19", wantLabel: "2021-Q3", wantDue: "2021-07-05"},
		{name: "yearly", ft: Type{Frequency: Yearly, DueDay: 15}, date: "2021-08-19", wantLabel: "2021", wantDue: "2021-01-15"},
		{name: "one-time", ft: Type{Frequency: OneTime}, date: "2021-08-19", wantLabel: "2021-08-19", wantDue: "2021-08-19"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, due := tt.ft.PeriodOf(day(tt.date))
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantDue, core.DayKey(due))
		})
	}
}

func TestGenerate(t *testing.T) {
	ft := Type{ID: "tuition", Amount: 5000, Frequency: Monthly, DueDay: 10, ClassIDs: []string{"c1"}}
	students := []academic.Student{
		{ID: "s1", ClassID: "c1", Status: academic.StudentActive},
		{ID: "s2", ClassID: "c1", Status: academic.StudentActive, FeeDiscount: 1500},
		{ID: "s3", ClassID: "c1", Status: academic.StudentActive, FeeDiscount: 9000},
		{ID: "s4", ClassID: "c2", Status: academic.StudentActive},
		{ID: "s5", ClassID: "c1", Status: academic.StudentGraduated},
	}
	now := day("2021-03-15")

	got := Generate(ft, students, day("2021-03-02"), now)
	amounts := make(map[string]float64, len(got))
	for _, r := range got {
		amounts[r.StudentID] = r.Amount
		assert.Equal(t, "2021-03", r.Period)
		assert.Equal(t, "2021-03-10", core.DayKey(r.DueDate))
		assert.Equal(t, StatusOverdue, r.Status)
	}
	assert.Equal(t, map[string]float64{"s1": 5000, "s2": 3500, "s3": 0}, amounts)
}
