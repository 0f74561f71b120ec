package fee

import (
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
)

// Summary totals fee records. Pending is every unpaid amount (Total - Paid),
// Overdue is the part of Pending past its due date.
type Summary struct {
	Total        float64 `json:"total"`
	Paid         float64 `json:"paid"`
	Pending      float64 `json:"pending"`
	Overdue      float64 `json:"overdue"`
	Records      int     `json:"records"`
	PaidCount    int     `json:"paid_count"`
	PendingCount int     `json:"pending_count"` // unpaid, not yet due
	OverdueCount int     `json:"overdue_count"`
	Skipped      int     `json:"skipped"`
}

// Summarize totals the records using their status as of today.
// Malformed records are skipped and counted.
func Summarize(records []Record, today time.Time) Summary {
	var s Summary
	for _, r := range records {
		if !r.Valid() {
			s.Skipped++
			continue
		}
		s.Records++
		s.Total += r.Amount
		switch r.EffectiveStatus(today) {
		case StatusPaid:
			s.Paid += r.Amount
			s.PaidCount++
		case StatusOverdue:
			s.Overdue += r.Amount
			s.OverdueCount++
		default:
			s.PendingCount++
		}
	}
	s.Total = core.Round(s.Total, 2)
	s.Paid = core.Round(s.Paid, 2)
	s.Overdue = core.Round(s.Overdue, 2)
	s.Pending = core.Round(s.Total-s.Paid, 2)
	return s
}

// VoucherSummary totals vouchers per type. Receipts and sales flow in, payments and purchases flow out.
type VoucherSummary struct {
	Sales    float64 `json:"sales"`
	Purchase float64 `json:"purchase"`
	Payment  float64 `json:"payment"`
	Receipt  float64 `json:"receipt"`
	Inflow   float64 `json:"inflow"`
	Outflow  float64 `json:"outflow"`
	Net      float64 `json:"net"`
	Count    int     `json:"count"`
	Skipped  int     `json:"skipped"`
}

func SummarizeVouchers(vouchers []Voucher) VoucherSummary {
	var s VoucherSummary
	for _, v := range vouchers {
		if !v.Valid() {
			s.Skipped++
			continue
		}
		s.Count++
		switch v.Type {
		case VoucherSales:
			s.Sales += v.Amount
		case VoucherPurchase:
			s.Purchase += v.Amount
		case VoucherPayment:
			s.Payment += v.Amount
		case VoucherReceipt:
			s.Receipt += v.Amount
		}
	}
	s.Sales = core.Round(s.Sales, 2)
	s.Purchase = core.Round(s.Purchase, 2)
	s.Payment = core.Round(s.Payment, 2)
	s.Receipt = core.Round(s.Receipt, 2)
	s.Inflow = core.Round(s.Receipt+s.Sales, 2)
	s.Outflow = core.Round(s.Payment+s.Purchase, 2)
	s.Net = core.Round(s.Inflow-s.Outflow, 2)
	return s
}

// Generate creates the records of the fee type for the period containing date,
// one per active student of the type's classes. The student discount is taken off each amount, floored at 0.
func Generate(ft Type, students []academic.Student, date time.Time, now time.Time) []Record {
	period, due := ft.PeriodOf(date)
	records := make([]Record, 0, len(students))
	for _, s := range students {
		if !s.IsActive() || !ft.AppliesTo(s.ClassID) {
			continue
		}
		amount := ft.Amount - s.FeeDiscount
		if amount < 0 {
			amount = 0
		}
		r := Record{
			StudentID: s.ID,
			TypeID:    ft.ID,
			Period:    period,
			Amount:    core.Round(amount, 2),
			DueDate:   due,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.Status = r.EffectiveStatus(now)
		records = append(records, r)
	}
	return records
}
