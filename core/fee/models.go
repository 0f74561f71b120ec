package fee

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Record statuses
const (
	StatusPaid    = "paid"
	StatusPending = "pending"
	StatusOverdue = "overdue"
)

// Frequencies
const (
	Monthly   = "monthly"
	Quarterly = "quarterly"
	Termly    = "termly"
	Yearly    = "yearly"
	OneTime   = "one-time"
)

// Voucher types
const (
	VoucherSales    = "sales"
	VoucherPurchase = "purchase"
	VoucherPayment  = "payment"
	VoucherReceipt  = "receipt"
)

var (
	Statuses       = []string{StatusPaid, StatusPending, StatusOverdue}
	Frequencies    = []string{Monthly, Quarterly, Termly, Yearly, OneTime}
	VoucherTypes   = []string{VoucherSales, VoucherPurchase, VoucherPayment, VoucherReceipt}
	PaymentMethods = []string{"cash", "bank", "card", "mobile", "cheque"}
)

type (
	// Type is a recurring or one-time charge applied to a set of classes (all classes when empty).
	Type struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Amount    float64   `json:"amount"`
		Frequency string    `json:"frequency"`
		DueDay    int       `json:"due_day"` // day of month, 0 when none
		ClassIDs  []string  `json:"class_ids"`
		CreatedAt time.Time `json:"created_at"`
	}

	Record struct {
		ID            string     `json:"id" db:"id"`
		StudentID     string     `json:"student_id" db:"student_id"`
		TypeID        string     `json:"fee_type_id" db:"fee_type_id"`
		Period        string     `json:"period" db:"period"` // eg. 2021-03, 2021-Q1, 2021
		Amount        float64    `json:"amount" db:"amount"`
		DueDate       time.Time  `json:"due_date" db:"due_date"`
		Status        string     `json:"status" db:"status"`
		PaymentDate   *time.Time `json:"payment_date" db:"payment_date"`
		PaymentMethod string     `json:"payment_method" db:"payment_method"`
		ReceiptNumber string     `json:"receipt_number" db:"receipt_number"`
		CreatedAt     time.Time  `json:"created_at" db:"created_at"`
		UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	}

	Voucher struct {
		ID          string    `json:"id" db:"id"`
		Number      string    `json:"number" db:"number"`
		Type        string    `json:"type" db:"type"`
		StudentID   string    `json:"student_id" db:"student_id"`
		Amount      float64   `json:"amount" db:"amount"`
		Date        time.Time `json:"date" db:"date"`
		Description string    `json:"description" db:"description"`
		CreatedAt   time.Time `json:"created_at" db:"created_at"`
	}
)

// DeriveStatus is the one rule deciding a fee record status, on calendar dates:
// paid when a payment date is set, else overdue when today is after the due date, else pending.
func DeriveStatus(dueDate time.Time, paymentDate *time.Time, today time.Time) string {
	if paymentDate != nil && !paymentDate.IsZero() {
		return StatusPaid
	}
	if core.DayKey(today) > core.DayKey(dueDate) {
		return StatusOverdue
	}
	return StatusPending
}

func (r Record) EffectiveStatus(today time.Time) string {
	return DeriveStatus(r.DueDate, r.PaymentDate, today)
}

func (r Record) Valid() bool {
	return r.StudentID != "" && r.Amount >= 0 && !r.DueDate.IsZero()
}

func (r Record) key() string { return r.StudentID + "|" + r.TypeID + "|" + r.Period }

func (v Voucher) Valid() bool {
	return v.Number != "" && validVoucherType(v.Type) && v.Amount >= 0 && !v.Date.IsZero()
}

func validVoucherType(t string) bool {
	for _, vt := range VoucherTypes {
		if vt == t {
			return true
		}
	}
	return false
}

// PeriodOf returns the label and due date of the fee period containing date.
func (t Type) PeriodOf(date time.Time) (string, time.Time) {
	y, m, _ := date.Date()
	var label string
	var start time.Time
	switch t.Frequency {
	case Monthly:
		label = fmt.Sprintf("%04d-%02d", y, m)
		start = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case Quarterly:
		q := (int(m)-1)/3 + 1
		label = fmt.Sprintf("%04d-Q%d", y, q)
		start = time.Date(y, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		label = fmt.Sprintf("%04d", y)
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default: // termly & one-time: the period starts on the given date
		label = core.DayKey(date)
		start = time.Date(y, m, date.Day(), 0, 0, 0, 0, time.UTC)
	}
	if t.DueDay <= 0 {
		return label, start
	}
	// clamp the due day to the month length
	lastDay := time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	dueDay := t.DueDay
	if dueDay > lastDay {
		dueDay = lastDay
	}
	return label, time.Date(start.Year(), start.Month(), dueDay, 0, 0, 0, 0, time.UTC)
}

func (t Type) AppliesTo(classID string) bool {
	if len(t.ClassIDs) == 0 {
		return true
	}
	for _, id := range t.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

type RecordFilter struct {
	StudentID string         `query:"student_id"`
	TypeID    string         `query:"fee_type_id"`
	Statuses  []string       `query:"status"`
	Period    core.DateRange `query:"-"` // on due dates
}

type VoucherFilter struct {
	Types     []string       `query:"type"`
	StudentID string         `query:"student_id"`
	Period    core.DateRange `query:"-"`
}

// Inputs

type TypeInput struct {
	Name      string   `json:"name" validate:"required,notblank"`
	Amount    float64  `json:"amount" validate:"gte=0"`
	Frequency string   `json:"frequency" validate:"required,feefrequency"`
	DueDay    int      `json:"due_day" validate:"gte=0,lte=31"`
	ClassIDs  []string `json:"class_ids"`
}

func (ti *TypeInput) Validate(validate *validator.Validate) error {
	ti.Name = core.CleanString(ti.Name)
	ti.Frequency = core.CleanString(ti.Frequency, true /* lower */)
	return validate.Struct(ti)
}

type GenerateRequest struct {
	Date string `json:"date" validate:"required,date"` // any date in the period to generate
}

func (gr *GenerateRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(gr)
}

type NewRecord struct {
	StudentID string  `json:"student_id" validate:"required"`
	TypeID    string  `json:"fee_type_id" validate:"required"`
	Period    string  `json:"period"`
	Amount    float64 `json:"amount" validate:"gte=0"`
	DueDate   string  `json:"due_date" validate:"required,date"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.Period = core.CleanString(nr.Period)
	return validate.Struct(nr)
}

type PaymentRequest struct {
	PaymentDate string `json:"payment_date" validate:"omitempty,date"` // today when empty
	Method      string `json:"method" validate:"required,paymentmethod"`
}

func (pr *PaymentRequest) Validate(validate *validator.Validate) error {
	pr.Method = core.CleanString(pr.Method, true /* lower */)
	return validate.Struct(pr)
}

type NewVoucher struct {
	Number      string  `json:"number" validate:"required,alphanum_"`
	Type        string  `json:"type" validate:"required,vouchertype"`
	StudentID   string  `json:"student_id"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Date        string  `json:"date" validate:"required,date"`
	Description string  `json:"description"`
}

func (nv *NewVoucher) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nv.Number = core.CleanString(nv.Number)
	nv.Type = core.CleanString(nv.Type, true /* lower */)
	if err := validate.Struct(nv); err != nil {
		return err
	}
	return svc.checkVoucherNumber(ctx, nv.Number)
}
