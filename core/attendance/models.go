package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLeave   = "leave"
	StatusLate    = "late"
)

var Statuses = []string{StatusPresent, StatusAbsent, StatusLeave, StatusLate}

func ValidStatus(s string) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLeave, StatusLate:
		return true
	}
	return false
}

// Record is the attendance of one student on one date. There is at most one Record per (student, date).
type Record struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	ClassID   string    `json:"class_id" db:"class_id"` // class of the student when marked
	Date      time.Time `json:"date" db:"date"`
	Status    string    `json:"status" db:"status"`
	Remarks   string    `json:"remarks" db:"remarks"`
	MarkedBy  string    `json:"marked_by" db:"marked_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Valid reports whether the record carries everything the aggregations need.
func (r Record) Valid() bool {
	return r.StudentID != "" && r.ClassID != "" && !r.Date.IsZero() && ValidStatus(r.Status)
}

func (r Record) key() string { return r.StudentID + "|" + core.DayKey(r.Date) }

type Filter struct {
	ClassID   string
	StudentID string
	Period    core.DateRange
}

// MarkRequest marks the attendance of (part of) a class on a date.
type MarkRequest struct {
	ClassID string      `json:"class_id" validate:"required"`
	Date    string      `json:"date" validate:"required,date"`
	Entries []MarkEntry `json:"entries" validate:"required,min=1,dive"`
}

type MarkEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,attendancestatus"`
	Remarks   string `json:"remarks"`
}

func (mr *MarkRequest) Validate(validate *validator.Validate) error {
	mr.ClassID = core.CleanString(mr.ClassID)
	for i := range mr.Entries {
		mr.Entries[i].StudentID = core.CleanString(mr.Entries[i].StudentID)
		mr.Entries[i].Status = core.CleanString(mr.Entries[i].Status, true /* lower */)
		mr.Entries[i].Remarks = core.CleanString(mr.Entries[i].Remarks)
	}
	return validate.Struct(mr)
}
