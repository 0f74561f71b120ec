package result

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Mark is the marks a student obtained in a book (subject) for a term.
type Mark struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	ClassID   string    `json:"class_id" db:"class_id"`
	BookID    string    `json:"book_id" db:"book_id"`
	TermID    string    `json:"term_id" db:"term_id"`
	Marks     float64   `json:"marks" db:"marks"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (m Mark) key() string { return m.StudentID + "|" + m.BookID + "|" + m.TermID }

type Filter struct {
	ClassID   string
	StudentID string
	TermID    string
}

// MarksRequest records the marks of a class in one book for a term.
type MarksRequest struct {
	ClassID string       `json:"class_id" validate:"required"`
	BookID  string       `json:"book_id" validate:"required"`
	TermID  string       `json:"term_id" validate:"required"`
	Entries []MarksEntry `json:"entries" validate:"required,min=1,dive"`
}

type MarksEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	Marks     float64 `json:"marks" validate:"gte=0"`
}

func (mr *MarksRequest) Validate(validate *validator.Validate) error {
	mr.ClassID = core.CleanString(mr.ClassID)
	mr.BookID = core.CleanString(mr.BookID)
	mr.TermID = core.CleanString(mr.TermID)
	for i := range mr.Entries {
		mr.Entries[i].StudentID = core.CleanString(mr.Entries[i].StudentID)
	}
	return validate.Struct(mr)
}
