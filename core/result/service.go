package result

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
)

var (
	NowFunc = time.Now // mockable

	// errors
	errUnknownClass      = errors.New("unknown class")
	errUnknownBook       = errors.New("unknown book")
	errUnknownTerm       = errors.New("unknown term")
	errUnknownStudent    = errors.New("unknown student")
	errBookNotInClass    = errors.New("book is not taught to this class")
	errStudentNotInClass = errors.New("student is not in this class")
)

type (
	Repository interface {
		// UpsertMarks creates the marks, or updates the existing mark of the same (student, book, term).
		UpsertMarks(ctx context.Context, marks ...Mark) ([]Mark, error)
		FilterMarks(ctx context.Context, filter Filter) ([]Mark, error)
	}

	Roster interface {
		GetClass(ctx context.Context, id string) (academic.Class, error)
		GetBook(ctx context.Context, id string) (academic.Book, error)
		GetTerm(ctx context.Context, id string) (academic.Term, error)
		GetStudent(ctx context.Context, id string) (academic.Student, error)
		QueryBooks(ctx context.Context, classID string) ([]academic.Book, error)
		QueryStudents(ctx context.Context, filter academic.StudentFilter, ordering ...core.DBOrdering) ([]academic.Student, error)
		PassPercentage(ctx context.Context) float64
	}

	Service struct {
		repo   Repository
		roster Roster
		logger core.Logger
	}
)

func NewService(repo Repository, roster Roster, logger core.Logger) *Service {
	return &Service{repo: repo, roster: roster, logger: logger}
}

func notFoundAs(err error, field string, fieldErr error) error {
	if errors.Cause(err) == academic.ErrNotFound {
		return core.NewFieldError(field, fieldErr)
	}
	return err
}

// RecordMarks stores the marks of the request. Re-recording a student's marks in a book for a term updates them.
func (svc *Service) RecordMarks(ctx context.Context, req MarksRequest) ([]Mark, error) {
	if _, err := svc.roster.GetClass(ctx, req.ClassID); err != nil {
		return nil, notFoundAs(err, "class_id", errUnknownClass)
	}
	if _, err := svc.roster.GetTerm(ctx, req.TermID); err != nil {
		return nil, notFoundAs(err, "term_id", errUnknownTerm)
	}
	book, err := svc.roster.GetBook(ctx, req.BookID)
	if err != nil {
		return nil, notFoundAs(err, "book_id", errUnknownBook)
	}
	if len(book.ClassIDs) > 0 && !contains(book.ClassIDs, req.ClassID) {
		return nil, core.NewFieldError("book_id", errBookNotInClass)
	}

	now := NowFunc().UTC()
	marks := make([]Mark, 0, len(req.Entries))
	for i, e := range req.Entries {
		student, err := svc.roster.GetStudent(ctx, e.StudentID)
		if err != nil {
			return nil, notFoundAs(err, fmt.Sprintf("entries[%d].student_id", i), errUnknownStudent)
		}
		if student.ClassID != req.ClassID {
			return nil, core.NewFieldError(fmt.Sprintf("entries[%d].student_id", i), errStudentNotInClass)
		}
		if e.Marks > float64(book.TotalMarks) {
			return nil, core.NewFieldError(fmt.Sprintf("entries[%d].marks", i),
				errors.Errorf("marks cannot exceed the book total of %d", book.TotalMarks))
		}
		marks = append(marks, Mark{
			ID:        uuid.New().String(),
			StudentID: student.ID,
			ClassID:   req.ClassID,
			BookID:    book.ID,
			TermID:    req.TermID,
			Marks:     e.Marks,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return svc.repo.UpsertMarks(ctx, marks...)
}

func (svc *Service) books(ctx context.Context) (map[string]academic.Book, error) {
	books, err := svc.roster.QueryBooks(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "svc.roster.QueryBooks()")
	}
	idx := make(map[string]academic.Book, len(books))
	for _, b := range books {
		idx[b.ID] = b
	}
	return idx, nil
}

// ClassResults computes and ranks the results of a class for a term.
func (svc *Service) ClassResults(ctx context.Context, classID, termID string) ([]Result, error) {
	marks, err := svc.repo.FilterMarks(ctx, Filter{ClassID: classID, TermID: termID})
	if err != nil {
		return nil, errors.Wrap(err, "svc.repo.FilterMarks()")
	}
	books, err := svc.books(ctx)
	if err != nil {
		return nil, err
	}
	students, err := svc.roster.QueryStudents(ctx, academic.StudentFilter{ClassID: classID})
	if err != nil {
		return nil, errors.Wrap(err, "svc.roster.QueryStudents()")
	}
	names := make(map[string]string, len(students))
	for _, s := range students {
		names[s.ID] = s.Name
	}

	results := ComputeClass(marks, books, names, Policy{PassPercentage: svc.roster.PassPercentage(ctx)})
	var skipped int
	for _, r := range results {
		skipped += r.Skipped
	}
	if skipped > 0 {
		svc.logger.Warn(fmt.Sprintf("class %s results skipped %d marks", classID, skipped))
	}
	return results, nil
}

// StudentResults returns the results of a student for every term they have marks in
// (or the given term only), positioned within their class.
func (svc *Service) StudentResults(ctx context.Context, student academic.Student, termID string) ([]Result, error) {
	marks, err := svc.repo.FilterMarks(ctx, Filter{StudentID: student.ID, TermID: termID})
	if err != nil {
		return nil, errors.Wrap(err, "svc.repo.FilterMarks()")
	}
	terms := make([]string, 0)
	seen := make(map[string]bool)
	for _, m := range marks {
		if !seen[m.TermID] {
			seen[m.TermID] = true
			terms = append(terms, m.TermID)
		}
	}

	results := make([]Result, 0, len(terms))
	for _, t := range terms {
		classResults, err := svc.ClassResults(ctx, student.ClassID, t)
		if err != nil {
			return nil, err
		}
		for _, r := range classResults {
			if r.StudentID == student.ID {
				results = append(results, r)
			}
		}
	}
	return results, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
