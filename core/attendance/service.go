package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
)

const cachePrefix = "attendance:"

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound          = errors.New("attendance record not found")
	errStudentNotInClass = errors.New("student is not in this class")
	errUnknownStudent    = errors.New("unknown student")
)

type (
	Repository interface {
		// UpsertRecords creates the records, or updates the existing record of the same (student, date).
		UpsertRecords(ctx context.Context, records ...Record) ([]Record, error)
		FilterRecords(ctx context.Context, filter Filter) ([]Record, error)
	}

	// Roster gives access to the students and classes attendance is marked for.
	Roster interface {
		GetStudent(ctx context.Context, id string) (academic.Student, error)
		QueryClasses(ctx context.Context) ([]academic.Class, error)
	}

	Service struct {
		repo   Repository
		roster Roster
		cache  core.Cache
		logger core.Logger
	}
)

func NewService(repo Repository, roster Roster, cache core.Cache, logger core.Logger) *Service {
	return &Service{repo: repo, roster: roster, cache: cache, logger: logger}
}

// Mark records the attendance of the request entries, marked by the session user.
// Re-marking a student on the same date updates the existing record.
func (svc *Service) Mark(ctx context.Context, sess core.Session, req MarkRequest) ([]Record, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return nil, core.NewFieldError("date", err)
	}

	now := NowFunc().UTC()
	records := make([]Record, 0, len(req.Entries))
	for i, e := range req.Entries {
		field := fmt.Sprintf("entries[%d].student_id", i)
		student, err := svc.roster.GetStudent(ctx, e.StudentID)
		if err != nil {
			if errors.Cause(err) == academic.ErrNotFound {
				return nil, core.NewFieldError(field, errUnknownStudent)
			}
			return nil, errors.Wrap(err, "svc.roster.GetStudent()")
		}
		if student.ClassID != req.ClassID {
			return nil, core.NewFieldError(field, errStudentNotInClass)
		}
		records = append(records, Record{
			ID:        uuid.New().String(),
			StudentID: student.ID,
			ClassID:   student.ClassID,
			Date:      date,
			Status:    e.Status,
			Remarks:   e.Remarks,
			MarkedBy:  sess.UserID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	saved, err := svc.repo.UpsertRecords(ctx, records...)
	if err != nil {
		return nil, errors.Wrap(err, "svc.repo.UpsertRecords()")
	}
	if err := svc.cache.Invalidate(ctx, cachePrefix); err != nil {
		svc.logger.Warn("invalidating attendance cache", err)
	}
	return saved, nil
}

func (svc *Service) Query(ctx context.Context, filter Filter) ([]Record, error) {
	return svc.repo.FilterRecords(ctx, filter)
}

// Summary computes the attendance summary of the scope, rows sorted by key.
func (svc *Service) Summary(ctx context.Context, scope Scope, sortKey string, desc bool) (Summary, error) {
	key := fmt.Sprintf("%ssummary:%s:%s:%s", cachePrefix, scope.ClassID, dayKey(scope.Period.From), dayKey(scope.Period.To))

	var summary Summary
	err := svc.cache.Get(ctx, key, &summary)
	if err != nil {
		if errors.Cause(err) != core.ErrCacheMiss {
			svc.logger.Warn("reading attendance cache", err)
		}

		records, err := svc.repo.FilterRecords(ctx, Filter{ClassID: scope.ClassID, Period: scope.Period})
		if err != nil {
			return Summary{}, errors.Wrap(err, "svc.repo.FilterRecords()")
		}
		summary = Summarize(records, scope)
		if summary.Skipped > 0 {
			svc.logger.Warn(fmt.Sprintf("attendance summary skipped %d records", summary.Skipped))
		}

		classes, err := svc.roster.QueryClasses(ctx)
		if err != nil {
			return Summary{}, errors.Wrap(err, "svc.roster.QueryClasses()")
		}
		names := make(map[string]string, len(classes))
		for _, c := range classes {
			names[c.ID] = c.DisplayName()
		}
		summary.NameClasses(func(id string) string {
			if name, ok := names[id]; ok {
				return name
			}
			return id
		})

		if err := svc.cache.Set(ctx, key, summary); err != nil {
			svc.logger.Warn("writing attendance cache", err)
		}
	}
	summary.Scope = scope

	SortClasses(summary.Classes, sortKey, desc)
	return summary, nil
}

// StudentReport is the attendance of one student over a period.
type StudentReport struct {
	Summary StudentSummary `json:"summary"`
	Records []Record       `json:"records"`
}

// StudentReport returns the records of the student and their rollup.
// Unmarked days are counted up to today.
func (svc *Service) StudentReport(ctx context.Context, student academic.Student, period core.DateRange) (StudentReport, error) {
	records, err := svc.repo.FilterRecords(ctx, Filter{StudentID: student.ID, Period: period})
	if err != nil {
		return StudentReport{}, errors.Wrap(err, "svc.repo.FilterRecords()")
	}

	scope := Scope{Period: period}
	summary := StudentSummary{StudentID: student.ID, ClassID: student.ClassID}
	if rows := StudentSummaries(records, scope); len(rows) > 0 {
		summary = rows[0]
	}

	from, to := period.From, period.To
	if from.IsZero() {
		from = student.AdmissionDate
	}
	if today := core.Day(NowFunc().UTC()); to.IsZero() || to.After(today) {
		to = today
	}
	if !from.IsZero() {
		summary.UnmarkedDays = CountUnmarked(records, student.ID, from, to)
	}

	if records == nil {
		records = []Record{}
	}
	return StudentReport{Summary: summary, Records: records}, nil
}

func dayKey(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return core.DayKey(t)
}
