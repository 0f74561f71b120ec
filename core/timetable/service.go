package timetable

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound       = errors.New("timetable not found")
	errEndBeforeStart = errors.New("end must be after start")
	errUnknownClass   = errors.New("unknown class")
)

// ConflictError is returned when saving a timetable would create scheduling conflicts.
type ConflictError struct {
	Report Report
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("timetable has %d scheduling conflicts", len(e.Report.Conflicts))
}

type (
	Repository interface {
		CreateTimetable(ctx context.Context, tt Timetable) (Timetable, error)
		GetTimetableByID(ctx context.Context, id string) (Timetable, error)
		// FilterTimetables returns the timetables (with their slots) of the class and/or active on the date.
		FilterTimetables(ctx context.Context, filter Filter) ([]Timetable, error)
	}

	Roster interface {
		GetClass(ctx context.Context, id string) (academic.Class, error)
	}

	Service struct {
		repo   Repository
		roster Roster
	}
)

func NewService(repo Repository, roster Roster) *Service {
	return &Service{repo: repo, roster: roster}
}

// Create saves a timetable after checking its slots against each other and against the timetables
// of the other classes whose validity overlaps. Conflicts involving the new slots fail the save with
// a *ConflictError unless force is set; the (possibly empty) report is returned either way.
func (svc *Service) Create(ctx context.Context, nt NewTimetable, force bool) (Timetable, Report, error) {
	if _, err := svc.roster.GetClass(ctx, nt.ClassID); err != nil {
		if errors.Cause(err) == academic.ErrNotFound {
			return Timetable{}, Report{}, core.NewFieldError("class_id", errUnknownClass)
		}
		return Timetable{}, Report{}, errors.Wrap(err, "svc.roster.GetClass()")
	}

	from, _ := core.ParseDate(nt.ValidFrom)
	to, _ := core.ParseDate(nt.ValidTo)
	tt := Timetable{
		ID:             uuid.New().String(),
		ClassID:        nt.ClassID,
		AcademicYearID: nt.AcademicYearID,
		TermID:         nt.TermID,
		ValidFrom:      from,
		ValidTo:        to,
		CreatedAt:      NowFunc().UTC(),
	}
	newSlots := make(map[string]bool, len(nt.Slots))
	for _, si := range nt.Slots {
		day, _ := ParseDay(si.Day)
		start, _ := ParseClock(si.Start)
		end, _ := ParseClock(si.End)
		s := Slot{
			ID:          uuid.New().String(),
			TimetableID: tt.ID,
			ClassID:     tt.ClassID,
			Day:         day,
			Period:      si.Period,
			Start:       start,
			End:         end,
			BookID:      si.BookID,
			TeacherID:   si.TeacherID,
		}
		tt.Slots = append(tt.Slots, s)
		newSlots[s.ID] = true
	}

	existing, err := svc.repo.FilterTimetables(ctx, Filter{})
	if err != nil {
		return Timetable{}, Report{}, errors.Wrap(err, "svc.repo.FilterTimetables()")
	}
	slots := append([]Slot{}, tt.Slots...)
	for _, o := range inForce(existing) {
		if o.ClassID != tt.ClassID && o.Overlaps(tt) {
			slots = append(slots, o.Slots...)
		}
	}

	report := DetectConflicts(slots)
	involved := report.Conflicts[:0]
	for _, c := range report.Conflicts {
		if newSlots[c.SlotIDs[0]] || newSlots[c.SlotIDs[1]] {
			involved = append(involved, c)
		}
	}
	report.Conflicts = involved
	if report.HasConflicts() && !force {
		return Timetable{}, report, &ConflictError{Report: report}
	}

	created, err := svc.repo.CreateTimetable(ctx, tt)
	if err != nil {
		return Timetable{}, report, errors.Wrap(err, "svc.repo.CreateTimetable()")
	}
	return created, report, nil
}

// inForce narrows the validity window of every timetable to the days it is in force.
// A later timetable of the same class that stays valid at least as long supersedes it from its valid from.
func inForce(tts []Timetable) []Timetable {
	out := make([]Timetable, 0, len(tts))
	for _, t := range tts {
		for _, o := range tts {
			if o.ClassID != t.ClassID || !o.ValidFrom.After(t.ValidFrom) || !outlasts(o, t) {
				continue
			}
			until := o.ValidFrom.AddDate(0, 0, -1)
			if t.ValidTo.IsZero() || until.Before(t.ValidTo) {
				t.ValidTo = until
			}
		}
		out = append(out, t)
	}
	return out
}

// outlasts reports whether o is valid until t ends.
func outlasts(o, t Timetable) bool {
	if o.ValidTo.IsZero() {
		return true
	}
	return !t.ValidTo.IsZero() && core.DayKey(o.ValidTo) >= core.DayKey(t.ValidTo)
}

func (svc *Service) Get(ctx context.Context, id string) (Timetable, error) {
	return svc.repo.GetTimetableByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter Filter) ([]Timetable, error) {
	return svc.repo.FilterTimetables(ctx, filter)
}

// Current returns the timetable in force for every class on date: the latest valid from wins.
func (svc *Service) Current(ctx context.Context, date time.Time) ([]Timetable, error) {
	tts, err := svc.repo.FilterTimetables(ctx, Filter{ActiveOn: date})
	if err != nil {
		return nil, errors.Wrap(err, "svc.repo.FilterTimetables()")
	}
	sort.SliceStable(tts, func(i, j int) bool { return tts[i].ValidFrom.After(tts[j].ValidFrom) })

	current := make([]Timetable, 0, len(tts))
	seen := make(map[string]bool)
	for _, tt := range tts {
		if !seen[tt.ClassID] {
			seen[tt.ClassID] = true
			current = append(current, tt)
		}
	}
	return current, nil
}

// Conflicts checks the timetables in force on date (today when zero) for conflicts.
func (svc *Service) Conflicts(ctx context.Context, date time.Time) (Report, error) {
	if date.IsZero() {
		date = NowFunc().UTC()
	}
	current, err := svc.Current(ctx, date)
	if err != nil {
		return Report{}, err
	}
	var slots []Slot
	for _, tt := range current {
		slots = append(slots, tt.Slots...)
	}
	return DetectConflicts(slots), nil
}
