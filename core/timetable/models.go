package timetable

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Timetable schedules a class for an academic year/term within a validity window.
type Timetable struct {
	ID             string    `json:"id"`
	ClassID        string    `json:"class_id"`
	AcademicYearID string    `json:"academic_year_id"`
	TermID         string    `json:"term_id"`
	ValidFrom      time.Time `json:"valid_from"`
	ValidTo        time.Time `json:"valid_to"` // zero when open-ended
	Slots          []Slot    `json:"slots"`
	CreatedAt      time.Time `json:"created_at"`
}

// ActiveOn reports whether the timetable is valid on the calendar date of d.
func (t Timetable) ActiveOn(d time.Time) bool {
	return core.DateRange{From: t.ValidFrom, To: t.ValidTo}.Contains(d)
}

// Overlaps reports whether the validity windows of two timetables intersect.
func (t Timetable) Overlaps(o Timetable) bool {
	endsBefore := func(a, b Timetable) bool { // a ends before b starts
		return !a.ValidTo.IsZero() && !b.ValidFrom.IsZero() && core.DayKey(a.ValidTo) < core.DayKey(b.ValidFrom)
	}
	return !endsBefore(t, o) && !endsBefore(o, t)
}

// Slot is one scheduled period. Start and End are minutes after midnight.
type Slot struct {
	ID          string       `json:"id" db:"id"`
	TimetableID string       `json:"timetable_id" db:"timetable_id"`
	ClassID     string       `json:"class_id" db:"class_id"`
	Day         time.Weekday `json:"day" db:"day"`
	Period      int          `json:"period" db:"period"`
	Start       Clock        `json:"start" db:"start_minute"`
	End         Clock        `json:"end" db:"end_minute"`
	BookID      string       `json:"book_id" db:"book_id"`
	TeacherID   string       `json:"teacher_id" db:"teacher_id"`
}

func (s Slot) Valid() bool {
	return s.ClassID != "" && s.Period >= 1 && s.Day >= time.Sunday && s.Day <= time.Saturday &&
		s.Start >= 0 && s.End <= 24*60 && s.End > s.Start
}

func (s Slot) overlaps(o Slot) bool {
	return s.Start < o.End && o.Start < s.End
}

// Clock is a time of day in minutes after midnight, formatted as HH:MM.
type Clock int

func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

var dayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

func ParseDay(s string) (time.Weekday, bool) {
	d, ok := dayNames[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// Inputs

type NewTimetable struct {
	ClassID        string      `json:"class_id" validate:"required"`
	AcademicYearID string      `json:"academic_year_id"`
	TermID         string      `json:"term_id"`
	ValidFrom      string      `json:"valid_from" validate:"required,date"`
	ValidTo        string      `json:"valid_to" validate:"omitempty,date"`
	Slots          []SlotInput `json:"slots" validate:"required,min=1,dive"`
}

type SlotInput struct {
	Day       string `json:"day" validate:"required,weekday"`
	Period    int    `json:"period" validate:"required,gte=1"`
	Start     string `json:"start" validate:"required,hhmm"`
	End       string `json:"end" validate:"required,hhmm"`
	BookID    string `json:"book_id"`
	TeacherID string `json:"teacher_id"`
}

func (nt *NewTimetable) Validate(validate *validator.Validate) error {
	nt.ClassID = core.CleanString(nt.ClassID)
	for i := range nt.Slots {
		nt.Slots[i].Day = core.CleanString(nt.Slots[i].Day, true /* lower */)
	}
	if err := validate.Struct(nt); err != nil {
		return err
	}
	for i, s := range nt.Slots {
		start, _ := ParseClock(s.Start)
		end, _ := ParseClock(s.End)
		if end <= start {
			return core.NewFieldError(fmt.Sprintf("slots[%d].end", i), errEndBeforeStart)
		}
	}
	from, _ := core.ParseDate(nt.ValidFrom)
	if to, _ := core.ParseDate(nt.ValidTo); !to.IsZero() && to.Before(from) {
		return core.NewFieldError("valid_to", errEndBeforeStart)
	}
	return nil
}

type Filter struct {
	ClassID  string
	ActiveOn time.Time
}
