package core

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests,
// so we walk up from there. Returns "" when no root is found.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return ""
		}
		currDir = newDir
	}
}

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Percent returns part/whole*100, or 0 when whole is 0.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// Day truncates t to midnight of its calendar date, keeping its location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey returns the calendar date of t as "2006-01-02".
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

const DateLayout = "2006-01-02"

// ParseDate parses a "2006-01-02" date in UTC. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = CleanString(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

// DateRange is an inclusive range of calendar dates. A zero bound leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether the calendar date of t falls in the range.
func (r DateRange) Contains(t time.Time) bool {
	key := DayKey(t)
	if !r.From.IsZero() && key < DayKey(r.From) {
		return false
	}
	if !r.To.IsZero() && key > DayKey(r.To) {
		return false
	}
	return true
}

func (r DateRange) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }
