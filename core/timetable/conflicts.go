package timetable

import (
	"sort"
	"time"
)

// Conflict kinds
const (
	ClassOverlap   = "class_overlap"   // two slots of a class overlap in time
	PeriodClash    = "period_clash"    // two slots of a class reuse a period number on the same day
	TeacherOverlap = "teacher_overlap" // a teacher has overlapping slots in two classes
)

type Conflict struct {
	Kind      string       `json:"kind"`
	Day       time.Weekday `json:"day"`
	ClassID   string       `json:"class_id,omitempty"`
	TeacherID string       `json:"teacher_id,omitempty"`
	SlotIDs   []string     `json:"slot_ids"`
}

type Report struct {
	Conflicts []Conflict `json:"conflicts"`
	Skipped   int        `json:"skipped"` // malformed slots left out
}

func (r Report) HasConflicts() bool { return len(r.Conflicts) > 0 }

// DetectConflicts finds class overlaps, period clashes and teacher double bookings.
// Slots are grouped by (class, day) and by (teacher, day), sorted by start and swept once: O(n log n).
// Malformed slots are skipped and counted.
func DetectConflicts(slots []Slot) Report {
	report := Report{Conflicts: []Conflict{}}

	valid := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if !s.Valid() {
			report.Skipped++
			continue
		}
		valid = append(valid, s)
	}

	byClass := group(valid, func(s Slot) string { return s.ClassID })
	for _, g := range byClass {
		report.Conflicts = append(report.Conflicts, sweep(g)...)
		report.Conflicts = append(report.Conflicts, periodClashes(g)...)
	}

	withTeacher := valid[:0:0]
	for _, s := range valid {
		if s.TeacherID != "" {
			withTeacher = append(withTeacher, s)
		}
	}
	byTeacher := group(withTeacher, func(s Slot) string { return s.TeacherID })
	for _, g := range byTeacher {
		report.Conflicts = append(report.Conflicts, teacherSweep(g)...)
	}

	sort.SliceStable(report.Conflicts, func(i, j int) bool {
		a, b := report.Conflicts[i], report.Conflicts[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.SlotIDs[0] != b.SlotIDs[0] {
			return a.SlotIDs[0] < b.SlotIDs[0]
		}
		return a.SlotIDs[1] < b.SlotIDs[1]
	})
	return report
}

// group splits slots by (key, day), each group sorted by start then end then id.
func group(slots []Slot, key func(Slot) string) [][]Slot {
	sorted := make([]Slot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if ka, kb := key(a), key(b); ka != kb {
			return ka < kb
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.ID < b.ID
	})

	var groups [][]Slot
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && key(sorted[j]) == key(sorted[i]) && sorted[j].Day == sorted[i].Day {
			j++
		}
		groups = append(groups, sorted[i:j])
		i = j
	}
	return groups
}

// sweep reports each slot of a class group overlapping the slot that ends last among those before it.
func sweep(g []Slot) []Conflict {
	var conflicts []Conflict
	if len(g) < 2 {
		return conflicts
	}
	active := g[0]
	for _, s := range g[1:] {
		if s.overlaps(active) {
			conflicts = append(conflicts, Conflict{Kind: ClassOverlap, Day: s.Day, ClassID: s.ClassID, SlotIDs: []string{active.ID, s.ID}})
		}
		if s.End > active.End {
			active = s
		}
	}
	return conflicts
}

// teacherSweep is sweep over a teacher group, keeping the last-ending slot of every class seen so far:
// a slot conflicts with the active slot of any other class it overlaps.
func teacherSweep(g []Slot) []Conflict {
	var conflicts []Conflict
	if len(g) < 2 {
		return conflicts
	}
	classes := make([]string, 0)
	actives := make(map[string]Slot)
	for _, s := range g {
		for _, cls := range classes {
			if a := actives[cls]; cls != s.ClassID && s.overlaps(a) {
				conflicts = append(conflicts, Conflict{Kind: TeacherOverlap, Day: s.Day, TeacherID: s.TeacherID, SlotIDs: []string{a.ID, s.ID}})
			}
		}
		a, ok := actives[s.ClassID]
		if !ok {
			classes = append(classes, s.ClassID)
		}
		if !ok || s.End > a.End {
			actives[s.ClassID] = s
		}
	}
	return conflicts
}

func periodClashes(g []Slot) []Conflict {
	var conflicts []Conflict
	first := make(map[int]string, len(g))
	for _, s := range g {
		if id, ok := first[s.Period]; ok {
			conflicts = append(conflicts, Conflict{Kind: PeriodClash, Day: s.Day, ClassID: s.ClassID, SlotIDs: []string{id, s.ID}})
			continue
		}
		first[s.Period] = s.ID
	}
	return conflicts
}
