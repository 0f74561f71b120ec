package inmemdb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/result"
	"github.com/trezcool/shule/core/timetable"
	"github.com/trezcool/shule/core/user"
)

// DB is a process-local store, used by the tests and the demo server.
type DB struct {
	users *table[user.User]

	schools  *table[academic.School]
	years    *table[academic.AcademicYear]
	terms    *table[academic.Term]
	classes  *table[academic.Class]
	books    *table[academic.Book]
	students *table[academic.Student]
	teachers *table[academic.Teacher]
	staff    *table[academic.Staff]
	events   *table[academic.Event]

	attendance *table[attendance.Record]

	feeTypes   *table[fee.Type]
	feeRecords *table[fee.Record]
	vouchers   *table[fee.Voucher]

	marks *table[result.Mark]

	timetables *table[timetable.Timetable]
}

func Open() *DB {
	return &DB{
		users:      newTable[user.User](),
		schools:    newTable[academic.School](),
		years:      newTable[academic.AcademicYear](),
		terms:      newTable[academic.Term](),
		classes:    newTable[academic.Class](),
		books:      newTable[academic.Book](),
		students:   newTable[academic.Student](),
		teachers:   newTable[academic.Teacher](),
		staff:      newTable[academic.Staff](),
		events:     newTable[academic.Event](),
		attendance: newTable[attendance.Record](),
		feeTypes:   newTable[fee.Type](),
		feeRecords: newTable[fee.Record](),
		vouchers:   newTable[fee.Voucher](),
		marks:      newTable[result.Mark](),
		timetables: newTable[timetable.Timetable](),
	}
}

// table keeps rows by primary key, iterated in insertion order.
type table[T any] struct {
	mutex sync.RWMutex
	rows  map[string]T
	ids   []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) get(id string) (T, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

// filter returns the rows kept by keep (every row when nil).
func (t *table[T]) filter(keep func(T) bool) []T {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.filterLocked(keep)
}

func (t *table[T]) filterLocked(keep func(T) bool) []T {
	rows := make([]T, 0, len(t.ids))
	for _, id := range t.ids {
		if row := t.rows[id]; keep == nil || keep(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (t *table[T]) find(match func(T) bool) (T, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	for _, id := range t.ids {
		if row := t.rows[id]; match(row) {
			return row, true
		}
	}
	var zero T
	return zero, false
}

func (t *table[T]) putLocked(id string, row T) {
	if _, ok := t.rows[id]; !ok {
		t.ids = append(t.ids, id)
	}
	t.rows[id] = row
}

func (t *table[T]) insert(id string, row T) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.putLocked(id, row)
}

// update replaces an existing row, reporting whether there was one.
func (t *table[T]) update(id string, row T) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = row
	return true
}

func (t *table[T]) delete(ids ...string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	for _, id := range ids {
		delete(t.rows, id)
	}
	kept := t.ids[:0]
	for _, id := range t.ids {
		if _, ok := t.rows[id]; ok {
			kept = append(kept, id)
		}
	}
	t.ids = kept
}

func newID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

func cloneStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return append([]string{}, ss...)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func contains(values []string, v string) bool {
	for _, val := range values {
		if val == v {
			return true
		}
	}
	return false
}

// in reports whether v is one of values; an empty filter matches everything.
func in(values []string, v string) bool {
	return len(values) == 0 || contains(values, v)
}

// orderBy sorts rows by the orderings, using the comparators of the known fields.
// A comparator returns < 0, 0 or > 0; unknown fields are ignored.
func orderBy[T any](rows []T, ordering []core.DBOrdering, fields map[string]func(a, b T) int) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := fields[ord.Field]
			if !ok {
				continue
			}
			c := cmp(rows[i], rows[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareStrings(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
