package inmemdb

import (
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

var byDate = map[string]func(a, b attendance.Record) int{
	"date": func(a, b attendance.Record) int { return compareTimes(a.Date, b.Date) },
}

type attendanceRepository struct {
	db *table[attendance.Record]
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) UpsertRecords(ctx context.Context, records ...attendance.Record) ([]attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing := make(map[string]attendance.Record, len(repo.db.rows))
	for _, r := range repo.db.rows {
		existing[r.StudentID+"|"+core.DayKey(r.Date)] = r
	}

	saved := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		r.Date = core.Day(r.Date) // a date column, as in postgres
		key := r.StudentID + "|" + core.DayKey(r.Date)
		if orig, ok := existing[key]; ok {
			r.ID = orig.ID
			r.CreatedAt = orig.CreatedAt
		}
		r.ID = newID(r.ID)
		repo.db.putLocked(r.ID, r)
		existing[key] = r
		saved = append(saved, r)
	}
	return saved, nil
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	records := repo.db.filter(func(r attendance.Record) bool {
		return (filter.ClassID == "" || r.ClassID == filter.ClassID) &&
			(filter.StudentID == "" || r.StudentID == filter.StudentID) &&
			filter.Period.Contains(r.Date)
	})
	orderBy(records, []core.DBOrdering{{Field: "date", Ascending: true}}, byDate)
	return records, nil
}
