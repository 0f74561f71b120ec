package inmemdb

import (
	"context"

	"github.com/trezcool/shule/core/timetable"
)

type timetableRepository struct {
	db *table[timetable.Timetable]
}

func NewTimetableRepository(db *DB) timetable.Repository {
	return &timetableRepository{db: db.timetables}
}

func copyTimetable(tt timetable.Timetable) timetable.Timetable {
	tt.Slots = append([]timetable.Slot{}, tt.Slots...)
	return tt
}

func (repo *timetableRepository) CreateTimetable(ctx context.Context, tt timetable.Timetable) (timetable.Timetable, error) {
	tt = copyTimetable(tt)
	tt.ID = newID(tt.ID)
	for i := range tt.Slots {
		tt.Slots[i].ID = newID(tt.Slots[i].ID)
		tt.Slots[i].TimetableID = tt.ID
		tt.Slots[i].ClassID = tt.ClassID
	}
	repo.db.insert(tt.ID, tt)
	return copyTimetable(tt), nil
}

func (repo *timetableRepository) GetTimetableByID(ctx context.Context, id string) (timetable.Timetable, error) {
	if tt, ok := repo.db.get(id); ok {
		return copyTimetable(tt), nil
	}
	return timetable.Timetable{}, timetable.ErrNotFound
}

func (repo *timetableRepository) FilterTimetables(ctx context.Context, filter timetable.Filter) ([]timetable.Timetable, error) {
	tts := repo.db.filter(func(tt timetable.Timetable) bool {
		return (filter.ClassID == "" || tt.ClassID == filter.ClassID) &&
			(filter.ActiveOn.IsZero() || tt.ActiveOn(filter.ActiveOn))
	})
	for i := range tts {
		tts[i] = copyTimetable(tts[i])
	}
	return tts, nil
}
