package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/timetable"
)

const (
	timetableColumns = `id, class_id, COALESCE(academic_year_id::text, '') AS academic_year_id,
		COALESCE(term_id::text, '') AS term_id, valid_from, COALESCE(valid_to, '0001-01-01') AS valid_to, created_at`
	slotColumns = `id, timetable_id, class_id, day, period, start_minute, end_minute,
		COALESCE(book_id::text, '') AS book_id, COALESCE(teacher_id::text, '') AS teacher_id`
)

type (
	timetableRepository struct {
		db *sqlx.DB
	}

	timetableRow struct {
		ID             string    `db:"id"`
		ClassID        string    `db:"class_id"`
		AcademicYearID string    `db:"academic_year_id"`
		TermID         string    `db:"term_id"`
		ValidFrom      time.Time `db:"valid_from"`
		ValidTo        time.Time `db:"valid_to"`
		CreatedAt      time.Time `db:"created_at"`
	}
)

func NewTimetableRepository(db *sqlx.DB) timetable.Repository {
	return &timetableRepository{db: db}
}

func (repo *timetableRepository) CreateTimetable(ctx context.Context, tt timetable.Timetable) (timetable.Timetable, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return timetable.Timetable{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	tt.ID = newID(tt.ID)
	q := `INSERT INTO timetables (id, class_id, academic_year_id, term_id, valid_from, valid_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.ExecContext(ctx, q,
		tt.ID, tt.ClassID, nullable(tt.AcademicYearID), nullable(tt.TermID), tt.ValidFrom, nullTime(tt.ValidTo), tt.CreatedAt)
	if err != nil {
		return timetable.Timetable{}, errors.Wrap(err, "inserting timetable")
	}

	q = `INSERT INTO timetable_slots (id, timetable_id, class_id, day, period, start_minute, end_minute, book_id, teacher_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	slots := make([]timetable.Slot, 0, len(tt.Slots))
	for _, s := range tt.Slots {
		s.ID = newID(s.ID)
		s.TimetableID = tt.ID
		s.ClassID = tt.ClassID
		_, err := tx.ExecContext(ctx, q,
			s.ID, s.TimetableID, s.ClassID, int(s.Day), s.Period, int(s.Start), int(s.End), nullable(s.BookID), nullable(s.TeacherID))
		if err != nil {
			return timetable.Timetable{}, errors.Wrap(err, "inserting timetable slot")
		}
		slots = append(slots, s)
	}
	tt.Slots = slots

	if err := tx.Commit(); err != nil {
		return timetable.Timetable{}, errors.Wrap(err, "committing transaction")
	}
	return tt, nil
}

func (repo *timetableRepository) GetTimetableByID(ctx context.Context, id string) (timetable.Timetable, error) {
	var w where
	w.add("id::text = ?", id)
	tts, err := repo.query(ctx, w)
	if err != nil {
		return timetable.Timetable{}, err
	}
	if len(tts) == 0 {
		return timetable.Timetable{}, timetable.ErrNotFound
	}
	return tts[0], nil
}

func (repo *timetableRepository) FilterTimetables(ctx context.Context, filter timetable.Filter) ([]timetable.Timetable, error) {
	var w where
	if filter.ClassID != "" {
		w.add("class_id::text = ?", filter.ClassID)
	}
	if !filter.ActiveOn.IsZero() {
		day := core.Day(filter.ActiveOn)
		w.add("valid_from <= ?", day)
		w.add("(valid_to IS NULL OR valid_to >= ?)", day)
	}
	return repo.query(ctx, w)
}

// query loads the matching timetables with their slots.
func (repo *timetableRepository) query(ctx context.Context, w where) ([]timetable.Timetable, error) {
	var rows []timetableRow
	q := `SELECT ` + timetableColumns + ` FROM timetables` + w.String() + ` ORDER BY valid_from, created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting timetables")
	}
	if len(rows) == 0 {
		return []timetable.Timetable{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var slots []timetable.Slot
	q = `SELECT ` + slotColumns + ` FROM timetable_slots WHERE timetable_id::text = ANY($1) ORDER BY day, start_minute, period`
	if err := repo.db.SelectContext(ctx, &slots, q, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "selecting timetable slots")
	}
	byTimetable := make(map[string][]timetable.Slot, len(rows))
	for _, s := range slots {
		byTimetable[s.TimetableID] = append(byTimetable[s.TimetableID], s)
	}

	tts := make([]timetable.Timetable, 0, len(rows))
	for _, row := range rows {
		tts = append(tts, timetable.Timetable{
			ID:             row.ID,
			ClassID:        row.ClassID,
			AcademicYearID: row.AcademicYearID,
			TermID:         row.TermID,
			ValidFrom:      row.ValidFrom,
			ValidTo:        row.ValidTo,
			Slots:          append([]timetable.Slot{}, byTimetable[row.ID]...),
			CreatedAt:      row.CreatedAt,
		})
	}
	return tts, nil
}
