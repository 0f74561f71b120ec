package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/attendance"
)

const attendanceColumns = `id, student_id, class_id, date, status, remarks, marked_by, created_at, updated_at`

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// UpsertRecords saves the records in one transaction; re-marking a (student, date) keeps the original id.
func (repo *attendanceRepository) UpsertRecords(ctx context.Context, records ...attendance.Record) ([]attendance.Record, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `INSERT INTO attendance_records (` + attendanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, date) DO UPDATE SET class_id = EXCLUDED.class_id, status = EXCLUDED.status,
		remarks = EXCLUDED.remarks, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at
		RETURNING ` + attendanceColumns

	saved := make([]attendance.Record, 0, len(records))
	for _, r := range records {
		r.ID = newID(r.ID)
		var rec attendance.Record
		err := tx.GetContext(ctx, &rec, q,
			r.ID, r.StudentID, r.ClassID, r.Date, r.Status, r.Remarks, r.MarkedBy, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "upserting attendance record")
		}
		saved = append(saved, rec)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return saved, nil
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	var w where
	if filter.ClassID != "" {
		w.add("class_id::text = ?", filter.ClassID)
	}
	if filter.StudentID != "" {
		w.add("student_id::text = ?", filter.StudentID)
	}
	w.period("date", filter.Period)

	records := make([]attendance.Record, 0)
	q := `SELECT ` + attendanceColumns + ` FROM attendance_records` + w.String() + ` ORDER BY date, created_at`
	if err := repo.db.SelectContext(ctx, &records, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting attendance records")
	}
	return records, nil
}
