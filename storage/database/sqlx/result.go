package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/result"
)

const markColumns = `id, student_id, class_id, book_id, term_id, marks, created_at, updated_at`

type resultRepository struct {
	db *sqlx.DB
}

func NewResultRepository(db *sqlx.DB) result.Repository {
	return &resultRepository{db: db}
}

func (repo *resultRepository) UpsertMarks(ctx context.Context, marks ...result.Mark) ([]result.Mark, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `INSERT INTO marks (` + markColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (student_id, book_id, term_id) DO UPDATE SET class_id = EXCLUDED.class_id, marks = EXCLUDED.marks,
		updated_at = EXCLUDED.updated_at
		RETURNING ` + markColumns

	saved := make([]result.Mark, 0, len(marks))
	for _, m := range marks {
		m.ID = newID(m.ID)
		var mark result.Mark
		err := tx.GetContext(ctx, &mark, q, m.ID, m.StudentID, m.ClassID, m.BookID, m.TermID, m.Marks, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "upserting mark")
		}
		saved = append(saved, mark)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return saved, nil
}

func (repo *resultRepository) FilterMarks(ctx context.Context, filter result.Filter) ([]result.Mark, error) {
	var w where
	if filter.ClassID != "" {
		w.add("class_id::text = ?", filter.ClassID)
	}
	if filter.StudentID != "" {
		w.add("student_id::text = ?", filter.StudentID)
	}
	if filter.TermID != "" {
		w.add("term_id::text = ?", filter.TermID)
	}

	marks := make([]result.Mark, 0)
	q := `SELECT ` + markColumns + ` FROM marks` + w.String() + ` ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &marks, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting marks")
	}
	return marks, nil
}
