package inmemdb

import (
	"context"

	"github.com/trezcool/shule/core/result"
)

type resultRepository struct {
	db *table[result.Mark]
}

func NewResultRepository(db *DB) result.Repository {
	return &resultRepository{db: db.marks}
}

func (repo *resultRepository) UpsertMarks(ctx context.Context, marks ...result.Mark) ([]result.Mark, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := func(m result.Mark) string { return m.StudentID + "|" + m.BookID + "|" + m.TermID }
	existing := make(map[string]result.Mark, len(repo.db.rows))
	for _, m := range repo.db.rows {
		existing[key(m)] = m
	}

	saved := make([]result.Mark, 0, len(marks))
	for _, m := range marks {
		if orig, ok := existing[key(m)]; ok {
			m.ID = orig.ID
			m.CreatedAt = orig.CreatedAt
		}
		m.ID = newID(m.ID)
		repo.db.putLocked(m.ID, m)
		existing[key(m)] = m
		saved = append(saved, m)
	}
	return saved, nil
}

func (repo *resultRepository) FilterMarks(ctx context.Context, filter result.Filter) ([]result.Mark, error) {
	return repo.db.filter(func(m result.Mark) bool {
		return (filter.ClassID == "" || m.ClassID == filter.ClassID) &&
			(filter.StudentID == "" || m.StudentID == filter.StudentID) &&
			(filter.TermID == "" || m.TermID == filter.TermID)
	}), nil
}
