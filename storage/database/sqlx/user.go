package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const userColumns = `id, name, username, email, role, status, password_hash, created_at, updated_at, last_login`

var userOrderings = map[string]string{
	"name":       "lower(name)",
	"username":   "username",
	"email":      "lower(email)",
	"created_at": "created_at",
	"last_login": "last_login",
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excluded := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded = append(excluded, usr.ID)
	}

	var taken []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	q := `SELECT username, email FROM users
		WHERE ((username <> '' AND username = $1) OR (email <> '' AND lower(email) = lower($2)))
		AND NOT (id::text = ANY($3))`
	if err := repo.db.SelectContext(ctx, &taken, q, username, email, pq.Array(excluded)); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	for _, t := range taken {
		if username != "" && t.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(taken) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = newID(usr.ID)
	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :username, :email, :role, :status, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	return repo.FilterUsers(ctx, user.QueryFilter{})
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users WHERE id::text = $1`, id); err != nil {
		return user.User{}, notFound(err, user.ErrNotFound)
	}
	return usr, nil
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	var usr user.User
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR (email <> '' AND lower(email) = lower($1)) LIMIT 1`
	if err := repo.db.GetContext(ctx, &usr, q, username); err != nil {
		return user.User{}, notFound(err, user.ErrNotFound)
	}
	return usr, nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	var w where
	if filter.Search != "" {
		w.add("(name ILIKE ? OR username ILIKE ? OR email ILIKE ?)", like(filter.Search), like(filter.Search), like(filter.Search))
	}
	if len(filter.Roles) > 0 {
		w.add("role = ANY(?)", pq.Array(filter.Roles))
	}
	if len(filter.Statuses) > 0 {
		w.add("status = ANY(?)", pq.Array(filter.Statuses))
	}
	w.period("created_at::date", core.DateRange{From: filter.CreatedFrom, To: filter.CreatedTo})

	users := make([]user.User, 0)
	q := `SELECT ` + userColumns + ` FROM users` + w.String() + orderClause(ordering, userOrderings, "created_at")
	if err := repo.db.SelectContext(ctx, &users, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET name = :name, username = :username, email = :email, role = :role, status = :status,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id::text = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting users")
}

// like escapes s for a contains match.
func like(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
