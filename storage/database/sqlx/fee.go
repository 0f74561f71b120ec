package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/fee"
)

const (
	feeRecordColumns = `id, student_id, fee_type_id, period, amount, due_date, status, payment_date, payment_method,
		receipt_number, created_at, updated_at`
	voucherColumns = `id, number, type, COALESCE(student_id::text, '') AS student_id, amount, date, description, created_at`
)

type (
	feeRepository struct {
		db *sqlx.DB
	}

	feeTypeRow struct {
		ID        string         `db:"id"`
		Name      string         `db:"name"`
		Amount    float64        `db:"amount"`
		Frequency string         `db:"frequency"`
		DueDay    int            `db:"due_day"`
		ClassIDs  pq.StringArray `db:"class_ids"`
		CreatedAt time.Time      `db:"created_at"`
	}
)

func (r feeTypeRow) feeType() fee.Type {
	return fee.Type{
		ID:        r.ID,
		Name:      r.Name,
		Amount:    r.Amount,
		Frequency: r.Frequency,
		DueDay:    r.DueDay,
		ClassIDs:  []string(r.ClassIDs),
		CreatedAt: r.CreatedAt,
	}
}

func NewFeeRepository(db *sqlx.DB) fee.Repository {
	return &feeRepository{db: db}
}

// Types

func (repo *feeRepository) CreateType(ctx context.Context, ft fee.Type) (fee.Type, error) {
	ft.ID = newID(ft.ID)
	q := `INSERT INTO fee_types (id, name, amount, frequency, due_day, class_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q, ft.ID, ft.Name, ft.Amount, ft.Frequency, ft.DueDay, pq.Array(ft.ClassIDs), ft.CreatedAt)
	if err != nil {
		return fee.Type{}, errors.Wrap(err, "inserting fee type")
	}
	return ft, nil
}

func (repo *feeRepository) UpdateType(ctx context.Context, ft fee.Type) (fee.Type, error) {
	q := `UPDATE fee_types SET name = $2, amount = $3, frequency = $4, due_day = $5, class_ids = $6 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, ft.ID, ft.Name, ft.Amount, ft.Frequency, ft.DueDay, pq.Array(ft.ClassIDs))
	if err != nil {
		return fee.Type{}, errors.Wrap(err, "updating fee type")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fee.Type{}, fee.ErrNotFound
	}
	return ft, nil
}

func (repo *feeRepository) GetTypeByID(ctx context.Context, id string) (fee.Type, error) {
	var row feeTypeRow
	q := `SELECT id, name, amount, frequency, due_day, class_ids, created_at FROM fee_types WHERE id::text = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return fee.Type{}, notFound(err, fee.ErrNotFound)
	}
	return row.feeType(), nil
}

func (repo *feeRepository) QueryTypes(ctx context.Context) ([]fee.Type, error) {
	var rows []feeTypeRow
	q := `SELECT id, name, amount, frequency, due_day, class_ids, created_at FROM fee_types ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting fee types")
	}
	types := make([]fee.Type, 0, len(rows))
	for _, row := range rows {
		types = append(types, row.feeType())
	}
	return types, nil
}

// Records

func (repo *feeRepository) CreateRecords(ctx context.Context, records ...fee.Record) ([]fee.Record, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `INSERT INTO fee_records (` + feeRecordColumns + `)
		VALUES (:id, :student_id, :fee_type_id, :period, :amount, :due_date, :status, :payment_date, :payment_method,
		:receipt_number, :created_at, :updated_at)`
	created := make([]fee.Record, 0, len(records))
	for _, r := range records {
		r.ID = newID(r.ID)
		if _, err := tx.NamedExecContext(ctx, q, r); err != nil {
			return nil, errors.Wrap(err, "inserting fee record")
		}
		created = append(created, r)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return created, nil
}

func (repo *feeRepository) UpdateRecord(ctx context.Context, r fee.Record) (fee.Record, error) {
	q := `UPDATE fee_records SET amount = :amount, due_date = :due_date, status = :status, payment_date = :payment_date,
		payment_method = :payment_method, receipt_number = :receipt_number, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, r)
	if err != nil {
		return fee.Record{}, errors.Wrap(err, "updating fee record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fee.Record{}, fee.ErrNotFound
	}
	return r, nil
}

func (repo *feeRepository) GetRecordByID(ctx context.Context, id string) (fee.Record, error) {
	var r fee.Record
	if err := repo.db.GetContext(ctx, &r, `SELECT `+feeRecordColumns+` FROM fee_records WHERE id::text = $1`, id); err != nil {
		return fee.Record{}, notFound(err, fee.ErrNotFound)
	}
	return r, nil
}

func (repo *feeRepository) FilterRecords(ctx context.Context, filter fee.RecordFilter) ([]fee.Record, error) {
	var w where
	if filter.StudentID != "" {
		w.add("student_id::text = ?", filter.StudentID)
	}
	if filter.TypeID != "" {
		w.add("fee_type_id::text = ?", filter.TypeID)
	}
	if len(filter.Statuses) > 0 {
		w.add("status = ANY(?)", pq.Array(filter.Statuses))
	}
	w.period("due_date", filter.Period)

	records := make([]fee.Record, 0)
	q := `SELECT ` + feeRecordColumns + ` FROM fee_records` + w.String() + ` ORDER BY due_date, created_at`
	if err := repo.db.SelectContext(ctx, &records, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting fee records")
	}
	return records, nil
}

// Vouchers

func (repo *feeRepository) CheckVoucherNumberUniqueness(ctx context.Context, number string) error {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM vouchers WHERE lower(number) = lower($1))`
	if err := repo.db.GetContext(ctx, &exists, q, number); err != nil {
		return errors.Wrap(err, "checking voucher number")
	}
	if exists {
		return fee.ErrVoucherExists
	}
	return nil
}

func (repo *feeRepository) CreateVoucher(ctx context.Context, v fee.Voucher) (fee.Voucher, error) {
	v.ID = newID(v.ID)
	q := `INSERT INTO vouchers (id, number, type, student_id, amount, date, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q, v.ID, v.Number, v.Type, nullable(v.StudentID), v.Amount, v.Date, v.Description, v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fee.Voucher{}, fee.ErrVoucherExists
		}
		return fee.Voucher{}, errors.Wrap(err, "inserting voucher")
	}
	return v, nil
}

func (repo *feeRepository) GetVoucherByID(ctx context.Context, id string) (fee.Voucher, error) {
	var v fee.Voucher
	if err := repo.db.GetContext(ctx, &v, `SELECT `+voucherColumns+` FROM vouchers WHERE id::text = $1`, id); err != nil {
		return fee.Voucher{}, notFound(err, fee.ErrNotFound)
	}
	return v, nil
}

func (repo *feeRepository) FilterVouchers(ctx context.Context, filter fee.VoucherFilter) ([]fee.Voucher, error) {
	var w where
	if len(filter.Types) > 0 {
		w.add("type = ANY(?)", pq.Array(filter.Types))
	}
	if filter.StudentID != "" {
		w.add("student_id::text = ?", filter.StudentID)
	}
	w.period("date", filter.Period)

	vouchers := make([]fee.Voucher, 0)
	q := `SELECT ` + voucherColumns + ` FROM vouchers` + w.String() + ` ORDER BY date, created_at`
	if err := repo.db.SelectContext(ctx, &vouchers, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting vouchers")
	}
	return vouchers, nil
}
