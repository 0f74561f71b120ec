package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
)

var (
	byDueDate = map[string]func(a, b fee.Record) int{
		"due_date": func(a, b fee.Record) int { return compareTimes(a.DueDate, b.DueDate) },
	}
	byVoucherDate = map[string]func(a, b fee.Voucher) int{
		"date": func(a, b fee.Voucher) int { return compareTimes(a.Date, b.Date) },
	}
)

type feeRepository struct {
	db *DB
}

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db}
}

func copyType(ft fee.Type) fee.Type {
	ft.ClassIDs = cloneStrings(ft.ClassIDs)
	return ft
}

func (repo *feeRepository) CreateType(ctx context.Context, ft fee.Type) (fee.Type, error) {
	ft = copyType(ft)
	ft.ID = newID(ft.ID)
	repo.db.feeTypes.insert(ft.ID, ft)
	return copyType(ft), nil
}

func (repo *feeRepository) UpdateType(ctx context.Context, ft fee.Type) (fee.Type, error) {
	ft = copyType(ft)
	if !repo.db.feeTypes.update(ft.ID, ft) {
		return fee.Type{}, fee.ErrNotFound
	}
	return copyType(ft), nil
}

func (repo *feeRepository) GetTypeByID(ctx context.Context, id string) (fee.Type, error) {
	if ft, ok := repo.db.feeTypes.get(id); ok {
		return copyType(ft), nil
	}
	return fee.Type{}, fee.ErrNotFound
}

func (repo *feeRepository) QueryTypes(ctx context.Context) ([]fee.Type, error) {
	types := repo.db.feeTypes.filter(nil)
	for i := range types {
		types[i] = copyType(types[i])
	}
	return types, nil
}

func (repo *feeRepository) CreateRecords(ctx context.Context, records ...fee.Record) ([]fee.Record, error) {
	tbl := repo.db.feeRecords
	tbl.mutex.Lock()
	defer tbl.mutex.Unlock()

	created := make([]fee.Record, 0, len(records))
	for _, r := range records {
		r.ID = newID(r.ID)
		tbl.putLocked(r.ID, r)
		created = append(created, r)
	}
	return created, nil
}

func (repo *feeRepository) UpdateRecord(ctx context.Context, record fee.Record) (fee.Record, error) {
	if !repo.db.feeRecords.update(record.ID, record) {
		return fee.Record{}, fee.ErrNotFound
	}
	return record, nil
}

func (repo *feeRepository) GetRecordByID(ctx context.Context, id string) (fee.Record, error) {
	if r, ok := repo.db.feeRecords.get(id); ok {
		return r, nil
	}
	return fee.Record{}, fee.ErrNotFound
}

func (repo *feeRepository) FilterRecords(ctx context.Context, filter fee.RecordFilter) ([]fee.Record, error) {
	records := repo.db.feeRecords.filter(func(r fee.Record) bool {
		return (filter.StudentID == "" || r.StudentID == filter.StudentID) &&
			(filter.TypeID == "" || r.TypeID == filter.TypeID) &&
			in(filter.Statuses, r.Status) &&
			filter.Period.Contains(r.DueDate)
	})
	orderBy(records, []core.DBOrdering{{Field: "due_date", Ascending: true}}, byDueDate)
	return records, nil
}

func (repo *feeRepository) CheckVoucherNumberUniqueness(ctx context.Context, number string) error {
	if _, ok := repo.db.vouchers.find(func(v fee.Voucher) bool { return strings.EqualFold(v.Number, number) }); ok {
		return fee.ErrVoucherExists
	}
	return nil
}

func (repo *feeRepository) CreateVoucher(ctx context.Context, voucher fee.Voucher) (fee.Voucher, error) {
	voucher.ID = newID(voucher.ID)
	repo.db.vouchers.insert(voucher.ID, voucher)
	return voucher, nil
}

func (repo *feeRepository) GetVoucherByID(ctx context.Context, id string) (fee.Voucher, error) {
	if v, ok := repo.db.vouchers.get(id); ok {
		return v, nil
	}
	return fee.Voucher{}, fee.ErrNotFound
}

func (repo *feeRepository) FilterVouchers(ctx context.Context, filter fee.VoucherFilter) ([]fee.Voucher, error) {
	vouchers := repo.db.vouchers.filter(func(v fee.Voucher) bool {
		return in(filter.Types, v.Type) &&
			(filter.StudentID == "" || v.StudentID == filter.StudentID) &&
			filter.Period.Contains(v.Date)
	})
	orderBy(vouchers, []core.DBOrdering{{Field: "date", Ascending: true}}, byVoucherDate)
	return vouchers, nil
}
