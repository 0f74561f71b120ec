package fee

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/user"
)

const cachePrefix = "fee:"

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound      = errors.New("fee record not found")
	ErrVoucherExists = errors.New("a voucher with this number already exists")
	ErrAlreadyPaid   = errors.New("fee record is already paid")
	errUnknownType   = errors.New("unknown fee type")
)

type (
	Repository interface {
		CreateType(ctx context.Context, ft Type) (Type, error)
		UpdateType(ctx context.Context, ft Type) (Type, error)
		GetTypeByID(ctx context.Context, id string) (Type, error)
		QueryTypes(ctx context.Context) ([]Type, error)

		CreateRecords(ctx context.Context, records ...Record) ([]Record, error)
		UpdateRecord(ctx context.Context, record Record) (Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		FilterRecords(ctx context.Context, filter RecordFilter) ([]Record, error)

		CheckVoucherNumberUniqueness(ctx context.Context, number string) error
		CreateVoucher(ctx context.Context, voucher Voucher) (Voucher, error)
		GetVoucherByID(ctx context.Context, id string) (Voucher, error)
		FilterVouchers(ctx context.Context, filter VoucherFilter) ([]Voucher, error)
	}

	Roster interface {
		GetStudent(ctx context.Context, id string) (academic.Student, error)
		ActiveStudents(ctx context.Context, classIDs ...string) ([]academic.Student, error)
	}

	// Accounts finds the user account linked to a student.
	Accounts interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	// StatementFunc renders the fee statement of a student, attached to reminder emails.
	StatementFunc func(student academic.Student, records []Record) (content io.Reader, filename, contentType string, err error)

	Service struct {
		repo      Repository
		roster    Roster
		accounts  Accounts
		cache     core.Cache
		mailSvc   core.EmailService
		logger    core.Logger
		currency  string
		statement StatementFunc
	}
)

func NewService(
	repo Repository,
	roster Roster,
	accounts Accounts,
	cache core.Cache,
	mailSvc core.EmailService,
	logger core.Logger,
	conf core.RecordsConfig,
) *Service {
	return &Service{
		repo:     repo,
		roster:   roster,
		accounts: accounts,
		cache:    cache,
		mailSvc:  mailSvc,
		logger:   logger,
		currency: conf.Currency,
	}
}

// AttachStatements makes reminders carry the statement rendered by fn.
func (svc *Service) AttachStatements(fn StatementFunc) {
	svc.statement = fn
}

func newID() string { return uuid.New().String() }

// today is the instant statuses are derived at. Due dates are UTC calendar dates.
func today() time.Time { return NowFunc().UTC() }

func (svc *Service) invalidate(ctx context.Context) {
	if err := svc.cache.Invalidate(ctx, cachePrefix); err != nil {
		svc.logger.Warn("invalidating fee cache", err)
	}
}

func (svc *Service) checkVoucherNumber(ctx context.Context, number string) error {
	if err := svc.repo.CheckVoucherNumberUniqueness(ctx, number); err != nil {
		if errors.Cause(err) == ErrVoucherExists {
			return core.NewFieldError("number", err)
		}
		return err
	}
	return nil
}

// Types

func (svc *Service) CreateType(ctx context.Context, ti TypeInput) (Type, error) {
	return svc.repo.CreateType(ctx, Type{
		ID:        newID(),
		Name:      ti.Name,
		Amount:    core.Round(ti.Amount, 2),
		Frequency: ti.Frequency,
		DueDay:    ti.DueDay,
		ClassIDs:  ti.ClassIDs,
		CreatedAt: today(),
	})
}

func (svc *Service) UpdateType(ctx context.Context, ft Type, ti TypeInput) (Type, error) {
	ft.Name = ti.Name
	ft.Amount = core.Round(ti.Amount, 2)
	ft.Frequency = ti.Frequency
	ft.DueDay = ti.DueDay
	ft.ClassIDs = ti.ClassIDs
	updated, err := svc.repo.UpdateType(ctx, ft)
	if err != nil {
		return Type{}, err
	}
	svc.invalidate(ctx)
	return updated, nil
}

func (svc *Service) GetType(ctx context.Context, id string) (Type, error) {
	return svc.repo.GetTypeByID(ctx, id)
}

func (svc *Service) QueryTypes(ctx context.Context) ([]Type, error) {
	return svc.repo.QueryTypes(ctx)
}

// Records

// Generate creates the fee records of the type for the period containing date.
// Students already charged for that period are left out, so generating twice is harmless.
func (svc *Service) Generate(ctx context.Context, ft Type, date time.Time) ([]Record, error) {
	students, err := svc.roster.ActiveStudents(ctx, ft.ClassIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "svc.roster.ActiveStudents()")
	}
	existing, err := svc.repo.FilterRecords(ctx, RecordFilter{TypeID: ft.ID})
	if err != nil {
		return nil, errors.Wrap(err, "svc.repo.FilterRecords()")
	}
	charged := make(map[string]bool, len(existing))
	for _, r := range existing {
		charged[r.key()] = true
	}

	var records []Record
	for _, r := range Generate(ft, students, date, today()) {
		if !charged[r.key()] {
			r.ID = newID()
			records = append(records, r)
		}
	}
	if len(records) == 0 {
		return []Record{}, nil
	}

	created, err := svc.repo.CreateRecords(ctx, records...)
	if err != nil {
		return nil, errors.Wrap(err, "svc.repo.CreateRecords()")
	}
	svc.invalidate(ctx)
	return created, nil
}

func (svc *Service) CreateRecord(ctx context.Context, nr NewRecord) (Record, error) {
	ft, err := svc.repo.GetTypeByID(ctx, nr.TypeID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Record{}, core.NewFieldError("fee_type_id", errUnknownType)
		}
		return Record{}, errors.Wrap(err, "svc.repo.GetTypeByID()")
	}
	if _, err := svc.roster.GetStudent(ctx, nr.StudentID); err != nil {
		if errors.Cause(err) == academic.ErrNotFound {
			return Record{}, core.NewFieldError("student_id", err)
		}
		return Record{}, errors.Wrap(err, "svc.roster.GetStudent()")
	}

	now := today()
	due, _ := core.ParseDate(nr.DueDate)
	period := nr.Period
	if period == "" {
		period, _ = ft.PeriodOf(due)
	}
	r := Record{
		ID:        newID(),
		StudentID: nr.StudentID,
		TypeID:    ft.ID,
		Period:    period,
		Amount:    core.Round(nr.Amount, 2),
		DueDate:   due,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Status = r.EffectiveStatus(now)

	created, err := svc.repo.CreateRecords(ctx, r)
	if err != nil {
		return Record{}, errors.Wrap(err, "svc.repo.CreateRecords()")
	}
	svc.invalidate(ctx)
	return created[0], nil
}

func (svc *Service) GetRecord(ctx context.Context, id string) (Record, error) {
	r, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	r.Status = r.EffectiveStatus(today())
	return r, nil
}

// QueryRecords returns the records matching filter, with their status as of today.
// The status filter applies to the effective status.
func (svc *Service) QueryRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	statuses := filter.Statuses
	filter.Statuses = nil
	records, err := svc.repo.FilterRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := today()
	keep := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		keep[s] = true
	}
	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		r.Status = r.EffectiveStatus(now)
		if len(keep) == 0 || keep[r.Status] {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Pay records the payment of a fee record and issues its receipt number.
func (svc *Service) Pay(ctx context.Context, r Record, pr PaymentRequest) (Record, error) {
	if r.PaymentDate != nil {
		return Record{}, core.NewValidationError(ErrAlreadyPaid)
	}
	now := today()
	paidOn, _ := core.ParseDate(pr.PaymentDate)
	if paidOn.IsZero() {
		paidOn = core.Day(now)
	}
	r.PaymentDate = &paidOn
	r.PaymentMethod = pr.Method
	r.ReceiptNumber = ReceiptNumber(paidOn)
	r.Status = r.EffectiveStatus(now)
	r.UpdatedAt = now

	updated, err := svc.repo.UpdateRecord(ctx, r)
	if err != nil {
		return Record{}, errors.Wrap(err, "svc.repo.UpdateRecord()")
	}
	svc.invalidate(ctx)
	return updated, nil
}

// ReceiptNumber returns a new receipt number for a payment made on date, eg. RCP-20210301-1A2B3C4D.
func ReceiptNumber(date time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("RCP-%s-%s", date.Format("20060102"), suffix)
}

// Summary totals the records matching filter, as of today.
func (svc *Service) Summary(ctx context.Context, filter RecordFilter) (Summary, error) {
	now := today()
	key := fmt.Sprintf("%ssummary:%s:%s:%s:%s", cachePrefix, core.DayKey(now), filter.StudentID, filter.TypeID, periodKey(filter.Period))

	var summary Summary
	if err := svc.cache.Get(ctx, key, &summary); err == nil {
		return summary, nil
	} else if errors.Cause(err) != core.ErrCacheMiss {
		svc.logger.Warn("reading fee cache", err)
	}

	filter.Statuses = nil
	records, err := svc.repo.FilterRecords(ctx, filter)
	if err != nil {
		return Summary{}, errors.Wrap(err, "svc.repo.FilterRecords()")
	}
	summary = Summarize(records, now)
	if summary.Skipped > 0 {
		svc.logger.Warn(fmt.Sprintf("fee summary skipped %d records", summary.Skipped))
	}
	if err := svc.cache.Set(ctx, key, summary); err != nil {
		svc.logger.Warn("writing fee cache", err)
	}
	return summary, nil
}

// StudentFees is the fee account of one student.
type StudentFees struct {
	Summary Summary  `json:"summary"`
	Records []Record `json:"records"`
}

func (svc *Service) StudentFees(ctx context.Context, studentID string) (StudentFees, error) {
	records, err := svc.QueryRecords(ctx, RecordFilter{StudentID: studentID})
	if err != nil {
		return StudentFees{}, errors.Wrap(err, "svc.QueryRecords()")
	}
	return StudentFees{Summary: Summarize(records, today()), Records: records}, nil
}

// RefreshStatuses stores the effective status of every unpaid record whose stored status is stale.
// Returns the number of updated records.
func (svc *Service) RefreshStatuses(ctx context.Context) (int, error) {
	records, err := svc.repo.FilterRecords(ctx, RecordFilter{Statuses: []string{StatusPending, StatusOverdue}})
	if err != nil {
		return 0, errors.Wrap(err, "svc.repo.FilterRecords()")
	}
	now := today()
	var n int
	for _, r := range records {
		status := r.EffectiveStatus(now)
		if status == r.Status {
			continue
		}
		r.Status = status
		r.UpdatedAt = now
		if _, err := svc.repo.UpdateRecord(ctx, r); err != nil {
			return n, errors.Wrapf(err, "svc.repo.UpdateRecord(%s)", r.ID)
		}
		n++
	}
	if n > 0 {
		svc.invalidate(ctx)
	}
	return n, nil
}

type reminderFee struct {
	Name    string
	Amount  string
	DueDate string
}

// recipient is the guardian of student, or the student's own account when no guardian email is known.
func (svc *Service) recipient(ctx context.Context, student academic.Student) (mail.Address, bool) {
	if student.GuardianEmail != "" {
		return mail.Address{Name: student.GuardianName, Address: student.GuardianEmail}, true
	}
	if student.UserID == "" || svc.accounts == nil {
		return mail.Address{}, false
	}
	usr, err := svc.accounts.GetByID(ctx, student.UserID)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			svc.logger.Warn(fmt.Sprintf("overdue reminder: account of student %s", student.ID), err)
		}
		return mail.Address{}, false
	}
	if usr.Email == "" {
		return mail.Address{}, false
	}
	return mail.Address{Name: usr.Name, Address: usr.Email}, true
}

// RemindOverdue emails the guardian (or else the student's account) of every student with overdue fees.
// Students without any email are skipped. Returns the number of emails sent.
func (svc *Service) RemindOverdue(ctx context.Context) (int, error) {
	now := today()
	records, err := svc.repo.FilterRecords(ctx, RecordFilter{Statuses: []string{StatusPending, StatusOverdue}})
	if err != nil {
		return 0, errors.Wrap(err, "svc.repo.FilterRecords()")
	}
	types, err := svc.repo.QueryTypes(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "svc.repo.QueryTypes()")
	}
	typeNames := make(map[string]string, len(types))
	for _, ft := range types {
		typeNames[ft.ID] = ft.Name
	}

	byStudent := make(map[string][]Record)
	for _, r := range records {
		if r.Valid() && r.EffectiveStatus(now) == StatusOverdue {
			byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
		}
	}
	studentIDs := make([]string, 0, len(byStudent))
	for id := range byStudent {
		studentIDs = append(studentIDs, id)
	}
	sort.Strings(studentIDs)

	messages := make([]*core.EmailMessage, 0, len(studentIDs))
	for _, id := range studentIDs {
		student, err := svc.roster.GetStudent(ctx, id)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("overdue reminder: student %s", id), err)
			continue
		}
		to, ok := svc.recipient(ctx, student)
		if !ok {
			continue
		}

		overdue := byStudent[id]
		sort.Slice(overdue, func(i, j int) bool { return overdue[i].DueDate.Before(overdue[j].DueDate) })
		fees := make([]reminderFee, 0, len(overdue))
		var total float64
		for _, r := range overdue {
			total += r.Amount
			fees = append(fees, reminderFee{
				Name:    typeNames[r.TypeID] + " (" + r.Period + ")",
				Amount:  formatAmount(r.Amount),
				DueDate: core.DayKey(r.DueDate),
			})
		}

		msg := &core.EmailMessage{
			To:           []mail.Address{to},
			Subject:      "Overdue fees for " + student.Name,
			TemplateName: "fee_overdue",
			TemplateData: map[string]interface{}{
				"StudentName": student.Name,
				"Fees":        fees,
				"Total":       formatAmount(total),
				"Currency":    svc.currency,
			},
		}
		if svc.statement != nil {
			content, filename, ct, err := svc.statement(student, overdue)
			if err == nil {
				err = msg.Attach(content, filename, ct)
			}
			if err != nil {
				svc.logger.Warn(fmt.Sprintf("overdue reminder: statement of student %s", id), err)
			}
		}
		messages = append(messages, msg)
	}

	svc.mailSvc.SendMessages(messages...)
	return len(messages), nil
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

func periodKey(r core.DateRange) string {
	key := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return core.DayKey(t)
	}
	return key(r.From) + ":" + key(r.To)
}

// Vouchers

func (svc *Service) CreateVoucher(ctx context.Context, nv NewVoucher) (Voucher, error) {
	date, _ := core.ParseDate(nv.Date)
	v, err := svc.repo.CreateVoucher(ctx, Voucher{
		ID:          newID(),
		Number:      nv.Number,
		Type:        nv.Type,
		StudentID:   nv.StudentID,
		Amount:      core.Round(nv.Amount, 2),
		Date:        date,
		Description: nv.Description,
		CreatedAt:   today(),
	})
	if err != nil {
		return Voucher{}, err
	}
	svc.invalidate(ctx)
	return v, nil
}

func (svc *Service) GetVoucher(ctx context.Context, id string) (Voucher, error) {
	return svc.repo.GetVoucherByID(ctx, id)
}

func (svc *Service) QueryVouchers(ctx context.Context, filter VoucherFilter) ([]Voucher, error) {
	return svc.repo.FilterVouchers(ctx, filter)
}

func (svc *Service) VoucherSummary(ctx context.Context, filter VoucherFilter) (VoucherSummary, error) {
	key := fmt.Sprintf("%svouchers:%s:%s:%s", cachePrefix, strings.Join(filter.Types, ","), filter.StudentID, periodKey(filter.Period))

	var summary VoucherSummary
	if err := svc.cache.Get(ctx, key, &summary); err == nil {
		return summary, nil
	}
	vouchers, err := svc.repo.FilterVouchers(ctx, filter)
	if err != nil {
		return VoucherSummary{}, errors.Wrap(err, "svc.repo.FilterVouchers()")
	}
	summary = SummarizeVouchers(vouchers)
	if err := svc.cache.Set(ctx, key, summary); err != nil {
		svc.logger.Warn("writing fee cache", err)
	}
	return summary, nil
}
