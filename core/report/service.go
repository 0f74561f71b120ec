package report

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/result"
	"github.com/trezcool/shule/core/timetable"
)

// Report kinds
const (
	KindAttendance = "attendance"
	KindFees       = "fees"
	KindResults    = "results"
	KindVouchers   = "vouchers"
	KindTimetable  = "timetable"
)

var (
	Kinds = []string{KindAttendance, KindFees, KindResults, KindVouchers, KindTimetable}

	// errors
	ErrUnknownKind     = errors.New("unknown report kind")
	errClassIDRequired = errors.New("class_id is required")
	errTermIDRequired  = errors.New("term_id is required")
)

// Params narrows a report. Which fields apply depends on the kind.
type Params struct {
	ClassID   string
	TermID    string
	StudentID string
	Period    core.DateRange
	Date      time.Time // timetables in force on, today when zero
	Ordering  string    // attendance rows, eg. -percentage
}

// Service gathers the data of a report from the domain services and projects it.
type Service struct {
	academic   *academic.Service
	attendance *attendance.Service
	fees       *fee.Service
	results    *result.Service
	timetables *timetable.Service
	currency   string
}

func NewService(
	academicSvc *academic.Service,
	attendanceSvc *attendance.Service,
	feeSvc *fee.Service,
	resultSvc *result.Service,
	timetableSvc *timetable.Service,
	conf core.RecordsConfig,
) *Service {
	return &Service{
		academic:   academicSvc,
		attendance: attendanceSvc,
		fees:       feeSvc,
		results:    resultSvc,
		timetables: timetableSvc,
		currency:   conf.Currency,
	}
}

func (svc *Service) Build(ctx context.Context, kind string, params Params) (Document, error) {
	switch kind {
	case KindAttendance:
		return svc.attendanceReport(ctx, params)
	case KindFees:
		return svc.feeReport(ctx, params)
	case KindResults:
		return svc.resultReport(ctx, params)
	case KindVouchers:
		return svc.voucherReport(ctx, params)
	case KindTimetable:
		return svc.timetableReport(ctx, params)
	default:
		return Document{}, ErrUnknownKind
	}
}

// Render builds the report and writes it with renderer.
func (svc *Service) Render(ctx context.Context, w io.Writer, renderer Renderer, kind string, params Params) error {
	doc, err := svc.Build(ctx, kind, params)
	if err != nil {
		return err
	}
	return errors.Wrap(renderer.Render(w, doc), "renderer.Render()")
}

func (svc *Service) attendanceReport(ctx context.Context, params Params) (Document, error) {
	key, desc := attendance.SortByName, false
	if ords := core.ParseOrdering(params.Ordering, attendance.SortKeys...); len(ords) > 0 {
		key, desc = ords[0].Field, !ords[0].Ascending
	}
	summary, err := svc.attendance.Summary(ctx, attendance.Scope{ClassID: params.ClassID, Period: params.Period}, key, desc)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.attendance.Summary()")
	}
	return Attendance(summary), nil
}

func (svc *Service) feeReport(ctx context.Context, params Params) (Document, error) {
	filter := fee.RecordFilter{StudentID: params.StudentID, Period: params.Period}
	records, err := svc.fees.QueryRecords(ctx, filter)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.fees.QueryRecords()")
	}
	summary, err := svc.fees.Summary(ctx, filter)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.fees.Summary()")
	}
	types, err := svc.fees.QueryTypes(ctx)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.fees.QueryTypes()")
	}
	dir, err := svc.academic.Directory(ctx)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.academic.Directory()")
	}

	if params.ClassID != "" {
		inClass := records[:0:0]
		for _, r := range records {
			if dir.Students[r.StudentID].ClassID == params.ClassID {
				inClass = append(inClass, r)
			}
		}
		records = inClass
		summary = fee.Summarize(records, fee.NowFunc())
	}
	return Fees(records, summary, dir, types, svc.currency), nil
}

func (svc *Service) resultReport(ctx context.Context, params Params) (Document, error) {
	if params.ClassID == "" {
		return Document{}, core.NewFieldError("class_id", errClassIDRequired)
	}
	if params.TermID == "" {
		return Document{}, core.NewFieldError("term_id", errTermIDRequired)
	}
	class, err := svc.academic.GetClass(ctx, params.ClassID)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.academic.GetClass()")
	}
	term, err := svc.academic.GetTerm(ctx, params.TermID)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.academic.GetTerm()")
	}
	results, err := svc.results.ClassResults(ctx, class.ID, term.ID)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.results.ClassResults()")
	}
	return Results(results, class.DisplayName(), term.Name), nil
}

func (svc *Service) voucherReport(ctx context.Context, params Params) (Document, error) {
	filter := fee.VoucherFilter{StudentID: params.StudentID, Period: params.Period}
	vouchers, err := svc.fees.QueryVouchers(ctx, filter)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.fees.QueryVouchers()")
	}
	summary, err := svc.fees.VoucherSummary(ctx, filter)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.fees.VoucherSummary()")
	}
	dir, err := svc.academic.Directory(ctx)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.academic.Directory()")
	}
	return Vouchers(vouchers, summary, dir, params.Period, svc.currency), nil
}

func (svc *Service) timetableReport(ctx context.Context, params Params) (Document, error) {
	date := params.Date
	if date.IsZero() {
		date = NowFunc().UTC()
	}
	current, err := svc.timetables.Current(ctx, date)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.timetables.Current()")
	}
	if params.ClassID != "" {
		inClass := current[:0:0]
		for _, tt := range current {
			if tt.ClassID == params.ClassID {
				inClass = append(inClass, tt)
			}
		}
		current = inClass
	}
	conflicts, err := svc.timetables.Conflicts(ctx, date)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.timetables.Conflicts()")
	}
	dir, err := svc.academic.Directory(ctx)
	if err != nil {
		return Document{}, errors.Wrap(err, "svc.academic.Directory()")
	}
	return Timetables(current, conflicts, dir, date), nil
}

// Statements returns the fee statement builder attached to overdue reminders.
func (svc *Service) Statements(renderer Renderer) fee.StatementFunc {
	return func(student academic.Student, records []fee.Record) (io.Reader, string, string, error) {
		types, err := svc.fees.QueryTypes(context.Background())
		if err != nil {
			return nil, "", "", errors.Wrap(err, "svc.fees.QueryTypes()")
		}
		names := make(map[string]string, len(types))
		for _, ft := range types {
			names[ft.ID] = ft.Name
		}

		doc := FeeStatement(student, records, func(id string) string { return names[id] }, svc.currency)
		var buf bytes.Buffer
		if err := renderer.Render(&buf, doc); err != nil {
			return nil, "", "", errors.Wrap(err, "renderer.Render()")
		}
		filename := "fee-statement-" + student.RollNumber + renderer.Extension()
		return &buf, filename, renderer.ContentType(), nil
	}
}
