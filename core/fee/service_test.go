package fee_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/user"
	cachesvc "github.com/trezcool/shule/services/cache"
	inmem "github.com/trezcool/shule/storage/database/inmem"
	"github.com/trezcool/shule/tests"
)

func mockNow(t *testing.T, now time.Time) {
	t.Helper()
	orig := fee.NowFunc
	fee.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { fee.NowFunc = orig })
}

func createType(t *testing.T, svc *fee.Service, classIDs ...string) fee.Type {
	t.Helper()
	ft, err := svc.CreateType(context.Background(), fee.TypeInput{Name: "Tuition", Amount: 5000, Frequency: fee.Monthly, DueDay: 1, ClassIDs: classIDs})
	require.NoError(t, err)
	return ft
}

func createRecord(t *testing.T, svc *fee.Service, studentID, typeID, due string) fee.Record {
	t.Helper()
	r, err := svc.CreateRecord(context.Background(), fee.NewRecord{StudentID: studentID, TypeID: typeID, Amount: 5000, DueDate: due})
	require.NoError(t, err)
	return r
}

func TestService_statusAgreesAcrossViews(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp()
	class := testutil.CreateClass(t, app.AcademicSvc, "Class 1")
	student := testutil.AdmitStudent(t, app.AcademicSvc, class.ID, "r001", "Zawadi Kamau")
	ft := createType(t, app.FeeSvc, class.ID)

	eat := time.FixedZone("EAT", 3*60*60)
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		// 2021-03-01 22:00 UTC: still the due date
		{name: "ahead of UTC, due today in UTC", now: time.Date(2021, time.March, 2, 1, 0, 0, 0, eat), want: fee.StatusPending},
		{name: "ahead of UTC, past due in UTC", now: time.Date(2021, time.March, 2, 4, 0, 0, 0, eat), want: fee.StatusOverdue},
		{name: "UTC", now: time.Date(2021, time.March, 1, 23, 59, 0, 0, time.UTC), want: fee.StatusPending},
	}

	mockNow(t, time.Date(2021, time.February, 20, 0, 0, 0, 0, time.UTC))
	rec := createRecord(t, app.FeeSvc, student.ID, ft.ID, "2021-03-01")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockNow(t, tt.now)

			got, err := app.FeeSvc.GetRecord(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)

			records, err := app.FeeSvc.QueryRecords(ctx, fee.RecordFilter{StudentID: student.ID})
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tt.want, records[0].Status)

			summary, err := app.FeeSvc.Summary(ctx, fee.RecordFilter{StudentID: student.ID})
			require.NoError(t, err)
			account, err := app.FeeSvc.StudentFees(ctx, student.ID)
			require.NoError(t, err)
			for _, s := range []fee.Summary{summary, account.Summary} {
				if tt.want == fee.StatusOverdue {
					assert.Equal(t, 1, s.OverdueCount)
					assert.Equal(t, 0, s.PendingCount)
				} else {
					assert.Equal(t, 0, s.OverdueCount)
					assert.Equal(t, 1, s.PendingCount)
				}
			}
		})
	}
}

func TestService_RemindOverdue(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp()
	class := testutil.CreateClass(t, app.AcademicSvc, "Class 1")
	ft := createType(t, app.FeeSvc, class.ID)

	withGuardian, err := app.AcademicSvc.AdmitStudent(ctx, academic.NewStudent{
		RollNumber: "r001", Name: "Zawadi Kamau", ClassID: class.ID,
		GuardianName: "Mama Zawadi", GuardianEmail: "mama.zawadi@test.cd",
	})
	require.NoError(t, err)
	usr := testutil.CreateUser(t, app.UserSvc, "Amani Mwangi", "amani", user.RoleStudent, true)
	withAccount := testutil.AdmitStudent(t, app.AcademicSvc, class.ID, "r002", "Amani Mwangi", usr.ID)
	unreachable := testutil.AdmitStudent(t, app.AcademicSvc, class.ID, "r003", "Baraka Otieno")

	mockNow(t, time.Date(2021, time.February, 20, 0, 0, 0, 0, time.UTC))
	for _, s := range []academic.Student{withGuardian, withAccount, unreachable} {
		createRecord(t, app.FeeSvc, s.ID, ft.ID, "2021-03-01")
	}

	mockNow(t, time.Date(2021, time.March, 10, 8, 0, 0, 0, time.UTC))
	n, err := app.FeeSvc.RemindOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var to []string
	for _, msg := range app.Mail.Sent() {
		for _, addr := range msg.To {
			to = append(to, addr.Address)
		}
	}
	assert.ElementsMatch(t, []string{"mama.zawadi@test.cd", usr.Email}, to)
}

// countingCache counts the invalidations of the fee summaries.
type countingCache struct {
	cachesvc.NoopCache
	invalidated int
}

func (c *countingCache) Invalidate(context.Context, string) error {
	c.invalidated++
	return nil
}

func TestService_invalidatesCache(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp()
	cache := new(countingCache)
	svc := fee.NewService(inmem.NewFeeRepository(app.DB), app.AcademicSvc, app.UserSvc, cache, app.Mail, app.Logger, app.Conf.Records)

	ft := createType(t, svc)
	before := cache.invalidated
	_, err := svc.UpdateType(ctx, ft, fee.TypeInput{Name: "Tuition", Amount: 6000, Frequency: fee.Monthly, DueDay: 5})
	require.NoError(t, err)
	assert.Equal(t, before+1, cache.invalidated)
}

func TestNewVoucher_Validate(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp()

	nv := fee.NewVoucher{Number: "V0001", Type: "Receipt", Amount: 1200, Date: "2021-03-02"}
	require.NoError(t, nv.Validate(ctx, app.Validate, app.FeeSvc))
	_, err := app.FeeSvc.CreateVoucher(ctx, nv)
	require.NoError(t, err)

	dup := fee.NewVoucher{Number: "v0001", Type: "payment", Amount: 10, Date: "2021-03-03"}
	err = dup.Validate(ctx, app.Validate, app.FeeSvc)
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "number", verr.Fields[0].Field)
	assert.Equal(t, fee.ErrVoucherExists.Error(), verr.Fields[0].Error)
}
