package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/tests"
)

func Test_feeAPI(t *testing.T) {
	ts := newTestServer(t)
	admin := testutil.CreateUser(t, ts.UserSvc, "Admin", "admin01", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, ts.UserSvc, "Teacher", "teacher01", user.RoleTeacher, true)
	adminToken := ts.token(t, admin.Session(""))

	class := testutil.CreateClass(t, ts.AcademicSvc, "Class 1")
	student := testutil.AdmitStudent(t, ts.AcademicSvc, class.ID, "r001", "Zawadi Kamau")

	ts.run(t, []httpTest{
		{name: "auth required", path: "/v1/fees/types", wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{
			name: "admin only", path: "/v1/fees/types", token: ts.token(t, teacher.Session("")),
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "permission denied"},
		},
		{
			name: "unknown frequency", method: http.MethodPost, path: "/v1/fees/types", token: adminToken,
			body: fee.TypeInput{Name: "Tuition", Amount: 5000, Frequency: "weekly"}, wantCode: http.StatusBadRequest,
		},
	})

	rec := ts.do(t, http.MethodPost, "/v1/fees/types", adminToken, fee.TypeInput{Name: "Tuition", Amount: 5000, Frequency: "Monthly", DueDay: 10})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ft fee.Type
	decode(t, rec, &ft)
	assert.Equal(t, fee.Monthly, ft.Frequency)

	rec = ts.do(t, http.MethodPost, "/v1/fees/records", adminToken, fee.NewRecord{
		StudentID: student.ID, TypeID: ft.ID, Amount: 5000, DueDate: "2021-03-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var record fee.Record
	decode(t, rec, &record)
	assert.Equal(t, "2021-03", record.Period)
	assert.Nil(t, record.PaymentDate)

	ts.run(t, []httpTest{
		{
			name: "unknown fee type", method: http.MethodPost, path: "/v1/fees/records", token: adminToken,
			body:     fee.NewRecord{StudentID: student.ID, TypeID: "nope", Amount: 10, DueDate: "2021-03-10"},
			wantCode: http.StatusBadRequest,
			wantData: map[string]string{"fee_type_id": "unknown fee type"},
		},
		{
			name: "unknown payment method", method: http.MethodPost, path: "/v1/fees/records/" + record.ID + "/pay", token: adminToken,
			body: fee.PaymentRequest{Method: "gold"}, wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown record", method: http.MethodPost, path: "/v1/fees/records/nope/pay", token: adminToken,
			body: fee.PaymentRequest{Method: "cash"}, wantCode: http.StatusNotFound,
		},
	})

	t.Run("pay", func(t *testing.T) {
		path := "/v1/fees/records/" + record.ID + "/pay"
		rec := ts.do(t, http.MethodPost, path, adminToken, fee.PaymentRequest{Method: "Cash", PaymentDate: "2021-03-05"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var paid fee.Record
		decode(t, rec, &paid)
		assert.Equal(t, fee.StatusPaid, paid.Status)
		assert.Equal(t, "cash", paid.PaymentMethod)
		assert.Regexp(t, `^RCP-20210305-[0-9A-F]{8}$`, paid.ReceiptNumber)

		rec = ts.do(t, http.MethodPost, path, adminToken, fee.PaymentRequest{Method: "cash"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "fee record is already paid"}`, rec.Body.String())
	})

	t.Run("summary", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/fees/summary?student_id="+student.ID, adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var summary fee.Summary
		decode(t, rec, &summary)
		assert.Equal(t, 1, summary.Records)
		assert.Equal(t, 5000.0, summary.Total)
		assert.Equal(t, 5000.0, summary.Paid)
		assert.Equal(t, 0.0, summary.Pending)
	})

	t.Run("records by status", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/fees/records?status=pending,overdue", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var records []fee.Record
		decode(t, rec, &records)
		assert.Empty(t, records)
	})

	t.Run("vouchers", func(t *testing.T) {
		nv := fee.NewVoucher{Number: "V0001", Type: "Receipt", Amount: 1200, Date: "2021-03-02"}
		rec := ts.do(t, http.MethodPost, "/v1/vouchers", adminToken, nv)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = ts.do(t, http.MethodPost, "/v1/vouchers", adminToken, nv)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ts.do(t, http.MethodGet, "/v1/vouchers/summary", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var summary fee.VoucherSummary
		decode(t, rec, &summary)
		assert.Equal(t, 1200.0, summary.Receipt)
		assert.Equal(t, 1, summary.Count)
	})
}
