package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/tests"
)

func Test_meAPI(t *testing.T) {
	ts := newTestServer(t)
	admin := testutil.CreateUser(t, ts.UserSvc, "Admin", "admin01", user.RoleAdmin, true)
	adminToken := ts.token(t, admin.Session(""))
	hero := testutil.CreateUser(t, ts.UserSvc, "Hero", "hero01", user.RoleStudent, true)

	class := testutil.CreateClass(t, ts.AcademicSvc, "Class 1")
	student := testutil.AdmitStudent(t, ts.AcademicSvc, class.ID, "r001", "Hero Kamau", hero.ID)

	// the login links the student profile to the token
	rec := ts.do(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Username: "hero01", Password: testutil.Password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login LoginResponse
	decode(t, rec, &login)
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(login.Token, claims, func(*jwt.Token) (interface{}, error) { return ts.auth.key, nil })
	require.NoError(t, err)
	require.Equal(t, student.ID, claims.ProfileID)
	heroToken := login.Token

	ts.run(t, []httpTest{
		{name: "auth required", path: "/v1/me", wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{name: "fees auth required", path: "/v1/me/fees", wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{
			name: "admin profile", path: "/v1/me", token: adminToken,
			wantData: MeResponse{ID: admin.ID, Username: "admin01", Email: "admin01@test.cd", Name: "Admin", Role: user.RoleAdmin},
		},
		{
			name: "students only", path: "/v1/me/fees", token: adminToken,
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "permission denied"},
		},
		{
			name: "student without profile", path: "/v1/me/attendance", token: ts.token(t, hero.Session("")),
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "permission denied"},
		},
	})

	t.Run("profile", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/me", heroToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var me MeResponse
		decode(t, rec, &me)
		assert.Equal(t, hero.ID, me.ID)
		if assert.NotNil(t, me.Student) {
			assert.Equal(t, student.ID, me.Student.ID)
			assert.Equal(t, "r001", me.Student.RollNumber)
		}
	})

	t.Run("attendance", func(t *testing.T) {
		_, err := ts.AttendanceSvc.Mark(context.Background(), admin.Session(""), attendance.MarkRequest{
			ClassID: class.ID, Date: "2021-03-01",
			Entries: []attendance.MarkEntry{{StudentID: student.ID, Status: attendance.StatusPresent}},
		})
		require.NoError(t, err)

		rec := ts.do(t, http.MethodGet, "/v1/me/attendance?from=2021-03-01&to=2021-03-31", heroToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var rep attendance.StudentReport
		decode(t, rec, &rep)
		assert.Len(t, rep.Records, 1)
		assert.Equal(t, 1, rep.Summary.Present)
		assert.Equal(t, 100, rep.Summary.Percentage)
	})

	t.Run("fees", func(t *testing.T) {
		ft, err := ts.FeeSvc.CreateType(context.Background(), fee.TypeInput{Name: "Tuition", Amount: 5000, Frequency: fee.Monthly})
		require.NoError(t, err)
		_, err = ts.FeeSvc.CreateRecord(context.Background(), fee.NewRecord{StudentID: student.ID, TypeID: ft.ID, Amount: 5000, DueDate: "2021-03-10"})
		require.NoError(t, err)

		rec := ts.do(t, http.MethodGet, "/v1/me/fees", heroToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var fees fee.StudentFees
		decode(t, rec, &fees)
		assert.Len(t, fees.Records, 1)
		assert.Equal(t, 5000.0, fees.Summary.Total)
	})

	t.Run("results", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/me/results", heroToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}
