package echoapi

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/tests"
)

func Test_reportAPI(t *testing.T) {
	ts := newTestServer(t)
	admin := testutil.CreateUser(t, ts.UserSvc, "Admin", "admin01", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, ts.UserSvc, "Teacher", "teacher01", user.RoleTeacher, true)
	student := testutil.CreateUser(t, ts.UserSvc, "Hero", "hero01", user.RoleStudent, true)
	adminToken := ts.token(t, admin.Session(""))
	teacherToken := ts.token(t, teacher.Session(""))

	class := testutil.CreateClass(t, ts.AcademicSvc, "Class 1")
	s1 := testutil.AdmitStudent(t, ts.AcademicSvc, class.ID, "r001", "Zawadi Kamau")
	rec := ts.do(t, http.MethodPost, "/v1/attendance", teacherToken, attendance.MarkRequest{
		ClassID: class.ID, Date: "2021-03-01",
		Entries: []attendance.MarkEntry{{StudentID: s1.ID, Status: attendance.StatusPresent}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	ts.run(t, []httpTest{
		{name: "auth required", path: "/v1/reports/attendance", wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{
			name: "staff only", path: "/v1/reports/attendance", token: ts.token(t, student.Session("")),
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "permission denied"},
		},
		{
			name: "financial reports are for admins", path: "/v1/reports/fees", token: teacherToken,
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "permission denied"},
		},
		{name: "unknown kind", path: "/v1/reports/gossip", token: adminToken, wantCode: http.StatusNotFound},
		{name: "unknown format", path: "/v1/reports/attendance?format=docx", token: adminToken, wantCode: http.StatusBadRequest},
		{name: "bad date", path: "/v1/reports/attendance?from=march", token: adminToken, wantCode: http.StatusBadRequest},
	})

	t.Run("csv", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/reports/attendance?format=csv&from=2021-03-01&to=2021-03-31", teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="attendance.csv"`, rec.Header().Get("Content-Disposition"))

		rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
		require.NoError(t, err)
		assert.NotEmpty(t, rows)
		assert.Contains(t, rec.Body.String(), "Class 1")
	})

	t.Run("json", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/reports/fees", adminToken, nil) // json by default
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, `attachment; filename="fees.json"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("pdf", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/reports/attendance?format=pdf", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
	})
}
