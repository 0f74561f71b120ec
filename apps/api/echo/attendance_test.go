package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/tests"
)

func Test_attendanceAPI(t *testing.T) {
	ts := newTestServer(t)
	teacher := testutil.CreateUser(t, ts.UserSvc, "Teacher", "teacher01", user.RoleTeacher, true)
	student := testutil.CreateUser(t, ts.UserSvc, "Hero", "hero01", user.RoleStudent, true)
	teacherToken := ts.token(t, teacher.Session(""))

	class := testutil.CreateClass(t, ts.AcademicSvc, "Class 1")
	other := testutil.CreateClass(t, ts.AcademicSvc, "Class 2")
	s1 := testutil.AdmitStudent(t, ts.AcademicSvc, class.ID, "r001", "Zawadi Kamau")
	s2 := testutil.AdmitStudent(t, ts.AcademicSvc, class.ID, "r002", "Amani Mwangi")
	s3 := testutil.AdmitStudent(t, ts.AcademicSvc, other.ID, "r003", "Baraka Otieno")

	ts.run(t, []httpTest{
		{name: "auth required", path: "/v1/attendance/summary", wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{
			name: "staff only", path: "/v1/attendance/summary", token: ts.token(t, student.Session("")),
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "permission denied"},
		},
		{
			name: "entries required", method: http.MethodPost, path: "/v1/attendance", token: teacherToken,
			body:     attendance.MarkRequest{ClassID: class.ID, Date: "2021-03-01"},
			wantCode: http.StatusBadRequest,
			wantData: map[string]string{"entries": "this field is required"},
		},
		{
			name: "student not in class", method: http.MethodPost, path: "/v1/attendance", token: teacherToken,
			body: attendance.MarkRequest{ClassID: class.ID, Date: "2021-03-01", Entries: []attendance.MarkEntry{
				{StudentID: s3.ID, Status: attendance.StatusPresent},
			}},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown status", method: http.MethodPost, path: "/v1/attendance", token: teacherToken,
			body: attendance.MarkRequest{ClassID: class.ID, Date: "2021-03-01", Entries: []attendance.MarkEntry{
				{StudentID: s1.ID, Status: "asleep"},
			}},
			wantCode: http.StatusBadRequest,
		},
		{name: "bad period", path: "/v1/attendance/summary?from=yesterday", token: teacherToken, wantCode: http.StatusBadRequest},
	})

	rec := ts.do(t, http.MethodPost, "/v1/attendance", teacherToken, attendance.MarkRequest{
		ClassID: class.ID,
		Date:    "2021-03-01",
		Entries: []attendance.MarkEntry{
			{StudentID: s1.ID, Status: "Present"},
			{StudentID: s2.ID, Status: attendance.StatusAbsent, Remarks: "sick"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var records []attendance.Record
	decode(t, rec, &records)
	require.Len(t, records, 2)
	assert.Equal(t, teacher.ID, records[0].MarkedBy)

	t.Run("summary", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/attendance/summary?from=2021-03-01&to=2021-03-31", teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var summary attendance.Summary
		decode(t, rec, &summary)
		assert.Equal(t, 1, summary.Counts.Present)
		assert.Equal(t, 1, summary.Counts.Absent)
		assert.Equal(t, 2, summary.Counts.Total)
		assert.Equal(t, 50, summary.Counts.Percentage)
	})

	t.Run("re-marking updates the record", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/attendance", teacherToken, attendance.MarkRequest{
			ClassID: class.ID,
			Date:    "2021-03-01",
			Entries: []attendance.MarkEntry{{StudentID: s2.ID, Status: attendance.StatusLate}},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = ts.do(t, http.MethodGet, "/v1/attendance?student_id="+s2.ID, teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var recs []attendance.Record
		decode(t, rec, &recs)
		require.Len(t, recs, 1)
		assert.Equal(t, attendance.StatusLate, recs[0].Status)
	})
}
