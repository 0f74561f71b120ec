package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/tests"
)

func Test_academicAPI_students(t *testing.T) {
	ts := newTestServer(t)
	admin := testutil.CreateUser(t, ts.UserSvc, "Admin", "admin01", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, ts.UserSvc, "Teacher", "teacher01", user.RoleTeacher, true)
	student := testutil.CreateUser(t, ts.UserSvc, "Hero", "hero01", user.RoleStudent, true)
	adminToken := ts.token(t, admin.Session(""))
	teacherToken := ts.token(t, teacher.Session(""))

	class := testutil.CreateClass(t, ts.AcademicSvc, "Class 1")
	testutil.AdmitStudent(t, ts.AcademicSvc, class.ID, "r001", "Zawadi Kamau")

	ts.run(t, []httpTest{
		{name: "auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{
			name: "students cannot list students", path: "/v1/students", token: ts.token(t, student.Session("")),
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "permission denied"},
		},
		{
			name: "teachers cannot admit", method: http.MethodPost, path: "/v1/students", token: teacherToken,
			body: academic.NewStudent{RollNumber: "r002", Name: "Amani", ClassID: class.ID},
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "permission denied"},
		},
		{
			name: "required fields", method: http.MethodPost, path: "/v1/students", token: adminToken,
			body:     academic.NewStudent{},
			wantCode: http.StatusBadRequest,
			wantData: map[string]string{
				"roll_number": "this field is required",
				"name":        "this field is required",
				"class_id":    "this field is required",
			},
		},
		{
			name: "duplicate roll number (case insensitive)", method: http.MethodPost, path: "/v1/students", token: adminToken,
			body:     academic.NewStudent{RollNumber: "R001", Name: "Amani", ClassID: class.ID},
			wantCode: http.StatusBadRequest,
			wantData: map[string]string{"roll_number": academic.ErrRollNumberExists.Error()},
		},
		{
			name: "unknown class", method: http.MethodPost, path: "/v1/students", token: adminToken,
			body:     academic.NewStudent{RollNumber: "r009", Name: "Amani", ClassID: "nope"},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "negative discount", method: http.MethodPost, path: "/v1/students", token: adminToken,
			body:     academic.NewStudent{RollNumber: "r010", Name: "Amani", ClassID: class.ID, FeeDiscount: -1},
			wantCode: http.StatusBadRequest,
		},
		{name: "not found", path: "/v1/students/nope", token: teacherToken, wantCode: http.StatusNotFound},
	})

	rec := ts.do(t, http.MethodPost, "/v1/students", adminToken, academic.NewStudent{
		RollNumber:    " R002 ",
		Name:          "  Amani Mwangi ",
		ClassID:       class.ID,
		AdmissionDate: "2021-01-11",
		Gender:        "Female",
		FeeDiscount:   250,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created academic.Student
	decode(t, rec, &created)
	assert.Equal(t, "r002", created.RollNumber)
	assert.Equal(t, "Amani Mwangi", created.Name)
	assert.Equal(t, "female", created.Gender)
	assert.Equal(t, academic.StudentActive, created.Status)
	assert.Equal(t, "2021-01-11", created.AdmissionDate.Format("2006-01-02"))

	t.Run("query ordered by name", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/students?ordering=name", teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var students []academic.Student
		decode(t, rec, &students)
		require.Len(t, students, 2)
		assert.Equal(t, "Amani Mwangi", students[0].Name)
		assert.Equal(t, "Zawadi Kamau", students[1].Name)
	})

	t.Run("update", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/v1/students/"+created.ID, adminToken, academic.UpdateStudent{GuardianName: "Baraka"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated academic.Student
		decode(t, rec, &updated)
		assert.Equal(t, "Baraka", updated.GuardianName)
		assert.Equal(t, "Amani Mwangi", updated.Name)
		assert.Equal(t, 250.0, updated.FeeDiscount)
	})

	t.Run("status lifecycle", func(t *testing.T) {
		rec := ts.do(t, http.MethodPatch, "/v1/students/"+created.ID+"/status", adminToken, academic.StudentStatusUpdate{Status: "expelled"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ts.do(t, http.MethodPatch, "/v1/students/"+created.ID+"/status", adminToken, academic.StudentStatusUpdate{Status: "Graduated"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = ts.do(t, http.MethodGet, "/v1/students?status=active", teacherToken, nil)
		var active []academic.Student
		decode(t, rec, &active)
		require.Len(t, active, 1)
		assert.Equal(t, "Zawadi Kamau", active[0].Name)

		rec = ts.do(t, http.MethodGet, "/v1/students?status=graduated,transferred", teacherToken, nil)
		var gone []academic.Student
		decode(t, rec, &gone)
		require.Len(t, gone, 1)
		assert.Equal(t, created.ID, gone[0].ID)
	})
}

func Test_academicAPI_catalog(t *testing.T) {
	ts := newTestServer(t)
	admin := testutil.CreateUser(t, ts.UserSvc, "Admin", "admin01", user.RoleAdmin, true)
	adminToken := ts.token(t, admin.Session(""))

	rec := ts.do(t, http.MethodPost, "/v1/classes", adminToken, academic.ClassInput{Name: "Class 2", Section: "B"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var class academic.Class
	decode(t, rec, &class)

	rec = ts.do(t, http.MethodPost, "/v1/books", adminToken, academic.BookInput{Name: "Mathematics", TotalMarks: 100, ClassIDs: []string{class.ID}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/v1/books?class_id="+class.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var books []academic.Book
	decode(t, rec, &books)
	require.Len(t, books, 1)
	assert.Equal(t, "Mathematics", books[0].Name)

	ts.run(t, []httpTest{
		{
			name: "book total marks required", method: http.MethodPost, path: "/v1/books", token: adminToken,
			body: academic.BookInput{Name: "Art"}, wantCode: http.StatusBadRequest,
			wantData: map[string]string{"total_marks": "this field is required"},
		},
		{
			name: "employee id shared by teachers and staff", method: http.MethodPost, path: "/v1/staff", token: adminToken,
			body: academic.StaffInput{EmployeeID: "emp001", Name: "Clerk", Designation: "Clerk"}, wantCode: http.StatusCreated,
		},
		{
			name: "employee id taken", method: http.MethodPost, path: "/v1/teachers", token: adminToken,
			body: academic.TeacherInput{EmployeeID: "EMP001", Name: "Teacher"}, wantCode: http.StatusBadRequest,
			wantData: map[string]string{"employee_id": academic.ErrEmployeeIDExists.Error()},
		},
		{
			name: "event type", method: http.MethodPost, path: "/v1/events", token: adminToken,
			body: academic.EventInput{Title: "Party", Date: "2021-03-01", Type: "rave"}, wantCode: http.StatusBadRequest,
		},
		{
			name: "term ends before it starts", method: http.MethodPost, path: "/v1/terms", token: adminToken,
			body: academic.TermInput{AcademicYearID: "y", Name: "Term 1", Start: "2021-03-01", End: "2021-01-01"}, wantCode: http.StatusBadRequest,
		},
	})
}
