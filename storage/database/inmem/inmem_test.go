package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/timetable"
	"github.com/trezcool/shule/core/user"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(Open())

	ann, err := repo.CreateUser(ctx, user.User{Name: "Ann", Username: "ann", Email: "Ann@school.test", Role: user.RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, ann.ID)
	_, err = repo.CreateUser(ctx, user.User{Name: "bob", Username: "bob", Role: user.RoleTeacher})
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		email    string
		excluded []user.User
		wantErr  error
	}{
		{name: "free", username: "cal", email: "cal@school.test"},
		{name: "username taken", username: "ann", wantErr: user.ErrUsernameExists},
		{name: "email taken, any case", username: "ann2", email: "ann@SCHOOL.test", wantErr: user.ErrEmailExists},
		{name: "own username", username: "ann", email: "ann@school.test", excluded: []user.User{ann}},
		{name: "empty email never clashes", username: "dan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.CheckUsernameUniqueness(ctx, tt.username, tt.email, tt.excluded...)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	got, err := repo.GetUserByUsernameOrEmail(ctx, "ann@school.test")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, got.ID)

	users, err := repo.FilterUsers(ctx, user.QueryFilter{}, core.ParseOrdering("-name")...)
	require.NoError(t, err)
	if assert.Len(t, users, 2) {
		assert.Equal(t, "bob", users[0].Username)
	}

	users, err = repo.FilterUsers(ctx, user.QueryFilter{Roles: []string{user.RoleTeacher}})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, repo.DeleteUsersByID(ctx, ann.ID))
	_, err = repo.GetUserByID(ctx, ann.ID)
	assert.Equal(t, user.ErrNotFound, err)
}

func TestAcademicRepository_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewAcademicRepository(Open())

	teacher, err := repo.CreateTeacher(ctx, academic.Teacher{EmployeeID: "EMP1", Name: "Tia"})
	require.NoError(t, err)
	_, err = repo.CreateStaff(ctx, academic.Staff{EmployeeID: "EMP2", Name: "Sam"})
	require.NoError(t, err)

	assert.Equal(t, academic.ErrEmployeeIDExists, repo.CheckEmployeeIDUniqueness(ctx, "emp1", ""))
	assert.Equal(t, academic.ErrEmployeeIDExists, repo.CheckEmployeeIDUniqueness(ctx, "EMP2", teacher.ID))
	assert.NoError(t, repo.CheckEmployeeIDUniqueness(ctx, "EMP1", teacher.ID))
	assert.NoError(t, repo.CheckEmployeeIDUniqueness(ctx, "EMP3", ""))

	_, err = repo.CreateStudent(ctx, academic.Student{RollNumber: "R001", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, academic.ErrRollNumberExists, repo.CheckRollNumberUniqueness(ctx, "r001"))
}

func TestAcademicRepository_Books(t *testing.T) {
	ctx := context.Background()
	repo := NewAcademicRepository(Open())

	ids := []string{"c1"}
	book, err := repo.CreateBook(ctx, academic.Book{Name: "Maths", TotalMarks: 100, ClassIDs: ids})
	require.NoError(t, err)
	_, err = repo.CreateBook(ctx, academic.Book{Name: "Art", TotalMarks: 50})
	require.NoError(t, err)
	ids[0] = "changed"

	books, err := repo.QueryBooks(ctx, "c1")
	require.NoError(t, err)
	if assert.Len(t, books, 1) {
		assert.Equal(t, book.ID, books[0].ID)
	}

	books, err = repo.QueryBooks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestAttendanceRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewAttendanceRepository(Open())
	day := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)
	created := day.Add(8 * time.Hour)

	first, err := repo.UpsertRecords(ctx, attendance.Record{
		StudentID: "s1", ClassID: "c1", Date: day, Status: attendance.StatusAbsent, CreatedAt: created,
	})
	require.NoError(t, err)

	second, err := repo.UpsertRecords(ctx,
		attendance.Record{StudentID: "s1", ClassID: "c1", Date: day.Add(10 * time.Hour), Status: attendance.StatusLate, CreatedAt: created.Add(time.Hour)},
		attendance.Record{StudentID: "s2", ClassID: "c1", Date: day, Status: attendance.StatusPresent},
	)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, created, second[0].CreatedAt)

	records, err := repo.FilterRecords(ctx, attendance.Filter{ClassID: "c1", Period: core.DateRange{From: day, To: day}})
	require.NoError(t, err)
	if assert.Len(t, records, 2) {
		assert.Equal(t, attendance.StatusLate, records[0].Status)
		assert.Equal(t, day, records[0].Date)
	}

	records, err = repo.FilterRecords(ctx, attendance.Filter{Period: core.DateRange{From: day.AddDate(0, 0, 1)}})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTimetableRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTimetableRepository(Open())
	from := time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC)

	tt, err := repo.CreateTimetable(ctx, timetable.Timetable{
		ClassID:   "c1",
		ValidFrom: from,
		ValidTo:   from.AddDate(0, 3, 0),
		Slots:     []timetable.Slot{{Day: time.Monday, Period: 1, Start: 480, End: 520}},
	})
	require.NoError(t, err)
	assert.Equal(t, tt.ID, tt.Slots[0].TimetableID)
	assert.Equal(t, "c1", tt.Slots[0].ClassID)

	active, err := repo.FilterTimetables(ctx, timetable.Filter{ActiveOn: from.AddDate(0, 1, 0)})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	active, err = repo.FilterTimetables(ctx, timetable.Filter{ActiveOn: from.AddDate(1, 0, 0)})
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = repo.GetTimetableByID(ctx, "missing")
	assert.Equal(t, timetable.ErrNotFound, err)
}
