package seed_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/seed"
	"github.com/trezcool/shule/tests"
)

var today = time.Date(2021, time.March, 17, 0, 0, 0, 0, time.UTC) // a wednesday

func TestLoad(t *testing.T) {
	app := testutil.NewApp()
	ctx := context.Background()

	seeded, err := seed.IsSeeded(ctx, app.UserSvc)
	require.NoError(t, err)
	assert.False(t, seeded)

	sum := app.Seed(t, seed.Options{Seed: 42, Classes: 2, StudentsPerClass: 3, Today: today})

	assert.Equal(t, 5, sum.Users) // admin, 2 teachers, 2 students
	assert.Equal(t, 2, sum.Classes)
	assert.Equal(t, 8, sum.Books)
	assert.Equal(t, 2, sum.Teachers)
	assert.Equal(t, 2, sum.Staff)
	assert.Equal(t, 6, sum.Students)
	assert.Equal(t, 20*6, sum.Attendance) // 20 weekdays in the 4 weeks before today
	assert.Equal(t, 2*4*3, sum.Marks)
	assert.Equal(t, 4, sum.Vouchers)
	assert.Equal(t, 3, sum.Events)
	assert.Equal(t, 2, sum.Timetables)
	assert.Greater(t, sum.FeeRecords, 0)
	assert.LessOrEqual(t, sum.Payments, sum.FeeRecords)

	seeded, err = seed.IsSeeded(ctx, app.UserSvc)
	require.NoError(t, err)
	assert.True(t, seeded)

	for _, uname := range seed.Usernames(seed.Options{Classes: 2, StudentsPerClass: 3}) {
		usr, err := app.UserSvc.GetByUsernameOrEmail(ctx, uname)
		if assert.NoError(t, err, uname) {
			assert.NoError(t, usr.CheckPassword(testutil.Password), uname)
		}
	}

	report, err := app.TimetableSvc.Conflicts(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, report.Conflicts)
}

func TestLoad_deterministic(t *testing.T) {
	opts := seed.Options{Seed: 7, Classes: 1, StudentsPerClass: 4, Today: today}
	students := func() []academic.Student {
		app := testutil.NewApp()
		app.Seed(t, opts)
		ss, err := app.AcademicSvc.QueryStudents(context.Background(), academic.StudentFilter{})
		require.NoError(t, err)
		return ss
	}

	first, second := students(), students()
	require.Len(t, first, 4)
	require.Len(t, second, 4)
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].RollNumber, second[i].RollNumber)
		assert.Equal(t, first[i].FeeDiscount, second[i].FeeDiscount)
		assert.Equal(t, first[i].DateOfBirth, second[i].DateOfBirth)
	}
}

func TestSummary_String(t *testing.T) {
	sum := seed.Summary{Users: 1, Classes: 2, Students: 3, FeeRecords: 4, Payments: 2}
	assert.Equal(t,
		"users: 1, classes: 2, books: 0, teachers: 0, staff: 0, students: 3, attendance: 0, "+
			"fee records: 4 (paid 2), marks: 0, vouchers: 0, events: 0, timetables: 0",
		sum.String(),
	)
}
