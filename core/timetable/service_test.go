package timetable_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/timetable"
	"github.com/trezcool/shule/tests"
)

func mondaySlot(teacherID string) []timetable.SlotInput {
	return []timetable.SlotInput{{Day: "monday", Period: 1, Start: "08:00", End: "08:40", TeacherID: teacherID}}
}

func TestService_Create_ignoresSupersededTimetables(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp()
	classA := testutil.CreateClass(t, app.AcademicSvc, "Class 1")
	classB := testutil.CreateClass(t, app.AcademicSvc, "Class 2")

	// class B: t1 teaches until February, then t2 takes over
	_, _, err := app.TimetableSvc.Create(ctx, timetable.NewTimetable{ClassID: classB.ID, ValidFrom: "2021-01-01", Slots: mondaySlot("t1")}, false)
	require.NoError(t, err)
	_, _, err = app.TimetableSvc.Create(ctx, timetable.NewTimetable{ClassID: classB.ID, ValidFrom: "2021-02-01", Slots: mondaySlot("t2")}, false)
	require.NoError(t, err)

	report, err := app.TimetableSvc.Conflicts(ctx, time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, report.HasConflicts())

	tests := []struct {
		name         string
		nt           timetable.NewTimetable
		wantConflict bool
	}{
		{
			name: "teacher of the superseded timetable",
			nt:   timetable.NewTimetable{ClassID: classA.ID, ValidFrom: "2021-03-01", Slots: mondaySlot("t1")},
		},
		{
			name:         "teacher of the superseded timetable while it was in force",
			nt:           timetable.NewTimetable{ClassID: classA.ID, ValidFrom: "2021-01-04", ValidTo: "2021-01-29", Slots: mondaySlot("t1")},
			wantConflict: true,
		},
		{
			name:         "teacher of the current timetable",
			nt:           timetable.NewTimetable{ClassID: classA.ID, ValidFrom: "2021-03-01", Slots: mondaySlot("t2")},
			wantConflict: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, report, err := app.TimetableSvc.Create(ctx, tt.nt, false)
			if !tt.wantConflict {
				require.NoError(t, err)
				assert.False(t, report.HasConflicts())
				return
			}
			var cerr *timetable.ConflictError
			require.True(t, errors.As(err, &cerr), "got %v", err)
			require.Len(t, cerr.Report.Conflicts, 1)
			assert.Equal(t, timetable.TeacherOverlap, cerr.Report.Conflicts[0].Kind)
		})
	}
}
