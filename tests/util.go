package testutil

import (
	"context"
	"io"
	"log"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/result"
	"github.com/trezcool/shule/core/timetable"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/seed"
	cachesvc "github.com/trezcool/shule/services/cache"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	rendersvc "github.com/trezcool/shule/services/render"
	inmem "github.com/trezcool/shule/storage/database/inmem"
)

const Password = "Sh0le-Pa55word"

// App holds every service, wired on a fresh in-memory store.
type App struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Mail       *emailsvc.ConsoleService
	DB         *inmem.DB

	UserSvc       *user.Service
	AcademicSvc   *academic.Service
	AttendanceSvc *attendance.Service
	FeeSvc        *fee.Service
	ResultSvc     *result.Service
	TimetableSvc  *timetable.Service
	ReportSvc     *report.Service
}

// NewConfig returns the configuration used by tests.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Debug = false
	conf.RollbarToken = ""
	conf.Scheduler.Enabled = false
	return conf
}

func NewApp() *App {
	conf := NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)
	academic.RegisterValidators(validate, translator)
	attendance.RegisterValidators(validate, translator)
	fee.RegisterValidators(validate, translator)
	timetable.RegisterValidators(validate, translator)

	db := inmem.Open()
	mail := emailsvc.NewConsoleServiceMock(conf)
	cache := cachesvc.NoopCache{}

	app := &App{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Mail:       mail,
		DB:         db,
	}
	app.UserSvc = user.NewService(inmem.NewUserRepository(db), mail)
	app.AcademicSvc = academic.NewService(inmem.NewAcademicRepository(db), conf.Records)
	app.AttendanceSvc = attendance.NewService(inmem.NewAttendanceRepository(db), app.AcademicSvc, cache, logger)
	app.FeeSvc = fee.NewService(inmem.NewFeeRepository(db), app.AcademicSvc, app.UserSvc, cache, mail, logger, conf.Records)
	app.ResultSvc = result.NewService(inmem.NewResultRepository(db), app.AcademicSvc, logger)
	app.TimetableSvc = timetable.NewService(inmem.NewTimetableRepository(db), app.AcademicSvc)
	app.ReportSvc = report.NewService(app.AcademicSvc, app.AttendanceSvc, app.FeeSvc, app.ResultSvc, app.TimetableSvc, conf.Records)
	app.FeeSvc.AttachStatements(app.ReportSvc.Statements(rendersvc.PDF{}))
	return app
}

func (app *App) SeedServices() seed.Services {
	return seed.Services{
		Users:      app.UserSvc,
		Academic:   app.AcademicSvc,
		Attendance: app.AttendanceSvc,
		Fees:       app.FeeSvc,
		Results:    app.ResultSvc,
		Timetables: app.TimetableSvc,
	}
}

// Seed loads the default fixtures.
func (app *App) Seed(t *testing.T, opts seed.Options) seed.Summary {
	t.Helper()
	if opts.Password == "" {
		opts.Password = Password
	}
	sum, err := seed.Load(context.Background(), app.SeedServices(), opts)
	if err != nil {
		t.Fatalf("seed.Load() failed: %v", err)
	}
	return sum
}

func CreateUser(t *testing.T, svc *user.Service, name, uname, role string, isActive bool) user.User {
	t.Helper()
	ctx := context.Background()
	usr, err := svc.Create(ctx, user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           uname + "@test.cd",
		Role:            role,
		Password:        Password,
		PasswordConfirm: Password,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if !isActive {
		if usr, err = svc.Update(ctx, usr, user.UpdateUser{
			Name:     usr.Name,
			Username: usr.Username,
			Email:    usr.Email,
			Role:     usr.Role,
			Status:   user.StatusInactive,
		}); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	return usr
}

func CreateClass(t *testing.T, svc *academic.Service, name string) academic.Class {
	t.Helper()
	class, err := svc.CreateClass(context.Background(), academic.ClassInput{Name: name})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return class
}

func AdmitStudent(t *testing.T, svc *academic.Service, classID, rollNumber, name string, userID ...string) academic.Student {
	t.Helper()
	ns := academic.NewStudent{RollNumber: rollNumber, Name: name, ClassID: classID}
	if len(userID) > 0 {
		ns.UserID = userID[0]
	}
	s, err := svc.AdmitStudent(context.Background(), ns)
	if err != nil {
		t.Fatalf("AdmitStudent() failed: %v", err)
	}
	return s
}
