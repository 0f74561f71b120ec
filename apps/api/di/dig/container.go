package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/result"
	"github.com/trezcool/shule/core/timetable"
	"github.com/trezcool/shule/core/user"
	cachesvc "github.com/trezcool/shule/services/cache"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	rendersvc "github.com/trezcool/shule/services/render"
	schedulersvc "github.com/trezcool/shule/services/scheduler"
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// ShutdownSignal receives the OS interrupts, and the shutdown requested by the API on fatal errors.
type ShutdownSignal chan os.Signal

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newRecordsConfig(conf *core.Config) core.RecordsConfig {
	return conf.Records
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)
	academic.RegisterValidators(validate, translator)
	attendance.RegisterValidators(validate, translator)
	fee.RegisterValidators(validate, translator)
	timetable.RegisterValidators(validate, translator)
	return validate, translator
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

// newCache uses redis when enabled and reachable, else an in-process cache.
func newCache(conf *core.Config, logger core.Logger) core.Cache {
	if !conf.Redis.Disabled {
		cache, err := cachesvc.NewRedisCache(context.Background(), conf.Redis)
		if err == nil {
			return cache
		}
		logger.Warn("redis unavailable, using the memory cache", err)
	}
	return cachesvc.NewMemoryCache(conf.Redis.TTL)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags), logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// rosters

func newAttendanceRoster(svc *academic.Service) attendance.Roster { return svc }
func newFeeRoster(svc *academic.Service) fee.Roster               { return svc }
func newResultRoster(svc *academic.Service) result.Roster         { return svc }
func newTimetableRoster(svc *academic.Service) timetable.Roster   { return svc }

func newFeeAccounts(svc *user.Service) fee.Accounts { return svc }

// newReportService also attaches the PDF fee statements to the overdue reminders.
func newReportService(
	academicSvc *academic.Service,
	attendanceSvc *attendance.Service,
	feeSvc *fee.Service,
	resultSvc *result.Service,
	timetableSvc *timetable.Service,
	conf core.RecordsConfig,
) *report.Service {
	svc := report.NewService(academicSvc, attendanceSvc, feeSvc, resultSvc, timetableSvc, conf)
	feeSvc.AttachStatements(svc.Statements(rendersvc.PDF{}))
	return svc
}

func newScheduler(conf *core.Config, feeSvc *fee.Service, logger core.Logger) (*schedulersvc.Scheduler, error) {
	return schedulersvc.New(conf.Scheduler, feeSvc, logger)
}

func newShutdownSignal() ShutdownSignal {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	return shutdown
}

type depsParam struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator

	UserSvc       *user.Service
	AcademicSvc   *academic.Service
	AttendanceSvc *attendance.Service
	FeeSvc        *fee.Service
	ResultSvc     *result.Service
	TimetableSvc  *timetable.Service
	ReportSvc     *report.Service
}

func newServer(p depsParam, shutdown ShutdownSignal) echoapi.Server {
	return echoapi.NewServer(p.Conf.Server.Address, shutdown, &echoapi.Deps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		AcademicSvc:   p.AcademicSvc,
		AttendanceSvc: p.AttendanceSvc,
		FeeSvc:        p.FeeSvc,
		ResultSvc:     p.ResultSvc,
		TimetableSvc:  p.TimetableSvc,
		ReportSvc:     p.ReportSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newRecordsConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newValidator))
	must(c.Provide(newDB))
	must(c.Provide(newCache))
	must(c.Provide(newEmailService))

	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewAcademicRepository))
	must(c.Provide(sqlxrepos.NewAttendanceRepository))
	must(c.Provide(sqlxrepos.NewFeeRepository))
	must(c.Provide(sqlxrepos.NewResultRepository))
	must(c.Provide(sqlxrepos.NewTimetableRepository))

	must(c.Provide(user.NewService))
	must(c.Provide(academic.NewService))
	must(c.Provide(newAttendanceRoster))
	must(c.Provide(newFeeRoster))
	must(c.Provide(newResultRoster))
	must(c.Provide(newTimetableRoster))
	must(c.Provide(newFeeAccounts))
	must(c.Provide(attendance.NewService))
	must(c.Provide(fee.NewService))
	must(c.Provide(result.NewService))
	must(c.Provide(timetable.NewService))
	must(c.Provide(newReportService))
	must(c.Provide(newScheduler))

	must(c.Provide(newShutdownSignal))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
