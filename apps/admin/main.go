package main

import (
	"log"
	"os"

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
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	errAndDie(logger, database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(logger, err)

	// set up services
	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)
	academic.RegisterValidators(validate, translator)
	attendance.RegisterValidators(validate, translator)
	fee.RegisterValidators(validate, translator)
	timetable.RegisterValidators(validate, translator)

	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags), logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	cache := cachesvc.NoopCache{}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc)
	academicSvc := academic.NewService(sqlxrepos.NewAcademicRepository(db), conf.Records)
	attendanceSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(db), academicSvc, cache, logger)
	feeSvc := fee.NewService(sqlxrepos.NewFeeRepository(db), academicSvc, usrSvc, cache, mailSvc, logger, conf.Records)
	resultSvc := result.NewService(sqlxrepos.NewResultRepository(db), academicSvc, logger)
	timetableSvc := timetable.NewService(sqlxrepos.NewTimetableRepository(db), academicSvc)
	reportSvc := report.NewService(academicSvc, attendanceSvc, feeSvc, resultSvc, timetableSvc, conf.Records)
	feeSvc.AttachStatements(reportSvc.Statements(rendersvc.PDF{}))

	// start CLI
	cli := commandLine{
		db:         db.DB,
		validate:   validate,
		translator: translator,
		users:      usrSvc,
		fees:       feeSvc,
		reports:    reportSvc,
		seedSvcs: seed.Services{
			Users:      usrSvc,
			Academic:   academicSvc,
			Attendance: attendanceSvc,
			Fees:       feeSvc,
			Results:    resultSvc,
			Timetables: timetableSvc,
		},
		out: os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %s\n", cli.describe(err))
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
