package echoapi

import (
	"context"
	"net/http"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/result"
	"github.com/trezcool/shule/core/timetable"
	"github.com/trezcool/shule/core/user"
)

type (
	// Deps holds everything the handlers need.
	Deps struct {
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

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		addr string
		deps *Deps
		auth *jwtAuth
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

// NewServer builds the API. A core shutdown error caught by a handler is signaled on shutdown (if not nil).
func NewServer(addr string, shutdown chan os.Signal, deps *Deps) Server {
	s := &server{
		addr: addr,
		deps: deps,
		auth: newJWTAuth(deps.Conf),
		app:  echo.New(),
	}
	s.setup(shutdown)
	return s
}

func (s *server) setup(shutdown chan os.Signal) {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, func() {
		if shutdown != nil {
			shutdown <- os.Interrupt
		}
	})
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	authed := v1.Group("", s.auth.middleware(), sessionMiddleware)

	registerUserAPI(v1, authed, s.deps, s.auth)
	registerMeAPI(authed, s.deps)
	registerAcademicAPI(authed, s.deps)
	registerAttendanceAPI(authed, s.deps)
	registerFeeAPI(authed, s.deps)
	registerResultAPI(authed, s.deps)
	registerTimetableAPI(authed, s.deps)
	registerReportAPI(authed, s.deps)
}

func (s *server) Start() error {
	return s.app.Start(s.addr)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
