package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/timetable"
)

type timetableAPI struct {
	*Deps
}

func registerTimetableAPI(g *echo.Group, deps *Deps) {
	api := timetableAPI{Deps: deps}

	tg := g.Group("/timetables")
	tg.POST("", api.create, adminOnly)
	tg.GET("", api.query)
	tg.GET("/conflicts", api.conflicts, adminOnly)
	tg.GET("/:id", api.retrieve)
}

// TimetableResponse carries the conflicts left in place by a forced save.
type TimetableResponse struct {
	timetable.Timetable
	Conflicts []timetable.Conflict `json:"conflicts"`
}

// create answers 409 with the conflicts found, unless `?force=true`.
func (api *timetableAPI) create(ctx echo.Context) error {
	var data timetable.NewTimetable
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTimetable")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	tt, report, err := api.TimetableSvc.Create(ctx.Request().Context(), data, boolParam(ctx, "force"))
	if err != nil {
		return errors.Wrap(err, "api.TimetableSvc.Create()")
	}
	conflicts := report.Conflicts
	if conflicts == nil {
		conflicts = []timetable.Conflict{}
	}
	return ctx.JSON(http.StatusCreated, TimetableResponse{Timetable: tt, Conflicts: conflicts})
}

// query lists the timetables of a class, or those in force on `?date=` (today by default).
func (api *timetableAPI) query(ctx echo.Context) error {
	date, err := bindDate(ctx, "date")
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	var tts []timetable.Timetable
	if classID := ctx.QueryParam("class_id"); classID != "" {
		tts, err = api.TimetableSvc.Query(reqCtx, timetable.Filter{ClassID: classID, ActiveOn: date})
	} else {
		if date.IsZero() {
			date = core.Day(timetable.NowFunc().UTC())
		}
		tts, err = api.TimetableSvc.Current(reqCtx, date)
	}
	if err != nil {
		return errors.Wrap(err, "querying timetables")
	}
	if tts == nil {
		tts = []timetable.Timetable{}
	}
	return ctx.JSON(http.StatusOK, tts)
}

func (api *timetableAPI) retrieve(ctx echo.Context) error {
	tt, err := api.TimetableSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.TimetableSvc.Get()")
	}
	return ctx.JSON(http.StatusOK, tt)
}

func (api *timetableAPI) conflicts(ctx echo.Context) error {
	date, err := bindDate(ctx, "date")
	if err != nil {
		return err
	}
	report, err := api.TimetableSvc.Conflicts(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "api.TimetableSvc.Conflicts()")
	}
	if report.Conflicts == nil {
		report.Conflicts = []timetable.Conflict{}
	}
	return ctx.JSON(http.StatusOK, report)
}
