package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/attendance"
)

type attendanceAPI struct {
	*Deps
}

func registerAttendanceAPI(g *echo.Group, deps *Deps) {
	api := attendanceAPI{Deps: deps}

	ag := g.Group("/attendance", staffOnly)
	ag.POST("", api.mark)
	ag.GET("", api.query)
	ag.GET("/summary", api.summary)
}

func (api *attendanceAPI) mark(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	var data attendance.MarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	records, err := api.AttendanceSvc.Mark(ctx.Request().Context(), sess, data)
	if err != nil {
		return errors.Wrap(err, "api.AttendanceSvc.Mark()")
	}
	return ctx.JSON(http.StatusCreated, records)
}

func (api *attendanceAPI) query(ctx echo.Context) error {
	period, err := bindPeriod(ctx)
	if err != nil {
		return err
	}
	filter := attendance.Filter{
		ClassID:   ctx.QueryParam("class_id"),
		StudentID: ctx.QueryParam("student_id"),
		Period:    period,
	}
	records, err := api.AttendanceSvc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "api.AttendanceSvc.Query()")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

// summary groups the attendance by class; `?ordering=-percentage` sorts the class rows.
func (api *attendanceAPI) summary(ctx echo.Context) error {
	period, err := bindPeriod(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, attendance.SortKeys...)
	key, desc := ordering.First()

	scope := attendance.Scope{ClassID: ctx.QueryParam("class_id"), Period: period}
	summary, err := api.AttendanceSvc.Summary(ctx.Request().Context(), scope, key, desc)
	if err != nil {
		return errors.Wrap(err, "api.AttendanceSvc.Summary()")
	}
	return ctx.JSON(http.StatusOK, summary)
}
