package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/user"
	rendersvc "github.com/trezcool/shule/services/render"
)

type reportAPI struct {
	*Deps
}

func registerReportAPI(g *echo.Group, deps *Deps) {
	api := reportAPI{Deps: deps}

	g.GET("/reports/:kind", api.render, staffOnly)
}

// financial reports are for admins only
var adminReports = map[string]bool{report.KindFees: true, report.KindVouchers: true}

func (api *reportAPI) render(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	kind := ctx.Param("kind")
	if adminReports[kind] && !sess.Is(user.RoleAdmin) {
		return errHttpForbidden
	}

	renderer, err := rendersvc.ForFormat(ctx.QueryParam("format"))
	if err != nil {
		return err
	}
	params, err := bindReportParams(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := api.ReportSvc.Render(ctx.Request().Context(), &buf, renderer, kind, params); err != nil {
		return errors.Wrap(err, "api.ReportSvc.Render()")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", kind+renderer.Extension()))
	return ctx.Blob(http.StatusOK, renderer.ContentType(), buf.Bytes())
}

func bindReportParams(ctx echo.Context) (report.Params, error) {
	period, err := bindPeriod(ctx)
	if err != nil {
		return report.Params{}, err
	}
	date, err := bindDate(ctx, "date")
	if err != nil {
		return report.Params{}, err
	}
	return report.Params{
		ClassID:   ctx.QueryParam("class_id"),
		TermID:    ctx.QueryParam("term_id"),
		StudentID: ctx.QueryParam("student_id"),
		Period:    period,
		Date:      date,
		Ordering:  ctx.QueryParam(orderingParam),
	}, nil
}
