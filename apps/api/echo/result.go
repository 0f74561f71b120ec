package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/result"
)

type resultAPI struct {
	*Deps
}

func registerResultAPI(g *echo.Group, deps *Deps) {
	api := resultAPI{Deps: deps}

	g.POST("/marks", api.recordMarks, staffOnly)
	g.GET("/results", api.classResults, staffOnly)
}

func (api *resultAPI) recordMarks(ctx echo.Context) error {
	var data result.MarksRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarksRequest")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	marks, err := api.ResultSvc.RecordMarks(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.ResultSvc.RecordMarks()")
	}
	return ctx.JSON(http.StatusCreated, marks)
}

func (api *resultAPI) classResults(ctx echo.Context) error {
	classID := core.CleanString(ctx.QueryParam("class_id"))
	termID := core.CleanString(ctx.QueryParam("term_id"))
	if classID == "" {
		return core.NewFieldError("class_id", errRequiredParam)
	}
	if termID == "" {
		return core.NewFieldError("term_id", errRequiredParam)
	}
	results, err := api.ResultSvc.ClassResults(ctx.Request().Context(), classID, termID)
	if err != nil {
		return errors.Wrap(err, "api.ResultSvc.ClassResults()")
	}
	if results == nil {
		results = []result.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

var errRequiredParam = errors.New("this field is required")
