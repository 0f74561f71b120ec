package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var orderingParam = "ordering"

// Ordering binds `?ordering=a,-b`, keeping only the allowed fields.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
}

// First returns the first ordering field and whether it is descending.
func (ord *Ordering) First() (string, bool) {
	if len(ord.Orderings) == 0 {
		return "", false
	}
	return ord.Orderings[0].Field, !ord.Orderings[0].Ascending
}

// bindPeriod reads the `from` and `to` query dates.
func bindPeriod(ctx echo.Context) (core.DateRange, error) {
	from, err := core.ParseDate(ctx.QueryParam("from"))
	if err != nil {
		return core.DateRange{}, core.NewFieldError("from", errInvalidDate)
	}
	to, err := core.ParseDate(ctx.QueryParam("to"))
	if err != nil {
		return core.DateRange{}, core.NewFieldError("to", errInvalidDate)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return core.DateRange{}, core.NewFieldError("to", errors.New("to must not be before from"))
	}
	return core.DateRange{From: from, To: to}, nil
}

// bindDate reads a query date, zero when absent.
func bindDate(ctx echo.Context, param string) (time.Time, error) {
	d, err := core.ParseDate(ctx.QueryParam(param))
	if err != nil {
		return time.Time{}, core.NewFieldError(param, errInvalidDate)
	}
	return d, nil
}

func boolParam(ctx echo.Context, param string) bool {
	b, _ := strconv.ParseBool(ctx.QueryParam(param))
	return b
}

// listParam reads a repeated or comma separated query param.
func listParam(ctx echo.Context, param string) []string {
	var values []string
	for _, v := range ctx.QueryParams()[param] {
		for _, s := range strings.Split(v, ",") {
			if s = core.CleanString(s, true /* lower */); s != "" {
				values = append(values, s)
			}
		}
	}
	return values
}

var errInvalidDate = errors.New("must be a date formatted as YYYY-MM-DD")
