package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
)

type feeAPI struct {
	*Deps
}

func registerFeeAPI(g *echo.Group, deps *Deps) {
	api := feeAPI{Deps: deps}

	fg := g.Group("/fees", adminOnly)
	fg.GET("/types", api.queryTypes)
	fg.POST("/types", api.createType)
	fg.PUT("/types/:id", api.updateType)
	fg.POST("/types/:id/generate", api.generate)
	fg.GET("/records", api.queryRecords)
	fg.POST("/records", api.createRecord)
	fg.POST("/records/:id/pay", api.pay)
	fg.GET("/summary", api.summary)

	vg := g.Group("/vouchers", adminOnly)
	vg.GET("", api.queryVouchers)
	vg.POST("", api.createVoucher)
	vg.GET("/summary", api.voucherSummary)
	vg.GET("/:id", api.retrieveVoucher)
}

// Types

func (api *feeAPI) queryTypes(ctx echo.Context) error {
	types, err := api.FeeSvc.QueryTypes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.QueryTypes()")
	}
	if types == nil {
		types = []fee.Type{}
	}
	return ctx.JSON(http.StatusOK, types)
}

func (api *feeAPI) createType(ctx echo.Context) error {
	var data fee.TypeInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TypeInput")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	ft, err := api.FeeSvc.CreateType(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.CreateType()")
	}
	return ctx.JSON(http.StatusCreated, ft)
}

func (api *feeAPI) updateType(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	ft, err := api.FeeSvc.GetType(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.GetType()")
	}
	var data fee.TypeInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TypeInput")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	ft, err = api.FeeSvc.UpdateType(reqCtx, ft, data)
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.UpdateType()")
	}
	return ctx.JSON(http.StatusOK, ft)
}

func (api *feeAPI) generate(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	ft, err := api.FeeSvc.GetType(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.GetType()")
	}
	var data fee.GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	date, _ := core.ParseDate(data.Date)
	records, err := api.FeeSvc.Generate(reqCtx, ft, date)
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.Generate()")
	}
	return ctx.JSON(http.StatusCreated, records)
}

// Records

func (api *feeAPI) recordFilter(ctx echo.Context) (fee.RecordFilter, error) {
	period, err := bindPeriod(ctx)
	if err != nil {
		return fee.RecordFilter{}, err
	}
	return fee.RecordFilter{
		StudentID: ctx.QueryParam("student_id"),
		TypeID:    ctx.QueryParam("fee_type_id"),
		Statuses:  listParam(ctx, "status"),
		Period:    period,
	}, nil
}

func (api *feeAPI) queryRecords(ctx echo.Context) error {
	filter, err := api.recordFilter(ctx)
	if err != nil {
		return err
	}
	records, err := api.FeeSvc.QueryRecords(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.QueryRecords()")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *feeAPI) createRecord(ctx echo.Context) error {
	var data fee.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	record, err := api.FeeSvc.CreateRecord(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.CreateRecord()")
	}
	return ctx.JSON(http.StatusCreated, record)
}

func (api *feeAPI) pay(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	record, err := api.FeeSvc.GetRecord(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.GetRecord()")
	}
	var data fee.PaymentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentRequest")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	record, err = api.FeeSvc.Pay(reqCtx, record, data)
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.Pay()")
	}
	return ctx.JSON(http.StatusOK, record)
}

func (api *feeAPI) summary(ctx echo.Context) error {
	filter, err := api.recordFilter(ctx)
	if err != nil {
		return err
	}
	summary, err := api.FeeSvc.Summary(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.Summary()")
	}
	return ctx.JSON(http.StatusOK, summary)
}

// Vouchers

func (api *feeAPI) voucherFilter(ctx echo.Context) (fee.VoucherFilter, error) {
	period, err := bindPeriod(ctx)
	if err != nil {
		return fee.VoucherFilter{}, err
	}
	return fee.VoucherFilter{
		Types:     listParam(ctx, "type"),
		StudentID: ctx.QueryParam("student_id"),
		Period:    period,
	}, nil
}

func (api *feeAPI) queryVouchers(ctx echo.Context) error {
	filter, err := api.voucherFilter(ctx)
	if err != nil {
		return err
	}
	vouchers, err := api.FeeSvc.QueryVouchers(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.QueryVouchers()")
	}
	if vouchers == nil {
		vouchers = []fee.Voucher{}
	}
	return ctx.JSON(http.StatusOK, vouchers)
}

func (api *feeAPI) createVoucher(ctx echo.Context) error {
	var data fee.NewVoucher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVoucher")
	}
	if err := data.Validate(ctx.Request().Context(), api.Validate, api.FeeSvc); err != nil {
		return err
	}
	voucher, err := api.FeeSvc.CreateVoucher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.CreateVoucher()")
	}
	return ctx.JSON(http.StatusCreated, voucher)
}

func (api *feeAPI) retrieveVoucher(ctx echo.Context) error {
	voucher, err := api.FeeSvc.GetVoucher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.GetVoucher()")
	}
	return ctx.JSON(http.StatusOK, voucher)
}

func (api *feeAPI) voucherSummary(ctx echo.Context) error {
	filter, err := api.voucherFilter(ctx)
	if err != nil {
		return err
	}
	summary, err := api.FeeSvc.VoucherSummary(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.VoucherSummary()")
	}
	return ctx.JSON(http.StatusOK, summary)
}
