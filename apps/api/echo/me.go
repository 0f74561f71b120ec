package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/result"
	"github.com/trezcool/shule/core/user"
)

type meAPI struct {
	*Deps
}

func registerMeAPI(g *echo.Group, deps *Deps) {
	api := meAPI{Deps: deps}

	mg := g.Group("/me")
	mg.GET("", api.profile)
	mg.GET("/attendance", api.attendance)
	mg.GET("/fees", api.fees)
	mg.GET("/results", api.results)
}

type MeResponse struct {
	ID       string            `json:"id"`
	Username string            `json:"username"`
	Email    string            `json:"email,omitempty"`
	Name     string            `json:"name"`
	Role     string            `json:"role"`
	Student  *academic.Student `json:"student,omitempty"`
}

func (api *meAPI) profile(ctx echo.Context) error {
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	resp := MeResponse{
		ID:       sess.UserID,
		Username: sess.Username,
		Email:    sess.Email,
		Name:     sess.Name,
		Role:     sess.Role,
	}
	if sess.Is(user.RoleStudent) && sess.ProfileID != "" {
		student, err := api.AcademicSvc.GetStudent(ctx.Request().Context(), sess.ProfileID)
		if err != nil {
			return errors.Wrap(err, "api.AcademicSvc.GetStudent()")
		}
		resp.Student = &student
	}
	return ctx.JSON(http.StatusOK, resp)
}

// student returns the student profile of the session user.
func (api *meAPI) student(ctx echo.Context) (academic.Student, error) {
	sess, err := contextSession(ctx)
	if err != nil {
		return academic.Student{}, err
	}
	if !sess.Is(user.RoleStudent) || sess.ProfileID == "" {
		return academic.Student{}, errHttpForbidden
	}
	student, err := api.AcademicSvc.GetStudent(ctx.Request().Context(), sess.ProfileID)
	if err != nil {
		return academic.Student{}, errors.Wrap(err, "api.AcademicSvc.GetStudent()")
	}
	return student, nil
}

func (api *meAPI) attendance(ctx echo.Context) error {
	student, err := api.student(ctx)
	if err != nil {
		return err
	}
	period, err := bindPeriod(ctx)
	if err != nil {
		return err
	}
	rep, err := api.AttendanceSvc.StudentReport(ctx.Request().Context(), student, period)
	if err != nil {
		return errors.Wrap(err, "api.AttendanceSvc.StudentReport()")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *meAPI) fees(ctx echo.Context) error {
	student, err := api.student(ctx)
	if err != nil {
		return err
	}
	fees, err := api.FeeSvc.StudentFees(ctx.Request().Context(), student.ID)
	if err != nil {
		return errors.Wrap(err, "api.FeeSvc.StudentFees()")
	}
	return ctx.JSON(http.StatusOK, fees)
}

// results lists the student results, of every term unless `?term_id=` is given.
func (api *meAPI) results(ctx echo.Context) error {
	student, err := api.student(ctx)
	if err != nil {
		return err
	}
	results, err := api.ResultSvc.StudentResults(ctx.Request().Context(), student, ctx.QueryParam("term_id"))
	if err != nil {
		return errors.Wrap(err, "api.ResultSvc.StudentResults()")
	}
	if results == nil {
		results = []result.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}
