package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/user"
)

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

type userAPI struct {
	*Deps
	auth *jwtAuth
}

func registerUserAPI(public, authed *echo.Group, deps *Deps, auth *jwtAuth) {
	api := userAPI{Deps: deps, auth: auth}

	public.POST("/users/login", api.login)

	ug := authed.Group("/users")
	ug.POST("/token-refresh", api.refreshToken)
	ug.GET("/roles", api.queryRoles)
	ug.POST("", api.create, adminOnly)
	ug.GET("", api.query, adminOnly)

	// detail endpoints
	dg := ug.Group("/:id", adminOnly, api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// profileID links the user to their Student or Teacher record, if any.
func (api *userAPI) profileID(ctx echo.Context, usr user.User) (string, error) {
	var (
		id  string
		err error
	)
	switch usr.Role {
	case user.RoleStudent:
		var s academic.Student
		s, err = api.AcademicSvc.GetStudentByUserID(ctx.Request().Context(), usr.ID)
		id = s.ID
	case user.RoleTeacher:
		var t academic.Teacher
		t, err = api.AcademicSvc.GetTeacherByUserID(ctx.Request().Context(), usr.ID)
		id = t.ID
	}
	if err != nil && errors.Cause(err) != academic.ErrNotFound {
		return "", err
	}
	return id, nil
}

func (api *userAPI) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	usr, err := api.UserSvc.GetByUsernameOrEmail(reqCtx, data.Username)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "api.UserSvc.GetByUsernameOrEmail()")
	}
	if err := usr.CheckPassword(data.Password); err != nil {
		return errAuthenticationFailed
	}
	if !usr.IsActive() {
		return errAccountDeactivated
	}
	if usr, err = api.UserSvc.SetLastLogin(reqCtx, usr); err != nil {
		return errors.Wrap(err, "api.UserSvc.SetLastLogin()")
	}

	profileID, err := api.profileID(ctx, usr)
	if err != nil {
		return errors.Wrap(err, "api.profileID()")
	}
	token, err := api.auth.Token(usr.Session(profileID))
	if err != nil {
		return errors.Wrap(err, "api.auth.Token()")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userAPI) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	usr, err := api.UserSvc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "api.UserSvc.GetByID()")
	}
	token, err := api.auth.refresh(claims, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userAPI) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.Validate, api.UserSvc); err != nil {
		return err
	}

	usr, err := api.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.UserSvc.Create()")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userAPI) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, "name", "username", "email", "role", "created_at", "last_login")

	users, err := api.UserSvc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "api.UserSvc.Query()")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userAPI) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userAPI) update(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(usr, api.Validate, api.UserSvc); err != nil {
		return err
	}

	usr, err := api.UserSvc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "api.UserSvc.Update()")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userAPI) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	sess, err := contextSession(ctx)
	if err != nil {
		return err
	}
	if usr.ID == sess.UserID {
		return errHttpForbidden
	}

	if err := api.UserSvc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "api.UserSvc.Delete()")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userAPI) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (api *userAPI) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := api.UserSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "api.UserSvc.GetByID()")
		}
		ctx.Set("object", usr)
		return next(ctx)
	}
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
