package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	tokenContextKey = "userToken"

	nowFunc = time.Now // mockable
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	Role         string `json:"role,omitempty"` // -> dashboard
	ProfileID    string `json:"profile_id,omitempty"`
}

func (c Claims) Session() core.Session {
	return core.Session{
		UserID:    c.Subject,
		Username:  c.Username,
		Email:     c.Email,
		Name:      c.Name,
		Role:      c.Role,
		ProfileID: c.ProfileID,
	}
}

type jwtAuth struct {
	issuer          string
	key             []byte
	expiration      time.Duration
	refreshDuration time.Duration
}

func newJWTAuth(conf *core.Config) *jwtAuth {
	return &jwtAuth{
		issuer:          conf.AppName,
		key:             []byte(conf.SecretKey),
		expiration:      conf.Server.JWTExpirationDelta,
		refreshDuration: conf.Server.JWTRefreshExpirationDelta,
	}
}

func (a *jwtAuth) middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    a.key,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	})
}

// Claims returns the claims of the session. origIat is kept across refreshes.
func (a *jwtAuth) Claims(sess core.Session, origIat ...int64) *Claims {
	now := nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			Subject:   sess.UserID,
			ExpiresAt: now.Add(a.expiration).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     sess.Username,
		Email:        sess.Email,
		Name:         sess.Name,
		Role:         sess.Role,
		ProfileID:    sess.ProfileID,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (a *jwtAuth) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(a.key)
	if err != nil {
		return "", errors.Wrap(err, "token.SignedString()")
	}
	return ss, nil
}

// Token issues a token for the session.
func (a *jwtAuth) Token(sess core.Session) (string, error) {
	return a.GenerateToken(a.Claims(sess))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// sessionMiddleware turns the verified token claims into the request core.Session.
func sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		req := ctx.Request()
		ctx.SetRequest(req.WithContext(core.WithSession(req.Context(), claims.Session())))
		return next(ctx)
	}
}

func contextSession(ctx echo.Context) (core.Session, error) {
	sess, ok := core.SessionFrom(ctx.Request().Context())
	if !ok {
		return core.Session{}, errUnauthorized
	}
	return sess, nil
}

// roleMiddleware allows admins and the given roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := contextSession(ctx)
			if err != nil {
				return err
			}
			if sess.Is(user.RoleAdmin) {
				return next(ctx)
			}
			for _, role := range roles {
				if sess.Is(role) {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

var (
	adminOnly = roleMiddleware()
	staffOnly = roleMiddleware(user.RoleTeacher)
)

func (a *jwtAuth) refresh(claims Claims, usr user.User) (string, error) {
	if !usr.IsActive() {
		return "", errAccountDeactivated
	}
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.refreshDuration)
	if nowFunc().After(expTime) {
		return "", errRefreshExpired
	}
	sess := usr.Session(claims.ProfileID)
	return a.GenerateToken(a.Claims(sess, claims.OrigIssuedAt))
}
