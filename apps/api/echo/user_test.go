package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/tests"
)

func Test_userAPI_login(t *testing.T) {
	ts := newTestServer(t)
	testutil.CreateUser(t, ts.UserSvc, "Admin", "admin01", user.RoleAdmin, true)
	testutil.CreateUser(t, ts.UserSvc, "N Dog", "ndog01", user.RoleStudent, false) // 😂

	login := func(uname, pwd string) LoginRequest { return LoginRequest{Username: uname, Password: pwd} }
	authFailed := httpErr{Error: "authentication failed"}

	ts.run(t, []httpTest{
		{
			name: "username & password required", method: http.MethodPost, path: "/v1/users/login", body: login("", ""),
			wantCode: http.StatusBadRequest,
			wantData: map[string]string{"username": "this field is required", "password": "this field is required"},
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login", body: login("nobody", "pwd"),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login", body: login("admin01", "wrong"),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "inactive user", method: http.MethodPost, path: "/v1/users/login", body: login("ndog01", testutil.Password),
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "account deactivated"},
		},
	})

	t.Run("logged in (username or email)", func(t *testing.T) {
		for _, uname := range []string{"admin01", "ADMIN01@test.cd"} {
			rec := ts.do(t, http.MethodPost, "/v1/users/login", "", login(uname, testutil.Password))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp LoginResponse
			decode(t, rec, &resp)
			claims := new(Claims)
			_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) { return ts.auth.key, nil })
			require.NoError(t, err)
			assert.Equal(t, "admin01", claims.Username)
			assert.Equal(t, user.RoleAdmin, claims.Role)
			assert.Equal(t, claims.IssuedAt, claims.OrigIssuedAt)
		}
	})
}

func Test_userAPI_refreshToken(t *testing.T) {
	ts := newTestServer(t)
	naughty := testutil.CreateUser(t, ts.UserSvc, "N Dog", "ndog01", user.RoleStudent, false)
	student := testutil.CreateUser(t, ts.UserSvc, "Hero", "hero01", user.RoleStudent, true)

	now := time.Now()
	unrefreshable := ts.auth.Claims(student.Session(""), now.Add(-2*ts.Conf.Server.JWTRefreshExpirationDelta).Unix())
	unrefreshableToken, err := ts.auth.GenerateToken(unrefreshable)
	require.NoError(t, err)

	ts.run(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/users/token-refresh", wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{
			name: "inactive user not allowed", method: http.MethodPost, path: "/v1/users/token-refresh",
			token: ts.token(t, naughty.Session("")), wantCode: http.StatusForbidden, wantData: httpErr{Error: "account deactivated"},
		},
		{
			name: "refresh period expired", method: http.MethodPost, path: "/v1/users/token-refresh",
			token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: httpErr{Error: "refresh has expired"},
		},
		{name: "token refreshed", method: http.MethodPost, path: "/v1/users/token-refresh", token: ts.token(t, student.Session(""))},
	})
}

func Test_userAPI_crud(t *testing.T) {
	ts := newTestServer(t)
	admin := testutil.CreateUser(t, ts.UserSvc, "Admin", "admin01", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, ts.UserSvc, "Teacher", "teacher01", user.RoleTeacher, true)
	adminToken := ts.token(t, admin.Session(""))

	ts.run(t, []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{
			name: "admin required", path: "/v1/users", token: ts.token(t, teacher.Session("")),
			wantCode: http.StatusForbidden, wantData: httpErr{Error: "permission denied"},
		},
		{
			name: "duplicate username", method: http.MethodPost, path: "/v1/users", token: adminToken,
			body: user.NewUser{
				Name: "Other", Username: "teacher01", Role: user.RoleTeacher,
				Password: testutil.Password, PasswordConfirm: testutil.Password,
			},
			wantCode: http.StatusBadRequest,
		},
		{name: "not found", path: "/v1/users/unknown", token: adminToken, wantCode: http.StatusNotFound},
	})

	rec := ts.do(t, http.MethodPost, "/v1/users", adminToken, user.NewUser{
		Name: "Parent", Username: "parent01", Email: "parent01@test.cd", Role: user.RoleParent,
		Password: testutil.Password, PasswordConfirm: testutil.Password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created user.User
	decode(t, rec, &created)
	assert.Equal(t, user.RoleParent, created.Role)
	assert.Equal(t, user.StatusActive, created.Status)

	rec = ts.do(t, http.MethodGet, "/v1/users?role=parent", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []user.User
	decode(t, rec, &users)
	if assert.Len(t, users, 1) {
		assert.Equal(t, created.ID, users[0].ID)
	}

	rec = ts.do(t, http.MethodPut, "/v1/users/"+created.ID, adminToken, user.UpdateUser{Status: user.StatusSuspended})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated user.User
	decode(t, rec, &updated)
	assert.Equal(t, user.StatusSuspended, updated.Status)
	assert.Equal(t, "parent01", updated.Username)

	rec = ts.do(t, http.MethodDelete, "/v1/users/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/v1/users/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
