package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantData interface{} // compared as JSON when set
}

type testServer struct {
	*testutil.App
	app  Server
	auth *jwtAuth
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tapp := testutil.NewApp()
	deps := &Deps{
		Conf:          tapp.Conf,
		Logger:        tapp.Logger,
		Validate:      tapp.Validate,
		Translator:    tapp.Translator,
		UserSvc:       tapp.UserSvc,
		AcademicSvc:   tapp.AcademicSvc,
		AttendanceSvc: tapp.AttendanceSvc,
		FeeSvc:        tapp.FeeSvc,
		ResultSvc:     tapp.ResultSvc,
		TimetableSvc:  tapp.TimetableSvc,
		ReportSvc:     tapp.ReportSvc,
	}
	return &testServer{
		App:  tapp,
		app:  NewServer("" /* addr */, nil /* shutdown */, deps),
		auth: newJWTAuth(tapp.Conf),
	}
}

func (ts *testServer) token(t *testing.T, sess core.Session) string {
	t.Helper()
	token, err := ts.auth.Token(sess)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.app.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		want, err := json.Marshal(tt.wantData)
		require.NoError(t, err)
		assert.JSONEq(t, string(want), rec.Body.String())
	}
}

// decode unmarshals the response body into dst.
func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}
