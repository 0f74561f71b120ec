package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/seed"
	"github.com/trezcool/shule/tests"
)

const newPassword = "N3w-Sh0le-Pa55"

func setup(t *testing.T) (*commandLine, *testutil.App, *bytes.Buffer) {
	t.Helper()
	app := testutil.NewApp()
	out := new(bytes.Buffer)
	return &commandLine{
		validate:   app.Validate,
		translator: app.Translator,
		users:      app.UserSvc,
		fees:       app.FeeSvc,
		reports:    app.ReportSvc,
		seedSvcs:   app.SeedServices(),
		out:        out,
	}, app, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantAnyErr bool
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	case tt.wantAnyErr:
		assert.Error(t, err)
	default:
		assert.NoError(t, err)
	}
}

func withPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	orig := migrateFunc
	t.Cleanup(func() { migrateFunc = orig })
	var ran []string
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version":
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
	assert.Equal(t, []string{"up", "up-to", "down", "status"}, ran)
}

func Test_commandLine_addUser(t *testing.T) {
	cli, app, out := setup(t)
	existing := testutil.CreateUser(t, app.UserSvc, "Teacher", "teacher01", user.RoleTeacher, false)

	withPassword(t, newPassword)
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no username", args: []string{"adduser"}, wantErr: errHelp},
		{name: "new admin", args: []string{"adduser", "-username", "Principal", "-email", "principal@test.cd"}},
		{name: "promote existing", args: []string{"adduser", "-username", "teacher01"}},
		{name: "unknown role", args: []string{"adduser", "-username", "janitor01", "-role", "janitor"}, wantAnyErr: true},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
	assert.Contains(t, out.String(), "user principal (admin) saved")

	ctx := context.Background()
	principal, err := app.UserSvc.GetByUsernameOrEmail(ctx, "principal@test.cd")
	require.NoError(t, err)
	assert.Equal(t, "principal", principal.Name)
	assert.NoError(t, principal.CheckPassword(newPassword))

	promoted, err := app.UserSvc.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, promoted.Role)
	assert.Equal(t, user.StatusActive, promoted.Status)
	assert.NoError(t, promoted.CheckPassword(newPassword))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, app, _ := setup(t)
	usr := testutil.CreateUser(t, app.UserSvc, "User", "awesome", user.RoleParent, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: newPassword}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: newPassword}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: newPassword + "!"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd := ""
		if e, ok := tt.extra.(extra); ok {
			pwd = e.pwd
		}
		withPassword(t, pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			tt.check(t, err)
			if err == nil {
				refreshed, err := app.UserSvc.GetByID(context.Background(), usr.ID)
				require.NoError(t, err)
				assert.NoError(t, refreshed.CheckPassword(pwd))
			}
		})
	}
	assert.Len(t, app.Mail.Sent(), 2)
}

func Test_commandLine_seed(t *testing.T) {
	cli, app, out := setup(t)

	args := []string{"admin", "seed", "-seed", "3", "-classes", "1", "-students", "2", "-password", testutil.Password}
	require.NoError(t, cli.run(args))
	assert.Contains(t, out.String(), "seeded users: 3, classes: 1")

	assert.Equal(t, errAlreadySeeded, cli.run(args))

	_, err := app.UserSvc.GetByUsernameOrEmail(context.Background(), seed.AdminUsername)
	assert.NoError(t, err)
}

func Test_commandLine_report(t *testing.T) {
	cli, app, out := setup(t)
	app.Seed(t, seed.Options{Seed: 1, Classes: 1, StudentsPerClass: 2, Today: time.Now()})

	tests := []cliTest{
		{name: "no kind", args: []string{"report"}, wantErr: errHelp},
		{name: "bad date", args: []string{"report", "-kind", "attendance", "-from", "lol"}, wantErrStr: "-from: " + errDateText(t, "lol")},
		{name: "unknown format", args: []string{"report", "-kind", "attendance", "-format", "docx", "-out", "-"}, wantErrStr: "unknown report format"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	t.Run("stdout", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "report", "-kind", "attendance", "-format", "csv", "-out", "-"}))
		assert.Contains(t, out.String(), "Class 1")
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fees.pdf")
		require.NoError(t, cli.run([]string{"admin", "report", "-kind", "fees", "-out", path}))
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
	})

	t.Run("unknown kind leaves no file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gossip.pdf")
		assert.Error(t, cli.run([]string{"admin", "report", "-kind", "gossip", "-out", path}))
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}

func Test_commandLine_remind(t *testing.T) {
	cli, app, out := setup(t)
	app.Seed(t, seed.Options{Seed: 1, Classes: 1, StudentsPerClass: 2, Today: time.Now()})

	require.NoError(t, cli.run([]string{"admin", "remind", "-refresh-only"}))
	assert.Contains(t, out.String(), "fee statuses refreshed:")
	assert.NotContains(t, out.String(), "overdue reminders sent:")

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "remind"}))
	assert.Contains(t, out.String(), "overdue reminders sent:")
}

func Test_commandLine_describe(t *testing.T) {
	cli, _, _ := setup(t)

	nu := user.NewUser{Role: "janitor"}
	err := nu.Validate(cli.validate, cli.users)
	require.Error(t, err)
	assert.Contains(t, cli.describe(err), "name: this field is required")

	assert.Equal(t, "username: taken", cli.describe(core.NewFieldError("username", fmt.Errorf("taken"))))
	assert.Equal(t, "boom", cli.describe(fmt.Errorf("boom")))
}

func errDateText(t *testing.T, s string) string {
	t.Helper()
	_, err := core.ParseDate(s)
	require.Error(t, err)
	return err.Error()
}
