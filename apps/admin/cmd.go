package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/seed"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	validate   *validator.Validate
	translator ut.Translator
	users      *user.Service
	fees       *fee.Service
	reports    *report.Service
	seedSvcs   seed.Services
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a database migration command (up, down, status, version, redo, ...)")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME [-email EMAIL] [-name NAME] [-role ROLE] - add or promote a user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  seed [-seed N] [-classes N] [-students N] [-force] - load demo data")
	fmt.Fprintln(cli.out, "  report -kind KIND [-format pdf|csv|json] [-out FILE|-] [-class_id ID] [-from DATE] [-to DATE] - render a report")
	fmt.Fprintln(cli.out, "  remind [-refresh-only] - refresh fee statuses and email the overdue reminders")
}

// promptPassword reads a password from the terminal, showing usage when none is given.
func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's name (defaults to the username).")
	addUserRole := addUserCmd.String("role", user.RoleAdmin, "One of "+strings.Join(user.AllRoles, ", ")+".")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	seedSeed := seedCmd.Int64("seed", 1, "The random seed; the same seed loads the same data.")
	seedClasses := seedCmd.Int("classes", 0, "The number of classes.")
	seedStudents := seedCmd.Int("students", 0, "The number of students per class.")
	seedPassword := seedCmd.String("password", "", "The password of the seeded users.")
	seedForce := seedCmd.Bool("force", false, "Seed even when the data is already there.")

	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)
	reportKind := reportCmd.String("kind", "", "One of "+strings.Join(report.Kinds, ", ")+".")
	reportFormat := reportCmd.String("format", "pdf", "One of pdf, csv, json.")
	reportOut := reportCmd.String("out", "", "The output file (KIND.FORMAT by default), - for stdout.")
	reportClass := reportCmd.String("class_id", "", "Restrict to a class.")
	reportTerm := reportCmd.String("term_id", "", "The term of a results report.")
	reportStudent := reportCmd.String("student_id", "", "Restrict to a student.")
	reportFrom := reportCmd.String("from", "", "The first day (YYYY-MM-DD).")
	reportTo := reportCmd.String("to", "", "The last day (YYYY-MM-DD).")
	reportDate := reportCmd.String("date", "", "The day timetables are in force (YYYY-MM-DD).")

	remindCmd := flag.NewFlagSet("remind", flag.ExitOnError)
	remindRefreshOnly := remindCmd.Bool("refresh-only", false, "Only refresh the fee statuses.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		usr, err := cli.addUser(*addUserUname, *addUserEmail, *addUserName, *addUserRole, pwd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "user %s (%s) saved\n", usr.Username, usr.Role)
		return nil

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		opts := seed.Options{
			Seed:             *seedSeed,
			Classes:          *seedClasses,
			StudentsPerClass: *seedStudents,
			Password:         *seedPassword,
		}
		sum, err := cli.seed(opts, *seedForce)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "seeded %s\n", sum)
		return nil

	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *reportKind == "" {
			reportCmd.Usage()
			return errHelp
		}
		params, err := reportParams(*reportFrom, *reportTo, *reportDate)
		if err != nil {
			return err
		}
		params.ClassID = *reportClass
		params.TermID = *reportTerm
		params.StudentID = *reportStudent
		out, err := cli.report(*reportKind, *reportFormat, *reportOut, params)
		if err != nil {
			return err
		}
		if out != stdout {
			fmt.Fprintf(cli.out, "report written to %s\n", out)
		}
		return nil

	case "remind":
		if err := remindCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.remind(*remindRefreshOnly)

	default:
		cli.printUsage()
		return errHelp
	}
}

// describe formats err for the terminal, one line per invalid field.
func (cli *commandLine) describe(err error) string {
	var lines []string
	switch cause := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fe := range core.TranslateErrors(cause, cli.translator) {
			lines = append(lines, fe.Field+": "+fe.Error)
		}
	case *core.ValidationError:
		for _, fe := range cause.Fields {
			lines = append(lines, fe.Field+": "+fe.Error)
		}
	}
	if len(lines) == 0 {
		return err.Error()
	}
	return strings.Join(lines, "\n")
}
