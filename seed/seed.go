// Package seed loads deterministic school fixtures through the domain services.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/result"
	"github.com/trezcool/shule/core/timetable"
	"github.com/trezcool/shule/core/user"
)

// AdminUsername is the username of the seeded admin.
const AdminUsername = "shuleadmin"

var (
	firstNames = []string{
		"Amani", "Baraka", "Chausiku", "Dalila", "Eshe", "Faraji", "Gasira", "Hamisi", "Imani", "Jabari",
		"Kamaria", "Lulu", "Makena", "Nuru", "Obi", "Pendo", "Rehema", "Sefu", "Tumaini", "Zawadi",
	}
	lastNames = []string{"Mwangi", "Otieno", "Kamau", "Njeri", "Wanjiru", "Ochieng", "Mutua", "Akinyi"}
	subjects  = []string{"Mathematics", "English", "Science", "History"}
	periods   = [][2]string{{"08:00", "08:45"}, {"08:45", "09:30"}, {"09:45", "10:30"}, {"10:30", "11:15"}}
	weekdays  = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

	// weighted attendance statuses
	statusWheel = []string{
		attendance.StatusPresent, attendance.StatusPresent, attendance.StatusPresent, attendance.StatusPresent,
		attendance.StatusPresent, attendance.StatusPresent, attendance.StatusPresent, attendance.StatusAbsent,
		attendance.StatusLate, attendance.StatusLeave,
	}
)

// Services are the domain services the fixtures are created with.
type Services struct {
	Users      *user.Service
	Academic   *academic.Service
	Attendance *attendance.Service
	Fees       *fee.Service
	Results    *result.Service
	Timetables *timetable.Service
}

type Options struct {
	Seed             int64
	Classes          int
	StudentsPerClass int
	Today            time.Time // attendance is marked over the instructional days of the 4 weeks before
	Password         string    // of every seeded user
}

func (o *Options) defaults() {
	if o.Classes <= 0 {
		o.Classes = 3
	}
	if o.StudentsPerClass <= 0 {
		o.StudentsPerClass = 8
	}
	if o.Today.IsZero() {
		o.Today = time.Now().UTC()
	}
	o.Today = core.Day(o.Today)
	if o.Password == "" {
		o.Password = "Sh0le-Pa55word"
	}
}

// Summary counts what was created.
type Summary struct {
	Users      int
	Classes    int
	Books      int
	Teachers   int
	Staff      int
	Students   int
	Attendance int
	FeeRecords int
	Payments   int
	Marks      int
	Vouchers   int
	Events     int
	Timetables int
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"users: %d, classes: %d, books: %d, teachers: %d, staff: %d, students: %d, attendance: %d, "+
			"fee records: %d (paid %d), marks: %d, vouchers: %d, events: %d, timetables: %d",
		s.Users, s.Classes, s.Books, s.Teachers, s.Staff, s.Students, s.Attendance,
		s.FeeRecords, s.Payments, s.Marks, s.Vouchers, s.Events, s.Timetables,
	)
}

type loader struct {
	svcs Services
	opts Options
	rnd  *rand.Rand
	sum  Summary

	admin    user.User
	term     academic.Term
	year     academic.AcademicYear
	classes  []academic.Class
	books    map[string][]academic.Book // by class id
	teachers map[string]academic.Teacher
	students map[string][]academic.Student // by class id
}

// Load creates a school with classes, books, teachers, staff, students, a term, attendance registers,
// fee records (some paid), marks, vouchers, events and a timetable per class.
// The same options always produce the same data (ids aside).
func Load(ctx context.Context, svcs Services, opts Options) (Summary, error) {
	opts.defaults()
	l := &loader{
		svcs:     svcs,
		opts:     opts,
		rnd:      rand.New(rand.NewSource(opts.Seed)),
		books:    make(map[string][]academic.Book),
		teachers: make(map[string]academic.Teacher),
		students: make(map[string][]academic.Student),
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"school", l.school},
		{"users", l.users},
		{"classes", l.classRoster},
		{"staff", l.staff},
		{"students", l.studentRoster},
		{"attendance", l.attendance},
		{"fees", l.fees},
		{"marks", l.marks},
		{"vouchers", l.vouchers},
		{"events", l.events},
		{"timetables", l.timetables},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return l.sum, errors.Wrapf(err, "seeding %s", step.name)
		}
	}
	return l.sum, nil
}

func (l *loader) name(i int) string {
	return firstNames[i%len(firstNames)] + " " + lastNames[(i/len(firstNames)+i)%len(lastNames)]
}

func (l *loader) createUser(ctx context.Context, name, username, role string) (user.User, error) {
	usr, err := l.svcs.Users.Create(ctx, user.NewUser{
		Name:            name,
		Username:        username,
		Email:           username + "@shule.test",
		Role:            role,
		Password:        l.opts.Password,
		PasswordConfirm: l.opts.Password,
	})
	if err != nil {
		return user.User{}, errors.Wrap(err, "svc.Users.Create()")
	}
	l.sum.Users++
	return usr, nil
}

func (l *loader) school(ctx context.Context) error {
	if _, err := l.svcs.Academic.SaveSchool(ctx, academic.SchoolInput{
		Name:           "Shule Demo School",
		Address:        "1 School Road",
		PassPercentage: 50,
	}); err != nil {
		return errors.Wrap(err, "svc.Academic.SaveSchool()")
	}

	start := l.opts.Today.AddDate(0, -6, 0)
	end := l.opts.Today.AddDate(0, 6, 0)
	year, err := l.svcs.Academic.CreateAcademicYear(ctx, academic.AcademicYearInput{
		Name:  fmt.Sprintf("%d/%d", start.Year(), end.Year()),
		Start: start.Format(core.DateLayout),
		End:   end.Format(core.DateLayout),
	})
	if err != nil {
		return errors.Wrap(err, "svc.Academic.CreateAcademicYear()")
	}
	l.year = year

	// the term runs from 8 weeks before today to 8 weeks after
	term, err := l.svcs.Academic.CreateTerm(ctx, academic.TermInput{
		AcademicYearID: year.ID,
		Name:           "Term 1",
		Start:          l.opts.Today.AddDate(0, 0, -56).Format(core.DateLayout),
		End:            l.opts.Today.AddDate(0, 0, 56).Format(core.DateLayout),
	})
	if err != nil {
		return errors.Wrap(err, "svc.Academic.CreateTerm()")
	}
	l.term = term
	return nil
}

func (l *loader) users(ctx context.Context) error {
	admin, err := l.createUser(ctx, "School Admin", AdminUsername, user.RoleAdmin)
	if err != nil {
		return err
	}
	l.admin = admin
	return nil
}

func (l *loader) classRoster(ctx context.Context) error {
	for i := 0; i < l.opts.Classes; i++ {
		// one teacher per class
		tname := l.name(100 + i)
		tusr, err := l.createUser(ctx, tname, fmt.Sprintf("teacher%02d", i+1), user.RoleTeacher)
		if err != nil {
			return err
		}
		teacher, err := l.svcs.Academic.CreateTeacher(ctx, academic.TeacherInput{
			UserID:          tusr.ID,
			EmployeeID:      fmt.Sprintf("emp%03d", i+1),
			Name:            tname,
			Qualification:   "B.Ed",
			Specialization:  subjects[i%len(subjects)],
			JoiningDate:     l.opts.Today.AddDate(-2-i, 0, 0).Format(core.DateLayout),
			Email:           tusr.Email,
			Salary:          float64(40000 + 2500*i),
			ExperienceYears: 2 + i,
		})
		if err != nil {
			return errors.Wrap(err, "svc.Academic.CreateTeacher()")
		}
		l.sum.Teachers++

		class, err := l.svcs.Academic.CreateClass(ctx, academic.ClassInput{
			Name:      fmt.Sprintf("Class %d", i+1),
			Section:   "A",
			TeacherID: teacher.ID,
		})
		if err != nil {
			return errors.Wrap(err, "svc.Academic.CreateClass()")
		}
		l.sum.Classes++
		l.classes = append(l.classes, class)
		l.teachers[class.ID] = teacher

		var bookIDs []string
		for _, subject := range subjects {
			book, err := l.svcs.Academic.CreateBook(ctx, academic.BookInput{
				Name:       subject,
				TotalMarks: 100,
				ClassIDs:   []string{class.ID},
				TeacherIDs: []string{teacher.ID},
			})
			if err != nil {
				return errors.Wrap(err, "svc.Academic.CreateBook()")
			}
			l.sum.Books++
			l.books[class.ID] = append(l.books[class.ID], book)
			bookIDs = append(bookIDs, book.ID)
		}

		if _, err := l.svcs.Academic.UpdateTeacher(ctx, teacher, academic.TeacherInput{
			UserID:          teacher.UserID,
			EmployeeID:      teacher.EmployeeID,
			Name:            teacher.Name,
			Qualification:   teacher.Qualification,
			Specialization:  teacher.Specialization,
			JoiningDate:     teacher.JoiningDate.Format(core.DateLayout),
			Email:           teacher.Email,
			Salary:          teacher.Salary,
			ExperienceYears: teacher.ExperienceYears,
			BookIDs:         bookIDs,
			ClassIDs:        []string{class.ID},
		}); err != nil {
			return errors.Wrap(err, "svc.Academic.UpdateTeacher()")
		}
	}
	return nil
}

func (l *loader) staff(ctx context.Context) error {
	for i, designation := range []string{"Accountant", "Librarian"} {
		if _, err := l.svcs.Academic.CreateStaff(ctx, academic.StaffInput{
			EmployeeID:  fmt.Sprintf("stf%03d", i+1),
			Name:        l.name(200 + i),
			Designation: designation,
			JoiningDate: l.opts.Today.AddDate(-1, 0, 0).Format(core.DateLayout),
			Salary:      30000,
		}); err != nil {
			return errors.Wrap(err, "svc.Academic.CreateStaff()")
		}
		l.sum.Staff++
	}
	return nil
}

func (l *loader) studentRoster(ctx context.Context) error {
	n := 0
	for ci, class := range l.classes {
		for i := 0; i < l.opts.StudentsPerClass; i++ {
			n++
			name := l.name(n)
			var userID string
			if i == 0 { // the first student of each class can sign in
				usr, err := l.createUser(ctx, name, fmt.Sprintf("student%03d", n), user.RoleStudent)
				if err != nil {
					return err
				}
				userID = usr.ID
			}
			discount := 0.0
			if l.rnd.Intn(5) == 0 {
				discount = 500
			}
			gender := "female"
			if n%2 == 0 {
				gender = "male"
			}
			student, err := l.svcs.Academic.AdmitStudent(ctx, academic.NewStudent{
				UserID:        userID,
				RollNumber:    fmt.Sprintf("r%d%03d", ci+1, i+1),
				Name:          name,
				ClassID:       class.ID,
				Section:       class.Section,
				AdmissionDate: l.opts.Today.AddDate(-1, 0, 0).Format(core.DateLayout),
				DateOfBirth:   l.opts.Today.AddDate(-10-ci, -l.rnd.Intn(12), 0).Format(core.DateLayout),
				Gender:        gender,
				GuardianName:  "Guardian of " + name,
				GuardianEmail: fmt.Sprintf("guardian%03d@shule.test", n),
				FeeDiscount:   discount,
			})
			if err != nil {
				return errors.Wrap(err, "svc.Academic.AdmitStudent()")
			}
			l.sum.Students++
			l.students[class.ID] = append(l.students[class.ID], student)
		}
	}
	return nil
}

func (l *loader) attendance(ctx context.Context) error {
	sess := l.admin.Session("")
	days := attendance.InstructionalDays(l.opts.Today.AddDate(0, 0, -28), l.opts.Today.AddDate(0, 0, -1))
	for _, class := range l.classes {
		for _, day := range days {
			req := attendance.MarkRequest{ClassID: class.ID, Date: day.Format(core.DateLayout)}
			for _, s := range l.students[class.ID] {
				req.Entries = append(req.Entries, attendance.MarkEntry{
					StudentID: s.ID,
					Status:    statusWheel[l.rnd.Intn(len(statusWheel))],
				})
			}
			saved, err := l.svcs.Attendance.Mark(ctx, sess, req)
			if err != nil {
				return errors.Wrap(err, "svc.Attendance.Mark()")
			}
			l.sum.Attendance += len(saved)
		}
	}
	return nil
}

func (l *loader) fees(ctx context.Context) error {
	tuition, err := l.svcs.Fees.CreateType(ctx, fee.TypeInput{
		Name:      "Tuition",
		Amount:    5000,
		Frequency: fee.Monthly,
		DueDay:    10,
	})
	if err != nil {
		return errors.Wrap(err, "svc.Fees.CreateType()")
	}
	exam, err := l.svcs.Fees.CreateType(ctx, fee.TypeInput{
		Name:      "Examination",
		Amount:    1500,
		Frequency: fee.Termly,
		DueDay:    15,
	})
	if err != nil {
		return errors.Wrap(err, "svc.Fees.CreateType()")
	}

	var records []fee.Record
	for _, date := range []time.Time{l.opts.Today.AddDate(0, -1, 0), l.opts.Today} {
		generated, err := l.svcs.Fees.Generate(ctx, tuition, date)
		if err != nil {
			return errors.Wrap(err, "svc.Fees.Generate()")
		}
		records = append(records, generated...)
	}
	generated, err := l.svcs.Fees.Generate(ctx, exam, l.opts.Today)
	if err != nil {
		return errors.Wrap(err, "svc.Fees.Generate()")
	}
	records = append(records, generated...)
	l.sum.FeeRecords = len(records)

	// most of last month's tuition is paid
	for _, r := range records {
		if r.TypeID != tuition.ID || !r.DueDate.Before(l.opts.Today.AddDate(0, 0, -15)) || l.rnd.Intn(4) == 0 {
			continue
		}
		if _, err := l.svcs.Fees.Pay(ctx, r, fee.PaymentRequest{
			PaymentDate: r.DueDate.AddDate(0, 0, -l.rnd.Intn(5)).Format(core.DateLayout),
			Method:      fee.PaymentMethods[l.rnd.Intn(len(fee.PaymentMethods))],
		}); err != nil {
			return errors.Wrap(err, "svc.Fees.Pay()")
		}
		l.sum.Payments++
	}
	return nil
}

func (l *loader) marks(ctx context.Context) error {
	for _, class := range l.classes {
		for _, book := range l.books[class.ID] {
			req := result.MarksRequest{ClassID: class.ID, BookID: book.ID, TermID: l.term.ID}
			for _, s := range l.students[class.ID] {
				req.Entries = append(req.Entries, result.MarksEntry{
					StudentID: s.ID,
					Marks:     float64(35 + l.rnd.Intn(book.TotalMarks-34)),
				})
			}
			saved, err := l.svcs.Results.RecordMarks(ctx, req)
			if err != nil {
				return errors.Wrap(err, "svc.Results.RecordMarks()")
			}
			l.sum.Marks += len(saved)
		}
	}
	return nil
}

func (l *loader) vouchers(ctx context.Context) error {
	kinds := []struct {
		typ, desc string
		amount    float64
	}{
		{fee.VoucherReceipt, "Donation", 20000},
		{fee.VoucherSales, "Uniform sales", 7500},
		{fee.VoucherPurchase, "Lab equipment", 12000},
		{fee.VoucherPayment, "Electricity bill", 4300},
	}
	for i, k := range kinds {
		if _, err := l.svcs.Fees.CreateVoucher(ctx, fee.NewVoucher{
			Number:      fmt.Sprintf("V%04d", i+1),
			Type:        k.typ,
			Amount:      k.amount,
			Date:        l.opts.Today.AddDate(0, 0, -7*i).Format(core.DateLayout),
			Description: k.desc,
		}); err != nil {
			return errors.Wrap(err, "svc.Fees.CreateVoucher()")
		}
		l.sum.Vouchers++
	}
	return nil
}

func (l *loader) events(ctx context.Context) error {
	events := []academic.EventInput{
		{Title: "Opening Day", Date: l.term.Start.Format(core.DateLayout), Type: academic.EventAcademic},
		{Title: "Parents Meeting", Date: l.opts.Today.AddDate(0, 0, 14).Format(core.DateLayout), Type: academic.EventMeeting},
		{Title: "Mid-term Exams", Date: l.opts.Today.AddDate(0, 0, 21).Format(core.DateLayout), Type: academic.EventExam},
	}
	for _, ei := range events {
		if _, err := l.svcs.Academic.CreateEvent(ctx, ei); err != nil {
			return errors.Wrap(err, "svc.Academic.CreateEvent()")
		}
		l.sum.Events++
	}
	return nil
}

func (l *loader) timetables(ctx context.Context) error {
	for _, class := range l.classes {
		teacher := l.teachers[class.ID]
		books := l.books[class.ID]
		nt := timetable.NewTimetable{
			ClassID:        class.ID,
			AcademicYearID: l.year.ID,
			TermID:         l.term.ID,
			ValidFrom:      l.term.Start.Format(core.DateLayout),
			ValidTo:        l.term.End.Format(core.DateLayout),
		}
		for di, day := range weekdays {
			for pi, p := range periods {
				nt.Slots = append(nt.Slots, timetable.SlotInput{
					Day:       day,
					Period:    pi + 1,
					Start:     p[0],
					End:       p[1],
					BookID:    books[(di+pi)%len(books)].ID,
					TeacherID: teacher.ID,
				})
			}
		}
		if _, _, err := l.svcs.Timetables.Create(ctx, nt, false); err != nil {
			return errors.Wrap(err, "svc.Timetables.Create()")
		}
		l.sum.Timetables++
	}
	return nil
}

// Usernames returns the usernames Load creates for opts.
func Usernames(opts Options) []string {
	opts.defaults()
	names := []string{AdminUsername}
	for i := 0; i < opts.Classes; i++ {
		names = append(names, fmt.Sprintf("teacher%02d", i+1))
	}
	for ci := 0; ci < opts.Classes; ci++ {
		names = append(names, fmt.Sprintf("student%03d", ci*opts.StudentsPerClass+1))
	}
	return names
}

// IsSeeded reports whether the admin user of the fixtures exists.
func IsSeeded(ctx context.Context, users *user.Service) (bool, error) {
	_, err := users.GetByUsernameOrEmail(ctx, AdminUsername)
	switch {
	case err == nil:
		return true, nil
	case errors.Cause(err) == user.ErrNotFound:
		return false, nil
	default:
		return false, errors.Wrap(err, "users.GetByUsernameOrEmail()")
	}
}
