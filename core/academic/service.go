package academic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound         = errors.New("record not found")
	ErrRollNumberExists = errors.New("a student with this roll number already exists")
	ErrEmployeeIDExists = errors.New("an employee with this id already exists")
	errEndBeforeStart   = errors.New("end must not be before start")
	errUnknownClass     = errors.New("unknown class")
)

type (
	Repository interface {
		GetSchool(ctx context.Context) (School, error)
		SaveSchool(ctx context.Context, school School) (School, error)

		CreateAcademicYear(ctx context.Context, year AcademicYear) (AcademicYear, error)
		QueryAcademicYears(ctx context.Context) ([]AcademicYear, error)
		CreateTerm(ctx context.Context, term Term) (Term, error)
		GetTermByID(ctx context.Context, id string) (Term, error)
		// QueryTerms returns all terms, or the terms of the given academic year.
		QueryTerms(ctx context.Context, academicYearID string) ([]Term, error)

		CreateClass(ctx context.Context, class Class) (Class, error)
		UpdateClass(ctx context.Context, class Class) (Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		QueryClasses(ctx context.Context) ([]Class, error)

		CreateBook(ctx context.Context, book Book) (Book, error)
		UpdateBook(ctx context.Context, book Book) (Book, error)
		GetBookByID(ctx context.Context, id string) (Book, error)
		// QueryBooks returns all books, or the books taught to the given class.
		QueryBooks(ctx context.Context, classID string) ([]Book, error)

		CheckRollNumberUniqueness(ctx context.Context, rollNumber string) error
		CreateStudent(ctx context.Context, student Student) (Student, error)
		UpdateStudent(ctx context.Context, student Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByUserID(ctx context.Context, userID string) (Student, error)
		// FilterStudents applies AND operation on available StudentFilter fields.
		// StudentFilter.Search does a case-insensitive match on one of Student.Name or Student.RollNumber.
		FilterStudents(ctx context.Context, filter StudentFilter, ordering ...core.DBOrdering) ([]Student, error)

		// CheckEmployeeIDUniqueness checks employee ids across teachers and staff.
		CheckEmployeeIDUniqueness(ctx context.Context, employeeID, excludedID string) error
		CreateTeacher(ctx context.Context, teacher Teacher) (Teacher, error)
		UpdateTeacher(ctx context.Context, teacher Teacher) (Teacher, error)
		GetTeacherByID(ctx context.Context, id string) (Teacher, error)
		GetTeacherByUserID(ctx context.Context, userID string) (Teacher, error)
		QueryTeachers(ctx context.Context) ([]Teacher, error)

		CreateStaff(ctx context.Context, staff Staff) (Staff, error)
		UpdateStaff(ctx context.Context, staff Staff) (Staff, error)
		GetStaffByID(ctx context.Context, id string) (Staff, error)
		QueryStaff(ctx context.Context) ([]Staff, error)

		CreateEvent(ctx context.Context, event Event) (Event, error)
		UpdateEvent(ctx context.Context, event Event) (Event, error)
		GetEventByID(ctx context.Context, id string) (Event, error)
		FilterEvents(ctx context.Context, period core.DateRange, types ...string) ([]Event, error)
	}

	Service struct {
		repo Repository
		conf core.RecordsConfig
	}
)

func NewService(repo Repository, conf core.RecordsConfig) *Service {
	return &Service{repo: repo, conf: conf}
}

func newID() string { return uuid.New().String() }

func (svc *Service) checkStudentRefs(rollNumber, classID string) error {
	ctx := context.Background()
	if rollNumber != "" {
		if err := svc.repo.CheckRollNumberUniqueness(ctx, rollNumber); err != nil {
			if err == ErrRollNumberExists {
				return core.NewFieldError("roll_number", err)
			}
			return err
		}
	}
	if _, err := svc.repo.GetClassByID(ctx, classID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewFieldError("class_id", errUnknownClass)
		}
		return err
	}
	return nil
}

func (svc *Service) checkEmployeeID(employeeID, excludedID string) error {
	if err := svc.repo.CheckEmployeeIDUniqueness(context.Background(), employeeID, excludedID); err != nil {
		if err == ErrEmployeeIDExists {
			return core.NewFieldError("employee_id", err)
		}
		return err
	}
	return nil
}

// School

// School returns the school settings, defaulting to the configured records rules.
func (svc *Service) School(ctx context.Context) (School, error) {
	school, err := svc.repo.GetSchool(ctx)
	if errors.Cause(err) == ErrNotFound {
		return School{PassPercentage: svc.conf.PassPercentage, Currency: svc.conf.Currency}, nil
	}
	return school, err
}

func (svc *Service) SaveSchool(ctx context.Context, si SchoolInput) (School, error) {
	school, err := svc.School(ctx)
	if err != nil {
		return School{}, errors.Wrap(err, "svc.School()")
	}
	if school.ID == "" {
		school.ID = newID()
	}
	school.Name = si.Name
	school.Address = si.Address
	school.PassPercentage = si.PassPercentage
	if si.Currency != "" {
		school.Currency = si.Currency
	}
	return svc.repo.SaveSchool(ctx, school)
}

// PassPercentage returns the school pass threshold.
func (svc *Service) PassPercentage(ctx context.Context) float64 {
	if school, err := svc.School(ctx); err == nil && school.PassPercentage > 0 {
		return school.PassPercentage
	}
	return svc.conf.PassPercentage
}

// Academic years & terms

func (svc *Service) CreateAcademicYear(ctx context.Context, ai AcademicYearInput) (AcademicYear, error) {
	start, _ := core.ParseDate(ai.Start)
	end, _ := core.ParseDate(ai.End)
	return svc.repo.CreateAcademicYear(ctx, AcademicYear{ID: newID(), Name: ai.Name, Start: start, End: end})
}

func (svc *Service) QueryAcademicYears(ctx context.Context) ([]AcademicYear, error) {
	return svc.repo.QueryAcademicYears(ctx)
}

func (svc *Service) CreateTerm(ctx context.Context, ti TermInput) (Term, error) {
	start, _ := core.ParseDate(ti.Start)
	end, _ := core.ParseDate(ti.End)
	return svc.repo.CreateTerm(ctx, Term{ID: newID(), AcademicYearID: ti.AcademicYearID, Name: ti.Name, Start: start, End: end})
}

func (svc *Service) GetTerm(ctx context.Context, id string) (Term, error) {
	return svc.repo.GetTermByID(ctx, id)
}

func (svc *Service) QueryTerms(ctx context.Context, academicYearID string) ([]Term, error) {
	return svc.repo.QueryTerms(ctx, academicYearID)
}

// Classes & books

func (svc *Service) CreateClass(ctx context.Context, ci ClassInput) (Class, error) {
	return svc.repo.CreateClass(ctx, Class{ID: newID(), Name: ci.Name, Section: ci.Section, TeacherID: ci.TeacherID})
}

func (svc *Service) UpdateClass(ctx context.Context, class Class, ci ClassInput) (Class, error) {
	class.Name = ci.Name
	class.Section = ci.Section
	class.TeacherID = ci.TeacherID
	return svc.repo.UpdateClass(ctx, class)
}

func (svc *Service) GetClass(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *Service) QueryClasses(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryClasses(ctx)
}

func (svc *Service) CreateBook(ctx context.Context, bi BookInput) (Book, error) {
	return svc.repo.CreateBook(ctx, Book{
		ID:         newID(),
		Name:       bi.Name,
		TotalMarks: bi.TotalMarks,
		ClassIDs:   bi.ClassIDs,
		TeacherIDs: bi.TeacherIDs,
	})
}

func (svc *Service) UpdateBook(ctx context.Context, book Book, bi BookInput) (Book, error) {
	book.Name = bi.Name
	book.TotalMarks = bi.TotalMarks
	book.ClassIDs = bi.ClassIDs
	book.TeacherIDs = bi.TeacherIDs
	return svc.repo.UpdateBook(ctx, book)
}

func (svc *Service) GetBook(ctx context.Context, id string) (Book, error) {
	return svc.repo.GetBookByID(ctx, id)
}

func (svc *Service) QueryBooks(ctx context.Context, classID string) ([]Book, error) {
	return svc.repo.QueryBooks(ctx, classID)
}

// Students

func (svc *Service) AdmitStudent(ctx context.Context, ns NewStudent) (Student, error) {
	now := NowFunc().UTC()
	admission, _ := core.ParseDate(ns.AdmissionDate)
	if admission.IsZero() {
		admission = core.Day(now)
	}
	dob, _ := core.ParseDate(ns.DateOfBirth)
	return svc.repo.CreateStudent(ctx, Student{
		ID:             newID(),
		UserID:         ns.UserID,
		RollNumber:     ns.RollNumber,
		Name:           ns.Name,
		ClassID:        ns.ClassID,
		Section:        ns.Section,
		AdmissionDate:  admission,
		DateOfBirth:    dob,
		Gender:         ns.Gender,
		Religion:       ns.Religion,
		Address:        ns.Address,
		GuardianName:   ns.GuardianName,
		GuardianEmail:  ns.GuardianEmail,
		GuardianPhone:  ns.GuardianPhone,
		FeeDiscount:    ns.FeeDiscount,
		PreviousSchool: ns.PreviousSchool,
		Status:         StudentActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (svc *Service) UpdateStudent(ctx context.Context, s Student, us UpdateStudent) (Student, error) {
	setIfNotEmpty := func(dst *string, val string) {
		if val != "" {
			*dst = val
		}
	}
	setIfNotEmpty(&s.Name, us.Name)
	setIfNotEmpty(&s.ClassID, us.ClassID)
	setIfNotEmpty(&s.Section, us.Section)
	setIfNotEmpty(&s.Gender, us.Gender)
	setIfNotEmpty(&s.Religion, us.Religion)
	setIfNotEmpty(&s.Address, us.Address)
	setIfNotEmpty(&s.GuardianName, us.GuardianName)
	setIfNotEmpty(&s.GuardianEmail, us.GuardianEmail)
	setIfNotEmpty(&s.GuardianPhone, us.GuardianPhone)
	setIfNotEmpty(&s.PreviousSchool, us.PreviousSchool)
	if dob, _ := core.ParseDate(us.DateOfBirth); !dob.IsZero() {
		s.DateOfBirth = dob
	}
	if us.FeeDiscount != nil {
		s.FeeDiscount = *us.FeeDiscount
	}
	s.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

// SetStudentStatus is the only way to "remove" a student: records are kept for history.
func (svc *Service) SetStudentStatus(ctx context.Context, s Student, status string) (Student, error) {
	s.Status = status
	s.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) GetStudentByUserID(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetStudentByUserID(ctx, userID)
}

func (svc *Service) QueryStudents(ctx context.Context, filter StudentFilter, ordering ...core.DBOrdering) ([]Student, error) {
	return svc.repo.FilterStudents(ctx, filter, ordering...)
}

// ActiveStudents returns the active students of the given classes (all classes when none given).
func (svc *Service) ActiveStudents(ctx context.Context, classIDs ...string) ([]Student, error) {
	students, err := svc.repo.FilterStudents(ctx, StudentFilter{Statuses: []string{StudentActive}})
	if err != nil {
		return nil, err
	}
	if len(classIDs) == 0 {
		return students, nil
	}
	inClasses := make(map[string]bool, len(classIDs))
	for _, id := range classIDs {
		inClasses[id] = true
	}
	filtered := students[:0]
	for _, s := range students {
		if inClasses[s.ClassID] {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// Teachers & staff

func (svc *Service) CreateTeacher(ctx context.Context, ti TeacherInput) (Teacher, error) {
	return svc.repo.CreateTeacher(ctx, teacherFromInput(Teacher{ID: newID()}, ti))
}

func (svc *Service) UpdateTeacher(ctx context.Context, t Teacher, ti TeacherInput) (Teacher, error) {
	return svc.repo.UpdateTeacher(ctx, teacherFromInput(t, ti))
}

func teacherFromInput(t Teacher, ti TeacherInput) Teacher {
	joined, _ := core.ParseDate(ti.JoiningDate)
	t.UserID = ti.UserID
	t.EmployeeID = ti.EmployeeID
	t.Name = ti.Name
	t.Qualification = ti.Qualification
	t.Specialization = ti.Specialization
	t.JoiningDate = joined
	t.Phone = ti.Phone
	t.Email = ti.Email
	t.Salary = ti.Salary
	t.ExperienceYears = ti.ExperienceYears
	t.BookIDs = ti.BookIDs
	t.ClassIDs = ti.ClassIDs
	return t
}

func (svc *Service) GetTeacher(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *Service) GetTeacherByUserID(ctx context.Context, userID string) (Teacher, error) {
	return svc.repo.GetTeacherByUserID(ctx, userID)
}

func (svc *Service) QueryTeachers(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx)
}

func (svc *Service) CreateStaff(ctx context.Context, si StaffInput) (Staff, error) {
	return svc.repo.CreateStaff(ctx, staffFromInput(Staff{ID: newID()}, si))
}

func (svc *Service) UpdateStaff(ctx context.Context, s Staff, si StaffInput) (Staff, error) {
	return svc.repo.UpdateStaff(ctx, staffFromInput(s, si))
}

func staffFromInput(s Staff, si StaffInput) Staff {
	joined, _ := core.ParseDate(si.JoiningDate)
	s.UserID = si.UserID
	s.EmployeeID = si.EmployeeID
	s.Name = si.Name
	s.Designation = si.Designation
	s.JoiningDate = joined
	s.Phone = si.Phone
	s.Salary = si.Salary
	return s
}

func (svc *Service) GetStaff(ctx context.Context, id string) (Staff, error) {
	return svc.repo.GetStaffByID(ctx, id)
}

func (svc *Service) QueryStaff(ctx context.Context) ([]Staff, error) {
	return svc.repo.QueryStaff(ctx)
}

// Events

func (svc *Service) CreateEvent(ctx context.Context, ei EventInput) (Event, error) {
	date, _ := core.ParseDate(ei.Date)
	return svc.repo.CreateEvent(ctx, Event{ID: newID(), Title: ei.Title, Date: date, Description: ei.Description, Type: ei.Type})
}

func (svc *Service) UpdateEvent(ctx context.Context, e Event, ei EventInput) (Event, error) {
	e.Title = ei.Title
	e.Date, _ = core.ParseDate(ei.Date)
	e.Description = ei.Description
	e.Type = ei.Type
	return svc.repo.UpdateEvent(ctx, e)
}

func (svc *Service) GetEvent(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}

func (svc *Service) QueryEvents(ctx context.Context, period core.DateRange, types ...string) ([]Event, error) {
	return svc.repo.FilterEvents(ctx, period, types...)
}

// Directory loads every class, book, student and teacher into an id index.
func (svc *Service) Directory(ctx context.Context) (Directory, error) {
	classes, err := svc.repo.QueryClasses(ctx)
	if err != nil {
		return Directory{}, errors.Wrap(err, "svc.repo.QueryClasses()")
	}
	books, err := svc.repo.QueryBooks(ctx, "")
	if err != nil {
		return Directory{}, errors.Wrap(err, "svc.repo.QueryBooks()")
	}
	students, err := svc.repo.FilterStudents(ctx, StudentFilter{})
	if err != nil {
		return Directory{}, errors.Wrap(err, "svc.repo.FilterStudents()")
	}
	teachers, err := svc.repo.QueryTeachers(ctx)
	if err != nil {
		return Directory{}, errors.Wrap(err, "svc.repo.QueryTeachers()")
	}
	return NewDirectory(classes, books, students, teachers), nil
}
