package academic

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Student statuses. Students are never deleted, removal sets a status.
const (
	StudentActive      = "active"
	StudentInactive    = "inactive"
	StudentGraduated   = "graduated"
	StudentTransferred = "transferred"
)

// Event types
const (
	EventAcademic    = "academic"
	EventCelebration = "celebration"
	EventMeeting     = "meeting"
	EventExam        = "exam"
	EventOther       = "other"
)

var (
	StudentStatuses = []string{StudentActive, StudentInactive, StudentGraduated, StudentTransferred}
	EventTypes      = []string{EventAcademic, EventCelebration, EventMeeting, EventExam, EventOther}
	Genders         = []string{"male", "female", "other"}
)

type (
	School struct {
		ID             string  `json:"id" db:"id"`
		Name           string  `json:"name" db:"name"`
		Address        string  `json:"address" db:"address"`
		PassPercentage float64 `json:"pass_percentage" db:"pass_percentage"`
		Currency       string  `json:"currency" db:"currency"`
	}

	AcademicYear struct {
		ID    string    `json:"id" db:"id"`
		Name  string    `json:"name" db:"name"`
		Start time.Time `json:"start" db:"start_date"`
		End   time.Time `json:"end" db:"end_date"`
	}

	Term struct {
		ID             string    `json:"id" db:"id"`
		AcademicYearID string    `json:"academic_year_id" db:"academic_year_id"`
		Name           string    `json:"name" db:"name"`
		Start          time.Time `json:"start" db:"start_date"`
		End            time.Time `json:"end" db:"end_date"`
	}

	Class struct {
		ID        string `json:"id" db:"id"`
		Name      string `json:"name" db:"name"`
		Section   string `json:"section" db:"section"`
		TeacherID string `json:"teacher_id" db:"teacher_id"` // class teacher, optional
	}

	// Book is a subject taught to one or more classes.
	Book struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		TotalMarks int      `json:"total_marks"`
		ClassIDs   []string `json:"class_ids"`
		TeacherIDs []string `json:"teacher_ids"`
	}

	Student struct {
		ID             string    `json:"id" db:"id"`
		UserID         string    `json:"user_id" db:"user_id"`
		RollNumber     string    `json:"roll_number" db:"roll_number"`
		Name           string    `json:"name" db:"name"`
		ClassID        string    `json:"class_id" db:"class_id"`
		Section        string    `json:"section" db:"section"`
		AdmissionDate  time.Time `json:"admission_date" db:"admission_date"`
		DateOfBirth    time.Time `json:"date_of_birth" db:"date_of_birth"`
		Gender         string    `json:"gender" db:"gender"`
		Religion       string    `json:"religion" db:"religion"`
		Address        string    `json:"address" db:"address"`
		GuardianName   string    `json:"guardian_name" db:"guardian_name"`
		GuardianEmail  string    `json:"guardian_email" db:"guardian_email"`
		GuardianPhone  string    `json:"guardian_phone" db:"guardian_phone"`
		FeeDiscount    float64   `json:"fee_discount" db:"fee_discount"` // absolute amount off each fee record
		PreviousSchool string    `json:"previous_school" db:"previous_school"`
		Status         string    `json:"status" db:"status"`
		CreatedAt      time.Time `json:"created_at" db:"created_at"`
		UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	}

	Teacher struct {
		ID              string    `json:"id"`
		UserID          string    `json:"user_id"`
		EmployeeID      string    `json:"employee_id"`
		Name            string    `json:"name"`
		Qualification   string    `json:"qualification"`
		Specialization  string    `json:"specialization"`
		JoiningDate     time.Time `json:"joining_date"`
		Phone           string    `json:"phone"`
		Email           string    `json:"email"`
		Salary          float64   `json:"salary"`
		ExperienceYears int       `json:"experience_years"`
		BookIDs         []string  `json:"book_ids"`
		ClassIDs        []string  `json:"class_ids"`
	}

	Staff struct {
		ID          string    `json:"id" db:"id"`
		UserID      string    `json:"user_id" db:"user_id"`
		EmployeeID  string    `json:"employee_id" db:"employee_id"`
		Name        string    `json:"name" db:"name"`
		Designation string    `json:"designation" db:"designation"`
		JoiningDate time.Time `json:"joining_date" db:"joining_date"`
		Phone       string    `json:"phone" db:"phone"`
		Salary      float64   `json:"salary" db:"salary"`
	}

	Event struct {
		ID          string    `json:"id" db:"id"`
		Title       string    `json:"title" db:"title"`
		Date        time.Time `json:"date" db:"date"`
		Description string    `json:"description" db:"description"`
		Type        string    `json:"type" db:"type"`
	}
)

func (t Term) Contains(d time.Time) bool {
	return core.DateRange{From: t.Start, To: t.End}.Contains(d)
}

func (c Class) DisplayName() string {
	if c.Section == "" {
		return c.Name
	}
	return fmt.Sprintf("%s - %s", c.Name, c.Section)
}

func (s Student) IsActive() bool { return s.Status == StudentActive }

// Directory indexes classes, books and students by id for the aggregations and reports.
type Directory struct {
	Classes  map[string]Class
	Books    map[string]Book
	Students map[string]Student
	Teachers map[string]Teacher
}

func NewDirectory(classes []Class, books []Book, students []Student, teachers []Teacher) Directory {
	dir := Directory{
		Classes:  make(map[string]Class, len(classes)),
		Books:    make(map[string]Book, len(books)),
		Students: make(map[string]Student, len(students)),
		Teachers: make(map[string]Teacher, len(teachers)),
	}
	for _, c := range classes {
		dir.Classes[c.ID] = c
	}
	for _, b := range books {
		dir.Books[b.ID] = b
	}
	for _, s := range students {
		dir.Students[s.ID] = s
	}
	for _, t := range teachers {
		dir.Teachers[t.ID] = t
	}
	return dir
}

func (dir Directory) ClassName(id string) string {
	if c, ok := dir.Classes[id]; ok {
		return c.DisplayName()
	}
	return id
}

func (dir Directory) StudentName(id string) string {
	if s, ok := dir.Students[id]; ok {
		return s.Name
	}
	return id
}

func (dir Directory) BookName(id string) string {
	if b, ok := dir.Books[id]; ok {
		return b.Name
	}
	return id
}

func (dir Directory) TeacherName(id string) string {
	if t, ok := dir.Teachers[id]; ok {
		return t.Name
	}
	return id
}

// Inputs

// NewStudent contains information needed to admit a new Student.
type NewStudent struct {
	UserID         string  `json:"user_id"`
	RollNumber     string  `json:"roll_number" validate:"required,alphanum_"`
	Name           string  `json:"name" validate:"required,notblank"`
	ClassID        string  `json:"class_id" validate:"required"`
	Section        string  `json:"section"`
	AdmissionDate  string  `json:"admission_date" validate:"omitempty,date"`
	DateOfBirth    string  `json:"date_of_birth" validate:"omitempty,date"`
	Gender         string  `json:"gender" validate:"omitempty,gender"`
	Religion       string  `json:"religion"`
	Address        string  `json:"address"`
	GuardianName   string  `json:"guardian_name"`
	GuardianEmail  string  `json:"guardian_email" validate:"omitempty,email"`
	GuardianPhone  string  `json:"guardian_phone"`
	FeeDiscount    float64 `json:"fee_discount" validate:"gte=0"`
	PreviousSchool string  `json:"previous_school"`
}

func (ns *NewStudent) Validate(validate *validator.Validate, svc *Service) error {
	ns.RollNumber = core.CleanString(ns.RollNumber, true /* lower */)
	ns.Name = core.CleanString(ns.Name)
	ns.GuardianEmail = core.CleanString(ns.GuardianEmail, true /* lower */)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkStudentRefs(ns.RollNumber, ns.ClassID)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty fields keep their current value.
type UpdateStudent struct {
	Name           string   `json:"name"`
	ClassID        string   `json:"class_id"`
	Section        string   `json:"section"`
	DateOfBirth    string   `json:"date_of_birth" validate:"omitempty,date"`
	Gender         string   `json:"gender" validate:"omitempty,gender"`
	Religion       string   `json:"religion"`
	Address        string   `json:"address"`
	GuardianName   string   `json:"guardian_name"`
	GuardianEmail  string   `json:"guardian_email" validate:"omitempty,email"`
	GuardianPhone  string   `json:"guardian_phone"`
	FeeDiscount    *float64 `json:"fee_discount" validate:"omitempty,gte=0"`
	PreviousSchool string   `json:"previous_school"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate, svc *Service) error {
	us.Name = core.CleanString(us.Name)
	us.GuardianEmail = core.CleanString(us.GuardianEmail, true /* lower */)
	us.Gender = core.CleanString(us.Gender, true /* lower */)

	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.ClassID != "" && us.ClassID != orig.ClassID {
		return svc.checkStudentRefs("", us.ClassID)
	}
	return nil
}

type StudentStatusUpdate struct {
	Status string `json:"status" validate:"required,studentstatus"`
}

func (su *StudentStatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status, true /* lower */)
	return validate.Struct(su)
}

type StudentFilter struct {
	Search   string   `query:"search"`
	ClassID  string   `query:"class_id"`
	Statuses []string `query:"status"`
}

func (f *StudentFilter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.ClassID = core.CleanString(f.ClassID)
}

type TeacherInput struct {
	UserID          string   `json:"user_id"`
	EmployeeID      string   `json:"employee_id" validate:"required,alphanum_"`
	Name            string   `json:"name" validate:"required,notblank"`
	Qualification   string   `json:"qualification"`
	Specialization  string   `json:"specialization"`
	JoiningDate     string   `json:"joining_date" validate:"omitempty,date"`
	Phone           string   `json:"phone"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Salary          float64  `json:"salary" validate:"gte=0"`
	ExperienceYears int      `json:"experience_years" validate:"gte=0"`
	BookIDs         []string `json:"book_ids"`
	ClassIDs        []string `json:"class_ids"`
}

func (ti *TeacherInput) Validate(validate *validator.Validate, svc *Service, orig ...Teacher) error {
	ti.EmployeeID = core.CleanString(ti.EmployeeID, true /* lower */)
	ti.Name = core.CleanString(ti.Name)
	ti.Email = core.CleanString(ti.Email, true /* lower */)

	if err := validate.Struct(ti); err != nil {
		return err
	}
	excl := ""
	if len(orig) > 0 {
		excl = orig[0].ID
	}
	return svc.checkEmployeeID(ti.EmployeeID, excl)
}

type StaffInput struct {
	UserID      string  `json:"user_id"`
	EmployeeID  string  `json:"employee_id" validate:"required,alphanum_"`
	Name        string  `json:"name" validate:"required,notblank"`
	Designation string  `json:"designation" validate:"required"`
	JoiningDate string  `json:"joining_date" validate:"omitempty,date"`
	Phone       string  `json:"phone"`
	Salary      float64 `json:"salary" validate:"gte=0"`
}

func (si *StaffInput) Validate(validate *validator.Validate, svc *Service, orig ...Staff) error {
	si.EmployeeID = core.CleanString(si.EmployeeID, true /* lower */)
	si.Name = core.CleanString(si.Name)

	if err := validate.Struct(si); err != nil {
		return err
	}
	excl := ""
	if len(orig) > 0 {
		excl = orig[0].ID
	}
	return svc.checkEmployeeID(si.EmployeeID, excl)
}

type ClassInput struct {
	Name      string `json:"name" validate:"required,notblank"`
	Section   string `json:"section"`
	TeacherID string `json:"teacher_id"`
}

func (ci *ClassInput) Validate(validate *validator.Validate) error {
	ci.Name = core.CleanString(ci.Name)
	ci.Section = core.CleanString(ci.Section)
	return validate.Struct(ci)
}

type BookInput struct {
	Name       string   `json:"name" validate:"required,notblank"`
	TotalMarks int      `json:"total_marks" validate:"required,gt=0"`
	ClassIDs   []string `json:"class_ids"`
	TeacherIDs []string `json:"teacher_ids"`
}

func (bi *BookInput) Validate(validate *validator.Validate) error {
	bi.Name = core.CleanString(bi.Name)
	return validate.Struct(bi)
}

type EventInput struct {
	Title       string `json:"title" validate:"required,notblank"`
	Date        string `json:"date" validate:"required,date"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required,eventtype"`
}

func (ei *EventInput) Validate(validate *validator.Validate) error {
	ei.Title = core.CleanString(ei.Title)
	ei.Type = core.CleanString(ei.Type, true /* lower */)
	return validate.Struct(ei)
}

type TermInput struct {
	AcademicYearID string `json:"academic_year_id" validate:"required"`
	Name           string `json:"name" validate:"required,notblank"`
	Start          string `json:"start" validate:"required,date"`
	End            string `json:"end" validate:"required,date"`
}

func (ti *TermInput) Validate(validate *validator.Validate) error {
	ti.Name = core.CleanString(ti.Name)
	if err := validate.Struct(ti); err != nil {
		return err
	}
	return checkPeriod(ti.Start, ti.End)
}

type AcademicYearInput struct {
	Name  string `json:"name" validate:"required,notblank"`
	Start string `json:"start" validate:"required,date"`
	End   string `json:"end" validate:"required,date"`
}

func (ai *AcademicYearInput) Validate(validate *validator.Validate) error {
	ai.Name = core.CleanString(ai.Name)
	if err := validate.Struct(ai); err != nil {
		return err
	}
	return checkPeriod(ai.Start, ai.End)
}

type SchoolInput struct {
	Name           string  `json:"name" validate:"required,notblank"`
	Address        string  `json:"address"`
	PassPercentage float64 `json:"pass_percentage" validate:"gte=0,lte=100"`
	Currency       string  `json:"currency" validate:"omitempty,len=3"`
}

func (si *SchoolInput) Validate(validate *validator.Validate) error {
	si.Name = core.CleanString(si.Name)
	si.Currency = strings.ToUpper(core.CleanString(si.Currency))
	return validate.Struct(si)
}

func checkPeriod(start, end string) error {
	from, _ := core.ParseDate(start)
	to, _ := core.ParseDate(end)
	if to.Before(from) {
		return core.NewFieldError("end", errEndBeforeStart)
	}
	return nil
}
