package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
)

const (
	studentColumns = `id, COALESCE(user_id::text, '') AS user_id, roll_number, name, class_id, section, admission_date,
		COALESCE(date_of_birth, '0001-01-01') AS date_of_birth, gender, religion, address, guardian_name, guardian_email,
		guardian_phone, fee_discount, previous_school, status, created_at, updated_at`
	teacherColumns = `id, COALESCE(user_id::text, '') AS user_id, employee_id, name, qualification, specialization,
		COALESCE(joining_date, '0001-01-01') AS joining_date, phone, email, salary, experience_years, book_ids, class_ids`
	staffColumns = `id, COALESCE(user_id::text, '') AS user_id, employee_id, name, designation,
		COALESCE(joining_date, '0001-01-01') AS joining_date, phone, salary`
	classColumns = `id, name, section, COALESCE(teacher_id::text, '') AS teacher_id`
)

var studentOrderings = map[string]string{
	"name":           "lower(name)",
	"roll_number":    "roll_number",
	"admission_date": "admission_date",
	"created_at":     "created_at",
}

type (
	academicRepository struct {
		db *sqlx.DB
	}

	bookRow struct {
		ID         string         `db:"id"`
		Name       string         `db:"name"`
		TotalMarks int            `db:"total_marks"`
		ClassIDs   pq.StringArray `db:"class_ids"`
		TeacherIDs pq.StringArray `db:"teacher_ids"`
	}

	teacherRow struct {
		ID              string         `db:"id"`
		UserID          string         `db:"user_id"`
		EmployeeID      string         `db:"employee_id"`
		Name            string         `db:"name"`
		Qualification   string         `db:"qualification"`
		Specialization  string         `db:"specialization"`
		JoiningDate     time.Time      `db:"joining_date"`
		Phone           string         `db:"phone"`
		Email           string         `db:"email"`
		Salary          float64        `db:"salary"`
		ExperienceYears int            `db:"experience_years"`
		BookIDs         pq.StringArray `db:"book_ids"`
		ClassIDs        pq.StringArray `db:"class_ids"`
	}
)

func (r bookRow) book() academic.Book {
	return academic.Book{
		ID:         r.ID,
		Name:       r.Name,
		TotalMarks: r.TotalMarks,
		ClassIDs:   []string(r.ClassIDs),
		TeacherIDs: []string(r.TeacherIDs),
	}
}

func (r teacherRow) teacher() academic.Teacher {
	return academic.Teacher{
		ID:              r.ID,
		UserID:          r.UserID,
		EmployeeID:      r.EmployeeID,
		Name:            r.Name,
		Qualification:   r.Qualification,
		Specialization:  r.Specialization,
		JoiningDate:     r.JoiningDate,
		Phone:           r.Phone,
		Email:           r.Email,
		Salary:          r.Salary,
		ExperienceYears: r.ExperienceYears,
		BookIDs:         []string(r.BookIDs),
		ClassIDs:        []string(r.ClassIDs),
	}
}

func NewAcademicRepository(db *sqlx.DB) academic.Repository {
	return &academicRepository{db: db}
}

// School

func (repo *academicRepository) GetSchool(ctx context.Context) (academic.School, error) {
	var school academic.School
	q := `SELECT id, name, address, pass_percentage, currency FROM schools LIMIT 1`
	if err := repo.db.GetContext(ctx, &school, q); err != nil {
		return academic.School{}, notFound(err, academic.ErrNotFound)
	}
	return school, nil
}

func (repo *academicRepository) SaveSchool(ctx context.Context, school academic.School) (academic.School, error) {
	school.ID = newID(school.ID)
	q := `INSERT INTO schools (id, name, address, pass_percentage, currency)
		VALUES (:id, :name, :address, :pass_percentage, :currency)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, address = EXCLUDED.address,
		pass_percentage = EXCLUDED.pass_percentage, currency = EXCLUDED.currency`
	if _, err := repo.db.NamedExecContext(ctx, q, school); err != nil {
		return academic.School{}, errors.Wrap(err, "saving school")
	}
	return school, nil
}

// Academic years & terms

func (repo *academicRepository) CreateAcademicYear(ctx context.Context, year academic.AcademicYear) (academic.AcademicYear, error) {
	year.ID = newID(year.ID)
	q := `INSERT INTO academic_years (id, name, start_date, end_date) VALUES (:id, :name, :start_date, :end_date)`
	if _, err := repo.db.NamedExecContext(ctx, q, year); err != nil {
		return academic.AcademicYear{}, errors.Wrap(err, "inserting academic year")
	}
	return year, nil
}

func (repo *academicRepository) QueryAcademicYears(ctx context.Context) ([]academic.AcademicYear, error) {
	years := make([]academic.AcademicYear, 0)
	q := `SELECT id, name, start_date, end_date FROM academic_years ORDER BY start_date`
	if err := repo.db.SelectContext(ctx, &years, q); err != nil {
		return nil, errors.Wrap(err, "selecting academic years")
	}
	return years, nil
}

func (repo *academicRepository) CreateTerm(ctx context.Context, term academic.Term) (academic.Term, error) {
	term.ID = newID(term.ID)
	q := `INSERT INTO terms (id, academic_year_id, name, start_date, end_date)
		VALUES (:id, :academic_year_id, :name, :start_date, :end_date)`
	if _, err := repo.db.NamedExecContext(ctx, q, term); err != nil {
		return academic.Term{}, errors.Wrap(err, "inserting term")
	}
	return term, nil
}

func (repo *academicRepository) GetTermByID(ctx context.Context, id string) (academic.Term, error) {
	var term academic.Term
	q := `SELECT id, academic_year_id, name, start_date, end_date FROM terms WHERE id::text = $1`
	if err := repo.db.GetContext(ctx, &term, q, id); err != nil {
		return academic.Term{}, notFound(err, academic.ErrNotFound)
	}
	return term, nil
}

func (repo *academicRepository) QueryTerms(ctx context.Context, academicYearID string) ([]academic.Term, error) {
	var w where
	if academicYearID != "" {
		w.add("academic_year_id::text = ?", academicYearID)
	}
	terms := make([]academic.Term, 0)
	q := `SELECT id, academic_year_id, name, start_date, end_date FROM terms` + w.String() + ` ORDER BY start_date`
	if err := repo.db.SelectContext(ctx, &terms, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting terms")
	}
	return terms, nil
}

// Classes & books

func (repo *academicRepository) CreateClass(ctx context.Context, class academic.Class) (academic.Class, error) {
	class.ID = newID(class.ID)
	q := `INSERT INTO classes (id, name, section, teacher_id) VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.ExecContext(ctx, q, class.ID, class.Name, class.Section, nullable(class.TeacherID)); err != nil {
		return academic.Class{}, errors.Wrap(err, "inserting class")
	}
	return class, nil
}

func (repo *academicRepository) UpdateClass(ctx context.Context, class academic.Class) (academic.Class, error) {
	q := `UPDATE classes SET name = $2, section = $3, teacher_id = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, class.ID, class.Name, class.Section, nullable(class.TeacherID))
	if err != nil {
		return academic.Class{}, errors.Wrap(err, "updating class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.Class{}, academic.ErrNotFound
	}
	return class, nil
}

func (repo *academicRepository) GetClassByID(ctx context.Context, id string) (academic.Class, error) {
	var class academic.Class
	if err := repo.db.GetContext(ctx, &class, `SELECT `+classColumns+` FROM classes WHERE id::text = $1`, id); err != nil {
		return academic.Class{}, notFound(err, academic.ErrNotFound)
	}
	return class, nil
}

func (repo *academicRepository) QueryClasses(ctx context.Context) ([]academic.Class, error) {
	classes := make([]academic.Class, 0)
	if err := repo.db.SelectContext(ctx, &classes, `SELECT `+classColumns+` FROM classes ORDER BY name, section`); err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}
	return classes, nil
}

func (repo *academicRepository) CreateBook(ctx context.Context, book academic.Book) (academic.Book, error) {
	book.ID = newID(book.ID)
	q := `INSERT INTO books (id, name, total_marks, class_ids, teacher_ids) VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, q, book.ID, book.Name, book.TotalMarks, pq.Array(book.ClassIDs), pq.Array(book.TeacherIDs))
	if err != nil {
		return academic.Book{}, errors.Wrap(err, "inserting book")
	}
	return book, nil
}

func (repo *academicRepository) UpdateBook(ctx context.Context, book academic.Book) (academic.Book, error) {
	q := `UPDATE books SET name = $2, total_marks = $3, class_ids = $4, teacher_ids = $5 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, book.ID, book.Name, book.TotalMarks, pq.Array(book.ClassIDs), pq.Array(book.TeacherIDs))
	if err != nil {
		return academic.Book{}, errors.Wrap(err, "updating book")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.Book{}, academic.ErrNotFound
	}
	return book, nil
}

func (repo *academicRepository) GetBookByID(ctx context.Context, id string) (academic.Book, error) {
	var row bookRow
	q := `SELECT id, name, total_marks, class_ids, teacher_ids FROM books WHERE id::text = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return academic.Book{}, notFound(err, academic.ErrNotFound)
	}
	return row.book(), nil
}

func (repo *academicRepository) QueryBooks(ctx context.Context, classID string) ([]academic.Book, error) {
	var w where
	if classID != "" {
		w.add("? = ANY(class_ids)", classID)
	}
	var rows []bookRow
	q := `SELECT id, name, total_marks, class_ids, teacher_ids FROM books` + w.String() + ` ORDER BY name`
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting books")
	}
	books := make([]academic.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.book())
	}
	return books, nil
}

// Students

func (repo *academicRepository) CheckRollNumberUniqueness(ctx context.Context, rollNumber string) error {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM students WHERE lower(roll_number) = lower($1))`
	if err := repo.db.GetContext(ctx, &exists, q, rollNumber); err != nil {
		return errors.Wrap(err, "checking roll number")
	}
	if exists {
		return academic.ErrRollNumberExists
	}
	return nil
}

func (repo *academicRepository) CreateStudent(ctx context.Context, s academic.Student) (academic.Student, error) {
	s.ID = newID(s.ID)
	q := `INSERT INTO students (id, user_id, roll_number, name, class_id, section, admission_date, date_of_birth,
		gender, religion, address, guardian_name, guardian_email, guardian_phone, fee_discount, previous_school,
		status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := repo.db.ExecContext(ctx, q,
		s.ID, nullable(s.UserID), s.RollNumber, s.Name, s.ClassID, s.Section, s.AdmissionDate, nullTime(s.DateOfBirth),
		s.Gender, s.Religion, s.Address, s.GuardianName, s.GuardianEmail, s.GuardianPhone, s.FeeDiscount, s.PreviousSchool,
		s.Status, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return academic.Student{}, academic.ErrRollNumberExists
		}
		return academic.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *academicRepository) UpdateStudent(ctx context.Context, s academic.Student) (academic.Student, error) {
	q := `UPDATE students SET user_id = $2, name = $3, class_id = $4, section = $5, date_of_birth = $6, gender = $7,
		religion = $8, address = $9, guardian_name = $10, guardian_email = $11, guardian_phone = $12, fee_discount = $13,
		previous_school = $14, status = $15, updated_at = $16
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		s.ID, nullable(s.UserID), s.Name, s.ClassID, s.Section, nullTime(s.DateOfBirth), s.Gender,
		s.Religion, s.Address, s.GuardianName, s.GuardianEmail, s.GuardianPhone, s.FeeDiscount,
		s.PreviousSchool, s.Status, s.UpdatedAt,
	)
	if err != nil {
		return academic.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.Student{}, academic.ErrNotFound
	}
	return s, nil
}

func (repo *academicRepository) GetStudentByID(ctx context.Context, id string) (academic.Student, error) {
	var s academic.Student
	if err := repo.db.GetContext(ctx, &s, `SELECT `+studentColumns+` FROM students WHERE id::text = $1`, id); err != nil {
		return academic.Student{}, notFound(err, academic.ErrNotFound)
	}
	return s, nil
}

func (repo *academicRepository) GetStudentByUserID(ctx context.Context, userID string) (academic.Student, error) {
	var s academic.Student
	if err := repo.db.GetContext(ctx, &s, `SELECT `+studentColumns+` FROM students WHERE user_id::text = $1`, userID); err != nil {
		return academic.Student{}, notFound(err, academic.ErrNotFound)
	}
	return s, nil
}

func (repo *academicRepository) FilterStudents(ctx context.Context, filter academic.StudentFilter, ordering ...core.DBOrdering) ([]academic.Student, error) {
	var w where
	if filter.Search != "" {
		w.add("(name ILIKE ? OR roll_number ILIKE ?)", like(filter.Search), like(filter.Search))
	}
	if filter.ClassID != "" {
		w.add("class_id::text = ?", filter.ClassID)
	}
	if len(filter.Statuses) > 0 {
		w.add("status = ANY(?)", pq.Array(filter.Statuses))
	}

	students := make([]academic.Student, 0)
	q := `SELECT ` + studentColumns + ` FROM students` + w.String() + orderClause(ordering, studentOrderings, "created_at")
	if err := repo.db.SelectContext(ctx, &students, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	return students, nil
}

// Teachers & staff

func (repo *academicRepository) CheckEmployeeIDUniqueness(ctx context.Context, employeeID, excludedID string) error {
	var exists bool
	q := `SELECT EXISTS (
		SELECT 1 FROM teachers WHERE lower(employee_id) = lower($1) AND id::text <> $2
		UNION ALL
		SELECT 1 FROM staff WHERE lower(employee_id) = lower($1) AND id::text <> $2
	)`
	if err := repo.db.GetContext(ctx, &exists, q, employeeID, excludedID); err != nil {
		return errors.Wrap(err, "checking employee id")
	}
	if exists {
		return academic.ErrEmployeeIDExists
	}
	return nil
}

func (repo *academicRepository) CreateTeacher(ctx context.Context, t academic.Teacher) (academic.Teacher, error) {
	t.ID = newID(t.ID)
	q := `INSERT INTO teachers (id, user_id, employee_id, name, qualification, specialization, joining_date, phone,
		email, salary, experience_years, book_ids, class_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := repo.db.ExecContext(ctx, q,
		t.ID, nullable(t.UserID), t.EmployeeID, t.Name, t.Qualification, t.Specialization, nullTime(t.JoiningDate), t.Phone,
		t.Email, t.Salary, t.ExperienceYears, pq.Array(t.BookIDs), pq.Array(t.ClassIDs),
	)
	if err != nil {
		return academic.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return t, nil
}

func (repo *academicRepository) UpdateTeacher(ctx context.Context, t academic.Teacher) (academic.Teacher, error) {
	q := `UPDATE teachers SET user_id = $2, employee_id = $3, name = $4, qualification = $5, specialization = $6,
		joining_date = $7, phone = $8, email = $9, salary = $10, experience_years = $11, book_ids = $12, class_ids = $13
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		t.ID, nullable(t.UserID), t.EmployeeID, t.Name, t.Qualification, t.Specialization,
		nullTime(t.JoiningDate), t.Phone, t.Email, t.Salary, t.ExperienceYears, pq.Array(t.BookIDs), pq.Array(t.ClassIDs),
	)
	if err != nil {
		return academic.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.Teacher{}, academic.ErrNotFound
	}
	return t, nil
}

func (repo *academicRepository) getTeacher(ctx context.Context, cond string, arg string) (academic.Teacher, error) {
	var row teacherRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+teacherColumns+` FROM teachers WHERE `+cond, arg); err != nil {
		return academic.Teacher{}, notFound(err, academic.ErrNotFound)
	}
	return row.teacher(), nil
}

func (repo *academicRepository) GetTeacherByID(ctx context.Context, id string) (academic.Teacher, error) {
	return repo.getTeacher(ctx, "id::text = $1", id)
}

func (repo *academicRepository) GetTeacherByUserID(ctx context.Context, userID string) (academic.Teacher, error) {
	return repo.getTeacher(ctx, "user_id::text = $1", userID)
}

func (repo *academicRepository) QueryTeachers(ctx context.Context) ([]academic.Teacher, error) {
	var rows []teacherRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+teacherColumns+` FROM teachers ORDER BY lower(name)`); err != nil {
		return nil, errors.Wrap(err, "selecting teachers")
	}
	teachers := make([]academic.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.teacher())
	}
	return teachers, nil
}

func (repo *academicRepository) CreateStaff(ctx context.Context, s academic.Staff) (academic.Staff, error) {
	s.ID = newID(s.ID)
	q := `INSERT INTO staff (id, user_id, employee_id, name, designation, joining_date, phone, salary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q,
		s.ID, nullable(s.UserID), s.EmployeeID, s.Name, s.Designation, nullTime(s.JoiningDate), s.Phone, s.Salary,
	)
	if err != nil {
		return academic.Staff{}, errors.Wrap(err, "inserting staff")
	}
	return s, nil
}

func (repo *academicRepository) UpdateStaff(ctx context.Context, s academic.Staff) (academic.Staff, error) {
	q := `UPDATE staff SET user_id = $2, employee_id = $3, name = $4, designation = $5, joining_date = $6, phone = $7,
		salary = $8 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		s.ID, nullable(s.UserID), s.EmployeeID, s.Name, s.Designation, nullTime(s.JoiningDate), s.Phone, s.Salary,
	)
	if err != nil {
		return academic.Staff{}, errors.Wrap(err, "updating staff")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.Staff{}, academic.ErrNotFound
	}
	return s, nil
}

func (repo *academicRepository) GetStaffByID(ctx context.Context, id string) (academic.Staff, error) {
	var s academic.Staff
	if err := repo.db.GetContext(ctx, &s, `SELECT `+staffColumns+` FROM staff WHERE id::text = $1`, id); err != nil {
		return academic.Staff{}, notFound(err, academic.ErrNotFound)
	}
	return s, nil
}

func (repo *academicRepository) QueryStaff(ctx context.Context) ([]academic.Staff, error) {
	staff := make([]academic.Staff, 0)
	if err := repo.db.SelectContext(ctx, &staff, `SELECT `+staffColumns+` FROM staff ORDER BY lower(name)`); err != nil {
		return nil, errors.Wrap(err, "selecting staff")
	}
	return staff, nil
}

// Events

func (repo *academicRepository) CreateEvent(ctx context.Context, e academic.Event) (academic.Event, error) {
	e.ID = newID(e.ID)
	q := `INSERT INTO events (id, title, date, description, type) VALUES (:id, :title, :date, :description, :type)`
	if _, err := repo.db.NamedExecContext(ctx, q, e); err != nil {
		return academic.Event{}, errors.Wrap(err, "inserting event")
	}
	return e, nil
}

func (repo *academicRepository) UpdateEvent(ctx context.Context, e academic.Event) (academic.Event, error) {
	q := `UPDATE events SET title = :title, date = :date, description = :description, type = :type WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, e)
	if err != nil {
		return academic.Event{}, errors.Wrap(err, "updating event")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return academic.Event{}, academic.ErrNotFound
	}
	return e, nil
}

func (repo *academicRepository) GetEventByID(ctx context.Context, id string) (academic.Event, error) {
	var e academic.Event
	q := `SELECT id, title, date, description, type FROM events WHERE id::text = $1`
	if err := repo.db.GetContext(ctx, &e, q, id); err != nil {
		return academic.Event{}, notFound(err, academic.ErrNotFound)
	}
	return e, nil
}

func (repo *academicRepository) FilterEvents(ctx context.Context, period core.DateRange, types ...string) ([]academic.Event, error) {
	var w where
	w.period("date", period)
	if len(types) > 0 {
		w.add("type = ANY(?)", pq.Array(types))
	}
	events := make([]academic.Event, 0)
	q := `SELECT id, title, date, description, type FROM events` + w.String() + ` ORDER BY date`
	if err := repo.db.SelectContext(ctx, &events, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting events")
	}
	return events, nil
}
