package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
)

var studentOrderings = map[string]func(a, b academic.Student) int{
	"name":           func(a, b academic.Student) int { return compareStrings(a.Name, b.Name) },
	"roll_number":    func(a, b academic.Student) int { return compareStrings(a.RollNumber, b.RollNumber) },
	"admission_date": func(a, b academic.Student) int { return compareTimes(a.AdmissionDate, b.AdmissionDate) },
	"created_at":     func(a, b academic.Student) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

type academicRepository struct {
	db *DB
}

func NewAcademicRepository(db *DB) academic.Repository {
	return &academicRepository{db: db}
}

// School

func (repo *academicRepository) GetSchool(ctx context.Context) (academic.School, error) {
	schools := repo.db.schools.filter(nil)
	if len(schools) == 0 {
		return academic.School{}, academic.ErrNotFound
	}
	return schools[0], nil
}

func (repo *academicRepository) SaveSchool(ctx context.Context, school academic.School) (academic.School, error) {
	school.ID = newID(school.ID)
	repo.db.schools.insert(school.ID, school)
	return school, nil
}

// Academic years & terms

func (repo *academicRepository) CreateAcademicYear(ctx context.Context, year academic.AcademicYear) (academic.AcademicYear, error) {
	year.ID = newID(year.ID)
	repo.db.years.insert(year.ID, year)
	return year, nil
}

func (repo *academicRepository) QueryAcademicYears(ctx context.Context) ([]academic.AcademicYear, error) {
	return repo.db.years.filter(nil), nil
}

func (repo *academicRepository) CreateTerm(ctx context.Context, term academic.Term) (academic.Term, error) {
	term.ID = newID(term.ID)
	repo.db.terms.insert(term.ID, term)
	return term, nil
}

func (repo *academicRepository) GetTermByID(ctx context.Context, id string) (academic.Term, error) {
	if term, ok := repo.db.terms.get(id); ok {
		return term, nil
	}
	return academic.Term{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryTerms(ctx context.Context, academicYearID string) ([]academic.Term, error) {
	return repo.db.terms.filter(func(t academic.Term) bool {
		return academicYearID == "" || t.AcademicYearID == academicYearID
	}), nil
}

// Classes & books

func (repo *academicRepository) CreateClass(ctx context.Context, class academic.Class) (academic.Class, error) {
	class.ID = newID(class.ID)
	repo.db.classes.insert(class.ID, class)
	return class, nil
}

func (repo *academicRepository) UpdateClass(ctx context.Context, class academic.Class) (academic.Class, error) {
	if !repo.db.classes.update(class.ID, class) {
		return academic.Class{}, academic.ErrNotFound
	}
	return class, nil
}

func (repo *academicRepository) GetClassByID(ctx context.Context, id string) (academic.Class, error) {
	if class, ok := repo.db.classes.get(id); ok {
		return class, nil
	}
	return academic.Class{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryClasses(ctx context.Context) ([]academic.Class, error) {
	return repo.db.classes.filter(nil), nil
}

func copyBook(b academic.Book) academic.Book {
	b.ClassIDs = cloneStrings(b.ClassIDs)
	b.TeacherIDs = cloneStrings(b.TeacherIDs)
	return b
}

func (repo *academicRepository) CreateBook(ctx context.Context, book academic.Book) (academic.Book, error) {
	book = copyBook(book)
	book.ID = newID(book.ID)
	repo.db.books.insert(book.ID, book)
	return copyBook(book), nil
}

func (repo *academicRepository) UpdateBook(ctx context.Context, book academic.Book) (academic.Book, error) {
	book = copyBook(book)
	if !repo.db.books.update(book.ID, book) {
		return academic.Book{}, academic.ErrNotFound
	}
	return copyBook(book), nil
}

func (repo *academicRepository) GetBookByID(ctx context.Context, id string) (academic.Book, error) {
	if book, ok := repo.db.books.get(id); ok {
		return copyBook(book), nil
	}
	return academic.Book{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryBooks(ctx context.Context, classID string) ([]academic.Book, error) {
	books := repo.db.books.filter(func(b academic.Book) bool {
		return classID == "" || contains(b.ClassIDs, classID)
	})
	for i := range books {
		books[i] = copyBook(books[i])
	}
	return books, nil
}

// Students

func (repo *academicRepository) CheckRollNumberUniqueness(ctx context.Context, rollNumber string) error {
	if _, ok := repo.db.students.find(func(s academic.Student) bool { return strings.EqualFold(s.RollNumber, rollNumber) }); ok {
		return academic.ErrRollNumberExists
	}
	return nil
}

func (repo *academicRepository) CreateStudent(ctx context.Context, student academic.Student) (academic.Student, error) {
	student.ID = newID(student.ID)
	repo.db.students.insert(student.ID, student)
	return student, nil
}

func (repo *academicRepository) UpdateStudent(ctx context.Context, student academic.Student) (academic.Student, error) {
	if !repo.db.students.update(student.ID, student) {
		return academic.Student{}, academic.ErrNotFound
	}
	return student, nil
}

func (repo *academicRepository) GetStudentByID(ctx context.Context, id string) (academic.Student, error) {
	if s, ok := repo.db.students.get(id); ok {
		return s, nil
	}
	return academic.Student{}, academic.ErrNotFound
}

func (repo *academicRepository) GetStudentByUserID(ctx context.Context, userID string) (academic.Student, error) {
	if userID != "" {
		if s, ok := repo.db.students.find(func(s academic.Student) bool { return s.UserID == userID }); ok {
			return s, nil
		}
	}
	return academic.Student{}, academic.ErrNotFound
}

func (repo *academicRepository) FilterStudents(ctx context.Context, filter academic.StudentFilter, ordering ...core.DBOrdering) ([]academic.Student, error) {
	students := repo.db.students.filter(func(s academic.Student) bool {
		if filter.Search != "" && !(containsFold(s.Name, filter.Search) || containsFold(s.RollNumber, filter.Search)) {
			return false
		}
		if filter.ClassID != "" && s.ClassID != filter.ClassID {
			return false
		}
		return in(filter.Statuses, s.Status)
	})
	orderBy(students, ordering, studentOrderings)
	return students, nil
}

// Teachers & staff

func (repo *academicRepository) CheckEmployeeIDUniqueness(ctx context.Context, employeeID, excludedID string) error {
	taken := func(id, empID string) bool { return id != excludedID && strings.EqualFold(empID, employeeID) }
	if _, ok := repo.db.teachers.find(func(t academic.Teacher) bool { return taken(t.ID, t.EmployeeID) }); ok {
		return academic.ErrEmployeeIDExists
	}
	if _, ok := repo.db.staff.find(func(s academic.Staff) bool { return taken(s.ID, s.EmployeeID) }); ok {
		return academic.ErrEmployeeIDExists
	}
	return nil
}

func copyTeacher(t academic.Teacher) academic.Teacher {
	t.BookIDs = cloneStrings(t.BookIDs)
	t.ClassIDs = cloneStrings(t.ClassIDs)
	return t
}

func (repo *academicRepository) CreateTeacher(ctx context.Context, teacher academic.Teacher) (academic.Teacher, error) {
	teacher = copyTeacher(teacher)
	teacher.ID = newID(teacher.ID)
	repo.db.teachers.insert(teacher.ID, teacher)
	return copyTeacher(teacher), nil
}

func (repo *academicRepository) UpdateTeacher(ctx context.Context, teacher academic.Teacher) (academic.Teacher, error) {
	teacher = copyTeacher(teacher)
	if !repo.db.teachers.update(teacher.ID, teacher) {
		return academic.Teacher{}, academic.ErrNotFound
	}
	return copyTeacher(teacher), nil
}

func (repo *academicRepository) GetTeacherByID(ctx context.Context, id string) (academic.Teacher, error) {
	if t, ok := repo.db.teachers.get(id); ok {
		return copyTeacher(t), nil
	}
	return academic.Teacher{}, academic.ErrNotFound
}

func (repo *academicRepository) GetTeacherByUserID(ctx context.Context, userID string) (academic.Teacher, error) {
	if userID != "" {
		if t, ok := repo.db.teachers.find(func(t academic.Teacher) bool { return t.UserID == userID }); ok {
			return copyTeacher(t), nil
		}
	}
	return academic.Teacher{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryTeachers(ctx context.Context) ([]academic.Teacher, error) {
	teachers := repo.db.teachers.filter(nil)
	for i := range teachers {
		teachers[i] = copyTeacher(teachers[i])
	}
	return teachers, nil
}

func (repo *academicRepository) CreateStaff(ctx context.Context, staff academic.Staff) (academic.Staff, error) {
	staff.ID = newID(staff.ID)
	repo.db.staff.insert(staff.ID, staff)
	return staff, nil
}

func (repo *academicRepository) UpdateStaff(ctx context.Context, staff academic.Staff) (academic.Staff, error) {
	if !repo.db.staff.update(staff.ID, staff) {
		return academic.Staff{}, academic.ErrNotFound
	}
	return staff, nil
}

func (repo *academicRepository) GetStaffByID(ctx context.Context, id string) (academic.Staff, error) {
	if s, ok := repo.db.staff.get(id); ok {
		return s, nil
	}
	return academic.Staff{}, academic.ErrNotFound
}

func (repo *academicRepository) QueryStaff(ctx context.Context) ([]academic.Staff, error) {
	return repo.db.staff.filter(nil), nil
}

// Events

func (repo *academicRepository) CreateEvent(ctx context.Context, event academic.Event) (academic.Event, error) {
	event.ID = newID(event.ID)
	repo.db.events.insert(event.ID, event)
	return event, nil
}

func (repo *academicRepository) UpdateEvent(ctx context.Context, event academic.Event) (academic.Event, error) {
	if !repo.db.events.update(event.ID, event) {
		return academic.Event{}, academic.ErrNotFound
	}
	return event, nil
}

func (repo *academicRepository) GetEventByID(ctx context.Context, id string) (academic.Event, error) {
	if e, ok := repo.db.events.get(id); ok {
		return e, nil
	}
	return academic.Event{}, academic.ErrNotFound
}

func (repo *academicRepository) FilterEvents(ctx context.Context, period core.DateRange, types ...string) ([]academic.Event, error) {
	events := repo.db.events.filter(func(e academic.Event) bool {
		return period.Contains(e.Date) && in(types, e.Type)
	})
	orderBy(events, []core.DBOrdering{{Field: "date", Ascending: true}}, map[string]func(a, b academic.Event) int{
		"date": func(a, b academic.Event) int { return compareTimes(a.Date, b.Date) },
	})
	return events, nil
}
