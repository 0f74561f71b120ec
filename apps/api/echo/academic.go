package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/academic"
)

type academicAPI struct {
	*Deps
}

func registerAcademicAPI(g *echo.Group, deps *Deps) {
	api := academicAPI{Deps: deps}

	g.GET("/school", api.retrieveSchool)
	g.PUT("/school", api.saveSchool, adminOnly)
	g.GET("/academic-years", api.queryAcademicYears)
	g.POST("/academic-years", api.createAcademicYear, adminOnly)
	g.GET("/terms", api.queryTerms)
	g.POST("/terms", api.createTerm, adminOnly)

	sg := g.Group("/students", staffOnly)
	sg.GET("", api.queryStudents)
	sg.POST("", api.admitStudent, adminOnly)
	sg.GET("/:id", api.retrieveStudent)
	sg.PUT("/:id", api.updateStudent, adminOnly)
	sg.PATCH("/:id/status", api.setStudentStatus, adminOnly)

	tg := g.Group("/teachers", staffOnly)
	tg.GET("", api.queryTeachers)
	tg.POST("", api.createTeacher, adminOnly)
	tg.GET("/:id", api.retrieveTeacher)
	tg.PUT("/:id", api.updateTeacher, adminOnly)

	stg := g.Group("/staff", adminOnly)
	stg.GET("", api.queryStaff)
	stg.POST("", api.createStaff)
	stg.GET("/:id", api.retrieveStaff)
	stg.PUT("/:id", api.updateStaff)

	cg := g.Group("/classes")
	cg.GET("", api.queryClasses)
	cg.POST("", api.createClass, adminOnly)
	cg.GET("/:id", api.retrieveClass)
	cg.PUT("/:id", api.updateClass, adminOnly)

	bg := g.Group("/books")
	bg.GET("", api.queryBooks)
	bg.POST("", api.createBook, adminOnly)
	bg.GET("/:id", api.retrieveBook)
	bg.PUT("/:id", api.updateBook, adminOnly)

	eg := g.Group("/events")
	eg.GET("", api.queryEvents)
	eg.POST("", api.createEvent, adminOnly)
	eg.GET("/:id", api.retrieveEvent)
	eg.PUT("/:id", api.updateEvent, adminOnly)
}

// School & calendar

func (api *academicAPI) retrieveSchool(ctx echo.Context) error {
	school, err := api.AcademicSvc.School(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.School()")
	}
	return ctx.JSON(http.StatusOK, school)
}

func (api *academicAPI) saveSchool(ctx echo.Context) error {
	var data academic.SchoolInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SchoolInput")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	school, err := api.AcademicSvc.SaveSchool(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.SaveSchool()")
	}
	return ctx.JSON(http.StatusOK, school)
}

func (api *academicAPI) queryAcademicYears(ctx echo.Context) error {
	years, err := api.AcademicSvc.QueryAcademicYears(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.QueryAcademicYears()")
	}
	if years == nil {
		years = []academic.AcademicYear{}
	}
	return ctx.JSON(http.StatusOK, years)
}

func (api *academicAPI) createAcademicYear(ctx echo.Context) error {
	var data academic.AcademicYearInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AcademicYearInput")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	year, err := api.AcademicSvc.CreateAcademicYear(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.CreateAcademicYear()")
	}
	return ctx.JSON(http.StatusCreated, year)
}

func (api *academicAPI) queryTerms(ctx echo.Context) error {
	terms, err := api.AcademicSvc.QueryTerms(ctx.Request().Context(), ctx.QueryParam("academic_year_id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.QueryTerms()")
	}
	if terms == nil {
		terms = []academic.Term{}
	}
	return ctx.JSON(http.StatusOK, terms)
}

func (api *academicAPI) createTerm(ctx echo.Context) error {
	var data academic.TermInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TermInput")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	term, err := api.AcademicSvc.CreateTerm(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.CreateTerm()")
	}
	return ctx.JSON(http.StatusCreated, term)
}

// Students

func (api *academicAPI) queryStudents(ctx echo.Context) error {
	filter := academic.StudentFilter{
		Search:   ctx.QueryParam("search"),
		ClassID:  ctx.QueryParam("class_id"),
		Statuses: listParam(ctx, "status"),
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, "name", "roll_number", "admission_date", "created_at")

	students, err := api.AcademicSvc.QueryStudents(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.QueryStudents()")
	}
	if students == nil {
		students = []academic.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *academicAPI) admitStudent(ctx echo.Context) error {
	var data academic.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.Validate, api.AcademicSvc); err != nil {
		return err
	}
	student, err := api.AcademicSvc.AdmitStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.AdmitStudent()")
	}
	return ctx.JSON(http.StatusCreated, student)
}

func (api *academicAPI) retrieveStudent(ctx echo.Context) error {
	student, err := api.AcademicSvc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetStudent()")
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *academicAPI) updateStudent(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	student, err := api.AcademicSvc.GetStudent(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetStudent()")
	}
	var data academic.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(student, api.Validate, api.AcademicSvc); err != nil {
		return err
	}
	student, err = api.AcademicSvc.UpdateStudent(reqCtx, student, data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.UpdateStudent()")
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *academicAPI) setStudentStatus(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	student, err := api.AcademicSvc.GetStudent(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetStudent()")
	}
	var data academic.StudentStatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentStatusUpdate")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	student, err = api.AcademicSvc.SetStudentStatus(reqCtx, student, data.Status)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.SetStudentStatus()")
	}
	return ctx.JSON(http.StatusOK, student)
}

// Teachers

func (api *academicAPI) queryTeachers(ctx echo.Context) error {
	teachers, err := api.AcademicSvc.QueryTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.QueryTeachers()")
	}
	if teachers == nil {
		teachers = []academic.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *academicAPI) createTeacher(ctx echo.Context) error {
	var data academic.TeacherInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherInput")
	}
	if err := data.Validate(api.Validate, api.AcademicSvc); err != nil {
		return err
	}
	teacher, err := api.AcademicSvc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.CreateTeacher()")
	}
	return ctx.JSON(http.StatusCreated, teacher)
}

func (api *academicAPI) retrieveTeacher(ctx echo.Context) error {
	teacher, err := api.AcademicSvc.GetTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetTeacher()")
	}
	return ctx.JSON(http.StatusOK, teacher)
}

func (api *academicAPI) updateTeacher(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	teacher, err := api.AcademicSvc.GetTeacher(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetTeacher()")
	}
	var data academic.TeacherInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherInput")
	}
	if err := data.Validate(api.Validate, api.AcademicSvc, teacher); err != nil {
		return err
	}
	teacher, err = api.AcademicSvc.UpdateTeacher(reqCtx, teacher, data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.UpdateTeacher()")
	}
	return ctx.JSON(http.StatusOK, teacher)
}

// Staff

func (api *academicAPI) queryStaff(ctx echo.Context) error {
	staff, err := api.AcademicSvc.QueryStaff(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.QueryStaff()")
	}
	if staff == nil {
		staff = []academic.Staff{}
	}
	return ctx.JSON(http.StatusOK, staff)
}

func (api *academicAPI) createStaff(ctx echo.Context) error {
	var data academic.StaffInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StaffInput")
	}
	if err := data.Validate(api.Validate, api.AcademicSvc); err != nil {
		return err
	}
	staff, err := api.AcademicSvc.CreateStaff(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.CreateStaff()")
	}
	return ctx.JSON(http.StatusCreated, staff)
}

func (api *academicAPI) retrieveStaff(ctx echo.Context) error {
	staff, err := api.AcademicSvc.GetStaff(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetStaff()")
	}
	return ctx.JSON(http.StatusOK, staff)
}

func (api *academicAPI) updateStaff(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	staff, err := api.AcademicSvc.GetStaff(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetStaff()")
	}
	var data academic.StaffInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StaffInput")
	}
	if err := data.Validate(api.Validate, api.AcademicSvc, staff); err != nil {
		return err
	}
	staff, err = api.AcademicSvc.UpdateStaff(reqCtx, staff, data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.UpdateStaff()")
	}
	return ctx.JSON(http.StatusOK, staff)
}

// Classes

func (api *academicAPI) queryClasses(ctx echo.Context) error {
	classes, err := api.AcademicSvc.QueryClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.QueryClasses()")
	}
	if classes == nil {
		classes = []academic.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *academicAPI) createClass(ctx echo.Context) error {
	var data academic.ClassInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassInput")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	class, err := api.AcademicSvc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.CreateClass()")
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *academicAPI) retrieveClass(ctx echo.Context) error {
	class, err := api.AcademicSvc.GetClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetClass()")
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *academicAPI) updateClass(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	class, err := api.AcademicSvc.GetClass(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetClass()")
	}
	var data academic.ClassInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassInput")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	class, err = api.AcademicSvc.UpdateClass(reqCtx, class, data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.UpdateClass()")
	}
	return ctx.JSON(http.StatusOK, class)
}

// Books

func (api *academicAPI) queryBooks(ctx echo.Context) error {
	books, err := api.AcademicSvc.QueryBooks(ctx.Request().Context(), ctx.QueryParam("class_id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.QueryBooks()")
	}
	if books == nil {
		books = []academic.Book{}
	}
	return ctx.JSON(http.StatusOK, books)
}

func (api *academicAPI) createBook(ctx echo.Context) error {
	var data academic.BookInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BookInput")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	book, err := api.AcademicSvc.CreateBook(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.CreateBook()")
	}
	return ctx.JSON(http.StatusCreated, book)
}

func (api *academicAPI) retrieveBook(ctx echo.Context) error {
	book, err := api.AcademicSvc.GetBook(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetBook()")
	}
	return ctx.JSON(http.StatusOK, book)
}

func (api *academicAPI) updateBook(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	book, err := api.AcademicSvc.GetBook(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetBook()")
	}
	var data academic.BookInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BookInput")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	book, err = api.AcademicSvc.UpdateBook(reqCtx, book, data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.UpdateBook()")
	}
	return ctx.JSON(http.StatusOK, book)
}

// Events

func (api *academicAPI) queryEvents(ctx echo.Context) error {
	period, err := bindPeriod(ctx)
	if err != nil {
		return err
	}
	events, err := api.AcademicSvc.QueryEvents(ctx.Request().Context(), period, listParam(ctx, "type")...)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.QueryEvents()")
	}
	if events == nil {
		events = []academic.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *academicAPI) createEvent(ctx echo.Context) error {
	var data academic.EventInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EventInput")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	event, err := api.AcademicSvc.CreateEvent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.CreateEvent()")
	}
	return ctx.JSON(http.StatusCreated, event)
}

func (api *academicAPI) retrieveEvent(ctx echo.Context) error {
	event, err := api.AcademicSvc.GetEvent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetEvent()")
	}
	return ctx.JSON(http.StatusOK, event)
}

func (api *academicAPI) updateEvent(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	event, err := api.AcademicSvc.GetEvent(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.GetEvent()")
	}
	var data academic.EventInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EventInput")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}
	event, err = api.AcademicSvc.UpdateEvent(reqCtx, event, data)
	if err != nil {
		return errors.Wrap(err, "api.AcademicSvc.UpdateEvent()")
	}
	return ctx.JSON(http.StatusOK, event)
}
