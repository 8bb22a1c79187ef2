package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/user/academia-go/auth"
)

// AdminService covers the admin dashboard: catalogue, users, classes, modules and periods.
type AdminService service

// CourseInput is a new course. Image is optional.
type CourseInput struct {
	Name          string      `json:"nombre" validate:"required"`
	Code          string      `json:"codigo" validate:"required"`
	Description   string      `json:"descripcion" validate:"required"`
	DurationWeeks int         `json:"duracionSemanas" validate:"gt=0"`
	Level         CourseLevel `json:"nivel" validate:"required,oneof=basico intermedio avanzado"`
	Price         float64     `json:"precio" validate:"gte=0"`
	MaxSeats      int         `json:"cupoMaximo" validate:"gt=0"`
	Requirements  []string    `json:"requisitos"`
	Objectives    []string    `json:"objetivos"`
	Image         *File       `json:"-"`
}

func (in CourseInput) form() *Form {
	return NewForm().
		Set("nombre", in.Name).
		Set("codigo", in.Code).
		Set("descripcion", in.Description).
		Set("duracionSemanas", strconv.Itoa(in.DurationWeeks)).
		Set("nivel", string(in.Level)).
		Set("precio", formatNumber(in.Price)).
		Set("cupoMaximo", strconv.Itoa(in.MaxSeats)).
		SetAll("requisitos", in.Requirements).
		SetAll("objetivos", in.Objectives).
		Attach("imagen", in.Image)
}

// CourseUpdate changes a course. Nil fields are not sent.
type CourseUpdate struct {
	Name          *string      `json:"nombre"`
	Code          *string      `json:"codigo"`
	Description   *string      `json:"descripcion"`
	DurationWeeks *int         `json:"duracionSemanas" validate:"omitempty,gt=0"`
	Level         *CourseLevel `json:"nivel" validate:"omitempty,oneof=basico intermedio avanzado"`
	Price         *float64     `json:"precio" validate:"omitempty,gte=0"`
	MaxSeats      *int         `json:"cupoMaximo" validate:"omitempty,gt=0"`
	Active        *bool        `json:"activo"`
	Requirements  []string     `json:"requisitos"`
	Objectives    []string     `json:"objetivos"`
	Image         *File        `json:"-"`
}

func (in CourseUpdate) form() *Form {
	f := NewForm()
	if in.Name != nil {
		f.Set("nombre", *in.Name)
	}
	if in.Code != nil {
		f.Set("codigo", *in.Code)
	}
	if in.Description != nil {
		f.Set("descripcion", *in.Description)
	}
	if in.DurationWeeks != nil {
		f.Set("duracionSemanas", strconv.Itoa(*in.DurationWeeks))
	}
	if in.Level != nil {
		f.Set("nivel", string(*in.Level))
	}
	if in.Price != nil {
		f.Set("precio", formatNumber(*in.Price))
	}
	if in.MaxSeats != nil {
		f.Set("cupoMaximo", strconv.Itoa(*in.MaxSeats))
	}
	if in.Active != nil {
		f.Set("activo", strconv.FormatBool(*in.Active))
	}
	return f.SetAll("requisitos", in.Requirements).
		SetAll("objetivos", in.Objectives).
		Attach("imagen", in.Image)
}

// Courses returns the whole catalogue, inactive courses included.
func (s *AdminService) Courses(ctx context.Context) ([]Course, error) {
	var out []Course
	err := s.client.call(ctx, request{method: http.MethodGet, path: "/cursos"}, &out)
	return out, err
}

// CreateCourse adds a course, uploading its image when given.
func (s *AdminService) CreateCourse(ctx context.Context, in CourseInput) (*Course, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var c Course
	if err := s.client.call(ctx, request{method: http.MethodPost, path: "/cursos", body: in.form()}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCourse changes a course.
func (s *AdminService) UpdateCourse(ctx context.Context, id string, in CourseUpdate) (*Course, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var c Course
	if err := s.client.call(ctx, request{method: http.MethodPut, path: pathID("/cursos", id), body: in.form()}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCourse removes a course.
func (s *AdminService) DeleteCourse(ctx context.Context, id string) (*Message, error) {
	return s.delete(ctx, pathID("/cursos", id))
}

// Teachers returns the teacher accounts.
func (s *AdminService) Teachers(ctx context.Context) ([]User, error) {
	return s.users(ctx, request{method: http.MethodGet, path: "/profesores"})
}

// Users returns the accounts, optionally only those with the given role.
func (s *AdminService) Users(ctx context.Context, role auth.Role) ([]User, error) {
	r := request{method: http.MethodGet, path: "/usuarios"}
	if role != "" {
		r.query = url.Values{"rol": {role.BackendRole()}}
	}
	return s.users(ctx, r)
}

func (s *AdminService) users(ctx context.Context, r request) ([]User, error) {
	var out []User
	if err := s.client.call(ctx, r, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].normalize()
	}
	return out, nil
}

// Students returns the student profiles.
func (s *AdminService) Students(ctx context.Context) ([]StudentProfile, error) {
	var out []StudentProfile
	err := s.client.call(ctx, request{method: http.MethodGet, path: "/estudiantes"}, &out)
	return out, err
}

// CreateUserInput is a new account created by an admin. Avatar is optional.
type CreateUserInput struct {
	FirstNames string    `json:"nombres" validate:"required"`
	LastNames  string    `json:"apellidos" validate:"required"`
	Email      string    `json:"email" validate:"required,email"`
	NationalID string    `json:"cedula" validate:"required"`
	Phone      string    `json:"telefono"`
	Password   string    `json:"password" validate:"required,min=6"`
	Role       auth.Role `json:"rol" validate:"required,oneof=estudiante docente admin"`
	Avatar     *File     `json:"-"`
}

// UserUpdate changes an account. Empty fields are left alone.
type UserUpdate struct {
	FirstNames string    `json:"nombres,omitempty"`
	LastNames  string    `json:"apellidos,omitempty"`
	Email      string    `json:"email,omitempty" validate:"omitempty,email"`
	NationalID string    `json:"cedula,omitempty"`
	Phone      string    `json:"telefono,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	Active     *bool     `json:"activo,omitempty"`
	Role       auth.Role `json:"rol,omitempty" validate:"omitempty,oneof=estudiante docente admin"`
	Password   string    `json:"password,omitempty" validate:"omitempty,min=6"`
}

// CreateUser adds an account.
func (s *AdminService) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	in.Role = auth.NormalizeRole(string(in.Role))
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	form := NewForm().
		Set("nombres", in.FirstNames).
		Set("apellidos", in.LastNames).
		Set("email", in.Email).
		Set("cedula", in.NationalID)
	if in.Phone != "" {
		form.Set("telefono", in.Phone)
	}
	form.Set("password", in.Password).
		Set("rol", in.Role.BackendRole()).
		Attach("avatar", in.Avatar)

	var res struct {
		User User `json:"user"`
	}
	if err := s.client.call(ctx, request{method: http.MethodPost, path: "/usuarios", body: form}, &res); err != nil {
		return nil, err
	}
	res.User.normalize()
	return &res.User, nil
}

// UpdateUser changes an account.
func (s *AdminService) UpdateUser(ctx context.Context, id string, in UserUpdate) (*User, error) {
	if in.Role != "" {
		in.Role = auth.NormalizeRole(string(in.Role))
	}
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	if in.Role != "" {
		in.Role = auth.Role(in.Role.BackendRole())
	}
	var u User
	if err := s.client.call(ctx, request{method: http.MethodPut, path: pathID("/usuarios", id), body: in}, &u); err != nil {
		return nil, err
	}
	u.normalize()
	return &u, nil
}

// DeleteUser removes an account.
func (s *AdminService) DeleteUser(ctx context.Context, id string) (*Message, error) {
	return s.delete(ctx, pathID("/usuarios", id))
}

// ClassInput is a new class.
type ClassInput struct {
	PeriodID    string             `json:"periodoId" validate:"required"`
	ModuleID    string             `json:"moduloId" validate:"required"`
	TeacherID   string             `json:"docenteId" validate:"required"`
	Title       string             `json:"titulo" validate:"required"`
	Description string             `json:"descripcion"`
	Date        string             `json:"fecha" validate:"required"`
	StartTime   string             `json:"horaInicio" validate:"required"`
	EndTime     string             `json:"horaFin" validate:"required"`
	Location    string             `json:"ubicacion"`
	Modality    ClassModality      `json:"modalidad" validate:"required,oneof=presencial virtual hibrida"`
	VirtualLink string             `json:"enlaceVirtual,omitempty" validate:"omitempty,url"`
	Materials   []string           `json:"materialesClase"`
	State       ClassState         `json:"estado,omitempty" validate:"omitempty,oneof=programada en_curso finalizada cancelada"`
	Attendance  []AttendanceRecord `json:"asistencia,omitempty"`
	Notes       string             `json:"observaciones,omitempty"`
}

// Classes returns every class.
func (s *AdminService) Classes(ctx context.Context) ([]Class, error) {
	var out []Class
	err := s.client.call(ctx, request{method: http.MethodGet, path: "/clases"}, &out)
	return out, err
}

// CreateClass schedules a class.
func (s *AdminService) CreateClass(ctx context.Context, in ClassInput) (*Class, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var c Class
	if err := s.client.call(ctx, request{method: http.MethodPost, path: "/clases", body: in}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateClass changes a class.
func (s *AdminService) UpdateClass(ctx context.Context, id string, in ClassUpdate) (*Class, error) {
	return updateClass(ctx, s.client, id, in)
}

// DeleteClass removes a class.
func (s *AdminService) DeleteClass(ctx context.Context, id string) (*Message, error) {
	return s.delete(ctx, pathID("/clases", id))
}

// ModuleInput is a new syllabus module.
type ModuleInput struct {
	CourseID      string   `json:"cursoId" validate:"required"`
	Name          string   `json:"nombre" validate:"required"`
	Number        int      `json:"numeroModulo" validate:"gt=0"`
	Description   string   `json:"descripcion" validate:"required"`
	DurationHours float64  `json:"duracionHoras" validate:"gt=0"`
	Objectives    []string `json:"objetivos,omitempty"`
	Order         int      `json:"orden" validate:"gte=0"`
}

// ModuleUpdate changes a module. Nil and empty fields are left alone.
type ModuleUpdate struct {
	Name          string   `json:"nombre,omitempty"`
	Number        *int     `json:"numeroModulo,omitempty" validate:"omitempty,gt=0"`
	Description   string   `json:"descripcion,omitempty"`
	DurationHours *float64 `json:"duracionHoras,omitempty" validate:"omitempty,gt=0"`
	Objectives    []string `json:"objetivos,omitempty"`
	Order         *int     `json:"orden,omitempty" validate:"omitempty,gte=0"`
}

// Modules returns every module.
func (s *AdminService) Modules(ctx context.Context) ([]Module, error) {
	var out []Module
	err := s.client.call(ctx, request{method: http.MethodGet, path: "/modulos"}, &out)
	return out, err
}

// CreateModule adds a module to a course.
func (s *AdminService) CreateModule(ctx context.Context, in ModuleInput) (*Module, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var m Module
	if err := s.client.call(ctx, request{method: http.MethodPost, path: "/modulos", body: in}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateModule changes a module.
func (s *AdminService) UpdateModule(ctx context.Context, id string, in ModuleUpdate) (*Module, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var m Module
	if err := s.client.call(ctx, request{method: http.MethodPut, path: pathID("/modulos", id), body: in}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteModule removes a module.
func (s *AdminService) DeleteModule(ctx context.Context, id string) (*Message, error) {
	return s.delete(ctx, pathID("/modulos", id))
}

// PeriodInput is a new period of a course.
type PeriodInput struct {
	CourseID       string   `json:"cursoId" validate:"required"`
	Name           string   `json:"nombre" validate:"required"`
	Code           string   `json:"codigo" validate:"required"`
	StartDate      string   `json:"fechaInicio" validate:"required"`
	EndDate        string   `json:"fechaFin" validate:"required"`
	AvailableSeats int      `json:"cuposDisponibles" validate:"gte=0"`
	Schedule       string   `json:"horario" validate:"required"`
	MainTeachers   []string `json:"docentesPrincipales,omitempty"`
	Notes          string   `json:"observaciones,omitempty"`
}

// PeriodUpdate changes a period. Nil and empty fields are left alone.
type PeriodUpdate struct {
	Name           string      `json:"nombre,omitempty"`
	Code           string      `json:"codigo,omitempty"`
	StartDate      string      `json:"fechaInicio,omitempty"`
	EndDate        string      `json:"fechaFin,omitempty"`
	AvailableSeats *int        `json:"cuposDisponibles,omitempty" validate:"omitempty,gte=0"`
	State          PeriodState `json:"estado,omitempty" validate:"omitempty,oneof=planificado inscripciones_abiertas en_curso finalizado cancelado"`
	Schedule       string      `json:"horario,omitempty"`
	MainTeachers   []string    `json:"docentesPrincipales,omitempty"`
	Notes          string      `json:"observaciones,omitempty"`
}

// Periods returns every period, or only those of courseID when it is not empty.
func (s *AdminService) Periods(ctx context.Context, courseID string) ([]Period, error) {
	r := request{method: http.MethodGet, path: "/periodos"}
	if courseID != "" {
		r.query = url.Values{"cursoId": {courseID}}
	}
	var out []Period
	err := s.client.call(ctx, r, &out)
	return out, err
}

// CreatePeriod opens a new period.
func (s *AdminService) CreatePeriod(ctx context.Context, in PeriodInput) (*Period, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var p Period
	if err := s.client.call(ctx, request{method: http.MethodPost, path: "/periodos", body: in}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePeriod changes a period.
func (s *AdminService) UpdatePeriod(ctx context.Context, id string, in PeriodUpdate) (*Period, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var p Period
	if err := s.client.call(ctx, request{method: http.MethodPut, path: pathID("/periodos", id), body: in}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePeriod removes a period.
func (s *AdminService) DeletePeriod(ctx context.Context, id string) (*Message, error) {
	return s.delete(ctx, pathID("/periodos", id))
}

func (s *AdminService) delete(ctx context.Context, path string) (*Message, error) {
	var msg Message
	if err := s.client.call(ctx, request{method: http.MethodDelete, path: path}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
