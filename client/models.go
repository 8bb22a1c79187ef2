package client

import (
	"github.com/user/academia-go/auth"
)

// CourseLevel is a course difficulty.
type CourseLevel string

const (
	LevelBasic        CourseLevel = "basico"
	LevelIntermediate CourseLevel = "intermedio"
	LevelAdvanced     CourseLevel = "avanzado"
)

// PeriodState is where a period is in its lifecycle.
type PeriodState string

const (
	PeriodPlanned        PeriodState = "planificado"
	PeriodEnrollmentOpen PeriodState = "inscripciones_abiertas"
	PeriodInProgress     PeriodState = "en_curso"
	PeriodFinished       PeriodState = "finalizado"
	PeriodCancelled      PeriodState = "cancelado"
)

// EnrollmentState is the payment and attendance state of an enrollment.
type EnrollmentState string

const (
	EnrollmentPending   EnrollmentState = "pendiente"
	EnrollmentPaid      EnrollmentState = "pagada"
	EnrollmentCompleted EnrollmentState = "completada"
	EnrollmentCancelled EnrollmentState = "cancelada"
	EnrollmentActive    EnrollmentState = "activa"
	EnrollmentSuspended EnrollmentState = "suspendida"
	EnrollmentWithdrawn EnrollmentState = "retirada"
)

// ClassModality is how a class is held.
type ClassModality string

const (
	ModalityOnSite  ClassModality = "presencial"
	ModalityVirtual ClassModality = "virtual"
	ModalityHybrid  ClassModality = "hibrida"
)

// ClassState is the state of a single class session.
type ClassState string

const (
	ClassScheduled  ClassState = "programada"
	ClassInProgress ClassState = "en_curso"
	ClassFinished   ClassState = "finalizada"
	ClassCancelled  ClassState = "cancelada"
)

// StudentState is the academic state of a student.
type StudentState string

const (
	StudentActive    StudentState = "activo"
	StudentInactive  StudentState = "inactivo"
	StudentGraduated StudentState = "graduado"
	StudentWithdrawn StudentState = "retirado"
)

// PaymentMethod is accepted at checkout.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "efectivo"
	PaymentTransfer PaymentMethod = "transferencia"
	PaymentCard     PaymentMethod = "tarjeta"
)

// User is an account as returned by login and the admin user listing.
// Role is normalized: "administrador" reads as auth.RoleAdmin.
type User struct {
	ID           string    `json:"_id,omitempty"`
	AltID        string    `json:"id,omitempty"`
	FirstNames   string    `json:"nombres"`
	LastNames    string    `json:"apellidos"`
	Email        string    `json:"email"`
	Role         auth.Role `json:"rol"`
	NationalID   string    `json:"cedula,omitempty"`
	Phone        string    `json:"telefono,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	Active       *bool     `json:"activo,omitempty"`
	RegisteredAt string    `json:"fechaRegistro,omitempty"`
	LastAccessAt string    `json:"ultimoAcceso,omitempty"`
}

// Identifier returns whichever id the backend filled in.
func (u User) Identifier() string {
	if u.ID != "" {
		return u.ID
	}
	return u.AltID
}

// FullName joins first and last names.
func (u User) FullName() string {
	switch {
	case u.FirstNames == "":
		return u.LastNames
	case u.LastNames == "":
		return u.FirstNames
	default:
		return u.FirstNames + " " + u.LastNames
	}
}

func (u *User) normalize() {
	u.Role = auth.NormalizeRole(string(u.Role))
}

// AuthResponse is the answer to login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"usuario"`
}

// Course is a course in the catalogue.
type Course struct {
	ID            string      `json:"_id"`
	Name          string      `json:"nombre"`
	Code          string      `json:"codigo"`
	Description   string      `json:"descripcion"`
	DurationWeeks int         `json:"duracionSemanas"`
	Level         CourseLevel `json:"nivel"`
	Price         float64     `json:"precio"`
	Image         string      `json:"imagen,omitempty"`
	MaxSeats      int         `json:"cupoMaximo"`
	Objectives    []string    `json:"objetivos"`
	Requirements  []string    `json:"requisitos"`
	Active        *bool       `json:"activo,omitempty"`
}

// Period is one run of a course, the unit students enroll in.
type Period struct {
	ID             string      `json:"_id"`
	Course         Ref         `json:"cursoId"`
	Name           string      `json:"nombre"`
	Code           string      `json:"codigo"`
	StartDate      string      `json:"fechaInicio"`
	EndDate        string      `json:"fechaFin"`
	AvailableSeats int         `json:"cuposDisponibles"`
	State          PeriodState `json:"estado"`
	MainTeachers   []Ref       `json:"docentesPrincipales"`
	Schedule       string      `json:"horario"`
	Notes          string      `json:"observaciones,omitempty"`
}

// OpenForEnrollment reports whether students can still sign up.
func (p Period) OpenForEnrollment() bool {
	return p.State == PeriodEnrollmentOpen && p.AvailableSeats > 0
}

// Module is a unit of a course's syllabus.
type Module struct {
	ID            string   `json:"_id"`
	Course        Ref      `json:"cursoId"`
	Name          string   `json:"nombre"`
	Number        int      `json:"numeroModulo"`
	Description   string   `json:"descripcion"`
	DurationHours float64  `json:"duracionHoras"`
	Objectives    []string `json:"objetivos,omitempty"`
	Order         int      `json:"orden"`
}

// AttendanceRecord is one student's attendance to a class.
type AttendanceRecord struct {
	Student Ref    `json:"estudianteId"`
	Present bool   `json:"presente"`
	Notes   string `json:"observaciones,omitempty"`
}

// Class is one scheduled session of a period's module.
type Class struct {
	ID          string             `json:"_id"`
	Period      Ref                `json:"periodoId"`
	Module      Ref                `json:"moduloId"`
	Teacher     Ref                `json:"docenteId"`
	Title       string             `json:"titulo"`
	Description string             `json:"descripcion"`
	Date        string             `json:"fecha"`
	StartTime   string             `json:"horaInicio"`
	EndTime     string             `json:"horaFin"`
	Location    string             `json:"ubicacion"`
	Modality    ClassModality      `json:"modalidad"`
	VirtualLink string             `json:"enlaceVirtual,omitempty"`
	Materials   []string           `json:"materialesClase"`
	State       ClassState         `json:"estado"`
	Attendance  []AttendanceRecord `json:"asistencia"`
	Notes       string             `json:"observaciones,omitempty"`
}

// ToggleAttendance flips the presence of studentID and reports whether the
// student is on the class list at all.
func (c *Class) ToggleAttendance(studentID string) bool {
	for i := range c.Attendance {
		if c.Attendance[i].Student.ID == studentID {
			c.Attendance[i].Present = !c.Attendance[i].Present
			return true
		}
	}
	return false
}

// PresentCount is the number of students marked present.
func (c Class) PresentCount() int {
	n := 0
	for _, a := range c.Attendance {
		if a.Present {
			n++
		}
	}
	return n
}

// Document is a file attached to an enrollment.
type Document struct {
	Type string `json:"tipo"`
	URL  string `json:"url"`
}

// Payment is one entry of an enrollment's payment history.
type Payment struct {
	Amount  float64 `json:"monto"`
	Date    string  `json:"fecha"`
	Method  string  `json:"metodoPago"`
	Receipt string  `json:"comprobante,omitempty"`
}

// Enrollment (matrícula) ties a student to a period.
type Enrollment struct {
	ID             string          `json:"_id"`
	Student        Ref             `json:"estudianteId"`
	Period         Ref             `json:"periodoId"`
	State          EnrollmentState `json:"estado"`
	PaymentMethod  string          `json:"metodoPago,omitempty"`
	AmountPaid     float64         `json:"montoPagado"`
	AmountPending  float64         `json:"montoPendiente"`
	Discount       float64         `json:"descuento,omitempty"`
	Notes          string          `json:"observaciones,omitempty"`
	Documents      []Document      `json:"documentos"`
	PaymentHistory []Payment       `json:"historialPagos"`
	CreatedAt      string          `json:"createdAt"`
}

// CartItem is a course period waiting in the cart.
type CartItem struct {
	ID     string `json:"_id,omitempty"`
	Course Ref    `json:"cursoId"`
	Period Ref    `json:"periodoId"`
}

// CartLine is a cart item with its course and period resolved for display.
type CartLine struct {
	Item   CartItem
	Course *Course
	Period *Period
}

// CartLines is the resolved content of a cart.
type CartLines []CartLine

// Total sums the price of every resolved course. Lines whose course could not be
// resolved count as zero.
func (lines CartLines) Total() float64 {
	total := 0.0
	for _, l := range lines {
		if l.Course != nil {
			total += l.Course.Price
		}
	}
	return total
}

// CheckoutResult is the answer to a checkout: one enrollment per cart item.
type CheckoutResult struct {
	Message     string       `json:"message"`
	Enrollments []Enrollment `json:"matriculas"`
}

// EmergencyContact is who to call for a student.
type EmergencyContact struct {
	Name         string `json:"nombre"`
	Phone        string `json:"telefono"`
	Relationship string `json:"relacion"`
}

// CourseHistoryEntry is a past course in a student's record.
type CourseHistoryEntry struct {
	Course    Ref      `json:"cursoId"`
	Period    Ref      `json:"periodoId"`
	StartDate string   `json:"fechaInicio"`
	EndDate   string   `json:"fechaFin"`
	State     string   `json:"estado"`
	Grade     *float64 `json:"calificacion,omitempty"`
}

// StudentProfile is the academic profile attached to a student account.
type StudentProfile struct {
	ID               string               `json:"_id"`
	User             Ref                  `json:"usuarioId"`
	Address          string               `json:"direccion,omitempty"`
	BirthDate        string               `json:"fechaNacimiento,omitempty"`
	EmergencyContact *EmergencyContact    `json:"contactoEmergencia,omitempty"`
	CurrentCourse    *Ref                 `json:"cursoActual,omitempty"`
	CurrentPeriod    *Ref                 `json:"periodoActual,omitempty"`
	State            StudentState         `json:"estado"`
	EnrolledAt       string               `json:"fechaMatricula,omitempty"`
	CourseHistory    []CourseHistoryEntry `json:"historialCursos,omitempty"`
}

// Certification is a teacher's credential.
type Certification struct {
	Name        string `json:"nombre"`
	Institution string `json:"institucion"`
	ObtainedAt  string `json:"fechaObtencion"`
}

// Availability is a weekly time slot a teacher can teach in.
type Availability struct {
	Weekday   string `json:"diaSemana"`
	StartTime string `json:"horaInicio"`
	EndTime   string `json:"horaFin"`
}

// TeacherProfile is the professional profile attached to a teacher account.
type TeacherProfile struct {
	ID              string          `json:"_id"`
	User            Ref             `json:"usuarioId"`
	Specialty       string          `json:"especialidad"`
	YearsExperience int             `json:"añosExperiencia"`
	Certifications  []Certification `json:"certificaciones"`
	Availability    []Availability  `json:"horarioDisponible"`
	Active          bool            `json:"activo"`
	AverageRating   *float64        `json:"calificacionPromedio,omitempty"`
}
