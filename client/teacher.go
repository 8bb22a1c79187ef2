package client

import (
	"context"
	"net/http"
)

// TeacherService covers the teacher dashboard.
type TeacherService service

// TeacherProfileUpdate holds the editable parts of a teacher profile.
type TeacherProfileUpdate struct {
	Specialty       string          `json:"especialidad,omitempty"`
	YearsExperience *int            `json:"añosExperiencia,omitempty" validate:"omitempty,gte=0"`
	Certifications  []Certification `json:"certificaciones,omitempty"`
	Availability    []Availability  `json:"horarioDisponible,omitempty"`
}

// Profile returns the logged-in teacher's profile.
func (s *TeacherService) Profile(ctx context.Context) (*TeacherProfile, error) {
	var p TeacherProfile
	if err := s.client.call(ctx, request{method: http.MethodGet, path: "/docentes/profile"}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile changes the logged-in teacher's profile.
func (s *TeacherService) UpdateProfile(ctx context.Context, in TeacherProfileUpdate) (*TeacherProfile, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var p TeacherProfile
	if err := s.client.call(ctx, request{method: http.MethodPut, path: "/docentes/profile", body: in}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Classes returns the classes assigned to the logged-in teacher.
func (s *TeacherService) Classes(ctx context.Context) ([]Class, error) {
	var out []Class
	err := s.client.call(ctx, request{method: http.MethodGet, path: "/clases"}, &out)
	return out, err
}

// ClassUpdate holds the class fields to change. Empty fields are left alone.
type ClassUpdate struct {
	Title       string             `json:"titulo,omitempty"`
	Description string             `json:"descripcion,omitempty"`
	Date        string             `json:"fecha,omitempty"`
	StartTime   string             `json:"horaInicio,omitempty"`
	EndTime     string             `json:"horaFin,omitempty"`
	Location    string             `json:"ubicacion,omitempty"`
	Modality    ClassModality      `json:"modalidad,omitempty" validate:"omitempty,oneof=presencial virtual hibrida"`
	VirtualLink string             `json:"enlaceVirtual,omitempty" validate:"omitempty,url"`
	Materials   []string           `json:"materialesClase,omitempty"`
	State       ClassState         `json:"estado,omitempty" validate:"omitempty,oneof=programada en_curso finalizada cancelada"`
	Attendance  []AttendanceRecord `json:"asistencia,omitempty"`
	Notes       string             `json:"observaciones,omitempty"`
}

// UpdateClass saves changes to a class, typically after attendance was taken.
func (s *TeacherService) UpdateClass(ctx context.Context, id string, in ClassUpdate) (*Class, error) {
	return updateClass(ctx, s.client, id, in)
}

func updateClass(ctx context.Context, c *Client, id string, in ClassUpdate) (*Class, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	var out Class
	if err := c.call(ctx, request{method: http.MethodPut, path: pathID("/clases", id), body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleAttendance flips one student's presence in a class and saves the class.
// An unknown class or student is reported as a 404 *APIError without saving anything.
func (s *TeacherService) ToggleAttendance(ctx context.Context, classID, studentID string) (*Class, error) {
	classes, err := s.Classes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range classes {
		if classes[i].ID != classID {
			continue
		}
		if !classes[i].ToggleAttendance(studentID) {
			return nil, &APIError{Status: http.StatusNotFound, Message: "student " + studentID + " is not on the class list"}
		}
		return s.UpdateClass(ctx, classID, ClassUpdate{Attendance: classes[i].Attendance})
	}
	return nil, &APIError{Status: http.StatusNotFound, Message: "class " + classID + " not found"}
}
