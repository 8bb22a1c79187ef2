package client

import (
	"context"
	"net/http"
)

// StudentService covers the student dashboard.
type StudentService service

// Profile returns the academic profile of the logged-in student.
func (s *StudentService) Profile(ctx context.Context) (*StudentProfile, error) {
	var p StudentProfile
	if err := s.client.call(ctx, request{method: http.MethodGet, path: "/profile"}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// StudentProfileUpdate holds the editable parts of a student profile.
type StudentProfileUpdate struct {
	Address          string            `json:"direccion,omitempty"`
	BirthDate        string            `json:"fechaNacimiento,omitempty"`
	EmergencyContact *EmergencyContact `json:"contactoEmergencia,omitempty"`
}

// UpdateProfile changes the logged-in student's profile.
func (s *StudentService) UpdateProfile(ctx context.Context, in StudentProfileUpdate) (*StudentProfile, error) {
	var p StudentProfile
	if err := s.client.call(ctx, request{method: http.MethodPut, path: "/profile", body: in}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Enrollments returns the logged-in student's enrollments.
func (s *StudentService) Enrollments(ctx context.Context) ([]Enrollment, error) {
	var out []Enrollment
	err := s.client.call(ctx, request{method: http.MethodGet, path: "/matriculas/estudiante"}, &out)
	return out, err
}

// Classes returns the classes visible to the logged-in student.
func (s *StudentService) Classes(ctx context.Context) ([]Class, error) {
	var out []Class
	err := s.client.call(ctx, request{method: http.MethodGet, path: "/clases"}, &out)
	return out, err
}
