package client

import (
	"context"
	"net/http"
)

// EnrollmentService is the admin view of enrollments (matrículas).
type EnrollmentService service

// CreateEnrollmentInput enrolls a student directly, without a cart.
type CreateEnrollmentInput struct {
	StudentID     string  `json:"estudianteId" validate:"required"`
	PeriodID      string  `json:"periodoId" validate:"required"`
	PaymentMethod string  `json:"metodoPago" validate:"required"`
	AmountPaid    float64 `json:"montoPagado" validate:"gte=0"`
	Discount      float64 `json:"descuento,omitempty" validate:"gte=0"`
	Notes         string  `json:"observaciones,omitempty"`
}

// UpdateEnrollmentInput changes an enrollment. Zero fields are left alone.
type UpdateEnrollmentInput struct {
	State         EnrollmentState `json:"estado,omitempty" validate:"omitempty,oneof=pendiente pagada completada cancelada activa suspendida retirada"`
	AmountPending *float64        `json:"montoPendiente,omitempty" validate:"omitempty,gte=0"`
	Notes         string          `json:"observaciones,omitempty"`
}

// Create enrolls a student in a period.
func (s *EnrollmentService) Create(ctx context.Context, in CreateEnrollmentInput) (*Enrollment, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var e Enrollment
	if err := s.client.call(ctx, request{method: http.MethodPost, path: "/matriculas", body: in}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns every enrollment.
func (s *EnrollmentService) List(ctx context.Context) ([]Enrollment, error) {
	var out []Enrollment
	err := s.client.call(ctx, request{method: http.MethodGet, path: "/matriculas"}, &out)
	return out, err
}

// Get returns one enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*Enrollment, error) {
	var e Enrollment
	if err := s.client.call(ctx, request{method: http.MethodGet, path: pathID("/matriculas", id)}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update changes an enrollment's state, pending amount or notes.
func (s *EnrollmentService) Update(ctx context.Context, id string, in UpdateEnrollmentInput) (*Enrollment, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var e Enrollment
	if err := s.client.call(ctx, request{method: http.MethodPut, path: pathID("/matriculas", id), body: in}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id string) (*Message, error) {
	var msg Message
	if err := s.client.call(ctx, request{method: http.MethodDelete, path: pathID("/matriculas", id)}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
