package client

import (
	"context"
	"net/http"
	"net/url"
)

// CourseService reads the public catalogue.
type CourseService service

// ListActive returns the courses currently offered. No login needed.
func (s *CourseService) ListActive(ctx context.Context) ([]Course, error) {
	var courses []Course
	err := s.client.call(ctx, request{method: http.MethodGet, path: "/cursos/activos", public: true}, &courses)
	return courses, err
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, id string) (*Course, error) {
	var course Course
	if err := s.client.call(ctx, request{method: http.MethodGet, path: pathID("/cursos", id)}, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Periods returns the periods of a course.
func (s *CourseService) Periods(ctx context.Context, courseID string) ([]Period, error) {
	var periods []Period
	err := s.client.call(ctx, request{
		method: http.MethodGet,
		path:   "/periodos",
		query:  url.Values{"cursoId": {courseID}},
	}, &periods)
	return periods, err
}
