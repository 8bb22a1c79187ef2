package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/academia-go/auth"
)

// fakeAPI is a stand-in for the proxy: routes are "METHOD /path" keys.
type fakeAPI struct {
	t      *testing.T
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	seen   []*http.Request
	bodies [][]byte
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	f := &fakeAPI{t: t, routes: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.seen = append(f.seen, r.Clone(context.Background()))
		f.bodies = append(f.bodies, body)
		h, ok := f.routes[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
			return
		}
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) on(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" /api"+path] = h
}

func (f *fakeAPI) last() (*http.Request, []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(f.t, f.seen, "no request reached the API")
	return f.seen[len(f.seen)-1], f.bodies[len(f.bodies)-1]
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondJSON(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { writeJSON(w, status, v) }
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	c, err := New(srv.URL+"/api/", opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("localhost:3000/api")
	assert.Error(t, err)

	_, err = New("ftp://example.com/api")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodPost, "/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "cookie-token", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]any{
			"token":   "body-token",
			"usuario": map[string]any{"id": "u1", "nombres": "Ana", "apellidos": "Pérez", "email": "ana@example.com", "rol": "administrador"},
		})
	})
	api.on(http.MethodGet, "/profile", respondJSON(http.StatusOK, map[string]any{"_id": "u1", "nombres": "Ana", "rol": "administrador"}))

	c := newTestClient(t, srv)
	resp, err := c.Auth.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "secret"})
	require.NoError(t, err)

	req, body := api.last()
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Empty(t, req.Header.Get("Authorization"), "login is a public call")
	assert.JSONEq(t, `{"email":"ana@example.com","password":"secret"}`, string(body))

	assert.Equal(t, "body-token", resp.Token)
	assert.Equal(t, auth.RoleAdmin, resp.User.Role)
	assert.Equal(t, "u1", resp.User.Identifier())
	assert.Equal(t, "Ana Pérez", resp.User.FullName())

	user, err := c.Auth.CurrentUser()
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, auth.RoleAdmin, user.Role)

	// The backend's cookie wins over the token kept in the session.
	assert.Equal(t, "cookie-token", c.Token())

	profile, err := c.Profile.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, profile.Role)

	req, _ = api.last()
	assert.Equal(t, "Bearer cookie-token", req.Header.Get("Authorization"))
	cookie, err := req.Cookie("auth_token")
	require.NoError(t, err)
	assert.Equal(t, "cookie-token", cookie.Value)
}

func TestToken_FallsBackToSession(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodGet, "/matriculas/estudiante", respondJSON(http.StatusOK, []any{}))

	store := NewMemoryStore()
	require.NoError(t, store.Save(&Session{Token: "stored"}))

	c := newTestClient(t, srv, WithSession(store))
	enrollments, err := c.Student.Enrollments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, enrollments)

	req, _ := api.last()
	assert.Equal(t, "Bearer stored", req.Header.Get("Authorization"))
	_, err = req.Cookie("auth_token")
	assert.ErrorIs(t, err, http.ErrNoCookie)

	resumed, err := c.Auth.Resume()
	require.NoError(t, err)
	assert.True(t, resumed)

	_, err = c.Student.Enrollments(context.Background())
	require.NoError(t, err)
	req, _ = api.last()
	cookie, err := req.Cookie("auth_token")
	require.NoError(t, err)
	assert.Equal(t, "stored", cookie.Value)
}

func TestLogout(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodPost, "/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "tok", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"token": "tok", "usuario": map[string]any{"id": "u1", "rol": "estudiante"}})
	})

	c := newTestClient(t, srv)
	_, err := c.Auth.Login(context.Background(), LoginInput{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)
	require.Equal(t, "tok", c.Token())

	require.NoError(t, c.Auth.Logout())
	assert.Empty(t, c.Token())
	user, err := c.Auth.CurrentUser()
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestHandleResponse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantStatus  int
		wantMessage string
	}{
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, "<html>bad gateway</html>")
			},
			wantStatus:  http.StatusBadGateway,
			wantMessage: "server response is not valid JSON",
		},
		{
			name:        "message field",
			handler:     respondJSON(http.StatusBadRequest, map[string]string{"message": "Curso no encontrado", "error": "ignored"}),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Curso no encontrado",
		},
		{
			name:        "error field",
			handler:     respondJSON(http.StatusInternalServerError, map[string]string{"error": "Failed to connect to backend"}),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Failed to connect to backend",
		},
		{
			name:        "no message",
			handler:     respondJSON(http.StatusForbidden, map[string]int{"code": 7}),
			wantStatus:  http.StatusForbidden,
			wantMessage: "request failed",
		},
		{
			name: "unparseable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, "{oops")
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, srv := newFakeAPI(t)
			api.on(http.MethodGet, "/cursos/c1", tt.handler)
			c := newTestClient(t, srv)

			_, err := c.Courses.Get(context.Background(), "c1")

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.True(t, IsStatus(err, tt.wantStatus))
		})
	}
}

func TestValidation_RejectsBeforeSending(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(t, srv)

	_, err := c.Auth.Login(context.Background(), LoginInput{Email: "not-an-email"})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("email"))
	assert.True(t, verr.Has("password"))
	assert.False(t, verr.Has("nombres"))
	assert.Contains(t, err.Error(), "email: email")

	_, err = c.Cart.Checkout(context.Background(), CheckoutInput{PaymentMethod: "bitcoin"})
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("metodoPago"))

	assert.Zero(t, api.count())
}

func TestRegister_SendsBackendRole(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodPost, "/register", respondJSON(http.StatusCreated, map[string]any{
		"token": "t", "usuario": map[string]any{"id": "u9", "rol": "administrador"},
	}))
	c := newTestClient(t, srv)

	resp, err := c.Auth.Register(context.Background(), RegisterInput{
		FirstNames: "Luis", LastNames: "Mora", Email: "luis@example.com",
		NationalID: "0102030405", Phone: "0999999999", Password: "secreto", Role: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, resp.User.Role)

	_, body := api.last()
	var sent map[string]any
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, "administrador", sent["rol"])
	assert.NotContains(t, sent, "avatar")
}

func TestCart(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodGet, "/carrito", respondJSON(http.StatusOK, map[string]any{
		"items": []any{
			map[string]any{"_id": "i1", "cursoId": map[string]any{"_id": "c1", "nombre": "Barbería básica", "precio": 120.5}, "periodoId": "p1"},
			map[string]any{"_id": "i2", "cursoId": "c2", "periodoId": map[string]any{"_id": "p9", "nombre": "Marzo"}},
		},
	}))
	api.on(http.MethodGet, "/cursos/c2", respondJSON(http.StatusOK, map[string]any{"_id": "c2", "nombre": "Fade avanzado", "precio": 79.5}))
	api.on(http.MethodGet, "/periodos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "c1", r.URL.Query().Get("cursoId"))
		writeJSON(w, http.StatusOK, []any{
			map[string]any{"_id": "p0", "nombre": "Enero"},
			map[string]any{"_id": "p1", "nombre": "Febrero", "cursoId": "c1"},
		})
	})
	c := newTestClient(t, srv)

	lines, err := c.Cart.Lines(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "Barbería básica", lines[0].Course.Name)
	require.NotNil(t, lines[0].Period)
	assert.Equal(t, "Febrero", lines[0].Period.Name)
	assert.Equal(t, "Fade avanzado", lines[1].Course.Name)
	assert.Equal(t, "Marzo", lines[1].Period.Name)

	assert.InDelta(t, 200.0, lines.Total(), 1e-9)
	assert.Equal(t, "$200.00", FormatPrice(lines.Total()))
}

func TestCart_ItemsMissingIsEmpty(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodGet, "/carrito", respondJSON(http.StatusOK, map[string]any{}))
	c := newTestClient(t, srv)

	items, err := c.Cart.Items(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCart_LinesKeepUnresolvedItems(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodGet, "/carrito", respondJSON(http.StatusOK, map[string]any{
		"items": []any{
			map[string]any{"_id": "i1", "cursoId": map[string]any{"_id": "c1", "nombre": "Barbería básica", "precio": 100}, "periodoId": map[string]any{"_id": "p1", "nombre": "Enero"}},
			map[string]any{"_id": "i2", "cursoId": "deleted-course", "periodoId": "p5"},
		},
	}))
	c := newTestClient(t, srv)

	lines, err := c.Cart.Lines(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	require.NotNil(t, lines[0].Course)
	assert.Equal(t, "Enero", lines[0].Period.Name)

	assert.Equal(t, "i2", lines[1].Item.ID)
	assert.Equal(t, "deleted-course", lines[1].Item.Course.ID)
	assert.Nil(t, lines[1].Course)
	assert.Nil(t, lines[1].Period)

	assert.InDelta(t, 100.0, lines.Total(), 1e-9)
}

func TestCart_LinesFailWhenCartFails(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := newTestClient(t, srv)

	lines, err := c.Cart.Lines(context.Background())
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Nil(t, lines)
}

func TestCart_AddRemoveCheckout(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodPost, "/carrito/items", respondJSON(http.StatusOK, Message{Message: "added"}))
	api.on(http.MethodDelete, "/carrito/items/i 1", respondJSON(http.StatusOK, Message{Message: "removed"}))
	api.on(http.MethodPost, "/carrito/checkout", respondJSON(http.StatusOK, map[string]any{
		"message":    "ok",
		"matriculas": []any{map[string]any{"_id": "m1", "estado": "pendiente", "periodoId": "p1"}},
	}))
	c := newTestClient(t, srv)
	ctx := context.Background()

	msg, err := c.Cart.AddItem(ctx, AddCartItemInput{CourseID: "c1", PeriodID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "added", msg.Message)
	_, body := api.last()
	assert.JSONEq(t, `{"cursoId":"c1","periodoId":"p1"}`, string(body))

	msg, err = c.Cart.RemoveItem(ctx, "i 1")
	require.NoError(t, err)
	assert.Equal(t, "removed", msg.Message)
	req, _ := api.last()
	assert.Equal(t, "/api/carrito/items/i%201", req.URL.EscapedPath())

	res, err := c.Cart.Checkout(ctx, CheckoutInput{PaymentMethod: PaymentTransfer})
	require.NoError(t, err)
	require.Len(t, res.Enrollments, 1)
	assert.Equal(t, EnrollmentPending, res.Enrollments[0].State)
	assert.Equal(t, "p1", res.Enrollments[0].Period.ID)
}

func TestAdmin_CreateCourseIsMultipart(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodPost, "/cursos", respondJSON(http.StatusCreated, map[string]any{"_id": "c7", "nombre": "Colorimetría"}))
	c := newTestClient(t, srv)

	course, err := c.Admin.CreateCourse(context.Background(), CourseInput{
		Name: "Colorimetría", Code: "COL-1", Description: "Teoría del color",
		DurationWeeks: 6, Level: LevelIntermediate, Price: 99.9, MaxSeats: 12,
		Objectives: []string{"Mezclas", "Tonos"},
		Image:      &File{Name: "color.png", Content: strings.NewReader("png-bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, "c7", course.ID)

	req, body := api.last()
	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	form, err := multipart.NewReader(strings.NewReader(string(body)), params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"Colorimetría"}, form.Value["nombre"])
	assert.Equal(t, []string{"99.9"}, form.Value["precio"])
	assert.Equal(t, []string{"6"}, form.Value["duracionSemanas"])
	assert.Equal(t, []string{"Mezclas", "Tonos"}, form.Value["objetivos"])
	assert.NotContains(t, form.Value, "requisitos")
	require.Len(t, form.File["imagen"], 1)
	assert.Equal(t, "color.png", form.File["imagen"][0].Filename)
}

func TestAdmin_UpdateCourseSendsOnlySetFields(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodPut, "/cursos/c7", respondJSON(http.StatusOK, map[string]any{"_id": "c7"}))
	c := newTestClient(t, srv)

	active := false
	price := 50.0
	_, err := c.Admin.UpdateCourse(context.Background(), "c7", CourseUpdate{Active: &active, Price: &price})
	require.NoError(t, err)

	req, body := api.last()
	_, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	require.NoError(t, err)
	form, err := multipart.NewReader(strings.NewReader(string(body)), params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"activo": {"false"}, "precio": {"50"}}, form.Value)
}

func TestAdmin_UsersByRole(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodGet, "/usuarios", respondJSON(http.StatusOK, []any{
		map[string]any{"_id": "u1", "rol": "administrador"},
	}))
	c := newTestClient(t, srv)

	users, err := c.Admin.Users(context.Background(), auth.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, auth.RoleAdmin, users[0].Role)

	req, _ := api.last()
	assert.Equal(t, "administrador", req.URL.Query().Get("rol"))

	_, err = c.Admin.Users(context.Background(), "")
	require.NoError(t, err)
	req, _ = api.last()
	assert.Empty(t, req.URL.RawQuery)
}

func TestTeacher_ToggleAttendance(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodGet, "/clases", respondJSON(http.StatusOK, []any{
		map[string]any{"_id": "k1", "titulo": "Degradados", "asistencia": []any{
			map[string]any{"estudianteId": "s1", "presente": false},
			map[string]any{"estudianteId": map[string]any{"_id": "s2", "nombres": "Eva"}, "presente": true},
		}},
	}))
	api.on(http.MethodPut, "/clases/k1", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"_id":"k1","asistencia":`+string(extractField(t, body, "asistencia"))+`}`)
	})
	c := newTestClient(t, srv)

	class, err := c.Teacher.ToggleAttendance(context.Background(), "k1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, class.PresentCount())

	_, body := api.last()
	assert.JSONEq(t, `{"asistencia":[{"estudianteId":"s1","presente":true},{"estudianteId":"s2","presente":true}]}`, string(body))

	_, err = c.Teacher.ToggleAttendance(context.Background(), "k1", "nobody")
	assert.True(t, IsStatus(err, http.StatusNotFound))

	_, err = c.Teacher.ToggleAttendance(context.Background(), "missing", "s1")
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func extractField(t *testing.T, body []byte, field string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return m[field]
}

func TestProfile_UpdateAvatar(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on(http.MethodPost, "/avatar", respondJSON(http.StatusOK, map[string]any{
		"message": "ok", "user": map[string]any{"id": "u1", "avatar": "/uploads/avatars/u1.png"},
	}))
	c := newTestClient(t, srv)

	res, err := c.Profile.UpdateAvatar(context.Background(), File{Name: "me.png", Content: strings.NewReader("img")})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/u1.png", res.User.Avatar)

	req, _ := api.last()
	assert.True(t, strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data; boundary="))

	_, err = c.Profile.UpdateAvatar(context.Background(), File{Name: "empty.png"})
	assert.Error(t, err)
}
