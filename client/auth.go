package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/user/academia-go/auth"
)

// AuthService logs users in and out.
type AuthService service

// LoginInput are the credentials for Login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is a new account. Role accepts the normalized "admin" spelling too.
type RegisterInput struct {
	FirstNames string `json:"nombres" validate:"required"`
	LastNames  string `json:"apellidos" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	NationalID string `json:"cedula" validate:"required"`
	Phone      string `json:"telefono" validate:"required"`
	Password   string `json:"password" validate:"required,min=6"`
	Role       string `json:"rol" validate:"required,oneof=estudiante docente administrador"`
	Avatar     string `json:"avatar,omitempty"`
}

// Login authenticates and stores the resulting session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResponse, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, "/login", in)
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	in.Role = auth.NormalizeRole(in.Role).BackendRole()
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, "/register", in)
}

func (s *AuthService) authenticate(ctx context.Context, path string, body any) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.client.call(ctx, request{method: http.MethodPost, path: path, body: body, public: true}, &resp); err != nil {
		return nil, err
	}
	resp.User.normalize()

	user := resp.User
	if err := s.client.session.Save(&Session{Token: resp.Token, User: &user}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &resp, nil
}

// Logout forgets the token and user. The backend keeps no session to end.
func (s *AuthService) Logout() error {
	s.client.clearCookie()
	return s.client.session.Clear()
}

// CurrentUser returns the logged-in user, or nil when nobody is.
func (s *AuthService) CurrentUser() (*User, error) {
	sess, err := s.client.session.Load()
	if err != nil || sess == nil {
		return nil, err
	}
	return sess.User, nil
}

// Resume makes a stored session usable again, e.g. in a new process: the token
// goes back into the cookie jar. It reports whether there was a session.
func (s *AuthService) Resume() (bool, error) {
	sess, err := s.client.session.Load()
	if err != nil {
		return false, err
	}
	if sess == nil || sess.Token == "" {
		return false, nil
	}
	s.client.restoreCookie(sess.Token)
	return true, nil
}
