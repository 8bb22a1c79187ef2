package client

import (
	"context"
	"errors"
	"net/http"
)

// ProfileService reads and edits the logged-in account.
type ProfileService service

// ProfileUpdate holds the account fields a user may change. Empty fields are left alone.
type ProfileUpdate struct {
	FirstNames string `json:"nombres,omitempty"`
	LastNames  string `json:"apellidos,omitempty"`
	Phone      string `json:"telefono,omitempty"`
	Password   string `json:"password,omitempty" validate:"omitempty,min=6"`
	Avatar     string `json:"avatar,omitempty"`
}

// AvatarResult is the answer to an avatar upload.
type AvatarResult struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// Get returns the logged-in account.
func (s *ProfileService) Get(ctx context.Context) (*User, error) {
	var u User
	if err := s.client.call(ctx, request{method: http.MethodGet, path: "/profile"}, &u); err != nil {
		return nil, err
	}
	u.normalize()
	return &u, nil
}

// Update changes the logged-in account.
func (s *ProfileService) Update(ctx context.Context, in ProfileUpdate) (*User, error) {
	if err := s.client.check(in); err != nil {
		return nil, err
	}
	var u User
	if err := s.client.call(ctx, request{method: http.MethodPut, path: "/profile", body: in}, &u); err != nil {
		return nil, err
	}
	u.normalize()
	return &u, nil
}

// UpdateAvatar uploads a new avatar image.
func (s *ProfileService) UpdateAvatar(ctx context.Context, file File) (*AvatarResult, error) {
	if file.Content == nil {
		return nil, errors.New("avatar file has no content")
	}
	form := NewForm().Attach("avatar", &file)

	var res AvatarResult
	if err := s.client.call(ctx, request{method: http.MethodPost, path: "/avatar", body: form}, &res); err != nil {
		return nil, err
	}
	res.User.normalize()
	return &res, nil
}
