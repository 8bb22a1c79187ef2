// Package auth holds the little authentication knowledge this service needs.
// The proxy never authenticates anyone itself: the backend owns identities and tokens.
// What lives here is reading a caller's bearer token so requests can be attributed in
// logs, plus role handling shared with the client session.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCookieName is the cookie the backend uses to carry the session token.
const TokenCookieName = "auth_token"

// ErrNoToken is returned when a request carries no bearer token at all.
var ErrNoToken = errors.New("no bearer token")

// Claims is the subset of the backend's JWT payload that this service understands.
// The backend is free to name its claims as it likes, so several common spellings
// are accepted when the token is decoded.
type Claims struct {
	Subject   string
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// Expired reports whether the token's expiry is known and at or before now.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// parser only decodes. Signatures are the backend's business, and the token is
// forwarded to it untouched.
var parser = jwt.NewParser()

// ParseUnverified decodes a JWT without checking its signature or expiry.
// The result must only be used for attribution (logs, UI hints), never for access decisions.
func ParseUnverified(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoToken
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, mapClaims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}

	claims := &Claims{
		Subject: firstString(mapClaims, "id", "_id", "userId", "user_id", "uid", "sub"),
		Email:   firstString(mapClaims, "email"),
		Role:    NormalizeRole(firstString(mapClaims, "rol", "role")),
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" when the header is empty or uses another scheme.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		v, ok := claims[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", s)
		default:
			return fmt.Sprint(s)
		}
	}
	return ""
}
