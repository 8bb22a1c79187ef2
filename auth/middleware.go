package auth

import (
	"log/slog"
	"net/http"
)

// ClaimsMiddleware decodes the caller's token, if any, and stores its claims in the
// request context. The token is looked up in the Authorization header first and in
// the auth_token cookie second.
//
// Nothing is ever rejected here: a missing or undecodable token just leaves the
// context without claims and the request continues to the backend, which is the
// only party that decides whether the caller is allowed in.
func ClaimsMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := ParseUnverified(token)
			if err != nil {
				logger.Debug("ignoring undecodable token", slog.String("path", r.URL.Path), slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithClaims(r.Context(), claims)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if token := BearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if c, err := r.Cookie(TokenCookieName); err == nil {
		return c.Value
	}
	return ""
}
