// Package server assembles the HTTP surface: middleware, the /api proxy, health
// and API docs.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/academia-go/apperror"
	"github.com/user/academia-go/auth"
	"github.com/user/academia-go/background"
	_ "github.com/user/academia-go/docs" // registers the Swagger spec
	"github.com/user/academia-go/proxy"
)

// Deps are the handlers and settings the router is built from.
type Deps struct {
	Proxy          *proxy.Handler
	Health         *background.HealthMonitor
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewRouter returns the root handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// chi requires all middleware before any route.
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(recoverJSON(d.Logger))
	r.Use(auth.ClaimsMiddleware(d.Logger))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Method(http.MethodGet, "/healthz", d.Health)
	r.Get("/healthz/events", d.Health.ServeEvents)
	r.Route("/api", d.Proxy.RegisterRoutes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperror.Write(w, apperror.NewNotFoundError("Not found"))
	})
	return r
}

// RequestID gives every request a UUID, or keeps the one the caller sent in
// X-Request-Id, stores it where chi's middleware.GetReqID finds it and echoes it back.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverJSON turns a panic into the standard JSON error body.
func recoverJSON(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic while serving request",
						slog.String("path", r.URL.Path),
						slog.String("request_id", middleware.GetReqID(r.Context())),
						slog.Any("panic", rvr),
					)
					apperror.Write(w, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
