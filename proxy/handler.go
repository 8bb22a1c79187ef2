// Package proxy implements the `/api/*` catch-all that forwards browser and CLI calls
// to the external backend. It is a transparent single-hop shim: one inbound request
// becomes exactly one backend request, with no retries and no state kept between calls.
//
// The contract, per method:
//   - GET and DELETE are forwarded without a body.
//   - POST and PUT bodies are forwarded according to their content type (see body.go).
//   - Only Authorization and Cookie travel from the caller to the backend.
//   - The backend must answer with JSON; anything else becomes a 500 with a preview.
//   - Set-Cookie headers from the backend are handed back to the caller.
//   - Transport failures become a 500 naming the configured backend.
package proxy

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/academia-go/apperror"
	"github.com/user/academia-go/auth"
)

// Options configures a Handler.
type Options struct {
	// Backend is the origin of the external backend, e.g. http://localhost:4000.
	Backend *url.URL
	// Client performs backend requests. Defaults to a client without timeout:
	// a forwarded call lives exactly as long as the inbound request does.
	Client *http.Client
	Logger *slog.Logger
}

// Handler forwards `/api/*` requests to the backend.
type Handler struct {
	backendBase string
	client      *http.Client
	uploads     *httputil.ReverseProxy
	logger      *slog.Logger
}

// NewHandler creates a Handler for the given options.
func NewHandler(opts Options) *Handler {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	h := &Handler{
		backendBase: strings.TrimRight(opts.Backend.String(), "/"),
		client:      opts.Client,
		logger:      opts.Logger.With(slog.String("component", "proxy")),
	}
	h.uploads = h.newUploadsProxy()
	return h
}

// Backend returns the backend origin this handler forwards to.
func (h *Handler) Backend() string {
	return h.backendBase
}

// RegisterRoutes mounts the proxy on a router that is itself mounted at `/api`.
//
//	r.Route("/api", func(r chi.Router) { h.RegisterRoutes(r) })
func (h *Handler) RegisterRoutes(router chi.Router) {
	// Uploaded files are served by the backend outside of /api and are not JSON,
	// so they bypass the JSON contract entirely.
	router.Handle("/uploads/*", http.HandlerFunc(h.Uploads))

	router.Get("/*", h.Forward)
	router.Post("/*", h.Forward)
	router.Put("/*", h.Forward)
	router.Delete("/*", h.Forward)

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apperror.Write(w, apperror.NewMethodNotAllowedError(r.Method))
	})
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperror.Write(w, apperror.NewNotFoundError("Not found"))
	})
}

// Forward handles one `/api/*` request.
//
//	@Summary		Forward to the backend
//	@Description	Forwarded to BACKEND_URL/api/{path} with the query string. Only Authorization and Cookie are passed on. JSON bodies are compacted, multipart bodies re-encoded, anything else passed through. Set-Cookie headers from the backend are returned.
//	@Tags			proxy
//	@Accept			json,mpfd
//	@Produce		json
//	@Param			path	path		string	true	"Backend path"
//	@Success		200		"Backend JSON, status preserved"
//	@Failure		400		{object}	apperror.ErrorResponse	"Invalid JSON or multipart body"
//	@Failure		404		{object}	apperror.ErrorResponse	"Empty path"
//	@Failure		405		{object}	apperror.ErrorResponse	"Method not proxied"
//	@Failure		500		{object}	apperror.ErrorResponse	"Backend unreachable or not JSON"
//	@Router			/api/{path} [get]
//	@Router			/api/{path} [post]
//	@Router			/api/{path} [put]
//	@Router			/api/{path} [delete]
func (h *Handler) Forward(w http.ResponseWriter, r *http.Request) {
	slug := wildcardPath(r)
	if slug == "" {
		apperror.Write(w, apperror.NewNotFoundError("Not found"))
		return
	}

	target := h.backendBase + "/api/" + slug
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	log := h.requestLogger(r).With(slog.String("target", target))

	out, err := h.newBackendRequest(r, target)
	if err != nil {
		log.Warn("rejecting request body", slog.Any("error", err))
		apperror.Write(w, err)
		return
	}
	log.Info("proxying request", slog.String("content_type", r.Header.Get("Content-Type")))

	resp, err := h.client.Do(out)
	if err != nil {
		// A multipart body is re-encoded while it streams, so a malformed form only
		// shows up here, as the body error the transport hit while sending it.
		var bodyErr *apperror.AppError
		if errors.As(err, &bodyErr) {
			log.Warn("request body could not be forwarded", slog.Any("error", err))
			apperror.Write(w, bodyErr)
			return
		}
		h.logTransportError(log, r, err)
		apperror.Write(w, apperror.NewBackendUnavailableError(h.backendBase, err))
		return
	}
	defer resp.Body.Close()

	h.writeBackendResponse(w, resp, log)
}

// writeBackendResponse relays a backend answer, enforcing the JSON contract.
func (h *Handler) writeBackendResponse(w http.ResponseWriter, resp *http.Response, log *slog.Logger) {
	contentType := resp.Header.Get("Content-Type")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("reading backend response failed", slog.Int("status", resp.StatusCode), slog.Any("error", err))
		apperror.Write(w, apperror.NewBackendUnavailableError(h.backendBase, err))
		return
	}

	if !isJSONContentType(contentType) || !json.Valid(body) {
		log.Error("non-JSON response from backend",
			slog.Int("status", resp.StatusCode),
			slog.String("response_content_type", contentType),
			slog.String("preview", apperror.Preview(string(body))),
		)
		apperror.Write(w, apperror.NewInvalidBackendResponseError(contentType, string(body)))
		return
	}

	for _, cookie := range resp.Header.Values("Set-Cookie") {
		w.Header().Add("Set-Cookie", cookie)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		log.Debug("writing response to caller failed", slog.Any("error", err))
	}
	log.Debug("backend responded", slog.Int("status", resp.StatusCode), slog.Int("bytes", len(body)))
}

func (h *Handler) logTransportError(log *slog.Logger, r *http.Request, err error) {
	if r.Context().Err() != nil {
		// The caller went away; there is nobody left to answer.
		log.Warn("request cancelled before backend answered", slog.Any("error", err))
		return
	}
	log.Error("backend request failed", slog.String("backend", h.backendBase), slog.Any("error", err))
}

// requestLogger returns a logger annotated with the request id and, when the caller
// sent a decodable token, who they are.
func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	attrs := []any{slog.String("method", r.Method)}
	if id := middleware.GetReqID(r.Context()); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		attrs = append(attrs, slog.String("user", claims.Subject), slog.String("role", string(claims.Role)))
	}
	return h.logger.With(attrs...)
}

// wildcardPath returns the part of the path matched by the route's `*`, still escaped.
// chi routes on RawPath when the request has one, so the wildcard is already in
// escaped form in that case; otherwise each segment is escaped here.
func wildcardPath(r *http.Request) string {
	rest := chi.URLParam(r, "*")
	if rest == "" || r.URL.RawPath != "" {
		return rest
	}
	segments := strings.Split(rest, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}
