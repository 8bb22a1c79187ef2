package proxy

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/user/academia-go/apperror"
)

// Uploads serves `/api/uploads/*` from the backend's `/uploads/*`, byte for byte.
// Course images and avatars live there and are referenced by the pages with the
// `/api/uploads/...` prefix.
//
//	@Summary		Uploaded files
//	@Description	Served byte for byte from BACKEND_URL/uploads/{path}.
//	@Tags			proxy
//	@Produce		octet-stream
//	@Param			path	path		string	true	"File path"
//	@Success		200		"File content"
//	@Failure		500		{object}	apperror.ErrorResponse	"Backend unreachable"
//	@Router			/api/uploads/{path} [get]
func (h *Handler) Uploads(w http.ResponseWriter, r *http.Request) {
	h.uploads.ServeHTTP(w, r)
}

func (h *Handler) newUploadsProxy() *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			target, err := url.Parse(h.backendBase + "/uploads/" + wildcardPath(pr.In))
			if err != nil {
				// Unreachable for paths chi already routed; keep the backend root.
				target, _ = url.Parse(h.backendBase + "/uploads/")
			}
			target.RawQuery = pr.In.URL.RawQuery
			pr.Out.URL = target
			pr.Out.Host = ""
			pr.SetXForwarded()
		},
		Transport: h.client.Transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			h.requestLogger(r).Error("upload request failed",
				slog.String("path", r.URL.Path),
				slog.Any("error", err),
			)
			apperror.Write(w, apperror.NewBackendUnavailableError(h.backendBase, err))
		},
	}
}
