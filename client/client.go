// Package client is a typed client for the academy REST API as exposed by the
// forwarding proxy under `/api`. It mirrors what the web pages call: one service per
// area (auth, courses, cart, ...), each method one HTTP request.
//
// Authentication follows the backend's cookie: a successful login leaves an
// `auth_token` cookie in the client's jar, and every call sends it both as a cookie
// and as a bearer token. The session store is the fallback when the jar is empty,
// for example in a fresh CLI process.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/user/academia-go/auth"
)

// DefaultTimeout bounds each call made with the default HTTP client.
const DefaultTimeout = 30 * time.Second

// Client talks to the API. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	session    SessionStore
	logger     *slog.Logger
	validate   *validator.Validate

	Auth        *AuthService
	Courses     *CourseService
	Student     *StudentService
	Cart        *CartService
	Enrollments *EnrollmentService
	Profile     *ProfileService
	Teacher     *TeacherService
	Admin       *AdminService
}

type service struct {
	client *Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. A client without a cookie jar gets one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSession sets where the token and user are kept between calls.
func WithSession(store SessionStore) Option {
	return func(c *Client) { c.session = store }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:3000/api.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:  u,
		session:  NewMemoryStore(),
		logger:   slog.Default(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	common := service{client: c}
	c.Auth = (*AuthService)(&common)
	c.Courses = (*CourseService)(&common)
	c.Student = (*StudentService)(&common)
	c.Cart = (*CartService)(&common)
	c.Enrollments = (*EnrollmentService)(&common)
	c.Profile = (*ProfileService)(&common)
	c.Teacher = (*TeacherService)(&common)
	c.Admin = (*AdminService)(&common)
	return c, nil
}

// BaseURL returns the API root this client calls.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Session returns the session store in use.
func (c *Client) Session() SessionStore {
	return c.session
}

// Token returns the token sent with authenticated calls: the backend's cookie
// when the jar has one, the stored session token otherwise.
func (c *Client) Token() string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.baseURL) {
		if cookie.Name == auth.TokenCookieName && cookie.Value != "" {
			return cookie.Value
		}
	}
	if sess, err := c.session.Load(); err == nil && sess != nil {
		return sess.Token
	}
	return ""
}

// restoreCookie puts a stored token back into the jar so that cookie-based
// backend routes see it too.
func (c *Client) restoreCookie(token string) {
	if token == "" {
		return
	}
	c.httpClient.Jar.SetCookies(c.baseURL, []*http.Cookie{{Name: auth.TokenCookieName, Value: token, Path: "/"}})
}

// clearCookie drops the token cookie from the jar.
func (c *Client) clearCookie() {
	c.httpClient.Jar.SetCookies(c.baseURL, []*http.Cookie{{Name: auth.TokenCookieName, Value: "", Path: "/", MaxAge: -1}})
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any // JSON-encoded, or sent as multipart when it is a *Form
	public bool
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	target := c.baseURL.String() + "/" + strings.TrimLeft(r.path, "/")
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch b := r.body.(type) {
	case nil:
	case *Form:
		buf, ct, err := b.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body, contentType = bytes.NewReader(payload), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if !r.public {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// call performs r and decodes a successful answer into out (which may be nil).
func (c *Client) call(ctx context.Context, r request, out any) error {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		slog.String("method", r.method),
		slog.String("path", r.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)
	return c.handleResponse(resp, out)
}

// handleResponse turns an HTTP answer into either a decoded value or an *APIError.
func (c *Client) handleResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		c.logger.Warn("response is not JSON",
			slog.Int("status", resp.StatusCode),
			slog.String("content_type", resp.Header.Get("Content-Type")),
			slog.String("body", truncate(string(body), 200)),
		)
		return &APIError{Status: resp.StatusCode, Message: msgNotJSON}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage picks `message`, then `error`, from an error body.
func errorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return msgUnknownError
	}
	for _, key := range []string{"message", "error"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return msgRequestFailed
}

// check validates an input before it is sent.
func (c *Client) check(input any) error {
	if err := c.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return newValidationError(verrs)
		}
		return fmt.Errorf("validate input: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Message is the `{ "message": ... }` acknowledgement most mutations return.
type Message struct {
	Message string `json:"message"`
}

func pathID(prefix, id string) string {
	return prefix + "/" + url.PathEscape(id)
}
