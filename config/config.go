// Package config provides configuration management for the academia proxy server.
// It handles loading and validation of configuration values from environment variables,
// with support for default values and collective error reporting: every problem found
// while loading is gathered and returned as one error, so a misconfigured deployment
// shows all of its mistakes at once.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultBackendURL is where the external backend lives when nothing else is configured.
const DefaultBackendURL = "http://localhost:4000"

// BackendConfig describes the external backend that owns every `/api/*` resource.
type BackendConfig struct {
	// URL is the backend origin without a trailing slash, e.g. http://localhost:4000.
	URL *url.URL
	// HealthCheckInterval is how often the background monitor probes the backend.
	// Zero disables the monitor.
	HealthCheckInterval time.Duration
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string // Port for the HTTP server
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// AllowedOrigins feeds the CORS middleware. "*" allows any origin.
	AllowedOrigins []string
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  slog.Level
	Format string // "text" or "json"
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Backend *BackendConfig
	Server  *ServerConfig
	Log     *LogConfig
}

// BackendBase returns the backend origin as a string without a trailing slash.
func (b *BackendConfig) BackendBase() string {
	return strings.TrimRight(b.URL.String(), "/")
}

// Helper function to get an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// Helper function to get an optional environment variable parsed as time.Duration.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
// `time.ParseDuration` expects a string like "15s", "1m30s".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	if valueDuration < 0 {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: duration must not be negative, got '%s'", key, valueStr))
		return defaultValue
	}
	return valueDuration
}

// parseBackendURL validates the backend origin. Only absolute http(s) URLs are accepted;
// any path, query or fragment is rejected because the proxy appends `/api/<slug>` itself.
func parseBackendURL(raw string, errors *[]string) *url.URL {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(raw), "/"))
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid BACKEND_URL '%s': %v", raw, err))
		return nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		*errors = append(*errors, fmt.Sprintf("invalid BACKEND_URL '%s': scheme must be http or https", raw))
		return nil
	}
	if u.Host == "" {
		*errors = append(*errors, fmt.Sprintf("invalid BACKEND_URL '%s': missing host", raw))
		return nil
	}
	if u.RawQuery != "" || u.Fragment != "" {
		*errors = append(*errors, fmt.Sprintf("invalid BACKEND_URL '%s': query and fragment are not allowed", raw))
		return nil
	}
	return u
}

func parseLogLevel(raw string, errors *[]string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "", "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		*errors = append(*errors, fmt.Sprintf("invalid LOG_LEVEL '%s': expected debug, info, warn or error", raw))
		return slog.LevelInfo
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Backend Configuration
	// BACKEND_URL wins; NEXT_PUBLIC_BACKEND_URL is still honored so existing .env files keep working.
	backendRaw := getOptionalEnv("BACKEND_URL", getOptionalEnv("NEXT_PUBLIC_BACKEND_URL", DefaultBackendURL))
	backendConfig := &BackendConfig{
		URL:                 parseBackendURL(backendRaw, &errors),
		HealthCheckInterval: getOptionalEnvDuration("HEALTH_CHECK_INTERVAL", 30*time.Second, &errors),
	}

	// Server Configuration
	port := getOptionalEnvInt("PORT", 3000, &errors)
	if port <= 0 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT %d: must be between 1 and 65535", port))
	}
	serverConfig := &ServerConfig{
		// Port stays a string because it's used directly in the listen address (":3000").
		Port:            strconv.Itoa(port),
		ReadTimeout:     getOptionalEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second, &errors),
		WriteTimeout:    getOptionalEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second, &errors),
		IdleTimeout:     getOptionalEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second, &errors),
		ShutdownTimeout: getOptionalEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second, &errors),
		AllowedOrigins:  splitList(getOptionalEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	// Log Configuration
	logFormat := strings.ToLower(getOptionalEnv("LOG_FORMAT", "text"))
	if logFormat != "text" && logFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT '%s': expected text or json", logFormat))
		logFormat = "text"
	}
	logConfig := &LogConfig{
		Level:  parseLogLevel(os.Getenv("LOG_LEVEL"), &errors),
		Format: logFormat,
	}

	// If any errors were collected during loading, return a single aggregated error message.
	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		Backend: backendConfig,
		Server:  serverConfig,
		Log:     logConfig,
	}, nil
}

// NewLogger builds the process-wide structured logger from the log configuration.
func (c *LogConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
