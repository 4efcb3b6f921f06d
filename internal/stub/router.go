// Package stub is an in-memory implementation of the GateLink REST
// contract, used to run the CLI and SDK end to end without the production
// backend.
package stub

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gatelink/gatelink/internal/device"
	"github.com/gatelink/gatelink/internal/session"
)

// Config holds configuration for the stub backend.
type Config struct {
	// SigningKey signs the JWTs the stub issues at /login. Required.
	SigningKey string

	// Email and Password are the accepted credentials.
	Email    string
	Password string

	// User, Devices and Modules seed the in-memory data set. Fixtures()
	// provides a ready-made set.
	User    session.User
	Devices []device.Device
	Modules []session.Module

	// LoginRatePerMinute limits /login attempts per IP. Default: 10.
	LoginRatePerMinute int

	Logger zerolog.Logger
}

// NewRouter builds the stub API router.
func NewRouter(cfg Config) *chi.Mux {
	if cfg.LoginRatePerMinute <= 0 {
		cfg.LoginRatePerMinute = 10
	}

	h := &handlers{cfg: cfg}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(cfg.Logger))

	r.With(httprate.LimitByIP(cfg.LoginRatePerMinute, time.Minute)).
		Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/devices", h.listDevices)
		r.Get("/devices/{id}", h.getDevice)
		r.Get("/modules", h.listModules)
	})

	return r
}

// requestIDKey is the context key for the request ID.
type requestIDKey struct{}

// requestID propagates or generates an X-Request-Id header.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = "req_" + uuid.New().String()[:22]
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			id, _ := r.Context().Value(requestIDKey{}).(string)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", id).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
