package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/audit"
)

// Authentication form fields.
const (
	FieldUser      = "user"
	FieldTimestamp = "timestamp"
	FieldPayload   = "payload"
	FieldSignature = "signature"
)

// multipartMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

// Authenticator verifies a request and scopes the caller to its root.
type Authenticator interface {
	Authenticate(ctx context.Context, req fsapi.AuthRequest) (fsapi.Scope, error)
}

// Auditor receives one event per authentication outcome. Record must not
// block.
type Auditor interface {
	Record(ctx context.Context, e audit.Event)
}

// Metrics receives request and authentication observations.
type Metrics interface {
	ObserveAuth(outcome, reason string)
	ObserveRequest(route string, status int, d time.Duration)
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, audit.Event) {}

type scopeKey struct{}

// ScopeFromContext returns the scope stored by AuthMiddleware.
func ScopeFromContext(ctx context.Context) (fsapi.Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(fsapi.Scope)
	return scope, ok
}

// AuthMiddleware authenticates every request from its form fields and
// stores the resulting scope in the request context.
//
// Every outcome is recorded with auditor. A nil auditor records nothing and
// a nil metrics observes nothing. Failures are answered through HandleError,
// so the client cannot tell one authentication reason from another.
func AuthMiddleware(auth Authenticator, auditor Auditor, metrics Metrics) func(http.Handler) http.Handler {
	if auditor == nil {
		auditor = nopAuditor{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			req, err := authRequestFrom(r)
			var scope fsapi.Scope
			if err == nil {
				scope, err = auth.Authenticate(ctx, req)
			}

			event, reason := auditOutcome(err)
			auditor.Record(ctx, audit.Event{
				Event:    event,
				Action:   r.URL.Path,
				Identity: req.User,
				Reason:   reason,
				Remote:   r.RemoteAddr,
			})
			if metrics != nil {
				metrics.ObserveAuth(event, reason)
			}

			if err != nil {
				slog.Debug("authentication failed",
					"request_id", middleware.GetReqID(ctx),
					"path", r.URL.Path,
					"user", req.User,
					"reason", reason,
				)
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, scopeKey{}, scope)))
		})
	}
}

// authRequestFrom reads the authentication fields from the query string
// or, for multipart requests, from the form values. The payload may be
// empty but must be present.
func authRequestFrom(r *http.Request) (fsapi.AuthRequest, error) {
	if err := parseForm(r); err != nil {
		return fsapi.AuthRequest{}, err
	}

	req := fsapi.AuthRequest{
		User:      r.Form.Get(FieldUser),
		Timestamp: r.Form.Get(FieldTimestamp),
		Payload:   r.Form.Get(FieldPayload),
		Signature: r.Form.Get(FieldSignature),
	}

	for _, field := range []string{FieldUser, FieldTimestamp, FieldSignature} {
		if r.Form.Get(field) == "" {
			return req, fmt.Errorf("field %s: %w", field, ErrMissingField)
		}
	}
	if _, ok := r.Form[FieldPayload]; !ok {
		return req, fmt.Errorf("field %s: %w", FieldPayload, ErrMissingField)
	}

	return req, nil
}

func parseForm(r *http.Request) error {
	var err error
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}

	if maxErr := new(http.MaxBytesError); errors.As(err, &maxErr) {
		return fmt.Errorf("parse form: %w: %w", ErrRequestTooLarge, err)
	}
	return fmt.Errorf("parse form: %w: %w", ErrMalformedRequest, err)
}

func auditOutcome(err error) (event, reason string) {
	switch {
	case err == nil:
		return audit.EventAuthSuccess, fsapi.ReasonCode(nil)
	case errors.Is(err, ErrMissingField):
		return audit.EventAuthFailure, "missing_field"
	case errors.Is(err, ErrRequestTooLarge):
		return audit.EventAuthFailure, "too_large"
	case errors.Is(err, ErrMalformedRequest):
		return audit.EventAuthFailure, "malformed_request"
	case errors.Is(err, fsapi.ErrUnauthorized):
		return audit.EventAuthFailure, fsapi.ReasonCode(err)
	case errors.Is(err, fsapi.ErrNoRoot):
		return audit.EventNoRoot, fsapi.ReasonCode(err)
	case errors.Is(err, fsapi.ErrRootResolutionFailed):
		return audit.EventRootFailure, fsapi.ReasonCode(err)
	default:
		return audit.EventAuthFailure, "internal"
	}
}

// maxBodySize rejects requests whose body exceeds limit.
func maxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				WriteStatus(w, http.StatusRequestEntityTooLarge, StatusTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs every request and reports it to metrics under its
// route pattern.
func requestLogger(metrics Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			slog.Debug("request started",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			slog.Info("request completed",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", duration.String(),
			)

			if metrics != nil {
				metrics.ObserveRequest(routePattern(r), status, duration)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
