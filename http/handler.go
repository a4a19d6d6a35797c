package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/fsapi"
)

// DefaultMaxUploadBytes bounds the body of an upload request.
const DefaultMaxUploadBytes int64 = 512 << 20

// UploadField is the multipart field holding the archive sent to /uzu.
const UploadField = "file"

// Service authenticates requests and runs the scoped file operations.
// *fsapi.Service implements it.
type Service interface {
	Authenticator
	fsapi.FileOps
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// Auditor receives every authentication outcome. Nil records nothing.
	Auditor Auditor
	// Metrics receives request observations. Nil disables them.
	Metrics Metrics
	// MetricsHandler is served at /metrics when set.
	MetricsHandler http.Handler
	// MaxUploadBytes bounds upload bodies. Zero selects DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

// Handler provides the HTTP endpoints of the file API.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler with every route configured.
//
// Public routes:
//   - GET / - service status envelope
//   - GET /healthz - liveness probe
//   - GET /metrics - when a MetricsHandler is configured
//
// Authenticated routes, payload naming a directory relative to the caller's:
//   - GET /ls - every entry
//   - GET /lof - files only
//   - GET /lod - directories only
//   - GET /zfs - zip archive of the directory
//   - POST /uzu - extract the uploaded archive into the directory
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.config.Metrics))
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/", h.handleIndex)
	r.Get("/healthz", healthz)
	if h.config.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", h.config.MetricsHandler)
	}

	auth := AuthMiddleware(h.service, h.config.Auditor, h.config.Metrics)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Get("/ls", h.handleList(h.service.List))
		r.Get("/lof", h.handleList(h.service.ListFiles))
		r.Get("/lod", h.handleList(h.service.ListDirs))
		r.Get("/zfs", h.handleZip)
	})

	r.With(maxBodySize(h.config.MaxUploadBytes), auth).Post("/uzu", h.handleUnzip)

	return r
}

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	WriteStatus(w, http.StatusOK, StatusOK)
}

type listFunc func(ctx context.Context, scope fsapi.Scope, dir string) ([]fsapi.Entry, error)

func (h *Handler) handleList(list listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, dir, ok := scopedDir(w, r)
		if !ok {
			return
		}

		entries, err := list(r.Context(), scope, dir)
		if err != nil {
			HandleError(w, err)
			return
		}
		if entries == nil {
			entries = []fsapi.Entry{}
		}

		WriteEnvelope(w, http.StatusOK, StatusOK, entries)
	}
}

func (h *Handler) handleZip(w http.ResponseWriter, r *http.Request) {
	scope, dir, ok := scopedDir(w, r)
	if !ok {
		return
	}

	zw := &zipResponse{w: w, name: archiveName(scope, dir)}
	if err := h.service.ZipDir(r.Context(), scope, dir, zw); err != nil {
		if !zw.started {
			HandleError(w, err)
			return
		}
		slog.Error("archive interrupted",
			"request_id", middleware.GetReqID(r.Context()),
			"user", scope.Identity,
			"dir", dir,
			"error", err,
		)
	}
}

// UnzipResult is the payload of a successful upload.
type UnzipResult struct {
	Files int `json:"files"`
}

func (h *Handler) handleUnzip(w http.ResponseWriter, r *http.Request) {
	scope, dir, ok := scopedDir(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		HandleError(w, fmt.Errorf("upload: %w: %w", ErrMissingFile, err))
		return
	}
	defer func() { _ = file.Close() }()

	n, err := h.service.Unzip(r.Context(), scope, dir, file, header.Size)
	if err != nil {
		HandleError(w, err)
		return
	}

	WriteEnvelope(w, http.StatusOK, StatusOK, UnzipResult{Files: n})
}

// scopedDir returns the caller's scope and the directory named by the
// payload, writing the error response itself when either is unusable.
func scopedDir(w http.ResponseWriter, r *http.Request) (fsapi.Scope, string, bool) {
	scope, ok := ScopeFromContext(r.Context())
	if !ok {
		HandleError(w, fmt.Errorf("no scope in request context: %w", fsapi.ErrInternal))
		return fsapi.Scope{}, "", false
	}

	dir := r.Form.Get(FieldPayload)
	if !fsapi.IsValidPath(dir) {
		HandleError(w, fmt.Errorf("payload %q: %w", dir, fsapi.ErrInvalidInput))
		return fsapi.Scope{}, "", false
	}

	return scope, dir, true
}

func archiveName(scope fsapi.Scope, dir string) string {
	name := path.Base(strings.TrimSuffix(dir, "/"))
	if name == "." || name == "/" || name == "" {
		name = scope.Identity
	}
	return name + ".zip"
}

// zipResponse sets the archive headers on the first write, so a failure
// before any byte is produced can still be answered with an envelope.
type zipResponse struct {
	w       http.ResponseWriter
	name    string
	started bool
}

func (z *zipResponse) Write(p []byte) (int, error) {
	if !z.started {
		z.started = true
		z.w.Header().Set("Content-Type", "application/zip")
		z.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", z.name))
		z.w.WriteHeader(http.StatusOK)
	}
	return z.w.Write(p)
}

var _ io.Writer = (*zipResponse)(nil)
