package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/audit"
	"github.com/sagarc03/fsapi/config"
	"github.com/sagarc03/fsapi/database"
	"github.com/sagarc03/fsapi/dirinfo"
	"github.com/sagarc03/fsapi/filesystem"
	fsapihttp "github.com/sagarc03/fsapi/http"
	"github.com/sagarc03/fsapi/keybackend"
	"github.com/sagarc03/fsapi/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the fsapi HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5000, "HTTP server port")
	serveCmd.Flags().String("homeroot", "", "directory holding one subdirectory per user (static roots)")
	serveCmd.Flags().Int("ttl", 300, "signature lifetime in seconds, 0 disables expiry")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service, err := newService(cfg)
	if err != nil {
		return err
	}

	sink, closeSink, err := newAuditSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	recorder := audit.NewRecorder(sink, audit.RecorderConfig{QueueSize: cfg.Audit.QueueSize})

	handlerConfig := fsapihttp.HandlerConfig{
		CORS:           cfg.CORS,
		Auditor:        recorder,
		MaxUploadBytes: cfg.Server.MaxUploadSize,
	}

	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		m := metrics.New(reg)
		m.WatchAuditDrops(recorder.Dropped)

		handlerConfig.Metrics = m
		handlerConfig.MetricsHandler = metrics.Handler(reg)
	}

	handler := fsapihttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "dynamic_root", cfg.Root.DynamicRoot, "audit", cfg.Audit.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
	}

	if err := recorder.Close(shutdownCtx); err != nil {
		slog.Error("audit shutdown error", "err", err, "dropped", recorder.Dropped())
	}

	return nil
}

// newService builds the authentication and file stack from cfg.
func newService(cfg *config.Config) (*fsapi.Service, error) {
	store, err := keybackend.NewSecretStore(cfg.Auth.Keys)
	if err != nil {
		return nil, fmt.Errorf("load keys: %w", err)
	}

	alg, err := fsapi.ParseFingerprintAlgorithm(cfg.Auth.Fingerprint)
	if err != nil {
		return nil, err
	}

	if cfg.Auth.NoExpiry() {
		slog.Warn("signature expiry disabled, signed requests never expire", "auth.ttl", cfg.Auth.TTL)
	}

	validator, err := fsapi.NewRequestValidator(store, fsapi.ValidatorConfig{
		TTL:         cfg.Auth.TTLDuration(),
		Fingerprint: alg,
	})
	if err != nil {
		return nil, err
	}

	dir, err := newDirectoryInfo(cfg.Root)
	if err != nil {
		return nil, err
	}

	if !cfg.Root.DynamicRoot {
		if err := os.MkdirAll(cfg.Root.HomeRoot, 0o750); err != nil {
			return nil, fmt.Errorf("create home root: %w", err)
		}
	}

	resolver, err := fsapi.NewRootResolver(fsapi.RootConfig{
		DynamicRoot: cfg.Root.DynamicRoot,
		HomeRoot:    cfg.Root.HomeRoot,
	}, dir)
	if err != nil {
		return nil, err
	}

	files := filesystem.NewFiles(filesystem.WithMaxExtractBytes(cfg.Files.MaxExtractBytes))

	slog.Info("authentication configured",
		"fingerprint", alg,
		"ttl", cfg.Auth.TTLDuration(),
		"dynamic_root", cfg.Root.DynamicRoot,
	)

	return fsapi.NewService(validator, resolver, files)
}

// newDirectoryInfo returns nil unless dynamic roots are enabled.
func newDirectoryInfo(cfg config.RootConfig) (fsapi.DirectoryInfo, error) {
	if !cfg.DynamicRoot {
		return nil, nil
	}

	if cfg.Directory.Endpoint == "" {
		slog.Warn("no directory endpoint, serving roots from the configured user list", "users", len(cfg.Directory.Users))
		return dirinfo.NewMap(cfg.Directory.Root, cfg.Directory.Users...), nil
	}

	client, err := dirinfo.NewClient(cfg.Directory.Endpoint, dirinfo.WithTimeout(cfg.Directory.TimeoutDuration()))
	if err != nil {
		return nil, fmt.Errorf("directory client: %w", err)
	}
	return client, nil
}

// newAuditSink opens the configured audit backend. The returned func
// releases it.
func newAuditSink(ctx context.Context, cfg *config.Config) (audit.Sink, func(), error) {
	switch cfg.Audit.Backend {
	case "log":
		return audit.NewLogSink(slog.Default(), config.ParseLevel(cfg.Audit.Level)), func() {}, nil
	case "database":
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit database: %w", err)
		}
		slog.Info("connected to audit database", "type", cfg.Database.Type)
		return audit.NewRepoSink(db.GetRepo()), func() { _ = db.Close() }, nil
	default:
		return audit.NopSink{}, func() {}, nil
	}
}
