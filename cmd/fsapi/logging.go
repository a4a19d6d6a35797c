package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/sagarc03/fsapi/config"
)

// newLogHandler returns JSON lines for prod and colored text otherwise.
// NO_COLOR disables the colors.
func newLogHandler(w io.Writer, env string, level slog.Level) slog.Handler {
	if env == "prod" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	}

	_, noColor := os.LookupEnv("NO_COLOR")
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  level == slog.LevelDebug,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	})
}

// setupLogging installs the default slog logger and routes the standard
// log package through it.
func setupLogging(cfg *config.Config) {
	h := newLogHandler(os.Stdout, cfg.Env, config.ParseLevel(cfg.Log.Level))
	slog.SetDefault(slog.New(h).With("service", "fsapi"))

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(h, slog.LevelInfo).Writer())
}
