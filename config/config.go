package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/database"
	fsapihttp "github.com/sagarc03/fsapi/http"
	"github.com/sagarc03/fsapi/keybackend"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for fsapi.
type Config struct {
	Env      string               `mapstructure:"env" validate:"required,oneof=dev prod"`
	Server   ServerConfig         `mapstructure:"server"`
	Auth     AuthConfig           `mapstructure:"auth"`
	Root     RootConfig           `mapstructure:"root"`
	Files    FilesConfig          `mapstructure:"files"`
	Audit    AuditConfig          `mapstructure:"audit"`
	Database database.Config      `mapstructure:"database"`
	Metrics  MetricsConfig        `mapstructure:"metrics"`
	CORS     fsapihttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig            `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize   int64 `mapstructure:"max_upload_size" validate:"min=0"`
	ShutdownTimeout int   `mapstructure:"shutdown_timeout" validate:"min=1"`
}

// AuthConfig holds request authentication configuration.
type AuthConfig struct {
	// TTL is the signature lifetime in seconds. Zero or negative disables
	// the freshness check.
	TTL         int                   `mapstructure:"ttl"`
	Fingerprint string                `mapstructure:"fingerprint" validate:"required,oneof=md5 sha256"`
	Keys        keybackend.KeysConfig `mapstructure:"keys"`
}

// TTLDuration returns TTL as a duration.
func (a AuthConfig) TTLDuration() time.Duration {
	return time.Duration(a.TTL) * time.Second
}

// NoExpiry reports whether signatures never expire.
func (a AuthConfig) NoExpiry() bool {
	return a.TTL <= 0
}

// RootConfig selects how identities map to filesystem roots.
type RootConfig struct {
	DynamicRoot bool            `mapstructure:"dynamic_root"`
	HomeRoot    string          `mapstructure:"homeroot"`
	Directory   DirectoryConfig `mapstructure:"directory"`
}

// DirectoryConfig configures the directory service used in dynamic mode.
// Without an endpoint, Users are served from Root by a local map.
type DirectoryConfig struct {
	Endpoint string   `mapstructure:"endpoint" validate:"omitempty,url"`
	Timeout  int      `mapstructure:"timeout" validate:"min=1"`
	Root     string   `mapstructure:"root"`
	Users    []string `mapstructure:"users"`
}

// TimeoutDuration returns Timeout as a duration.
func (d DirectoryConfig) TimeoutDuration() time.Duration {
	return time.Duration(d.Timeout) * time.Second
}

// FilesConfig bounds the file operations.
type FilesConfig struct {
	MaxExtractBytes int64 `mapstructure:"max_extract_bytes" validate:"min=0"`
}

// AuditConfig selects where authentication events go.
type AuditConfig struct {
	Backend   string `mapstructure:"backend" validate:"required,oneof=none log database"`
	Level     string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	QueueSize int    `mapstructure:"queue_size" validate:"min=1"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":   "database.type",
	"db-dsn":    "database.dsn",
	"homeroot":  "root.homeroot",
	"port":      "server.port",
	"ttl":       "auth.ttl",
	"log-level": "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.max_upload_size", fsapihttp.DefaultMaxUploadBytes)
	v.SetDefault("server.shutdown_timeout", 30) // seconds

	v.SetDefault("auth.ttl", int(fsapi.DefaultTTL/time.Second))
	v.SetDefault("auth.fingerprint", string(fsapi.FingerprintMD5))

	v.SetDefault("root.dynamic_root", false)
	v.SetDefault("root.homeroot", "./homes")
	v.SetDefault("root.directory.timeout", 5) // seconds

	v.SetDefault("files.max_extract_bytes", int64(1<<30))

	v.SetDefault("audit.backend", "log")
	v.SetDefault("audit.level", "error")
	v.SetDefault("audit.queue_size", 1024)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "fsapi.db")
	v.SetDefault("database.tables.audit", "fsapi_audit")

	v.SetDefault("metrics.enabled", false)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST"})
	v.SetDefault("cors.allowed_headers", []string{})
	v.SetDefault("cors.exposed_headers", []string{"Content-Disposition"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 0)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("FSAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// check covers the rules spanning several sections.
func (c *Config) check() error {
	if c.Root.DynamicRoot {
		if c.Root.Directory.Endpoint == "" && len(c.Root.Directory.Users) == 0 {
			return errors.New("root.dynamic_root requires root.directory.endpoint or root.directory.users")
		}
		if c.Root.Directory.Endpoint == "" && c.Root.Directory.Root == "" {
			return errors.New("root.directory.users requires root.directory.root")
		}
	} else if c.Root.HomeRoot == "" {
		return errors.New("root.homeroot is required unless root.dynamic_root is set")
	}

	if c.Audit.Backend == "database" {
		if err := c.Database.Tables.Validate(); err != nil {
			return err
		}
		if c.Database.Type != "sqlite" && c.Database.Type != "postgres" {
			return fmt.Errorf("database.type must be sqlite or postgres, got %q", c.Database.Type)
		}
	}

	return nil
}
