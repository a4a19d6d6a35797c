package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/fsapi/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(redact(cfg)); err != nil {
		return err
	}
	return enc.Close()
}

// redact returns a copy of cfg with secret keys and the database DSN hidden.
func redact(cfg *config.Config) map[string]any {
	users := make([]string, 0, len(cfg.Auth.Keys.Inline))
	for _, k := range cfg.Auth.Keys.Inline {
		users = append(users, k.User)
	}

	dsn := ""
	if cfg.Database.DSN != "" {
		dsn = "********"
	}

	return map[string]any{
		"env": cfg.Env,
		"server": map[string]any{
			"port":             cfg.Server.Port,
			"max_upload_size":  cfg.Server.MaxUploadSize,
			"shutdown_timeout": cfg.Server.ShutdownTimeout,
		},
		"auth": map[string]any{
			"ttl":          cfg.Auth.TTL,
			"fingerprint":  cfg.Auth.Fingerprint,
			"keys_file":    cfg.Auth.Keys.File,
			"inline_users": users,
		},
		"root": map[string]any{
			"dynamic_root": cfg.Root.DynamicRoot,
			"homeroot":     cfg.Root.HomeRoot,
			"directory": map[string]any{
				"endpoint": cfg.Root.Directory.Endpoint,
				"timeout":  cfg.Root.Directory.Timeout,
				"root":     cfg.Root.Directory.Root,
				"users":    cfg.Root.Directory.Users,
			},
		},
		"files": map[string]any{"max_extract_bytes": cfg.Files.MaxExtractBytes},
		"audit": map[string]any{
			"backend":    cfg.Audit.Backend,
			"level":      cfg.Audit.Level,
			"queue_size": cfg.Audit.QueueSize,
		},
		"database": map[string]any{
			"type":  cfg.Database.Type,
			"dsn":   dsn,
			"table": cfg.Database.Tables.Audit,
		},
		"metrics": map[string]any{"enabled": cfg.Metrics.Enabled},
		"cors":    map[string]any{"enabled": cfg.CORS.Enabled, "allowed_origins": cfg.CORS.AllowedOrigins},
		"log":     map[string]any{"level": cfg.Log.Level},
	}
}
