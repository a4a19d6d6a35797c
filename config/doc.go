// Package config provides configuration loading and validation for fsapi.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FSAPI_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with FSAPI_ prefix:
//   - server.port → FSAPI_SERVER_PORT
//   - auth.ttl → FSAPI_AUTH_TTL
//   - root.homeroot → FSAPI_ROOT_HOMEROOT
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev (colored logs) or prod (JSON logs)
//   - Server: port, max_upload_size and shutdown_timeout
//   - Auth: ttl in seconds (0 disables expiry), fingerprint (md5 or sha256) and keys
//   - Root: static homeroot, or dynamic_root with a directory service
//   - Files: extraction limit for uploaded archives
//   - Audit: backend (none, log, database), log level and queue size
//   - Database: type, DSN and audit table name
//   - Metrics: Prometheus endpoint toggle
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Fingerprint must be md5 or sha256
//   - Audit backend must be none, log or database
//   - Log levels must be debug, info, warn, or error
//
// Dynamic roots additionally need a directory endpoint or a user list, and
// the database audit backend needs valid table names.
package config
