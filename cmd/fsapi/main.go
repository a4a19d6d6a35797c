package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fsapi/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "fsapi",
	Short:   "File API server with signed requests",
	Long: `fsapi serves per-user directories over a small REST API. Every
request is signed with the caller's secret key; no session state is kept.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeatable (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "audit database type: sqlite, postgres (default: sqlite, env: FSAPI_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "audit database connection string (default: fsapi.db, env: FSAPI_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: FSAPI_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
