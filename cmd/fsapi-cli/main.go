package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fsapi/clientcli"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	user        string
	secretKey   string
	fingerprint string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "fsapi-cli",
	Version: version,
	Short:   "Client for fsapi file servers",
	Long: `fsapi-cli - client for fsapi file servers

Every command signs its request with your secret key. Paths are relative to
your own directory on the server; an empty path means the directory itself.

Configuration is resolved in order, later sources winning:
  1. profile from the config file (~/.fsapi/config.yaml)
  2. environment (FSAPI_ENDPOINT, FSAPI_USER, FSAPI_SECRET_KEY, FSAPI_FINGERPRINT)
  3. flags`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.fsapi/config.yaml, env: FSAPI_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile to use (env: FSAPI_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:5000)")
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", "", "user name")
	rootCmd.PersistentFlags().StringVarP(&secretKey, "secret-key", "k", "", "secret key")
	rootCmd.PersistentFlags().StringVar(&fingerprint, "fingerprint", "", "payload digest: md5 or sha256 (default: md5)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(configureCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errCancelled) {
			fmt.Println("Cancelled.")
			return
		}
		_ = getFormatter().FormatError(os.Stderr, err)
		os.Exit(1)
	}
}

// getConfigPath returns the config file path from the flag, the
// environment, or the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from file, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	name := profileName
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}

	configFile, err := clientcli.LoadConfigFile(getConfigPath())
	switch {
	case err == nil:
		p, profileErr := configFile.GetProfile(name)
		switch {
		case profileErr == nil:
			configs = append(configs, clientcli.ConfigFromProfile(p))
		case name != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles):
			return nil, profileErr
		}
	case errors.Is(err, os.ErrNotExist) && cfgFile == "" && name == "":
		// No config file is fine when nothing asked for one.
	default:
		return nil, err
	}

	configs = append(configs,
		clientcli.ConfigFromEnv(),
		&clientcli.Config{
			Endpoint:    endpoint,
			User:        user,
			SecretKey:   secretKey,
			Fingerprint: fingerprint,
		},
	)

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

func copyOut(w io.Writer, rc io.ReadCloser) error {
	defer func() { _ = rc.Close() }()
	_, err := io.Copy(w, rc)
	return err
}
