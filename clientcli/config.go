package clientcli

import (
	"cmp"
	"os"

	"github.com/sagarc03/fsapi"
)

const DefaultEndpoint = "http://localhost:5000"

// Environment variables read by ConfigFromEnv, ProfileFromEnv and
// ConfigPathFromEnv.
const (
	EnvEndpoint    = "FSAPI_ENDPOINT"
	EnvUser        = "FSAPI_USER"
	EnvSecretKey   = "FSAPI_SECRET_KEY"
	EnvFingerprint = "FSAPI_FINGERPRINT"
	EnvProfile     = "FSAPI_PROFILE"
	EnvConfig      = "FSAPI_CONFIG"
)

// Config is the resolved connection setup for one server.
type Config struct {
	Endpoint string
	User     string
	// SecretKey is the user's shared HMAC key.
	SecretKey string
	// Fingerprint names the payload digest. The server default is md5.
	Fingerprint string
}

// WithDefaults returns a copy with the endpoint and fingerprint filled in.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	cfg.Endpoint = cmp.Or(cfg.Endpoint, DefaultEndpoint)
	cfg.Fingerprint = cmp.Or(cfg.Fingerprint, string(fsapi.FingerprintMD5))
	return &cfg
}

// ValidateWithAuth reports missing credentials or an unknown fingerprint.
func (c *Config) ValidateWithAuth() error {
	switch {
	case c.User == "":
		return ErrUserRequired
	case c.SecretKey == "":
		return ErrSecretKeyRequired
	case c.Fingerprint == "":
		return nil
	}
	_, err := fsapi.ParseFingerprintAlgorithm(c.Fingerprint)
	return err
}

func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{
		Endpoint:    p.Endpoint,
		User:        p.User,
		SecretKey:   p.SecretKey,
		Fingerprint: p.Fingerprint,
	}
}

func ConfigFromEnv() *Config {
	return &Config{
		Endpoint:    os.Getenv(EnvEndpoint),
		User:        os.Getenv(EnvUser),
		SecretKey:   os.Getenv(EnvSecretKey),
		Fingerprint: os.Getenv(EnvFingerprint),
	}
}

func ProfileFromEnv() string { return os.Getenv(EnvProfile) }

func ConfigPathFromEnv() string { return os.Getenv(EnvConfig) }

// MergeConfig layers configs left to right. Empty fields never override.
func MergeConfig(configs ...*Config) *Config {
	out := &Config{}
	for _, c := range configs {
		if c == nil {
			continue
		}
		out.Endpoint = cmp.Or(c.Endpoint, out.Endpoint)
		out.User = cmp.Or(c.User, out.User)
		out.SecretKey = cmp.Or(c.SecretKey, out.SecretKey)
		out.Fingerprint = cmp.Or(c.Fingerprint, out.Fingerprint)
	}
	return out
}
