package keybackend

import (
	"fmt"
	"maps"

	"github.com/sagarc03/fsapi"
)

// KeysConfig lists where user keys come from. Both sources may be set;
// a user present in both takes the key from File.
type KeysConfig struct {
	Inline []KeyPair `mapstructure:"inline"`
	// File is a JSON or YAML list of key pairs.
	File string `mapstructure:"file"`
}

// NewSecretStore builds a MapSecretStore from cfg.
func NewSecretStore(cfg KeysConfig) (fsapi.SecretStore, error) {
	keys, err := pairsToMap(cfg.Inline)
	if err != nil {
		return nil, fmt.Errorf("inline keys: %w", err)
	}

	if cfg.File != "" {
		fileKeys, err := LoadKeysFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		maps.Copy(keys, fileKeys)
	}

	return NewMapSecretStore(keys), nil
}

// pairsToMap skips incomplete pairs and rejects users that cannot name a
// home directory. A later duplicate replaces an earlier one.
func pairsToMap(pairs []KeyPair) (map[string]string, error) {
	keys := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.User == "" || p.SecretKey == "" {
			continue
		}
		if !fsapi.IsValidIdentity(p.User) {
			return nil, fmt.Errorf("user %q: %w", p.User, fsapi.ErrInvalidInput)
		}
		keys[p.User] = p.SecretKey
	}
	return keys, nil
}
