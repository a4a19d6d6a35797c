package keybackend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeyPair binds a user to its secret key.
type KeyPair struct {
	User      string `json:"user" yaml:"user" mapstructure:"user"`
	SecretKey string `json:"secret_key" yaml:"secret_key" mapstructure:"secret_key"`
}

// LoadKeysFromFile loads user keys from a JSON or YAML file, picked by
// extension (.yaml and .yml are YAML, anything else is JSON).
// The file should contain a list of key pairs:
//
//	[
//	  {"user": "alice", "secret_key": "s3cr3t"},
//	  {"user": "bob", "secret_key": "another_secret"}
//	]
//
// Pairs with an empty user or secret are skipped. A user that is not a
// single path segment is an error.
func LoadKeysFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}

	var pairs []KeyPair
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &pairs)
	default:
		err = json.Unmarshal(data, &pairs)
	}
	if err != nil {
		return nil, fmt.Errorf("parse keys file: %w", err)
	}

	keys, err := pairsToMap(pairs)
	if err != nil {
		return nil, fmt.Errorf("keys file %s: %w", path, err)
	}
	return keys, nil
}
