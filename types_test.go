package fsapi_test

import (
	"strings"
	"testing"

	"github.com/sagarc03/fsapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFingerprintAlgorithm(t *testing.T) {
	alg, err := fsapi.ParseFingerprintAlgorithm("md5")
	require.NoError(t, err)
	assert.Equal(t, fsapi.FingerprintMD5, alg)

	alg, err = fsapi.ParseFingerprintAlgorithm("sha256")
	require.NoError(t, err)
	assert.Equal(t, fsapi.FingerprintSHA256, alg)

	for _, s := range []string{"", "MD5", "sha1"} {
		_, err := fsapi.ParseFingerprintAlgorithm(s)
		assert.Error(t, err, s)
	}
}

func TestTables_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tables  fsapi.Tables
		wantErr string
	}{
		{name: "valid", tables: fsapi.Tables{Audit: "fsapi_audit"}},
		{name: "empty", tables: fsapi.Tables{}, wantErr: "cannot be empty"},
		{name: "uppercase", tables: fsapi.Tables{Audit: "Audit"}, wantErr: "invalid audit table name"},
		{name: "injection", tables: fsapi.Tables{Audit: "audit; DROP TABLE x"}, wantErr: "invalid audit table name"},
		{name: "too long", tables: fsapi.Tables{Audit: strings.Repeat("a", 64)}, wantErr: "invalid audit table name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tables.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
