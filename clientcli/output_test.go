package clientcli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatter(t *testing.T) {
	t.Run("json formatter", func(t *testing.T) {
		formatter := clientcli.NewFormatter(true, false)
		_, ok := formatter.(*clientcli.JSONFormatter)
		assert.True(t, ok)
	})

	t.Run("human formatter quiet", func(t *testing.T) {
		formatter := clientcli.NewFormatter(false, true)
		hf, ok := formatter.(*clientcli.HumanFormatter)
		require.True(t, ok)
		assert.True(t, hf.Quiet)
	})
}

func sampleList() *clientcli.ListResult {
	mod := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	return &clientcli.ListResult{
		Dir: "docs",
		Entries: []fsapi.Entry{
			{Name: "report.pdf", Size: 2048, ModTime: mod},
			{Name: "archive", IsDir: true, ModTime: mod},
		},
	}
}

func TestHumanFormatter_FormatList(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatList(&buf, sampleList()))

		output := buf.String()
		assert.Contains(t, output, "NAME")
		assert.Contains(t, output, "report.pdf")
		assert.Contains(t, output, "2.0 KB")
		assert.Contains(t, output, "archive/")
		assert.Contains(t, output, "2024-03-01 12:30:00")
		assert.Contains(t, output, "2 entries (2.0 KB total)")
	})

	t.Run("quiet prints names only", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{Quiet: true}).FormatList(&buf, sampleList()))
		assert.Equal(t, "report.pdf\narchive/\n", buf.String())
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatList(&buf, &clientcli.ListResult{}))
		assert.Equal(t, "No entries found\n", buf.String())
	})
}

func TestHumanFormatter_Transfers(t *testing.T) {
	tests := []struct {
		name   string
		format func(f *clientcli.HumanFormatter, buf *bytes.Buffer) error
		want   string
	}{
		{
			name: "upload",
			format: func(f *clientcli.HumanFormatter, buf *bytes.Buffer) error {
				return f.FormatUpload(buf, &clientcli.UploadResult{LocalPath: "site.zip", Dir: "www", Files: 12})
			},
			want: "Uploaded: site.zip -> ~/www (12 file(s))\n",
		},
		{
			name: "download to file",
			format: func(f *clientcli.HumanFormatter, buf *bytes.Buffer) error {
				return f.FormatDownload(buf, &clientcli.DownloadResult{Dir: "", LocalPath: "alice.zip", Size: 3 * 1024 * 1024})
			},
			want: "Downloaded: ~ -> alice.zip (3.0 MB)\n",
		},
		{
			name: "download to stdout",
			format: func(f *clientcli.HumanFormatter, buf *bytes.Buffer) error {
				return f.FormatDownload(buf, &clientcli.DownloadResult{Dir: "docs", LocalPath: "-"})
			},
			want: "Downloaded: ~/docs\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.format(&clientcli.HumanFormatter{}, &buf))
			assert.Equal(t, tt.want, buf.String())

			buf.Reset()
			require.NoError(t, tt.format(&clientcli.HumanFormatter{Quiet: true}, &buf))
			assert.Empty(t, buf.String())
		})
	}
}

func TestJSONFormatter_FormatList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&clientcli.JSONFormatter{}).FormatList(&buf, sampleList()))

	var output struct {
		Dir     string        `json:"dir"`
		Entries []fsapi.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))

	assert.Equal(t, "docs", output.Dir)
	require.Len(t, output.Entries, 2)
	assert.Equal(t, "report.pdf", output.Entries[0].Name)
	assert.True(t, output.Entries[1].IsDir)
}

func TestJSONFormatter_FormatUpload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&clientcli.JSONFormatter{}).FormatUpload(&buf, &clientcli.UploadResult{LocalPath: "a.zip", Dir: "in", Files: 3}))
	assert.JSONEq(t, `{"local_path":"a.zip","dir":"in","files":3}`, buf.String())
}

func TestJSONFormatter_FormatError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "plain error",
			err:  errors.New("test error"),
			want: `{"error":"test error"}`,
		},
		{
			name: "api error",
			err:  fmt.Errorf("list: %w", &clientcli.APIError{StatusCode: http.StatusNotFound, Status: "no_root"}),
			want: `{"error":"list: server error: 404 no_root","status":"no_root"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, (&clientcli.JSONFormatter{}).FormatError(&buf, tt.err))
			assert.JSONEq(t, tt.want, buf.String())
		})
	}
}

func TestFormatProfiles(t *testing.T) {
	profiles := []clientcli.Profile{
		{Name: "local", Endpoint: "http://localhost:5000", User: "alice", SecretKey: "supersecretvalue"},
		{Name: "prod", Endpoint: "https://files.example.com", User: "svc", SecretKey: "short", Fingerprint: "sha256"},
	}

	t.Run("human list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileList(&buf, profiles, "prod", false))

		output := buf.String()
		assert.Contains(t, output, "USER")
		assert.Contains(t, output, "* prod")
		assert.Contains(t, output, "alice")
		assert.NotContains(t, output, "supersecretvalue")
	})

	t.Run("human show masks secret", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileShow(&buf, profiles[0], true, false))

		output := buf.String()
		assert.Contains(t, output, "local (default)")
		assert.Contains(t, output, "supe...alue")
		assert.Contains(t, output, "Fingerprint: md5")
	})

	t.Run("json list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.JSONFormatter{}).FormatProfileList(&buf, profiles, "local", false))

		var output struct {
			Profiles []map[string]any `json:"profiles"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
		require.Len(t, output.Profiles, 2)

		assert.Equal(t, true, output.Profiles[0]["default"])
		assert.Equal(t, "supe...alue", output.Profiles[0]["secret_key"])
		assert.Equal(t, "md5", output.Profiles[0]["fingerprint"])
		assert.Equal(t, "********", output.Profiles[1]["secret_key"])
		assert.Equal(t, "sha256", output.Profiles[1]["fingerprint"])
	})

	t.Run("json show with secrets", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.JSONFormatter{}).FormatProfileShow(&buf, profiles[1], false, true))
		assert.JSONEq(t, `{
			"name": "prod",
			"endpoint": "https://files.example.com",
			"user": "svc",
			"secret_key": "short",
			"fingerprint": "sha256",
			"default": false
		}`, buf.String())
	})
}
