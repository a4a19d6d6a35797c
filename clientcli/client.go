package clientcli

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/fsapi"
	fsapihttp "github.com/sagarc03/fsapi/http"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs signed operations against an fsapi server.
type Client struct {
	config     *Config
	alg        fsapi.FingerprintAlgorithm
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClock sets the clock used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.ValidateWithAuth(); err != nil {
		return nil, err
	}

	alg, err := fsapi.ParseFingerprintAlgorithm(cfg.Fingerprint)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config: &Config{
			Endpoint:    strings.TrimSuffix(cfg.Endpoint, "/"),
			User:        cfg.User,
			SecretKey:   cfg.SecretKey,
			Fingerprint: cfg.Fingerprint,
		},
		alg:        alg,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// signedValues returns the four authentication fields for an operation on dir.
func (c *Client) signedValues(dir string) (url.Values, error) {
	req := fsapi.AuthRequest{
		User:      c.config.User,
		Timestamp: fsapi.FormatTimestamp(c.now()),
		Payload:   dir,
	}

	sig, err := fsapi.SignRequest(c.alg, req, c.config.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	v := url.Values{}
	v.Set(fsapihttp.FieldUser, req.User)
	v.Set(fsapihttp.FieldTimestamp, req.Timestamp)
	v.Set(fsapihttp.FieldPayload, req.Payload)
	v.Set(fsapihttp.FieldSignature, sig)
	return v, nil
}

// get issues a signed GET for route. The caller owns the response body on
// success; any non-200 status is returned as *APIError.
func (c *Client) get(ctx context.Context, route, dir string) (*http.Response, error) {
	values, err := c.signedValues(dir)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+route+"?"+values.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, parseServerError(resp.StatusCode, body)
	}
	return resp, nil
}

// Ping checks that the server answers its liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return parseServerError(resp.StatusCode, body)
	}
	return nil
}

// List lists one directory of the caller's tree.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	kind := opts.Kind
	if kind == "" {
		kind = ListAll
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("list: unknown kind %q", kind)
	}

	resp, err := c.get(ctx, "/"+string(kind), opts.Dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var env struct {
		Status  fsapihttp.Status `json:"status"`
		Payload []fsapi.Entry    `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	entries := env.Payload
	if entries == nil {
		entries = []fsapi.Entry{}
	}

	return &ListResult{Dir: opts.Dir, Entries: entries}, nil
}

// Download fetches a directory as a zip archive.
// If opts.LocalPath is "-", the archive is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the archive is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	resp, err := c.get(ctx, "/zfs", opts.Dir)
	if err != nil {
		return nil, nil, err
	}

	result := &DownloadResult{
		Dir:  opts.Dir,
		Size: resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = archiveFileName(resp.Header.Get("Content-Disposition"), c.config.User)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// archiveFileName picks the file name announced by the server, falling
// back to "<fallback>.zip".
func archiveFileName(disposition, fallback string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := filepath.Base(params["filename"]); name != "." && name != "/" && name != "" {
			return name
		}
	}
	return fallback + ".zip"
}

// Upload sends a zip archive to be extracted into opts.Dir. A directory
// is zipped on the fly; the archive is streamed, never held in memory.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	values, err := c.signedValues(opts.Dir)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(mw, values, opts.LocalPath, info))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+"/uzu", pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseServerError(resp.StatusCode, body)
	}

	var env struct {
		Status  fsapihttp.Status       `json:"status"`
		Payload fsapihttp.UnzipResult `json:"payload"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &UploadResult{
		LocalPath: opts.LocalPath,
		Dir:       opts.Dir,
		Files:     env.Payload.Files,
	}, nil
}

// writeUploadForm writes the auth fields first, then the archive part.
func writeUploadForm(mw *multipart.Writer, values url.Values, localPath string, info fs.FileInfo) error {
	for _, key := range []string{fsapihttp.FieldUser, fsapihttp.FieldTimestamp, fsapihttp.FieldPayload, fsapihttp.FieldSignature} {
		if err := mw.WriteField(key, values.Get(key)); err != nil {
			return err
		}
	}

	name := filepath.Base(localPath)
	if info.IsDir() {
		name += ".zip"
	}

	part, err := mw.CreateFormFile(fsapihttp.UploadField, name)
	if err != nil {
		return err
	}

	if info.IsDir() {
		err = ZipDirectory(part, localPath)
	} else {
		err = copyFile(part, localPath)
	}
	if err != nil {
		return err
	}

	return mw.Close()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path) //#nosec G304 -- path is user-provided input
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, err = io.Copy(w, f)
	return err
}

// ZipDirectory writes a zip archive of the tree under root to w, with
// slash-separated paths relative to root. Only regular files and
// directories are included.
func ZipDirectory(w io.Writer, root string) error {
	zw := zip.NewWriter(w)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(fi)
		if err != nil {
			return err
		}
		hdr.Name = name
		hdr.Method = zip.Deflate

		dst, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		return copyFile(dst, path)
	})
	if walkErr != nil {
		_ = zw.Close()
		return fmt.Errorf("zip %s: %w", root, walkErr)
	}

	return zw.Close()
}

// parseServerError decodes the status envelope of an error response when
// there is one.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var env struct {
		Status fsapihttp.Status `json:"status"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Status = env.Status.Status
	}
	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	// Status is the envelope status string, such as "no_root".
	Status string
	Body   string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " " + e.Status
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches an *APIError with the same StatusCode whose Status is empty
// or equal to this one.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	if t.StatusCode != e.StatusCode {
		return false
	}
	return t.Status == "" || t.Status == e.Status
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned for any 404, including ErrNoRoot.
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrNoRoot is returned when the user has no directory on the server.
	ErrNoRoot = &APIError{StatusCode: http.StatusNotFound, Status: fsapihttp.StatusNoRoot}

	// ErrUnauthorized is returned when the signed request is rejected (401).
	// The server does not say why.
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrInvalidPath is returned when the server refuses the directory (400).
	ErrInvalidPath = &APIError{StatusCode: http.StatusBadRequest, Status: fsapihttp.StatusInvalidPath}
)
