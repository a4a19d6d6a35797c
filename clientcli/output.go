package clientcli

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sagarc03/fsapi"
)

// Formatter renders command results.
type Formatter interface {
	FormatUpload(w io.Writer, result *UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter writes aligned text. Quiet drops everything except the
// names printed by FormatList.
type HumanFormatter struct {
	Quiet bool
}

func (f *HumanFormatter) FormatUpload(w io.Writer, r *UploadResult) error {
	if f.Quiet {
		return nil
	}
	_, err := fmt.Fprintf(w, "Uploaded: %s -> %s (%d file(s))\n", r.LocalPath, displayDir(r.Dir), r.Files)
	return err
}

func (f *HumanFormatter) FormatDownload(w io.Writer, r *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if r.LocalPath == "-" {
		_, err := fmt.Fprintf(w, "Downloaded: %s\n", displayDir(r.Dir))
		return err
	}
	_, err := fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", displayDir(r.Dir), r.LocalPath, formatSize(r.Size))
	return err
}

func (f *HumanFormatter) FormatList(w io.Writer, r *ListResult) error {
	if len(r.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries found")
		return err
	}

	if f.Quiet {
		for _, e := range r.Entries {
			if _, err := fmt.Fprintln(w, entryName(e)); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, e := range r.Entries {
		size := "-"
		if !e.IsDir {
			size = formatSize(e.Size)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", entryName(e), size, e.ModTime.Format("2006-01-02 15:04:05"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d entries (%s total)\n", len(r.Entries), formatSize(r.TotalSize()))
	return err
}

func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %v\n", err)
	return werr
}

func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, _ bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  NAME\tENDPOINT\tUSER")
	for _, p := range profiles {
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s %s\t%s\t%s\n", marker, p.Name, p.Endpoint, p.User)
	}
	return tw.Flush()
}

func (f *HumanFormatter) FormatProfileShow(w io.Writer, p Profile, isDefault, showSecrets bool) error {
	name := p.Name
	if isDefault {
		name += " (default)"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Name:\t%s\n", name)
	_, _ = fmt.Fprintf(tw, "Endpoint:\t%s\n", p.Endpoint)
	_, _ = fmt.Fprintf(tw, "User:\t%s\n", p.User)
	_, _ = fmt.Fprintf(tw, "Secret Key:\t%s\n", maskSecret(p.SecretKey, showSecrets))
	_, _ = fmt.Fprintf(tw, "Fingerprint:\t%s\n", fingerprintOrDefault(p.Fingerprint))
	return tw.Flush()
}

// JSONFormatter writes indented JSON documents.
type JSONFormatter struct{}

func (f *JSONFormatter) FormatUpload(w io.Writer, r *UploadResult) error { return writeJSON(w, r) }

func (f *JSONFormatter) FormatDownload(w io.Writer, r *DownloadResult) error { return writeJSON(w, r) }

func (f *JSONFormatter) FormatList(w io.Writer, r *ListResult) error { return writeJSON(w, r) }

// FormatError includes the server status string when err carries an APIError.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	out := struct {
		Error  string `json:"error"`
		Status string `json:"status,omitempty"`
	}{Error: err.Error()}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		out.Status = apiErr.Status
	}
	return writeJSON(w, out)
}

type profileView struct {
	Name        string `json:"name"`
	Endpoint    string `json:"endpoint"`
	User        string `json:"user"`
	SecretKey   string `json:"secret_key"`
	Fingerprint string `json:"fingerprint"`
	Default     bool   `json:"default"`
}

func newProfileView(p Profile, isDefault, showSecrets bool) profileView {
	return profileView{
		Name:        p.Name,
		Endpoint:    p.Endpoint,
		User:        p.User,
		SecretKey:   maskSecret(p.SecretKey, showSecrets),
		Fingerprint: fingerprintOrDefault(p.Fingerprint),
		Default:     isDefault,
	}
}

func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	views := make([]profileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, newProfileView(p, p.Name == defaultName, showSecrets))
	}
	return writeJSON(w, struct {
		Profiles []profileView `json:"profiles"`
	}{views})
}

func (f *JSONFormatter) FormatProfileShow(w io.Writer, p Profile, isDefault, showSecrets bool) error {
	return writeJSON(w, newProfileView(p, isDefault, showSecrets))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func entryName(e fsapi.Entry) string {
	if e.IsDir {
		return e.Name + "/"
	}
	return e.Name
}

// displayDir renders a directory relative to the user's root.
func displayDir(dir string) string {
	if dir == "" {
		return "~"
	}
	return "~/" + dir
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

// maskSecret keeps the first and last four characters of secrets longer
// than eight.
func maskSecret(secret string, show bool) string {
	switch {
	case show:
		return secret
	case secret == "":
		return "(not set)"
	case len(secret) <= 8:
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func fingerprintOrDefault(fp string) string {
	return cmp.Or(fp, string(fsapi.FingerprintMD5))
}
