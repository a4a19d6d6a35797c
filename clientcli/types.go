package clientcli

import "github.com/sagarc03/fsapi"

// ListKind selects which entries a listing returns.
type ListKind string

const (
	// ListAll lists files and directories (/ls).
	ListAll ListKind = "ls"
	// ListFiles lists files only (/lof).
	ListFiles ListKind = "lof"
	// ListDirs lists directories only (/lod).
	ListDirs ListKind = "lod"
)

// IsValid reports whether k names a listing endpoint.
func (k ListKind) IsValid() bool {
	switch k {
	case ListAll, ListFiles, ListDirs:
		return true
	default:
		return false
	}
}

// ListOptions configures a list operation.
type ListOptions struct {
	Dir  string // relative to the user's directory, empty for the top
	Kind ListKind
}

// ListResult holds the entries of one directory.
type ListResult struct {
	Dir     string        `json:"dir"`
	Entries []fsapi.Entry `json:"entries"`
}

// TotalSize calculates the total size of all entries in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, e := range r.Entries {
		total += e.Size
	}
	return total
}

// DownloadOptions configures an archive download.
type DownloadOptions struct {
	Dir       string
	LocalPath string // empty = name from the server, "-" = stdout
}

// DownloadResult represents the result of downloading an archive.
type DownloadResult struct {
	Dir       string `json:"dir"`
	LocalPath string `json:"local_path"`
	Size      int64  `json:"size_bytes"`
}

// UploadOptions configures an archive upload.
type UploadOptions struct {
	// LocalPath is a zip archive, or a directory zipped on the fly.
	LocalPath string
	Dir       string
}

// UploadResult represents the result of uploading an archive.
type UploadResult struct {
	LocalPath string `json:"local_path"`
	Dir       string `json:"dir"`
	Files     int    `json:"files"`
}
