// Package mime provides the extension-to-content-type lookup spec §1
// treats as an external collaborator ("MIME-type lookup by extension").
// It is a small new table, not adapted from the teacher's mime package:
// the teacher's mime/*.go implements RFC 2046 multipart reader/writer
// (multipart/form-data), and parsing that format is an explicit Non-goal
// (spec §1) — see DESIGN.md.
package mime

import (
	"path/filepath"
	"strings"
)

var byExtension = map[string]string{
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json",
	".txt":  "text/plain; charset=utf-8",
	".xml":  "application/xml",
	".csv":  "text/csv; charset=utf-8",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
	".wasm": "application/wasm",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

const defaultType = "application/octet-stream"

// ForPath returns the content type for a file path by its extension,
// falling back to application/octet-stream for anything unrecognized.
func ForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := byExtension[ext]; ok {
		return ct
	}
	return defaultType
}
