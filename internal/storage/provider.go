// Package storage keeps uploaded media files on disk.
package storage

import (
	"path/filepath"
	"strings"
	"time"
)

// FileInfo describes one stored media file.
type FileInfo struct {
	Name     string    `json:"name"` // relative to the media root, slash separated
	Size     int64     `json:"size"`
	Checksum string    `json:"checksum"`
	ModTime  time.Time `json:"modTime"`
}

// Provider is the interface for media file operations. All paths are
// relative to the media root.
type Provider interface {
	// List returns every media file under dir.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Exists reports whether path names a regular file.
	Exists(path string) bool
	// Root returns the absolute media directory.
	Root() string
}

var mediaExts = map[string]string{
	".avif": "image/avif",
	".gif":  "image/gif",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// IsMediaFile reports whether name has a supported image extension.
func IsMediaFile(name string) bool {
	_, ok := mediaExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// MimeType guesses the MIME type from the file extension.
func MimeType(name string) string {
	return mediaExts[strings.ToLower(filepath.Ext(name))]
}

// ExtFor returns the file extension for a supported image MIME type.
func ExtFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "image/avif":
		return ".avif"
	}
	return ""
}
