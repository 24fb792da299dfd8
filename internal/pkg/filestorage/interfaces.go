package filestorage

import "io"

// FileStorage stores uploaded documents and hands back opaque handles
type FileStorage interface {
	// Store saves r under subPath and returns the handle to persist
	Store(r io.Reader, originalName, subPath string) (string, error)

	// DeleteFile removes a stored file; unknown handles are not an error
	DeleteFile(handle string) error

	// GetFullPath returns the filesystem path for a handle
	GetFullPath(handle string) string
}
