package filestorage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/logger"
)

// sniffLen is how much of an upload is read before deciding its type
const sniffLen = 3072

// ErrInvalidHandle is returned for handles that escape the storage root
var ErrInvalidHandle = errors.New("invalid file handle")

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath     string
	maxBytes     int64
	allowedTypes []string
}

// NewLocalStorage creates the storage root if needed. allowedTypes are MIME types matched
// against the sniffed content; an empty list accepts anything.
func NewLocalStorage(basePath string, maxBytes int64, allowedTypes []string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath:     basePath,
		maxBytes:     maxBytes,
		allowedTypes: allowedTypes,
	}, nil
}

// BasePath returns the storage root
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

func (ls *LocalStorage) allowed(m *mimetype.MIME) bool {
	if len(ls.allowedTypes) == 0 {
		return true
	}
	for _, t := range ls.allowedTypes {
		if m.Is(t) {
			return true
		}
	}
	return false
}

// Store sniffs the content type, enforces the size cap and writes the file under a UUID name.
func (ls *LocalStorage) Store(r io.Reader, originalName, subPath string) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", apperrors.NewCustomError(apperrors.ErrUnsupportedDocument, originalName+" is empty")
	}

	mime := mimetype.Detect(head)
	if !ls.allowed(mime) {
		logger.Warn().Str("filename", originalName).Str("mime", mime.String()).Msg("Rejected upload with unsupported type")
		return "", apperrors.NewCustomError(apperrors.ErrUnsupportedDocument,
			fmt.Sprintf("%s: %s is not an accepted document type", originalName, mime.String()))
	}

	dir := ls.basePath
	if subPath != "" {
		dir = filepath.Join(ls.basePath, filepath.FromSlash(subPath))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create subdirectory: %w", err)
		}
	}

	name := uuid.New().String() + mime.Extension()
	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	src := io.MultiReader(bytes.NewReader(head), r)
	if ls.maxBytes > 0 {
		src = io.LimitReader(src, ls.maxBytes+1)
	}
	written, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", closeErr)
	case ls.maxBytes > 0 && written > ls.maxBytes:
		_ = os.Remove(dstPath)
		return "", apperrors.NewCustomError(apperrors.ErrDocumentTooLarge,
			fmt.Sprintf("%s exceeds the %d MB limit", originalName, ls.maxBytes>>20))
	}

	handle := path.Join(filepath.ToSlash(subPath), name)
	logger.Info().Str("filename", originalName).Str("handle", handle).Str("mime", mime.String()).Int64("bytes", written).Msg("File saved successfully")
	return handle, nil
}

func (ls *LocalStorage) resolve(handle string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(handle))
	if clean == "/" {
		return "", ErrInvalidHandle
	}
	return filepath.Join(ls.basePath, filepath.FromSlash(clean)), nil
}

// DeleteFile removes a stored file. Deleting a missing file succeeds.
func (ls *LocalStorage) DeleteFile(handle string) error {
	if handle == "" {
		return nil
	}
	full, err := ls.resolve(handle)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", full).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", full).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", full).Msg("File deleted successfully")
	return nil
}

// GetFullPath returns the filesystem path for a handle, or "" for an invalid one
func (ls *LocalStorage) GetFullPath(handle string) string {
	full, err := ls.resolve(handle)
	if err != nil {
		return ""
	}
	return full
}
