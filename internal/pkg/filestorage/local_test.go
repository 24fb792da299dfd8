package filestorage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yigit/servicedesk/internal/pkg/apperrors"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0}
)

func newStorage(t *testing.T, max int64) *LocalStorage {
	t.Helper()
	ls, err := NewLocalStorage(t.TempDir(), max, []string{"application/pdf", "image/jpeg", "image/png"})
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return ls
}

func TestStoreAcceptsPDFAndPNG(t *testing.T) {
	ls := newStorage(t, 1<<20)

	for name, content := range map[string][]byte{"receipt.pdf": pdfBytes, "photo.png": pngBytes} {
		handle, err := ls.Store(bytes.NewReader(content), name, "requests")
		if err != nil {
			t.Fatalf("Store(%s): %v", name, err)
		}
		if !strings.HasPrefix(handle, "requests/") || filepath.Ext(handle) != filepath.Ext(name) {
			t.Fatalf("unexpected handle %q for %s", handle, name)
		}
		got, err := os.ReadFile(ls.GetFullPath(handle))
		if err != nil || !bytes.Equal(got, content) {
			t.Fatalf("stored content mismatch for %s: %v", name, err)
		}
	}
}

func TestStoreRejectsUnsupportedContent(t *testing.T) {
	ls := newStorage(t, 1<<20)

	// The extension claims PDF but the bytes are plain text
	_, err := ls.Store(strings.NewReader("just some notes"), "notes.pdf", "")
	if !errors.Is(err, apperrors.ErrUnsupportedDocument) {
		t.Fatalf("expected ErrUnsupportedDocument, got %v", err)
	}
	entries, _ := os.ReadDir(ls.BasePath())
	if len(entries) != 0 {
		t.Fatalf("rejected upload left files behind: %v", entries)
	}
}

func TestStoreEnforcesSizeCap(t *testing.T) {
	ls := newStorage(t, 100)

	big := append(append([]byte{}, pdfBytes...), bytes.Repeat([]byte("x"), 200)...)
	_, err := ls.Store(bytes.NewReader(big), "big.pdf", "requests")
	if !errors.Is(err, apperrors.ErrDocumentTooLarge) {
		t.Fatalf("expected ErrDocumentTooLarge, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(ls.BasePath(), "requests"))
	if len(entries) != 0 {
		t.Fatalf("oversized upload left files behind: %v", entries)
	}
}

func TestDeleteFile(t *testing.T) {
	ls := newStorage(t, 1<<20)
	handle, err := ls.Store(bytes.NewReader(pdfBytes), "a.pdf", "requests")
	if err != nil {
		t.Fatal(err)
	}

	if err := ls.DeleteFile(handle); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := os.Stat(ls.GetFullPath(handle)); !os.IsNotExist(err) {
		t.Fatalf("file still present: %v", err)
	}
	if err := ls.DeleteFile(handle); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestHandlesStayInsideRoot(t *testing.T) {
	ls := newStorage(t, 1<<20)
	full := ls.GetFullPath("../../etc/passwd")
	if !strings.HasPrefix(full, ls.BasePath()) {
		t.Fatalf("handle escaped storage root: %s", full)
	}
	if ls.GetFullPath("") != "" {
		t.Fatal("empty handle must not resolve")
	}
}
