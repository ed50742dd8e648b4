// Package storage implements the file attachment policy: deciding which
// filenames are acceptable, deriving collision-resistant storage names
// and mapping them to paths under a single configured root directory.
// No subdirectory structure exists; the physical location of a file is a
// pure function of its storage name and the root.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/taskhive/taskhive/internal/utils"
)

// maxBaseLen bounds the sanitized base name so storage names stay well
// inside filesystem and column limits.
const maxBaseLen = 200

// Store owns the upload root and the extension allow-list.
type Store struct {
	Root    string          // root directory all files live in
	Allowed map[string]bool // lowercased extensions without dots; empty means accept anything
}

// New constructs a Store.  The root directory is created lazily on the
// first save.
func New(root string, allowed map[string]bool) *Store {
	return &Store{Root: root, Allowed: allowed}
}

// IsAllowed reports whether a filename passes the extension allow-list.
// An empty allow-list accepts anything.  With a non-empty list the name
// must actually carry an extension and it must be listed.
func (s *Store) IsAllowed(filename string) bool {
	if len(s.Allowed) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return false
	}
	return s.Allowed[ext]
}

// StorageName derives a unique on-disk name from the original filename:
// the sanitized base name truncated to a bounded length, an underscore,
// a random hex token, and the original extension.  Collisions are
// negligible with a 16-byte token.
func (s *Store) StorageName(original string) (string, error) {
	ext := filepath.Ext(original)
	base := sanitizeBase(strings.TrimSuffix(filepath.Base(original), ext))
	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}
	token, err := utils.RandomHex(16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s%s", base, token, strings.ToLower(ext)), nil
}

// Path returns the absolute location of a stored file.
func (s *Store) Path(storageName string) string {
	return filepath.Join(s.Root, storageName)
}

// Save writes the content under the given storage name, creating the
// root directory if needed.  On a write error the partial file is
// removed so failed uploads leave no bytes behind.
func (s *Store) Save(storageName string, content io.Reader) error {
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return err
	}
	path := s.Path(storageName)
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, content); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return err
	}
	return dst.Close()
}

// Remove deletes a stored file.  A missing file is not an error: the
// record may outlive the bytes (or vice versa) after a crashed cleanup,
// and removal must stay idempotent.
func (s *Store) Remove(storageName string) error {
	err := os.Remove(s.Path(storageName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll removes a batch of stored files, used after cascade deletes.
// Failures are collected into a single error; the database rows are
// already gone at this point so there is nothing to roll back.
func (s *Store) RemoveAll(storageNames []string) error {
	var firstErr error
	for _, name := range storageNames {
		if err := s.Remove(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// sanitizeBase keeps ASCII letters, digits, dots, dashes and underscores
// and maps runs of anything else to a single underscore.  The result may
// be empty for fully exotic names; "file" is used then so the storage
// name never starts with the separator.
func sanitizeBase(base string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._-")
	if out == "" {
		return "file"
	}
	return out
}
