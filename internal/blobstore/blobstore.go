// Package blobstore keeps uploaded blob bytes on a filesystem.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

var (
	// ErrNotFound is returned when no blob exists under a key.
	ErrNotFound = errors.New("blob not found")
	// ErrTooLarge is returned when a write exceeds the configured limit.
	ErrTooLarge = errors.New("blob exceeds size limit")
)

// sniffLen is how many leading bytes are used to detect the content type.
const sniffLen = 3072

// Stored describes a blob after it has been written.
type Stored struct {
	Key         string
	ContentType string
	Size        int64
}

// Store writes and reads blobs under a root directory of an afero filesystem.
type Store struct {
	fs       afero.Fs
	maxBytes int64
}

// New returns a Store rooted at dir on fs. The directory is created if needed.
func New(fs afero.Fs, dir string, maxBytes int64) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir %s: %w", dir, err)
	}
	return &Store{
		fs:       afero.NewBasePathFs(fs, dir),
		maxBytes: maxBytes,
	}, nil
}

// NewOS returns a Store backed by the operating system filesystem.
func NewOS(dir string, maxBytes int64) (*Store, error) {
	return New(afero.NewOsFs(), dir, maxBytes)
}

// Put streams r into the blob at key. The content is written to a temporary
// file and renamed into place, so readers never see a partial blob. If r
// yields more than the size limit, nothing is stored and ErrTooLarge is
// returned.
func (s *Store) Put(key string, r io.Reader) (*Stored, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	head = head[:n]

	tmp, err := afero.TempFile(s.fs, ".", ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = s.fs.Remove(tmpName)
		}
	}()

	limited := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.maxBytes+1)
	size, err := io.Copy(tmp, limited)
	closeErr := tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to close blob %s: %w", key, closeErr)
	}
	if size > s.maxBytes {
		return nil, ErrTooLarge
	}

	if err := s.fs.Rename(tmpName, filepath.Base(key)); err != nil {
		return nil, fmt.Errorf("failed to commit blob %s: %w", key, err)
	}
	committed = true

	return &Stored{
		Key:         key,
		ContentType: mimetype.Detect(head).String(),
		Size:        size,
	}, nil
}

// Open returns a reader for the blob at key and its size.
func (s *Store) Open(key string) (afero.File, int64, error) {
	f, err := s.fs.Open(filepath.Base(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("failed to stat blob %s: %w", key, err)
	}
	return f, info.Size(), nil
}

// Delete removes the blob at key. Missing blobs are not an error.
func (s *Store) Delete(key string) error {
	err := s.fs.Remove(filepath.Base(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the blob root is still a reachable directory.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := s.fs.Stat("/")
	if err != nil {
		return fmt.Errorf("failed to stat blob root: %w", err)
	}
	if !info.IsDir() {
		return errors.New("blob root is not a directory")
	}
	return nil
}
