// Package media picks local images and uploads them to blob storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stwalsh4118/grownby/internal/backend"
	"github.com/stwalsh4118/grownby/internal/logger"
)

var (
	// ErrUpload wraps every failed upload. The farm must not be created.
	ErrUpload = errors.New("image upload failed")
	// ErrPickCancelled is returned when no file was chosen.
	ErrPickCancelled = errors.New("image pick cancelled")
	// ErrNotImage is returned when the chosen file is not an image.
	ErrNotImage = errors.New("file is not an image")
)

// LocalImage is an image chosen on this device. The zero value means no
// image.
type LocalImage struct {
	Path        string
	ContentType string
	Size        int64
}

// Empty reports whether no image was chosen.
func (l LocalImage) Empty() bool {
	return l.Path == ""
}

// Picker validates files chosen in the file picker.
type Picker struct {
	fs afero.Fs
}

// NewPicker creates a Picker reading from fs.
func NewPicker(fs afero.Fs) *Picker {
	return &Picker{fs: fs}
}

// Pick checks that path is a readable image file.
func (p *Picker) Pick(path string) (LocalImage, error) {
	if strings.TrimSpace(path) == "" {
		return LocalImage{}, ErrPickCancelled
	}

	info, err := p.fs.Stat(path)
	if err != nil {
		return LocalImage{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return LocalImage{}, fmt.Errorf("%s: %w", path, ErrNotImage)
	}

	f, err := p.fs.Open(path)
	if err != nil {
		return LocalImage{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return LocalImage{}, fmt.Errorf("failed to sniff %s: %w", path, err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return LocalImage{}, fmt.Errorf("%s is %s: %w", path, mtype.String(), ErrNotImage)
	}

	return LocalImage{Path: path, ContentType: mtype.String(), Size: info.Size()}, nil
}

// Uploader streams local images to the blob store.
type Uploader struct {
	fs     afero.Fs
	blobs  backend.BlobStore
	log    *logger.Logger
	newKey func() string
}

// NewUploader creates an Uploader. Blob keys are random UUIDs.
func NewUploader(fs afero.Fs, blobs backend.BlobStore, log *logger.Logger) *Uploader {
	if log == nil {
		log = logger.Nop()
	}
	return &Uploader{fs: fs, blobs: blobs, log: log.WithComponent("media"), newKey: uuid.NewString}
}

// Upload sends the image and returns its permanent download URL. An empty
// ref uploads nothing and returns "". onProgress receives the rounded
// percentage sent and may be nil.
func (u *Uploader) Upload(ctx context.Context, ref LocalImage, onProgress func(percent int)) (string, error) {
	if ref.Empty() {
		return "", nil
	}

	data, err := afero.ReadFile(u.fs, ref.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}

	key := u.newKey()
	last := -1
	url, err := u.blobs.PutStream(ctx, key, bytes.NewReader(data), int64(len(data)), func(p backend.Progress) {
		pct := p.Percent()
		if pct == last || onProgress == nil {
			return
		}
		last = pct
		onProgress(pct)
	})
	if err != nil {
		u.log.Error("Image upload failed", err, map[string]interface{}{
			"key":  key,
			"path": ref.Path,
		})
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}

	u.log.Info("Image uploaded", map[string]interface{}{
		"key":   key,
		"bytes": len(data),
	})
	return url, nil
}
