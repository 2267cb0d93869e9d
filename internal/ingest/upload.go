// Package ingest implements the upload and dataset import collaborators.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/aoiforge/internal/domain/sample"
)

// DefaultMaxUploadBytes caps a single uploaded image.
const DefaultMaxUploadBytes = 20 << 20

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// DirUploader stores uploaded images under a directory.
type DirUploader struct {
	dir      string
	maxBytes int
}

var _ sample.Uploader = (*DirUploader)(nil)

// NewDirUploader creates the directory if needed.
func NewDirUploader(dir string, maxBytes int) (*DirUploader, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &DirUploader{dir: abs, maxBytes: maxBytes}, nil
}

// Upload accepts PNG or JPEG content and returns a file:// locator.
func (u *DirUploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", sample.ErrUpload)
	}
	if len(data) > u.maxBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", sample.ErrUpload, filename, u.maxBytes)
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s is %s, want PNG or JPEG", sample.ErrUpload, filename, contentType)
	}

	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name := fmt.Sprintf("%s-%s%s", sanitize(stem), uuid.NewString()[:8], ext)
	target := filepath.Join(u.dir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", sample.ErrUpload, name, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(target)}).String(), nil
}

func sanitize(stem string) string {
	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}
