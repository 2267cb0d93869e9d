// Package packager writes dataset packages as zip archives.
package packager

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rpggio/aoiforge/internal/domain/sample"
	"gopkg.in/yaml.v3"
)

// Manifest is written as manifest.yaml at the archive root.
type Manifest struct {
	Name              string        `yaml:"name"`
	CreatedAt         time.Time     `yaml:"created_at"`
	SplitRatio        float64       `yaml:"split_ratio"`
	Lines             []sample.Line `yaml:"lines,omitempty"`
	Classes           []string      `yaml:"classes,omitempty"`
	TrainCount        int           `yaml:"train_count"`
	ValCount          int           `yaml:"val_count"`
	SizeEstimateBytes int64         `yaml:"size_estimate_bytes"`
}

// ZipPackager writes packages under a directory. Images are referenced by
// their thumbnail locator rather than copied, so the reported size is the
// descriptor's estimate of the full package.
type ZipPackager struct {
	dir string
	now func() time.Time
}

var _ sample.Packager = (*ZipPackager)(nil)

// New creates the output directory if needed.
func New(dir string) (*ZipPackager, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("package dir is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving package dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating package dir: %w", err)
	}
	return &ZipPackager{dir: abs, now: time.Now}, nil
}

// Package writes <name>.zip with manifest.yaml, train.txt and val.txt.
func (p *ZipPackager) Package(ctx context.Context, req sample.PackageRequest) (*sample.PackageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := fileName(req.Name)
	target := filepath.Join(p.dir, name)

	tmp, err := os.CreateTemp(p.dir, ".pkg-*")
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := p.write(tmp, req); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return nil, fmt.Errorf("publishing archive: %w", err)
	}

	return &sample.PackageResult{
		Name:       name,
		Location:   (&url.URL{Scheme: "file", Path: filepath.ToSlash(target)}).String(),
		SizeBytes:  req.Descriptor.SizeEstimateBytes,
		TrainCount: len(req.Train),
		ValCount:   len(req.Val),
	}, nil
}

func (p *ZipPackager) write(w io.Writer, req sample.PackageRequest) error {
	zw := zip.NewWriter(w)

	manifest := Manifest{
		Name:              req.Name,
		CreatedAt:         p.now().UTC(),
		SplitRatio:        req.Config.SplitRatio,
		Lines:             req.Config.Lines,
		Classes:           req.Config.Classes,
		TrainCount:        len(req.Train),
		ValCount:          len(req.Val),
		SizeEstimateBytes: req.Descriptor.SizeEstimateBytes,
	}
	raw, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := writeEntry(zw, "manifest.yaml", raw); err != nil {
		return err
	}
	if err := writeEntry(zw, "train.txt", []byte(listing(req.Train))); err != nil {
		return err
	}
	if err := writeEntry(zw, "val.txt", []byte(listing(req.Val))); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// listing renders one "id<TAB>locator<TAB>defects" row per sample.
func listing(samples []sample.Sample) string {
	var b strings.Builder
	for _, s := range samples {
		ref := s.ThumbnailRef
		if ref == "" {
			ref = s.Filename
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\n", s.ID, ref, strings.Join(s.Defects, ","))
	}
	return b.String()
}

func fileName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r < 0x20:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		out = "dataset"
	}
	if !strings.HasSuffix(strings.ToLower(out), ".zip") {
		out += ".zip"
	}
	return out
}
