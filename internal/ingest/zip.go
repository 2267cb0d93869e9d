package ingest

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rpggio/aoiforge/internal/domain/sample"
	"gopkg.in/yaml.v3"
)

const (
	classesFile  = "classes.txt"
	manifestFile = "manifest.yaml"
	labelsDir    = "labels/"
	imagesDir    = "images/"
)

// Manifest is the optional manifest.yaml of an import archive.
type Manifest struct {
	Line  sample.Line    `yaml:"line"`
	Remap map[int]string `yaml:"remap"`
}

// ZipImporter parses YOLO-style dataset archives:
//
//	classes.txt     one local class name per line, line index = local id
//	images/*        image files
//	labels/*.txt    "local_id cx cy w h" rows per image stem
//	manifest.yaml   optional line and explicit remap
type ZipImporter struct {
	dir      string
	maxBytes int64
}

var _ sample.Importer = (*ZipImporter)(nil)

// NewZipImporter creates an importer refusing archives larger than maxBytes.
// Source paths resolve inside dir and may not leave it. An empty dir
// disables path imports.
func NewZipImporter(dir string, maxBytes int64) *ZipImporter {
	if maxBytes <= 0 {
		maxBytes = 512 << 20
	}
	return &ZipImporter{dir: dir, maxBytes: maxBytes}
}

// Import parses the archive. Any malformed entry fails the whole batch.
func (z *ZipImporter) Import(ctx context.Context, src sample.ImportSource) (*sample.ImportBatch, error) {
	data, err := z.load(src)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening archive: %v", sample.ErrImport, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	var images []string
	for _, f := range zr.File {
		name := strings.TrimPrefix(path.Clean(f.Name), "./")
		if f.FileInfo().IsDir() {
			continue
		}
		files[name] = f
		if strings.HasPrefix(name, imagesDir) && isImageName(name) {
			images = append(images, name)
		}
	}
	sort.Strings(images)

	classesEntry, ok := files[classesFile]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", sample.ErrImport, classesFile)
	}
	classes, err := readLines(classesEntry)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", sample.ErrImport, classesFile, err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", sample.ErrImport, classesFile)
	}

	var manifest Manifest
	if entry, ok := files[manifestFile]; ok {
		raw, err := readAll(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", sample.ErrImport, manifestFile, err)
		}
		if err := yaml.Unmarshal(raw, &manifest); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", sample.ErrImport, manifestFile, err)
		}
		if manifest.Line != "" && !manifest.Line.Valid() {
			return nil, fmt.Errorf("%w: %s: unknown line %q", sample.ErrImport, manifestFile, manifest.Line)
		}
	}

	batch := &sample.ImportBatch{
		LocalClasses: classes,
		Remap:        manifest.Remap,
		Samples:      make([]sample.ImportedSample, 0, len(images)),
	}
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base := path.Base(img)
		stem := strings.TrimSuffix(base, path.Ext(base))
		imported := sample.ImportedSample{
			Filename:     base,
			ThumbnailRef: fmt.Sprintf("zip://%s/%s", src.Name, img),
			Line:         manifest.Line,
		}
		if entry, ok := files[labelsDir+stem+".txt"]; ok {
			boxes, err := readLabels(entry, len(classes), manifest.Remap)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", sample.ErrImport, entry.Name, err)
			}
			imported.Boxes = boxes
			imported.Labeled = true
		}
		batch.Samples = append(batch.Samples, imported)
	}
	if len(batch.Samples) == 0 {
		return nil, fmt.Errorf("%w: no images under %s", sample.ErrImport, imagesDir)
	}
	return batch, nil
}

func (z *ZipImporter) load(src sample.ImportSource) ([]byte, error) {
	if len(src.Data) > 0 {
		if int64(len(src.Data)) > z.maxBytes {
			return nil, fmt.Errorf("%w: archive exceeds %d bytes", sample.ErrImport, z.maxBytes)
		}
		return src.Data, nil
	}
	if src.Path == "" {
		return nil, fmt.Errorf("%w: no archive data or path", sample.ErrImport)
	}
	if z.dir == "" {
		return nil, fmt.Errorf("%w: path imports are disabled", sample.ErrImport)
	}

	// os.Root refuses absolute paths, ".." and symlinks leading outside dir.
	root, err := os.OpenRoot(z.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: import dir: %v", sample.ErrImport, err)
	}
	defer root.Close()

	f, err := root.Open(filepath.FromSlash(src.Path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sample.ErrImport, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sample.ErrImport, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a file", sample.ErrImport, src.Path)
	}
	if info.Size() > z.maxBytes {
		return nil, fmt.Errorf("%w: archive exceeds %d bytes", sample.ErrImport, z.maxBytes)
	}
	data, err := io.ReadAll(io.LimitReader(f, z.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sample.ErrImport, err)
	}
	if int64(len(data)) > z.maxBytes {
		return nil, fmt.Errorf("%w: archive exceeds %d bytes", sample.ErrImport, z.maxBytes)
	}
	return data, nil
}

func readLabels(f *zip.File, classCount int, remap map[int]string) ([]sample.LocalBox, error) {
	lines, err := readLines(f)
	if err != nil {
		return nil, err
	}
	boxes := make([]sample.LocalBox, 0, len(lines))
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, fmt.Errorf("line %d: want 5 fields, got %d", i+1, len(fields))
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: class id %q", i+1, fields[0])
		}
		if _, remapped := remap[id]; id < 0 || (id >= classCount && !remapped) {
			return nil, fmt.Errorf("line %d: class id %d not in %s", i+1, id, classesFile)
		}
		var v [4]float64
		for j := range v {
			v[j], err = strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %q is not a number", i+1, fields[j+1])
			}
		}
		cx, cy, w, h := v[0], v[1], v[2], v[3]
		boxes = append(boxes, sample.LocalBox{
			LocalClass: id,
			X:          cx - w/2,
			Y:          cy - h/2,
			Width:      w,
			Height:     h,
		})
	}
	return boxes, nil
}

func readLines(f *zip.File) ([]string, error) {
	raw, err := readAll(f)
	if err != nil {
		return nil, err
	}
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, 32<<20))
}

func isImageName(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
