package sample

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/aoiforge/internal/domain/class"
	"github.com/rpggio/aoiforge/internal/repository"
)

// Metrics receives store counters.
type Metrics interface {
	ImportCompleted(samples int)
	ImportFailed()
	SampleUploaded()
	AnnotationSaved()
}

// Collaborators are the external systems the store talks to.
type Collaborators struct {
	Uploader Uploader
	Importer Importer
	Packager Packager
}

// Service handles sample store operations.
type Service struct {
	repo     Repository
	registry *class.Registry
	collab   Collaborators
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new sample service.
func NewService(repo Repository, registry *class.Registry, collab Collaborators, metrics Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		repo:     repo,
		registry: registry,
		collab:   collab,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Registry returns the class registry the service validates against.
func (s *Service) Registry() *class.Registry {
	return s.registry
}

// List returns samples matching filter in insertion order.
func (s *Service) List(ctx context.Context, filter Filter) ([]Sample, error) {
	if filter.Line != nil && !filter.Line.Valid() {
		return nil, fmt.Errorf("%w: line %q", ErrInvalidInput, *filter.Line)
	}
	samples, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing samples: %w", err)
	}
	return samples, nil
}

// Get returns a sample by ID.
func (s *Service) Get(ctx context.Context, id string) (*Sample, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	smp, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSampleNotFound
		}
		return nil, fmt.Errorf("loading sample: %w", err)
	}
	return smp, nil
}

// Seed adds samples when the store is empty. Defect codes must be registered.
func (s *Service) Seed(ctx context.Context, samples []Sample) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting samples: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, smp := range samples {
		if err := s.registry.Validate(smp.Defects); err != nil {
			return fmt.Errorf("seeding %s: %w", smp.ID, err)
		}
	}
	if err := s.repo.Add(ctx, samples...); err != nil {
		return fmt.Errorf("seeding samples: %w", err)
	}
	s.logger.Debug("seeded sample store", "count", len(samples))
	return nil
}

// Upload stores an image through the upload collaborator and records an
// unlabeled sample for it.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Sample, error) {
	if s.collab.Uploader == nil {
		return nil, fmt.Errorf("%w: uploader", ErrNotConfigured)
	}
	if strings.TrimSpace(req.Filename) == "" || len(req.Data) == 0 {
		return nil, ErrInvalidInput
	}
	if !req.Line.Valid() {
		return nil, fmt.Errorf("%w: line %q", ErrInvalidInput, req.Line)
	}

	locator, err := s.collab.Uploader.Upload(ctx, req.Filename, req.Data)
	if err != nil {
		if errors.Is(err, ErrUpload) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	smp := Sample{
		ID:           uuid.NewString(),
		Filename:     path.Base(req.Filename),
		ThumbnailRef: locator,
		Line:         req.Line,
		Defects:      []string{},
		Status:       StatusUnlabeled,
		UploadDate:   s.now(),
	}
	if err := s.repo.Add(ctx, smp); err != nil {
		return nil, fmt.Errorf("adding uploaded sample: %w", err)
	}
	if s.metrics != nil {
		s.metrics.SampleUploaded()
	}
	return &smp, nil
}

// ImportBatch runs the import collaborator, remaps local class ids onto the
// registry and appends the produced samples. Nothing is applied unless the
// whole batch converts.
func (s *Service) ImportBatch(ctx context.Context, src ImportSource) (*ImportResult, error) {
	result, err := s.importBatch(ctx, src)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ImportFailed()
		}
		s.logger.Warn("import failed", "source", src.Name, "error", err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ImportCompleted(len(result.Imported))
	}
	s.logger.Info("import completed", "source", src.Name, "samples", len(result.Imported))
	return result, nil
}

func (s *Service) importBatch(ctx context.Context, src ImportSource) (*ImportResult, error) {
	if s.collab.Importer == nil {
		return nil, fmt.Errorf("%w: importer", ErrNotConfigured)
	}
	fallback, err := src.FallbackLine()
	if err != nil {
		return nil, err
	}

	batch, err := s.collab.Importer.Import(ctx, src)
	if err != nil {
		if errors.Is(err, ErrImport) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrImport, err)
	}
	if batch == nil || len(batch.Samples) == 0 {
		return nil, fmt.Errorf("%w: archive contains no samples", ErrImport)
	}

	remap, err := s.registry.BuildRemap(batch.LocalClasses, batch.Remap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImport, err)
	}

	now := s.now()
	samples := make([]Sample, 0, len(batch.Samples))
	for _, in := range batch.Samples {
		smp, err := convertImported(in, remap, fallback, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrImport, in.Filename, err)
		}
		samples = append(samples, smp)
	}

	if err := s.repo.Add(ctx, samples...); err != nil {
		return nil, fmt.Errorf("%w: applying batch: %v", ErrImport, err)
	}

	return &ImportResult{
		Source:   src.Name,
		Imported: samples,
		Remap:    remap,
	}, nil
}

func convertImported(in ImportedSample, remap class.RemapTable, fallback Line, now time.Time) (Sample, error) {
	line := in.Line
	if line == "" {
		line = fallback
	}
	if !line.Valid() {
		return Sample{}, fmt.Errorf("line %q", line)
	}
	if strings.TrimSpace(in.Filename) == "" {
		return Sample{}, errors.New("missing filename")
	}

	boxes := make([]BoundingBox, 0, len(in.Boxes))
	for _, lb := range in.Boxes {
		code, ok := remap[lb.LocalClass]
		if !ok {
			return Sample{}, fmt.Errorf("local class id %d has no mapping", lb.LocalClass)
		}
		box := BoundingBox{ClassCode: code, X: lb.X, Y: lb.Y, Width: lb.Width, Height: lb.Height}
		if !box.Valid() {
			return Sample{}, fmt.Errorf("box out of bounds: %+v", lb)
		}
		boxes = append(boxes, box)
	}

	status := StatusUnlabeled
	if in.Labeled || len(boxes) > 0 {
		status = StatusLabeled
	}

	return Sample{
		ID:           uuid.NewString(),
		Filename:     in.Filename,
		ThumbnailRef: in.ThumbnailRef,
		Line:         line,
		Defects:      defectsFromBoxes(boxes),
		Boxes:        boxes,
		Status:       status,
		UploadDate:   now,
	}, nil
}

// SaveAnnotation commits edited boxes to the store and marks the sample labeled.
func (s *Service) SaveAnnotation(ctx context.Context, id string, boxes []BoundingBox) (*Sample, error) {
	smp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for i := range boxes {
		c, ok := s.registry.Lookup(boxes[i].ClassCode)
		if !ok {
			return nil, fmt.Errorf("%w: %q", class.ErrUnknownClass, boxes[i].ClassCode)
		}
		boxes[i].ClassCode = c.Code
		if !boxes[i].Valid() {
			return nil, fmt.Errorf("%w: box %d out of bounds", ErrInvalidInput, i)
		}
	}

	smp.Boxes = append([]BoundingBox(nil), boxes...)
	smp.Defects = defectsFromBoxes(smp.Boxes)
	smp.Status = StatusLabeled

	if err := s.repo.Update(ctx, smp); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSampleNotFound
		}
		return nil, fmt.Errorf("saving annotation: %w", err)
	}
	if s.metrics != nil {
		s.metrics.AnnotationSaved()
	}
	return smp, nil
}

func defectsFromBoxes(boxes []BoundingBox) []string {
	seen := make(map[string]struct{}, len(boxes))
	defects := make([]string, 0, len(boxes))
	for _, b := range boxes {
		if _, ok := seen[b.ClassCode]; ok {
			continue
		}
		seen[b.ClassCode] = struct{}{}
		defects = append(defects, b.ClassCode)
	}
	return defects
}
