package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/aoiforge/internal/clock"
	"github.com/rpggio/aoiforge/internal/domain/sample"
)

// SimulatedImporter waits a fixed delay on a clock before producing its
// batch. With archive content it delegates parsing to Inner; otherwise it
// synthesizes a small batch whose local class 0 is "scratch".
type SimulatedImporter struct {
	clock clock.Clock
	delay time.Duration
	count int
	inner sample.Importer
}

var _ sample.Importer = (*SimulatedImporter)(nil)

// NewSimulatedImporter creates a simulated importer. inner may be nil.
func NewSimulatedImporter(c clock.Clock, delay time.Duration, count int, inner sample.Importer) *SimulatedImporter {
	if count <= 0 {
		count = 3
	}
	return &SimulatedImporter{clock: c, delay: delay, count: count, inner: inner}
}

// Import blocks for the configured delay or until ctx is done.
func (s *SimulatedImporter) Import(ctx context.Context, src sample.ImportSource) (*sample.ImportBatch, error) {
	ready := make(chan struct{})
	timer := s.clock.AfterFunc(s.delay, func() { close(ready) })
	select {
	case <-ready:
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	}

	if s.inner != nil && (len(src.Data) > 0 || src.Path != "") {
		return s.inner.Import(ctx, src)
	}

	name := src.Name
	if name == "" {
		name = "simulated"
	}
	batch := &sample.ImportBatch{
		LocalClasses: []string{"scratch"},
		Samples:      make([]sample.ImportedSample, 0, s.count),
	}
	for i := 0; i < s.count; i++ {
		filename := fmt.Sprintf("%s_%04d.jpg", name, i+1)
		batch.Samples = append(batch.Samples, sample.ImportedSample{
			Filename:     filename,
			ThumbnailRef: fmt.Sprintf("zip://%s/images/%s", name, filename),
			Boxes: []sample.LocalBox{
				{LocalClass: 0, X: 0.2, Y: 0.3, Width: 0.25, Height: 0.04},
			},
			Labeled: true,
		})
	}
	return batch, nil
}
