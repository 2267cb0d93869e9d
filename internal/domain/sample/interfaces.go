package sample

import "context"

// Repository owns sample records. List returns insertion order.
type Repository interface {
	Add(ctx context.Context, samples ...Sample) error
	Get(ctx context.Context, id string) (*Sample, error)
	List(ctx context.Context, filter Filter) ([]Sample, error)
	Update(ctx context.Context, s *Sample) error
	Count(ctx context.Context) (int, error)
}

// Uploader stores an image and returns a resource locator for it.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// Importer parses an archive into samples that still carry local class ids.
type Importer interface {
	Import(ctx context.Context, src ImportSource) (*ImportBatch, error)
}

// Packager writes a dataset archive for a computed descriptor.
type Packager interface {
	Package(ctx context.Context, req PackageRequest) (*PackageResult, error)
}

// ImportBatch is the raw importer output before class remapping.
type ImportBatch struct {
	// LocalClasses holds the archive's class names; the index is the local id.
	LocalClasses []string
	// Remap holds explicit local id -> registry code overrides.
	Remap   map[int]string
	Samples []ImportedSample
}

// ImportedSample is a sample whose boxes reference local class ids.
type ImportedSample struct {
	Filename     string
	ThumbnailRef string
	Line         Line
	Boxes        []LocalBox
	Labeled      bool
}

// LocalBox is a bounding box keyed by an importer-local class id.
type LocalBox struct {
	LocalClass int
	X          float64
	Y          float64
	Width      float64
	Height     float64
}
