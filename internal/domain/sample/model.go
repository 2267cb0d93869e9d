package sample

import "time"

// Line identifies the production line a sample was captured on.
type Line string

const (
	LineWireless Line = "WIRELESS"
	LineOptical  Line = "OPTICAL"
)

// Valid reports whether l is a known production line.
func (l Line) Valid() bool {
	return l == LineWireless || l == LineOptical
}

// Status is the labeling status of a sample.
type Status string

const (
	StatusLabeled   Status = "LABELED"
	StatusUnlabeled Status = "UNLABELED"
)

// BoundingBox is a defect region in normalized image coordinates.
type BoundingBox struct {
	ClassCode  string  `json:"class_code" yaml:"class_code"`
	X          float64 `json:"x" yaml:"x"`
	Y          float64 `json:"y" yaml:"y"`
	Width      float64 `json:"width" yaml:"width"`
	Height     float64 `json:"height" yaml:"height"`
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Valid reports whether the box lies inside the unit square and has area.
func (b BoundingBox) Valid() bool {
	if b.Width <= 0 || b.Height <= 0 {
		return false
	}
	if b.X < 0 || b.Y < 0 || b.X+b.Width > 1 || b.Y+b.Height > 1 {
		return false
	}
	return b.Confidence >= 0 && b.Confidence <= 1
}

// Sample is one inspected image with its defect annotations.
type Sample struct {
	ID           string        `json:"id"`
	Filename     string        `json:"filename"`
	ThumbnailRef string        `json:"thumbnail_ref"`
	Line         Line          `json:"line"`
	Defects      []string      `json:"defects"`
	Boxes        []BoundingBox `json:"boxes,omitempty"`
	Status       Status        `json:"status"`
	UploadDate   time.Time     `json:"upload_date"`
}

// Clone returns a deep copy so callers cannot alias store-owned slices.
func (s Sample) Clone() Sample {
	out := s
	if s.Defects != nil {
		out.Defects = append([]string(nil), s.Defects...)
	}
	if s.Boxes != nil {
		out.Boxes = append([]BoundingBox(nil), s.Boxes...)
	}
	return out
}

// HasAnyDefect reports whether the sample carries at least one of codes.
func (s Sample) HasAnyDefect(codes map[string]struct{}) bool {
	for _, d := range s.Defects {
		if _, ok := codes[d]; ok {
			return true
		}
	}
	return false
}

// PackageDescriptor describes a dataset package computed from the store.
type PackageDescriptor struct {
	SampleIDs         []string `json:"sample_ids"`
	SizeEstimateBytes int64    `json:"size_estimate_bytes"`
	TrainCount        int      `json:"train_count"`
	ValCount          int      `json:"val_count"`
}

// PackageResult is what the packaging collaborator produced.
type PackageResult struct {
	Name       string `json:"name"`
	Location   string `json:"location"`
	SizeBytes  int64  `json:"size_bytes"`
	TrainCount int    `json:"train_count"`
	ValCount   int    `json:"val_count"`
}

// ImportResult summarizes an applied import batch.
type ImportResult struct {
	Source   string         `json:"source"`
	Imported []Sample       `json:"imported"`
	Remap    map[int]string `json:"remap"`
}
