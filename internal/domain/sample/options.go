package sample

import "fmt"

// Filter narrows a sample listing. Zero value lists everything.
type Filter struct {
	Line  *Line
	Query string
}

// DatasetConfig selects samples for a training package.
// Empty Lines or Classes means no restriction on that axis.
type DatasetConfig struct {
	Lines      []Line   `json:"lines"`
	Classes    []string `json:"classes"`
	SplitRatio float64  `json:"split_ratio"`
}

// UploadRequest carries one image to upload.
type UploadRequest struct {
	Filename string
	Line     Line
	Data     []byte
}

// ImportSource identifies an archive handed to the import collaborator.
type ImportSource struct {
	Name string
	Path string
	Data []byte
	// Line applies to imported samples whose archive does not name one.
	// Empty means DefaultImportLine.
	Line Line
}

// DefaultImportLine is the line given to imported samples when neither the
// archive nor the caller names one.
const DefaultImportLine = LineWireless

// FallbackLine returns the line for samples the archive leaves unassigned.
func (s ImportSource) FallbackLine() (Line, error) {
	if s.Line == "" {
		return DefaultImportLine, nil
	}
	if !s.Line.Valid() {
		return "", fmt.Errorf("%w: line %q", ErrInvalidInput, s.Line)
	}
	return s.Line, nil
}

// PackageRequest is handed to the packaging collaborator.
type PackageRequest struct {
	Name       string
	Descriptor PackageDescriptor
	Train      []Sample
	Val        []Sample
	Config     DatasetConfig
}
