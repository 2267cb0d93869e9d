package mcp

import (
	"time"

	"github.com/rpggio/aoiforge/internal/domain/activity"
	"github.com/rpggio/aoiforge/internal/domain/nav"
	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/rpggio/aoiforge/internal/domain/wizard"
)

type NavigateParams struct {
	Tab nav.Tab `json:"tab"`
}

type SetScenarioParams struct {
	Scenario wizard.Scenario `json:"scenario"`
}

type SetHardwareParams struct {
	Hardware wizard.Hardware `json:"hardware"`
}

type SelectDatasetParams struct {
	DatasetRef string `json:"dataset_ref"`
}

type ConfigureParams = wizard.ParameterUpdate

type ListSamplesParams struct {
	Line  *sample.Line `json:"line,omitempty"`
	Query string       `json:"query,omitempty"`
}

type SampleIDParams struct {
	ID string `json:"id"`
}

type EditAnnotationParams struct {
	Boxes []sample.BoundingBox `json:"boxes"`
}

type UploadSampleParams struct {
	Filename string      `json:"filename"`
	Line     sample.Line `json:"line"`
	// Data is the base64-encoded image.
	Data []byte `json:"data"`
}

type ImportDatasetParams struct {
	Name string      `json:"name"`
	Path string      `json:"path,omitempty"`
	Data []byte      `json:"data,omitempty"`
	Line sample.Line `json:"line,omitempty"`
}

type DatasetParams struct {
	Name       string        `json:"name,omitempty"`
	Lines      []sample.Line `json:"lines,omitempty"`
	Classes    []string      `json:"classes,omitempty"`
	SplitRatio float64       `json:"split_ratio"`
}

type GetRecentActivityParams struct {
	Types []activity.ActivityType `json:"types,omitempty"`
	Since *time.Time              `json:"since,omitempty"`
	Limit int                     `json:"limit,omitempty"`
}

type SampleListResponse struct {
	Mode    string          `json:"mode"`
	Samples []sample.Sample `json:"samples"`
	Count   int             `json:"count"`
}

type DatasetResponse struct {
	sample.PackageDescriptor
	SampleCount int    `json:"sample_count"`
	SizeHuman   string `json:"size_human"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	SessionID string                `json:"session_id"`
	Summary   string                `json:"summary"`
	Details   string                `json:"details,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
