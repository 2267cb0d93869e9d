package hub

import (
	"time"

	"github.com/rpggio/aoiforge/internal/domain/class"
	"github.com/rpggio/aoiforge/internal/domain/sample"
)

// Mode is the sample hub's view mode.
type Mode string

const (
	ModeList   Mode = "list"
	ModeEditor Mode = "editor"
)

// ImportState is the lifecycle of the hub's background import.
type ImportState string

const (
	ImportIdle      ImportState = "idle"
	ImportRunning   ImportState = "importing"
	ImportCompleted ImportState = "completed"
	ImportFailed    ImportState = "failed"
)

// ImportStatus reports the latest import.
type ImportStatus struct {
	State      ImportState    `json:"state"`
	Source     string         `json:"source,omitempty"`
	Imported   int            `json:"imported"`
	Remap      map[int]string `json:"remap,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// Editor is the annotation editor's working copy. Boxes is a draft until
// saved; the store record is untouched while editing.
type Editor struct {
	Sample     sample.Sample        `json:"sample"`
	Classes    []class.Resolved     `json:"classes"`
	Unresolved []string             `json:"unresolved,omitempty"`
	Boxes      []sample.BoundingBox `json:"boxes"`
	Dirty      bool                 `json:"dirty"`
}

// View is the hub as presented to a client.
type View struct {
	Mode    Mode            `json:"mode"`
	Filter  FilterView      `json:"filter"`
	Samples []sample.Sample `json:"samples,omitempty"`
	Editor  *Editor         `json:"editor,omitempty"`
	Import  ImportStatus    `json:"import"`
}

// FilterView is the active list filter.
type FilterView struct {
	Line  *sample.Line `json:"line,omitempty"`
	Query string       `json:"query,omitempty"`
}
