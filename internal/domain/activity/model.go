// Package activity keeps the console's audit trail: navigation, wizard
// transitions, builds, imports and annotation saves, per session.
package activity

import "time"

// ActivityType names a console event.
type ActivityType string

const (
	TypeNavigation      ActivityType = "navigation"
	TypeWizardAdvanced  ActivityType = "wizard_advanced"
	TypeWizardRetreated ActivityType = "wizard_retreated"
	TypeBuildStarted    ActivityType = "build_started"
	TypeBuildFinished   ActivityType = "build_finished"
	TypeBuildFailed     ActivityType = "build_failed"
	TypeAnnotationSaved ActivityType = "annotation_saved"
	TypeImportCompleted ActivityType = "import_completed"
	TypeImportFailed    ActivityType = "import_failed"
	TypeSampleUploaded  ActivityType = "sample_uploaded"
	TypeDatasetPackaged ActivityType = "dataset_packaged"
	TypeConsoleOpened   ActivityType = "console_opened"
	TypeConsoleClosed   ActivityType = "console_closed"
)

var knownTypes = map[ActivityType]bool{
	TypeNavigation: true, TypeWizardAdvanced: true, TypeWizardRetreated: true,
	TypeBuildStarted: true, TypeBuildFinished: true, TypeBuildFailed: true,
	TypeAnnotationSaved: true, TypeImportCompleted: true, TypeImportFailed: true,
	TypeSampleUploaded: true, TypeDatasetPackaged: true,
	TypeConsoleOpened: true, TypeConsoleClosed: true,
}

// Valid reports whether t is a type the console records.
func (t ActivityType) Valid() bool { return knownTypes[t] }

// ActivityEntry is one recorded console event. Details holds JSON.
type ActivityEntry struct {
	ID           int64        `json:"id"`
	SessionID    string       `json:"session_id"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
