package build

import "time"

// State is the lifecycle state of a build run.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateFinished State = "finished"
	StateFailed   State = "failed"
)

// DefaultArtifactSize is the mocked size of the offline training package.
const DefaultArtifactSize int64 = 145 * 1024 * 1024

// Job is the training configuration handed to a Trainer.
type Job struct {
	Scenario     string  `json:"scenario"`
	Hardware     string  `json:"hardware"`
	Dataset      string  `json:"dataset"`
	BaseModel    string  `json:"base_model"`
	BatchSize    int     `json:"batch_size"`
	ImageSize    int     `json:"image_size"`
	Intensity    string  `json:"intensity"`
	Optimizer    string  `json:"optimizer"`
	LearningRate float64 `json:"learning_rate"`
	MosaicProb   float64 `json:"mosaic_prob"`
	Rotation     bool    `json:"rotation"`
	EngineerMode bool    `json:"engineer_mode"`
}

// LogLine is one entry of a build log. IDs increase strictly.
type LogLine struct {
	ID   int64     `json:"id"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Artifact describes the downloadable package of a finished run.
type Artifact struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

// Status is a snapshot of a run.
type Status struct {
	RunID      string     `json:"run_id"`
	State      State      `json:"state"`
	Job        Job        `json:"job"`
	Logs       []LogLine  `json:"logs"`
	Artifact   *Artifact  `json:"artifact,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
