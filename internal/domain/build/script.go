package build

import (
	"fmt"
	"strings"
)

// DefaultScript returns the log lines of the simulated offline packaging run.
func DefaultScript(job Job) []string {
	dataset := job.Dataset
	if dataset == "" {
		dataset = "default"
	}
	return []string{
		"[INFO] Initializing build environment...",
		fmt.Sprintf("[INFO] Scenario: %s | Target hardware: %s", job.Scenario, strings.ToUpper(job.Hardware)),
		fmt.Sprintf("[INFO] Mounting dataset snapshot: %s", dataset),
		"[INFO] Verifying label consistency... OK",
		fmt.Sprintf("[INFO] Loading base model weights: %s", job.BaseModel),
		fmt.Sprintf("[INFO] Input size %dpx, batch size %d, optimizer %s (lr=%g)",
			job.ImageSize, job.BatchSize, job.Optimizer, job.LearningRate),
		"[INFO] Bundling training scripts and dependencies...",
		"[INFO] Compressing offline package...",
		"[SUCCESS] Build complete. Offline training package is ready.",
	}
}

// ArtifactName derives the download name of a job's package.
func ArtifactName(job Job) string {
	model := strings.ToLower(strings.ReplaceAll(job.BaseModel, " ", "-"))
	if model == "" {
		model = "model"
	}
	scenario := job.Scenario
	if scenario == "" {
		scenario = "job"
	}
	return fmt.Sprintf("aoi-%s-%s-%s.zip", scenario, model, job.Hardware)
}
