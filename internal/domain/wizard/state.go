package wizard

import (
	"fmt"
	"math"
	"strings"

	"github.com/rpggio/aoiforge/internal/domain/build"
)

// NewState returns the state of a freshly mounted wizard.
func NewState() State {
	return State{
		Step:         StepScenario,
		Intensity:    IntensityStandard,
		ImgSize:      ImageSizeLarge,
		Augmentation: Augmentation{Rotation: true, MosaicProb: 0.5},
		Hyperparameters: Hyperparameters{
			LearningRate: 0.001,
			Optimizer:    OptimizerAdamW,
		},
		BatchSize: DefaultBatchSize,
	}
}

// EffectiveBatchSize is the batch size training will use.
func (s State) EffectiveBatchSize() int {
	if s.BatchSizeLocked() {
		return CPUBatchSize
	}
	return s.BatchSize
}

// BatchSizeLocked reports whether the hardware pins the batch size.
func (s State) BatchSizeLocked() bool {
	return s.Hardware != nil && *s.Hardware == HardwareCPU
}

// BaseModel is the base model training will start from.
func (s State) BaseModel() string {
	if s.Scenario == nil {
		return ""
	}
	if s.BaseModelLocked() {
		return DetectionBaseModel
	}
	if s.BaseModelOverride != "" {
		return s.BaseModelOverride
	}
	return defaultBaseModels[*s.Scenario]
}

// BaseModelLocked reports whether the scenario pins the base model.
func (s State) BaseModelLocked() bool {
	return s.Scenario != nil && *s.Scenario == ScenarioDetection
}

// CheckAdvance reports why Advance would be rejected, or nil.
func (s State) CheckAdvance() error {
	switch s.Step {
	case StepScenario:
		if s.Scenario == nil {
			return fmt.Errorf("%w: select a scenario", ErrValidation)
		}
	case StepHardware:
		if s.Hardware == nil {
			return fmt.Errorf("%w: select a hardware target", ErrValidation)
		}
	case StepExport:
		return ErrOutOfRange
	}
	return nil
}

// Advance moves exactly one step forward.
func (s State) Advance() (State, error) {
	if err := s.CheckAdvance(); err != nil {
		return s, err
	}
	s.Step++
	return s, nil
}

// Retreat moves exactly one step back. At the first step it returns
// ErrOutOfRange and the state unchanged.
func (s State) Retreat() (State, error) {
	if s.Step == StepScenario {
		return s, ErrOutOfRange
	}
	s.Step--
	return s, nil
}

// WithScenario sets the scenario. Only available at the scenario step.
func (s State) WithScenario(sc Scenario) (State, error) {
	if s.Step != StepScenario {
		return s, fmt.Errorf("%w: scenario is chosen at step %d", ErrWrongStep, StepScenario)
	}
	if !sc.Valid() {
		return s, fmt.Errorf("%w: scenario %q", ErrInvalidInput, sc)
	}
	s.Scenario = &sc
	return s, nil
}

// WithHardware sets the hardware target. Only available at the hardware step.
func (s State) WithHardware(h Hardware) (State, error) {
	if s.Step != StepHardware {
		return s, fmt.Errorf("%w: hardware is chosen at step %d", ErrWrongStep, StepHardware)
	}
	if !h.Valid() {
		return s, fmt.Errorf("%w: hardware %q", ErrInvalidInput, h)
	}
	s.Hardware = &h
	return s, nil
}

// WithDataset mounts a dataset snapshot. Only available at the dataset step.
func (s State) WithDataset(ref string) (State, error) {
	if s.Step != StepDataset {
		return s, fmt.Errorf("%w: dataset is mounted at step %d", ErrWrongStep, StepDataset)
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return s, fmt.Errorf("%w: empty dataset ref", ErrInvalidInput)
	}
	s.DatasetRef = &ref
	return s, nil
}

// WithParameters applies a partial parameter update atomically.
// Only available at the parameters step.
func (s State) WithParameters(u ParameterUpdate) (State, error) {
	if s.Step != StepParameters {
		return s, fmt.Errorf("%w: parameters are set at step %d", ErrWrongStep, StepParameters)
	}
	next := s
	if u.EngineerMode != nil {
		next.EngineerMode = *u.EngineerMode
	}
	if u.engineerOnly() && !next.EngineerMode {
		return s, ErrEngineerMode
	}

	if u.Intensity != nil {
		if !u.Intensity.Valid() {
			return s, fmt.Errorf("%w: intensity %q", ErrInvalidInput, *u.Intensity)
		}
		next.Intensity = *u.Intensity
	}
	if u.ImgSize != nil {
		if *u.ImgSize != ImageSizeSmall && *u.ImgSize != ImageSizeLarge {
			return s, fmt.Errorf("%w: image size %d", ErrInvalidInput, *u.ImgSize)
		}
		next.ImgSize = *u.ImgSize
	}
	if u.Rotation != nil {
		next.Augmentation.Rotation = *u.Rotation
	}
	if u.MosaicProb != nil {
		p := *u.MosaicProb
		if math.IsNaN(p) || p < 0 || p > 1 {
			return s, fmt.Errorf("%w: mosaic probability %v", ErrInvalidInput, p)
		}
		next.Augmentation.MosaicProb = p
	}
	if u.LearningRate != nil {
		lr := *u.LearningRate
		if math.IsNaN(lr) || math.IsInf(lr, 0) || lr <= 0 {
			return s, fmt.Errorf("%w: learning rate %v", ErrInvalidInput, lr)
		}
		next.Hyperparameters.LearningRate = lr
	}
	if u.Optimizer != nil {
		if !u.Optimizer.Valid() {
			return s, fmt.Errorf("%w: optimizer %q", ErrInvalidInput, *u.Optimizer)
		}
		next.Hyperparameters.Optimizer = *u.Optimizer
	}
	if u.BatchSize != nil {
		if s.BatchSizeLocked() {
			return s, fmt.Errorf("%w: batch size is %d on cpu", ErrFieldLocked, CPUBatchSize)
		}
		if *u.BatchSize <= 0 {
			return s, fmt.Errorf("%w: batch size %d", ErrInvalidInput, *u.BatchSize)
		}
		next.BatchSize = *u.BatchSize
	}
	if u.BaseModel != nil {
		if s.BaseModelLocked() {
			return s, fmt.Errorf("%w: detection uses %s", ErrFieldLocked, DetectionBaseModel)
		}
		model := strings.TrimSpace(*u.BaseModel)
		if model == "" {
			return s, fmt.Errorf("%w: empty base model", ErrInvalidInput)
		}
		next.BaseModelOverride = model
	}
	return next, nil
}

// Steps returns the stepper header.
func (s State) Steps() []StepView {
	out := make([]StepView, StepCount)
	for i := range out {
		step := Step(i)
		out[i] = StepView{
			Index:     step,
			Name:      step.String(),
			Title:     step.Title(),
			Active:    step == s.Step,
			Completed: step < s.Step,
		}
	}
	return out
}

// Job converts the state into a training job. datasetLabel names the
// mounted snapshot.
func (s State) Job(datasetLabel string) build.Job {
	job := build.Job{
		Dataset:      datasetLabel,
		BaseModel:    s.BaseModel(),
		BatchSize:    s.EffectiveBatchSize(),
		ImageSize:    s.ImgSize,
		Intensity:    string(s.Intensity),
		Optimizer:    string(s.Hyperparameters.Optimizer),
		LearningRate: s.Hyperparameters.LearningRate,
		MosaicProb:   s.Augmentation.MosaicProb,
		Rotation:     s.Augmentation.Rotation,
		EngineerMode: s.EngineerMode,
	}
	if s.Scenario != nil {
		job.Scenario = string(*s.Scenario)
	}
	if s.Hardware != nil {
		job.Hardware = string(*s.Hardware)
	}
	return job
}
