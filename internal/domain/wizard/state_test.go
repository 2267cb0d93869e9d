package wizard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestState_AdvanceRequiresStepField(t *testing.T) {
	s := NewState()

	next, err := s.Advance()
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, StepScenario, next.Step)

	s, err = s.WithScenario(ScenarioClassification)
	require.NoError(t, err)
	s, err = s.Advance()
	require.NoError(t, err)
	require.Equal(t, StepHardware, s.Step)

	next, err = s.Advance()
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, StepHardware, next.Step)

	s, err = s.WithHardware(HardwareGPU)
	require.NoError(t, err)
	for _, want := range []Step{StepDataset, StepParameters, StepExport} {
		s, err = s.Advance()
		require.NoError(t, err)
		require.Equal(t, want, s.Step)
	}

	_, err = s.Advance()
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestState_RetreatDecrementsByOne(t *testing.T) {
	s := NewState()
	s.Scenario = ptr(ScenarioDetection)
	s.Hardware = ptr(HardwareGPU)

	for step := StepHardware; step <= StepExport; step++ {
		s.Step = step
		prev, err := s.Retreat()
		require.NoError(t, err)
		require.Equal(t, step-1, prev.Step)
	}

	s.Step = StepScenario
	same, err := s.Retreat()
	require.ErrorIs(t, err, ErrOutOfRange)
	require.Equal(t, s, same)
}

func TestState_SettersBoundToTheirStep(t *testing.T) {
	s := NewState()
	_, err := s.WithHardware(HardwareCPU)
	require.ErrorIs(t, err, ErrWrongStep)
	_, err = s.WithDataset("ds")
	require.ErrorIs(t, err, ErrWrongStep)
	_, err = s.WithParameters(ParameterUpdate{ImgSize: ptr(320)})
	require.ErrorIs(t, err, ErrWrongStep)
	_, err = s.WithScenario("anomaly")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestState_CPUClampsBatchSize(t *testing.T) {
	s := NewState()
	s.Step = StepParameters
	s.EngineerMode = true
	s.Hardware = ptr(HardwareGPU)

	s, err := s.WithParameters(ParameterUpdate{BatchSize: ptr(32)})
	require.NoError(t, err)
	require.Equal(t, 32, s.EffectiveBatchSize())

	s.Hardware = ptr(HardwareCPU)
	require.Equal(t, CPUBatchSize, s.EffectiveBatchSize())
	for _, size := range []int{ImageSizeSmall, ImageSizeLarge} {
		s, err = s.WithParameters(ParameterUpdate{ImgSize: ptr(size), Intensity: ptr(IntensityDeep)})
		require.NoError(t, err)
		require.Equal(t, CPUBatchSize, s.EffectiveBatchSize())
	}

	_, err = s.WithParameters(ParameterUpdate{BatchSize: ptr(8)})
	require.ErrorIs(t, err, ErrFieldLocked)
}

func TestState_DetectionPinsBaseModel(t *testing.T) {
	s := NewState()
	require.Empty(t, s.BaseModel())

	s, err := s.WithScenario(ScenarioDetection)
	require.NoError(t, err)
	require.Equal(t, DetectionBaseModel, s.BaseModel())

	s, err = s.WithScenario(ScenarioSegmentation)
	require.NoError(t, err)
	require.Equal(t, "UNet", s.BaseModel())

	s, err = s.WithScenario(ScenarioDetection)
	require.NoError(t, err)
	require.Equal(t, DetectionBaseModel, s.BaseModel())
	require.True(t, s.BaseModelLocked())
}

func TestState_BaseModelOverrideIgnoredUnderDetection(t *testing.T) {
	s := NewState()
	s.Scenario = ptr(ScenarioClassification)
	s.Step = StepParameters

	s, err := s.WithParameters(ParameterUpdate{EngineerMode: ptr(true), BaseModel: ptr("EfficientNet-B0")})
	require.NoError(t, err)
	require.Equal(t, "EfficientNet-B0", s.BaseModel())

	s.Scenario = ptr(ScenarioDetection)
	require.Equal(t, DetectionBaseModel, s.BaseModel())
	_, err = s.WithParameters(ParameterUpdate{BaseModel: ptr("ResNet-18")})
	require.ErrorIs(t, err, ErrFieldLocked)
}

func TestState_WithParametersIsAtomic(t *testing.T) {
	s := NewState()
	s.Step = StepParameters

	_, err := s.WithParameters(ParameterUpdate{LearningRate: ptr(0.01)})
	require.ErrorIs(t, err, ErrEngineerMode)

	bad, err := s.WithParameters(ParameterUpdate{
		EngineerMode: ptr(true),
		Optimizer:    ptr(OptimizerSGD),
		MosaicProb:   ptr(1.5),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, s, bad)

	s, err = s.WithParameters(ParameterUpdate{
		EngineerMode: ptr(true),
		Optimizer:    ptr(OptimizerSGD),
		MosaicProb:   ptr(0.25),
		LearningRate: ptr(0.0005),
		Rotation:     ptr(false),
	})
	require.NoError(t, err)
	require.Equal(t, OptimizerSGD, s.Hyperparameters.Optimizer)
	require.InDelta(t, 0.25, s.Augmentation.MosaicProb, 1e-9)
	require.False(t, s.Augmentation.Rotation)

	_, err = s.WithParameters(ParameterUpdate{LearningRate: ptr(0.0)})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.WithParameters(ParameterUpdate{ImgSize: ptr(512)})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestState_Steps(t *testing.T) {
	s := NewState()
	s.Step = StepDataset
	steps := s.Steps()
	require.Len(t, steps, StepCount)
	require.True(t, steps[0].Completed)
	require.True(t, steps[1].Completed)
	require.True(t, steps[2].Active)
	require.False(t, steps[3].Completed)
	require.Equal(t, "数据挂载", steps[2].Title)
}

func TestState_Job(t *testing.T) {
	s := NewState()
	s.Scenario = ptr(ScenarioDetection)
	s.Hardware = ptr(HardwareCPU)

	job := s.Job("2024-全量测试集 (1200张) - Verified")
	require.Equal(t, "detection", job.Scenario)
	require.Equal(t, "cpu", job.Hardware)
	require.Equal(t, CPUBatchSize, job.BatchSize)
	require.Equal(t, DetectionBaseModel, job.BaseModel)
	require.Equal(t, ImageSizeLarge, job.ImageSize)
	require.Equal(t, "AdamW", job.Optimizer)
}
