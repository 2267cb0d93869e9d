package wizard

// Step is a wizard step index.
type Step int

const (
	StepScenario Step = iota
	StepHardware
	StepDataset
	StepParameters
	StepExport
)

// StepCount is the number of wizard steps.
const StepCount = 5

var stepNames = [StepCount]string{"scenario", "hardware", "dataset", "parameters", "export"}

var stepTitles = [StepCount]string{"场景选型", "硬件环境", "数据挂载", "参数配置", "生成交付"}

func (s Step) String() string {
	if s < 0 || int(s) >= StepCount {
		return "invalid"
	}
	return stepNames[s]
}

// Title is the step's display title.
func (s Step) Title() string {
	if s < 0 || int(s) >= StepCount {
		return ""
	}
	return stepTitles[s]
}

// Scenario is the application scenario of the model.
type Scenario string

const (
	ScenarioDetection      Scenario = "detection"
	ScenarioClassification Scenario = "classification"
	ScenarioSegmentation   Scenario = "segmentation"
)

func (s Scenario) Valid() bool {
	return s == ScenarioDetection || s == ScenarioClassification || s == ScenarioSegmentation
}

// Hardware is the deployment target.
type Hardware string

const (
	HardwareGPU Hardware = "gpu"
	HardwareCPU Hardware = "cpu"
)

func (h Hardware) Valid() bool {
	return h == HardwareGPU || h == HardwareCPU
}

// Intensity is the preset training depth.
type Intensity string

const (
	IntensityFast     Intensity = "fast"
	IntensityStandard Intensity = "standard"
	IntensityDeep     Intensity = "deep"
)

func (i Intensity) Valid() bool {
	return i == IntensityFast || i == IntensityStandard || i == IntensityDeep
}

// Optimizer is the training optimizer.
type Optimizer string

const (
	OptimizerAdamW Optimizer = "AdamW"
	OptimizerSGD   Optimizer = "SGD"
)

func (o Optimizer) Valid() bool {
	return o == OptimizerAdamW || o == OptimizerSGD
}

const (
	ImageSizeSmall = 320
	ImageSizeLarge = 640

	// CPUBatchSize is the batch size forced on CPU targets.
	CPUBatchSize = 4
	// DefaultBatchSize is the requested batch size of a fresh wizard.
	DefaultBatchSize = 16

	// DetectionBaseModel is the base model pinned for detection.
	DetectionBaseModel = "YOLOv8-Industrial-S"
)

var defaultBaseModels = map[Scenario]string{
	ScenarioDetection:      DetectionBaseModel,
	ScenarioClassification: "ResNet-50",
	ScenarioSegmentation:   "UNet",
}

// Augmentation holds the data augmentation settings.
type Augmentation struct {
	Rotation   bool    `json:"rotation"`
	MosaicProb float64 `json:"mosaic_prob"`
}

// Hyperparameters holds the optimizer settings.
type Hyperparameters struct {
	LearningRate float64   `json:"learning_rate"`
	Optimizer    Optimizer `json:"optimizer"`
}

// State is the accumulated wizard configuration.
type State struct {
	Step            Step            `json:"step"`
	Scenario        *Scenario       `json:"scenario,omitempty"`
	Hardware        *Hardware       `json:"hardware,omitempty"`
	DatasetRef      *string         `json:"dataset_ref,omitempty"`
	EngineerMode    bool            `json:"engineer_mode"`
	Intensity       Intensity       `json:"intensity"`
	ImgSize         int             `json:"img_size"`
	Augmentation    Augmentation    `json:"augmentation"`
	Hyperparameters Hyperparameters `json:"hyperparameters"`
	// BatchSize is the requested batch size; see EffectiveBatchSize.
	BatchSize int `json:"batch_size"`
	// BaseModelOverride is the requested base model; see BaseModel.
	BaseModelOverride string `json:"base_model_override,omitempty"`
}

// StepView is one entry of the stepper header.
type StepView struct {
	Index     Step   `json:"index"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Active    bool   `json:"active"`
	Completed bool   `json:"completed"`
}

// Dataset is a dataset snapshot offered at the dataset step.
type Dataset struct {
	Ref      string `json:"ref" yaml:"ref"`
	Label    string `json:"label" yaml:"label"`
	Samples  int    `json:"samples" yaml:"samples"`
	Verified bool   `json:"verified" yaml:"verified"`
}

// DefaultDatasets are the snapshots offered when configuration provides none.
func DefaultDatasets() []Dataset {
	return []Dataset{
		{Ref: "ds-2024-wireless-scratch", Label: "2024-无线产线-划痕专项 (500张)", Samples: 500},
		{Ref: "ds-2024-full-test", Label: "2024-全量测试集 (1200张) - Verified", Samples: 1200, Verified: true},
	}
}
