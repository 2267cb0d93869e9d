package wizard

// ParameterUpdate is a partial update of the parameters step.
// Nil fields are left unchanged.
type ParameterUpdate struct {
	EngineerMode *bool      `json:"engineer_mode,omitempty"`
	Intensity    *Intensity `json:"intensity,omitempty"`
	ImgSize      *int       `json:"img_size,omitempty"`
	Rotation     *bool      `json:"rotation,omitempty"`
	MosaicProb   *float64   `json:"mosaic_prob,omitempty"`
	LearningRate *float64   `json:"learning_rate,omitempty"`
	Optimizer    *Optimizer `json:"optimizer,omitempty"`
	BatchSize    *int       `json:"batch_size,omitempty"`
	BaseModel    *string    `json:"base_model,omitempty"`
}

func (u ParameterUpdate) engineerOnly() bool {
	return u.Rotation != nil || u.MosaicProb != nil || u.LearningRate != nil ||
		u.Optimizer != nil || u.BatchSize != nil || u.BaseModel != nil
}
