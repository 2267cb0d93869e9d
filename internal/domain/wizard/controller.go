package wizard

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rpggio/aoiforge/internal/domain/build"
)

// Metrics receives wizard counters.
type Metrics interface {
	StepEntered(step string)
}

// Config holds the controller's collaborators.
type Config struct {
	// Datasets are the snapshots offered at the dataset step.
	Datasets []Dataset
	// NewRunner creates the build runner bound to an Export-step entry.
	NewRunner func(job build.Job) *build.Runner
	Logger    *slog.Logger
	Metrics   Metrics
	// OnJump receives the jump-to-sample-hub request. Called outside the lock.
	OnJump func()
	// OnTransition observes step changes. Called outside the lock.
	OnTransition func(from, to Step)
}

// View is the wizard as presented to a client.
type View struct {
	State              State         `json:"state"`
	StepName           string        `json:"step_name"`
	Steps              []StepView    `json:"steps"`
	EffectiveBatchSize int           `json:"effective_batch_size"`
	BatchSizeLocked    bool          `json:"batch_size_locked"`
	BaseModel          string        `json:"base_model"`
	BaseModelLocked    bool          `json:"base_model_locked"`
	CanAdvance         bool          `json:"can_advance"`
	CanRetreat         bool          `json:"can_retreat"`
	CanJumpToSamples   bool          `json:"can_jump_to_samples"`
	Datasets           []Dataset     `json:"datasets,omitempty"`
	Build              *build.Status `json:"build,omitempty"`
}

// Controller owns one mounted wizard. Entering the export step binds a
// fresh build runner; leaving it tears the runner down.
type Controller struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	runner *build.Runner
	closed bool
}

// NewController mounts a wizard at step 0 with nothing selected.
func NewController(config Config) *Controller {
	if config.Datasets == nil {
		config.Datasets = DefaultDatasets()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		config: config,
		logger: logger,
		state:  NewState(),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns the state with its derived values.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	s := c.state
	running := c.runner != nil && c.runner.Running()
	v := View{
		State:              s,
		StepName:           s.Step.String(),
		Steps:              s.Steps(),
		EffectiveBatchSize: s.EffectiveBatchSize(),
		BatchSizeLocked:    s.BatchSizeLocked(),
		BaseModel:          s.BaseModel(),
		BaseModelLocked:    s.BaseModelLocked(),
		CanAdvance:         s.CheckAdvance() == nil && !running,
		CanRetreat:         s.Step > StepScenario && !running,
		CanJumpToSamples:   s.Step == StepDataset,
	}
	if s.Step == StepDataset {
		v.Datasets = append([]Dataset(nil), c.config.Datasets...)
	}
	if c.runner != nil {
		st := c.runner.Status()
		v.Build = &st
	}
	return v
}

// SetScenario selects the scenario at step 0.
func (c *Controller) SetScenario(sc Scenario) (View, error) {
	return c.update(func(s State) (State, error) { return s.WithScenario(sc) })
}

// SetHardware selects the deployment target at step 1.
func (c *Controller) SetHardware(h Hardware) (View, error) {
	return c.update(func(s State) (State, error) { return s.WithHardware(h) })
}

// SelectDataset mounts one of the offered snapshots at step 2.
func (c *Controller) SelectDataset(ref string) (View, error) {
	if _, ok := c.dataset(ref); !ok {
		return c.View(), fmt.Errorf("%w: %q", ErrUnknownDataset, ref)
	}
	return c.update(func(s State) (State, error) { return s.WithDataset(ref) })
}

// Configure applies a parameter update at step 3.
func (c *Controller) Configure(u ParameterUpdate) (View, error) {
	return c.update(func(s State) (State, error) { return s.WithParameters(u) })
}

func (c *Controller) update(fn func(State) (State, error)) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.viewLocked(), ErrClosed
	}
	next, err := fn(c.state)
	if err != nil {
		return c.viewLocked(), err
	}
	c.state = next
	return c.viewLocked(), nil
}

// Advance moves one step forward when the current step's requirement is met.
func (c *Controller) Advance() (View, error) {
	return c.move(State.Advance)
}

// Retreat moves one step back. At step 0 it fails and changes nothing.
func (c *Controller) Retreat() (View, error) {
	return c.move(State.Retreat)
}

func (c *Controller) move(fn func(State) (State, error)) (View, error) {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.viewLocked(), ErrClosed
	}
	if c.runner != nil && c.runner.Running() {
		defer c.mu.Unlock()
		return c.viewLocked(), ErrBuildRunning
	}
	from := c.state.Step
	next, err := fn(c.state)
	if err != nil {
		defer c.mu.Unlock()
		return c.viewLocked(), err
	}
	c.state = next

	var stale *build.Runner
	if from == StepExport {
		stale, c.runner = c.runner, nil
	}
	if next.Step == StepExport && c.config.NewRunner != nil {
		c.runner = c.config.NewRunner(next.Job(c.datasetLabelLocked()))
	}
	view := c.viewLocked()
	c.mu.Unlock()

	if stale != nil {
		stale.Close()
	}
	c.logger.Debug("wizard step changed", "from", from.String(), "to", next.Step.String())
	if c.config.Metrics != nil {
		c.config.Metrics.StepEntered(next.Step.String())
	}
	if c.config.OnTransition != nil {
		c.config.OnTransition(from, next.Step)
	}
	return view, nil
}

// JumpToSampleHub asks navigation to show the sample hub. It is only
// available at the dataset step and does not change the step.
func (c *Controller) JumpToSampleHub() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	step := c.state.Step
	c.mu.Unlock()

	if step != StepDataset {
		return fmt.Errorf("%w: jump is offered at step %d", ErrWrongStep, StepDataset)
	}
	if c.config.OnJump != nil {
		c.config.OnJump()
	}
	return nil
}

// StartBuild starts the runner bound to the current export step.
func (c *Controller) StartBuild() (build.Status, error) {
	r, err := c.currentRunner()
	if err != nil {
		return build.Status{}, err
	}
	if err := r.Start(); err != nil {
		return r.Status(), err
	}
	return r.Status(), nil
}

// BuildStatus returns the export step's runner status.
func (c *Controller) BuildStatus() (build.Status, error) {
	r, err := c.currentRunner()
	if err != nil {
		return build.Status{}, err
	}
	return r.Status(), nil
}

// Artifact returns the download descriptor of a finished build.
func (c *Controller) Artifact() (build.Artifact, error) {
	r, err := c.currentRunner()
	if err != nil {
		return build.Artifact{}, err
	}
	return r.Artifact()
}

// Runner returns the runner bound to the export step, or nil.
func (c *Controller) Runner() *build.Runner {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runner
}

func (c *Controller) currentRunner() (*build.Runner, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.state.Step != StepExport || c.runner == nil {
		return nil, fmt.Errorf("%w: builds run at step %d", ErrWrongStep, StepExport)
	}
	return c.runner, nil
}

// Close unmounts the wizard and tears down its runner.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	r := c.runner
	c.runner = nil
	c.mu.Unlock()

	if r != nil {
		r.Close()
	}
}

func (c *Controller) dataset(ref string) (Dataset, bool) {
	for _, d := range c.config.Datasets {
		if d.Ref == ref {
			return d, true
		}
	}
	return Dataset{}, false
}

func (c *Controller) datasetLabelLocked() string {
	if c.state.DatasetRef == nil {
		return ""
	}
	if d, ok := c.dataset(*c.state.DatasetRef); ok {
		return d.Label
	}
	return *c.state.DatasetRef
}
