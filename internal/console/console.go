// Package console composes navigation, the training wizard and the sample
// hub into one session-scoped console.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rpggio/aoiforge/internal/clock"
	"github.com/rpggio/aoiforge/internal/domain/activity"
	"github.com/rpggio/aoiforge/internal/domain/build"
	"github.com/rpggio/aoiforge/internal/domain/hub"
	"github.com/rpggio/aoiforge/internal/domain/nav"
	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/rpggio/aoiforge/internal/domain/wizard"
)

// Metrics receives console counters. *metrics.Collector satisfies it.
type Metrics interface {
	wizard.Metrics
	build.Metrics
	BuildAbandoned()
	SessionOpened()
	SessionClosed()
}

// Deps are shared by every console of a process.
type Deps struct {
	Samples  *sample.Service
	Activity *activity.Service
	Trainer  build.Trainer
	Clock    clock.Clock
	Metrics  Metrics
	Logger   *slog.Logger
	Datasets []wizard.Dataset
	// PreserveUnmounted keeps a screen's controller alive while another tab
	// is mounted. By default leaving a tab resets it.
	PreserveUnmounted bool
}

// Snapshot is the whole console as presented to a client.
type Snapshot struct {
	SessionID string       `json:"session_id"`
	Tab       nav.Tab      `json:"tab"`
	Tabs      []nav.Tab    `json:"tabs"`
	Wizard    *wizard.View `json:"wizard,omitempty"`
	Hub       *hub.View    `json:"hub,omitempty"`
}

// Console is one operator's session. Exactly one screen is mounted at a
// time; the wizard's jump signal is routed through navigation.
type Console struct {
	id     string
	deps   Deps
	logger *slog.Logger
	nav    *nav.Navigator

	mu     sync.Mutex
	wizard *wizard.Controller
	hub    *hub.Controller
	closed bool
}

// New opens a console on the training tab.
func New(id string, deps Deps) *Console {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Console{
		id:     id,
		deps:   deps,
		logger: logger.With("session_id", id),
		nav:    nav.New(),
	}
	c.nav.Subscribe(c.remount)
	c.wizard = c.newWizard()

	if deps.Metrics != nil {
		deps.Metrics.SessionOpened()
	}
	c.record(activity.TypeConsoleOpened, "console opened", nil)
	return c
}

// ID returns the session identifier.
func (c *Console) ID() string {
	return c.id
}

// Tab returns the mounted tab.
func (c *Console) Tab() nav.Tab {
	return c.nav.Current()
}

// Navigate mounts tab.
func (c *Console) Navigate(ctx context.Context, tab nav.Tab) (Snapshot, error) {
	if err := c.checkOpen(); err != nil {
		return Snapshot{}, err
	}
	if _, err := c.nav.Select(tab); err != nil {
		return Snapshot{}, err
	}
	return c.Snapshot(ctx)
}

// Snapshot renders the mounted screen.
func (c *Console) Snapshot(ctx context.Context) (Snapshot, error) {
	if err := c.checkOpen(); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{SessionID: c.id, Tab: c.nav.Current(), Tabs: nav.Tabs}
	switch snap.Tab {
	case nav.TabTraining:
		w, err := c.Wizard()
		if err != nil {
			return Snapshot{}, err
		}
		v := w.View()
		snap.Wizard = &v
	case nav.TabSamples:
		h, err := c.Hub()
		if err != nil {
			return Snapshot{}, err
		}
		v, err := h.View(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Hub = &v
	}
	return snap, nil
}

// Wizard returns the mounted wizard controller.
func (c *Console) Wizard() (*wizard.Controller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.nav.Current() != nav.TabTraining || c.wizard == nil {
		return nil, fmt.Errorf("%w: wizard lives on the %s tab", ErrNotMounted, nav.TabTraining)
	}
	return c.wizard, nil
}

// Hub returns the mounted sample hub controller.
func (c *Console) Hub() (*hub.Controller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.nav.Current() != nav.TabSamples || c.hub == nil {
		return nil, fmt.Errorf("%w: sample hub lives on the %s tab", ErrNotMounted, nav.TabSamples)
	}
	return c.hub, nil
}

// Samples returns the shared sample store.
func (c *Console) Samples() *sample.Service {
	return c.deps.Samples
}

// StartBuild starts the wizard's export-step build.
func (c *Console) StartBuild() (build.Status, error) {
	w, err := c.Wizard()
	if err != nil {
		return build.Status{}, err
	}
	st, err := w.StartBuild()
	if err != nil {
		return st, err
	}
	c.record(activity.TypeBuildStarted, "build started", map[string]any{
		"run_id":     st.RunID,
		"scenario":   st.Job.Scenario,
		"hardware":   st.Job.Hardware,
		"base_model": st.Job.BaseModel,
		"batch_size": st.Job.BatchSize,
	})
	return st, nil
}

// Upload stores an image as a new sample.
func (c *Console) Upload(ctx context.Context, req sample.UploadRequest) (*sample.Sample, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	s, err := c.deps.Samples.Upload(ctx, req)
	if err != nil {
		return nil, err
	}
	c.record(activity.TypeSampleUploaded, "uploaded "+s.Filename, map[string]any{"sample_id": s.ID, "line": s.Line})
	return s, nil
}

// Package writes a dataset archive from the store.
func (c *Console) Package(ctx context.Context, name string, cfg sample.DatasetConfig) (*sample.PackageResult, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	res, err := c.deps.Samples.Package(ctx, name, cfg)
	if err != nil {
		return nil, err
	}
	c.record(activity.TypeDatasetPackaged, "packaged "+res.Name, res)
	return res, nil
}

// Activity lists this session's recent activity. The query's session is
// always this console's.
func (c *Console) Activity(ctx context.Context, q activity.Query) ([]activity.ActivityEntry, error) {
	if c.deps.Activity == nil {
		return []activity.ActivityEntry{}, nil
	}
	q.SessionID = c.id
	return c.deps.Activity.Recent(ctx, q)
}

// Close tears down mounted and preserved screens.
func (c *Console) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	w, h := c.wizard, c.hub
	c.wizard, c.hub = nil, nil
	c.mu.Unlock()

	c.closeWizard(w)
	if h != nil {
		h.Close()
	}
	if c.deps.Metrics != nil {
		c.deps.Metrics.SessionClosed()
	}
	c.record(activity.TypeConsoleClosed, "console closed", nil)
	c.logger.Debug("console closed")
}

func (c *Console) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// remount swaps the mounted controller after a tab change.
func (c *Console) remount(ch nav.Change) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	var oldWizard *wizard.Controller
	var oldHub *hub.Controller
	if !c.deps.PreserveUnmounted {
		switch ch.From {
		case nav.TabTraining:
			oldWizard, c.wizard = c.wizard, nil
		case nav.TabSamples:
			oldHub, c.hub = c.hub, nil
		}
	}
	switch ch.To {
	case nav.TabTraining:
		if c.wizard == nil {
			c.wizard = c.newWizard()
		}
	case nav.TabSamples:
		if c.hub == nil {
			c.hub = c.newHub()
		}
	}
	c.mu.Unlock()

	c.closeWizard(oldWizard)
	if oldHub != nil {
		oldHub.Close()
	}
	c.record(activity.TypeNavigation, fmt.Sprintf("%s -> %s", ch.From, ch.To), ch)
}

func (c *Console) closeWizard(w *wizard.Controller) {
	if w == nil {
		return
	}
	if r := w.Runner(); r != nil && r.Running() && c.deps.Metrics != nil {
		c.deps.Metrics.BuildAbandoned()
	}
	w.Close()
}

func (c *Console) newWizard() *wizard.Controller {
	cfg := wizard.Config{
		Datasets: c.deps.Datasets,
		Logger:   c.logger,
		NewRunner: func(job build.Job) *build.Runner {
			rc := build.RunnerConfig{
				Clock:  c.deps.Clock,
				Logger: c.logger,
				OnDone: c.buildDone,
			}
			if c.deps.Metrics != nil {
				rc.Metrics = c.deps.Metrics
			}
			return build.NewRunner(job, c.deps.Trainer, rc)
		},
		OnJump: func() {
			if _, err := c.nav.RequestSamples(); err != nil {
				c.logger.Warn("jump to samples failed", "error", err)
			}
		},
		OnTransition: func(from, to wizard.Step) {
			typ := activity.TypeWizardAdvanced
			if to < from {
				typ = activity.TypeWizardRetreated
			}
			c.record(typ, fmt.Sprintf("%s -> %s", from, to), map[string]int{"from": int(from), "to": int(to)})
		},
	}
	if c.deps.Metrics != nil {
		cfg.Metrics = c.deps.Metrics
	}
	return wizard.NewController(cfg)
}

func (c *Console) newHub() *hub.Controller {
	return hub.NewController(c.deps.Samples, hub.Config{
		Logger: c.logger,
		Now:    c.deps.Clock.Now,
		OnSaved: func(s sample.Sample) {
			c.record(activity.TypeAnnotationSaved, "saved "+s.ID, map[string]any{"sample_id": s.ID, "defects": s.Defects})
		},
		OnImport: func(st hub.ImportStatus) {
			if st.State == hub.ImportFailed {
				c.record(activity.TypeImportFailed, "import failed: "+st.Source, st)
				return
			}
			c.record(activity.TypeImportCompleted, fmt.Sprintf("imported %d samples from %s", st.Imported, st.Source), st)
		},
	})
}

func (c *Console) buildDone(st build.Status) {
	if st.State == build.StateFailed {
		c.record(activity.TypeBuildFailed, "build failed", map[string]string{"run_id": st.RunID, "error": st.Error})
		return
	}
	details := map[string]any{"run_id": st.RunID, "lines": len(st.Logs)}
	if st.Artifact != nil {
		details["artifact"] = st.Artifact
	}
	c.record(activity.TypeBuildFinished, "build finished", details)
}

func (c *Console) record(typ activity.ActivityType, summary string, details any) {
	if c.deps.Activity == nil {
		return
	}
	c.deps.Activity.Record(context.Background(), c.id, typ, summary, details)
}
