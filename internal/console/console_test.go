package console_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/aoiforge/internal/clock"
	"github.com/rpggio/aoiforge/internal/console"
	"github.com/rpggio/aoiforge/internal/domain/activity"
	"github.com/rpggio/aoiforge/internal/domain/build"
	"github.com/rpggio/aoiforge/internal/domain/class"
	"github.com/rpggio/aoiforge/internal/domain/hub"
	"github.com/rpggio/aoiforge/internal/domain/nav"
	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/rpggio/aoiforge/internal/domain/wizard"
	"github.com/rpggio/aoiforge/internal/metrics"
	"github.com/rpggio/aoiforge/internal/sqlite"
	"github.com/rpggio/aoiforge/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

type env struct {
	clock    *clock.Manual
	deps     console.Deps
	activity *activity.Service
}

func newEnv(t *testing.T, preserve bool) *env {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	m, err := metrics.New()
	require.NoError(t, err)

	samples := sample.NewService(memory.NewSampleRepository(), class.Default(), sample.Collaborators{}, m, nil)
	require.NoError(t, samples.Seed(ctx, sample.Fixtures()))

	clk := clock.NewManual(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	acts := activity.NewService(sqlite.NewActivityRepository(db), nil)
	return &env{
		clock:    clk,
		activity: acts,
		deps: console.Deps{
			Samples:  samples,
			Activity: acts,
			Trainer: build.NewScriptedTrainer(clk, build.ScriptedConfig{
				BaseDelay: 800 * time.Millisecond,
				Jitter:    500 * time.Millisecond,
				Seed:      7,
			}),
			Clock:             clk,
			Metrics:           m,
			PreserveUnmounted: preserve,
		},
	}
}

func (e *env) open(t *testing.T) *console.Console {
	t.Helper()
	c := console.New("s1", e.deps)
	t.Cleanup(c.Close)
	return c
}

func TestConsole_StartsOnTraining(t *testing.T) {
	e := newEnv(t, false)
	c := e.open(t)

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, nav.TabTraining, snap.Tab)
	require.Equal(t, nav.Tabs, snap.Tabs)
	require.NotNil(t, snap.Wizard)
	require.Nil(t, snap.Hub)
	require.Equal(t, wizard.StepScenario, snap.Wizard.State.Step)

	_, err = c.Hub()
	require.ErrorIs(t, err, console.ErrNotMounted)
}

func TestConsole_NavigateResetsUnmountedWizard(t *testing.T) {
	e := newEnv(t, false)
	c := e.open(t)
	ctx := context.Background()

	w, err := c.Wizard()
	require.NoError(t, err)
	_, err = w.SetScenario(wizard.ScenarioSegmentation)
	require.NoError(t, err)
	_, err = w.Advance()
	require.NoError(t, err)

	snap, err := c.Navigate(ctx, nav.TabSettings)
	require.NoError(t, err)
	require.Nil(t, snap.Wizard)
	require.Nil(t, snap.Hub)

	_, err = w.Advance()
	require.ErrorIs(t, err, wizard.ErrClosed)

	snap, err = c.Navigate(ctx, nav.TabTraining)
	require.NoError(t, err)
	require.Equal(t, wizard.StepScenario, snap.Wizard.State.Step)
	require.Nil(t, snap.Wizard.State.Scenario)

	_, err = c.Navigate(ctx, nav.Tab("reports"))
	require.ErrorIs(t, err, nav.ErrUnknownTab)
}

func TestConsole_PreserveUnmountedKeepsWizard(t *testing.T) {
	e := newEnv(t, true)
	c := e.open(t)
	ctx := context.Background()

	w, err := c.Wizard()
	require.NoError(t, err)
	_, err = w.SetScenario(wizard.ScenarioDetection)
	require.NoError(t, err)
	_, err = w.Advance()
	require.NoError(t, err)

	_, err = c.Navigate(ctx, nav.TabSamples)
	require.NoError(t, err)
	snap, err := c.Navigate(ctx, nav.TabTraining)
	require.NoError(t, err)
	require.Equal(t, wizard.StepHardware, snap.Wizard.State.Step)
}

func TestConsole_JumpToSamplesMountsHub(t *testing.T) {
	e := newEnv(t, false)
	c := e.open(t)
	ctx := context.Background()

	w, err := c.Wizard()
	require.NoError(t, err)
	require.ErrorIs(t, w.JumpToSampleHub(), wizard.ErrWrongStep)

	_, err = w.SetScenario(wizard.ScenarioDetection)
	require.NoError(t, err)
	_, err = w.Advance()
	require.NoError(t, err)
	_, err = w.SetHardware(wizard.HardwareGPU)
	require.NoError(t, err)
	_, err = w.Advance()
	require.NoError(t, err)

	require.NoError(t, w.JumpToSampleHub())
	require.Equal(t, nav.TabSamples, c.Tab())

	snap, err := c.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Hub)
	require.Equal(t, hub.ModeList, snap.Hub.Mode)
	require.Len(t, snap.Hub.Samples, len(sample.Fixtures()))

	_, err = c.Wizard()
	require.ErrorIs(t, err, console.ErrNotMounted)

	entries, err := c.Activity(ctx, activity.Query{Types: []activity.ActivityType{activity.TypeNavigation}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].Details, `"source":"wizard"`)
}

func TestConsole_EndToEndBuildIsRecorded(t *testing.T) {
	e := newEnv(t, false)
	c := e.open(t)
	ctx := context.Background()

	w, err := c.Wizard()
	require.NoError(t, err)
	_, err = w.SetScenario(wizard.ScenarioDetection)
	require.NoError(t, err)
	_, err = w.Advance()
	require.NoError(t, err)
	_, err = w.SetHardware(wizard.HardwareCPU)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = w.Advance()
		require.NoError(t, err)
	}

	st, err := c.StartBuild()
	require.NoError(t, err)
	require.Equal(t, build.StateRunning, st.State)
	require.Equal(t, wizard.CPUBatchSize, st.Job.BatchSize)
	require.Equal(t, wizard.DetectionBaseModel, st.Job.BaseModel)

	_, err = c.StartBuild()
	require.ErrorIs(t, err, build.ErrAlreadyRunning)

	e.clock.RunAll()

	st, err = w.BuildStatus()
	require.NoError(t, err)
	require.Equal(t, build.StateFinished, st.State)
	require.Len(t, st.Logs, len(build.DefaultScript(st.Job)))

	entries, err := c.Activity(ctx, activity.Query{})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	require.Equal(t, activity.TypeBuildFinished, entries[0].ActivityType)

	var advanced int
	for _, entry := range entries {
		if entry.ActivityType == activity.TypeWizardAdvanced {
			advanced++
		}
	}
	require.Equal(t, 4, advanced)
}

func TestConsole_LeavingTrainingAbandonsBuild(t *testing.T) {
	e := newEnv(t, false)
	c := e.open(t)
	ctx := context.Background()

	w, err := c.Wizard()
	require.NoError(t, err)
	_, err = w.SetScenario(wizard.ScenarioClassification)
	require.NoError(t, err)
	_, err = w.Advance()
	require.NoError(t, err)
	_, err = w.SetHardware(wizard.HardwareGPU)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = w.Advance()
		require.NoError(t, err)
	}
	_, err = c.StartBuild()
	require.NoError(t, err)
	r := w.Runner()
	require.NotNil(t, r)

	_, err = c.Navigate(ctx, nav.TabSettings)
	require.NoError(t, err)

	select {
	case <-r.Done():
	default:
		t.Fatal("runner still live after unmount")
	}
	e.clock.RunAll()
	require.Equal(t, build.StateRunning, r.Status().State)
}

func TestConsole_AnnotationSaveIsRecorded(t *testing.T) {
	e := newEnv(t, false)
	c := e.open(t)
	ctx := context.Background()

	_, err := c.Navigate(ctx, nav.TabSamples)
	require.NoError(t, err)
	h, err := c.Hub()
	require.NoError(t, err)

	_, err = h.StartAnnotation(ctx, "S-1003")
	require.NoError(t, err)
	_, err = h.EditBoxes([]sample.BoundingBox{{ClassCode: "DEBRIS", X: 0.2, Y: 0.2, Width: 0.1, Height: 0.1}})
	require.NoError(t, err)
	v, err := h.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, hub.ModeList, v.Mode)

	saved, err := c.Samples().Get(ctx, "S-1003")
	require.NoError(t, err)
	require.Equal(t, sample.StatusLabeled, saved.Status)

	entries, err := c.Activity(ctx, activity.Query{Types: []activity.ActivityType{activity.TypeAnnotationSaved}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "saved S-1003", entries[0].Summary)
}

func TestConsole_ClosedRejectsOperations(t *testing.T) {
	e := newEnv(t, false)
	c := console.New("s2", e.deps)
	c.Close()
	c.Close()

	_, err := c.Snapshot(context.Background())
	require.ErrorIs(t, err, console.ErrClosed)
	_, err = c.Wizard()
	require.ErrorIs(t, err, console.ErrClosed)
	_, err = c.StartBuild()
	require.ErrorIs(t, err, console.ErrClosed)
}
