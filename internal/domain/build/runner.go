package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/aoiforge/internal/clock"
)

// Metrics receives runner counters.
type Metrics interface {
	BuildStarted()
	BuildFinished(elapsed time.Duration)
	BuildFailed()
}

// RunnerConfig holds the runner's collaborators. Zero values are usable.
type RunnerConfig struct {
	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics Metrics
	// OnDone is called once, outside the runner's lock, when the run
	// finishes or fails.
	OnDone func(Status)
}

// Runner drives a single build run: Idle -> Running -> Finished.
// A finished run is never reset; callers create a new Runner instead.
type Runner struct {
	id      string
	job     Job
	trainer Trainer
	config  RunnerConfig
	logger  *slog.Logger

	mu        sync.Mutex
	state     State
	logs      []LogLine
	artifact  *Artifact
	err       error
	started   time.Time
	finished  time.Time
	cancel    context.CancelFunc
	closed    bool
	done      chan struct{}
	doneFired bool
}

// NewRunner creates an idle runner for job.
func NewRunner(job Job, trainer Trainer, config RunnerConfig) *Runner {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	id := uuid.NewString()
	return &Runner{
		id:      id,
		job:     job,
		trainer: trainer,
		config:  config,
		logger:  logger.With("run_id", id),
		state:   StateIdle,
		done:    make(chan struct{}),
	}
}

// ID returns the run identifier.
func (r *Runner) ID() string {
	return r.id
}

// Start begins the run. Finished and failed runs are terminal.
func (r *Runner) Start() error {
	r.mu.Lock()
	switch {
	case r.closed:
		r.mu.Unlock()
		return ErrClosed
	case r.state == StateRunning:
		r.mu.Unlock()
		return ErrAlreadyRunning
	case r.state == StateFinished, r.state == StateFailed:
		r.mu.Unlock()
		return ErrAlreadyFinished
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.state = StateRunning
	r.started = r.config.Clock.Now()
	r.cancel = cancel
	r.mu.Unlock()

	if r.config.Metrics != nil {
		r.config.Metrics.BuildStarted()
	}
	r.logger.Info("build started", "scenario", r.job.Scenario, "hardware", r.job.Hardware)

	sink := &runSink{runner: r, ctx: ctx}
	if err := r.trainer.Start(ctx, r.job, sink); err != nil {
		sink.Fail(fmt.Errorf("starting trainer: %w", err))
		return fmt.Errorf("starting trainer: %w", err)
	}
	return nil
}

// Status returns a snapshot of the run.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked()
}

func (r *Runner) statusLocked() Status {
	st := Status{
		RunID: r.id,
		State: r.state,
		Job:   r.job,
		Logs:  append([]LogLine{}, r.logs...),
	}
	if r.artifact != nil {
		a := *r.artifact
		st.Artifact = &a
	}
	if r.err != nil {
		st.Error = r.err.Error()
	}
	if !r.started.IsZero() {
		t := r.started
		st.StartedAt = &t
	}
	if !r.finished.IsZero() {
		t := r.finished
		st.FinishedAt = &t
	}
	return st
}

// Artifact returns the download descriptor once the run has finished.
func (r *Runner) Artifact() (Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateFinished || r.artifact == nil {
		return Artifact{}, ErrNotFinished
	}
	return *r.artifact, nil
}

// Running reports whether the run is in progress.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateRunning
}

// Done is closed when the run finishes, fails or the runner is closed.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Close cancels pending work. Callbacks arriving afterwards are dropped.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	cancel := r.cancel
	r.fireDoneLocked()
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (r *Runner) fireDoneLocked() {
	if !r.doneFired {
		r.doneFired = true
		close(r.done)
	}
}

func (r *Runner) appendLog(ctx context.Context, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || ctx.Err() != nil || r.state != StateRunning {
		return
	}
	now := r.config.Clock.Now()
	id := now.UnixMilli()
	if n := len(r.logs); n > 0 && id <= r.logs[n-1].ID {
		id = r.logs[n-1].ID + 1
	}
	r.logs = append(r.logs, LogLine{ID: id, Text: text, At: now})
}

func (r *Runner) complete(ctx context.Context, artifact *Artifact, err error) {
	r.mu.Lock()
	if r.closed || ctx.Err() != nil || r.state != StateRunning {
		r.mu.Unlock()
		return
	}
	r.finished = r.config.Clock.Now()
	if err != nil {
		r.state = StateFailed
		r.err = err
	} else {
		r.state = StateFinished
		r.artifact = artifact
	}
	elapsed := r.finished.Sub(r.started)
	cancel := r.cancel
	r.fireDoneLocked()
	status := r.statusLocked()
	r.mu.Unlock()

	cancel()
	if err != nil {
		r.logger.Warn("build failed", "error", err)
		if r.config.Metrics != nil {
			r.config.Metrics.BuildFailed()
		}
	} else {
		r.logger.Info("build finished", "artifact", artifact.Name, "elapsed", elapsed)
		if r.config.Metrics != nil {
			r.config.Metrics.BuildFinished(elapsed)
		}
	}
	if r.config.OnDone != nil {
		r.config.OnDone(status)
	}
}

// runSink forwards trainer callbacks; they are dropped once ctx is canceled.
type runSink struct {
	runner *Runner
	ctx    context.Context
}

func (s *runSink) Log(text string) {
	s.runner.appendLog(s.ctx, text)
}

func (s *runSink) Finish(artifact Artifact) {
	s.runner.complete(s.ctx, &artifact, nil)
}

func (s *runSink) Fail(err error) {
	s.runner.complete(s.ctx, nil, err)
}
