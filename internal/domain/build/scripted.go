package build

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rpggio/aoiforge/internal/clock"
)

// ScriptedConfig controls the simulated trainer.
type ScriptedConfig struct {
	BaseDelay    time.Duration
	Jitter       time.Duration
	ArtifactSize int64
	Seed         uint64
	Script       func(Job) []string
}

// ScriptedTrainer emits a fixed script on a clock. Line i is due at the
// running sum of per-line delays, each BaseDelay plus uniform [0, Jitter).
type ScriptedTrainer struct {
	clock  clock.Clock
	config ScriptedConfig

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Trainer = (*ScriptedTrainer)(nil)

// NewScriptedTrainer creates a scripted trainer on c.
func NewScriptedTrainer(c clock.Clock, config ScriptedConfig) *ScriptedTrainer {
	if config.BaseDelay <= 0 {
		config.BaseDelay = 800 * time.Millisecond
	}
	if config.Jitter < 0 {
		config.Jitter = 0
	}
	if config.ArtifactSize <= 0 {
		config.ArtifactSize = DefaultArtifactSize
	}
	if config.Script == nil {
		config.Script = DefaultScript
	}
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &ScriptedTrainer{
		clock:  c,
		config: config,
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// Offsets returns the cumulative due offsets for n lines. Exported for
// callers that display an ETA.
func (t *ScriptedTrainer) Offsets(n int) []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]time.Duration, n)
	var total time.Duration
	for i := range out {
		d := t.config.BaseDelay
		if t.config.Jitter > 0 {
			d += time.Duration(t.rng.Int64N(int64(t.config.Jitter)))
		}
		total += d
		out[i] = total
	}
	return out
}

// Start schedules the first line. Each callback schedules the next one,
// so lines cannot overtake each other.
func (t *ScriptedTrainer) Start(ctx context.Context, job Job, sink Sink) error {
	lines := t.config.Script(job)
	if len(lines) == 0 {
		return errors.New("empty build script")
	}
	offsets := t.Offsets(len(lines))
	artifact := Artifact{Name: ArtifactName(job), SizeBytes: t.config.ArtifactSize}

	run := &scriptedRun{
		ctx:      ctx,
		clock:    t.clock,
		lines:    lines,
		offsets:  offsets,
		sink:     sink,
		artifact: artifact,
	}
	run.stopWatch = context.AfterFunc(ctx, run.stop)
	run.schedule(0)
	return nil
}

type scriptedRun struct {
	ctx       context.Context
	clock     clock.Clock
	lines     []string
	offsets   []time.Duration
	sink      Sink
	artifact  Artifact
	stopWatch func() bool

	mu      sync.Mutex
	pending clock.Timer
	stopped bool
}

func (r *scriptedRun) schedule(i int) {
	delay := r.offsets[i]
	if i > 0 {
		delay -= r.offsets[i-1]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.pending = r.clock.AfterFunc(delay, func() { r.emit(i) })
}

func (r *scriptedRun) emit(i int) {
	if r.ctx.Err() != nil {
		return
	}
	r.sink.Log(r.lines[i])
	if i == len(r.lines)-1 {
		r.stopWatch()
		r.sink.Finish(r.artifact)
		return
	}
	r.schedule(i + 1)
}

func (r *scriptedRun) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.pending != nil {
		r.pending.Stop()
	}
}
