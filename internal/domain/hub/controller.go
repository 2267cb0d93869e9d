package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/aoiforge/internal/domain/class"
	"github.com/rpggio/aoiforge/internal/domain/sample"
)

// Store is the sample store as seen by the hub.
type Store interface {
	Registry() *class.Registry
	List(ctx context.Context, filter sample.Filter) ([]sample.Sample, error)
	SaveAnnotation(ctx context.Context, id string, boxes []sample.BoundingBox) (*sample.Sample, error)
	ImportBatch(ctx context.Context, src sample.ImportSource) (*sample.ImportResult, error)
}

// Config holds the controller's collaborators.
type Config struct {
	Logger *slog.Logger
	// OnSaved observes committed annotations. Called outside the lock.
	OnSaved func(sample.Sample)
	// OnImport observes terminal import statuses. Called outside the lock.
	OnImport func(ImportStatus)
	Now      func() time.Time
}

// Controller is the sample hub's List/Editor state machine.
type Controller struct {
	store  Store
	config Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	mode    Mode
	filter  sample.Filter
	editor  *Editor
	imports ImportStatus
	closed  bool
}

// NewController mounts a hub in list mode with no filter.
func NewController(store Store, config Config) *Controller {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		store:   store,
		config:  config,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		mode:    ModeList,
		imports: ImportStatus{State: ImportIdle},
	}
}

// Mode returns the current view mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// View returns the current mode; in list mode it includes the filtered samples.
func (c *Controller) View(ctx context.Context) (View, error) {
	c.mu.Lock()
	v := c.viewLocked()
	filter := c.filter
	c.mu.Unlock()

	if v.Mode == ModeList {
		samples, err := c.store.List(ctx, filter)
		if err != nil {
			return v, err
		}
		v.Samples = samples
	}
	return v, nil
}

func (c *Controller) viewLocked() View {
	v := View{
		Mode:   c.mode,
		Filter: FilterView{Line: c.filter.Line, Query: c.filter.Query},
		Import: c.imports,
	}
	if c.editor != nil {
		e := *c.editor
		e.Boxes = append([]sample.BoundingBox(nil), c.editor.Boxes...)
		v.Editor = &e
	}
	return v
}

// SetFilter replaces the list filter. Only available in list mode.
func (c *Controller) SetFilter(ctx context.Context, filter sample.Filter) (View, error) {
	if filter.Line != nil && !filter.Line.Valid() {
		return View{}, fmt.Errorf("%w: line %q", sample.ErrInvalidInput, *filter.Line)
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return View{}, ErrClosed
	}
	if c.mode != ModeList {
		c.mu.Unlock()
		return View{}, fmt.Errorf("%w: filter in %s mode", ErrWrongMode, ModeEditor)
	}
	c.filter = filter
	c.mu.Unlock()
	return c.View(ctx)
}

// StartAnnotation enters the editor for a sample in the current list
// snapshot. Defect codes are resolved against the registry; codes without
// an entry degrade to class.Unknown.
func (c *Controller) StartAnnotation(ctx context.Context, id string) (View, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return View{}, ErrClosed
	}
	if c.mode != ModeList {
		c.mu.Unlock()
		return View{}, fmt.Errorf("%w: already editing", ErrWrongMode)
	}
	filter := c.filter
	c.mu.Unlock()

	snapshot, err := c.store.List(ctx, filter)
	if err != nil {
		return View{}, fmt.Errorf("listing samples: %w", err)
	}
	var selected *sample.Sample
	for i := range snapshot {
		if snapshot[i].ID == id {
			selected = &snapshot[i]
			break
		}
	}
	if selected == nil {
		return View{}, fmt.Errorf("%w: %s", ErrNotInView, id)
	}

	resolved, unresolved := c.store.Registry().Resolve(selected.Defects)
	if len(unresolved) > 0 {
		c.logger.Warn("sample references unknown classes", "sample_id", id, "codes", unresolved)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return View{}, ErrClosed
	}
	if c.mode != ModeList {
		return c.viewLocked(), fmt.Errorf("%w: already editing", ErrWrongMode)
	}
	smp := selected.Clone()
	c.mode = ModeEditor
	c.editor = &Editor{
		Sample:     smp,
		Classes:    resolved,
		Unresolved: unresolved,
		Boxes:      append([]sample.BoundingBox{}, smp.Boxes...),
	}
	return c.viewLocked(), nil
}

// EditBoxes replaces the editor's draft boxes. Class reassignment is a
// box whose class code changed. Nothing reaches the store until Save.
func (c *Controller) EditBoxes(boxes []sample.BoundingBox) (View, error) {
	registry := c.store.Registry()
	draft := make([]sample.BoundingBox, len(boxes))
	for i, b := range boxes {
		cls, ok := registry.Lookup(b.ClassCode)
		if !ok {
			return View{}, fmt.Errorf("%w: %q", class.ErrUnknownClass, b.ClassCode)
		}
		b.ClassCode = cls.Code
		if !b.Valid() {
			return View{}, fmt.Errorf("%w: box %d out of bounds", sample.ErrInvalidInput, i)
		}
		draft[i] = b
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return View{}, ErrClosed
	}
	if c.mode != ModeEditor || c.editor == nil {
		return c.viewLocked(), fmt.Errorf("%w: not editing", ErrWrongMode)
	}
	c.editor.Boxes = draft
	c.editor.Dirty = true
	return c.viewLocked(), nil
}

// Save commits the draft to the store and returns to the list. On failure
// the editor stays open with its draft. The commit runs under the
// controller lock, so a concurrent Back either precedes it and Save fails,
// or follows it and finds the list.
func (c *Controller) Save(ctx context.Context) (View, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return View{}, ErrClosed
	}
	if c.mode != ModeEditor || c.editor == nil {
		defer c.mu.Unlock()
		return c.viewLocked(), fmt.Errorf("%w: not editing", ErrWrongMode)
	}
	id := c.editor.Sample.ID
	boxes := append([]sample.BoundingBox{}, c.editor.Boxes...)

	saved, err := c.store.SaveAnnotation(ctx, id, boxes)
	if err != nil {
		defer c.mu.Unlock()
		return c.viewLocked(), fmt.Errorf("saving annotation: %w", err)
	}
	c.mode = ModeList
	c.editor = nil
	c.mu.Unlock()

	c.logger.Info("annotation saved", "sample_id", id, "boxes", len(boxes))
	if c.config.OnSaved != nil {
		c.config.OnSaved(*saved)
	}
	return c.View(ctx)
}

// Back returns to the list, discarding any draft.
func (c *Controller) Back(ctx context.Context) (View, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return View{}, ErrClosed
	}
	if c.editor != nil && c.editor.Dirty {
		c.logger.Debug("annotation draft discarded", "sample_id", c.editor.Sample.ID)
	}
	c.mode = ModeList
	c.editor = nil
	c.mu.Unlock()
	return c.View(ctx)
}

// Import starts a background import. Its outcome is reported through
// ImportStatus; a failed import leaves the store untouched and may be retried.
// An invalid line is rejected before anything starts.
func (c *Controller) Import(src sample.ImportSource) (ImportStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.imports, ErrClosed
	}
	if _, err := src.FallbackLine(); err != nil {
		return c.imports, err
	}
	if c.imports.State == ImportRunning {
		return c.imports, ErrImportInProgress
	}
	started := c.config.Now()
	c.imports = ImportStatus{State: ImportRunning, Source: src.Name, StartedAt: &started}

	c.wg.Add(1)
	go c.runImport(src)
	return c.imports, nil
}

func (c *Controller) runImport(src sample.ImportSource) {
	defer c.wg.Done()

	result, err := c.store.ImportBatch(c.ctx, src)
	finished := c.config.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	status := c.imports
	status.FinishedAt = &finished
	if err != nil {
		status.State = ImportFailed
		status.Error = err.Error()
	} else {
		status.State = ImportCompleted
		status.Imported = len(result.Imported)
		status.Remap = result.Remap
	}
	c.imports = status
	c.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("import failed", "source", src.Name, "error", err)
	}
	if c.config.OnImport != nil {
		c.config.OnImport(status)
	}
}

// ImportStatus returns the latest import status.
func (c *Controller) ImportStatus() ImportStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imports
}

// Close unmounts the hub, cancels a running import and waits for it.
// Results arriving after Close are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mode = ModeList
	c.editor = nil
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
