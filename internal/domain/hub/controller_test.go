package hub_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/aoiforge/internal/domain/class"
	"github.com/rpggio/aoiforge/internal/domain/hub"
	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/rpggio/aoiforge/internal/storage/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gateImporter blocks until released or canceled.
type gateImporter struct {
	release chan struct{}
	batch   *sample.ImportBatch
	err     error
}

func (g *gateImporter) Import(ctx context.Context, _ sample.ImportSource) (*sample.ImportBatch, error) {
	select {
	case <-g.release:
		return g.batch, g.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fixture struct {
	repo     *memory.SampleRepository
	store    *sample.Service
	importer *gateImporter
	ctrl     *hub.Controller
	saved    []sample.Sample
	imports  chan hub.ImportStatus
}

func newFixture(t *testing.T, extra ...sample.Sample) *fixture {
	t.Helper()
	f := &fixture{
		repo:     memory.NewSampleRepository(),
		importer: &gateImporter{release: make(chan struct{})},
		imports:  make(chan hub.ImportStatus, 4),
	}
	f.store = sample.NewService(f.repo, class.Default(), sample.Collaborators{Importer: f.importer}, nil, nil)
	require.NoError(t, f.store.Seed(context.Background(), append(sample.Fixtures(), extra...)))
	f.ctrl = hub.NewController(f.store, hub.Config{
		OnSaved:  func(s sample.Sample) { f.saved = append(f.saved, s) },
		OnImport: func(s hub.ImportStatus) { f.imports <- s },
	})
	t.Cleanup(f.ctrl.Close)
	return f
}

func TestHub_StartsInListMode(t *testing.T) {
	f := newFixture(t)
	v, err := f.ctrl.View(context.Background())
	require.NoError(t, err)
	require.Equal(t, hub.ModeList, v.Mode)
	require.Len(t, v.Samples, len(sample.Fixtures()))
	require.Equal(t, hub.ImportIdle, v.Import.State)
}

func TestHub_StartAnnotationThenBackLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	before, err := f.store.Get(ctx, "S-1002")
	require.NoError(t, err)

	v, err := f.ctrl.StartAnnotation(ctx, "S-1002")
	require.NoError(t, err)
	require.Equal(t, hub.ModeEditor, v.Mode)
	require.Equal(t, "S-1002", v.Editor.Sample.ID)
	require.Len(t, v.Editor.Classes, 2)
	require.Equal(t, "开焊 (Soldering)", v.Editor.Classes[1].Class.Name)

	_, err = f.ctrl.EditBoxes([]sample.BoundingBox{{ClassCode: "debris", X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}})
	require.NoError(t, err)

	v, err = f.ctrl.Back(ctx)
	require.NoError(t, err)
	require.Equal(t, hub.ModeList, v.Mode)
	require.Nil(t, v.Editor)

	after, err := f.store.Get(ctx, "S-1002")
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Empty(t, f.saved)
}

func TestHub_SaveCommitsDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ctrl.StartAnnotation(ctx, "S-1003")
	require.NoError(t, err)
	v, err := f.ctrl.EditBoxes([]sample.BoundingBox{
		{ClassCode: "scratch", X: 0.1, Y: 0.2, Width: 0.3, Height: 0.05},
	})
	require.NoError(t, err)
	require.True(t, v.Editor.Dirty)
	require.Equal(t, "SCRATCH", v.Editor.Boxes[0].ClassCode)

	v, err = f.ctrl.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, hub.ModeList, v.Mode)

	got, err := f.store.Get(ctx, "S-1003")
	require.NoError(t, err)
	require.Equal(t, sample.StatusLabeled, got.Status)
	require.Equal(t, []string{"SCRATCH"}, got.Defects)
	require.Len(t, f.saved, 1)
}

// slowSaveStore holds SaveAnnotation until released.
type slowSaveStore struct {
	*sample.Service
	entered chan struct{}
	release chan struct{}
}

func (s *slowSaveStore) SaveAnnotation(ctx context.Context, id string, boxes []sample.BoundingBox) (*sample.Sample, error) {
	close(s.entered)
	<-s.release
	return s.Service.SaveAnnotation(ctx, id, boxes)
}

func TestHub_BackDuringSaveIsOrdered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	store := &slowSaveStore{Service: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	ctrl := hub.NewController(store, hub.Config{})
	t.Cleanup(ctrl.Close)

	_, err := ctrl.StartAnnotation(ctx, "S-1003")
	require.NoError(t, err)
	_, err = ctrl.EditBoxes([]sample.BoundingBox{{ClassCode: "SCRATCH", X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}})
	require.NoError(t, err)

	saveErr := make(chan error, 1)
	go func() {
		_, err := ctrl.Save(ctx)
		saveErr <- err
	}()
	<-store.entered

	backDone := make(chan hub.View, 1)
	go func() {
		v, _ := ctrl.Back(ctx)
		backDone <- v
	}()
	select {
	case <-backDone:
		t.Fatal("back returned while the save was still committing")
	case <-time.After(20 * time.Millisecond):
	}

	close(store.release)
	require.NoError(t, <-saveErr)
	v := <-backDone
	require.Equal(t, hub.ModeList, v.Mode)
	require.Nil(t, v.Editor)

	got, err := f.store.Get(ctx, "S-1003")
	require.NoError(t, err)
	require.Equal(t, []string{"SCRATCH"}, got.Defects)

	// Back first: the draft is gone and Save has nothing to commit.
	_, err = ctrl.StartAnnotation(ctx, "S-1005")
	require.NoError(t, err)
	_, err = ctrl.EditBoxes([]sample.BoundingBox{{ClassCode: "DEBRIS", X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}})
	require.NoError(t, err)
	_, err = ctrl.Back(ctx)
	require.NoError(t, err)
	_, err = ctrl.Save(ctx)
	require.ErrorIs(t, err, hub.ErrWrongMode)

	untouched, err := f.store.Get(ctx, "S-1005")
	require.NoError(t, err)
	require.Empty(t, untouched.Defects)
	require.Equal(t, sample.StatusUnlabeled, untouched.Status)
}

func TestHub_StartAnnotationRequiresSampleInView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	optical := sample.LineOptical
	_, err := f.ctrl.SetFilter(ctx, sample.Filter{Line: &optical})
	require.NoError(t, err)

	_, err = f.ctrl.StartAnnotation(ctx, "S-1001")
	require.ErrorIs(t, err, hub.ErrNotInView)
	require.Equal(t, hub.ModeList, f.ctrl.Mode())

	_, err = f.ctrl.StartAnnotation(ctx, "S-1004")
	require.NoError(t, err)

	_, err = f.ctrl.StartAnnotation(ctx, "S-1006")
	require.ErrorIs(t, err, hub.ErrWrongMode)
	_, err = f.ctrl.SetFilter(ctx, sample.Filter{})
	require.ErrorIs(t, err, hub.ErrWrongMode)
}

func TestHub_UnknownDefectCodesDegrade(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSampleRepository()
	require.NoError(t, repo.Add(ctx, sample.Sample{
		ID: "legacy", Filename: "legacy.jpg", Line: sample.LineWireless,
		Defects: []string{"SCRATCH", "BURR"}, Status: sample.StatusLabeled,
	}))
	store := sample.NewService(repo, class.Default(), sample.Collaborators{}, nil, nil)
	ctrl := hub.NewController(store, hub.Config{})
	defer ctrl.Close()

	v, err := ctrl.StartAnnotation(ctx, "legacy")
	require.NoError(t, err)
	require.Equal(t, []string{"BURR"}, v.Editor.Unresolved)
	require.True(t, v.Editor.Classes[1].Unknown)
	require.Equal(t, "unknown (BURR)", v.Editor.Classes[1].Class.Name)
}

func TestHub_EditRejectsUnknownClass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ctrl.EditBoxes(nil)
	require.ErrorIs(t, err, hub.ErrWrongMode)

	_, err = f.ctrl.StartAnnotation(ctx, "S-1001")
	require.NoError(t, err)
	_, err = f.ctrl.EditBoxes([]sample.BoundingBox{{ClassCode: "CRACK", X: 0.1, Y: 0.1, Width: 0.1, Height: 0.1}})
	require.ErrorIs(t, err, class.ErrUnknownClass)

	v, err := f.ctrl.View(ctx)
	require.NoError(t, err)
	require.False(t, v.Editor.Dirty)
}

func TestHub_ImportCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importer.batch = &sample.ImportBatch{
		LocalClasses: []string{"Scratch"},
		Samples: []sample.ImportedSample{
			{Filename: "etl_0001.jpg", Boxes: []sample.LocalBox{{LocalClass: 0, X: 0.1, Y: 0.1, Width: 0.1, Height: 0.1}}},
		},
	}

	st, err := f.ctrl.Import(sample.ImportSource{Name: "etl.zip", Line: sample.LineWireless})
	require.NoError(t, err)
	require.Equal(t, hub.ImportRunning, st.State)

	_, err = f.ctrl.Import(sample.ImportSource{Name: "again.zip"})
	require.ErrorIs(t, err, hub.ErrImportInProgress)

	close(f.importer.release)
	done := waitImport(t, f.imports)
	require.Equal(t, hub.ImportCompleted, done.State)
	require.Equal(t, 1, done.Imported)
	require.Equal(t, map[int]string{0: "SCRATCH"}, done.Remap)

	v, err := f.ctrl.View(ctx)
	require.NoError(t, err)
	require.Len(t, v.Samples, len(sample.Fixtures())+1)
}

func TestHub_ImportDefaultsAndValidatesLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importer.batch = &sample.ImportBatch{
		LocalClasses: []string{"scratch"},
		Samples:      []sample.ImportedSample{{Filename: "noline_0001.jpg"}},
	}

	st, err := f.ctrl.Import(sample.ImportSource{Name: "acoustic.zip", Line: "ACOUSTIC"})
	require.ErrorIs(t, err, sample.ErrInvalidInput)
	require.Equal(t, hub.ImportIdle, st.State)
	require.Equal(t, hub.ImportIdle, f.ctrl.ImportStatus().State)

	_, err = f.ctrl.Import(sample.ImportSource{Name: "noline.zip"})
	require.NoError(t, err)
	close(f.importer.release)
	done := waitImport(t, f.imports)
	require.Equal(t, hub.ImportCompleted, done.State)

	got, err := f.store.List(ctx, sample.Filter{Query: "noline_"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, sample.DefaultImportLine, got[0].Line)
}

func TestHub_ImportFailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.importer.err = errors.New("truncated archive")
	close(f.importer.release)

	_, err := f.ctrl.Import(sample.ImportSource{Name: "bad.zip"})
	require.NoError(t, err)
	done := waitImport(t, f.imports)
	require.Equal(t, hub.ImportFailed, done.State)
	require.Contains(t, done.Error, "truncated archive")

	n, err := f.repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, len(sample.Fixtures()), n)

	_, err = f.ctrl.Import(sample.ImportSource{Name: "retry.zip"})
	require.NoError(t, err)
	waitImport(t, f.imports)
}

func TestHub_CloseCancelsImport(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.Import(sample.ImportSource{Name: "slow.zip"})
	require.NoError(t, err)

	f.ctrl.Close()

	require.Equal(t, hub.ImportRunning, f.ctrl.ImportStatus().State)
	require.Empty(t, f.imports)
	_, err = f.ctrl.Import(sample.ImportSource{Name: "late.zip"})
	require.ErrorIs(t, err, hub.ErrClosed)
}

func waitImport(t *testing.T, ch <-chan hub.ImportStatus) hub.ImportStatus {
	t.Helper()
	select {
	case st := <-ch:
		return st
	case <-time.After(5 * time.Second):
		t.Fatal("import did not finish")
		return hub.ImportStatus{}
	}
}
