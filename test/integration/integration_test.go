package integration_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/rpggio/aoiforge/internal/domain/class"
	"github.com/rpggio/aoiforge/internal/domain/hub"
	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/rpggio/aoiforge/internal/ingest"
	"github.com/rpggio/aoiforge/internal/packager"
	"github.com/rpggio/aoiforge/internal/sqlite"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type testEnv struct {
	db      *sqlite.DB
	repo    *sqlite.SampleRepository
	samples *sample.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	uploader, err := ingest.NewDirUploader(t.TempDir(), 0)
	require.NoError(t, err)
	pkg, err := packager.New(t.TempDir())
	require.NoError(t, err)

	repo := sqlite.NewSampleRepository(db)
	svc := sample.NewService(repo, class.Default(), sample.Collaborators{
		Uploader: uploader,
		Importer: ingest.NewZipImporter("", 0),
		Packager: pkg,
	}, nil, nil)
	require.NoError(t, svc.Seed(context.Background(), sample.Fixtures()))

	return &testEnv{db: db, repo: repo, samples: svc}
}

func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestIntegration_UploadImportPackage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	uploaded, err := env.samples.Upload(ctx, sample.UploadRequest{
		Filename: "opt_module_0200.png",
		Line:     sample.LineOptical,
		Data:     pngHeader,
	})
	require.NoError(t, err)
	require.Equal(t, sample.StatusUnlabeled, uploaded.Status)
	require.True(t, strings.HasPrefix(uploaded.ThumbnailRef, "file://"))

	archive := buildArchive(t, map[string]string{
		"classes.txt":   "scratch\nsolder\n",
		"manifest.yaml": "line: OPTICAL\nremap:\n  1: SOLDERING\n",
		"images/a.jpg":  "x",
		"images/b.png":  "x",
		"labels/a.txt":  "0 0.5 0.5 0.2 0.1\n1 0.25 0.25 0.1 0.1\n",
	})
	result, err := env.samples.ImportBatch(ctx, sample.ImportSource{Name: "line7.zip", Data: archive})
	require.NoError(t, err)
	require.Len(t, result.Imported, 2)

	byName := map[string]sample.Sample{}
	for _, s := range result.Imported {
		stored, err := env.repo.Get(ctx, s.ID)
		require.NoError(t, err)
		byName[stored.Filename] = *stored
	}
	require.Equal(t, sample.StatusLabeled, byName["a.jpg"].Status)
	require.ElementsMatch(t, []string{"SCRATCH", "SOLDERING"}, byName["a.jpg"].Defects)
	require.Len(t, byName["a.jpg"].Boxes, 2)
	require.Equal(t, sample.StatusUnlabeled, byName["b.png"].Status)
	require.Equal(t, sample.LineOptical, byName["b.png"].Line)

	before, err := env.repo.Count(ctx)
	require.NoError(t, err)
	bad := buildArchive(t, map[string]string{
		"classes.txt":  "crack\n",
		"images/c.jpg": "x",
		"labels/c.txt": "0 0.5 0.5 0.2 0.1\n",
	})
	_, err = env.samples.ImportBatch(ctx, sample.ImportSource{Name: "bad.zip", Data: bad, Line: sample.LineWireless})
	require.ErrorIs(t, err, sample.ErrImport)
	after, err := env.repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)

	res, err := env.samples.Package(ctx, "optical-soldering", sample.DatasetConfig{
		Lines:      []sample.Line{sample.LineOptical},
		Classes:    []string{"SOLDERING"},
		SplitRatio: 0.5,
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.TrainCount+res.ValCount)

	loc, err := url.Parse(res.Location)
	require.NoError(t, err)
	zr, err := zip.OpenReader(loc.Path)
	require.NoError(t, err)
	defer zr.Close()

	names := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		names[f.Name] = string(body)
	}
	require.Contains(t, names, "manifest.yaml")
	require.Contains(t, names, "train.txt")
	require.Contains(t, names, "val.txt")
	require.Contains(t, names["train.txt"]+names["val.txt"], "S-1006")
}

func TestIntegration_HubAnnotationPersists(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	ctrl := hub.NewController(env.samples, hub.Config{})
	t.Cleanup(ctrl.Close)

	wireless := sample.LineWireless
	view, err := ctrl.SetFilter(ctx, sample.Filter{Line: &wireless, Query: "0003"})
	require.NoError(t, err)
	require.Len(t, view.Samples, 1)
	id := view.Samples[0].ID

	_, err = ctrl.StartAnnotation(ctx, id)
	require.NoError(t, err)
	_, err = ctrl.EditBoxes([]sample.BoundingBox{
		{ClassCode: "scratch", X: 0.1, Y: 0.1, Width: 0.3, Height: 0.02},
	})
	require.NoError(t, err)

	stored, err := env.repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, sample.StatusUnlabeled, stored.Status)

	view, err = ctrl.Save(ctx)
	require.NoError(t, err)
	require.Equal(t, hub.ModeList, view.Mode)

	reopened := sqlite.NewSampleRepository(env.db)
	stored, err = reopened.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, sample.StatusLabeled, stored.Status)
	require.Equal(t, []string{"SCRATCH"}, stored.Defects)
	require.Equal(t, "SCRATCH", stored.Boxes[0].ClassCode)
}
