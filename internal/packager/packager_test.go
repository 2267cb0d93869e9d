package packager

import (
	"archive/zip"
	"context"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/rpggio/aoiforge/internal/domain/class"
	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/rpggio/aoiforge/internal/storage/memory"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestZipPackager_WritesSplit(t *testing.T) {
	ctx := context.Background()
	p, err := New(t.TempDir())
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC) }

	svc := sample.NewService(memory.NewSampleRepository(), class.Default(), sample.Collaborators{Packager: p}, nil, nil)
	require.NoError(t, svc.Seed(ctx, sample.Fixtures()))

	res, err := svc.Package(ctx, "2024/wireless scratch", sample.DatasetConfig{
		Lines:      []sample.Line{sample.LineWireless},
		SplitRatio: 0.67,
	})
	require.NoError(t, err)
	require.Equal(t, "2024_wireless scratch.zip", res.Name)
	require.Equal(t, 2, res.TrainCount)
	require.Equal(t, 1, res.ValCount)
	require.Equal(t, 3*sample.BytesPerSampleEstimate, res.SizeBytes)

	loc, err := url.Parse(res.Location)
	require.NoError(t, err)
	zr, err := zip.OpenReader(loc.Path)
	require.NoError(t, err)
	defer zr.Close()

	entries := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		entries[f.Name] = string(body)
	}
	require.Contains(t, entries, "manifest.yaml")
	require.Equal(t, "S-1001\t/samples/wl_board_0001.jpg\tSCRATCH\nS-1002\t/samples/wl_board_0002.jpg\tSCRATCH,SOLDERING\n", entries["train.txt"])
	require.Equal(t, "S-1005\t/samples/wl_board_0003.jpg\t\n", entries["val.txt"])

	var m Manifest
	require.NoError(t, yaml.Unmarshal([]byte(entries["manifest.yaml"]), &m))
	require.Equal(t, 2, m.TrainCount)
	require.Equal(t, []sample.Line{sample.LineWireless}, m.Lines)
}

func TestFileName(t *testing.T) {
	require.Equal(t, "dataset.zip", fileName("  "))
	require.Equal(t, "a_b.zip", fileName("a/b"))
	require.Equal(t, "pkg.ZIP", fileName("..pkg.ZIP"))
}
