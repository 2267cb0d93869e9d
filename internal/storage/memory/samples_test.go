package memory

import (
	"context"
	"testing"

	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/rpggio/aoiforge/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestSampleRepository_ListPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewSampleRepository()
	require.NoError(t, repo.Add(ctx, sample.Fixtures()...))

	all, err := repo.List(ctx, sample.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 6)

	wireless := sample.LineWireless
	filtered, err := repo.List(ctx, sample.Filter{Line: &wireless})
	require.NoError(t, err)
	ids := make([]string, 0, len(filtered))
	for _, s := range filtered {
		require.Equal(t, sample.LineWireless, s.Line)
		ids = append(ids, s.ID)
	}
	require.Equal(t, []string{"S-1001", "S-1002", "S-1005"}, ids)
}

func TestSampleRepository_QueryMatchesFilename(t *testing.T) {
	ctx := context.Background()
	repo := NewSampleRepository()
	require.NoError(t, repo.Add(ctx, sample.Fixtures()...))

	got, err := repo.List(ctx, sample.Filter{Query: "OPT_MODULE_01"})
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestSampleRepository_AddRejectsDuplicateBatch(t *testing.T) {
	ctx := context.Background()
	repo := NewSampleRepository()
	require.NoError(t, repo.Add(ctx, sample.Sample{ID: "a"}))

	err := repo.Add(ctx, sample.Sample{ID: "b"}, sample.Sample{ID: "a"})
	require.ErrorIs(t, err, repository.ErrConflict)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSampleRepository_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewSampleRepository()
	require.NoError(t, repo.Add(ctx, sample.Fixtures()...))

	got, err := repo.Get(ctx, "S-1001")
	require.NoError(t, err)
	got.Defects[0] = "DEBRIS"
	got.Boxes[0].X = 0.9

	again, err := repo.Get(ctx, "S-1001")
	require.NoError(t, err)
	require.Equal(t, "SCRATCH", again.Defects[0])
	require.InDelta(t, 0.22, again.Boxes[0].X, 1e-9)
}

func TestSampleRepository_UpdateMissing(t *testing.T) {
	repo := NewSampleRepository()
	err := repo.Update(context.Background(), &sample.Sample{ID: "missing"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
