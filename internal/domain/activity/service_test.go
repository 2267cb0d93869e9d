package activity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/aoiforge/internal/domain/activity"
	"github.com/rpggio/aoiforge/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_AppendAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	entry := &activity.ActivityEntry{
		SessionID:    "sess1",
		ActivityType: activity.TypeWizardAdvanced,
		Summary:      "scenario -> hardware",
	}
	repo.On("Append", ctx, entry).Return(nil)
	repo.On("Recent", ctx, activity.Query{SessionID: "sess1", Limit: activity.DefaultLimit}).
		Return([]activity.ActivityEntry{*entry}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.Append(ctx, entry))
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := svc.Recent(ctx, activity.Query{SessionID: "sess1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

func TestActivityService_RecentClampsLimit(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("Recent", ctx, activity.Query{Limit: activity.MaxLimit}).Return(nil, nil)

	entries, err := activity.NewService(repo, nil).Recent(ctx, activity.Query{Limit: 10_000})
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
	repo.AssertExpectations(t)
}

func TestActivityService_RejectsUnknownTypes(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil)
	ctx := context.Background()

	_, err := svc.Recent(ctx, activity.Query{Types: []activity.ActivityType{"reboot"}})
	require.ErrorIs(t, err, activity.ErrUnknownType)

	require.ErrorIs(t, svc.Append(ctx, nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.Append(ctx, &activity.ActivityEntry{Summary: "x"}), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.Append(ctx, &activity.ActivityEntry{ActivityType: "reboot", Summary: "x"}), activity.ErrInvalidInput)
}

func TestActivityService_RecordEncodesDetails(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("Append", ctx, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeBuildStarted && e.Details == `{"run_id":"r1"}`
	})).Return(nil)

	svc := activity.NewService(repo, nil)
	svc.Record(ctx, "sess1", activity.TypeBuildStarted, "build started", map[string]string{"run_id": "r1"})
	repo.AssertExpectations(t)
}

func TestActivityService_RecordSwallowsStoreErrors(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("Append", ctx, mock.Anything).Return(errors.New("disk full"))

	svc := activity.NewService(repo, nil)
	require.NotPanics(t, func() {
		svc.Record(ctx, "sess1", activity.TypeNavigation, "navigated", nil)
	})
	repo.AssertExpectations(t)
}
