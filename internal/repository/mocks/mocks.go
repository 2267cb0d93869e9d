package mocks

import (
	"context"

	"github.com/rpggio/aoiforge/internal/domain/activity"
	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/stretchr/testify/mock"
)

// SampleRepository is a mock for sample.Repository.
type SampleRepository struct {
	mock.Mock
}

func (m *SampleRepository) Add(ctx context.Context, samples ...sample.Sample) error {
	args := m.Called(ctx, samples)
	return args.Error(0)
}

func (m *SampleRepository) Get(ctx context.Context, id string) (*sample.Sample, error) {
	args := m.Called(ctx, id)
	if smp, ok := args.Get(0).(*sample.Sample); ok {
		return smp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SampleRepository) List(ctx context.Context, filter sample.Filter) ([]sample.Sample, error) {
	args := m.Called(ctx, filter)
	if list, ok := args.Get(0).([]sample.Sample); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SampleRepository) Update(ctx context.Context, smp *sample.Sample) error {
	args := m.Called(ctx, smp)
	return args.Error(0)
}

func (m *SampleRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Uploader is a mock for sample.Uploader.
type Uploader struct {
	mock.Mock
}

func (m *Uploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	args := m.Called(ctx, filename, data)
	return args.String(0), args.Error(1)
}

// Importer is a mock for sample.Importer.
type Importer struct {
	mock.Mock
}

func (m *Importer) Import(ctx context.Context, src sample.ImportSource) (*sample.ImportBatch, error) {
	args := m.Called(ctx, src)
	if batch, ok := args.Get(0).(*sample.ImportBatch); ok {
		return batch, args.Error(1)
	}
	return nil, args.Error(1)
}

// Packager is a mock for sample.Packager.
type Packager struct {
	mock.Mock
}

func (m *Packager) Package(ctx context.Context, req sample.PackageRequest) (*sample.PackageResult, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*sample.PackageResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Append(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) Recent(ctx context.Context, q activity.Query) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, q)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
