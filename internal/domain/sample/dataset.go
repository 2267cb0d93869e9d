package sample

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// BytesPerSampleEstimate is the mocked per-image size used for package estimates.
const BytesPerSampleEstimate int64 = 90 * 1024

// GenerateDataset computes the package descriptor for the current store
// contents. It never mutates the store.
func (s *Service) GenerateDataset(ctx context.Context, cfg DatasetConfig) (PackageDescriptor, error) {
	selected, err := s.selectDataset(ctx, cfg)
	if err != nil {
		return PackageDescriptor{}, err
	}
	return describe(selected, cfg.SplitRatio), nil
}

// Package generates the descriptor and hands the split to the packaging
// collaborator. The collaborator's counts must agree with the descriptor.
func (s *Service) Package(ctx context.Context, name string, cfg DatasetConfig) (*PackageResult, error) {
	if s.collab.Packager == nil {
		return nil, fmt.Errorf("%w: packager", ErrNotConfigured)
	}

	selected, err := s.selectDataset(ctx, cfg)
	if err != nil {
		return nil, err
	}
	desc := describe(selected, cfg.SplitRatio)
	if strings.TrimSpace(name) == "" {
		name = "dataset"
	}

	result, err := s.collab.Packager.Package(ctx, PackageRequest{
		Name:       name,
		Descriptor: desc,
		Train:      selected[:desc.TrainCount],
		Val:        selected[desc.TrainCount:],
		Config:     cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackage, err)
	}
	if result.TrainCount != desc.TrainCount || result.ValCount != desc.ValCount {
		return nil, fmt.Errorf("%w: packaged %d/%d rows, expected %d/%d",
			ErrPackage, result.TrainCount, result.ValCount, desc.TrainCount, desc.ValCount)
	}
	s.logger.Info("dataset packaged", "name", result.Name, "train", result.TrainCount, "val", result.ValCount)
	return result, nil
}

func (s *Service) selectDataset(ctx context.Context, cfg DatasetConfig) ([]Sample, error) {
	if cfg.SplitRatio <= 0 || cfg.SplitRatio >= 1 || math.IsNaN(cfg.SplitRatio) {
		return nil, fmt.Errorf("%w: split ratio %v outside (0,1)", ErrInvalidInput, cfg.SplitRatio)
	}

	lines := make(map[Line]struct{}, len(cfg.Lines))
	for _, l := range cfg.Lines {
		if !l.Valid() {
			return nil, fmt.Errorf("%w: line %q", ErrInvalidInput, l)
		}
		lines[l] = struct{}{}
	}
	classes := make(map[string]struct{}, len(cfg.Classes))
	for _, code := range cfg.Classes {
		c, ok := s.registry.Lookup(code)
		if !ok {
			return nil, fmt.Errorf("%w: dataset class %q", ErrInvalidInput, code)
		}
		classes[c.Code] = struct{}{}
	}

	all, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("listing samples: %w", err)
	}

	selected := make([]Sample, 0, len(all))
	for _, smp := range all {
		if len(lines) > 0 {
			if _, ok := lines[smp.Line]; !ok {
				continue
			}
		}
		if len(classes) > 0 && !smp.HasAnyDefect(classes) {
			continue
		}
		selected = append(selected, smp)
	}
	return selected, nil
}

func describe(selected []Sample, splitRatio float64) PackageDescriptor {
	n := len(selected)
	train := int(math.Round(float64(n) * splitRatio))
	ids := make([]string, 0, n)
	for _, smp := range selected {
		ids = append(ids, smp.ID)
	}
	return PackageDescriptor{
		SampleIDs:         ids,
		SizeEstimateBytes: int64(n) * BytesPerSampleEstimate,
		TrainCount:        train,
		ValCount:          n - train,
	}
}
