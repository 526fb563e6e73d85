// pkg/store/ledger.go
package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

// AppendStep adds a step to the end of the ledger. It records intent only;
// the datasets are not touched.
func (s *Store) AppendStep(step model.PipelineStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline = append(s.pipeline, step)
}

// RemoveStep removes the first step with the given ID. Unknown IDs are
// ignored.
func (s *Store) RemoveStep(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, step := range s.pipeline {
		if step.ID == id {
			s.pipeline = append(s.pipeline[:i:i], s.pipeline[i+1:]...)
			return
		}
	}
}

// Pipeline returns a copy of the ledger in insertion order
func (s *Store) Pipeline() []model.PipelineStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.ClonePipeline(s.pipeline)
}

// ApplyOperation runs op against the current dataset and records it in
// the ledger. On success the step is applied, the current dataset is
// replaced and the profile refreshed. On failure the step is recorded
// with status error and the datasets are unchanged. The cleaner runs
// without the store lock; if the current dataset is replaced meanwhile
// the result is discarded and ErrDatasetChanged returned.
func (s *Store) ApplyOperation(ctx context.Context, op model.Operation) (model.PipelineStep, error) {
	step := model.NewPipelineStep(op)

	s.mu.Lock()
	current, dataCleaner, profiler := s.current, s.cleaner, s.profiler
	s.mu.Unlock()
	if current == nil {
		return step, ErrNoDataset
	}

	result, err := dataCleaner.Apply(ctx, current, op)
	var profiles []model.ColumnProfile
	if err == nil {
		profiles = profiler.Profile(result.Snapshot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != current {
		return step, ErrDatasetChanged
	}
	if err != nil {
		step = step.WithStatus(model.StepError, err.Error())
		s.pipeline = append(s.pipeline, step)
		return step, err
	}

	step = step.WithStatus(model.StepApplied, result.Description)
	s.pipeline = append(s.pipeline, step)
	s.current = result.Snapshot
	s.profile = profiles
	return step, nil
}

// Replay rebuilds the current dataset by running every ledger step from
// the original. Steps before the first failure are marked applied, the
// failing step is marked error and later steps stay pending. It returns
// the index of the failing step, or -1. Like ApplyOperation it runs
// unlocked and returns ErrDatasetChanged, committing nothing, when the
// original or the ledger changed meanwhile.
func (s *Store) Replay(ctx context.Context) (int, error) {
	s.mu.Lock()
	original, dataCleaner, profiler := s.original, s.cleaner, s.profiler
	snapshot := model.ClonePipeline(s.pipeline)
	s.mu.Unlock()

	if original == nil {
		return -1, ErrNoDataset
	}

	ops := make([]model.Operation, len(snapshot))
	for i, step := range snapshot {
		ops[i] = step.Operation
	}

	final, failed, err := dataCleaner.Replay(ctx, original, ops)
	profiles := profiler.Profile(final)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.original != original || !sameSteps(s.pipeline, snapshot) {
		return -1, ErrDatasetChanged
	}

	for i, step := range s.pipeline {
		switch {
		case failed < 0 || i < failed:
			result := step.Result
			if step.Status != model.StepApplied {
				result = step.Description()
			}
			s.pipeline[i] = step.WithStatus(model.StepApplied, result)
		case i == failed:
			s.pipeline[i] = step.WithStatus(model.StepError, err.Error())
		default:
			s.pipeline[i] = step.WithStatus(model.StepPending, "")
		}
	}

	s.current = final
	s.profile = profiles
	s.logger.Info("Replayed pipeline",
		zap.Int("steps", len(s.pipeline)),
		zap.Int("failed_at", failed))
	return failed, err
}

// sameSteps reports whether two ledgers hold the same step IDs in order
func sameSteps(a, b []model.PipelineStep) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
