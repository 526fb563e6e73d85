// pkg/store/dataset.go
package store

import (
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

// SetOriginal replaces both the original and the current dataset
func (s *Store) SetOriginal(snapshot *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.original = snapshot
	s.current = snapshot
	s.logger.Info("Loaded original dataset",
		zap.Int("rows", snapshot.Len()))
}

// SetCurrent replaces the current dataset; the original is kept
func (s *Store) SetCurrent(snapshot *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snapshot
}

// Original returns the dataset as first loaded. Callers must treat it as
// read-only.
func (s *Store) Original() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.original
}

// Current returns the latest dataset. Callers must treat it as read-only.
func (s *Store) Current() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ResetToOriginal discards every transformation. Ledger steps are kept
// and marked pending since none of them is reflected in the data anymore.
func (s *Store) ResetToOriginal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.original == nil {
		return ErrNoDataset
	}
	s.current = s.original
	for i, step := range s.pipeline {
		s.pipeline[i] = step.WithStatus(model.StepPending, "")
	}
	s.profile = s.profiler.Profile(s.current)
	s.logger.Info("Reset dataset to original", zap.Int("steps", len(s.pipeline)))
	return nil
}

// SetProfile replaces the column profile summary
func (s *Store) SetProfile(profiles []model.ColumnProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = model.CloneProfiles(profiles)
}

// Profile returns a copy of the column profile summary
func (s *Store) Profile() []model.ColumnProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneProfiles(s.profile)
}

// RefreshProfile recomputes the profile from the current dataset
func (s *Store) RefreshProfile() ([]model.ColumnProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoDataset
	}
	s.profile = s.profiler.Profile(s.current)
	return model.CloneProfiles(s.profile), nil
}
