// pkg/store/archive.go
package store

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

// SaveSession archives a deep copy of the ledger and profile under a fresh
// ID. The dataset itself is not archived.
func (s *Store) SaveSession(name string) model.ArchiveEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	entry := model.ArchiveEntry{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Pipeline:  model.ClonePipeline(s.pipeline),
		Profile:   model.CloneProfiles(s.profile),
	}
	s.sessions = append(s.sessions, entry)
	s.currentSession = entry.ID

	s.logger.Info("Saved session",
		zap.String("id", entry.ID),
		zap.String("name", name),
		zap.Int("steps", len(entry.Pipeline)))
	s.autoSaveLocked()
	return entry.Clone()
}

// LoadSession replaces the live ledger and profile with copies of an
// archived entry. It returns false, changing nothing, for unknown IDs.
func (s *Store) LoadSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.sessions {
		if entry.ID != id {
			continue
		}
		restored := entry.Clone()
		s.pipeline = restored.Pipeline
		if s.pipeline == nil {
			s.pipeline = make([]model.PipelineStep, 0)
		}
		s.profile = restored.Profile
		if s.profile == nil {
			s.profile = make([]model.ColumnProfile, 0)
		}
		s.currentSession = id

		s.logger.Info("Loaded session",
			zap.String("id", id),
			zap.String("name", entry.Name))
		return true
	}
	return false
}

// Sessions returns copies of the archive entries in save order
func (s *Store) Sessions() []model.ArchiveEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ArchiveEntry, len(s.sessions))
	for i, entry := range s.sessions {
		out[i] = entry.Clone()
	}
	return out
}

// CurrentSession returns the ID of the last saved or loaded entry, or ""
func (s *Store) CurrentSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSession
}
