// pkg/store/persist.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

// StateKey names the persisted blob
const StateKey = "data-cleaning-storage"

const autoSaveTimeout = 5 * time.Second

// PersistedState is everything that survives a restart. Datasets, the live
// ledger and the view selection are not persisted.
type PersistedState struct {
	Sessions        []model.ArchiveEntry `json:"sessions"`
	IsDarkMode      bool                 `json:"isDarkMode"`
	IsAuthenticated bool                 `json:"isAuthenticated"`
	CurrentUser     *string              `json:"currentUser"`
}

// EncodeState serializes persisted state. Non-finite profile statistics
// are zeroed so one archived entry cannot block the whole blob.
func EncodeState(state PersistedState) ([]byte, error) {
	sessions := make([]model.ArchiveEntry, len(state.Sessions))
	for i, entry := range state.Sessions {
		entry = entry.Clone()
		for j, p := range entry.Profile {
			entry.Profile[j] = p.Sanitized()
		}
		sessions[i] = entry
	}
	state.Sessions = sessions

	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// DecodeState parses persisted state. The session invariant is enforced:
// a user is only kept when the authenticated flag is set, and the flag is
// dropped without a user.
func DecodeState(data []byte) (PersistedState, error) {
	var state PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return PersistedState{}, fmt.Errorf("failed to decode state: %w", err)
	}
	if state.Sessions == nil {
		state.Sessions = make([]model.ArchiveEntry, 0)
	}
	if !state.IsAuthenticated || state.CurrentUser == nil || *state.CurrentUser == "" {
		state.IsAuthenticated = false
		state.CurrentUser = nil
	}
	return state, nil
}

// State returns the persisted part of the store
func (s *Store) State() PersistedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistedStateLocked()
}

func (s *Store) persistedStateLocked() PersistedState {
	sessions := make([]model.ArchiveEntry, len(s.sessions))
	for i, entry := range s.sessions {
		sessions[i] = entry.Clone()
	}
	state := PersistedState{
		Sessions:        sessions,
		IsDarkMode:      s.darkMode,
		IsAuthenticated: s.authenticated,
	}
	if s.authenticated {
		user := s.user
		state.CurrentUser = &user
	}
	return state
}

// ApplyState replaces the persisted part of the store
func (s *Store) ApplyState(state PersistedState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make([]model.ArchiveEntry, len(state.Sessions))
	for i, entry := range state.Sessions {
		s.sessions[i] = entry.Clone()
	}
	s.darkMode = state.IsDarkMode
	s.authenticated = state.IsAuthenticated && state.CurrentUser != nil && *state.CurrentUser != ""
	s.user = ""
	if s.authenticated {
		s.user = *state.CurrentUser
	}
}

// Save writes the persisted state to the backend
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	if s.backend == nil {
		return errors.New("no persistence backend configured")
	}
	data, err := EncodeState(s.persistedStateLocked())
	if err != nil {
		return err
	}
	if err := s.backend.Save(ctx, StateKey, data); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Restore loads the persisted state from the backend. A missing blob
// leaves the store in its initial state.
func (s *Store) Restore(ctx context.Context) error {
	if s.backend == nil {
		return errors.New("no persistence backend configured")
	}

	data, found, err := s.backend.Load(ctx, StateKey)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if !found {
		s.logger.Debug("No persisted state found")
		return nil
	}

	state, err := DecodeState(data)
	if err != nil {
		return err
	}
	s.ApplyState(state)

	s.logger.Info("Restored state",
		zap.Int("sessions", len(state.Sessions)),
		zap.Bool("authenticated", state.IsAuthenticated))
	return nil
}

// autoSaveLocked writes state through when auto-save is on. Failures are
// logged and never reach the caller.
func (s *Store) autoSaveLocked() {
	if !s.autoSave {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), autoSaveTimeout)
	defer cancel()

	if err := s.saveLocked(ctx); err != nil {
		s.logger.Warn("Failed to persist state", zap.Error(err))
	}
}
