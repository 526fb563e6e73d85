// pkg/store/view.go
package store

import (
	"fmt"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

// SetActiveView switches views. Tags outside the enumeration are rejected
// and leave the state unchanged.
func (s *Store) SetActiveView(view model.View) error {
	if !view.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidView, view)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeView = view
	return nil
}

// ActiveView returns the active view
func (s *Store) ActiveView() model.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeView
}

// ToggleDarkMode flips the display mode and returns the new value
func (s *Store) ToggleDarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.darkMode = !s.darkMode
	s.autoSaveLocked()
	return s.darkMode
}

// DarkMode reports whether dark mode is on
func (s *Store) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.darkMode
}
