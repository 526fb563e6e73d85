// pkg/store/auth.go
package store

import (
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

// Demo credentials accepted by Authenticate
const (
	DemoUser   = "demo@app.com"
	DemoSecret = "123456"
)

// Authenticate signs in with the demo credentials. Any other pair returns
// false and leaves the state untouched.
func (s *Store) Authenticate(identifier, secret string) bool {
	if identifier != DemoUser || secret != DemoSecret {
		s.logger.Info("Rejected sign-in", zap.String("user", identifier))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = true
	s.user = identifier
	s.logger.Info("Signed in", zap.String("user", identifier))
	s.autoSaveLocked()
	return true
}

// EndSession signs out and clears the datasets, profile and ledger. The
// archive and dark mode survive; the view returns to upload.
func (s *Store) EndSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	s.user = ""
	s.original = nil
	s.current = nil
	s.profile = make([]model.ColumnProfile, 0)
	s.pipeline = make([]model.PipelineStep, 0)
	s.currentSession = ""
	s.activeView = model.DefaultView

	s.logger.Info("Signed out")
	s.autoSaveLocked()
}

// IsAuthenticated reports whether a user is signed in
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// User returns the signed-in identifier and whether one is set
func (s *Store) User() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.authenticated
}
