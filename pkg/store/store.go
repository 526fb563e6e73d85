// pkg/store/store.go
package store

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/cleaner"
	"github.com/David-Botos/data-cleaner/pkg/model"
	"github.com/David-Botos/data-cleaner/pkg/persist"
	"github.com/David-Botos/data-cleaner/pkg/profile"
)

var (
	// ErrNoDataset is returned when an operation needs a loaded dataset
	ErrNoDataset = errors.New("no dataset loaded")
	// ErrInvalidView is returned for view tags outside the enumeration
	ErrInvalidView = errors.New("invalid view")
	// ErrDatasetChanged is returned when the dataset or ledger was replaced
	// while an operation was running
	ErrDatasetChanged = errors.New("dataset changed while the operation ran")
)

// Store owns the workbench state: session, datasets, pipeline ledger, view
// selection and the session archive. All methods are safe for concurrent
// use; mutations happen only through named methods.
type Store struct {
	mu sync.Mutex

	// Session
	authenticated bool
	user          string

	// Datasets. Snapshots are never mutated once stored.
	original *model.Snapshot
	current  *model.Snapshot
	profile  []model.ColumnProfile

	// Ledger
	pipeline []model.PipelineStep

	// View state
	activeView model.View
	darkMode   bool

	// Archive
	sessions       []model.ArchiveEntry
	currentSession string

	cleaner  *cleaner.DataCleaner
	profiler *profile.Profiler
	backend  persist.Backend
	autoSave bool
	logger   *zap.Logger
}

// New creates a store in its initial state: signed out, no data, empty
// ledger, upload view, light mode
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("store")
	return &Store{
		activeView: model.DefaultView,
		pipeline:   make([]model.PipelineStep, 0),
		profile:    make([]model.ColumnProfile, 0),
		sessions:   make([]model.ArchiveEntry, 0),
		cleaner:    cleaner.NewDataCleaner(nil, nil, logger),
		profiler:   profile.NewProfiler(logger, profile.DefaultOutlierK),
		logger:     logger,
	}
}

// WithCleaner sets the transformation engine used by ApplyOperation
func (s *Store) WithCleaner(c *cleaner.DataCleaner) *Store {
	if c != nil {
		s.cleaner = c
	}
	return s
}

// WithProfiler sets the profiler used by RefreshProfile
func (s *Store) WithProfiler(p *profile.Profiler) *Store {
	if p != nil {
		s.profiler = p
	}
	return s
}

// WithBackend sets the persistence backend. With autoSave, every change to
// persisted state is written through immediately.
func (s *Store) WithBackend(b persist.Backend, autoSave bool) *Store {
	s.backend = b
	s.autoSave = autoSave && b != nil
	return s
}

// Status is a point-in-time summary of the store
type Status struct {
	Authenticated bool
	User          string
	ActiveView    model.View
	DarkMode      bool
	Rows          int
	Columns       int
	Steps         int
	Sessions      int
	CurrentSaved  string
}

// Status returns a summary for display
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Authenticated: s.authenticated,
		User:          s.user,
		ActiveView:    s.activeView,
		DarkMode:      s.darkMode,
		Rows:          s.current.Len(),
		Steps:         len(s.pipeline),
		Sessions:      len(s.sessions),
		CurrentSaved:  s.currentSession,
	}
	if s.current != nil {
		st.Columns = len(s.current.Columns)
	}
	return st
}
