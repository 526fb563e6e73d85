// pkg/shell/commands.go
package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/ingest"
	"github.com/David-Botos/data-cleaner/pkg/model"
)

const defaultShowRows = 10

func (s *Shell) registerCommands() {
	s.register(&command{name: "help", usage: "help", help: "List commands", public: true, run: s.cmdHelp})
	s.register(&command{name: "login", usage: "login <user> <secret>", help: "Sign in", public: true, run: s.cmdLogin})
	s.register(&command{name: "logout", usage: "logout", help: "Sign out and clear the workspace", run: s.cmdLogout})
	s.register(&command{name: "upload", usage: "upload <path>", help: "Load a CSV or Excel file", run: s.cmdUpload})
	s.register(&command{name: "import", usage: "import <source> <schema> <table> [limit]", help: "Load a database table", run: s.cmdImport})
	s.register(&command{name: "show", usage: "show [rows]", help: "Print the current dataset", run: s.cmdShow})
	s.register(&command{name: "profile", usage: "profile", help: "Recompute and print the column profile", run: s.cmdProfile})
	s.register(&command{name: "apply", usage: "apply <operation> [args]; see 'help apply'", help: "Apply a cleaning operation", run: s.cmdApply})
	s.register(&command{name: "steps", usage: "steps", help: "List pipeline steps", run: s.cmdSteps})
	s.register(&command{name: "remove", usage: "remove <step-id>", help: "Remove a pipeline step", run: s.cmdRemove})
	s.register(&command{name: "reset", usage: "reset", help: "Restore the original dataset", run: s.cmdReset})
	s.register(&command{name: "replay", usage: "replay", help: "Re-run the pipeline from the original dataset", run: s.cmdReplay})
	s.register(&command{name: "save", usage: "save <name>", help: "Archive the pipeline and profile", run: s.cmdSave})
	s.register(&command{name: "load", usage: "load <session-id>", help: "Restore an archived pipeline", run: s.cmdLoad})
	s.register(&command{name: "sessions", usage: "sessions", help: "List archived sessions", public: true, run: s.cmdSessions})
	s.register(&command{name: "view", usage: "view [upload|clean|analyze|pipeline|export]", help: "Show or switch the active view", run: s.cmdView})
	s.register(&command{name: "theme", usage: "theme", help: "Toggle dark mode", public: true, run: s.cmdTheme})
	s.register(&command{name: "status", usage: "status", help: "Summarize the workspace", public: true, run: s.cmdStatus})
	s.register(&command{name: "report", usage: "report", help: "Print cleaning metrics", run: s.cmdReport})
}

func (s *Shell) cmdHelp(_ context.Context, args []string) error {
	if len(args) > 0 && strings.EqualFold(args[0], "apply") {
		s.println(applyHelp)
		return nil
	}
	s.println("Commands:")
	for _, name := range s.order {
		cmd := s.commands[name]
		s.printf("  %-45s %s\n", cmd.usage, cmd.help)
	}
	s.printf("  %-45s %s\n", "quit", "Leave the shell")
	return nil
}

func (s *Shell) cmdLogin(_ context.Context, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	if !s.store.Authenticate(args[0], args[1]) {
		return errors.New("invalid credentials")
	}
	s.printf("Signed in as %s\n", args[0])
	return nil
}

func (s *Shell) cmdLogout(_ context.Context, _ []string) error {
	s.loader.Cancel()
	s.store.EndSession()
	s.println("Signed out")
	return nil
}

func (s *Shell) cmdUpload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	path := args[0]

	var (
		delivered bool
		loaded    *model.Snapshot
		loadErr   error
		bucket    = -1
	)
	progress := func(percent int) {
		if percent == 100 || percent/25 > bucket {
			bucket = percent / 25
			s.printf("Loading %s: %d%%\n", path, percent)
		}
	}
	done := func(snapshot *model.Snapshot, err error) {
		delivered = true
		loaded, loadErr = snapshot, err
	}

	finished := s.loader.Start(ctx, path, progress, done)
	select {
	case <-finished:
	case <-ctx.Done():
		s.loader.Cancel()
		<-finished
	}

	if !delivered {
		return errors.New("upload cancelled")
	}
	if loadErr != nil {
		var ingestErr *ingest.Error
		if errors.As(loadErr, &ingestErr) {
			return errors.New(ingestErr.Display)
		}
		return loadErr
	}
	return s.adoptDataset(loaded, path)
}

func (s *Shell) cmdImport(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return ErrUsage
	}
	if s.sources == nil {
		return errors.New("no database sources are configured")
	}
	limit := 0
	if len(args) == 4 {
		n, err := strconv.Atoi(args[3])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid limit %q", args[3])
		}
		limit = n
	}

	conn, err := s.sources.Create(ctx, args[0])
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Warn("Failed to close connector", zap.String("source", conn.Name()), zap.Error(err))
		}
	}()

	snapshot, err := conn.LoadTable(ctx, args[1], args[2], limit)
	if err != nil {
		return fmt.Errorf("failed to import %s.%s: %w", args[1], args[2], err)
	}
	return s.adoptDataset(snapshot, fmt.Sprintf("%s:%s.%s", conn.Name(), args[1], args[2]))
}

// adoptDataset makes snapshot the original dataset and moves to cleaning
func (s *Shell) adoptDataset(snapshot *model.Snapshot, label string) error {
	s.store.SetOriginal(snapshot)
	if _, err := s.store.RefreshProfile(); err != nil {
		return err
	}
	s.printf("Loaded %s: %d rows, %d columns\n", label, snapshot.Len(), len(snapshot.Columns))
	if err := s.store.SetActiveView(model.ViewClean); err != nil {
		return err
	}
	s.renderView()
	return nil
}

func (s *Shell) cmdShow(_ context.Context, args []string) error {
	n := defaultShowRows
	if len(args) > 1 {
		return ErrUsage
	}
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return fmt.Errorf("invalid row count %q", args[0])
		}
		n = v
	}
	current := s.store.Current()
	if current == nil {
		return errNoData
	}
	s.renderRows(current, n)
	return nil
}

func (s *Shell) cmdProfile(_ context.Context, _ []string) error {
	profiles, err := s.store.RefreshProfile()
	if err != nil {
		return errNoData
	}
	s.renderProfile(profiles)
	return nil
}

func (s *Shell) cmdApply(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	op, err := parseOperation(args)
	if err != nil {
		return err
	}
	if s.store.Current() == nil {
		return errNoData
	}

	step, err := s.store.ApplyOperation(ctx, op)
	if err != nil {
		return fmt.Errorf("step %s failed: %w", shortID(step.ID), err)
	}
	s.printf("Applied %s: %s\n", shortID(step.ID), step.Result)
	return nil
}

func (s *Shell) cmdSteps(_ context.Context, _ []string) error {
	s.renderPipeline(s.store.Pipeline())
	return nil
}

func (s *Shell) cmdRemove(_ context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	pipeline := s.store.Pipeline()
	ids := make([]string, len(pipeline))
	for i, step := range pipeline {
		ids[i] = step.ID
	}
	id := resolveID(args[0], ids)

	s.store.RemoveStep(id)
	if len(s.store.Pipeline()) < len(pipeline) {
		s.printf("Removed step %s\n", shortID(id))
	} else {
		s.printf("No step %s\n", args[0])
	}
	return nil
}

func (s *Shell) cmdReset(_ context.Context, _ []string) error {
	if err := s.store.ResetToOriginal(); err != nil {
		return errNoData
	}
	s.println("Reset to the original dataset")
	return nil
}

func (s *Shell) cmdReplay(ctx context.Context, _ []string) error {
	failed, err := s.store.Replay(ctx)
	if err != nil {
		if failed < 0 {
			return errNoData
		}
		return fmt.Errorf("replay stopped at step %d: %w", failed+1, err)
	}
	s.printf("Replayed %d steps\n", len(s.store.Pipeline()))
	return nil
}

func (s *Shell) cmdSave(_ context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	entry := s.store.SaveSession(strings.Join(args, " "))
	s.printf("Saved session %q as %s\n", entry.Name, entry.ID)
	return nil
}

func (s *Shell) cmdLoad(_ context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	sessions := s.store.Sessions()
	ids := make([]string, len(sessions))
	for i, entry := range sessions {
		ids[i] = entry.ID
	}
	id := resolveID(args[0], ids)

	if !s.store.LoadSession(id) {
		return fmt.Errorf("no saved session %q", args[0])
	}
	s.printf("Loaded session %s with %d steps\n", shortID(id), len(s.store.Pipeline()))
	return nil
}

func (s *Shell) cmdSessions(_ context.Context, _ []string) error {
	s.renderSessions(s.store.Sessions(), s.store.CurrentSession())
	return nil
}

func (s *Shell) cmdView(_ context.Context, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	if len(args) == 1 {
		next := model.View(strings.ToLower(args[0]))
		if s.store.ActiveView() == model.ViewUpload && next != model.ViewUpload {
			// Leaving upload abandons any load still in flight
			s.loader.Cancel()
		}
		if err := s.store.SetActiveView(next); err != nil {
			return err
		}
	}
	s.renderView()
	return nil
}

func (s *Shell) cmdTheme(_ context.Context, _ []string) error {
	if s.store.ToggleDarkMode() {
		s.println("Dark mode on")
	} else {
		s.println("Dark mode off")
	}
	return nil
}

func (s *Shell) cmdStatus(_ context.Context, _ []string) error {
	s.renderStatus(s.store.Status())
	return nil
}

func (s *Shell) cmdReport(_ context.Context, _ []string) error {
	if s.metrics == nil {
		return errors.New("metrics are not enabled")
	}
	s.println(s.metrics.GenerateReport())
	return nil
}

var errNoData = errors.New("no dataset loaded; use: upload <path>")

// resolveID expands a unique prefix to a full identifier. Anything else is
// returned unchanged.
func resolveID(prefix string, ids []string) string {
	match := ""
	for _, id := range ids {
		if id == prefix {
			return id
		}
		if strings.HasPrefix(id, prefix) {
			if match != "" && match != id {
				return prefix
			}
			match = id
		}
	}
	if match == "" {
		return prefix
	}
	return match
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
