// pkg/shell/shell.go
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/cleaner"
	"github.com/David-Botos/data-cleaner/pkg/connector"
	"github.com/David-Botos/data-cleaner/pkg/ingest"
	"github.com/David-Botos/data-cleaner/pkg/store"
)

// ErrNotAuthenticated is returned for commands that need a signed-in user
var ErrNotAuthenticated = errors.New("not signed in; use: login <user> <secret>")

// ErrUsage is returned when a command is called with the wrong arguments
var ErrUsage = errors.New("usage")

// handler runs one command with its arguments
type handler func(ctx context.Context, args []string) error

type command struct {
	name   string
	usage  string
	help   string
	public bool // Allowed without signing in
	run    handler
}

// Shell reads commands line by line and turns them into store calls. It is
// the view layer of the workbench: every command reads or mutates state
// only through the store's named methods.
type Shell struct {
	store   *store.Store
	loader  *ingest.Loader
	sources *connector.ConnectorFactory
	metrics *cleaner.Metrics
	logger  *zap.Logger

	outMu sync.Mutex
	out   io.Writer

	commands map[string]*command
	order    []string
}

// New creates a shell over the given store
func New(st *store.Store, loader *ingest.Loader, out io.Writer, logger *zap.Logger) *Shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = ingest.NewLoader(ingest.DefaultMaxBytes, logger)
	}
	s := &Shell{
		store:  st,
		loader: loader,
		out:    out,
		logger: logger.Named("shell"),
	}
	s.registerCommands()
	return s
}

// WithSources enables the import command
func (s *Shell) WithSources(f *connector.ConnectorFactory) *Shell {
	s.sources = f
	return s
}

// WithMetrics enables the report command
func (s *Shell) WithMetrics(m *cleaner.Metrics) *Shell {
	s.metrics = m
	return s
}

func (s *Shell) register(cmd *command) {
	if s.commands == nil {
		s.commands = make(map[string]*command)
	}
	s.commands[cmd.name] = cmd
	s.order = append(s.order, cmd.name)
}

func (s *Shell) printf(format string, args ...interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(args ...interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.out, args...)
}

// Run reads commands from in until quit, end of input or ctx is done.
// Command errors are printed and never stop the loop.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	s.println("Data cleaning workbench. Type 'help' for commands.")
	for {
		s.printf("%s> ", s.prompt())
		if !scanner.Scan() {
			s.println()
			break
		}
		if ctx.Err() != nil {
			break
		}

		quit, err := s.Execute(ctx, scanner.Text())
		if err != nil {
			s.printf("Error: %v\n", err)
		}
		if quit {
			break
		}
	}

	s.loader.Cancel()
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (s *Shell) prompt() string {
	if user, ok := s.store.User(); ok {
		return fmt.Sprintf("%s [%s]", user, s.store.ActiveView())
	}
	return "guest"
}

// Execute runs a single command line and reports whether the shell should
// exit
func (s *Shell) Execute(ctx context.Context, line string) (bool, error) {
	args, err := splitArgs(line)
	if err != nil {
		return false, err
	}
	return s.ExecuteArgs(ctx, args)
}

// ExecuteArgs runs a command given as already split words, so arguments
// reach the command exactly as passed
func (s *Shell) ExecuteArgs(ctx context.Context, args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}

	name := strings.ToLower(args[0])
	if name == "quit" || name == "exit" {
		return true, nil
	}

	cmd, ok := s.commands[name]
	if !ok {
		return false, fmt.Errorf("unknown command %q; type 'help' for commands", args[0])
	}
	if !cmd.public && !s.store.IsAuthenticated() {
		return false, ErrNotAuthenticated
	}

	s.logger.Debug("Running command", zap.String("command", name), zap.Int("args", len(args)-1))
	if err := cmd.run(ctx, args[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			return false, fmt.Errorf("usage: %s", cmd.usage)
		}
		return false, err
	}
	return false, nil
}

// splitArgs splits a command line on whitespace. Double-quoted sections
// are kept together so column names may contain spaces.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inQuote bool
		hasArg  bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasArg = true
		case !inQuote && (r == ' ' || r == '\t'):
			if hasArg {
				args = append(args, current.String())
				current.Reset()
				hasArg = false
			}
		default:
			current.WriteRune(r)
			hasArg = true
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if hasArg {
		args = append(args, current.String())
	}
	return args, nil
}
