// pkg/ingest/loader.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

// DefaultMaxBytes is the upload limit used when none is configured
const DefaultMaxBytes int64 = 50 << 20

// ProgressFunc receives load progress in percent (0-100)
type ProgressFunc func(percent int)

// CompletionFunc receives the outcome of an asynchronous load
type CompletionFunc func(snapshot *model.Snapshot, err error)

// Loader reads data files into snapshots. Only the most recent load started
// with Start may deliver a result.
type Loader struct {
	maxBytes int64
	logger   *zap.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewLoader creates a loader with the given size limit in bytes
func NewLoader(maxBytes int64, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Loader{
		maxBytes: maxBytes,
		logger:   logger.Named("ingest"),
	}
}

// Load reads and decodes a file synchronously. Failures are *Error values;
// progress is reset to 0 on failure.
func (l *Loader) Load(ctx context.Context, path string, progress ProgressFunc) (*model.Snapshot, error) {
	if progress == nil {
		progress = func(int) {}
	}
	name := filepath.Base(path)

	snapshot, err := l.load(ctx, path, progress)
	if err != nil {
		progress(0)
		var ingestErr *Error
		if !errors.As(err, &ingestErr) {
			ingestErr = newError(categorize(err), name, err)
		}
		l.logger.Warn("Failed to load file",
			zap.String("file", name),
			zap.String("category", ingestErr.Category.String()),
			zap.Error(err))
		return nil, ingestErr
	}

	progress(100)
	l.logger.Info("Loaded file",
		zap.String("file", name),
		zap.Int("rows", snapshot.Len()),
		zap.Int("columns", len(snapshot.Columns)))
	return snapshot, nil
}

func (l *Loader) load(ctx context.Context, path string, progress ProgressFunc) (*model.Snapshot, error) {
	name := filepath.Base(path)

	decoder, err := DecoderFor(name)
	if err != nil {
		return nil, newError(ErrorCategoryFormat, name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, newError(ErrorCategoryRead, name, err)
	}
	if info.Size() > l.maxBytes {
		e := newError(ErrorCategorySize, name,
			fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, info.Size(), l.maxBytes))
		e.Display = fmt.Sprintf("File is too large (%.1f MB). The limit is %d MB.",
			float64(info.Size())/(1<<20), l.maxBytes>>20)
		return nil, e
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, newError(ErrorCategoryRead, name, err)
	}
	defer f.Close()

	progress(0)
	reader := &progressReader{ctx: ctx, r: f, total: info.Size(), report: progress}
	snapshot, err := decoder.Decode(reader)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newError(ErrorCategoryCancelled, name, ctxErr)
		}
		if reader.readErr != nil {
			return nil, newError(ErrorCategoryRead, name, reader.readErr)
		}
		return nil, newError(ErrorCategoryDecode, name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(ErrorCategoryCancelled, name, err)
	}
	return snapshot, nil
}

// Start loads a file in the background and hands the outcome to done.
// Starting a new load cancels the previous one; a cancelled or superseded
// load never calls done. The returned channel closes when the background
// work has finished, whether or not it delivered.
func (l *Loader) Start(ctx context.Context, path string, progress ProgressFunc, done CompletionFunc) <-chan struct{} {
	ctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.generation++
	gen := l.generation
	l.cancel = cancel
	l.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer cancel()

		snapshot, err := l.Load(ctx, path, l.guard(gen, progress))

		l.mu.Lock()
		stale := ctx.Err() != nil || gen != l.generation
		if !stale {
			l.cancel = nil
		}
		l.mu.Unlock()

		if stale {
			l.logger.Debug("Dropped stale load result",
				zap.String("file", filepath.Base(path)),
				zap.Uint64("generation", gen))
			return
		}
		// done runs unlocked so it may start or cancel loads itself
		if done != nil {
			done(snapshot, err)
		}
	}()
	return finished
}

// Cancel abandons the in-flight load, if any
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
		l.generation++
	}
}

// guard suppresses progress reports from superseded loads
func (l *Loader) guard(gen uint64, progress ProgressFunc) ProgressFunc {
	if progress == nil {
		return nil
	}
	return func(percent int) {
		l.mu.Lock()
		current := gen == l.generation
		l.mu.Unlock()
		if current {
			progress(percent)
		}
	}
}

// progressReader reports read progress and stops on cancellation.
// Reading covers 0-90%; decoding the last stretch is reported by Load.
type progressReader struct {
	ctx     context.Context
	r       io.Reader
	total   int64
	read    int64
	last    int
	report  ProgressFunc
	readErr error
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	p.read += int64(n)
	if err != nil && err != io.EOF {
		p.readErr = err
	}
	if p.total > 0 {
		percent := int(p.read * 90 / p.total)
		if percent > p.last {
			p.last = percent
			p.report(percent)
		}
	}
	return n, err
}
