package load

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/arloliu/trako/errs"
	"github.com/arloliu/trako/internal/options"
	"github.com/arloliu/trako/resource"
)

// Option configures a Loader.
type Option = options.Option[*Loader]

// WithLogger sets the structured logger. Off by default; the library stays
// quiet unless given a logger.
func WithLogger(logger *slog.Logger) Option {
	return options.New(func(l *Loader) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		l.logger = logger

		return nil
	})
}

// WithResourceController attaches a memory and worker budget. Defaults to a
// controller with the process-wide default budget.
func WithResourceController(ctrl *resource.Controller) Option {
	return options.New(func(l *Loader) error {
		if ctrl == nil {
			return errors.New("resource controller cannot be nil")
		}
		l.res = ctrl

		return nil
	})
}

// WithWorkers caps the concurrency of each parallel level of the assembly
// engine. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return options.New(func(l *Loader) error {
		if n < 1 {
			return fmt.Errorf("workers must be >= 1, got %d", n)
		}
		l.workers = n

		return nil
	})
}

// Loader loads trajectories from one dataset directory.
//
// Load blocks the caller; LoadAsync runs the same engine on a background
// goroutine and reports through a Handle. The two share a mutual-exclusion
// guard, so a sync load issued while an async one runs waits rather than
// racing.
type Loader struct {
	dir     string
	logger  *slog.Logger
	res     *resource.Controller
	workers int

	// runMu serializes engine runs; mu guards the active handle.
	runMu  sync.Mutex
	mu     sync.Mutex
	active *Handle
}

// NewLoader creates a Loader for the dataset directory.
func NewLoader(dir string, opts ...Option) (*Loader, error) {
	l := &Loader{
		dir:     dir,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers: runtime.GOMAXPROCS(0),
	}
	if err := options.Apply(l, opts...); err != nil {
		return nil, err
	}
	if l.res == nil {
		l.res = resource.NewController(resource.Config{})
	}

	return l, nil
}

// Validate runs the metadata-only pre-flight check for params against the
// loader's memory budget.
func (l *Loader) Validate(params Params) Validation {
	params.Dir = l.dir

	return Validate(params, l.res)
}

// Load loads synchronously and blocks until the result is ready or ctx is
// cancelled.
func (l *Loader) Load(ctx context.Context, params Params) (*Result, error) {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	return l.run(ctx, params, nil)
}

// LoadAsync starts a background load and returns immediately. Only one async
// load per Loader may be in flight; a second call fails fast with
// errs.ErrLoadInFlight instead of queueing.
func (l *Loader) LoadAsync(ctx context.Context, params Params) (*Handle, error) {
	l.mu.Lock()
	if l.active != nil && !l.active.finished() {
		l.mu.Unlock()

		return nil, errs.ErrLoadInFlight
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{done: make(chan struct{}), cancel: cancel}
	l.active = h
	l.mu.Unlock()

	go func() {
		defer cancel()

		if err := l.res.AcquireBackground(runCtx); err != nil {
			h.complete(nil, cancelError(err))

			return
		}
		defer l.res.ReleaseBackground()

		l.runMu.Lock()
		defer l.runMu.Unlock()

		res, err := l.run(runCtx, params, &h.progress)
		h.complete(res, cancelError(err))
	}()

	return h, nil
}

// CancelAsyncLoad requests cancellation of the in-flight async load, if any.
// Cancellation is cooperative; the handle completes with errs.ErrLoadCancelled
// once the engine observes it.
func (l *Loader) CancelAsyncLoad() {
	l.mu.Lock()
	h := l.active
	l.mu.Unlock()

	if h != nil {
		h.cancel()
	}
}

// run resolves params and executes the assembly engine. Callers hold runMu.
func (l *Loader) run(ctx context.Context, params Params, prog *progress) (*Result, error) {
	params.Dir = l.dir

	p, err := buildPlan(params)
	if err != nil {
		return nil, err
	}

	if remaining := l.res.Remaining(); p.estimatedBytes() > remaining {
		return nil, fmt.Errorf("%w: need %d bytes, %d available",
			errs.ErrBudgetExceeded, p.estimatedBytes(), remaining)
	}

	trajectories, err := l.assemble(ctx, p, prog)
	if err != nil {
		return nil, err
	}

	result := &Result{Trajectories: trajectories}
	for _, t := range trajectories {
		result.TotalBytes += t.MemoryBytes()
	}

	l.logger.Info("load complete",
		"dir", l.dir,
		"trajectories", len(trajectories),
		"window_start", p.start,
		"window_end", p.end,
		"stride", p.stride,
		"bytes", result.TotalBytes)

	return result, nil
}

// cancelError maps context cancellation onto the dedicated sentinel so
// callers can tell a cancelled load from a failed one.
func cancelError(err error) error {
	if errors.Is(err, context.Canceled) {
		return errs.ErrLoadCancelled
	}

	return err
}

// progress counts processed shards for an in-flight load.
type progress struct {
	shardsDone  atomic.Int64
	shardsTotal atomic.Int64
}

// Handle tracks one async load. It completes exactly once, with either a
// result or an error, never both.
type Handle struct {
	progress

	done   chan struct{}
	cancel context.CancelFunc

	once   sync.Once
	result *Result
	err    error
}

// Done returns a channel closed when the load completes.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result blocks until the load completes and returns its outcome.
func (h *Handle) Result() (*Result, error) {
	<-h.done

	return h.result, h.err
}

// Progress reports the fraction of relevant shards processed, in [0, 1].
// It is 0 until shard discovery finishes.
func (h *Handle) Progress() float64 {
	total := h.shardsTotal.Load()
	if total == 0 {
		return 0
	}

	return float64(h.shardsDone.Load()) / float64(total)
}

// Cancel requests cooperative cancellation of this load.
func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Handle) complete(res *Result, err error) {
	h.once.Do(func() {
		if err != nil {
			res = nil
		}
		h.result = res
		h.err = err
		close(h.done)
	})
}
