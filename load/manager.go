package load

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/arloliu/trako/internal/hash"
	"github.com/arloliu/trako/internal/options"
	"github.com/arloliu/trako/resource"
)

// LoadedDataset is one dataset's assembled trajectories held by a Manager.
type LoadedDataset struct {
	// ID is derived from the dataset directory path and keys the manager's
	// registry.
	ID  uint64
	Dir string

	Trajectories []*LoadedTrajectory

	// MemoryBytes is the footprint charged against the resource controller
	// while the dataset stays loaded.
	MemoryBytes int64
}

// ManagerOption configures a Manager.
type ManagerOption = options.Option[*Manager]

// WithManagerLogger sets the structured logger. Off by default.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return options.New(func(m *Manager) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		m.logger = logger

		return nil
	})
}

// WithManagerResources attaches the memory and worker budget shared by all
// loads the manager runs.
func WithManagerResources(ctrl *resource.Controller) ManagerOption {
	return options.New(func(m *Manager) error {
		if ctrl == nil {
			return errors.New("resource controller cannot be nil")
		}
		m.res = ctrl

		return nil
	})
}

// Manager owns the loaded-dataset collection. Loads run through per-dataset
// Loaders sharing the manager's resource controller; successful results are
// registered and their actual footprint charged against the memory budget
// until unloaded.
//
// The registry is guarded by a single coarse lock. Mutations are replace,
// remove, and clear; lookups copy nothing and must not mutate the returned
// datasets.
type Manager struct {
	logger *slog.Logger
	res    *resource.Controller

	mu       sync.Mutex
	datasets map[uint64]*LoadedDataset
}

// NewManager creates an empty Manager.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		datasets: make(map[uint64]*LoadedDataset),
	}
	if err := options.Apply(m, opts...); err != nil {
		return nil, err
	}
	if m.res == nil {
		m.res = resource.NewController(resource.Config{})
	}

	return m, nil
}

// Resources returns the controller shared by the manager's loads.
func (m *Manager) Resources() *resource.Controller {
	return m.res
}

// Validate runs the metadata-only pre-flight check for params against the
// manager's remaining budget.
func (m *Manager) Validate(params Params) Validation {
	return Validate(params, m.res)
}

// Load loads params.Dir synchronously and registers the result, replacing
// any dataset previously loaded from the same directory.
func (m *Manager) Load(ctx context.Context, params Params) (*LoadedDataset, error) {
	loader, err := NewLoader(params.Dir,
		WithLogger(m.logger), WithResourceController(m.res))
	if err != nil {
		return nil, err
	}

	result, err := loader.Load(ctx, params)
	if err != nil {
		return nil, err
	}

	return m.register(params.Dir, result)
}

// register charges the result's footprint against the budget and stores it,
// releasing any dataset it replaces.
func (m *Manager) register(dir string, result *Result) (*LoadedDataset, error) {
	if err := m.res.AcquireMemory(result.TotalBytes); err != nil {
		return nil, fmt.Errorf("registering %s: %w", dir, err)
	}

	ds := &LoadedDataset{
		ID:           hash.ID(dir),
		Dir:          dir,
		Trajectories: result.Trajectories,
		MemoryBytes:  result.TotalBytes,
	}

	m.mu.Lock()
	prev := m.datasets[ds.ID]
	m.datasets[ds.ID] = ds
	m.mu.Unlock()

	if prev != nil {
		m.res.ReleaseMemory(prev.MemoryBytes)
	}

	m.logger.Info("dataset registered",
		"dir", dir, "trajectories", len(ds.Trajectories), "bytes", ds.MemoryBytes)

	return ds, nil
}

// Dataset returns the loaded dataset for the directory, or nil.
func (m *Manager) Dataset(dir string) *LoadedDataset {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.datasets[hash.ID(dir)]
}

// Datasets returns all loaded datasets in unspecified order.
func (m *Manager) Datasets() []*LoadedDataset {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*LoadedDataset, 0, len(m.datasets))
	for _, ds := range m.datasets {
		out = append(out, ds)
	}

	return out
}

// Unload removes the dataset loaded from the directory and releases its
// memory charge. It reports whether a dataset was removed.
func (m *Manager) Unload(dir string) bool {
	id := hash.ID(dir)

	m.mu.Lock()
	ds, ok := m.datasets[id]
	delete(m.datasets, id)
	m.mu.Unlock()

	if ok {
		m.res.ReleaseMemory(ds.MemoryBytes)
	}

	return ok
}

// UnloadAll removes every loaded dataset and releases their memory charges.
func (m *Manager) UnloadAll() {
	m.mu.Lock()
	datasets := m.datasets
	m.datasets = make(map[uint64]*LoadedDataset)
	m.mu.Unlock()

	for _, ds := range datasets {
		m.res.ReleaseMemory(ds.MemoryBytes)
	}
}

// MemoryBytes returns the summed footprint of all loaded datasets.
func (m *Manager) MemoryBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total int64
	for _, ds := range m.datasets {
		total += ds.MemoryBytes
	}

	return total
}
