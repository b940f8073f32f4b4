package core

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultLoadTimeout bounds a single load when Options.LoadTimeout is zero.
const DefaultLoadTimeout = 2 * time.Minute

// Options configures a Service. Zero values select defaults.
type Options struct {
	Limiter     *LoadLimiter
	Metrics     MetricsRecorder
	Logger      *slog.Logger
	LoadTimeout time.Duration
}

// Service shares one Dataset between goroutines.
//
// Every access goes through a single mutex, so the Dataset keeps its
// single-owner contract: callers get exclusive use of it for the duration
// of Do and must not keep the pointer afterwards. Loads read the source
// outside the lock and only swap state in once the read succeeded.
type Service struct {
	source  Source
	limiter *LoadLimiter
	metrics MetricsRecorder
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	dataset *Dataset
}

// NewService creates a Service reading from src.
func NewService(src Source, opts Options) *Service {
	if opts.Limiter == nil {
		opts.Limiter = NewLoadLimiter(DefaultMaxConcurrentLoads, DefaultLoadWait)
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	return &Service{
		source:  src,
		limiter: opts.Limiter,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		timeout: opts.LoadTimeout,
		dataset: NewDataset(src),
	}
}

// Load loads sel, replacing the current dataset. Loading the selection that
// is already loaded returns immediately.
func (s *Service) Load(ctx context.Context, sel Selection) (Status, error) {
	if err := sel.Validate(); err != nil {
		return Status{}, &LoadError{Selection: sel, Err: err}
	}
	if st, ok := s.loadedAs(sel); ok {
		return st, nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return Status{}, &LoadError{Selection: sel, Err: err}
	}
	defer s.limiter.Release()

	// A queued request for the same selection may have finished meanwhile.
	if st, ok := s.loadedAs(sel); ok {
		return st, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	logger := s.logger.With("year", sel.Year, "round", sel.Round, "driver", s.sourceName())
	logger.Info("loading dataset")

	start := time.Now()
	table, err := readTable(ctx, s.source, sel)
	elapsed := time.Since(start)

	rows := 0
	if table != nil {
		rows = len(table.Entries)
	}
	s.metrics.ObserveLoad(sel, s.sourceName(), elapsed, rows, err)

	if err != nil {
		logger.Warn("dataset load failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return Status{}, err
	}

	s.mu.Lock()
	s.dataset.install(sel, table)
	unclassified := len(s.dataset.filters.InstitutesOf(UnclassifiedKind))
	st := s.dataset.Status()
	s.mu.Unlock()

	if unclassified > 0 {
		logger.Warn("institutes missing from classification", "count", unclassified, "kind", UnclassifiedKind)
	}
	logger.Info("dataset loaded",
		"entries", rows,
		"load_id", st.LoadID,
		"duration_ms", elapsed.Milliseconds(),
	)
	return st, nil
}

func (s *Service) loadedAs(sel Selection) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset.IsLoaded() && s.dataset.Selection() == sel {
		return s.dataset.Status(), true
	}
	return Status{}, false
}

// Do runs fn with exclusive access to the dataset.
func (s *Service) Do(fn func(d *Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.dataset)
}

// Edit runs fn against the filters of the current load. loadID must name
// that load; an empty loadID skips the check. fn works on a copy that is
// installed only if it returns nil, so a failed edit changes nothing.
func (s *Service) Edit(loadID string, fn func(f *Filters) error) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dataset.IsLoaded() {
		return Status{}, ErrNotLoaded
	}
	if loadID != "" {
		if err := s.dataset.CheckLoadID(loadID); err != nil {
			return Status{}, err
		}
	}
	next := s.dataset.Filters().Clone()
	if err := fn(next); err != nil {
		return Status{}, err
	}
	s.dataset.filters = next
	s.dataset.ApplyFilters()
	return s.dataset.Status(), nil
}

// SetSort changes the active sort.
func (s *Service) SetSort(sort Sort) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dataset.IsLoaded() {
		return Status{}, ErrNotLoaded
	}
	s.dataset.SetSort(sort)
	return s.dataset.Status(), nil
}

// Snapshot copies up to limit visible entries (all when limit <= 0) so the
// caller can render them without holding the lock.
func (s *Service) Snapshot(limit int) (Status, []Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dataset.IsLoaded() {
		return s.dataset.Status(), nil, ErrNotLoaded
	}

	var out []Entry
	for e := range s.dataset.View() {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, *e)
	}
	st := s.dataset.Status()
	s.metrics.ObserveView(st.Selection, st.Visible)
	return st, out, nil
}

// Status returns a snapshot of the dataset state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset.Status()
}

// LimiterStatus reports load slot usage.
func (s *Service) LimiterStatus() LoadLimiterStatus {
	return s.limiter.Status()
}

// WaitForLoads blocks until in-flight loads finish or ctx ends.
func (s *Service) WaitForLoads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Close releases the source.
func (s *Service) Close() error {
	if s.source == nil {
		return nil
	}
	return s.source.Close()
}

func (s *Service) sourceName() string {
	if s.source == nil {
		return ""
	}
	return s.source.Name()
}
