package refresh

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/athanius07/EMESRT11/internal/changelog"
	"github.com/athanius07/EMESRT11/internal/dataset"
	"github.com/athanius07/EMESRT11/internal/delta"
	"github.com/athanius07/EMESRT11/internal/store"
)

// Modes reported to a Recorder.
const (
	ModeRefresh = "refresh"
	ModeCached  = "cached"
)

// Clock supplies the timestamp stamped on each changelog entry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Recorder receives refresh outcomes. metrics.Metrics implements it.
type Recorder interface {
	ObserveRefresh(d time.Duration, records, added, removed, changed int)
	ObserveCacheHit(records int)
	ObserveFailure(mode string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRefresh(time.Duration, int, int, int, int) {}
func (nopRecorder) ObserveCacheHit(int) {}
func (nopRecorder) ObserveFailure(string) {}

// Result is what both read paths return.
type Result struct {
	Snapshot    dataset.Snapshot
	Changelog   changelog.Changelog
	GeneratedAt string
}

// Orchestrator runs refreshes against one store. It holds no mutable
// state of its own and is safe for concurrent use; concurrent refreshes
// race at the store.
type Orchestrator struct {
	provider dataset.Provider
	store    store.Store
	clock    Clock
	logger   *zap.Logger
	metrics  Recorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the wall clock. Tests use testutil.DeterministicClock.
func WithClock(c Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithMetrics sets the outcome recorder.
func WithMetrics(r Recorder) Option {
	return func(o *Orchestrator) {
		o.metrics = r
	}
}

// New creates an Orchestrator reading from provider and persisting to s.
func New(provider dataset.Provider, s store.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: provider,
		store:    s,
		clock:    systemClock{},
		logger:   zap.NewNop(),
		metrics:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Refresh rebuilds the snapshot from the provider, records a changelog
// entry even when nothing changed, and persists both.
func (o *Orchestrator) Refresh(ctx context.Context) (Result, error) {
	start := time.Now()

	res, d, err := o.refresh(ctx)
	if err != nil {
		o.metrics.ObserveFailure(ModeRefresh)
		o.logger.Error("refresh failed", zap.Error(err))
		return Result{}, err
	}

	counts := d.Counts()
	o.metrics.ObserveRefresh(time.Since(start), len(res.Snapshot), counts.Added, counts.Removed, counts.Changed)
	o.logger.Info("refresh complete",
		zap.String("ts", res.GeneratedAt),
		zap.Int("count", len(res.Snapshot)),
		zap.Int("added", counts.Added),
		zap.Int("removed", counts.Removed),
		zap.Int("changed", counts.Changed),
		zap.String("store", o.store.Kind().String()))
	return res, nil
}

func (o *Orchestrator) refresh(ctx context.Context) (Result, delta.Delta, error) {
	next, err := o.provider.Snapshot(ctx)
	if err != nil {
		return Result{}, delta.Delta{}, &Error{Stage: StageProvider, Err: err}
	}
	if next == nil {
		next = dataset.Snapshot{}
	}

	prev, history, err := o.load(ctx)
	if err != nil {
		return Result{}, delta.Delta{}, err
	}

	if dups := next.Duplicates(); len(dups) > 0 {
		o.logger.Warn("duplicate natural keys in snapshot, last record wins",
			zap.Strings("keys", dups))
	}

	d := delta.Diff(prev, next)
	entry := changelog.NewEntry(o.clock.Now(), next, d)
	updated := history.Append(entry)

	if err := o.commit(ctx, next, updated); err != nil {
		return Result{}, delta.Delta{}, err
	}

	return Result{
		Snapshot:    next,
		Changelog:   updated,
		GeneratedAt: entry.Timestamp,
	}, d, nil
}

// Cached returns the stored snapshot and changelog without consulting the
// provider. An absent, empty or malformed stored snapshot falls through to
// Refresh.
func (o *Orchestrator) Cached(ctx context.Context) (Result, error) {
	snap, history, err := o.load(ctx)
	if err != nil {
		o.metrics.ObserveFailure(ModeCached)
		o.logger.Error("cached read failed", zap.Error(err))
		return Result{}, err
	}
	if len(snap) == 0 {
		o.logger.Debug("no stored snapshot, refreshing")
		return o.Refresh(ctx)
	}

	generatedAt := changelog.FormatTimestamp(o.clock.Now())
	if head, ok := history.Head(); ok {
		generatedAt = head.Timestamp
	}

	o.metrics.ObserveCacheHit(len(snap))
	return Result{
		Snapshot:    snap,
		Changelog:   history,
		GeneratedAt: generatedAt,
	}, nil
}

// load reads both keys concurrently. Malformed values come back empty.
func (o *Orchestrator) load(ctx context.Context) (dataset.Snapshot, changelog.Changelog, error) {
	var (
		snap    dataset.Snapshot
		history changelog.Changelog
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap, err = read[dataset.Snapshot](gctx, o, store.KeySnapshot)
		return err
	})
	g.Go(func() (err error) {
		history, err = read[changelog.Changelog](gctx, o, store.KeyChangelog)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if snap == nil {
		snap = dataset.Snapshot{}
	}
	if history == nil {
		history = changelog.Changelog{}
	}
	return snap, history, nil
}

// read decodes key into a fresh T. A partially decoded value is discarded
// along with the error when the stored bytes are malformed.
func read[T any](ctx context.Context, o *Orchestrator, key string) (T, error) {
	var v T
	_, err := store.GetJSON(ctx, o.store, key, &v)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, store.ErrMalformed):
		o.logger.Warn("stored value malformed, treating as absent",
			zap.String("key", key), zap.Error(err))
		var zero T
		return zero, nil
	default:
		var zero T
		return zero, &Error{Stage: StageRead, Key: key, Err: err}
	}
}

// commit writes the snapshot and changelog as one logical step. The store
// has no multi-key transaction, so a failure can leave one key updated.
func (o *Orchestrator) commit(ctx context.Context, snap dataset.Snapshot, history changelog.Changelog) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := store.SetJSON(gctx, o.store, store.KeySnapshot, snap); err != nil {
			return &Error{Stage: StageWrite, Key: store.KeySnapshot, Err: err}
		}
		return nil
	})
	g.Go(func() error {
		if err := store.SetJSON(gctx, o.store, store.KeyChangelog, history); err != nil {
			return &Error{Stage: StageWrite, Key: store.KeyChangelog, Err: err}
		}
		return nil
	})
	return g.Wait()
}
