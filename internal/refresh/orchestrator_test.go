package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/athanius07/EMESRT11/internal/changelog"
	"github.com/athanius07/EMESRT11/internal/dataset"
	"github.com/athanius07/EMESRT11/internal/store"
	"github.com/athanius07/EMESRT11/internal/testutil"
)

// switchProvider serves whatever records it currently holds and counts calls.
type switchProvider struct {
	mu      sync.Mutex
	records dataset.Snapshot
	calls   int
	err     error
}

func (p *switchProvider) Snapshot(ctx context.Context) (dataset.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return dataset.StaticProvider{Records: p.records}.Snapshot(ctx)
}

func (p *switchProvider) set(s dataset.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = s
}

func (p *switchProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// faultyStore wraps a MemoryStore and fails the selected operations.
type faultyStore struct {
	*store.MemoryStore
	failGet bool
	failSet bool
}

func (s *faultyStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if s.failGet {
		return nil, false, errors.New("connection reset")
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *faultyStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if s.failSet {
		return errors.New("disk full")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

type countingRecorder struct {
	refreshes []int
	hits      int
	failures  []string
}

func (r *countingRecorder) ObserveRefresh(_ time.Duration, records, _, _, _ int) {
	r.refreshes = append(r.refreshes, records)
}
func (r *countingRecorder) ObserveCacheHit(int) { r.hits++ }

func (r *countingRecorder) ObserveFailure(mode string) { r.failures = append(r.failures, mode) }

func newTestOrchestrator(p dataset.Provider, s store.Store, opts ...Option) *Orchestrator {
	all := append([]Option{WithClock(testutil.NewDeterministicClock())}, opts...)
	return New(p, s, all...)
}

func TestRefresh_EmptyStoreThreeRecords(t *testing.T) {
	ctx := context.Background()
	p := &switchProvider{records: testutil.ThreeRecords()}
	o := newTestOrchestrator(p, store.NewMemoryStore())

	res, err := o.Refresh(ctx)
	require.NoError(t, err)

	assert.Len(t, res.Snapshot, 3)
	require.Len(t, res.Changelog, 1)
	entry := res.Changelog[0]
	assert.Len(t, entry.Delta.Added, 3)
	assert.Empty(t, entry.Delta.Removed)
	assert.Empty(t, entry.Delta.Changed)
	assert.Equal(t, 3, entry.RecordCount)
	assert.Equal(t, res.Snapshot.Fingerprint(), entry.Fingerprint)
	assert.Equal(t, "2025-01-01T00:00:00.000Z", res.GeneratedAt)
	assert.Equal(t, entry.Timestamp, res.GeneratedAt)
}

func TestRefresh_Idempotent(t *testing.T) {
	ctx := context.Background()
	p := &switchProvider{records: testutil.ThreeRecords()}
	o := newTestOrchestrator(p, store.NewMemoryStore())

	first, err := o.Refresh(ctx)
	require.NoError(t, err)
	second, err := o.Refresh(ctx)
	require.NoError(t, err)

	require.Len(t, second.Changelog, 2)
	latest := second.Changelog[0]
	assert.True(t, latest.Delta.Empty(), "unchanged source must still record an entry")
	assert.Equal(t, first.Changelog[0].RecordCount, latest.RecordCount)
	assert.Equal(t, first.Changelog[0].Fingerprint, latest.Fingerprint)
	assert.Equal(t, "2025-01-01T00:00:01.000Z", latest.Timestamp)
	assert.Equal(t, first.Changelog[0], second.Changelog[1])
}

func TestRefresh_ChangelogCapped(t *testing.T) {
	ctx := context.Background()
	p := &switchProvider{records: testutil.ThreeRecords()}
	o := newTestOrchestrator(p, store.NewMemoryStore())

	for i := 1; i <= 25; i++ {
		res, err := o.Refresh(ctx)
		require.NoError(t, err)
		want := i
		if want > changelog.MaxEntries {
			want = changelog.MaxEntries
		}
		require.Len(t, res.Changelog, want, "after %d refreshes", i)
	}

	res, err := o.Cached(ctx)
	require.NoError(t, err)
	require.Len(t, res.Changelog, changelog.MaxEntries)
	assert.Equal(t, "2025-01-01T00:00:24.000Z", res.Changelog[0].Timestamp, "newest first")
	assert.Equal(t, "2025-01-01T00:00:05.000Z", res.Changelog[19].Timestamp, "oldest five dropped")
}

func TestRefresh_DetectsChanges(t *testing.T) {
	ctx := context.Background()
	base := testutil.ThreeRecords()
	p := &switchProvider{records: base}
	o := newTestOrchestrator(p, store.NewMemoryStore())

	_, err := o.Refresh(ctx)
	require.NoError(t, err)

	next := base.Clone()
	next[0][dataset.FieldStatus] = "Repealed"
	next = next[:2]
	next = append(next, testutil.Record("CA", "BC", "Regulation D", "https://example.org/d"))
	p.set(next)

	res, err := o.Refresh(ctx)
	require.NoError(t, err)

	d := res.Changelog[0].Delta
	assert.Equal(t, []string{base[2].NaturalKey()}, d.Removed)
	assert.Equal(t, []string{"CA|BC|Regulation D|https://example.org/d"}, d.Added)
	assert.Equal(t, []string{base[0].NaturalKey()}, d.Changed)
}

func TestRefresh_PersistedLayout(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	o := newTestOrchestrator(&switchProvider{records: testutil.ThreeRecords()}, s)

	res, err := o.Refresh(ctx)
	require.NoError(t, err)

	var rows []map[string]string
	found, err := store.GetJSON(ctx, s, store.KeySnapshot, &rows)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, rows, 3)
	assert.Equal(t, res.Snapshot[0][dataset.FieldTitle], rows[0][dataset.FieldTitle])

	raw, _, err := s.Get(ctx, store.KeyChangelog)
	require.NoError(t, err)
	var entries []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)
	assert.JSONEq(t, `"2025-01-01T00:00:00.000Z"`, string(entries[0]["ts"]))
	assert.JSONEq(t, `3`, string(entries[0]["count"]))
	assert.Contains(t, string(entries[0]["delta"]), `"removed":[]`)
	assert.Contains(t, string(entries[0]["delta"]), `"changed":[]`)
}

func TestRefresh_EmptyProviderStoresEmptyArray(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	o := newTestOrchestrator(&switchProvider{}, s)

	res, err := o.Refresh(ctx)
	require.NoError(t, err)
	assert.NotNil(t, res.Snapshot)
	assert.Empty(t, res.Snapshot)

	raw, _, _ := s.Get(ctx, store.KeySnapshot)
	assert.Equal(t, `[]`, string(raw))
}

func TestRefresh_MalformedStoredValuesTreatedAsAbsent(t *testing.T) {
	tests := []struct {
		name string
		key  string
		raw  string
	}{
		{"snapshot not json", store.KeySnapshot, `{{{`},
		{"snapshot wrong shape", store.KeySnapshot, `[1,2,3]`},
		{"changelog not json", store.KeyChangelog, `nope`},
		{"changelog null", store.KeyChangelog, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := store.NewMemoryStore()
			require.NoError(t, s.Set(ctx, tt.key, json.RawMessage(tt.raw)))

			core, logs := observer.New(zap.WarnLevel)
			o := newTestOrchestrator(&switchProvider{records: testutil.ThreeRecords()}, s,
				WithLogger(zap.New(core)))

			res, err := o.Refresh(ctx)
			require.NoError(t, err)
			require.Len(t, res.Changelog, 1)
			assert.Len(t, res.Changelog[0].Delta.Added, 3)
			assert.Equal(t, 1, logs.FilterMessage("stored value malformed, treating as absent").Len())
		})
	}
}

func TestRefresh_StoreReadFailurePropagates(t *testing.T) {
	rec := &countingRecorder{}
	s := &faultyStore{MemoryStore: store.NewMemoryStore(), failGet: true}
	o := newTestOrchestrator(&switchProvider{records: testutil.ThreeRecords()}, s, WithMetrics(rec))

	_, err := o.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageRead, StageOf(err))
	assert.NotErrorIs(t, err, store.ErrMalformed)
	assert.Equal(t, []string{ModeRefresh}, rec.failures)
}

func TestRefresh_StoreWriteFailurePropagates(t *testing.T) {
	s := &faultyStore{MemoryStore: store.NewMemoryStore(), failSet: true}
	o := newTestOrchestrator(&switchProvider{records: testutil.ThreeRecords()}, s)

	_, err := o.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageWrite, StageOf(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestRefresh_ProviderFailure(t *testing.T) {
	p := &switchProvider{err: errors.New("source offline")}
	o := newTestOrchestrator(p, store.NewMemoryStore())

	_, err := o.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageProvider, StageOf(err))

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.EqualError(t, rerr.Err, "source offline")
}

func TestRefresh_DuplicateKeysWarned(t *testing.T) {
	dup := testutil.Record("AU", "WA", "Regulation A", "https://example.org/a")
	records := append(testutil.ThreeRecords(), dup)

	core, logs := observer.New(zap.WarnLevel)
	o := newTestOrchestrator(&switchProvider{records: records}, store.NewMemoryStore(),
		WithLogger(zap.New(core)))

	res, err := o.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Snapshot, 4)
	assert.Len(t, res.Changelog[0].Delta.Added, 3)

	warned := logs.FilterMessage("duplicate natural keys in snapshot, last record wins").All()
	require.Len(t, warned, 1)
	assert.Equal(t, []interface{}{dup.NaturalKey()}, warned[0].ContextMap()["keys"])
}

func TestRefresh_RecordsMetrics(t *testing.T) {
	rec := &countingRecorder{}
	o := newTestOrchestrator(&switchProvider{records: testutil.ThreeRecords()}, store.NewMemoryStore(),
		WithMetrics(rec))

	_, err := o.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{3}, rec.refreshes)
	assert.Empty(t, rec.failures)
}

func TestCached_ServesStoredSnapshot(t *testing.T) {
	ctx := context.Background()
	rec := &countingRecorder{}
	p := &switchProvider{records: testutil.ThreeRecords()}
	o := newTestOrchestrator(p, store.NewMemoryStore(), WithMetrics(rec))

	refreshed, err := o.Refresh(ctx)
	require.NoError(t, err)

	p.set(dataset.Snapshot{testutil.Record("NZ", "WorkSafe", "Other", "https://example.org/z")})
	callsBefore := p.callCount()

	cached, err := o.Cached(ctx)
	require.NoError(t, err)

	assert.Equal(t, callsBefore, p.callCount(), "cached read must not consult the provider")
	assert.Equal(t, refreshed.Snapshot, cached.Snapshot)
	assert.Equal(t, refreshed.Changelog, cached.Changelog)
	assert.Equal(t, refreshed.GeneratedAt, cached.GeneratedAt)
	assert.Equal(t, 1, rec.hits)

	again, err := o.Cached(ctx)
	require.NoError(t, err)
	assert.Len(t, again.Changelog, 1, "cached reads never append")
}

func TestCached_FallsThroughWhenEmpty(t *testing.T) {
	tests := []struct {
		name string
		seed string
	}{
		{"absent", ""},
		{"empty array", `[]`},
		{"malformed", `{"broken":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := store.NewMemoryStore()
			if tt.seed != "" {
				require.NoError(t, s.Set(ctx, store.KeySnapshot, json.RawMessage(tt.seed)))
			}
			p := &switchProvider{records: testutil.ThreeRecords()}
			o := newTestOrchestrator(p, s)

			res, err := o.Cached(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, p.callCount())
			assert.Len(t, res.Snapshot, 3)
			assert.Len(t, res.Changelog, 1)
		})
	}
}

func TestCached_NoChangelogUsesNow(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, store.SetJSON(ctx, s, store.KeySnapshot, testutil.ThreeRecords()))

	clock := testutil.NewStepClock(time.Date(2025, 7, 4, 9, 30, 0, 123e6, time.UTC), time.Second)
	o := New(&switchProvider{}, s, WithClock(clock))

	res, err := o.Cached(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Snapshot, 3)
	assert.Empty(t, res.Changelog)
	assert.NotNil(t, res.Changelog)
	assert.Equal(t, "2025-07-04T09:30:00.123Z", res.GeneratedAt)
}

func TestCached_ReadFailure(t *testing.T) {
	rec := &countingRecorder{}
	s := &faultyStore{MemoryStore: store.NewMemoryStore(), failGet: true}
	o := newTestOrchestrator(&switchProvider{}, s, WithMetrics(rec))

	_, err := o.Cached(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageRead, StageOf(err))
	assert.Equal(t, []string{ModeCached}, rec.failures)
}

func TestStageOf_ForeignError(t *testing.T) {
	assert.Equal(t, Stage(""), StageOf(errors.New("other")))
	assert.Equal(t, Stage(""), StageOf(nil))
}

func TestConcurrentRefreshesLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	o := New(&switchProvider{records: testutil.ThreeRecords()}, s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.Refresh(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	res, err := o.Cached(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Snapshot, 3)
	assert.GreaterOrEqual(t, len(res.Changelog), 1)
	assert.LessOrEqual(t, len(res.Changelog), 8)
}
