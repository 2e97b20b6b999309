package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fallbackLog struct {
	calls [][2]string
}

func (f *fallbackLog) StoreFallback(backend, reason string) {
	f.calls = append(f.calls, [2]string{backend, reason})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "durable", Durable.String())
	assert.Equal(t, "ephemeral", Ephemeral.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, found, err := s.Get(ctx, KeySnapshot)
	require.NoError(t, err)
	assert.False(t, found)

	input := json.RawMessage(`[1]`)
	require.NoError(t, s.Set(ctx, KeySnapshot, input))
	input[1] = '2'

	value, found, err := s.Get(ctx, KeySnapshot)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[1]`, string(value), "Set must copy its input")

	value[1] = '3'
	again, _, _ := s.Get(ctx, KeySnapshot)
	assert.Equal(t, `[1]`, string(again), "Get must return a copy")

	assert.Equal(t, Ephemeral, s.Kind())
	assert.NoError(t, s.Close())
}

func TestGetJSONSetJSON(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := []map[string]string{{"Title": "A & B <draft>"}}
	require.NoError(t, SetJSON(ctx, s, KeySnapshot, in))

	raw, _, _ := s.Get(ctx, KeySnapshot)
	assert.Equal(t, `[{"Title":"A & B <draft>"}]`, string(raw), "no HTML escaping, no trailing newline")

	var out []map[string]string
	found, err := GetJSON(ctx, s, KeySnapshot, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestGetJSONMissing(t *testing.T) {
	var out []string
	found, err := GetJSON(context.Background(), NewMemoryStore(), KeyChangelog, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetJSONMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"wrong shape", `{"rows":1}`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := NewMemoryStore()
			require.NoError(t, s.Set(ctx, KeySnapshot, json.RawMessage(tt.raw)))

			var out []map[string]string
			found, err := GetJSON(ctx, s, KeySnapshot, &out)
			assert.False(t, found)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

type brokenStore struct {
	MemoryStore
}

func (*brokenStore) Get(context.Context, string) (json.RawMessage, bool, error) {
	return nil, false, errors.New("connection reset")
}

func (*brokenStore) Set(context.Context, string, json.RawMessage) error {
	return errors.New("connection reset")
}

func TestGetJSONSetJSONPropagateIOErrors(t *testing.T) {
	ctx := context.Background()
	s := &brokenStore{}

	var out []string
	_, err := GetJSON(ctx, s, KeySnapshot, &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformed)

	err = SetJSON(ctx, s, KeySnapshot, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeySnapshot)
}

func TestSetJSONEncodeError(t *testing.T) {
	err := SetJSON(context.Background(), NewMemoryStore(), KeySnapshot, make(chan int))
	assert.Error(t, err)
}

func TestShared(t *testing.T) {
	ctx := context.Background()
	inner := createTestSQLite(t, DefaultNamespace)
	s := Shared(inner)

	require.NoError(t, s.Close())
	require.NoError(t, s.Set(ctx, KeySnapshot, json.RawMessage(`[]`)), "underlying store must stay open")
	assert.Equal(t, Durable, s.Kind())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := OpenRedis(ctx, RedisOptions{Addr: mr.Addr()}, DefaultNamespace, time.Second)
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.Get(ctx, KeySnapshot)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, KeySnapshot, json.RawMessage(`[{"Title":"x"}]`)))

	value, found, err := s.Get(ctx, KeySnapshot)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"Title":"x"}]`, string(value))

	stored, err := mr.Get("emesrt:rows.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"Title":"x"}]`, stored)
	assert.Equal(t, Durable, s.Kind())
}

func TestRedisStoreIOErrorAfterConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := OpenRedis(ctx, RedisOptions{Addr: mr.Addr()}, DefaultNamespace, time.Second)
	require.NoError(t, err)
	defer s.Close()

	mr.Close()

	_, _, err = s.Get(ctx, KeySnapshot)
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, KeySnapshot, json.RawMessage(`[]`)))
}

func TestOpenDurableBackends(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		s := Open(ctx, Options{
			Backend:    BackendSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "emesrt.db"),
		})
		defer s.Close()
		assert.Equal(t, Durable, s.Kind())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s := Open(ctx, Options{
			Backend: BackendRedis,
			Redis:   RedisOptions{Addr: mr.Addr()},
		})
		defer s.Close()
		assert.Equal(t, Durable, s.Kind())
	})

	t.Run("memory", func(t *testing.T) {
		rec := &fallbackLog{}
		s := Open(ctx, Options{Backend: BackendMemory, Fallbacks: rec})
		assert.Equal(t, Ephemeral, s.Kind())
		assert.Empty(t, rec.calls, "memory is chosen, not a fallback")
	})
}

func TestOpenFallsBackToEphemeral(t *testing.T) {
	ctx := context.Background()

	unreachable := miniredis.RunT(t)
	addr := unreachable.Addr()
	unreachable.Close()

	tests := []struct {
		name   string
		opts   Options
		reason string
	}{
		{"unknown backend", Options{Backend: "blobs"}, ReasonUnknownBackend},
		{"empty backend", Options{}, ReasonUnknownBackend},
		{"sqlite missing path", Options{Backend: BackendSQLite}, ReasonOpenFailed},
		{"sqlite bad path", Options{Backend: BackendSQLite, SQLitePath: "/nonexistent/dir/x.db"}, ReasonOpenFailed},
		{"redis unreachable", Options{
			Backend:        BackendRedis,
			Redis:          RedisOptions{Addr: addr},
			ConnectTimeout: 200 * time.Millisecond,
		}, ReasonOpenFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			rec := &fallbackLog{}
			tt.opts.Logger = zap.New(core)
			tt.opts.Fallbacks = rec

			s := Open(ctx, tt.opts)

			require.NotNil(t, s)
			assert.Equal(t, Ephemeral, s.Kind())
			assert.Equal(t, [][2]string{{tt.opts.Backend, tt.reason}}, rec.calls)
			assert.Equal(t, 1, logs.FilterMessage("durable store unavailable, using ephemeral store").Len())

			// The substitute is fully usable.
			require.NoError(t, s.Set(ctx, KeySnapshot, json.RawMessage(`[]`)))
			_, found, err := s.Get(ctx, KeySnapshot)
			require.NoError(t, err)
			assert.True(t, found)
		})
	}
}

func TestOpenFallbackIsFreshPerCall(t *testing.T) {
	ctx := context.Background()
	opts := Options{Backend: "unavailable"}

	first := Open(ctx, opts)
	require.NoError(t, first.Set(ctx, KeySnapshot, json.RawMessage(`["x"]`)))

	second := Open(ctx, opts)
	_, found, err := second.Get(ctx, KeySnapshot)
	require.NoError(t, err)
	assert.False(t, found, "ephemeral state must not leak across invocations")
}
