package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Fallback reasons reported to a FallbackRecorder.
const (
	ReasonUnknownBackend = "unknown_backend"
	ReasonOpenFailed     = "open_failed"
)

// FallbackRecorder is notified each time Open substitutes the ephemeral
// store for a durable one.
type FallbackRecorder interface {
	StoreFallback(backend, reason string)
}

// Options selects and configures a backend.
type Options struct {
	Backend        string
	Namespace      string
	SQLitePath     string
	Redis          RedisOptions
	ConnectTimeout time.Duration

	Logger    *zap.Logger
	Fallbacks FallbackRecorder
}

// Open returns the configured durable store, or an ephemeral MemoryStore
// if it cannot be constructed or reached. It never returns an error and
// never retries.
func Open(ctx context.Context, opts Options) Store {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Backend == BackendMemory {
		return NewMemoryStore()
	}

	s, err := openDurable(ctx, opts)
	if err == nil {
		return s
	}

	reason := ReasonOpenFailed
	if errors.Is(err, ErrUnknownBackend) {
		reason = ReasonUnknownBackend
	}

	logger.Warn("durable store unavailable, using ephemeral store",
		zap.String("backend", opts.Backend),
		zap.String("reason", reason),
		zap.Error(err))
	if opts.Fallbacks != nil {
		opts.Fallbacks.StoreFallback(opts.Backend, reason)
	}
	return NewMemoryStore()
}

func openDurable(ctx context.Context, opts Options) (Store, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	switch opts.Backend {
	case BackendSQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		return OpenSQLite(opts.SQLitePath, namespace)
	case BackendRedis:
		return OpenRedis(ctx, opts.Redis, namespace, timeout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
