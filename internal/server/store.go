package server

import (
	"context"

	"go.uber.org/zap"

	"github.com/athanius07/EMESRT11/internal/config"
	"github.com/athanius07/EMESRT11/internal/store"
)

// StoreOpener returns the store for one unit of work. The caller closes it.
type StoreOpener func(ctx context.Context) store.Store

// StoreOptions maps the store configuration onto store.Options.
func StoreOptions(cfg config.StoreConfig, logger *zap.Logger, rec store.FallbackRecorder) store.Options {
	return store.Options{
		Backend:    cfg.Backend,
		Namespace:  cfg.Namespace,
		SQLitePath: cfg.SQLite.Path,
		Redis: store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		ConnectTimeout: cfg.ConnectTimeout,
		Logger:         logger,
		Fallbacks:      rec,
	}
}

// PerRequest opens a fresh store on every call. An unreachable backend
// yields a fresh ephemeral store each time, so nothing carries over
// between requests.
func PerRequest(opts store.Options) StoreOpener {
	return func(ctx context.Context) store.Store {
		return store.Open(ctx, opts)
	}
}

// Reused opens one store now and hands out non-closing views of it. The
// returned store must be closed by the caller when the server stops.
func Reused(ctx context.Context, opts store.Options) (StoreOpener, store.Store) {
	st := store.Open(ctx, opts)
	return func(context.Context) store.Store {
		return store.Shared(st)
	}, st
}
