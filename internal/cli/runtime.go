package cli

import (
	"context"

	"go.uber.org/zap"

	"github.com/athanius07/EMESRT11/internal/config"
	"github.com/athanius07/EMESRT11/internal/dataset"
	"github.com/athanius07/EMESRT11/internal/logging"
	"github.com/athanius07/EMESRT11/internal/metrics"
	"github.com/athanius07/EMESRT11/internal/refresh"
	"github.com/athanius07/EMESRT11/internal/server"
	"github.com/athanius07/EMESRT11/internal/store"
)

// runtime is what every command needs once flags and config are resolved.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	provider dataset.Provider
}

// loadRuntime loads the config named by --config or $CONFIG_PATH and
// builds the logger, writing logs to logOutput.
func loadRuntime(opts *RootOptions, logOutput string) (*runtime, error) {
	cfg, err := config.Load(config.Locate(opts.ConfigPath))
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	if opts.Verbose {
		logCfg = logging.Verbose(logCfg)
	}
	logger, err := logging.New(logCfg, logOutput)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics.New(),
		provider: providerFor(cfg.Refresh),
	}, nil
}

// providerFor reads the dataset file when one is configured and falls
// back to the built-in curated records.
func providerFor(cfg config.RefreshConfig) dataset.Provider {
	if cfg.DatasetFile != "" {
		return dataset.FileProvider{Path: cfg.DatasetFile}
	}
	return dataset.Curated{}
}

func (rt *runtime) storeOptions() store.Options {
	return server.StoreOptions(rt.cfg.Store, rt.logger, rt.metrics)
}

func (rt *runtime) storeFor(ctx context.Context) store.Store {
	return store.Open(ctx, rt.storeOptions())
}

func (rt *runtime) orchestrator(st store.Store) *refresh.Orchestrator {
	return refresh.New(rt.provider, st,
		refresh.WithLogger(rt.logger),
		refresh.WithMetrics(rt.metrics))
}

func (rt *runtime) close() {
	_ = rt.logger.Sync()
}
