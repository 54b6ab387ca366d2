package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/signedstore/internal/config"
	"github.com/roach88/signedstore/internal/metrics"
	"github.com/roach88/signedstore/internal/mutation"
	"github.com/roach88/signedstore/internal/schema"
	"github.com/roach88/signedstore/internal/social"
	"github.com/roach88/signedstore/internal/store"
)

// env is everything a data command needs, opened from the global flags.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	reg    *schema.Registry
	db     *store.Store
	svc    *social.Service
}

// loadConfig reads --config, or the defaults, and applies --db.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return config.Config{}, err
		}
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

// newLogger builds a development logger for --verbose and a production
// logger at the configured level otherwise.
func newLogger(opts *RootOptions, cfg config.Config) (*zap.Logger, error) {
	if opts.Verbose {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.Level())
	return zc.Build()
}

// loadRegistry loads the kinds file named by the config, or the embedded
// kinds, and applies the configured throttle overrides.
func loadRegistry(cfg config.Config) (*schema.Registry, error) {
	var (
		reg *schema.Registry
		err error
	)
	if cfg.KindsFile != "" {
		reg, err = schema.LoadFile(cfg.KindsFile)
	} else {
		reg, err = schema.Load()
	}
	if err != nil {
		return nil, err
	}
	reg.OverrideThrottle(cfg.Throttle.Create, cfg.Throttle.Update, cfg.Throttle.Delete)
	return reg, nil
}

// openEnv opens the database, applying migrations, and assembles the
// service.
func openEnv(opts *RootOptions) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(opts, cfg)
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}
	reg, err := loadRegistry(cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	db, err := store.Open(cfg.Database, store.WithMetrics(metrics.NewStorage()))
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	svc, err := social.New(db, reg, logger,
		mutation.WithPaging(cfg.Paging()),
		mutation.WithMetrics(metrics.NewMutations()),
	)
	if err != nil {
		db.Close()
		_ = logger.Sync()
		return nil, err
	}

	logger.Debug("database opened", zap.String("path", cfg.Database), zap.Strings("kinds", reg.Names()))
	return &env{cfg: cfg, logger: logger, reg: reg, db: db, svc: svc}, nil
}

// Close flushes metrics to the configured textfile and releases the
// database.
func (e *env) Close() {
	if e.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(e.cfg.MetricsFile); err != nil {
			e.logger.Warn("failed to write metrics textfile", zap.String("path", e.cfg.MetricsFile), zap.Error(err))
		}
	}
	if err := e.db.Close(); err != nil {
		e.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = e.logger.Sync()
}

// handler resolves kind to its service handler.
func (e *env) handler(kind string) (social.Handler, error) {
	return e.svc.Handler(kind)
}
