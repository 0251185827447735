package commands

import (
	"context"
	"fmt"

	"github.com/benvon/study-planner/internal/cache"
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/settings"
	"go.uber.org/multierr"
)

// openSettings opens the settings backend selected by cfg along with any connection it
// needs. The returned close func releases those connections.
func openSettings(ctx context.Context, cfg *config.Config) (settings.Store, func() error, error) {
	opts := settings.Options{Backend: cfg.SettingsBackend, Path: cfg.SettingsPath}
	var closers []func() error
	closeAll := func() error {
		var err error
		for _, c := range closers {
			err = multierr.Append(err, c())
		}
		return err
	}

	switch cfg.SettingsBackend {
	case config.SettingsBackendRedis:
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, rc.Close)
		opts.Redis = rc.Client()
	case config.SettingsBackendPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		closers = append(closers, db.Close)
		repo := database.NewSettingsRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("create settings table: %w", err)
		}
		opts.Repo = repo
	}

	store, err := settings.Open(opts)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	return store, closeAll, nil
}
