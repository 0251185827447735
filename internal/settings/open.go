package settings

import (
	"fmt"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/redis/go-redis/v9"
)

// Options selects and configures a settings backend
type Options struct {
	Backend string
	Path    string
	Redis   *redis.Client
	Repo    database.SettingsRepositoryInterface
}

// Open returns the Store for opts.Backend
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case config.SettingsBackendMemory:
		return NewMemoryStore(), nil
	case config.SettingsBackendFile, "":
		return NewFileStore(opts.Path)
	case config.SettingsBackendRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis settings backend requires a Redis client")
		}
		return NewRedisStore(opts.Redis), nil
	case config.SettingsBackendPostgres:
		if opts.Repo == nil {
			return nil, fmt.Errorf("postgres settings backend requires a settings repository")
		}
		return NewPostgresStore(opts.Repo), nil
	default:
		return nil, fmt.Errorf("unknown settings backend %q", opts.Backend)
	}
}
