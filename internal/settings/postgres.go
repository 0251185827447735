package settings

import (
	"context"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
)

// PostgresStore keeps settings in the app_settings table
type PostgresStore struct {
	repo database.SettingsRepositoryInterface
}

// NewPostgresStore creates a store over a settings repository
func NewPostgresStore(repo database.SettingsRepositoryInterface) *PostgresStore {
	return &PostgresStore{repo: repo}
}

func (p *PostgresStore) Load(ctx context.Context) (models.TimerSettings, error) {
	row, err := p.repo.Get(ctx, Key)
	if err != nil {
		return models.DefaultTimerSettings(), err
	}
	if row == nil {
		return models.DefaultTimerSettings(), nil
	}
	return decode(row.Value)
}

func (p *PostgresStore) Save(ctx context.Context, s models.TimerSettings) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	return p.repo.Set(ctx, Key, data)
}

func (p *PostgresStore) Clear(ctx context.Context) error {
	return p.repo.Delete(ctx, Key)
}

// Ensure concrete types implement the interface
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
