package database

import (
	"context"
)

// SettingsRepositoryInterface defines the interface for settings repository operations
// This interface enables better testability by allowing mock implementations
type SettingsRepositoryInterface interface {
	Get(ctx context.Context, key string) (*AppSetting, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Ensure concrete types implement the interfaces
var (
	_ SettingsRepositoryInterface = (*SettingsRepository)(nil)
)
