package settings

import (
	"context"
	"fmt"

	"github.com/benvon/study-planner/internal/models"
	"github.com/mitchellh/go-homedir"
	"github.com/peterbourgon/diskv/v3"
)

// FileStore keeps settings as a JSON file under a base directory
type FileStore struct {
	d        *diskv.Diskv
	basePath string
}

// NewFileStore creates a file store rooted at basePath. A leading ~ is expanded.
func NewFileStore(basePath string) (*FileStore, error) {
	expanded, err := homedir.Expand(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand settings path %s: %w", basePath, err)
	}
	return &FileStore{
		d: diskv.New(diskv.Options{
			BasePath:     expanded,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 64 * 1024,
		}),
		basePath: expanded,
	}, nil
}

// BasePath returns the expanded directory the settings file lives in
func (f *FileStore) BasePath() string {
	return f.basePath
}

func (f *FileStore) Load(_ context.Context) (models.TimerSettings, error) {
	if !f.d.Has(Key) {
		return models.DefaultTimerSettings(), nil
	}
	data, err := f.d.Read(Key)
	if err != nil {
		return models.DefaultTimerSettings(), fmt.Errorf("failed to read timer settings: %w", err)
	}
	return decode(data)
}

func (f *FileStore) Save(_ context.Context, s models.TimerSettings) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := f.d.Write(Key, data); err != nil {
		return fmt.Errorf("failed to write timer settings: %w", err)
	}
	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	if !f.d.Has(Key) {
		return nil
	}
	if err := f.d.Erase(Key); err != nil {
		return fmt.Errorf("failed to erase timer settings: %w", err)
	}
	return nil
}
