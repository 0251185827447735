// Package settings persists the focus timer settings under a single fixed key.
// Absent settings load as models.DefaultTimerSettings.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/validation"
)

// Key is the fixed name the timer settings are stored under
const Key = "focus-timer-settings"

// ErrInvalidSettings is returned when settings fall outside the allowed ranges
var ErrInvalidSettings = errors.New("invalid timer settings")

// Store loads and saves timer settings
type Store interface {
	// Load returns the stored settings, or the defaults when nothing is stored
	Load(ctx context.Context) (models.TimerSettings, error)
	// Save validates and stores settings
	Save(ctx context.Context, s models.TimerSettings) error
	// Clear removes the stored settings so the defaults apply again
	Clear(ctx context.Context) error
}

// Validate checks settings against the allowed ranges
func Validate(s models.TimerSettings) error {
	if err := validation.ValidateTimerSettings(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

func encode(s models.TimerSettings) ([]byte, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timer settings: %w", err)
	}
	return data, nil
}

// decode fills fields missing from data with defaults
func decode(data []byte) (models.TimerSettings, error) {
	s := models.DefaultTimerSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return models.DefaultTimerSettings(), fmt.Errorf("failed to unmarshal timer settings: %w", err)
	}
	if err := Validate(s); err != nil {
		return models.DefaultTimerSettings(), err
	}
	return s, nil
}
