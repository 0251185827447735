package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// AIProvider is the interface for AI providers
type AIProvider interface {
	// RecommendStudyPlan returns free-form study recommendations for the request.
	// The text is opaque to the caller.
	RecommendStudyPlan(ctx context.Context, req *RecommendationRequest) (string, error)
}

// ErrAPIKeyMissing is returned when a provider is built without credentials
var ErrAPIKeyMissing = errors.New("AI API key not configured")

// ProviderConfig carries the settings shared by every provider. Empty BaseURL and
// Model select the provider's defaults.
type ProviderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Logger    *zap.Logger
	DebugMode bool
}

// ProviderFactory builds a provider from its configuration
type ProviderFactory func(cfg ProviderConfig) (AIProvider, error)

// ProviderRegistry maps provider names (as used in AI_PROVIDER) to factories
type ProviderRegistry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// NewProviderRegistry returns a registry with the built-in providers registered
func NewProviderRegistry() *ProviderRegistry {
	r := &ProviderRegistry{factories: make(map[string]ProviderFactory)}
	r.Register("openai", newOpenAIFromConfig)
	return r
}

// Register adds or replaces the factory for name. Names are case-insensitive.
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = factory
}

// Names lists registered providers in sorted order
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the named provider. An empty name selects openai.
func (r *ProviderRegistry) Build(name string, cfg ProviderConfig) (AIProvider, error) {
	if name == "" {
		name = "openai"
	}
	r.mu.RLock()
	factory, ok := r.factories[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, &ErrProviderNotFound{Name: name, Known: r.Names()}
	}
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}
	return factory(cfg)
}

// NewProvider builds a provider from the built-in registry
func NewProvider(name string, cfg ProviderConfig) (AIProvider, error) {
	return NewProviderRegistry().Build(name, cfg)
}

// ErrProviderNotFound is returned for an unregistered provider name
type ErrProviderNotFound struct {
	Name  string
	Known []string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("unknown AI provider %q (available: %s)", e.Name, strings.Join(e.Known, ", "))
}
