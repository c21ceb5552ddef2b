package models

import (
	"fmt"
	"sort"
	"sync"
)

// ProviderFactory creates a CoreClassifier from a client configuration.
type ProviderFactory func(config ClientConfig) (CoreClassifier, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]ProviderFactory)
)

// RegisterProviderFactory registers a provider implementation under a
// name. Providers self-register from init functions; registering the same
// name twice panics to catch wiring mistakes at startup.
func RegisterProviderFactory(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("provider factory %q registered twice", name))
	}
	registry[name] = factory
}

// createProvider instantiates the provider named in the configuration.
func createProvider(config ClientConfig) (CoreClassifier, error) {
	registryMu.RLock()
	factory, ok := registry[config.Provider]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider %q (registered: %v)", config.Provider, registeredProviders())
	}
	return factory(config)
}

// registeredProviders returns the sorted provider names, for error
// messages.
func registeredProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
