package ai

import (
	"fmt"
	"sort"
	"time"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(RuntimeConfig) (Runtime, error)

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	// Remote providers
	APIKey  string
	BaseURL string
	// Ollama
	Host string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// NewRuntime creates the Runtime registered under name.
func NewRuntime(name string, cfg RuntimeConfig) (Runtime, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", name, Providers())
	}
	return f(cfg)
}

// Providers lists registered provider names.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	RegisterRuntime(ProviderOpenAI, func(c RuntimeConfig) (Runtime, error) {
		return NewClient(c.APIKey, c.BaseURL, c.HTTPTimeout)
	})
	RegisterRuntime(ProviderOpenRouter, func(c RuntimeConfig) (Runtime, error) {
		base := c.BaseURL
		if base == "" {
			base = OpenRouterBaseURL
		}
		return NewClient(c.APIKey, base, c.HTTPTimeout)
	})
	RegisterRuntime(ProviderAnthropic, func(c RuntimeConfig) (Runtime, error) {
		return NewAnthropicClient(c.APIKey, c.HTTPTimeout)
	})
	RegisterRuntime(ProviderOllama, func(c RuntimeConfig) (Runtime, error) {
		return NewOllamaClient(c.Host, c.HTTPTimeout), nil
	})
}
