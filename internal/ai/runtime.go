package ai

import "context"

// Runtime is a completion backend. Implementations issue exactly one
// upstream request per Generate call.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by the registry.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
)

// Remote reports whether provider needs an API key.
func Remote(provider string) bool {
	return provider != ProviderOllama
}
