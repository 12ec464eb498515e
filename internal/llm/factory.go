package llm

import "fmt"

// Provider identifies which backend a Client talks to.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenRouter Provider = "openrouter"
	ProviderOllama     Provider = "ollama"
)

// DefaultModel returns the out-of-the-box model for a provider.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o"
	case ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	case ProviderOpenRouter:
		return "openai/gpt-4o"
	case ProviderOllama:
		return "llama3.1"
	default:
		return ""
	}
}

// DefaultBaseURL returns the out-of-the-box base URL for a provider, or ""
// when the SDK's built-in default should be used unmodified (OpenAI,
// Anthropic).
func DefaultBaseURL(p Provider) string {
	switch p {
	case ProviderOpenRouter:
		return "https://openrouter.ai/api/v1"
	case ProviderOllama:
		return "http://localhost:11434"
	default:
		return ""
	}
}

// New builds a Client for provider. apiKey may be empty for Ollama, which
// needs no credential.
func New(provider Provider, apiKey, baseURL string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey), nil
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, baseURL), nil
	case ProviderOpenRouter:
		return NewOpenRouterClient(apiKey, baseURL), nil
	case ProviderOllama:
		return NewOllamaClient(baseURL), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
