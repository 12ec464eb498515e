// Package credentials resolves LLM provider API keys from the environment
// and runs startup diagnostics on credential, extension-signature, build, and
// environment health (SPEC_FULL.md §4.9).
//
// Grounded on internal/doctor/security_audit.go's severity/findings
// accumulation shape (SecuritySeverity/SecurityFinding/SecurityAudit) and
// internal/commands/health.go's summary-tally aggregation, narrowed to the
// credential/extension/build-mode/environment checks this module names —
// the teacher's doctor package additionally probes database, channel, and
// migration health, which are a different domain and not carried forward.
package credentials

import (
	"fmt"
	"runtime/debug"

	"github.com/vswrite/agent-core/pkg/models"
)

// envVarFor maps a provider to the environment variable its API key is
// read from. Ollama has no entry: it is a local provider and always
// reports available with an empty key.
var envVarFor = map[models.Provider]string{
	models.ProviderOpenAI:     "OPENAI_API_KEY",
	models.ProviderClaude:     "ANTHROPIC_API_KEY",
	models.ProviderOpenRouter: "OPENROUTER_API_KEY",
}

// Lookup resolves provider's API key from the environment. It returns the
// env var name consulted (empty for Ollama, which needs none), the
// resolved key (always empty for Ollama), and whether the provider is
// usable as configured.
func Lookup(provider models.Provider, getenv func(string) string) (envVar, key string, available bool) {
	if provider == models.ProviderOllama {
		return "", "", true
	}
	envVar, ok := envVarFor[provider]
	if !ok {
		return "", "", false
	}
	key = getenv(envVar)
	return envVar, key, key != ""
}
