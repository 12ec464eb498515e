package models

import (
	"fmt"
	"strings"
)

// Provider names the LLM backend a run targets.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderClaude     Provider = "claude"
	ProviderOpenRouter Provider = "openrouter"
	ProviderOllama     Provider = "ollama"
)

// AgentConfig is the immutable configuration of one agent run.
type AgentConfig struct {
	Provider       Provider     `json:"provider"`
	Model          string       `json:"model"`
	APIKey         string       `json:"api_key"`
	Temperature    float64      `json:"temperature"`
	MaxTokens      int          `json:"max_tokens"`
	MaxIterations  int          `json:"max_iterations"`
	ShellTimeout   int          `json:"shell_timeout"`
	BaseURL        string       `json:"base_url,omitempty"`
	ApprovalMode   ApprovalMode `json:"approval_mode"`
}

// Validate checks AgentConfig against the bounds fixed by the data model.
func (c AgentConfig) Validate() error {
	if n := len(c.Model); n < 1 || n > 100 {
		return fmt.Errorf("config: model must be 1-100 chars, got %d", n)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config: temperature must be in [0,2], got %v", c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 200000 {
		return fmt.Errorf("config: max_tokens must be in [1,200000], got %d", c.MaxTokens)
	}
	if c.MaxIterations < 1 || c.MaxIterations > 100 {
		return fmt.Errorf("config: max_iterations must be in [1,100], got %d", c.MaxIterations)
	}
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("config: base_url must begin with http:// or https://, got %q", c.BaseURL)
	}
	return nil
}
