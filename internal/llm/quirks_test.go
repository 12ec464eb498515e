package llm

import "testing"

func TestIsOSeriesOrGPT5(t *testing.T) {
	cases := map[string]bool{
		"o1":                 true,
		"o3-mini":            true,
		"o4-mini":            true,
		"gpt-5":              true,
		"gpt-5-mini":         true,
		"gpt-4o":             false,
		"gpt-4-turbo":        false,
		"claude-sonnet-4":    false,
		"openai/o1":          true,
		"openai/gpt-4o":      false,
		"openrouter/auto":    false,
	}
	for model, want := range cases {
		if got := isOSeriesOrGPT5(model); got != want {
			t.Errorf("isOSeriesOrGPT5(%q) = %v, want %v", model, got, want)
		}
	}
}
