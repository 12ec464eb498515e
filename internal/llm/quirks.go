package llm

import "strings"

// isOSeriesOrGPT5 reports whether model belongs to a family that takes
// max_completion_tokens instead of max_tokens and rejects a temperature
// parameter: OpenAI's o-series (o1, o3, o4-mini, ...) and the gpt-5
// family. The family is derived from the trailing path segment, since
// OpenRouter-style names are prefixed "<vendor>/<model>".
func isOSeriesOrGPT5(model string) bool {
	name := model
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.ToLower(name)
	if strings.HasPrefix(name, "gpt-5") {
		return true
	}
	if len(name) >= 2 && name[0] == 'o' && name[1] >= '0' && name[1] <= '9' {
		return true
	}
	return false
}
