package deepseek

import "time"

// DefaultBaseURL is the DeepSeek API base used when none is configured.
const DefaultBaseURL = "https://api.deepseek.com"

// defaultModels is the fallback model list used when the configuration
// does not declare one.
var defaultModels = []string{"deepseek-chat", "deepseek-reasoner"}

// reasonerModel rejects sampling parameters; validation leaves temperature
// and top_p absent for it instead of defaulting them.
const reasonerModel = "deepseek-reasoner"

// Config holds configuration for the DeepSeek provider adapter.
type Config struct {
	// APIKey for DeepSeek authentication. Its absence is detected at call
	// time, not at construction.
	APIKey string

	// BaseURL is the API base; /chat/completions is appended.
	// Defaults to DefaultBaseURL.
	BaseURL string

	// Models overrides the supported model list.
	Models []string

	// Timeout for individual HTTP requests. Defaults to 60s.
	Timeout time.Duration
}
