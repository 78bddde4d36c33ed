package aliyun

import "time"

// DefaultEndpoint is the DashScope text-generation endpoint used when no
// endpoint is configured.
const DefaultEndpoint = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

// defaultModels is the fallback model list used when the configuration
// does not declare one.
var defaultModels = []string{
	"qwen-turbo", "qwen-plus", "qwen-max",
	"qwen3-235b-a22b", "qwen3-30b-a3b", "qwen-plus-latest",
	"qwen-turbo-latest", "qwen-vl-max", "qwen-vl-plus",
}

// Config holds configuration for the Aliyun DashScope provider adapter.
type Config struct {
	// APIKey for DashScope authentication. Its absence is detected at call
	// time, not at construction, so a gateway configured with only other
	// providers can still start.
	APIKey string

	// Endpoint is the full URL of the text-generation API.
	// Defaults to DefaultEndpoint.
	Endpoint string

	// Models overrides the supported model list. Defaults to the Qwen
	// family list.
	Models []string

	// Timeout for individual HTTP requests. Defaults to 60s.
	Timeout time.Duration
}
