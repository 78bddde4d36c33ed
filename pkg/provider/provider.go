package provider

import (
	"context"

	"github.com/modelgate/modelgate/pkg/api"
)

// Provider abstracts one upstream inference service. Each adapter handles
// its own request schema, parameter bounds, authentication, and response
// normalization internally; callers only ever see RequestParameters going
// in and the unified api.ChatResult coming out.
//
// Implementations must be safe for concurrent use by multiple goroutines,
// and instances are process-lifetime singletons: nothing on a Provider is
// mutated after registration.
type Provider interface {
	// Name returns the provider identifier used as the Registry key
	// (e.g., "aliyun", "deepseek").
	Name() string

	// SupportedModels returns the models this provider accepts, in a
	// stable order. The list comes from configuration with a hard-coded
	// fallback; it is the sole gate for model validity.
	SupportedModels() []string

	// Capabilities returns what this provider's upstream supports.
	Capabilities() ProviderCapabilities

	// ValidateParameters checks model membership and input presence, then
	// applies this provider's clamp/default/coercion rules. The caller's
	// map is never mutated. Fails with api.UnsupportedModelError,
	// api.MissingInputError, or api.InvalidParameterTypeError.
	ValidateParameters(model string, params RequestParameters) (*ValidatedParameters, error)

	// CallModel orchestrates validate, upstream call, and normalization.
	// It is a single attempt with a bounded timeout; cancellation of ctx
	// aborts the pending network operation. Fails with the validation
	// errors above, api.ConfigurationError when credentials are unset, or
	// api.UpstreamError for any transport or upstream-declared failure.
	CallModel(ctx context.Context, model string, params RequestParameters) (*api.ChatResult, error)

	// Close releases provider resources (HTTP connections).
	Close() error
}

// ProviderCapabilities declares what the upstream behind a provider
// supports. Streaming is a flag only: the gateway forwards it to the
// upstream where applicable but never opens an event stream itself.
type ProviderCapabilities struct {
	// Streaming indicates the upstream accepts a streaming-enable flag.
	Streaming bool `json:"streaming"`

	// ToolCalls indicates the upstream may emit tool_calls entries,
	// which are carried through verbatim.
	ToolCalls bool `json:"tool_calls"`

	// Reasoning indicates the upstream may emit reasoning content.
	Reasoning bool `json:"reasoning"`
}
