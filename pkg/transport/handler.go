package transport

import (
	"context"

	"github.com/modelgate/modelgate/pkg/api"
	"github.com/modelgate/modelgate/pkg/provider"
)

// Invoker handles the core invoke operation. It is the contract between the
// HTTP layer and the dispatcher: the implementation routes the call to the
// named provider and returns the normalized result or a classified error.
type Invoker interface {
	Invoke(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error)
}

// InvokerFunc is an adapter that allows using an ordinary function as an
// Invoker.
type InvokerFunc func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error)

// Invoke calls f(ctx, providerName, model, params).
func (f InvokerFunc) Invoke(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
	return f(ctx, providerName, model, params)
}

// ProviderDirectory is the read-only view of the provider registry used by
// the listing endpoints. *provider.Registry satisfies it.
type ProviderDirectory interface {
	// Lookup returns the provider registered under name. Fails with
	// api.ProviderNotFoundError for unknown names.
	Lookup(name string) (provider.Provider, error)

	// Names returns the registered provider names in registration order.
	Names() []string
}
