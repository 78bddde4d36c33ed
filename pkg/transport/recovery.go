package transport

import (
	"context"
	"fmt"

	"github.com/modelgate/modelgate/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next Invoker) Invoker {
		return InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (result *api.ChatResult, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					result = nil
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.Invoke(ctx, providerName, model, params)
		})
	}
}
