package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelgate/modelgate/pkg/api"
)

// Logging returns middleware that emits structured log entries for each
// invoke call. The log entry includes the provider, model, duration,
// request ID (from context), and whether the call succeeded or failed.
//
// HTTP-level details (method, path, status code) are not visible at the
// Invoker level; those are recorded by the metrics middleware in
// pkg/observability.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Invoker) Invoker {
		return InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			result, err := next.Invoke(ctx, providerName, model, params)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("provider", providerName),
				slog.String("model", model),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "invoke failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "invoke completed", attrs...)
			}

			return result, err
		})
	}
}
