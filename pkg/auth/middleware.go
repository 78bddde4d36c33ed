package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/modelgate/modelgate/pkg/api"
	"github.com/modelgate/modelgate/pkg/callog"
	"github.com/modelgate/modelgate/pkg/debug"
	"github.com/modelgate/modelgate/pkg/observability"
)

// Middleware creates HTTP middleware from an AuthChain and optional RateLimiter.
// It checks the bypass list, runs authentication, injects the subject into
// the request context for call-log scoping, and optionally enforces rate
// limits.
func Middleware(chain *AuthChain, limiter RateLimiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check bypass list.
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// Run auth chain.
			result := chain.Authenticate(r.Context(), r)

			if result.Decision == No {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				writeAuthError(w, http.StatusUnauthorized, api.NewUnauthorizedError("authentication required"))
				return
			}

			if result.Decision != Yes || result.Identity == nil {
				writeAuthError(w, http.StatusUnauthorized, api.NewUnauthorizedError("authentication required"))
				return
			}

			// Validate identity.
			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				writeAuthError(w, http.StatusInternalServerError, api.NewServerError("internal authentication error"))
				return
			}

			debug.Log("auth", "authentication succeeded",
				"subject", result.Identity.Subject,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			// Rate limiting (if configured).
			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", result.Identity.Subject,
						"tier", result.Identity.ServiceTier,
					)
					tier := result.Identity.ServiceTier
					if tier == "" {
						tier = "default"
					}
					observability.RateLimitRejectedTotal.WithLabelValues(tier).Inc()
					writeAuthError(w, http.StatusTooManyRequests, api.NewTooManyRequestsError("rate limit exceeded"))
					return
				}
			}

			// Inject identity into context, and the subject for call-log
			// scoping.
			ctx := SetIdentity(r.Context(), result.Identity)
			ctx = callog.SetSubject(ctx, result.Identity.Subject)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes the standard error envelope with the given status.
func writeAuthError(w http.ResponseWriter, status int, detail *api.ErrorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: detail})
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/healthz", "/readyz", "/metrics"}
