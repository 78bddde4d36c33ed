// Package transport defines the handler interface and middleware chain for
// the modelgate HTTP transport layer.
//
// The transport layer bridges external clients and the dispatcher. It
// deserializes incoming requests into the types defined in pkg/api, routes
// them through the Invoker, and serializes the unified ChatResult (or a
// classified error envelope) back to the client as JSON.
//
// # Handler Interfaces
//
// Invoker is the contract between the transport layer and the dispatcher:
// one call in, one normalized result or classified error out. The listing
// endpoints additionally read from a ProviderDirectory (the registry) and a
// callog.Store (the call log).
//
// # Middleware
//
// The middleware chain wraps Invoker with cross-cutting concerns. Built-in
// middleware provides panic recovery, request ID assignment (X-Request-ID),
// and structured logging via log/slog. Request metrics and authentication
// are HTTP-level middleware and live in pkg/observability and pkg/auth.
//
// # Error Mapping
//
// Every error produced along the call path maps onto the shared envelope
// {"error": {"type", "message", "param"?}}. HTTPStatusForType fixes the
// status code per error type: routing failures are 404, validation
// failures 400, missing credentials 500, upstream failures 502.
package transport
