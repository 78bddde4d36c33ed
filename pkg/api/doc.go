// Package api defines the unified schema and error taxonomy for the
// modelgate provider gateway.
//
// Every upstream inference service speaks its own dialect; this package
// holds the one shape they all normalize into: [ChatResult] with its
// ordered [Choice] list and always-present [UsageStats]. It also defines
// the caller-facing [InvokeRequest] wire type, the typed error taxonomy
// matched with errors.As (ProviderNotFoundError, UnsupportedModelError,
// MissingInputError, InvalidParameterTypeError, ConfigurationError,
// UpstreamError), and ID generation for call records.
//
// The package has zero external dependencies (Go standard library only)
// and performs no I/O.
package api
