package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/modelgate/modelgate/pkg/api"
	"github.com/modelgate/modelgate/pkg/callog"
	"github.com/modelgate/modelgate/pkg/transport"
)

// Adapter serves the modelgate API over HTTP.
// It routes requests to the appropriate handler and serializes responses.
type Adapter struct {
	invoker   transport.Invoker
	directory transport.ProviderDirectory
	store     callog.Store // nil if call-log reads are disabled
	mux       *http.ServeMux
	config    Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
	Validation  api.ValidationConfig
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 10 << 20, // 10 MB
		Validation:  api.DefaultValidationConfig(),
	}
}

// NewAdapter creates an HTTP adapter with the given Invoker and options.
// The directory backs the provider listing endpoints; the store backs the
// call-log read endpoints and is optional (pass nil to disable them).
// Middleware is applied to the Invoker in the given order.
func NewAdapter(invoker transport.Invoker, directory transport.ProviderDirectory, store callog.Store, cfg Config, middlewares ...transport.Middleware) *Adapter {
	// Apply middleware chain to the invoker.
	if len(middlewares) > 0 {
		invoker = transport.Chain(middlewares...)(invoker)
	}

	a := &Adapter{
		invoker:   invoker,
		directory: directory,
		store:     store,
		mux:       http.NewServeMux(),
		config:    cfg,
	}

	a.mux.HandleFunc("POST /v1/invoke", a.handleInvoke)
	a.mux.HandleFunc("GET /v1/providers", a.handleListProviders)
	a.mux.HandleFunc("GET /v1/providers/{name}/models", a.handleProviderModels)
	a.mux.HandleFunc("GET /v1/calls/{id}", a.handleGetCall)
	a.mux.HandleFunc("GET /v1/calls", a.handleListCalls)
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReadyz)

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// httpRequestIDMiddleware is HTTP-level middleware that propagates the
// X-Request-ID header. If present in the request, it is forwarded to
// the response. After the handler runs, it checks the context for a
// request ID (set by the transport-level RequestID middleware) and adds
// it to the response headers if not already set.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If client sent X-Request-ID, propagate it into context.
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx := transport.ContextWithRequestID(r.Context(), id)
			r = r.WithContext(ctx)
		}
		// Use a response writer wrapper to capture and set the request ID
		// header before the first write.
		rw := &requestIDResponseWriter{ResponseWriter: w, r: r}
		next.ServeHTTP(rw, r)
	})
}

// requestIDResponseWriter wraps http.ResponseWriter to inject the
// X-Request-ID header before the first write.
type requestIDResponseWriter struct {
	http.ResponseWriter
	r           *http.Request
	headersSent bool
}

func (w *requestIDResponseWriter) WriteHeader(statusCode int) {
	w.ensureRequestIDHeader()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *requestIDResponseWriter) Write(b []byte) (int, error) {
	w.ensureRequestIDHeader()
	return w.ResponseWriter.Write(b)
}

func (w *requestIDResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *requestIDResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *requestIDResponseWriter) ensureRequestIDHeader() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	if id := transport.RequestIDFromContext(w.r.Context()); id != "" {
		w.ResponseWriter.Header().Set("X-Request-ID", id)
	}
}

// handleInvoke handles POST /v1/invoke.
func (a *Adapter) handleInvoke(w http.ResponseWriter, r *http.Request) {
	// Validate Content-Type.
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	// Limit body size.
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	// Decode request.
	var req api.InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	if detail := api.ValidateInvokeRequest(&req, a.config.Validation); detail != nil {
		transport.WriteErrorResponse(w, detail, http.StatusBadRequest)
		return
	}

	result, err := a.invoker.Invoke(r.Context(), req.Provider, req.Model, req.Parameters)
	if err != nil {
		transport.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// providerInfo is one entry in the provider listing.
type providerInfo struct {
	Name         string   `json:"name"`
	Models       []string `json:"models"`
	Capabilities any      `json:"capabilities"`
}

// providerList is the response body for GET /v1/providers.
type providerList struct {
	Object string         `json:"object"`
	Data   []providerInfo `json:"data"`
}

// modelList is the response body for GET /v1/providers/{name}/models.
type modelList struct {
	Object   string   `json:"object"`
	Provider string   `json:"provider"`
	Data     []string `json:"data"`
}

// handleListProviders handles GET /v1/providers.
func (a *Adapter) handleListProviders(w http.ResponseWriter, r *http.Request) {
	names := a.directory.Names()
	list := providerList{Object: "list", Data: make([]providerInfo, 0, len(names))}

	for _, name := range names {
		p, err := a.directory.Lookup(name)
		if err != nil {
			// Registry contents are immutable after startup; a name from
			// Names that fails Lookup means the directory is broken.
			transport.WriteError(w, api.NewServerError("provider listing inconsistent: "+err.Error()))
			return
		}
		list.Data = append(list.Data, providerInfo{
			Name:         p.Name(),
			Models:       p.SupportedModels(),
			Capabilities: p.Capabilities(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// handleProviderModels handles GET /v1/providers/{name}/models.
func (a *Adapter) handleProviderModels(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	p, err := a.directory.Lookup(name)
	if err != nil {
		transport.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(modelList{
		Object:   "list",
		Provider: p.Name(),
		Data:     p.SupportedModels(),
	})
}

// handleGetCall handles GET /v1/calls/{id}.
func (a *Adapter) handleGetCall(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "call log is not available (no store configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	id := r.PathValue("id")
	if !api.ValidateCallID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed call ID"),
			http.StatusBadRequest,
		)
		return
	}

	rec, err := a.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, callog.ErrNotFound) {
			transport.WriteError(w, api.NewNotFoundError("call "+id+" not found"))
		} else {
			transport.WriteError(w, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// handleListCalls handles GET /v1/calls.
func (a *Adapter) handleListCalls(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "call log is not available (no store configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	opts, detail := parseListOptions(r)
	if detail != nil {
		transport.WriteErrorResponse(w, detail, http.StatusBadRequest)
		return
	}

	result, err := a.store.List(r.Context(), opts)
	if err != nil {
		transport.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// handleHealthz handles GET /healthz (liveness).
func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// handleReadyz handles GET /readyz (readiness). A gateway with a call-log
// store is ready only when the store answers its health check.
func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.store != nil {
		if err := a.store.HealthCheck(r.Context()); err != nil {
			transport.WriteErrorResponse(w,
				api.NewServerError("call log store unavailable: "+err.Error()),
				http.StatusServiceUnavailable,
			)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// parseListOptions extracts pagination and filter parameters from the query
// string.
func parseListOptions(r *http.Request) (callog.ListOptions, *api.ErrorDetail) {
	q := r.URL.Query()
	opts := callog.ListOptions{
		After:    q.Get("after"),
		Before:   q.Get("before"),
		Provider: q.Get("provider"),
		Model:    q.Get("model"),
		Order:    q.Get("order"),
	}

	if opts.After != "" && opts.Before != "" {
		return opts, api.NewInvalidRequestError("after", "cannot use both 'after' and 'before' cursors")
	}

	if opts.Order != "" && opts.Order != "asc" && opts.Order != "desc" {
		return opts, api.NewInvalidRequestError("order", "order must be 'asc' or 'desc'")
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return opts, api.NewInvalidRequestError("limit", "limit must be a positive integer")
		}
		opts.Limit = limit
	}

	return opts, nil
}
