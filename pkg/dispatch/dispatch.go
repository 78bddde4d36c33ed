package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/modelgate/modelgate/pkg/api"
	"github.com/modelgate/modelgate/pkg/callog"
	"github.com/modelgate/modelgate/pkg/debug"
	"github.com/modelgate/modelgate/pkg/observability"
	"github.com/modelgate/modelgate/pkg/provider"
)

// saveTimeout bounds the call-record write after the upstream call has
// finished. The write runs on a context detached from the caller's so a
// cancelled call still gets recorded.
const saveTimeout = 5 * time.Second

// Dispatcher looks up providers in the registry and invokes them.
type Dispatcher struct {
	registry *provider.Registry
	store    callog.Store
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for per-call entries. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithStore sets the call-log store. A nil store disables call recording.
func WithStore(s callog.Store) Option {
	return func(d *Dispatcher) { d.store = s }
}

// New creates a Dispatcher over the given registry. The registry must not
// be nil.
func New(registry *provider.Registry, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, fmt.Errorf("dispatch: registry must not be nil")
	}
	d := &Dispatcher{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Invoke dispatches one call to the named provider. Validation, the
// upstream HTTP request, and response normalization all happen inside the
// provider; the dispatcher only adds observation. Lookup errors and
// provider errors are returned unchanged.
func (d *Dispatcher) Invoke(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
	p, err := d.registry.Lookup(providerName)
	if err != nil {
		d.logger.Warn("provider lookup failed", "provider", providerName, "model", model)
		return nil, err
	}

	d.logger.Info("dispatching call",
		"provider", p.Name(),
		"model", model,
		"parameters", len(params))
	debug.Log("dispatch", "call parameters",
		"provider", p.Name(),
		"model", model,
		"keys", paramKeys(params))

	start := time.Now()
	result, err := p.CallModel(ctx, model, provider.RequestParameters(params))
	elapsed := time.Since(start)

	status := callog.StatusOK
	if err != nil {
		status = string(api.ClassifyError(err))
	}

	observability.ProviderRequestsTotal.WithLabelValues(p.Name(), model, status).Inc()
	observability.ProviderLatency.WithLabelValues(p.Name(), model).Observe(elapsed.Seconds())

	if err != nil {
		d.logger.Error("call failed",
			"provider", p.Name(),
			"model", model,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"error", err)
		d.record(ctx, p.Name(), model, status, nil, err, elapsed)
		return nil, err
	}

	observability.ProviderTokensTotal.WithLabelValues(p.Name(), model, "input").Add(float64(result.Usage.PromptTokens))
	observability.ProviderTokensTotal.WithLabelValues(p.Name(), model, "output").Add(float64(result.Usage.CompletionTokens))

	d.logger.Info("call completed",
		"provider", p.Name(),
		"model", model,
		"duration_ms", elapsed.Milliseconds(),
		"choices", len(result.Choices),
		"total_tokens", result.Usage.TotalTokens)
	d.record(ctx, p.Name(), model, status, result, nil, elapsed)
	return result, nil
}

// record appends a call record to the store. Store failures are logged and
// counted, never surfaced to the caller.
func (d *Dispatcher) record(ctx context.Context, providerName, model, status string, result *api.ChatResult, callErr error, elapsed time.Duration) {
	if d.store == nil {
		return
	}

	rec := &callog.CallRecord{
		ID:         api.NewCallID(),
		Provider:   providerName,
		Model:      model,
		Status:     status,
		Result:     result,
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  time.Now().Unix(),
	}
	if callErr != nil {
		rec.ErrorType = status
		rec.ErrorMsg = callErr.Error()
	}

	// Detach from the caller's cancellation so a cancelled or timed-out
	// call still leaves an audit row.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := d.store.Save(saveCtx, rec); err != nil {
		observability.CallLogWritesTotal.WithLabelValues("error").Inc()
		d.logger.Error("call record write failed", "id", rec.ID, "error", err)
		return
	}
	observability.CallLogWritesTotal.WithLabelValues("ok").Inc()
	debug.Log("callog", "call record written", "id", rec.ID, "provider", providerName, "status", status)
}

func paramKeys(params map[string]any) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
