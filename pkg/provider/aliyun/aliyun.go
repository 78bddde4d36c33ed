package aliyun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelgate/modelgate/pkg/api"
	"github.com/modelgate/modelgate/pkg/debug"
	"github.com/modelgate/modelgate/pkg/provider"
)

// Name is the registry key for this provider.
const Name = "aliyun"

// AliyunProvider implements provider.Provider for the DashScope
// text-generation API.
type AliyunProvider struct {
	cfg    Config
	client *http.Client
	spec   provider.ValidationSpec
}

// Ensure AliyunProvider implements provider.Provider at compile time.
var _ provider.Provider = (*AliyunProvider)(nil)

// New creates an AliyunProvider. Missing configuration fields fall back to
// the DashScope defaults; the API key is only checked when a call is made.
func New(cfg Config) *AliyunProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if len(cfg.Models) == 0 {
		cfg.Models = defaultModels
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &AliyunProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		spec: provider.ValidationSpec{
			Provider:  Name,
			Supported: cfg.Models,
			// DashScope requests never carry the prompt key, so the
			// converted prompt can stay in the validated set.
			DropPrompt: false,
		},
	}
}

// Name returns the provider identifier.
func (p *AliyunProvider) Name() string {
	return Name
}

// SupportedModels returns the models this provider accepts.
func (p *AliyunProvider) SupportedModels() []string {
	models := make([]string, len(p.cfg.Models))
	copy(models, p.cfg.Models)
	return models
}

// Capabilities returns what this provider supports.
func (p *AliyunProvider) Capabilities() provider.ProviderCapabilities {
	return provider.ProviderCapabilities{
		Streaming: true,
		ToolCalls: true,
	}
}

// ValidateParameters applies the DashScope parameter rules: max_tokens is
// capped at 6000 and defaults to 2048, temperature is clamped to [0, 1]
// with default 0.7, top_p to [0, 1] with default 0.9, top_k to [1, 100]
// when present, and seed is coerced to an integer when present. The
// enable_thinking flag defaults to false; a caller-supplied value is
// forwarded verbatim. Unknown keys pass through untouched.
func (p *AliyunProvider) ValidateParameters(model string, params provider.RequestParameters) (*provider.ValidatedParameters, error) {
	vp, err := p.spec.Validate(model, params)
	if err != nil {
		return nil, err
	}

	maxTokens, ok, err := vp.TakeInt("max_tokens")
	if err != nil {
		return nil, err
	}
	if !ok {
		maxTokens = 2048
	}
	vp.MaxTokens = min(maxTokens, 6000)

	temp, ok, err := vp.TakeFloat("temperature")
	if err != nil {
		return nil, err
	}
	if !ok {
		temp = 0.7
	}
	temp = max(0.0, min(temp, 1.0))
	vp.Temperature = &temp

	topP, ok, err := vp.TakeFloat("top_p")
	if err != nil {
		return nil, err
	}
	if !ok {
		topP = 0.9
	}
	topP = max(0.0, min(topP, 1.0))
	vp.TopP = &topP

	topK, ok, err := vp.TakeInt("top_k")
	if err != nil {
		return nil, err
	}
	if ok {
		topK = max(1, min(topK, 100))
		vp.TopK = &topK
	}

	seed, ok, err := vp.TakeInt("seed")
	if err != nil {
		return nil, err
	}
	if ok {
		vp.Seed = &seed
	}

	if _, ok := vp.Extra["enable_thinking"]; !ok {
		vp.Extra["enable_thinking"] = false
	}

	return vp, nil
}

// CallModel validates the parameters, posts the generation request to
// DashScope, and normalizes the response into a ChatResult.
func (p *AliyunProvider) CallModel(ctx context.Context, model string, params provider.RequestParameters) (*api.ChatResult, error) {
	vp, err := p.ValidateParameters(model, params)
	if err != nil {
		return nil, err
	}

	if p.cfg.APIKey == "" {
		return nil, &api.ConfigurationError{Provider: Name, Reason: "API key not configured"}
	}

	body, err := json.Marshal(buildGenerationRequest(vp))
	if err != nil {
		return nil, &api.UpstreamError{Provider: Name, Err: fmt.Errorf("marshal request: %w", err)}
	}

	slog.Info("calling aliyun model",
		"model", model,
		"messages", len(vp.Messages),
		"max_tokens", vp.MaxTokens,
		"stream", vp.Stream)
	debug.Log("providers", "aliyun request", "endpoint", p.cfg.Endpoint, "bytes", len(body))
	debug.Raw("providers", string(body))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &api.UpstreamError{Provider: Name, Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	if vp.Stream {
		httpReq.Header.Set("X-DashScope-SSE", "enable")
	} else {
		httpReq.Header.Set("X-DashScope-SSE", "disable")
	}
	httpReq.Header.Set("X-DashScope-DataInspection", "disable")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		uerr := mapNetworkError(err)
		slog.Error("aliyun call failed", "model", model, "error", uerr)
		return nil, uerr
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		uerr := mapHTTPError(httpResp)
		slog.Error("aliyun call failed",
			"model", model,
			"status", httpResp.StatusCode,
			"message", uerr.Message)
		return nil, uerr
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &api.UpstreamError{Provider: Name, Err: fmt.Errorf("read response: %w", err)}
	}
	debug.Raw("providers", string(respBody))

	var genResp generationResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, &api.UpstreamError{Provider: Name, Err: fmt.Errorf("parse response: %w", err)}
	}

	result := normalizeResponse(&genResp, vp.Model)
	slog.Info("aliyun call completed",
		"model", model,
		"request_id", genResp.RequestID,
		"choices", len(result.Choices),
		"total_tokens", result.Usage.TotalTokens)
	return result, nil
}

// Close releases provider resources.
func (p *AliyunProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
