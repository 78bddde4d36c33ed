package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/modelgate/modelgate/pkg/api"
	"github.com/modelgate/modelgate/pkg/debug"
	"github.com/modelgate/modelgate/pkg/provider"
)

// Name is the registry key for this provider.
const Name = "deepseek"

// DeepSeekProvider implements provider.Provider for the DeepSeek Chat
// Completions API.
type DeepSeekProvider struct {
	cfg    Config
	client *http.Client
	spec   provider.ValidationSpec
}

// Ensure DeepSeekProvider implements provider.Provider at compile time.
var _ provider.Provider = (*DeepSeekProvider)(nil)

// New creates a DeepSeekProvider. Missing configuration fields fall back to
// the DeepSeek defaults; the API key is only checked when a call is made.
func New(cfg Config) *DeepSeekProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if len(cfg.Models) == 0 {
		cfg.Models = defaultModels
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &DeepSeekProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		spec: provider.ValidationSpec{
			Provider:  Name,
			Supported: cfg.Models,
			// The Chat Completions schema rejects a stray prompt key, so
			// it is removed once converted to messages.
			DropPrompt: true,
		},
	}
}

// Name returns the provider identifier.
func (p *DeepSeekProvider) Name() string {
	return Name
}

// SupportedModels returns the models this provider accepts.
func (p *DeepSeekProvider) SupportedModels() []string {
	models := make([]string, len(p.cfg.Models))
	copy(models, p.cfg.Models)
	return models
}

// Capabilities returns what this provider supports.
func (p *DeepSeekProvider) Capabilities() provider.ProviderCapabilities {
	return provider.ProviderCapabilities{
		Streaming: true,
		ToolCalls: true,
		Reasoning: true,
	}
}

// ValidateParameters applies the DeepSeek parameter rules: max_tokens is
// capped at 32768 and defaults to 4096, temperature is clamped to [0, 2]
// with default 0.7, and top_p to [0, 1] with default 0.9. The
// deepseek-reasoner model forbids temperature and top_p; both are removed
// so they end up absent rather than defaulted. Unknown keys, including
// seed and top_k which DeepSeek does not declare, pass through untouched.
func (p *DeepSeekProvider) ValidateParameters(model string, params provider.RequestParameters) (*provider.ValidatedParameters, error) {
	vp, err := p.spec.Validate(model, params)
	if err != nil {
		return nil, err
	}

	maxTokens, ok, err := vp.TakeInt("max_tokens")
	if err != nil {
		return nil, err
	}
	if !ok {
		maxTokens = 4096
	}
	vp.MaxTokens = min(maxTokens, 32768)

	if model == reasonerModel {
		vp.Drop("temperature")
		vp.Drop("top_p")
		return vp, nil
	}

	temp, ok, err := vp.TakeFloat("temperature")
	if err != nil {
		return nil, err
	}
	if !ok {
		temp = 0.7
	}
	temp = max(0.0, min(temp, 2.0))
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

	return vp, nil
}

// CallModel validates the parameters, posts the chat completion request to
// DeepSeek, and normalizes the response into a ChatResult.
func (p *DeepSeekProvider) CallModel(ctx context.Context, model string, params provider.RequestParameters) (*api.ChatResult, error) {
	vp, err := p.ValidateParameters(model, params)
	if err != nil {
		return nil, err
	}

	if p.cfg.APIKey == "" {
		return nil, &api.ConfigurationError{Provider: Name, Reason: "API key not configured"}
	}

	body, err := json.Marshal(buildChatRequest(vp))
	if err != nil {
		return nil, &api.UpstreamError{Provider: Name, Err: fmt.Errorf("marshal request: %w", err)}
	}

	slog.Info("calling deepseek model",
		"model", model,
		"messages", len(vp.Messages),
		"max_tokens", vp.MaxTokens,
		"stream", vp.Stream)
	debug.Log("providers", "deepseek request", "base_url", p.cfg.BaseURL, "bytes", len(body))
	debug.Raw("providers", string(body))

	url := p.cfg.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &api.UpstreamError{Provider: Name, Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		uerr := mapNetworkError(err)
		slog.Error("deepseek call failed", "model", model, "error", uerr)
		return nil, uerr
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		uerr := mapHTTPError(httpResp)
		slog.Error("deepseek call failed",
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

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, &api.UpstreamError{Provider: Name, Err: fmt.Errorf("parse response: %w", err)}
	}

	result := normalizeResponse(&chatResp)
	slog.Info("deepseek call completed",
		"model", model,
		"id", chatResp.ID,
		"choices", len(result.Choices),
		"total_tokens", result.Usage.TotalTokens)
	return result, nil
}

// Close releases provider resources.
func (p *DeepSeekProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
