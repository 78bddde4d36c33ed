package api

import "fmt"

// ValidationConfig holds configurable limits for invoke request validation.
type ValidationConfig struct {
	MaxMessages    int
	MaxContentSize int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxMessages:    1000,
		MaxContentSize: 10 * 1024 * 1024, // 10MB
	}
}

// ValidateInvokeRequest checks an InvokeRequest for transport-level validity.
// It returns an *ErrorDetail describing the first failure, or nil if the
// request is acceptable.
//
// Only routing fields and size limits are checked here. Input presence
// (prompt or messages) and parameter bounds are deliberately left to the
// selected provider, which owns those rules and their error types.
func ValidateInvokeRequest(req *InvokeRequest, cfg ValidationConfig) *ErrorDetail {
	if req.Provider == "" {
		return NewInvalidRequestError("provider", "provider is required")
	}

	if req.Model == "" {
		return NewInvalidRequestError("model", "model is required")
	}

	raw, ok := req.Parameters["messages"]
	if !ok {
		return nil
	}

	msgs, ok := raw.([]any)
	if !ok {
		// Anything that is not a list is rejected before it reaches the
		// provider layer, which assumes list-shaped messages.
		return NewInvalidRequestError("messages", "messages must be a list")
	}

	if cfg.MaxMessages > 0 && len(msgs) > cfg.MaxMessages {
		return NewInvalidRequestError("messages",
			fmt.Sprintf("messages exceeds maximum of %d items", cfg.MaxMessages))
	}

	if cfg.MaxContentSize > 0 {
		total := 0
		for _, m := range msgs {
			obj, ok := m.(map[string]any)
			if !ok {
				continue
			}
			if content, ok := obj["content"].(string); ok {
				total += len(content)
			}
		}
		if total > cfg.MaxContentSize {
			return NewInvalidRequestError("messages",
				fmt.Sprintf("message content exceeds maximum of %d bytes", cfg.MaxContentSize))
		}
	}

	return nil
}
