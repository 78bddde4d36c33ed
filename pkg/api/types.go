package api

import "encoding/json"

// Message is a single turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FunctionCall is a legacy-style single function invocation emitted by an
// upstream. It is carried through verbatim, never synthesized.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChoiceMessage is the message inside a Choice. ToolCalls, ReasoningContent,
// and FunctionCall are optional capability fields: they appear exactly when
// the upstream emitted them and are omitted otherwise.
type ChoiceMessage struct {
	Role             string          `json:"role"`
	Content          string          `json:"content"`
	ToolCalls        json.RawMessage `json:"tool_calls,omitempty"`
	ReasoningContent string          `json:"reasoning_content,omitempty"`
	FunctionCall     *FunctionCall   `json:"function_call,omitempty"`
}

// Choice is one completion alternative in a ChatResult.
type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// UsageStats reports token consumption for a call. It is always present on
// a ChatResult; when the upstream omits usage all three counters are zero.
type UsageStats struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult is the unified response shape every provider normalizes into,
// regardless of the upstream's native envelope.
type ChatResult struct {
	ID      string     `json:"-"`
	Model   string     `json:"-"`
	Created int64      `json:"-"`
	Choices []Choice   `json:"-"`
	Usage   UsageStats `json:"-"`
}

// MarshalJSON ensures choices is always an array, never null.
func (r ChatResult) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID      string     `json:"id"`
		Model   string     `json:"model"`
		Created int64      `json:"created"`
		Choices []Choice   `json:"choices"`
		Usage   UsageStats `json:"usage"`
	}
	w := wire{
		ID:      r.ID,
		Model:   r.Model,
		Created: r.Created,
		Choices: r.Choices,
		Usage:   r.Usage,
	}
	if w.Choices == nil {
		w.Choices = []Choice{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON deserializes a ChatResult.
func (r *ChatResult) UnmarshalJSON(data []byte) error {
	type wire struct {
		ID      string     `json:"id"`
		Model   string     `json:"model"`
		Created int64      `json:"created"`
		Choices []Choice   `json:"choices"`
		Usage   UsageStats `json:"usage"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.ID = w.ID
	r.Model = w.Model
	r.Created = w.Created
	r.Choices = w.Choices
	r.Usage = w.Usage
	return nil
}

// InvokeRequest is the caller-facing request body for POST /v1/invoke.
// Parameters is an open map: known keys are validated and clamped by the
// selected provider, unknown keys are forwarded verbatim.
type InvokeRequest struct {
	Provider   string         `json:"provider"`
	Model      string         `json:"model"`
	Parameters map[string]any `json:"parameters"`
}
