package deepseek

import (
	"encoding/json"

	"github.com/modelgate/modelgate/pkg/api"
)

// Chat Completions response types. The request side is an open map built in
// translate.go because unknown caller keys are forwarded at the top level
// of the body.

// chatCompletionResponse is the non-streaming response from
// /chat/completions.
type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage"`
}

// chatChoice represents one completion choice.
type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// chatMessage is the assistant message inside a choice. ReasoningContent is
// emitted by deepseek-reasoner; ToolCalls and FunctionCall are copied raw.
type chatMessage struct {
	Role             string            `json:"role"`
	Content          string            `json:"content"`
	ReasoningContent string            `json:"reasoning_content,omitempty"`
	ToolCalls        json.RawMessage   `json:"tool_calls,omitempty"`
	FunctionCall     *api.FunctionCall `json:"function_call,omitempty"`
}

// chatUsage holds token usage from the Chat Completions API.
type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// chatErrorResponse is the error format returned by the DeepSeek API.
type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}
