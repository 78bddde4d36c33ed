package aliyun

import (
	"encoding/json"

	"github.com/modelgate/modelgate/pkg/api"
)

// DashScope text-generation request/response types.

// generationRequest is the request body for the text-generation endpoint.
// The conversation travels under input, every tuning knob under parameters.
type generationRequest struct {
	Model      string          `json:"model"`
	Input      generationInput `json:"input"`
	Parameters map[string]any  `json:"parameters"`
}

// generationInput carries the conversation for a generation call.
type generationInput struct {
	Messages []api.Message `json:"messages"`
}

// generationResponse is the non-streaming response envelope.
type generationResponse struct {
	RequestID string            `json:"request_id"`
	Output    *generationOutput `json:"output"`
	Usage     *generationUsage  `json:"usage"`
}

// generationOutput holds either a flat text completion or a choices list,
// depending on the result format the model answered with. Text is a pointer
// so that an empty completion is still recognized as the flat shape.
type generationOutput struct {
	Text         *string            `json:"text"`
	FinishReason string             `json:"finish_reason"`
	Choices      []generationChoice `json:"choices"`
}

// generationChoice is one completion alternative in the choices shape.
type generationChoice struct {
	Message      generationMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

// generationMessage is the assistant message inside a choice. ToolCalls is
// kept raw and copied through untouched.
type generationMessage struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	ToolCalls json.RawMessage `json:"tool_calls,omitempty"`
}

// generationUsage holds token usage as DashScope reports it.
type generationUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// generationErrorResponse is the error format returned by DashScope.
type generationErrorResponse struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}
