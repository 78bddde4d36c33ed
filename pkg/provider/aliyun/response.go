package aliyun

import (
	"time"

	"github.com/google/uuid"

	"github.com/modelgate/modelgate/pkg/api"
)

// normalizeResponse converts a DashScope generation envelope into the
// unified ChatResult shape. DashScope reports output either as a flat text
// field or as a choices list; the flat form maps to exactly one choice at
// index 0. Missing usage yields zero-valued stats, never an absent field.
func normalizeResponse(resp *generationResponse, model string) *api.ChatResult {
	result := &api.ChatResult{
		ID:      resp.RequestID,
		Model:   model,
		Created: time.Now().Unix(),
	}
	if result.ID == "" {
		result.ID = uuid.NewString()
	}

	if out := resp.Output; out != nil {
		switch {
		case out.Text != nil:
			result.Choices = append(result.Choices, api.Choice{
				Index: 0,
				Message: api.ChoiceMessage{
					Role:    "assistant",
					Content: *out.Text,
				},
				FinishReason: defaultFinishReason(out.FinishReason),
			})
		default:
			for i, choice := range out.Choices {
				result.Choices = append(result.Choices, api.Choice{
					Index: i,
					Message: api.ChoiceMessage{
						Role:      "assistant",
						Content:   choice.Message.Content,
						ToolCalls: choice.Message.ToolCalls,
					},
					FinishReason: defaultFinishReason(choice.FinishReason),
				})
			}
		}
	}

	if u := resp.Usage; u != nil {
		result.Usage = api.UsageStats{
			PromptTokens:     u.InputTokens,
			CompletionTokens: u.OutputTokens,
			TotalTokens:      u.TotalTokens,
		}
	}

	return result
}

// defaultFinishReason substitutes "stop" when the upstream omits the field.
func defaultFinishReason(reason string) string {
	if reason == "" {
		return "stop"
	}
	return reason
}
