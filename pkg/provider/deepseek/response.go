package deepseek

import (
	"time"

	"github.com/modelgate/modelgate/pkg/api"
)

// normalizeResponse converts a Chat Completions envelope into the unified
// ChatResult shape. Choices map one to one with the upstream's indexes and
// finish reasons kept verbatim; reasoning content, tool calls, and legacy
// function calls are copied through untouched when present. Missing usage
// yields zero-valued stats, never an absent field.
func normalizeResponse(resp *chatCompletionResponse) *api.ChatResult {
	result := &api.ChatResult{
		ID:      resp.ID,
		Model:   resp.Model,
		Created: resp.Created,
	}
	if result.Created == 0 {
		result.Created = time.Now().Unix()
	}

	for _, choice := range resp.Choices {
		result.Choices = append(result.Choices, api.Choice{
			Index: choice.Index,
			Message: api.ChoiceMessage{
				Role:             choice.Message.Role,
				Content:          choice.Message.Content,
				ReasoningContent: choice.Message.ReasoningContent,
				ToolCalls:        choice.Message.ToolCalls,
				FunctionCall:     choice.Message.FunctionCall,
			},
			FinishReason: choice.FinishReason,
		})
	}

	if u := resp.Usage; u != nil {
		result.Usage = api.UsageStats{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}

	return result
}
