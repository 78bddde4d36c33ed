package deepseek

import (
	"encoding/json"
	"testing"

	"github.com/modelgate/modelgate/pkg/api"
)

func TestNormalizeResponse_FunctionCallPassthrough(t *testing.T) {
	resp := &chatCompletionResponse{
		ID:    "chatcmpl-fc",
		Model: "deepseek-chat",
		Choices: []chatChoice{
			{
				Index: 0,
				Message: chatMessage{
					Role:    "assistant",
					Content: "",
					FunctionCall: &api.FunctionCall{
						Name:      "get_weather",
						Arguments: `{"location":"Hangzhou"}`,
					},
				},
				FinishReason: "function_call",
			},
		},
	}

	result := normalizeResponse(resp)

	if len(result.Choices) != 1 {
		t.Fatalf("expected 1 choice, got %d", len(result.Choices))
	}
	fc := result.Choices[0].Message.FunctionCall
	if fc == nil || fc.Name != "get_weather" {
		t.Fatalf("function_call = %+v, want passthrough", fc)
	}
	if fc.Arguments != `{"location":"Hangzhou"}` {
		t.Errorf("arguments = %q, want verbatim", fc.Arguments)
	}
	if result.Choices[0].FinishReason != "function_call" {
		t.Errorf("finish_reason = %q, want verbatim", result.Choices[0].FinishReason)
	}
}

func TestNormalizeResponse_ToolCallsPassthrough(t *testing.T) {
	raw := json.RawMessage(`[{"id":"call_9","type":"function","function":{"name":"lookup","arguments":"{}"}}]`)
	resp := &chatCompletionResponse{
		ID:    "chatcmpl-tc",
		Model: "deepseek-chat",
		Choices: []chatChoice{
			{Index: 0, Message: chatMessage{Role: "assistant", ToolCalls: raw}, FinishReason: "tool_calls"},
		},
	}

	result := normalizeResponse(resp)
	if string(result.Choices[0].Message.ToolCalls) != string(raw) {
		t.Errorf("tool_calls = %s, want %s", result.Choices[0].Message.ToolCalls, raw)
	}
}

func TestNormalizeResponse_MissingUsage(t *testing.T) {
	resp := &chatCompletionResponse{
		ID:    "chatcmpl-nu",
		Model: "deepseek-chat",
		Choices: []chatChoice{
			{Index: 0, Message: chatMessage{Role: "assistant", Content: "ok"}, FinishReason: "stop"},
		},
	}

	result := normalizeResponse(resp)
	if result.Usage != (api.UsageStats{}) {
		t.Errorf("usage = %+v, want zero-valued when upstream omits it", result.Usage)
	}
}

func TestNormalizeResponse_UpstreamIndexesKept(t *testing.T) {
	resp := &chatCompletionResponse{
		ID:    "chatcmpl-idx",
		Model: "deepseek-chat",
		Choices: []chatChoice{
			{Index: 2, Message: chatMessage{Role: "assistant", Content: "c"}, FinishReason: "stop"},
			{Index: 0, Message: chatMessage{Role: "assistant", Content: "a"}, FinishReason: "stop"},
		},
	}

	result := normalizeResponse(resp)
	if result.Choices[0].Index != 2 || result.Choices[1].Index != 0 {
		t.Errorf("indexes = %d, %d, want upstream order 2, 0", result.Choices[0].Index, result.Choices[1].Index)
	}
}

func TestNormalizeResponse_CreatedAssigned(t *testing.T) {
	result := normalizeResponse(&chatCompletionResponse{ID: "x", Model: "deepseek-chat"})
	if result.Created == 0 {
		t.Error("created should be assigned at normalization time")
	}
	if len(result.Choices) != 0 {
		t.Errorf("expected no choices, got %d", len(result.Choices))
	}
}
