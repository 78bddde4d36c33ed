// Command demo walks the core invocation path in process: two stub
// upstreams (one per wire protocol), the provider registry, the dispatcher,
// and the call log. No credentials or network access needed.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/modelgate/modelgate/pkg/api"
	"github.com/modelgate/modelgate/pkg/callog"
	"github.com/modelgate/modelgate/pkg/callog/memory"
	"github.com/modelgate/modelgate/pkg/dispatch"
	"github.com/modelgate/modelgate/pkg/provider"
	"github.com/modelgate/modelgate/pkg/provider/aliyun"
	"github.com/modelgate/modelgate/pkg/provider/deepseek"
)

func main() {
	fmt.Println("=== modelgate dispatch demo ===")
	fmt.Println()

	// 1. Stub upstreams, one per wire protocol.
	dashScope := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"request_id": "demo-dashscope",
			"output": {"text": "The capital of France is Paris.", "finish_reason": "stop"},
			"usage": {"input_tokens": 12, "output_tokens": 8}
		}`)
	}))
	defer dashScope.Close()

	openAI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-demo",
			"object": "chat.completion",
			"model": "deepseek-chat",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "Paris is the capital of France."},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
		}`)
	}))
	defer openAI.Close()

	// 2. Register both providers against the stubs.
	registry := provider.NewRegistry()
	registry.Register(aliyun.New(aliyun.Config{
		APIKey:   "demo-key",
		Endpoint: dashScope.URL,
		Timeout:  10 * time.Second,
	}))
	registry.Register(deepseek.New(deepseek.Config{
		APIKey:  "demo-key",
		BaseURL: openAI.URL,
		Timeout: 10 * time.Second,
	}))
	defer registry.Close()

	store := memory.New(100)
	defer store.Close()

	dispatcher, err := dispatch.New(registry, dispatch.WithStore(store))
	if err != nil {
		fmt.Printf("dispatcher setup failed: %v\n", err)
		return
	}

	ctx := context.Background()
	params := map[string]any{"prompt": "What is the capital of France?"}

	// 3. Same call against both providers, one unified result shape.
	fmt.Println("[1] Invoke aliyun/qwen-turbo (DashScope wire shape):")
	result, err := dispatcher.Invoke(ctx, "aliyun", "qwen-turbo", params)
	if err != nil {
		fmt.Printf("    FAILED: %v\n", err)
		return
	}
	printResult(result)

	fmt.Println("\n[2] Invoke deepseek/deepseek-chat (Chat Completions wire shape):")
	result, err = dispatcher.Invoke(ctx, "deepseek", "deepseek-chat", params)
	if err != nil {
		fmt.Printf("    FAILED: %v\n", err)
		return
	}
	printResult(result)

	// 4. The error taxonomy in action.
	fmt.Println("\n[3] Error taxonomy:")
	failures := []struct {
		provider string
		model    string
		params   map[string]any
	}{
		{"openai", "gpt-4", params},
		{"aliyun", "gpt-4", params},
		{"aliyun", "qwen-turbo", map[string]any{}},
		{"aliyun", "qwen-turbo", map[string]any{"prompt": "hi", "temperature": "hot"}},
	}
	for _, f := range failures {
		_, err := dispatcher.Invoke(ctx, f.provider, f.model, f.params)
		fmt.Printf("    %-8s %-12s -> %s: %v\n", f.provider, f.model, api.ClassifyError(err), err)
	}

	// 5. Audit trail left behind by the calls above.
	fmt.Println("\n[4] Call log:")
	list, err := store.List(ctx, callog.ListOptions{Limit: 10})
	if err != nil {
		fmt.Printf("    FAILED: %v\n", err)
		return
	}
	for _, rec := range list.Data {
		fmt.Printf("    %s  %-8s %-13s status=%-18s %dms\n",
			rec.ID, rec.Provider, rec.Model, rec.Status, rec.DurationMS)
	}

	fmt.Println("\n=== demo complete ===")
}

func printResult(result *api.ChatResult) {
	data, _ := json.MarshalIndent(result, "    ", "  ")
	fmt.Printf("    %s\n", data)
}
