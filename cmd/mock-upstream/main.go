// Command mock-upstream runs a deterministic fake inference upstream for
// local development and conformance testing. It speaks both upstream
// protocols the gateway knows: the DashScope text-generation shape and the
// OpenAI-compatible Chat Completions shape.
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
//
// Flags:
//
//	-latency  - artificial delay added to every response (e.g. 500ms)
//	-fail-rate - probability [0,1) of answering with an injected 500
//
// Point a provider at it with base_url, e.g.
// MODELGATE_ALIYUN_BASE_URL=http://localhost:9090/api/v1/services/aigc/text-generation/generation
// or MODELGATE_DEEPSEEK_BASE_URL=http://localhost:9090.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

var (
	latency  = flag.Duration("latency", 0, "artificial delay per response")
	failRate = flag.Float64("fail-rate", 0, "probability of an injected upstream failure")
)

func main() {
	_ = godotenv.Load()
	flag.Parse()

	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/services/aigc/text-generation/generation", handleDashScope)
	mux.HandleFunc("POST /chat/completions", handleChatCompletions)
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock upstream starting", "port", port, "latency", *latency, "fail_rate", *failRate)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock upstream failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock upstream shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// inject applies the latency and failure flags. Returns true when an error
// was written and the handler should stop.
func inject(w http.ResponseWriter, protocol string) bool {
	if *latency > 0 {
		time.Sleep(*latency)
	}
	if *failRate > 0 && rand.Float64() < *failRate {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		if protocol == "dashscope" {
			json.NewEncoder(w).Encode(map[string]any{
				"request_id": "mock-injected",
				"code":       "InternalError",
				"message":    "injected failure",
			})
		} else {
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"message": "injected failure",
					"type":    "server_error",
				},
			})
		}
		return true
	}
	return false
}

// --- DashScope protocol ---

type dashScopeRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []wireMessage `json:"messages"`
	} `json:"input"`
	Parameters map[string]any `json:"parameters"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func handleDashScope(w http.ResponseWriter, r *http.Request) {
	if inject(w, "dashscope") {
		return
	}

	var req dashScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"request_id": "mock-badreq",
			"code":       "InvalidParameter",
			"message":    "invalid request body",
		})
		return
	}

	text := replyFor(lastUserMessage(req.Input.Messages))
	usage := map[string]any{
		"input_tokens":  promptTokens(req.Input.Messages),
		"output_tokens": len(strings.Fields(text)),
	}

	// result_format "message" selects the choices shape; the default is the
	// flat text shape.
	var output map[string]any
	if req.Parameters["result_format"] == "message" {
		output = map[string]any{
			"choices": []map[string]any{
				{
					"message":       map[string]any{"role": "assistant", "content": text},
					"finish_reason": "stop",
				},
			},
		}
	} else {
		output = map[string]any{
			"text":          text,
			"finish_reason": "stop",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"request_id": "mock-dashscope",
		"output":     output,
		"usage":      usage,
	})
}

// --- OpenAI-compatible protocol ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []any         `json:"tools"`
}

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if inject(w, "openai") {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "invalid request body",
				"type":    "invalid_request_error",
			},
		})
		return
	}

	model := req.Model
	if model == "" {
		model = "mock-model"
	}

	message := map[string]any{"role": "assistant"}
	finishReason := "stop"

	switch {
	case len(req.Tools) > 0:
		message["content"] = ""
		message["tool_calls"] = []map[string]any{
			{
				"id":   "call_mock_1",
				"type": "function",
				"function": map[string]any{
					"name":      "get_weather",
					"arguments": `{"location":"Hangzhou","unit":"celsius"}`,
				},
			},
		}
		finishReason = "tool_calls"
	case strings.Contains(model, "reasoner"):
		message["content"] = replyFor(lastUserMessage(req.Messages))
		message["reasoning_content"] = "Considering the question step by step."
	default:
		message["content"] = replyFor(lastUserMessage(req.Messages))
	}

	text, _ := message["content"].(string)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-mock",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       message,
				"finish_reason": finishReason,
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens(req.Messages),
			"completion_tokens": len(strings.Fields(text)),
			"total_tokens":      promptTokens(req.Messages) + len(strings.Fields(text)),
		},
	})
}

// --- Helpers ---

// replyFor produces deterministic content so tests can assert on it.
func replyFor(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "count from 1 to 5"):
		return "1, 2, 3, 4, 5"
	case strings.Contains(lower, "hello"):
		return "hi there"
	default:
		return "Hello, nice day!"
	}
}

func lastUserMessage(messages []wireMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

func promptTokens(messages []wireMessage) int {
	n := 0
	for _, m := range messages {
		n += len(strings.Fields(m.Content))
	}
	if n == 0 {
		n = 1
	}
	return n
}
