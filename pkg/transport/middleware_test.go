package transport

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelgate/modelgate/pkg/api"
)

func TestChainAppliesMiddlewareInOrder(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Invoker) Invoker {
			return InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
				order = append(order, name+":before")
				result, err := next.Invoke(ctx, providerName, model, params)
				order = append(order, name+":after")
				return result, err
			})
		}
	}

	handler := InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
		order = append(order, "handler")
		return nil, nil
	})

	chain := Chain(mw("first"), mw("second"), mw("third"))
	wrapped := chain(handler)

	wrapped.Invoke(context.Background(), "aliyun", "qwen-turbo", nil)

	expected := []string{
		"first:before", "second:before", "third:before",
		"handler",
		"third:after", "second:after", "first:after",
	}

	if len(order) != len(expected) {
		t.Fatalf("execution order length = %d, want %d: %v", len(order), len(expected), order)
	}
	for i, got := range order {
		if got != expected[i] {
			t.Errorf("order[%d] = %q, want %q", i, got, expected[i])
		}
	}
}

func TestRecoveryCatchesPanic(t *testing.T) {
	handler := InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
		panic("test panic")
	})

	wrapped := Recovery()(handler)
	result, err := wrapped.Invoke(context.Background(), "aliyun", "qwen-turbo", nil)

	if err == nil {
		t.Fatal("expected error after panic, got nil")
	}
	if result != nil {
		t.Errorf("expected nil result after panic, got %+v", result)
	}

	var detail *api.ErrorDetail
	if !errors.As(err, &detail) {
		t.Fatalf("expected *api.ErrorDetail, got %T: %v", err, err)
	}
	if detail.Type != api.ErrorTypeServerError {
		t.Errorf("error type = %q, want %q", detail.Type, api.ErrorTypeServerError)
	}
	if !strings.Contains(detail.Message, "test panic") {
		t.Errorf("error message = %q, should contain %q", detail.Message, "test panic")
	}
}

func TestRecoveryPassesThroughNormalExecution(t *testing.T) {
	want := &api.ChatResult{Model: "qwen-turbo"}
	handler := InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
		return want, nil
	})

	wrapped := Recovery()(handler)
	result, err := wrapped.Invoke(context.Background(), "aliyun", "qwen-turbo", nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != want {
		t.Error("expected result to pass through unchanged")
	}
}

func TestRequestIDGeneratesNewID(t *testing.T) {
	var capturedID string

	handler := InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
		capturedID = RequestIDFromContext(ctx)
		return nil, nil
	})

	wrapped := RequestID()(handler)
	wrapped.Invoke(context.Background(), "aliyun", "qwen-turbo", nil)

	if capturedID == "" {
		t.Error("expected a generated request ID, got empty string")
	}
	if len(capturedID) != 32 { // 16 bytes = 32 hex chars
		t.Errorf("request ID length = %d, want 32 (hex encoded)", len(capturedID))
	}
}

func TestRequestIDPropagatesExisting(t *testing.T) {
	var capturedID string

	handler := InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
		capturedID = RequestIDFromContext(ctx)
		return nil, nil
	})

	ctx := ContextWithRequestID(context.Background(), "existing-id-123")
	wrapped := RequestID()(handler)
	wrapped.Invoke(ctx, "aliyun", "qwen-turbo", nil)

	if capturedID != "existing-id-123" {
		t.Errorf("request ID = %q, want %q", capturedID, "existing-id-123")
	}
}

func TestRequestIDUniqueness(t *testing.T) {
	ids := make(map[string]bool)
	handler := InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
		ids[RequestIDFromContext(ctx)] = true
		return nil, nil
	})

	wrapped := RequestID()(handler)
	for i := 0; i < 100; i++ {
		wrapped.Invoke(context.Background(), "aliyun", "qwen-turbo", nil)
	}

	if len(ids) != 100 {
		t.Errorf("expected 100 unique IDs, got %d", len(ids))
	}
}

func TestLoggingEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
		return nil, nil
	})

	ctx := ContextWithRequestID(context.Background(), "req-log-test")
	wrapped := Logging(logger)(handler)
	wrapped.Invoke(ctx, "aliyun", "qwen-turbo", nil)

	output := buf.String()
	for _, expected := range []string{"request_id=req-log-test", "provider=aliyun", "model=qwen-turbo", "invoke completed"} {
		if !strings.Contains(output, expected) {
			t.Errorf("log output missing %q in:\n%s", expected, output)
		}
	}
}

func TestLoggingEmitsErrorOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
		return nil, api.NewServerError("test failure")
	})

	wrapped := Logging(logger)(handler)
	wrapped.Invoke(context.Background(), "aliyun", "qwen-turbo", nil)

	output := buf.String()
	if !strings.Contains(output, "invoke failed") {
		t.Errorf("log output missing 'invoke failed' in:\n%s", output)
	}
	if !strings.Contains(output, "test failure") {
		t.Errorf("log output missing error message in:\n%s", output)
	}
}
