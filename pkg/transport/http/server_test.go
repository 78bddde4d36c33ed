package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	gohttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/modelgate/modelgate/pkg/api"
	"github.com/modelgate/modelgate/pkg/transport"
)

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	return bytes.NewReader(data)
}

func TestServerStartsAndAcceptsRequests(t *testing.T) {
	invoker := &mockInvoker{
		result: &api.ChatResult{
			ID:    "call_serverTestABCDE123456789",
			Model: "qwen-turbo",
			Choices: []api.Choice{{
				Message:      api.ChoiceMessage{Role: "assistant", Content: "hello"},
				FinishReason: "stop",
			}},
		},
	}

	srv := NewServer(invoker, newTestDirectory(t), nil, WithAddr("127.0.0.1:0"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	addr := ln.Addr().String()

	go srv.ServeOn(ln)
	time.Sleep(50 * time.Millisecond)

	resp, err := gohttp.Post("http://"+addr+"/v1/invoke", "application/json",
		jsonBody(t, api.InvokeRequest{Provider: "aliyun", Model: "qwen-turbo", Parameters: map[string]any{"prompt": "hi"}}))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != gohttp.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, gohttp.StatusOK)
	}

	var got api.ChatResult
	json.NewDecoder(resp.Body).Decode(&got)
	if got.ID != "call_serverTestABCDE123456789" {
		t.Errorf("result ID = %q, want %q", got.ID, "call_serverTestABCDE123456789")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func TestServerGracefulShutdown(t *testing.T) {
	slowInvoker := transport.InvokerFunc(func(ctx context.Context, providerName, model string, params map[string]any) (*api.ChatResult, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return &api.ChatResult{ID: "call_gracefulTestABC123456789", Model: model}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	srv := NewServer(slowInvoker, newTestDirectory(t), nil,
		WithAddr("127.0.0.1:0"),
		WithShutdownTimeout(5*time.Second),
	)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	addr := ln.Addr().String()

	go srv.ServeOn(ln)
	time.Sleep(50 * time.Millisecond)

	responseCh := make(chan int, 1)
	go func() {
		resp, err := gohttp.Post("http://"+addr+"/v1/invoke", "application/json",
			jsonBody(t, api.InvokeRequest{Provider: "aliyun", Model: "qwen-turbo", Parameters: map[string]any{"prompt": "hi"}}))
		if err != nil {
			responseCh <- 0
			return
		}
		defer resp.Body.Close()
		responseCh <- resp.StatusCode
	}()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	status := <-responseCh
	if status != gohttp.StatusOK {
		t.Errorf("slow request status = %d, want %d", status, gohttp.StatusOK)
	}
}

func TestServerFunctionalOptions(t *testing.T) {
	srv := NewServer(&mockInvoker{}, newTestDirectory(t), nil,
		WithAddr(":9999"),
		WithMaxBodySize(1024),
		WithTimeouts(5*time.Second, 15*time.Second),
		WithShutdownTimeout(10*time.Second),
	)

	if srv.config.Addr != ":9999" {
		t.Errorf("addr = %q, want %q", srv.config.Addr, ":9999")
	}
	if srv.config.MaxBodySize != 1024 {
		t.Errorf("max body size = %d, want %d", srv.config.MaxBodySize, 1024)
	}
	if srv.config.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout = %v, want %v", srv.config.ReadTimeout, 5*time.Second)
	}
	if srv.config.WriteTimeout != 15*time.Second {
		t.Errorf("write timeout = %v, want %v", srv.config.WriteTimeout, 15*time.Second)
	}
	if srv.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want %v", srv.config.ShutdownTimeout, 10*time.Second)
	}
}

func TestServerExtraRoute(t *testing.T) {
	metricsStub := gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.Write([]byte("# metrics\n"))
	})

	srv := NewServer(&mockInvoker{}, newTestDirectory(t), nil,
		WithRoute("/metrics", metricsStub),
	)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := gohttp.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != gohttp.StatusOK {
		t.Errorf("metrics status = %d, want %d", resp.StatusCode, gohttp.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "# metrics\n" {
		t.Errorf("metrics body = %q, want %q", string(body), "# metrics\n")
	}

	// Adapter routes still reachable alongside the extra route.
	resp2, err := gohttp.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != gohttp.StatusOK {
		t.Errorf("healthz status = %d, want %d", resp2.StatusCode, gohttp.StatusOK)
	}
}

func TestServerHTTPMiddlewareOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string

	mw := func(name string) func(gohttp.Handler) gohttp.Handler {
		return func(next gohttp.Handler) gohttp.Handler {
			return gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				next.ServeHTTP(w, r)
			})
		}
	}

	srv := NewServer(&mockInvoker{}, newTestDirectory(t), nil,
		WithHTTPMiddleware(mw("outer"), mw("inner")),
	)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := gohttp.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("middleware order = %v, want [outer inner]", order)
	}
}
