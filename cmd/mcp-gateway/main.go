// Command mcp-gateway exposes the gateway's dispatch as MCP tools over
// stdio, so MCP-speaking agents can invoke registered providers without the
// HTTP surface. Configuration is the same layered config the gateway binary
// uses; logs go to stderr, the protocol owns stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modelgate/modelgate/pkg/config"
	"github.com/modelgate/modelgate/pkg/debug"
	"github.com/modelgate/modelgate/pkg/dispatch"
	"github.com/modelgate/modelgate/pkg/provider"
	"github.com/modelgate/modelgate/pkg/provider/aliyun"
	"github.com/modelgate/modelgate/pkg/provider/deepseek"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mcp gateway failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	registry := provider.NewRegistry()
	if err := registry.Register(aliyun.New(aliyun.Config{
		APIKey:   cfg.Providers.Aliyun.APIKey,
		Endpoint: cfg.Providers.Aliyun.BaseURL,
		Models:   cfg.Providers.Aliyun.Models,
		Timeout:  cfg.Providers.Aliyun.Timeout(),
	})); err != nil {
		return fmt.Errorf("registering aliyun: %w", err)
	}
	if err := registry.Register(deepseek.New(deepseek.Config{
		APIKey:  cfg.Providers.DeepSeek.APIKey,
		BaseURL: cfg.Providers.DeepSeek.BaseURL,
		Models:  cfg.Providers.DeepSeek.Models,
		Timeout: cfg.Providers.DeepSeek.Timeout(),
	})); err != nil {
		return fmt.Errorf("registering deepseek: %w", err)
	}
	defer registry.Close()

	dispatcher, err := dispatch.New(registry)
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "modelgate", Version: "v1.0.0"},
		nil,
	)

	type invokeInput struct {
		Provider   string         `json:"provider" jsonschema_description:"Registered provider name, e.g. aliyun or deepseek"`
		Model      string         `json:"model" jsonschema_description:"Model identifier, e.g. qwen-turbo"`
		Parameters map[string]any `json:"parameters,omitempty" jsonschema_description:"Caller parameters: prompt or messages plus sampling knobs"`
	}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "invoke",
		Description: "Invoke a model on a registered provider and return the unified chat result",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input invokeInput) (*mcp.CallToolResult, struct{}, error) {
		result, err := dispatcher.Invoke(ctx, input.Provider, input.Model, input.Parameters)
		if err != nil {
			return nil, struct{}{}, err
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, struct{}{}, fmt.Errorf("encoding result: %w", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, struct{}{}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_providers",
		Description: "List registered providers with their models and capabilities",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, struct{}, error) {
		type entry struct {
			Name         string                        `json:"name"`
			Models       []string                      `json:"models"`
			Capabilities provider.ProviderCapabilities `json:"capabilities"`
		}
		var entries []entry
		for _, name := range registry.Names() {
			p, err := registry.Lookup(name)
			if err != nil {
				continue
			}
			entries = append(entries, entry{
				Name:         p.Name(),
				Models:       p.SupportedModels(),
				Capabilities: p.Capabilities(),
			})
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, struct{}{}, fmt.Errorf("encoding providers: %w", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, struct{}{}, nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("mcp gateway starting", "providers", registry.Names())
	return server.Run(ctx, &mcp.StdioTransport{})
}
