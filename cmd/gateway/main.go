// Command gateway runs the modelgate LLM provider gateway.
//
// Configuration is layered: built-in defaults, then an optional YAML file
// (-config flag, MODELGATE_CONFIG, ./config.yaml, /etc/modelgate/config.yaml),
// then MODELGATE_* environment variables. Common variables:
//
//	MODELGATE_PORT             - Listen port (default: 8080)
//	MODELGATE_ALIYUN_API_KEY   - DashScope API key
//	MODELGATE_DEEPSEEK_API_KEY - DeepSeek API key
//	MODELGATE_CALL_LOG         - Call log store: "memory" or "postgres" (default: "memory")
//	MODELGATE_POSTGRES_DSN     - PostgreSQL connection string
//	MODELGATE_AUTH_TYPE        - Auth mode: "none", "apikey", or "jwt" (default: "none")
//	MODELGATE_LOG_LEVEL        - TRACE, DEBUG, INFO, WARN, ERROR (default: INFO)
//
// A .env file in the working directory is loaded when present.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modelgate/modelgate/pkg/auth"
	"github.com/modelgate/modelgate/pkg/auth/apikey"
	authjwt "github.com/modelgate/modelgate/pkg/auth/jwt"
	"github.com/modelgate/modelgate/pkg/callog"
	callogmemory "github.com/modelgate/modelgate/pkg/callog/memory"
	callogpostgres "github.com/modelgate/modelgate/pkg/callog/postgres"
	"github.com/modelgate/modelgate/pkg/config"
	"github.com/modelgate/modelgate/pkg/debug"
	"github.com/modelgate/modelgate/pkg/dispatch"
	"github.com/modelgate/modelgate/pkg/observability"
	"github.com/modelgate/modelgate/pkg/provider"
	"github.com/modelgate/modelgate/pkg/provider/aliyun"
	"github.com/modelgate/modelgate/pkg/provider/deepseek"
	transporthttp "github.com/modelgate/modelgate/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("gateway failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Best-effort .env load; absence is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	// Providers. A provider without an API key still registers; calls to it
	// fail with a configuration error until a key is supplied.
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

	// Call log store.
	var store callog.Store
	switch cfg.CallLog.Type {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		pgStore, err := callogpostgres.New(ctx, callogpostgres.Config{
			DSN:            cfg.CallLog.Postgres.DSN,
			MaxConns:       cfg.CallLog.Postgres.MaxConns,
			MigrateOnStart: cfg.CallLog.Postgres.MigrateOnStart,
		})
		cancel()
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		store = pgStore
		slog.Info("call log enabled", "type", "postgres")
	default:
		store = callogmemory.New(cfg.CallLog.MaxSize)
		slog.Info("call log enabled", "type", "memory", "max_size", cfg.CallLog.MaxSize)
	}
	defer store.Close()

	dispatcher, err := dispatch.New(registry, dispatch.WithStore(store))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	chain := buildAuthChain(cfg.Auth)
	var limiter auth.RateLimiter
	if cfg.Auth.RateLimit.Enabled {
		tiers := make(map[string]auth.TierConfig, len(cfg.Auth.RateLimit.Tiers))
		for name, rpm := range cfg.Auth.RateLimit.Tiers {
			tiers[name] = auth.TierConfig{RequestsPerMinute: rpm}
		}
		limiter = auth.NewInProcessLimiter(tiers, cfg.Auth.RateLimit.DefaultRPM)
	}

	bypass := append([]string{}, auth.DefaultBypassEndpoints...)
	if cfg.Observability.Metrics.Enabled {
		bypass = append(bypass, cfg.Observability.Metrics.Path)
	}

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithHTTPMiddleware(
			observability.MetricsMiddleware,
			auth.Middleware(chain, limiter, bypass),
		),
	}
	if cfg.Observability.Metrics.Enabled {
		opts = append(opts, transporthttp.WithRoute("GET "+cfg.Observability.Metrics.Path, promhttp.Handler()))
	}

	srv := transporthttp.NewServer(dispatcher, registry, store, opts...)

	slog.Info("gateway starting",
		"port", cfg.Server.Port,
		"providers", registry.Names(),
		"call_log", cfg.CallLog.Type,
		"auth", cfg.Auth.Type)

	return srv.ListenAndServe()
}

// buildAuthChain maps the auth config onto an authenticator chain. With
// type "none" every request passes as the anonymous identity.
func buildAuthChain(cfg config.AuthConfig) *auth.AuthChain {
	switch cfg.Type {
	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key:      k.Key,
				Identity: auth.Identity{Subject: k.Subject, ServiceTier: k.Tier},
			})
		}
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{apikey.New(entries)},
			DefaultDecision: auth.No,
		}
	case "jwt":
		return &auth.AuthChain{
			Authenticators: []auth.Authenticator{authjwt.New(authjwt.Config{
				Issuer:      cfg.JWT.Issuer,
				Audience:    cfg.JWT.Audience,
				JWKSURL:     cfg.JWT.JWKSURL,
				UserClaim:   cfg.JWT.UserClaim,
				TierClaim:   cfg.JWT.TierClaim,
				ScopesClaim: cfg.JWT.ScopesClaim,
			})},
			DefaultDecision: auth.No,
		}
	default:
		return &auth.AuthChain{DefaultDecision: auth.Yes}
	}
}
