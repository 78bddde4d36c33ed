package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// Provider timeouts must not be negative.
	if c.Providers.Aliyun.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("providers.aliyun.timeout_seconds must be >= 0, got %d", c.Providers.Aliyun.TimeoutSeconds))
	}
	if c.Providers.DeepSeek.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("providers.deepseek.timeout_seconds must be >= 0, got %d", c.Providers.DeepSeek.TimeoutSeconds))
	}

	// call_log.type must be a known value.
	switch c.CallLog.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("call_log.type must be \"memory\" or \"postgres\", got %q", c.CallLog.Type))
	}

	// If call_log.type is "postgres", DSN or DSNFile must be set.
	if c.CallLog.Type == "postgres" {
		if c.CallLog.Postgres.DSN == "" && c.CallLog.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("call_log.postgres.dsn or call_log.postgres.dsn_file is required when call_log.type is \"postgres\""))
		}
	}

	// If call_log.type is "memory", max_size must be positive.
	if c.CallLog.Type == "memory" && c.CallLog.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("call_log.max_size must be > 0, got %d", c.CallLog.MaxSize))
	}

	// auth.type must be a known value.
	switch c.Auth.Type {
	case "none", "apikey", "jwt":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}

	// apikey auth needs at least one key.
	if c.Auth.Type == "apikey" && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, fmt.Errorf("auth.api_keys must have at least one entry when auth.type is \"apikey\""))
	}

	// jwt auth needs a JWKS URL.
	if c.Auth.Type == "jwt" && c.Auth.JWT.JWKSURL == "" {
		errs = append(errs, fmt.Errorf("auth.jwt.jwks_url is required when auth.type is \"jwt\""))
	}

	// Rate limit RPM must be positive when enabled.
	if c.Auth.RateLimit.Enabled && c.Auth.RateLimit.DefaultRPM <= 0 {
		errs = append(errs, fmt.Errorf("auth.rate_limit.default_rpm must be > 0, got %d", c.Auth.RateLimit.DefaultRPM))
	}

	// logging.format must be a known value if set.
	switch c.Logging.Format {
	case "", "text", "json":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
