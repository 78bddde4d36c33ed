package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, MODELGATE_CONFIG env, ./config.yaml, /etc/modelgate/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. MODELGATE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/modelgate/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check MODELGATE_CONFIG env var.
	if envPath := os.Getenv("MODELGATE_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/modelgate/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps MODELGATE_* environment variables to config fields.
// Logging variables (MODELGATE_LOG_LEVEL, MODELGATE_LOG_FORMAT,
// MODELGATE_DEBUG) are resolved by the debug package so they are not
// handled here.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MODELGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("MODELGATE_ALIYUN_API_KEY"); v != "" {
		cfg.Providers.Aliyun.APIKey = v
	}
	if v := os.Getenv("MODELGATE_ALIYUN_BASE_URL"); v != "" {
		cfg.Providers.Aliyun.BaseURL = v
	}
	if v := os.Getenv("MODELGATE_ALIYUN_MODELS"); v != "" {
		cfg.Providers.Aliyun.Models = splitModels(v)
	}
	if v := os.Getenv("MODELGATE_DEEPSEEK_API_KEY"); v != "" {
		cfg.Providers.DeepSeek.APIKey = v
	}
	if v := os.Getenv("MODELGATE_DEEPSEEK_BASE_URL"); v != "" {
		cfg.Providers.DeepSeek.BaseURL = v
	}
	if v := os.Getenv("MODELGATE_DEEPSEEK_MODELS"); v != "" {
		cfg.Providers.DeepSeek.Models = splitModels(v)
	}

	if v := os.Getenv("MODELGATE_CALL_LOG"); v != "" {
		cfg.CallLog.Type = v
	}
	if v := os.Getenv("MODELGATE_CALL_LOG_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.CallLog.MaxSize = size
		}
	}
	if v := os.Getenv("MODELGATE_POSTGRES_DSN"); v != "" {
		cfg.CallLog.Postgres.DSN = v
	}

	if v := os.Getenv("MODELGATE_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}

	// MODELGATE_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("MODELGATE_API_KEYS"); v != "" {
		keys, err := parseAPIKeysJSON(v)
		if err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}
}

// splitModels parses a comma-separated model list.
func splitModels(s string) []string {
	var models []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return models
}

// parseAPIKeysJSON parses a JSON array of API key configurations.
func parseAPIKeysJSON(jsonStr string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing API keys JSON: %w", err)
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// providers.<name>.api_key_file -> providers.<name>.api_key
	providers := map[string]*ProviderConfig{
		"aliyun":   &cfg.Providers.Aliyun,
		"deepseek": &cfg.Providers.DeepSeek,
	}
	for name, p := range providers {
		if p.APIKeyFile != "" && p.APIKey == "" {
			val, err := readSecretFile(p.APIKeyFile)
			if err != nil {
				return fmt.Errorf("providers.%s.api_key_file: %w", name, err)
			}
			p.APIKey = val
		}
	}

	// call_log.postgres.dsn_file -> call_log.postgres.dsn
	if cfg.CallLog.Postgres.DSNFile != "" && cfg.CallLog.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.CallLog.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("call_log.postgres.dsn_file: %w", err)
		}
		cfg.CallLog.Postgres.DSN = val
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
