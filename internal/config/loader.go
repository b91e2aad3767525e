package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "humancheck.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "HUMANCHECK_PORT")
	setString(&cfg.Server.CORSOrigin, "HUMANCHECK_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "HUMANCHECK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "HUMANCHECK_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "HUMANCHECK_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "HUMANCHECK_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "HUMANCHECK_PG_HEALTH_CHECK")
	setBool(&cfg.NATS.Enabled, "HUMANCHECK_NATS_ENABLED")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "HUMANCHECK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "HUMANCHECK_LOG_SERVICE")
	setStrings(&cfg.Routing.DefaultReviewers, "HUMANCHECK_DEFAULT_REVIEWERS")
	setDuration(&cfg.Routing.RuleCacheTTL, "HUMANCHECK_RULE_CACHE_TTL")
	setInt64(&cfg.Routing.RuleCacheSizeMB, "HUMANCHECK_RULE_CACHE_SIZE_MB")
	setDuration(&cfg.Blocking.Rest.Timeout, "HUMANCHECK_BLOCKING_REST_TIMEOUT")
	setDuration(&cfg.Blocking.Rest.PollInterval, "HUMANCHECK_BLOCKING_REST_POLL")
	setDuration(&cfg.Blocking.MCP.Timeout, "HUMANCHECK_BLOCKING_MCP_TIMEOUT")
	setDuration(&cfg.Blocking.MCP.PollInterval, "HUMANCHECK_BLOCKING_MCP_POLL")
	setDuration(&cfg.Blocking.LangChain.Timeout, "HUMANCHECK_BLOCKING_LANGCHAIN_TIMEOUT")
	setDuration(&cfg.Blocking.LangChain.PollInterval, "HUMANCHECK_BLOCKING_LANGCHAIN_POLL")
	setDuration(&cfg.Blocking.HITL.Timeout, "HUMANCHECK_BLOCKING_HITL_TIMEOUT")
	setDuration(&cfg.Blocking.HITL.PollInterval, "HUMANCHECK_BLOCKING_HITL_POLL")
	setDuration(&cfg.Blocking.Workflow.Timeout, "HUMANCHECK_BLOCKING_WORKFLOW_TIMEOUT")
	setDuration(&cfg.Blocking.Workflow.PollInterval, "HUMANCHECK_BLOCKING_WORKFLOW_POLL")
	setBool(&cfg.MCP.Enabled, "HUMANCHECK_MCP_ENABLED")
	setString(&cfg.MCP.Port, "HUMANCHECK_MCP_PORT")
	setString(&cfg.MCP.APIKey, "HUMANCHECK_MCP_API_KEY")
	setString(&cfg.Notifications.SlackWebhookURL, "HUMANCHECK_SLACK_WEBHOOK_URL")
	setString(&cfg.Notifications.DiscordWebhookURL, "HUMANCHECK_DISCORD_WEBHOOK_URL")
	setBool(&cfg.Notifications.SMTP.Enabled, "HUMANCHECK_SMTP_ENABLED")
	setString(&cfg.Notifications.SMTP.Host, "HUMANCHECK_SMTP_HOST")
	setInt(&cfg.Notifications.SMTP.Port, "HUMANCHECK_SMTP_PORT")
	setString(&cfg.Notifications.SMTP.From, "HUMANCHECK_SMTP_FROM")
	setString(&cfg.Notifications.SMTP.Password, "HUMANCHECK_SMTP_PASSWORD")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats is enabled")
	}
	if cfg.MCP.Enabled && cfg.MCP.Port == "" {
		return errors.New("mcp.port is required when mcp is enabled")
	}
	if cfg.Notifications.SMTP.Enabled && (cfg.Notifications.SMTP.Host == "" || cfg.Notifications.SMTP.From == "") {
		return errors.New("notifications.smtp.host and notifications.smtp.from are required when smtp is enabled")
	}
	if cfg.Routing.RuleCacheTTL < 0 {
		return errors.New("routing.rule_cache_ttl must be >= 0")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setStrings parses a comma-separated env value.
func setStrings(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
