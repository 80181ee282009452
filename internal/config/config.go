package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the AgentPulse server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Alert    AlertConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	// URL may be empty; the server then falls back to the in-memory store.
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	// URL may be empty; rate limiting and status-page caching are then disabled.
	URL string
}

type SessionConfig struct {
	// JWTSecret verifies session tokens minted by the external OAuth layer.
	JWTSecret string
	InviteTTL time.Duration
}

type AlertConfig struct {
	WebhookTimeout time.Duration
}

// Load reads server configuration from environment variables and returns a
// validated Config. Returns an error with a descriptive message if any
// required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("AGENTPULSE_PORT", 8080),
			Env:  envString("AGENTPULSE_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Session: SessionConfig{
			JWTSecret: os.Getenv("SESSION_JWT_SECRET"),
			InviteTTL: envDuration("INVITE_TTL", 24*time.Hour),
		},
		Alert: AlertConfig{
			WebhookTimeout: envDuration("ALERT_WEBHOOK_TIMEOUT", 10*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("AGENTPULSE_PORT must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Session.JWTSecret == "" && c.Server.Env != "development" {
		return fmt.Errorf("SESSION_JWT_SECRET is required outside development")
	}
	if c.Database.URL != "" &&
		!strings.HasPrefix(c.Database.URL, "postgres://") &&
		!strings.HasPrefix(c.Database.URL, "postgresql://") {
		return fmt.Errorf("DATABASE_URL must be a postgres:// URL, got %q", c.Database.URL)
	}
	return nil
}

// ReporterConfig holds configuration for the one-shot reporter binary.
type ReporterConfig struct {
	APIURL string
	APIKey string

	SessionDir string
	CronFile   string

	// GatewayProcess, when set, decides the reported online flag: the
	// gateway counts as online iff a process with this name is running.
	GatewayProcess string

	Endpoints []string
	Processes []string
	Custom    []CustomMetric

	ProbeTimeout  time.Duration
	ActiveWindow  time.Duration
	SubmitTimeout time.Duration
}

// CustomMetric names a shell command whose numeric stdout becomes a metric.
type CustomMetric struct {
	Name    string `json:"name"`
	Command string `json:"command"`
}

// LoadReporter reads reporter configuration from environment variables.
// An empty API key means dry-run (print the payload instead of submitting).
func LoadReporter() (*ReporterConfig, error) {
	home, _ := os.UserHomeDir()
	cfg := &ReporterConfig{
		APIURL:         envString("AGENTPULSE_API_URL", "http://localhost:8080"),
		APIKey:         os.Getenv("AGENTPULSE_API_KEY"),
		SessionDir:     envString("AGENTPULSE_SESSION_DIR", home+"/.agentpulse/sessions"),
		CronFile:       envString("AGENTPULSE_CRON_FILE", home+"/.agentpulse/jobs.json"),
		GatewayProcess: os.Getenv("AGENTPULSE_GATEWAY_PROCESS"),
		Endpoints:      envList("AGENTPULSE_CHECK_ENDPOINTS"),
		Processes:      envList("AGENTPULSE_CHECK_PROCESSES"),
		ProbeTimeout:   envDuration("AGENTPULSE_PROBE_TIMEOUT", 5*time.Second),
		ActiveWindow:   envDuration("AGENTPULSE_ACTIVE_WINDOW", 10*time.Minute),
		SubmitTimeout:  envDuration("AGENTPULSE_SUBMIT_TIMEOUT", 30*time.Second),
	}

	// Custom metrics come as semicolon-separated name=command pairs, e.g.
	// AGENTPULSE_CUSTOM_METRICS="queue_depth=redis-cli llen jobs;tmp_files=ls /tmp | wc -l"
	for _, pair := range strings.Split(os.Getenv("AGENTPULSE_CUSTOM_METRICS"), ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, command, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(command) == "" {
			return nil, fmt.Errorf("AGENTPULSE_CUSTOM_METRICS entry %q must be name=command", pair)
		}
		cfg.Custom = append(cfg.Custom, CustomMetric{
			Name:    strings.TrimSpace(name),
			Command: strings.TrimSpace(command),
		})
	}

	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return nil, fmt.Errorf("AGENTPULSE_API_URL must start with http:// or https://, got %q", cfg.APIURL)
	}

	return cfg, nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
