package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Gemini    GeminiConfig
	Credits   CreditsConfig
	Chat      ChatConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
	MigrationsPath     string
}

// RateLimitConfig bounds per-IP request rates on the chat routes. The
// credit ledger is the real spend control; this only blunts tight loops.
type RateLimitConfig struct {
	Enabled   bool
	Requests  int
	WindowSec int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// CreditsConfig holds the billing policy for the usage ledger. Output is
// weighted heavier than input because generated tokens cost the provider
// materially more than prompt processing.
type CreditsConfig struct {
	DailyLimit   int
	InputWeight  int
	OutputWeight int
}

type ChatConfig struct {
	CasualWindow    int
	HistoryLimit    int
	RecentCacheTTL  time.Duration
	DefaultLanguage string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               k.String("server.host"),
			Port:               k.Int("server.port"),
			CORSAllowedOrigins: splitCSV(k.String("server.cors.allowed.origins")),
			MigrationsPath:     k.String("server.migrations.path"),
		},
		DB: DBConfig{
			Host:     k.String("db.host"),
			Port:     k.Int("db.port"),
			User:     k.String("db.user"),
			Password: k.String("db.password"),
			Name:     k.String("db.name"),
			SSLMode:  k.String("db.sslmode"),
			MaxConns: int32(k.Int("db.max.conns")),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		Gemini: GeminiConfig{
			APIKey:  k.String("gemini.api.key"),
			Model:   k.String("gemini.model"),
			BaseURL: k.String("gemini.base.url"),
		},
		Credits: CreditsConfig{
			DailyLimit:   k.Int("credits.daily.limit"),
			InputWeight:  k.Int("credits.input.weight"),
			OutputWeight: k.Int("credits.output.weight"),
		},
		Chat: ChatConfig{
			CasualWindow:    k.Int("chat.casual.window"),
			HistoryLimit:    k.Int("chat.history.limit"),
			DefaultLanguage: k.String("chat.default.language"),
		},
		RateLimit: RateLimitConfig{
			Enabled:   k.Bool("ratelimit.enabled"),
			Requests:  k.Int("ratelimit.requests"),
			WindowSec: k.Int("ratelimit.window.sec"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "calmsphere"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "calmsphere"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemma-3n-e2b-it"
	}
	if cfg.Gemini.BaseURL == "" {
		cfg.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Credits.DailyLimit == 0 {
		cfg.Credits.DailyLimit = 20000
	}
	if cfg.Credits.InputWeight == 0 {
		cfg.Credits.InputWeight = 1
	}
	if cfg.Credits.OutputWeight == 0 {
		cfg.Credits.OutputWeight = 5
	}
	if cfg.Chat.CasualWindow == 0 {
		cfg.Chat.CasualWindow = 6
	}
	if cfg.Chat.HistoryLimit == 0 {
		cfg.Chat.HistoryLimit = 100
	}
	if cfg.Chat.DefaultLanguage == "" {
		cfg.Chat.DefaultLanguage = "English"
	}
	if cfg.Server.MigrationsPath == "" {
		cfg.Server.MigrationsPath = "migrations"
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 20
	}
	if cfg.RateLimit.WindowSec == 0 {
		cfg.RateLimit.WindowSec = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	geminiTimeoutStr := k.String("gemini.timeout")
	if geminiTimeoutStr == "" {
		geminiTimeoutStr = "30s"
	}
	cfg.Gemini.Timeout, err = time.ParseDuration(geminiTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("parsing gemini timeout: %w", err)
	}

	cacheTTLStr := k.String("chat.recent.cache.ttl")
	if cacheTTLStr == "" {
		cacheTTLStr = "1h"
	}
	cfg.Chat.RecentCacheTTL, err = time.ParseDuration(cacheTTLStr)
	if err != nil {
		return nil, fmt.Errorf("parsing recent cache ttl: %w", err)
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
