package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		DB: DBConfig{
			Host: "localhost", Port: 5432, User: "calmsphere",
			Password: "secret", Name: "calmsphere", SSLMode: "disable", MaxConns: 25,
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Gemini: GeminiConfig{
			APIKey:  "test-key",
			Model:   "gemma-3n-e2b-it",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Timeout: 30 * time.Second,
		},
		Credits: CreditsConfig{DailyLimit: 20000, InputWeight: 1, OutputWeight: 5},
		Chat:    ChatConfig{CasualWindow: 6, HistoryLimit: 100, RecentCacheTTL: time.Hour, DefaultLanguage: "English"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_GeminiKeyRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Gemini.APIKey = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected GEMINI_API_KEY error, got: %v", err)
	}
}

func TestValidate_GeminiBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Gemini.BaseURL = "not-a-url"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "GEMINI_BASE_URL") {
		t.Fatalf("expected GEMINI_BASE_URL error, got: %v", err)
	}
}

func TestValidate_CreditLimitPositive(t *testing.T) {
	cfg := validConfig()
	cfg.Credits.DailyLimit = -1
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "CREDITS_DAILY_LIMIT") {
		t.Fatalf("expected CREDITS_DAILY_LIMIT error, got: %v", err)
	}
}

func TestValidate_WeightsPositive(t *testing.T) {
	cfg := validConfig()
	cfg.Credits.OutputWeight = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "weights") {
		t.Fatalf("expected weights error, got: %v", err)
	}
}

func TestValidate_ContextBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Chat.CasualWindow = 0
	cfg.Chat.HistoryLimit = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected context bound errors")
	}
	if !strings.Contains(err.Error(), "CHAT_CASUAL_WINDOW") {
		t.Errorf("expected CHAT_CASUAL_WINDOW error in: %v", err)
	}
	if !strings.Contains(err.Error(), "CHAT_HISTORY_LIMIT") {
		t.Errorf("expected CHAT_HISTORY_LIMIT error in: %v", err)
	}
}

func TestValidate_DBPasswordRequired(t *testing.T) {
	cfg := validConfig()
	cfg.DB.Password = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_PASSWORD") {
		t.Fatalf("expected DB_PASSWORD error, got: %v", err)
	}
}

func TestValidate_InvalidPorts(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.DB.Port = 99999
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected port validation errors")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("expected SERVER_PORT error in: %v", err)
	}
	if !strings.Contains(err.Error(), "DB_PORT") {
		t.Errorf("expected DB_PORT error in: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8080},
		DB:      DBConfig{Port: 5432},
		Redis:   RedisConfig{Port: 6379},
		Gemini:  GeminiConfig{BaseURL: "https://example.com", Timeout: time.Second},
		Credits: CreditsConfig{DailyLimit: 20000, InputWeight: 1, OutputWeight: 5},
		Chat:    ChatConfig{CasualWindow: 6, HistoryLimit: 100},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected multiple validation errors")
	}
	errStr := err.Error()
	for _, substr := range []string{"GEMINI_API_KEY", "DB_PASSWORD"} {
		if !strings.Contains(errStr, substr) {
			t.Errorf("expected %q in error: %s", substr, errStr)
		}
	}
}
