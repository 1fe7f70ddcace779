package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// Gemini: every generation call is billed against this key
	if c.Gemini.APIKey == "" {
		errs = append(errs, "GEMINI_API_KEY is required")
	}
	if !strings.HasPrefix(c.Gemini.BaseURL, "http") {
		errs = append(errs, "GEMINI_BASE_URL must be an http(s) URL")
	}
	if c.Gemini.Timeout <= 0 {
		errs = append(errs, "GEMINI_TIMEOUT must be positive")
	}

	// Credit policy
	if c.Credits.DailyLimit < 1 {
		errs = append(errs, fmt.Sprintf("CREDITS_DAILY_LIMIT must be positive, got %d", c.Credits.DailyLimit))
	}
	if c.Credits.InputWeight < 1 || c.Credits.OutputWeight < 1 {
		errs = append(errs, "credit token weights must be positive")
	}

	// Context bounds
	if c.Chat.CasualWindow < 1 {
		errs = append(errs, fmt.Sprintf("CHAT_CASUAL_WINDOW must be positive, got %d", c.Chat.CasualWindow))
	}
	if c.Chat.HistoryLimit < 1 {
		errs = append(errs, fmt.Sprintf("CHAT_HISTORY_LIMIT must be positive, got %d", c.Chat.HistoryLimit))
	}

	// DB password
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1-65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
