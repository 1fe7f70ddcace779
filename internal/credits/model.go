package credits

import "time"

// UsageRecord matches the users table usage columns. One record exists per
// user; it is the only shared mutable state in the gateway.
type UsageRecord struct {
	UserID           string    `json:"user_id"`
	CreditsUsedToday int       `json:"credits_used_today"`
	LastRequestDate  string    `json:"last_request_date"` // UTC, YYYY-MM-DD
	Version          int64     `json:"-"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Snapshot is the remaining-credit view returned to callers after every
// ledger operation.
type Snapshot struct {
	Remaining int `json:"remaining_credits"`
	Limit     int `json:"limit"`
}

// Limits is the billing policy: daily cap and per-token weights.
type Limits struct {
	DailyLimit   int
	InputWeight  int
	OutputWeight int
}

// DefaultLimits returns the stock policy: 20000 credits/day, output tokens
// weighted 5x over input.
func DefaultLimits() Limits {
	return Limits{DailyLimit: 20000, InputWeight: 1, OutputWeight: 5}
}

// Cost converts token counts into credits.
func (l Limits) Cost(inputTokens, outputTokens int) int {
	return inputTokens*l.InputWeight + outputTokens*l.OutputWeight
}

// DateOf renders t as the ledger's UTC day key.
func DateOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
