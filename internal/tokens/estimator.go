// Package tokens approximates generation-service token counts from raw text.
package tokens

import "unicode/utf8"

// Estimator estimates the token cost of a piece of text.
// The default implementation uses a characters-per-token heuristic; provide
// a custom implementation for real tokenizer-backed counting.
type Estimator interface {
	Estimate(text string) int
}

const defaultCharsPerToken = 4

// CharEstimator estimates tokens as ceil(characterCount / CharsPerToken),
// counting characters as runes so multibyte text is not overcharged.
// It is deliberately crude: the ledger only needs a cheap, monotonic signal
// before the upstream reports the real output size.
type CharEstimator struct {
	CharsPerToken int
}

// NewCharEstimator returns a CharEstimator with the default 4-chars ratio.
func NewCharEstimator() *CharEstimator {
	return &CharEstimator{CharsPerToken: defaultCharsPerToken}
}

func (e *CharEstimator) ratio() int {
	if e.CharsPerToken <= 0 {
		return defaultCharsPerToken
	}
	return e.CharsPerToken
}

func (e *CharEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	r := e.ratio()
	return (utf8.RuneCountInString(text) + r - 1) / r
}
