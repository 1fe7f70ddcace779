// Package prompt classifies queries and assembles bounded generation prompts.
package prompt

import "strings"

// Mode selects which context-construction path a query takes.
type Mode string

const (
	// ModeCasual uses only the recent in-memory window.
	ModeCasual Mode = "casual"
	// ModeHistorical pulls the user's persisted history for retrospective
	// questions.
	ModeHistorical Mode = "historical"
)

// Request is the assembled, transient generation input. It is created per
// call and discarded once the gateway returns.
type Request struct {
	Mode   Mode
	Prompt string
	Query  string
}

// historicalCues is the closed list of retrospective phrases. Substring
// matching only, no NLP. Extending this list is a product decision, not a
// tuning knob.
var historicalCues = []string{
	"what did i",
	"what did we",
	"what have i",
	"remember when",
	"do you remember",
	"summarize our",
	"summarise our",
	"last time",
	"earlier today",
	"previously",
	"you told me",
	"i told you",
	"we talked about",
	"our conversation",
	"our previous",
	"chat history",
	"in the past",
	"looking back",
}

// Classify tags a query as historical when it contains any retrospective
// cue, case-insensitively. Everything else is casual.
func Classify(query string) Mode {
	q := strings.ToLower(query)
	for _, cue := range historicalCues {
		if strings.Contains(q, cue) {
			return ModeHistorical
		}
	}
	return ModeCasual
}
