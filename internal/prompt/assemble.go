package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/calmsphere/calmsphere/internal/conversation"
)

const (
	personaTemplate = `You are Calm Sphere, a gentle, compassionate AI friend who provides emotional support in %s.
Your tone is kind, nurturing and uplifting. Keep replies short so the conversation keeps flowing and the user talks more.
If the user expresses a mood (such as sad, anxious, happy, angry or lost), gently acknowledge it and suggest soothing ideas or activities.`

	historicalInstruction = `You are Calm Sphere, a thoughtful AI companion. The user is asking about their own conversation history.
Answer analytically and honestly in %s, grounding every claim in the transcript below. If the transcript does not contain the answer, say so.`

	emptyHistoryNote = "No previous conversation."
)

// Assembler builds bounded prompts from the user's query and history.
// Casual queries use only the window of turns the caller already holds;
// historical queries fetch a larger transcript from the durable store.
type Assembler struct {
	store        conversation.Store
	casualWindow int
	historyLimit int
}

// NewAssembler creates an Assembler. casualWindow and historyLimit bound the
// two context paths (stock values: 6 and 100).
func NewAssembler(store conversation.Store, casualWindow, historyLimit int) *Assembler {
	return &Assembler{store: store, casualWindow: casualWindow, historyLimit: historyLimit}
}

// Casual builds the generation request from the window of turns the caller
// already holds; nothing is fetched. The caller classifies the query first.
func (a *Assembler) Casual(query string, recentTurns []conversation.Turn, language string) Request {
	if language == "" {
		language = "English"
	}
	return Request{Mode: ModeCasual, Prompt: a.casualPrompt(query, recentTurns, language), Query: query}
}

// Historical builds the generation request for a retrospective query by
// fetching the user's persisted transcript. This is the only assembly path
// that touches the durable store, so callers must clear the credit check
// before invoking it.
func (a *Assembler) Historical(ctx context.Context, userID, query, language string) (Request, error) {
	if language == "" {
		language = "English"
	}
	prompt, err := a.historicalPrompt(ctx, userID, query, language)
	if err != nil {
		return Request{}, err
	}
	return Request{Mode: ModeHistorical, Prompt: prompt, Query: query}, nil
}

func (a *Assembler) casualPrompt(query string, recentTurns []conversation.Turn, language string) string {
	window := recentTurns
	if len(window) > a.casualWindow {
		window = window[len(window)-a.casualWindow:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, personaTemplate, language)
	b.WriteString("\n\nRecent conversation:\n")
	if len(window) == 0 {
		b.WriteString(emptyHistoryNote + "\n")
	} else {
		for _, t := range window {
			fmt.Fprintf(&b, "%s: %s\n", roleLabel(t.Role), t.Content)
		}
	}
	fmt.Fprintf(&b, "\nUser: %s\nCalm Sphere:", query)
	return b.String()
}

func (a *Assembler) historicalPrompt(ctx context.Context, userID, query, language string) (string, error) {
	turns, err := a.store.RecentTurns(ctx, userID, a.historyLimit, false)
	if err != nil {
		return "", fmt.Errorf("fetching history for %s: %w", userID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, historicalInstruction, language)
	b.WriteString("\n\n")
	b.WriteString(summarize(turns))
	b.WriteString("\n\nTranscript:\n")
	if len(turns) == 0 {
		b.WriteString(emptyHistoryNote + "\n")
	} else {
		for _, t := range turns {
			fmt.Fprintf(&b, "[%s] %s: %s\n",
				t.Timestamp.UTC().Format("2006-01-02 15:04"), roleLabel(t.Role), t.Content)
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %s\nAnswer:", query)
	return b.String(), nil
}

// summarize gives the model counts and the time span before the transcript
// so it can reason about coverage.
func summarize(turns []conversation.Turn) string {
	if len(turns) == 0 {
		return "Summary: no recorded history."
	}

	var userCount, assistantCount int
	for _, t := range turns {
		if t.Role == conversation.RoleUser {
			userCount++
		} else {
			assistantCount++
		}
	}
	earliest := turns[0].Timestamp.UTC().Format("2006-01-02 15:04")
	latest := turns[len(turns)-1].Timestamp.UTC().Format("2006-01-02 15:04")
	return fmt.Sprintf("Summary: %d user messages and %d replies between %s and %s (UTC).",
		userCount, assistantCount, earliest, latest)
}

func roleLabel(r conversation.Role) string {
	if r == conversation.RoleAssistant {
		return "Calm Sphere"
	}
	return "User"
}

// RenderAnalysis splices source texts into an analysis prompt template. The
// template marks the insertion point with {{sources}}; a template without
// the marker gets the sources appended.
func RenderAnalysis(template string, sources []string) string {
	joined := strings.Join(sources, "\n")
	if strings.Contains(template, "{{sources}}") {
		return strings.ReplaceAll(template, "{{sources}}", joined)
	}
	return template + "\n\n" + joined
}
