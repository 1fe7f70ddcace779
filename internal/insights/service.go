// Package insights derives mood analysis, music recommendations and journal
// feedback from the user's transcript, all through the metered gateway.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/calmsphere/calmsphere/internal/conversation"
	"github.com/calmsphere/calmsphere/internal/credits"
	"github.com/calmsphere/calmsphere/internal/gateway"
	"github.com/calmsphere/calmsphere/internal/genai"
	"github.com/calmsphere/calmsphere/internal/prompt"
	"github.com/calmsphere/calmsphere/internal/structured"
)

const (
	// sourceFetchLimit bounds how much transcript feeds an analysis.
	sourceFetchLimit = 100
	dashboardSources = 50
	songMoodSources  = 10

	journalFallbackComment = "Thank you for sharing your thoughts. Your reflections are valuable and I appreciate you taking the time to journal today. 💙"
)

const dashboardPromptTemplate = `You are an expert mood analyst. Analyze the following messages the user wrote to their AI companion and provide comprehensive mood insights.

MESSAGES:
{{sources}}

Respond with a JSON object in this structure:
{
  "overallMood": "string (e.g. 'Optimistic', 'Reflective', 'Anxious', 'Peaceful', 'Energetic')",
  "moodScore": number (-5 to +5, where -5 is very negative, 0 is neutral, +5 is very positive),
  "emotions": ["array", "of", "detected", "emotions"],
  "insights": ["array", "of", "meaningful", "insights", "about", "the", "person's", "mental", "state"],
  "trends": [
    {"date": "YYYY-MM-DD", "mood": "mood_name", "score": number}
  ]
}

Focus on emotional patterns over time, stress indicators and coping, positive developments, and areas that might need support. Be empathetic, insightful and constructive.`

const songMoodPromptTemplate = `Analyze the following recent messages to determine the user's current mood.

MESSAGES:
{{sources}}

Respond with only a JSON object:
{
  "mood": "primary mood (happy, sad, anxious, calm, excited, peaceful, energetic, reflective, hopeful, stressed)",
  "score": number (-5 to 5),
  "emotions": ["array", "of", "2-4", "emotions"]
}`

const songListPromptFormat = `You are a music therapist and DJ specializing in mood-based music curation. Based on the current mood analysis, recommend 6 songs.

Current Analysis:
- Primary Mood: %s
- Mood Score: %g (scale: -5 to +5)
- Emotions: %s

CRITICAL: Respond with ONLY a valid JSON array in this exact format. Do not include any other text.
[
  {
    "title": "Song Title",
    "artist": "Artist Name",
    "reason": "Why this song matches the mood and emotions.",
    "mood": "%s",
    "genre": "Genre"
  }
]`

const journalPromptFormat = `You are a compassionate and supportive AI journal companion. Respond to the journal entry below with warmth, empathy and encouragement.

Guidelines:
- Be understanding and non-judgmental
- Acknowledge the person's feelings and experiences
- Keep the response concise but meaningful (2-4 sentences)
- Avoid medical or professional advice
- Use emojis sparingly but meaningfully
%s
Journal Entry: %q`

// Provisioner creates a zero-usage ledger record for a new user.
type Provisioner interface {
	CreateUser(ctx context.Context, userID string) error
}

// Service produces the insight payloads. Every generation goes through the
// gateway so insight calls draw from the same daily allowance as chat.
type Service struct {
	gw          *gateway.Gateway
	store       conversation.Store
	provisioner Provisioner
	logger      *slog.Logger
	now         func() time.Time
}

// NewService wires the insights service.
func NewService(gw *gateway.Gateway, store conversation.Store, provisioner Provisioner, logger *slog.Logger) *Service {
	return &Service{gw: gw, store: store, provisioner: provisioner, logger: logger, now: time.Now}
}

func moodFallback() MoodAnalysis {
	return MoodAnalysis{
		OverallMood: "Neutral",
		MoodScore:   0,
		Emotions:    []string{"calm", "reflective"},
		Insights:    []string{"Continue journaling for better mood tracking"},
		Trends:      []TrendPoint{},
	}
}

// Dashboard analyzes the user's recent messages into a MoodAnalysis plus
// transcript statistics. Unusable model output degrades to the neutral
// fallback, never to an error.
func (s *Service) Dashboard(ctx context.Context, userID string) (*DashboardResponse, error) {
	turns, err := s.store.RecentTurns(ctx, userID, sourceFetchLimit, false)
	if err != nil {
		return nil, fmt.Errorf("loading transcript for %s: %w", userID, err)
	}

	stats := Stats{}
	for _, t := range turns {
		if t.Role == conversation.RoleUser {
			stats.TotalUserMessages++
		} else {
			stats.TotalAssistantMessages++
		}
	}

	promptText := prompt.RenderAnalysis(dashboardPromptTemplate, userSources(turns, dashboardSources))
	res, err := gateway.RequestStructuredAnalysis(ctx, s.gw, userID, promptText, moodFallback(),
		func(m *MoodAnalysis) bool {
			m.MoodScore = structured.Clamp(m.MoodScore, -5, 5)
			if m.Trends == nil {
				m.Trends = []TrendPoint{}
			}
			return m.OverallMood != ""
		})
	if err != nil {
		return nil, err
	}

	return &DashboardResponse{
		MoodAnalysis: res.Value,
		Stats:        stats,
		LastUpdated:  s.now().UTC().Format(time.RFC3339),
	}, nil
}

// Songs builds the daily song list in two metered steps: a compact mood
// probe over recent messages, then a curation call seeded with that mood.
// Either step degrading yields a playable-but-empty fallback payload.
func (s *Service) Songs(ctx context.Context, userID string) (*DailyRecommendations, error) {
	turns, err := s.store.RecentTurns(ctx, userID, sourceFetchLimit, false)
	if err != nil {
		return nil, fmt.Errorf("loading transcript for %s: %w", userID, err)
	}

	mood, err := s.currentMood(ctx, userID, turns)
	if err != nil {
		return nil, err
	}

	songPrompt := fmt.Sprintf(songListPromptFormat,
		mood.Mood, mood.Score, strings.Join(mood.Emotions, ", "), mood.Mood)
	res, err := gateway.RequestStructuredAnalysis(ctx, s.gw, userID, songPrompt,
		[]SongRecommendation{}, func(songs *[]SongRecommendation) bool {
			kept := (*songs)[:0]
			for _, song := range *songs {
				if song.Title != "" && song.Artist != "" {
					kept = append(kept, song)
				}
			}
			*songs = kept
			return len(kept) > 0
		})
	if err != nil {
		return nil, err
	}

	return &DailyRecommendations{
		Date:            credits.DateOf(s.now()),
		Mood:            mood.Mood,
		MoodScore:       mood.Score,
		Songs:           res.Value,
		MoodDescription: describeMood(mood.Score),
	}, nil
}

// currentMood probes the user's mood from their latest messages. With no
// transcript at all there is nothing to analyze and no generation is spent.
func (s *Service) currentMood(ctx context.Context, userID string, turns []conversation.Turn) (moodSummary, error) {
	neutral := moodSummary{Mood: "neutral", Score: 0, Emotions: []string{"calm", "peaceful"}}

	sources := userSources(turns, songMoodSources)
	if len(sources) == 0 {
		return neutral, nil
	}

	promptText := prompt.RenderAnalysis(songMoodPromptTemplate, sources)
	res, err := gateway.RequestStructuredAnalysis(ctx, s.gw, userID, promptText, neutral,
		func(m *moodSummary) bool {
			m.Score = structured.Clamp(m.Score, -5, 5)
			if len(m.Emotions) == 0 {
				m.Emotions = []string{"calm"}
			}
			return m.Mood != ""
		})
	if err != nil {
		return moodSummary{}, err
	}
	return res.Value, nil
}

// JournalComment generates a short supportive reaction to a journal entry.
// promptHint, when present, is the writing prompt the entry answered.
func (s *Service) JournalComment(ctx context.Context, userID, content, promptHint string) (*JournalCommentResponse, error) {
	hint := ""
	if promptHint != "" {
		hint = fmt.Sprintf("\nThe journal entry was written in response to this prompt: %q\n", promptHint)
	}
	promptText := fmt.Sprintf(journalPromptFormat, hint, content)

	opts := genai.DefaultOptions()
	opts.MaxOutputTokens = 300

	reply, err := s.gw.RequestPlainGeneration(ctx, userID, promptText, opts)
	if err != nil {
		return nil, err
	}
	if reply.Degraded || strings.TrimSpace(reply.Text) == "" {
		return &JournalCommentResponse{Comment: journalFallbackComment, Degraded: true}, nil
	}
	return &JournalCommentResponse{Comment: reply.Text}, nil
}

// CreditStatus reports the caller's remaining daily allowance.
func (s *Service) CreditStatus(ctx context.Context, userID string) (credits.Snapshot, error) {
	return s.gw.CreditStatus(ctx, userID)
}

// Enroll creates the user's ledger record if it does not exist yet and
// returns the resulting allowance. Idempotent: re-enrolling an existing
// user changes nothing.
func (s *Service) Enroll(ctx context.Context, userID string) (credits.Snapshot, error) {
	if err := s.provisioner.CreateUser(ctx, userID); err != nil {
		return credits.Snapshot{}, fmt.Errorf("enrolling %s: %w", userID, err)
	}
	return s.gw.CreditStatus(ctx, userID)
}

// userSources renders the newest limit user-authored turns as dated lines,
// oldest first.
func userSources(turns []conversation.Turn, limit int) []string {
	var users []conversation.Turn
	for _, t := range turns {
		if t.Role == conversation.RoleUser {
			users = append(users, t)
		}
	}
	if len(users) > limit {
		users = users[len(users)-limit:]
	}

	lines := make([]string, 0, len(users))
	for _, t := range users {
		lines = append(lines, fmt.Sprintf("[%s] %s", t.Timestamp.UTC().Format("2006-01-02"), t.Content))
	}
	return lines
}

func describeMood(score float64) string {
	switch {
	case score >= 3:
		return "You're radiating positive energy today."
	case score >= 1:
		return "You're in a good, steady place."
	case score > -1:
		return "A calm, balanced day."
	case score > -3:
		return "Things feel a little heavy; these songs are here to sit with you."
	default:
		return "A hard stretch. Be gentle with yourself today."
	}
}
