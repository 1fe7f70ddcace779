package insights

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmsphere/calmsphere/internal/conversation"
	"github.com/calmsphere/calmsphere/internal/credits"
	"github.com/calmsphere/calmsphere/internal/gateway"
	"github.com/calmsphere/calmsphere/internal/genai"
	"github.com/calmsphere/calmsphere/internal/prompt"
	"github.com/calmsphere/calmsphere/internal/tokens"
)

// scriptedGenerator plays back one canned result per call, in order.
type scriptedGenerator struct {
	results []*genai.Result
	errs    []error
	calls   int
	prompts []string
}

func (s *scriptedGenerator) Generate(ctx context.Context, promptText string, opts genai.GenerateOptions) (*genai.Result, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, promptText)
	var res *genai.Result
	var err error
	if i < len(s.results) {
		res = s.results[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return res, err
}

func newTestService(t *testing.T, gen gateway.Generator) (*Service, *conversation.MemoryStore, *credits.MemoryStore) {
	t.Helper()
	userStore := credits.NewMemoryStore()
	userStore.Seed(credits.UsageRecord{
		UserID:          "u@example.com",
		LastRequestDate: credits.DateOf(time.Now()),
	})

	convStore := conversation.NewMemoryStore()
	ledger := credits.NewLedger(userStore, credits.DefaultLimits())
	assembler := prompt.NewAssembler(convStore, 6, 100)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := gateway.NewGateway(ledger, assembler, gen, tokens.NewCharEstimator(), logger)

	return NewService(gw, convStore, userStore, logger), convStore, userStore
}

func seedTurns(t *testing.T, store *conversation.MemoryStore, contents ...string) {
	t.Helper()
	for _, c := range contents {
		require.NoError(t, store.AppendTurn(context.Background(),
			conversation.NewTurn("u@example.com", conversation.RoleUser, c)))
	}
}

func TestDashboard_ParsesAndClampsAnalysis(t *testing.T) {
	gen := &scriptedGenerator{results: []*genai.Result{{
		Text: `Here you go:
{"overallMood": "Hopeful", "moodScore": 9, "emotions": ["hopeful", "tired"], "insights": ["Sleep is improving"], "trends": [{"date": "2026-08-30", "mood": "calm", "score": 1}]}`,
		OutputTokens: 60,
	}}}
	svc, convStore, _ := newTestService(t, gen)
	seedTurns(t, convStore, "I slept better last night", "work was okay")

	resp, err := svc.Dashboard(context.Background(), "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Hopeful", resp.MoodAnalysis.OverallMood)
	assert.Equal(t, 5.0, resp.MoodAnalysis.MoodScore, "score must clamp to +5")
	assert.Len(t, resp.MoodAnalysis.Trends, 1)
	assert.Equal(t, 2, resp.Stats.TotalUserMessages)
	assert.Equal(t, 0, resp.Stats.TotalAssistantMessages)
	assert.NotEmpty(t, resp.LastUpdated)
}

func TestDashboard_FallbackOnConversationalOutput(t *testing.T) {
	gen := &scriptedGenerator{results: []*genai.Result{{Text: "I cannot help with that.", OutputTokens: 6}}}
	svc, convStore, _ := newTestService(t, gen)
	seedTurns(t, convStore, "hello")

	resp, err := svc.Dashboard(context.Background(), "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Neutral", resp.MoodAnalysis.OverallMood)
	assert.Equal(t, 0.0, resp.MoodAnalysis.MoodScore)
	assert.Equal(t, []string{"calm", "reflective"}, resp.MoodAnalysis.Emotions)
}

func TestSongs_TwoStageCuration(t *testing.T) {
	gen := &scriptedGenerator{results: []*genai.Result{
		{Text: `{"mood": "hopeful", "score": 2, "emotions": ["hopeful", "calm"]}`, OutputTokens: 20},
		{Text: `[
  {"title": "Here Comes the Sun", "artist": "The Beatles", "reason": "Gentle optimism", "mood": "hopeful", "genre": "Rock"},
  {"title": "", "artist": "Nobody", "reason": "incomplete", "mood": "hopeful", "genre": "Pop"}
]`, OutputTokens: 80},
	}}
	svc, convStore, _ := newTestService(t, gen)
	seedTurns(t, convStore, "feeling a bit better today")

	resp, err := svc.Songs(context.Background(), "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, "hopeful", resp.Mood)
	assert.Equal(t, 2.0, resp.MoodScore)
	require.Len(t, resp.Songs, 1, "entries without title or artist are dropped")
	assert.Equal(t, "Here Comes the Sun", resp.Songs[0].Title)
	assert.NotEmpty(t, resp.MoodDescription)
	assert.Equal(t, credits.DateOf(time.Now()), resp.Date)
}

func TestSongs_EmptyTranscriptSkipsMoodProbe(t *testing.T) {
	gen := &scriptedGenerator{results: []*genai.Result{
		{Text: `[{"title": "Weightless", "artist": "Marconi Union", "reason": "calming", "mood": "neutral", "genre": "Ambient"}]`, OutputTokens: 30},
	}}
	svc, _, _ := newTestService(t, gen)

	resp, err := svc.Songs(context.Background(), "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls, "no transcript means no mood-probe generation")
	assert.Equal(t, "neutral", resp.Mood)
	assert.Len(t, resp.Songs, 1)
}

func TestSongs_QuotaRejection(t *testing.T) {
	gen := &scriptedGenerator{}
	svc, convStore, userStore := newTestService(t, gen)
	seedTurns(t, convStore, "hello")
	userStore.Seed(credits.UsageRecord{
		UserID:           "u@example.com",
		CreditsUsedToday: 20000,
		LastRequestDate:  credits.DateOf(time.Now()),
	})

	_, err := svc.Songs(context.Background(), "u@example.com")
	_, ok := credits.IsQuotaExceeded(err)
	require.True(t, ok)
	assert.Equal(t, 0, gen.calls)
}

func TestJournalComment_Success(t *testing.T) {
	gen := &scriptedGenerator{results: []*genai.Result{{Text: "That took courage to write. 💙", OutputTokens: 10}}}
	svc, _, _ := newTestService(t, gen)

	resp, err := svc.JournalComment(context.Background(), "u@example.com", "Today was hard but I managed.", "")
	require.NoError(t, err)
	assert.False(t, resp.Degraded)
	assert.Equal(t, "That took courage to write. 💙", resp.Comment)
}

func TestJournalComment_FallbackOnFailure(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{genai.ErrEmptyOutput}}
	svc, _, _ := newTestService(t, gen)

	resp, err := svc.JournalComment(context.Background(), "u@example.com", "Today was hard.", "")
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Equal(t, journalFallbackComment, resp.Comment)
}

func TestEnroll_IdempotentProvisioning(t *testing.T) {
	gen := &scriptedGenerator{}
	svc, _, _ := newTestService(t, gen)
	ctx := context.Background()

	snap, err := svc.Enroll(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, 20000, snap.Remaining)

	// Re-enrolling never resets an existing record.
	snap, err = svc.Enroll(ctx, "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, 20000, snap.Limit)
}

func TestCreditStatus(t *testing.T) {
	gen := &scriptedGenerator{}
	svc, _, userStore := newTestService(t, gen)
	userStore.Seed(credits.UsageRecord{
		UserID:           "u@example.com",
		CreditsUsedToday: 500,
		LastRequestDate:  credits.DateOf(time.Now()),
	})

	snap, err := svc.CreditStatus(context.Background(), "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, 19500, snap.Remaining)
	assert.Equal(t, 20000, snap.Limit)
}
