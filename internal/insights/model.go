package insights

// MoodAnalysis is the structured dashboard payload the model is asked to
// produce. Score sits on a -5..+5 scale, negative is low mood.
type MoodAnalysis struct {
	OverallMood string       `json:"overallMood"`
	MoodScore   float64      `json:"moodScore"`
	Emotions    []string     `json:"emotions"`
	Insights    []string     `json:"insights"`
	Trends      []TrendPoint `json:"trends"`
}

// TrendPoint is one day's mood in the trend series.
type TrendPoint struct {
	Date  string  `json:"date"`
	Mood  string  `json:"mood"`
	Score float64 `json:"score"`
}

// moodSummary is the compact mood probe used to seed song recommendations.
type moodSummary struct {
	Mood     string   `json:"mood"`
	Score    float64  `json:"score"`
	Emotions []string `json:"emotions"`
}

// SongRecommendation is one curated track.
type SongRecommendation struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Reason string `json:"reason"`
	Mood   string `json:"mood"`
	Genre  string `json:"genre"`
}

// DailyRecommendations is the songs endpoint payload.
type DailyRecommendations struct {
	Date            string               `json:"date"`
	Mood            string               `json:"mood"`
	MoodScore       float64              `json:"moodScore"`
	Songs           []SongRecommendation `json:"songs"`
	MoodDescription string               `json:"moodDescription"`
}

// DashboardResponse bundles the mood analysis with transcript statistics.
type DashboardResponse struct {
	MoodAnalysis MoodAnalysis `json:"moodAnalysis"`
	Stats        Stats        `json:"stats"`
	LastUpdated  string       `json:"lastUpdated"`
}

// Stats summarizes the user's recorded activity.
type Stats struct {
	TotalUserMessages      int `json:"totalUserMessages"`
	TotalAssistantMessages int `json:"totalAssistantMessages"`
}

// JournalCommentRequest is the journal comment endpoint's request body.
type JournalCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=8000"`
	Prompt  string `json:"prompt,omitempty" validate:"omitempty,max=500"`
}

// JournalCommentResponse carries the generated (or fallback) comment.
type JournalCommentResponse struct {
	Comment  string `json:"comment"`
	Degraded bool   `json:"degraded"`
}
