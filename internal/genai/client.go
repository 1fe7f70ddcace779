// Package genai is the HTTP client for the billed text-generation service.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/calmsphere/calmsphere/internal/config"
)

// Result is a successful generation. OutputTokens is the upstream-reported
// count when available and 0 otherwise; callers fall back to estimating
// from Text.
type Result struct {
	Text         string
	OutputTokens int
}

// Client calls the Gemini generateContent REST endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	hc      *http.Client
}

// NewClient builds a client from config. The configured timeout bounds every
// call; a shorter per-call deadline can be set through the context.
func NewClient(cfg config.GeminiConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		hc:      &http.Client{Timeout: cfg.Timeout},
	}
}

// Request/response wire types for generateContent.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends prompt to the upstream and returns its text output.
// Failures map to three distinct kinds: *TransportError (network/timeout),
// *UpstreamError (non-2xx) and ErrEmptyOutput (2xx with no usable text).
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generate options: %w", err)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxOutputTokens,
			TopP:            opts.TopP,
			TopK:            opts.TopK,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		// Timeouts and cancellations are transport failures, not empty output
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	var parsed generateResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = json.Unmarshal(raw, &parsed)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: parsed.Error.Message}
	}

	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding generate response: %w", err)
	}

	text := parsed.text()
	if text == "" {
		return nil, ErrEmptyOutput
	}

	return &Result{
		Text:         text,
		OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}
