// Package gateway coordinates a metered generation call end to end:
// estimate, reserve credits, assemble the prompt, call the generation
// service and reconcile the charge against the real output size.
package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/calmsphere/calmsphere/internal/conversation"
	"github.com/calmsphere/calmsphere/internal/credits"
	"github.com/calmsphere/calmsphere/internal/genai"
	"github.com/calmsphere/calmsphere/internal/metrics"
	"github.com/calmsphere/calmsphere/internal/prompt"
	"github.com/calmsphere/calmsphere/internal/structured"
	"github.com/calmsphere/calmsphere/internal/tokens"
)

// degradedReply is returned in place of model output when generation fails
// after credits were reserved. The reservation stands; retrying a failed
// call for free would let a flaky upstream bypass the meter.
const degradedReply = "I'm having a little trouble finding the right words just now. I'm still here with you. Could you try telling me that again in a moment?"

// Generator is the billed text-generation backend.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts genai.GenerateOptions) (*genai.Result, error)
}

// Reply is a completed gateway round trip. Degraded is true when the text
// is the stock fallback rather than model output.
type Reply struct {
	Text     string           `json:"text"`
	Mode     prompt.Mode      `json:"mode"`
	Usage    credits.Snapshot `json:"usage"`
	Degraded bool             `json:"degraded"`
}

// Gateway is the single entry point for credit-metered generation. Every
// call reserves before generating, so a user can never run a request their
// remaining allowance does not cover.
type Gateway struct {
	ledger    *credits.Ledger
	assembler *prompt.Assembler
	generator Generator
	estimator tokens.Estimator
	logger    *slog.Logger
}

// NewGateway wires the collaborators together.
func NewGateway(ledger *credits.Ledger, assembler *prompt.Assembler, generator Generator, estimator tokens.Estimator, logger *slog.Logger) *Gateway {
	return &Gateway{
		ledger:    ledger,
		assembler: assembler,
		generator: generator,
		estimator: estimator,
		logger:    logger,
	}
}

// RequestGeneration runs one conversational generation for userID.
// recentTurns is the caller's in-memory window; persisted history is only
// consulted for retrospective queries, and only after the credit check: a
// quota-rejected request never reads the durable store.
//
// Quota rejections return *credits.QuotaExceededError before any generation
// happens. Generation failures do not fail the call: the reply degrades to
// a stock message, the reservation is kept and no reconcile runs.
func (g *Gateway) RequestGeneration(ctx context.Context, userID, query string, recentTurns []conversation.Turn, language string) (*Reply, error) {
	mode := prompt.Classify(query)

	var inputEstimate int
	var build func(context.Context) (string, error)
	if mode == prompt.ModeHistorical {
		// The historical prompt does not exist until persisted history is
		// fetched, so the reservation charges a query-based estimate and the
		// post-generation adjustment corrects it to the real prompt size.
		inputEstimate = g.estimator.Estimate(query)
		build = func(ctx context.Context) (string, error) {
			req, err := g.assembler.Historical(ctx, userID, query, language)
			if err != nil {
				return "", err
			}
			return req.Prompt, nil
		}
	} else {
		req := g.assembler.Casual(query, recentTurns, language)
		inputEstimate = g.estimator.Estimate(req.Prompt)
		build = func(context.Context) (string, error) { return req.Prompt, nil }
	}

	opts := genai.DefaultOptions()
	result, snap, err := g.meteredGenerate(ctx, userID, mode, opts, inputEstimate, build)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &Reply{Text: degradedReply, Mode: mode, Usage: snap, Degraded: true}, nil
	}
	return &Reply{Text: result.Text, Mode: mode, Usage: snap}, nil
}

// meteredGenerate is the reserve/generate/reconcile core shared by the chat
// path and the structured-analysis path. The prompt is produced by build
// only after the reservation succeeds, so a quota-rejected request does no
// further work: no history fetch, no generation call. A nil result with a
// nil error means generation failed and the caller should degrade.
func (g *Gateway) meteredGenerate(ctx context.Context, userID string, mode prompt.Mode, opts genai.GenerateOptions, inputEstimate int, build func(context.Context) (string, error)) (*genai.Result, credits.Snapshot, error) {
	limits := g.ledger.Limits()
	reservedCost := limits.Cost(inputEstimate, opts.MaxOutputTokens)

	snap, err := g.ledger.Reserve(ctx, userID, inputEstimate, opts.MaxOutputTokens)
	if err != nil {
		if qe, ok := credits.IsQuotaExceeded(err); ok {
			metrics.QuotaRejectionsTotal.Inc()
			metrics.GenerationsTotal.WithLabelValues(string(mode), "quota_rejected").Inc()
			g.logger.Info("generation rejected by daily credit cap",
				"user_id", userID, "remaining", qe.Remaining)
		}
		return nil, credits.Snapshot{}, err
	}
	metrics.CreditsChargedTotal.Add(float64(reservedCost))

	promptText, err := build(ctx)
	if err != nil {
		// Nothing was generated, so the reservation is released rather than
		// left to expire at rollover.
		if _, adjErr := g.ledger.Adjust(ctx, userID, -reservedCost); adjErr != nil {
			g.logger.Warn("failed to release reservation after prompt assembly error",
				"user_id", userID, "error", adjErr)
		}
		return nil, credits.Snapshot{}, err
	}
	actualInput := g.estimator.Estimate(promptText)

	start := time.Now()
	result, err := g.generator.Generate(ctx, promptText, opts)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		// The reservation stands: the upstream may have billed us even
		// though no usable output came back.
		metrics.GenerationsTotal.WithLabelValues(string(mode), "degraded").Inc()
		g.logger.Warn("generation failed, serving degraded reply",
			"user_id", userID, "mode", mode, "error", err)
		return nil, snap, nil
	}

	actualOutput := result.OutputTokens
	if actualOutput == 0 {
		actualOutput = g.estimator.Estimate(result.Text)
	}

	// One write corrects both sides of the reservation: the input estimate
	// against the assembled prompt and the output cap against real usage.
	delta := (actualInput-inputEstimate)*limits.InputWeight +
		(actualOutput-opts.MaxOutputTokens)*limits.OutputWeight
	reconciled, err := g.ledger.Adjust(ctx, userID, delta)
	if err != nil {
		// The reply is already in hand; a failed correction costs the user
		// at most the over-reserved estimate until rollover.
		g.logger.Warn("usage correction failed, keeping reserved charge",
			"user_id", userID, "error", err)
		reconciled = snap
	}

	metrics.GenerationsTotal.WithLabelValues(string(mode), "success").Inc()
	return result, reconciled, nil
}

// RequestPlainGeneration runs a metered generation over a caller-built
// prompt, skipping conversational context assembly. Used for one-shot
// prompts like journal comments. Failure semantics match RequestGeneration:
// quota rejections error, generation failures degrade.
func (g *Gateway) RequestPlainGeneration(ctx context.Context, userID, promptText string, opts genai.GenerateOptions) (*Reply, error) {
	result, snap, err := g.meteredGenerate(ctx, userID, "plain", opts,
		g.estimator.Estimate(promptText),
		func(context.Context) (string, error) { return promptText, nil })
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &Reply{Text: "", Mode: "plain", Usage: snap, Degraded: true}, nil
	}
	return &Reply{Text: result.Text, Mode: "plain", Usage: snap}, nil
}

// CreditStatus reports the user's remaining daily allowance.
func (g *Gateway) CreditStatus(ctx context.Context, userID string) (credits.Snapshot, error) {
	return g.ledger.Status(ctx, userID)
}

// AnalysisResult carries a structured-analysis value plus billing metadata.
type AnalysisResult[T any] struct {
	Value    T
	Usage    credits.Snapshot
	Degraded bool
}

// RequestStructuredAnalysis runs a metered generation that is expected to
// yield a JSON value of type T. Any failure past the credit check (a
// generation error, unparseable output, a rejected shape) degrades to
// fallback instead of erroring; check may also normalize the parsed value
// in place (see structured.ParseWithFallback).
func RequestStructuredAnalysis[T any](ctx context.Context, g *Gateway, userID, promptText string, fallback T, check func(*T) bool) (AnalysisResult[T], error) {
	result, snap, err := g.meteredGenerate(ctx, userID, "analysis", genai.AnalysisOptions(),
		g.estimator.Estimate(promptText),
		func(context.Context) (string, error) { return promptText, nil })
	if err != nil {
		return AnalysisResult[T]{}, err
	}
	if result == nil {
		return AnalysisResult[T]{Value: fallback, Usage: snap, Degraded: true}, nil
	}

	value := structured.ParseWithFallback(result.Text, fallback, check)
	return AnalysisResult[T]{Value: value, Usage: snap}, nil
}
