package genai

import "fmt"

// GenerateOptions are the sampling controls for a generation call.
type GenerateOptions struct {
	// Temperature in [0, 1]; higher is more diverse.
	Temperature float64
	// MaxOutputTokens bounds the reply length; must be positive. It doubles
	// as the output-cost estimate the ledger pre-charges.
	MaxOutputTokens int
	// TopP nucleus sampling mass in (0, 1].
	TopP float64
	// TopK candidate cutoff; 0 leaves the upstream default.
	TopK int
}

// DefaultOptions are the conversational defaults.
func DefaultOptions() GenerateOptions {
	return GenerateOptions{
		Temperature:     0.7,
		MaxOutputTokens: 1024,
		TopP:            0.9,
		TopK:            40,
	}
}

// AnalysisOptions favor determinism for structured-output calls.
func AnalysisOptions() GenerateOptions {
	return GenerateOptions{
		Temperature:     0.3,
		MaxOutputTokens: 1500,
		TopP:            0.8,
		TopK:            10,
	}
}

// Validate reports the first out-of-range field.
func (o GenerateOptions) Validate() error {
	if o.Temperature < 0 || o.Temperature > 1 {
		return fmt.Errorf("temperature must be in [0,1], got %g", o.Temperature)
	}
	if o.MaxOutputTokens <= 0 {
		return fmt.Errorf("max output tokens must be positive, got %d", o.MaxOutputTokens)
	}
	if o.TopP < 0 || o.TopP > 1 {
		return fmt.Errorf("topP must be in [0,1], got %g", o.TopP)
	}
	if o.TopK < 0 {
		return fmt.Errorf("topK must be non-negative, got %d", o.TopK)
	}
	return nil
}
