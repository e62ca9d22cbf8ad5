package outbound

import (
	"context"
	"fmt"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
)

// GenerationErrorKind classifies upstream generator failures
type GenerationErrorKind string

const (
	GenerationRateLimited GenerationErrorKind = "rate_limited"
	GenerationServerError GenerationErrorKind = "server_error"
	GenerationTimeout     GenerationErrorKind = "timeout"
	GenerationBadRequest  GenerationErrorKind = "bad_request"
)

// GenerationError is returned by TextGenerator implementations
type GenerationError struct {
	Kind       GenerationErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("generation %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("generation %s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// GenerationRequest is one call to the generative text service
type GenerationRequest struct {
	System          string
	Prompt          string
	Tier            blueprint.Tier
	MaxOutputTokens int
	Temperature     float64
}

// TokenUsage reports token consumption for one call
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenerationResponse is the raw generator output
type GenerationResponse struct {
	Text  string
	Model string
	Usage TokenUsage
}

// TextGenerator drives the generative text model
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResponse, error)
}

// NutritionFacts is the lookup result for a quantity of an ingredient
type NutritionFacts struct {
	Calories       float64
	ProteinG       float64
	CarbsG         float64
	FatG           float64
	SugarG         float64
	Micronutrients map[string]float64
}

// LookupError is returned by NutritionLookup implementations
type LookupError struct {
	StatusCode  int
	RateLimited bool
	Message     string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("nutrition lookup failed (status %d): %s", e.StatusCode, e.Message)
}

// NutritionLookup resolves free-text ingredient phrases to nutrition values
type NutritionLookup interface {
	Lookup(ctx context.Context, query string) (*NutritionFacts, error)
}
