// Package gemini provides a Google Gemini implementation of the text generator port
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client is a client for the Google Gemini API
type Client struct {
	client       *genai.Client
	economyModel string
	premiumModel string
	limiter      *rate.Limiter
	logger       *zap.Logger
}

// NewClient creates a new Gemini API client
func NewClient(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Client, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	limit := rate.Inf
	if cfg.RequestsPerS > 0 {
		limit = rate.Limit(cfg.RequestsPerS)
	}

	return &Client{
		client:       client,
		economyModel: cfg.EconomyModel,
		premiumModel: cfg.PremiumModel,
		limiter:      rate.NewLimiter(limit, max(cfg.Burst, 1)),
		logger:       logger.Named("gemini"),
	}, nil
}

// ModelFor returns the configured model for a tier
func (c *Client) ModelFor(tier blueprint.Tier) string {
	if tier == blueprint.TierPremium && c.premiumModel != "" {
		return c.premiumModel
	}
	return c.economyModel
}

// Generate sends the prompt to the tier's Gemini model and returns the generated text
func (c *Client) Generate(ctx context.Context, req outbound.GenerationRequest) (*outbound.GenerationResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &outbound.GenerationError{Kind: outbound.GenerationTimeout, Message: "rate limiter wait aborted", Err: err}
	}

	name := c.ModelFor(req.Tier)
	model := c.client.GenerativeModel(name)
	model.SetTemperature(float32(req.Temperature))
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxOutputTokens))
	}
	model.ResponseMIMEType = "application/json"
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		genErr := classifyError(err)
		c.logger.Warn("Gemini generation failed",
			zap.String("model", name),
			zap.String("kind", string(genErr.Kind)),
			zap.Error(err),
		)
		return nil, genErr
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, &outbound.GenerationError{Kind: outbound.GenerationServerError, Message: err.Error()}
	}

	out := &outbound.GenerationResponse{Text: text, Model: name}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = outbound.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// Close closes the underlying Gemini client
func (c *Client) Close() error {
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no content generated")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("generated content is not text")
	}
	return b.String(), nil
}

func classifyError(err error) *outbound.GenerationError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &outbound.GenerationError{Kind: outbound.GenerationTimeout, Message: "request timed out", Err: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &outbound.GenerationError{Kind: kindForStatus(apiErr.Code), StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}

	if st, ok := status.FromError(err); ok {
		httpCode := httpStatusForCode(st.Code())
		return &outbound.GenerationError{Kind: kindForStatus(httpCode), StatusCode: httpCode, Message: st.Message(), Err: err}
	}

	return &outbound.GenerationError{Kind: outbound.GenerationServerError, Message: err.Error(), Err: err}
}

func kindForStatus(code int) outbound.GenerationErrorKind {
	switch {
	case code == http.StatusTooManyRequests:
		return outbound.GenerationRateLimited
	case code == http.StatusGatewayTimeout || code == http.StatusRequestTimeout:
		return outbound.GenerationTimeout
	case code >= 500:
		return outbound.GenerationServerError
	default:
		return outbound.GenerationBadRequest
	}
}

func httpStatusForCode(code codes.Code) int {
	switch code {
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

var _ outbound.TextGenerator = (*Client)(nil)
