// Package openai provides an OpenAI-compatible chat completions client for plan generation
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client implements the TextGenerator port against /chat/completions
type Client struct {
	apiKey       string
	baseURL      string
	economyModel string
	premiumModel string
	client       *http.Client
	limiter      *rate.Limiter
	logger       *zap.Logger
}

// NewClient creates a new OpenAI client from the AI configuration
func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	limit := rate.Inf
	if cfg.RequestsPerS > 0 {
		limit = rate.Limit(cfg.RequestsPerS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	logger = logger.Named("openai")
	if cfg.APIKey == "" {
		logger.Warn("OpenAI API key not configured, requests will be sent without authorization",
			zap.String("base_url", baseURL))
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		economyModel: cfg.EconomyModel,
		premiumModel: cfg.PremiumModel,
		// Attempt deadlines come from the caller's context.
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// ChatCompletionRequest is the request body for /chat/completions
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type ChatCompletionResponse struct {
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ModelFor returns the configured model for a tier
func (c *Client) ModelFor(tier blueprint.Tier) string {
	if tier == blueprint.TierPremium && c.premiumModel != "" {
		return c.premiumModel
	}
	return c.economyModel
}

// Generate sends one chat completion request and maps transport failures to GenerationError
func (c *Client) Generate(ctx context.Context, req outbound.GenerationRequest) (*outbound.GenerationResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &outbound.GenerationError{Kind: outbound.GenerationTimeout, Message: "rate limiter wait aborted", Err: err}
	}

	model := c.ModelFor(req.Tier)
	body := ChatCompletionRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxOutputTokens,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		genErr := classifyStatus(resp.StatusCode, raw)
		c.logger.Warn("Chat completion failed",
			zap.String("model", model),
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(genErr.Kind)),
		)
		return nil, genErr
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(raw, &chatResp); err != nil {
		return nil, &outbound.GenerationError{Kind: outbound.GenerationServerError, StatusCode: resp.StatusCode,
			Message: "unreadable completion envelope", Err: err}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &outbound.GenerationError{Kind: outbound.GenerationServerError, StatusCode: resp.StatusCode,
			Message: "no choices returned"}
	}

	if chatResp.Model == "" {
		chatResp.Model = model
	}

	c.logger.Debug("Chat completion succeeded",
		zap.String("model", chatResp.Model),
		zap.String("tier", string(req.Tier)),
		zap.String("finish_reason", chatResp.Choices[0].FinishReason),
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
		zap.Duration("duration", time.Since(start)),
	)

	return &outbound.GenerationResponse{
		Text:  chatResp.Choices[0].Message.Content,
		Model: chatResp.Model,
		Usage: outbound.TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}

func classifyStatus(status int, body []byte) *outbound.GenerationError {
	message := http.StatusText(status)
	var apiErr apiErrorBody
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	kind := outbound.GenerationBadRequest
	switch {
	case status == http.StatusTooManyRequests:
		kind = outbound.GenerationRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = outbound.GenerationTimeout
	case status >= 500:
		kind = outbound.GenerationServerError
	}
	return &outbound.GenerationError{Kind: kind, StatusCode: status, Message: message}
}

func classifyTransportError(err error) *outbound.GenerationError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &outbound.GenerationError{Kind: outbound.GenerationTimeout, Message: "request timed out", Err: err}
	}
	return &outbound.GenerationError{Kind: outbound.GenerationServerError, Message: "transport failure", Err: err}
}

var _ outbound.TextGenerator = (*Client)(nil)
