package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.AIConfig{
		BaseURL:      server.URL,
		APIKey:       "sk-test",
		EconomyModel: "gpt-4o-mini",
		PremiumModel: "gpt-4o",
	}, zaptest.NewLogger(t))
}

func TestGenerate_SelectsModelByTier(t *testing.T) {
	var seen []ChatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)

		json.NewEncoder(w).Encode(ChatCompletionResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: `{"meals":[]}`}, FinishReason: "stop"}},
			Usage:   Usage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150},
		})
	})

	for _, tier := range []blueprint.Tier{blueprint.TierEconomy, blueprint.TierPremium} {
		resp, err := client.Generate(context.Background(), outbound.GenerationRequest{
			System: "sys", Prompt: "plan", Tier: tier, MaxOutputTokens: 16000, Temperature: 0.7,
		})
		require.NoError(t, err)
		assert.Equal(t, `{"meals":[]}`, resp.Text)
		assert.Equal(t, 150, resp.Usage.TotalTokens)
	}

	require.Len(t, seen, 2)
	assert.Equal(t, "gpt-4o-mini", seen[0].Model)
	assert.Equal(t, "gpt-4o", seen[1].Model)
	assert.Equal(t, "system", seen[0].Messages[0].Role)
	assert.Equal(t, "plan", seen[0].Messages[1].Content)
	assert.Equal(t, 16000, seen[0].MaxTokens)
	require.NotNil(t, seen[0].ResponseFormat)
	assert.Equal(t, "json_object", seen[0].ResponseFormat.Type)
}

func TestGenerate_MapsStatusToKind(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   outbound.GenerationErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, outbound.GenerationRateLimited},
		{"server error", http.StatusInternalServerError, outbound.GenerationServerError},
		{"bad gateway", http.StatusBadGateway, outbound.GenerationServerError},
		{"gateway timeout", http.StatusGatewayTimeout, outbound.GenerationTimeout},
		{"bad request", http.StatusBadRequest, outbound.GenerationBadRequest},
		{"unauthorized", http.StatusUnauthorized, outbound.GenerationBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"upstream said no","type":"x"}}`))
			})

			_, err := client.Generate(context.Background(), outbound.GenerationRequest{Tier: blueprint.TierEconomy})
			var genErr *outbound.GenerationError
			require.True(t, errors.As(err, &genErr))
			assert.Equal(t, tt.kind, genErr.Kind)
			assert.Equal(t, tt.status, genErr.StatusCode)
			assert.Equal(t, "upstream said no", genErr.Message)
		})
	}
}

func TestGenerate_ContextDeadlineIsTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, outbound.GenerationRequest{Tier: blueprint.TierEconomy})
	var genErr *outbound.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, outbound.GenerationTimeout, genErr.Kind)
}

func TestGenerate_EmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Generate(context.Background(), outbound.GenerationRequest{Tier: blueprint.TierPremium})
	var genErr *outbound.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, outbound.GenerationServerError, genErr.Kind)
}

func TestModelFor_FallsBackToEconomy(t *testing.T) {
	client := NewClient(config.AIConfig{EconomyModel: "small"}, zaptest.NewLogger(t))
	assert.Equal(t, "small", client.ModelFor(blueprint.TierPremium))
	assert.Equal(t, defaultBaseURL, client.baseURL)
}
