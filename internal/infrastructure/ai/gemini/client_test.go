package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   outbound.GenerationErrorKind
		status int
	}{
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "quota"), outbound.GenerationRateLimited, http.StatusTooManyRequests},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), outbound.GenerationServerError, http.StatusInternalServerError},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), outbound.GenerationTimeout, http.StatusGatewayTimeout},
		{"grpc invalid", status.Error(codes.InvalidArgument, "bad"), outbound.GenerationBadRequest, http.StatusBadRequest},
		{"rest 429", &googleapi.Error{Code: 429, Message: "slow down"}, outbound.GenerationRateLimited, 429},
		{"rest 503", fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 503}), outbound.GenerationServerError, 503},
		{"context", context.DeadlineExceeded, outbound.GenerationTimeout, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.True(t, errors.Is(got, tt.err) || got.Err == tt.err)
		})
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}},
	}}}
	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)

	_, err = responseText(&genai.GenerateContentResponse{})
	assert.Error(t, err)
}

func TestModelFor(t *testing.T) {
	c := &Client{economyModel: "gemini-2.0-flash", premiumModel: "gemini-2.5-pro"}
	assert.Equal(t, "gemini-2.0-flash", c.ModelFor(blueprint.TierEconomy))
	assert.Equal(t, "gemini-2.5-pro", c.ModelFor(blueprint.TierPremium))
}
