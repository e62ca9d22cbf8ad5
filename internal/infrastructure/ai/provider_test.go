package ai

import (
	"context"
	"testing"

	"github.com/alchemorsel/nutriplan/internal/domain/blueprint"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewTextGenerator(t *testing.T) {
	logger := zaptest.NewLogger(t)

	gen, err := NewTextGenerator(context.Background(), config.AIConfig{Provider: ProviderOpenAI, EconomyModel: "gpt-4o-mini"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, gen)

	gen, err = NewTextGenerator(context.Background(), config.AIConfig{Provider: ProviderOllama}, logger)
	require.NoError(t, err)
	client, ok := gen.(*openai.Client)
	require.True(t, ok)
	assert.Equal(t, ollamaModel, client.ModelFor(blueprint.TierEconomy))

	_, err = NewTextGenerator(context.Background(), config.AIConfig{Provider: "watson"}, logger)
	assert.Error(t, err)
}
