// Package nutrition provides the HTTP client for the external food nutrition service
package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client looks up nutrition facts for a free-text ingredient phrase
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a new nutrition lookup client
func NewClient(cfg config.NutritionConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerS > 0 {
		limit = rate.Limit(cfg.RequestsPerS)
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
		logger:  logger.Named("nutrition"),
	}
}

type searchEnvelope struct {
	Message string       `json:"message"`
	Data    SearchResult `json:"data"`
}

// SearchResult is the food search payload
type SearchResult struct {
	SearchTag    string `json:"search_tag"`
	TotalResults string `json:"total_results"`
	Foods        []Food `json:"foods"`
}

type Food struct {
	FoodID   string    `json:"food_id"`
	FoodName string    `json:"food_name"`
	Servings []Serving `json:"servings"`
}

// Serving carries nutrient values for the queried quantity. The service encodes numbers as strings.
type Serving struct {
	ServingDescription string `json:"serving_description"`

	Calories     string `json:"calories"`
	Protein      string `json:"protein"`
	Carbohydrate string `json:"carbohydrate"`
	Fat          string `json:"fat"`
	Sugar        string `json:"sugar"`
	Fiber        string `json:"fiber"`

	SaturatedFat string `json:"saturated_fat"`
	Cholesterol  string `json:"cholesterol"`
	Sodium       string `json:"sodium"`
	Potassium    string `json:"potassium"`
	Calcium      string `json:"calcium"`
	Iron         string `json:"iron"`
	VitaminA     string `json:"vitamin_a"`
	VitaminC     string `json:"vitamin_c"`
	VitaminD     string `json:"vitamin_d"`
}

// Lookup returns the facts of the best match for the phrase
func (c *Client) Lookup(ctx context.Context, query string) (*outbound.NutritionFacts, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &outbound.LookupError{StatusCode: http.StatusBadRequest, Message: "empty query"}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	params := reqURL.Query()
	params.Set("food_name", query)
	params.Set("page_number", "0")
	params.Set("max_results", "1")
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &outbound.LookupError{
			StatusCode:  resp.StatusCode,
			RateLimited: resp.StatusCode == http.StatusTooManyRequests,
			Message:     truncate(string(body), 200),
		}
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(envelope.Data.Foods) == 0 || len(envelope.Data.Foods[0].Servings) == 0 {
		return nil, &outbound.LookupError{StatusCode: http.StatusNotFound, Message: "no match for " + query}
	}

	food := envelope.Data.Foods[0]
	c.logger.Debug("Nutrition lookup matched",
		zap.String("query", query),
		zap.String("food", food.FoodName),
	)
	return food.Servings[0].Facts(), nil
}

// Facts converts the string-encoded serving into numeric facts
func (s Serving) Facts() *outbound.NutritionFacts {
	facts := &outbound.NutritionFacts{
		Calories:       parseAmount(s.Calories),
		ProteinG:       parseAmount(s.Protein),
		CarbsG:         parseAmount(s.Carbohydrate),
		FatG:           parseAmount(s.Fat),
		SugarG:         parseAmount(s.Sugar),
		Micronutrients: make(map[string]float64),
	}

	micros := map[string]string{
		"fiber_g":         s.Fiber,
		"saturated_fat_g": s.SaturatedFat,
		"cholesterol_mg":  s.Cholesterol,
		"sodium_mg":       s.Sodium,
		"potassium_mg":    s.Potassium,
		"calcium_mg":      s.Calcium,
		"iron_mg":         s.Iron,
		"vitamin_a":       s.VitaminA,
		"vitamin_c":       s.VitaminC,
		"vitamin_d":       s.VitaminD,
	}
	for name, raw := range micros {
		if raw == "" {
			continue
		}
		facts.Micronutrients[name] = parseAmount(raw)
	}
	return facts
}

func parseAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ outbound.NutritionLookup = (*Client)(nil)
