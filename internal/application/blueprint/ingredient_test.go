package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIngredient(t *testing.T) {
	tests := []struct {
		raw      string
		quantity float64
		unit     string
		name     string
	}{
		{"2 lbs chicken breast", 2, "lbs", "chicken"},
		{"1 lb chicken thighs", 1, "lbs", "chicken"},
		{"3 eggs", 3, "", "egg"},
		{"8 large eggs", 8, "", "egg"},
		{"1 1/2 cups rolled oats", 1.5, "cups", "rolled oats"},
		{"½ cup milk", 0.5, "cups", "milk"},
		{"1½ cups milk", 1.5, "cups", "milk"},
		{"2-3 cloves garlic, minced", 3, "cloves", "garlic"},
		{"3 garlic cloves, minced", 3, "cloves", "garlic"},
		{"2 garlic cloves (crushed)", 2, "cloves", "garlic"},
		{"Chicken breast: 2 lbs", 2, "lbs", "chicken"},
		{"200 g Greek yogurt (2%)", 200, "g", "greek yogurt"},
		{"1 can (15 oz) black beans, drained", 1, "cans", "black bean"},
		{"2 Tablespoons olive oil", 2, "tbsp", "olive oil"},
		{"1.5 lbs salmon fillet", 1.5, "lbs", "salmon"},
		{"- 4 medium tomatoes, diced", 4, "", "tomato"},
		{"salt to taste", 1, "", "salt"},
		{"250 ml of almond milk", 250, "ml", "almond milk"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseIngredient(tt.raw)
			assert.Equal(t, tt.raw, got.Raw)
			assert.InDelta(t, tt.quantity, got.Quantity, 0.001)
			assert.Equal(t, tt.unit, got.Unit)
			assert.Equal(t, tt.name, got.Name)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "chicken", NormalizeName("Boneless Skinless Chicken Breasts"))
	assert.Equal(t, "beef", NormalizeName("lean ground beef (93%)"))
	assert.Equal(t, "blueberry", NormalizeName("frozen blueberries"))
	assert.Equal(t, "hummus", NormalizeName("hummus"))
	assert.Equal(t, "peach", NormalizeName("peaches, sliced"))
	assert.Equal(t, "fresh", NormalizeName("fresh"), "a name made only of descriptors is kept")
}

func TestParseQuantity(t *testing.T) {
	assert.InDelta(t, 2.0, parseQuantity("2"), 0.001)
	assert.InDelta(t, 0.75, parseQuantity("3/4"), 0.001)
	assert.InDelta(t, 2.5, parseQuantity("2 1/2"), 0.001)
	assert.InDelta(t, 4.0, parseQuantity("3-4"), 0.001)
	assert.InDelta(t, 4.0, parseQuantity("3 to 4"), 0.001)
	assert.InDelta(t, 0.5, parseQuantity(".5"), 0.001)
}
