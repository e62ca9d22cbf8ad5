package blueprint

// Category is a shopping list section
type Category string

const (
	CategoryProteins Category = "Proteins"
	CategoryProduce  Category = "Produce"
	CategoryDairy    Category = "Dairy"
	CategoryGrains   Category = "Grains"
	CategoryPantry   Category = "Pantry"
	CategoryOther    Category = "Other"
)

// CategoryOrder is the priority order used for categorization and truncation
var CategoryOrder = []Category{
	CategoryProteins,
	CategoryProduce,
	CategoryDairy,
	CategoryGrains,
	CategoryPantry,
	CategoryOther,
}

// ShoppingItem is one merged shopping list entry
type ShoppingItem struct {
	Name     string  `json:"item"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

// ShoppingList groups items by category
type ShoppingList map[Category][]ShoppingItem

// Count returns the total number of items across categories
func (l ShoppingList) Count() int {
	n := 0
	for _, items := range l {
		n += len(items)
	}
	return n
}
