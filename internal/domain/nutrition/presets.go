package nutrition

// Bounds is an inclusive ratio range
type Bounds struct {
	Min float64
	Max float64
}

func (b Bounds) clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Preset is a named macro-ratio template plus hard ingredient-class constraints
type Preset struct {
	Key           string
	Label         string
	Split         MacroSplit
	ProteinBounds Bounds
	CarbBounds    Bounds
	FatBounds     Bounds
	// StrictLowCarb presets skip the gaining-trend carb increase
	StrictLowCarb bool
	// ProteinPerKg is the allowed protein band in grams per kilogram of body weight
	ProteinPerKg Bounds
	Forbidden    []string
	Emphasize    []string
}

var defaultProteinBand = Bounds{Min: 1.2, Max: 2.2}

var presets = map[string]Preset{
	"balanced": {
		Key: "balanced", Label: "Balanced",
		Split:         MacroSplit{Protein: 0.25, Carbs: 0.50, Fat: 0.25},
		ProteinBounds: Bounds{0.15, 0.35}, CarbBounds: Bounds{0.40, 0.60}, FatBounds: Bounds{0.20, 0.35},
		ProteinPerKg: defaultProteinBand,
		Emphasize:    []string{"lean proteins", "whole grains", "vegetables", "fruit"},
	},
	"high_protein": {
		Key: "high_protein", Label: "High Protein",
		Split:         MacroSplit{Protein: 0.40, Carbs: 0.35, Fat: 0.25},
		ProteinBounds: Bounds{0.30, 0.50}, CarbBounds: Bounds{0.20, 0.45}, FatBounds: Bounds{0.20, 0.35},
		ProteinPerKg: Bounds{Min: 1.6, Max: 2.4},
		Emphasize:    []string{"lean meats", "eggs", "greek yogurt", "legumes"},
	},
	"low_carb": {
		Key: "low_carb", Label: "Low Carb",
		Split:         MacroSplit{Protein: 0.35, Carbs: 0.20, Fat: 0.45},
		ProteinBounds: Bounds{0.25, 0.45}, CarbBounds: Bounds{0.10, 0.25}, FatBounds: Bounds{0.35, 0.55},
		StrictLowCarb: true,
		ProteinPerKg:  defaultProteinBand,
		Forbidden:     []string{"sugar", "white bread", "pasta", "rice", "potatoes"},
		Emphasize:     []string{"non-starchy vegetables", "meat", "fish", "eggs", "nuts"},
	},
	"ketogenic": {
		Key: "ketogenic", Label: "Ketogenic",
		Split:         MacroSplit{Protein: 0.20, Carbs: 0.05, Fat: 0.75},
		ProteinBounds: Bounds{0.15, 0.30}, CarbBounds: Bounds{0.03, 0.10}, FatBounds: Bounds{0.60, 0.80},
		StrictLowCarb: true,
		ProteinPerKg:  defaultProteinBand,
		Forbidden:     []string{"grains", "bread", "pasta", "rice", "potatoes", "sugar", "most fruit", "legumes"},
		Emphasize:     []string{"avocado", "olive oil", "butter", "fatty fish", "leafy greens", "cheese"},
	},
	"carnivore": {
		Key: "carnivore", Label: "Carnivore",
		Split:         MacroSplit{Protein: 0.35, Carbs: 0.00, Fat: 0.65},
		ProteinBounds: Bounds{0.25, 0.50}, CarbBounds: Bounds{0.00, 0.03}, FatBounds: Bounds{0.50, 0.75},
		StrictLowCarb: true,
		ProteinPerKg:  Bounds{Min: 1.6, Max: 2.4},
		Forbidden:     []string{"all plant foods", "grains", "vegetables", "fruit", "legumes", "nuts", "seeds", "sugar"},
		Emphasize:     []string{"beef", "lamb", "pork", "poultry", "fish", "eggs", "butter"},
	},
	"paleo": {
		Key: "paleo", Label: "Paleo",
		Split:         MacroSplit{Protein: 0.30, Carbs: 0.35, Fat: 0.35},
		ProteinBounds: Bounds{0.20, 0.40}, CarbBounds: Bounds{0.20, 0.45}, FatBounds: Bounds{0.25, 0.45},
		ProteinPerKg: defaultProteinBand,
		Forbidden:    []string{"grains", "legumes", "dairy", "refined sugar", "processed foods"},
		Emphasize:    []string{"meat", "fish", "vegetables", "fruit", "nuts", "seeds"},
	},
	"mediterranean": {
		Key: "mediterranean", Label: "Mediterranean",
		Split:         MacroSplit{Protein: 0.20, Carbs: 0.50, Fat: 0.30},
		ProteinBounds: Bounds{0.15, 0.30}, CarbBounds: Bounds{0.40, 0.60}, FatBounds: Bounds{0.25, 0.40},
		ProteinPerKg: defaultProteinBand,
		Forbidden:    []string{"processed meats", "refined sugar"},
		Emphasize:    []string{"olive oil", "fish", "legumes", "whole grains", "vegetables"},
	},
	"vegetarian": {
		Key: "vegetarian", Label: "Vegetarian",
		Split:         MacroSplit{Protein: 0.20, Carbs: 0.55, Fat: 0.25},
		ProteinBounds: Bounds{0.15, 0.30}, CarbBounds: Bounds{0.45, 0.65}, FatBounds: Bounds{0.20, 0.35},
		ProteinPerKg: defaultProteinBand,
		Forbidden:    []string{"meat", "poultry", "fish", "seafood", "gelatin"},
		Emphasize:    []string{"eggs", "dairy", "legumes", "tofu", "tempeh"},
	},
	"vegan": {
		Key: "vegan", Label: "Vegan",
		Split:         MacroSplit{Protein: 0.18, Carbs: 0.57, Fat: 0.25},
		ProteinBounds: Bounds{0.12, 0.30}, CarbBounds: Bounds{0.45, 0.65}, FatBounds: Bounds{0.20, 0.35},
		ProteinPerKg: defaultProteinBand,
		Forbidden:    []string{"meat", "poultry", "fish", "seafood", "eggs", "dairy", "honey", "gelatin"},
		Emphasize:    []string{"tofu", "tempeh", "seitan", "legumes", "nuts", "seeds", "whole grains"},
	},
	"pescatarian": {
		Key: "pescatarian", Label: "Pescatarian",
		Split:         MacroSplit{Protein: 0.25, Carbs: 0.45, Fat: 0.30},
		ProteinBounds: Bounds{0.15, 0.35}, CarbBounds: Bounds{0.35, 0.55}, FatBounds: Bounds{0.20, 0.40},
		ProteinPerKg: defaultProteinBand,
		Forbidden:    []string{"beef", "pork", "lamb", "poultry"},
		Emphasize:    []string{"fish", "shellfish", "eggs", "legumes"},
	},
	"zone": {
		Key: "zone", Label: "Zone",
		Split:         MacroSplit{Protein: 0.30, Carbs: 0.40, Fat: 0.30},
		ProteinBounds: Bounds{0.25, 0.35}, CarbBounds: Bounds{0.35, 0.45}, FatBounds: Bounds{0.25, 0.35},
		ProteinPerKg: defaultProteinBand,
		Emphasize:    []string{"lean protein", "low glycemic carbohydrates", "monounsaturated fats"},
	},
	"dash": {
		Key: "dash", Label: "DASH",
		Split:         MacroSplit{Protein: 0.20, Carbs: 0.55, Fat: 0.25},
		ProteinBounds: Bounds{0.15, 0.30}, CarbBounds: Bounds{0.45, 0.60}, FatBounds: Bounds{0.20, 0.30},
		ProteinPerKg: defaultProteinBand,
		Forbidden:    []string{"high sodium foods", "processed meats", "sugary drinks"},
		Emphasize:    []string{"fruit", "vegetables", "low-fat dairy", "whole grains"},
	},
	"endurance": {
		Key: "endurance", Label: "Endurance",
		Split:         MacroSplit{Protein: 0.20, Carbs: 0.60, Fat: 0.20},
		ProteinBounds: Bounds{0.15, 0.25}, CarbBounds: Bounds{0.50, 0.70}, FatBounds: Bounds{0.15, 0.30},
		ProteinPerKg: defaultProteinBand,
		Emphasize:    []string{"complex carbohydrates", "fruit", "lean protein"},
	},
}

// LookupPreset returns the preset for a dietary preference
func LookupPreset(preference string) (Preset, bool) {
	p, ok := presets[normalizePresetKey(preference)]
	return p, ok
}

// PresetKeys lists every known preset key
func PresetKeys() []string {
	keys := make([]string, 0, len(presets))
	for k := range presets {
		keys = append(keys, k)
	}
	return keys
}
