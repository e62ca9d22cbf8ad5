package blueprint

import "github.com/alchemorsel/nutriplan/internal/domain/blueprint"

// unitAliases maps every recognized unit spelling to its canonical form
var unitAliases = map[string]string{
	"lb": "lbs", "lbs": "lbs", "pound": "lbs", "pounds": "lbs",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"fl oz": "fl oz", "fluid ounce": "fl oz", "fluid ounces": "fl oz",
	"g": "g", "gr": "g", "gram": "g", "grams": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg",
	"mg": "mg",
	"ml": "ml", "milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"cup": "cups", "cups": "cups",
	"tbsp": "tbsp", "tbs": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"pint": "pints", "pints": "pints",
	"quart": "quarts", "quarts": "quarts",
	"gallon": "gallons", "gallons": "gallons",
	"clove": "cloves", "cloves": "cloves",
	"can": "cans", "cans": "cans",
	"jar": "jars", "jars": "jars",
	"bunch": "bunches", "bunches": "bunches",
	"head": "heads", "heads": "heads",
	"slice": "slices", "slices": "slices",
	"stalk": "stalks", "stalks": "stalks",
	"sprig": "sprigs", "sprigs": "sprigs",
	"pinch": "pinch", "dash": "dash",
	"package": "packages", "packages": "packages", "pkg": "packages",
}

// descriptors are dropped from ingredient names before merging
var descriptors = map[string]struct{}{
	"breast": {}, "thigh": {}, "drumstick": {}, "wing": {}, "tenderloin": {}, "fillet": {}, "filet": {},
	"ground": {}, "fresh": {}, "dried": {}, "frozen": {}, "canned": {},
	"chopped": {}, "diced": {}, "minced": {}, "sliced": {}, "shredded": {}, "grated": {}, "crushed": {},
	"cubed": {}, "peeled": {}, "halved": {}, "quartered": {}, "julienned": {},
	"boneless": {}, "skinless": {}, "lean": {}, "extra": {}, "raw": {}, "cooked": {},
	"large": {}, "small": {}, "medium": {}, "whole": {}, "finely": {}, "roughly": {}, "thinly": {},
	"organic": {}, "ripe": {}, "optional": {}, "of": {}, "to": {}, "taste": {},
}

// singularExceptions are words that look plural but must not be trimmed
var singularExceptions = map[string]struct{}{
	"hummus": {}, "couscous": {}, "asparagus": {}, "molasses": {}, "swiss": {},
	"grits": {}, "oats": {}, "brussels": {}, "citrus": {}, "lettuce": {}, "cheese": {},
}

// categoryKeywords are tried in CategoryOrder; multi-word entries match as phrases
var categoryKeywords = map[blueprint.Category][]string{
	blueprint.CategoryProteins: {
		"chicken", "beef", "pork", "turkey", "lamb", "veal", "bison", "venison", "duck",
		"salmon", "tuna", "cod", "tilapia", "halibut", "trout", "sardine", "mackerel", "anchovy",
		"shrimp", "prawn", "scallop", "crab", "lobster", "fish", "seafood",
		"egg", "tofu", "tempeh", "seitan", "bacon", "sausage", "ham", "steak", "jerky",
		"lentil", "chickpea", "bean", "edamame", "protein powder",
	},
	blueprint.CategoryProduce: {
		"apple", "banana", "berry", "blueberry", "strawberry", "raspberry", "orange", "lemon", "lime",
		"grape", "mango", "pineapple", "peach", "pear", "avocado", "tomato", "potato", "sweet potato",
		"onion", "garlic", "ginger", "carrot", "celery", "cucumber", "pepper", "bell pepper", "zucchini",
		"squash", "spinach", "kale", "lettuce", "arugula", "cabbage", "broccoli", "cauliflower",
		"asparagus", "mushroom", "green bean", "pea", "corn", "eggplant", "herb", "basil", "cilantro",
		"parsley", "dill", "mint", "scallion", "shallot", "leek", "beet", "radish", "brussels sprout",
		"fruit", "vegetable", "green",
	},
	blueprint.CategoryDairy: {
		"milk", "cheese", "yogurt", "butter", "cream", "sour cream", "cottage cheese", "ricotta",
		"mozzarella", "parmesan", "cheddar", "feta", "ghee", "kefir",
	},
	blueprint.CategoryGrains: {
		"rice", "quinoa", "oat", "oats", "bread", "pasta", "noodle", "tortilla", "flour", "barley",
		"couscous", "bulgur", "farro", "cereal", "cracker", "bagel", "pita", "wrap", "granola",
	},
	blueprint.CategoryPantry: {
		"oil", "olive oil", "vinegar", "chicken broth", "beef broth", "vegetable broth", "chicken stock", "salt", "sugar", "honey", "maple syrup", "syrup", "sauce",
		"soy sauce", "mustard", "mayonnaise", "ketchup", "salsa", "spice", "cumin", "paprika",
		"cinnamon", "oregano", "thyme", "stock", "broth", "nut", "almond", "walnut", "cashew",
		"peanut butter", "almond butter", "seed", "chia", "flax", "coconut milk", "baking powder",
		"baking soda", "vanilla", "cocoa", "chocolate", "hummus", "tahini", "pesto",
	},
}
