package blueprint

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ParsedIngredient is one free-text ingredient after parsing
type ParsedIngredient struct {
	Raw      string
	Quantity float64
	Unit     string
	Name     string
}

// matcher is one production of the ingredient grammar
type matcher struct {
	name  string
	re    *regexp.Regexp
	parse func(m []string) (qty, unit, name string)
}

const quantityPattern = `(\d+\s+\d+/\d+|\d+/\d+|\d+(?:\.\d+)?(?:\s*(?:-|to)\s*\d+(?:\.\d+)?)?|\.\d+)`

var (
	vulgarFractions = strings.NewReplacer(
		"½", " 1/2", "⅓", " 1/3", "⅔", " 2/3", "¼", " 1/4", "¾", " 3/4",
		"⅛", " 1/8", "⅜", " 3/8", "⅝", " 5/8", "⅞", " 7/8", "⅕", " 1/5",
	)
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	nonWord       = regexp.MustCompile(`[^a-z\s-]+`)
	spaces        = regexp.MustCompile(`\s+`)
	leadingBullet = regexp.MustCompile(`^[-*•\s]+`)
	rangeSplit    = regexp.MustCompile(`\s*(?:-|to)\s*`)

	grammar = buildGrammar()
)

func buildGrammar() []matcher {
	units := make([]string, 0, len(unitAliases))
	for u := range unitAliases {
		units = append(units, regexp.QuoteMeta(u))
	}
	// longest spellings first so "fl oz" wins over "oz"
	sort.Slice(units, func(i, j int) bool {
		if len(units[i]) != len(units[j]) {
			return len(units[i]) > len(units[j])
		}
		return units[i] < units[j]
	})
	unit := `(` + strings.Join(units, "|") + `)\.?`

	return []matcher{
		{
			name: "quantity-unit-name",
			re:   regexp.MustCompile(`^` + quantityPattern + `\s*` + unit + `\s+(?:of\s+)?(.+)$`),
			parse: func(m []string) (string, string, string) {
				return m[1], m[2], m[3]
			},
		},
		{
			name: "name-quantity-unit",
			re:   regexp.MustCompile(`^(.+?)[,:]?\s+` + quantityPattern + `\s*` + unit + `$`),
			parse: func(m []string) (string, string, string) {
				return m[2], m[3], m[1]
			},
		},
		{
			name: "quantity-name-unit",
			re:   regexp.MustCompile(`^` + quantityPattern + `\s+(.+?)\s+` + unit + `(?:\s*[,;(].*)?$`),
			parse: func(m []string) (string, string, string) {
				return m[1], m[3], m[2]
			},
		},
		{
			name: "quantity-noun",
			re:   regexp.MustCompile(`^` + quantityPattern + `\s*x?\s+(.+)$`),
			parse: func(m []string) (string, string, string) {
				return m[1], "", m[2]
			},
		},
	}
}

// ParseIngredient runs the grammar over a raw ingredient string. The first
// matching production wins; with no match the whole string is the name and
// the quantity is one.
func ParseIngredient(raw string) ParsedIngredient {
	text := strings.ToLower(strings.TrimSpace(vulgarFractions.Replace(raw)))
	text = spaces.ReplaceAllString(leadingBullet.ReplaceAllString(text, ""), " ")
	text = strings.TrimSpace(text)

	for _, m := range grammar {
		groups := m.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		qty, unit, name := m.parse(groups)
		normalized := NormalizeName(name)
		if normalized == "" {
			continue
		}
		return ParsedIngredient{
			Raw:      raw,
			Quantity: parseQuantity(qty),
			Unit:     unitAliases[unit],
			Name:     normalized,
		}
	}

	return ParsedIngredient{Raw: raw, Quantity: 1, Name: NormalizeName(text)}
}

// parseQuantity understands integers, decimals, fractions, mixed numbers and
// ranges. A range yields its upper bound.
func parseQuantity(s string) float64 {
	s = strings.TrimSpace(s)
	if parts := rangeSplit.Split(s, 2); len(parts) == 2 && !strings.Contains(s, "/") {
		s = parts[1]
	}

	total := 0.0
	for _, field := range strings.Fields(s) {
		if num, den, ok := strings.Cut(field, "/"); ok {
			n, err1 := strconv.ParseFloat(num, 64)
			d, err2 := strconv.ParseFloat(den, 64)
			if err1 == nil && err2 == nil && d != 0 {
				total += n / d
			}
			continue
		}
		if v, err := strconv.ParseFloat(field, 64); err == nil {
			total += v
		}
	}
	return total
}

// NormalizeName reduces an ingredient phrase to its merge key: lowercase,
// no parentheticals or trailing clauses, descriptors removed, singular.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = parenthetical.ReplaceAllString(name, " ")
	if idx := strings.IndexAny(name, ",;"); idx >= 0 {
		name = name[:idx]
	}
	name = nonWord.ReplaceAllString(name, " ")
	name = strings.ReplaceAll(name, "-", " ")

	fields := strings.Fields(name)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		word := singularize(f)
		if _, drop := descriptors[word]; drop {
			continue
		}
		kept = append(kept, word)
	}
	if len(kept) == 0 {
		for _, f := range fields {
			kept = append(kept, singularize(f))
		}
	}
	return strings.Join(kept, " ")
}

func singularize(word string) string {
	if _, ok := singularExceptions[word]; ok {
		return word
	}
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 4 && strings.HasSuffix(word, "oes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "sses"), strings.HasSuffix(word, "xes"),
		strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "shes"):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "s") &&
		!strings.HasSuffix(word, "ss") && !strings.HasSuffix(word, "us") && !strings.HasSuffix(word, "is"):
		return word[:len(word)-1]
	}
	return word
}
