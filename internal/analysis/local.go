package analysis

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

const minItemNameLength = 3

// skipLinePatterns match receipt lines that are never purchased items
var skipLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(subtotal|total|tax|change|cash|credit|debit|visa|mastercard|amex)`),
	regexp.MustCompile(`^\$?\d+\.\d{2}$`),
	regexp.MustCompile(`(?i)^thank you`),
	regexp.MustCompile(`(?i)^store #`),
	regexp.MustCompile(`^\d+/\d+/\d+`),
	regexp.MustCompile(`^\d+:\d+`),
}

var (
	// [quantity] name price
	itemLinePattern = regexp.MustCompile(`^(\d+\s+)?(.+?)\s+\$?(\d+\.\d{2})$`)
	numericName     = regexp.MustCompile(`^\d+$`)
	unitPriceSuffix = regexp.MustCompile(`(?i)\s*@\s*\$?\d+(?:\.\d+)?\s*/\s*[a-z]+$`)
	trailingMeasure = regexp.MustCompile(`(?i)^(.+?)\s+(\d+(?:\.\d+)?)\s*(lbs?|kg|g|oz|ml|l)$`)
)

// measureUnits maps a receipt weight or volume suffix to its schema unit
var measureUnits = map[string]string{
	"lb":  "lbs",
	"lbs": "lbs",
	"kg":  "kg",
	"g":   "g",
	"oz":  "oz",
	"l":   "L",
	"ml":  "mL",
}

type categoryRule struct {
	name     string
	category string
	keywords []string
}

// categoryRules are checked in order; the first rule with a keyword hit wins
var categoryRules = []categoryRule{
	{name: "bakery", category: CategoryBakery, keywords: []string{"bread", "bagel", "muffin", "donut", "croissant"}},
	{name: "dairy", category: CategoryDairy, keywords: []string{"milk", "cheese", "yogurt", "butter", "cream"}},
	{name: "fruits", category: CategoryProduce, keywords: []string{"apple", "banana", "orange", "grape", "berry"}},
	{name: "vegetables", category: CategoryProduce, keywords: []string{"lettuce", "tomato", "onion", "carrot", "potato"}},
	{name: "meat", category: CategoryMeat, keywords: []string{"chicken", "beef", "pork", "fish", "salmon"}},
	{name: "drinks", category: CategoryBeverages, keywords: []string{"juice", "soda", "water", "coffee", "tea"}},
	{name: "grains", category: CategoryPantry, keywords: []string{"cereal", "pasta", "rice", "oats"}},
	{name: "frozen", category: CategoryFrozen, keywords: []string{"frozen"}},
}

// categoryKeywords indexes every rule keyword; keywordRule maps a keyword
// index back to its rule index
var categoryKeywords, keywordRule = buildCategoryIndex(categoryRules)

func buildCategoryIndex(rules []categoryRule) (*keywordSet, []int) {
	var keywords []string
	var owners []int
	for i, rule := range rules {
		for _, kw := range rule.keywords {
			keywords = append(keywords, kw)
			owners = append(owners, i)
		}
	}
	return newKeywordSet(keywords...), owners
}

// Categorize assigns a food category to an item name using the keyword rules
func Categorize(name string) string {
	best := -1
	for _, idx := range categoryKeywords.find(foldText(name)) {
		if rule := keywordRule[idx]; best < 0 || rule < best {
			best = rule
		}
	}
	if best < 0 {
		return CategoryOther
	}
	return categoryRules[best].category
}

// LocalExtractor parses receipt lines with fixed patterns. It is
// deterministic and needs no network, at the cost of recall.
type LocalExtractor struct{}

// NewLocalExtractor creates a pattern-based extractor
func NewLocalExtractor() *LocalExtractor {
	return &LocalExtractor{}
}

// Extract parses every line of text that looks like a priced item
func (e *LocalExtractor) Extract(_ context.Context, text string) ([]RawLineItem, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errNoText
	}

	items := make([]RawLineItem, 0)
	for _, line := range splitLines(text) {
		if item, ok := parseReceiptLine(line); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func parseReceiptLine(line string) (RawLineItem, bool) {
	if line == "" {
		return RawLineItem{}, false
	}
	for _, pattern := range skipLinePatterns {
		if pattern.MatchString(line) {
			return RawLineItem{}, false
		}
	}

	m := itemLinePattern.FindStringSubmatch(line)
	if m == nil {
		return RawLineItem{}, false
	}

	name := strings.TrimSpace(m[2])
	if len(name) < minItemNameLength || numericName.MatchString(name) {
		return RawLineItem{}, false
	}

	price, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return RawLineItem{}, false
	}

	quantity := 1.0
	if lead := strings.TrimSpace(m[1]); lead != "" {
		if q, err := strconv.Atoi(lead); err == nil {
			quantity = float64(q)
		}
	}

	unit := "item"
	name = unitPriceSuffix.ReplaceAllString(name, "")
	if mm := trailingMeasure.FindStringSubmatch(name); mm != nil {
		if amount, err := strconv.ParseFloat(mm[2], 64); err == nil {
			name = mm[1]
			quantity = amount
			unit = measureUnits[strings.ToLower(mm[3])]
		}
	}

	return RawLineItem{
		Name:     titleCase(name),
		Quantity: quantity,
		Unit:     unit,
		Price:    &price,
		Category: Categorize(name),
	}, true
}
