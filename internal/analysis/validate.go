package analysis

import "math"

// Category labels the extraction schema knows about
const (
	CategoryProduce      = "Produce"
	CategoryDairy        = "Dairy"
	CategoryMeat         = "Meat"
	CategorySeafood      = "Seafood"
	CategoryBakery       = "Bakery"
	CategoryPantry       = "Pantry"
	CategoryFrozen       = "Frozen"
	CategoryBeverages    = "Beverages"
	CategorySnacks       = "Snacks"
	CategoryOther        = "Other"
	CategoryHousehold    = "Household"
	CategoryPersonalCare = "Personal Care"
)

// foodCategories is the accepted taxonomy. Household and Personal Care are
// valid extractor output but never accepted.
var foodCategories = map[string]struct{}{
	CategoryProduce:   {},
	CategoryDairy:     {},
	CategoryMeat:      {},
	CategorySeafood:   {},
	CategoryBakery:    {},
	CategoryPantry:    {},
	CategoryFrozen:    {},
	CategoryBeverages: {},
	CategorySnacks:    {},
	CategoryOther:     {},
}

// IsFoodCategory reports whether category belongs to the accepted taxonomy
func IsFoodCategory(category string) bool {
	_, ok := foodCategories[category]
	return ok
}

// Validate keeps the items that are structurally complete and in a food
// category. Failing items are dropped, never corrected. The result is never
// nil, so an all-dropped input yields an empty list.
func Validate(items []RawLineItem) []LineItem {
	valid := make([]LineItem, 0, len(items))
	for _, item := range items {
		if isValidItem(item) {
			valid = append(valid, LineItem(item))
		}
	}
	return valid
}

func isValidItem(item RawLineItem) bool {
	return item.Name != "" &&
		!math.IsNaN(item.Quantity) && !math.IsInf(item.Quantity, 0) &&
		item.Unit != "" &&
		IsFoodCategory(item.Category)
}
