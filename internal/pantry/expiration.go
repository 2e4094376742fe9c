package pantry

import (
	"math"
	"strings"
	"time"
)

const (
	defaultShelfLifeDays  = 7
	defaultStorageType    = "pantry"
	defaultSuggestionDays = 14
)

// suggestionDays maps a lower-cased category to the days added for a
// suggested expiration date
var suggestionDays = map[string]int{
	"fruits":       7,
	"vegetables":   10,
	"produce":      10,
	"dairy":        14,
	"meat":         3,
	"seafood":      2,
	"bakery":       5,
	"frozen":       90,
	"canned goods": 730,
}

// DaysLeft returns the whole days until expiration, rounded up. Expired
// items go negative. Rounding up means an item expiring later today still
// has one day left and is counted as unexpired.
func DaysLeft(expiration, now time.Time) int {
	return int(math.Ceil(expiration.Sub(now).Hours() / 24))
}

// SuggestedExpiration estimates an expiration date from the item category
func SuggestedExpiration(category string, now time.Time) time.Time {
	days, ok := suggestionDays[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		days = defaultSuggestionDays
	}
	return now.AddDate(0, 0, days)
}

// defaultShelfLife is returned when no reference entry matches a food name
func defaultShelfLife(name string) *ShelfLife {
	return &ShelfLife{
		FoodName:      name,
		Category:      "Other",
		ShelfLifeDays: defaultShelfLifeDays,
		StorageType:   defaultStorageType,
	}
}

// parseExpiration accepts a calendar date or a full timestamp. A calendar
// date is read in loc.
func parseExpiration(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
