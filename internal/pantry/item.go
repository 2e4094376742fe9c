package pantry

import (
	"time"

	"github.com/zombor/pantry-tracker/internal/analysis"
)

// FoodItem is a tracked pantry item
type FoodItem struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	Category       string    `json:"category" db:"category"`
	ExpirationDate time.Time `json:"expiration_date" db:"expiration_date"`
	AddedDate      time.Time `json:"added_date" db:"added_date"`
	UPCCode        string    `json:"upc_code,omitempty" db:"upc_code"`
	Quantity       float64   `json:"quantity" db:"quantity"`
	Unit           string    `json:"unit" db:"unit"`
	DaysLeft       int       `json:"days_left" db:"-"` // computed on read
}

// NewItem is the request body for adding an item. ExpirationDate accepts
// YYYY-MM-DD or RFC 3339 and may be empty.
type NewItem struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	ExpirationDate string   `json:"expirationDate"`
	UPCCode        string   `json:"upcCode"`
	Quantity       *float64 `json:"quantity"`
	Unit           string   `json:"unit"`
}

// CategoryCount is the number of unexpired items in a category
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ExpiringItem is the compact item shape served to display devices
type ExpiringItem struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	DaysLeft int    `json:"days_left"`
}

// ShelfLife is a reference entry used to estimate expiration dates
type ShelfLife struct {
	FoodName      string `json:"food_name" db:"food_name"`
	Category      string `json:"category" db:"category"`
	ShelfLifeDays int    `json:"shelf_life_days" db:"shelf_life_days"`
	StorageType   string `json:"storage_type" db:"storage_type"`
}

// Product is a catalog entry keyed by UPC
type Product = analysis.ProductRecord
