package pantry

import "fmt"

// sampleProducts is the starter barcode catalog
var sampleProducts = []Product{
	{UPCCode: "8743612389", Name: "Joe's Eggs", Description: "Large brown eggs", Category: "Dairy", Brand: "Joe's Farm", Size: "12 count", Unit: "item", ShelfLifeDays: 21, StorageType: "refrigerator", TypicalQuantity: 12},
	{UPCCode: "8789572389", Name: "Milk 2%", Description: "Reduced fat milk", Category: "Dairy", Brand: "Generic", Size: "1 gallon", Unit: "gallon", ShelfLifeDays: 7, StorageType: "refrigerator", TypicalQuantity: 1},
	{UPCCode: "1234567890", Name: "Bread Loaf", Description: "Whole wheat sandwich bread", Category: "Bakery", Brand: "Bakery Co", Size: "24 oz", Unit: "item", ShelfLifeDays: 5, StorageType: "pantry", TypicalQuantity: 1},
	{UPCCode: "041196910756", Name: "Bananas", Description: "Yellow Cavendish bananas", Category: "Fruits", Brand: "Dole", Size: "1 bunch", Unit: "item", ShelfLifeDays: 7, StorageType: "pantry", TypicalQuantity: 1},
	{UPCCode: "011110826467", Name: "Apples", Description: "Red Delicious apples", Category: "Fruits", Brand: "Washington", Size: "3 lb bag", Unit: "lbs", ShelfLifeDays: 14, StorageType: "refrigerator", TypicalQuantity: 3},
	{UPCCode: "04167000432", Name: "Chicken Breast", Description: "Boneless skinless chicken breast", Category: "Meat", Brand: "Tyson", Size: "1.5 lb", Unit: "lbs", ShelfLifeDays: 2, StorageType: "refrigerator", TypicalQuantity: 1.5},
	{UPCCode: "041000021249", Name: "Yogurt", Description: "Plain Greek yogurt", Category: "Dairy", Brand: "Chobani", Size: "32 oz", Unit: "oz", ShelfLifeDays: 14, StorageType: "refrigerator", TypicalQuantity: 32},
	{UPCCode: "011110038497", Name: "Orange Juice", Description: "100% pure squeezed orange juice", Category: "Drinks", Brand: "Tropicana", Size: "59 oz", Unit: "oz", ShelfLifeDays: 14, StorageType: "refrigerator", TypicalQuantity: 59},
}

// sampleShelfLives is the starter expiration reference table
var sampleShelfLives = []ShelfLife{
	{FoodName: "Milk", Category: "Dairy", ShelfLifeDays: 7, StorageType: "refrigerator"},
	{FoodName: "Eggs", Category: "Dairy", ShelfLifeDays: 21, StorageType: "refrigerator"},
	{FoodName: "Bread", Category: "Bakery", ShelfLifeDays: 5, StorageType: "pantry"},
	{FoodName: "Apples", Category: "Fruits", ShelfLifeDays: 14, StorageType: "refrigerator"},
	{FoodName: "Bananas", Category: "Fruits", ShelfLifeDays: 7, StorageType: "pantry"},
	{FoodName: "Chicken", Category: "Meat", ShelfLifeDays: 2, StorageType: "refrigerator"},
	{FoodName: "Canned Beans", Category: "Canned Goods", ShelfLifeDays: 730, StorageType: "pantry"},
	{FoodName: "Rice", Category: "Grains", ShelfLifeDays: 1095, StorageType: "pantry"},
}

// Seed upserts the sample catalog and reference data. It is safe to run on
// every start.
func Seed(db DB) error {
	for i := range sampleProducts {
		p := sampleProducts[i]
		if err := db.SaveProduct(&p); err != nil {
			return fmt.Errorf("seeding product %s: %w", p.UPCCode, err)
		}
	}
	for i := range sampleShelfLives {
		s := sampleShelfLives[i]
		if err := db.SaveShelfLife(&s); err != nil {
			return fmt.Errorf("seeding shelf life %s: %w", s.FoodName, err)
		}
	}
	return nil
}
