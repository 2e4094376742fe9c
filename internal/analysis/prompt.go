package analysis

import "strings"

// lineItemPrompt instructs the text model to return receipt food items as a
// JSON array. Household and Personal Care are allowed in the output schema so
// the model can label non-food lines; Validate drops them.
const lineItemPrompt = `Extract ONLY FOOD AND GROCERY items from this receipt text. Ignore all non-food items completely.

Return ONLY a JSON array of objects with this exact structure:
[
  {
    "name": "item name",
    "quantity": number,
    "unit": "item" | "kg" | "g" | "lbs" | "oz" | "L" | "mL",
    "price": number,
    "category": "Produce" | "Dairy" | "Meat" | "Seafood" | "Bakery" | "Pantry" | "Frozen" | "Beverages" | "Snacks" | "Household" | "Personal Care" | "Other"
  }
]

FOOD ITEMS TO INCLUDE:
- Fresh fruits and vegetables (apples, bananas, lettuce, tomatoes, etc.)
- Dairy products (milk, cheese, yogurt, butter, eggs)
- Meat and poultry (chicken, beef, pork, turkey)
- Seafood (fish, shrimp, salmon)
- Bakery items (bread, bagels, muffins, pastries)
- Pantry staples (pasta, rice, flour, sugar, oil, spices)
- Canned goods (canned beans, tomatoes, soup)
- Frozen foods (frozen vegetables, meals, ice cream)
- Beverages (juice, soda, water, coffee, tea)
- Snacks (chips, crackers, nuts, granola bars)
- Condiments and sauces (ketchup, mustard, salad dressing)
- Breakfast foods (cereal, oatmeal, pancake mix)

NON-FOOD ITEMS TO EXCLUDE:
- Electronics (batteries, chargers, cables, light bulbs)
- Household supplies (paper towels, toilet paper, cleaning products, detergent)
- Personal care (shampoo, soap, toothpaste, deodorant, cosmetics)
- Health and beauty (vitamins, medicine, first aid)
- Pet supplies (pet food, toys, litter)
- Office supplies (pens, paper, folders)
- Automotive (motor oil, windshield fluid)
- Garden supplies (fertilizer, tools)
- Clothing and accessories
- Gift cards, lottery tickets
- Services (deli, bakery orders)
- Taxes, fees, bag charges

Rules:
- Be VERY STRICT about only including food items
- Handle weight-based items (e.g., "0.5 lbs apples" -> quantity: 0.5, unit: "lbs")
- Parse quantity from item names (e.g., "2 Dozen Eggs" -> quantity: 24, unit: "item")
- Handle bulk items (e.g., "Bananas @ $0.59/lb" with weight "1.2 lbs" -> quantity: 1.2, unit: "lbs")
- Use the category list above
- If quantity not specified, default to 1
- If unit not specified, use "item"
- If no price found, set to null
- Clean item names (remove brand names unless essential for identification)
- If NO food items found, return an empty array []`

// BuildExtractionPrompt appends the receipt text to the line item instructions
func BuildExtractionPrompt(text string) string {
	var b strings.Builder
	b.WriteString(lineItemPrompt)
	b.WriteString("\n\nReceipt Text:\n")
	b.WriteString(text)
	b.WriteString("\n\nJSON Response:")
	return b.String()
}
