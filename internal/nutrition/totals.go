// internal/nutrition/totals.go
package nutrition

import (
	"nutrition-meter/internal/models"
)

// CalorieWarningThreshold is the total above which the calorie warning is shown.
const CalorieWarningThreshold = 1000.0

// Aggregate sums every macro across items, weighted by quantity.
func Aggregate(items []models.FoodItem) models.Totals {
	var totals models.Totals
	for _, item := range items {
		qty := float64(item.Quantity)
		totals.Calories += item.Calories * qty
		totals.Protein += item.Protein * qty
		totals.Carbs += item.Carbs * qty
		totals.Fat += item.Fat * qty
	}
	return totals
}

func WarningActive(totals models.Totals) bool {
	return totals.Calories > CalorieWarningThreshold
}
