// internal/nutrition/recommend.go
package nutrition

import (
	"math"

	"nutrition-meter/internal/models"
)

// Share of daily energy assigned to each macro, and its energy density in kcal/g.
const (
	proteinShare = 0.30
	carbsShare   = 0.50
	fatShare     = 0.20

	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0

	defaultActivityMultiplier = 1.2
)

var activityMultipliers = map[models.ActivityLevel]float64{
	models.Sedentary:        1.2,
	models.LightlyActive:    1.375,
	models.ModeratelyActive: 1.55,
	models.VeryActive:       1.725,
	models.ExtraActive:      1.9,
}

// ActivityMultiplier returns the TDEE multiplier for level. Unknown levels
// fall back to the sedentary multiplier.
func ActivityMultiplier(level models.ActivityLevel) float64 {
	if mult, ok := activityMultipliers[level]; ok {
		return mult
	}
	return defaultActivityMultiplier
}

// BMR estimates basal metabolic rate with the Mifflin-St Jeor equation.
// Inputs are used as entered (kg, cm, years).
func BMR(m models.UserMetrics) float64 {
	bmr := 10*m.Weight + 6.25*m.Height - 5*m.Age
	if m.Gender == models.Male {
		return bmr + 5
	}
	return bmr - 161
}

// Recommend derives daily calorie and macro targets from body metrics.
func Recommend(m models.UserMetrics) models.Recommendation {
	total := BMR(m) * ActivityMultiplier(m.ActivityLevel)

	return models.Recommendation{
		Calories: round2(total),
		Protein:  round2(total * proteinShare / kcalPerGramProtein),
		Carbs:    round2(total * carbsShare / kcalPerGramCarbs),
		Fat:      round2(total * fatShare / kcalPerGramFat),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
