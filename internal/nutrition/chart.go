// internal/nutrition/chart.go
package nutrition

import (
	"nutrition-meter/internal/models"
)

var chartColors = [...]string{"#0088FE", "#00C49F", "#FFBB28", "#FF8042"}

// ChartData lays out totals as the four slices of the nutrition pie chart.
func ChartData(totals models.Totals) []models.ChartSlice {
	values := []struct {
		name  string
		value float64
	}{
		{"Calories", totals.Calories},
		{"Protein", totals.Protein},
		{"Carbs", totals.Carbs},
		{"Fat", totals.Fat},
	}

	slices := make([]models.ChartSlice, 0, len(values))
	for i, v := range values {
		slices = append(slices, models.ChartSlice{
			Name:  v.name,
			Value: v.value,
			Color: chartColors[i%len(chartColors)],
		})
	}
	return slices
}
