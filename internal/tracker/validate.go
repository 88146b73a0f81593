// internal/tracker/validate.go
package tracker

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"nutrition-meter/internal/models"
)

var ErrInvalidInput = errors.New("invalid input values")

type candidateRules struct {
	Name     string  `json:"name" validate:"required"`
	Calories float64 `json:"calories" validate:"gte=0"`
	Protein  float64 `json:"protein" validate:"gte=0"`
	Carbs    float64 `json:"carbs" validate:"gte=0"`
	Fat      float64 `json:"fat" validate:"gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseAmount reads a numeric field. Text that does not parse to a finite
// number becomes NaN, which never satisfies gte=0.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// ValidateCandidate parses and checks a form candidate. On failure it
// returns ErrInvalidInput and the names of the failing fields.
func ValidateCandidate(c models.Candidate) (Fields, []string, error) {
	rules := candidateRules{
		Name:     c.Name,
		Calories: parseAmount(c.Calories),
		Protein:  parseAmount(c.Protein),
		Carbs:    parseAmount(c.Carbs),
		Fat:      parseAmount(c.Fat),
	}

	if err := validate.Struct(rules); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Fields{}, nil, err
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return Fields{}, fields, ErrInvalidInput
	}

	return Fields{
		Name:     rules.Name,
		Calories: rules.Calories,
		Protein:  rules.Protein,
		Carbs:    rules.Carbs,
		Fat:      rules.Fat,
	}, nil, nil
}
