// internal/tracker/session.go
package tracker

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"nutrition-meter/internal/models"
	"nutrition-meter/internal/nutrition"
)

var (
	ErrUnknownField  = errors.New("unknown field")
	ErrInvalidMetric = errors.New("metric value is not a number")
)

// Session holds the state of one nutrition meter form: the ledger, the
// input buffer, edit mode, body metrics and the last recommendation.
//
// A Session is not safe for concurrent use.
type Session struct {
	ledger         *Ledger
	input          models.Candidate
	inputError     bool
	invalidFields  []string
	editing        int64 // 0 when idle
	metrics        models.UserMetrics
	recommendation models.Recommendation
	drawerOpen     bool
}

func NewSession() *Session {
	return &Session{
		ledger: NewLedger(),
		metrics: models.UserMetrics{
			Gender:        models.Male,
			ActivityLevel: models.Sedentary,
		},
	}
}

func (s *Session) Ledger() *Ledger {
	return s.ledger
}

// SetInputField sets one field of the input buffer.
func (s *Session) SetInputField(name, value string) error {
	switch name {
	case "name":
		s.input.Name = value
	case "calories":
		s.input.Calories = value
	case "protein":
		s.input.Protein = value
	case "carbs":
		s.input.Carbs = value
	case "fat":
		s.input.Fat = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Add validates the input buffer and appends it to the ledger. On
// ErrInvalidInput the error flag is set and nothing else changes.
func (s *Session) Add() (models.FoodItem, error) {
	fields, invalid, err := ValidateCandidate(s.input)
	if err != nil {
		s.reject(invalid)
		return models.FoodItem{}, err
	}

	item := s.ledger.Add(fields)
	s.resetInput()
	return item, nil
}

// Update validates the input buffer and writes it over the item being
// edited, then returns to idle. A buffer whose id no longer matches an
// item is accepted without touching the ledger.
func (s *Session) Update() error {
	fields, invalid, err := ValidateCandidate(s.input)
	if err != nil {
		s.reject(invalid)
		return err
	}

	s.ledger.Update(s.input.ID, fields)
	s.editing = 0
	s.resetInput()
	return nil
}

// StartEdit enters edit mode for id and loads its values into the input
// buffer. Missing ids are ignored.
func (s *Session) StartEdit(id int64) {
	item, ok := s.ledger.Get(id)
	if !ok {
		return
	}
	s.editing = id
	s.input = models.Candidate{
		ID:       item.ID,
		Name:     item.Name,
		Calories: formatAmount(item.Calories),
		Protein:  formatAmount(item.Protein),
		Carbs:    formatAmount(item.Carbs),
		Fat:      formatAmount(item.Fat),
	}
}

func (s *Session) CancelEdit() {
	s.editing = 0
	s.resetInput()
}

func (s *Session) Delete(id int64) {
	s.ledger.Delete(id)
}

func (s *Session) Clear() {
	s.ledger.Clear()
}

func (s *Session) ChangeQuantity(id int64, delta int) {
	s.ledger.ChangeQuantity(id, delta)
}

// SetUserMetricField sets one body metric from form text. Numeric fields
// accept any number, including zero and negatives; empty text reads as 0.
func (s *Session) SetUserMetricField(name, value string) error {
	switch name {
	case "gender":
		s.metrics.Gender = models.Gender(value)
		return nil
	case "activityLevel", "activity_level":
		s.metrics.ActivityLevel = models.ActivityLevel(value)
		return nil
	}

	var target *float64
	switch name {
	case "age":
		target = &s.metrics.Age
	case "height":
		target = &s.metrics.Height
	case "weight":
		target = &s.metrics.Weight
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		*target = 0
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%q", ErrInvalidMetric, name, value)
	}
	*target = v
	return nil
}

// ComputeRecommendation recalculates the recommendation from the current
// metrics. It is never run implicitly.
func (s *Session) ComputeRecommendation() models.Recommendation {
	s.recommendation = nutrition.Recommend(s.metrics)
	return s.recommendation
}

func (s *Session) OpenDrawer()  { s.drawerOpen = true }
func (s *Session) CloseDrawer() { s.drawerOpen = false }

// View recomputes totals and the warning from the current ledger.
func (s *Session) View() models.View {
	items := s.ledger.Items()
	totals := nutrition.Aggregate(items)

	mode := models.EditMode{State: models.EditIdle}
	if s.editing != 0 {
		mode = models.EditMode{State: models.EditEditing, ItemID: s.editing}
	}

	var invalid []string
	if len(s.invalidFields) > 0 {
		invalid = append(invalid, s.invalidFields...)
	}

	return models.View{
		Items:          items,
		Input:          s.input,
		InputError:     s.inputError,
		InvalidFields:  invalid,
		Totals:         totals,
		Warning:        nutrition.WarningActive(totals),
		Metrics:        s.metrics,
		Recommendation: s.recommendation,
		EditMode:       mode,
		DrawerOpen:     s.drawerOpen,
		Chart:          nutrition.ChartData(totals),
	}
}

func (s *Session) reject(invalid []string) {
	s.inputError = true
	s.invalidFields = invalid
}

// resetInput empties the buffer and clears the error flag.
func (s *Session) resetInput() {
	s.input = models.Candidate{}
	s.inputError = false
	s.invalidFields = nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
