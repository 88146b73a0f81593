// internal/models/nutrition.go
package models

import (
	"time"
)

type FoodItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Quantity int     `json:"quantity"`
}

// Candidate is the form input buffer. Values are kept as entered.
type Candidate struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Calories string `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
}

type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

type ActivityLevel string

const (
	Sedentary        ActivityLevel = "sedentary"
	LightlyActive    ActivityLevel = "lightly_active"
	ModeratelyActive ActivityLevel = "moderately_active"
	VeryActive       ActivityLevel = "very_active"
	ExtraActive      ActivityLevel = "extra_active"
)

type UserMetrics struct {
	Age           float64       `json:"age"`    // years
	Height        float64       `json:"height"` // cm
	Weight        float64       `json:"weight"` // kg
	Gender        Gender        `json:"gender"`
	ActivityLevel ActivityLevel `json:"activity_level"`
}

type Recommendation struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type ChartSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

type EditState string

const (
	EditIdle    EditState = "idle"
	EditEditing EditState = "editing"
)

type EditMode struct {
	State  EditState `json:"state"`
	ItemID int64     `json:"item_id,omitempty"`
}

// View is everything the presentation layer needs to render one frame.
type View struct {
	Items          []FoodItem     `json:"items"`
	Input          Candidate      `json:"input"`
	InputError     bool           `json:"input_error"`
	InvalidFields  []string       `json:"invalid_fields,omitempty"`
	Totals         Totals         `json:"totals"`
	Warning        bool           `json:"warning"`
	Metrics        UserMetrics    `json:"metrics"`
	Recommendation Recommendation `json:"recommendation"`
	EditMode       EditMode       `json:"edit_mode"`
	DrawerOpen     bool           `json:"drawer_open"`
	Chart          []ChartSlice   `json:"chart"`
}

// ActionEntry is one dispatched action as recorded in the session journal.
type ActionEntry struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Action    string    `json:"action"`
	Arguments string    `json:"arguments"`
	Accepted  bool      `json:"accepted"`
	CreatedAt time.Time `json:"created_at"`
}
