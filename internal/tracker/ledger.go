// internal/tracker/ledger.go
package tracker

import (
	"math"

	"nutrition-meter/internal/models"
)

// Fields are the validated, per-unit values of a food item.
type Fields struct {
	Name     string
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}

// Ledger is the ordered list of logged food items. It performs no
// validation of its own; callers hand it already validated Fields.
type Ledger struct {
	items  []models.FoodItem
	nextID int64
}

func NewLedger() *Ledger {
	return &Ledger{nextID: 1}
}

// Items returns a copy of the ledger in insertion order.
func (l *Ledger) Items() []models.FoodItem {
	out := make([]models.FoodItem, len(l.items))
	copy(out, l.items)
	return out
}

func (l *Ledger) Len() int {
	return len(l.items)
}

// Get returns the item with id, if present.
func (l *Ledger) Get(id int64) (models.FoodItem, bool) {
	if i := l.indexOf(id); i >= 0 {
		return l.items[i], true
	}
	return models.FoodItem{}, false
}

// Add appends a new item with a fresh id and quantity 1.
func (l *Ledger) Add(f Fields) models.FoodItem {
	item := models.FoodItem{
		ID:       l.nextID,
		Name:     f.Name,
		Calories: f.Calories,
		Protein:  f.Protein,
		Carbs:    f.Carbs,
		Fat:      f.Fat,
		Quantity: 1,
	}
	l.nextID++
	l.items = append(l.items, item)
	return item
}

// Update replaces the fields of the item with id in place. The id and the
// quantity are kept. Reports whether an item matched.
func (l *Ledger) Update(id int64, f Fields) bool {
	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	item := &l.items[i]
	item.Name = f.Name
	item.Calories = f.Calories
	item.Protein = f.Protein
	item.Carbs = f.Carbs
	item.Fat = f.Fat
	return true
}

// Delete removes the item with id. Missing ids leave the ledger untouched.
func (l *Ledger) Delete(id int64) bool {
	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	return true
}

func (l *Ledger) Clear() {
	l.items = nil
}

// ChangeQuantity adds delta to the item's quantity, clamped to a floor of 1.
// Growth saturates at math.MaxInt.
func (l *Ledger) ChangeQuantity(id int64, delta int) bool {
	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	q := l.items[i].Quantity
	if delta > 0 && q > math.MaxInt-delta {
		q = math.MaxInt
	} else {
		q = max(q+delta, 1)
	}
	l.items[i].Quantity = q
	return true
}

func (l *Ledger) indexOf(id int64) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}
