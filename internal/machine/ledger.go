package machine

import "github.com/kaffeewerk/brewcore/internal/recipes"

// wasteIncrement is added to the waste gauge per successful brew.
const wasteIncrement = 5

// ResourceLedger tracks the four consumable gauges. It carries no lock of its
// own: the Controller owns it and guards every access with its mutex.
type ResourceLedger struct {
	water int16
	milk  int16
	beans int16
	waste int16
}

func NewResourceLedger() *ResourceLedger {
	l := &ResourceLedger{}
	l.Reset()
	return l
}

// CanAfford reports whether the ledger covers the recipe. Milk is only
// checked for recipes that consume it.
func (l *ResourceLedger) CanAfford(r recipes.Recipe) bool {
	if l.water < r.Water || l.beans < r.Beans {
		return false
	}
	if r.Milk > 0 && l.milk < r.Milk {
		return false
	}
	return true
}

// Consume deducts the recipe amounts and adds the fixed waste increment.
// Callers must have verified CanAfford first; Consume does not re-check and
// the gauges are not clamped.
func (l *ResourceLedger) Consume(r recipes.Recipe) {
	l.water -= r.Water
	l.beans -= r.Beans
	l.milk -= r.Milk
	l.waste += wasteIncrement
}

// Reset restores all gauges to their startup defaults.
func (l *ResourceLedger) Reset() {
	l.water = 100
	l.milk = 100
	l.beans = 100
	l.waste = 0
}

func (l *ResourceLedger) Snapshot() Levels {
	return Levels{
		Water: l.water,
		Milk:  l.milk,
		Beans: l.beans,
		Waste: l.waste,
	}
}
