package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/kaffeewerk/brewcore/internal/recipes"
)

func TestNewResourceLedgerDefaults(t *testing.T) {
	l := NewResourceLedger()

	assert.Equal(t, Levels{Water: 100, Milk: 100, Beans: 100, Waste: 0}, l.Snapshot())
}

func TestCanAffordIgnoresMilkForMilkFreeRecipes(t *testing.T) {
	l := NewResourceLedger()
	l.milk = 0

	espresso := recipes.Recipe{Name: "Espresso", Water: 20, Beans: 15, Milk: 0}
	latte := recipes.Recipe{Name: "Latte", Water: 20, Beans: 15, Milk: 15}

	assert.True(t, l.CanAfford(espresso))
	assert.False(t, l.CanAfford(latte))
}

func TestCanAffordChecksWaterAndBeans(t *testing.T) {
	recipe := recipes.Recipe{Water: 20, Beans: 15}

	l := NewResourceLedger()
	l.water = 19
	assert.False(t, l.CanAfford(recipe))

	l.water = 20
	l.beans = 14
	assert.False(t, l.CanAfford(recipe))

	l.beans = 15
	assert.True(t, l.CanAfford(recipe))
}

func TestConsumeDeductsExactAmounts(t *testing.T) {
	l := NewResourceLedger()
	cappuccino := recipes.Recipe{Name: "Cappuccino", Water: 20, Beans: 15, Milk: 15}

	l.Consume(cappuccino)

	assert.Equal(t, Levels{Water: 80, Milk: 85, Beans: 85, Waste: 5}, l.Snapshot())
}

func TestConsumeAccumulatesWaste(t *testing.T) {
	l := NewResourceLedger()
	black := recipes.Recipe{Name: "Black", Water: 20, Beans: 15}

	l.Consume(black)
	l.Consume(black)
	l.Consume(black)

	s := l.Snapshot()
	assert.Equal(t, int16(40), s.Water)
	assert.Equal(t, int16(55), s.Beans)
	assert.Equal(t, int16(100), s.Milk)
	assert.Equal(t, int16(15), s.Waste)
}

func TestResetRestoresDefaults(t *testing.T) {
	l := NewResourceLedger()
	l.Consume(recipes.Recipe{Water: 20, Beans: 15, Milk: 15})

	l.Reset()

	assert.Equal(t, Levels{Water: 100, Milk: 100, Beans: 100, Waste: 0}, l.Snapshot())
}
