package pvar

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSeedsCatalogDefaults(t *testing.T) {
	s := NewMemoryStore(Catalog())

	panel, err := s.GetString(VarPanelMessage)
	require.NoError(t, err)
	assert.Equal(t, "Machine Off", panel)

	coffeeType, err := s.GetInt16(VarCoffeeType)
	require.NoError(t, err)
	assert.Equal(t, int16(-1), coffeeType)

	water, err := s.GetInt16(VarWaterLevel)
	require.NoError(t, err)
	assert.Equal(t, int16(100), water)

	waste, err := s.GetInt16(VarWasteLevel)
	require.NoError(t, err)
	assert.Equal(t, int16(0), waste)

	on, err := s.GetBool(VarMachineOn)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestStoreReadAfterWrite(t *testing.T) {
	s := NewMemoryStore(Catalog())

	require.NoError(t, s.SetBool(VarPowerOnButton, true))
	v, err := s.GetBool(VarPowerOnButton)
	require.NoError(t, err)
	assert.True(t, v)

	require.NoError(t, s.SetInt16(VarCoffeeType, 3))
	i, err := s.GetInt16(VarCoffeeType)
	require.NoError(t, err)
	assert.Equal(t, int16(3), i)

	require.NoError(t, s.SetString(VarPanelMessage, "Brewing Latte..."))
	str, err := s.GetString(VarPanelMessage)
	require.NoError(t, err)
	assert.Equal(t, "Brewing Latte...", str)
}

func TestStoreUnknownVariable(t *testing.T) {
	s := NewMemoryStore(Catalog())

	_, err := s.GetBool("NoSuchVariable")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.SetInt16("NoSuchVariable", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreTypeMismatch(t *testing.T) {
	s := NewMemoryStore(Catalog())

	_, err := s.GetBool(VarCoffeeType)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	err = s.SetString(VarWaterLevel, "full")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	// The stored value is untouched by a rejected write.
	water, err := s.GetInt16(VarWaterLevel)
	require.NoError(t, err)
	assert.Equal(t, int16(100), water)
}

func TestStoreChangeNotifications(t *testing.T) {
	s := NewMemoryStore(Catalog())

	var mu sync.Mutex
	type change struct {
		name  string
		value any
	}
	var changes []change
	s.OnChange(func(name string, value any) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, change{name, value})
	})

	require.NoError(t, s.SetBool(VarHeater, true))
	require.NoError(t, s.SetString(VarPanelMessage, "Heating... (1s)"))

	// Rejected writes do not notify.
	_ = s.SetBool("NoSuchVariable", true)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2)
	assert.Equal(t, change{VarHeater, true}, changes[0])
	assert.Equal(t, change{VarPanelMessage, "Heating... (1s)"}, changes[1])
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewMemoryStore(Catalog())

	snap := s.Snapshot()
	assert.Len(t, snap, len(Catalog()))
	assert.Equal(t, "Machine Off", snap[VarPanelMessage])

	snap[VarPanelMessage] = "mutated"
	current, err := s.GetString(VarPanelMessage)
	require.NoError(t, err)
	assert.Equal(t, "Machine Off", current)
}

func TestCatalogDirections(t *testing.T) {
	s := NewMemoryStore(Catalog())

	for _, name := range []string{VarPowerOnButton, VarResetButton, VarCoffeePickedUp, VarCoffeeType} {
		def, ok := s.Definition(name)
		require.True(t, ok, name)
		assert.Equal(t, DirectionInput, def.Direction, name)
	}

	for _, name := range []string{VarWaterPump, VarHeater, VarPanelMessage, VarState, VarLEDPower} {
		def, ok := s.Definition(name)
		require.True(t, ok, name)
		assert.Equal(t, DirectionOutput, def.Direction, name)
	}
}
