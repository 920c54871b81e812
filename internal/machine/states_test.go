package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "HEATING", StateHeating.String())
	assert.Equal(t, "READY", StateReady.String())
	assert.Equal(t, "BREWING", StateBrewing.String())
	assert.Equal(t, "COFFEE_READY_TO_PICK", StateCoffeeReadyToPick.String())
	assert.Equal(t, "RESETTING", StateResetting.String())
	assert.Equal(t, "ERROR", StateError.String())
}

func TestEveryStateReachesResetting(t *testing.T) {
	for _, from := range []State{StateIdle, StateHeating, StateReady, StateBrewing,
		StateCoffeeReadyToPick, StateResetting, StateError} {
		require.NoError(t, ValidateTransition(from, StateResetting), "from %s", from)
	}
}

func TestIllegalTransitionsRejected(t *testing.T) {
	assert.Error(t, ValidateTransition(StateIdle, StateReady))
	assert.Error(t, ValidateTransition(StateError, StateBrewing))
	assert.Error(t, ValidateTransition(StateCoffeeReadyToPick, StateBrewing))
	assert.Error(t, ValidateTransition(StateResetting, StateReady))
}

func TestBrewingOutcomes(t *testing.T) {
	assert.NoError(t, ValidateTransition(StateBrewing, StateCoffeeReadyToPick))
	assert.NoError(t, ValidateTransition(StateBrewing, StateReady))
	assert.NoError(t, ValidateTransition(StateBrewing, StateError))
}
