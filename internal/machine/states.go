package machine

import (
	"fmt"
	"time"
)

// State is the machine state published outward as an int16 ordinal.
type State int

const (
	StateIdle State = iota
	StateHeating
	StateReady
	StateBrewing
	StateCoffeeReadyToPick
	StateResetting
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateHeating:
		return "HEATING"
	case StateReady:
		return "READY"
	case StateBrewing:
		return "BREWING"
	case StateCoffeeReadyToPick:
		return "COFFEE_READY_TO_PICK"
	case StateResetting:
		return "RESETTING"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Ordinal is the value written to the State process variable.
func (s State) Ordinal() int16 {
	return int16(s)
}

// ValidateTransition rejects any state change outside the transition table.
// A reset may interrupt every state, including an in-flight reset.
func ValidateTransition(from, to State) error {
	validTransitions := map[State][]State{
		StateIdle:              {StateHeating, StateResetting},
		StateHeating:           {StateReady, StateResetting},
		StateReady:             {StateBrewing, StateResetting},
		StateBrewing:           {StateCoffeeReadyToPick, StateReady, StateError, StateResetting},
		StateCoffeeReadyToPick: {StateReady, StateResetting},
		StateResetting:         {StateIdle, StateResetting},
		StateError:             {StateResetting},
	}

	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("invalid current state: %s", from)
	}

	for _, validTo := range allowed {
		if validTo == to {
			return nil
		}
	}

	return fmt.Errorf("invalid state transition: %s -> %s", from, to)
}

// Levels is a read-only snapshot of the resource gauges.
type Levels struct {
	Water int16 `json:"water"`
	Milk  int16 `json:"milk"`
	Beans int16 `json:"beans"`
	Waste int16 `json:"waste"`
}

type MachineStatus struct {
	State           string    `json:"state"`
	StateCode       int16     `json:"state_code"`
	MachineOn       bool      `json:"machine_on"`
	HeatingDone     bool      `json:"heating_done"`
	CoffeeReady     bool      `json:"coffee_ready"`
	Levels          Levels    `json:"levels"`
	SequenceID      string    `json:"sequence_id,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	LastStateChange time.Time `json:"last_state_change"`
}
