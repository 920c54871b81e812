package pvar

type DataType string

const (
	DataTypeBool   DataType = "bool"
	DataTypeInt16  DataType = "int16"
	DataTypeString DataType = "string"
)

type Direction string

const (
	// DirectionInput variables are written by external clients and read by the core.
	DirectionInput Direction = "external_to_core"
	// DirectionOutput variables are written by the core and read by external clients.
	DirectionOutput Direction = "core_to_external"
)

// Variable names are part of the external contract and must not change.
const (
	VarPowerOnButton  = "PowerOnButton"
	VarResetButton    = "ResetButton"
	VarCoffeePickedUp = "CoffeePickedUp"
	VarCoffeeType     = "CoffeeType"

	VarWaterPump    = "WaterPump"
	VarHeater       = "Heater"
	VarCoffeeReady  = "CoffeeReady"
	VarPanelMessage = "PanelMessage"

	VarLEDPower      = "LED_Power"
	VarLEDWaterEmpty = "LED_WaterEmpty"
	VarLEDMilkEmpty  = "LED_MilkEmpty"
	VarLEDWasteFull  = "LED_WasteFull"
	VarLEDBeansEmpty = "LED_BeansEmpty"

	VarWaterLevel  = "WaterLevel"
	VarMilkLevel   = "MilkLevel"
	VarCoffeeBeans = "CoffeeBeans"
	VarWasteLevel  = "WasteLevel"

	VarState       = "State"
	VarHeatingDone = "HeatingDone"
	VarMachineOn   = "MachineOn"
)

type VariableDefinition struct {
	Name        string    `json:"name"`
	Type        DataType  `json:"type"`
	Direction   Direction `json:"direction"`
	Default     any       `json:"default"`
	Description string    `json:"description,omitempty"`
}

// Catalog returns the full set of process variables exchanged with external
// clients, with their startup defaults.
func Catalog() []VariableDefinition {
	return []VariableDefinition{
		// Control inputs
		{Name: VarPowerOnButton, Type: DataTypeBool, Direction: DirectionInput, Default: false, Description: "Requests machine power-on"},
		{Name: VarResetButton, Type: DataTypeBool, Direction: DirectionInput, Default: false, Description: "Requests machine reset"},
		{Name: VarCoffeePickedUp, Type: DataTypeBool, Direction: DirectionInput, Default: false, Description: "Acknowledges coffee pickup"},
		{Name: VarCoffeeType, Type: DataTypeInt16, Direction: DirectionInput, Default: int16(-1), Description: "Selected coffee type, -1 clears the selection"},

		// Actuators
		{Name: VarWaterPump, Type: DataTypeBool, Direction: DirectionOutput, Default: false},
		{Name: VarHeater, Type: DataTypeBool, Direction: DirectionOutput, Default: false},
		{Name: VarCoffeeReady, Type: DataTypeBool, Direction: DirectionOutput, Default: false},
		{Name: VarPanelMessage, Type: DataTypeString, Direction: DirectionOutput, Default: "Machine Off"},

		// LED indicators
		{Name: VarLEDPower, Type: DataTypeBool, Direction: DirectionOutput, Default: false},
		{Name: VarLEDWaterEmpty, Type: DataTypeBool, Direction: DirectionOutput, Default: false},
		{Name: VarLEDMilkEmpty, Type: DataTypeBool, Direction: DirectionOutput, Default: false},
		{Name: VarLEDWasteFull, Type: DataTypeBool, Direction: DirectionOutput, Default: false},
		{Name: VarLEDBeansEmpty, Type: DataTypeBool, Direction: DirectionOutput, Default: false},

		// Resource levels
		{Name: VarWaterLevel, Type: DataTypeInt16, Direction: DirectionOutput, Default: int16(100)},
		{Name: VarMilkLevel, Type: DataTypeInt16, Direction: DirectionOutput, Default: int16(100)},
		{Name: VarCoffeeBeans, Type: DataTypeInt16, Direction: DirectionOutput, Default: int16(100)},
		{Name: VarWasteLevel, Type: DataTypeInt16, Direction: DirectionOutput, Default: int16(0)},

		// Internal state
		{Name: VarState, Type: DataTypeInt16, Direction: DirectionOutput, Default: int16(0), Description: "Machine state ordinal"},
		{Name: VarHeatingDone, Type: DataTypeBool, Direction: DirectionOutput, Default: false},
		{Name: VarMachineOn, Type: DataTypeBool, Direction: DirectionOutput, Default: false},
	}
}
