package websocket

import "time"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Process variable messages
	MessageTypeVariableUpdate MessageType = "variable_update"

	// Machine state messages
	MessageTypeMachineState MessageType = "machine_state"
	MessageTypeMachineEvent MessageType = "machine_event"
	MessageTypePanelMessage MessageType = "panel_message"

	// System messages
	MessageTypeSystemStatus MessageType = "system_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// VariableUpdateData carries one process variable write.
type VariableUpdateData struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// MachineStateData represents machine state change data
type MachineStateData struct {
	State    string `json:"state"`
	Previous string `json:"previous_state"`
}

// MachineEventData carries a machine lifecycle event.
type MachineEventData struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// PanelMessageData carries the display panel text.
type PanelMessageData struct {
	Text string `json:"text"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Helper functions for creating specific message types

func NewVariableUpdateMessage(name string, value interface{}) Message {
	return NewMessage(MessageTypeVariableUpdate, VariableUpdateData{
		Name:  name,
		Value: value,
	})
}

func NewMachineStateMessage(newState, previousState string) Message {
	return NewMessage(MessageTypeMachineState, MachineStateData{
		State:    newState,
		Previous: previousState,
	})
}

func NewMachineEventMessage(kind, message string) Message {
	return NewMessage(MessageTypeMachineEvent, MachineEventData{
		Kind:    kind,
		Message: message,
	})
}

func NewPanelMessage(text string) Message {
	return NewMessage(MessageTypePanelMessage, PanelMessageData{Text: text})
}
