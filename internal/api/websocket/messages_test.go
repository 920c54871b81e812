package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableUpdateMessage(t *testing.T) {
	msg := NewVariableUpdateMessage("WaterLevel", int16(80))

	assert.Equal(t, MessageTypeVariableUpdate, msg.Type)
	assert.False(t, msg.Timestamp.IsZero())

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded struct {
		Type string `json:"type"`
		Data struct {
			Name  string `json:"name"`
			Value any    `json:"value"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "variable_update", decoded.Type)
	assert.Equal(t, "WaterLevel", decoded.Data.Name)
	assert.Equal(t, float64(80), decoded.Data.Value)
}

func TestMachineStateMessage(t *testing.T) {
	msg := NewMachineStateMessage("READY", "HEATING")

	data, ok := msg.Data.(MachineStateData)
	require.True(t, ok)
	assert.Equal(t, "READY", data.State)
	assert.Equal(t, "HEATING", data.Previous)
}

func TestMachineEventMessageOmitsEmptyText(t *testing.T) {
	raw, err := json.Marshal(NewMachineEventMessage("reset_completed", ""))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "message")
}

func TestPanelMessage(t *testing.T) {
	msg := NewPanelMessage("Brewing Latte... (3s)")

	assert.Equal(t, MessageTypePanelMessage, msg.Type)
	data, ok := msg.Data.(PanelMessageData)
	require.True(t, ok)
	assert.Equal(t, "Brewing Latte... (3s)", data.Text)
}

func TestHubClientCountStartsAtZero(t *testing.T) {
	hub := NewHub(nil, nil)
	assert.Equal(t, 0, hub.GetClientCount())
}
