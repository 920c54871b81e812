package interfaces

import (
	"context"

	"github.com/kaffeewerk/brewcore/internal/config"
	"github.com/kaffeewerk/brewcore/internal/journal"
	"github.com/kaffeewerk/brewcore/internal/machine"
	"github.com/kaffeewerk/brewcore/internal/pvar"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State        string `json:"state"`
	MachineState string `json:"machine_state"`
	Clients      int    `json:"websocket_clients"`
	Error        string `json:"error,omitempty"`
}

type LifecycleManager interface {
	Config() *config.Config
	Store() *pvar.MemoryStore
	MachineController() *machine.Controller
	Journal() *journal.Journal
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
