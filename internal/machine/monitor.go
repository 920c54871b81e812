package machine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kaffeewerk/brewcore/internal/pvar"
	"github.com/kaffeewerk/brewcore/internal/recipes"
)

// CommandDispatcher is the slice of the Controller the monitor drives.
type CommandDispatcher interface {
	PowerOn() error
	Reset() error
	SelectCoffee(t recipes.CoffeeType) error
	AcknowledgePickup() error
}

// edgeState caches the last observed value of every watched input so each
// button press dispatches exactly once.
type edgeState struct {
	powerOn    bool
	reset      bool
	pickedUp   bool
	coffeeType recipes.CoffeeType
}

// InputMonitor polls the externally writable process variables at a fixed
// cadence and dispatches commands on rising edges and value changes. Inputs
// are processed in a fixed order per cycle: PowerOn, Reset, CoffeeType,
// CoffeePickedUp.
type InputMonitor struct {
	store    pvar.Store
	machine  CommandDispatcher
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex

	edges edgeState
}

func NewInputMonitor(store pvar.Store, machine CommandDispatcher, interval time.Duration, logger *zap.Logger) *InputMonitor {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &InputMonitor{
		store:    store,
		machine:  machine,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		edges:    edgeState{coffeeType: recipes.CoffeeNone},
	}
}

// Start begins the polling loop.
func (m *InputMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	m.running = true
	m.wg.Add(1)

	go m.pollLoop()

	m.logger.Info("Input monitor started", zap.Duration("interval", m.interval))
	return nil
}

// Stop stops the polling loop and waits for it to exit.
func (m *InputMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	close(m.stopChan)
	m.wg.Wait()

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()

	m.logger.Info("Input monitor stopped")
}

func (m *InputMonitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *InputMonitor) pollLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.pollOnce()
		}
	}
}

// pollOnce runs one poll cycle. Read failures skip the affected input for
// this cycle without touching the edge cache, so the edge still fires on the
// next successful read. Rejected commands are reported by the controller
// itself; the monitor only records them at debug level.
func (m *InputMonitor) pollOnce() {
	if v, err := m.store.GetBool(pvar.VarPowerOnButton); err != nil {
		m.logger.Error("Poll failed", zap.String("variable", pvar.VarPowerOnButton), zap.Error(err))
	} else {
		if v && !m.edges.powerOn {
			if err := m.machine.PowerOn(); err != nil {
				m.logger.Debug("Power-on dispatch rejected", zap.Error(err))
			}
		}
		m.edges.powerOn = v
	}

	if v, err := m.store.GetBool(pvar.VarResetButton); err != nil {
		m.logger.Error("Poll failed", zap.String("variable", pvar.VarResetButton), zap.Error(err))
	} else {
		if v && !m.edges.reset {
			if err := m.machine.Reset(); err != nil {
				m.logger.Debug("Reset dispatch rejected", zap.Error(err))
			}
		}
		m.edges.reset = v
	}

	if v, err := m.store.GetInt16(pvar.VarCoffeeType); err != nil {
		m.logger.Error("Poll failed", zap.String("variable", pvar.VarCoffeeType), zap.Error(err))
	} else {
		selected := recipes.CoffeeType(v)
		if selected != m.edges.coffeeType {
			if err := m.machine.SelectCoffee(selected); err != nil {
				m.logger.Debug("Coffee selection rejected", zap.Error(err))
			}
		}
		// Record the value even when the command was rejected so it does not
		// re-trigger on the next cycle.
		m.edges.coffeeType = selected
	}

	if v, err := m.store.GetBool(pvar.VarCoffeePickedUp); err != nil {
		m.logger.Error("Poll failed", zap.String("variable", pvar.VarCoffeePickedUp), zap.Error(err))
	} else {
		if v && !m.edges.pickedUp {
			if err := m.machine.AcknowledgePickup(); err != nil {
				m.logger.Debug("Pickup dispatch rejected", zap.Error(err))
			}
		}
		m.edges.pickedUp = v
	}
}
