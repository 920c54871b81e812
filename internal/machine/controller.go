package machine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kaffeewerk/brewcore/internal/pvar"
	"github.com/kaffeewerk/brewcore/internal/recipes"
)

// Event kinds reported to the Observer.
const (
	EventPowerOn         = "power_on"
	EventBrewStarted     = "brew_started"
	EventBrewCompleted   = "brew_completed"
	EventBrewCancelled   = "brew_cancelled"
	EventBrewFailed      = "brew_failed"
	EventResetCompleted  = "reset_completed"
	EventCommandRejected = "command_rejected"
)

// Observer receives state changes and lifecycle events. Implementations must
// not block and must not call back into the Controller.
type Observer interface {
	MachineStateChanged(current, previous State)
	MachineEvent(kind, message string)
}

// Timing configures the timed sequences. The zero value falls back to the
// production defaults (1s ticks, 5 heating ticks, 2 reset ticks).
type Timing struct {
	TickInterval time.Duration
	HeatingTicks int
	ResetTicks   int
}

func (t Timing) withDefaults() Timing {
	if t.TickInterval <= 0 {
		t.TickInterval = time.Second
	}
	if t.HeatingTicks <= 0 {
		t.HeatingTicks = 5
	}
	if t.ResetTicks <= 0 {
		t.ResetTicks = 2
	}
	return t
}

// sequence is the ownership token for the one timed sequence (heating,
// brewing or resetting) that may be in flight. It is cancelled and replaced,
// never shared.
type sequence struct {
	id     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller owns the machine state, the resource ledger and the single
// active sequence. One mutex guards the state/ledger pair; everything the
// sequences publish goes through the process variable store.
type Controller struct {
	logger   *zap.Logger
	store    pvar.Store
	recipes  *recipes.Catalog
	observer Observer
	timing   Timing

	mu          sync.Mutex
	state       State
	ledger      *ResourceLedger
	machineOn   bool
	heatingDone bool
	coffeeReady bool
	errorMsg    string
	lastChange  time.Time
	seq         *sequence
}

func NewController(
	logger *zap.Logger,
	store pvar.Store,
	catalog *recipes.Catalog,
	timing Timing,
	observer Observer,
) *Controller {
	return &Controller{
		logger:     logger,
		store:      store,
		recipes:    catalog,
		observer:   observer,
		timing:     timing.withDefaults(),
		state:      StateIdle,
		ledger:     NewResourceLedger(),
		lastChange: time.Now(),
	}
}

// PowerOn starts the heating sequence. Powering on an already running
// machine is ignored with an informational message.
func (c *Controller) PowerOn() error {
	c.mu.Lock()
	if c.machineOn {
		c.mu.Unlock()
		c.logger.Info("Machine already on, ignoring power-on request")
		c.writeString(pvar.VarPanelMessage, "Already On.")
		return fmt.Errorf("%w: machine already on", ErrInvalidCommand)
	}
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		c.logger.Warn("Power-on rejected", zap.String("state", state.String()))
		return fmt.Errorf("%w: cannot power on in state %s", ErrInvalidCommand, state)
	}

	seqCtx, seq, err := c.beginSequenceLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.machineOn = true
	c.setStateLocked(StateHeating)
	c.mu.Unlock()

	c.writeBool(pvar.VarMachineOn, true)
	c.writeString(pvar.VarPanelMessage, "Starting up...")
	c.notifyEvent(EventPowerOn, "power-on requested")
	c.logger.Info("Machine powering on")

	go c.runHeating(seqCtx, seq)
	return nil
}

// SelectCoffee handles a CoffeeType change. A valid type starts a brew when
// the machine is Ready; CoffeeNone cancels an in-flight brew.
func (c *Controller) SelectCoffee(t recipes.CoffeeType) error {
	if t == recipes.CoffeeNone {
		return c.clearSelection()
	}

	c.mu.Lock()
	if c.state != StateReady {
		state := c.state
		c.mu.Unlock()
		c.logger.Warn("Machine not ready to brew",
			zap.String("state", state.String()),
			zap.String("coffee_type", t.String()))
		c.writeString(pvar.VarPanelMessage, "Not ready to brew!")
		c.notifyEvent(EventCommandRejected, fmt.Sprintf("coffee selection in state %s", state))
		return fmt.Errorf("%w: not ready to brew in state %s", ErrInvalidCommand, state)
	}
	if c.seq != nil {
		c.mu.Unlock()
		c.logger.Warn("Already brewing, ignoring coffee selection",
			zap.String("coffee_type", t.String()))
		c.writeString(pvar.VarPanelMessage, "Already brewing!")
		return fmt.Errorf("%w: brew in progress", ErrBusy)
	}
	recipe, ok := c.recipes.Lookup(t)
	if !ok {
		c.mu.Unlock()
		c.logger.Warn("Unknown coffee type selected", zap.Int16("coffee_type", int16(t)))
		c.notifyEvent(EventCommandRejected, fmt.Sprintf("unknown coffee type %d", t))
		return fmt.Errorf("%w: unknown coffee type %d", ErrInvalidCommand, t)
	}

	seqCtx, seq, err := c.beginSequenceLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.setStateLocked(StateBrewing)
	c.mu.Unlock()

	c.writeString(pvar.VarPanelMessage, fmt.Sprintf("Brewing %s...", recipe.Name))
	c.writeBool(pvar.VarWaterPump, true)
	c.notifyEvent(EventBrewStarted, recipe.Name)
	c.logger.Info("Brewing started", zap.String("coffee_type", recipe.Name))

	go c.runBrew(seqCtx, seq, recipe)
	return nil
}

// AcknowledgePickup returns the machine to Ready after the coffee was taken.
func (c *Controller) AcknowledgePickup() error {
	c.mu.Lock()
	if c.state != StateCoffeeReadyToPick {
		state := c.state
		c.mu.Unlock()
		c.logger.Warn("Pickup acknowledged but no coffee ready", zap.String("state", state.String()))
		c.writeString(pvar.VarPanelMessage, "No coffee to pick.")
		c.notifyEvent(EventCommandRejected, fmt.Sprintf("pickup in state %s", state))
		return fmt.Errorf("%w: no coffee to pick in state %s", ErrInvalidCommand, state)
	}
	c.coffeeReady = false
	c.setStateLocked(StateReady)
	c.mu.Unlock()

	c.writeBool(pvar.VarCoffeeReady, false)
	c.writeString(pvar.VarPanelMessage, "Ready for next order!")
	c.logger.Info("Coffee picked up, back to ready")
	return nil
}

// Reset cancels any active sequence and starts the reset sequence. It is the
// only way out of the Error state.
func (c *Controller) Reset() error {
	c.mu.Lock()
	seq := c.seq
	c.mu.Unlock()

	if seq != nil {
		seq.cancel()
		<-seq.done
	}

	c.mu.Lock()
	seqCtx, newSeq, err := c.beginSequenceLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.setStateLocked(StateResetting)
	c.mu.Unlock()

	c.writeString(pvar.VarPanelMessage, "Resetting...")
	c.logger.Info("Machine resetting")

	go c.runReset(seqCtx, newSeq)
	return nil
}

// Stop cancels the active sequence and waits for it to unwind. Used during
// process shutdown.
func (c *Controller) Stop() {
	c.mu.Lock()
	seq := c.seq
	c.mu.Unlock()

	if seq != nil {
		seq.cancel()
		<-seq.done
	}
}

func (c *Controller) Status() MachineStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := MachineStatus{
		State:           c.state.String(),
		StateCode:       c.state.Ordinal(),
		MachineOn:       c.machineOn,
		HeatingDone:     c.heatingDone,
		CoffeeReady:     c.coffeeReady,
		Levels:          c.ledger.Snapshot(),
		ErrorMessage:    c.errorMsg,
		LastStateChange: c.lastChange,
	}
	if c.seq != nil {
		status.SequenceID = c.seq.id.String()
	}
	return status
}

// Levels exposes the ledger snapshot for the output publisher.
func (c *Controller) Levels() Levels {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Snapshot()
}

func (c *Controller) clearSelection() error {
	c.mu.Lock()
	if c.state == StateBrewing && c.seq != nil {
		seq := c.seq
		c.mu.Unlock()

		seq.cancel()
		<-seq.done

		c.mu.Lock()
		// The brew may have completed between the cancel request and the
		// sequence observing it; only unwind if it was still in flight.
		if c.state == StateBrewing {
			c.coffeeReady = false
			c.setStateLocked(StateReady)
			c.mu.Unlock()

			c.writeBool(pvar.VarCoffeeReady, false)
			c.writeString(pvar.VarPanelMessage, "Brewing cancelled.")
			c.notifyEvent(EventBrewCancelled, "brew cancelled by client")
			c.logger.Info("Brewing cancelled by client clearing the coffee type")
			return nil
		}
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.logger.Info("Coffee type cleared")
	return nil
}

func (c *Controller) runHeating(ctx context.Context, seq *sequence) {
	defer c.endSequence(seq)

	c.writeBool(pvar.VarHeater, true)

	ticker := time.NewTicker(c.timing.TickInterval)
	defer ticker.Stop()

	for i := 1; i <= c.timing.HeatingTicks; i++ {
		c.writeString(pvar.VarPanelMessage, fmt.Sprintf("Heating... (%ds)", i))
		select {
		case <-ctx.Done():
			c.writeBool(pvar.VarHeater, false)
			c.logger.Info("Heating sequence cancelled")
			return
		case <-ticker.C:
		}
	}

	c.writeBool(pvar.VarHeater, false)

	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.heatingDone = true
	c.setStateLocked(StateReady)
	c.mu.Unlock()

	c.writeBool(pvar.VarHeatingDone, true)
	c.writeString(pvar.VarPanelMessage, "Ready for coffee!")
	c.logger.Info("Machine ready")
}

func (c *Controller) runBrew(ctx context.Context, seq *sequence, recipe recipes.Recipe) {
	defer c.endSequence(seq)

	// Affordability is checked and resources consumed atomically before the
	// first tick; a cancelled brew does not refund them.
	c.mu.Lock()
	if !c.ledger.CanAfford(recipe) {
		c.errorMsg = fmt.Sprintf("insufficient resources for %s", recipe.Name)
		c.setStateLocked(StateError)
		c.mu.Unlock()

		c.writeString(pvar.VarPanelMessage, "Error: Insufficient resources!")
		c.writeBool(pvar.VarWaterPump, false)
		c.notifyEvent(EventBrewFailed, ErrInsufficientResources.Error())
		c.logger.Warn("Insufficient resources to brew", zap.String("coffee_type", recipe.Name))
		return
	}
	c.ledger.Consume(recipe)
	c.mu.Unlock()

	ticker := time.NewTicker(c.timing.TickInterval)
	defer ticker.Stop()

	for i := 1; i <= recipe.BrewTicks; i++ {
		c.writeString(pvar.VarPanelMessage, fmt.Sprintf("Brewing %s... (%ds)", recipe.Name, i))
		select {
		case <-ctx.Done():
			c.writeBool(pvar.VarWaterPump, false)
			c.logger.Info("Brew sequence cancelled", zap.String("coffee_type", recipe.Name))
			return
		case <-ticker.C:
		}
	}

	c.writeBool(pvar.VarWaterPump, false)

	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.coffeeReady = true
	c.setStateLocked(StateCoffeeReadyToPick)
	c.mu.Unlock()

	c.writeBool(pvar.VarCoffeeReady, true)
	c.writeString(pvar.VarPanelMessage, "Your coffee is ready!")
	c.notifyEvent(EventBrewCompleted, recipe.Name)
	c.logger.Info("Coffee ready", zap.String("coffee_type", recipe.Name))
}

func (c *Controller) runReset(ctx context.Context, seq *sequence) {
	defer c.endSequence(seq)

	ticker := time.NewTicker(c.timing.TickInterval)
	defer ticker.Stop()

	for i := 0; i < c.timing.ResetTicks; i++ {
		select {
		case <-ctx.Done():
			c.logger.Info("Reset sequence cancelled")
			return
		case <-ticker.C:
		}
	}

	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.ledger.Reset()
	c.machineOn = false
	c.heatingDone = false
	c.coffeeReady = false
	c.errorMsg = ""
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	c.writeBool(pvar.VarWaterPump, false)
	c.writeBool(pvar.VarHeater, false)
	c.writeBool(pvar.VarCoffeeReady, false)
	c.writeBool(pvar.VarHeatingDone, false)
	c.writeBool(pvar.VarMachineOn, false)
	c.writeInt16(pvar.VarCoffeeType, int16(recipes.CoffeeNone))
	c.writeString(pvar.VarPanelMessage, "Machine Reset. Off.")
	c.notifyEvent(EventResetCompleted, "levels restored to defaults")
	c.logger.Info("Machine reset complete")
}

// beginSequenceLocked claims the single sequence slot. Caller holds c.mu.
func (c *Controller) beginSequenceLocked() (context.Context, *sequence, error) {
	if c.seq != nil {
		return nil, nil, ErrBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	seq := &sequence{
		id:     uuid.New(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.seq = seq
	return ctx, seq, nil
}

func (c *Controller) endSequence(seq *sequence) {
	seq.cancel()

	c.mu.Lock()
	if c.seq == seq {
		c.seq = nil
	}
	c.mu.Unlock()

	close(seq.done)
}

// setStateLocked applies a transition after validating it against the
// transition table. Caller holds c.mu.
func (c *Controller) setStateLocked(to State) {
	if err := ValidateTransition(c.state, to); err != nil {
		c.logger.Error("Refusing illegal state transition", zap.Error(err))
		return
	}

	previous := c.state
	c.state = to
	c.lastChange = time.Now()

	c.logger.Info("Machine state changed",
		zap.String("state", to.String()),
		zap.String("previous", previous.String()))

	c.writeInt16(pvar.VarState, to.Ordinal())
	if c.observer != nil {
		c.observer.MachineStateChanged(to, previous)
	}
}

func (c *Controller) notifyEvent(kind, message string) {
	if c.observer != nil {
		c.observer.MachineEvent(kind, message)
	}
}

// Store write failures are surfaced in the log; the internal state stays
// authoritative either way.
func (c *Controller) writeBool(name string, value bool) {
	if err := c.store.SetBool(name, value); err != nil {
		c.logger.Error("Variable write failed", zap.String("variable", name), zap.Error(err))
	}
}

func (c *Controller) writeInt16(name string, value int16) {
	if err := c.store.SetInt16(name, value); err != nil {
		c.logger.Error("Variable write failed", zap.String("variable", name), zap.Error(err))
	}
}

func (c *Controller) writeString(name string, value string) {
	if err := c.store.SetString(name, value); err != nil {
		c.logger.Error("Variable write failed", zap.String("variable", name), zap.Error(err))
	}
}
