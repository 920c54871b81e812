package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kaffeewerk/brewcore/internal/api/rest"
	"github.com/kaffeewerk/brewcore/internal/api/websocket"
	"github.com/kaffeewerk/brewcore/internal/auth"
	"github.com/kaffeewerk/brewcore/internal/config"
	"github.com/kaffeewerk/brewcore/internal/interfaces"
	"github.com/kaffeewerk/brewcore/internal/journal"
	"github.com/kaffeewerk/brewcore/internal/machine"
	"github.com/kaffeewerk/brewcore/internal/pvar"
	"github.com/kaffeewerk/brewcore/internal/recipes"
)

type SystemStatus struct {
	State     SystemState `json:"state"`
	Timestamp int64       `json:"timestamp"`
	Error     string      `json:"error,omitempty"`
}

type LifecycleManager struct {
	config            *config.Config
	store             *pvar.MemoryStore
	recipeCatalog     *recipes.Catalog
	authService       *auth.AuthService
	hub               *websocket.Hub
	journal           *journal.Journal
	machineController *machine.Controller
	inputMonitor      *machine.InputMonitor
	outputPublisher   *machine.OutputPublisher
	logger            *zap.Logger

	restServer *rest.Server

	stateMu      sync.RWMutex
	currentState SystemState
	lastError    string

	machineStateMu   sync.RWMutex
	lastMachineState machine.State

	listenersMu     sync.RWMutex
	statusListeners []chan SystemStatus

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewLifecycleManager(
	cfg *config.Config,
	jrnl *journal.Journal,
	logger *zap.Logger,
) *LifecycleManager {
	store := pvar.NewMemoryStore(pvar.Catalog())

	catalog := loadRecipeCatalog(cfg, logger)
	authService := auth.NewAuthService(cfg.Auth, logger)
	hub := websocket.NewHub(logger, authService)

	lm := &LifecycleManager{
		config:          cfg,
		store:           store,
		recipeCatalog:   catalog,
		authService:     authService,
		hub:             hub,
		journal:         jrnl,
		logger:          logger,
		currentState:    StateInitializing,
		shutdownChan:    make(chan struct{}),
		statusListeners: make([]chan SystemStatus, 0),
	}

	timing := machine.Timing{
		TickInterval: cfg.Machine.TickInterval,
		HeatingTicks: cfg.Machine.HeatingTicks,
		ResetTicks:   cfg.Machine.ResetTicks,
	}
	lm.machineController = machine.NewController(logger, store, catalog, timing, lm)
	lm.inputMonitor = machine.NewInputMonitor(store, lm.machineController, cfg.Machine.PollInterval, logger)
	lm.outputPublisher = machine.NewOutputPublisher(store, lm.machineController, cfg.Machine.PublishInterval, logger)

	// Every variable write fans out to the WebSocket clients.
	store.OnChange(lm.onVariableChange)

	return lm
}

func loadRecipeCatalog(cfg *config.Config, logger *zap.Logger) *recipes.Catalog {
	loader, err := recipes.NewLoader(cfg.Recipes.SearchPaths)
	if err != nil {
		logger.Warn("Failed to initialize recipe loader, using built-in catalog", zap.Error(err))
		return recipes.Defaults()
	}

	catalog, err := loader.Load(cfg.Recipes.Catalog)
	if err != nil {
		logger.Warn("Failed to load recipe catalog, using built-in catalog",
			zap.String("catalog", cfg.Recipes.Catalog),
			zap.Error(err))
		return recipes.Defaults()
	}

	logger.Info("Recipe catalog loaded",
		zap.String("catalog", cfg.Recipes.Catalog),
		zap.Int("recipes", catalog.Len()))
	return catalog
}

// Start starts the entire system
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting brewcore")

	lm.setState(StateInitializing)
	lm.broadcastStatus()

	go lm.hub.Run()

	if err := lm.inputMonitor.Start(); err != nil {
		lm.setError(err)
		return fmt.Errorf("failed to start input monitor: %w", err)
	}

	if err := lm.outputPublisher.Start(); err != nil {
		lm.setError(err)
		return fmt.Errorf("failed to start output publisher: %w", err)
	}

	if err := lm.startRESTServer(); err != nil {
		lm.setError(err)
		return fmt.Errorf("failed to start REST API: %w", err)
	}

	lm.setState(StateRunning)
	lm.broadcastStatus()

	lm.logger.Info("System started successfully",
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Bool("journal_enabled", lm.journal != nil))

	return nil
}

func (lm *LifecycleManager) startRESTServer() error {
	lm.restServer = rest.NewServer(lm.config, lm, lm.hub, lm.authService, lm.logger)
	return lm.restServer.Start()
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)
		lm.broadcastStatus()

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
		lm.broadcastStatus()

		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	// 1. Stop polling loops, then abort any in-flight sequence.
	wg.Add(1)
	go func() {
		defer wg.Done()
		lm.inputMonitor.Stop()
		lm.outputPublisher.Stop()
		lm.machineController.Stop()
	}()

	// 2. REST API Server graceful shutdown
	if lm.restServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if lm.journal != nil {
			lm.journal.Close()
		}
		lm.logger.Info("Graceful shutdown completed")
		return nil
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		return fmt.Errorf("shutdown timeout exceeded")
	case err := <-errChan:
		return err
	}
}

// MachineStateChanged implements machine.Observer. It runs on the
// controller's goroutines and must stay non-blocking.
func (lm *LifecycleManager) MachineStateChanged(current, previous machine.State) {
	lm.machineStateMu.Lock()
	lm.lastMachineState = current
	lm.machineStateMu.Unlock()

	lm.hub.Broadcast(websocket.NewMachineStateMessage(current.String(), previous.String()))

	if lm.journal != nil {
		go lm.journal.Record("state_changed", current.String(), "",
			fmt.Sprintf("%s -> %s", previous, current))
	}
}

// MachineEvent implements machine.Observer.
func (lm *LifecycleManager) MachineEvent(kind, message string) {
	lm.hub.Broadcast(websocket.NewMachineEventMessage(kind, message))

	if lm.journal != nil {
		lm.machineStateMu.RLock()
		state := lm.lastMachineState.String()
		lm.machineStateMu.RUnlock()
		go lm.journal.Record(kind, state, "", message)
	}
}

func (lm *LifecycleManager) onVariableChange(name string, value any) {
	lm.hub.Broadcast(websocket.NewVariableUpdateMessage(name, value))

	if name == pvar.VarPanelMessage {
		if text, ok := value.(string); ok {
			lm.hub.Broadcast(websocket.NewPanelMessage(text))
		}
	}
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	state := lm.currentState
	lastErr := lm.lastError
	lm.stateMu.RUnlock()

	return interfaces.SystemStatus{
		State:        state.String(),
		MachineState: lm.machineController.Status().State,
		Clients:      lm.hub.GetClientCount(),
		Error:        lastErr,
	}
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if lm.currentState == state {
		return
	}
	if err := ValidateTransition(lm.currentState, state); err != nil {
		lm.logger.Warn("Ignoring invalid system state transition", zap.Error(err))
		return
	}
	lm.currentState = state
}

func (lm *LifecycleManager) setError(err error) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	lm.currentState = StateError
	lm.lastError = err.Error()
}

func (lm *LifecycleManager) getStatusInternal() SystemStatus {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()

	return SystemStatus{
		State:     lm.currentState,
		Timestamp: time.Now().Unix(),
		Error:     lm.lastError,
	}
}

func (lm *LifecycleManager) broadcastStatus() {
	status := lm.getStatusInternal()

	lm.listenersMu.RLock()
	defer lm.listenersMu.RUnlock()

	for _, listener := range lm.statusListeners {
		select {
		case listener <- status:
		default:
			// Channel full, skip
		}
	}
}

// SubscribeStatus subscribes to status updates
func (lm *LifecycleManager) SubscribeStatus() chan SystemStatus {
	ch := make(chan SystemStatus, 10)

	lm.listenersMu.Lock()
	lm.statusListeners = append(lm.statusListeners, ch)
	lm.listenersMu.Unlock()

	return ch
}

// UnsubscribeStatus unsubscribes from status updates
func (lm *LifecycleManager) UnsubscribeStatus(ch chan SystemStatus) {
	lm.listenersMu.Lock()
	defer lm.listenersMu.Unlock()

	for i, listener := range lm.statusListeners {
		if listener == ch {
			lm.statusListeners = append(lm.statusListeners[:i], lm.statusListeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// MachineController returns the machine controller
func (lm *LifecycleManager) MachineController() *machine.Controller {
	return lm.machineController
}

// Store returns the process variable store
func (lm *LifecycleManager) Store() *pvar.MemoryStore {
	return lm.store
}

// Journal returns the event journal, nil when disabled
func (lm *LifecycleManager) Journal() *journal.Journal {
	return lm.journal
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

// RecipeCatalog returns the loaded recipe catalog
func (lm *LifecycleManager) RecipeCatalog() *recipes.Catalog {
	return lm.recipeCatalog
}
