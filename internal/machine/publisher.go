package machine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kaffeewerk/brewcore/internal/pvar"
)

// Thresholds for the derived LED indicators, in percent.
const (
	lowLevelThreshold  = 10
	wasteFullThreshold = 90
)

// StatusSource is the slice of the Controller the publisher reads.
type StatusSource interface {
	Status() MachineStatus
}

// OutputPublisher pushes the derived indicators and resource levels to the
// variable store on its own cadence. Writes are unconditional every cycle, so
// external readers see values no older than one publish interval.
type OutputPublisher struct {
	store    pvar.Store
	source   StatusSource
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewOutputPublisher(store pvar.Store, source StatusSource, interval time.Duration, logger *zap.Logger) *OutputPublisher {
	if interval <= 0 {
		interval = time.Second
	}
	return &OutputPublisher{
		store:    store,
		source:   source,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

func (p *OutputPublisher) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	p.running = true
	p.wg.Add(1)

	go p.publishLoop()

	p.logger.Info("Output publisher started", zap.Duration("interval", p.interval))
	return nil
}

func (p *OutputPublisher) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	close(p.stopChan)
	p.wg.Wait()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	p.logger.Info("Output publisher stopped")
}

func (p *OutputPublisher) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *OutputPublisher) publishLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.publishOnce()
		}
	}
}

func (p *OutputPublisher) publishOnce() {
	status := p.source.Status()
	levels := status.Levels

	p.writeBool(pvar.VarLEDPower, status.MachineOn)
	p.writeBool(pvar.VarLEDWaterEmpty, levels.Water < lowLevelThreshold)
	p.writeBool(pvar.VarLEDMilkEmpty, levels.Milk < lowLevelThreshold)
	p.writeBool(pvar.VarLEDBeansEmpty, levels.Beans < lowLevelThreshold)
	p.writeBool(pvar.VarLEDWasteFull, levels.Waste > wasteFullThreshold)

	p.writeInt16(pvar.VarWaterLevel, levels.Water)
	p.writeInt16(pvar.VarMilkLevel, levels.Milk)
	p.writeInt16(pvar.VarCoffeeBeans, levels.Beans)
	p.writeInt16(pvar.VarWasteLevel, levels.Waste)

	p.writeInt16(pvar.VarState, status.StateCode)
}

func (p *OutputPublisher) writeBool(name string, value bool) {
	if err := p.store.SetBool(name, value); err != nil {
		p.logger.Error("Publish failed", zap.String("variable", name), zap.Error(err))
	}
}

func (p *OutputPublisher) writeInt16(name string, value int16) {
	if err := p.store.SetInt16(name, value); err != nil {
		p.logger.Error("Publish failed", zap.String("variable", name), zap.Error(err))
	}
}
