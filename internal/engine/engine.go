package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/scenario"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/config"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
	"github.com/MRamiBalles/CieloRoto/server/internal/world"
)

// Engine wires the simulation core together and exposes the operator
// surface the network layer drives. Construction order matters only in that
// every component subscribes itself in its constructor; after New the bus
// topology is fixed.
type Engine struct {
	bus       *events.Bus
	log       *logger.Logger
	clock     *Clock
	scenario  *ScenarioEngine
	resources *ResourceManager
	gamestate *GameState
	saver     *SaveManager
}

// New assembles the core. weapons and feeds may be nil/empty for headless
// runs (tests, the scenario linter).
func New(cfg *config.Config, bus *events.Bus, log *logger.Logger, w *world.Data, store SaveStore, weapons WeaponEffects, feeds ...Feed) *Engine {
	clock := NewClock(bus, log, cfg.Clock.FrameInterval.Duration, cfg.Clock.InitialSpeed)
	scen := NewScenarioEngine(bus, log)
	NewEffectDispatcher(bus, log, w, weapons, feeds...)
	rm := NewResourceManager(bus, log, nil)
	gs := NewGameState(bus, log)

	e := &Engine{
		bus:       bus,
		log:       log,
		clock:     clock,
		scenario:  scen,
		resources: rm,
		gamestate: gs,
	}
	if store != nil {
		e.saver = NewSaveManager(bus, log, store, clock, w, rm, gs)
	}
	return e
}

// Start loads the scenario and runs the clock loop until ctx is cancelled.
func (e *Engine) Start(ctx context.Context, s *scenario.Scenario) {
	if s != nil {
		e.scenario.LoadScenario(s)
	}
	e.clock.Start()
	go e.clock.Run(ctx)
	e.log.Info("engine started", zap.Float64("speed", e.clock.Speed()))
}

// Clock exposes the game clock for read access.
func (e *Engine) Clock() *Clock { return e.clock }

// Scenario exposes scenario playback for read access.
func (e *Engine) Scenario() *ScenarioEngine { return e.scenario }

// Resources exposes the fleet resource pools.
func (e *Engine) Resources() *ResourceManager { return e.resources }

// State exposes session-level progression.
func (e *Engine) State() *GameState { return e.gamestate }

// Pause halts simulated time. Safe to call in any state.
func (e *Engine) Pause() { e.clock.Pause() }

// Resume restarts simulated time with no jump.
func (e *Engine) Resume() { e.clock.Resume() }

// SetSpeedMultiplier changes the time scale. Non-positive values are
// rejected inside the clock.
func (e *Engine) SetSpeedMultiplier(speed float64) { e.clock.SetSpeedMultiplier(speed) }

// Save writes the session to the named slot. False when persistence is not
// configured or the write failed.
func (e *Engine) Save(ctx context.Context, slot string) bool {
	if e.saver == nil {
		e.log.Warn("save requested but no store configured", zap.String("slot", slot))
		return false
	}
	return e.saver.Save(ctx, slot)
}

// Load restores the session from the named slot. The clock keeps running
// through a load; pausing first is the operator's call.
func (e *Engine) Load(ctx context.Context, slot string) bool {
	if e.saver == nil {
		e.log.Warn("load requested but no store configured", zap.String("slot", slot))
		return false
	}
	return e.saver.Load(ctx, slot)
}

// ResetScenario restarts playback of the loaded scenario from hour zero.
func (e *Engine) ResetScenario() {
	e.clock.RestoreTime(events.GameTime{Day: 1})
	e.scenario.Reset()
}
