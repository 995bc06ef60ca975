package engine

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/scenario"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

// ScenarioState is a snapshot of playback bookkeeping. Callers always get a
// defensive copy; nothing they do to it can disturb the engine.
type ScenarioState struct {
	ScenarioID  string          `json:"scenario_id"`
	CurrentTime float64         `json:"current_time"` // scenario-hours
	Completed   map[string]bool `json:"completed"`
	IsComplete  bool            `json:"is_complete"`
}

// ScenarioEngine plays one authored timeline against the game clock. On
// every tick it fires every pending event whose scheduled time has been
// crossed, in ascending time order (authored order breaks ties), each
// exactly once per load. When the last event fires it announces completion
// exactly once and ignores all further ticks.
//
// The engine never touches WorldData: it only publishes event-triggered
// notifications. That keeps playback pure and lets any number of listeners
// react without coupling to each other.
type ScenarioEngine struct {
	mu        sync.Mutex
	bus       *events.Bus
	log       *logger.Logger
	scen      *scenario.Scenario
	pending   []scenario.Event
	completed map[string]bool
	current   float64
	complete  bool
}

// NewScenarioEngine creates an engine with no scenario loaded and subscribes
// it to clock ticks.
func NewScenarioEngine(bus *events.Bus, log *logger.Logger) *ScenarioEngine {
	se := &ScenarioEngine{
		bus:       bus,
		log:       log,
		completed: make(map[string]bool),
	}
	bus.Subscribe(events.TopicTick, se.onTick)
	bus.Subscribe(events.TopicTimeRestored, se.onTimeRestored)
	return se
}

// LoadScenario replaces any currently loaded scenario. The engine takes a
// working copy of the events, stable-sorted ascending by time so equal-time
// events keep their authored order, and resets all bookkeeping.
func (se *ScenarioEngine) LoadScenario(s *scenario.Scenario) {
	se.mu.Lock()
	se.scen = s
	se.pending = make([]scenario.Event, len(s.Events))
	copy(se.pending, s.Events)
	sort.SliceStable(se.pending, func(i, j int) bool {
		return se.pending[i].Time < se.pending[j].Time
	})
	se.completed = make(map[string]bool, len(s.Events))
	se.current = 0
	se.complete = false
	count := len(se.pending)
	se.mu.Unlock()

	se.log.Info("scenario loaded",
		zap.String("scenario", s.ID),
		zap.Int("events", count),
	)
	se.bus.Publish(events.TopicScenarioLoaded, events.ScenarioLoadedPayload{
		ScenarioID: s.ID,
		Name:       s.Name,
		EventCount: count,
	})
}

// Reset reloads the held scenario from scratch, discarding all progress.
// No-op when nothing is loaded.
func (se *ScenarioEngine) Reset() {
	se.mu.Lock()
	s := se.scen
	se.mu.Unlock()
	if s == nil {
		return
	}
	se.LoadScenario(s)
}

// onTick fires every event crossed by the new scenario time. Bookkeeping is
// updated under the lock, but notifications are published outside it so an
// event's full fan-out (which may query this engine) runs unlocked, and
// still strictly before the next event of the same tick is published.
func (se *ScenarioEngine) onTick(payload any) {
	tick, ok := payload.(events.TickPayload)
	if !ok {
		return
	}
	hours := tick.Time.ScenarioHours()

	se.mu.Lock()
	if se.scen == nil || se.complete {
		se.mu.Unlock()
		return
	}
	se.current = hours

	var fired []scenario.Event
	for len(se.pending) > 0 && se.pending[0].Time <= hours {
		ev := se.pending[0]
		se.pending = se.pending[1:]
		se.completed[ev.ID] = true
		fired = append(fired, ev)
	}

	// The complete flag guards exactly-once: this handler already returned
	// above when it was set. A scenario authored with zero events completes
	// on its first tick.
	var completion *events.ScenarioCompletePayload
	if len(se.pending) == 0 {
		se.complete = true
		completion = &events.ScenarioCompletePayload{
			ScenarioID:    se.scen.ID,
			TotalEvents:   len(se.completed),
			DurationHours: hours,
		}
	}
	se.mu.Unlock()

	for _, ev := range fired {
		se.log.Event("SCENARIO_EVENT", ev.ID, string(ev.Type))
		se.bus.Publish(events.TopicEventTriggered, events.EventTriggeredPayload{
			Event:         ev,
			ScenarioHours: hours,
			Time:          tick.Time,
		})
	}
	if completion != nil {
		se.log.Info("scenario complete",
			zap.String("scenario", completion.ScenarioID),
			zap.Int("events", completion.TotalEvents),
		)
		se.bus.Publish(events.TopicScenarioComplete, *completion)
	}
}

// onTimeRestored jumps playback to the restored clock position. Events at or
// before the restored time are marked completed WITHOUT publishing: their
// consequences live in the restored world state already, and replaying them
// would double-apply every effect.
func (se *ScenarioEngine) onTimeRestored(payload any) {
	restored, ok := payload.(events.TimeRestoredPayload)
	if !ok {
		return
	}
	hours := restored.Time.ScenarioHours()

	se.mu.Lock()
	defer se.mu.Unlock()
	if se.scen == nil {
		return
	}
	se.current = hours

	// Rebuild from the authored timeline so a restore works in either
	// direction: a load of an older save must re-arm later events.
	se.pending = make([]scenario.Event, len(se.scen.Events))
	copy(se.pending, se.scen.Events)
	sort.SliceStable(se.pending, func(i, j int) bool {
		return se.pending[i].Time < se.pending[j].Time
	})
	se.completed = make(map[string]bool, len(se.pending))
	for len(se.pending) > 0 && se.pending[0].Time <= hours {
		se.completed[se.pending[0].ID] = true
		se.pending = se.pending[1:]
	}
	se.complete = len(se.pending) == 0
	se.log.Info("scenario realigned to restored time",
		zap.Float64("hours", hours),
		zap.Int("completed", len(se.completed)),
		zap.Int("pending", len(se.pending)),
	)
}

// Progress returns completed and total event counts for the current load.
func (se *ScenarioEngine) Progress() (completed, total int) {
	se.mu.Lock()
	defer se.mu.Unlock()
	return len(se.completed), len(se.completed) + len(se.pending)
}

// Upcoming returns copies of the next n pending events in trigger order.
func (se *ScenarioEngine) Upcoming(n int) []scenario.Event {
	se.mu.Lock()
	defer se.mu.Unlock()
	if n > len(se.pending) {
		n = len(se.pending)
	}
	out := make([]scenario.Event, n)
	copy(out, se.pending[:n])
	return out
}

// Snapshot returns a defensive copy of the playback state.
func (se *ScenarioEngine) Snapshot() ScenarioState {
	se.mu.Lock()
	defer se.mu.Unlock()
	state := ScenarioState{
		CurrentTime: se.current,
		IsComplete:  se.complete,
		Completed:   make(map[string]bool, len(se.completed)),
	}
	if se.scen != nil {
		state.ScenarioID = se.scen.ID
	}
	for id := range se.completed {
		state.Completed[id] = true
	}
	return state
}
