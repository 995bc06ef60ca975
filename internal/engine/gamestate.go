package engine

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/location"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

// Phase is the coarse campaign act the session is in. The phase follows the
// game day: the authored timeline is paced so each day is one act.
type Phase string

const (
	PhaseFirstContact Phase = "first_contact"
	PhaseEscalation   Phase = "escalation"
	PhaseOccupation   Phase = "occupation"
	PhaseAftermath    Phase = "aftermath"
)

func phaseForDay(day int) Phase {
	switch {
	case day <= 1:
		return PhaseFirstContact
	case day == 2:
		return PhaseEscalation
	case day == 3:
		return PhaseOccupation
	default:
		return PhaseAftermath
	}
}

// Stats are the session counters shown on the operator dashboard.
type Stats struct {
	EventsTriggered   int `json:"events_triggered"`
	StrikesDispatched int `json:"strikes_dispatched"`
	FeedEntries       int `json:"feed_entries"`
	LocationsLost     int `json:"locations_lost"`
	SavesWritten      int `json:"saves_written"`
}

// GameStateSnapshot is an immutable copy of the session-level state.
type GameStateSnapshot struct {
	Phase    Phase  `json:"phase"`
	RunState string `json:"run_state"`
	Stats    Stats  `json:"stats"`
}

// GameState tracks session-level progression: campaign phase, run state and
// aggregate counters. It is a pure listener; everything it knows it learned
// from notifications.
type GameState struct {
	mu       sync.Mutex
	bus      *events.Bus
	log      *logger.Logger
	phase    Phase
	runState string
	stats    Stats
	lost     map[string]bool
}

// NewGameState creates a tracker starting in first contact and subscribes it
// to every topic it aggregates.
func NewGameState(bus *events.Bus, log *logger.Logger) *GameState {
	gs := &GameState{
		bus:      bus,
		log:      log,
		phase:    PhaseFirstContact,
		runState: "stopped",
		lost:     make(map[string]bool),
	}
	bus.Subscribe(events.TopicDayChanged, gs.onDayChanged)
	bus.Subscribe(events.TopicEventTriggered, gs.onEventTriggered)
	bus.Subscribe(events.TopicWeaponEffect, gs.onWeaponEffect)
	bus.Subscribe(events.TopicFeedEntry, gs.onFeedEntry)
	bus.Subscribe(events.TopicLocationUpdated, gs.onLocationUpdated)
	bus.Subscribe(events.TopicSessionSaved, gs.onSessionSaved)
	bus.Subscribe(events.TopicClockPaused, gs.onPaused)
	bus.Subscribe(events.TopicClockResumed, gs.onResumed)
	bus.Subscribe(events.TopicClockStopped, gs.onStopped)
	return gs
}

func (gs *GameState) onDayChanged(payload any) {
	p, ok := payload.(events.DayChangedPayload)
	if !ok {
		return
	}
	next := phaseForDay(p.Time.Day)

	gs.mu.Lock()
	prev := gs.phase
	if next == prev {
		gs.mu.Unlock()
		return
	}
	gs.phase = next
	gs.mu.Unlock()

	gs.log.Info("campaign phase changed",
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
		zap.Int("day", p.Time.Day),
	)
	gs.bus.Publish(events.TopicPhaseChanged, events.PhaseChangedPayload{
		Previous: string(prev),
		New:      string(next),
		Time:     p.Time,
	})
}

func (gs *GameState) onEventTriggered(payload any) {
	if _, ok := payload.(events.EventTriggeredPayload); !ok {
		return
	}
	gs.mu.Lock()
	gs.stats.EventsTriggered++
	gs.mu.Unlock()
}

func (gs *GameState) onWeaponEffect(payload any) {
	if _, ok := payload.(events.WeaponEffectPayload); !ok {
		return
	}
	gs.mu.Lock()
	gs.stats.StrikesDispatched++
	gs.mu.Unlock()
}

func (gs *GameState) onFeedEntry(payload any) {
	if _, ok := payload.(events.FeedEntryPayload); !ok {
		return
	}
	gs.mu.Lock()
	gs.stats.FeedEntries++
	gs.mu.Unlock()
}

// onLocationUpdated counts a location as lost the first time it leaves human
// control. A location flapping between alien and contested is still one loss.
func (gs *GameState) onLocationUpdated(payload any) {
	p, ok := payload.(events.LocationUpdatedPayload)
	if !ok {
		return
	}
	if p.Location.ControlledBy == location.ControlHuman {
		return
	}
	gs.mu.Lock()
	if !gs.lost[p.Location.ID] {
		gs.lost[p.Location.ID] = true
		gs.stats.LocationsLost++
	}
	gs.mu.Unlock()
}

func (gs *GameState) onSessionSaved(payload any) {
	p, ok := payload.(events.SessionSavedPayload)
	if !ok || !p.OK {
		return
	}
	gs.mu.Lock()
	gs.stats.SavesWritten++
	gs.mu.Unlock()
}

func (gs *GameState) onPaused(any)  { gs.setRunState("paused") }
func (gs *GameState) onResumed(any) { gs.setRunState("running") }
func (gs *GameState) onStopped(any) { gs.setRunState("stopped") }

func (gs *GameState) setRunState(s string) {
	gs.mu.Lock()
	gs.runState = s
	gs.mu.Unlock()
}

// Phase returns the current campaign phase.
func (gs *GameState) Phase() Phase {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.phase
}

// Snapshot returns a copy of the session state for saves and the HTTP API.
func (gs *GameState) Snapshot() GameStateSnapshot {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return GameStateSnapshot{
		Phase:    gs.phase,
		RunState: gs.runState,
		Stats:    gs.stats,
	}
}

// Restore overwrites the session state from a save. The lost-location dedupe
// set is rebuilt lazily: locations restored as non-human will not be counted
// again because LocationsLost is restored alongside.
func (gs *GameState) Restore(snap GameStateSnapshot, lost []string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if snap.Phase != "" {
		gs.phase = snap.Phase
	}
	if snap.RunState != "" {
		gs.runState = snap.RunState
	}
	gs.stats = snap.Stats
	gs.lost = make(map[string]bool, len(lost))
	for _, id := range lost {
		gs.lost[id] = true
	}
}

// LostLocations returns the ids of locations that have left human control,
// for inclusion in a save.
func (gs *GameState) LostLocations() []string {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	out := make([]string, 0, len(gs.lost))
	for id := range gs.lost {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
