package engine

import (
	"testing"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/location"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

func dayChange(day int) events.DayChangedPayload {
	return events.DayChangedPayload{Time: ProjectTime(float64(day-1) * msPerGameDay), PreviousDay: day - 1}
}

func TestPhaseForDay(t *testing.T) {
	cases := []struct {
		day  int
		want Phase
	}{
		{1, PhaseFirstContact},
		{2, PhaseEscalation},
		{3, PhaseOccupation},
		{4, PhaseAftermath},
		{9, PhaseAftermath},
	}
	for _, c := range cases {
		if got := phaseForDay(c.day); got != c.want {
			t.Errorf("phaseForDay(%d) = %s, want %s", c.day, got, c.want)
		}
	}
}

func TestPhaseChangePublishedOncePerTransition(t *testing.T) {
	bus := events.NewBus(logger.NewNop())
	gs := NewGameState(bus, logger.NewNop())

	var changes []events.PhaseChangedPayload
	bus.Subscribe(events.TopicPhaseChanged, func(p any) {
		changes = append(changes, p.(events.PhaseChangedPayload))
	})

	bus.Publish(events.TopicDayChanged, dayChange(2))
	bus.Publish(events.TopicDayChanged, dayChange(2)) // same phase, no publish

	if gs.Phase() != PhaseEscalation {
		t.Errorf("Expected escalation on day 2, got %s", gs.Phase())
	}
	if len(changes) != 1 {
		t.Fatalf("Expected one phase-changed notification, got %d", len(changes))
	}
	if changes[0].Previous != "first_contact" || changes[0].New != "escalation" {
		t.Errorf("Wrong transition payload: %+v", changes[0])
	}
}

func TestStatsCounters(t *testing.T) {
	bus := events.NewBus(logger.NewNop())
	gs := NewGameState(bus, logger.NewNop())

	bus.Publish(events.TopicEventTriggered, events.EventTriggeredPayload{})
	bus.Publish(events.TopicEventTriggered, events.EventTriggeredPayload{})
	bus.Publish(events.TopicWeaponEffect, events.WeaponEffectPayload{})
	bus.Publish(events.TopicFeedEntry, events.FeedEntryPayload{})
	bus.Publish(events.TopicSessionSaved, events.SessionSavedPayload{Slot: "s", OK: true})
	bus.Publish(events.TopicSessionSaved, events.SessionSavedPayload{Slot: "s", OK: false})

	stats := gs.Snapshot().Stats
	if stats.EventsTriggered != 2 {
		t.Errorf("Expected 2 events triggered, got %d", stats.EventsTriggered)
	}
	if stats.StrikesDispatched != 1 {
		t.Errorf("Expected 1 strike, got %d", stats.StrikesDispatched)
	}
	if stats.FeedEntries != 1 {
		t.Errorf("Expected 1 feed entry, got %d", stats.FeedEntries)
	}
	if stats.SavesWritten != 1 {
		t.Errorf("Failed saves must not count, got %d", stats.SavesWritten)
	}
}

func TestLostLocationCountedOnce(t *testing.T) {
	bus := events.NewBus(logger.NewNop())
	gs := NewGameState(bus, logger.NewNop())

	update := func(id string, c location.Control) {
		bus.Publish(events.TopicLocationUpdated, events.LocationUpdatedPayload{
			Location: location.State{
				Definition:   location.Definition{ID: id},
				ControlledBy: c,
			},
		})
	}

	update("loc_a", location.ControlAlien)
	update("loc_a", location.ControlContested) // flapping, still one loss
	update("loc_a", location.ControlAlien)
	update("loc_b", location.ControlDestroyed)
	update("loc_c", location.ControlHuman) // never lost

	if got := gs.Snapshot().Stats.LocationsLost; got != 2 {
		t.Errorf("Expected 2 lost locations, got %d", got)
	}
	lost := gs.LostLocations()
	if len(lost) != 2 || lost[0] != "loc_a" || lost[1] != "loc_b" {
		t.Errorf("Expected sorted [loc_a loc_b], got %v", lost)
	}
}

func TestRunStateFollowsClock(t *testing.T) {
	bus := events.NewBus(logger.NewNop())
	gs := NewGameState(bus, logger.NewNop())

	if gs.Snapshot().RunState != "stopped" {
		t.Errorf("Expected initial stopped, got %s", gs.Snapshot().RunState)
	}
	bus.Publish(events.TopicClockResumed, events.ClockStatePayload{})
	if gs.Snapshot().RunState != "running" {
		t.Errorf("Expected running, got %s", gs.Snapshot().RunState)
	}
	bus.Publish(events.TopicClockPaused, events.ClockStatePayload{})
	if gs.Snapshot().RunState != "paused" {
		t.Errorf("Expected paused, got %s", gs.Snapshot().RunState)
	}
	bus.Publish(events.TopicClockStopped, events.ClockStatePayload{})
	if gs.Snapshot().RunState != "stopped" {
		t.Errorf("Expected stopped, got %s", gs.Snapshot().RunState)
	}
}

func TestRestoreRebuildsStateAndDedupe(t *testing.T) {
	bus := events.NewBus(logger.NewNop())
	gs := NewGameState(bus, logger.NewNop())

	gs.Restore(GameStateSnapshot{
		Phase:    PhaseOccupation,
		RunState: "running",
		Stats:    Stats{EventsTriggered: 12, LocationsLost: 1},
	}, []string{"loc_a"})

	if gs.Phase() != PhaseOccupation {
		t.Errorf("Expected restored phase occupation, got %s", gs.Phase())
	}
	if gs.Snapshot().RunState != "running" {
		t.Errorf("Expected restored run state running, got %s", gs.Snapshot().RunState)
	}
	if gs.Snapshot().Stats.EventsTriggered != 12 {
		t.Errorf("Expected restored counters, got %+v", gs.Snapshot().Stats)
	}

	// A location already counted in the save is not double-counted.
	bus.Publish(events.TopicLocationUpdated, events.LocationUpdatedPayload{
		Location: location.State{
			Definition:   location.Definition{ID: "loc_a"},
			ControlledBy: location.ControlAlien,
		},
	})
	if got := gs.Snapshot().Stats.LocationsLost; got != 1 {
		t.Errorf("Expected loss count unchanged after restore, got %d", got)
	}
}
