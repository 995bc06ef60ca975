package fx

import (
	"testing"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/location"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/scenario"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
	"github.com/MRamiBalles/CieloRoto/server/internal/world"
)

func newFixture() (*Manager, *events.Bus) {
	bus := events.NewBus(logger.NewNop())
	w := world.New(bus, logger.NewNop())
	w.Initialize([]location.Definition{
		{ID: "loc_tokyo", Name: "Tokyo", Type: location.TypeCity, Lat: 35.68, Lng: 139.69, Nation: "nat_japan"},
	}, nil)
	return NewManager(bus, logger.NewNop(), w), bus
}

func TestStrikeAnchorsAtLocationCoordinates(t *testing.T) {
	m, bus := newFixture()

	var got events.WeaponEffectPayload
	bus.Subscribe(events.TopicWeaponEffect, func(p any) {
		got = p.(events.WeaponEffectPayload)
	})

	at := events.GameTime{Day: 1, Hour: 6}
	m.Strike(events.StrikePlasma, "loc_tokyo", scenario.ImportanceCritical, at)

	if got.Kind != events.StrikePlasma || got.LocationID != "loc_tokyo" {
		t.Errorf("Wrong effect identity: %+v", got)
	}
	if got.Lat != 35.68 || got.Lng != 139.69 {
		t.Errorf("Expected the location's coordinates, got (%g, %g)", got.Lat, got.Lng)
	}
	if got.Importance != scenario.ImportanceCritical || got.Time != at {
		t.Errorf("Importance or time not carried through: %+v", got)
	}
}

func TestStrikeOnUnknownLocationIsDropped(t *testing.T) {
	m, bus := newFixture()

	published := false
	bus.Subscribe(events.TopicWeaponEffect, func(any) { published = true })

	m.Strike(events.StrikeKinetic, "loc_nowhere", scenario.ImportanceMajor, events.GameTime{})

	if published {
		t.Error("Strikes on unknown locations must publish nothing")
	}
}
