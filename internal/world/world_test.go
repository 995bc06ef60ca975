package world

import (
	"testing"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/location"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/nation"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

func testDefinitions() ([]location.Definition, []nation.Definition) {
	locs := []location.Definition{
		{ID: "loc_ny", Name: "New York", Type: location.TypeCity, Lat: 40.71, Lng: -74.00, Nation: "nat_usa", Population: 8400000},
		{ID: "loc_dc", Name: "Washington D.C.", Type: location.TypeCommand, Lat: 38.90, Lng: -77.03, Nation: "nat_usa"},
		{ID: "loc_minot", Name: "Minot AFB", Type: location.TypeNuclear, Lat: 48.42, Lng: -101.33, Nation: "nat_usa", NuclearCapacity: 150},
		{ID: "loc_kozelsk", Name: "Kozelsk Silo Field", Type: location.TypeNuclear, Lat: 54.03, Lng: 35.78, Nation: "nat_russia", NuclearCapacity: 60},
		{ID: "loc_london", Name: "London", Type: location.TypeCity, Lat: 51.50, Lng: -0.12, Nation: "nat_uk"},
	}
	nats := []nation.Definition{
		{ID: "nat_usa", Name: "United States", Nuclear: true, MilitaryStrength: 100},
		{ID: "nat_russia", Name: "Russia", Nuclear: true, MilitaryStrength: 80},
		{ID: "nat_uk", Name: "United Kingdom", Nuclear: true, MilitaryStrength: 55},
	}
	return locs, nats
}

func newTestData() (*Data, *events.Bus) {
	bus := events.NewBus(logger.NewNop())
	d := New(bus, logger.NewNop())
	locs, nats := testDefinitions()
	d.Initialize(locs, nats)
	return d, bus
}

func TestInitializeBaseline(t *testing.T) {
	d, _ := newTestData()

	loc, ok := d.Location("loc_ny")
	if !ok {
		t.Fatal("Expected loc_ny to exist")
	}
	if loc.Status != location.StatusAnalyzed {
		t.Errorf("Expected analyzed baseline, got %s", loc.Status)
	}
	if loc.ControlledBy != location.ControlHuman {
		t.Errorf("Expected human control baseline, got %s", loc.ControlledBy)
	}
	if loc.Stability != 100 {
		t.Errorf("Expected stability 100, got %d", loc.Stability)
	}

	n, ok := d.Nation("nat_usa")
	if !ok {
		t.Fatal("Expected nat_usa to exist")
	}
	if n.Government != nation.GovernmentFunctional || n.Relations != nation.RelationsHostile {
		t.Errorf("Wrong nation baseline: %+v", n)
	}
}

func TestLocationReturnsCopy(t *testing.T) {
	d, _ := newTestData()

	loc, _ := d.Location("loc_ny")
	loc.Stability = 5
	loc.ControlledBy = location.ControlAlien

	again, _ := d.Location("loc_ny")
	if again.Stability != 100 || again.ControlledBy != location.ControlHuman {
		t.Error("Mutating a returned copy must not touch the world")
	}
}

func TestUpdateLocationPartialMerge(t *testing.T) {
	d, _ := newTestData()

	status := location.StatusTargeted
	d.UpdateLocation("loc_ny", location.Patch{Status: &status})

	loc, _ := d.Location("loc_ny")
	if loc.Status != location.StatusTargeted {
		t.Errorf("Expected targeted, got %s", loc.Status)
	}
	if loc.ControlledBy != location.ControlHuman || loc.Stability != 100 {
		t.Error("Absent patch fields must stay untouched")
	}
}

func TestUpdateLocationStabilityClamps(t *testing.T) {
	d, _ := newTestData()

	over := 250
	d.UpdateLocation("loc_ny", location.Patch{Stability: &over})
	if loc, _ := d.Location("loc_ny"); loc.Stability != 100 {
		t.Errorf("Expected clamp to 100, got %d", loc.Stability)
	}

	delta := -400
	d.UpdateLocation("loc_ny", location.Patch{StabilityDelta: &delta})
	if loc, _ := d.Location("loc_ny"); loc.Stability != 0 {
		t.Errorf("Expected clamp to 0, got %d", loc.Stability)
	}
}

func TestUpdateUnknownIDIsSilentNoOp(t *testing.T) {
	d, bus := newTestData()

	published := false
	bus.Subscribe(events.TopicLocationUpdated, func(any) { published = true })
	bus.Subscribe(events.TopicNationUpdated, func(any) { published = true })

	status := location.StatusOccupied
	d.UpdateLocation("loc_atlantis", location.Patch{Status: &status})
	gov := nation.GovernmentCollapsed
	d.UpdateNation("nat_atlantis", nation.Patch{Government: &gov})

	if published {
		t.Error("Unknown ids must not publish updates")
	}
}

func TestEmptyPatchPublishesNothing(t *testing.T) {
	d, bus := newTestData()

	published := false
	bus.Subscribe(events.TopicLocationUpdated, func(any) { published = true })

	d.UpdateLocation("loc_ny", location.Patch{})

	if published {
		t.Error("Empty patches must not publish updates")
	}
}

func TestUpdatePublishesMergedState(t *testing.T) {
	d, bus := newTestData()

	var got location.State
	bus.Subscribe(events.TopicLocationUpdated, func(p any) {
		got = p.(events.LocationUpdatedPayload).Location
	})

	control := location.ControlAlien
	delta := -25
	d.UpdateLocation("loc_dc", location.Patch{ControlledBy: &control, StabilityDelta: &delta})

	if got.ID != "loc_dc" || got.ControlledBy != location.ControlAlien || got.Stability != 75 {
		t.Errorf("Expected the post-merge state in the notification, got %+v", got)
	}
}

func TestLocationFilters(t *testing.T) {
	d, _ := newTestData()

	if got := d.LocationsByType(location.TypeNuclear); len(got) != 2 {
		t.Errorf("Expected 2 nuclear sites, got %d", len(got))
	}
	if got := d.LocationsByNation("nat_usa"); len(got) != 3 {
		t.Errorf("Expected 3 US locations, got %d", len(got))
	}

	control := location.ControlAlien
	d.UpdateLocation("loc_london", location.Patch{ControlledBy: &control})
	got := d.LocationsByControl(location.ControlAlien)
	if len(got) != 1 || got[0].ID != "loc_london" {
		t.Errorf("Expected [loc_london], got %v", got)
	}
}

func TestLocationsWithinRadius(t *testing.T) {
	d, _ := newTestData()

	// New York and Washington are ~330 km apart; London is an ocean away.
	got := d.LocationsWithinRadius(40.71, -74.00, 400)
	if len(got) != 2 {
		t.Fatalf("Expected NY and DC within 400km of NY, got %d", len(got))
	}
	for _, loc := range got {
		if loc.ID != "loc_ny" && loc.ID != "loc_dc" {
			t.Errorf("Unexpected location in radius: %s", loc.ID)
		}
	}
}

func TestNuclearCapacityByControl(t *testing.T) {
	d, _ := newTestData()

	sum := d.NuclearCapacity()
	if sum.Total != 210 || sum.HumanHeld != 210 {
		t.Fatalf("Expected all 210 warheads human-held at start, got %+v", sum)
	}

	alien := location.ControlAlien
	d.UpdateLocation("loc_minot", location.Patch{ControlledBy: &alien})
	destroyed := location.ControlDestroyed
	d.UpdateLocation("loc_kozelsk", location.Patch{ControlledBy: &destroyed})

	sum = d.NuclearCapacity()
	if sum.HumanHeld != 0 || sum.AlienHeld != 150 || sum.OutOfPlay != 60 {
		t.Errorf("Wrong capacity split: %+v", sum)
	}
}

func TestSummarize(t *testing.T) {
	d, _ := newTestData()

	stability := 50
	d.UpdateLocation("loc_ny", location.Patch{Stability: &stability})

	sum := d.Summarize()
	if sum.Locations != 5 || sum.Nations != 3 {
		t.Errorf("Wrong entity counts: %+v", sum)
	}
	if sum.ByControl["human"] != 5 {
		t.Errorf("Expected 5 human-held, got %d", sum.ByControl["human"])
	}
	// (4*100 + 50) / 5
	if sum.AverageStability != 90 {
		t.Errorf("Expected average stability 90, got %g", sum.AverageStability)
	}
}

func TestUpdateNationMerge(t *testing.T) {
	d, _ := newTestData()

	gov := nation.GovernmentDegraded
	rel := nation.RelationsResistant
	strength := 40
	d.UpdateNation("nat_usa", nation.Patch{
		Government:       &gov,
		MilitaryStrength: &strength,
		Relations:        &rel,
	})

	n, _ := d.Nation("nat_usa")
	if n.Government != nation.GovernmentDegraded || n.MilitaryStrength != 40 || n.Relations != nation.RelationsResistant {
		t.Errorf("Wrong merged nation: %+v", n)
	}
	if n.Stability != 100 {
		t.Error("Absent nation patch fields must stay untouched")
	}
}
