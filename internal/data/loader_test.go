package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadLocationsSkipsBadRecords(t *testing.T) {
	path := writeFile(t, "locations.yaml", `
locations:
  - id: loc_ok
    name: Good City
    type: city
    lat: 40.0
    lng: -74.0
    nation: nat_test
  - id: ""
    name: No ID
    lat: 10.0
    lng: 10.0
  - id: loc_ok
    name: Duplicate
    lat: 20.0
    lng: 20.0
  - id: loc_offmap
    name: Off The Map
    lat: 95.0
    lng: 200.0
  - id: loc_also_ok
    name: Another City
    type: city
    lat: 51.5
    lng: -0.12
    nation: nat_test
`)

	locs, err := LoadLocations(path, logger.NewNop())
	if err != nil {
		t.Fatalf("Expected load to succeed despite bad records, got %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("Expected 2 valid locations, got %d", len(locs))
	}
	if locs[0].ID != "loc_ok" || locs[1].ID != "loc_also_ok" {
		t.Errorf("Wrong survivors: %v", locs)
	}
}

func TestLoadLocationsFailsWhenNothingSurvives(t *testing.T) {
	path := writeFile(t, "locations.yaml", `
locations:
  - id: ""
    name: Nameless
`)

	if _, err := LoadLocations(path, logger.NewNop()); err == nil {
		t.Error("Expected an error when no record is valid")
	}
}

func TestLoadLocationsMissingFile(t *testing.T) {
	if _, err := LoadLocations(filepath.Join(t.TempDir(), "missing.yaml"), logger.NewNop()); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestLoadNationsSkipsDuplicates(t *testing.T) {
	path := writeFile(t, "nations.yaml", `
nations:
  - id: nat_usa
    name: United States
    nuclear: true
    military_strength: 100
  - id: nat_usa
    name: United States Again
  - id: nat_uk
    name: United Kingdom
    nuclear: true
`)

	nats, err := LoadNations(path, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(nats) != 2 {
		t.Fatalf("Expected 2 nations, got %d", len(nats))
	}
	if !nats[0].Nuclear || nats[0].MilitaryStrength != 100 {
		t.Errorf("First record fields lost: %+v", nats[0])
	}
}

func TestLoadScenarioParsesTimeline(t *testing.T) {
	path := writeFile(t, "scenario.yaml", `
id: test_arc
name: Test Arc
events:
  - id: ev_arrival
    time: 0.5
    type: narrative
    alien_message: "We are here."
  - id: ev_strike
    time: 6
    type: attack
    location: loc_city
    importance: critical
    effect:
      location: loc_city
      stability_change: -40
`)

	s, err := LoadScenario(path, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != "test_arc" || len(s.Events) != 2 {
		t.Fatalf("Wrong scenario: %+v", s)
	}
	ev := s.Events[1]
	if ev.Effect == nil || ev.Effect.StabilityChange == nil || *ev.Effect.StabilityChange != -40 {
		t.Errorf("Effect not decoded: %+v", ev.Effect)
	}
}

func TestLoadScenarioSkipsBadEvents(t *testing.T) {
	path := writeFile(t, "scenario.yaml", `
id: rough_arc
name: Rough Arc
events:
  - id: ev_good
    time: 1
    type: attack
    location: loc_city
  - id: ev_bad
    time: 2
    type: teleport
  - id: ev_good
    time: 3
    type: narrative
  - id: ev_also_good
    time: 4
    type: narrative
    alien_message: "Still here."
`)

	s, err := LoadScenario(path, logger.NewNop())
	if err != nil {
		t.Fatalf("Expected load to succeed despite bad events, got %v", err)
	}
	if len(s.Events) != 2 {
		t.Fatalf("Expected 2 surviving events, got %d", len(s.Events))
	}
	if s.Events[0].ID != "ev_good" || s.Events[1].ID != "ev_also_good" {
		t.Errorf("Wrong survivors: %+v", s.Events)
	}
	if s.Events[0].Type != "attack" {
		t.Errorf("Duplicate id should keep the first record, got %+v", s.Events[0])
	}
}

func TestLoadScenarioFailsWhenNoEventSurvives(t *testing.T) {
	path := writeFile(t, "scenario.yaml", `
id: dead_arc
name: Dead Arc
events:
  - id: ev_bad
    time: 2
    type: teleport
`)

	if _, err := LoadScenario(path, logger.NewNop()); err == nil {
		t.Error("Expected an error when no event is valid")
	}
}

func TestLoadScenarioFailsWithoutHeader(t *testing.T) {
	path := writeFile(t, "scenario.yaml", `
name: Headless Arc
events:
  - id: ev_good
    time: 1
    type: narrative
`)

	if _, err := LoadScenario(path, logger.NewNop()); err == nil {
		t.Error("Expected an error for a scenario without an id")
	}
}
