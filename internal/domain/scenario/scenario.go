// Package scenario defines the authored narrative timeline entities.
// This package is PURE and must NOT import any infrastructure packages.
//
// A scenario is static data: the engine only ever reads it. All runtime
// playback bookkeeping (pending/completed sets) lives in the engine, never
// here.
package scenario

import (
	"fmt"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/location"
)

// EventType classifies a narrative event.
type EventType string

const (
	EventAttack        EventType = "attack"
	EventHack          EventType = "hack"
	EventOccupy        EventType = "occupy"
	EventDestroy       EventType = "destroy"
	EventHumanResponse EventType = "human_response"
	EventCivilian      EventType = "civilian"
	EventNarrative     EventType = "narrative"
)

// knownTypes is the closed set accepted by validation.
var knownTypes = map[EventType]bool{
	EventAttack:        true,
	EventHack:          true,
	EventOccupy:        true,
	EventDestroy:       true,
	EventHumanResponse: true,
	EventCivilian:      true,
	EventNarrative:     true,
}

// Importance grades how prominently an event should be presented.
type Importance string

const (
	ImportanceMinor    Importance = "minor"
	ImportanceMajor    Importance = "major"
	ImportanceCritical Importance = "critical"
)

// LocationEffect is the declared world mutation an event carries. Applying
// it is a partial update: only present fields change.
type LocationEffect struct {
	LocationID      string            `yaml:"location" json:"location"`
	NewStatus       *location.Status  `yaml:"status" json:"status,omitempty"`
	NewControlledBy *location.Control `yaml:"controlled_by" json:"controlled_by,omitempty"`
	StabilityChange *int              `yaml:"stability_change" json:"stability_change,omitempty"`
}

// Event is one immutable authored record on the timeline. Time is measured
// in scenario-hours from scenario start and may be fractional.
type Event struct {
	ID           string          `yaml:"id" json:"id"`
	Time         float64         `yaml:"time" json:"time"`
	Type         EventType       `yaml:"type" json:"type"`
	LocationID   string          `yaml:"location" json:"location,omitempty"`
	Effect       *LocationEffect `yaml:"effect" json:"effect,omitempty"`
	AlienMessage string          `yaml:"alien_message" json:"alien_message,omitempty"`
	NewsHeadline string          `yaml:"news_headline" json:"news_headline,omitempty"`
	NewsDetail   string          `yaml:"news_detail" json:"news_detail,omitempty"`
	FocusCamera  bool            `yaml:"focus_camera" json:"focus_camera,omitempty"`
	Importance   Importance      `yaml:"importance" json:"importance,omitempty"`
}

// Validate checks a single event record.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event has no id")
	}
	if e.Time < 0 {
		return fmt.Errorf("event %s: negative time %g", e.ID, e.Time)
	}
	if !knownTypes[e.Type] {
		return fmt.Errorf("event %s: unknown type %q", e.ID, e.Type)
	}
	if e.Importance != "" && e.Importance != ImportanceMinor && e.Importance != ImportanceMajor && e.Importance != ImportanceCritical {
		return fmt.Errorf("event %s: unknown importance %q", e.ID, e.Importance)
	}
	if e.Effect != nil && e.Effect.LocationID == "" {
		return fmt.Errorf("event %s: effect without a location", e.ID)
	}
	return nil
}

// Scenario is an authored timeline. Events may arrive in any order; the
// engine sorts a working copy before playback.
type Scenario struct {
	ID     string  `yaml:"id" json:"id"`
	Name   string  `yaml:"name" json:"name"`
	Events []Event `yaml:"events" json:"events"`
}

// Validate checks the scenario header and every event. Any broken event
// fails the whole scenario: this is the strict pre-ship check scenario-lint
// runs, not the server's load policy.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scenario has no id")
	}
	if s.Name == "" {
		return fmt.Errorf("scenario %s has no name", s.ID)
	}
	seen := make(map[string]bool, len(s.Events))
	for i := range s.Events {
		if err := s.Events[i].Validate(); err != nil {
			return err
		}
		if seen[s.Events[i].ID] {
			return fmt.Errorf("duplicate event id %q", s.Events[i].ID)
		}
		seen[s.Events[i].ID] = true
	}
	return nil
}

// Duration returns the scheduled time of the latest event, in scenario-hours.
func (s *Scenario) Duration() float64 {
	var max float64
	for _, e := range s.Events {
		if e.Time > max {
			max = e.Time
		}
	}
	return max
}
