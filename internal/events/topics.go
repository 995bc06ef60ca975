// Package events provides the synchronous notification bus the simulation
// core is built around, plus the journal of durable narrative events.
//
// The notification catalogue below is the wire contract between the core and
// its collaborators (renderer, feeds, persistence). Topics form a closed set
// and every topic carries exactly one payload type, so consumers can switch
// exhaustively instead of sniffing loose maps.
package events

import (
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/location"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/nation"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/scenario"
)

// Topic names a notification kind.
type Topic string

const (
	TopicTick         Topic = "clock.tick"
	TopicHourChanged  Topic = "clock.hour_changed"
	TopicDayChanged   Topic = "clock.day_changed"
	TopicSpeedChanged Topic = "clock.speed_changed"
	TopicClockPaused  Topic = "clock.paused"
	TopicClockResumed Topic = "clock.resumed"
	TopicClockStopped Topic = "clock.stopped"
	TopicTimeRestored Topic = "clock.time_restored"

	TopicScenarioLoaded   Topic = "scenario.loaded"
	TopicEventTriggered   Topic = "scenario.event_triggered"
	TopicScenarioComplete Topic = "scenario.complete"

	TopicLocationUpdated Topic = "world.location_updated"
	TopicNationUpdated   Topic = "world.nation_updated"

	TopicWeaponEffect     Topic = "fx.weapon_effect"
	TopicFeedEntry        Topic = "feeds.entry"
	TopicPhaseChanged     Topic = "campaign.phase_changed"
	TopicResourcesChanged Topic = "fleet.resources_changed"

	TopicSessionSaved  Topic = "session.saved"
	TopicSessionLoaded Topic = "session.loaded"
)

// GameTime is the simulated timestamp carried by every clock notification.
// Day/Hour/Minute are a pure projection of ElapsedMs and are never mutated
// independently. ElapsedMs is monotonically non-decreasing while the clock
// runs; only an explicit restore overwrites it wholesale.
type GameTime struct {
	ElapsedMs float64 `json:"elapsed_ms"`
	Day       int     `json:"day"`    // >= 1
	Hour      int     `json:"hour"`   // 0-23
	Minute    int     `json:"minute"` // 0-59
}

// ScenarioHours converts a GameTime to scenario-hours from scenario start.
// This is the single conversion the scenario engine triggers against.
func (t GameTime) ScenarioHours() float64 {
	return float64(t.Day-1)*24 + float64(t.Hour) + float64(t.Minute)/60
}

// AbsoluteHour is the number of whole game-hours since day 1, hour 0.
func (t GameTime) AbsoluteHour() int {
	return (t.Day-1)*24 + t.Hour
}

// StrikeKind names a visual weapon effect the renderer knows how to draw.
type StrikeKind string

const (
	StrikeKinetic StrikeKind = "kinetic"
	StrikePlasma  StrikeKind = "plasma"
	StrikeBeam    StrikeKind = "beam"
)

// ResourceLevel is the snapshot of one fleet resource.
type ResourceLevel struct {
	Current      float64 `json:"current"`
	Max          float64 `json:"max"`
	RegenPerHour float64 `json:"regen_per_hour"`
}

// ─── Payloads ───────────────────────────────────────────────────────────

// TickPayload is published once per frame while the clock runs, after any
// hour/day crossing notifications of the same frame.
type TickPayload struct {
	DeltaMs float64  `json:"delta_ms"` // simulated delta for this frame
	Time    GameTime `json:"time"`
}

// HourChangedPayload is published when a frame crosses an hour boundary.
type HourChangedPayload struct {
	Time         GameTime `json:"time"`
	PreviousHour int      `json:"previous_hour"`
}

// DayChangedPayload is published when a frame crosses a day boundary,
// always after the hour-changed notification of the same frame.
type DayChangedPayload struct {
	Time        GameTime `json:"time"`
	PreviousDay int      `json:"previous_day"`
}

// SpeedChangedPayload reports a speed multiplier change. Never published
// when the new value equals the old one.
type SpeedChangedPayload struct {
	Previous float64 `json:"previous"`
	New      float64 `json:"new"`
}

// ClockStatePayload accompanies paused/resumed/stopped notifications.
type ClockStatePayload struct {
	Time GameTime `json:"time"`
}

// TimeRestoredPayload reports a wholesale clock overwrite from a save. This
/// is NOT a tick: it never triggers hour/day crossing side effects.
type TimeRestoredPayload struct {
	Time GameTime `json:"time"`
}

// ScenarioLoadedPayload reports a (re)loaded scenario.
type ScenarioLoadedPayload struct {
	ScenarioID string `json:"scenario_id"`
	Name       string `json:"name"`
	EventCount int    `json:"event_count"`
}

// EventTriggeredPayload carries a fired narrative event. Events for the same
// tick are published strictly in ascending scheduled-time order.
type EventTriggeredPayload struct {
	Event         scenario.Event `json:"event"`
	ScenarioHours float64        `json:"scenario_hours"`
	Time          GameTime       `json:"time"`
}

// ScenarioCompletePayload is published exactly once per scenario load, when
// the last pending event has fired.
type ScenarioCompletePayload struct {
	ScenarioID    string  `json:"scenario_id"`
	TotalEvents   int     `json:"total_events"`
	DurationHours float64 `json:"duration_hours"`
}

// LocationUpdatedPayload carries the post-merge state of a mutated location.
type LocationUpdatedPayload struct {
	Location location.State `json:"location"`
}

// NationUpdatedPayload carries the post-merge state of a mutated nation.
type NationUpdatedPayload struct {
	Nation nation.State `json:"nation"`
}

// WeaponEffectPayload asks the renderer to draw one strike at a location.
type WeaponEffectPayload struct {
	Kind       StrikeKind          `json:"kind"`
	LocationID string              `json:"location_id"`
	Lat        float64             `json:"lat"`
	Lng        float64             `json:"lng"`
	Importance scenario.Importance `json:"importance"`
	Time       GameTime            `json:"time"`
}

// FeedEntryPayload is one line of one narrative feed.
type FeedEntryPayload struct {
	Feed       string              `json:"feed"` // "alien" or "human"
	EventID    string              `json:"event_id"`
	Headline   string              `json:"headline"`
	Detail     string              `json:"detail,omitempty"`
	Importance scenario.Importance `json:"importance"`
	Time       GameTime            `json:"time"`
}

// PhaseChangedPayload reports a campaign phase transition.
type PhaseChangedPayload struct {
	Previous string   `json:"previous"`
	New      string   `json:"new"`
	Time     GameTime `json:"time"`
}

// ResourcesChangedPayload carries the full fleet resource pool after a
// regen or spend.
type ResourcesChangedPayload struct {
	Resources map[string]ResourceLevel `json:"resources"`
	Cause     string                   `json:"cause"` // "regen", "spend", "restore"
}

// SessionSavedPayload reports the outcome of a save.
type SessionSavedPayload struct {
	Slot    string `json:"slot"`
	OK      bool   `json:"ok"`
	Version int    `json:"version"`
}

// SessionLoadedPayload reports the outcome of a load. Warning is set on
// best-effort restores (e.g. version mismatch).
type SessionLoadedPayload struct {
	Slot    string `json:"slot"`
	OK      bool   `json:"ok"`
	Version int    `json:"version"`
	Warning string `json:"warning,omitempty"`
}
