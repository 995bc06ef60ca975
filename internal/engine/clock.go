// Package engine contains the simulation core: the game clock, the scenario
// playback engine, the effect dispatcher, fleet resources, campaign state
// and the session save/load path.
//
// ARCHITECTURAL RULE: the engine never mutates world entities directly from
// the scenario. It publishes notifications; the EffectDispatcher is the one
// listener that turns triggered events into WorldData mutations.
package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/metrics"
)

// Time mapping: 1 real second = 1 game minute at 1x speed. ElapsedMs counts
// speed-scaled milliseconds, so one game minute is 1000 of them and a full
// game day is 1,440,000. A 72-hour scenario runs in 72 real minutes at 1x
// and 4.3 real seconds at 1000x.
const (
	msPerGameMinute = 1000.0
	msPerGameHour   = msPerGameMinute * 60
	msPerGameDay    = msPerGameHour * 24
)

// ClockState is the lifecycle state of the game clock.
type ClockState int

const (
	ClockStopped ClockState = iota
	ClockRunning
	ClockPaused
)

func (s ClockState) String() string {
	switch s {
	case ClockRunning:
		return "running"
	case ClockPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// ProjectTime derives the full GameTime from scaled elapsed milliseconds.
// Day/hour/minute are never tracked independently; this projection is the
// single source of truth for them.
func ProjectTime(elapsedMs float64) events.GameTime {
	totalMinutes := int(math.Floor(elapsedMs / msPerGameMinute))
	return events.GameTime{
		ElapsedMs: elapsedMs,
		Day:       totalMinutes/(24*60) + 1,
		Hour:      (totalMinutes / 60) % 24,
		Minute:    totalMinutes % 60,
	}
}

// Clock advances the simulated timeline. Each frame the real-time delta is
// scaled by the speed multiplier and accumulated; crossing notifications are
// published before the tick itself (hour-changed, then day-changed, then
// tick). Pause and resume never produce a time jump: resuming recaptures the
// real-time reference.
type Clock struct {
	mu    sync.Mutex
	bus   *events.Bus
	log   *logger.Logger
	state ClockState

	elapsedMs float64
	speed     float64
	lastFrame time.Time

	frameInterval time.Duration
}

// NewClock creates a stopped clock at day 1, 00:00.
func NewClock(bus *events.Bus, log *logger.Logger, frameInterval time.Duration, speed float64) *Clock {
	if speed <= 0 {
		speed = 1
	}
	if frameInterval <= 0 {
		frameInterval = 50 * time.Millisecond
	}
	return &Clock{
		bus:           bus,
		log:           log,
		state:         ClockStopped,
		speed:         speed,
		frameInterval: frameInterval,
	}
}

// State returns the current lifecycle state.
func (c *Clock) State() ClockState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Time returns the current GameTime.
func (c *Clock) Time() events.GameTime {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ProjectTime(c.elapsedMs)
}

// Speed returns the current speed multiplier.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// Start begins (or resumes) advancement. Starting a running clock is a
// no-op, never an error.
func (c *Clock) Start() {
	c.mu.Lock()
	if c.state == ClockRunning {
		c.mu.Unlock()
		return
	}
	c.state = ClockRunning
	c.lastFrame = time.Now()
	t := ProjectTime(c.elapsedMs)
	c.mu.Unlock()

	c.log.Info("clock running", zap.Float64("speed", c.Speed()))
	c.bus.Publish(events.TopicClockResumed, events.ClockStatePayload{Time: t})
}

// Pause suspends advancement. The current frame's fan-out has already
// completed by the time Pause returns; only the scheduling of future frames
// is cancelled. Pausing a non-running clock is a no-op.
func (c *Clock) Pause() {
	c.mu.Lock()
	if c.state != ClockRunning {
		c.mu.Unlock()
		return
	}
	c.state = ClockPaused
	t := ProjectTime(c.elapsedMs)
	c.mu.Unlock()

	c.bus.Publish(events.TopicClockPaused, events.ClockStatePayload{Time: t})
}

// Resume continues after a pause, recapturing the real-time reference so
// the paused wall-clock duration contributes nothing to simulated time.
func (c *Clock) Resume() {
	c.mu.Lock()
	if c.state != ClockPaused {
		c.mu.Unlock()
		return
	}
	c.state = ClockRunning
	c.lastFrame = time.Now()
	t := ProjectTime(c.elapsedMs)
	c.mu.Unlock()

	c.bus.Publish(events.TopicClockResumed, events.ClockStatePayload{Time: t})
}

// Stop halts the clock entirely and publishes a stopped notification.
func (c *Clock) Stop() {
	c.mu.Lock()
	if c.state == ClockStopped {
		c.mu.Unlock()
		return
	}
	c.state = ClockStopped
	t := ProjectTime(c.elapsedMs)
	c.mu.Unlock()

	c.bus.Publish(events.TopicClockStopped, events.ClockStatePayload{Time: t})
}

// SetSpeedMultiplier changes the multiplier used by the next frame's delta
// computation. Non-positive values are rejected; an unchanged value is a
// no-op and publishes nothing.
func (c *Clock) SetSpeedMultiplier(speed float64) {
	if speed <= 0 {
		c.log.Warn("ignoring non-positive speed multiplier", zap.Float64("speed", speed))
		return
	}
	c.mu.Lock()
	if speed == c.speed {
		c.mu.Unlock()
		return
	}
	previous := c.speed
	c.speed = speed
	c.mu.Unlock()

	c.bus.Publish(events.TopicSpeedChanged, events.SpeedChangedPayload{Previous: previous, New: speed})
}

// RestoreTime overwrites the timeline wholesale from a save. This is NOT a
// tick: no hour/day-changed notifications fire, because those detect
// crossings, not absolute values. Day/hour/minute are re-derived from the
// restored elapsed milliseconds.
func (c *Clock) RestoreTime(t events.GameTime) {
	c.mu.Lock()
	if t.ElapsedMs < 0 {
		t.ElapsedMs = 0
	}
	c.elapsedMs = t.ElapsedMs
	restored := ProjectTime(c.elapsedMs)
	c.lastFrame = time.Now()
	c.mu.Unlock()

	c.bus.Publish(events.TopicTimeRestored, events.TimeRestoredPayload{Time: restored})
}

// Advance moves the simulation forward by a real-time delta. While not
// running it is a no-op. Crossing notifications are published outside the
// clock's lock so handlers can freely query the clock.
func (c *Clock) Advance(realDelta time.Duration) {
	if realDelta <= 0 {
		return
	}

	c.mu.Lock()
	if c.state != ClockRunning {
		c.mu.Unlock()
		return
	}
	simDeltaMs := realDelta.Seconds() * 1000 * c.speed
	prev := ProjectTime(c.elapsedMs)
	c.elapsedMs += simDeltaMs
	cur := ProjectTime(c.elapsedMs)
	c.mu.Unlock()

	// Hour always changes when day changes; publishing hour-changed first
	// preserves the containment ordering even across multi-day jumps.
	if cur.Hour != prev.Hour || cur.Day != prev.Day {
		c.bus.Publish(events.TopicHourChanged, events.HourChangedPayload{Time: cur, PreviousHour: prev.Hour})
	}
	if cur.Day != prev.Day {
		c.bus.Publish(events.TopicDayChanged, events.DayChangedPayload{Time: cur, PreviousDay: prev.Day})
	}
	c.bus.Publish(events.TopicTick, events.TickPayload{DeltaMs: simDeltaMs, Time: cur})
}

// Run drives frames from a real-time ticker until the context is cancelled.
// Frames while paused or stopped cost nothing; the reference time is
// recaptured on resume.
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("clock loop stopped by context")
			return
		case now := <-ticker.C:
			c.mu.Lock()
			if c.state != ClockRunning {
				c.mu.Unlock()
				continue
			}
			dt := now.Sub(c.lastFrame)
			c.lastFrame = now
			c.mu.Unlock()
			start := time.Now()
			c.Advance(dt)
			metrics.Get().RecordFrame(time.Since(start))
		}
	}
}
