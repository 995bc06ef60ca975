package engine

import (
	"testing"
	"time"

	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

func newTestClock(speed float64) (*Clock, *events.Bus) {
	bus := events.NewBus(logger.NewNop())
	clock := NewClock(bus, logger.NewNop(), 50*time.Millisecond, speed)
	return clock, bus
}

func TestProjectTime(t *testing.T) {
	cases := []struct {
		elapsedMs float64
		day       int
		hour      int
		minute    int
	}{
		{0, 1, 0, 0},
		{msPerGameMinute, 1, 0, 1},
		{msPerGameHour, 1, 1, 0},
		{msPerGameDay, 2, 0, 0},
		{msPerGameDay + 90*msPerGameMinute, 2, 1, 30},
		{3*msPerGameDay - msPerGameMinute, 3, 23, 59},
	}
	for _, c := range cases {
		got := ProjectTime(c.elapsedMs)
		if got.Day != c.day || got.Hour != c.hour || got.Minute != c.minute {
			t.Errorf("ProjectTime(%g) = day %d %02d:%02d, want day %d %02d:%02d",
				c.elapsedMs, got.Day, got.Hour, got.Minute, c.day, c.hour, c.minute)
		}
	}
}

func TestAdvanceScalesBySpeed(t *testing.T) {
	clock, _ := newTestClock(60)
	clock.Start()

	// 1 real second at 60x = 60 game minutes = 1 game hour.
	clock.Advance(time.Second)

	got := clock.Time()
	if got.Hour != 1 || got.Minute != 0 {
		t.Errorf("Expected 01:00 after 1s at 60x, got %02d:%02d", got.Hour, got.Minute)
	}
}

func TestAdvanceWhilePausedIsNoOp(t *testing.T) {
	clock, _ := newTestClock(1)
	clock.Start()
	clock.Pause()

	clock.Advance(time.Second)

	if clock.Time().ElapsedMs != 0 {
		t.Errorf("Expected no progress while paused, got %g ms", clock.Time().ElapsedMs)
	}
}

func TestHourAndDayCrossingOrder(t *testing.T) {
	clock, bus := newTestClock(1)

	var fired []events.Topic
	bus.Subscribe(events.TopicHourChanged, func(any) { fired = append(fired, events.TopicHourChanged) })
	bus.Subscribe(events.TopicDayChanged, func(any) { fired = append(fired, events.TopicDayChanged) })
	bus.Subscribe(events.TopicTick, func(any) { fired = append(fired, events.TopicTick) })

	clock.Start()
	fired = nil // drop the resume notification side effects

	// Jump a full day in one frame.
	clock.Advance(time.Duration(msPerGameDay) * time.Millisecond)

	want := []events.Topic{events.TopicHourChanged, events.TopicDayChanged, events.TopicTick}
	if len(fired) != len(want) {
		t.Fatalf("Expected %d notifications, got %v", len(want), fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("Notification order wrong: got %v, want %v", fired, want)
		}
	}
}

func TestDayJumpWithSameHourStillFiresHourChanged(t *testing.T) {
	clock, bus := newTestClock(1)

	hourFired := false
	bus.Subscribe(events.TopicHourChanged, func(any) { hourFired = true })

	clock.Start()
	// Exactly 24 hours: the hour value is identical but a day was crossed.
	clock.Advance(time.Duration(msPerGameDay) * time.Millisecond)

	if !hourFired {
		t.Error("Expected hour-changed on a 24h jump even though the hour value repeats")
	}
}

func TestSetSpeedMultiplier(t *testing.T) {
	clock, bus := newTestClock(1)

	var changes []events.SpeedChangedPayload
	bus.Subscribe(events.TopicSpeedChanged, func(p any) {
		changes = append(changes, p.(events.SpeedChangedPayload))
	})

	clock.SetSpeedMultiplier(60)
	clock.SetSpeedMultiplier(60) // unchanged, must not publish
	clock.SetSpeedMultiplier(-5) // rejected
	clock.SetSpeedMultiplier(0)  // rejected

	if clock.Speed() != 60 {
		t.Errorf("Expected speed 60, got %g", clock.Speed())
	}
	if len(changes) != 1 {
		t.Fatalf("Expected exactly one speed-changed notification, got %d", len(changes))
	}
	if changes[0].Previous != 1 || changes[0].New != 60 {
		t.Errorf("Wrong change payload: %+v", changes[0])
	}
}

func TestPauseResumeDoesNotJumpTime(t *testing.T) {
	clock, _ := newTestClock(1000)
	clock.Start()
	clock.Advance(100 * time.Millisecond)
	before := clock.Time().ElapsedMs

	clock.Pause()
	clock.Advance(10 * time.Second) // real time passing while paused
	clock.Resume()

	if clock.Time().ElapsedMs != before {
		t.Errorf("Resume jumped the clock: %g -> %g", before, clock.Time().ElapsedMs)
	}
}

func TestRestoreTimeFiresOnlyTimeRestored(t *testing.T) {
	clock, bus := newTestClock(1)

	var fired []events.Topic
	for _, topic := range []events.Topic{
		events.TopicTick, events.TopicHourChanged, events.TopicDayChanged, events.TopicTimeRestored,
	} {
		tp := topic
		bus.Subscribe(tp, func(any) { fired = append(fired, tp) })
	}

	clock.RestoreTime(events.GameTime{ElapsedMs: 2 * msPerGameDay})

	if len(fired) != 1 || fired[0] != events.TopicTimeRestored {
		t.Errorf("Expected only time-restored, got %v", fired)
	}
	if clock.Time().Day != 3 {
		t.Errorf("Expected restored day 3, got %d", clock.Time().Day)
	}
}

func TestRestoreTimeClampsNegative(t *testing.T) {
	clock, _ := newTestClock(1)
	clock.RestoreTime(events.GameTime{ElapsedMs: -500})

	if clock.Time().ElapsedMs != 0 || clock.Time().Day != 1 {
		t.Errorf("Expected clamp to day 1 00:00, got %+v", clock.Time())
	}
}
