package network

import (
	"context"
	"testing"
	"time"

	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

type fakeControl struct {
	speeds []float64
	paused bool
}

func (f *fakeControl) Pause()                            { f.paused = true }
func (f *fakeControl) Resume()                           { f.paused = false }
func (f *fakeControl) SetSpeedMultiplier(speed float64)  { f.speeds = append(f.speeds, speed) }
func (f *fakeControl) Save(context.Context, string) bool { return true }
func (f *fakeControl) Load(context.Context, string) bool { return true }
func (f *fakeControl) ResetScenario()                    {}

func newTestHub(ctrl Control, presets []float64) *Hub {
	return NewHub(logger.NewNop(), ctrl, nil, 16, 0, time.Second, presets)
}

func TestSetSpeedSnapsToNearestPreset(t *testing.T) {
	ctrl := &fakeControl{}
	hub := newTestHub(ctrl, []float64{1, 10, 60, 360, 1000})
	client := &Client{hub: hub}

	cases := []struct {
		requested float64
		want      float64
	}{
		{1, 1},
		{55, 60},
		{9999, 1000},
		{0.01, 1},
		{250, 360},
	}
	for _, tc := range cases {
		client.handleCommand(Command{Type: "SET_SPEED", Speed: tc.requested})
	}

	if len(ctrl.speeds) != len(cases) {
		t.Fatalf("Expected %d speed commands, got %d", len(cases), len(ctrl.speeds))
	}
	for i, tc := range cases {
		if ctrl.speeds[i] != tc.want {
			t.Errorf("Requested %g: expected snap to %g, got %g", tc.requested, tc.want, ctrl.speeds[i])
		}
	}
}

func TestSetSpeedWithoutPresetsPassesThrough(t *testing.T) {
	ctrl := &fakeControl{}
	hub := newTestHub(ctrl, nil)
	client := &Client{hub: hub}

	client.handleCommand(Command{Type: "SET_SPEED", Speed: 42.5})

	if len(ctrl.speeds) != 1 || ctrl.speeds[0] != 42.5 {
		t.Errorf("Expected pass-through of 42.5, got %v", ctrl.speeds)
	}
}

func TestPauseAndResumeCommands(t *testing.T) {
	ctrl := &fakeControl{}
	hub := newTestHub(ctrl, nil)
	client := &Client{hub: hub}

	client.handleCommand(Command{Type: "PAUSE"})
	if !ctrl.paused {
		t.Error("Expected PAUSE to reach the control surface")
	}
	client.handleCommand(Command{Type: "RESUME"})
	if ctrl.paused {
		t.Error("Expected RESUME to reach the control surface")
	}
}
