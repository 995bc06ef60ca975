// Package metrics provides observability for the diorama server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MRamiBalles/CieloRoto/server/internal/events"
)

// Collector gathers performance counters.
type Collector struct {
	// Frame metrics
	FrameCount      int64
	FrameLatencySum int64 // nanoseconds
	FrameLatencyMax int64
	LastFrameTime   time.Time

	// Simulation metrics
	EventsTriggered int64
	StrikesRendered int64
	FeedEntries     int64
	SavesOK         int64
	SaveFailures    int64
	LoadsOK         int64
	LoadFailures    int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesOut       int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// WireTo subscribes the collector to the simulation topics it counts. Frame
// latency is recorded by the caller around Advance; everything else comes
// off the bus.
func (c *Collector) WireTo(bus *events.Bus) {
	bus.Subscribe(events.TopicEventTriggered, func(any) {
		atomic.AddInt64(&c.EventsTriggered, 1)
	})
	bus.Subscribe(events.TopicWeaponEffect, func(any) {
		atomic.AddInt64(&c.StrikesRendered, 1)
	})
	bus.Subscribe(events.TopicFeedEntry, func(any) {
		atomic.AddInt64(&c.FeedEntries, 1)
	})
	bus.Subscribe(events.TopicSessionSaved, func(payload any) {
		if p, ok := payload.(events.SessionSavedPayload); ok && p.OK {
			atomic.AddInt64(&c.SavesOK, 1)
		} else {
			atomic.AddInt64(&c.SaveFailures, 1)
		}
	})
	bus.Subscribe(events.TopicSessionLoaded, func(payload any) {
		if p, ok := payload.(events.SessionLoadedPayload); ok && p.OK {
			atomic.AddInt64(&c.LoadsOK, 1)
		} else {
			atomic.AddInt64(&c.LoadFailures, 1)
		}
	})
}

// RecordFrame records one frame cycle completion.
func (c *Collector) RecordFrame(latency time.Duration) {
	atomic.AddInt64(&c.FrameCount, 1)
	atomic.AddInt64(&c.FrameLatencySum, int64(latency))

	// Update max (non-atomic race is acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.FrameLatencyMax) {
		atomic.StoreInt64(&c.FrameLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastFrameTime = time.Now()
	c.mu.Unlock()
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records an outbound WebSocket message.
func (c *Collector) RecordWSMessage() {
	atomic.AddInt64(&c.WSMessagesOut, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	frameCount := atomic.LoadInt64(&c.FrameCount)
	var frameAvg float64
	if frameCount > 0 {
		frameAvg = float64(atomic.LoadInt64(&c.FrameLatencySum)) / float64(frameCount) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"frames": map[string]interface{}{
			"count":          frameCount,
			"avg_latency_ms": frameAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.FrameLatencyMax)) / 1e6,
			"last_frame":     c.LastFrameTime.Format(time.RFC3339),
		},

		"simulation": map[string]interface{}{
			"events_triggered": atomic.LoadInt64(&c.EventsTriggered),
			"strikes_rendered": atomic.LoadInt64(&c.StrikesRendered),
			"feed_entries":     atomic.LoadInt64(&c.FeedEntries),
			"saves_ok":         atomic.LoadInt64(&c.SavesOK),
			"save_failures":    atomic.LoadInt64(&c.SaveFailures),
			"loads_ok":         atomic.LoadInt64(&c.LoadsOK),
			"load_failures":    atomic.LoadInt64(&c.LoadFailures),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(collector.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP cieloroto_frame_count Total simulation frames\n")
		fmt.Fprintf(w, "# TYPE cieloroto_frame_count counter\n")
		fmt.Fprintf(w, "cieloroto_frame_count %d\n\n", atomic.LoadInt64(&c.FrameCount))

		fmt.Fprintf(w, "# HELP cieloroto_frame_latency_max_ms Maximum frame latency\n")
		fmt.Fprintf(w, "# TYPE cieloroto_frame_latency_max_ms gauge\n")
		fmt.Fprintf(w, "cieloroto_frame_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.FrameLatencyMax))/1e6)

		fmt.Fprintf(w, "# HELP cieloroto_events_triggered Total scenario events triggered\n")
		fmt.Fprintf(w, "# TYPE cieloroto_events_triggered counter\n")
		fmt.Fprintf(w, "cieloroto_events_triggered %d\n\n", atomic.LoadInt64(&c.EventsTriggered))

		fmt.Fprintf(w, "# HELP cieloroto_strikes_rendered Total weapon effects published\n")
		fmt.Fprintf(w, "# TYPE cieloroto_strikes_rendered counter\n")
		fmt.Fprintf(w, "cieloroto_strikes_rendered %d\n\n", atomic.LoadInt64(&c.StrikesRendered))

		fmt.Fprintf(w, "# HELP cieloroto_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE cieloroto_ws_connections gauge\n")
		fmt.Fprintf(w, "cieloroto_ws_connections %d\n", atomic.LoadInt64(&c.WSConnectionsActive))
	}
}
