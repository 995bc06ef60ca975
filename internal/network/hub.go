// Package network exposes the diorama to browsers: a WebSocket fan-out of
// simulation notifications plus a small JSON API for replay and state.
package network

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/metrics"
)

// Control is the operator surface clients drive. Implemented by engine.Engine.
type Control interface {
	Pause()
	Resume()
	SetSpeedMultiplier(speed float64)
	Save(ctx context.Context, slot string) bool
	Load(ctx context.Context, slot string) bool
	ResetScenario()
}

// Envelope is the wire frame for every pushed notification.
type Envelope struct {
	Topic   events.Topic `json:"topic"`
	At      time.Time    `json:"at"`
	Payload any          `json:"payload"`
}

// broadcastTopics is everything the renderer cares about. Raw ticks are
// throttled separately; the rest passes through at full rate.
var broadcastTopics = []events.Topic{
	events.TopicHourChanged,
	events.TopicDayChanged,
	events.TopicSpeedChanged,
	events.TopicClockPaused,
	events.TopicClockResumed,
	events.TopicTimeRestored,
	events.TopicScenarioLoaded,
	events.TopicEventTriggered,
	events.TopicScenarioComplete,
	events.TopicLocationUpdated,
	events.TopicNationUpdated,
	events.TopicWeaponEffect,
	events.TopicFeedEntry,
	events.TopicPhaseChanged,
	events.TopicResourcesChanged,
	events.TopicSessionSaved,
	events.TopicSessionLoaded,
}

// Hub maintains the set of active clients and broadcasts envelopes to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *logger.Logger
	control    Control
	journal    *events.Journal

	sendBuffer   int
	catchUp      int
	speedPresets []float64
	tickInterval time.Duration
	lastTick     time.Time
	tickMu       sync.Mutex
}

// NewHub initializes a WebSocket hub. journal may be nil to disable the
// catch-up replay sent to new clients. speedPresets is the set of time
// multipliers clients may request; SET_SPEED commands are snapped to the
// nearest preset, or passed through unchanged when the list is empty.
func NewHub(log *logger.Logger, control Control, journal *events.Journal, sendBuffer, catchUp int, tickInterval time.Duration, speedPresets []float64) *Hub {
	if sendBuffer < 1 {
		sendBuffer = 256
	}
	return &Hub{
		broadcast:    make(chan []byte, 64),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		clients:      make(map[*Client]bool),
		logger:       log,
		control:      control,
		journal:      journal,
		sendBuffer:   sendBuffer,
		catchUp:      catchUp,
		speedPresets: speedPresets,
		tickInterval: tickInterval,
	}
}

// snapSpeed resolves a client-requested multiplier to the nearest configured
// preset. The UI offers the presets as buttons, but the command is free-form
// JSON, so the hub is where arbitrary values get pinned down.
func (h *Hub) snapSpeed(speed float64) float64 {
	if len(h.speedPresets) == 0 {
		return speed
	}
	best := h.speedPresets[0]
	for _, p := range h.speedPresets[1:] {
		if math.Abs(p-speed) < math.Abs(best-speed) {
			best = p
		}
	}
	return best
}

// WireTo subscribes the hub to every broadcast topic. Ticks are throttled to
// the configured interval so a 50ms frame loop does not flood slow clients.
func (h *Hub) WireTo(bus *events.Bus) {
	for _, topic := range broadcastTopics {
		t := topic
		bus.Subscribe(t, func(payload any) {
			h.Broadcast(t, payload)
		})
	}
	bus.Subscribe(events.TopicTick, h.onTick)
}

func (h *Hub) onTick(payload any) {
	h.tickMu.Lock()
	if time.Since(h.lastTick) < h.tickInterval {
		h.tickMu.Unlock()
		return
	}
	h.lastTick = time.Now()
	h.tickMu.Unlock()
	h.Broadcast(events.TopicTick, payload)
}

// Broadcast serializes one envelope and queues it for every client. A full
// hub queue drops the frame rather than blocking the simulation.
func (h *Hub) Broadcast(topic events.Topic, payload any) {
	body, err := json.Marshal(Envelope{Topic: topic, At: time.Now(), Payload: payload})
	if err != nil {
		h.logger.Error("failed to serialize envelope for broadcast",
			zap.String("topic", string(topic)),
			zap.Error(err),
		)
		return
	}
	select {
	case h.broadcast <- body:
	default:
		h.logger.Warn("broadcast queue full, frame dropped", zap.String("topic", string(topic)))
	}
}

// Run starts the hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("WebSocket client connected")
			h.sendCatchUp(client)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.Get().RecordWSMessage()
				default:
					close(client.send)
					delete(h.clients, client)
					metrics.Get().RecordWSConnection(-1)
				}
			}
			h.mu.Unlock()
		}
	}
}

// sendCatchUp replays the tail of the journal to a freshly connected client
// so it can draw the recent narrative instead of a blank globe.
func (h *Hub) sendCatchUp(client *Client) {
	if h.journal == nil || h.catchUp < 1 {
		return
	}
	for _, entry := range h.journal.Tail(h.catchUp) {
		body, err := json.Marshal(Envelope{Topic: entry.Topic, At: entry.At, Payload: entry.Payload})
		if err != nil {
			continue
		}
		select {
		case client.send <- body:
		default:
			return
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The diorama is served same-origin in production; local dev uses
	// a file:// page, so origins are not enforced here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request and attaches the client to the hub.
func (h *Hub) ServeWS(cmdInterval time.Duration, cmdBurst int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}
		client := NewClient(h, conn, h.sendBuffer, cmdInterval, cmdBurst)
		client.Register()
		go client.WritePump()
		go client.ReadPump()
	}
}
