package network

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Command is an incoming operator action from the browser.
type Command struct {
	Type  string  `json:"type"`            // "PAUSE", "RESUME", "SET_SPEED", "SAVE", "LOAD", "RESET"
	Speed float64 `json:"speed,omitempty"` // SET_SPEED only
	Slot  string  `json:"slot,omitempty"`  // SAVE/LOAD only
}

// Client is one active WebSocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

// NewClient creates a client with a per-connection command rate limiter.
func NewClient(hub *Hub, conn *websocket.Conn, sendBuffer int, cmdInterval time.Duration, cmdBurst int) *Client {
	if cmdInterval <= 0 {
		cmdInterval = 500 * time.Millisecond
	}
	if cmdBurst < 1 {
		cmdBurst = 1
	}
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(rate.Every(cmdInterval), cmdBurst),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps commands from the websocket connection into the engine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.Error(err))
			}
			break
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Warn("failed to parse client command", zap.Error(err))
			continue
		}

		if !c.limiter.Allow() {
			c.hub.logger.Warn("client command rate limit exceeded", zap.String("type", cmd.Type))
			continue
		}

		c.handleCommand(cmd)
	}
}

func (c *Client) handleCommand(cmd Command) {
	ctrl := c.hub.control
	if ctrl == nil {
		return
	}
	switch cmd.Type {
	case "PAUSE":
		ctrl.Pause()
	case "RESUME":
		ctrl.Resume()
	case "SET_SPEED":
		ctrl.SetSpeedMultiplier(c.hub.snapSpeed(cmd.Speed))
	case "SAVE":
		ctrl.Save(context.Background(), slotOrDefault(cmd.Slot))
	case "LOAD":
		ctrl.Load(context.Background(), slotOrDefault(cmd.Slot))
	case "RESET":
		ctrl.ResetScenario()
	default:
		c.hub.logger.Warn("unknown client command", zap.String("type", cmd.Type))
	}
}

func slotOrDefault(slot string) string {
	if slot == "" {
		return "quicksave"
	}
	return slot
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
