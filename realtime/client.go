package realtime

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// SnapshotFunc produces the initial_data payload for a topic, sent to a
// client right after it subscribes.
type SnapshotFunc func(topic string) ([]byte, error)

type inboundMessage struct {
	Type string `json:"type"`
	// TournamentID is a tournament id (number or numeric string) or "global".
	TournamentID interface{} `json:"tournament_id"`
}

// Client is one registered websocket connection.
type Client struct {
	ID       uuid.UUID
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	topic    string
	snapshot SnapshotFunc
	logger   *slog.Logger
}

// NewClient wraps an upgraded connection. The client starts subscribed to the
// global topic; snapshot may be nil if initial_data is not wanted.
func NewClient(hub *Hub, conn *websocket.Conn, snapshot SnapshotFunc, logger *slog.Logger) *Client {
	return &Client{
		ID:       uuid.New(),
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 32),
		topic:    TopicGlobal,
		snapshot: snapshot,
		logger:   logger,
	}
}

// Send queues a message for the client, dropping it if the buffer is full.
func (c *Client) Send(data []byte) {
	c.trySend(data)
}

func (c *Client) closeSend() {
	close(c.send)
}

func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
		// Slow consumer; drop the message instead of stalling the hub.
		c.logger.Warn("realtime client send buffer full, dropping message",
			slog.String("client_id", c.ID.String()))
	}
}

// ReadPump consumes inbound frames until the connection dies, handling
// subscribe requests. Runs as a goroutine per connection.
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
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("realtime read error",
					slog.String("client_id", c.ID.String()),
					slog.Any("error", err))
			}
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == "subscribe" {
			c.handleSubscribe(msg.TournamentID)
		}
	}
}

func (c *Client) handleSubscribe(target interface{}) {
	topic := TopicGlobal
	switch v := target.(type) {
	case float64:
		if v > 0 && v == float64(int(v)) {
			topic = strconv.Itoa(int(v))
		}
	case string:
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			topic = strconv.Itoa(id)
		}
	}
	c.hub.subscribe <- subscription{clientID: c.ID, topic: topic}
	if c.snapshot == nil {
		return
	}
	data, err := c.snapshot(topic)
	if err != nil {
		c.logger.Error("failed to build initial data",
			slog.String("topic", topic),
			slog.Any("error", err))
		return
	}
	c.trySend(data)
}

// WritePump flushes the send buffer to the connection and keeps it alive with
// pings. Runs as a goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
