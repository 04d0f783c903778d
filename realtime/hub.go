package realtime

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/dufire/tournament-backend/models"
	"github.com/google/uuid"
)

// TopicGlobal is the subscription topic for viewers of the global leaderboard.
// Tournament topics are the decimal tournament id.
const TopicGlobal = "global"

// Message is the wire envelope for every event pushed to subscribers.
type Message struct {
	Type         string      `json:"type"`
	TournamentID string      `json:"tournament_id,omitempty"`
	UserID       int         `json:"user_id,omitempty"`
	Username     string      `json:"username,omitempty"`
	Score        int64       `json:"score,omitempty"`
	Tournament   interface{} `json:"tournament,omitempty"`
	Payload      interface{} `json:"payload,omitempty"`
	Timestamp    string      `json:"timestamp,omitempty"`
}

type subscription struct {
	clientID uuid.UUID
	topic    string
}

type outbound struct {
	// topic is empty for messages addressed to every connection.
	topic         string
	includeGlobal bool
	data          []byte
}

// Hub is the connection registry for realtime viewers. Connections are keyed
// by a uuid handle assigned at registration; the subscription topic is an
// attribute of the connection, changed by subscribe messages and discarded
// with the registration on disconnect. All registry mutation happens on the
// Run goroutine, fed by the channels below.
type Hub struct {
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	broadcast   chan outbound
	connections map[uuid.UUID]*Client
	logger      *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		broadcast:   make(chan outbound, 64),
		connections: make(map[uuid.UUID]*Client),
		logger:      logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.connections[client.ID] = client
			h.logger.Info("realtime client registered",
				slog.String("client_id", client.ID.String()),
				slog.Int("connections", len(h.connections)))

		case client := <-h.unregister:
			if _, ok := h.connections[client.ID]; ok {
				delete(h.connections, client.ID)
				client.closeSend()
				h.logger.Info("realtime client unregistered",
					slog.String("client_id", client.ID.String()),
					slog.Int("connections", len(h.connections)))
			}

		case sub := <-h.subscribe:
			if client, ok := h.connections[sub.clientID]; ok {
				client.topic = sub.topic
				h.logger.Info("realtime client subscribed",
					slog.String("client_id", sub.clientID.String()),
					slog.String("topic", sub.topic))
			}

		case msg := <-h.broadcast:
			for _, client := range h.connections {
				if msg.topic != "" {
					if client.topic != msg.topic && !(msg.includeGlobal && client.topic == TopicGlobal) {
						continue
					}
				}
				client.trySend(msg.data)
			}
		}
	}
}

// Register attaches a connection to the registry and returns once the hub has
// accepted it.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// BroadcastScoreUpdate pushes a score event to subscribers of the score's
// board and, for tournament scores, to global subscribers as well. Satisfies
// services.Broadcaster; a full hub queue drops the event rather than blocking
// the write path.
func (h *Hub) BroadcastScoreUpdate(tournamentID *int, userID int, username string, score int64) {
	topic := TopicGlobal
	if tournamentID != nil {
		topic = strconv.Itoa(*tournamentID)
	}
	msg := Message{
		Type:      "score_update",
		UserID:    userID,
		Username:  username,
		Score:     score,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if tournamentID != nil {
		msg.TournamentID = topic
	}
	h.publish(outbound{topic: topic, includeGlobal: true}, msg)
}

// BroadcastTournamentUpdate pushes a tournament change to every connection.
func (h *Hub) BroadcastTournamentUpdate(tournament *models.Tournament) {
	msg := Message{
		Type:       "tournament_update",
		Tournament: tournament,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	h.publish(outbound{}, msg)
}

func (h *Hub) publish(out outbound, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal realtime message", slog.Any("error", err))
		return
	}
	out.data = data
	select {
	case h.broadcast <- out:
	default:
		h.logger.Warn("realtime broadcast queue full, dropping message",
			slog.String("type", msg.Type))
	}
}
