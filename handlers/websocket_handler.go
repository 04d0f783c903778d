package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/dufire/tournament-backend/models"
	"github.com/dufire/tournament-backend/realtime"
	"github.com/dufire/tournament-backend/repositories"
	"github.com/dufire/tournament-backend/services"
)

const snapshotTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub               *realtime.Hub
	scoreService      services.ScoreService
	tournamentService services.TournamentService
	logger            *slog.Logger
}

func NewWebSocketHandler(
	hub *realtime.Hub,
	scoreService services.ScoreService,
	tournamentService services.TournamentService,
	logger *slog.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:               hub,
		scoreService:      scoreService,
		tournamentService: tournamentService,
		logger:            logger,
	}
}

// Serve upgrades the request and registers the connection with the hub. The
// client starts on the global topic and receives initial_data right away.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, h.snapshot, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	if data, err := h.snapshot(realtime.TopicGlobal); err != nil {
		h.logger.Error("failed to build initial data", slog.Any("error", err))
	} else {
		client.Send(data)
	}
}

// snapshot builds the initial_data payload for a topic, fanning the reads out
// concurrently.
func (h *WebSocketHandler) snapshot(topic string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	if topic != realtime.TopicGlobal {
		tournamentID, err := strconv.Atoi(topic)
		if err != nil {
			return nil, err
		}
		return h.tournamentSnapshot(ctx, tournamentID)
	}

	var (
		globalTop   []models.LeaderboardEntry
		tournaments []models.Tournament
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		globalTop, err = h.scoreService.GlobalTop(gctx)
		return err
	})
	g.Go(func() error {
		active := models.StatusActive
		var err error
		tournaments, err = h.tournamentService.List(gctx, repositories.ListTournamentsFilter{Status: &active})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	leaderboards := make([]json.RawMessage, len(tournaments))
	g, gctx = errgroup.WithContext(ctx)
	for i := range tournaments {
		i := i
		g.Go(func() error {
			entries, err := h.scoreService.TournamentTop(gctx, tournaments[i].ID)
			if err != nil {
				return err
			}
			payload, err := json.Marshal(map[string]interface{}{
				"tournament_id": tournaments[i].ID,
				"leaderboard":   entries,
			})
			if err != nil {
				return err
			}
			leaderboards[i] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return json.Marshal(realtime.Message{
		Type: "initial_data",
		Payload: map[string]interface{}{
			"global_leaderboard": globalTop,
			"tournaments":        tournaments,
			"leaderboards":       leaderboards,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *WebSocketHandler) tournamentSnapshot(ctx context.Context, tournamentID int) ([]byte, error) {
	var (
		tournament *models.Tournament
		entries    []models.LeaderboardEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = h.tournamentService.GetByID(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = h.scoreService.TournamentTop(gctx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return json.Marshal(realtime.Message{
		Type:         "initial_data",
		TournamentID: strconv.Itoa(tournamentID),
		Payload: map[string]interface{}{
			"tournament":  tournament,
			"leaderboard": entries,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
