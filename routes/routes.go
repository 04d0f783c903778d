package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/dufire/tournament-backend/handlers"
	"github.com/dufire/tournament-backend/middleware"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Tournament *handlers.TournamentHandler
	Score      *handlers.ScoreHandler
	Payment    *handlers.PaymentHandler
	Prize      *handlers.PrizeHandler
	WebSocket  *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	// Legacy game-client protocol: form-encoded requests, plain-text replies.
	router.Post("/api/auth/login", h.Auth.LegacyLogin)
	router.Post("/api/scores/submit", h.Score.LegacySubmit)
	router.Get("/api/scores/global", h.Score.LegacyGlobalLeaderboard)
	router.Get("/api/scores/tournament/{tournamentID}", h.Score.LegacyTournamentLeaderboard)
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/api/user/current-tournament", h.User.LegacyCurrentTournament)
	})

	router.Get("/leaderboard/global", h.Score.GlobalLeaderboard)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.List)
		r.Get("/{tournamentID}", h.Tournament.Get)
		r.Get("/{tournamentID}/leaderboard", h.Tournament.Leaderboard)
		r.Get("/{tournamentID}/prizes", h.Tournament.ListPrizes)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{tournamentID}/join", h.Payment.Join)
		})
	})

	router.Route("/users/me", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", h.User.Me)
		r.Put("/", h.User.UpdateMe)
		r.Post("/avatar", h.User.UploadAvatar)
		r.Get("/current-tournament", h.User.CurrentTournament)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/users", h.User.AdminList)
		r.Put("/users/{userID}", h.User.AdminUpdate)
		r.Delete("/users/{userID}", h.User.AdminDelete)

		r.Post("/tournaments", h.Tournament.Create)
		r.Put("/tournaments/{tournamentID}/status", h.Tournament.UpdateStatus)
		r.Post("/tournaments/{tournamentID}/banner", h.Tournament.UploadBanner)
		r.Delete("/tournaments/{tournamentID}", h.Tournament.Delete)
		r.Post("/tournaments/{tournamentID}/pool-corrections", h.Tournament.ApplyPoolCorrection)
		r.Get("/tournaments/{tournamentID}/pool-ledger", h.Tournament.PoolLedger)
		r.Post("/tournaments/{tournamentID}/distribute", h.Prize.Distribute)

		r.Get("/payments", h.Payment.AdminList)
		r.Put("/payments/{paymentID}/verify", h.Payment.Verify)
	})

	router.Get("/ws", h.WebSocket.Serve)

	return router
}
