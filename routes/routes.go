package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/debate-tab/handlers"
	"github.com/Dosada05/debate-tab/middleware"
	"github.com/Dosada05/debate-tab/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router chi.Router,
	jwtSecret string,
	allowedOrigins []string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	roundHandler *handlers.RoundHandler,
	pairingHandler *handlers.PairingHandler,
	userHandler *handlers.UserHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.Authorize(models.RoleAdmin)
	staff := middleware.Authorize(models.RoleAdmin, models.RoleOrganizer)

	// WebSocket живёт дольше таймаута остальных запросов.
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.With(authenticate, adminOnly).Post("/register", authHandler.Register)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", userHandler.GetMe)
			r.With(adminOnly).Get("/{userID}", userHandler.GetUserByID)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.With(authenticate, adminOnly).Post("/", tournamentHandler.CreateHandler)

			r.Route("/{tournamentID}", func(r chi.Router) {
				// Публичные маршруты
				r.Get("/", tournamentHandler.GetByIDHandler)
				r.Get("/standings", tournamentHandler.StandingsHandler)
				r.Get("/standings/{teamID}", tournamentHandler.TeamStandingHandler)
				r.Get("/rounds/{roundNumber}", roundHandler.GetPublishedHandler)

				r.Group(func(r chi.Router) {
					r.Use(authenticate)
					r.With(staff).Get("/participants", tournamentHandler.ListParticipantsHandler)

					r.Group(func(r chi.Router) {
						r.Use(adminOnly)
						r.Patch("/", tournamentHandler.UpdateHandler)
						r.Post("/roster", tournamentHandler.ImportRosterHandler)
						r.Post("/standings/recompute", tournamentHandler.RecomputeStandingsHandler)
						r.Post("/rounds", roundHandler.CreateHandler)
					})
				})
			})
		})

		r.Route("/rounds/{roundID}", func(r chi.Router) {
			r.Use(authenticate)
			r.With(staff).Get("/draw", roundHandler.GetDrawHandler)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/draw", roundHandler.GenerateDrawHandler)
				r.Post("/allocation", roundHandler.AllocateHandler)
				r.Post("/publish", roundHandler.PublishHandler)
				r.Post("/unpublish", roundHandler.UnpublishHandler)
				r.Put("/motion", roundHandler.UpdateMotionHandler)
			})
		})

		r.Route("/pairings/{pairingID}", func(r chi.Router) {
			r.Use(authenticate)

			// Баллоты вносят организаторы за судей.
			r.With(staff).Post("/ballots", pairingHandler.SubmitBallotHandler)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/judges", pairingHandler.AddJudgeHandler)
				r.Delete("/judges/{judgeID}", pairingHandler.RemoveJudgeHandler)
				r.Put("/chair", pairingHandler.SetChairHandler)
				r.Post("/result/manual", pairingHandler.ManualResultHandler)
				r.Post("/result/lock", pairingHandler.LockResultHandler)
				r.Post("/result/reopen", pairingHandler.ReopenResultHandler)
			})
		})
	})
}
