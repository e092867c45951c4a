package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"spandi-backend/internal/handlers"
	"spandi-backend/internal/middleware"
)

func New(
	sessionAuth *middleware.SessionAuth,
	statusHandler *handlers.StatusHandler,
	chatHandler *handlers.ChatHandler,
	readingHandler *handlers.ReadingHandler,
	wsHandler http.HandlerFunc,
	frontendURL string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", statusHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", statusHandler.Status)
		r.Post("/sessions", chatHandler.StartSession)

		// ──── Session Routes ────
		r.Group(func(r chi.Router) {
			r.Use(sessionAuth.Middleware)

			r.Route("/conversation", func(r chi.Router) {
				r.Get("/", chatHandler.GetConversation)
				r.Delete("/", chatHandler.ResetConversation)
				r.Post("/messages", chatHandler.SendMessage)
			})

			// ──── Reading Routes ────
			r.Post("/horoscope", readingHandler.Horoscope)
			r.Post("/palm", readingHandler.Palm)
			r.Post("/roast", readingHandler.Roast)
			r.Post("/astronomer", readingHandler.Astronomer)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHandler)
	})

	return r
}
