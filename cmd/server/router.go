package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fairtrack/fairtrack-api/internal/api"
	apiMiddleware "github.com/fairtrack/fairtrack-api/internal/api/middleware"
)

// setupRouter wires all HTTP routes and middleware. The websocket
// endpoint authenticates through its own handshake rather than the
// bearer-token middleware, so it sits outside the /api group.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	exportHandler := api.NewExportHandler(app.engine, app.exports, app.logger)
	jobHandler := api.NewJobHandler(app.engine)
	visitHandler := api.NewVisitHandler(app.visits)
	wsHandler := api.NewWSHandler(
		app.hub,
		app.config.Auth.RealtimeSecret,
		app.config.Auth.HandshakeWindow,
		app.logger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/exports", exportHandler.Create)
		r.Get("/exports/{jobID}/download", exportHandler.Download)

		r.Get("/jobs", jobHandler.List)

		r.Post("/visits", visitHandler.Create)
		r.Get("/participants/{participantID}/visits", visitHandler.ListByParticipant)
	})

	// Websocket handshake carries its own HMAC credentials.
	r.Get("/ws", wsHandler.Connect)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
