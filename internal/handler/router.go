/*
Package handler provides the HTTP handlers and routing setup for the local view API.

This file defines the main Router, applying necessary middleware like logging, CORS,
and per-address rate limiting before delegating requests to specific handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"chatview/internal/pkg/logx"
	"chatview/internal/pkg/resp"
)

// Router sets up the main HTTP routing table (chi.Router) for the view API.
// It configures CORS and global middleware; message submission additionally
// passes through deps.SubmitLimiter.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		logx.Debug("Health check endpoint hit")

		data := map[string]string{
			"status":  "ok",
			"service": "chatview",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/room", HandleGetRoom(deps))
		api.Get("/emojis", HandleListEmojis())

		submit := http.Handler(HandleSubmitMessage(deps))
		if deps.SubmitLimiter != nil {
			submit = deps.SubmitLimiter.Middleware(submit)
		}
		api.Method(http.MethodPost, "/room/messages", submit)
	})

	return r
}
