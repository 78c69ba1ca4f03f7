// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/judgement/internal/auth"
	"github.com/jason-s-yu/judgement/internal/database"
	"github.com/jason-s-yu/judgement/internal/middleware"
	"github.com/jason-s-yu/judgement/internal/room"
	"github.com/sirupsen/logrus"
)

// Server holds the collaborators every handler needs.
type Server struct {
	Dir    database.Directory
	Rooms  *room.Manager
	Signer *auth.Signer
	Logger *logrus.Logger

	// AllowedOrigins restricts CORS and websocket origins; empty allows any.
	AllowedOrigins []string
	// SecureCookies marks the auth cookie Secure.
	SecureCookies bool
}

// NewRouter builds the HTTP surface.
func (s *Server) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(middleware.LogMiddleware(s.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/player", func(r chi.Router) {
		r.Put("/ensure", s.EnsurePlayerHandler)
		r.Get("/", s.GetPlayerHandler)
		r.Put("/name", s.SetPlayerNameHandler)
	})

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", s.CreateRoomHandler)
		r.Get("/{roomID}", s.GetRoomHandler)
		r.Get("/{roomID}/exists", s.RoomExistsHandler)
	})

	r.Get("/ws", s.WSHandler)
	return r
}

func (s *Server) corsOrigins() []string {
	if len(s.AllowedOrigins) > 0 {
		return s.AllowedOrigins
	}
	return []string{"https://*", "http://*"}
}

func (s *Server) originPatterns() []string {
	if len(s.AllowedOrigins) > 0 {
		return s.AllowedOrigins
	}
	return []string{"*"}
}
