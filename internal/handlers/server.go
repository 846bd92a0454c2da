// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/singular-game/singular/internal/middleware"
	"github.com/singular-game/singular/internal/room"
)

// Server bundles the room store with the shared logger. Everything is
// in-memory; the historian pipeline, when connected, observes traffic
// without being load-bearing.
type Server struct {
	Rooms  *room.Store
	Logger *logrus.Logger
}

// NewServer creates a Server with a fresh room store.
func NewServer(logger *logrus.Logger) *Server {
	return &Server{
		Rooms:  room.NewStore(),
		Logger: logger,
	}
}

// Router builds the HTTP surface: room lifecycle endpoints plus the
// WebSocket relay.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(middleware.LogMiddleware(s.Logger))

	r.Get("/", s.PingHandler)
	r.Get("/healthz", s.PingHandler)
	r.Post("/rooms", s.CreateRoomHandler)
	r.Get("/rooms", s.ListRoomsHandler)
	r.Get("/rooms/{code}", s.GetRoomHandler)
	r.Get("/rooms/{code}/ws", s.RoomWSHandler)

	return r
}

// PingHandler answers health checks.
func (s *Server) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("pong"))
}
