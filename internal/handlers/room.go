// internal/handlers/room.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/singular-game/singular/internal/auth"
	"github.com/singular-game/singular/internal/room"
)

type roomInfo struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
	Started bool   `json:"started"`
	Public  bool   `json:"public"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// CreateRoomHandler opens a fresh room and returns its code. The
// caller gets a guest session if they lack one, so the subsequent
// WebSocket join is recognizable.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.EnsureGuest(w, r); err != nil {
		s.Logger.Warnf("failed to establish guest session: %v", err)
		http.Error(w, "could not establish session", http.StatusInternalServerError)
		return
	}

	rm, err := s.Rooms.Create()
	if err != nil {
		s.Logger.Errorf("room creation failed: %v", err)
		http.Error(w, "no room codes available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusCreated, roomInfo{Code: rm.Code.String()})
}

// ListRoomsHandler returns the rooms whose hosts listed them publicly
// and which have not started yet.
func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	codes := s.Rooms.Public()
	infos := make([]roomInfo, 0, len(codes))
	for _, code := range codes {
		rm, ok := s.Rooms.Get(code)
		if !ok {
			continue
		}
		infos = append(infos, roomInfo{
			Code:    code.String(),
			Players: rm.Len(),
			Public:  true,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

// GetRoomHandler reports whether a room exists and whether it can
// still be joined.
func (s *Server) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	code, err := room.ParseCode(chi.URLParam(r, "code"))
	if err != nil {
		http.Error(w, "invalid room code", http.StatusBadRequest)
		return
	}
	rm, ok := s.Rooms.Get(code)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, roomInfo{
		Code:    code.String(),
		Players: rm.Len(),
		Started: rm.Started(),
		Public:  rm.Public(),
	})
}
