// internal/handlers/room.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/judgement/internal/room"
)

// CreateRoomHandler creates a room for an authenticated player.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	code, err := s.Rooms.CreateRoom(r.Context())
	if err != nil {
		s.Logger.WithError(err).Error("create room")
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": code})
}

// GetRoomHandler returns the public view of a room.
func (s *Server) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "roomID"))
	snap, err := s.Rooms.PublicSnapshot(r.Context(), code)
	if errors.Is(err, room.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	if err != nil {
		s.Logger.WithError(err).Error("room snapshot")
		writeError(w, http.StatusInternalServerError, "failed to load room")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// RoomExistsHandler reports whether a room code is in use.
func (s *Server) RoomExistsHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "roomID"))
	exists, err := s.Dir.RoomExists(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up room")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}
