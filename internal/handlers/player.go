// internal/handlers/player.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/judgement/internal/database"
)

const maxNameLength = 32

var errUnauthenticated = errors.New("unauthenticated")

// authenticate resolves the request's token to an existing player.
func (s *Server) authenticate(r *http.Request) (uuid.UUID, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return uuid.Nil, errUnauthenticated
	}
	id, err := s.Signer.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, errUnauthenticated
	}
	exists, err := s.Dir.PlayerExists(r.Context(), id)
	if err != nil {
		return uuid.Nil, err
	}
	if !exists {
		return uuid.Nil, errUnauthenticated
	}
	return id, nil
}

func (s *Server) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

// EnsurePlayerHandler returns the caller's player, creating one when the
// request carries no valid token.
func (s *Server) EnsurePlayerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.authenticate(r)
	if err != nil && !errors.Is(err, errUnauthenticated) {
		s.Logger.WithError(err).Error("authenticate player")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if errors.Is(err, errUnauthenticated) {
		id, err = s.Dir.CreatePlayer(r.Context(), nil)
		if err != nil {
			s.Logger.WithError(err).Error("create player")
			writeError(w, http.StatusInternalServerError, "failed to create player")
			return
		}
		s.Logger.WithField("player", id).Info("created player")
	}

	token, err := s.Signer.CreateJWT(id)
	if err != nil {
		s.Logger.WithError(err).Error("sign token")
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	s.setAuthCookie(w, token)

	p, err := s.Dir.GetPlayer(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load player")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"player": p, "token": token})
}

// GetPlayerHandler returns the authenticated player.
func (s *Server) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	p, err := s.Dir.GetPlayer(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load player")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type setNameRequest struct {
	Name string `json:"name"`
}

// SetPlayerNameHandler renames the authenticated player and refreshes their rooms.
func (s *Server) SetPlayerNameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req setNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		writeError(w, http.StatusBadRequest, "name must be 1-32 characters")
		return
	}
	if err := s.Rooms.RenamePlayer(r.Context(), id, name); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "player not found")
			return
		}
		s.Logger.WithError(err).Error("rename player")
		writeError(w, http.StatusInternalServerError, "failed to set name")
		return
	}
	p, err := s.Dir.GetPlayer(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load player")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
