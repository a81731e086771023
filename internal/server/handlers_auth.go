package server

import (
	"encoding/json"
	"net/http"

	"github.com/liftlog/liftlog/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Redirect string `json:"redirect,omitempty"`
}

type signUpResponse struct {
	User     models.User `json:"user"`
	Redirect string      `json:"redirect,omitempty"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return credentials{}, false
	}
	return c, true
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	u, err := s.auth.SignUp(r.Context(), c.Email, c.Password)
	if err != nil {
		s.writeError(w, "signing up", err)
		return
	}
	writeJSON(w, http.StatusCreated, signUpResponse{User: u, Redirect: c.Redirect})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	sess, err := s.auth.SignIn(r.Context(), c.Email, c.Password)
	if err != nil {
		s.writeError(w, "signing in", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	if err := s.auth.SignOut(r.Context(), sess.Token); err != nil {
		s.writeError(w, "signing out", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	refreshed, err := s.auth.Refresh(r.Context(), sess.Token)
	if err != nil {
		s.writeError(w, "refreshing session", err)
		return
	}
	writeJSON(w, http.StatusOK, refreshed)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, sess)
}
