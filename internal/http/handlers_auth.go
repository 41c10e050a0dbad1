package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"monny/internal/auth"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	token, err := s.authn.Login(req.Username, req.Password)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	http.SetCookie(w, s.authn.SessionCookie(token))
	respondJSON(r.Context(), w, http.StatusOK, loginResponse{
		Username:    req.Username,
		DisplayName: s.authn.DisplayName(req.Username),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Logout sits outside the auth middleware, so resolve the owner from the
	// cookie directly; an absent or invalid cookie still gets a 204.
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if username, err := s.authn.Verify(cookie.Value); err == nil {
			s.ledger.ClearSelection(username)
		}
	}
	http.SetCookie(w, auth.ClearCookie())
	respondJSON(r.Context(), w, http.StatusNoContent, nil)
}

// decodeBody parses a JSON request body and runs struct validation.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return validate.Struct(dst)
}

var errBadRequest = errors.New("malformed request body")

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadRequest
	}
	return id, nil
}
