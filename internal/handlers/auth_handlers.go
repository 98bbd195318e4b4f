package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Digital231/lastDance/internal/auth"
	"github.com/Digital231/lastDance/internal/models"
	"github.com/Digital231/lastDance/internal/relay"
	"github.com/Digital231/lastDance/pkg/logger"
)

type AuthHandlers struct {
	authService *auth.Service
	hub         *relay.Hub
}

func NewAuthHandlers(authService *auth.Service, hub *relay.Hub) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		hub:         hub,
	}
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFieldErrors(w, []auth.FieldError{{Msg: "invalid request body"}})
		return
	}

	response, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		var valErr *auth.ValidationError
		if errors.As(err, &valErr) {
			writeFieldErrors(w, valErr.Errors)
			return
		}
		logger.Error("Registration error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string][]auth.FieldError{
			"errors": {{Msg: "Server error. Please try again later."}},
		})
		return
	}

	writeJSON(w, http.StatusCreated, response)

	if h.hub != nil {
		h.hub.ToAll(models.EventNewUserRegistered, fmt.Sprintf("User %s has registered.", response.User.Username))
	}
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFieldErrors(w, []auth.FieldError{{Msg: "invalid request body"}})
		return
	}

	response, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		logger.Error("Login error: %v", err)
		writeFieldErrors(w, []auth.FieldError{{Msg: "Bad credentials"}})
		return
	}

	writeJSON(w, http.StatusOK, response)
}
