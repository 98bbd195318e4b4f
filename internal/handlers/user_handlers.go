package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Digital231/lastDance/internal/models"
	"github.com/Digital231/lastDance/internal/services"
	"github.com/Digital231/lastDance/pkg/logger"
)

// PresenceReader is the read side of the presence tracker. Nil disables the
// online flag in listings.
type PresenceReader interface {
	Online(ctx context.Context, userIDs []int) (map[int]bool, error)
}

type UserHandlers struct {
	userService *services.UserService
	presence    PresenceReader
}

func NewUserHandlers(userService *services.UserService, presence PresenceReader) *UserHandlers {
	return &UserHandlers{
		userService: userService,
		presence:    presence,
	}
}

func (h *UserHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err, "", "Error fetching users")
		return
	}

	online := map[int]bool{}
	if h.presence != nil {
		ids := make([]int, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		if online, err = h.presence.Online(r.Context(), ids); err != nil {
			logger.Error("Error reading presence: %v", err)
			online = map[int]bool{}
		}
	}

	listings := make([]*models.UserListing, len(users))
	for i, u := range users {
		listings[i] = &models.UserListing{
			ID:       u.ID,
			Username: u.Username,
			Avatar:   u.Avatar,
			Online:   online[u.ID],
		}
	}

	writeJSON(w, http.StatusOK, listings)
}

func (h *UserHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "User not found", "Error fetching user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, &req)
	if err != nil {
		writeServiceError(w, err, "User not found", "Error updating profile")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
