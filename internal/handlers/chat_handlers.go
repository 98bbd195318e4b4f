package handlers

import (
	"net/http"

	"github.com/Digital231/lastDance/internal/services"

	"github.com/gorilla/mux"
)

type ChatHandlers struct {
	chatService *services.ChatService
}

func NewChatHandlers(chatService *services.ChatService) *ChatHandlers {
	return &ChatHandlers{chatService: chatService}
}

// GetRoomMessages returns a room's history, oldest first, with like-sets.
func (h *ChatHandlers) GetRoomMessages(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]

	messages, err := h.chatService.GetRoomMessages(r.Context(), room)
	if err != nil {
		writeServiceError(w, err, "Room not found", "Error fetching messages")
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// LikeMessage toggles the caller in the message's like-set and returns the
// updated message.
func (h *ChatHandlers) LikeMessage(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	messageID, err := pathID(r, "messageId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid message ID")
		return
	}

	message, err := h.chatService.ToggleLike(r.Context(), messageID, user.ID)
	if err != nil {
		writeServiceError(w, err, "Message not found", "Error liking/unliking message")
		return
	}

	writeJSON(w, http.StatusOK, message)
}
