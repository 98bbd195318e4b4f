package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Digital231/lastDance/internal/models"
	"github.com/Digital231/lastDance/internal/services"
)

type ConversationHandlers struct {
	conversationService *services.ConversationService
}

func NewConversationHandlers(conversationService *services.ConversationService) *ConversationHandlers {
	return &ConversationHandlers{conversationService: conversationService}
}

func (h *ConversationHandlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	conversations, err := h.conversationService.ListConversations(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err, "", "Error fetching conversations")
		return
	}

	writeJSON(w, http.StatusOK, conversations)
}

func (h *ConversationHandlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	conversationID, err := pathID(r, "conversationId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid conversation ID")
		return
	}

	detail, err := h.conversationService.GetConversation(r.Context(), conversationID, user.ID)
	if err != nil {
		writeServiceError(w, err, "Conversation not found", "Error fetching conversation")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *ConversationHandlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req models.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversation, err := h.conversationService.CreateConversation(r.Context(), user.ID, req.Participants)
	if err != nil {
		writeServiceError(w, err, "", "Error creating conversation")
		return
	}

	writeJSON(w, http.StatusCreated, conversation)
}

// PostMessage is the non-realtime write path; live clients send the same
// message through the relay instead.
func (h *ConversationHandlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	conversationID, err := pathID(r, "conversationId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid conversation ID")
		return
	}

	var req models.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.conversationService.PostMessage(r.Context(), conversationID, user.ID, req.Content)
	if err != nil {
		writeServiceError(w, err, "Conversation not found", "Error adding message to conversation")
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

func (h *ConversationHandlers) AddParticipant(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	conversationID, err := pathID(r, "conversationId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid conversation ID")
		return
	}

	var req models.AddParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversation, err := h.conversationService.AddParticipant(r.Context(), conversationID, user.ID, req.UserID)
	if err != nil {
		writeServiceError(w, err, "Conversation not found", "Error adding participant to conversation")
		return
	}

	writeJSON(w, http.StatusOK, conversation)
}

func (h *ConversationHandlers) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	conversationID, err := pathID(r, "conversationId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid conversation ID")
		return
	}

	if err := h.conversationService.DeleteConversation(r.Context(), conversationID, user.ID); err != nil {
		writeServiceError(w, err, "Conversation not found", "Error deleting conversation")
		return
	}

	writeMessage(w, http.StatusOK, "Conversation deleted successfully")
}
