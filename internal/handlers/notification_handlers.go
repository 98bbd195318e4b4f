package handlers

import (
	"net/http"

	"github.com/Digital231/lastDance/internal/services"
)

type NotificationHandlers struct {
	notificationService *services.NotificationService
}

func NewNotificationHandlers(notificationService *services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notificationService: notificationService}
}

func (h *NotificationHandlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	notifications, err := h.notificationService.ListNotifications(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err, "", "Error fetching notifications")
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	notificationID, err := pathID(r, "notificationId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid notification ID")
		return
	}

	notification, err := h.notificationService.MarkRead(r.Context(), notificationID, user.ID)
	if err != nil {
		writeServiceError(w, err, "Notification not found", "Error updating notification")
		return
	}

	writeJSON(w, http.StatusOK, notification)
}

func (h *NotificationHandlers) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	notificationID, err := pathID(r, "notificationId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid notification ID")
		return
	}

	if err := h.notificationService.DeleteNotification(r.Context(), notificationID, user.ID); err != nil {
		writeServiceError(w, err, "Notification not found", "Error deleting notification")
		return
	}

	writeMessage(w, http.StatusOK, "Notification deleted successfully")
}
