package services

import (
	"context"

	"github.com/Digital231/lastDance/internal/database"
	"github.com/Digital231/lastDance/internal/models"
)

type NotificationService struct {
	db database.Database
}

func NewNotificationService(db database.Database) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) ListNotifications(ctx context.Context, receiverID int) ([]*models.Notification, error) {
	return s.db.ListNotifications(ctx, receiverID)
}

func (s *NotificationService) CreateNotification(ctx context.Context, senderID, receiverID int, text string, conversationID *int) (*models.Notification, error) {
	if text == "" {
		return nil, &RequestError{Msg: "Notification text is required"}
	}
	return s.db.CreateNotification(ctx, senderID, receiverID, text, conversationID)
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, receiverID int) (*models.Notification, error) {
	return s.db.MarkNotificationRead(ctx, notificationID, receiverID)
}

func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID, receiverID int) error {
	return s.db.DeleteNotification(ctx, notificationID, receiverID)
}
