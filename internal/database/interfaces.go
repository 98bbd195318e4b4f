package database

import (
	"context"
	"errors"

	"github.com/Digital231/lastDance/internal/models"
)

// ErrNotFound is returned whenever a lookup scoped to the caller matches no
// row. Handlers map it to HTTP 404.
var ErrNotFound = errors.New("record not found")

type UserRepository interface {
	CreateUser(ctx context.Context, username, password string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

type MessageRepository interface {
	SaveChatMessage(ctx context.Context, senderID int, room, content string) (*models.ChatMessage, error)
	GetRoomMessages(ctx context.Context, room string) ([]*models.ChatMessage, error)
	GetChatMessage(ctx context.Context, id int) (*models.ChatMessage, error)
	AddLike(ctx context.Context, messageID, userID int) error
	RemoveLike(ctx context.Context, messageID, userID int) error
}

type ConversationRepository interface {
	CreateConversation(ctx context.Context, participantIDs []int) (*models.Conversation, error)
	GetConversation(ctx context.Context, conversationID int) (*models.Conversation, error)
	ListUserConversations(ctx context.Context, userID int) ([]*models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID int) (bool, error)
	AddParticipant(ctx context.Context, conversationID, userID int) error
	DeleteConversation(ctx context.Context, conversationID int) error
	SaveConversationMessage(ctx context.Context, conversationID, senderID int, content string) (*models.ConversationMessage, error)
	GetConversationMessages(ctx context.Context, conversationID int) ([]*models.ConversationMessage, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, senderID, receiverID int, text string, conversationID *int) (*models.Notification, error)
	ListNotifications(ctx context.Context, receiverID int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID, receiverID int) (*models.Notification, error)
	DeleteNotification(ctx context.Context, notificationID, receiverID int) error
}

type Database interface {
	UserRepository
	MessageRepository
	ConversationRepository
	NotificationRepository
	Close() error
}
