package services

import (
	"context"
	"slices"

	"github.com/Digital231/lastDance/internal/database"
	"github.com/Digital231/lastDance/internal/models"
)

type ChatService struct {
	db database.Database
}

func NewChatService(db database.Database) *ChatService {
	return &ChatService{db: db}
}

func (s *ChatService) GetRoomMessages(ctx context.Context, room string) ([]*models.ChatMessage, error) {
	return s.db.GetRoomMessages(ctx, room)
}

// PostMessage persists a room message attributed to senderID and returns the
// stored, sender-enriched message. Callers must not broadcast unless this
// succeeds.
func (s *ChatService) PostMessage(ctx context.Context, senderID int, room, content string) (*models.ChatMessage, error) {
	if content == "" {
		return nil, &RequestError{Msg: "Message content is required"}
	}
	if room == "" {
		return nil, &RequestError{Msg: "Room is required"}
	}

	return s.db.SaveChatMessage(ctx, senderID, room, content)
}

// ToggleLike flips userID's membership in the message's like-set and returns
// the message with the resulting set. Toggling twice restores the original
// state.
func (s *ChatService) ToggleLike(ctx context.Context, messageID, userID int) (*models.ChatMessage, error) {
	msg, err := s.db.GetChatMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if slices.Contains(msg.Likes, userID) {
		err = s.db.RemoveLike(ctx, messageID, userID)
	} else {
		err = s.db.AddLike(ctx, messageID, userID)
	}
	if err != nil {
		return nil, err
	}

	return s.db.GetChatMessage(ctx, messageID)
}
