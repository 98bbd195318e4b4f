package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/Digital231/lastDance/internal/database"
	"github.com/Digital231/lastDance/internal/models"
)

type ConversationService struct {
	db database.Database
}

func NewConversationService(db database.Database) *ConversationService {
	return &ConversationService{db: db}
}

func (s *ConversationService) ListConversations(ctx context.Context, userID int) ([]*models.Conversation, error) {
	return s.db.ListUserConversations(ctx, userID)
}

func (s *ConversationService) GetConversation(ctx context.Context, conversationID, userID int) (*models.ConversationDetail, error) {
	isParticipant, err := s.db.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, ErrNotParticipant
	}

	conv, err := s.db.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := s.db.GetConversationMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	return &models.ConversationDetail{Conversation: conv, Messages: messages}, nil
}

// CreateConversation creates a conversation with the given participants; the
// caller is always included.
func (s *ConversationService) CreateConversation(ctx context.Context, callerID int, participantIDs []int) (*models.Conversation, error) {
	if !slices.Contains(participantIDs, callerID) {
		participantIDs = append(participantIDs, callerID)
	}

	return s.db.CreateConversation(ctx, participantIDs)
}

// PostMessage appends a message to the conversation. The participant check
// runs against the store on every send; it is never cached.
func (s *ConversationService) PostMessage(ctx context.Context, conversationID, senderID int, content string) (*models.ConversationMessage, error) {
	if content == "" {
		return nil, &RequestError{Msg: "Message content is required"}
	}

	isParticipant, err := s.db.IsParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, ErrNotParticipant
	}

	return s.db.SaveConversationMessage(ctx, conversationID, senderID, content)
}

func (s *ConversationService) AddParticipant(ctx context.Context, conversationID, callerID, userID int) (*models.Conversation, error) {
	isParticipant, err := s.db.IsParticipant(ctx, conversationID, callerID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		return nil, ErrNotParticipant
	}

	alreadyIn, err := s.db.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if alreadyIn {
		return nil, &RequestError{Msg: "User is already in the conversation"}
	}

	if err := s.db.AddParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	return s.db.GetConversation(ctx, conversationID)
}

func (s *ConversationService) DeleteConversation(ctx context.Context, conversationID, callerID int) error {
	isParticipant, err := s.db.IsParticipant(ctx, conversationID, callerID)
	if err != nil {
		return err
	}
	if !isParticipant {
		return ErrNotParticipant
	}

	return s.db.DeleteConversation(ctx, conversationID)
}

// StartPrivateResult carries everything the relay needs to emit the three
// events that follow a new private conversation.
type StartPrivateResult struct {
	Conversation *models.Conversation
	Notification *models.Notification
	Caller       *models.User
	Target       *models.User
}

// StartPrivate creates a conversation with participant set exactly
// {caller, target} and a notification for the target. The two must be
// distinct users.
func (s *ConversationService) StartPrivate(ctx context.Context, callerID, targetID int) (*StartPrivateResult, error) {
	if callerID == targetID {
		return nil, &RequestError{Msg: "Cannot start a conversation with yourself"}
	}

	caller, err := s.db.GetUserByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	target, err := s.db.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	conv, err := s.db.CreateConversation(ctx, []int{callerID, targetID})
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("%s wants to start a private chat with you.", caller.Username)
	notif, err := s.db.CreateNotification(ctx, callerID, targetID, text, &conv.ID)
	if err != nil {
		return nil, err
	}

	return &StartPrivateResult{
		Conversation: conv,
		Notification: notif,
		Caller:       caller,
		Target:       target,
	}, nil
}
