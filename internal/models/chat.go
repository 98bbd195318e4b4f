package models

import "time"

// ChatMessage is a message in a named room. Likes holds the ids of every
// user currently liking the message; toggling is resolved server-side.
type ChatMessage struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	Sender    UserRef   `json:"sender"`
	Room      string    `json:"room"`
	Likes     []int     `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

type Conversation struct {
	ID           int       `json:"id"`
	Participants []UserRef `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ConversationMessage struct {
	ID             int       `json:"id"`
	ConversationID int       `json:"conversation_id"`
	Sender         UserRef   `json:"sender"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type Notification struct {
	ID             int       `json:"id"`
	Sender         UserRef   `json:"sender"`
	ReceiverID     int       `json:"receiver_id"`
	Text           string    `json:"text"`
	IsRead         bool      `json:"is_read"`
	ConversationID *int      `json:"conversation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateConversationRequest struct {
	Participants []int `json:"participants"`
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

type AddParticipantRequest struct {
	UserID int `json:"user_id"`
}

// ConversationDetail is the GET /conversations/{id} response: the
// conversation plus its ordered message history.
type ConversationDetail struct {
	Conversation *Conversation          `json:"conversation"`
	Messages     []*ConversationMessage `json:"messages"`
}
