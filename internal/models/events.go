package models

import "encoding/json"

// EventName tags every frame exchanged on the WebSocket channel. The set is
// closed: the relay dispatches through a single switch over these constants.
type EventName string

const (
	// client -> server
	EventJoinRoom                 EventName = "joinRoom"
	EventLeaveRoom                EventName = "leaveRoom"
	EventSendMessage              EventName = "sendMessage"
	EventSendConversationMessage  EventName = "sendConversationMessage"
	EventMessageLiked             EventName = "messageLiked"
	EventStartPrivateConversation EventName = "startPrivateConversation"
	EventSendNotification         EventName = "sendNotification"
	EventGlobalUpdate             EventName = "globalUpdate"
	EventUserRegistered           EventName = "userRegistered"

	// server -> client
	EventReceiveMessage             EventName = "receiveMessage"
	EventReceiveConversationMessage EventName = "receiveConversationMessage"
	EventConversationMessageError   EventName = "conversationMessageError"
	EventNewNotification            EventName = "newNotification"
	EventConversationStarted        EventName = "conversationStarted"
	EventPrivateConversationInvite  EventName = "privateConversationInvite"
	EventRegistered                 EventName = "registered"
	EventNewUserRegistered          EventName = "newUserRegistered"
)

// Event is the wire envelope. Data is left raw on the inbound side so each
// handler can decode its own payload type.
type Event struct {
	Name EventName       `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

type JoinRoomPayload struct {
	Room string `json:"room"`
}

type SendMessagePayload struct {
	Room    string `json:"room"`
	Content string `json:"content"`
}

type SendConversationMessagePayload struct {
	ConversationID int    `json:"conversation_id"`
	Content        string `json:"content"`
}

type MessageLikedPayload struct {
	MessageID int `json:"message_id"`
}

type StartPrivateConversationPayload struct {
	TargetUserID int `json:"target_user_id"`
}

type SendNotificationPayload struct {
	TargetUserID   int    `json:"target_user_id"`
	Message        string `json:"message"`
	ConversationID *int   `json:"conversation_id,omitempty"`
}

type MessageLikedBroadcast struct {
	MessageID int    `json:"message_id"`
	Room      string `json:"room"`
	Likes     []int  `json:"likes"`
}

type NewNotificationPayload struct {
	Message        string `json:"message"`
	ConversationID *int   `json:"conversation_id,omitempty"`
	NotificationID int    `json:"notification_id"`
}

type ConversationStartedPayload struct {
	ConversationID int    `json:"conversation_id"`
	TargetUserID   int    `json:"target_user_id"`
	TargetUsername string `json:"target_username"`
	Message        string `json:"message"`
}

// PrivateConversationInvitePayload is broadcast to every connection, not just
// the two participants. The original product announced new private chats
// system-wide; that behavior is kept on purpose.
type PrivateConversationInvitePayload struct {
	ConversationID int    `json:"conversation_id"`
	FromUserID     int    `json:"from_user_id"`
	FromUsername   string `json:"from_username"`
	ToUserID       int    `json:"to_user_id"`
	ToUsername     string `json:"to_username"`
	Message        string `json:"message"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
