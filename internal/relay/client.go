package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Digital231/lastDance/internal/models"
	"github.com/Digital231/lastDance/internal/services"
	"github.com/Digital231/lastDance/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Presence is the slice of the presence tracker the relay needs. Nil disables
// presence tracking.
type Presence interface {
	Connect(ctx context.Context, userID int) error
	Heartbeat(ctx context.Context, userID int) error
	Disconnect(ctx context.Context, userID int) error
}

// Deps bundles what a client needs to execute events against the stores.
type Deps struct {
	Chat          *services.ChatService
	Conversations *services.ConversationService
	Notifications *services.NotificationService
	Presence      Presence
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	userID    int
	username  string
	sessionID string
	deps      Deps

	// rooms is owned by the hub's run loop.
	rooms map[string]bool
}

func NewClient(hub *Hub, conn *websocket.Conn, user *models.User, deps Deps) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		userID:    user.ID,
		username:  user.Username,
		sessionID: uuid.NewString(),
		deps:      deps,
		rooms:     make(map[string]bool),
	}
}

func (c *Client) ReadPump() {
	ctx := context.Background()

	if c.deps.Presence != nil {
		if err := c.deps.Presence.Connect(ctx, c.userID); err != nil {
			logger.Error("Error marking user %d online: %v", c.userID, err)
		}
	}

	defer func() {
		if c.deps.Presence != nil {
			if err := c.deps.Presence.Disconnect(ctx, c.userID); err != nil {
				logger.Error("Error marking user %d offline: %v", c.userID, err)
			}
		}
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	// Set read deadline and pong handler for connection health
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		if c.deps.Presence != nil {
			if err := c.deps.Presence.Heartbeat(ctx, c.userID); err != nil {
				logger.Error("Error refreshing presence for user %d: %v", c.userID, err)
			}
		}
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error: %v", err)
			}
			break
		}

		var evt models.Event
		if err := json.Unmarshal(message, &evt); err != nil {
			logger.Error("Invalid event from user %d: %v", c.userID, err)
			continue
		}

		c.handleEvent(context.Background(), &evt)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleEvent dispatches one inbound frame. Every branch persists before it
// broadcasts; a failed store write aborts the fan-out.
func (c *Client) handleEvent(ctx context.Context, evt *models.Event) {
	switch evt.Name {
	case models.EventJoinRoom:
		var p models.JoinRoomPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil || p.Room == "" {
			return
		}
		c.hub.Join(c, p.Room)

	case models.EventLeaveRoom:
		var p models.JoinRoomPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil || p.Room == "" {
			return
		}
		c.hub.Leave(c, p.Room)

	case models.EventSendMessage:
		c.handleSendMessage(ctx, evt.Data)

	case models.EventSendConversationMessage:
		c.handleSendConversationMessage(ctx, evt.Data)

	case models.EventMessageLiked:
		c.handleMessageLiked(ctx, evt.Data)

	case models.EventStartPrivateConversation:
		c.handleStartPrivateConversation(ctx, evt.Data)

	case models.EventSendNotification:
		c.handleSendNotification(ctx, evt.Data)

	case models.EventGlobalUpdate:
		c.hub.ToAll(models.EventGlobalUpdate, nil)

	case models.EventUserRegistered:
		c.sendEvent(models.EventRegistered, "I have registered")
		c.hub.ToAll(models.EventNewUserRegistered, "A new user has registered")

	default:
		logger.Debug("Unknown event %q from user %d", evt.Name, c.userID)
	}
}

func (c *Client) handleSendMessage(ctx context.Context, data json.RawMessage) {
	var p models.SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Error("Invalid sendMessage payload from user %d: %v", c.userID, err)
		return
	}

	msg, err := c.deps.Chat.PostMessage(ctx, c.userID, p.Room, p.Content)
	if err != nil {
		logger.Error("Error saving and broadcasting message: %v", err)
		return
	}

	c.hub.ToRoom(msg.Room, models.EventReceiveMessage, msg)
}

func (c *Client) handleSendConversationMessage(ctx context.Context, data json.RawMessage) {
	var p models.SendConversationMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Error("Invalid sendConversationMessage payload from user %d: %v", c.userID, err)
		return
	}

	msg, err := c.deps.Conversations.PostMessage(ctx, p.ConversationID, c.userID, p.Content)
	if err != nil {
		if errors.Is(err, services.ErrNotParticipant) {
			logger.Error("User %d not authorized for conversation %d", c.userID, p.ConversationID)
		} else {
			logger.Error("Error saving conversation message: %v", err)
		}
		c.sendEvent(models.EventConversationMessageError, models.ErrorPayload{Error: err.Error()})
		return
	}

	c.hub.ToRoom(conversationRoom(p.ConversationID), models.EventReceiveConversationMessage, msg)
}

func (c *Client) handleMessageLiked(ctx context.Context, data json.RawMessage) {
	var p models.MessageLikedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Error("Invalid messageLiked payload from user %d: %v", c.userID, err)
		return
	}

	msg, err := c.deps.Chat.ToggleLike(ctx, p.MessageID, c.userID)
	if err != nil {
		logger.Error("Error updating message likes: %v", err)
		return
	}

	c.hub.ToRoom(msg.Room, models.EventMessageLiked, models.MessageLikedBroadcast{
		MessageID: msg.ID,
		Room:      msg.Room,
		Likes:     msg.Likes,
	})
}

func (c *Client) handleStartPrivateConversation(ctx context.Context, data json.RawMessage) {
	var p models.StartPrivateConversationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Error("Invalid startPrivateConversation payload from user %d: %v", c.userID, err)
		return
	}

	res, err := c.deps.Conversations.StartPrivate(ctx, c.userID, p.TargetUserID)
	if err != nil {
		logger.Error("Error starting private conversation: %v", err)
		return
	}

	c.hub.ToUser(res.Target.ID, models.EventNewNotification, models.NewNotificationPayload{
		Message:        res.Notification.Text,
		ConversationID: &res.Conversation.ID,
		NotificationID: res.Notification.ID,
	})

	// Deliberately visible to everyone, not just the two participants.
	c.hub.ToAll(models.EventPrivateConversationInvite, models.PrivateConversationInvitePayload{
		ConversationID: res.Conversation.ID,
		FromUserID:     res.Caller.ID,
		FromUsername:   res.Caller.Username,
		ToUserID:       res.Target.ID,
		ToUsername:     res.Target.Username,
		Message:        fmt.Sprintf("User %s wants to start a private chat with %s", res.Caller.Username, res.Target.Username),
	})

	c.sendEvent(models.EventConversationStarted, models.ConversationStartedPayload{
		ConversationID: res.Conversation.ID,
		TargetUserID:   res.Target.ID,
		TargetUsername: res.Target.Username,
		Message:        fmt.Sprintf("You started a conversation with user %s", res.Target.Username),
	})
}

func (c *Client) handleSendNotification(ctx context.Context, data json.RawMessage) {
	var p models.SendNotificationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Error("Invalid sendNotification payload from user %d: %v", c.userID, err)
		return
	}

	notif, err := c.deps.Notifications.CreateNotification(ctx, c.userID, p.TargetUserID, p.Message, p.ConversationID)
	if err != nil {
		logger.Error("Error sending notification: %v", err)
		return
	}

	c.hub.ToUser(p.TargetUserID, models.EventNewNotification, models.NewNotificationPayload{
		Message:        notif.Text,
		ConversationID: notif.ConversationID,
		NotificationID: notif.ID,
	})
}

// sendEvent queues an event for this connection only. Delivery goes through
// the hub: the run loop is the sole sender on c.send, so the read pump never
// races the slow-consumer drop path.
func (c *Client) sendEvent(name models.EventName, payload interface{}) {
	c.hub.ToClient(c, name, payload)
}

func conversationRoom(conversationID int) string {
	return strconv.Itoa(conversationID)
}
