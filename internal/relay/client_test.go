package relay

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/Digital231/lastDance/internal/database/fake"
	"github.com/Digital231/lastDance/internal/models"
	"github.com/Digital231/lastDance/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relayFixture struct {
	db   *fake.DB
	hub  *Hub
	deps Deps
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	db := fake.New()
	hub := NewHub()
	go hub.Run()
	return &relayFixture{
		db:  db,
		hub: hub,
		deps: Deps{
			Chat:          services.NewChatService(db),
			Conversations: services.NewConversationService(db),
			Notifications: services.NewNotificationService(db),
		},
	}
}

func (f *relayFixture) connect(t *testing.T, username string) *Client {
	t.Helper()
	user, err := f.db.CreateUser(context.Background(), username, "Password1!")
	require.NoError(t, err)
	c := NewClient(f.hub, nil, user, f.deps)
	f.hub.Register(c)
	return c
}

func event(t *testing.T, name models.EventName, payload interface{}) *models.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &models.Event{Name: name, Data: data}
}

func TestSendMessagePersistsThenBroadcasts(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	carol := f.connect(t, "carol")
	f.hub.Join(alice, "chatRoom")
	f.hub.Join(bob, "chatRoom")

	alice.handleEvent(ctx, event(t, models.EventSendMessage, models.SendMessagePayload{
		Room:    "chatRoom",
		Content: "hello everyone",
	}))

	stored, err := f.db.GetRoomMessages(ctx, "chatRoom")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "hello everyone", stored[0].Content)
	assert.Equal(t, "alice", stored[0].Sender.Username)

	for _, c := range []*Client{alice, bob} {
		evt := recvEvent(t, c)
		require.Equal(t, models.EventReceiveMessage, evt.Name)
		var msg models.ChatMessage
		require.NoError(t, json.Unmarshal(evt.Data, &msg))
		assert.Equal(t, stored[0].ID, msg.ID)
		assert.Equal(t, "hello everyone", msg.Content)
	}
	assertNoEvent(t, carol)
}

func TestSendMessageFailedWriteBroadcastsNothing(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	f.hub.Join(alice, "chatRoom")
	f.hub.Join(bob, "chatRoom")

	f.db.FailWrites = errors.New("store unavailable")
	alice.handleEvent(ctx, event(t, models.EventSendMessage, models.SendMessagePayload{
		Room:    "chatRoom",
		Content: "lost",
	}))

	assertNoEvent(t, alice)
	assertNoEvent(t, bob)

	f.db.FailWrites = nil
	stored, err := f.db.GetRoomMessages(ctx, "chatRoom")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestConversationMessageReachesParticipants(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")

	conv, err := f.deps.Conversations.CreateConversation(ctx, alice.userID, []int{bob.userID})
	require.NoError(t, err)
	room := strconv.Itoa(conv.ID)
	f.hub.Join(alice, room)
	f.hub.Join(bob, room)

	alice.handleEvent(ctx, event(t, models.EventSendConversationMessage, models.SendConversationMessagePayload{
		ConversationID: conv.ID,
		Content:        "just us",
	}))

	for _, c := range []*Client{alice, bob} {
		evt := recvEvent(t, c)
		require.Equal(t, models.EventReceiveConversationMessage, evt.Name)
		var msg models.ConversationMessage
		require.NoError(t, json.Unmarshal(evt.Data, &msg))
		assert.Equal(t, conv.ID, msg.ConversationID)
		assert.Equal(t, "just us", msg.Content)
	}
}

func TestConversationMessageFromNonParticipant(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	mallory := f.connect(t, "mallory")

	conv, err := f.deps.Conversations.CreateConversation(ctx, alice.userID, []int{bob.userID})
	require.NoError(t, err)
	room := strconv.Itoa(conv.ID)
	f.hub.Join(alice, room)
	f.hub.Join(bob, room)
	f.hub.Join(mallory, room)

	mallory.handleEvent(ctx, event(t, models.EventSendConversationMessage, models.SendConversationMessagePayload{
		ConversationID: conv.ID,
		Content:        "let me in",
	}))

	// Only the offending sender hears about it.
	evt := recvEvent(t, mallory)
	assert.Equal(t, models.EventConversationMessageError, evt.Name)
	assertNoEvent(t, alice)
	assertNoEvent(t, bob)

	msgs, err := f.db.GetConversationMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMessageLikedToggles(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	f.hub.Join(alice, "chatRoom")
	f.hub.Join(bob, "chatRoom")

	msg, err := f.deps.Chat.PostMessage(ctx, alice.userID, "chatRoom", "like me")
	require.NoError(t, err)

	bob.handleEvent(ctx, event(t, models.EventMessageLiked, models.MessageLikedPayload{MessageID: msg.ID}))

	for _, c := range []*Client{alice, bob} {
		evt := recvEvent(t, c)
		require.Equal(t, models.EventMessageLiked, evt.Name)
		var p models.MessageLikedBroadcast
		require.NoError(t, json.Unmarshal(evt.Data, &p))
		assert.Equal(t, msg.ID, p.MessageID)
		assert.Equal(t, []int{bob.userID}, p.Likes)
	}

	// Second toggle by the same user removes the like.
	bob.handleEvent(ctx, event(t, models.EventMessageLiked, models.MessageLikedPayload{MessageID: msg.ID}))

	for _, c := range []*Client{alice, bob} {
		evt := recvEvent(t, c)
		var p models.MessageLikedBroadcast
		require.NoError(t, json.Unmarshal(evt.Data, &p))
		assert.Empty(t, p.Likes)
	}
}

func TestStartPrivateConversation(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	carol := f.connect(t, "carol")

	alice.handleEvent(ctx, event(t, models.EventStartPrivateConversation, models.StartPrivateConversationPayload{
		TargetUserID: bob.userID,
	}))

	convs, err := f.db.ListUserConversations(ctx, alice.userID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	require.Len(t, convs[0].Participants, 2)
	assert.Equal(t, "alice", convs[0].Participants[0].Username)
	assert.Equal(t, "bob", convs[0].Participants[1].Username)

	// Notification persisted for the target only.
	notifs, err := f.db.ListNotifications(ctx, bob.userID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	require.NotNil(t, notifs[0].ConversationID)
	assert.Equal(t, convs[0].ID, *notifs[0].ConversationID)
	callerNotifs, err := f.db.ListNotifications(ctx, alice.userID)
	require.NoError(t, err)
	assert.Empty(t, callerNotifs)

	// Caller gets the ack plus the global invite.
	aliceEvents := recvEvents(t, alice, 2)
	assert.Contains(t, aliceEvents, models.EventConversationStarted)
	assert.Contains(t, aliceEvents, models.EventPrivateConversationInvite)

	// Target gets the direct notification plus the global invite.
	bobEvents := recvEvents(t, bob, 2)
	assert.Contains(t, bobEvents, models.EventNewNotification)
	assert.Contains(t, bobEvents, models.EventPrivateConversationInvite)
	var notif models.NewNotificationPayload
	require.NoError(t, json.Unmarshal(bobEvents[models.EventNewNotification].Data, &notif))
	assert.Equal(t, notifs[0].ID, notif.NotificationID)

	// Everyone else sees the invite only.
	evt := recvEvent(t, carol)
	assert.Equal(t, models.EventPrivateConversationInvite, evt.Name)
	assertNoEvent(t, carol)
}

func TestSendNotificationDeliveredToTarget(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	carol := f.connect(t, "carol")

	alice.handleEvent(ctx, event(t, models.EventSendNotification, models.SendNotificationPayload{
		TargetUserID: bob.userID,
		Message:      "ping",
	}))

	evt := recvEvent(t, bob)
	require.Equal(t, models.EventNewNotification, evt.Name)
	var p models.NewNotificationPayload
	require.NoError(t, json.Unmarshal(evt.Data, &p))
	assert.Equal(t, "ping", p.Message)

	assertNoEvent(t, alice)
	assertNoEvent(t, carol)

	notifs, err := f.db.ListNotifications(ctx, bob.userID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.False(t, notifs[0].IsRead)
}

func TestUserRegisteredAnnouncement(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")

	alice.handleEvent(ctx, &models.Event{Name: models.EventUserRegistered})

	// Sender gets a private ack and the broadcast.
	aliceEvents := recvEvents(t, alice, 2)
	assert.Contains(t, aliceEvents, models.EventRegistered)
	assert.Contains(t, aliceEvents, models.EventNewUserRegistered)

	evt := recvEvent(t, bob)
	assert.Equal(t, models.EventNewUserRegistered, evt.Name)
}

func TestJoinAndLeaveEvents(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	alice := f.connect(t, "alice")

	alice.handleEvent(ctx, event(t, models.EventJoinRoom, models.JoinRoomPayload{Room: "chatRoom"}))
	f.hub.ToRoom("chatRoom", models.EventReceiveMessage, nil)
	recvEvent(t, alice)

	alice.handleEvent(ctx, event(t, models.EventLeaveRoom, models.JoinRoomPayload{Room: "chatRoom"}))
	f.hub.ToRoom("chatRoom", models.EventReceiveMessage, nil)
	assertNoEvent(t, alice)
}

func TestSlowConsumerDropDoesNotRaceCallerEvents(t *testing.T) {
	f := newRelayFixture(t)

	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")

	// Overflow alice's send buffer so the hub drops her connection.
	for i := 0; i < 300; i++ {
		f.hub.ToUser(alice.userID, models.EventNewNotification, nil)
	}

	// Once bob sees this broadcast the run loop has worked through the
	// backlog, including the drop.
	f.hub.ToAll(models.EventGlobalUpdate, nil)
	recvEvent(t, bob)

	// Drain alice's buffer down to the close.
	closed := false
	for i := 0; i < 512 && !closed; i++ {
		select {
		case _, ok := <-alice.send:
			closed = !ok
		case <-time.After(time.Second):
			t.Fatal("send channel was not closed after drop")
		}
	}
	require.True(t, closed)

	// A caller-scoped event from the dead connection's read path must be a
	// no-op, never a send on the closed channel.
	require.NotPanics(t, func() {
		alice.sendEvent(models.EventRegistered, "still here")
	})

	// The hub keeps serving everyone else.
	f.hub.ToAll(models.EventGlobalUpdate, nil)
	evt := recvEvent(t, bob)
	assert.Equal(t, models.EventGlobalUpdate, evt.Name)
}

func TestUnknownEventIsIgnored(t *testing.T) {
	f := newRelayFixture(t)

	alice := f.connect(t, "alice")
	alice.handleEvent(context.Background(), &models.Event{Name: "definitelyNotAnEvent"})

	assertNoEvent(t, alice)
}
