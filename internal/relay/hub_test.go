package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Digital231/lastDance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID int, username string, deps Deps) *Client {
	return NewClient(hub, nil, &models.User{ID: userID, Username: username}, deps)
}

// recvEvent waits for one event on the client's send channel.
func recvEvent(t *testing.T, c *Client) models.Event {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var evt models.Event
		require.NoError(t, json.Unmarshal(data, &evt))
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return models.Event{}
	}
}

// recvEvents collects n events and returns them keyed by name.
func recvEvents(t *testing.T, c *Client, n int) map[models.EventName]models.Event {
	t.Helper()
	events := make(map[models.EventName]models.Event, n)
	for i := 0; i < n; i++ {
		evt := recvEvent(t, c)
		events[evt.Name] = evt
	}
	return events
}

// assertNoEvent asserts that nothing is delivered to the client. A closed
// send channel also counts as no delivery.
func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if ok {
			t.Fatalf("unexpected event: %s", data)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRoomBroadcastOnlyReachesJoined(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := newTestClient(hub, 1, "alice", Deps{})
	bob := newTestClient(hub, 2, "bob", Deps{})
	carol := newTestClient(hub, 3, "carol", Deps{})
	for _, c := range []*Client{alice, bob, carol} {
		hub.Register(c)
	}
	hub.Join(alice, "chatRoom")
	hub.Join(bob, "chatRoom")

	hub.ToRoom("chatRoom", models.EventReceiveMessage, map[string]string{"content": "hi"})

	for _, c := range []*Client{alice, bob} {
		evt := recvEvent(t, c)
		assert.Equal(t, models.EventReceiveMessage, evt.Name)
	}
	// carol never joined and receives nothing, regardless of room activity
	assertNoEvent(t, carol)
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := newTestClient(hub, 1, "alice", Deps{})
	hub.Register(alice)
	hub.Join(alice, "chatRoom")
	hub.Join(alice, "chatRoom")

	hub.ToRoom("chatRoom", models.EventReceiveMessage, nil)

	recvEvent(t, alice)
	assertNoEvent(t, alice)
}

func TestLeaveWithoutJoinIsNoOp(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := newTestClient(hub, 1, "alice", Deps{})
	hub.Register(alice)
	hub.Leave(alice, "chatRoom")

	hub.ToRoom("chatRoom", models.EventReceiveMessage, nil)
	assertNoEvent(t, alice)
}

func TestRegistryLastConnectionWins(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := newTestClient(hub, 1, "alice", Deps{})
	second := newTestClient(hub, 1, "alice", Deps{})
	hub.Register(first)
	hub.Register(second)

	hub.ToUser(1, models.EventNewNotification, nil)
	recvEvent(t, second)
	assertNoEvent(t, first)

	// The stale connection's teardown must not evict the live one.
	hub.Unregister(first)
	hub.ToUser(1, models.EventNewNotification, nil)
	recvEvent(t, second)
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := newTestClient(hub, 1, "alice", Deps{})
	bob := newTestClient(hub, 2, "bob", Deps{})
	hub.Register(alice)
	hub.Register(bob)
	hub.Join(alice, "chatRoom")
	hub.Join(bob, "chatRoom")

	hub.Unregister(alice)

	hub.ToRoom("chatRoom", models.EventReceiveMessage, nil)
	recvEvent(t, bob)
	assertNoEvent(t, alice)
}

func TestToUserForUnknownUserIsNoOp(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := newTestClient(hub, 1, "alice", Deps{})
	hub.Register(alice)

	hub.ToUser(42, models.EventNewNotification, nil)
	hub.ToAll(models.EventGlobalUpdate, nil)

	// The broadcast after the dangling direct delivery still arrives, so the
	// no-op did not wedge the run loop.
	evt := recvEvent(t, alice)
	assert.Equal(t, models.EventGlobalUpdate, evt.Name)
}
