// Package fake provides an in-memory Database implementation for package
// tests. Behavior mirrors the Postgres store, including caller-scoped
// not-found semantics.
package fake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Digital231/lastDance/internal/database"
	"github.com/Digital231/lastDance/internal/models"

	"golang.org/x/crypto/bcrypt"
)

type DB struct {
	mu sync.Mutex

	nextUserID         int
	nextMessageID      int
	nextConversationID int
	nextConvMessageID  int
	nextNotificationID int

	users         map[int]*models.User
	messages      map[int]*chatMessage
	conversations map[int]*conversation
	convMessages  map[int]*convMessage
	notifications map[int]*notification

	// FailWrites makes every mutating call return this error, for testing
	// the persist-before-broadcast contract.
	FailWrites error
}

type chatMessage struct {
	id        int
	content   string
	senderID  int
	room      string
	likes     map[int]bool
	createdAt time.Time
}

type conversation struct {
	id           int
	participants map[int]bool
	createdAt    time.Time
	updatedAt    time.Time
}

type convMessage struct {
	id             int
	conversationID int
	senderID       int
	content        string
	createdAt      time.Time
}

type notification struct {
	id             int
	senderID       int
	receiverID     int
	text           string
	isRead         bool
	conversationID *int
	createdAt      time.Time
}

func New() *DB {
	return &DB{
		users:         make(map[int]*models.User),
		messages:      make(map[int]*chatMessage),
		conversations: make(map[int]*conversation),
		convMessages:  make(map[int]*convMessage),
		notifications: make(map[int]*notification),
	}
}

func (db *DB) Close() error { return nil }

// User repository

func (db *DB) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return nil, db.FailWrites
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	db.nextUserID++
	user := &models.User{
		ID:           db.nextUserID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	db.users[user.ID] = user

	clone := *user
	return &clone, nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, user := range db.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, database.ErrNotFound
}

func (db *DB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.getUserLocked(id)
}

func (db *DB) getUserLocked(id int) (*models.User, error) {
	user, ok := db.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var users []*models.User
	for _, user := range db.users {
		clone := *user
		clone.PasswordHash = ""
		users = append(users, &clone)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return db.FailWrites
	}

	stored, ok := db.users[user.ID]
	if !ok {
		return database.ErrNotFound
	}
	stored.Username = user.Username
	stored.Avatar = user.Avatar
	stored.PasswordHash = user.PasswordHash
	return nil
}

// Message repository

func (db *DB) SaveChatMessage(ctx context.Context, senderID int, room, content string) (*models.ChatMessage, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return nil, db.FailWrites
	}

	sender, err := db.getUserLocked(senderID)
	if err != nil {
		return nil, err
	}

	db.nextMessageID++
	msg := &chatMessage{
		id:        db.nextMessageID,
		content:   content,
		senderID:  senderID,
		room:      room,
		likes:     make(map[int]bool),
		createdAt: time.Now(),
	}
	db.messages[msg.id] = msg

	return db.toChatMessageLocked(msg, sender), nil
}

func (db *DB) toChatMessageLocked(msg *chatMessage, sender *models.User) *models.ChatMessage {
	likes := make([]int, 0, len(msg.likes))
	for id := range msg.likes {
		likes = append(likes, id)
	}
	sort.Ints(likes)
	return &models.ChatMessage{
		ID:        msg.id,
		Content:   msg.content,
		Sender:    sender.Ref(),
		Room:      msg.room,
		Likes:     likes,
		CreatedAt: msg.createdAt,
	}
}

func (db *DB) GetRoomMessages(ctx context.Context, room string) ([]*models.ChatMessage, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []*models.ChatMessage
	for _, msg := range db.messages {
		if msg.room != room {
			continue
		}
		sender, err := db.getUserLocked(msg.senderID)
		if err != nil {
			return nil, err
		}
		out = append(out, db.toChatMessageLocked(msg, sender))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (db *DB) GetChatMessage(ctx context.Context, id int) (*models.ChatMessage, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	msg, ok := db.messages[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	sender, err := db.getUserLocked(msg.senderID)
	if err != nil {
		return nil, err
	}
	return db.toChatMessageLocked(msg, sender), nil
}

func (db *DB) AddLike(ctx context.Context, messageID, userID int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return db.FailWrites
	}

	msg, ok := db.messages[messageID]
	if !ok {
		return database.ErrNotFound
	}
	msg.likes[userID] = true
	return nil
}

func (db *DB) RemoveLike(ctx context.Context, messageID, userID int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return db.FailWrites
	}

	msg, ok := db.messages[messageID]
	if !ok {
		return database.ErrNotFound
	}
	delete(msg.likes, userID)
	return nil
}

// Conversation repository

func (db *DB) CreateConversation(ctx context.Context, participantIDs []int) (*models.Conversation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return nil, db.FailWrites
	}

	db.nextConversationID++
	conv := &conversation{
		id:           db.nextConversationID,
		participants: make(map[int]bool),
		createdAt:    time.Now(),
		updatedAt:    time.Now(),
	}
	for _, id := range participantIDs {
		conv.participants[id] = true
	}
	db.conversations[conv.id] = conv

	return db.toConversationLocked(conv)
}

func (db *DB) toConversationLocked(conv *conversation) (*models.Conversation, error) {
	ids := make([]int, 0, len(conv.participants))
	for id := range conv.participants {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := &models.Conversation{
		ID:        conv.id,
		CreatedAt: conv.createdAt,
		UpdatedAt: conv.updatedAt,
	}
	for _, id := range ids {
		user, err := db.getUserLocked(id)
		if err != nil {
			return nil, err
		}
		out.Participants = append(out.Participants, user.Ref())
	}
	return out, nil
}

func (db *DB) GetConversation(ctx context.Context, conversationID int) (*models.Conversation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	conv, ok := db.conversations[conversationID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return db.toConversationLocked(conv)
}

func (db *DB) ListUserConversations(ctx context.Context, userID int) ([]*models.Conversation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []*models.Conversation
	for _, conv := range db.conversations {
		if !conv.participants[userID] {
			continue
		}
		c, err := db.toConversationLocked(conv)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (db *DB) IsParticipant(ctx context.Context, conversationID, userID int) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	conv, ok := db.conversations[conversationID]
	if !ok {
		return false, nil
	}
	return conv.participants[userID], nil
}

func (db *DB) AddParticipant(ctx context.Context, conversationID, userID int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return db.FailWrites
	}

	conv, ok := db.conversations[conversationID]
	if !ok {
		return database.ErrNotFound
	}
	conv.participants[userID] = true
	return nil
}

func (db *DB) DeleteConversation(ctx context.Context, conversationID int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return db.FailWrites
	}

	if _, ok := db.conversations[conversationID]; !ok {
		return database.ErrNotFound
	}
	delete(db.conversations, conversationID)
	for id, msg := range db.convMessages {
		if msg.conversationID == conversationID {
			delete(db.convMessages, id)
		}
	}
	return nil
}

func (db *DB) SaveConversationMessage(ctx context.Context, conversationID, senderID int, content string) (*models.ConversationMessage, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return nil, db.FailWrites
	}

	conv, ok := db.conversations[conversationID]
	if !ok {
		return nil, database.ErrNotFound
	}
	sender, err := db.getUserLocked(senderID)
	if err != nil {
		return nil, err
	}

	db.nextConvMessageID++
	msg := &convMessage{
		id:             db.nextConvMessageID,
		conversationID: conversationID,
		senderID:       senderID,
		content:        content,
		createdAt:      time.Now(),
	}
	db.convMessages[msg.id] = msg
	conv.updatedAt = time.Now()

	return &models.ConversationMessage{
		ID:             msg.id,
		ConversationID: conversationID,
		Sender:         sender.Ref(),
		Content:        content,
		CreatedAt:      msg.createdAt,
	}, nil
}

func (db *DB) GetConversationMessages(ctx context.Context, conversationID int) ([]*models.ConversationMessage, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []*models.ConversationMessage
	for _, msg := range db.convMessages {
		if msg.conversationID != conversationID {
			continue
		}
		sender, err := db.getUserLocked(msg.senderID)
		if err != nil {
			return nil, err
		}
		out = append(out, &models.ConversationMessage{
			ID:             msg.id,
			ConversationID: msg.conversationID,
			Sender:         sender.Ref(),
			Content:        msg.content,
			CreatedAt:      msg.createdAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Notification repository

func (db *DB) CreateNotification(ctx context.Context, senderID, receiverID int, text string, conversationID *int) (*models.Notification, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return nil, db.FailWrites
	}

	sender, err := db.getUserLocked(senderID)
	if err != nil {
		return nil, err
	}

	db.nextNotificationID++
	notif := &notification{
		id:             db.nextNotificationID,
		senderID:       senderID,
		receiverID:     receiverID,
		text:           text,
		conversationID: conversationID,
		createdAt:      time.Now(),
	}
	db.notifications[notif.id] = notif

	return db.toNotificationLocked(notif, sender), nil
}

func (db *DB) toNotificationLocked(notif *notification, sender *models.User) *models.Notification {
	return &models.Notification{
		ID:             notif.id,
		Sender:         sender.Ref(),
		ReceiverID:     notif.receiverID,
		Text:           notif.text,
		IsRead:         notif.isRead,
		ConversationID: notif.conversationID,
		CreatedAt:      notif.createdAt,
	}
}

func (db *DB) ListNotifications(ctx context.Context, receiverID int) ([]*models.Notification, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []*models.Notification
	for _, notif := range db.notifications {
		if notif.receiverID != receiverID {
			continue
		}
		sender, err := db.getUserLocked(notif.senderID)
		if err != nil {
			return nil, err
		}
		out = append(out, db.toNotificationLocked(notif, sender))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (db *DB) MarkNotificationRead(ctx context.Context, notificationID, receiverID int) (*models.Notification, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return nil, db.FailWrites
	}

	notif, ok := db.notifications[notificationID]
	if !ok || notif.receiverID != receiverID {
		return nil, database.ErrNotFound
	}
	notif.isRead = true

	sender, err := db.getUserLocked(notif.senderID)
	if err != nil {
		return nil, err
	}
	return db.toNotificationLocked(notif, sender), nil
}

func (db *DB) DeleteNotification(ctx context.Context, notificationID, receiverID int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.FailWrites != nil {
		return db.FailWrites
	}

	notif, ok := db.notifications[notificationID]
	if !ok || notif.receiverID != receiverID {
		return database.ErrNotFound
	}
	delete(db.notifications, notificationID)
	return nil
}
