package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/Digital231/lastDance/internal/models"
	"github.com/Digital231/lastDance/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// User Repository Implementation

func (db *PostgresDB) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, password_hash, avatar, created_at)
		VALUES ($1, $2, '', NOW())
		RETURNING id, username, avatar, created_at`

	user := &models.User{PasswordHash: string(hash)}
	err = db.pool.QueryRow(ctx, query, username, string(hash)).Scan(
		&user.ID, &user.Username, &user.Avatar, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (db *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, avatar, password_hash, created_at FROM users WHERE username = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Avatar, &user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, username, avatar, password_hash, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Avatar, &user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresDB) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, username, avatar, created_at FROM users ORDER BY username`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Avatar, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (db *PostgresDB) UpdateUser(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET username = $2, avatar = $3, password_hash = $4 WHERE id = $1`

	tag, err := db.pool.Exec(ctx, query, user.ID, user.Username, user.Avatar, user.PasswordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Message Repository Implementation

func (db *PostgresDB) SaveChatMessage(ctx context.Context, senderID int, room, content string) (*models.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (sender_id, room, content, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, content, room, created_at`

	msg := &models.ChatMessage{Likes: []int{}}
	err := db.pool.QueryRow(ctx, query, senderID, room, content).Scan(
		&msg.ID, &msg.Content, &msg.Room, &msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	sender, err := db.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	msg.Sender = sender.Ref()

	return msg, nil
}

const chatMessageQuery = `
	SELECT m.id, m.content, m.room, m.created_at,
	       u.id, u.username, u.avatar,
	       COALESCE(array_agg(l.user_id) FILTER (WHERE l.user_id IS NOT NULL), '{}')
	FROM chat_messages m
	JOIN users u ON m.sender_id = u.id
	LEFT JOIN message_likes l ON l.message_id = m.id`

func (db *PostgresDB) GetRoomMessages(ctx context.Context, room string) ([]*models.ChatMessage, error) {
	query := chatMessageQuery + `
		WHERE m.room = $1
		GROUP BY m.id, u.id
		ORDER BY m.created_at ASC`

	rows, err := db.pool.Query(ctx, query, room)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		msg, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PostgresDB) GetChatMessage(ctx context.Context, id int) (*models.ChatMessage, error) {
	query := chatMessageQuery + `
		WHERE m.id = $1
		GROUP BY m.id, u.id`

	msg, err := scanChatMessage(db.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func scanChatMessage(row pgx.Row) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{}
	err := row.Scan(
		&msg.ID, &msg.Content, &msg.Room, &msg.CreatedAt,
		&msg.Sender.ID, &msg.Sender.Username, &msg.Sender.Avatar,
		&msg.Likes,
	)
	if err != nil {
		return nil, err
	}
	if msg.Likes == nil {
		msg.Likes = []int{}
	}
	return msg, nil
}

func (db *PostgresDB) AddLike(ctx context.Context, messageID, userID int) error {
	query := `
		INSERT INTO message_likes (message_id, user_id) VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO NOTHING`

	_, err := db.pool.Exec(ctx, query, messageID, userID)
	return err
}

func (db *PostgresDB) RemoveLike(ctx context.Context, messageID, userID int) error {
	query := `DELETE FROM message_likes WHERE message_id = $1 AND user_id = $2`
	_, err := db.pool.Exec(ctx, query, messageID, userID)
	return err
}

// Conversation Repository Implementation

func (db *PostgresDB) CreateConversation(ctx context.Context, participantIDs []int) (*models.Conversation, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	conv := &models.Conversation{}
	err = tx.QueryRow(ctx, `
		INSERT INTO conversations (created_at, updated_at) VALUES (NOW(), NOW())
		RETURNING id, created_at, updated_at`,
	).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	for _, userID := range participantIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)
			ON CONFLICT (conversation_id, user_id) DO NOTHING`,
			conv.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to add participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	conv.Participants, err = db.getParticipants(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (db *PostgresDB) GetConversation(ctx context.Context, conversationID int) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := db.pool.QueryRow(ctx,
		`SELECT id, created_at, updated_at FROM conversations WHERE id = $1`,
		conversationID,
	).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	conv.Participants, err = db.getParticipants(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (db *PostgresDB) getParticipants(ctx context.Context, conversationID int) ([]models.UserRef, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT u.id, u.username, u.avatar
		FROM conversation_participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.conversation_id = $1
		ORDER BY u.username`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.UserRef
	for rows.Next() {
		var ref models.UserRef
		if err := rows.Scan(&ref.ID, &ref.Username, &ref.Avatar); err != nil {
			return nil, err
		}
		participants = append(participants, ref)
	}

	return participants, rows.Err()
}

func (db *PostgresDB) ListUserConversations(ctx context.Context, userID int) ([]*models.Conversation, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT c.id, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = $1
		ORDER BY c.updated_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conv := &models.Conversation{}
		if err := rows.Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, conv := range conversations {
		if conv.Participants, err = db.getParticipants(ctx, conv.ID); err != nil {
			return nil, err
		}
	}

	return conversations, nil
}

func (db *PostgresDB) IsParticipant(ctx context.Context, conversationID, userID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`

	var exists bool
	err := db.pool.QueryRow(ctx, query, conversationID, userID).Scan(&exists)
	return exists, err
}

func (db *PostgresDB) AddParticipant(ctx context.Context, conversationID, userID int) error {
	query := `
		INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)
		ON CONFLICT (conversation_id, user_id) DO NOTHING`

	_, err := db.pool.Exec(ctx, query, conversationID, userID)
	return err
}

func (db *PostgresDB) DeleteConversation(ctx context.Context, conversationID int) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM conversation_messages WHERE conversation_id = $1`, conversationID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM conversation_participants WHERE conversation_id = $1`, conversationID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, conversationID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (db *PostgresDB) SaveConversationMessage(ctx context.Context, conversationID, senderID int, content string) (*models.ConversationMessage, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	msg := &models.ConversationMessage{ConversationID: conversationID}
	err = tx.QueryRow(ctx, `
		INSERT INTO conversation_messages (conversation_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, content, created_at`,
		conversationID, senderID, content,
	).Scan(&msg.ID, &msg.Content, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save conversation message: %w", err)
	}

	// A new message moves the conversation to the top of the listing.
	if _, err := tx.Exec(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, conversationID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	sender, err := db.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	msg.Sender = sender.Ref()

	return msg, nil
}

func (db *PostgresDB) GetConversationMessages(ctx context.Context, conversationID int) ([]*models.ConversationMessage, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT m.id, m.conversation_id, m.content, m.created_at,
		       u.id, u.username, u.avatar
		FROM conversation_messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at ASC`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ConversationMessage
	for rows.Next() {
		msg := &models.ConversationMessage{}
		err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.Content, &msg.CreatedAt,
			&msg.Sender.ID, &msg.Sender.Username, &msg.Sender.Avatar,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// Notification Repository Implementation

func (db *PostgresDB) CreateNotification(ctx context.Context, senderID, receiverID int, text string, conversationID *int) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (sender_id, receiver_id, text, conversation_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, false, NOW())
		RETURNING id, text, is_read, conversation_id, created_at`

	notif := &models.Notification{ReceiverID: receiverID}
	err := db.pool.QueryRow(ctx, query, senderID, receiverID, text, conversationID).Scan(
		&notif.ID, &notif.Text, &notif.IsRead, &notif.ConversationID, &notif.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	sender, err := db.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	notif.Sender = sender.Ref()

	return notif, nil
}

func (db *PostgresDB) ListNotifications(ctx context.Context, receiverID int) ([]*models.Notification, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT n.id, n.receiver_id, n.text, n.is_read, n.conversation_id, n.created_at,
		       u.id, u.username
		FROM notifications n
		JOIN users u ON n.sender_id = u.id
		WHERE n.receiver_id = $1
		ORDER BY n.created_at DESC`,
		receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		notif := &models.Notification{}
		err := rows.Scan(
			&notif.ID, &notif.ReceiverID, &notif.Text, &notif.IsRead, &notif.ConversationID, &notif.CreatedAt,
			&notif.Sender.ID, &notif.Sender.Username,
		)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notif)
	}

	return notifications, rows.Err()
}

func (db *PostgresDB) MarkNotificationRead(ctx context.Context, notificationID, receiverID int) (*models.Notification, error) {
	query := `
		UPDATE notifications SET is_read = true
		WHERE id = $1 AND receiver_id = $2
		RETURNING id, sender_id, receiver_id, text, is_read, conversation_id, created_at`

	notif := &models.Notification{}
	var senderID int
	err := db.pool.QueryRow(ctx, query, notificationID, receiverID).Scan(
		&notif.ID, &senderID, &notif.ReceiverID, &notif.Text, &notif.IsRead, &notif.ConversationID, &notif.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sender, err := db.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	notif.Sender = sender.Ref()

	return notif, nil
}

func (db *PostgresDB) DeleteNotification(ctx context.Context, notificationID, receiverID int) error {
	query := `DELETE FROM notifications WHERE id = $1 AND receiver_id = $2`

	tag, err := db.pool.Exec(ctx, query, notificationID, receiverID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
