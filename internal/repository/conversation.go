package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adpilot/adpilot/internal/model"
)

// ErrConversationNotFound indicates a conversation lookup miss.
var ErrConversationNotFound = errors.New("conversation not found")

// CreateConversation inserts a new conversation.
func (r *Repository) CreateConversation(ctx context.Context, c *model.Conversation) error {
	query := `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, c.ID, c.UserID, c.Title, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// GetConversation retrieves a conversation by ID, scoped to its user.
func (r *Repository) GetConversation(ctx context.Context, id, userID string) (*model.Conversation, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2
	`

	var c model.Conversation
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return &c, nil
}

// ListConversations retrieves all conversations for a user, most recent first.
func (r *Repository) ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, &c)
	}

	return conversations, rows.Err()
}

// TouchConversation bumps updated_at after new messages arrive.
func (r *Repository) TouchConversation(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE conversations SET updated_at = $2 WHERE id = $1`, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

// CreateMessage appends a message to a conversation.
func (r *Repository) CreateMessage(ctx context.Context, m *model.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, role, content, tool_name, tool_input, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.ConversationID,
		m.Role,
		m.Content,
		m.ToolName,
		m.ToolInput,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// ListMessages retrieves all messages in a conversation.
// Message IDs are ULIDs, so ordering by ID yields creation order.
func (r *Repository) ListMessages(ctx context.Context, conversationID string) ([]*model.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, tool_name, tool_input, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.Role,
			&m.Content,
			&m.ToolName,
			&m.ToolInput,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}

	return messages, rows.Err()
}
