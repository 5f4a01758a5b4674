package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// ChatRepository stores chat metadata and append-only message logs.
// All operations are scoped to the owning user.
type ChatRepository interface {
	// Create inserts chat metadata.
	Create(ctx context.Context, userID uuid.UUID, c model.ChatSession) error
	// ListByUser returns chats newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ChatSession, error)
	// Rename updates a chat title (server-assigned after the first exchange).
	Rename(ctx context.Context, userID uuid.UUID, chatID, title string) error
	// Delete removes a chat and its messages.
	Delete(ctx context.Context, userID uuid.UUID, chatID string) error

	// History returns the ordered message log; ErrNotFound for a foreign chat.
	History(ctx context.Context, userID uuid.UUID, chatID string) ([]model.Message, error)
	// AppendMessage appends to the log tail. Messages are never mutated.
	AppendMessage(ctx context.Context, userID uuid.UUID, chatID string, m model.Message) error
}
