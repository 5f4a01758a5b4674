package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/errs"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// ChatRepo implements ChatRepository using PostgreSQL.
type ChatRepo struct{ db *DB }

// NewChatRepo constructs a chat repository.
func NewChatRepo(db *DB) *ChatRepo { return &ChatRepo{db: db} }

// Create inserts chat metadata.
func (r *ChatRepo) Create(ctx context.Context, userID uuid.UUID, c model.ChatSession) error {
	const q = `
INSERT INTO chats (id, user_id, title, created_at)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, c.ID, userID, c.Title, c.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// ListByUser returns chats newest first.
func (r *ChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ChatSession, error) {
	const q = `
SELECT id, title, created_at
FROM chats WHERE user_id=$1
ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChatSession
	for rows.Next() {
		var c model.ChatSession
		if err = rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Rename updates a chat title.
func (r *ChatRepo) Rename(ctx context.Context, userID uuid.UUID, chatID, title string) error {
	const q = `UPDATE chats SET title=$3 WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, chatID, userID, title)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a chat and its messages.
func (r *ChatRepo) Delete(ctx context.Context, userID uuid.UUID, chatID string) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const delMsgs = `DELETE FROM chat_messages WHERE chat_id=$1`
	const delChat = `DELETE FROM chats WHERE id=$1 AND user_id=$2`
	tag, err := tx.Exec(ctx, delChat, chatID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	if _, err = tx.Exec(ctx, delMsgs, chatID); err != nil {
		return err
	}
	return nil
}

// History returns the ordered message log of an owned chat.
func (r *ChatRepo) History(ctx context.Context, userID uuid.UUID, chatID string) ([]model.Message, error) {
	if err := r.checkOwned(ctx, userID, chatID); err != nil {
		return nil, err
	}
	const q = `
SELECT role, content, mode
FROM chat_messages WHERE chat_id=$1
ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		if err = rows.Scan(&m.Role, &m.Content, &m.Mode); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AppendMessage appends to the log tail of an owned chat.
func (r *ChatRepo) AppendMessage(ctx context.Context, userID uuid.UUID, chatID string, m model.Message) error {
	if err := r.checkOwned(ctx, userID, chatID); err != nil {
		return err
	}
	const q = `INSERT INTO chat_messages (chat_id, role, content, mode) VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, chatID, m.Role, m.Content, m.Mode)
	return err
}

func (r *ChatRepo) checkOwned(ctx context.Context, userID uuid.UUID, chatID string) error {
	const q = `SELECT 1 FROM chats WHERE id=$1 AND user_id=$2`
	var one int
	if err := r.db.Pool.QueryRow(ctx, q, chatID, userID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}
	return nil
}
