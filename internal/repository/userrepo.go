// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// UserRepository provides account, balance and memory access.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by login email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// SetFavorites stores favorites text and the server-decided balance atomically.
	SetFavorites(ctx context.Context, id uuid.UUID, favorites string, coins int64) error
	// SaveFavorites stores the favorites text and applies the first-save
	// bonus in one guarded update, so concurrent saves grant it at most
	// once. Returns the new balance and whether the bonus landed.
	SaveFavorites(ctx context.Context, id uuid.UUID, favorites string, bonus int64) (coins int64, granted bool, err error)
	// SpendCoins atomically decrements the balance, failing with
	// ErrInsufficientBalance when coins < cost. Returns the new balance.
	SpendCoins(ctx context.Context, id uuid.UUID, cost int64) (int64, error)

	// ListFacts returns learned facts in insertion order.
	ListFacts(ctx context.Context, userID uuid.UUID) ([]model.Fact, error)
	// ReplaceFacts overwrites the whole fact list (no partial patch).
	ReplaceFacts(ctx context.Context, userID uuid.UUID, texts []string) error
	// AddFacts appends newly extracted facts.
	AddFacts(ctx context.Context, userID uuid.UUID, texts []string) error
}

// LedgerRepository records balance changes as an append-only ledger.
type LedgerRepository interface {
	// Append records one transaction.
	Append(ctx context.Context, userID uuid.UUID, t model.Transaction) error
	// ListByUser returns transactions oldest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Transaction, error)
}
