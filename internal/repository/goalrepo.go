package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// GoalRepository stores goals with their serialized subtask documents.
type GoalRepository interface {
	// Create inserts a goal and returns it with id and created_at assigned.
	Create(ctx context.Context, userID uuid.UUID, g model.Goal) (model.Goal, error)
	// ListByUser returns goals newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Goal, error)
	// Get loads one goal; ErrNotFound for a foreign or missing goal.
	Get(ctx context.Context, userID uuid.UUID, id int64) (*model.Goal, error)
	// Update overwrites the full goal row (the service merges patches first).
	Update(ctx context.Context, userID uuid.UUID, g model.Goal) error
	// Delete removes a goal.
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
}
