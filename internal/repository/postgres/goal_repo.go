package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/errs"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// GoalRepo implements GoalRepository using PostgreSQL.
// Subtasks are stored as the canonical JSON document (see model.EncodeSubtasks).
type GoalRepo struct{ db *DB }

// NewGoalRepo constructs a goal repository.
func NewGoalRepo(db *DB) *GoalRepo { return &GoalRepo{db: db} }

// Create inserts a goal and returns it with id and created_at assigned.
func (r *GoalRepo) Create(ctx context.Context, userID uuid.UUID, g model.Goal) (model.Goal, error) {
	const q = `
INSERT INTO goals (user_id, title, description, duration, duration_unit, priority, status, subtasks)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at`
	doc := model.EncodeSubtasks(g.Subtasks)
	row := r.db.Pool.QueryRow(ctx, q,
		userID, g.Title, g.Description, g.Duration, g.DurationUnit, g.Priority, g.Status, doc)
	if err := row.Scan(&g.ID, &g.CreatedAt); err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

// ListByUser returns goals newest first.
func (r *GoalRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Goal, error) {
	const q = `
SELECT id, title, description, duration, duration_unit, priority, status, subtasks, created_at
FROM goals WHERE user_id=$1
ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Get loads one goal; ErrNotFound for a foreign or missing goal.
func (r *GoalRepo) Get(ctx context.Context, userID uuid.UUID, id int64) (*model.Goal, error) {
	const q = `
SELECT id, title, description, duration, duration_unit, priority, status, subtasks, created_at
FROM goals WHERE id=$1 AND user_id=$2`
	g, err := scanGoal(r.db.Pool.QueryRow(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// Update overwrites the full goal row.
func (r *GoalRepo) Update(ctx context.Context, userID uuid.UUID, g model.Goal) error {
	const q = `
UPDATE goals
SET title=$3, description=$4, duration=$5, duration_unit=$6, priority=$7, status=$8, subtasks=$9
WHERE id=$1 AND user_id=$2`
	doc := model.EncodeSubtasks(g.Subtasks)
	tag, err := r.db.Pool.Exec(ctx, q,
		g.ID, userID, g.Title, g.Description, g.Duration, g.DurationUnit, g.Priority, g.Status, doc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a goal.
func (r *GoalRepo) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	const q = `DELETE FROM goals WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func scanGoal(row pgx.Row) (model.Goal, error) {
	var (
		g   model.Goal
		doc string
	)
	err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Duration, &g.DurationUnit,
		&g.Priority, &g.Status, &doc, &g.CreatedAt)
	if err != nil {
		return model.Goal{}, err
	}
	subtasks, err := model.ParseSubtasks(doc)
	if err != nil {
		return model.Goal{}, err
	}
	g.Subtasks = subtasks
	return g, nil
}
