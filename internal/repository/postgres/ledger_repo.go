package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// LedgerRepo implements LedgerRepository using PostgreSQL.
type LedgerRepo struct{ db *DB }

// NewLedgerRepo constructs a ledger repository.
func NewLedgerRepo(db *DB) *LedgerRepo { return &LedgerRepo{db: db} }

// Append records one transaction.
func (r *LedgerRepo) Append(ctx context.Context, userID uuid.UUID, t model.Transaction) error {
	const q = `
INSERT INTO transactions (user_id, date, description, amount)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, userID, t.Date, t.Description, t.Amount)
	return err
}

// ListByUser returns transactions oldest first.
func (r *LedgerRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Transaction, error) {
	const q = `
SELECT date, description, amount
FROM transactions WHERE user_id=$1
ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err = rows.Scan(&t.Date, &t.Description, &t.Amount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
