package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/errs"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, email, full_name, pwd_hash, salt, favorites, coins)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Email, u.FullName, u.PwdHash, u.Salt, u.Favorites, u.Coins)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `
SELECT id, email, full_name, pwd_hash, salt, favorites, coins, created_at
FROM users WHERE id=$1`
	return r.scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByEmail selects a user by login email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
SELECT id, email, full_name, pwd_hash, salt, favorites, coins, created_at
FROM users WHERE email=$1`
	return r.scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

func (r *UserRepo) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PwdHash, &u.Salt, &u.Favorites, &u.Coins, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

// SetFavorites stores the favorites text and the server-decided balance together.
func (r *UserRepo) SetFavorites(ctx context.Context, id uuid.UUID, favorites string, coins int64) error {
	const q = `UPDATE users SET favorites=$2, coins=$3 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, favorites, coins)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SpendCoins decrements the balance only when it covers the cost.
func (r *UserRepo) SpendCoins(ctx context.Context, id uuid.UUID, cost int64) (int64, error) {
	const q = `
UPDATE users SET coins = coins - $2
WHERE id=$1 AND coins >= $2
RETURNING coins`
	var balance int64
	if err := r.db.Pool.QueryRow(ctx, q, id, cost).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrInsufficientBalance
		}
		return 0, err
	}
	return balance, nil
}

// SaveFavorites stores the favorites text and applies the first-save bonus.
// The bonus update is guarded on the stored text still being empty; the row
// lock serializes concurrent saves, so at most one of them gets the bonus.
func (r *UserRepo) SaveFavorites(ctx context.Context, id uuid.UUID, favorites string, bonus int64) (int64, bool, error) {
	const qBonus = `UPDATE users SET favorites = $2, coins = coins + $3 WHERE id=$1 AND favorites = '' RETURNING coins`
	var balance int64
	err := r.db.Pool.QueryRow(ctx, qBonus, id, favorites, bonus).Scan(&balance)
	if err == nil {
		return balance, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	const q = `UPDATE users SET favorites = $2 WHERE id=$1 RETURNING coins`
	if err := r.db.Pool.QueryRow(ctx, q, id, favorites).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, errs.ErrNotFound
		}
		return 0, false, err
	}
	return balance, false, nil
}

// ListFacts returns learned facts in insertion order.
func (r *UserRepo) ListFacts(ctx context.Context, userID uuid.UUID) ([]model.Fact, error) {
	const q = `SELECT text, created_at FROM user_facts WHERE user_id=$1 ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Fact
	for rows.Next() {
		var f model.Fact
		if err = rows.Scan(&f.Text, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ReplaceFacts overwrites the whole fact list in one transaction.
func (r *UserRepo) ReplaceFacts(ctx context.Context, userID uuid.UUID, texts []string) (err error) {
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

	const del = `DELETE FROM user_facts WHERE user_id=$1`
	const ins = `INSERT INTO user_facts (user_id, text) VALUES ($1, $2)`
	if _, err = tx.Exec(ctx, del, userID); err != nil {
		return err
	}
	for _, t := range texts {
		if _, err = tx.Exec(ctx, ins, userID, t); err != nil {
			return err
		}
	}
	return nil
}

// AddFacts appends newly extracted facts.
func (r *UserRepo) AddFacts(ctx context.Context, userID uuid.UUID, texts []string) error {
	const q = `INSERT INTO user_facts (user_id, text) VALUES ($1, $2)`
	for _, t := range texts {
		if _, err := r.db.Pool.Exec(ctx, q, userID, t); err != nil {
			return err
		}
	}
	return nil
}
