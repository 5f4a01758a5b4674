package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/errs"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := &model.User{
		ID:       uuid.Must(uuid.NewV4()),
		Email:    "u@lumina.app",
		FullName: "U",
		PwdHash:  []byte("h"),
		Salt:     []byte("s"),
		Coins:    0,
	}

	// OK
	mock.ExpectExec(`INSERT INTO users \(id, email, full_name, pwd_hash, salt, favorites, coins\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\)`).
		WithArgs(u.ID, u.Email, u.FullName, u.PwdHash, u.Salt, u.Favorites, u.Coins).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, u))

	// Unique violation on email
	mock.ExpectExec(`INSERT INTO users \(id, email, full_name, pwd_hash, salt, favorites, coins\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\)`).
		WithArgs(u.ID, u.Email, u.FullName, u.PwdHash, u.Salt, u.Favorites, u.Coins).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	err := r.Create(ctx, u)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	email := "u2@lumina.app"
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT id, email, full_name, pwd_hash, salt, favorites, coins, created_at FROM users WHERE email=\$1`).
		WithArgs(email).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "pwd_hash", "salt", "favorites", "coins", "created_at"}).
			AddRow(id, email, "U Two", []byte("h"), []byte("s"), "space, robots", int64(150), time.Now()))
	u, err := r.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, email, u.Email)
	require.Equal(t, int64(150), u.Coins)

	mock.ExpectQuery(`SELECT id, email, full_name, pwd_hash, salt, favorites, coins, created_at FROM users WHERE email=\$1`).
		WithArgs(email).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByEmail(ctx, email)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_SpendCoins(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE users SET coins = coins - \$2 WHERE id=\$1 AND coins >= \$2 RETURNING coins`).
		WithArgs(id, int64(30)).
		WillReturnRows(pgxmock.NewRows([]string{"coins"}).AddRow(int64(70)))
	balance, err := r.SpendCoins(ctx, id, 30)
	require.NoError(t, err)
	require.Equal(t, int64(70), balance)

	// the guarded UPDATE matches no row when the balance does not cover the cost
	mock.ExpectQuery(`UPDATE users SET coins = coins - \$2 WHERE id=\$1 AND coins >= \$2 RETURNING coins`).
		WithArgs(id, int64(500)).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.SpendCoins(ctx, id, 500)
	require.ErrorIs(t, err, errs.ErrInsufficientBalance)
}

func TestUserRepo_SetFavorites(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE users SET favorites=\$2, coins=\$3 WHERE id=\$1`).
		WithArgs(id, "astronomy", int64(100)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SetFavorites(ctx, id, "astronomy", 100))

	mock.ExpectExec(`UPDATE users SET favorites=\$2, coins=\$3 WHERE id=\$1`).
		WithArgs(id, "astronomy", int64(100)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err := r.SetFavorites(ctx, id, "astronomy", 100)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_SaveFavorites_BonusOnce(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	// first save: the guarded update matches and grants the bonus
	mock.ExpectQuery(`UPDATE users SET favorites = \$2, coins = coins \+ \$3 WHERE id=\$1 AND favorites = '' RETURNING coins`).
		WithArgs(id, "astronomy", int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"coins"}).AddRow(int64(110)))
	coins, granted, err := r.SaveFavorites(ctx, id, "astronomy", 100)
	require.NoError(t, err)
	require.True(t, granted)
	require.Equal(t, int64(110), coins)

	// second save: favorites already set, plain overwrite, no bonus
	mock.ExpectQuery(`UPDATE users SET favorites = \$2, coins = coins \+ \$3 WHERE id=\$1 AND favorites = '' RETURNING coins`).
		WithArgs(id, "music", int64(100)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`UPDATE users SET favorites = \$2 WHERE id=\$1 RETURNING coins`).
		WithArgs(id, "music").
		WillReturnRows(pgxmock.NewRows([]string{"coins"}).AddRow(int64(110)))
	coins, granted, err = r.SaveFavorites(ctx, id, "music", 100)
	require.NoError(t, err)
	require.False(t, granted)
	require.Equal(t, int64(110), coins)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SaveFavorites_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE users SET favorites = \$2, coins = coins \+ \$3 WHERE id=\$1 AND favorites = '' RETURNING coins`).
		WithArgs(id, "astronomy", int64(100)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`UPDATE users SET favorites = \$2 WHERE id=\$1 RETURNING coins`).
		WithArgs(id, "astronomy").
		WillReturnError(pgx.ErrNoRows)

	_, _, err := r.SaveFavorites(ctx, id, "astronomy", 100)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_ReplaceFacts(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_facts WHERE user_id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO user_facts \(user_id, text\) VALUES \(\$1, \$2\)`).
		WithArgs(id, "likes dinosaurs").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, r.ReplaceFacts(ctx, id, []string{"likes dinosaurs"}))
	require.NoError(t, mock.ExpectationsWereMet())
}
