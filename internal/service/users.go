package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/repository"
)

// coins granted the first time a user fills in their favorites
const favoritesBonus = 100

// UserService exposes profile, memory and favorites operations.
type UserService interface {
	// Me loads the caller's account.
	Me(ctx context.Context, userID uuid.UUID) (*model.User, error)
	// Facts returns the assistant's long-term memory about the user.
	Facts(ctx context.Context, userID uuid.UUID) ([]model.Fact, error)
	// ReplaceFacts overwrites the whole fact list.
	ReplaceFacts(ctx context.Context, userID uuid.UUID, texts []string) error
	// SaveFavorites stores the favorites text and returns the new balance.
	// The first non-empty save is rewarded with a coin bonus.
	SaveFavorites(ctx context.Context, userID uuid.UUID, favorites string) (int64, error)
	// ClearFavorites resets favorites and the balance to zero.
	ClearFavorites(ctx context.Context, userID uuid.UUID) error
}

type UserServiceImpl struct {
	users  repository.UserRepository
	ledger repository.LedgerRepository
}

// NewUserService constructs UserService.
func NewUserService(users repository.UserRepository, ledger repository.LedgerRepository) *UserServiceImpl {
	return &UserServiceImpl{users: users, ledger: ledger}
}

func (s *UserServiceImpl) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	return s.users.GetByID(ctx, userID)
}

func (s *UserServiceImpl) Facts(ctx context.Context, userID uuid.UUID) ([]model.Fact, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	return s.users.ListFacts(ctx, userID)
}

func (s *UserServiceImpl) ReplaceFacts(ctx context.Context, userID uuid.UUID, texts []string) error {
	if userID == uuid.Nil {
		return errors.New("validation: empty userID")
	}
	return s.users.ReplaceFacts(ctx, userID, texts)
}

// SaveFavorites persists the favorites text. Setting favorites for the first
// time grants a one-off bonus recorded in the ledger.
func (s *UserServiceImpl) SaveFavorites(ctx context.Context, userID uuid.UUID, favorites string) (int64, error) {
	if userID == uuid.Nil {
		return 0, errors.New("validation: empty userID")
	}
	if favorites == "" {
		return 0, errors.New("validation: empty favorites")
	}
	coins, granted, err := s.users.SaveFavorites(ctx, userID, favorites, favoritesBonus)
	if err != nil {
		return 0, err
	}
	if granted {
		_ = s.ledger.Append(ctx, userID, model.Transaction{
			Date:        time.Now().Format("2006-01-02"),
			Description: "Favorites Bonus",
			Amount:      favoritesBonus,
		})
	}
	return coins, nil
}

// ClearFavorites wipes the favorites text and zeroes the balance.
func (s *UserServiceImpl) ClearFavorites(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return errors.New("validation: empty userID")
	}
	return s.users.SetFavorites(ctx, userID, "", 0)
}
