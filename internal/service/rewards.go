package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/repository"
)

// RewardState is the full rewards view for a user.
type RewardState struct {
	Coins   int64
	Items   []model.RewardItem
	History []model.Transaction
}

// RewardService exposes the reward catalog, balance and redemption.
type RewardService interface {
	// Rewards returns balance, personalized catalog and transaction history.
	Rewards(ctx context.Context, userID uuid.UUID) (RewardState, error)
	// Redeem spends coins atomically and records the transaction.
	Redeem(ctx context.Context, userID uuid.UUID, cost int64) (int64, error)
}

type RewardServiceImpl struct {
	users  repository.UserRepository
	ledger repository.LedgerRepository
}

// NewRewardService constructs RewardService.
func NewRewardService(users repository.UserRepository, ledger repository.LedgerRepository) *RewardServiceImpl {
	return &RewardServiceImpl{users: users, ledger: ledger}
}

func (s *RewardServiceImpl) Rewards(ctx context.Context, userID uuid.UUID) (RewardState, error) {
	if userID == uuid.Nil {
		return RewardState{}, errors.New("validation: empty userID")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return RewardState{}, err
	}
	history, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return RewardState{}, err
	}
	return RewardState{Coins: u.Coins, Items: PersonalizeCatalog(u.Favorites), History: history}, nil
}

// Redeem decrements the balance when it covers the cost and appends a ledger
// entry. The returned balance is authoritative.
func (s *RewardServiceImpl) Redeem(ctx context.Context, userID uuid.UUID, cost int64) (int64, error) {
	if userID == uuid.Nil {
		return 0, errors.New("validation: empty userID")
	}
	if cost <= 0 {
		return 0, fmt.Errorf("validation: non-positive cost %d", cost)
	}
	balance, err := s.users.SpendCoins(ctx, userID, cost)
	if err != nil {
		return 0, err
	}
	_ = s.ledger.Append(ctx, userID, model.Transaction{
		Date:        time.Now().Format("2006-01-02"),
		Description: "Reward Redeemed",
		Amount:      -cost,
	})
	return balance, nil
}

// defaultCatalog is offered to every user.
var defaultCatalog = []model.RewardItem{
	{ID: "break-15", Name: "15 Minute Break", Cost: 20, Category: "wellness", Icon: "coffee"},
	{ID: "movie-night", Name: "Movie Night", Cost: 100, Category: "entertainment", Icon: "film"},
	{ID: "snack-treat", Name: "Favorite Snack", Cost: 40, Category: "food", Icon: "cookie"},
	{ID: "sleep-in", Name: "Weekend Sleep-In", Cost: 80, Category: "wellness", Icon: "moon"},
	{ID: "day-off", Name: "Full Day Off", Cost: 250, Category: "wellness", Icon: "sun"},
}

// themedCatalog maps favorites keywords to extra reward items,
// kept ordered so the catalog is stable across requests.
var themedCatalog = []struct {
	keyword string
	item    model.RewardItem
}{
	{"music", model.RewardItem{ID: "concert-time", Name: "Concert Time", Cost: 150, Category: "music", Icon: "music"}},
	{"gam", model.RewardItem{ID: "gaming-hour", Name: "One Gaming Hour", Cost: 60, Category: "gaming", Icon: "gamepad"}},
	{"read", model.RewardItem{ID: "new-book", Name: "New Book", Cost: 120, Category: "reading", Icon: "book"}},
	{"book", model.RewardItem{ID: "new-book", Name: "New Book", Cost: 120, Category: "reading", Icon: "book"}},
	{"sport", model.RewardItem{ID: "match-tickets", Name: "Match Tickets", Cost: 180, Category: "sports", Icon: "trophy"}},
	{"art", model.RewardItem{ID: "art-supplies", Name: "Art Supplies", Cost: 90, Category: "art", Icon: "palette"}},
	{"space", model.RewardItem{ID: "planetarium", Name: "Planetarium Visit", Cost: 130, Category: "science", Icon: "rocket"}},
	{"travel", model.RewardItem{ID: "day-trip", Name: "Day Trip", Cost: 200, Category: "travel", Icon: "map"}},
}

// PersonalizeCatalog extends the default catalog with items matching keywords
// in the favorites text. No LLM call, plain keyword mapping.
func PersonalizeCatalog(favorites string) []model.RewardItem {
	items := append([]model.RewardItem(nil), defaultCatalog...)
	if favorites == "" {
		return items
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		seen[it.ID] = true
	}
	lower := strings.ToLower(favorites)
	for _, t := range themedCatalog {
		if !strings.Contains(lower, t.keyword) || seen[t.item.ID] {
			continue
		}
		seen[t.item.ID] = true
		items = append(items, t.item)
	}
	return items
}
