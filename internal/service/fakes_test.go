package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/errs"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/limiter"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/llm"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/repository"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	if err != nil {
		t.Fatalf("uuid: %v", err)
	}
	return id
}

type fakeUsers struct {
	byEmail map[string]*model.User
	facts   map[uuid.UUID][]model.Fact

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*model.User{}, facts: map[uuid.UUID][]model.Fact{}}
}

func (f *fakeUsers) add(u model.User) *model.User {
	cpy := u
	f.byEmail[u.Email] = &cpy
	return &cpy
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	f.add(*u)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) SetFavorites(_ context.Context, id uuid.UUID, favorites string, coins int64) error {
	for _, u := range f.byEmail {
		if u.ID == id {
			u.Favorites = favorites
			u.Coins = coins
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f *fakeUsers) SpendCoins(_ context.Context, id uuid.UUID, cost int64) (int64, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			if u.Coins < cost {
				return 0, errs.ErrInsufficientBalance
			}
			u.Coins -= cost
			return u.Coins, nil
		}
	}
	return 0, errs.ErrNotFound
}

func (f *fakeUsers) SaveFavorites(_ context.Context, id uuid.UUID, favorites string, bonus int64) (int64, bool, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			granted := u.Favorites == ""
			if granted {
				u.Coins += bonus
			}
			u.Favorites = favorites
			return u.Coins, granted, nil
		}
	}
	return 0, false, errs.ErrNotFound
}

func (f *fakeUsers) ListFacts(_ context.Context, userID uuid.UUID) ([]model.Fact, error) {
	return append([]model.Fact(nil), f.facts[userID]...), nil
}

func (f *fakeUsers) ReplaceFacts(_ context.Context, userID uuid.UUID, texts []string) error {
	var out []model.Fact
	for _, t := range texts {
		out = append(out, model.Fact{Text: t, CreatedAt: time.Now()})
	}
	f.facts[userID] = out
	return nil
}

func (f *fakeUsers) AddFacts(_ context.Context, userID uuid.UUID, texts []string) error {
	for _, t := range texts {
		f.facts[userID] = append(f.facts[userID], model.Fact{Text: t, CreatedAt: time.Now()})
	}
	return nil
}

type fakeLedger struct {
	entries map[uuid.UUID][]model.Transaction
}

var _ repository.LedgerRepository = (*fakeLedger)(nil)

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: map[uuid.UUID][]model.Transaction{}}
}

func (f *fakeLedger) Append(_ context.Context, userID uuid.UUID, t model.Transaction) error {
	f.entries[userID] = append(f.entries[userID], t)
	return nil
}

func (f *fakeLedger) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Transaction, error) {
	return append([]model.Transaction(nil), f.entries[userID]...), nil
}

type fakeChats struct {
	chats    map[string]model.ChatSession
	owners   map[string]uuid.UUID
	messages map[string][]model.Message
}

var _ repository.ChatRepository = (*fakeChats)(nil)

func newFakeChats() *fakeChats {
	return &fakeChats{
		chats:    map[string]model.ChatSession{},
		owners:   map[string]uuid.UUID{},
		messages: map[string][]model.Message{},
	}
}

func (f *fakeChats) Create(_ context.Context, userID uuid.UUID, c model.ChatSession) error {
	if _, exists := f.chats[c.ID]; exists {
		return errs.ErrAlreadyExists
	}
	f.chats[c.ID] = c
	f.owners[c.ID] = userID
	return nil
}

func (f *fakeChats) ListByUser(_ context.Context, userID uuid.UUID) ([]model.ChatSession, error) {
	var out []model.ChatSession
	for id, c := range f.chats {
		if f.owners[id] == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChats) Rename(_ context.Context, userID uuid.UUID, chatID, title string) error {
	if f.owners[chatID] != userID {
		return errs.ErrNotFound
	}
	c := f.chats[chatID]
	c.Title = title
	f.chats[chatID] = c
	return nil
}

func (f *fakeChats) Delete(_ context.Context, userID uuid.UUID, chatID string) error {
	if f.owners[chatID] != userID {
		return errs.ErrNotFound
	}
	delete(f.chats, chatID)
	delete(f.owners, chatID)
	delete(f.messages, chatID)
	return nil
}

func (f *fakeChats) History(_ context.Context, userID uuid.UUID, chatID string) ([]model.Message, error) {
	if f.owners[chatID] != userID {
		return nil, errs.ErrNotFound
	}
	return append([]model.Message(nil), f.messages[chatID]...), nil
}

func (f *fakeChats) AppendMessage(_ context.Context, userID uuid.UUID, chatID string, m model.Message) error {
	if f.owners[chatID] != userID {
		return errs.ErrNotFound
	}
	f.messages[chatID] = append(f.messages[chatID], m)
	return nil
}

type fakeGoals struct {
	byID   map[int64]model.Goal
	owners map[int64]uuid.UUID
	nextID int64
}

var _ repository.GoalRepository = (*fakeGoals)(nil)

func newFakeGoals() *fakeGoals {
	return &fakeGoals{byID: map[int64]model.Goal{}, owners: map[int64]uuid.UUID{}, nextID: 1}
}

func (f *fakeGoals) Create(_ context.Context, userID uuid.UUID, g model.Goal) (model.Goal, error) {
	g.ID = f.nextID
	g.CreatedAt = time.Now()
	f.nextID++
	f.byID[g.ID] = g
	f.owners[g.ID] = userID
	return g, nil
}

func (f *fakeGoals) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Goal, error) {
	var out []model.Goal
	for id, g := range f.byID {
		if f.owners[id] == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGoals) Get(_ context.Context, userID uuid.UUID, id int64) (*model.Goal, error) {
	if f.owners[id] != userID {
		return nil, errs.ErrNotFound
	}
	g := f.byID[id]
	return &g, nil
}

func (f *fakeGoals) Update(_ context.Context, userID uuid.UUID, g model.Goal) error {
	if f.owners[g.ID] != userID {
		return errs.ErrNotFound
	}
	f.byID[g.ID] = g
	return nil
}

func (f *fakeGoals) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	if f.owners[id] != userID {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	delete(f.owners, id)
	return nil
}

type fakeAssistant struct {
	respondFn   func(req llm.ReplyRequest) (*llm.ReplyResult, error)
	decomposeFn func(g model.Goal, breakdown string) ([]model.Subtask, error)
	quizFn      func(g model.Goal) (*model.Quiz, error)
}

var _ llm.Assistant = (*fakeAssistant)(nil)

func (f *fakeAssistant) Respond(_ context.Context, req llm.ReplyRequest) (*llm.ReplyResult, error) {
	if f.respondFn != nil {
		return f.respondFn(req)
	}
	return &llm.ReplyResult{Response: "ok", Mode: llm.ModePrimary}, nil
}

func (f *fakeAssistant) DecomposeGoal(_ context.Context, g model.Goal, breakdown string) ([]model.Subtask, error) {
	if f.decomposeFn != nil {
		return f.decomposeFn(g, breakdown)
	}
	return []model.Subtask{{Text: "step one"}, {Text: "step two"}}, nil
}

func (f *fakeAssistant) GenerateQuiz(_ context.Context, g model.Goal) (*model.Quiz, error) {
	if f.quizFn != nil {
		return f.quizFn(g)
	}
	return &model.Quiz{Questions: []model.QuizQuestion{
		{Question: "q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"},
	}}, nil
}

type fakeLimiter struct {
	allowOK    bool
	failBlocks bool

	failures  int
	successes int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (f *fakeLimiter) Allow(_ context.Context, _ string, _ []byte) (bool, time.Duration, error) {
	return f.allowOK, 0, nil
}

func (f *fakeLimiter) Success(_ context.Context, _ string, _ []byte) error {
	f.successes++
	return nil
}

func (f *fakeLimiter) Failure(_ context.Context, _ string, _ []byte) (bool, time.Duration, error) {
	f.failures++
	return f.failBlocks, 0, nil
}
