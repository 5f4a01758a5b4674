package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/llm"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

func newChatService(users *fakeUsers, chats *fakeChats, goals *fakeGoals, a llm.Assistant) *ChatServiceImpl {
	return NewChatService(chats, users, NewGoalService(goals, a), a, zap.NewNop())
}

func TestChatService_Converse_FirstExchange(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	u := users.add(model.User{ID: mustUUID(t), Email: "a@b.c", FullName: "Avery"})
	chats := newFakeChats()
	assistant := &fakeAssistant{respondFn: func(req llm.ReplyRequest) (*llm.ReplyResult, error) {
		if req.UserName != "Avery" {
			t.Fatalf("user name not passed: %q", req.UserName)
		}
		if len(req.History) != 0 {
			t.Fatalf("history must be empty")
		}
		return &llm.ReplyResult{Response: "hello!", Title: "Study Plan", Mode: llm.ModePrimary}, nil
	}}
	svc := newChatService(users, chats, newFakeGoals(), assistant)
	ctx := context.Background()

	c, err := svc.Create(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Title != defaultChatTitle {
		t.Fatalf("default title, got %q", c.Title)
	}

	res, err := svc.Converse(ctx, u.ID, c.ID, "help me plan my week")
	if err != nil {
		t.Fatalf("converse: %v", err)
	}
	if res.Title != "Study Plan" {
		t.Fatalf("first exchange must name the chat, got %q", res.Title)
	}
	if chats.chats[c.ID].Title != "Study Plan" {
		t.Fatalf("title not persisted")
	}

	msgs, _ := svc.History(ctx, u.ID, c.ID)
	if len(msgs) != 2 || msgs[0].Role != model.RoleUser || msgs[1].Role != model.RoleModel {
		t.Fatalf("both sides must be persisted: %+v", msgs)
	}
	if msgs[1].Mode != llm.ModePrimary {
		t.Fatalf("model message must carry the mode")
	}
}

func TestChatService_Converse_SecondExchangeKeepsTitle(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	u := users.add(model.User{ID: mustUUID(t), Email: "a@b.c"})
	chats := newFakeChats()
	svc := newChatService(users, chats, newFakeGoals(), &fakeAssistant{})
	ctx := context.Background()

	c, _ := svc.Create(ctx, u.ID, "")
	if _, err := svc.Converse(ctx, u.ID, c.ID, "first"); err != nil {
		t.Fatalf("first: %v", err)
	}
	res, err := svc.Converse(ctx, u.ID, c.ID, "second")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if res.Title != "" {
		t.Fatalf("later exchanges must not retitle, got %q", res.Title)
	}
}

func TestChatService_Converse_StoresFacts(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	u := users.add(model.User{ID: mustUUID(t), Email: "a@b.c"})
	chats := newFakeChats()
	assistant := &fakeAssistant{respondFn: func(llm.ReplyRequest) (*llm.ReplyResult, error) {
		return &llm.ReplyResult{Response: "noted", Mode: llm.ModePrimary, NewFacts: []string{"User studies CS"}}, nil
	}}
	svc := newChatService(users, chats, newFakeGoals(), assistant)
	ctx := context.Background()

	c, _ := svc.Create(ctx, u.ID, "")
	res, err := svc.Converse(ctx, u.ID, c.ID, "I study CS")
	if err != nil {
		t.Fatalf("converse: %v", err)
	}
	if !res.MemoryUpdated {
		t.Fatalf("memory flag not set")
	}
	facts, _ := users.ListFacts(ctx, u.ID)
	if len(facts) != 1 || facts[0].Text != "User studies CS" {
		t.Fatalf("fact not stored: %+v", facts)
	}
}

func TestChatService_Converse_CreatesGoal(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	u := users.add(model.User{ID: mustUUID(t), Email: "a@b.c"})
	chats := newFakeChats()
	goals := newFakeGoals()
	assistant := &fakeAssistant{respondFn: func(llm.ReplyRequest) (*llm.ReplyResult, error) {
		return &llm.ReplyResult{Response: "great goal", Mode: llm.ModePrimary,
			NewGoal: &llm.GoalDraft{Title: "Learn piano", Duration: 3, DurationUnit: "months", Priority: "medium"}}, nil
	}}
	svc := newChatService(users, chats, goals, assistant)
	ctx := context.Background()

	c, _ := svc.Create(ctx, u.ID, "")
	res, err := svc.Converse(ctx, u.ID, c.ID, "I want to learn piano in 3 months")
	if err != nil {
		t.Fatalf("converse: %v", err)
	}
	if res.GoalCreated == nil || res.GoalCreated.Title != "Learn piano" {
		t.Fatalf("goal not created: %+v", res.GoalCreated)
	}
	stored, _ := goals.ListByUser(ctx, u.ID)
	if len(stored) != 1 || stored[0].Status != model.StatusInProgress {
		t.Fatalf("goal not persisted in progress: %+v", stored)
	}
}

func TestChatService_Converse_ForeignChat(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	owner := users.add(model.User{ID: mustUUID(t), Email: "a@b.c"})
	other := users.add(model.User{ID: mustUUID(t), Email: "x@y.z"})
	chats := newFakeChats()
	svc := newChatService(users, chats, newFakeGoals(), &fakeAssistant{})
	ctx := context.Background()

	c, _ := svc.Create(ctx, owner.ID, "")
	if _, err := svc.Converse(ctx, other.ID, c.ID, "hi"); err == nil {
		t.Fatalf("foreign chat must be rejected")
	}
}
