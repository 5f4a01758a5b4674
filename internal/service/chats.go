package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/llm"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/repository"
)

const defaultChatTitle = "New Chat"

// ConverseResult is the outcome of one chat turn.
type ConverseResult struct {
	Response      string
	ChatID        string
	Title         string // set only when the first exchange names the chat
	Mode          string
	MemoryUpdated bool
	GoalCreated   *model.Goal // set when the turn spawned a goal
}

// ChatService manages chat sessions and runs conversation turns.
type ChatService interface {
	// Create registers a new chat session.
	Create(ctx context.Context, userID uuid.UUID, title string) (model.ChatSession, error)
	// List returns the user's chats, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.ChatSession, error)
	// Delete removes a chat and its log.
	Delete(ctx context.Context, userID uuid.UUID, chatID string) error
	// History returns a chat's message log.
	History(ctx context.Context, userID uuid.UUID, chatID string) ([]model.Message, error)
	// Converse runs one assistant turn and persists both messages.
	Converse(ctx context.Context, userID uuid.UUID, chatID, message string) (*ConverseResult, error)
}

type ChatServiceImpl struct {
	chats     repository.ChatRepository
	users     repository.UserRepository
	goals     GoalService
	assistant llm.Assistant
	log       *zap.Logger
}

// NewChatService constructs ChatService.
func NewChatService(
	chats repository.ChatRepository,
	users repository.UserRepository,
	goals GoalService,
	assistant llm.Assistant,
	log *zap.Logger,
) *ChatServiceImpl {
	return &ChatServiceImpl{chats: chats, users: users, goals: goals, assistant: assistant, log: log}
}

func (s *ChatServiceImpl) Create(ctx context.Context, userID uuid.UUID, title string) (model.ChatSession, error) {
	if userID == uuid.Nil {
		return model.ChatSession{}, errors.New("validation: empty userID")
	}
	if title == "" {
		title = defaultChatTitle
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.ChatSession{}, err
	}
	c := model.ChatSession{ID: id.String(), Title: title, CreatedAt: time.Now().Unix()}
	if err := s.chats.Create(ctx, userID, c); err != nil {
		return model.ChatSession{}, err
	}
	return c, nil
}

func (s *ChatServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.ChatSession, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	return s.chats.ListByUser(ctx, userID)
}

func (s *ChatServiceImpl) Delete(ctx context.Context, userID uuid.UUID, chatID string) error {
	if userID == uuid.Nil || chatID == "" {
		return errors.New("validation: empty userID/chatID")
	}
	return s.chats.Delete(ctx, userID, chatID)
}

func (s *ChatServiceImpl) History(ctx context.Context, userID uuid.UUID, chatID string) ([]model.Message, error) {
	if userID == uuid.Nil || chatID == "" {
		return nil, errors.New("validation: empty userID/chatID")
	}
	return s.chats.History(ctx, userID, chatID)
}

// Converse loads the chat history, asks the assistant, persists both sides of
// the exchange and applies side effects: the first exchange names the chat,
// extracted facts extend the user's memory, and a detected goal commitment
// creates a goal.
func (s *ChatServiceImpl) Converse(ctx context.Context, userID uuid.UUID, chatID, message string) (*ConverseResult, error) {
	if userID == uuid.Nil || chatID == "" {
		return nil, errors.New("validation: empty userID/chatID")
	}
	if message == "" {
		return nil, errors.New("validation: empty message")
	}

	history, err := s.chats.History(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	req := llm.ReplyRequest{History: history, Message: message}
	if u, err := s.users.GetByID(ctx, userID); err == nil {
		req.UserName = u.FullName
	}
	if facts, err := s.users.ListFacts(ctx, userID); err == nil {
		for _, f := range facts {
			req.Facts = append(req.Facts, f.Text)
		}
	}

	reply, err := s.assistant.Respond(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.chats.AppendMessage(ctx, userID, chatID, model.Message{Role: model.RoleUser, Content: message}); err != nil {
		return nil, err
	}
	if err := s.chats.AppendMessage(ctx, userID, chatID, model.Message{Role: model.RoleModel, Content: reply.Response, Mode: reply.Mode}); err != nil {
		return nil, err
	}

	res := &ConverseResult{Response: reply.Response, ChatID: chatID, Mode: reply.Mode}

	if len(history) == 0 {
		title := reply.Title
		if title == "" {
			title = llm.FallbackTitle(message)
		}
		if err := s.chats.Rename(ctx, userID, chatID, title); err != nil {
			s.log.Warn("rename chat failed", zap.String("chat_id", chatID), zap.Error(err))
		} else {
			res.Title = title
		}
	}

	if len(reply.NewFacts) > 0 {
		if err := s.users.AddFacts(ctx, userID, reply.NewFacts); err != nil {
			s.log.Warn("store facts failed", zap.Error(err))
		} else {
			res.MemoryUpdated = true
		}
	}

	if reply.NewGoal != nil {
		g, err := s.goals.Create(ctx, userID, model.Goal{
			Title:        reply.NewGoal.Title,
			Description:  reply.NewGoal.Description,
			Duration:     reply.NewGoal.Duration,
			DurationUnit: reply.NewGoal.DurationUnit,
			Priority:     reply.NewGoal.Priority,
		})
		if err != nil {
			s.log.Warn("create goal from chat failed", zap.Error(err))
		} else {
			res.GoalCreated = &g
		}
	}

	return res, nil
}
