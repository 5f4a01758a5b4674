package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/errs"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/llm"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/repository"
)

// QuizResult reports quiz availability for a goal.
type QuizResult struct {
	Available bool
	Quiz      *model.Quiz
}

// GoalService manages goals, their decomposition and quizzes.
type GoalService interface {
	// List returns the user's goals, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.Goal, error)
	// Create stores a new goal with a derived status.
	Create(ctx context.Context, userID uuid.UUID, g model.Goal) (model.Goal, error)
	// Patch applies a partial update and re-derives the status.
	Patch(ctx context.Context, userID uuid.UUID, id int64, p model.GoalPatch) (model.Goal, error)
	// Delete removes a goal.
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	// Decompose replaces the goal's subtasks with an LLM breakdown.
	Decompose(ctx context.Context, userID uuid.UUID, id int64, breakdown string) (model.Goal, error)
	// Quiz generates a quiz once every subtask is completed.
	Quiz(ctx context.Context, userID uuid.UUID, id int64) (QuizResult, error)
}

type GoalServiceImpl struct {
	goals     repository.GoalRepository
	assistant llm.Assistant
}

// NewGoalService constructs GoalService.
func NewGoalService(goals repository.GoalRepository, assistant llm.Assistant) *GoalServiceImpl {
	return &GoalServiceImpl{goals: goals, assistant: assistant}
}

func (s *GoalServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Goal, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	return s.goals.ListByUser(ctx, userID)
}

func (s *GoalServiceImpl) Create(ctx context.Context, userID uuid.UUID, g model.Goal) (model.Goal, error) {
	if userID == uuid.Nil {
		return model.Goal{}, errors.New("validation: empty userID")
	}
	if g.Title == "" {
		return model.Goal{}, errors.New("validation: empty title")
	}
	g.ID = 0
	g.Status = model.DeriveStatus(g.Subtasks, model.StatusInProgress)
	return s.goals.Create(ctx, userID, g)
}

// Patch merges provided fields into the stored goal. When subtasks change the
// status is re-derived rather than trusted from the patch.
func (s *GoalServiceImpl) Patch(ctx context.Context, userID uuid.UUID, id int64, p model.GoalPatch) (model.Goal, error) {
	if userID == uuid.Nil {
		return model.Goal{}, errors.New("validation: empty userID")
	}
	g, err := s.goals.Get(ctx, userID, id)
	if err != nil {
		return model.Goal{}, err
	}

	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Duration != nil {
		g.Duration = *p.Duration
	}
	if p.DurationUnit != nil {
		g.DurationUnit = *p.DurationUnit
	}
	if p.Priority != nil {
		g.Priority = *p.Priority
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.Subtasks != nil {
		g.Subtasks = p.Subtasks
		g.Status = model.DeriveStatus(g.Subtasks, g.Status)
	}

	if err := s.goals.Update(ctx, userID, *g); err != nil {
		return model.Goal{}, err
	}
	return *g, nil
}

func (s *GoalServiceImpl) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	if userID == uuid.Nil {
		return errors.New("validation: empty userID")
	}
	return s.goals.Delete(ctx, userID, id)
}

// Decompose asks the assistant for a subtask breakdown and stores it. The new
// subtasks are all incomplete, so the goal returns to in_progress.
func (s *GoalServiceImpl) Decompose(ctx context.Context, userID uuid.UUID, id int64, breakdown string) (model.Goal, error) {
	if userID == uuid.Nil {
		return model.Goal{}, errors.New("validation: empty userID")
	}
	g, err := s.goals.Get(ctx, userID, id)
	if err != nil {
		return model.Goal{}, err
	}
	subtasks, err := s.assistant.DecomposeGoal(ctx, *g, breakdown)
	if err != nil {
		return model.Goal{}, err
	}
	g.Subtasks = subtasks
	g.Status = model.DeriveStatus(g.Subtasks, g.Status)
	if err := s.goals.Update(ctx, userID, *g); err != nil {
		return model.Goal{}, err
	}
	return *g, nil
}

// Quiz reports availability and generates questions for a finished goal.
func (s *GoalServiceImpl) Quiz(ctx context.Context, userID uuid.UUID, id int64) (QuizResult, error) {
	if userID == uuid.Nil {
		return QuizResult{}, errors.New("validation: empty userID")
	}
	g, err := s.goals.Get(ctx, userID, id)
	if err != nil {
		return QuizResult{}, err
	}
	if !model.AllSubtasksCompleted(g.Subtasks) {
		return QuizResult{}, errs.ErrQuizLocked
	}
	quiz, err := s.assistant.GenerateQuiz(ctx, *g)
	if err != nil {
		return QuizResult{}, err
	}
	return QuizResult{Available: true, Quiz: quiz}, nil
}
