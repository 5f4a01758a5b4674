// Package llm provides the conversational assistant behind chat, goal
// decomposition and quiz generation.
package llm

import (
	"context"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// Assistant modes. The router classifies each message into one of these;
// unknown values fall back to ModePrimary.
const (
	ModePrimary   = "primary"
	ModeAcademic  = "academic"
	ModeReasoning = "reasoning"
	ModeTeaching  = "teaching"
)

// Breakdown granularities accepted by DecomposeGoal.
const (
	BreakdownDaily  = "daily"
	BreakdownWeekly = "weekly"
)

// ReplyRequest carries one user turn with its context.
type ReplyRequest struct {
	History  []model.Message // prior turns, oldest first; empty for a new chat
	Message  string
	Facts    []string // long-term user facts injected as profile context
	UserName string
}

// GoalDraft is a goal commitment detected in a user message.
type GoalDraft struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Duration     int    `json:"duration"`
	DurationUnit string `json:"duration_unit"`
	Priority     string `json:"priority"`
}

// ReplyResult is the assistant's answer to a single turn.
type ReplyResult struct {
	Response string
	Title    string // non-empty only for the first turn of a chat
	Mode     string
	NewFacts []string   // newly extracted user facts, if any
	NewGoal  *GoalDraft // set when the message commits to a goal
}

// Assistant generates replies and goal artifacts.
type Assistant interface {
	// Respond routes the message to a mode and produces the reply.
	Respond(ctx context.Context, req ReplyRequest) (*ReplyResult, error)
	// DecomposeGoal breaks a goal into ordered incomplete subtasks.
	DecomposeGoal(ctx context.Context, g model.Goal, breakdown string) ([]model.Subtask, error)
	// GenerateQuiz builds a multiple-choice quiz over a completed goal.
	GenerateQuiz(ctx context.Context, g model.Goal) (*model.Quiz, error)
}
