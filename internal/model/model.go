// Package model defines domain entities used by services, repositories and the client.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account stored on the server.
type User struct {
	ID        uuid.UUID // PK
	Email     string    // unique, used as login name
	FullName  string
	PwdHash   []byte // Argon2id(password, Salt)
	Salt      []byte // per-user auth salt
	Favorites string // free-text interests used to personalize rewards; empty if unset
	Coins     int64  // non-negative reward balance
	CreatedAt time.Time
}

// Goal statuses. Completed is derived: every subtask checked (see DeriveStatus).
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Subtask is a single actionable step of a goal.
type Subtask struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Goal is a tracked objective with an ordered subtask breakdown.
type Goal struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     int       `json:"duration"`
	DurationUnit string    `json:"duration_unit"`
	Priority     string    `json:"priority"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	Subtasks     []Subtask `json:"subtasks"`
}

// GoalPatch is a partial goal update; nil fields are left untouched.
type GoalPatch struct {
	Title        *string
	Description  *string
	Duration     *int
	DurationUnit *string
	Priority     *string
	Status       *string
	Subtasks     []Subtask // nil = unchanged, empty slice = cleared
}

// ChatSession is chat metadata; the message log is stored separately.
type ChatSession struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"` // unix seconds
}

// Message roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one entry of a chat's append-only message log.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Mode    string `json:"mode,omitempty"` // assistant mode that produced a model reply
}

// RewardItem is an immutable catalog entry; never created or mutated by clients.
type RewardItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Cost     int64  `json:"cost"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
}

// Transaction is an append-only ledger entry mirroring a balance change.
type Transaction struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`
	Amount      int64  `json:"amount"` // negative for redemptions
}

// QuizQuestion is a single multiple-choice question of a goal quiz.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// Quiz is generated once every subtask of a goal is completed.
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

// Fact is a learned user fact kept in the assistant's long-term memory.
type Fact struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
