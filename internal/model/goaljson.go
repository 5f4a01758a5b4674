package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// goalWire mirrors the HTTP representation of a goal. Subtasks travel as a
// serialized document inside the "subtasks" field; older rows may carry a
// plain string array there (see ParseSubtasks).
type goalWire struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Duration     int             `json:"duration"`
	DurationUnit string          `json:"duration_unit"`
	Priority     string          `json:"priority"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	Subtasks     json.RawMessage `json:"subtasks"`
}

// MarshalJSON writes the canonical wire form: subtasks as a JSON string
// containing the structured document.
func (g Goal) MarshalJSON() ([]byte, error) {
	doc, err := json.Marshal(EncodeSubtasks(g.Subtasks))
	if err != nil {
		return nil, err
	}
	return json.Marshal(goalWire{
		ID:           g.ID,
		Title:        g.Title,
		Description:  g.Description,
		Duration:     g.Duration,
		DurationUnit: g.DurationUnit,
		Priority:     g.Priority,
		Status:       g.Status,
		CreatedAt:    g.CreatedAt,
		Subtasks:     doc,
	})
}

// UnmarshalJSON accepts subtasks either as a JSON string holding the
// document, or as an inline array (structured or legacy strings).
func (g *Goal) UnmarshalJSON(b []byte) error {
	var w goalWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var subtasks []Subtask
	if len(w.Subtasks) > 0 {
		raw := string(w.Subtasks)
		if raw[0] == '"' {
			var doc string
			if err := json.Unmarshal(w.Subtasks, &doc); err != nil {
				return fmt.Errorf("goal subtasks: %w", err)
			}
			raw = doc
		}
		parsed, err := ParseSubtasks(raw)
		if err != nil {
			return fmt.Errorf("goal subtasks: %w", err)
		}
		subtasks = parsed
	}
	*g = Goal{
		ID:           w.ID,
		Title:        w.Title,
		Description:  w.Description,
		Duration:     w.Duration,
		DurationUnit: w.DurationUnit,
		Priority:     w.Priority,
		Status:       w.Status,
		CreatedAt:    w.CreatedAt,
		Subtasks:     subtasks,
	}
	return nil
}
