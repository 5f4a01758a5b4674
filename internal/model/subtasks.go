package model

import (
	"encoding/json"
	"fmt"
)

// ParseSubtasks decodes a stored subtask document. Two shapes exist in the
// wild: the structured form `[{"text":...,"completed":...}]` and a legacy
// form of plain strings, which are read as not-yet-completed subtasks.
// Writers must always produce the structured form (see EncodeSubtasks).
func ParseSubtasks(raw string) ([]Subtask, error) {
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var structured []Subtask
	if err := json.Unmarshal([]byte(raw), &structured); err == nil {
		return structured, nil
	}
	var legacy []string
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		return nil, fmt.Errorf("parse subtasks: %w", err)
	}
	out := make([]Subtask, 0, len(legacy))
	for _, t := range legacy {
		out = append(out, Subtask{Text: t})
	}
	return out, nil
}

// EncodeSubtasks serializes subtasks in the canonical structured form.
func EncodeSubtasks(subtasks []Subtask) string {
	if subtasks == nil {
		subtasks = []Subtask{}
	}
	b, _ := json.Marshal(subtasks)
	return string(b)
}

// DeriveStatus recomputes a goal status from its subtask list.
// completed iff the list is non-empty and every subtask is checked;
// un-checking any subtask of a completed goal reverts it to in_progress;
// otherwise the previous status is kept.
func DeriveStatus(subtasks []Subtask, prev string) string {
	all := len(subtasks) > 0
	for _, st := range subtasks {
		if !st.Completed {
			all = false
			break
		}
	}
	if all {
		return StatusCompleted
	}
	if prev == StatusCompleted {
		return StatusInProgress
	}
	return prev
}

// ToggleSubtask returns a copy of the goal with subtask i flipped and the
// status re-derived. Out-of-range indexes return the goal unchanged.
func ToggleSubtask(g Goal, i int) Goal {
	if i < 0 || i >= len(g.Subtasks) {
		return g
	}
	next := make([]Subtask, len(g.Subtasks))
	copy(next, g.Subtasks)
	next[i].Completed = !next[i].Completed
	g.Subtasks = next
	g.Status = DeriveStatus(next, g.Status)
	return g
}

// AllSubtasksCompleted reports whether the goal qualifies for a quiz.
func AllSubtasksCompleted(subtasks []Subtask) bool {
	if len(subtasks) == 0 {
		return false
	}
	for _, st := range subtasks {
		if !st.Completed {
			return false
		}
	}
	return true
}
