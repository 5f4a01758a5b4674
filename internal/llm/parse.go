package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// stripFences removes a surrounding markdown code fence if the model added one
// despite the JSON response type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type parsedReply struct {
	title    string
	response string
	newFacts []string
	newGoal  *GoalDraft
}

// parseReply decodes the assistant's JSON envelope. ok is false when the text
// is not the expected JSON object.
func parseReply(text string) (parsedReply, bool) {
	var wire struct {
		Title        string          `json:"title"`
		Response     string          `json:"response"`
		NewUserFacts json.RawMessage `json:"new_user_facts"`
		NewGoal      *GoalDraft      `json:"new_goal"`
	}
	if err := json.Unmarshal([]byte(text), &wire); err != nil || wire.Response == "" {
		return parsedReply{}, false
	}
	if wire.NewGoal != nil && wire.NewGoal.Title == "" {
		wire.NewGoal = nil
	}
	return parsedReply{
		title:    wire.Title,
		response: wire.Response,
		newFacts: parseFacts(wire.NewUserFacts),
		newGoal:  wire.NewGoal,
	}, true
}

// parseFacts accepts the facts field as null, a single string or an array.
func parseFacts(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one = strings.TrimSpace(one); one != "" {
			return []string{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil
	}
	var out []string
	for _, f := range many {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseMode extracts the classifier verdict, defaulting to ModePrimary.
func parseMode(text string) string {
	var wire struct {
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return ModePrimary
	}
	if _, ok := modeInstructions[wire.Mode]; !ok {
		return ModePrimary
	}
	return wire.Mode
}

func parseSubtaskList(text string) ([]model.Subtask, error) {
	var wire struct {
		Subtasks []string `json:"subtasks"`
	}
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, err
	}
	var out []model.Subtask
	for _, s := range wire.Subtasks {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, model.Subtask{Text: s})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no subtasks in response")
	}
	return out, nil
}

func parseQuiz(text string) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := json.Unmarshal([]byte(text), &quiz); err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("no questions in response")
	}
	for i, q := range quiz.Questions {
		if q.Question == "" || len(q.Options) == 0 {
			return nil, fmt.Errorf("question %d is incomplete", i)
		}
	}
	return &quiz, nil
}

// FallbackTitle derives a chat title locally when the model did not return one.
func FallbackTitle(message string) string {
	if len(message) > 30 {
		return message[:30] + "..."
	}
	return message
}
