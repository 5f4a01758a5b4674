package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// history passed to the model is capped at the last 10 messages (5 turns)
const maxHistory = 10

// Gemini implements Assistant on top of the Google GenAI API.
type Gemini struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// NewGemini creates the assistant. The model name may be empty.
func NewGemini(ctx context.Context, apiKey, modelName string, log *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("llm: create client: %w", err)
	}
	return &Gemini{client: client, model: modelName, log: log}, nil
}

// Respond classifies the message into a mode and produces the reply.
func (g *Gemini) Respond(ctx context.Context, req ReplyRequest) (*ReplyResult, error) {
	mode := g.classify(ctx, req.Message)
	g.log.Debug("router decided mode", zap.String("mode", mode))

	instruction := modeInstructions[mode]
	if req.UserName != "" {
		instruction += "\n\nContext: the user's name is " + req.UserName + "."
	}

	history := req.History
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == model.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	var b strings.Builder
	if len(req.Facts) > 0 {
		b.WriteString("User Profile Context:\n")
		for _, f := range req.Facts {
			b.WriteString("- " + f + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("User Query:\n" + req.Message)
	if len(req.History) == 0 {
		b.WriteString("\n\n(System: this is the first message, generate the \"title\" field.)")
	}
	contents = append(contents, genai.NewContentFromText(b.String(), genai.RoleUser))

	text, err := g.generateJSON(ctx, instruction, contents)
	if err != nil {
		return nil, err
	}

	res := &ReplyResult{Mode: mode}
	reply, ok := parseReply(text)
	if !ok {
		// keep the raw text rather than failing the whole turn
		g.log.Warn("reply was not valid JSON, using raw text")
		res.Response = text
		return res, nil
	}
	res.Response = reply.response
	res.NewFacts = reply.newFacts
	res.NewGoal = reply.newGoal
	if len(req.History) == 0 {
		res.Title = reply.title
		if res.Title == "" {
			res.Title = FallbackTitle(req.Message)
		}
	}
	return res, nil
}

// DecomposeGoal breaks a goal into ordered incomplete subtasks.
func (g *Gemini) DecomposeGoal(ctx context.Context, goal model.Goal, breakdown string) ([]model.Subtask, error) {
	if breakdown != BreakdownWeekly {
		breakdown = BreakdownDaily
	}
	prompt := fmt.Sprintf("Goal: %s\nDescription: %s\nDuration: %d %s\nBreakdown style: %s",
		goal.Title, goal.Description, goal.Duration, goal.DurationUnit, breakdown)
	text, err := g.generateJSON(ctx, decomposeInstruction, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	})
	if err != nil {
		return nil, err
	}
	subtasks, err := parseSubtaskList(text)
	if err != nil {
		return nil, fmt.Errorf("llm: decompose: %w", err)
	}
	return subtasks, nil
}

// GenerateQuiz builds a multiple-choice quiz over a completed goal.
func (g *Gemini) GenerateQuiz(ctx context.Context, goal model.Goal) (*model.Quiz, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\nDescription: %s\n", goal.Title, goal.Description)
	if len(goal.Subtasks) > 0 {
		b.WriteString("Completed steps:\n")
		for _, st := range goal.Subtasks {
			b.WriteString("- " + st.Text + "\n")
		}
	}
	text, err := g.generateJSON(ctx, quizInstruction, []*genai.Content{
		genai.NewContentFromText(b.String(), genai.RoleUser),
	})
	if err != nil {
		return nil, err
	}
	quiz, err := parseQuiz(text)
	if err != nil {
		return nil, fmt.Errorf("llm: quiz: %w", err)
	}
	return quiz, nil
}

// classify routes a message to a mode; failures fall back to ModePrimary.
func (g *Gemini) classify(ctx context.Context, message string) string {
	text, err := g.generateJSON(ctx, classifierInstruction, []*genai.Content{
		genai.NewContentFromText(message, genai.RoleUser),
	})
	if err != nil {
		g.log.Warn("classification failed", zap.Error(err))
		return ModePrimary
	}
	return parseMode(text)
}

func (g *Gemini) generateJSON(ctx context.Context, instruction string, contents []*genai.Content) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleModel),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil ||
		len(res.Candidates[0].Content.Parts) == 0 || res.Candidates[0].Content.Parts[0].Text == "" {
		return "", fmt.Errorf("llm: empty response from model")
	}
	return stripFences(res.Candidates[0].Content.Parts[0].Text), nil
}
