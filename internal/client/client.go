package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// DefaultTimeout bounds every request; a call that outlives it fails as
// NetworkError instead of hanging in a "processing" state forever.
const DefaultTimeout = 30 * time.Second

// retries of idempotent GETs on transport failure
const maxGetRetries = 2

// Client is the typed resource client. It holds no entity state: everything
// it returns is an advisory copy of server truth that callers may discard
// and reload at any time.
type Client struct {
	baseURL string
	httpc   *http.Client
	guard   *SessionGuard
	log     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpc = h } }

// WithLogger enables request logging.
func WithLogger(log *zap.Logger) Option { return func(c *Client) { c.log = log } }

// New constructs a Client against baseURL using the provided session guard.
func New(baseURL string, guard *SessionGuard, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: DefaultTimeout},
		guard:   guard,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Guard exposes the session guard for explicit init/teardown.
func (c *Client) Guard() *SessionGuard { return c.guard }

// --- Auth ---

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Authenticate logs in via the OAuth2 form endpoint and installs the session.
func (c *Client) Authenticate(ctx context.Context, username, password string) (model.Tokens, error) {
	form := url.Values{"username": {username}, "password": {password}}
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, "/token",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &resp)
	if err != nil {
		return model.Tokens{}, err
	}
	c.guard.Set(resp.AccessToken)
	return model.Tokens{AccessToken: resp.AccessToken, ExpiresAt: tokenExpiry(resp.AccessToken)}, nil
}

// tokenExpiry reads exp from the JWT without validating the signature;
// used only so the caller can persist the token with its lifetime.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(15 * time.Minute)
}

// RegisteredUser is the created-user payload.
type RegisteredUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (RegisteredUser, error) {
	var out RegisteredUser
	err := c.postJSON(ctx, "/register",
		map[string]string{"email": email, "password": password, "full_name": fullName}, &out)
	return out, err
}

// Logout discards the session slot. Purely local; the token simply expires.
func (c *Client) Logout() { c.guard.Clear() }

// --- Profile ---

// Profile is the authenticated user's account view.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Favorites string `json:"favorites"`
	Coins     int64  `json:"coins"`
}

// Me fetches the current user.
func (c *Client) Me(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.getJSON(ctx, "/users/me", &out)
	return out, err
}

// Facts fetches the learned-fact list.
func (c *Client) Facts(ctx context.Context) ([]string, error) {
	var out struct {
		Facts []string `json:"facts"`
	}
	if err := c.getJSON(ctx, "/users/me/profile", &out); err != nil {
		return nil, err
	}
	return out.Facts, nil
}

// ReplaceFacts overwrites the whole fact list. There is no partial patch.
func (c *Client) ReplaceFacts(ctx context.Context, facts []string) error {
	if facts == nil {
		facts = []string{}
	}
	return c.do(ctx, http.MethodPut, "/users/me/profile",
		"application/json", jsonBody(map[string]any{"facts": facts}), nil)
}

// SaveFavorites stores the favorites text and returns the server-adjusted
// balance (a first save earns a bonus the client must not predict).
func (c *Client) SaveFavorites(ctx context.Context, favorites string) (int64, error) {
	var out struct {
		Coins int64 `json:"coins"`
	}
	err := c.do(ctx, http.MethodPut, "/users/me/favorites",
		"application/json", jsonBody(map[string]string{"favorites": favorites}), &out)
	return out.Coins, err
}

// ClearFavorites resets favorites; the server zeroes the balance.
func (c *Client) ClearFavorites(ctx context.Context) (int64, error) {
	var out struct {
		Coins int64 `json:"coins"`
	}
	err := c.do(ctx, http.MethodDelete, "/users/me/favorites", "", nil, &out)
	return out.Coins, err
}

// --- Chats ---

// CreateChat registers a new chat and returns its server-assigned metadata.
func (c *Client) CreateChat(ctx context.Context, title string) (model.ChatSession, error) {
	var out model.ChatSession
	err := c.postJSON(ctx, "/chats", map[string]string{"title": title}, &out)
	return out, err
}

// ListChats returns chat metadata, newest first.
func (c *Client) ListChats(ctx context.Context) ([]model.ChatSession, error) {
	var out []model.ChatSession
	err := c.getJSON(ctx, "/chats", &out)
	return out, err
}

// History returns the ordered message log of a chat.
func (c *Client) History(ctx context.Context, chatID string) ([]model.Message, error) {
	var out []model.Message
	err := c.getJSON(ctx, "/chats/"+url.PathEscape(chatID)+"/history", &out)
	return out, err
}

// DeleteChat removes a chat and its history.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.do(ctx, http.MethodDelete, "/chats/"+url.PathEscape(chatID), "", nil, nil)
}

// ChatReply is the assistant's answer to one message.
type ChatReply struct {
	Response      string `json:"response"`
	ChatID        string `json:"chat_id"`
	Title         string `json:"title,omitempty"` // set on the first exchange
	Mode          string `json:"mode"`
	MemoryUpdated bool   `json:"memory_updated,omitempty"`
	GoalCreated   string `json:"goal_created,omitempty"`
}

// SendMessage posts a user message and returns the model reply.
func (c *Client) SendMessage(ctx context.Context, chatID, message string) (ChatReply, error) {
	var out ChatReply
	err := c.postJSON(ctx, "/chat", map[string]string{"chat_id": chatID, "message": message}, &out)
	return out, err
}

// --- Goals ---

// GoalDraft is the payload for creating a goal; the server assigns id,
// created_at and the initial status.
type GoalDraft struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Duration     int    `json:"duration"`
	DurationUnit string `json:"duration_unit"`
	Priority     string `json:"priority"`
}

// ListGoals returns all goals of the user.
func (c *Client) ListGoals(ctx context.Context) ([]model.Goal, error) {
	var out []model.Goal
	err := c.getJSON(ctx, "/goals", &out)
	return out, err
}

// CreateGoal submits a new goal.
func (c *Client) CreateGoal(ctx context.Context, draft GoalDraft) (model.Goal, error) {
	var out model.Goal
	err := c.postJSON(ctx, "/goals", draft, &out)
	return out, err
}

// UpdateGoal sends a partial patch; only set fields overwrite server state.
func (c *Client) UpdateGoal(ctx context.Context, id int64, patch model.GoalPatch) (model.Goal, error) {
	body := map[string]any{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	if patch.Duration != nil {
		body["duration"] = *patch.Duration
	}
	if patch.DurationUnit != nil {
		body["duration_unit"] = *patch.DurationUnit
	}
	if patch.Priority != nil {
		body["priority"] = *patch.Priority
	}
	if patch.Status != nil {
		body["status"] = *patch.Status
	}
	if patch.Subtasks != nil {
		body["subtasks"] = model.EncodeSubtasks(patch.Subtasks)
	}
	var out model.Goal
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/goals/%d", id),
		"application/json", jsonBody(body), &out)
	return out, err
}

// DeleteGoal removes a goal.
func (c *Client) DeleteGoal(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/goals/%d", id), "", nil, nil)
}

// Decompose asks the assistant to expand the goal into subtasks. This call is
// visibly slower than the rest; callers show a distinct processing state.
func (c *Client) Decompose(ctx context.Context, id int64, breakdownType string) (model.Goal, error) {
	var out model.Goal
	path := fmt.Sprintf("/goals/%d/decompose?breakdown_type=%s", id, url.QueryEscape(breakdownType))
	err := c.do(ctx, http.MethodPost, path, "", nil, &out)
	return out, err
}

// QuizResult carries the availability flag; Quiz is nil while locked.
type QuizResult struct {
	Available bool        `json:"available"`
	Quiz      *model.Quiz `json:"quiz,omitempty"`
}

// Quiz fetches the goal quiz once all subtasks are completed.
func (c *Client) Quiz(ctx context.Context, id int64) (QuizResult, error) {
	var out QuizResult
	err := c.getJSON(ctx, fmt.Sprintf("/goals/%d/quiz", id), &out)
	return out, err
}

// --- Rewards ---

// RewardState is the full store view: catalog, balance and ledger.
type RewardState struct {
	Coins   int64               `json:"coins"`
	Items   []model.RewardItem  `json:"items"`
	History []model.Transaction `json:"history"`
}

// Rewards fetches the personalized catalog with balance and history.
func (c *Client) Rewards(ctx context.Context) (RewardState, error) {
	var out RewardState
	err := c.getJSON(ctx, "/rewards", &out)
	return out, err
}

// Redeem spends coins. The server validates the balance; the returned value
// is authoritative and must replace any client-side prediction.
func (c *Client) Redeem(ctx context.Context, cost int64) (int64, error) {
	var out struct {
		NewBalance int64 `json:"new_balance"`
	}
	err := c.postJSON(ctx, "/rewards/redeem", map[string]int64{"cost": cost}, &out)
	return out.NewBalance, err
}

// --- plumbing ---

func jsonBody(v any) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, "application/json", jsonBody(in), out)
}

// getJSON wraps GETs with a bounded retry on transport failure; GETs are
// idempotent so a retried reload cannot duplicate a mutation.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	backoff := retry.WithMaxRetries(maxGetRetries, retry.NewFibonacci(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, "", nil, out)
		var ne *NetworkError
		if errors.As(err, &ne) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// isAuthPath marks endpoints exempt from session eviction.
func isAuthPath(path string) bool {
	return path == "/token" || path == "/register"
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.guard.Attach(req)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Debug("http", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("http",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		msg := errorDetail(resp.Body)
		c.guard.HandleUnauthorized(isAuthPath(path))
		return &AuthError{Message: msg}
	}
	if resp.StatusCode >= 400 {
		return &RequestError{Status: resp.StatusCode, Message: errorDetail(resp.Body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetail extracts {"detail": "..."} bodies, falling back to raw text.
func errorDetail(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(b))
}
