// Package mutator reconciles local view state with server-confirmed state.
// It implements two policies: optimistic-then-reconcile for cheap reversible
// toggles, and confirm-then-apply for balance-affecting or form-submitted
// writes, plus the create-then-send sequencing for brand-new chats.
package mutator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/client"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/errs"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/notify"
)

// ErrInFlight is returned when a pessimistic mutation is already running for
// the same target; the duplicate submission is rejected, not queued.
var ErrInFlight = errors.New("mutation already in flight")

// API is the remote surface the mutator drives. *client.Client implements it.
type API interface {
	CreateChat(ctx context.Context, title string) (model.ChatSession, error)
	SendMessage(ctx context.Context, chatID, message string) (client.ChatReply, error)
	History(ctx context.Context, chatID string) ([]model.Message, error)
	ListChats(ctx context.Context) ([]model.ChatSession, error)
	DeleteChat(ctx context.Context, chatID string) error

	ListGoals(ctx context.Context) ([]model.Goal, error)
	CreateGoal(ctx context.Context, draft client.GoalDraft) (model.Goal, error)
	UpdateGoal(ctx context.Context, id int64, patch model.GoalPatch) (model.Goal, error)
	DeleteGoal(ctx context.Context, id int64) error
	Decompose(ctx context.Context, id int64, breakdownType string) (model.Goal, error)
	Quiz(ctx context.Context, id int64) (client.QuizResult, error)

	Rewards(ctx context.Context) (client.RewardState, error)
	Redeem(ctx context.Context, cost int64) (int64, error)
	SaveFavorites(ctx context.Context, favorites string) (int64, error)
	ClearFavorites(ctx context.Context) (int64, error)
	Me(ctx context.Context) (client.Profile, error)
}

var _ API = (*client.Client)(nil)

// Mutator applies local state changes and reconciles them against the server.
type Mutator struct {
	api    API
	store  *Store
	notify notify.Notifier
	log    *zap.Logger

	// serializes sends so a message typed while the previous one is still
	// resolving queues behind it; also makes create-then-send atomic.
	sendMu sync.Mutex

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New constructs a Mutator. notifier and log may be nil.
func New(api API, store *Store, n notify.Notifier, log *zap.Logger) *Mutator {
	if n == nil {
		n = notify.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Mutator{api: api, store: store, notify: n, log: log, inflight: map[string]struct{}{}}
}

// Store exposes the local state for rendering.
func (m *Mutator) Store() *Store { return m.store }

// --- in-flight guard for confirm-then-apply writes ---

func (m *Mutator) begin(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[key]; busy {
		return false
	}
	m.inflight[key] = struct{}{}
	return true
}

func (m *Mutator) end(key string) {
	m.mu.Lock()
	delete(m.inflight, key)
	m.mu.Unlock()
}

// InFlight reports whether a pessimistic mutation is running for the key;
// views use it to render disabled/processing controls.
func (m *Mutator) InFlight(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, busy := m.inflight[key]
	return busy
}

// RedeemKey is the in-flight key for redeeming one catalog item.
func RedeemKey(itemID string) string { return "redeem:" + itemID }

// DecomposeKey is the in-flight key for decomposing one goal.
func DecomposeKey(goalID int64) string { return fmt.Sprintf("decompose:%d", goalID) }

const (
	favoritesKey = "favorites"
	goalFormKey  = "goal-form"
)

// --- loads ---

// LoadChats refreshes the chat list.
func (m *Mutator) LoadChats(ctx context.Context) error {
	chats, err := m.api.ListChats(ctx)
	if err != nil {
		m.reportError("Could not load chats", err)
		return err
	}
	m.store.setChats(chats)
	return nil
}

// LoadGoals refreshes the goal list.
func (m *Mutator) LoadGoals(ctx context.Context) error {
	goals, err := m.api.ListGoals(ctx)
	if err != nil {
		m.reportError("Could not load goals", err)
		return err
	}
	m.store.setGoals(goals)
	return nil
}

// LoadRewards refreshes catalog, balance and ledger.
func (m *Mutator) LoadRewards(ctx context.Context) error {
	r, err := m.api.Rewards(ctx)
	if err != nil {
		m.reportError("Could not load rewards", err)
		return err
	}
	m.store.setRewards(r)
	return nil
}

// LoadProfile refreshes the cached user profile.
func (m *Mutator) LoadProfile(ctx context.Context) error {
	p, err := m.api.Me(ctx)
	if err != nil {
		m.reportError("Could not load profile", err)
		return err
	}
	m.store.setProfile(p)
	return nil
}

// --- chats ---

// NewChat switches to a fresh chat. No server row exists until the first
// message is sent.
func (m *Mutator) NewChat() { m.store.SwitchChat("") }

// OpenChat displays chatID and loads its history. A history response landing
// after another switch is dropped by the relevance check.
func (m *Mutator) OpenChat(ctx context.Context, chatID string) error {
	m.store.SwitchChat(chatID)
	history, err := m.api.History(ctx, chatID)
	if err != nil {
		m.reportError("Could not load chat history", err)
		return err
	}
	m.store.setMessagesIf(chatID, history)
	return nil
}

// Send posts a user message (optimistic: the message is shown immediately).
// On a brand-new chat the create call is issued first and must yield an id
// before the send goes out; concurrent sends queue behind it and reuse the
// id, so exactly one chat row is ever created.
func (m *Mutator) Send(ctx context.Context, text string) error {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	chatID := m.store.ActiveChatID()
	prior := m.store.Messages()
	m.store.appendMessageIf(chatID, model.Message{Role: model.RoleUser, Content: text})

	if chatID == "" {
		meta, err := m.api.CreateChat(ctx, "New Chat")
		if err != nil {
			m.store.setMessagesIf("", prior)
			m.reportError("Could not reach the assistant", err)
			return err
		}
		if !m.store.adoptChatID(meta) {
			// user switched to another chat while create resolved
			return nil
		}
		chatID = meta.ID
	}

	reply, err := m.api.SendMessage(ctx, chatID, text)
	if err != nil {
		// optimistic user message is discarded by reloading server truth
		if history, herr := m.api.History(ctx, chatID); herr == nil {
			m.store.setMessagesIf(chatID, history)
		}
		m.reportError("Could not reach the assistant", err)
		return err
	}

	applied := m.store.appendMessageIf(reply.ChatID, model.Message{
		Role:    model.RoleModel,
		Content: reply.Response,
		Mode:    reply.Mode,
	})
	if reply.Title != "" {
		m.store.retitleChat(reply.ChatID, reply.Title)
	}
	if !applied {
		// stale: the displayed chat changed while the reply was in flight
		return nil
	}
	if reply.MemoryUpdated {
		m.notify.Notify(notify.ChannelMemory, "Memory updated")
	}
	if reply.GoalCreated != "" {
		m.notify.Notify(notify.ChannelGoal, "Goal created: "+reply.GoalCreated)
	}
	return nil
}

// DeleteChat removes a chat optimistically. Confirmation happens before calling.
func (m *Mutator) DeleteChat(ctx context.Context, chatID string) error {
	m.store.removeChat(chatID)
	if err := m.api.DeleteChat(ctx, chatID); err != nil {
		if chats, lerr := m.api.ListChats(ctx); lerr == nil {
			m.store.setChats(chats)
		}
		m.reportError("Could not delete chat", err)
		return err
	}
	return nil
}

// --- goals ---

// ToggleSubtask flips subtask i of a goal optimistically. Status is re-derived
// locally and the server's canonical goal replaces the optimistic one.
func (m *Mutator) ToggleSubtask(ctx context.Context, goalID int64, i int) error {
	goal, ok := m.store.Goal(goalID)
	if !ok {
		return errs.ErrNotFound
	}
	next := model.ToggleSubtask(goal, i)
	m.store.replaceGoal(next)

	status := next.Status
	canonical, err := m.api.UpdateGoal(ctx, goalID, model.GoalPatch{
		Subtasks: next.Subtasks,
		Status:   &status,
	})
	if err != nil {
		m.rollbackGoals(ctx, "Could not update subtask", err)
		return err
	}
	m.store.replaceGoal(canonical)
	return nil
}

// ToggleStatus flips a goal between completed and in_progress, optimistically.
func (m *Mutator) ToggleStatus(ctx context.Context, goalID int64) error {
	goal, ok := m.store.Goal(goalID)
	if !ok {
		return errs.ErrNotFound
	}
	status := model.StatusCompleted
	if goal.Status == model.StatusCompleted {
		status = model.StatusInProgress
	}
	goal.Status = status
	m.store.replaceGoal(goal)

	canonical, err := m.api.UpdateGoal(ctx, goalID, model.GoalPatch{Status: &status})
	if err != nil {
		m.rollbackGoals(ctx, "Could not update goal", err)
		return err
	}
	m.store.replaceGoal(canonical)
	return nil
}

// DeleteGoal removes a goal optimistically. Confirmation happens before calling.
func (m *Mutator) DeleteGoal(ctx context.Context, goalID int64) error {
	m.store.removeGoal(goalID)
	if err := m.api.DeleteGoal(ctx, goalID); err != nil {
		m.rollbackGoals(ctx, "Could not delete goal", err)
		return err
	}
	return nil
}

// SubmitGoal creates a goal from a form (confirm-then-apply: nothing is shown until the
// server assigns id, created_at and status).
func (m *Mutator) SubmitGoal(ctx context.Context, draft client.GoalDraft) (model.Goal, error) {
	if !m.begin(goalFormKey) {
		return model.Goal{}, ErrInFlight
	}
	defer m.end(goalFormKey)

	goal, err := m.api.CreateGoal(ctx, draft)
	if err != nil {
		m.reportError("Could not create goal", err)
		return model.Goal{}, err
	}
	m.store.replaceGoal(goal)
	m.notify.Notify(notify.ChannelSuccess, "Goal created")
	return goal, nil
}

// EditGoal applies a form-submitted patch, confirm-then-apply.
func (m *Mutator) EditGoal(ctx context.Context, goalID int64, patch model.GoalPatch) (model.Goal, error) {
	if !m.begin(goalFormKey) {
		return model.Goal{}, ErrInFlight
	}
	defer m.end(goalFormKey)

	goal, err := m.api.UpdateGoal(ctx, goalID, patch)
	if err != nil {
		m.reportError("Could not update goal", err)
		return model.Goal{}, err
	}
	m.store.replaceGoal(goal)
	return goal, nil
}

// Decompose asks the assistant for a subtask breakdown. The call is long; the
// per-goal in-flight key drives a distinct processing state and rejects a
// duplicate request for the same goal.
func (m *Mutator) Decompose(ctx context.Context, goalID int64, breakdownType string) error {
	key := DecomposeKey(goalID)
	if !m.begin(key) {
		return ErrInFlight
	}
	defer m.end(key)

	goal, err := m.api.Decompose(ctx, goalID, breakdownType)
	if err != nil {
		m.reportError("Could not decompose goal", err)
		return err
	}
	m.store.replaceGoal(goal)
	return nil
}

// Quiz fetches the quiz for a completed goal. Pass-through: no local state.
func (m *Mutator) Quiz(ctx context.Context, goalID int64) (client.QuizResult, error) {
	res, err := m.api.Quiz(ctx, goalID)
	if err != nil {
		m.reportError("Could not load quiz", err)
	}
	return res, err
}

// --- rewards ---

// Redeem spends coins on an item, confirm-then-apply. The balance never moves locally
// before the server confirms; the returned balance is authoritative.
func (m *Mutator) Redeem(ctx context.Context, item model.RewardItem) error {
	if m.store.Rewards().Coins < item.Cost {
		return errs.ErrInsufficientBalance
	}
	key := RedeemKey(item.ID)
	if !m.begin(key) {
		return ErrInFlight
	}
	defer m.end(key)

	newBalance, err := m.api.Redeem(ctx, item.Cost)
	if err != nil {
		m.reportError("Redemption failed", err)
		return err
	}
	m.store.applyRedemption(newBalance, model.Transaction{
		Date:        time.Now().Format("2006-01-02"),
		Description: "Reward Redeemed",
		Amount:      -item.Cost,
	})
	m.notify.Notify(notify.ChannelSuccess, "Reward redeemed! Enjoy your break.")
	return nil
}

// SaveFavorites stores the favorites text (confirm-then-apply: the server decides the
// balance, e.g. a first-time bonus) and refreshes the personalized catalog.
func (m *Mutator) SaveFavorites(ctx context.Context, favorites string) error {
	if !m.begin(favoritesKey) {
		return ErrInFlight
	}
	defer m.end(favoritesKey)

	coins, err := m.api.SaveFavorites(ctx, favorites)
	if err != nil {
		m.reportError("Could not save favorites", err)
		return err
	}
	m.store.setFavorites(favorites, coins)
	_ = m.LoadRewards(ctx) // catalog personalization changed; best effort
	return nil
}

// ClearFavorites resets favorites optimistically: the cleared text shows at
// once, then the server-confirmed zero balance replaces the prediction.
func (m *Mutator) ClearFavorites(ctx context.Context) error {
	prior := m.store.Profile()
	m.store.setFavorites("", prior.Coins)

	coins, err := m.api.ClearFavorites(ctx)
	if err != nil {
		if p, lerr := m.api.Me(ctx); lerr == nil {
			m.store.setProfile(p)
		}
		m.reportError("Could not reset favorites", err)
		return err
	}
	m.store.setFavorites("", coins)
	_ = m.LoadRewards(ctx)
	return nil
}

// --- shared failure paths ---

// rollbackGoals discards optimistic goal state by reloading server truth;
// field-level inverses are not attempted.
func (m *Mutator) rollbackGoals(ctx context.Context, msg string, cause error) {
	if goals, err := m.api.ListGoals(ctx); err == nil {
		m.store.setGoals(goals)
	}
	m.reportError(msg, cause)
}

func (m *Mutator) reportError(msg string, err error) {
	m.log.Warn("mutation failed", zap.String("msg", msg), zap.Error(err))
	m.notify.Notify(notify.ChannelError, msg)
}
