package mutator

import (
	"sync"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/client"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// Store is the advisory local copy of server state that views render. The
// server stays the sole source of truth: any slice held here can be discarded
// and reloaded without loss. Async completions must pass the relevance checks
// (matching chat id) before touching it.
type Store struct {
	mu           sync.Mutex
	activeChatID string // empty while a brand-new chat has no server id yet
	messages     []model.Message
	chats        []model.ChatSession
	goals        []model.Goal
	rewards      client.RewardState
	profile      client.Profile
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// --- read accessors (copy out) ---

// ActiveChatID returns the displayed chat's id, empty for an unresolved chat.
func (s *Store) ActiveChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeChatID
}

// Messages returns the displayed message log.
func (s *Store) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.messages...)
}

// Chats returns the chat list.
func (s *Store) Chats() []model.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChatSession(nil), s.chats...)
}

// Goals returns the goal list.
func (s *Store) Goals() []model.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Goal(nil), s.goals...)
}

// Goal looks up one goal by id.
func (s *Store) Goal(id int64) (model.Goal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goals {
		if g.ID == id {
			return g, true
		}
	}
	return model.Goal{}, false
}

// Rewards returns catalog, balance and ledger.
func (s *Store) Rewards() client.RewardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.rewards
	out.Items = append([]model.RewardItem(nil), s.rewards.Items...)
	out.History = append([]model.Transaction(nil), s.rewards.History...)
	return out
}

// Profile returns the cached user profile.
func (s *Store) Profile() client.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// --- chat state ---

// SwitchChat makes chatID the displayed chat and clears the message log until
// a history load completes. Empty chatID starts a fresh, unresolved chat.
func (s *Store) SwitchChat(chatID string) {
	s.mu.Lock()
	s.activeChatID = chatID
	s.messages = nil
	s.mu.Unlock()
}

// adoptChatID binds a server-assigned id to the unresolved active chat,
// keeping its optimistic messages. Returns false if the user has switched to
// a resolved chat in the meantime.
func (s *Store) adoptChatID(meta model.ChatSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeChatID != "" {
		return false
	}
	s.activeChatID = meta.ID
	s.chats = append([]model.ChatSession{meta}, s.chats...)
	return true
}

// setMessagesIf replaces the log only when chatID is still displayed.
func (s *Store) setMessagesIf(chatID string, msgs []model.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeChatID != chatID {
		return false
	}
	s.messages = append([]model.Message(nil), msgs...)
	return true
}

// appendMessageIf appends to the log only when chatID is still displayed.
func (s *Store) appendMessageIf(chatID string, msg model.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeChatID != chatID {
		return false
	}
	s.messages = append(s.messages, msg)
	return true
}

func (s *Store) setChats(chats []model.ChatSession) {
	s.mu.Lock()
	s.chats = append([]model.ChatSession(nil), chats...)
	s.mu.Unlock()
}

func (s *Store) removeChat(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.chats[:0]
	for _, c := range s.chats {
		if c.ID != chatID {
			out = append(out, c)
		}
	}
	s.chats = out
	if s.activeChatID == chatID {
		s.activeChatID = ""
		s.messages = nil
	}
}

func (s *Store) retitleChat(chatID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			s.chats[i].Title = title
			return
		}
	}
}

// --- goal state ---

func (s *Store) setGoals(goals []model.Goal) {
	s.mu.Lock()
	s.goals = append([]model.Goal(nil), goals...)
	s.mu.Unlock()
}

func (s *Store) replaceGoal(g model.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == g.ID {
			s.goals[i] = g
			return
		}
	}
	s.goals = append(s.goals, g)
}

func (s *Store) removeGoal(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.goals[:0]
	for _, g := range s.goals {
		if g.ID != id {
			out = append(out, g)
		}
	}
	s.goals = out
}

// --- reward / profile state ---

func (s *Store) setRewards(r client.RewardState) {
	s.mu.Lock()
	s.rewards = r
	s.mu.Unlock()
}

// applyRedemption installs the server-confirmed balance and appends the
// ledger entry. Never called with a client-predicted balance.
func (s *Store) applyRedemption(newBalance int64, txn model.Transaction) {
	s.mu.Lock()
	s.rewards.Coins = newBalance
	s.rewards.History = append(s.rewards.History, txn)
	s.profile.Coins = newBalance
	s.mu.Unlock()
}

func (s *Store) setProfile(p client.Profile) {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
}

func (s *Store) setFavorites(favorites string, coins int64) {
	s.mu.Lock()
	s.profile.Favorites = favorites
	s.profile.Coins = coins
	s.rewards.Coins = coins
	s.mu.Unlock()
}
