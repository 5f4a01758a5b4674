package httpserver

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/errs"
	"github.com/DCode-v05/Lumina-Digital-Companio/internal/model"
)

// --- Auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	u, err := s.auth.Register(r.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":        u.ID.String(),
		"email":     u.Email,
		"full_name": u.FullName,
	})
}

// clientIP strips the ephemeral port from the peer address so the login
// throttle keys on the host, not on each TCP connection.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed form")
		return
	}
	tokens, _, err := s.auth.LoginWithIP(r.Context(),
		r.PostFormValue("username"), r.PostFormValue("password"), clientIP(r))
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": tokens.AccessToken,
		"token_type":   "bearer",
	})
}

// --- Profile ---

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	u, err := s.users.Me(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        u.ID.String(),
		"email":     u.Email,
		"full_name": u.FullName,
		"favorites": u.Favorites,
		"coins":     u.Coins,
	})
}

func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	facts, err := s.users.Facts(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	texts := make([]string, 0, len(facts))
	for _, f := range facts {
		texts = append(texts, f.Text)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"facts": texts})
}

func (s *Server) handleReplaceFacts(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req struct {
		Facts []string `json:"facts"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	if err := s.users.ReplaceFacts(r.Context(), userID, req.Facts); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveFavorites(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req struct {
		Favorites string `json:"favorites"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	coins, err := s.users.SaveFavorites(r.Context(), userID, req.Favorites)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"coins": coins})
}

func (s *Server) handleClearFavorites(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	if err := s.users.ClearFavorites(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"coins": 0})
}

// --- Chats ---

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	c, err := s.chats.Create(r.Context(), userID, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	chats, err := s.chats.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if chats == nil {
		chats = []model.ChatSession{}
	}
	writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	if err := s.chats.Delete(r.Context(), userID, chi.URLParam(r, "chatID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	msgs, err := s.chats.History(r.Context(), userID, chi.URLParam(r, "chatID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req struct {
		ChatID  string `json:"chat_id"`
		Message string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	res, err := s.chats.Converse(r.Context(), userID, req.ChatID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	out := map[string]any{
		"response":       res.Response,
		"chat_id":        res.ChatID,
		"mode":           res.Mode,
		"memory_updated": res.MemoryUpdated,
	}
	if res.Title != "" {
		out["title"] = res.Title
	}
	if res.GoalCreated != nil {
		out["goal_created"] = res.GoalCreated.Title
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Goals ---

func goalID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "goalID"), 10, 64)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	goals, err := s.goals.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		Duration     int    `json:"duration"`
		DurationUnit string `json:"duration_unit"`
		Priority     string `json:"priority"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	g, err := s.goals.Create(r.Context(), userID, model.Goal{
		Title:        req.Title,
		Description:  req.Description,
		Duration:     req.Duration,
		DurationUnit: req.DurationUnit,
		Priority:     req.Priority,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// goalPatchRequest distinguishes absent fields from zero values. Subtasks may
// arrive as the canonical string document or as an inline array.
type goalPatchRequest struct {
	Title        *string         `json:"title"`
	Description  *string         `json:"description"`
	Duration     *int            `json:"duration"`
	DurationUnit *string         `json:"duration_unit"`
	Priority     *string         `json:"priority"`
	Status       *string         `json:"status"`
	Subtasks     json.RawMessage `json:"subtasks"`
}

func (req *goalPatchRequest) toPatch() (model.GoalPatch, error) {
	p := model.GoalPatch{
		Title:        req.Title,
		Description:  req.Description,
		Duration:     req.Duration,
		DurationUnit: req.DurationUnit,
		Priority:     req.Priority,
		Status:       req.Status,
	}
	if len(req.Subtasks) == 0 {
		return p, nil
	}
	doc := string(req.Subtasks)
	var inner string
	if err := json.Unmarshal(req.Subtasks, &inner); err == nil {
		doc = inner
	}
	subtasks, err := model.ParseSubtasks(doc)
	if err != nil {
		return model.GoalPatch{}, err
	}
	if subtasks == nil {
		subtasks = []model.Subtask{}
	}
	p.Subtasks = subtasks
	return p, nil
}

func (s *Server) handlePatchGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	id, err := goalID(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed goal id")
		return
	}
	var req goalPatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed subtasks")
		return
	}
	g, err := s.goals.Patch(r.Context(), userID, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	id, err := goalID(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed goal id")
		return
	}
	if err := s.goals.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleDecompose(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	id, err := goalID(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed goal id")
		return
	}
	g, err := s.goals.Decompose(r.Context(), userID, id, r.URL.Query().Get("breakdown_type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	id, err := goalID(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed goal id")
		return
	}
	res, err := s.goals.Quiz(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, errs.ErrQuizLocked) {
			writeJSON(w, http.StatusOK, map[string]any{"available": false})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": res.Available, "quiz": res.Quiz})
}

// --- Rewards ---

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	state, err := s.rewards.Rewards(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if state.History == nil {
		state.History = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"coins":   state.Coins,
		"items":   state.Items,
		"history": state.History,
	})
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req struct {
		Cost int64 `json:"cost"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	balance, err := s.rewards.Redeem(r.Context(), userID, req.Cost)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"new_balance": balance})
}
