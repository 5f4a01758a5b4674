// Package httpserver exposes the Lumina REST API.
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth    service.AuthService
	users   service.UserService
	chats   service.ChatService
	goals   service.GoalService
	rewards service.RewardService
	signKey []byte
	log     *zap.Logger
}

// New constructs the server with injected services.
func New(
	auth service.AuthService,
	users service.UserService,
	chats service.ChatService,
	goals service.GoalService,
	rewards service.RewardService,
	signKey []byte,
	log *zap.Logger,
) *Server {
	return &Server{
		auth:    auth,
		users:   users,
		chats:   chats,
		goals:   goals,
		rewards: rewards,
		signKey: signKey,
		log:     log,
	}
}

// Routes builds the router. Everything except /healthz, /register and /token
// requires a bearer token.
func (s *Server) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/register", s.handleRegister)
	r.Post("/token", s.handleToken)

	r.Group(func(r chi.Router) {
		r.Use(s.Auth)

		r.Get("/users/me", s.handleMe)
		r.Get("/users/me/profile", s.handleFacts)
		r.Put("/users/me/profile", s.handleReplaceFacts)
		r.Put("/users/me/favorites", s.handleSaveFavorites)
		r.Delete("/users/me/favorites", s.handleClearFavorites)

		r.Post("/chats", s.handleCreateChat)
		r.Get("/chats", s.handleListChats)
		r.Delete("/chats/{chatID}", s.handleDeleteChat)
		r.Get("/chats/{chatID}/history", s.handleHistory)
		r.Post("/chat", s.handleChat)

		r.Get("/goals", s.handleListGoals)
		r.Post("/goals", s.handleCreateGoal)
		r.Put("/goals/{goalID}", s.handlePatchGoal)
		r.Delete("/goals/{goalID}", s.handleDeleteGoal)
		r.Post("/goals/{goalID}/decompose", s.handleDecompose)
		r.Get("/goals/{goalID}/quiz", s.handleQuiz)

		r.Get("/rewards", s.handleRewards)
		r.Post("/rewards/redeem", s.handleRedeem)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "online"})
}
