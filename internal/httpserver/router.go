package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"chatroom/internal/auth"
	"chatroom/internal/config"
	"chatroom/internal/directory"
	"chatroom/internal/domain"
	"chatroom/internal/feed"
	"chatroom/internal/security"
	"chatroom/internal/ws"
)

var validate = validator.New()

// Deps bundles everything the router wires together.
type Deps struct {
	Identity *auth.Service
	Tokens   *security.TokenService
	Profiles domain.ProfileStore
	Rooms    domain.RoomStore
	Messages domain.MessageStore
	Dir      *directory.Directory
	Feed     *feed.Feed
	Hub      *ws.Hub
}

// NewRouter constructs the main HTTP router and wires routes and middleware.
func NewRouter(cfg *config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"chatroom API","version":"1.0.0"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(d.Identity, d.Profiles, d.Tokens))
			r.Post("/login", handleLogin(d.Identity, d.Tokens))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Tokens, d.Profiles))

			r.Post("/auth/logout", handleLogout(d.Profiles))
			r.Get("/auth/me", handleMe())

			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", handleListRooms(d.Rooms))
				r.Post("/", handleCreateRoom(d.Dir))
				r.Get("/{roomID}/messages", handleListMessages(d.Messages))
				r.Post("/{roomID}/messages", handleCreateMessage(d.Feed))
			})

			r.Post("/messages/{messageID}/reactions", handleToggleReaction(d.Feed))

			r.Route("/profiles", func(r chi.Router) {
				r.Get("/online", handleListOnlineProfiles(d.Profiles))
				r.Get("/{profileID}", handleGetProfile(d.Profiles))
			})
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(d.Hub, d.Tokens, d.Profiles, d.Dir, d.Feed, cfg.CORSOrigins))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
