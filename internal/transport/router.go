package transport

import (
	"encoding/json"
	"net/http"

	"paperio/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig contains all dependencies needed to construct the HTTP
// router. Designed for dependency injection and testability: NewRouter opens
// no listener, so it's safe to use with httptest.NewServer. Passing a
// RateLimiter avoids the cleanup goroutine a default one starts.
type RouterConfig struct {
	// Rooms lists every active room the API should report on. Index 0 is
	// the default room new WebSocket connections join.
	Rooms []*game.Room

	// Hub is the WebSocket hub serving /ws for the default room.
	Hub *WebSocketHub

	// RateLimiter is an optional pre-configured rate limiter. If nil, one
	// is built from RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins overrides the default allowed CORS origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for
	// benchmarks and tests).
	DisableLogging bool
}

// NewRouter constructs the HTTP router with all middleware and routes. It
// opens no listeners; when cfg.RateLimiter is nil, the IPRateLimiter it
// builds starts its cleanup goroutine.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{rooms: cfg.Rooms}

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetState)
		r.Get("/rooms", h.handleGetRooms)
		r.Get("/leaderboard", h.handleGetLeaderboard)
	})

	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWebSocket)
	}

	return r
}

type routerHandlers struct {
	rooms []*game.Room
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetState returns the default room's current projected state.
func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	if len(h.rooms) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no active room"})
		return
	}
	writeJSON(w, http.StatusOK, h.rooms[0].Snapshot())
}

// roomSummary is the lightweight per-room shape returned by /api/rooms.
type roomSummary struct {
	Index       int `json:"index"`
	HumanCount  int `json:"humanCount"`
	BotCount    int `json:"botCount"`
	TotalPlayers int `json:"totalPlayers"`
}

func (h *routerHandlers) handleGetRooms(w http.ResponseWriter, r *http.Request) {
	summaries := make([]roomSummary, len(h.rooms))
	for i, room := range h.rooms {
		humans := room.HumanCount()
		bots := room.BotCount()
		summaries[i] = roomSummary{Index: i, HumanCount: humans, BotCount: bots, TotalPlayers: humans + bots}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if len(h.rooms) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no active room"})
		return
	}
	writeJSON(w, http.StatusOK, h.rooms[0].Leaderboard.GetTop(10))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
