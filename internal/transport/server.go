package transport

import (
	"context"
	"log"
	"net/http"
	"time"

	"paperio/internal/game"

	"github.com/go-chi/chi/v5"
)

// playerCountPollInterval controls how often Server samples room population
// into the room_player_count / room_count gauges.
const playerCountPollInterval = 2 * time.Second

// Server is the HTTP API server with WebSocket support, combining the chi
// router with a per-room WebSocket hub for real-time state broadcast.
type Server struct {
	room        *game.Room
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	stopCh      chan struct{}
}

// NewServer builds a Server bound to room with default production
// configuration. Only the rate limiter's cleanup goroutine starts here; the
// WebSocket hub workers and the listener wait for Start, so the router can
// be exercised directly in tests via Router().
func NewServer(room *game.Room) *Server {
	hub := NewWebSocketHub(room)
	rateLimiter := NewIPRateLimiter(DefaultRateLimitConfig)

	router := NewRouter(RouterConfig{
		Rooms:       []*game.Room{room},
		Hub:         hub,
		RateLimiter: rateLimiter,
	})

	room.SetMetricsHook(PromMetricsHook{})

	return &Server{
		room:        room,
		router:      router,
		wsHub:       hub,
		rateLimiter: rateLimiter,
		stopCh:      make(chan struct{}),
	}
}

// Start begins serving HTTP and launches the WebSocket hub's background
// workers. The only method on Server that opens a listener or starts the
// hub's goroutines.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.stopCh)
	go s.pollPopulationGauges()

	log.Printf("🌐 paperio server starting on %s", addr)
	log.Printf("   - websocket: ws://%s/ws", addr)
	log.Printf("   - health:    http://%s/health", addr)

	return http.ListenAndServe(addr, s.router)
}

// pollPopulationGauges periodically samples room population into the
// room_player_count / room_count Prometheus gauges until stopCh closes.
func (s *Server) pollPopulationGauges() {
	ticker := time.NewTicker(playerCountPollInterval)
	defer ticker.Stop()

	UpdateRoomCount(1)
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			UpdatePlayerCount(s.room.HumanCount() + s.room.BotCount())
		}
	}
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers. Does not close the
// underlying http.Server; callers that called Start via http.ListenAndServe
// directly should rely on process exit, or wrap Start behind an
// http.Server they shut down themselves.
func (s *Server) Stop(ctx context.Context) {
	close(s.stopCh)
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
