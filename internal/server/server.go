package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"quiz-arena/internal/config"
	"quiz-arena/internal/questions"
	"quiz-arena/internal/sink"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
)

type Server struct {
	cfg      config.Config
	clock    clockwork.Clock
	provider questions.Provider
	hub      *wsHub
	sinks    *sinkDispatcher
	orch     *Orchestrator
	upgrader websocket.Upgrader

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// New wires the orchestrator, hub and sink dispatcher. A nil provider falls
// back to the built-in question sets; a nil sink discards results.
func New(cfg config.Config, provider questions.Provider, out sink.Sink, clock clockwork.Clock) *Server {
	registerValidators()
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if provider == nil {
		provider = questions.NewMemoryProvider(questions.DefaultSets()...)
	}
	hub := newWSHub(defaultHubConfig())
	sinks := newSinkDispatcher(out, cfg.SinkWorkers, cfg.SinkQueueSize, time.Duration(cfg.SinkTimeoutSeconds)*time.Second)
	srv := &Server{
		cfg:      cfg,
		clock:    clock,
		provider: provider,
		hub:      hub,
		sinks:    sinks,
		orch:     NewOrchestrator(OptionsFromConfig(cfg), provider, hub, sinks, clock),
	}
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     srv.checkOrigin,
	}
	return srv
}

// Start launches the orchestrator loop and the sink workers.
func (s *Server) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.sinks.Start()
	go s.orch.Run(loopCtx)
}

// Close stops the loop, drops every connection and drains queued sink jobs
// until ctx expires.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		select {
		case <-s.orch.done:
		case <-ctx.Done():
		}
	}
	s.hub.CloseAll()
	return s.sinks.Close(ctx)
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.GET("/health", s.handleHealth)
	router.GET("/ws", s.handleWebsocket)

	api := router.Group("/api")
	api.GET("/sessions/:code", s.handleGetSession)
	api.GET("/question-sets", s.handleQuestionSets)
	api.GET("/stats", s.handleStats)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
