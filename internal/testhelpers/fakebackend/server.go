// Package fakebackend is an in-memory implementation of the chat backend HTTP
// contract. Tests mount Handler on httptest; cmd/fake-backend serves it for local
// development.
package fakebackend

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Titler names a conversation after its first exchange. Returning "" keeps the title.
type Titler func(firstMessage string) string

// Replier produces the assistant reply for a user message.
type Replier func(message string, useRAG bool) string

// Executor runs a code snippet.
type Executor func(code, language string) ExecutionResult

// Hook runs before every request. Returning false aborts the request; the hook is
// then responsible for writing the response.
type Hook func(c *gin.Context) bool

// ExecutionResult is the body of POST /chat/execute-code.
type ExecutionResult struct {
	Success  bool   `json:"success"`
	Output   string `json:"output"`
	Error    string `json:"error"`
	Language string `json:"language"`
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HS256 signing secret.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithShareBaseURL sets the origin used in minted share links.
func WithShareBaseURL(base string) Option {
	return func(s *Server) { s.shareBaseURL = strings.TrimRight(base, "/") }
}

// WithTitler replaces the default titler.
func WithTitler(t Titler) Option {
	return func(s *Server) { s.titler = t }
}

// WithReplier replaces the default assistant.
func WithReplier(r Replier) Option {
	return func(s *Server) { s.replier = r }
}

// WithExecutor replaces the default code executor.
func WithExecutor(e Executor) Option {
	return func(s *Server) { s.executor = e }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// WithLogger enables request logging.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// Server is the fake backend.
type Server struct {
	secret       []byte
	shareBaseURL string
	titler       Titler
	replier      Replier
	executor     Executor
	bcryptCost   int
	log          zerolog.Logger

	mu            sync.Mutex
	users         map[string]*user
	conversations map[string]*conversationRecord
	shares        map[string]string
	documents     []document
	requests      []string
	clock         time.Time

	hookMu sync.RWMutex
	hook   Hook

	engine *gin.Engine
}

// New builds a Server with its routes registered.
func New(opts ...Option) *Server {
	s := &Server{
		secret:        []byte("jan-chat-dev-secret"),
		shareBaseURL:  "http://localhost:5173",
		titler:        defaultTitler,
		replier:       defaultReplier,
		executor:      defaultExecutor,
		bcryptCost:    bcrypt.DefaultCost,
		log:           zerolog.Nop(),
		users:         map[string]*user{},
		conversations: map[string]*conversationRecord{},
		shares:        map[string]string{},
		clock:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.track())
	s.registerRoutes(engine)
	s.engine = engine
	return s
}

// Handler returns the HTTP handler serving the API under /api.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// SetHook installs h, replacing any previous hook. A nil hook removes it.
func (s *Server) SetHook(h Hook) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.hook = h
}

// Requests returns "METHOD /path" for every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

// CountRequests returns how many received requests equal "METHOD /path".
func (s *Server) CountRequests(methodAndPath string) int {
	n := 0
	for _, r := range s.Requests() {
		if r == methodAndPath {
			n++
		}
	}
	return n
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("fake backend listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("fake backend error")
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("Context cancelled, shutting down fake backend")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) track() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.requests = append(s.requests, c.Request.Method+" "+c.Request.URL.Path)
		s.mu.Unlock()

		s.hookMu.RLock()
		hook := s.hook
		s.hookMu.RUnlock()
		if hook != nil && !hook(c) {
			c.Abort()
			return
		}

		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) registerRoutes(engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := engine.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)
	auth.GET("/me", s.requireUser(), s.me)

	api.GET("/conversations/shared/:token", s.getShared)

	conversations := api.Group("/conversations", s.requireUser())
	conversations.GET("", s.listConversations)
	conversations.POST("", s.createConversation)
	conversations.GET("/:id/messages", s.listMessages)
	conversations.DELETE("/:id", s.deleteConversation)
	conversations.POST("/:id/share", s.shareConversation)
	conversations.GET("/:id/summarize", s.summarize)

	chat := api.Group("/chat", s.requireUser())
	chat.POST("/message", s.sendMessage)
	chat.POST("/upload-document", s.uploadDocument)
	chat.POST("/upload-file", s.uploadFile)
	chat.POST("/execute-code", s.executeCode)
}

// now returns a strictly increasing timestamp so ordering by time is stable.
func (s *Server) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func abortMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
