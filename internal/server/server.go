package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jpriddy/chorewheel/internal/auth"
	"github.com/jpriddy/chorewheel/internal/handler"
	"github.com/jpriddy/chorewheel/internal/middleware"
	"github.com/jpriddy/chorewheel/internal/rotation"
	"github.com/jpriddy/chorewheel/internal/store"
	ws "github.com/jpriddy/chorewheel/internal/websocket"
)

// Config carries the server's runtime settings.
type Config struct {
	JWTSecret string
	UploadDir string
	Strategy  rotation.Strategy
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	authH       *handler.AuthHandler
	memberH     *handler.MemberHandler
	choreH      *handler.ChoreHandler
	assignmentH *handler.AssignmentHandler
	photoH      *handler.PhotoHandler
	tokens      *auth.Tokens
	memberStore *store.MemberStore
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	groupStore := store.NewGroupStore(db)
	memberStore := store.NewMemberStore(db)
	choreStore := store.NewChoreStore(db)
	assignmentStore := store.NewAssignmentStore(db)

	tokens := auth.NewTokens(cfg.JWTSecret)
	engine := rotation.NewEngine(db, logger.With("component", "rotation"))

	return &Server{
		db:          db,
		hub:         hub,
		authH:       handler.NewAuthHandler(groupStore, memberStore, tokens, logger.With("component", "auth")),
		memberH:     handler.NewMemberHandler(memberStore, hub, logger.With("component", "member")),
		choreH:      handler.NewChoreHandler(choreStore, hub, logger.With("component", "chore")),
		assignmentH: handler.NewAssignmentHandler(assignmentStore, choreStore, memberStore, engine, cfg.Strategy, hub, logger.With("component", "assignment")),
		photoH:      handler.NewPhotoHandler(assignmentStore, cfg.UploadDir, logger.With("component", "photo")),
		tokens:      tokens,
		memberStore: memberStore,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /join", s.rateLimitedHandler(s.authH.Join))
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens, s.memberStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAdmin(h)
	}

	// Member API routes
	mux.HandleFunc("GET /api/members/me", s.memberH.Me)
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("PUT /api/members/{id}/password", s.memberH.UpdatePassword)
	mux.Handle("PATCH /api/members/{id}/role", admin(s.memberH.UpdateRole))
	mux.Handle("PATCH /api/members/{id}/rotation", admin(s.memberH.UpdateRotation))
	mux.Handle("DELETE /api/members/{id}", admin(s.memberH.Delete))

	// Chore API routes
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.Handle("POST /api/chores", admin(s.choreH.Create))
	mux.Handle("PUT /api/chores/{id}", admin(s.choreH.Update))
	mux.Handle("DELETE /api/chores/{id}", admin(s.choreH.Delete))
	mux.Handle("POST /api/chores/{id}/reorder", admin(s.choreH.ReorderStep))
	mux.Handle("PUT /api/chores/order", admin(s.choreH.Reorder))

	// Assignment API routes
	mux.HandleFunc("GET /api/assignments", s.assignmentH.List)
	mux.HandleFunc("GET /api/assignments/my", s.assignmentH.My)
	mux.HandleFunc("GET /api/assignments/pending", s.assignmentH.Pending)
	mux.HandleFunc("GET /api/assignments/{id}", s.assignmentH.Get)
	mux.Handle("POST /api/assignments", admin(s.assignmentH.Create))
	mux.HandleFunc("POST /api/assignments/{id}/complete", s.assignmentH.Complete)
	mux.Handle("POST /api/assignments/{id}/reject", admin(s.assignmentH.Reject))
	mux.Handle("DELETE /api/assignments/{id}", admin(s.assignmentH.Delete))
	mux.Handle("DELETE /api/assignments", admin(s.assignmentH.DeleteByWeek))
	mux.Handle("POST /api/assignments/rotate", admin(s.assignmentH.Rotate))

	// Photo routes
	mux.HandleFunc("POST /api/assignments/{id}/photos", s.photoH.Upload)
	mux.HandleFunc("GET /photos/{filename}", s.photoH.Serve)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
