package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/choremane/internal/actionlog"
	"github.com/dukerupert/choremane/internal/chore"
	"github.com/dukerupert/choremane/internal/config"
	"github.com/dukerupert/choremane/internal/export"
	"github.com/dukerupert/choremane/internal/handler"
	"github.com/dukerupert/choremane/internal/middleware"
	"github.com/dukerupert/choremane/internal/store"
	"github.com/dukerupert/choremane/internal/undo"
	ws "github.com/dukerupert/choremane/internal/websocket"
)

type Server struct {
	cfg         *config.Config
	hub         *ws.Hub
	verifier    middleware.Verifier
	choreH      *handler.ChoreHandler
	logH        *handler.LogHandler
	transferH   *handler.TransferHandler
	systemH     *handler.SystemHandler
	suggestH    *handler.SuggestionHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires stores, services and handlers over db. verifier may be nil when
// only header authentication is enabled; uploader may be nil when no archive
// bucket is configured.
func New(db *sqlx.DB, cfg *config.Config, verifier middleware.Verifier, uploader *export.Uploader, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	st := store.New(db)
	recorder := actionlog.NewRecorder(logger.With("component", "actionlog"))
	svc := chore.NewService(st, recorder, logger.With("component", "chore"))
	engine := undo.NewEngine(st, recorder, logger.With("component", "undo"))

	httpLogger := logger.With("component", "http")

	return &Server{
		cfg:       cfg,
		hub:       hub,
		verifier:  verifier,
		choreH:    handler.NewChoreHandler(svc, hub, httpLogger),
		logH:      handler.NewLogHandler(svc, engine, hub, httpLogger),
		transferH: handler.NewTransferHandler(svc, uploader, hub, httpLogger),
		systemH: handler.NewSystemHandler(st, handler.VersionInfo{
			Tag:           cfg.Version.Tag,
			BackendImage:  cfg.Version.BackendImage,
			FrontendImage: cfg.Version.FrontendImage,
		}, httpLogger),
		suggestH:    handler.NewSuggestionHandler(httpLogger),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RunCleanup prunes rate limiter state until ctx is done.
func (s *Server) RunCleanup(ctx context.Context) {
	s.rateLimiter.Run(ctx, 5*time.Minute)
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.systemH.Health)
	outerMux.HandleFunc("GET /api/status", s.systemH.Status)
	outerMux.HandleFunc("GET /api/version", s.systemH.Version)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireIdentity(s.verifier, s.cfg.Auth.AllowHeader, s.logger.With("component", "auth"))
	outerMux.Handle("/", authMiddleware(protectedMux))

	cors := middleware.CORS(s.cfg.Server.AllowedOrigins)
	return middleware.RequestLogger(s.logger.With("component", "http"))(cors(outerMux))
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RequesterKey, s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window)
	return rl(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Chores
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores/archived", s.choreH.ListArchived)
	mux.HandleFunc("GET /api/chores/count", s.choreH.Counts)
	mux.HandleFunc("GET /api/chores/household-health", s.choreH.HouseholdHealth)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("PUT /api/chores/{id}/done", s.choreH.MarkDone)
	mux.HandleFunc("PUT /api/chores/{id}/archive", s.choreH.Archive)
	mux.HandleFunc("PUT /api/chores/{id}/unarchive", s.choreH.Unarchive)

	// Action log
	mux.HandleFunc("GET /api/logs", s.logH.List)
	mux.Handle("POST /api/undo", s.rateLimited(s.logH.Undo))

	// Import / export
	mux.Handle("POST /api/import", s.rateLimited(s.transferH.Import))
	mux.HandleFunc("GET /api/export", s.transferH.Export)
	mux.Handle("POST /api/export/archive", s.rateLimited(s.transferH.Archive))

	// Chore suggestions
	mux.HandleFunc("POST /mcp/generate", s.suggestH.Generate)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.cfg.Server.AllowedOrigins, s.logger.With("component", "websocket")))
}
