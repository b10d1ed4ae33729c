package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/cache"
	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/handlers"
	"example.com/backstage/services/bipagem/projections"
)

// Handlers groups the command handlers served over HTTP
type Handlers struct {
	Sessions *handlers.SessionHandler
	Carts    *handlers.CartHandler
	Notes    *handlers.NoteHandler
	Reports  *handlers.ReportHandler
}

// Updates streams the change notifications of a session
type Updates interface {
	Enabled() bool
	Subscribe(ctx context.Context, sessionKey string) (<-chan cache.Update, error)
}

// ReportSearcher runs full-text queries over finalized report notes
type ReportSearcher interface {
	SearchReportNotes(ctx context.Context, query string, limit int) ([]projections.NoteDocument, error)
}

// Server is the HTTP server for the API
type Server struct {
	cfg        config.Config
	router     *gin.Engine
	httpServer *http.Server
	handlers   Handlers
	updates    Updates
	search     ReportSearcher
	nrApp      *newrelic.Application
}

// NewServer creates a new API server. search and nrApp may be nil.
func NewServer(cfg config.Config, h Handlers, updates Updates, search ReportSearcher, nrApp *newrelic.Application) *Server {
	server := &Server{
		cfg:      cfg,
		router:   gin.New(),
		handlers: h,
		updates:  updates,
		search:   search,
		nrApp:    nrApp,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// Router exposes the gin engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(RequestIDMiddleware())

	if s.cfg.Server.CorsEnabled {
		s.router.Use(CORSMiddleware(s.cfg.Server.CorsOrigins))
	}

	s.router.Use(gin.Recovery())
	s.router.Use(LoggingMiddleware())

	if s.nrApp != nil {
		s.router.Use(nrgin.Middleware(s.nrApp))
	}
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	v1 := s.router.Group("/api/v1")
	v1.POST("/sessions", s.login)

	authorized := v1.Group("")
	authorized.Use(AuthMiddleware(s.cfg.Auth))

	authorized.GET("/sessions/current", s.currentSession)
	authorized.GET("/updates", s.streamUpdates)

	carts := authorized.Group("/carts")
	{
		carts.GET("", s.listCarts)
		carts.POST("", s.createCart)
		carts.POST("/active/scan", s.scanCart)
		carts.PUT("/:id/active", s.activateCart)
		carts.DELETE("/:id/lines/:lineId", s.removeCartLine)
		carts.POST("/:id/review", s.submitCartForReview)
		carts.POST("/:id/finalize-scan", s.finalizeCartScan)
		carts.POST("/:id/packing", s.startPacking)
		carts.POST("/:id/complete", s.completeCart)
		carts.POST("/:id/unpack", s.unpackCart)
		carts.GET("/:id/history", s.cartHistory)
	}

	notes := authorized.Group("/notes")
	{
		notes.GET("", s.listNotes)
		notes.POST("/scan", s.scanNote)
		notes.DELETE("/:id", s.removeNote)
		notes.PUT("/:id/divergence", s.setDivergence)
		notes.DELETE("/:id/divergence", s.clearDivergence)
	}

	reports := authorized.Group("/reports")
	{
		reports.POST("", s.finalizeReport)
		reports.GET("", s.listReports)
		reports.GET("/search", s.searchReports)
		reports.GET("/:id", s.getReport)
		reports.PUT("/:id/status", s.changeReportStatus)
		reports.GET("/:id/export", s.exportReport)
	}
}

// requestContext bounds a command by the configured timeout and carries the
// New Relic transaction of the request, if any
func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	ctx := c.Request.Context()
	if txn := nrgin.Transaction(c); txn != nil {
		ctx = newrelic.NewContext(ctx, txn)
	}
	if s.cfg.Server.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Server.Timeout)
}

// session returns the authenticated session, writing 401 when missing
func (s *Server) session(c *gin.Context) (domain.Session, bool) {
	session, ok := GetSession(c)
	if !ok {
		WriteError(c, ErrUnauthorized)
	}
	return session, ok
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Server.Address,
		Handler: s.router,
	}

	log.Info().Msgf("HTTP server starting on %s", s.cfg.Server.Address)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
