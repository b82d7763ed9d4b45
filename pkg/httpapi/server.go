/*
Package httpapi serves the term search over HTTP with gin.

The stateless routes query the shared engine directly. Selections live in
server-side sessions created with POST /sessions; each session owns its own
Selection, so users never see each other's terms.

	GET    /search?q=                     [{"id", "name"}] (at most 50)
	GET    /terms/:id                     one term with definition and synonyms
	GET    /lookup?prefix=&limit=         terms by accession prefix
	POST   /sessions                      {"session_id"}
	GET    /sessions/:sid                 selection and related terms
	DELETE /sessions/:sid
	POST   /sessions/:sid/select          body {"id"}
	DELETE /sessions/:sid/select/:id
	GET    /sessions/:sid/related?k=
	GET    /sessions/:sid/export          text/csv attachment
	GET    /info                          dataset version and index stats
	GET    /healthz
	GET    /metrics                       Prometheus exposition
*/
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bastiangx/hposerve/internal/logger"
	"github.com/bastiangx/hposerve/internal/metrics"
	"github.com/bastiangx/hposerve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Config holds the HTTP server options.
type Config struct {
	Addr         string
	RatePerSec   float64 // 0 disables rate limiting
	Burst        int
	AllowOrigins []string
	SessionTTL   time.Duration
	Version      string
}

// Server is the HTTP front end of an engine.
type Server struct {
	cfg      Config
	searcher suggest.ISearcher
	sessions *SessionStore
	router   *gin.Engine
	logger   *log.Logger
}

// NewServer builds the router. Nothing listens until Run.
func NewServer(searcher suggest.ISearcher, cfg Config) *Server {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	s := &Server{
		cfg:      cfg,
		searcher: searcher,
		sessions: NewSessionStore(cfg.SessionTTL),
		logger:   logger.NewJSON("http"),
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(s.logger))
	router.Use(Metrics())
	router.Use(CORS(s.cfg.AllowOrigins))

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/")
	api.Use(RateLimit(newLimiter(s.cfg.RatePerSec, s.cfg.Burst)))
	{
		api.GET("/search", s.search)
		api.GET("/terms/:id", s.term)
		api.GET("/lookup", s.lookup)
		api.GET("/info", s.info)

		api.POST("/sessions", s.createSession)
		api.GET("/sessions/:sid", s.getSession)
		api.DELETE("/sessions/:sid", s.deleteSession)
		api.POST("/sessions/:sid/select", s.selectTerm)
		api.DELETE("/sessions/:sid/select/:id", s.deselectTerm)
		api.GET("/sessions/:sid/related", s.related)
		api.GET("/sessions/:sid/export", s.export)
	}
	return router
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("HTTP API listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Debug("Shutting down HTTP API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		s.housekeeping(gctx)
		return nil
	})
	return g.Wait()
}

// housekeeping prunes idle sessions and refreshes system gauges.
func (s *Server) housekeeping(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Prune(); n > 0 {
				log.Debugf("Pruned %d idle sessions", n)
			}
			metrics.UpdateSystemMetrics()
		}
	}
}
