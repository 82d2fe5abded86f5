package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dotcommander/assess/internal/assessment"
	"github.com/dotcommander/assess/internal/config"
)

// Server exposes the scoring engine over HTTP.
type Server struct {
	engine     *assessment.Engine
	metrics    *Metrics
	logger     *zap.Logger
	router     *gin.Engine
	httpServer *http.Server
	startTime  time.Time
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TypeSummary describes one assessment type.
type TypeSummary struct {
	Type            string   `json:"type"`
	Name            string   `json:"name"`
	DefaultCategory string   `json:"default_category"`
	Categories      []string `json:"categories"`
	Questions       int      `json:"questions"`
	Default         bool     `json:"default"`
}

// New builds a server. A nil registry uses a fresh one.
func New(engine *assessment.Engine, cfg config.ServerConfig, logger *zap.Logger, reg *prometheus.Registry) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
		router.Use(cors.New(corsConfig))
	}

	s := &Server{
		engine:    engine,
		metrics:   metrics,
		logger:    logger,
		router:    router,
		startTime: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.setupRoutes(reg)
	return s, nil
}

func (s *Server) setupRoutes(reg *prometheus.Registry) {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := s.router.Group("/api/assessments")
	{
		api.POST("/score", s.handleScore)
		api.GET("/types", s.handleTypes)
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("scoring server listening", zap.String("addr", s.httpServer.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	s.logger.Info("scoring server stopped")
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

// handleScore scores a submission. The body is the Result; pass ?diagnostics=true
// to receive the full Evaluation instead.
func (s *Server) handleScore(c *gin.Context) {
	var sub assessment.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid submission: %v", err)})
		return
	}

	start := time.Now()
	ev := s.engine.Evaluate(sub.AssessmentType, sub.Responses)
	s.metrics.Observe(ev, time.Since(start))

	if c.Query("diagnostics") == "true" {
		c.JSON(http.StatusOK, ev)
		return
	}
	c.JSON(http.StatusOK, ev.Result)
}

func (s *Server) handleTypes(c *gin.Context) {
	c.JSON(http.StatusOK, Types(s.engine))
}

// Types summarizes the engine's catalog in catalog order.
func Types(engine *assessment.Engine) []TypeSummary {
	catalog := engine.Catalog()
	var out []TypeSummary
	for _, t := range catalog.Types() {
		def, _ := catalog.Lookup(t)
		out = append(out, TypeSummary{
			Type:            def.Type,
			Name:            def.Name,
			DefaultCategory: def.DefaultCategory,
			Categories:      def.CategoryNames(),
			Questions:       len(def.QuestionIDs()),
			Default:         def.Type == engine.DefaultType(),
		})
	}
	return out
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
