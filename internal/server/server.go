package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/watchlist"
)

// TestMessage is sent by POST /api/monitor/test.
const TestMessage = "👋 This is a test message from SignalSentinel!"

// Runner executes one evaluation pass.
type Runner interface {
	Run(ctx context.Context) *model.PassReport
}

// Server exposes the HTTP API.
type Server struct {
	collector *collector.Collector
	watchlist *watchlist.Manager
	monitor   Runner
	sink      notifier.Sink
	metrics   *metrics.Metrics
	log       logrus.FieldLogger

	engine *gin.Engine
	http   *http.Server
}

// New builds the router. Debug enables gin's debug mode.
func New(addr string, debug bool, col *collector.Collector, wl *watchlist.Manager, mon Runner,
	sink notifier.Sink, m *metrics.Metrics, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		collector: col,
		watchlist: wl,
		monitor:   mon,
		sink:      sink,
		metrics:   m,
		log:       log.WithField("component", "server"),
		engine:    gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		// A manual check can take up to one item timeout per concurrency slot.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.engine.Group("/api")
	api.GET("/search", s.search)
	api.POST("/monitor/check", s.check)
	api.POST("/monitor/test", s.testMessage)

	api.GET("/watchlist", s.listWatchlist)
	api.POST("/watchlist", s.addWatchlist)
	api.PUT("/watchlist", s.updateWatchlist)
	api.DELETE("/watchlist", s.removeWatchlist)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.http.Addr).Info("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/healthz" || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		entry := s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"status":   c.Writer.Status(),
			"duration": duration.Round(time.Millisecond),
		})
		if c.Writer.Status() >= 500 {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// search handles GET /api/search?q=
func (s *Server) search(c *gin.Context) {
	results := s.collector.Search(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// check handles POST /api/monitor/check. Always 200 with the pass report.
func (s *Server) check(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.Run(c.Request.Context()))
}

// testMessage handles POST /api/monitor/test
func (s *Server) testMessage(c *gin.Context) {
	if err := s.sink.Send(c.Request.Context(), TestMessage); err != nil {
		s.log.WithError(err).Error("send test message")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to send"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
