/* handlers.go
 * Contains the gin router and the HTTP handlers. Webhooks start reconciliation in the background, admin endpoints
 * run it inline and return the RunResult
 */

package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"survivor-pool/api/api"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// SecretHeader carries the shared secret on webhook and admin requests
const SecretHeader = "X-Webhook-Secret"

// runTimeout bounds a single background reconciliation started by a webhook
const runTimeout = 5 * time.Minute

// NewServer builds a Server from its configuration
func NewServer(cfg Config) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	limit := rate.Inf
	if cfg.WebhookRPS > 0 {
		limit = rate.Limit(cfg.WebhookRPS)
	}

	return &Server{
		api:     cfg.API,
		logger:  logger,
		secret:  cfg.Secret,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Router registers every route on a new gin engine
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.HealthHandler)
	r.GET("/standings", s.StandingsHandler)

	hooks := r.Group("/webhooks", s.requireSecret())
	hooks.POST("/results", s.ResultsWebhookHandler)

	admin := r.Group("/admin", s.requireSecret())
	admin.POST("/reconcile/:week", s.ReconcileHandler)
	admin.POST("/audit/:week", s.AuditHandler)
	admin.POST("/sync/:week", s.SyncHandler)

	return r
}

// Wait blocks until every background run started by a webhook has finished
func (s *Server) Wait() {
	s.pending.Wait()
}

// HealthHandler reports that the server is up
func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StandingsHandler returns every member with their survival status
func (s *Server) StandingsHandler(c *gin.Context) {
	standings, err := s.api.GetStandings(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Warn("failed to get standings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get standings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"standings": standings})
}

// ResultsWebhookHandler HTTP endpoint that receives a results event and kicks off syncing and reconciling the week
// Preconditions: Receives a ResultsEvent with week >= 1
// Postconditions: Responds 202 and reconciles the week in the background, 200 for ignored events, 400 for a bad body
// and 429 when webhooks arrive faster than the configured rate
func (s *Server) ResultsWebhookHandler(c *gin.Context) {
	if !s.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many webhooks"})
		return
	}

	var event ResultsEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		s.logger.WithError(err).Warn("failed to decode webhook")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if event.Week < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week must be 1 or greater"})
		return
	}
	if strings.EqualFold(event.Event, "ping") {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	s.logger.WithFields(logrus.Fields{"week": event.Week, "event": event.Event, "games": len(event.Games)}).Info("results webhook received")

	s.pending.Add(1)
	go func(e ResultsEvent) {
		defer s.pending.Done()
		s.runWebhook(e)
	}(event)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "week": event.Week})
}

// runWebhook syncs and reconciles the event's week. Runs are serialized by runMu
func (s *Server) runWebhook(event ResultsEvent) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	log := s.logger.WithField("week", event.Week)
	result, err := s.api.SyncAndReconcile(ctx, event.Week, event.toGameResults())
	if err != nil {
		log.WithError(err).Warn("webhook reconciliation failed")
		return
	}
	log.WithFields(logrus.Fields{
		"run_id":           result.RunID,
		"newly_eliminated": result.Summary.NewlyEliminated,
	}).Info("webhook reconciliation finished")
}

// ReconcileHandler runs the incremental reconciliation for a week. ?dry_run=true skips the write
func (s *Server) ReconcileHandler(c *gin.Context) {
	s.runHandler(c, api.ModeReconcile)
}

// AuditHandler runs the season audit through a week. ?dry_run=true skips the write
func (s *Server) AuditHandler(c *gin.Context) {
	s.runHandler(c, api.ModeAudit)
}

func (s *Server) runHandler(c *gin.Context, mode api.Mode) {
	week, ok := weekParam(c)
	if !ok {
		return
	}
	dryRun, err := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dry_run must be true or false"})
		return
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	var result api.RunResult
	if mode == api.ModeAudit {
		result, err = s.api.Audit(c.Request.Context(), week, dryRun)
	} else {
		result, err = s.api.Reconcile(c.Request.Context(), week, dryRun)
	}
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"week": week, "mode": mode}).Warn("run failed")
		status := http.StatusInternalServerError
		if errors.Is(err, api.ErrInvalidWeek) {
			status = http.StatusBadRequest
		}
		// a partial apply still carries a useful result
		c.JSON(status, gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncHandler fetches a week's results from the feed and stores them
func (s *Server) SyncHandler(c *gin.Context) {
	week, ok := weekParam(c)
	if !ok {
		return
	}

	n, err := s.api.SyncWeekResults(c.Request.Context(), week)
	if err != nil {
		s.logger.WithError(err).WithField("week", week).Warn("sync failed")
		status := http.StatusBadGateway
		if errors.Is(err, api.ErrNoFeed) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"week": week, "games": n})
}

// weekParam reads the :week path parameter, responding 400 if it is not a positive number
func weekParam(c *gin.Context) (int, bool) {
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil || week < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week must be a number 1 or greater"})
		return 0, false
	}
	return week, true
}

// requireSecret rejects requests without the shared secret. With no secret configured every request passes
func (s *Server) requireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
		c.Next()
	}
}

// requestLogger logs each request through the server's logrus logger
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request handled")
	}
}
