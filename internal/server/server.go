// Package server exposes the triage pipeline over HTTP under the v3 route
// contract. Alongside the triage endpoint it serves API metadata, health
// diagnostics, and the model configuration, keeping in-process request
// counters and a bounded ring of recent errors for the health report.
package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/daviddao/mailtriage/internal/config"
	"github.com/daviddao/mailtriage/internal/llm"
	"github.com/daviddao/mailtriage/internal/pipeline"
	"github.com/daviddao/mailtriage/internal/prompt"
	"github.com/daviddao/mailtriage/internal/schema"
)

// Route paths of the v3 contract.
const (
	PathAPIData = "/rd/api/v1/apidata"
	PathHealth  = "/rd/api/v1/health"
	PathAI      = "/rd/api/v1/ai"
	PathTriage  = "/rd/api/v1/ai/triage"
)

const (
	maxRecentErrors   = 50
	maxErrorChars     = 500
	recentErrorsShown = 10

	// Health degrades when this many errors land within the window.
	degradedThreshold = 10
	degradedWindow    = 5 * time.Minute
)

// Recorder persists successful triage results. Satisfied by *store.Store;
// a nil Recorder disables recording.
type Recorder interface {
	RecordRun(msg *schema.GmailMessage, resp *schema.TriageResponse) (string, error)
}

// recordedError is one entry in the recent-errors ring.
type recordedError struct {
	Timestamp string `json:"timestamp"`
	Endpoint  string `json:"endpoint"`
	Error     string `json:"error"`

	at time.Time
}

// Server hosts the triage API over gin.
type Server struct {
	cfg  *config.Settings
	pipe *pipeline.Pipeline
	rec  Recorder
	log  *log.Logger

	startedAt time.Time

	mu           sync.Mutex
	triageCount  int
	totalCount   int
	recentErrors []recordedError
}

// New builds a Server around an assembled pipeline. rec may be nil to skip
// run recording; logger may be nil to use the default logger.
func New(cfg *config.Settings, pipe *pipeline.Pipeline, rec Recorder, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:       cfg,
		pipe:      pipe,
		rec:       rec,
		log:       logger,
		startedAt: time.Now().UTC(),
	}
}

// Router assembles the gin engine with recovery, request-id and request
// logging middleware, and the four v3 routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(s.log))

	router.GET(PathAPIData, s.handleAPIData)
	router.GET(PathHealth, s.handleHealth)
	router.GET(PathAI, s.handleAI)
	router.POST(PathTriage, s.handleTriage)
	return router
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr, "provider", s.pipe.ProviderName())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// handleAPIData returns API metadata: name, version, endpoints, categories.
func (s *Server) handleAPIData(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":               "Mailtriage AI Server",
		"version":            config.APIVersion,
		"description":        "Email triage AI service — classifies, extracts, and recommends actions for Gmail messages.",
		"schema_version":     config.SchemaVersion,
		"contract_reference": s.cfg.ContractReference,
		"endpoints": []gin.H{
			{
				"method":      "POST",
				"path":        PathTriage,
				"description": "Full email triage — returns the complete output object from classification through debug metadata.",
			},
			{
				"method":      "GET",
				"path":        PathAPIData,
				"description": "API metadata, version, and endpoint listing.",
			},
			{
				"method":      "GET",
				"path":        PathHealth,
				"description": "Health diagnostics: uptime, status, recent errors.",
			},
			{
				"method":      "GET",
				"path":        PathAI,
				"description": "AI model configuration, usage stats, and prompt versioning.",
			},
		},
		"major_categories": schema.CategoryNames(),
	})
}

// handleHealth returns status, uptime, recent errors, and system info.
func (s *Server) handleHealth(c *gin.Context) {
	uptime := math.Round(time.Since(s.startedAt).Seconds()*100) / 100

	s.mu.Lock()
	windowStart := time.Now().Add(-degradedWindow)
	inWindow := 0
	for _, e := range s.recentErrors {
		if e.at.After(windowStart) {
			inWindow++
		}
	}
	status := "healthy"
	if inWindow >= degradedThreshold {
		status = "degraded"
	}
	recent := make([]recordedError, 0, recentErrorsShown)
	if n := len(s.recentErrors); n > recentErrorsShown {
		recent = append(recent, s.recentErrors[n-recentErrorsShown:]...)
	} else {
		recent = append(recent, s.recentErrors...)
	}
	counts := s.countsLocked()
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"uptime_seconds": uptime,
		"started_at":     s.startedAt.Format(time.RFC3339),
		"checks": gin.H{
			"llm_provider": gin.H{
				"status":   "ok",
				"provider": s.cfg.LLMProvider,
				"model":    s.cfg.OpenAIModel,
			},
			"go_version": runtime.Version(),
		},
		"request_counts": counts,
		"recent_errors":  recent,
		"version":        config.APIVersion,
	})
}

// handleAI returns the model configuration, prompt versioning, and stats.
func (s *Server) handleAI(c *gin.Context) {
	s.mu.Lock()
	counts := s.countsLocked()
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"provider":           s.cfg.LLMProvider,
		"model":              s.cfg.OpenAIModel,
		"temperature":        s.cfg.Temperature,
		"timeout_s":          s.cfg.TimeoutS,
		"max_body_chars":     s.cfg.MaxBodyChars,
		"schema_version":     config.SchemaVersion,
		"model_version":      config.ModelVersion,
		"prompt_version":     prompt.Version,
		"contract_reference": s.cfg.ContractReference,
		"capabilities": []string{
			"email_triage",
			"entity_extraction",
			"urgency_detection",
			"task_proposal",
			"action_recommendation",
			"summary_extraction",
		},
		"request_counts": counts,
	})
}

// handleTriage accepts a raw Gmail message and returns the full triage
// output under an {"output": ...} envelope.
func (s *Server) handleTriage(c *gin.Context) {
	var msg schema.GmailMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if err := msg.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	// total covers every counted write endpoint; triage is the only one today.
	s.mu.Lock()
	s.triageCount++
	s.totalCount++
	s.mu.Unlock()

	resp, err := s.pipe.Triage(c.Request.Context(), &msg)
	if err != nil {
		s.recordError(PathTriage, err)
		switch {
		case errors.Is(err, llm.ErrNotImplemented):
			c.JSON(http.StatusNotImplemented, gin.H{"detail": err.Error()})
		case errors.Is(err, schema.ErrInvalidMessage):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("failed_to_triage: %v", err)})
		}
		return
	}

	if s.rec != nil {
		if id, err := s.rec.RecordRun(&msg, resp); err != nil {
			s.log.Warn("run not recorded", "error", err)
		} else {
			s.log.Debug("run recorded", "run_id", id)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// recordError appends an error to the ring for the health endpoint.
func (s *Server) recordError(endpoint string, err error) {
	msg := err.Error()
	if runes := []rune(msg); len(runes) > maxErrorChars {
		msg = string(runes[:maxErrorChars])
	}
	now := time.Now().UTC()

	s.mu.Lock()
	s.recentErrors = append(s.recentErrors, recordedError{
		Timestamp: now.Format(time.RFC3339),
		Endpoint:  endpoint,
		Error:     msg,
		at:        now,
	})
	if n := len(s.recentErrors); n > maxRecentErrors {
		s.recentErrors = s.recentErrors[n-maxRecentErrors:]
	}
	s.mu.Unlock()
}

func (s *Server) countsLocked() gin.H {
	return gin.H{
		"triage": s.triageCount,
		"total":  s.totalCount,
	}
}
