// Package server exposes the review pipeline over HTTP. It accepts a
// unified diff plus optional file contents and returns the structured
// report, so CI jobs and editor plugins can review without a local git
// checkout.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/revlens/revlens/internal/config"
	"github.com/revlens/revlens/internal/gitctx"
	"github.com/revlens/revlens/internal/providers"
	"github.com/revlens/revlens/internal/review"
	"github.com/revlens/revlens/internal/store"
)

// ReviewRequest is the POST /api/v1/review body. Files is an optional
// map of repository-relative path to current file content, used to
// build line-numbered context around the changes.
type ReviewRequest struct {
	Diff     string            `json:"diff"`
	Files    map[string]string `json:"files,omitempty"`
	Provider string            `json:"provider,omitempty"`
	Model    string            `json:"model,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server hosts the HTTP review endpoint.
type Server struct {
	cfg      config.Config
	log      *logrus.Logger
	store    *store.Store
	provider providers.Completer // overrides config when set, used in tests
}

// New builds a Server from the given config. The store may be nil, in
// which case learned patterns are not injected into prompts.
func New(cfg config.Config, logger *logrus.Logger, st *store.Store) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{cfg: cfg, log: logger, store: st}
}

// Router builds the echo instance with all routes registered.
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.GET("/healthz", s.handleHealth)
	e.POST("/api/v1/review", s.handleReview)
	return e
}

// Start runs the HTTP server on the configured listen address. It
// blocks until the listener fails.
func (s *Server) Start() error {
	addr := s.cfg.ListenAddr
	if addr == "" {
		addr = ":8632"
	}
	s.log.WithField("addr", addr).Info("listening")
	return s.Router().Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReview(c echo.Context) error {
	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Diff) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "diff is required"})
	}

	cfg := s.cfg
	if req.Provider != "" {
		cfg.Provider = req.Provider
	}
	if req.Model != "" {
		cfg.Model = req.Model
	}

	opts := review.Options{Provider: s.provider}
	if len(req.Files) > 0 {
		files := req.Files
		opts.Reader = func(path string) (string, bool) {
			content, ok := files[path]
			return content, ok
		}
	}
	if s.store != nil {
		patterns, err := s.store.PatternsPromptSection(cfg.PatternLimit)
		if err != nil {
			s.log.WithError(err).Warn("loading learned patterns")
		} else {
			opts.Patterns = patterns
		}
	}

	start := time.Now()
	report, err := review.Run(c.Request().Context(), gitctx.DiffResult{
		Diff: req.Diff,
		Mode: "api",
	}, cfg, opts)
	if err != nil {
		s.log.WithError(err).Error("review failed")
		status := http.StatusBadGateway
		if providers.IsAuthError(err) {
			status = http.StatusUnauthorized
		}
		return c.JSON(status, errorResponse{Error: err.Error()})
	}

	if s.store != nil {
		s.persistRun(report, cfg)
	}

	s.log.WithFields(logrus.Fields{
		"run_id":   report.RunID,
		"findings": len(report.Findings),
		"took_ms":  time.Since(start).Milliseconds(),
	}).Info("review complete")
	return c.JSON(http.StatusOK, report)
}

// persistRun saves the run and its findings so verdicts can be recorded
// against them later. Persistence failures are logged, never surfaced.
func (s *Server) persistRun(report *review.Report, cfg config.Config) {
	err := s.store.SaveRun(store.Run{
		ID:           report.RunID,
		Provider:     cfg.Provider,
		Model:        cfg.Model,
		FindingCount: len(report.Findings),
	})
	if err != nil {
		s.log.WithError(err).Warn("saving run")
		return
	}
	for _, f := range report.Findings {
		_, err := s.store.SaveFinding(store.Finding{
			RunID:      report.RunID,
			FilePath:   f.FilePath,
			LineNumber: f.LineNumber,
			Severity:   string(f.Severity),
			Issue:      f.Issue,
			Suggestion: f.Suggestion,
			Rule:       f.Rule,
			CheckID:    f.CheckID,
		})
		if err != nil {
			s.log.WithError(err).Warn("saving finding")
		}
	}
}
