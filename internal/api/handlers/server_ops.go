package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"krida.io/dealdesk/internal/api/middleware"
	"krida.io/dealdesk/internal/domain"
	apperrors "krida.io/dealdesk/internal/pkg/errors"
	"krida.io/dealdesk/internal/pkg/logger"
	"krida.io/dealdesk/internal/store"
)

// Healthz handles GET /-/healthz.
func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz handles GET /-/readyz. Readiness means the seed dataset is loaded.
func (s *Server) Readyz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready", "deals": s.store.DealCount()})
}

// Metrics handles GET /-/metrics as plain "name value" lines.
func (s *Server) Metrics(c *gin.Context) {
	body := ""
	for _, sample := range s.metrics.Snapshot() {
		body += sample.Name + " " + strconv.FormatInt(sample.Value, 10) + "\n"
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

// Reset handles POST /-/reset: reloads the seed dataset and optionally
// switches the default latency profile via ?profile=.
func (s *Server) Reset(c *gin.Context) {
	if profile := c.Query("profile"); profile != "" && !middleware.KnownProfile(profile) {
		fail(c, apperrors.InvalidRequest("Unknown latency profile"))
		return
	}

	seed, err := store.LoadSeed(s.seedPath)
	if err != nil {
		fail(c, apperrors.Internal("Failed to reload seed data"))
		logger.Error("Seed reload failed", zap.String("path", s.seedPath), zap.Error(err))
		return
	}
	s.store.Reset(seed)

	if profile := c.Query("profile"); profile != "" {
		s.sim.SetProfile(profile)
	}
	logger.Info("State reset", zap.Int("deals", s.store.DealCount()))
	c.Status(http.StatusNoContent)
}

// VerifyAllDocuments handles POST /-/seed/documents/verify-all: a test hook
// that promotes every received document of the deal straight to verified,
// bypassing verification jobs.
func (s *Server) VerifyAllDocuments(c *gin.Context) {
	dealID := c.Query("dealId")
	if dealID == "" {
		fail(c, apperrors.InvalidRequest("dealId is required"))
		return
	}

	verified := string(domain.DocVerified)
	updated := []string{}
	for _, doc := range s.store.DocumentsForDeal(dealID) {
		if doc.Status != domain.DocReceived {
			continue
		}
		patched, err := s.store.UpdateDocument(doc.ID, store.DocumentPatch{Status: &verified})
		if err != nil {
			fail(c, err)
			return
		}
		updated = append(updated, patched.ID)
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
