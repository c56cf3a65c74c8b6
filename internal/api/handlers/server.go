// Package handlers implements the HTTP surface of the deal desk API.
//
// Handlers bind and validate input, call the store / broker / orchestrator,
// and either write a success response or record an error with c.Error() for
// the error-handler middleware to render.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"krida.io/dealdesk/internal/api/middleware"
	"krida.io/dealdesk/internal/events"
	"krida.io/dealdesk/internal/jobs"
	apperrors "krida.io/dealdesk/internal/pkg/errors"
	"krida.io/dealdesk/internal/pkg/metrics"
	"krida.io/dealdesk/internal/store"
)

// Server holds all handler dependencies. Manual DI: the app layer constructs
// everything and passes it in.
type Server struct {
	store    *store.Store
	broker   *events.Broker
	jobs     *jobs.Orchestrator
	sim      *middleware.Simulator
	metrics  *metrics.Metrics
	seedPath string
}

// ServerDeps holds the dependencies for creating a Server.
type ServerDeps struct {
	Store    *store.Store
	Broker   *events.Broker
	Jobs     *jobs.Orchestrator
	Sim      *middleware.Simulator
	Metrics  *metrics.Metrics
	SeedPath string
}

// NewServer creates a Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		store:    deps.Store,
		broker:   deps.Broker,
		jobs:     deps.Jobs,
		sim:      deps.Sim,
		metrics:  deps.Metrics,
		seedPath: deps.SeedPath,
	}
}

// RegisterRoutes mounts every route on the engine. The auth middleware guards
// the API and the mutating ops endpoints; health, readiness and metrics stay
// open for probes.
func (s *Server) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	api := r.Group("/", auth)
	{
		api.GET("/me", s.Me)
		api.GET("/reference", s.Reference)

		api.GET("/deals", s.ListDeals)
		api.GET("/deals/:dealId", s.GetDeal)
		api.PATCH("/deals/:dealId", s.UpdateDeal)
		api.GET("/deals/:dealId/borrowers", s.DealBorrowers)
		api.GET("/borrowers/:borrowerId", s.GetBorrower)
		api.GET("/borrowers/:borrowerId/financials", s.BorrowerFinancials)

		api.GET("/deals/:dealId/documents", s.DealDocuments)
		api.GET("/deals/:dealId/checklist", s.DealDocuments)
		api.POST("/deals/:dealId/documents", s.CreateDocument)
		api.PATCH("/documents/:documentId", s.UpdateDocument)
		api.POST("/deals/:dealId/request-doc", s.RequestDocument)

		api.GET("/deals/:dealId/tasks", s.DealTasks)
		api.POST("/deals/:dealId/tasks", s.CreateTask)
		api.PATCH("/tasks/:taskId", s.UpdateTask)

		api.GET("/deals/:dealId/suggestions", s.DealSuggestions)
		api.GET("/deals/:dealId/term-sheet", s.GetTermSheet)
		api.PUT("/deals/:dealId/term-sheet", s.PutTermSheet)
		api.GET("/deals/:dealId/term-sheet/suggestions", s.TermSheetSuggestions)
		api.POST("/deals/:dealId/term-sheet/optimize", s.OptimizeTermSheet)

		api.GET("/deals/:dealId/activity", s.DealActivity)
		api.GET("/jobs/:jobId", s.GetJob)

		api.GET("/events/stream", s.EventsStream)
	}

	ops := r.Group("/-")
	{
		ops.GET("/healthz", s.Healthz)
		ops.GET("/readyz", s.Readyz)
		ops.GET("/metrics", s.Metrics)
		ops.POST("/reset", auth, s.Reset)
		ops.POST("/seed/documents/verify-all", auth, s.VerifyAllDocuments)
	}
}

// fail records err for the error-handler middleware and stops the chain.
func fail(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}

// intQuery parses an integer query parameter with a default and inclusive
// bounds. A missing parameter yields the default; a malformed or out-of-range
// value is a validation error.
func intQuery(c *gin.Context, name string, def, lo, hi int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, apperrors.InvalidRequest(name + " must be an integer between " +
			strconv.Itoa(lo) + " and " + strconv.Itoa(hi))
	}
	return v, nil
}

func floatQuery(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.InvalidRequest(name + " must be a number")
	}
	return &v, nil
}
