package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"krida.io/dealdesk/internal/domain"
	apperrors "krida.io/dealdesk/internal/pkg/errors"
)

type suggestionsResponse struct {
	Suggestions any `json:"suggestions"`
}

// DealSuggestions handles GET /deals/:dealId/suggestions.
func (s *Server) DealSuggestions(c *gin.Context) {
	c.JSON(http.StatusOK, suggestionsResponse{
		Suggestions: s.store.SuggestionsForDeal(c.Param("dealId")),
	})
}

// GetTermSheet handles GET /deals/:dealId/term-sheet.
func (s *Server) GetTermSheet(c *gin.Context) {
	sheet, err := s.store.TermSheetForDeal(c.Param("dealId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// PutTermSheet handles PUT /deals/:dealId/term-sheet: a full replacement.
func (s *Server) PutTermSheet(c *gin.Context) {
	var sheet domain.TermSheet
	if err := c.ShouldBindJSON(&sheet); err != nil {
		fail(c, apperrors.InvalidRequest("Invalid request body"))
		return
	}

	stored, err := s.store.UpsertTermSheet(c.Param("dealId"), sheet)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// suggestionWithInputs echoes the caller's what-if parameters on each
// suggestion, a debugging aid for term-sheet tooling.
type suggestionWithInputs struct {
	domain.Suggestion
	Inputs map[string]any `json:"inputs,omitempty"`
}

// TermSheetSuggestions handles GET /deals/:dealId/term-sheet/suggestions.
func (s *Server) TermSheetSuggestions(c *gin.Context) {
	inputs := map[string]any{}
	for _, name := range []string{"amount", "rate"} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fail(c, apperrors.InvalidRequest(name+" must be a number"))
			return
		}
		inputs[name] = v
	}
	for _, name := range []string{"amort", "term"} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			fail(c, apperrors.InvalidRequest(name+" must be an integer"))
			return
		}
		inputs[name] = v
	}
	if len(inputs) == 0 {
		inputs = nil
	}

	suggestions := s.store.SuggestionsForDeal(c.Param("dealId"))
	payload := make([]suggestionWithInputs, 0, len(suggestions))
	for _, suggestion := range suggestions {
		payload = append(payload, suggestionWithInputs{Suggestion: suggestion, Inputs: inputs})
	}
	c.JSON(http.StatusOK, suggestionsResponse{Suggestions: payload})
}

// OptimizeTermSheet handles POST /deals/:dealId/term-sheet/optimize: verifies
// the deal exists, then schedules a background optimization job.
func (s *Server) OptimizeTermSheet(c *gin.Context) {
	dealID := c.Param("dealId")
	if _, err := s.store.GetDeal(dealID); err != nil {
		fail(c, err)
		return
	}

	jobID, err := s.jobs.ScheduleTermOptimization(dealID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobId": jobID})
}
