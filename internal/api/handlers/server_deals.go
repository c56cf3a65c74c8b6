package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "krida.io/dealdesk/internal/pkg/errors"
	"krida.io/dealdesk/internal/store"
)

// Me handles GET /me.
func (s *Server) Me(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Me())
}

// Reference handles GET /reference: the enumerations and owners the frontend
// needs to render filters and forms.
func (s *Server) Reference(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.ReferenceData())
}

// dealListResponse is the paginated deal listing envelope.
type dealListResponse struct {
	Items      any     `json:"items"`
	NextCursor *string `json:"nextCursor"`
}

// ListDeals handles GET /deals.
func (s *Server) ListDeals(c *gin.Context) {
	limit, err := intQuery(c, "limit", 20, 1, 100)
	if err != nil {
		fail(c, err)
		return
	}
	minAmount, err := floatQuery(c, "minAmt")
	if err != nil {
		fail(c, err)
		return
	}
	maxAmount, err := floatQuery(c, "maxAmt")
	if err != nil {
		fail(c, err)
		return
	}

	query := store.DealQuery{
		Search:    c.Query("search"),
		Stage:     c.Query("stage"),
		OwnerID:   c.Query("ownerId"),
		Product:   c.Query("product"),
		MinAmount: minAmount,
		MaxAmount: maxAmount,
		Sort:      c.DefaultQuery("sort", store.SortUpdatedAt),
		Order:     c.DefaultQuery("order", "desc"),
		Limit:     limit,
		Cursor:    c.Query("cursor"),
	}

	deals, nextCursor, err := s.store.ListDeals(query)
	if err != nil {
		fail(c, err)
		return
	}

	resp := dealListResponse{Items: deals}
	if nextCursor != "" {
		resp.NextCursor = &nextCursor
	}
	c.JSON(http.StatusOK, resp)
}

// GetDeal handles GET /deals/:dealId.
func (s *Server) GetDeal(c *gin.Context) {
	deal, err := s.store.GetDeal(c.Param("dealId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// updateDealRequest carries the optional fields of PATCH /deals/:dealId.
type updateDealRequest struct {
	Stage       *string  `json:"stage"`
	OwnerID     *string  `json:"ownerId"`
	Probability *float64 `json:"probability"`
	RiskScore   *float64 `json:"riskScore"`
}

// UpdateDeal handles PATCH /deals/:dealId.
func (s *Server) UpdateDeal(c *gin.Context) {
	var req updateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.InvalidRequest("Invalid request body"))
		return
	}

	deal, err := s.store.UpdateDeal(c.Param("dealId"), store.DealPatch{
		Stage:       req.Stage,
		OwnerID:     req.OwnerID,
		Probability: req.Probability,
		RiskScore:   req.RiskScore,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// DealBorrowers handles GET /deals/:dealId/borrowers.
func (s *Server) DealBorrowers(c *gin.Context) {
	borrowers, err := s.store.BorrowersForDeal(c.Param("dealId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, borrowers)
}

// GetBorrower handles GET /borrowers/:borrowerId.
func (s *Server) GetBorrower(c *gin.Context) {
	borrower, err := s.store.GetBorrower(c.Param("borrowerId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, borrower)
}

// BorrowerFinancials handles GET /borrowers/:borrowerId/financials. Unknown
// borrowers yield an empty list rather than 404.
func (s *Server) BorrowerFinancials(c *gin.Context) {
	fromYear, err := intQuery(c, "fromYear", 0, 1, 9999)
	if err != nil {
		fail(c, err)
		return
	}
	toYear, err := intQuery(c, "toYear", 0, 1, 9999)
	if err != nil {
		fail(c, err)
		return
	}

	records := s.store.FinancialsForBorrower(c.Param("borrowerId"), store.FinancialQuery{
		Period:   c.Query("period"),
		FromYear: fromYear,
		ToYear:   toYear,
	})
	c.JSON(http.StatusOK, records)
}

// DealActivity handles GET /deals/:dealId/activity, newest first.
func (s *Server) DealActivity(c *gin.Context) {
	limit, err := intQuery(c, "limit", 50, 1, 200)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.store.ActivityForDeal(c.Param("dealId"), limit))
}

// GetJob handles GET /jobs/:jobId.
func (s *Server) GetJob(c *gin.Context) {
	job, err := s.store.GetJob(c.Param("jobId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
