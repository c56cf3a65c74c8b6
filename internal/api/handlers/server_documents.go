package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"krida.io/dealdesk/internal/domain"
	apperrors "krida.io/dealdesk/internal/pkg/errors"
	"krida.io/dealdesk/internal/store"
)

type itemsResponse struct {
	Items any `json:"items"`
}

// DealDocuments handles GET /deals/:dealId/documents and its /checklist alias.
func (s *Server) DealDocuments(c *gin.Context) {
	docs := s.store.DocumentsForDeal(c.Param("dealId"))
	c.JSON(http.StatusOK, itemsResponse{Items: docs})
}

// createDocumentRequest carries the payload of POST /deals/:dealId/documents.
type createDocumentRequest struct {
	Label      string  `json:"label"`
	Type       string  `json:"type"`
	RequiredBy *string `json:"requiredBy"`
	Link       *string `json:"link"`
}

// CreateDocument handles POST /deals/:dealId/documents.
func (s *Server) CreateDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.InvalidRequest("Invalid request body"))
		return
	}

	doc, err := s.store.CreateDocument(c.Param("dealId"), store.DocumentCreate{
		Label:      req.Label,
		Type:       req.Type,
		RequiredBy: req.RequiredBy,
		Link:       req.Link,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// updateDocumentRequest carries the optional fields of PATCH /documents/:id.
type updateDocumentRequest struct {
	Status *string `json:"status"`
	Link   *string `json:"link"`
}

// documentWithJob is a document response annotated with the verification job
// spawned by a transition into the received status.
type documentWithJob struct {
	domain.DocumentRequest
	VerificationJobID string `json:"verificationJobId,omitempty"`
}

// UpdateDocument handles PATCH /documents/:documentId. Flipping a document to
// received publishes document.received, records activity and schedules a
// background verification job whose id is echoed in the response.
func (s *Server) UpdateDocument(c *gin.Context) {
	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.InvalidRequest("Invalid request body"))
		return
	}

	doc, err := s.store.UpdateDocument(c.Param("documentId"), store.DocumentPatch{
		Status: req.Status,
		Link:   req.Link,
	})
	if err != nil {
		fail(c, err)
		return
	}

	resp := documentWithJob{DocumentRequest: doc}
	if req.Status != nil && domain.DocStatus(*req.Status) == domain.DocReceived {
		s.broker.Publish(doc.DealID, domain.Event{
			Type: domain.EventDocumentReceived,
			Data: doc,
		})
		s.store.AppendActivity(doc.DealID, domain.ActivityEvent{
			Type:    string(domain.EventDocumentReceived),
			Payload: map[string]any{"documentId": doc.ID},
		})
		jobID, err := s.jobs.ScheduleDocVerification(doc.DealID, doc.ID)
		if err != nil {
			fail(c, err)
			return
		}
		resp.VerificationJobID = jobID
	}
	c.JSON(http.StatusOK, resp)
}

// requestDocumentPayload identifies the checklist item of a request-doc call.
type requestDocumentPayload struct {
	ChecklistItemID string `json:"checklistItemId"`
}

// RequestDocument handles POST /deals/:dealId/request-doc: flips an existing
// checklist item to requested and notifies subscribers.
func (s *Server) RequestDocument(c *gin.Context) {
	var req requestDocumentPayload
	if err := c.ShouldBindJSON(&req); err != nil || req.ChecklistItemID == "" {
		fail(c, apperrors.InvalidRequest("checklistItemId is required"))
		return
	}

	dealID := c.Param("dealId")
	doc, err := s.store.RequestDocument(dealID, req.ChecklistItemID)
	if err != nil {
		fail(c, err)
		return
	}

	s.broker.Publish(dealID, domain.Event{
		Type: domain.EventDocumentRequested,
		Data: doc,
	})
	s.store.AppendActivity(dealID, domain.ActivityEvent{
		Type:    string(domain.EventDocumentRequested),
		Payload: map[string]any{"documentId": doc.ID},
	})

	c.JSON(http.StatusAccepted, gin.H{"status": "Requested", "documentId": doc.ID})
}
