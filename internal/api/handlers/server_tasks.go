package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"krida.io/dealdesk/internal/domain"
	apperrors "krida.io/dealdesk/internal/pkg/errors"
	"krida.io/dealdesk/internal/store"
)

// DealTasks handles GET /deals/:dealId/tasks, ordered by due date.
func (s *Server) DealTasks(c *gin.Context) {
	tasks := s.store.TasksForDeal(c.Param("dealId"))
	c.JSON(http.StatusOK, itemsResponse{Items: tasks})
}

// createTaskRequest carries the payload of POST /deals/:dealId/tasks.
type createTaskRequest struct {
	Title      string     `json:"title"`
	AssignedTo *string    `json:"assignedTo"`
	DueAt      *time.Time `json:"dueAt"`
	Status     *string    `json:"status"`
}

// CreateTask handles POST /deals/:dealId/tasks.
func (s *Server) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.InvalidRequest("Invalid request body"))
		return
	}

	dealID := c.Param("dealId")
	task, err := s.store.CreateTask(dealID, store.TaskCreate{
		Title:      req.Title,
		AssignedTo: req.AssignedTo,
		DueAt:      req.DueAt,
		Status:     req.Status,
	})
	if err != nil {
		fail(c, err)
		return
	}

	s.store.AppendActivity(dealID, domain.ActivityEvent{
		Type:    "task.created",
		Payload: map[string]any{"taskId": task.ID},
	})
	c.JSON(http.StatusCreated, task)
}

// updateTaskRequest carries the optional fields of PATCH /tasks/:taskId.
type updateTaskRequest struct {
	Title      *string    `json:"title"`
	AssignedTo *string    `json:"assignedTo"`
	DueAt      *time.Time `json:"dueAt"`
	Status     *string    `json:"status"`
}

// UpdateTask handles PATCH /tasks/:taskId.
func (s *Server) UpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.InvalidRequest("Invalid request body"))
		return
	}

	task, err := s.store.UpdateTask(c.Param("taskId"), store.TaskPatch{
		Title:      req.Title,
		AssignedTo: req.AssignedTo,
		DueAt:      req.DueAt,
		Status:     req.Status,
	})
	if err != nil {
		fail(c, err)
		return
	}

	s.store.AppendActivity(task.DealID, domain.ActivityEvent{
		Type:    "task.updated",
		Payload: map[string]any{"taskId": task.ID, "status": string(task.Status)},
	})
	c.JSON(http.StatusOK, task)
}
