package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/taskqueue"
	"github.com/giftcampaign/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TaskHandler exposes the dead-letter view of the task queue
type TaskHandler struct {
	BaseHandler
	queue *taskqueue.Queue
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(queue *taskqueue.Queue) *TaskHandler {
	return &TaskHandler{queue: queue}
}

// TaskResponse represents a background task
type TaskResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Args        json.RawMessage `json:"args,omitempty"`
	Status      string          `json:"status"`
	RetryCount  int             `json:"retry_count"`
	MaxRetries  int             `json:"max_retries"`
	LastError   string          `json:"last_error,omitempty"`
	NextRunAt   *time.Time      `json:"next_run_at,omitempty"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toTaskResponse(t *shared.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Status:      string(t.Status),
		RetryCount:  t.RetryCount,
		MaxRetries:  t.MaxRetries,
		LastError:   t.LastError,
		NextRunAt:   t.NextRunAt,
		ProcessedAt: t.ProcessedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if json.Valid(t.Args) {
		resp.Args = t.Args
	}
	return resp
}

// ListDead godoc
// @Summary      List dead tasks
// @Tags         tasks
// @Produce      json
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response
// @Router       /tasks/dead [get]
func (h *TaskHandler) ListDead(c *gin.Context) {
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req = req.Normalize()

	tasks, total, err := h.queue.Dead(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		items[i] = toTaskResponse(t)
	}
	h.SuccessWithMeta(c, items, total, req.Page, req.PageSize)
}

// Retry godoc
// @Summary      Retry a dead task
// @Tags         tasks
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /tasks/{id}/retry [post]
func (h *TaskHandler) Retry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid task id")
		return
	}
	task, err := h.queue.Retry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTaskResponse(task))
}
