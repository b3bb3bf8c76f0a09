package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/services"
)

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		Deadline:    task.Deadline,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func isTaskValidationError(err error) bool {
	return errors.Is(err, models.ErrTitleRequired) ||
		errors.Is(err, models.ErrTitleTooLong) ||
		errors.Is(err, models.ErrDescTooLong) ||
		errors.Is(err, models.ErrInvalidStatus) ||
		errors.Is(err, models.ErrInvalidPriority)
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		h.abort(c, newUnauthorizedError("Not authorized, no token"))
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		h.abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	// The owner is forced to the authenticated identity; nothing in the
	// payload can override it.
	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		if isTaskValidationError(err) {
			h.abort(c, newBadRequestError(err.Error()))
			return
		}
		h.abort(c, newServerError(err))
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		h.abort(c, newUnauthorizedError("Not authorized, no token"))
		return
	}

	tasks, err := h.tasks.ListTasks(c, services.ListTasksParams{
		UserID:   userID,
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		if isTaskValidationError(err) {
			h.abort(c, newBadRequestError(err.Error()))
			return
		}
		h.abort(c, newServerError(err))
		return
	}

	// Always an array, even when empty.
	response := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, newTaskResponse(task))
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		h.abort(c, newUnauthorizedError("Not authorized, no token"))
		return
	}

	task, err := h.tasks.TaskByID(c, userID, c.Param("id"))
	if err != nil {
		h.abortTaskError(c, err, "Not authorized to view this task")
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

// optionalTime distinguishes an absent field from an explicit null: any
// UnmarshalJSON call marks the field as present, and null leaves the
// value nil, which clears the stored deadline.
type optionalTime struct {
	set   bool
	value *time.Time
}

func (t *optionalTime) UnmarshalJSON(data []byte) error {
	t.set = true
	if string(data) == "null" {
		t.value = nil
		return nil
	}

	var v time.Time
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	t.value = &v
	return nil
}

type updateTaskRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Status      *string      `json:"status"`
	Priority    *string      `json:"priority"`
	Deadline    optionalTime `json:"deadline"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		h.abort(c, newUnauthorizedError("Not authorized, no token"))
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		h.abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:          c.Param("id"),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DeadlineSet: req.Deadline.set,
		Deadline:    req.Deadline.value,
	})
	if err != nil {
		h.abortTaskError(c, err, "Not authorized to update this task")
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		h.abort(c, newUnauthorizedError("Not authorized, no token"))
		return
	}

	taskID := c.Param("id")
	err := h.tasks.DeleteTask(c, userID, taskID)
	if err != nil {
		h.abortTaskError(c, err, "Not authorized to delete this task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
		"id":      taskID,
	})
}

func (h *handlerImpl) abortTaskError(c *gin.Context, err error, notOwnedMessage string) {
	h.logger.Error().
		Err(err).
		Msg("task operation failed")
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		h.abort(c, newNotFoundError("Task not found"))
	case errors.Is(err, services.ErrTaskNotOwned):
		h.abort(c, newUnauthorizedError(notOwnedMessage))
	case isTaskValidationError(err):
		h.abort(c, newBadRequestError(err.Error()))
	default:
		h.abort(c, newServerError(err))
	}
}
