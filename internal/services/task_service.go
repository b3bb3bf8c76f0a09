package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/taskboard-dev/taskboard/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	title := strings.TrimSpace(params.Title)
	if err := models.ValidateTitle(title); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(params.Description)
	if err := models.ValidateDescription(description); err != nil {
		return nil, err
	}

	priority := params.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, models.ErrInvalidPriority
	}

	now := time.Now()
	task := &models.Task{
		UserID:      params.UserID,
		Title:       title,
		Description: description,
		Status:      models.StatusIncomplete,
		Priority:    priority,
		Deadline:    params.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}
	task.ID = taskUUID.String()

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   user_id,
                   title,
                   description,
                   status,
                   priority,
                   deadline,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Deadline,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("inserted task")

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("created task")
	return task, nil
}

// buildSelectTasksQuery scopes every listing to the owner and narrows by
// status/priority only when those filters are present. Ordering is newest
// created first; ids are UUIDv7, so the id tiebreak keeps ties in
// insertion order.
func buildSelectTasksQuery(params ListTasksParams) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`
SELECT id,
       title,
       description,
       status,
       priority,
       deadline,
       created_at,
       updated_at
FROM tasks
WHERE user_id = $1`)
	args := []any{params.UserID}

	if params.Status != "" {
		args = append(args, params.Status)
		fmt.Fprintf(&sb, " AND\n      status = $%d", len(args))
	}
	if params.Priority != "" {
		args = append(args, params.Priority)
		fmt.Fprintf(&sb, " AND\n      priority = $%d", len(args))
	}

	sb.WriteString("\nORDER BY created_at DESC, id\n")
	return sb.String(), args
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, params ListTasksParams) ([]*models.Task, error) {
	if params.Status != "" && !models.ValidStatus(params.Status) {
		return nil, models.ErrInvalidStatus
	}
	if params.Priority != "" && !models.ValidPriority(params.Priority) {
		return nil, models.ErrInvalidPriority
	}

	query, args := buildSelectTasksQuery(params)
	rows, err := s.pgPool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks by user id")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task := &models.Task{UserID: params.UserID}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&task.Deadline,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", params.UserID).
		Msg("selected tasks by user id")
	return tasks, nil
}

func (s *taskServiceImpl) TaskByID(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task := &models.Task{
		ID: taskID,
	}

	const selectTaskByIDQuery = `
SELECT user_id,
       title,
       description,
       status,
       priority,
       deadline,
       created_at,
       updated_at
FROM tasks
WHERE id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskByIDQuery,
		task.ID,
	).Scan(
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.Deadline,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("task_id", task.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to select task by id")
		return nil, err
	}

	// Existence is checked before ownership on purpose: a task that
	// exists but belongs to someone else is rejected as unauthorized,
	// not hidden as missing.
	if task.UserID != userID {
		s.logger.Warn().
			Str("task_id", task.ID).
			Str("user_id", userID).
			Msg("task owner mismatch")
		return nil, ErrTaskNotOwned
	}

	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("selected task by id")
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	task, err := s.TaskByID(ctx, params.UserID, params.ID)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if err = models.ValidateTitle(title); err != nil {
			return nil, err
		}
		task.Title = title
	}
	if params.Description != nil {
		description := strings.TrimSpace(*params.Description)
		if err = models.ValidateDescription(description); err != nil {
			return nil, err
		}
		task.Description = description
	}
	if params.Status != nil {
		if !models.ValidStatus(*params.Status) {
			return nil, models.ErrInvalidStatus
		}
		task.Status = *params.Status
	}
	if params.Priority != nil {
		if !models.ValidPriority(*params.Priority) {
			return nil, models.ErrInvalidPriority
		}
		task.Priority = *params.Priority
	}
	if params.DeadlineSet {
		task.Deadline = params.Deadline
	}
	task.UpdatedAt = time.Now()

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    status = $3,
    priority = $4,
    deadline = $5,
    updated_at = $6
WHERE id = $7
`
	_, err = s.pgPool.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Deadline,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("updated task")

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID, taskID string) error {
	_, err := s.TaskByID(ctx, userID, taskID)
	if err != nil {
		return err
	}

	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	_, err = s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		taskID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task")
		return err
	}
	s.logger.Debug().
		Str("task_id", taskID).
		Msg("deleted task")

	s.logger.Info().
		Str("task_id", taskID).
		Str("user_id", userID).
		Msg("deleted task")
	return nil
}
