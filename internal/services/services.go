package services

import (
	"context"
	"errors"
	"time"

	"github.com/taskboard-dev/taskboard/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskNotOwned         = errors.New("task is owned by another user")
)

type AuthService interface {
	// Register creates a user with the given name, email and password.
	//
	// It hashes the password and generates a unique ID. The returned
	// user has the password hash cleared.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params RegisterParams) (*models.User, error)

	// Login authenticates the user by email and password.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*models.User, error)

	// UserByID resolves a user ID to a user record without the
	// password hash, or ErrUserNotFound.
	UserByID(ctx context.Context, userID string) (*models.User, error)

	// IssueAccessToken signs a token whose subject is the user ID.
	IssueAccessToken(userID string) (token string, expiresAt time.Time, err error)

	// ParseAccessToken verifies the token signature, issuer and expiry
	// and returns the embedded user ID.
	ParseAccessToken(token string) (userID string, err error)
}

type TaskService interface {
	// CreateTask inserts a task owned by params.UserID. Status and
	// priority default to incomplete/medium when empty.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// ListTasks returns the caller's tasks, optionally restricted to an
	// exact status and/or priority, newest-created first.
	ListTasks(ctx context.Context, params ListTasksParams) ([]*models.Task, error)

	// TaskByID looks the task up by ID, then checks ownership in that
	// order: ErrTaskNotFound if no such task, ErrTaskNotOwned if it
	// belongs to someone else.
	TaskByID(ctx context.Context, userID, taskID string) (*models.Task, error)

	// UpdateTask applies only the fields present in params, after the
	// same lookup/ownership sequence as TaskByID. Omitted fields keep
	// their prior value; the owner is never writable.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// DeleteTask removes the task after the same lookup/ownership
	// sequence as TaskByID.
	DeleteTask(ctx context.Context, userID, taskID string) error
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

type LoginParams struct {
	Email    string
	Password string
}

type CreateTaskParams struct {
	UserID      string
	Title       string
	Description string
	Priority    string
	Deadline    *time.Time
}

type ListTasksParams struct {
	UserID   string
	Status   string
	Priority string
}

type UpdateTaskParams struct {
	ID     string
	UserID string

	Title       *string
	Description *string
	Status      *string
	Priority    *string

	// DeadlineSet distinguishes "deadline absent" from "deadline
	// supplied as null": the latter clears the stored value.
	DeadlineSet bool
	Deadline    *time.Time
}
