//go:build integration

package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/taskboard-dev/taskboard/internal/models"
)

// Run against a database with schema.sql applied:
//
//	TASKBOARD_TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/services/
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := testDatabaseURL(t)
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return pool
}

func testDatabaseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TASKBOARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TASKBOARD_TEST_DATABASE_URL not set")
	}
	return url
}

func registerTestUser(t *testing.T, pool *pgxpool.Pool, auth AuthService) *models.User {
	t.Helper()

	user, err := auth.Register(context.Background(), RegisterParams{
		Name:     "Ada",
		Email:    fmt.Sprintf("ada+%s@example.com", uuid.NewString()),
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DELETE FROM tasks WHERE user_id = $1", user.ID)
		pool.Exec(context.Background(), "DELETE FROM users WHERE id = $1", user.ID)
	})
	return user
}

func TestTaskOwnershipOrdering(t *testing.T) {
	pool := integrationPool(t)
	auth := NewAuthService(zerolog.Nop(), pool, "taskboard-test", []byte("test-key"), time.Hour)
	tasks := NewTaskService(zerolog.Nop(), pool)
	ctx := context.Background()

	owner := registerTestUser(t, pool, auth)
	stranger := registerTestUser(t, pool, auth)

	task, err := tasks.CreateTask(ctx, CreateTaskParams{
		UserID: owner.ID,
		Title:  "Owned task",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A missing id answers not-found regardless of the caller.
	if _, err := tasks.TaskByID(ctx, owner.ID, uuid.NewString()); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("missing id: got %v, want %v", err, ErrTaskNotFound)
	}

	// An existing but foreign task answers not-owned, never not-found.
	if _, err := tasks.TaskByID(ctx, stranger.ID, task.ID); !errors.Is(err, ErrTaskNotOwned) {
		t.Errorf("foreign read: got %v, want %v", err, ErrTaskNotOwned)
	}

	status := models.StatusCompleted
	if _, err := tasks.UpdateTask(ctx, UpdateTaskParams{
		ID:     task.ID,
		UserID: stranger.ID,
		Status: &status,
	}); !errors.Is(err, ErrTaskNotOwned) {
		t.Errorf("foreign update: got %v, want %v", err, ErrTaskNotOwned)
	}
	if err := tasks.DeleteTask(ctx, stranger.ID, task.ID); !errors.Is(err, ErrTaskNotOwned) {
		t.Errorf("foreign delete: got %v, want %v", err, ErrTaskNotOwned)
	}

	// Rejected writes must leave the row untouched.
	got, err := tasks.TaskByID(ctx, owner.ID, task.ID)
	if err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if got.Status != models.StatusIncomplete {
		t.Errorf("status after rejected update: got %q", got.Status)
	}

	if err := tasks.DeleteTask(ctx, owner.ID, task.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := tasks.TaskByID(ctx, owner.ID, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("deleted task: got %v, want %v", err, ErrTaskNotFound)
	}
}

func TestListTasksScopedToOwner(t *testing.T) {
	pool := integrationPool(t)
	auth := NewAuthService(zerolog.Nop(), pool, "taskboard-test", []byte("test-key"), time.Hour)
	tasks := NewTaskService(zerolog.Nop(), pool)
	ctx := context.Background()

	owner := registerTestUser(t, pool, auth)
	stranger := registerTestUser(t, pool, auth)

	if _, err := tasks.CreateTask(ctx, CreateTaskParams{UserID: owner.ID, Title: "Mine"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	listed, err := tasks.ListTasks(ctx, ListTasksParams{UserID: stranger.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("stranger sees %d tasks, want 0", len(listed))
	}
}
