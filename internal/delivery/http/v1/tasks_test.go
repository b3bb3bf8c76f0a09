package v1

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/services"
)

func authedRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: validToken})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleTask() *models.Task {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Task{
		ID:          "task-1",
		UserID:      testUser.ID,
		Title:       "Buy milk",
		Description: "",
		Status:      models.StatusIncomplete,
		Priority:    models.PriorityMedium,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestCreateTask(t *testing.T) {
	var got services.CreateTaskParams
	tasks := &stubTaskService{
		createFn: func(params services.CreateTaskParams) (*models.Task, error) {
			got = params
			return sampleTask(), nil
		},
	}
	router := newTestRouter(authedStub(), tasks)

	w := authedRequest(router, http.MethodPost, "/api/tasks", `{"title":"Buy milk"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201", w.Code)
	}
	if got.UserID != testUser.ID {
		t.Errorf("owner: got %q, want the authenticated identity", got.UserID)
	}
	if got.Title != "Buy milk" {
		t.Errorf("title: got %q", got.Title)
	}

	body := decodeBody(t, w)
	if body["status"] != models.StatusIncomplete {
		t.Errorf("status default: got %q", body["status"])
	}
	if body["priority"] != models.PriorityMedium {
		t.Errorf("priority default: got %q", body["priority"])
	}
}

func TestCreateTaskOwnerNotSpoofable(t *testing.T) {
	var got services.CreateTaskParams
	tasks := &stubTaskService{
		createFn: func(params services.CreateTaskParams) (*models.Task, error) {
			got = params
			return sampleTask(), nil
		},
	}
	router := newTestRouter(authedStub(), tasks)

	// The payload's user/owner fields are not part of the request shape
	// and must be ignored.
	authedRequest(router, http.MethodPost, "/api/tasks",
		`{"title":"Buy milk","user_id":"someone-else","owner":"someone-else"}`)

	if got.UserID != testUser.ID {
		t.Errorf("owner: got %q, want the authenticated identity", got.UserID)
	}
}

func TestCreateTaskWithoutTitle(t *testing.T) {
	tasks := &stubTaskService{
		createFn: func(params services.CreateTaskParams) (*models.Task, error) {
			return nil, models.ErrTitleRequired
		},
	}
	router := newTestRouter(authedStub(), tasks)

	w := authedRequest(router, http.MethodPost, "/api/tasks", `{"description":"no title"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", w.Code)
	}
	if got := decodeBody(t, w)["message"]; got != "Please provide a task title" {
		t.Errorf("message: got %q", got)
	}
}

func TestGetTasksPassesFilters(t *testing.T) {
	var got services.ListTasksParams
	tasks := &stubTaskService{
		listFn: func(params services.ListTasksParams) ([]*models.Task, error) {
			got = params
			return []*models.Task{sampleTask()}, nil
		},
	}
	router := newTestRouter(authedStub(), tasks)

	w := authedRequest(router, http.MethodGet, "/api/tasks?status=completed&priority=high", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if got.UserID != testUser.ID {
		t.Errorf("owner scope: got %q", got.UserID)
	}
	if got.Status != models.StatusCompleted || got.Priority != models.PriorityHigh {
		t.Errorf("filters: got %+v", got)
	}
}

func TestGetTasksEmptyIsArray(t *testing.T) {
	tasks := &stubTaskService{
		listFn: func(services.ListTasksParams) ([]*models.Task, error) {
			return nil, nil
		},
	}
	router := newTestRouter(authedStub(), tasks)

	w := authedRequest(router, http.MethodGet, "/api/tasks", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body: got %q, want []", body)
	}
}

func TestGetTasksInvalidFilter(t *testing.T) {
	tasks := &stubTaskService{
		listFn: func(services.ListTasksParams) ([]*models.Task, error) {
			return nil, models.ErrInvalidStatus
		},
	}
	router := newTestRouter(authedStub(), tasks)

	w := authedRequest(router, http.MethodGet, "/api/tasks?status=archived", "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	tasks := &stubTaskService{
		byIDFn: func(userID, taskID string) (*models.Task, error) {
			return nil, services.ErrTaskNotFound
		},
	}
	router := newTestRouter(authedStub(), tasks)

	w := authedRequest(router, http.MethodGet, "/api/tasks/missing", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", w.Code)
	}
	if got := decodeBody(t, w)["message"]; got != "Task not found" {
		t.Errorf("message: got %q", got)
	}
}

func TestGetTaskNotOwned(t *testing.T) {
	tasks := &stubTaskService{
		byIDFn: func(userID, taskID string) (*models.Task, error) {
			return nil, services.ErrTaskNotOwned
		},
	}
	router := newTestRouter(authedStub(), tasks)

	w := authedRequest(router, http.MethodGet, "/api/tasks/task-2", "")

	// Existing but foreign tasks answer 401, not 404.
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	if got := decodeBody(t, w)["message"]; got != "Not authorized to view this task" {
		t.Errorf("message: got %q", got)
	}
}

func TestUpdateTaskPartialPayload(t *testing.T) {
	var got services.UpdateTaskParams
	tasks := &stubTaskService{
		updateFn: func(params services.UpdateTaskParams) (*models.Task, error) {
			got = params
			task := sampleTask()
			task.Status = models.StatusCompleted
			return task, nil
		},
	}
	router := newTestRouter(authedStub(), tasks)

	w := authedRequest(router, http.MethodPut, "/api/tasks/task-1", `{"status":"completed"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if got.Status == nil || *got.Status != models.StatusCompleted {
		t.Errorf("status param: got %v", got.Status)
	}
	if got.Title != nil || got.Description != nil || got.Priority != nil {
		t.Errorf("omitted fields should be absent: %+v", got)
	}
	if got.DeadlineSet {
		t.Error("deadline should be absent")
	}

	body := decodeBody(t, w)
	if body["status"] != models.StatusCompleted {
		t.Errorf("status: got %q", body["status"])
	}
	if body["title"] != "Buy milk" {
		t.Errorf("title changed: got %q", body["title"])
	}
}

func TestUpdateTaskDeadline(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantSet   bool
		wantValue bool
	}{
		{"absent", `{"title":"x"}`, false, false},
		{"null clears", `{"deadline":null}`, true, false},
		{"value sets", `{"deadline":"2025-06-01T00:00:00Z"}`, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got services.UpdateTaskParams
			tasks := &stubTaskService{
				updateFn: func(params services.UpdateTaskParams) (*models.Task, error) {
					got = params
					return sampleTask(), nil
				},
			}
			router := newTestRouter(authedStub(), tasks)

			w := authedRequest(router, http.MethodPut, "/api/tasks/task-1", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200", w.Code)
			}

			if got.DeadlineSet != tt.wantSet {
				t.Errorf("DeadlineSet: got %v, want %v", got.DeadlineSet, tt.wantSet)
			}
			if (got.Deadline != nil) != tt.wantValue {
				t.Errorf("Deadline: got %v", got.Deadline)
			}
		})
	}
}

func TestUpdateTaskNotOwned(t *testing.T) {
	tasks := &stubTaskService{
		updateFn: func(services.UpdateTaskParams) (*models.Task, error) {
			return nil, services.ErrTaskNotOwned
		},
	}
	router := newTestRouter(authedStub(), tasks)

	w := authedRequest(router, http.MethodPut, "/api/tasks/task-2", `{"status":"completed"}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	if got := decodeBody(t, w)["message"]; got != "Not authorized to update this task" {
		t.Errorf("message: got %q", got)
	}
}

func TestDeleteTask(t *testing.T) {
	var deletedID string
	tasks := &stubTaskService{
		deleteFn: func(userID, taskID string) error {
			deletedID = taskID
			return nil
		},
	}
	router := newTestRouter(authedStub(), tasks)

	w := authedRequest(router, http.MethodDelete, "/api/tasks/task-1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if deletedID != "task-1" {
		t.Errorf("deleted id: got %q", deletedID)
	}

	body := decodeBody(t, w)
	if body["message"] != "Task deleted successfully" {
		t.Errorf("message: got %q", body["message"])
	}
	if body["id"] != "task-1" {
		t.Errorf("id: got %q", body["id"])
	}
}

func TestDeleteTaskErrors(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantCode   int
		wantMsg    string
	}{
		{"not found", services.ErrTaskNotFound, http.StatusNotFound, "Task not found"},
		{"not owned", services.ErrTaskNotOwned, http.StatusUnauthorized, "Not authorized to delete this task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &stubTaskService{
				deleteFn: func(userID, taskID string) error {
					return tt.serviceErr
				},
			}
			router := newTestRouter(authedStub(), tasks)

			w := authedRequest(router, http.MethodDelete, "/api/tasks/task-9", "")

			if w.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", w.Code, tt.wantCode)
			}
			if got := decodeBody(t, w)["message"]; got != tt.wantMsg {
				t.Errorf("message: got %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestTasksRequireSession(t *testing.T) {
	router := newTestRouter(authedStub(), &stubTaskService{})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", w.Code)
	}
}
