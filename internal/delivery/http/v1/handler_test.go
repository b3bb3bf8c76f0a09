package v1

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/services"
)

// Stub services so the handlers can be exercised without a database.
// Unset funcs fail the calling test path with a zero value + nil error,
// which keeps each test explicit about what it expects to be called.

type stubAuthService struct {
	registerFn func(services.RegisterParams) (*models.User, error)
	loginFn    func(services.LoginParams) (*models.User, error)
	userByIDFn func(string) (*models.User, error)
	issueFn    func(string) (string, time.Time, error)
	parseFn    func(string) (string, error)
}

func (s *stubAuthService) Register(_ context.Context, params services.RegisterParams) (*models.User, error) {
	return s.registerFn(params)
}

func (s *stubAuthService) Login(_ context.Context, params services.LoginParams) (*models.User, error) {
	return s.loginFn(params)
}

func (s *stubAuthService) UserByID(_ context.Context, userID string) (*models.User, error) {
	return s.userByIDFn(userID)
}

func (s *stubAuthService) IssueAccessToken(userID string) (string, time.Time, error) {
	if s.issueFn != nil {
		return s.issueFn(userID)
	}
	return "issued-token", time.Now().Add(time.Hour), nil
}

func (s *stubAuthService) ParseAccessToken(token string) (string, error) {
	return s.parseFn(token)
}

type stubTaskService struct {
	createFn func(services.CreateTaskParams) (*models.Task, error)
	listFn   func(services.ListTasksParams) ([]*models.Task, error)
	byIDFn   func(userID, taskID string) (*models.Task, error)
	updateFn func(services.UpdateTaskParams) (*models.Task, error)
	deleteFn func(userID, taskID string) error
}

func (s *stubTaskService) CreateTask(_ context.Context, params services.CreateTaskParams) (*models.Task, error) {
	return s.createFn(params)
}

func (s *stubTaskService) ListTasks(_ context.Context, params services.ListTasksParams) ([]*models.Task, error) {
	return s.listFn(params)
}

func (s *stubTaskService) TaskByID(_ context.Context, userID, taskID string) (*models.Task, error) {
	return s.byIDFn(userID, taskID)
}

func (s *stubTaskService) UpdateTask(_ context.Context, params services.UpdateTaskParams) (*models.Task, error) {
	return s.updateFn(params)
}

func (s *stubTaskService) DeleteTask(_ context.Context, userID, taskID string) error {
	return s.deleteFn(userID, taskID)
}

// authedStub accepts the token "valid-token" for testUser.
const validToken = "valid-token"

var testUser = &models.User{
	ID:        "user-1",
	Name:      "Ada",
	Email:     "ada@example.com",
	CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
}

func authedStub() *stubAuthService {
	return &stubAuthService{
		parseFn: func(token string) (string, error) {
			if token == validToken {
				return testUser.ID, nil
			}
			return "", services.ErrUserNotFound
		},
		userByIDFn: func(userID string) (*models.User, error) {
			if userID == testUser.ID {
				return testUser, nil
			}
			return nil, services.ErrUserNotFound
		},
	}
}

// newTestRouter mirrors the route table the app registers.
func newTestRouter(auth services.AuthService, tasks services.TaskService) *gin.Engine {
	return newTestRouterProd(auth, tasks, false)
}

func newTestRouterProd(auth services.AuthService, tasks services.TaskService, prod bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(zerolog.Nop(), auth, tasks, prod)

	router := gin.New()
	api := router.Group("/api")

	authRouter := api.Group("/auth")
	authRouter.POST("/signup", h.HandleSignup)
	authRouter.POST("/login", h.HandleLogin)
	authRouter.POST("/logout", h.HandleAuthMiddleware, h.HandleLogout)
	authRouter.GET("/me", h.HandleAuthMiddleware, h.HandleMe)

	taskRouter := api.Group("/tasks", h.HandleAuthMiddleware)
	taskRouter.GET("", h.HandleGetTasks)
	taskRouter.POST("", h.HandleCreateTask)
	taskRouter.GET("/:id", h.HandleGetTask)
	taskRouter.PUT("/:id", h.HandleUpdateTask)
	taskRouter.DELETE("/:id", h.HandleDeleteTask)

	return router
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := map[string]any{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body
}
