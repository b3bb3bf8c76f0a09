package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const sessionCookie = "token"

// User is the profile projection the server returns; it never carries
// the password hash.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// APIError is a non-2xx response decoded from the server's
// {message, error?} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// APIClient talks to the taskboard server. The session token is kept in
// a file between runs and sent as the session cookie on every call.
type APIClient struct {
	baseURL   string
	tokenFile string
	http      *http.Client
}

func NewAPIClient(cfg *Config) *APIClient {
	return &APIClient{
		baseURL:   strings.TrimRight(cfg.ServerURL, "/"),
		tokenFile: cfg.TokenFile,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *APIClient) Signup(ctx context.Context, name, email, password string) (*User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	user := &User{}
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil, body, user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *APIClient) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	user := &User{}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *APIClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	if err != nil {
		return err
	}
	return c.clearToken()
}

// Me verifies the stored session and resolves the signed-in profile.
func (c *APIClient) Me(ctx context.Context) (*User, error) {
	user := &User{}
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Tasks lists the caller's tasks; status/priority narrow the result
// server-side when non-empty.
func (c *APIClient) Tasks(ctx context.Context, status, priority string) ([]Task, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if priority != "" {
		query.Set("priority", priority)
	}

	var tasks []Task
	err := c.do(ctx, http.MethodGet, "/api/tasks", query, nil, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *APIClient) Task(ctx context.Context, id string) (*Task, error) {
	task := &Task{}
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, nil, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

type TaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

func (c *APIClient) CreateTask(ctx context.Context, draft TaskDraft) (*Task, error) {
	task := &Task{}
	err := c.do(ctx, http.MethodPost, "/api/tasks", nil, draft, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// TaskPatch carries only the fields to change; absent fields keep their
// server-side value.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

func (c *APIClient) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*Task, error) {
	task := &Task{}
	err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), nil, patch, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (c *APIClient) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil, nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.loadToken(); token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	// Login and signup answer with a fresh session cookie.
	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookie && cookie.Value != "" {
			if err := c.saveToken(cookie.Value); err != nil {
				return err
			}
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var decoded struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err == nil {
			apiErr.Message = decoded.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *APIClient) loadToken() string {
	data, err := os.ReadFile(c.tokenFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (c *APIClient) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(c.tokenFile), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(c.tokenFile, []byte(token), 0o600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (c *APIClient) clearToken() error {
	err := os.Remove(c.tokenFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
