// Package client is a typed HTTP client for the scheduler service REST API.
// routinectl is its primary consumer.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/routinely/routinely-server/internal/model"
)

// Client wraps a resty client bound to one service base URL.
type Client struct {
	http *resty.Client
}

// New builds a client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &Client{http: c}
}

// APIError is a non-2xx response decoded from the service error body. A 409
// carries the sessions that blocked the write.
type APIError struct {
	Status    int
	Message   string
	Conflicts []model.Session
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// IsConflict reports whether the error is a scheduling conflict rejection.
func (e *APIError) IsConflict() bool { return e.Status == http.StatusConflict }

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func apiError(resp *resty.Response) error {
	var body struct {
		Error     string          `json:"error"`
		Code      int             `json:"code"`
		Message   string          `json:"message"`
		Conflicts []model.Session `json:"conflicts"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Code == 0 {
		return &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	}
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode(), Message: msg, Conflicts: body.Conflicts}
}

// --- Users ---

// CreateUserRequest mirrors POST /api/users.
type CreateUserRequest struct {
	Email       string  `json:"email"`
	DisplayName *string `json:"displayName,omitempty"`
	TimeZone    string  `json:"timeZone,omitempty"`
}

func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodPost, "/api/users", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(userID), nil, nil)
}

// --- Availability windows ---

// AddWindowRequest mirrors POST /api/users/{userId}/availability. Times are
// "HH:MM" local to the user's timezone.
type AddWindowRequest struct {
	DayOfWeek string `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (c *Client) AddWindow(ctx context.Context, userID string, req AddWindowRequest) (*model.AvailabilityWindow, error) {
	var out model.AvailabilityWindow
	if err := c.do(ctx, http.MethodPost, c.userPath(userID, "availability"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListWindows(ctx context.Context, userID string) ([]model.AvailabilityWindow, error) {
	var out struct {
		Windows []model.AvailabilityWindow `json:"windows"`
	}
	if err := c.do(ctx, http.MethodGet, c.userPath(userID, "availability"), nil, &out); err != nil {
		return nil, err
	}
	return out.Windows, nil
}

func (c *Client) RemoveWindow(ctx context.Context, userID, windowID string) error {
	return c.do(ctx, http.MethodDelete, c.userPath(userID, "availability", windowID), nil, nil)
}

// --- Sessions ---

// CreateSessionRequest mirrors POST /api/users/{userId}/sessions.
type CreateSessionRequest struct {
	Title            string    `json:"title,omitempty"`
	Type             string    `json:"type"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	Priority         int       `json:"priority,omitempty"`
	Description      *string   `json:"description,omitempty"`
	FromSuggestionID *string   `json:"fromSuggestionId,omitempty"`
	AllowConflicts   bool      `json:"allowConflicts,omitempty"`
}

func (c *Client) CreateSession(ctx context.Context, userID string, req CreateSessionRequest) (*model.Session, error) {
	var out model.Session
	if err := c.do(ctx, http.MethodPost, c.userPath(userID, "sessions"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSession(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	var out model.Session
	if err := c.do(ctx, http.MethodGet, c.userPath(userID, "sessions", sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessionsOptions narrows GET /api/users/{userId}/sessions.
type ListSessionsOptions struct {
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
}

func (c *Client) ListSessions(ctx context.Context, userID string, opts ListSessionsOptions) ([]model.Session, error) {
	q := url.Values{}
	if opts.From != nil {
		q.Set("from", opts.From.UTC().Format(time.RFC3339))
	}
	if opts.To != nil {
		q.Set("to", opts.To.UTC().Format(time.RFC3339))
	}
	if opts.IncludeDeleted {
		q.Set("includeDeleted", "true")
	}
	path := c.userPath(userID, "sessions")
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Sessions []model.Session `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// UpdateSessionRequest mirrors PATCH; nil fields keep current values.
type UpdateSessionRequest struct {
	Title          *string    `json:"title,omitempty"`
	StartTime      *time.Time `json:"startTime,omitempty"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	Priority       *int       `json:"priority,omitempty"`
	Description    *string    `json:"description,omitempty"`
	AllowConflicts bool       `json:"allowConflicts,omitempty"`
}

func (c *Client) UpdateSession(ctx context.Context, userID, sessionID string, req UpdateSessionRequest) (*model.Session, error) {
	var out model.Session
	if err := c.do(ctx, http.MethodPatch, c.userPath(userID, "sessions", sessionID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetCompleted toggles completion. A nil completed flips the current state.
func (c *Client) SetCompleted(ctx context.Context, userID, sessionID string, completed *bool) (*model.Session, error) {
	var body interface{}
	if completed != nil {
		body = map[string]bool{"completed": *completed}
	}
	var out model.Session
	if err := c.do(ctx, http.MethodPost, c.userPath(userID, "sessions", sessionID)+"/complete", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return c.do(ctx, http.MethodDelete, c.userPath(userID, "sessions", sessionID), nil, nil)
}

// --- Suggestions ---

func (c *Client) Suggest(ctx context.Context, userID string, req model.SuggestionRequest) (*model.SuggestionPage, error) {
	var out model.SuggestionPage
	if err := c.do(ctx, http.MethodPost, c.userPath(userID, "suggestions"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckConflicts(ctx context.Context, userID string, start, end time.Time) ([]model.Session, error) {
	body := map[string]time.Time{"startTime": start, "endTime": end}
	var out struct {
		Conflicts []model.Session `json:"conflicts"`
	}
	if err := c.do(ctx, http.MethodPost, c.userPath(userID, "conflicts")+"/check", body, &out); err != nil {
		return nil, err
	}
	return out.Conflicts, nil
}

// --- Health ---

// Health returns the service status string ("healthy" or "unhealthy").
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *Client) userPath(userID string, parts ...string) string {
	segs := []string{"/api/users", url.PathEscape(userID)}
	for _, p := range parts {
		segs = append(segs, url.PathEscape(p))
	}
	return strings.Join(segs, "/")
}
