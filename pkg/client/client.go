// Package client is a typed client for the reminders HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const accessTokenCookie = "access_token"

// Reminder is a reminder as returned by the API.
type Reminder struct {
	ID               string  `json:"id"`
	Title            *string `json:"title"`
	Category         string  `json:"category"`
	UpgradeType      string  `json:"upgradeType"`
	TotalSeconds     int64   `json:"totalSeconds"`
	RemainingSeconds int64   `json:"remainingSeconds"`
	IsActive         bool    `json:"isActive"`
	IsCompleted      bool    `json:"isCompleted"`
	CreatedAt        int64   `json:"createdAt"`
	EndTime          int64   `json:"endTime"`
	PausedAt         *int64  `json:"pausedAt"`
	Pinned           bool    `json:"pinned"`
	Order            int     `json:"order"`
}

// CreateReminderRequest is the payload for creating a reminder.
type CreateReminderRequest struct {
	Title       *string `json:"title,omitempty"`
	Category    string  `json:"category"`
	UpgradeType string  `json:"upgradeType"`
	Hours       int64   `json:"hours"`
	Minutes     int64   `json:"minutes"`
	Seconds     int64   `json:"seconds"`
}

// ActionRequest is the payload of a reminder action. Title, Category and
// UpgradeType are only valid for the update action.
type ActionRequest struct {
	Action      string  `json:"action"`
	Title       *string `json:"title,omitempty"`
	Category    *string `json:"category,omitempty"`
	UpgradeType *string `json:"upgradeType,omitempty"`
}

type RemainingUpdate struct {
	ID               string `json:"id"`
	RemainingSeconds int64  `json:"remainingSeconds"`
}

type CompletedReminder struct {
	ID       string  `json:"id"`
	Title    *string `json:"title,omitempty"`
	Category string  `json:"category"`
}

// SyncResult lists the reminders the server reconciled.
type SyncResult struct {
	Updated   []RemainingUpdate   `json:"updated"`
	Completed []CompletedReminder `json:"completed"`
}

type OrderUpdate struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// ReorderResult reports how many order updates were applied and the IDs
// of the ones that were not.
type ReorderResult struct {
	Applied int      `json:"applied"`
	Failed  []string `json:"failed"`
}

// Session describes the session opened by Login or Register.
type Session struct {
	UserID               string    `json:"userId"`
	AccessTokenExpiresAt time.Time `json:"accessTokenExpiresAt"`
}

// Client is the reminders API client. It keeps the session cookies in a
// jar and sends the current access token as a bearer token.
type Client struct {
	baseURL    string
	cookieURL  *url.URL
	userAgent  string
	httpClient *http.Client
}

// New creates a new API client for the server at baseURL.
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client.New: parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("client.New: create cookie jar: %w", err)
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		cookieURL: u,
		userAgent: "go-reminders-client",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login opens a session for an existing user.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	if err := c.post(ctx, "/api/v1/auth/login", credentials{Email: email, Password: password}, &s); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &s, nil
}

// Register creates a user and opens a session for it.
func (c *Client) Register(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	if err := c.post(ctx, "/api/v1/auth/register", credentials{Email: email, Password: password}, &s); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &s, nil
}

// Logout closes every session of the user.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// ListReminders returns the reminders in display order for the sort mode.
// An empty sort uses the server default.
func (c *Client) ListReminders(ctx context.Context, sort string) ([]Reminder, error) {
	path := "/api/v1/reminders"
	if sort != "" {
		path += "?" + url.Values{"sort": {sort}}.Encode()
	}

	var reminders []Reminder
	if err := c.get(ctx, path, &reminders); err != nil {
		return nil, fmt.Errorf("client.ListReminders: %w", err)
	}
	return reminders, nil
}

// GetReminder fetches a single reminder by ID.
func (c *Client) GetReminder(ctx context.Context, id string) (*Reminder, error) {
	var r Reminder
	if err := c.get(ctx, "/api/v1/reminders/"+url.PathEscape(id), &r); err != nil {
		return nil, fmt.Errorf("client.GetReminder: %w", err)
	}
	return &r, nil
}

// CreateReminder creates a new reminder.
func (c *Client) CreateReminder(ctx context.Context, req CreateReminderRequest) (*Reminder, error) {
	var created Reminder
	if err := c.post(ctx, "/api/v1/reminders", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateReminder: %w", err)
	}
	return &created, nil
}

// Act applies an action to a reminder and returns its new state.
func (c *Client) Act(ctx context.Context, id string, req ActionRequest) (*Reminder, error) {
	var r Reminder
	if err := c.doRequest(ctx, http.MethodPatch, "/api/v1/reminders/"+url.PathEscape(id), req, &r); err != nil {
		return nil, fmt.Errorf("client.Act: %w", err)
	}
	return &r, nil
}

// DeleteReminder deletes a reminder by ID.
func (c *Client) DeleteReminder(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/v1/reminders/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteReminder: %w", err)
	}
	return nil
}

// Sync asks the server to reconcile every incomplete reminder.
func (c *Client) Sync(ctx context.Context) (*SyncResult, error) {
	var result SyncResult
	if err := c.post(ctx, "/api/v1/reminders/sync", nil, &result); err != nil {
		return nil, fmt.Errorf("client.Sync: %w", err)
	}
	return &result, nil
}

// Reorder persists manual order positions.
func (c *Client) Reorder(ctx context.Context, updates []OrderUpdate) (*ReorderResult, error) {
	body := struct {
		OrderUpdates []OrderUpdate `json:"orderUpdates"`
	}{OrderUpdates: updates}

	var result ReorderResult
	if err := c.doRequest(ctx, http.MethodPatch, "/api/v1/reminders/order", body, &result); err != nil {
		return nil, fmt.Errorf("client.Reorder: %w", err)
	}
	return &result, nil
}

func (c *Client) accessToken() string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.cookieURL) {
		if cookie.Name == accessTokenCookie {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
