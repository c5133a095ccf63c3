package emmarksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Emmark HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// EventClient is an event guest.
type EventClient struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Branch      string `json:"branch"`
	Phone       string `json:"phone"`
	IsConfirmed bool   `json:"isConfirmed"`
}

// Attachment is a single inline file; Data is a data-URL string.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// Activity is an event task.
type Activity struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Date       string      `json:"date"`
	Cost       float64     `json:"cost"`
	InCharge   string      `json:"inCharge"`
	Type       string      `json:"type"`
	Status     string      `json:"status"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Stats is the dashboard summary payload.
type Stats struct {
	Stats struct {
		TotalClients     int     `json:"total_clients"`
		ConfirmedClients int     `json:"confirmed_clients"`
		ConfirmationRate int     `json:"confirmation_rate"`
		TotalCost        float64 `json:"total_cost"`
		TotalActivities  int     `json:"total_activities"`
		CompletedCount   int     `json:"completed_activities"`
		Progress         int     `json:"progress"`
	} `json:"stats"`
	StatusBreakdown []struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	} `json:"status_breakdown"`
	CostByType []struct {
		Type string  `json:"type"`
		Cost float64 `json:"cost"`
	} `json:"cost_by_type"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ListClients returns all clients.
func (c *Client) ListClients(ctx context.Context) ([]EventClient, error) {
	var resp []EventClient
	err := c.do(ctx, http.MethodGet, "v0/clients", nil, &resp)
	return resp, err
}

// CreateClient adds a client.
func (c *Client) CreateClient(ctx context.Context, name, branch, phone string, confirmed bool) (EventClient, error) {
	body := map[string]any{
		"name":        name,
		"branch":      branch,
		"phone":       phone,
		"isConfirmed": confirmed,
	}
	var resp EventClient
	err := c.do(ctx, http.MethodPost, "v0/clients", body, &resp)
	return resp, err
}

// UpdateClient replaces a client by id.
func (c *Client) UpdateClient(ctx context.Context, client EventClient) (EventClient, error) {
	var resp EventClient
	endpoint := fmt.Sprintf("v0/clients/%s", url.PathEscape(client.ID))
	err := c.do(ctx, http.MethodPut, endpoint, client, &resp)
	return resp, err
}

// DeleteClient removes a client by id.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("v0/clients/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// ListActivities returns all activities.
func (c *Client) ListActivities(ctx context.Context) ([]Activity, error) {
	var resp []Activity
	err := c.do(ctx, http.MethodGet, "v0/activities", nil, &resp)
	return resp, err
}

// CreateActivity adds an activity.
func (c *Client) CreateActivity(ctx context.Context, a Activity) (Activity, error) {
	var resp Activity
	err := c.do(ctx, http.MethodPost, "v0/activities", a, &resp)
	return resp, err
}

// SetActivityStatus moves an activity to a new state.
func (c *Client) SetActivityStatus(ctx context.Context, id, status string) (Activity, error) {
	var resp Activity
	endpoint := fmt.Sprintf("v0/activities/%s/status", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"status": status}, &resp)
	return resp, err
}

// DeleteActivity removes an activity by id.
func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("v0/activities/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// GetStats returns the dashboard figures.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	var resp Stats
	err := c.do(ctx, http.MethodGet, "v0/stats", nil, &resp)
	return resp, err
}

// DownloadReport fetches the rendered report document.
func (c *Client) DownloadReport(ctx context.Context) ([]byte, error) {
	return c.raw(ctx, "v0/report")
}

// DownloadAttachment fetches an activity's attachment bytes.
func (c *Client) DownloadAttachment(ctx context.Context, activityID string) ([]byte, error) {
	return c.raw(ctx, fmt.Sprintf("v0/activities/%s/attachment", url.PathEscape(activityID)))
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) raw(ctx context.Context, endpoint string) ([]byte, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+"/"+strings.TrimLeft(endpoint, "/"), nil)
	if err != nil {
		return nil, err
	}
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
