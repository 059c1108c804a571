package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/aggregate"
	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/utils"
)

// Client talks to the logbook HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	stream    *http.Client
	userAgent string
}

const (
	defaultAddr      = "127.0.0.1:1340"
	defaultUserAgent = "logbook-watch/0.1"
	requestTimeout   = 5 * time.Second
)

// NewClient builds a Client for addr ("host:port" or a full URL).
func NewClient(addr string) (*Client, error) {
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		// Streams stay open indefinitely; cancellation goes through ctx.
		stream:    &http.Client{},
		userAgent: defaultUserAgent,
	}, nil
}

// APIError is a non-2xx answer. It unwraps to the matching domain error
// so callers can use errors.Is(err, domain.ErrNotFound).
type APIError struct {
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest:
		return domain.ErrInvalidInput
	case http.StatusServiceUnavailable:
		return domain.ErrTransientStore
	}
	return nil
}

func (c *Client) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	var payload []*domain.Project
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/projects"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var payload domain.Project
	if err := c.do(ctx, http.MethodGet, projectURL(id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	var payload domain.Project
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, &url.URL{Path: "/projects"}, body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) RenameProject(ctx context.Context, id, name string) (*domain.Project, error) {
	var payload domain.Project
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPut, projectURL(id), body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeleteProject deletes a project. Deleting an absent project succeeds.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, projectURL(id), nil, nil)
}

// CreateLog posts one entry. Each content value is sent as-is: strings
// stay text, maps and slices become structured payloads.
func (c *Client) CreateLog(ctx context.Context, projectID string, content ...any) (*domain.Entry, error) {
	var payload domain.Entry
	body := map[string][]any{"content": content}
	if err := c.do(ctx, http.MethodPost, logsURL(projectID, nil), body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ListLogs fetches the project's history bucketed by day. A non-blank
// search filters server-side.
func (c *Client) ListLogs(ctx context.Context, projectID, search string) (aggregate.Buckets, error) {
	values := url.Values{}
	if s := strings.TrimSpace(search); s != "" {
		values.Set("search", s)
	}
	var payload aggregate.Buckets
	if err := c.do(ctx, http.MethodGet, logsURL(projectID, values), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// DeleteLogs deletes the project's entries on the server-side day that
// contains at, or every entry when at is zero.
func (c *Client) DeleteLogs(ctx context.Context, projectID string, at time.Time) (int64, error) {
	values := url.Values{}
	if !at.IsZero() {
		values.Set("date", at.Format(time.RFC3339Nano))
	}
	var payload struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodDelete, logsURL(projectID, values), nil, &payload); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

func (c *Client) GetLog(ctx context.Context, id string) (*domain.Entry, error) {
	var payload domain.Entry
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/logs/" + url.PathEscape(id)}, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeleteLog deletes one entry. Deleting an absent entry succeeds.
func (c *Client) DeleteLog(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, &url.URL{Path: "/logs/" + url.PathEscape(id)}, nil, nil)
}

func projectURL(id string) *url.URL {
	return &url.URL{Path: "/projects/" + url.PathEscape(id)}
}

func logsURL(projectID string, values url.Values) *url.URL {
	return &url.URL{Path: "/projects/" + url.PathEscape(projectID) + "/logs", RawQuery: values.Encode()}
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode >= 400 {
		return decodeAPIError(rel.Path, resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(path string, resp *http.Response) error {
	apiErr := &APIError{Path: path, Status: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func parseBaseURL(addr string) (*url.URL, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = defaultAddr
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server address %q: %w", addr, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
