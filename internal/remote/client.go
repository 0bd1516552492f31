package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cyderes/posts-client/internal/config"
	"github.com/cyderes/posts-client/internal/models"
)

// StatusError is returned when the API answers with a non-2xx status
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d for %s %s", e.StatusCode, e.Method, e.URL)
}

// Client talks to the remote posts resource
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a new API client. Every call is attempted once.
func NewClient(cfg config.APIConfig) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ListPosts fetches the whole collection
func (c *Client) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, c.endpoint, nil, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		// "null" decodes without error but is not a collection
		return nil, errors.New("failed to unmarshal response: expected array")
	}
	return posts, nil
}

// CreatePost sends a new post and returns the object echoed by the server
func (c *Client) CreatePost(ctx context.Context, in models.PostInput) (models.Post, error) {
	post := models.Post{Title: in.Title, Body: in.Body}
	in.ID = 0
	if err := c.do(ctx, http.MethodPost, c.endpoint, in, &post); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// UpdatePost replaces title and body of the post with the given id. Only
// the status is checked; the response body is ignored.
func (c *Client) UpdatePost(ctx context.Context, id int64, in models.PostInput) error {
	in.ID = id
	return c.do(ctx, http.MethodPut, c.postURL(id), in, nil)
}

// DeletePost removes the post with the given id
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, c.postURL(id), nil, nil)
}

func (c *Client) postURL(id int64) string {
	return c.endpoint + "/" + strconv.FormatInt(id, 10)
}

// do performs a single request. out may be nil when the response body is
// not needed; an empty body is accepted for out as well.
func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
