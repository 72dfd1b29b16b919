package productplan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"idea-relay/internal/domain"
)

// ideaRequest is the body for POST /v2/discovery/ideas.
type ideaRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Customer    string `json:"customer"`
	SourceName  string `json:"source_name"`
	SourceEmail string `json:"source_email"`
}

type ideaResponse struct {
	ID int64 `json:"id"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("productplan: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client submits ideas to the ProductPlan discovery API.
type Client struct {
	baseURL    string
	appURL     string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAppURL sets the web application base used for idea links.
func WithAppURL(appURL string) Option {
	return func(c *Client) {
		c.appURL = strings.TrimRight(strings.TrimSpace(appURL), "/")
	}
}

func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("productplan: base url must not be empty")
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("productplan: api token must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		appURL:     "https://app.productplan.com",
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SubmitIdea creates a discovery idea and returns its numeric identifier.
func (c *Client) SubmitIdea(ctx context.Context, idea domain.Idea) (int64, error) {
	body, err := json.Marshal(ideaRequest{
		Name:        idea.Name,
		Description: idea.Description,
		Customer:    idea.Customer,
		SourceName:  idea.SourceName,
		SourceEmail: idea.SourceEmail,
	})
	if err != nil {
		return 0, fmt.Errorf("productplan: marshal idea: %w", err)
	}

	endpoint := c.baseURL + "/v2/discovery/ideas"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("productplan: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("productplan: submit idea: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return 0, &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint, Body: string(buf)}
	}

	var out ideaResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&out); err != nil {
		return 0, fmt.Errorf("productplan: decode response: %w", err)
	}
	return out.ID, nil
}

// IdeaURL returns the web link for a submitted idea.
func (c *Client) IdeaURL(id int64) string {
	return c.appURL + "/discovery/ideas/" + url.PathEscape(strconv.FormatInt(id, 10))
}
