// Package github lists open pull requests through the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// Ensure Client implements domain.PullRequestLister interface.
var _ domain.PullRequestLister = (*Client)(nil)

// Client lists pull requests. Failures are logged and yield an empty list.
type Client struct {
	client  *http.Client
	logger  domain.Logger
	baseURL string
}

// pullRequest is the subset of the API response that is used.
type pullRequest struct {
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	Head    struct {
		Ref string `json:"ref"`
	} `json:"head"`
	Number int `json:"number"`
}

// NewClient creates a Client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, logger domain.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Client{
		baseURL: baseURL,
		logger:  logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ListOpenRequests returns up to 20 open pull requests of owner/repo.
// An empty token sends an anonymous request.
func (c *Client) ListOpenRequests(ctx context.Context, owner, repo, token string) []domain.PullRequest {
	prs, err := c.list(ctx, owner, repo, token)
	if err != nil {
		c.logger.Warn("github", fmt.Sprintf("list pull requests for %s/%s: %v", owner, repo, err))
		return []domain.PullRequest{}
	}
	return prs
}

func (c *Client) list(ctx context.Context, owner, repo, token string) ([]domain.PullRequest, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/pulls?state=open&per_page=20",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var raw []pullRequest
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	prs := make([]domain.PullRequest, 0, len(raw))
	for _, pr := range raw {
		prs = append(prs, domain.PullRequest{
			Number:  pr.Number,
			Title:   pr.Title,
			URL:     pr.HTMLURL,
			HeadRef: pr.Head.Ref,
		})
	}
	return prs, nil
}
