package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// ErrIssueNotFound is returned when the issue number does not exist in the
// configured repository.
var ErrIssueNotFound = errors.New("issue not found")

// Issue is the subset of the issue payload the reviewer needs.
type Issue struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

// Config configures the GitHub API client. The token is read from the
// environment variable named by TokenEnv.
type Config struct {
	Owner    string
	Repo     string
	TokenEnv string
	BaseURL  string
	Timeout  time.Duration
}

// Client is a minimal GitHub issues API client with retry on transient
// failures.
type Client struct {
	baseURL    string
	owner      string
	repo       string
	token      string
	client     *http.Client
	maxRetries int
	logger     *zap.Logger
}

// NewClient creates the client from config.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("github owner and repo are required")
	}
	if cfg.TokenEnv == "" {
		cfg.TokenEnv = "GITHUB_TOKEN"
	}
	token := os.Getenv(cfg.TokenEnv)
	if token == "" {
		return nil, fmt.Errorf("missing GitHub token in env %s", cfg.TokenEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		token:      token,
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: 2,
		logger:     logger,
	}, nil
}

// FetchIssue retrieves one issue. 404 maps to ErrIssueNotFound; 5xx and
// network errors are retried with exponential backoff.
func (c *Client) FetchIssue(ctx context.Context, number int) (*Issue, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d", c.baseURL, c.owner, c.repo, number)
	payload, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	var issue Issue
	if err := json.Unmarshal(payload, &issue); err != nil {
		return nil, fmt.Errorf("decode issue: %w", err)
	}
	return &issue, nil
}

// PostComment adds a comment to the issue.
func (c *Client) PostComment(ctx context.Context, number int, body string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, c.owner, c.repo, number)
	req := struct {
		Body string `json:"body"`
	}{Body: body}
	if _, err := c.do(ctx, http.MethodPost, url, req); err != nil {
		return err
	}
	c.logger.Info("posted review comment", zap.Int("issue", number))
	return nil
}

// AddLabels applies labels to the issue.
func (c *Client) AddLabels(ctx context.Context, number int, labels []string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/labels", c.baseURL, c.owner, c.repo, number)
	req := struct {
		Labels []string `json:"labels"`
	}{Labels: labels}
	if _, err := c.do(ctx, http.MethodPost, url, req); err != nil {
		return err
	}
	c.logger.Info("applied labels", zap.Int("issue", number), zap.Strings("labels", labels))
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, body any) ([]byte, error) {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt - 1)
			c.logger.Warn("retrying GitHub request",
				zap.String("url", url), zap.Duration("delay", delay), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var reader io.Reader
		if data != nil {
			reader = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "token "+c.token)
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		req.Header.Set("User-Agent", "issue-reviewer")
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%s: %w", url, ErrIssueNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("github request failed: %s", resp.Status)
			continue
		case resp.StatusCode >= 300:
			return nil, fmt.Errorf("github request failed: %s", resp.Status)
		}
		return payload, nil
	}
	return nil, lastErr
}

func retryDelay(attempt int) time.Duration {
	d := time.Second << attempt
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d
}
