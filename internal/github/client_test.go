package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	t.Setenv("TEST_GITHUB_TOKEN", "secret-token")
	c, err := NewClient(Config{
		Owner:    "octocat",
		Repo:     "hello-world",
		TokenEnv: "TEST_GITHUB_TOKEN",
		BaseURL:  baseURL,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	t.Setenv("TEST_GITHUB_TOKEN", "x")
	_, err := NewClient(Config{Repo: "r", TokenEnv: "TEST_GITHUB_TOKEN"}, nil)
	assert.Error(t, err)

	t.Setenv("EMPTY_TOKEN", "")
	_, err = NewClient(Config{Owner: "o", Repo: "r", TokenEnv: "EMPTY_TOKEN"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMPTY_TOKEN")
}

func TestFetchIssue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/hello-world/issues/42", r.URL.Path)
		assert.Equal(t, "token secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		_ = json.NewEncoder(w).Encode(Issue{
			Number: 42,
			Title:  "Fix token expiry validation",
			Body:   "Expired tokens are accepted.",
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	issue, err := c.FetchIssue(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, issue.Number)
	assert.Equal(t, "Fix token expiry validation", issue.Title)
}

func TestFetchIssue_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.FetchIssue(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrIssueNotFound)
}

func TestFetchIssue_RetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "oops", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(Issue{Number: 7, Title: "flaky"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	issue, err := c.FetchIssue(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "flaky", issue.Title)
}

func TestFetchIssue_GivesUpAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.FetchIssue(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestPostComment(t *testing.T) {
	var got struct {
		Body string `json:"body"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/octocat/hello-world/issues/5/comments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.PostComment(context.Background(), 5, "## Review\nlooks fine"))
	assert.Equal(t, "## Review\nlooks fine", got.Body)
}

func TestAddLabels(t *testing.T) {
	var got struct {
		Labels []string `json:"labels"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/hello-world/issues/5/labels", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.AddLabels(context.Background(), 5, []string{"intermediate"}))
	assert.Equal(t, []string{"intermediate"}, got.Labels)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchIssue(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
