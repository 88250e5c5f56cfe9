package gist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/client/client"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub serves one gist from memory.
type fakeGitHub struct {
	mu        sync.Mutex
	files     map[string]string
	truncated map[string]bool
	auth      []string
	gets      int
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *httptest.Server) {
	t.Helper()
	f := &fakeGitHub{files: map[string]string{}, truncated: map[string]bool{}}
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/gists/abc", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))

		switch r.Method {
		case http.MethodGet:
			f.gets++
			files := map[string]map[string]any{}
			for name, content := range f.files {
				entry := map[string]any{"filename": name, "content": content}
				if f.truncated[name] {
					entry["content"] = content[:len(content)/2]
					entry["truncated"] = true
					entry["raw_url"] = srv.URL + "/raw/" + name
				}
				files[name] = entry
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "abc", "updated_at": time.Now(), "files": files})
		case http.MethodPatch:
			var body struct {
				Files map[string]struct {
					Content string `json:"content"`
				} `json:"files"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			for name, file := range body.Files {
				f.files[name] = file.Content
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":"abc"}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/raw/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := r.URL.Path[len("/raw/"):]
		_, _ = w.Write([]byte(f.files[name]))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func sample() *models.Dataset {
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	ds := models.NewDataset()
	ds.Resources = []models.Resource{{ID: "r1", Title: "Go blog"}}
	ds.Questions = []models.Question{{ID: "q1", ResourceID: "r1", Title: "What is iota?"}}
	ds.Answers = []models.Answer{{ID: "a1", QuestionID: "q1", Content: "A counter", UpdatedAt: &ts}}
	ds.Metadata.LastSync = &ts
	return ds
}

func TestPushThenFetch(t *testing.T) {
	gh, srv := newFakeGitHub(t)
	c := New(Config{BaseURL: srv.URL, GistID: "abc", Token: "secret"})
	ctx := context.Background()

	require.NoError(t, c.PushDataset(ctx, sample()))
	assert.Contains(t, gh.files, DatasetFile)
	assert.Contains(t, gh.files, StatsFile)

	got, err := c.FetchDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample().Resources, got.Resources)
	assert.Equal(t, "A counter", got.Answers[0].Content)

	stats, err := c.FetchStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Resources)
	assert.Equal(t, 1, stats.Answers)
	require.NotNil(t, stats.LastModified)
	assert.True(t, sample().Metadata.LastSync.Equal(*stats.LastModified))

	for _, h := range gh.auth {
		assert.Equal(t, "Bearer secret", h)
	}
}

func TestFetchStatistics_FallsBackToDataset(t *testing.T) {
	gh, srv := newFakeGitHub(t)
	raw, err := models.EncodeDataset(sample())
	require.NoError(t, err)
	gh.files[DatasetFile] = string(raw)

	stats, err := New(Config{BaseURL: srv.URL, GistID: "abc"}).FetchStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Resources)
	assert.Equal(t, 1, stats.Questions)
	assert.Zero(t, stats.SubQuestions)
	assert.Equal(t, 1, stats.Answers)
	require.NotNil(t, stats.LastModified)
	assert.True(t, sample().Metadata.LastSync.Equal(*stats.LastModified))
}

func TestFetchDataset_FollowsRawURLWhenTruncated(t *testing.T) {
	gh, srv := newFakeGitHub(t)
	raw, err := models.EncodeDataset(sample())
	require.NoError(t, err)
	gh.files[DatasetFile] = string(raw)
	gh.truncated[DatasetFile] = true

	got, err := New(Config{BaseURL: srv.URL, GistID: "abc"}).FetchDataset(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Questions, 1)
}

func TestFetchDataset_MissingFileIsNotFound(t *testing.T) {
	_, srv := newFakeGitHub(t)

	_, err := New(Config{BaseURL: srv.URL, GistID: "abc"}).FetchDataset(context.Background())
	require.ErrorIs(t, err, client.ErrNotFound)
}

func TestFetchDataset_InvalidDatasetRejected(t *testing.T) {
	gh, srv := newFakeGitHub(t)
	gh.files[DatasetFile] = `{"resources":[],"questions":[]}`

	_, err := New(Config{BaseURL: srv.URL, GistID: "abc"}).FetchDataset(context.Background())
	require.ErrorIs(t, err, common.ErrInvalidDataset)
	assert.False(t, client.IsRetryable(err))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		remaining string
		want      error
	}{
		{name: "not found", status: http.StatusNotFound, want: client.ErrNotFound},
		{name: "unauthorized", status: http.StatusUnauthorized, want: client.ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, remaining: "12", want: client.ErrUnauthorized},
		{name: "rate limited 403", status: http.StatusForbidden, remaining: "0", want: client.ErrRateLimited},
		{name: "rate limited 429", status: http.StatusTooManyRequests, want: client.ErrRateLimited},
		{name: "server error", status: http.StatusBadGateway, want: client.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.remaining != "" {
					w.Header().Set("X-RateLimit-Remaining", tt.remaining)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := New(Config{BaseURL: srv.URL, GistID: "abc"})
			_, err := c.FetchDataset(context.Background())
			require.ErrorIs(t, err, tt.want)

			err = c.PushDataset(context.Background(), sample())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNetworkFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(Config{BaseURL: url, GistID: "abc", Timeout: time.Second}).FetchStatistics(context.Background())
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.True(t, client.IsRetryable(err))
}

func TestCancelledContextIsNotRetryable(t *testing.T) {
	_, srv := newFakeGitHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{BaseURL: srv.URL, GistID: "abc"}).FetchDataset(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, client.IsRetryable(err))
}

func TestName(t *testing.T) {
	assert.Equal(t, "gist", New(Config{}).Name())
	assert.Equal(t, DefaultBaseURL, New(Config{}).baseURL)
	assert.Equal(t, "http://x", New(Config{BaseURL: "http://x/"}).baseURL)
}

