// Package gist stores the dataset in a GitHub Gist through the REST API.
//
// The gist holds two files: the dataset itself and a small statistics
// document rewritten on every push, so a statistics check can skip decoding
// the full dataset.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/client/client"
	"github.com/dmitrijs2005/gistkeeper/internal/client/comparator"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
)

const (
	DefaultBaseURL = "https://api.github.com"
	DatasetFile    = "knowledge-base.json"
	StatsFile      = "knowledge-base.stats.json"

	apiVersion = "2022-11-28"
)

type Config struct {
	BaseURL string
	GistID  string
	Token   string
	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client implements client.Remote.
type Client struct {
	http    *http.Client
	baseURL string
	gistID  string
	token   string
}

var _ client.Remote = (*Client)(nil)

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(base, "/"),
		gistID:  cfg.GistID,
		token:   cfg.Token,
	}
}

func (c *Client) Name() string { return "gist" }

type gistFile struct {
	Filename  string `json:"filename,omitempty"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

type gistDoc struct {
	ID        string               `json:"id"`
	UpdatedAt time.Time            `json:"updated_at"`
	Files     map[string]*gistFile `json:"files"`
}

func (c *Client) FetchDataset(ctx context.Context) (*models.Dataset, error) {
	g, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := c.content(ctx, g, DatasetFile)
	if err != nil {
		return nil, err
	}
	return models.DecodeDataset(raw)
}

// FetchStatistics reads the statistics file and falls back to the dataset
// when a push from an older client left none.
func (c *Client) FetchStatistics(ctx context.Context) (*models.Statistics, error) {
	g, err := c.get(ctx)
	if err != nil {
		return nil, err
	}

	if _, ok := g.Files[StatsFile]; ok {
		raw, err := c.content(ctx, g, StatsFile)
		if err != nil {
			return nil, err
		}
		var s models.Statistics
		if err := json.Unmarshal(raw, &s); err == nil {
			return &s, nil
		}
	}

	raw, err := c.content(ctx, g, DatasetFile)
	if err != nil {
		return nil, err
	}
	ds, err := models.DecodeDataset(raw)
	if err != nil {
		return nil, err
	}
	s := comparator.Statistics(ds)
	return &s, nil
}

func (c *Client) PushDataset(ctx context.Context, ds *models.Dataset) error {
	data, err := models.EncodeDataset(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	stats, err := json.Marshal(comparator.Statistics(ds))
	if err != nil {
		return fmt.Errorf("encode statistics: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"files": map[string]gistFile{
			DatasetFile: {Content: string(data)},
			StatsFile:   {Content: string(stats)},
		},
	})
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPatch, c.gistURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) gistURL() string {
	return c.baseURL + "/gists/" + c.gistID
}

func (c *Client) get(ctx context.Context) (*gistDoc, error) {
	resp, err := c.do(ctx, http.MethodGet, c.gistURL(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var g gistDoc
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return nil, fmt.Errorf("%w: decode gist: %v", client.ErrUnavailable, err)
	}
	return &g, nil
}

// content returns the text of a gist file, following raw_url for files the
// API truncated. A missing file is client.ErrNotFound.
func (c *Client) content(ctx context.Context, g *gistDoc, name string) ([]byte, error) {
	f, ok := g.Files[name]
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: gist %s has no file %s", client.ErrNotFound, c.gistID, name)
	}
	if !f.Truncated {
		return []byte(f.Content), nil
	}

	resp, err := c.do(ctx, http.MethodGet, f.RawURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", client.ErrUnavailable, name, err)
	}
	return b, nil
}

// do sends an authenticated request and maps failures onto client errors.
// On success the caller owns the response body.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", client.ErrUnavailable, err)
	}

	if err := statusError(resp); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", client.ErrNotFound, resp.Status)
	case code == http.StatusTooManyRequests,
		code == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return fmt.Errorf("%w: %s", client.ErrRateLimited, resp.Status)
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", client.ErrUnauthorized, resp.Status)
	case code >= 500:
		return fmt.Errorf("%w: %s", client.ErrUnavailable, resp.Status)
	}
	return fmt.Errorf("gist: unexpected status %s", resp.Status)
}
