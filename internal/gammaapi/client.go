package gammaapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/liamashdown/resolvewatch/internal/config"
	"github.com/liamashdown/resolvewatch/internal/metrics"
	"github.com/liamashdown/resolvewatch/internal/ratelimit"
)

// ErrNotFound is returned when Gamma has no market for the requested key
var ErrNotFound = errors.New("gamma market not found")

// Client handles communication with the Polymarket Gamma API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewClient creates a new Gamma API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.GammaAPIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    ratelimit.New(cfg.GammaAPIRPS, 1),
	}
}

// GetMarketByID fetches market details by Gamma market ID
func (c *Client) GetMarketByID(ctx context.Context, id string) (*Market, error) {
	start := time.Now()
	m, err := c.getMarket(ctx, "/markets/"+url.PathEscape(id))
	metrics.RecordAPIRequest("gamma", "/markets/{id}", time.Since(start), err)
	return m, err
}

// GetMarketBySlug fetches market details by slug
func (c *Client) GetMarketBySlug(ctx context.Context, slug string) (*Market, error) {
	start := time.Now()
	m, err := c.getMarket(ctx, "/markets/slug/"+url.PathEscape(slug))
	metrics.RecordAPIRequest("gamma", "/markets/slug/{slug}", time.Since(start), err)
	return m, err
}

func (c *Client) getMarket(ctx context.Context, path string) (*Market, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Gamma API is public, no auth headers needed
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var market Market
	if err := json.NewDecoder(resp.Body).Decode(&market); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if market.ID == "" {
		return nil, ErrNotFound
	}

	return &market, nil
}
