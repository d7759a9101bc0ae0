package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/econicmedia/bot-sub001/internal/api"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

// Snapshot is one poll of the bot API.
type Snapshot struct {
	Status    types.TradingStatus
	Positions []types.Position
	Prices    []types.PriceTick
	TakenAt   time.Time
}

// Client reads the bot HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the API at baseURL, e.g. "http://localhost:8080".
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout}, //nolint:exhaustruct
	}
}

// BaseURL returns the normalized API address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Snapshot fetches status, positions and prices concurrently.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	var snapshot Snapshot

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.do(ctx, http.MethodGet, "/api/v1/status", &snapshot.Status) })
	g.Go(func() error { return c.do(ctx, http.MethodGet, "/api/v1/positions", &snapshot.Positions) })
	g.Go(func() error { return c.do(ctx, http.MethodGet, "/api/v1/prices", &snapshot.Prices) })

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snapshot.TakenAt = time.Now()

	return snapshot, nil
}

// Start asks the bot to start its engine.
func (c *Client) Start(ctx context.Context) (types.TradingStatus, error) {
	var status types.TradingStatus

	err := c.do(ctx, http.MethodPost, "/api/v1/trading/start", &status)

	return status, err
}

// Stop asks the bot to stop its engine.
func (c *Client) Stop(ctx context.Context) (types.TradingStatus, error) {
	var status types.TradingStatus

	err := c.do(ctx, http.MethodPost, "/api/v1/trading/stop", &status)

	return status, err
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, "invalid API address", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeExchangeUnavailable, err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			return errors.Newf(errors.ErrCodeInternal, "%s %s returned %s", method, path, resp.Status)
		}

		return errors.New(apiErr.Code, apiErr.Message)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(errors.ErrCodeInternal, err, "failed to decode %s", path)
	}

	return nil
}
