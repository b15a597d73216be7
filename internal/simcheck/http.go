package simcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/matchsim/internal/adapters/repository"
	service "github.com/okian/matchsim/internal/app"
	"github.com/okian/matchsim/internal/domain/model"
)

// ErrRoundTimeout is returned when a round does not complete in time.
var ErrRoundTimeout = errors.New("round did not complete in time")

// HTTPClient wraps http.Client with the service base URL
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a request and decodes a JSON response into out when the status
// is want.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, want int) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// health checks GET /healthz.
func (c *HTTPClient) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

// submitRound posts a round and returns its accepted status.
func (c *HTTPClient) submitRound(ctx context.Context, req service.RoundRequest) (service.RoundStatus, error) {
	var status service.RoundStatus
	err := c.do(ctx, http.MethodPost, "/api/v1/rounds", req, &status, http.StatusAccepted)
	return status, err
}

// round fetches the progress of a submitted round.
func (c *HTTPClient) round(ctx context.Context, id string) (service.RoundStatus, error) {
	var status service.RoundStatus
	err := c.do(ctx, http.MethodGet, "/api/v1/rounds/"+id, nil, &status, http.StatusOK)
	return status, err
}

// waitForRound polls a round until it leaves the pending state.
func (c *HTTPClient) waitForRound(ctx context.Context, id string, interval, timeout time.Duration) (service.RoundStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		status, err := c.round(ctx, id)
		if err != nil {
			return service.RoundStatus{}, err
		}
		if status.Status != service.RoundPending {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return status, fmt.Errorf("round %s: %w", id, ErrRoundTimeout)
		case <-ticker.C:
		}
	}
}

// result fetches a stored match result.
func (c *HTTPClient) result(ctx context.Context, matchID string) (model.MatchResult, error) {
	var res model.MatchResult
	err := c.do(ctx, http.MethodGet, "/api/v1/matches/"+matchID, nil, &res, http.StatusOK)
	return res, err
}

// simulate plays one match synchronously.
func (c *HTTPClient) simulate(ctx context.Context, req service.MatchRequest) (model.MatchResult, error) {
	var resp simulateResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/matches", req, &resp, http.StatusOK)
	return resp.Result, err
}

// ladder fetches the top n standings.
func (c *HTTPClient) ladder(ctx context.Context, n int) ([]repository.Standing, error) {
	var standings []repository.Standing
	err := c.do(ctx, http.MethodGet, "/api/v1/ladder?limit="+strconv.Itoa(n), nil, &standings, http.StatusOK)
	return standings, err
}
