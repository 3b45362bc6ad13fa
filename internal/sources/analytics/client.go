// Package analytics is the HTTP client for the remote analytical
// warehouse. It submits a query string and receives row-sets; large
// result sets are fetched in limit/offset chunks to stay inside the
// warehouse's per-query limits.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/learner-analytics/backend/internal/metrics"
	"github.com/learner-analytics/backend/pkg/circuitbreaker"
	"github.com/learner-analytics/backend/pkg/logger"
	"github.com/learner-analytics/backend/pkg/retry"
)

type Client struct {
	endpoint   string
	apiKey     string
	chunkSize  int
	httpClient *http.Client
	retryCfg   retry.Config
	breaker    *circuitbreaker.CircuitBreaker
}

// Row is one result row; values arrive as strings and are parsed
// tolerantly by the adapters.
type Row map[string]string

func NewClient(endpoint, apiKey string, chunkSize, timeoutSec, maxRetries int) *Client {
	if chunkSize <= 0 {
		chunkSize = 10000
	}
	if timeoutSec <= 0 {
		timeoutSec = 120
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = maxRetries
	retryCfg.Logger = logger.Log

	return &Client{
		endpoint:  endpoint,
		apiKey:    apiKey,
		chunkSize: chunkSize,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		retryCfg: retryCfg,
		breaker: circuitbreaker.New("analytics-warehouse", circuitbreaker.Config{
			FailureThreshold: 3,
			Timeout:          2 * time.Minute,
			Logger:           logger.Log,
		}),
	}
}

// Query fetches all rows for the statement, chunk by chunk. A chunk
// returning fewer rows than the chunk size ends the scan.
func (c *Client) Query(ctx context.Context, query string) ([]Row, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("analytics endpoint not configured")
	}

	var all []Row
	offset := 0

	for {
		chunkQuery := fmt.Sprintf("%s LIMIT %d OFFSET %d", query, c.chunkSize, offset)

		rows, err := retry.DoWithResult(ctx, c.retryCfg, func() ([]Row, error) {
			var chunk []Row
			err := c.breaker.Execute(ctx, func() error {
				var execErr error
				chunk, execErr = c.execute(ctx, chunkQuery)
				return execErr
			})
			return chunk, err
		})
		if err != nil {
			metrics.WarehouseQueries.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to fetch chunk at offset %d: %w", offset, err)
		}
		metrics.WarehouseQueries.WithLabelValues("ok").Inc()

		all = append(all, rows...)

		if len(rows) < c.chunkSize {
			break
		}
		offset += c.chunkSize
	}

	logger.Debug("Warehouse query complete",
		zap.Int("rows", len(all)),
		zap.Int("chunks", offset/c.chunkSize+1),
	)

	return all, nil
}

func (c *Client) execute(ctx context.Context, query string) ([]Row, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("warehouse returned status %d: %s", resp.StatusCode, string(body))
	}

	var queryResp struct {
		Rows []Row `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return queryResp.Rows, nil
}
