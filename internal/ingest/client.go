// Package ingest fetches weekly storage and capacity series from the EIA
// v2 API and lands them as raw bronze rows.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"eiasa/internal/config"
	"eiasa/internal/normalize"
)

// DefaultRegions are the five lower-48 storage regions reported weekly.
var DefaultRegions = []string{"R10", "R20", "R30", "R40", "R50"}

const (
	weeklyEndpoint   = "natural-gas/stor/wkly/data"
	capacityEndpoint = "natural-gas/stor/cap"
	pageLength       = 5000
)

// Client is a rate-limited EIA v2 API client with retry and backoff.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxRetries   int
	retryBackoff time.Duration
	logger       *slog.Logger
}

// NewClient builds a Client from configuration. A nil logger falls back to
// the slog default.
func NewClient(cfg config.EIAConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       logger,
	}
}

// FetchWeeklyStorage retrieves weekly working gas observations for the given
// regions between start and end inclusive. A region whose request fails is
// logged and skipped so one bad region does not sink the whole fetch.
func (c *Client) FetchWeeklyStorage(ctx context.Context, start, end time.Time, regions []string) ([]normalize.RawRow, error) {
	if len(regions) == 0 {
		regions = DefaultRegions
	}

	var rows []normalize.RawRow
	for _, region := range regions {
		params := url.Values{}
		params.Set("frequency", "weekly")
		params.Set("data[0]", "value")
		params.Set("facets[duoarea][]", region)
		params.Set("start", start.Format("2006-01-02"))
		params.Set("end", end.Format("2006-01-02"))
		params.Set("sort[0][column]", "period")
		params.Set("sort[0][direction]", "desc")
		params.Set("offset", "0")
		params.Set("length", strconv.Itoa(pageLength))

		regionRows, err := c.get(ctx, weeklyEndpoint, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.WarnContext(ctx, "weekly storage fetch failed for region",
				slog.String("region", region), slog.String("error", err.Error()))
			continue
		}
		c.logger.InfoContext(ctx, "retrieved weekly storage records",
			slog.String("region", region), slog.Int("count", len(regionRows)))
		rows = append(rows, regionRows...)
	}

	if len(rows) == 0 {
		c.logger.WarnContext(ctx, "no weekly storage data retrieved")
	}
	return rows, nil
}

// FetchCapacity retrieves the annual storage capacity series for a year.
func (c *Client) FetchCapacity(ctx context.Context, year int) ([]normalize.RawRow, error) {
	params := url.Values{}
	params.Set("frequency", "annual")
	params.Set("data[0]", "value")
	params.Set("facets[year][]", strconv.Itoa(year))
	params.Set("sort[0][column]", "period")
	params.Set("sort[0][direction]", "desc")
	params.Set("offset", "0")
	params.Set("length", "1000")

	rows, err := c.get(ctx, capacityEndpoint, params)
	if err != nil {
		return nil, fmt.Errorf("fetch capacity data: %w", err)
	}
	c.logger.InfoContext(ctx, "retrieved capacity records",
		slog.Int("year", year), slog.Int("count", len(rows)))
	return rows, nil
}

// apiEnvelope mirrors the EIA v2 response wrapper.
type apiEnvelope struct {
	Response struct {
		Data []map[string]interface{} `json:"data"`
	} `json:"response"`
}

// get performs one rate-limited request with retries on 429 and 5xx.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]normalize.RawRow, error) {
	params.Set("api_key", c.apiKey)
	requestURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	var lastErr error
	backoff := c.retryBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		rows, retryable, err := c.doRequest(ctx, endpoint, requestURL)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		c.logger.WarnContext(ctx, "retrying EIA request",
			slog.String("endpoint", endpoint),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}
	return nil, fmt.Errorf("request %s after %d attempts: %w", endpoint, c.maxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, endpoint, requestURL string) (rows []normalize.RawRow, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "EIA API response",
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("status %d", resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var envelope apiEnvelope
	if err := decoder.Decode(&envelope); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}

	rows = make([]normalize.RawRow, 0, len(envelope.Response.Data))
	for _, record := range envelope.Response.Data {
		row := make(normalize.RawRow, len(record))
		for key, value := range record {
			row[key] = stringifyField(value)
		}
		rows = append(rows, row)
	}
	return rows, false, nil
}

// stringifyField flattens a decoded JSON value into the raw cell format.
func stringifyField(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
