package openfda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/inventory-management/internal/metrics"
)

const maxBodyBytes = 16 << 20

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client performs single-attempt requests against the UDI endpoint.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Search(ctx context.Context, q Query) (*Page, error) {
	q = q.Normalize()

	params := url.Values{}
	params.Set("search", q.Search)
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("skip", strconv.Itoa(q.Skip))
	endpoint := c.baseURL + udiPath + "?" + params.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create openFDA request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream("openfda", "error", start)
		return nil, fmt.Errorf("openFDA request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.ObserveUpstream("openfda", "error", start)
		return nil, fmt.Errorf("failed to read openFDA response: %w", err)
	}

	c.logger.Debug("openFDA search",
		"search", q.Search,
		"limit", q.Limit,
		"skip", q.Skip,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.ObserveUpstream("openfda", "empty", start)
		return &Page{Results: []Record{}}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.ObserveUpstream("openfda", "upstream_error", start)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}

	page, err := decodePage(body)
	if err != nil {
		metrics.ObserveUpstream("openfda", "unexpected", start)
		return nil, err
	}
	metrics.ObserveUpstream("openfda", "ok", start)
	return page, nil
}

func upstreamMessage(body []byte) string {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
