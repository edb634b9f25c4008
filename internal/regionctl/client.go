package regionctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/edvin/multiregion/internal/model"
	"github.com/edvin/multiregion/internal/replay"
)

// Client talks to a running server. It never follows replay directives, so
// callers see the answer of the region they reached.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       json.RawMessage
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       json.RawMessage(respBody),
	}, nil
}

// Status fetches /regionz.
func (c *Client) Status(ctx context.Context) (*model.RegionStatus, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/regionz", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET /regionz: status %d: %s", resp.StatusCode, string(resp.Body))
	}

	var st model.RegionStatus
	if err := json.Unmarshal(resp.Body, &st); err != nil {
		return nil, fmt.Errorf("parse region status: %w", err)
	}
	return &st, nil
}

// ProbeResult is what a single request told us about routing.
type ProbeResult struct {
	StatusCode int
	// Directive is nil when the server handled the request itself.
	Directive *replay.Directive
}

// Probe sends one request and reports whether the server asked for it to be
// replayed elsewhere.
func (c *Client) Probe(ctx context.Context, method, path string, body io.Reader) (*ProbeResult, error) {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	res := &ProbeResult{StatusCode: resp.StatusCode}
	if v := resp.Header.Get(replay.HeaderName); v != "" {
		d, err := replay.ParseDirective(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s header: %w", replay.HeaderName, err)
		}
		res.Directive = &d
	}
	return res, nil
}
