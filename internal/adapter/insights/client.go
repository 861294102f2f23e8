// Package insights provides an HTTP client for the insights API: the
// per-project email directory and the per-project delivery report.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Strob0t/dailyreport/internal/domain/report"
	"github.com/Strob0t/dailyreport/internal/logger"
	"github.com/Strob0t/dailyreport/internal/resilience"
)

const (
	emailsPath = "/insights/emails"
	reportPath = "/insights/report"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 64 << 20
)

// Client talks to the insights API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
	logger     *slog.Logger
}

// NewClient creates an insights client. A zero timeout leaves requests unbounded.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: log,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetBreaker attaches a circuit breaker to all outgoing calls. Transport
// errors and 5xx responses count as failures; 4xx responses do not.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type emailsResponse struct {
	Emails *orderedmap.OrderedMap[string, json.RawMessage] `json:"emails"`
}

// FetchRecipients returns the project → recipients directory for adminID, in
// response order. Any failure is logged and yields an empty directory; only a
// cancelled context is returned as an error.
func (c *Client) FetchRecipients(ctx context.Context, adminID report.AdminID) (report.Directory, error) {
	log := logger.FromContext(ctx, c.logger).With("admin_id", string(adminID))

	endpoint := c.baseURL + emailsPath + "?adminId=" + url.QueryEscape(string(adminID))
	status, body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("failed to fetch emails", "error", err)
		return report.Directory{}, nil
	}
	if status >= http.StatusBadRequest {
		log.Warn("failed to fetch emails", "status", status)
		return report.Directory{}, nil
	}

	var resp emailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Warn("failed to decode emails response", "error", err)
		return report.Directory{}, nil
	}
	if resp.Emails == nil {
		log.Warn("emails response has no emails field")
		return report.Directory{}, nil
	}

	dir := make(report.Directory, 0, resp.Emails.Len())
	for pair := resp.Emails.Oldest(); pair != nil; pair = pair.Next() {
		dir = append(dir, report.Entry{
			Project:    pair.Key,
			Recipients: report.NewRecipients(pair.Value),
		})
	}
	return dir, nil
}

type reportFilters struct {
	AdminID string `json:"adminId"`
	Project string `json:"project"`
}

type reportRequest struct {
	Filters reportFilters `json:"filters"`
}

type reportResponse struct {
	Boxes []*orderedmap.OrderedMap[string, json.RawMessage] `json:"boxes"`
}

// FetchReport requests the report rows for (adminID, project). A failed
// request is logged and reported as ok=false; only a cancelled context is
// returned as an error.
func (c *Client) FetchReport(ctx context.Context, adminID report.AdminID, project string) (report.Table, bool, error) {
	log := logger.FromContext(ctx, c.logger).With("admin_id", string(adminID), "project", project)

	payload, err := json.Marshal(reportRequest{Filters: reportFilters{AdminID: string(adminID), Project: project}})
	if err != nil {
		return report.Table{}, false, fmt.Errorf("marshal report request: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, c.baseURL+reportPath, payload)
	if err != nil {
		if ctx.Err() != nil {
			return report.Table{}, false, ctx.Err()
		}
		log.Warn("failed to fetch report", "error", err)
		return report.Table{}, false, nil
	}
	if status >= http.StatusBadRequest {
		log.Warn("failed to fetch report", "status", status)
		return report.Table{}, false, nil
	}

	var resp reportResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Warn("failed to decode report response", "error", err)
		return report.Table{}, false, nil
	}
	if resp.Boxes == nil {
		log.Warn("report response has no boxes field")
		return report.Table{}, false, nil
	}

	table := report.Table{Rows: make([]report.Row, 0, len(resp.Boxes))}
	for _, box := range resp.Boxes {
		table.Rows = append(table.Rows, toRow(box))
	}
	return table, true, nil
}

func toRow(m *orderedmap.OrderedMap[string, json.RawMessage]) report.Row {
	if m == nil {
		return report.Row{}
	}
	row := make(report.Row, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		row = append(row, report.Field{Key: pair.Key, Value: pair.Value})
	}
	return row
}

var errServerStatus = errors.New("server error status")

// do sends one request through the breaker and returns the status code and body.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	var (
		status int
		data   []byte
	)
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		status, data, err = c.send(ctx, method, endpoint, body)
		if err != nil {
			return err
		}
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %d", errServerStatus, status)
		}
		return nil
	})
	if errors.Is(err, errServerStatus) {
		return status, data, nil
	}
	return status, data, err
}

// send performs one HTTP exchange.
func (c *Client) send(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Authorization", c.apiKey)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // base URL from trusted config
	if err != nil {
		return 0, nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}
