package polygon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"
	drepo "TopMover/internal/domain/repository"
	"TopMover/internal/service/ratelimit"
	xhttp "TopMover/pkg/http"
	"TopMover/pkg/logger"
	"TopMover/pkg/util"
)

const (
	endpointAggregates = "aggregates"
	endpointOpenClose  = "open_close"
)

// Client implements MarketDataClient against the Polygon-compatible REST API.
// Calls are paced but never retried.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
	pacer   *ratelimit.Pacer
	log     *logger.Logger
	metrics drepo.Metrics
}

// New creates a provider client. A nil pacer disables pacing.
func New(baseURL, apiKey string, hc *xhttp.Client, pacer *ratelimit.Pacer, log *logger.Logger, metrics drepo.Metrics) *Client {
	if hc == nil {
		hc = xhttp.NewClient()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    hc,
		pacer:   pacer,
		log:     log,
		metrics: metrics,
	}
}

type aggResult struct {
	O *float64 `json:"o"`
	C *float64 `json:"c"`
	T *int64   `json:"t"` // ms, UTC
}

type aggResponse struct {
	Status  string      `json:"status"`
	Error   string      `json:"error"`
	Results []aggResult `json:"results"`
}

type openCloseResponse struct {
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	Open       *float64 `json:"open"`
	Close      *float64 `json:"close"`
	OpenShort  *float64 `json:"o"`
	CloseShort *float64 `json:"c"`
}

// FetchAggregateRange returns daily bars for ticker in [startDate, endDate], ascending.
func (c *Client) FetchAggregateRange(ctx context.Context, ticker, startDate, endDate string) ([]models.Bar, error) {
	u := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s",
		c.baseURL, url.PathEscape(ticker), startDate, endDate)

	var resp aggResponse
	err := c.get(ctx, endpointAggregates, u, map[string][]string{
		"adjusted": {"true"},
		"sort":     {"asc"},
		"limit":    {"5000"},
	}, &resp)
	if err != nil {
		return nil, c.mapError(endpointAggregates, ticker, "", err)
	}

	switch strings.ToUpper(resp.Status) {
	case "OK", "DELAYED":
	case "NOT_FOUND":
		c.record(endpointAggregates, "not_found")
		return nil, &errs.NotFoundError{Ticker: ticker}
	default:
		c.record(endpointAggregates, "error")
		return nil, &errs.ProviderError{Op: endpointAggregates, Ticker: ticker, Err: fmt.Errorf("status %q %s", resp.Status, resp.Error)}
	}

	bars := make([]models.Bar, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.O == nil || r.C == nil || r.T == nil {
			continue
		}
		bars = append(bars, models.Bar{
			Ticker: ticker,
			Date:   util.DateFromUnixMilli(*r.T),
			Open:   *r.O,
			Close:  *r.C,
		})
	}
	c.record(endpointAggregates, "ok")
	return bars, nil
}

// FetchDailyOpenClose returns ticker's bar for date.
func (c *Client) FetchDailyOpenClose(ctx context.Context, ticker, date string) (models.Bar, error) {
	u := fmt.Sprintf("%s/v1/open-close/%s/%s", c.baseURL, url.PathEscape(ticker), date)

	var resp openCloseResponse
	if err := c.get(ctx, endpointOpenClose, u, map[string][]string{"adjusted": {"true"}}, &resp); err != nil {
		return models.Bar{}, c.mapError(endpointOpenClose, ticker, date, err)
	}

	switch strings.ToUpper(resp.Status) {
	case "OK", "DELAYED", "":
	case "NOT_FOUND":
		c.record(endpointOpenClose, "not_found")
		return models.Bar{}, &errs.NotFoundError{Ticker: ticker, Date: date}
	default:
		c.record(endpointOpenClose, "error")
		return models.Bar{}, &errs.ProviderError{Op: endpointOpenClose, Ticker: ticker, Err: fmt.Errorf("status %q %s", resp.Status, resp.Message)}
	}

	o, cl := firstSet(resp.Open, resp.OpenShort), firstSet(resp.Close, resp.CloseShort)
	if o == nil || cl == nil {
		c.record(endpointOpenClose, "not_found")
		return models.Bar{}, &errs.NotFoundError{Ticker: ticker, Date: date}
	}
	c.record(endpointOpenClose, "ok")
	return models.Bar{Ticker: ticker, Date: date, Open: *o, Close: *cl}, nil
}

func (c *Client) get(ctx context.Context, endpoint, u string, query map[string][]string, dest interface{}) error {
	if err := c.pacer.Wait(ctx); err != nil {
		return err
	}
	query["apiKey"] = []string{c.apiKey}

	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         u,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: query,
	}, dest)
	if c.metrics != nil {
		c.metrics.RecordLatency("provider_"+endpoint, time.Since(start).Seconds())
	}
	return err
}

func (c *Client) mapError(endpoint, ticker, date string, err error) error {
	status := xhttp.StatusCode(err)
	if status == http.StatusNotFound {
		c.record(endpoint, "not_found")
		return &errs.NotFoundError{Ticker: ticker, Date: date}
	}
	c.record(endpoint, "error")
	c.log.Warn("provider call failed",
		logger.String("endpoint", endpoint),
		logger.String("ticker", ticker),
		logger.Int("status", status),
		logger.Error(err),
	)
	return &errs.ProviderError{Op: endpoint, Ticker: ticker, StatusCode: status, Err: err}
}

func (c *Client) record(endpoint, result string) {
	if c.metrics != nil {
		c.metrics.RecordProviderCall(endpoint, result)
	}
}

func firstSet(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
