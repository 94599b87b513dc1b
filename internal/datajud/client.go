// Package datajud is a client for the CNJ DataJud public registry API.
package datajud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/nhle/juscheck/internal/cnj"
	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/tribunal"
)

// defaultTimeout applies when the configuration leaves the timeout unset.
const defaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is kept for logging.
const maxErrorBody = 512

// RequestObserver receives one observation per registry round trip.
type RequestObserver interface {
	ObserveRegistryRequest(court, outcome string, elapsed time.Duration)
}

// Client fetches process snapshots from the registry. It makes exactly one
// request per fetch and never retries; outbound calls are paced by a shared
// token bucket.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   RequestObserver
	tracer     trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithObserver records request outcomes and latency.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a registry client from configuration.
func NewClient(cfg model.DataJudConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		tracer:  otel.Tracer("github.com/nhle/juscheck/internal/datajud"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the registry's current snapshot of a process. Every expected
// miss (unmapped court, timeout, transport error, non-2xx status, no matching
// document) is reported as an *Error wrapping ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, number string) (*Snapshot, error) {
	digits := cnj.Normalize(number)

	court, err := tribunal.Resolve(digits)
	if err != nil {
		return nil, &Error{Reason: ReasonUnresolved, Number: digits, Err: err}
	}

	ctx, span := c.tracer.Start(ctx, "datajud.Fetch", trace.WithAttributes(
		attribute.String("court", court.Slug),
	))
	defer span.End()

	start := time.Now()
	snap, err := c.search(ctx, court, digits)
	c.observe(court.Slug, err, time.Since(start))

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("movements", snap.Count()))
	return snap, nil
}

func (c *Client) search(
	ctx context.Context,
	court tribunal.Court,
	digits string,
) (*Snapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Reason: ReasonTimeout, Number: digits, Err: err}
	}

	body, err := json.Marshal(searchRequest{
		Query: searchQuery{MatchPhrase: map[string]string{"numeroProcesso": digits}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling search body: %w", err)
	}

	url := c.baseURL + court.SearchPath()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Reason: transportReason(err), Number: digits, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Reason: transportReason(err), Number: digits, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Reason:     ReasonStatus,
			Number:     digits,
			StatusCode: resp.StatusCode,
			Err:        errors.New(truncate(string(respBody), maxErrorBody)),
		}
	}

	var sr SearchResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return nil, fmt.Errorf("%w from %s: %v", ErrMalformedResponse, court.Slug, err)
	}
	if len(sr.Hits.Hits) == 0 {
		return nil, &Error{Reason: ReasonNotFound, Number: digits}
	}
	doc := sr.Hits.Hits[0].Source
	if doc.Movimentos == nil {
		return nil, &Error{Reason: ReasonNotFound, Number: digits, Err: errors.New("document has no movimentos")}
	}

	return snapshotFromProcess(digits, doc), nil
}

func (c *Client) observe(court string, err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case ReasonOf(err) == ReasonStatus:
		var regErr *Error
		errors.As(err, &regErr)
		outcome = strconv.Itoa(regErr.StatusCode)
	case ReasonOf(err) != "":
		outcome = string(ReasonOf(err))
	default:
		outcome = "error"
	}
	c.observer.ObserveRegistryRequest(court, outcome, elapsed)
}

// transportReason separates timeouts from other transport failures.
func transportReason(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonTransport
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
