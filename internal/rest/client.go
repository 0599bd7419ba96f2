// Package rest is a typed client for the REST store behind the gateway.
//
// Every method performs exactly one HTTP call. There are no retries and nothing
// is cached; failures come back as *errors.UpstreamError when the store answered
// and *errors.UnavailableError when it did not.
package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	gwerrors "github.com/graph-gophers/rest-gateway/errors"
	gwlog "github.com/graph-gophers/rest-gateway/log"
	"github.com/graph-gophers/rest-gateway/trace"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind names a resource collection of the store.
type Kind string

const (
	Users     Kind = "users"
	Companies Kind = "companies"
	Positions Kind = "positions"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// Client talks to the store rooted at a fixed base URL. It is safe for
// concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	logger  *zap.Logger
	metrics *Metrics
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each call. Zero means no timeout. It applies to the client
// given by WithHTTPClient too, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New returns a client for the store at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "rest: parsing base url %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("rest: base url %q must be http or https", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// FetchOne decodes the record kind/id into out.
func (c *Client) FetchOne(ctx context.Context, kind Kind, id string, out interface{}) error {
	return c.do(ctx, http.MethodGet, kind, c.resolve(kind, id), nil, out)
}

// FetchCollection decodes every record of kind into out, which should point to a
// slice.
func (c *Client) FetchCollection(ctx context.Context, kind Kind, out interface{}) error {
	return c.do(ctx, http.MethodGet, kind, c.resolve(kind), nil, out)
}

// FetchNestedCollection decodes the child records of parent/parentID, for example
// companies/2/users, into out. Filtering happens in the store.
func (c *Client) FetchNestedCollection(ctx context.Context, parent Kind, parentID string, child Kind, out interface{}) error {
	return c.do(ctx, http.MethodGet, child, c.resolve(parent, parentID, string(child)), nil, out)
}

// Create posts payload to kind and decodes the created record into out.
func (c *Client) Create(ctx context.Context, kind Kind, payload, out interface{}) error {
	return c.do(ctx, http.MethodPost, kind, c.resolve(kind), payload, out)
}

// Update patches kind/id with payload and decodes the updated record into out.
func (c *Client) Update(ctx context.Context, kind Kind, id string, payload, out interface{}) error {
	return c.do(ctx, http.MethodPatch, kind, c.resolve(kind, id), payload, out)
}

// Delete removes kind/id and decodes whatever the store returns into out.
func (c *Client) Delete(ctx context.Context, kind Kind, id string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, kind, c.resolve(kind, id), nil, out)
}

func (c *Client) resolve(kind Kind, segments ...string) string {
	elems := make([]string, 0, len(segments)+1)
	elems = append(elems, string(kind))
	for _, s := range segments {
		elems = append(elems, url.PathEscape(s))
	}
	return c.base.JoinPath(elems...).String()
}

func (c *Client) do(ctx context.Context, method string, kind Kind, target string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrapf(err, "rest: encoding %s %s", method, target)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errors.Wrapf(err, "rest: building %s %s", method, target)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := gwlog.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	req, span := trace.StartUpstream(req, string(kind))
	start := time.Now()
	status, err := c.roundTrip(req, out)
	trace.FinishUpstream(span, status, err)
	c.metrics.observe(method, kind, status, start)

	gwlog.For(ctx, c.logger).Debug("upstream call",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return err
}

// roundTrip returns the response status, or 0 if there was no response.
func (c *Client) roundTrip(req *http.Request, out interface{}) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &gwerrors.UnavailableError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &gwerrors.UpstreamError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &gwerrors.UnavailableError{
			Method: req.Method,
			URL:    req.URL.String(),
			Err:    errors.Wrap(err, "reading body"),
		}
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return resp.StatusCode, &gwerrors.UnavailableError{
			Method: req.Method,
			URL:    req.URL.String(),
			Err:    errors.Wrap(err, "decoding body"),
		}
	}
	return resp.StatusCode, nil
}
