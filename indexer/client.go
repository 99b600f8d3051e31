// Package indexer is a client for the Video Indexer REST API: access tokens,
// audio-only job submission, completion polling and transcript retrieval.
package indexer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nijaru/vi-transcript/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"
	maxErrorBodyBytes     = 1024
	maxBodyBytes          = 32 << 20
)

var (
	ErrAccessToken          = errors.New("failed to get access token")
	ErrSubmit               = errors.New("failed to index video")
	ErrTimeout              = errors.New("indexing not completed in a reasonable time")
	ErrIndexingFailed       = errors.New("video indexing failed")
	ErrNotFoundOrProcessing = errors.New("video not found or still processing")
)

type Client struct {
	httpClient      *http.Client
	apiURL          string
	subscriptionKey string
	accountID       string
	location        string
	language        string
	pollInterval    time.Duration
	pollTimeout     time.Duration
	logger          *logrus.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(cfg config.IndexerConfig, opts ...Option) *Client {
	c := &Client{
		httpClient:      &http.Client{Timeout: cfg.HTTPTimeout},
		apiURL:          strings.TrimRight(cfg.APIURL, "/"),
		subscriptionKey: cfg.SubscriptionKey,
		accountID:       cfg.AccountID,
		location:        cfg.Location,
		language:        cfg.Language,
		pollInterval:    cfg.PollInterval,
		pollTimeout:     cfg.PollTimeout,
		logger:          logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) endpoint(query url.Values, segments ...string) (string, error) {
	u, err := url.JoinPath(c.apiURL, segments...)
	if err != nil {
		return "", errors.Wrap(err, "failed to build endpoint")
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

func (c *Client) accountPath(segments ...string) []string {
	return append([]string{c.location, "Accounts", c.accountID}, segments...)
}

// videoSegment escapes a caller supplied id so it stays one path segment.
func videoSegment(id string) (string, error) {
	if id == "" || id == "." || id == ".." {
		return "", errors.Errorf("invalid video id %q", id)
	}
	return url.PathEscape(id), nil
}

// do sends the request and returns the response body for a 200, or a
// statusError for anything else.
func (c *Client) do(ctx context.Context, method, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set(subscriptionKeyHeader, c.subscriptionKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	return body, nil
}

type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return "unexpected status " + http.StatusText(e.Code)
	}
	return "unexpected status " + http.StatusText(e.Code) + ": " + e.Body
}

// StatusCode extracts the upstream HTTP status from err, or 0 when the error
// did not come from a non-200 response.
func StatusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// mark attaches sentinel to err so callers can match with errors.Is while the
// upstream detail stays in the message.
func mark(sentinel, err error) error {
	return &markedError{sentinel: sentinel, err: err}
}

type markedError struct {
	sentinel error
	err      error
}

func (e *markedError) Error() string {
	return e.sentinel.Error() + ": " + e.err.Error()
}

func (e *markedError) Is(target error) bool { return target == e.sentinel }

func (e *markedError) Unwrap() error { return e.err }

func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
