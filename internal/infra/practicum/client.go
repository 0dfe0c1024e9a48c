// Package practicum talks to the Practicum homework_statuses API.
package practicum

import (
	"context"
	"encoding/json"
	"fmt"
	"homework_status_bot/internal/domain/homework"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	defaultTimeout  = 30 * time.Second
	maxBodyBytes    = 1 << 20
)

// Client fetches homework statuses for a single account.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client authorized with the given OAuth token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		endpoint:   defaultEndpoint,
		token:      token,
		logger:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the statuses changed since fromDate (Unix seconds).
// Transport errors and non-200 replies are homework.FetchError; an undecodable
// body is homework.ErrDecode.
func (c *Client) Fetch(ctx context.Context, fromDate int64) (homework.Response, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &homework.FetchError{Err: fmt.Errorf("parse endpoint: %w", err)}
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(fromDate, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &homework.FetchError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &homework.FetchError{Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &homework.FetchError{StatusCode: resp.StatusCode}
	}

	body, err := decodeBody(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"from_date":   fromDate,
	}).Info("Server responded")
	return body, nil
}

// decodeBody accepts exactly one JSON object and nothing after it.
func decodeBody(r io.Reader) (homework.Response, error) {
	dec := json.NewDecoder(r)

	var body homework.Response
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", homework.ErrDecode, err)
	}
	if body == nil {
		return nil, fmt.Errorf("%w: body is not a JSON object", homework.ErrDecode)
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after JSON object", homework.ErrDecode)
	}
	return body, nil
}
