package requests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	defaultMaxRetries    = 2
	defaultTimeout       = 45 * time.Second
	defaultUploadTimeout = 60 * time.Second
	defaultBackoffBase   = 500 * time.Millisecond
	defaultBackoffFactor = 2
	backoffCap           = 30 * time.Second
)

// Config tunes the retry and timeout policy. Zero values fall back to the
// defaults above, so Config{} is a usable production configuration.
type Config struct {
	MaxRetries    int
	Timeout       time.Duration // per-attempt bound for Do
	UploadTimeout time.Duration // per-attempt bound for Upload
	BackoffBase   time.Duration
	BackoffFactor int
	HTTPClient    *http.Client
}

// Client wraps outbound HTTP with a per-attempt timeout and bounded
// exponential-backoff retry. Responses in [200,400) succeed. Responses in
// [400,500) are terminal and never retried. Responses >= 500, transport
// errors and attempt timeouts are retried up to MaxRetries extra attempts.
type Client struct {
	httpClient    *http.Client
	maxRetries    int
	timeout       time.Duration
	uploadTimeout time.Duration
	backoffBase   time.Duration
	backoffFactor int
}

// Response is the decoded-enough part of an HTTP response: the body is fully
// read so the underlying connection is already released.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// HTTPError is a non-2xx response. Message is taken from the JSON error
// body's message field when present, otherwise from the status text.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether err may succeed on a fresh attempt: server
// errors, transport failures and attempt timeouts qualify; client errors and
// caller cancellation do not.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	return true
}

func New(cfg Config) *Client {
	c := &Client{
		httpClient:    cfg.HTTPClient,
		maxRetries:    cfg.MaxRetries,
		timeout:       cfg.Timeout,
		uploadTimeout: cfg.UploadTimeout,
		backoffBase:   cfg.BackoffBase,
		backoffFactor: cfg.BackoffFactor,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.maxRetries == 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.timeout == 0 {
		c.timeout = defaultTimeout
	}
	if c.uploadTimeout == 0 {
		c.uploadTimeout = defaultUploadTimeout
	}
	if c.backoffBase == 0 {
		c.backoffBase = defaultBackoffBase
	}
	if c.backoffFactor == 0 {
		c.backoffFactor = defaultBackoffFactor
	}
	return c
}

// Do sends a JSON request. body may be nil for bodyless methods.
func (c *Client) Do(ctx context.Context, method, url string, body interface{}) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	return c.retry(ctx, c.timeout, func(attemptCtx context.Context) (*http.Request, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	})
}

// Upload posts file as a multipart/form-data field. The file is buffered up
// front: a timed-out attempt is rebuilt from scratch, never resumed.
func (c *Client) Upload(ctx context.Context, url, fieldName, filename string, file io.Reader) (*Response, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return c.retry(ctx, c.uploadTimeout, func(attemptCtx context.Context) (*http.Request, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile(fieldName, filename)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
}

func (c *Client) retry(ctx context.Context, timeout time.Duration, build func(context.Context) (*http.Request, error)) (*Response, error) {
	var lastErr error
	delay := c.backoffBase

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= time.Duration(c.backoffFactor)
			if delay > backoffCap {
				delay = backoffCap
			}
		}

		res, err := c.attempt(ctx, timeout, build)
		if err == nil {
			return res, nil
		}
		if !Retryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) attempt(ctx context.Context, timeout time.Duration, build func(context.Context) (*http.Request, error)) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := build(attemptCtx)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The attempt deadline surfaces as a url.Error wrapping
		// context.DeadlineExceeded; the caller's own cancellation must win.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	if resp.StatusCode < http.StatusBadRequest {
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
	}

	return nil, &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body, resp.Status),
	}
}

func errorMessage(body []byte, statusText string) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return statusText
}
