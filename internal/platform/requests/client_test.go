package requests

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient() *Client {
	return New(Config{BackoffBase: time.Millisecond})
}

func TestDo_RetriesServerErrorThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	res, err := fastClient().Do(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_ClientErrorIsNeverRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid book data"}`))
	}))
	defer srv.Close()

	_, err := fastClient().Do(context.Background(), http.MethodPost, srv.URL, map[string]string{"title": ""})
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "Invalid book data", httpErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a 4xx must see exactly one transport call")
}

func TestDo_ErrorMessageFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("plain text, not json"))
	}))
	defer srv.Close()

	_, err := fastClient().Do(context.Background(), http.MethodGet, srv.URL, nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Contains(t, httpErr.Message, "Not Found")
}

func TestDo_ExhaustsRetriesAndReturnsLastError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := fastClient().Do(context.Background(), http.MethodGet, srv.URL, nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	// 1 initial attempt + 2 retries
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_AttemptTimeoutIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(200 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{Timeout: 50 * time.Millisecond, BackoffBase: time.Millisecond})
	res, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_CallerCancellationStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{BackoffBase: time.Second}).Do(ctx, http.MethodGet, srv.URL, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpload_SendsMultipartField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("cover")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "dune.png", header.Filename)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	res, err := fastClient().Upload(context.Background(), srv.URL, "cover", "dune.png", strings.NewReader("not really a png"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestUpload_RetriesServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		// The multipart body must be intact on the final attempt.
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("cover")
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := fastClient().Upload(context.Background(), srv.URL, "cover", "x.png", strings.NewReader("bytes"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(&HTTPError{StatusCode: 400}))
	assert.False(t, Retryable(&HTTPError{StatusCode: 404}))
	assert.True(t, Retryable(&HTTPError{StatusCode: 500}))
	assert.True(t, Retryable(&HTTPError{StatusCode: 503}))
	assert.True(t, Retryable(errors.New("connection refused")))
	assert.True(t, Retryable(context.DeadlineExceeded))
}
