package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/requests"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, requests.Config{BackoffBase: time.Millisecond})
}

func TestCreateAndList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/books", func(w http.ResponseWriter, r *http.Request) {
		var in book.CreateInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Dune", in.Title)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(book.Book{ID: 1, Title: in.Title, Author: in.Author})
	})
	mux.HandleFunc("GET /api/books", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]book.Book{{ID: 1, Title: "Dune"}})
	})
	c := testClient(t, mux)

	created, err := c.CreateBook(context.Background(), book.CreateInput{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	books, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestErrorBodiesBecomeHTTPErrors(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Book not found"}`))
	}))

	_, err := c.GetBook(context.Background(), 99)
	var httpErr *requests.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "Book not found", httpErr.Message)
}

func TestGETRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]book.Book{})
	}))

	books, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchBooksEscapesQuery(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/books/search/text", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		json.NewEncoder(w).Encode([]book.Book{})
	})
	c := testClient(t, mux)

	_, err := c.SearchBooks(context.Background(), "dune messiah & more")
	require.NoError(t, err)
	assert.Equal(t, "dune messiah & more", gotQuery)
}

func TestProcessCoverUploadsMultipart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/books/ocr", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("cover")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cover.png", header.Filename)
		w.Write([]byte(`{"success":true,"bookInfo":{"title":"Dune","author":"Frank Herbert"},"coverData":"","rawText":"Dune\nFrank Herbert"}`))
	})
	c := testClient(t, mux)

	res, err := c.ProcessCover(context.Background(), "cover.png", strings.NewReader("png bytes"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Dune", res.BookInfo.Title)
}
