package external

import (
	"context"
	"errors"
	"log"
	"net/http"

	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/googlebooks"
)

// Client is the slice of the external metadata client the proxy exposes.
type Client interface {
	Search(ctx context.Context, query string) (*googlebooks.SearchResult, error)
	LookupISBN(ctx context.Context, isbn string) (*googlebooks.ExternalBook, error)
}

// HTTPHandler proxies normalized external metadata lookups so browsers
// never talk to the upstream API directly.
type HTTPHandler struct {
	client Client
}

func NewHTTPHandler(client Client) *HTTPHandler {
	return &HTTPHandler{client: client}
}

// Search handles GET /api/external/books?q=.
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httpx.Error(w, http.StatusBadRequest, "Search query is required")
		return
	}

	result, err := h.client.Search(r.Context(), query)
	if err != nil {
		h.writeError(w, err, "Error searching external books")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// LookupISBN handles GET /api/external/books/isbn/{isbn}.
func (h *HTTPHandler) LookupISBN(w http.ResponseWriter, r *http.Request) {
	isbn := r.PathValue("isbn")
	if isbn == "" {
		httpx.Error(w, http.StatusBadRequest, "ISBN is required")
		return
	}

	book, err := h.client.LookupISBN(r.Context(), isbn)
	if err != nil {
		if errors.Is(err, googlebooks.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Book not found")
			return
		}
		h.writeError(w, err, "Error looking up book by ISBN")
		return
	}
	httpx.JSON(w, http.StatusOK, book)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	log.Printf("external books: %v", err)
	if errors.Is(err, googlebooks.ErrUnavailable) {
		httpx.Error(w, http.StatusServiceUnavailable, "External book service is unavailable, please try again")
		return
	}
	httpx.Error(w, http.StatusInternalServerError, fallback)
}
