package book

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// List handles GET /api/books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.GetAll(r.Context())
	if err != nil {
		log.Printf("list books: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Error fetching books")
		return
	}
	if books == nil {
		books = []Book{}
	}
	httpx.JSON(w, http.StatusOK, books)
}

// Get handles GET /api/books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	b, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Book not found")
			return
		}
		log.Printf("get book %d: %v", id, err)
		httpx.Error(w, http.StatusInternalServerError, "Error fetching book")
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Create handles POST /api/books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid book data")
		return
	}

	if errs := in.Validate(); len(errs) > 0 {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Invalid book data", fieldErrors(errs))
		return
	}

	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		log.Printf("create book: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Error creating book")
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

// Update handles PUT /api/books/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid book data")
		return
	}

	if errs := in.Validate(); len(errs) > 0 {
		httpx.ErrorWithDetails(w, http.StatusBadRequest, "Invalid book data", fieldErrors(errs))
		return
	}

	b, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Book not found")
			return
		}
		log.Printf("update book %d: %v", id, err)
		httpx.Error(w, http.StatusInternalServerError, "Error updating book")
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// Delete handles DELETE /api/books/{id}. Deleting twice reports not-found
// the second time; delete is terminal, there is no soft-delete.
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		log.Printf("delete book %d: %v", id, err)
		httpx.Error(w, http.StatusInternalServerError, "Error deleting book")
		return
	}
	if !deleted {
		httpx.Error(w, http.StatusNotFound, "Book not found")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Book deleted successfully"})
}

// SearchText handles GET /api/books/search/text?q=
func (h *HTTPHandler) SearchText(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httpx.Error(w, http.StatusBadRequest, "Search query is required")
		return
	}

	books, err := h.service.SearchText(r.Context(), query)
	if err != nil {
		log.Printf("search books %q: %v", query, err)
		httpx.Error(w, http.StatusInternalServerError, "Error searching books")
		return
	}
	if books == nil {
		books = []Book{}
	}
	httpx.JSON(w, http.StatusOK, books)
}

func bookID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid book ID")
		return 0, false
	}
	return id, true
}

func fieldErrors(errs []ValidationError) []httpx.FieldError {
	out := make([]httpx.FieldError, len(errs))
	for i, e := range errs {
		out[i] = httpx.FieldError{Field: e.Field, Message: e.Message}
	}
	return out
}
