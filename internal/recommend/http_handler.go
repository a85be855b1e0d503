package recommend

import (
	"errors"
	"log"
	"net/http"

	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/googlebooks"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Recommendations handles GET /api/recommendations.
func (h *HTTPHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.Recommend(r.Context())
	if err != nil {
		log.Printf("recommendations: %v", err)
		if errors.Is(err, googlebooks.ErrUnavailable) {
			httpx.Error(w, http.StatusServiceUnavailable, "Book recommendations are temporarily unavailable, please try again")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "Error fetching recommendations")
		return
	}
	httpx.JSON(w, http.StatusOK, books)
}
