package recognize

import (
	"io"
	"log"
	"net/http"
	"strings"

	"bookshelf/internal/httpx"
)

// MaxCoverBytes bounds a single uploaded cover image.
const MaxCoverBytes = 5 << 20

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// ProcessCover handles POST /api/books/ocr (multipart field "cover").
func (h *HTTPHandler) ProcessCover(w http.ResponseWriter, r *http.Request) {
	image, mimeType, ok := coverFile(w, r)
	if !ok {
		return
	}

	result, err := h.service.ProcessCover(r.Context(), image, mimeType)
	if err != nil {
		log.Printf("process cover: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Error processing image")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// SearchByImage handles POST /api/books/search/image (multipart field "cover").
func (h *HTTPHandler) SearchByImage(w http.ResponseWriter, r *http.Request) {
	image, _, ok := coverFile(w, r)
	if !ok {
		return
	}

	result, err := h.service.SearchByImage(r.Context(), image)
	if err != nil {
		log.Printf("search by image: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Error searching by image")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// coverFile pulls the uploaded image out of the multipart form, enforcing
// the size bound and that the payload is an image.
func coverFile(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(MaxCoverBytes); err != nil {
		httpx.Error(w, http.StatusBadRequest, "No file uploaded")
		return nil, "", false
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "No file uploaded")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxCoverBytes+1))
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Could not read uploaded file")
		return nil, "", false
	}
	if len(data) > MaxCoverBytes {
		httpx.Error(w, http.StatusBadRequest, "Cover image exceeds the 5MB limit")
		return nil, "", false
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		httpx.Error(w, http.StatusBadRequest, "File must be an image")
		return nil, "", false
	}

	return data, mimeType, true
}
