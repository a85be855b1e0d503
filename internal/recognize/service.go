package recognize

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/googlebooks"
)

// Searcher is the slice of the external metadata client the enrichment step
// needs.
type Searcher interface {
	Search(ctx context.Context, query string) (*googlebooks.SearchResult, error)
}

// Result is the outcome of processing one cover image: the derived guess,
// the original image as a data URL, and the full OCR text for debugging.
type Result struct {
	Success   bool   `json:"success"`
	BookInfo  Guess  `json:"bookInfo"`
	CoverData string `json:"coverData"`
	RawText   string `json:"rawText"`
}

// ExtractedInfo echoes the heuristic split back to image-search callers.
type ExtractedInfo struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	RawText string `json:"rawText"`
}

// ImageSearchResult lists stored books matched by the recognized text.
type ImageSearchResult struct {
	Success       bool          `json:"success"`
	Books         []book.Book   `json:"books"`
	ExtractedInfo ExtractedInfo `json:"extractedInfo"`
}

type Service struct {
	engine Engine
	search Searcher
	books  book.Repository
}

func NewService(engine Engine, search Searcher, books book.Repository) *Service {
	return &Service{engine: engine, search: search, books: books}
}

// ProcessCover runs OCR over the image, guesses title/author, and enriches
// the guess from the external metadata API. Enrichment is best-effort: a
// non-empty external field wins over the OCR guess, an external failure
// keeps the OCR guess. OCR failure is fatal.
func (s *Service) ProcessCover(ctx context.Context, image []byte, mimeType string) (*Result, error) {
	text, err := s.engine.Recognize(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognition, err)
	}

	guess := ParseCoverText(text)
	if guess.Title != "" {
		s.enrich(ctx, &guess)
	}

	return &Result{
		Success:   true,
		BookInfo:  guess,
		CoverData: dataURL(mimeType, image),
		RawText:   text,
	}, nil
}

func (s *Service) enrich(ctx context.Context, guess *Guess) {
	res, err := s.search.Search(ctx, guess.Title)
	if err != nil {
		// Retries already happened inside the client; from here the
		// enrichment is simply skipped.
		log.Printf("cover enrichment failed for %q: %v", guess.Title, err)
		return
	}
	if len(res.Books) == 0 {
		return
	}

	first := res.Books[0]
	if first.Title != "" {
		guess.Title = first.Title
	}
	if len(first.Authors) > 0 && first.Authors[0] != "" {
		guess.Author = first.Authors[0]
	}
}

// SearchByImage runs OCR and then searches the stored collection using the
// extracted title, falling back to the author when no title was recognized.
func (s *Service) SearchByImage(ctx context.Context, image []byte) (*ImageSearchResult, error) {
	text, err := s.engine.Recognize(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognition, err)
	}

	guess := ParseCoverText(text)
	query := guess.Title
	if query == "" {
		query = guess.Author
	}

	books := []book.Book{}
	if query != "" {
		books, err = s.books.SearchText(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("search stored books: %w", err)
		}
		if books == nil {
			books = []book.Book{}
		}
	}

	return &ImageSearchResult{
		Success: true,
		Books:   books,
		ExtractedInfo: ExtractedInfo{
			Title:   guess.Title,
			Author:  guess.Author,
			RawText: text,
		},
	}, nil
}

func dataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
