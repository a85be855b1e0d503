package recommend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/googlebooks"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSearcher returns canned results per query and records every
// query it saw.
type recordingSearcher struct {
	mu      sync.Mutex
	queries []string
	results map[string][]googlebooks.ExternalBook
	errs    map[string]error
}

func newRecordingSearcher() *recordingSearcher {
	return &recordingSearcher{
		results: map[string][]googlebooks.ExternalBook{},
		errs:    map[string]error{},
	}
}

func (s *recordingSearcher) Search(_ context.Context, query string) (*googlebooks.SearchResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	return &googlebooks.SearchResult{Books: s.results[query]}, nil
}

func (s *recordingSearcher) seen(query string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queries {
		if q == query {
			return true
		}
	}
	return false
}

func ext(id, title, author string) googlebooks.ExternalBook {
	return googlebooks.ExternalBook{ID: id, Title: title, Author: author}
}

func ownedRepo(t *testing.T, inputs ...book.CreateInput) *book.MemoryRepo {
	t.Helper()
	repo := book.NewMemoryRepo()
	for _, in := range inputs {
		_, err := repo.Create(context.Background(), in)
		require.NoError(t, err)
	}
	return repo
}

func TestRecommend(t *testing.T) {
	ctx := context.Background()

	t.Run("never recommends an owned title", func(t *testing.T) {
		searcher := newRecordingSearcher()
		searcher.results[`inauthor:"Frank Herbert"`] = []googlebooks.ExternalBook{
			ext("vol-1", "Dune", "Frank Herbert"),
			ext("vol-2", "Dune Messiah", "Frank Herbert"),
		}
		s := NewService(searcher, ownedRepo(t, book.CreateInput{Title: "Dune", Author: "Frank Herbert"}))

		got, err := s.Recommend(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		for _, b := range got {
			assert.NotEqual(t, "Dune", b.Title)
		}
	})

	t.Run("empty collection falls back to a default query", func(t *testing.T) {
		searcher := newRecordingSearcher()
		many := make([]googlebooks.ExternalBook, 10)
		for i := range many {
			many[i] = ext(string(rune('a'+i)), "Book", "Author")
		}
		searcher.results["classic literature"] = many

		s := NewService(searcher, book.NewMemoryRepo())
		s.pickDefault = func() string { return "classic literature" }

		got, err := s.Recommend(ctx)
		require.NoError(t, err)
		assert.Len(t, got, MaxRecommendations)
		assert.Equal(t, []string{"classic literature"}, searcher.queries)
	})

	t.Run("queries top authors, keywords, and recent reads", func(t *testing.T) {
		searcher := newRecordingSearcher()
		s := NewService(searcher, ownedRepo(t,
			book.CreateInput{Title: "Dune Messiah", Author: "Frank Herbert"},
			book.CreateInput{Title: "Children of Dune", Author: "Frank Herbert"},
			book.CreateInput{Title: "Neuromancer", Author: "William Gibson"},
		))
		s.pickDefault = func() string { return "classic literature" }

		_, err := s.Recommend(ctx)
		require.NoError(t, err)

		assert.True(t, searcher.seen(`inauthor:"Frank Herbert"`), "top author query, got %v", searcher.queries)
		assert.True(t, searcher.seen(`inauthor:"William Gibson"`), "second author query, got %v", searcher.queries)
		assert.True(t, searcher.seen(`Neuromancer -inauthor:"William Gibson"`), "recent-read query with author negation, got %v", searcher.queries)
		keyword := false
		searcher.mu.Lock()
		for _, q := range searcher.queries {
			if strings.Contains(q, "messiah") || strings.Contains(q, "children") || strings.Contains(q, "neuromancer") {
				keyword = true
			}
		}
		searcher.mu.Unlock()
		assert.True(t, keyword, "keyword query built from long title tokens, got %v", searcher.queries)
	})

	t.Run("a failing heuristic does not abort the rest", func(t *testing.T) {
		searcher := newRecordingSearcher()
		searcher.errs[`inauthor:"Frank Herbert"`] = googlebooks.ErrUnavailable
		searcher.results[`Dune -inauthor:"Frank Herbert"`] = []googlebooks.ExternalBook{
			ext("vol-9", "Hyperion", "Dan Simmons"),
		}
		s := NewService(searcher, ownedRepo(t, book.CreateInput{Title: "Dune", Author: "Frank Herbert"}))

		got, err := s.Recommend(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Hyperion", got[0].Title)
	})

	t.Run("all heuristics empty falls back to defaults", func(t *testing.T) {
		searcher := newRecordingSearcher()
		searcher.results["award winning books"] = []googlebooks.ExternalBook{
			ext("vol-3", "Beloved", "Toni Morrison"),
		}
		s := NewService(searcher, ownedRepo(t, book.CreateInput{Title: "Dune", Author: "Frank Herbert"}))
		s.pickDefault = func() string { return "award winning books" }

		got, err := s.Recommend(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Beloved", got[0].Title)
	})

	t.Run("duplicate ids collapse to one entry", func(t *testing.T) {
		searcher := newRecordingSearcher()
		dup := ext("vol-7", "Hyperion", "Dan Simmons")
		searcher.results[`inauthor:"Frank Herbert"`] = []googlebooks.ExternalBook{dup}
		searcher.results[`Dune -inauthor:"Frank Herbert"`] = []googlebooks.ExternalBook{dup}
		s := NewService(searcher, ownedRepo(t, book.CreateInput{Title: "Dune", Author: "Frank Herbert"}))

		got, err := s.Recommend(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestTopByFrequency(t *testing.T) {
	got := topByFrequency([]string{"b", "a", "a", "c", "b", "a"}, 2)
	assert.Equal(t, []string{"a", "b"}, got)

	got = topByFrequency([]string{"x", "y"}, 3)
	assert.Equal(t, []string{"x", "y"}, got, "ties keep first-encountered order")

	assert.Empty(t, topByFrequency(nil, 2))
}

func TestRecommendationsHandler(t *testing.T) {
	t.Run("unavailable upstream maps to 503", func(t *testing.T) {
		searcher := newRecordingSearcher()
		searcher.errs["classic literature"] = googlebooks.ErrUnavailable
		s := NewService(searcher, book.NewMemoryRepo())
		s.pickDefault = func() string { return "classic literature" }
		h := NewHTTPHandler(s)

		rec := httptest.NewRecorder()
		h.Recommendations(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "try again")
	})

	t.Run("returns recommendations", func(t *testing.T) {
		searcher := newRecordingSearcher()
		searcher.results["best sellers fiction"] = []googlebooks.ExternalBook{
			ext("vol-1", "The Hobbit", "J.R.R. Tolkien"),
		}
		s := NewService(searcher, book.NewMemoryRepo())
		s.pickDefault = func() string { return "best sellers fiction" }
		h := NewHTTPHandler(s)

		rec := httptest.NewRecorder()
		h.Recommendations(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got []googlebooks.ExternalBook
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "The Hobbit", got[0].Title)
	})
}
