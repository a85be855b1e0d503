package recommend

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/googlebooks"
)

// MaxRecommendations bounds a single recommendation response.
const MaxRecommendations = 6

// Searcher is the slice of the external metadata client the engine needs.
type Searcher interface {
	Search(ctx context.Context, query string) (*googlebooks.SearchResult, error)
}

// defaultQueries seed recommendations for an empty collection.
var defaultQueries = []string{
	"best sellers fiction",
	"award winning books",
	"classic literature",
}

// stopWords are title tokens too generic to indicate a genre.
var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "before": {}, "their": {}, "there": {},
	"these": {}, "those": {}, "where": {}, "which": {},
}

// Service derives external book suggestions from the stored collection.
// Three heuristics run concurrently: more by the reader's top authors,
// books sharing frequent title keywords, and books similar to the most
// recent additions. Each heuristic is best-effort; a failing one simply
// contributes nothing.
type Service struct {
	search Searcher
	books  book.Repository

	// pickDefault selects one of defaultQueries; overridable in tests.
	pickDefault func() string
}

func NewService(search Searcher, books book.Repository) *Service {
	return &Service{
		search: search,
		books:  books,
		pickDefault: func() string {
			return defaultQueries[rand.Intn(len(defaultQueries))]
		},
	}
}

// Recommend returns at most MaxRecommendations external books, never
// including a title already in the stored collection.
func (s *Service) Recommend(ctx context.Context) ([]googlebooks.ExternalBook, error) {
	owned, err := s.books.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load owned books: %w", err)
	}
	if len(owned) == 0 {
		return s.defaults(ctx)
	}

	var lists [3][]googlebooks.ExternalBook
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lists[0] = s.byTopAuthors(gctx, owned)
		return nil
	})
	g.Go(func() error {
		lists[1] = s.byTitleKeywords(gctx, owned)
		return nil
	})
	g.Go(func() error {
		lists[2] = s.byRecentReads(gctx, owned)
		return nil
	})
	g.Wait()

	merged := dedupeByID(lists[0], lists[1], lists[2])
	filtered := excludeOwnedTitles(merged, owned)
	if len(filtered) == 0 {
		return s.defaults(ctx)
	}
	if len(filtered) > MaxRecommendations {
		filtered = filtered[:MaxRecommendations]
	}
	return filtered, nil
}

// byTopAuthors queries for more books by the two most frequent authors.
func (s *Service) byTopAuthors(ctx context.Context, owned []book.Book) []googlebooks.ExternalBook {
	var authors []string
	for _, b := range owned {
		if b.Author != "" {
			authors = append(authors, b.Author)
		}
	}
	top := topByFrequency(authors, 2)

	var out []googlebooks.ExternalBook
	for _, author := range top {
		res, err := s.search.Search(ctx, fmt.Sprintf("inauthor:%q", author))
		if err != nil {
			log.Printf("author recommendations for %q: %v", author, err)
			continue
		}
		out = append(out, res.Books...)
	}
	return out
}

// byTitleKeywords issues one combined query from the three most frequent
// long title tokens, skipping stop words.
func (s *Service) byTitleKeywords(ctx context.Context, owned []book.Book) []googlebooks.ExternalBook {
	var keywords []string
	for _, b := range owned {
		for _, word := range strings.Fields(b.Title) {
			if len(word) <= 4 {
				continue
			}
			word = strings.ToLower(word)
			if _, stop := stopWords[word]; stop {
				continue
			}
			keywords = append(keywords, word)
		}
	}
	top := topByFrequency(keywords, 3)
	if len(top) == 0 {
		return nil
	}

	query := strings.Join(top, " ")
	res, err := s.search.Search(ctx, query)
	if err != nil {
		log.Printf("keyword recommendations for %q: %v", query, err)
		return nil
	}
	return res.Books
}

// byRecentReads finds books similar to the two most recent additions,
// excluding the same author's other works when the author is known.
func (s *Service) byRecentReads(ctx context.Context, owned []book.Book) []googlebooks.ExternalBook {
	recent := make([]book.Book, len(owned))
	copy(recent, owned)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > 2 {
		recent = recent[:2]
	}

	var out []googlebooks.ExternalBook
	for _, b := range recent {
		query := b.Title
		if b.Author != "" {
			query = fmt.Sprintf("%s -inauthor:%q", b.Title, b.Author)
		}
		res, err := s.search.Search(ctx, query)
		if err != nil {
			log.Printf("recent-read recommendations for %q: %v", b.Title, err)
			continue
		}
		out = append(out, res.Books...)
	}
	return out
}

// defaults returns the top results for one randomly chosen popular query.
func (s *Service) defaults(ctx context.Context) ([]googlebooks.ExternalBook, error) {
	query := s.pickDefault()
	res, err := s.search.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("default recommendations: %w", err)
	}
	books := res.Books
	if len(books) > MaxRecommendations {
		books = books[:MaxRecommendations]
	}
	if books == nil {
		books = []googlebooks.ExternalBook{}
	}
	return books, nil
}

// topByFrequency returns the n most frequent values, ties broken by
// first-encountered order.
func topByFrequency(values []string, n int) []string {
	counts := make(map[string]int, len(values))
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// dedupeByID merges lists keeping each id's first position with the last
// occurrence's value.
func dedupeByID(lists ...[]googlebooks.ExternalBook) []googlebooks.ExternalBook {
	index := make(map[string]int)
	var out []googlebooks.ExternalBook
	for _, list := range lists {
		for _, b := range list {
			if i, seen := index[b.ID]; seen {
				out[i] = b
				continue
			}
			index[b.ID] = len(out)
			out = append(out, b)
		}
	}
	return out
}

func excludeOwnedTitles(candidates []googlebooks.ExternalBook, owned []book.Book) []googlebooks.ExternalBook {
	titles := make(map[string]struct{}, len(owned))
	for _, b := range owned {
		titles[b.Title] = struct{}{}
	}
	out := candidates[:0]
	for _, c := range candidates {
		if _, have := titles[c.Title]; !have {
			out = append(out, c)
		}
	}
	return out
}
