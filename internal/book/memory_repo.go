package book

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is the default store when no database is configured. IDs are
// assigned from a monotonically increasing counter, so createdAt plus id
// gives a stable "recent" ordering even when timestamps collide.
type MemoryRepo struct {
	mu     sync.RWMutex
	books  map[int]Book
	nextID int
	now    func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		books:  make(map[int]Book),
		nextID: 1,
		now:    time.Now,
	}
}

func (r *MemoryRepo) Create(_ context.Context, in CreateInput) (Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := Book{
		ID:            r.nextID,
		Title:         in.Title,
		Author:        in.Author,
		YearRead:      in.YearRead,
		Rating:        in.Rating,
		Notes:         in.Notes,
		CoverURL:      in.CoverURL,
		CoverData:     in.CoverData,
		ISBN:          in.ISBN,
		Publisher:     in.Publisher,
		PublishedDate: in.PublishedDate,
		Description:   in.Description,
		CreatedAt:     r.now(),
	}
	r.nextID++
	r.books[b.ID] = b
	return b, nil
}

func (r *MemoryRepo) GetAll(_ context.Context) ([]Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	books := make([]Book, 0, len(r.books))
	for _, b := range r.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool {
		if !books[i].CreatedAt.Equal(books[j].CreatedAt) {
			return books[i].CreatedAt.After(books[j].CreatedAt)
		}
		return books[i].ID > books[j].ID
	})
	return books, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id int) (Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (r *MemoryRepo) Update(_ context.Context, id int, in UpdateInput) (Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	in.apply(&b)
	r.books[id] = b
	return b, nil
}

func (r *MemoryRepo) Delete(_ context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return false, nil
	}
	delete(r.books, id)
	return true, nil
}

func (r *MemoryRepo) SearchText(_ context.Context, query string) ([]Book, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []Book{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []Book
	for _, b := range r.books {
		if matchesQuery(b, query) {
			matches = append(matches, b)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})
	return matches, nil
}

func matchesQuery(b Book, query string) bool {
	for _, field := range []string{b.Title, b.Author, b.ISBN, b.Publisher, b.Description} {
		if field != "" && strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
