package book

import (
	"context"
)

// Repository defines the contract for book data storage.
type Repository interface {
	Create(ctx context.Context, in CreateInput) (Book, error)
	// GetAll returns the whole collection, newest first.
	GetAll(ctx context.Context) ([]Book, error)
	GetByID(ctx context.Context, id int) (Book, error)
	// Update merges the supplied fields; absent fields keep their values.
	Update(ctx context.Context, id int, in UpdateInput) (Book, error)
	// Delete reports whether a book existed under id.
	Delete(ctx context.Context, id int) (bool, error)
	// SearchText is a case-insensitive substring search over title, author,
	// isbn, publisher and description.
	SearchText(ctx context.Context, query string) ([]Book, error)
}
