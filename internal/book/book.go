package book

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// Book is a persistent entity in the user's collection. Optional numeric
// fields are pointers so JSON omits them when unset; CreatedAt is assigned
// once at creation and orders "recent" queries.
type Book struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author,omitempty"`
	YearRead      *int      `json:"yearRead,omitempty"`
	Rating        *int      `json:"rating,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CoverURL      string    `json:"coverUrl,omitempty"`
	CoverData     string    `json:"coverData,omitempty"`
	ISBN          string    `json:"isbn,omitempty"`
	Publisher     string    `json:"publisher,omitempty"`
	PublishedDate string    `json:"publishedDate,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CreateInput carries the caller-supplied fields of a new book.
type CreateInput struct {
	Title         string `json:"title" validate:"notblank"`
	Author        string `json:"author"`
	YearRead      *int   `json:"yearRead" validate:"omitempty,year_read"`
	Rating        *int   `json:"rating" validate:"omitempty,rating_range"`
	Notes         string `json:"notes"`
	CoverURL      string `json:"coverUrl"`
	CoverData     string `json:"coverData"`
	ISBN          string `json:"isbn"`
	Publisher     string `json:"publisher"`
	PublishedDate string `json:"publishedDate"`
	Description   string `json:"description"`
}

// UpdateInput is a partial update: nil fields are left unchanged, so an
// update is a merge, never a replace.
type UpdateInput struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	YearRead      *int    `json:"yearRead" validate:"omitempty,year_read"`
	Rating        *int    `json:"rating" validate:"omitempty,rating_range"`
	Notes         *string `json:"notes"`
	CoverURL      *string `json:"coverUrl"`
	CoverData     *string `json:"coverData"`
	ISBN          *string `json:"isbn"`
	Publisher     *string `json:"publisher"`
	PublishedDate *string `json:"publishedDate"`
	Description   *string `json:"description"`
}

// apply merges the supplied fields into b.
func (in UpdateInput) apply(b *Book) {
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Author != nil {
		b.Author = *in.Author
	}
	if in.YearRead != nil {
		b.YearRead = in.YearRead
	}
	if in.Rating != nil {
		b.Rating = in.Rating
	}
	if in.Notes != nil {
		b.Notes = *in.Notes
	}
	if in.CoverURL != nil {
		b.CoverURL = *in.CoverURL
	}
	if in.CoverData != nil {
		b.CoverData = *in.CoverData
	}
	if in.ISBN != nil {
		b.ISBN = *in.ISBN
	}
	if in.Publisher != nil {
		b.Publisher = *in.Publisher
	}
	if in.PublishedDate != nil {
		b.PublishedDate = *in.PublishedDate
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
}
