// Package apiclient is a typed Go client for the bookshelf HTTP API,
// built on the retrying request façade. It is what the CLI uses; any
// other Go consumer of the API can use it the same way.
package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/requests"
	"bookshelf/internal/recognize"
)

type Client struct {
	base string
	req  *requests.Client
}

// New builds a client for the API at base (e.g. "http://localhost:8080").
func New(base string, cfg requests.Config) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		req:  requests.New(cfg),
	}
}

func (c *Client) ListBooks(ctx context.Context) ([]book.Book, error) {
	var books []book.Book
	return books, c.getJSON(ctx, "/api/books", &books)
}

func (c *Client) GetBook(ctx context.Context, id int) (*book.Book, error) {
	var b book.Book
	if err := c.getJSON(ctx, fmt.Sprintf("/api/books/%d", id), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) CreateBook(ctx context.Context, in book.CreateInput) (*book.Book, error) {
	res, err := c.req.Do(ctx, "POST", c.base+"/api/books", in)
	if err != nil {
		return nil, err
	}
	var b book.Book
	if err := res.JSON(&b); err != nil {
		return nil, fmt.Errorf("decode created book: %w", err)
	}
	return &b, nil
}

func (c *Client) UpdateBook(ctx context.Context, id int, in book.UpdateInput) (*book.Book, error) {
	res, err := c.req.Do(ctx, "PUT", fmt.Sprintf("%s/api/books/%d", c.base, id), in)
	if err != nil {
		return nil, err
	}
	var b book.Book
	if err := res.JSON(&b); err != nil {
		return nil, fmt.Errorf("decode updated book: %w", err)
	}
	return &b, nil
}

func (c *Client) DeleteBook(ctx context.Context, id int) error {
	_, err := c.req.Do(ctx, "DELETE", fmt.Sprintf("%s/api/books/%d", c.base, id), nil)
	return err
}

func (c *Client) SearchBooks(ctx context.Context, query string) ([]book.Book, error) {
	var books []book.Book
	return books, c.getJSON(ctx, "/api/books/search/text?q="+url.QueryEscape(query), &books)
}

func (c *Client) SearchExternal(ctx context.Context, query string) (*googlebooks.SearchResult, error) {
	var result googlebooks.SearchResult
	if err := c.getJSON(ctx, "/api/external/books?q="+url.QueryEscape(query), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) LookupISBN(ctx context.Context, isbn string) (*googlebooks.ExternalBook, error) {
	var b googlebooks.ExternalBook
	if err := c.getJSON(ctx, "/api/external/books/isbn/"+url.PathEscape(isbn), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) Recommendations(ctx context.Context) ([]googlebooks.ExternalBook, error) {
	var books []googlebooks.ExternalBook
	return books, c.getJSON(ctx, "/api/recommendations", &books)
}

// ProcessCover uploads a cover image for OCR-assisted field extraction.
func (c *Client) ProcessCover(ctx context.Context, filename string, file io.Reader) (*recognize.Result, error) {
	res, err := c.req.Upload(ctx, c.base+"/api/books/ocr", "cover", filename, file)
	if err != nil {
		return nil, err
	}
	var result recognize.Result
	if err := res.JSON(&result); err != nil {
		return nil, fmt.Errorf("decode recognition result: %w", err)
	}
	return &result, nil
}

// SearchByImage uploads a cover image and searches the stored collection
// with the recognized text.
func (c *Client) SearchByImage(ctx context.Context, filename string, file io.Reader) (*recognize.ImageSearchResult, error) {
	res, err := c.req.Upload(ctx, c.base+"/api/books/search/image", "cover", filename, file)
	if err != nil {
		return nil, err
	}
	var result recognize.ImageSearchResult
	if err := res.JSON(&result); err != nil {
		return nil, fmt.Errorf("decode image search result: %w", err)
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	res, err := c.req.Do(ctx, "GET", c.base+path, nil)
	if err != nil {
		return err
	}
	if err := res.JSON(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
