package googlebooks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bookshelf/internal/platform/requests"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.googleapis.com/books/v1"

var (
	// ErrNotFound means the query matched no volumes.
	ErrNotFound = errors.New("no matching book found")
	// ErrUnavailable means the upstream could not be reached after the retry
	// budget, or the circuit breaker is open. Handlers map it to 503.
	ErrUnavailable = errors.New("google books unavailable")
)

// ExternalBook is the normalized book-summary shape. It is transient: results
// live for one request/response cycle and are never persisted as-is.
type ExternalBook struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	CoverURL      string   `json:"coverUrl"`
	ISBN          string   `json:"isbn"`
	Publisher     string   `json:"publisher"`
	PublishedDate string   `json:"publishedDate"`
	Description   string   `json:"description"`
	Authors       []string `json:"-"`
}

// SearchResult is a normalized volumes search response.
type SearchResult struct {
	Books      []ExternalBook `json:"books"`
	TotalItems int            `json:"totalItems"`
}

// volumesResponse matches the Google Books volumes API.
type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title               string   `json:"title"`
			Authors             []string `json:"authors"`
			Publisher           string   `json:"publisher"`
			PublishedDate       string   `json:"publishedDate"`
			Description         string   `json:"description"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
			ImageLinks struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Config tunes the client. Zero values mean: public API base URL, a fresh
// façade client with a 10s per-attempt timeout, 5 requests/second, 5 minute
// cache TTL.
type Config struct {
	BaseURL  string
	Requests *requests.Client
	RPS      int
	CacheTTL time.Duration
}

type Client struct {
	baseURL string
	req     *requests.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*requests.Response]
	cache   *queryCache
	group   singleflight.Group
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Requests == nil {
		cfg.Requests = requests.New(requests.Config{Timeout: 10 * time.Second})
	}
	if cfg.RPS == 0 {
		cfg.RPS = 5
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		req:     cfg.Requests,
		limiter: rate.NewLimiter(rate.Every(time.Second/time.Duration(cfg.RPS)), 1),
		cache:   newQueryCache(cfg.CacheTTL),
	}

	c.breaker = gobreaker.NewCircuitBreaker[*requests.Response](gobreaker.Settings{
		Name:    "googlebooks",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors are the caller's problem, not upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || !requests.Retryable(err)
		},
	})

	return c
}

// Search runs a free-text volumes query and normalizes the result. Identical
// concurrent queries are collapsed, and results are cached until the TTL
// elapses or a caller invalidates them.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	if cached, ok := c.cache.get(query); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(query, func() (interface{}, error) {
		res, err := c.fetch(ctx, query)
		if err != nil {
			return nil, err
		}
		c.cache.set(query, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SearchResult), nil
}

// LookupISBN returns the first volume matching the ISBN, or ErrNotFound.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*ExternalBook, error) {
	res, err := c.Search(ctx, "isbn:"+isbn)
	if err != nil {
		return nil, err
	}
	if len(res.Books) == 0 {
		return nil, ErrNotFound
	}
	b := res.Books[0]
	return &b, nil
}

// InvalidateQuery drops one cached query result.
func (c *Client) InvalidateQuery(query string) {
	c.cache.invalidate(query)
}

// InvalidateCache drops every cached query result.
func (c *Client) InvalidateCache() {
	c.cache.invalidateAll()
}

func (c *Client) fetch(ctx context.Context, query string) (*SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/volumes?q=%s&maxResults=10", c.baseURL, url.QueryEscape(query))

	resp, err := c.breaker.Execute(func() (*requests.Response, error) {
		return c.req.Do(ctx, "GET", u, nil)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		if requests.Retryable(err) || errors.Is(err, context.DeadlineExceeded) {
			// Retry budget already spent inside the façade.
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}

	var raw volumesResponse
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("decode volumes response: %w", err)
	}
	return normalize(&raw), nil
}

func normalize(raw *volumesResponse) *SearchResult {
	result := &SearchResult{TotalItems: raw.TotalItems}
	for _, item := range raw.Items {
		info := item.VolumeInfo

		var isbn string
		for _, ident := range info.IndustryIdentifiers {
			if ident.Type == "ISBN_13" {
				isbn = ident.Identifier
				break
			}
			if ident.Type == "ISBN_10" && isbn == "" {
				isbn = ident.Identifier
			}
		}

		result.Books = append(result.Books, ExternalBook{
			ID:            item.ID,
			Title:         info.Title,
			Author:        strings.Join(info.Authors, ", "),
			Authors:       info.Authors,
			CoverURL:      info.ImageLinks.Thumbnail,
			ISBN:          isbn,
			Publisher:     info.Publisher,
			PublishedDate: info.PublishedDate,
			Description:   info.Description,
		})
	}
	if result.TotalItems == 0 {
		result.TotalItems = len(result.Books)
	}
	return result
}
