// Package openlibrary queries the Open Library search API.
//
// Every call goes through the request engine expecting JSON and returns the
// decoded search response. Errors from the engine are returned unchanged.
package openlibrary

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/logger"
	"github.com/listenupapp/shelfwise/internal/request"
)

const (
	// DefaultBaseURL is the public Open Library host.
	DefaultBaseURL = "https://openlibrary.org"

	// DefaultLanguage filters random suggestions.
	DefaultLanguage = "eng"

	searchPath = "/search.json"
	fields     = "*,availability"

	searchLimit = 20
	prefixLimit = 10
)

// Config holds client settings.
type Config struct {
	BaseURL  string
	Language string
}

// Client is an Open Library search client.
type Client struct {
	doer     request.Doer
	baseURL  string
	language string
	logger   *slog.Logger
}

// New creates a client that sends requests through doer.
func New(doer request.Doer, cfg Config, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	return &Client{
		doer:     doer,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		language: cfg.Language,
		logger:   logger.OrDiscard(log),
	}
}

// Search runs a free-text query for the given 1-based page.
func (c *Client) Search(ctx context.Context, query string, page int) (*domain.SearchResponse, error) {
	q := url.Values{}
	q.Set("q", fold(query))
	q.Set("page", strconv.Itoa(max(page, 1)))
	q.Set("limit", strconv.Itoa(searchLimit))
	return c.search(ctx, "search", q)
}

// TwentyBooks returns twenty well-rated books in the configured language,
// reshuffled hourly by the API.
func (c *Client) TwentyBooks(ctx context.Context) (*domain.SearchResponse, error) {
	q := url.Values{}
	q.Set("q", "*")
	q.Add("sort", "rating")
	q.Add("sort", "random.hourly")
	q.Set("language", c.language)
	q.Set("limit", strconv.Itoa(searchLimit))
	return c.search(ctx, "twentyBooks", q)
}

// WithPrefix searches a single field, e.g. subject:fantasy, returning up to ten docs.
func (c *Client) WithPrefix(ctx context.Context, field, value string) (*domain.SearchResponse, error) {
	q := url.Values{}
	q.Set("q", prefixed(field, value))
	q.Set("limit", strconv.Itoa(prefixLimit))
	return c.search(ctx, "withPrefix", q)
}

// WithPrefixExtended is WithPrefix with caller-chosen paging.
func (c *Client) WithPrefixExtended(ctx context.Context, field, value string, page, limit int) (*domain.SearchResponse, error) {
	q := url.Values{}
	q.Set("q", prefixed(field, value))
	q.Set("page", strconv.Itoa(max(page, 1)))
	q.Set("limit", strconv.Itoa(max(limit, 1)))
	return c.search(ctx, "withPrefixExtended", q)
}

// ByTitleAndAuthor looks up the single best match for a title and author.
func (c *Client) ByTitleAndAuthor(ctx context.Context, title, author string) (*domain.SearchResponse, error) {
	q := url.Values{}
	q.Set("title", fold(title))
	q.Set("author", fold(author))
	q.Set("limit", "1")
	return c.search(ctx, "byTitleAndAuthor", q)
}

func (c *Client) search(ctx context.Context, op string, q url.Values) (*domain.SearchResponse, error) {
	q.Set("fields", fields)

	resp, err := request.Fetch[domain.SearchResponse](ctx, c.doer, request.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + searchPath + "?" + q.Encode(),
	})
	if err != nil {
		c.logger.Debug("search failed", "op", op, "error", err)
		return nil, err
	}

	c.logger.Debug("search complete", "op", op, "num_found", resp.NumFound, "docs", len(resp.Docs))
	return resp, nil
}

func prefixed(field, value string) string {
	return strings.ToLower(strings.TrimSpace(field)) + ":" + fold(value)
}

// fold trims, normalizes and case-folds a query value.
// A Caser is stateful, so each call builds its own.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}
