package openlibrary

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/shelfwise/internal/domain"
)

// DefaultCategories are the subjects shown on the home screen.
var DefaultCategories = []string{"fantasy", "horror", "thriller", "biographical", "adventure"}

const (
	sameAuthorPage  = 1
	sameAuthorLimit = 15
)

// Categories fetches every subject in parallel. Any failure fails the call.
func (c *Client) Categories(ctx context.Context, keys []string) (map[string]*domain.SearchResponse, error) {
	if len(keys) == 0 {
		keys = DefaultCategories
	}

	results := make([]*domain.SearchResponse, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			resp, err := c.WithPrefix(gctx, "subject", key)
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*domain.SearchResponse, len(keys))
	for i, key := range keys {
		out[key] = results[i]
	}
	return out, nil
}

// ResolveLiked looks up each liked book in parallel and returns the first
// match of every non-empty result, in liked order.
func (c *Client) ResolveLiked(ctx context.Context, liked []domain.LikedBook) ([]domain.Doc, error) {
	found := make([]*domain.Doc, len(liked))

	g, gctx := errgroup.WithContext(ctx)
	for i, book := range liked {
		g.Go(func() error {
			resp, err := c.ByTitleAndAuthor(gctx, book.Title, book.Author)
			if err != nil {
				return err
			}
			if len(resp.Docs) > 0 {
				found[i] = &resp.Docs[0]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]domain.Doc, 0, len(liked))
	for _, d := range found {
		if d != nil {
			docs = append(docs, *d)
		}
	}
	return docs, nil
}

// SameAuthor returns other books by the doc's first author. When the author
// has a single book the random suggestions are returned instead.
func (c *Client) SameAuthor(ctx context.Context, doc *domain.Doc) (*domain.SearchResponse, error) {
	author := doc.FirstAuthor()
	if author == "" {
		return c.TwentyBooks(ctx)
	}

	resp, err := c.WithPrefixExtended(ctx, "author", author, sameAuthorPage, sameAuthorLimit)
	if err != nil {
		return nil, err
	}
	if resp.NumFound == 1 {
		return c.TwentyBooks(ctx)
	}
	return resp, nil
}
