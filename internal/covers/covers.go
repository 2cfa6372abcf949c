// Package covers downloads book cover images and derives a BlurHash
// placeholder for them.
package covers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/logger"
	"github.com/listenupapp/shelfwise/internal/request"
)

// DefaultBaseURL is the Open Library covers host.
const DefaultBaseURL = "https://covers.openlibrary.org/"

// Cover is a downloaded cover image.
type Cover struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	BlurHash    string `json:"blur_hash,omitempty"`
	Size        int    `json:"size"`
	Data        []byte `json:"-"`
}

// Fetcher downloads covers through the request engine.
type Fetcher struct {
	doer    request.Doer
	baseURL string
	logger  *slog.Logger
}

// New creates a fetcher resolving cover paths against baseURL.
func New(doer request.Doer, baseURL string, log *slog.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		doer:    doer,
		baseURL: baseURL,
		logger:  logger.OrDiscard(log).With("component", "covers"),
	}
}

// ForDoc downloads the large cover of doc.
// Docs without any cover reference fail with errors.ErrNotFound.
func (f *Fetcher) ForDoc(ctx context.Context, doc *domain.Doc) (*Cover, error) {
	u := doc.CoverURL(f.baseURL)
	if u == "" {
		return nil, errors.NotFoundf("no cover for %q", doc.Title)
	}
	return f.Fetch(ctx, u)
}

// Fetch downloads the JPEG cover at url.
// An undecodable image is still returned, without dimensions or BlurHash.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Cover, error) {
	body, err := f.doer.Execute(ctx, request.Request{
		Method: http.MethodGet,
		URL:    url,
		Accept: request.JPEG,
	})
	if err != nil {
		return nil, err
	}

	cover := &Cover{
		URL:         url,
		ContentType: string(body.ContentType),
		Size:        len(body.Data),
		Data:        body.Data,
	}

	d, err := decode(body.Data)
	if err != nil {
		f.logger.Warn("cover image not decodable", "url", url, "error", err)
		return cover, nil
	}
	cover.Width, cover.Height, cover.BlurHash = d.width, d.height, d.blurHash
	return cover, nil
}
