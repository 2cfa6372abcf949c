package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/shelfwise/internal/covers"
	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/logger"
	"github.com/listenupapp/shelfwise/internal/openlibrary"
	"github.com/listenupapp/shelfwise/internal/session"
)

// Home is everything the home screen shows.
type Home struct {
	Categories  map[string][]domain.Doc `json:"categories"`
	Suggestions []domain.Doc            `json:"suggestions"`
	Liked       []domain.Doc            `json:"liked"`
}

// LibraryService answers book queries, personalized by the session user.
type LibraryService struct {
	books      *openlibrary.Client
	covers     *covers.Fetcher
	session    *session.Session
	categories []string
	logger     *slog.Logger
}

// NewLibraryService creates a library service.
func NewLibraryService(
	books *openlibrary.Client,
	fetcher *covers.Fetcher,
	sess *session.Session,
	log *slog.Logger,
) *LibraryService {
	return &LibraryService{
		books:      books,
		covers:     fetcher,
		session:    sess,
		categories: openlibrary.DefaultCategories,
		logger:     logger.OrDiscard(log).With("component", "library"),
	}
}

// Home loads categories, suggestions from the recent book's subject and the
// resolved liked books in parallel. Only a category failure fails the call;
// personal sections are left empty when their lookups fail.
func (s *LibraryService) Home(ctx context.Context) (*Home, error) {
	home := &Home{Suggestions: []domain.Doc{}, Liked: []domain.Doc{}}
	user := s.session.User()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cats, err := s.books.Categories(gctx, s.categories)
		if err != nil {
			return err
		}
		home.Categories = make(map[string][]domain.Doc, len(cats))
		for key, resp := range cats {
			home.Categories[key] = resp.Docs
		}
		return nil
	})

	if user != nil && user.RecentBook != nil && user.RecentBook.Subject != "" {
		g.Go(func() error {
			resp, err := s.books.WithPrefix(gctx, "subject", user.RecentBook.Subject)
			if err != nil {
				s.logger.Warn("failed to load suggestions", "subject", user.RecentBook.Subject, "error", err)
				return nil
			}
			home.Suggestions = resp.Docs
			return nil
		})
	}

	if user != nil && len(user.LikedBooks) > 0 {
		g.Go(func() error {
			docs, err := s.books.ResolveLiked(gctx, user.LikedBooks)
			if err != nil {
				s.logger.Warn("failed to resolve liked books", "count", len(user.LikedBooks), "error", err)
				return nil
			}
			home.Liked = docs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return home, nil
}

// Search runs a free-text query.
func (s *LibraryService) Search(ctx context.Context, query string, page int) (*domain.SearchResponse, error) {
	return s.books.Search(ctx, query, page)
}

// Random returns twenty rated books, reshuffled hourly.
func (s *LibraryService) Random(ctx context.Context) (*domain.SearchResponse, error) {
	return s.books.TwentyBooks(ctx)
}

// Prefix searches one field. A page or limit of zero uses the short
// single-page form.
func (s *LibraryService) Prefix(ctx context.Context, field, value string, page, limit int) (*domain.SearchResponse, error) {
	if page <= 0 && limit <= 0 {
		return s.books.WithPrefix(ctx, field, value)
	}
	return s.books.WithPrefixExtended(ctx, field, value, page, limit)
}

// SameAuthor returns other books by the doc's author.
func (s *LibraryService) SameAuthor(ctx context.Context, doc *domain.Doc) (*domain.SearchResponse, error) {
	return s.books.SameAuthor(ctx, doc)
}

// Cover downloads the cover of doc.
func (s *LibraryService) Cover(ctx context.Context, doc *domain.Doc) (*covers.Cover, error) {
	return s.covers.ForDoc(ctx, doc)
}
