package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelfwise/internal/covers"
	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Free-text search, twenty results per page",
		Tags:        []string{"Books"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "randomBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/random",
		Summary:     "Random books",
		Description: "Twenty well-rated books, reshuffled hourly",
		Tags:        []string{"Books"},
	}, s.handleRandom)

	huma.Register(s.api, huma.Operation{
		OperationID: "prefixBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/prefix",
		Summary:     "Search one field",
		Description: "Searches a single field such as subject or author",
		Tags:        []string{"Books"},
	}, s.handlePrefix)

	huma.Register(s.api, huma.Operation{
		OperationID: "home",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/home",
		Summary:     "Home screen",
		Description: "Categories plus suggestions and liked books for the logged-in user",
		Tags:        []string{"Books"},
	}, s.handleHome)

	huma.Register(s.api, huma.Operation{
		OperationID: "booksByAuthor",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/by-author",
		Summary:     "Same author",
		Description: "Other books by an author, or random books when there are none",
		Tags:        []string{"Books"},
	}, s.handleByAuthor)

	huma.Register(s.api, huma.Operation{
		OperationID: "bookCover",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/cover",
		Summary:     "Cover metadata",
		Description: "Downloads a cover and reports its size and BlurHash",
		Tags:        []string{"Books"},
	}, s.handleCover)

	huma.Register(s.api, huma.Operation{
		OperationID: "bookCoverImage",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/cover/image",
		Summary:     "Cover image",
		Description: "Downloads a cover and returns the image",
		Tags:        []string{"Books"},
	}, s.handleCoverImage)
}

// === DTOs ===

// SearchInput contains parameters for a free-text search.
type SearchInput struct {
	Query string `query:"q" required:"true" minLength:"1" doc:"Search terms"`
	Page  int    `query:"page" default:"1" minimum:"1" doc:"1-based page"`
}

// PrefixInput contains parameters for a single-field search.
type PrefixInput struct {
	Field string `query:"field" required:"true" enum:"subject,author,title,publisher,language,place,person,isbn" doc:"Field to search"`
	Value string `query:"value" required:"true" minLength:"1" doc:"Field value"`
	Page  int    `query:"page" minimum:"0" doc:"1-based page; 0 with limit 0 returns the first ten"`
	Limit int    `query:"limit" minimum:"0" maximum:"100" doc:"Results per page"`
}

// ByAuthorInput identifies the author to look up.
type ByAuthorInput struct {
	Author string `query:"author" required:"true" minLength:"1" doc:"Author name"`
}

// CoverInput identifies a cover by any of its references.
type CoverInput struct {
	Title           string `query:"title" doc:"Book title, for error messages"`
	CoverI          int64  `query:"cover_i" doc:"Cover id"`
	CoverEditionKey string `query:"olid" doc:"Edition key"`
	ISBN            string `query:"isbn" doc:"ISBN"`
}

func (c *CoverInput) toDoc() *domain.Doc {
	doc := &domain.Doc{Title: c.Title, CoverI: c.CoverI, CoverEditionKey: c.CoverEditionKey}
	if c.ISBN != "" {
		doc.ISBN = []string{c.ISBN}
	}
	return doc
}

// HomeOutput wraps the home screen for Huma.
type HomeOutput struct {
	Body *service.Home
}

// CoverOutput wraps cover metadata for Huma.
type CoverOutput struct {
	Body *covers.Cover
}

// CoverImageOutput carries the raw image.
type CoverImageOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	resp, err := s.services.Library.Search(ctx, input.Query, input.Page)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: resp}, nil
}

func (s *Server) handleRandom(ctx context.Context, _ *struct{}) (*SearchOutput, error) {
	resp, err := s.services.Library.Random(ctx)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: resp}, nil
}

func (s *Server) handlePrefix(ctx context.Context, input *PrefixInput) (*SearchOutput, error) {
	resp, err := s.services.Library.Prefix(ctx, input.Field, input.Value, input.Page, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: resp}, nil
}

func (s *Server) handleHome(ctx context.Context, _ *struct{}) (*HomeOutput, error) {
	home, err := s.services.Library.Home(ctx)
	if err != nil {
		return nil, err
	}
	return &HomeOutput{Body: home}, nil
}

func (s *Server) handleByAuthor(ctx context.Context, input *ByAuthorInput) (*SearchOutput, error) {
	resp, err := s.services.Library.SameAuthor(ctx, &domain.Doc{AuthorName: []string{input.Author}})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: resp}, nil
}

func (s *Server) handleCover(ctx context.Context, input *CoverInput) (*CoverOutput, error) {
	cover, err := s.services.Library.Cover(ctx, input.toDoc())
	if err != nil {
		return nil, err
	}
	return &CoverOutput{Body: cover}, nil
}

func (s *Server) handleCoverImage(ctx context.Context, input *CoverInput) (*CoverImageOutput, error) {
	cover, err := s.services.Library.Cover(ctx, input.toDoc())
	if err != nil {
		return nil, err
	}
	return &CoverImageOutput{
		ContentType:  cover.ContentType,
		CacheControl: "public, max-age=86400",
		Body:         cover.Data,
	}, nil
}
