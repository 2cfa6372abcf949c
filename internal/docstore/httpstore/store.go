// Package httpstore talks to a remote document store over its HTTP API.
package httpstore

import (
	"context"
	"encoding/json/jsontext"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/listenupapp/shelfwise/internal/docstore"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/logger"
	"github.com/listenupapp/shelfwise/internal/request"
)

// APIKeyHeader carries the store credential on every request.
const APIKeyHeader = "X-Api-Key"

type createResponse struct {
	ID string `json:"id"`
}

type listResponse struct {
	IDs []string `json:"ids"`
}

// Store is a docstore.Store backed by the remote storage API.
type Store struct {
	doer    request.Doer
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

var _ docstore.Store = (*Store)(nil)

// New creates a store client rooted at baseURL.
func New(doer request.Doer, baseURL, apiKey string, log *slog.Logger) *Store {
	return &Store{
		doer:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.OrDiscard(log),
	}
}

// Create stores a new document and returns its handle.
func (s *Store) Create(ctx context.Context, data []byte) (docstore.Handle, error) {
	if !jsontext.Value(data).IsValid() {
		return "", errors.Validation("document is not valid JSON")
	}

	resp, err := request.Fetch[createResponse](ctx, s.doer, s.req(http.MethodPost, s.collectionURL(), data))
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.Internal("document store returned an empty id")
	}
	return docstore.Handle(resp.ID), nil
}

// List returns every handle in store order.
func (s *Store) List(ctx context.Context) ([]docstore.Handle, error) {
	resp, err := request.Fetch[listResponse](ctx, s.doer, s.req(http.MethodGet, s.collectionURL(), nil))
	if err != nil {
		return nil, err
	}

	handles := make([]docstore.Handle, len(resp.IDs))
	for i, id := range resp.IDs {
		handles[i] = docstore.Handle(id)
	}
	return handles, nil
}

// Get returns the raw document at h.
func (s *Store) Get(ctx context.Context, h docstore.Handle) ([]byte, error) {
	req := s.req(http.MethodGet, s.documentURL(h), nil)
	req.Accept = request.JSON

	body, err := s.doer.Execute(ctx, req)
	if err != nil {
		return nil, notFound(h, err)
	}
	return body.Data, nil
}

// Update replaces the document at h.
func (s *Store) Update(ctx context.Context, h docstore.Handle, data []byte) error {
	if !jsontext.Value(data).IsValid() {
		return errors.Validation("document is not valid JSON")
	}

	req := s.req(http.MethodPut, s.documentURL(h), data)
	req.Accept = request.None

	if _, err := s.doer.Execute(ctx, req); err != nil {
		return notFound(h, err)
	}
	s.logger.Debug("document updated", "handle", h)
	return nil
}

func (s *Store) req(method, target string, data []byte) request.Request {
	r := request.Request{
		Method: method,
		URL:    target,
		Header: http.Header{APIKeyHeader: []string{s.apiKey}},
	}
	if data != nil {
		r.Payload = jsontext.Value(data)
	}
	return r
}

func (s *Store) collectionURL() string {
	return s.baseURL + "/documents"
}

func (s *Store) documentURL(h docstore.Handle) string {
	return s.collectionURL() + "/" + url.PathEscape(string(h))
}

// notFound turns an upstream 404 into the store's not-found error.
func notFound(h docstore.Handle, err error) error {
	var e *errors.Error
	if errors.As(err, &e) && e.MessageKey == errors.KeyGeneric && e.Status == http.StatusNotFound {
		return docstore.NotFound(h).WithCause(err)
	}
	return err
}
