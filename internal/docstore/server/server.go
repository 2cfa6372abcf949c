// Package server exposes any docstore.Store over the document storage HTTP
// API used by httpstore.
package server

import (
	"crypto/subtle"
	"encoding/json/jsontext"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/listenupapp/shelfwise/internal/docstore"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/http/response"
	"github.com/listenupapp/shelfwise/internal/logger"
)

// APIKeyHeader is the header clients authenticate with.
const APIKeyHeader = "X-Api-Key"

// maxDocumentSize caps request bodies.
const maxDocumentSize = 1 << 20

type createResponse struct {
	ID string `json:"id"`
}

type listResponse struct {
	IDs []string `json:"ids"`
}

// Server serves the storage API.
type Server struct {
	store  docstore.Store
	apiKey string
	router *chi.Mux
	logger *slog.Logger
}

// New creates a server over store. Requests must carry apiKey.
func New(store docstore.Store, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		apiKey: apiKey,
		router: chi.NewRouter(),
		logger: logger.OrDiscard(log),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "healthy"}, s.logger)
	})

	s.router.Route("/documents", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Put("/{id}", s.handleUpdate)
	})
}

// requireAPIKey rejects requests without the configured key.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			response.Error(w, errors.Unauthorized("missing or invalid API key"), s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	h, err := s.store.Create(r.Context(), data)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.logger.Debug("document created", "handle", h)
	response.Created(w, createResponse{ID: h.String()}, s.logger)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	handles, err := s.store.List(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	ids := make([]string, len(handles))
	for i, h := range handles {
		ids[i] = h.String()
	}
	response.JSON(w, http.StatusOK, listResponse{IDs: ids}, s.logger)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Get(r.Context(), docstore.Handle(chi.URLParam(r, "id")))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Raw(w, http.StatusOK, data)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	if err := s.store.Update(r.Context(), docstore.Handle(chi.URLParam(r, "id")), data); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// readDocument reads and checks a JSON request body.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		response.Error(w, errors.Validation("document too large or unreadable"), s.logger)
		return nil, false
	}
	if !jsontext.Value(data).IsValid() {
		response.Error(w, errors.Validation("document is not valid JSON"), s.logger)
		return nil, false
	}
	return data, true
}
