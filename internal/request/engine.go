// Package request executes HTTP calls for the data-access layer under a
// fixed per-call timeout, negotiates the response media type and turns
// every failure into an *errors.Error.
package request

import (
	"bytes"
	"context"
	"encoding/json/v2"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/ratelimit"
)

const (
	// DefaultTimeout bounds a single HTTP call.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "Shelfwise/1.0"

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 32 << 20
)

// Doer executes a request. Clients depend on this rather than *Engine.
type Doer interface {
	Execute(ctx context.Context, req Request) (*Body, error)
}

// Request describes one HTTP call.
type Request struct {
	Method  string
	URL     string
	Payload any         // JSON-encoded when non-nil
	Accept  ContentType // None when no body is expected
	Header  http.Header // extra headers, e.g. API keys
}

// Config holds engine settings.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	// Limiter throttles calls per host. Nil disables throttling.
	Limiter *ratelimit.HostLimiter
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Engine is the timeout-bounded HTTP request pipeline.
type Engine struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *ratelimit.HostLimiter
	logger    *slog.Logger
}

// New creates an engine. The underlying client gets a backstop timeout of
// twice the engine timeout so calls the engine stopped waiting on still end.
func New(cfg Config, logger *slog.Logger) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * cfg.Timeout}
	}

	return &Engine{
		http:      client,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		limiter:   cfg.Limiter,
		logger:    logger,
	}
}

// Timeout returns the per-call timeout.
func (e *Engine) Timeout() time.Duration {
	return e.timeout
}

// result is what the network goroutine hands back.
type result struct {
	status int
	header http.Header
	data   []byte
	err    error
}

// Execute performs req and returns the negotiated body.
//
// The call races a timer. When the timer fires first the engine returns a
// timeout error and stops waiting; a late result is dropped. The timer does
// not cancel the call itself.
//
// Every 2xx status is success. When req.Accept is set the declared media type
// must match it, so a 204 without a Content-Type fails with
// errors.ErrBadContentType.
func (e *Engine) Execute(ctx context.Context, req Request) (*Body, error) {
	if err := e.limiter.WaitURL(ctx, req.URL); err != nil {
		return nil, e.contextError(ctx, err)
	}

	httpReq, err := e.build(ctx, req)
	if err != nil {
		return nil, err
	}

	requestID := httpReq.Header.Get("X-Request-ID")
	e.logger.Debug("outbound request",
		"method", httpReq.Method,
		"url", httpReq.URL.Redacted(),
		"request_id", requestID,
	)

	done := make(chan result, 1)
	go func() {
		done <- e.do(httpReq)
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return e.handle(req, r)
	case <-timer.C:
		e.logger.Warn("request timed out",
			"method", httpReq.Method,
			"url", httpReq.URL.Redacted(),
			"request_id", requestID,
			"timeout", e.timeout,
		)
		return nil, errors.Timeout(fmt.Sprintf("no response within %s", e.timeout))
	case <-ctx.Done():
		return nil, e.contextError(ctx, ctx.Err())
	}
}

// build creates the outgoing request with the standard headers.
func (e *Engine) build(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Payload != nil {
		data, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, errors.Wrap(err, errors.KeyInternal, "encode request payload")
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.KeyInternal, "create request")
	}

	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Payload != nil {
		httpReq.Header.Set("Content-Type", string(JSON))
	}
	if req.Accept != None {
		httpReq.Header.Set("Accept", string(req.Accept))
	}
	httpReq.Header.Set("User-Agent", e.userAgent)
	httpReq.Header.Set("Request-Timeout", strconv.Itoa(int(e.timeout.Seconds())))
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	return httpReq, nil
}

// do runs the call and reads the whole body.
func (e *Engine) do(httpReq *http.Request) result {
	resp, err := e.http.Do(httpReq)
	if err != nil {
		return result{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return result{err: fmt.Errorf("read response: %w", err)}
	}

	return result{status: resp.StatusCode, header: resp.Header, data: data}
}

// handle maps a finished call to a body or a typed error.
func (e *Engine) handle(req Request, r result) (*Body, error) {
	if r.err != nil {
		var netErr net.Error
		if stderrors.Is(r.err, context.DeadlineExceeded) || (stderrors.As(r.err, &netErr) && netErr.Timeout()) {
			return nil, errors.Timeout("request timed out").WithCause(r.err)
		}
		e.logger.Warn("request failed", "url", req.URL, "error", r.err)
		return nil, errors.Fetch(r.err)
	}

	switch {
	case r.status == http.StatusUnauthorized:
		return nil, errors.Unauthorized("unauthorized")
	case r.status < 200 || r.status > 299:
		e.logger.Debug("unsuccessful response", "url", req.URL, "status", r.status)
		return nil, errors.Generic(r.status)
	}

	if req.Accept == None {
		return &Body{}, nil
	}

	body, err := negotiate(req.Accept, r.header.Get("Content-Type"), r.data)
	if err != nil {
		e.logger.Warn("response rejected",
			"url", req.URL,
			"expected", req.Accept,
			"content_type", r.header.Get("Content-Type"),
			"error", err,
		)
		return nil, err
	}

	e.logger.Debug("response received",
		"url", req.URL,
		"content_type", body.ContentType,
		"bytes", len(body.Data),
	)

	return body, nil
}

// contextError maps a context failure to the error taxonomy.
func (e *Engine) contextError(ctx context.Context, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Timeout("request deadline exceeded").WithCause(err)
	}
	return errors.Fetch(err)
}

// Fetch executes req expecting JSON and decodes the body into a new T.
func Fetch[T any](ctx context.Context, d Doer, req Request) (*T, error) {
	req.Accept = JSON
	body, err := d.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	var out T
	if err := body.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
