// Package server exposes an Orchestrator over HTTP: a JSON REST API served
// by echo and a Connect RPC service (docchat.v1.ChatService) mounted on the
// same listener.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tailored-agentic-units/docchat/corpus"
	"github.com/tailored-agentic-units/docchat/ingest"
	"github.com/tailored-agentic-units/docchat/kernel"
	"github.com/tailored-agentic-units/docchat/observability"
	"github.com/tailored-agentic-units/docchat/retrieval"
	"github.com/tailored-agentic-units/docchat/session"
)

// Answerer is the orchestrator surface the server needs.
// *kernel.Orchestrator satisfies it.
type Answerer interface {
	Query(ctx context.Context, question, sessionID string) (kernel.QueryState, error)
	ResetMemory(ctx context.Context, sessionID string)
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// Library manages the indexed document corpus. *ingest.Pipeline satisfies
// it.
type Library interface {
	List(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, entries ...corpus.Entry) (ingest.Stats, error)
	Remove(ctx context.Context, keys ...string) error
}

// WithLibrary serves the corpus under /api/documents.
func WithLibrary(l Library) Option {
	return func(s *Server) { s.library = l }
}

// WithObserver reports request events to o.
func WithObserver(o observability.Observer) Option {
	return func(s *Server) { s.observer = o }
}

// Server routes HTTP and RPC requests to an Answerer.
type Server struct {
	echo     *echo.Echo
	answerer Answerer
	cfg      kernel.ServerConfig
	metrics  http.Handler
	library  Library
	observer observability.Observer
}

// New creates a Server and registers its routes.
func New(a Answerer, cfg kernel.ServerConfig, opts ...Option) *Server {
	s := &Server{
		echo:     echo.New(),
		answerer: a,
		cfg:      cfg,
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.observer = observability.OrNoOp(s.observer)

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			observability.Emit(c.Request().Context(), s.observer, EventRequest, observability.LevelVerbose, "server", map[string]any{
				"method":   v.Method,
				"path":     v.URIPath,
				"status":   v.Status,
				"duration": v.Latency,
			})
			return nil
		},
	}))

	e.GET("/healthz", s.health)
	e.POST("/api/query", s.query)
	e.DELETE("/api/sessions/:id", s.resetSession)
	e.GET("/api/documents", s.documents)
	e.POST("/api/documents", s.uploadDocument)
	e.DELETE("/api/documents/*", s.removeDocument)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	for procedure, handler := range s.rpcHandlers() {
		e.POST(procedure, echo.WrapHandler(handler))
	}

	return s
}

// Handler returns the root handler for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on cfg.Addr until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start(ctx context.Context) error {
	observability.Emit(ctx, s.observer, EventStart, observability.LevelInfo, "server", map[string]any{
		"addr": s.cfg.Addr,
	})
	if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests up
// to cfg.ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	observability.Emit(ctx, s.observer, EventStop, observability.LevelInfo, "server", nil)
	return s.echo.Shutdown(ctx)
}

// QueryRequest is the /api/query body.
type QueryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// Source is a retrieved passage returned with an answer.
type Source struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// QueryResponse is the /api/query reply.
type QueryResponse struct {
	Answer           string   `json:"answer"`
	SessionID        string   `json:"session_id"`
	IsSummaryRequest bool     `json:"is_summary_request"`
	SummaryType      string   `json:"summary_type"`
	Sources          []Source `json:"sources"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}
	if req.SessionID == "" {
		req.SessionID = session.NewID()
	}

	final, err := s.answerer.Query(c.Request().Context(), req.Question, req.SessionID)
	if err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, newQueryResponse(final))
}

func (s *Server) resetSession(c echo.Context) error {
	s.answerer.ResetMemory(c.Request().Context(), c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) documents(c echo.Context) error {
	if s.library == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no corpus configured")
	}
	keys, err := s.library.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if keys == nil {
		keys = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{"documents": keys, "count": len(keys)})
}

// uploadDocument stores the multipart "file" under "<category>/<filename>"
// (or just the filename without a category) and indexes it.
func (s *Server) uploadDocument(c echo.Context) error {
	if s.library == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no corpus configured")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	key := path.Base(fh.Filename)
	if key == "." || key == "/" {
		return echo.NewHTTPError(http.StatusBadRequest, "file name is required")
	}
	if category := strings.TrimSpace(c.FormValue("category")); category != "" {
		key = category + "/" + key
	}

	stats, err := s.library.Upsert(c.Request().Context(), corpus.Entry{Key: key, Value: data})
	if err != nil {
		return echo.NewHTTPError(libraryStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]any{"key": key, "chunks": stats.Chunks})
}

func (s *Server) removeDocument(c echo.Context) error {
	if s.library == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no corpus configured")
	}
	if err := s.library.Remove(c.Request().Context(), c.Param("*")); err != nil {
		return echo.NewHTTPError(libraryStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func libraryStatus(err error) int {
	if errors.Is(err, corpus.ErrInvalidKey) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func newQueryResponse(final kernel.QueryState) QueryResponse {
	sources := make([]Source, len(final.Documents))
	for i, d := range final.Documents {
		sources[i] = Source{Content: d.Content, Metadata: d.Metadata}
	}
	return QueryResponse{
		Answer:           final.Answer,
		SessionID:        final.SessionID,
		IsSummaryRequest: final.IsSummaryRequest,
		SummaryType:      string(final.SummaryType),
		Sources:          sources,
	}
}

// httpStatus maps query failures: an unavailable index is a bad gateway,
// a cancelled request is a timeout, anything else is internal.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, retrieval.ErrSearchFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
