package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MCPHandler handles MCP method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, sessionID, method string, params json.RawMessage) (any, error)
}

// CodedError is a dispatch failure that carries a stable error code.
type CodedError interface {
	error
	CodeValue() string
	MessageValue() string
	DetailsValue() any
	RecoveryHintValue() string
}

// Options configures the HTTP router.
type Options struct {
	// MCP serves the streamable MCP endpoint at /mcp. Optional.
	MCP http.Handler
	// Metrics serves MetricsPath. Optional.
	Metrics     http.Handler
	MetricsPath string
	Logger      *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler MCPHandler
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware. The JSON-RPC
// endpoint lives at /rpc.
func NewServer(handler MCPHandler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(SessionMiddleware)

	srv := &Server{handler: handler, logger: logger}

	r.Post("/rpc", srv.handleRPC)
	r.Get("/health", srv.handleHealth)
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, opts.Metrics)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, parseErrorCode(err), err.Error(), nil)
		return
	}

	sessionID, _ := ConsoleSession(r.Context())
	result, err := s.handler.Handle(r.Context(), sessionID, req.Method, req.Params)

	if req.IsNotification() {
		if err != nil {
			s.logger.Debug("rpc notification failed", "method", req.Method, "error", err)
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.writeHandlerError(w, req, err)
		return
	}
	WriteResult(w, req.ID, result)
}

func (s *Server) writeHandlerError(w http.ResponseWriter, req Request, err error) {
	var coded CodedError
	if !errors.As(err, &coded) {
		s.logger.Error("rpc dispatch failed", "method", req.Method, "error", err)
		WriteError(w, req.ID, ErrInternal, err.Error(), nil)
		return
	}

	code := ErrApplication
	switch coded.CodeValue() {
	case "UNKNOWN_METHOD":
		code = ErrMethodNotFound
	case "INVALID_PARAMS":
		code = ErrInvalidParams
	}
	WriteError(w, req.ID, code, coded.MessageValue(), ErrorData{
		Code:         coded.CodeValue(),
		Details:      coded.DetailsValue(),
		RecoveryHint: coded.RecoveryHintValue(),
	})
}
