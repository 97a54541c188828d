// Package transport implements the line-oriented tool-call protocol (§6.1):
// a TCP listener accepting newline-delimited JSON requests, dispatching each
// into the core service, and writing newline-delimited JSON responses.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
)

const (
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds the transport server's configuration.
type Config struct {
	Listen  string   `mapstructure:"listen"`
	APIKeys []string `mapstructure:"api_keys"` //nolint:gosec // config field, not a secret value
}

// Request is a single decoded line of the transport's request frame.
type Request struct {
	ID     string          `json:"id"`
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"params"`
	APIKey string          `json:"api_key,omitempty"`
}

// Response is a single encoded line of the transport's response frame.
type Response struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ValidationError is returned when a request's params fail validation before
// any tool logic runs.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Handler dispatches a single tool call to the core service and returns its
// result. A ValidationError fails the request before any tool logic runs and
// is surfaced as a top-level transport error; any other error is an
// operation-level failure and is surfaced as {"status":"error","message":...}
// in the response's result field, per spec.md's literal "on any exception"
// contract.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Server is the TCP line-oriented tool-call server.
type Server struct {
	cfg      Config
	handlers map[string]Handler
	log      *slog.Logger
}

// New builds a Server dispatching to the given per-tool handlers.
func New(cfg Config, handlers map[string]Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	return &Server{cfg: cfg, handlers: handlers, log: log}
}

// Run listens on cfg.Listen and serves connections until ctx is cancelled,
// then closes the listener and returns. There is no shutdown timeout:
// connections that are already open are neither closed nor waited for.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Listen == "" {
		return fmt.Errorf("transport: listen address must be specified")
	}

	lc := net.ListenConfig{}

	ln, err := lc.Listen(ctx, "tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}

	go func() {
		<-ctx.Done()

		s.log.Warn("shutting down transport server")

		if err := ln.Close(); err != nil {
			s.log.Error("closing transport listener failed", "error", err)
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			return fmt.Errorf("accept connection: %w", err)
		}

		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	writer := bufio.NewWriter(conn)
	defer writer.Flush()

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.dispatch(ctx, line)

		data, err := json.Marshal(resp)
		if err != nil {
			s.log.Error("marshal response failed", "error", err)
			continue
		}

		if _, err := writer.Write(data); err != nil {
			return
		}

		if _, err := writer.Write([]byte("\n")); err != nil {
			return
		}

		if err := writer.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{Error: fmt.Sprintf("invalid request: %s", err)}
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	ctx = withRequestID(ctx, req.ID)

	if !s.authorized(req) {
		return Response{ID: req.ID, Error: "unauthorized"}
	}

	handler, ok := s.handlers[req.Tool]
	if !ok {
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.log.WarnContext(ctx, "validation error", "tool", req.Tool, "error", err)
			return Response{ID: req.ID, Error: err.Error()}
		}

		s.log.ErrorContext(ctx, "tool call failed", "tool", req.Tool, "error", err)

		return Response{ID: req.ID, Result: map[string]any{
			"status":  "error",
			"message": err.Error(),
		}}
	}

	return Response{ID: req.ID, Result: result}
}

// authorized checks the optional bearer API key carried in the request
// frame's top-level api_key field, compared with crypto/subtle.ConstantTimeCompare, adapted from the
// reference stack's auth middleware — generalized from an HTTP Authorization
// header to a frame field, and disabled by default (no keys configured)
// since spec.md's core has no auth requirement.
func (s *Server) authorized(req Request) bool {
	if len(s.cfg.APIKeys) == 0 {
		return true
	}

	return isValidKey(req.APIKey, s.cfg.APIKeys)
}
