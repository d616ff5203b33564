// Package server serves a scanned music directory: the cached file list,
// the listed files and an optional static site.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/olivier-w/audiovisual/internal/library"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// Dir is the served music directory. Empty serves an empty list.
	Dir string
	// Dist is a static site directory served at the root, if set.
	Dist   string
	Logger *slog.Logger
}

// Server serves only files named in its list.
type Server struct {
	dir     string
	dist    string
	list    []byte
	allowed map[string]bool
	logger  *slog.Logger
}

// New creates a server for entries, whose encoded form raw is returned
// verbatim from the list endpoint.
func New(opts Options, entries []library.Entry, raw []byte) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if raw == nil {
		raw = []byte("[]")
	}
	allowed := make(map[string]bool, len(entries))
	for _, e := range entries {
		allowed[e.URL] = true
	}
	return &Server{
		dir:     opts.Dir,
		dist:    opts.Dist,
		list:    raw,
		allowed: allowed,
		logger:  logger,
	}
}

// Handler returns the HTTP routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+library.ListPath, s.serveList)
	mux.HandleFunc("GET "+library.FilesPrefix+"/", s.serveFile)
	if s.dist != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.dist)))
	}
	return s.logRequests(mux)
}

func (s *Server) serveList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err := w.Write(s.list); err != nil {
		s.logger.Debug("writing file list", slog.Any("error", err))
	}
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	if !s.allowed[r.URL.Path] || s.dir == "" {
		http.NotFound(w, r)
		return
	}
	rel := strings.TrimPrefix(r.URL.Path, library.FilesPrefix+"/")
	http.ServeFile(w, r, filepath.Join(s.dir, filepath.FromSlash(rel)))
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on port on all interfaces and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	s.logger.Info("audiovisual server listening", slog.String("addr", ln.Addr().String()))
	return s.Serve(ctx, ln)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)))
	})
}
