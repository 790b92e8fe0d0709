package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jpalmerr/distroboard/credentials"
	"github.com/jpalmerr/distroboard/internal/session"
	"github.com/jpalmerr/distroboard/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// maxBodyBytes caps JSON request bodies.
	maxBodyBytes = 64 << 10

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "DistroBoard"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Controller is the session surface driven by the HTTP API.
// *session.Session satisfies it.
type Controller interface {
	Start(creds credentials.Credentials) error
	Stop()
	StoredCredentials() (credentials.Credentials, error)
	RequestEnableBlocking(ctx context.Context, rec store.Record, c session.Confirmer) session.Outcome
	RequestDisableBlocking(ctx context.Context, rec store.Record, c session.Confirmer) session.Outcome
}

// Config holds the collaborators of a [Server].
type Config struct {
	// Store is the view rendered by the dashboard. Required.
	Store store.Store

	// Controller receives start, stop and blocking commands. Required.
	Controller Controller

	// Port is the TCP port to listen on. Zero lets the OS choose.
	Port int

	// Assets contains assets/index.html. Nil disables the dashboard route.
	Assets fs.FS

	// Title replaces {{.Title}} in the dashboard. Defaults to "DistroBoard".
	Title string

	// Metrics serves /metrics when non-nil.
	Metrics http.Handler

	Logger *slog.Logger
}

// Server handles HTTP requests for the DistroBoard dashboard and API.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store   store.Store
	ctl     Controller
	port    int
	assets  fs.FS
	title   string
	metrics http.Handler
	logger  *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	addr       net.Addr
}

// NewServer creates a new HTTP [Server].
//
// The server is not started until [Server.Start] is called.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:   cfg.Store,
		ctl:     cfg.Controller,
		port:    cfg.Port,
		assets:  cfg.Assets,
		title:   cfg.Title,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/sse", s.handleSSE)
	mux.HandleFunc("GET /api/credentials", s.handleCredentials)
	mux.HandleFunc("POST /api/session/start", s.sameOriginJSON(s.handleStart))
	mux.HandleFunc("POST /api/session/stop", s.sameOriginJSON(s.handleStop))
	mux.HandleFunc("POST /api/records/{domain}/enable-blocking", s.sameOriginJSON(s.handleBlocking(session.ActionEnable)))
	mux.HandleFunc("POST /api/records/{domain}/disable-blocking", s.sameOriginJSON(s.handleBlocking(session.ActionDisable)))

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	// serve dashboard assets
	if s.assets != nil {
		mux.HandleFunc("GET /", s.handleDashboard)
	}

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// read index.html from embedded assets
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	safeTitle := html.EscapeString(title)
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, safeTitle)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleState returns the current view as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleCredentials returns the stored credentials without the secret.
func (s *Server) handleCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := s.ctl.StoredCredentials()
	if err != nil {
		s.logger.Error("failed to load credentials", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load credentials")
		return
	}

	s.writeJSON(w, http.StatusOK, credentialsResponse{
		Credentials: creds.Masked(),
		HasSecret:   creds.SecretAccessKey != "",
	})
}

type credentialsResponse struct {
	credentials.Credentials
	HasSecret bool `json:"has_secret"`
}

// handleStart persists the submitted credentials and (re)starts the session.
// An empty secret keeps the stored one so the browser never has to hold it.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var creds credentials.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if creds.SecretAccessKey == "" {
		stored, err := s.ctl.StoredCredentials()
		if err != nil {
			s.logger.Error("failed to load credentials", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to load credentials")
			return
		}
		creds.SecretAccessKey = stored.SecretAccessKey
	}

	if err := s.ctl.Start(creds); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleStop stops the session.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.ctl.Stop()
	s.writeJSON(w, http.StatusOK, s.store.Snapshot())
}

type blockingRequest struct {
	Confirmed bool `json:"confirmed"`
}

type blockingResponse struct {
	Domain  string          `json:"domain"`
	Action  string          `json:"action"`
	Outcome session.Outcome `json:"outcome"`
}

// handleBlocking returns the handler for one blocking action. The browser
// asks the yes/no question; the request carries the answer.
func (s *Server) handleBlocking(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain := r.PathValue("domain")

		var req blockingRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		rec, ok := s.store.Snapshot().Lookup(domain)
		if !ok {
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("no displayed record for domain %q", domain))
			return
		}

		confirm := session.ConfirmFunc(func(string) bool { return req.Confirmed })

		var outcome session.Outcome
		if action == session.ActionEnable {
			outcome = s.ctl.RequestEnableBlocking(r.Context(), rec, confirm)
		} else {
			outcome = s.ctl.RequestDisableBlocking(r.Context(), rec, confirm)
		}

		status := http.StatusOK
		if outcome == session.OutcomeFailed {
			status = http.StatusBadGateway
		}
		s.writeJSON(w, status, blockingResponse{Domain: domain, Action: action, Outcome: outcome})
	}
}

// handleSSE streams view snapshots via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(v store.View) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}

		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}

		// ResponseController.Flush respects the write deadline
		return rc.Flush()
	}

	// set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// subscribe before the first snapshot so no change is missed
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	if err := writeAndFlush(s.store.Snapshot()); err != nil {
		return
	}

	// stream updates
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return
			}
			if err := writeAndFlush(v); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}

// sameOriginJSON guards a mutating route. The request must declare an
// application/json body, which a cross-site page cannot send without a CORS
// preflight, and a browser-supplied Origin must match the addressed host.
func (s *Server) sameOriginJSON(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			u, err := url.Parse(origin)
			if err != nil || u.Host != r.Host {
				s.logger.Warn("rejected cross-origin request",
					"origin", origin,
					"host", r.Host,
					"path", r.URL.Path,
				)
				s.writeError(w, http.StatusForbidden, "cross-origin request refused")
				return
			}
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			s.writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
			return
		}

		next(w, r)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
