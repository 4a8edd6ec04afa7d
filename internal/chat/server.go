package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/switchboard/pkg/slogx"
	json "github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

// Server exposes an App over HTTP. Replies to a message are streamed as
// server-sent events.
type Server struct {
	app      App
	mux      *http.ServeMux
	sessions *haxmap.Map[string, *Session]
}

func NewServer(app App) *Server {
	s := &Server{
		app:      app,
		mux:      http.NewServeMux(),
		sessions: haxmap.New[string, *Session](),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/sessions", s.handleStartSession)
	s.mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("POST /v1/sessions/{id}/messages", s.handleMessage)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

// Handler returns the instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.mux, "chat")
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("chat server listening", slogx.LoggerName("chat"), slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type sessionView struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
}

type messageRequest struct {
	Content string `json:"content"`
}

func viewOf(sess *Session) sessionView {
	msgs := sess.Messages()
	if msgs == nil {
		msgs = []Message{}
	}
	return sessionView{ID: sess.ID, Messages: msgs}
}

// handleStartSession creates a session. The optional JSON body is a flat object
// of parameters; session_id asks the app to resume an earlier conversation.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	params := map[string]string{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	if r.ContentLength != 0 {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		for k, v := range body {
			params[k] = v
		}
	}

	sess := NewSession("", params)
	if err := s.app.OnChatStart(r.Context(), sess); err != nil {
		slog.Error("failed to start chat session", slogx.LoggerName("chat"), slogx.Session(sess.ID), slogx.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	s.sessions.Set(sess.ID, sess)
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.sessions.Get(id); !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.sessions.Del(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if !sess.busy.TryLock() {
		writeError(w, http.StatusConflict, "session is busy")
		return
	}
	defer sess.busy.Unlock()

	sess.record(Message{Author: AuthorUser, Content: req.Content})

	sse := NewSSEWriter(w)
	restore := sess.listen(func(ev Event) {
		if err := sse.Send(string(ev.Kind), ev.Message); err != nil {
			slog.Warn("failed to write event", slogx.LoggerName("chat"), slogx.Session(sess.ID), slogx.Error(err))
		}
	})
	err := s.app.OnMessage(r.Context(), sess, req.Content)
	restore()

	if err != nil {
		slog.Error("failed to handle message", slogx.LoggerName("chat"), slogx.Session(sess.ID), slogx.Error(err))
		_ = sse.Send("error", map[string]string{"error": err.Error()})
		return
	}
	_ = sse.Send("done", map[string]any{})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", slogx.LoggerName("chat"), slogx.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
