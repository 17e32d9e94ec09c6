// Package api is the studio's HTTP surface: the JSON API, the live event
// stream, editing sessions over websocket, and operational endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/AaronLay10/OrbFi/internal/editor"
	"github.com/AaronLay10/OrbFi/internal/storage/eventlog"
	"github.com/AaronLay10/OrbFi/internal/studio"
	"github.com/AaronLay10/OrbFi/internal/toolbox"
	"github.com/AaronLay10/OrbFi/internal/version"
)

// EventHistory answers queries over persisted events.
type EventHistory interface {
	Query(ctx context.Context, limit int, draftID string) ([]eventlog.Row, error)
}

// Options configures a Server.
type Options struct {
	Name    string
	Studio  *studio.Service
	Toolbox *toolbox.Toolbox
	History EventHistory // optional
	Metrics *Metrics     // optional
	Editor  editor.Options
}

// Server serves the studio API.
type Server struct {
	name     string
	studio   *studio.Service
	toolbox  *toolbox.Toolbox
	history  EventHistory
	metrics  *Metrics
	editor   editor.Options
	sessions *sessionRegistry
}

func NewServer(opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics("")
	}
	if opts.Name == "" {
		opts.Name = "orbfi-studio"
	}
	return &Server{
		name:     opts.Name,
		studio:   opts.Studio,
		toolbox:  opts.Toolbox,
		history:  opts.History,
		metrics:  opts.Metrics,
		editor:   opts.Editor,
		sessions: newSessionRegistry(),
	}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   s.name,
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.Version})
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.metrics.instrument(pattern, h))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ready", readyHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /version", versionHandler)

	handle("GET /blocks", s.listBlocks)
	handle("GET /blocks/{type}", s.getBlock)
	handle("GET /toolbox", s.getToolbox)
	handle("GET /templates", s.listTemplates)
	handle("GET /templates/{id}", s.getTemplate)

	handle("POST /drafts", s.createDraft)
	handle("GET /drafts", s.listDrafts)
	handle("GET /drafts/{id}", s.getDraft)
	handle("PATCH /drafts/{id}", s.renameDraft)
	handle("DELETE /drafts/{id}", s.discardDraft)
	handle("PUT /drafts/{id}/document", s.saveDocument)
	handle("POST /drafts/{id}/publish", s.publishDraft)
	handle("GET /drafts/{id}/session", s.editSession)

	handle("POST /documents/normalize", s.normalizeDocument)
	handle("POST /documents/preview", s.previewDocument)

	handle("GET /orbs", s.listOrbs)
	handle("GET /orbs/{id}", s.getOrb)
	handle("PATCH /orbs/{id}", s.updateOrb)
	handle("DELETE /orbs/{id}", s.deleteOrb)

	handle("GET /events", eventsHandler)
	handle("GET /events/history", s.eventHistory)
	mux.HandleFunc("GET /ws/events", wsEventsHandler)

	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and closes open editing sessions.
func (s *Server) ListenAndServe(ctx context.Context, port int, tlsCfg *TLSConfig) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if tlsCfg.Enabled() {
		tc, err := tlsCfg.Load()
		if err != nil {
			return err
		}
		srv.TLSConfig = tc
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if srv.TLSConfig != nil {
			log.Printf("api: listening on %s (TLS)", srv.Addr)
			err = srv.ListenAndServeTLS("", "")
		} else {
			log.Printf("api: listening on %s", srv.Addr)
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		s.sessions.closeAll()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.sessions.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	return <-errCh
}

// sessionRegistry holds drafts that are busy: open in an editing session,
// or being published or discarded. A draft has at most one holder.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*editor.Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*editor.Session)}
}

// claim reserves draftID for sess, or for a one-off operation when sess is
// nil. It fails if the draft is already held.
func (r *sessionRegistry) claim(draftID string, sess *editor.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.sessions[draftID]; held {
		return false
	}
	r.sessions[draftID] = sess
	return true
}

func (r *sessionRegistry) release(draftID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, draftID)
}

func (r *sessionRegistry) closeAll() {
	r.mu.Lock()
	open := make([]*editor.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		if sess != nil {
			open = append(open, sess)
		}
	}
	r.mu.Unlock()

	for _, sess := range open {
		sess.Close()
	}
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
