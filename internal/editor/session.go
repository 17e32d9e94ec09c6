// Package editor holds the live editing session for one draft: the graph
// on the canvas and the debounced autosave that persists it.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/events"
	"github.com/AaronLay10/OrbFi/internal/graph"
	"github.com/AaronLay10/OrbFi/internal/serializer"
)

// State is the lifecycle state of a session.
type State int32

const (
	Uninitialized State = iota
	Ready
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Disposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

var (
	// ErrInitialLoad is returned by Open when the stored document could not
	// be imported. The session is still usable.
	ErrInitialLoad = errors.New("failed to load initial blocks")

	ErrNotReady = errors.New("editor session not ready")
)

// DefaultStartX and DefaultStartY place the entry block of an empty canvas.
const (
	DefaultStartX = 50
	DefaultStartY = 50
)

// Saver persists an exported document for a draft.
type Saver interface {
	SaveDocument(ctx context.Context, draftID string, doc []byte) error
}

// Options tune autosave timing.
type Options struct {
	// Debounce is the quiet period after the last change before an
	// autosave export runs.
	Debounce time.Duration

	// SuppressWindow is how long autosave stays off after a manual save.
	SuppressWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = 300 * time.Millisecond
	}
	if o.SuppressWindow <= 0 {
		o.SuppressWindow = time.Second
	}
	return o
}

// Session is one open editor for one draft. All methods are safe for
// concurrent use.
type Session struct {
	reg     *blocks.Registry
	saver   Saver
	draftID string
	opts    Options

	mu    sync.Mutex
	g     *graph.Graph
	state State

	autosave atomic.Int32

	changes chan struct{}
	saves   chan chan error
	done    chan struct{}
	stopped chan struct{}
	close   sync.Once

	// owned by the loop goroutine
	lastSaved []byte
}

// NewSession creates a session in the Uninitialized state.
func NewSession(reg *blocks.Registry, saver Saver, draftID string, opts Options) *Session {
	return &Session{
		reg:     reg,
		saver:   saver,
		draftID: draftID,
		opts:    opts.withDefaults(),
		changes: make(chan struct{}, 1),
		saves:   make(chan chan error),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Open builds the canvas from initial and starts autosave. An empty
// document gives a single entry block. A document that fails to import is
// reported as ErrInitialLoad and the canvas falls back to a single entry
// block; the session is Ready either way.
func (s *Session) Open(ctx context.Context, initial []byte) error {
	s.mu.Lock()
	if s.state != Uninitialized {
		s.mu.Unlock()
		return fmt.Errorf("open session %s: already %s", s.draftID, s.state)
	}

	var loadErr error
	var g *graph.Graph
	if len(bytes.TrimSpace(initial)) > 0 {
		g, loadErr = serializer.Import(initial, s.reg)
	}
	if g == nil {
		var err error
		g, err = graph.NewStart(s.reg, DefaultStartX, DefaultStartY)
		if err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.g = g
	s.state = Ready

	// A successfully loaded document counts as saved so that an unchanged
	// canvas is never written back.
	if loadErr == nil && len(bytes.TrimSpace(initial)) > 0 {
		if doc, err := serializer.Export(g, s.reg); err == nil {
			s.lastSaved = doc
		}
	}
	s.mu.Unlock()

	go s.run(ctx)

	if loadErr != nil {
		events.Emit("warn", "editor.load_failed", ErrInitialLoad.Error(), map[string]interface{}{
			"draft_id": s.draftID,
			"error":    loadErr.Error(),
		})
		return fmt.Errorf("%w: %w", ErrInitialLoad, loadErr)
	}
	events.Emit("info", "editor.opened", "", map[string]interface{}{"draft_id": s.draftID})
	return nil
}

// DraftID is the draft this session edits.
func (s *Session) DraftID() string { return s.draftID }

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AutosaveState returns where the autosave machine currently is.
func (s *Session) AutosaveState() AutosaveState {
	return AutosaveState(s.autosave.Load())
}

// Graph returns a copy of the current canvas.
func (s *Session) Graph() (*graph.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return nil, ErrNotReady
	}
	return s.g.Clone(), nil
}

// Export serializes the current canvas.
func (s *Session) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return nil, ErrNotReady
	}
	return serializer.Export(s.g, s.reg)
}

// Update applies fn to a copy of the canvas. The copy replaces the canvas
// only if fn succeeds and the result validates; either way the canvas is
// never left half-edited.
func (s *Session) Update(fn func(g *graph.Graph) error) error {
	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return ErrNotReady
	}
	next := s.g.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := graph.Validate(next, s.reg); err != nil {
		s.mu.Unlock()
		return err
	}
	s.g = next
	s.mu.Unlock()

	s.changed()
	return nil
}

// SetField changes one field of the block at path.
func (s *Session) SetField(path, name, value string) error {
	return s.Update(func(g *graph.Graph) error {
		b, err := g.Locate(path)
		if err != nil {
			return err
		}
		return graph.SetField(s.reg, b, name, value)
	})
}

// AddBlock places a new block of type typ as its own stack, centered in
// viewport. It returns the new block's path.
func (s *Session) AddBlock(typ string, viewport Rect) (string, error) {
	var path string
	err := s.Update(func(g *graph.Graph) error {
		b, err := graph.NewBlock(s.reg, typ)
		if err != nil {
			return err
		}
		x, y := PlaceInViewport(DefaultBlockSize, viewport)
		g.AddStack(x, y, b)
		path = fmt.Sprintf("%d.0", len(g.Stacks)-1)
		return nil
	})
	return path, err
}

// Load replaces the canvas with doc. On failure the canvas is unchanged.
func (s *Session) Load(doc []byte) error {
	g, err := serializer.Import(doc, s.reg)
	if err != nil {
		return err
	}
	return s.Update(func(cur *graph.Graph) error {
		*cur = *g
		return nil
	})
}

func (s *Session) changed() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Save writes the canvas now, cancelling any pending autosave, and holds
// autosave off for the suppress window.
func (s *Session) Save(ctx context.Context) error {
	if s.State() != Ready {
		return ErrNotReady
	}
	reply := make(chan error, 1)
	select {
	case s.saves <- reply:
	case <-s.stopped:
		return ErrNotReady
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disposes the session. A pending autosave is dropped.
func (s *Session) Close() {
	s.close.Do(func() {
		s.mu.Lock()
		wasReady := s.state == Ready
		s.state = Disposed
		s.mu.Unlock()

		close(s.done)
		if wasReady {
			<-s.stopped
			events.Emit("info", "editor.closed", "", map[string]interface{}{"draft_id": s.draftID})
		}
	})
}

// export writes the canvas. Autosaves are skipped when the document matches
// the last one written; manual saves always write.
func (s *Session) export(ctx context.Context, manual bool) error {
	s.mu.Lock()
	doc, err := serializer.Export(s.g, s.reg)
	s.mu.Unlock()
	if err != nil {
		log.Printf("editor: export draft %s failed: %v", s.draftID, err)
		return err
	}
	if !manual && bytes.Equal(doc, s.lastSaved) {
		return nil
	}

	if err := s.saver.SaveDocument(ctx, s.draftID, doc); err != nil {
		log.Printf("editor: save draft %s failed: %v", s.draftID, err)
		events.Emit("error", "editor.save_failed", "", map[string]interface{}{
			"draft_id": s.draftID,
			"manual":   manual,
			"error":    err.Error(),
		})
		return err
	}
	s.lastSaved = doc

	if !manual {
		events.Emit("info", "editor.autosaved", "", map[string]interface{}{
			"draft_id": s.draftID,
			"bytes":    len(doc),
		})
	}
	return nil
}
