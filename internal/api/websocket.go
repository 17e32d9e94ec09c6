package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AaronLay10/OrbFi/internal/editor"
	"github.com/AaronLay10/OrbFi/internal/events"
)

const (
	// Number of recent events to send on connection
	recentEventsCount = 50

	// Number of the draft's recent events sent when a session opens
	sessionBacklog = 20

	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Largest client message accepted on an editing session
	maxSessionMessage = maxDocumentBytes + 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The studio has no authentication; any origin may connect.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// readLoop delivers text messages to handle until the peer goes away, then
// closes done.
func readLoop(conn *websocket.Conn, done chan<- struct{}, handle func([]byte)) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if handle != nil {
			handle(msg)
		}
	}
}

func writeText(conn *websocket.Conn, data []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func writePing(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// wsEventsHandler streams the event log, starting with recent history.
// draft_id and orb_id query parameters narrow the stream.
func wsEventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub, recent := events.Subscribe(eventFilter(r), recentEventsCount)
	defer events.Unsubscribe(sub)

	for _, e := range recent {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if err := writeText(conn, data); err != nil {
			log.Printf("api: ws write recent event failed: %v", err)
			return
		}
	}

	done := make(chan struct{})
	go readLoop(conn, done, nil)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case e, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if err := writeText(conn, data); err != nil {
				log.Printf("api: ws write event failed: %v", err)
				return
			}

		case <-ticker.C:
			if err := writePing(conn); err != nil {
				return
			}
		}
	}
}

// SessionRequest is a client command on an editing session.
type SessionRequest struct {
	Seq      int         `json:"seq"`
	Op       string      `json:"op"`
	Path     string      `json:"path,omitempty"`
	Name     string      `json:"name,omitempty"`
	Value    string      `json:"value,omitempty"`
	Type     string      `json:"type,omitempty"`
	Viewport editor.Rect `json:"viewport,omitempty"`
	Document string      `json:"document,omitempty"`
}

// SessionMessage is sent to the client: a reply to a request (matching
// Seq) or the initial "opened" notice.
type SessionMessage struct {
	Seq      int    `json:"seq,omitempty"`
	Op       string `json:"op"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Path     string `json:"path,omitempty"`
	Document string `json:"document,omitempty"`
	Autosave string `json:"autosave,omitempty"`
	Warning  string `json:"warning,omitempty"`

	// Events is the draft's recent history, sent with "opened".
	Events []events.Event `json:"events,omitempty"`
}

// editSession hosts one debounced editing session over a websocket.
// Requests are applied in arrival order; autosave runs in the session.
func (s *Server) editSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess := editor.NewSession(s.studio.Registry(), s.studio, id, s.editor)
	if !s.sessions.claim(id, sess) {
		writeJSON(w, http.StatusConflict, ErrorResponse{OK: false, Error: errDraftBusy})
		return
	}
	defer s.sessions.release(id)

	// Read the draft only once it is held, so a publish cannot remove it
	// underneath the session.
	draft, err := s.studio.GetDraft(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: session upgrade failed for draft %s: %v", id, err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxSessionMessage)

	ctx := r.Context()
	opened := SessionMessage{Op: "opened", OK: true}
	if err := sess.Open(ctx, []byte(draft.Document)); err != nil {
		if !errors.Is(err, editor.ErrInitialLoad) {
			log.Printf("api: open session for draft %s: %v", id, err)
			return
		}
		opened.Warning = err.Error()
	}
	defer sess.Close()
	s.metrics.EditorSessions.Inc()
	defer s.metrics.EditorSessions.Dec()

	if doc, err := sess.Export(); err == nil {
		opened.Document = string(doc)
	}
	opened.Events = events.RecentEvents(sessionBacklog, events.Filter{DraftID: id})
	if err := writeJSONMessage(conn, opened); err != nil {
		return
	}

	requests := make(chan SessionRequest, 16)
	done := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)
	go readLoop(conn, done, func(msg []byte) {
		var req SessionRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			req = SessionRequest{Op: "invalid"}
		}
		select {
		case requests <- req:
		case <-quit:
		}
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case req := <-requests:
			if err := writeJSONMessage(conn, s.applySessionRequest(r, sess, req)); err != nil {
				return
			}
		case <-ticker.C:
			if err := writePing(conn); err != nil {
				return
			}
		}
	}
}

func (s *Server) applySessionRequest(r *http.Request, sess *editor.Session, req SessionRequest) SessionMessage {
	reply := SessionMessage{Seq: req.Seq, Op: req.Op, OK: true}

	var err error
	switch req.Op {
	case "set_field":
		err = sess.SetField(req.Path, req.Name, req.Value)
	case "add_block":
		reply.Path, err = sess.AddBlock(req.Type, req.Viewport)
	case "load":
		err = sess.Load([]byte(req.Document))
	case "save":
		err = sess.Save(r.Context())
	case "export":
		var doc []byte
		doc, err = sess.Export()
		reply.Document = string(doc)
	case "state":
	case "invalid":
		reply.OK = false
		reply.Error = "invalid JSON"
		return reply
	default:
		reply.OK = false
		reply.Error = "unknown op"
		return reply
	}

	if err != nil {
		if reason := rejectReason(err); reason != "" {
			s.metrics.RejectDocument(reason)
		}
		reply.OK = false
		reply.Error = err.Error()
	}
	reply.Autosave = sess.AutosaveState().String()
	return reply
}

func writeJSONMessage(conn *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeText(conn, data)
}
