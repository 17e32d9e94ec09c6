package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/events"
	"github.com/AaronLay10/OrbFi/internal/graph"
	"github.com/AaronLay10/OrbFi/internal/serializer"
	"github.com/AaronLay10/OrbFi/internal/storage"
	"github.com/AaronLay10/OrbFi/internal/storage/eventlog"
	"github.com/AaronLay10/OrbFi/internal/studio"
	"github.com/AaronLay10/OrbFi/internal/templates"
)

// maxDocumentBytes bounds request bodies carrying strategy documents.
const maxDocumentBytes = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, blocks.ErrNotFound),
		errors.Is(err, studio.ErrUnknownTemplate):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, serializer.ErrMalformedDocument),
		errors.Is(err, serializer.ErrUnknownBlockType),
		errors.Is(err, serializer.ErrMalformedSocket),
		errors.Is(err, serializer.ErrInvalidField),
		errors.Is(err, graph.ErrBadPath),
		errors.Is(err, studio.ErrEntryBlocks):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// rejectReason labels a document validation failure for metrics.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, serializer.ErrMalformedDocument):
		return "malformed_document"
	case errors.Is(err, serializer.ErrUnknownBlockType):
		return "unknown_block_type"
	case errors.Is(err, serializer.ErrMalformedSocket):
		return "malformed_socket"
	case errors.Is(err, serializer.ErrInvalidField):
		return "invalid_field"
	case errors.Is(err, studio.ErrEntryBlocks):
		return "entry_blocks"
	default:
		return ""
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
	}
	if reason := rejectReason(err); reason != "" {
		s.metrics.RejectDocument(reason)
	}
	writeJSON(w, status, ErrorResponse{OK: false, Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{OK: false, Error: msg})
}

// readDocument reads a strategy document from the body. JSON bodies carry
// it in a "document" field; anything else is taken as raw XML.
func readDocument(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxDocumentBytes {
		return nil, errors.New("document too large")
	}

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/json" {
		return body, nil
	}
	if len(body) == 0 {
		return nil, nil
	}
	var req struct {
		Document string `json:"document"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.New("invalid JSON")
	}
	return []byte(req.Document), nil
}

// blockView is the JSON shape of a registered block type.
type blockView struct {
	Type     string          `json:"type"`
	Shape    blocks.Shape    `json:"shape"`
	Output   string          `json:"output,omitempty"`
	Previous bool            `json:"previousStatement"`
	Next     bool            `json:"nextStatement"`
	Colour   string          `json:"colour"`
	Tooltip  string          `json:"tooltip"`
	Fields   []blocks.Field  `json:"fields"`
	Sockets  []blocks.Socket `json:"sockets"`
}

func newBlockView(bt *blocks.BlockType) blockView {
	return blockView{
		Type:     bt.Type,
		Shape:    bt.Shape,
		Output:   bt.Output,
		Previous: bt.Previous,
		Next:     bt.Next,
		Colour:   bt.Colour,
		Tooltip:  bt.Tooltip,
		Fields:   bt.Fields(),
		Sockets:  bt.Sockets(),
	}
}

func (s *Server) listBlocks(w http.ResponseWriter, r *http.Request) {
	views := []blockView{}
	for bt := range s.studio.Registry().All() {
		views = append(views, newBlockView(bt))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) getBlock(w http.ResponseWriter, r *http.Request) {
	bt, err := s.studio.Registry().Get(r.PathValue("type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBlockView(bt))
}

type toolboxCategoryView struct {
	Name   string   `json:"name"`
	Colour string   `json:"colour"`
	Types  []string `json:"blockTypeNames"`
}

func (s *Server) getToolbox(w http.ResponseWriter, r *http.Request) {
	views := make([]toolboxCategoryView, 0, len(s.toolbox.Categories))
	for i := range s.toolbox.Categories {
		c := &s.toolbox.Categories[i]
		views = append(views, toolboxCategoryView{Name: c.Name, Colour: c.Colour, Types: c.TypeNames()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": views})
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	lib := s.studio.Templates()
	var list []*templates.Template
	if category := r.URL.Query().Get("category"); category != "" {
		list = lib.ByCategory(category)
	} else {
		list = lib.All()
	}
	if list == nil {
		list = []*templates.Template{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"templates":  list,
		"categories": lib.Categories(),
	})
}

// templateView adds the document text that Template leaves out of JSON.
type templateView struct {
	*templates.Template
	Document string `json:"document"`
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, ok := s.studio.Templates().Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{OK: false, Error: "template not found"})
		return
	}
	writeJSON(w, http.StatusOK, templateView{Template: tpl, Document: string(tpl.Document)})
}

type createDraftRequest struct {
	Prompt   string `json:"prompt"`
	Template string `json:"template"`
}

func (s *Server) createDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	d, err := s.studio.CreateDraft(r.Context(), req.Prompt, req.Template)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) listDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.studio.ListDrafts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if drafts == nil {
		drafts = []*storage.Draft{}
	}
	writeJSON(w, http.StatusOK, drafts)
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.studio.GetDraft(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) renameDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name *string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	if req.Name == nil {
		badRequest(w, "name required")
		return
	}
	d, err := s.studio.Rename(r.Context(), r.PathValue("id"), *req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// errDraftBusy is returned when another request holds the draft.
const errDraftBusy = "draft is open in an editing session or being published"

func (s *Server) discardDraft(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.sessions.claim(id, nil) {
		writeJSON(w, http.StatusConflict, ErrorResponse{OK: false, Error: errDraftBusy})
		return
	}
	defer s.sessions.release(id)
	if err := s.studio.DiscardDraft(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) saveDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	d, err := s.studio.SaveDraftDocument(r.Context(), r.PathValue("id"), doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) publishDraft(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.sessions.claim(id, nil) {
		writeJSON(w, http.StatusConflict, ErrorResponse{OK: false, Error: errDraftBusy})
		return
	}
	defer s.sessions.release(id)
	doc, err := readDocument(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	orb, err := s.studio.Publish(r.Context(), id, doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.OrbsPublished.Inc()
	writeJSON(w, http.StatusCreated, orb)
}

func (s *Server) normalizeDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	normalized, err := s.studio.Normalize(doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"document": string(normalized)})
}

func (s *Server) previewDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := s.studio.Preview(doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source":  p.Source(),
		"entries": p.Entries,
		"skipped": p.Skipped,
	})
}

func (s *Server) listOrbs(w http.ResponseWriter, r *http.Request) {
	orbs, err := s.studio.ListOrbs(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if orbs == nil {
		orbs = []*storage.Orb{}
	}
	writeJSON(w, http.StatusOK, orbs)
}

func (s *Server) getOrb(w http.ResponseWriter, r *http.Request) {
	orb, err := s.studio.GetOrb(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orb)
}

type updateOrbRequest struct {
	Name   *string            `json:"name"`
	Status *storage.OrbStatus `json:"status"`
}

func (s *Server) updateOrb(w http.ResponseWriter, r *http.Request) {
	var req updateOrbRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	if req.Name == nil && req.Status == nil {
		badRequest(w, "name or status required")
		return
	}
	orb, err := s.studio.UpdateOrb(r.Context(), r.PathValue("id"), storage.OrbUpdate{Name: req.Name, Status: req.Status})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orb)
}

func (s *Server) deleteOrb(w http.ResponseWriter, r *http.Request) {
	if err := s.studio.DeleteOrb(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// eventFilter narrows an event query to the draft_id and orb_id parameters.
func eventFilter(r *http.Request) events.Filter {
	q := r.URL.Query()
	return events.Filter{DraftID: q.Get("draft_id"), OrbID: q.Get("orb_id")}
}

// eventsHandler lists buffered events, optionally for one draft or orb.
func eventsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, events.RecentEvents(limit, eventFilter(r)))
}

func (s *Server) eventHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{OK: false, Error: "event history not configured"})
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			badRequest(w, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	rows, err := s.history.Query(r.Context(), limit, r.URL.Query().Get("draft_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []eventlog.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}
