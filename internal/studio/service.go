// Package studio is the application layer of the strategy builder: it
// creates drafts, saves editor documents, publishes orbs and keeps the
// event stream and orb notifications in step.
package studio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/codegen"
	"github.com/AaronLay10/OrbFi/internal/editor"
	"github.com/AaronLay10/OrbFi/internal/events"
	"github.com/AaronLay10/OrbFi/internal/serializer"
	"github.com/AaronLay10/OrbFi/internal/storage"
	"github.com/AaronLay10/OrbFi/internal/templates"
)

var (
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrEntryBlocks is returned by Publish when the document does not
	// have exactly one strategy_start block at the top level.
	ErrEntryBlocks = errors.New("strategy must have exactly one strategy_start block")
)

// Notifier is told about orb lifecycle changes.
type Notifier interface {
	OrbChanged(ctx context.Context, orb *storage.Orb) error
	OrbRemoved(ctx context.Context, id string) error
}

// Service implements the studio use cases.
type Service struct {
	reg       *blocks.Registry
	store     storage.Store
	templates templates.Source
	notifier  Notifier
}

// New creates a Service.
func New(reg *blocks.Registry, store storage.Store, tpl templates.Source) *Service {
	return &Service{reg: reg, store: store, templates: tpl}
}

// SetNotifier attaches an orb notifier. Nil detaches it.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Compile-time interface check.
var _ editor.Saver = (*Service)(nil)

// Registry is the block registry documents are checked against.
func (s *Service) Registry() *blocks.Registry { return s.reg }

// Templates is the template catalog in effect.
func (s *Service) Templates() *templates.Library { return s.templates.Current() }

// CreateDraft starts a draft, seeded from a template when templateID is
// set. An empty prompt takes the template's prompt.
func (s *Service) CreateDraft(ctx context.Context, prompt, templateID string) (*storage.Draft, error) {
	nd := storage.NewDraft{Prompt: prompt}

	if templateID != "" {
		tpl, ok := s.templates.Current().Get(templateID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
		}
		doc, err := serializer.Normalize(tpl.Document, s.reg)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", templateID, err)
		}
		nd.Template = tpl.ID
		nd.Document = string(doc)
		if nd.Prompt == "" {
			nd.Prompt = tpl.Prompt
		}
	}

	d, err := s.store.CreateDraft(ctx, nd)
	if err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}

	events.Emit("info", "draft.created", "", map[string]interface{}{
		"draft_id": d.ID,
		"template": d.Template,
	})
	return d, nil
}

// SaveDocument checks doc against the registry and stores its normalized
// form on the draft.
func (s *Service) SaveDocument(ctx context.Context, draftID string, doc []byte) error {
	_, err := s.saveDocument(ctx, draftID, doc)
	return err
}

// SaveDraftDocument is SaveDocument returning the updated draft.
func (s *Service) SaveDraftDocument(ctx context.Context, draftID string, doc []byte) (*storage.Draft, error) {
	return s.saveDocument(ctx, draftID, doc)
}

func (s *Service) saveDocument(ctx context.Context, draftID string, doc []byte) (*storage.Draft, error) {
	normalized, err := s.Normalize(doc)
	if err != nil {
		return nil, err
	}
	text := string(normalized)
	d, err := s.store.UpdateDraft(ctx, draftID, storage.DraftUpdate{Document: &text})
	if err != nil {
		return nil, fmt.Errorf("save draft %s: %w", draftID, err)
	}

	events.Emit("info", "draft.saved", "", map[string]interface{}{
		"draft_id": draftID,
		"bytes":    len(normalized),
	})
	return d, nil
}

// Rename changes a draft's name.
func (s *Service) Rename(ctx context.Context, draftID, name string) (*storage.Draft, error) {
	d, err := s.store.UpdateDraft(ctx, draftID, storage.DraftUpdate{Name: &name})
	if err != nil {
		return nil, fmt.Errorf("rename draft %s: %w", draftID, err)
	}
	events.Emit("info", "draft.renamed", "", map[string]interface{}{
		"draft_id": draftID,
		"name":     name,
	})
	return d, nil
}

func (s *Service) GetDraft(ctx context.Context, draftID string) (*storage.Draft, error) {
	return s.store.GetDraft(ctx, draftID)
}

func (s *Service) ListDrafts(ctx context.Context) ([]*storage.Draft, error) {
	return s.store.ListDrafts(ctx)
}

// DiscardDraft deletes a draft without publishing it.
func (s *Service) DiscardDraft(ctx context.Context, draftID string) error {
	if err := s.store.DeleteDraft(ctx, draftID); err != nil {
		return fmt.Errorf("discard draft %s: %w", draftID, err)
	}
	events.Emit("info", "draft.discarded", "", map[string]interface{}{"draft_id": draftID})
	return nil
}

// Publish turns a draft into an active orb. doc, when non-empty, replaces
// the draft's stored document. The document must have exactly one
// strategy_start block.
func (s *Service) Publish(ctx context.Context, draftID string, doc []byte) (*storage.Orb, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		d, err := s.store.GetDraft(ctx, draftID)
		if err != nil {
			return nil, fmt.Errorf("publish draft %s: %w", draftID, err)
		}
		doc = []byte(d.Document)
	}

	g, err := serializer.Import(doc, s.reg)
	if err != nil {
		return nil, err
	}
	if n := len(g.RootsOfType(blocks.StartType)); n != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrEntryBlocks, n)
	}
	normalized, err := serializer.Export(g, s.reg)
	if err != nil {
		return nil, err
	}

	text := string(normalized)
	orb, err := s.store.Publish(ctx, draftID, &text)
	if err != nil {
		return nil, fmt.Errorf("publish draft %s: %w", draftID, err)
	}

	events.Emit("info", "orb.published", "", map[string]interface{}{
		"draft_id": draftID,
		"orb_id":   orb.ID,
		"emoji":    orb.Emoji,
	})
	s.notifyChanged(ctx, orb)
	return orb, nil
}

// Normalize checks doc against the registry and returns its canonical form.
func (s *Service) Normalize(doc []byte) ([]byte, error) {
	return serializer.Normalize(doc, s.reg)
}

// Preview generates the program for doc.
func (s *Service) Preview(doc []byte) (*codegen.Program, error) {
	g, err := serializer.Import(doc, s.reg)
	if err != nil {
		return nil, err
	}
	return codegen.Generate(g, s.reg)
}

func (s *Service) GetOrb(ctx context.Context, id string) (*storage.Orb, error) {
	return s.store.GetOrb(ctx, id)
}

func (s *Service) ListOrbs(ctx context.Context) ([]*storage.Orb, error) {
	return s.store.ListOrbs(ctx)
}

// UpdateOrb applies a name or status change from an operator.
func (s *Service) UpdateOrb(ctx context.Context, id string, u storage.OrbUpdate) (*storage.Orb, error) {
	orb, err := s.store.UpdateOrb(ctx, id, u)
	if err != nil {
		return nil, fmt.Errorf("update orb %s: %w", id, err)
	}
	if u.Status != nil {
		events.Emit("info", "orb.status", "", map[string]interface{}{
			"orb_id": id,
			"status": string(orb.Status),
		})
	}
	s.notifyChanged(ctx, orb)
	return orb, nil
}

// UpdateOrbStatus pauses, resumes or fails an orb.
func (s *Service) UpdateOrbStatus(ctx context.Context, id string, status storage.OrbStatus) (*storage.Orb, error) {
	return s.UpdateOrb(ctx, id, storage.OrbUpdate{Status: &status})
}

// RecordPerformance stores a new performance snapshot for an orb.
func (s *Service) RecordPerformance(ctx context.Context, id string, perf storage.Performance) (*storage.Orb, error) {
	orb, err := s.store.UpdateOrb(ctx, id, storage.OrbUpdate{Performance: &perf})
	if err != nil {
		return nil, fmt.Errorf("record performance for orb %s: %w", id, err)
	}
	events.Emit("info", "orb.performance", "", map[string]interface{}{
		"orb_id":   id,
		"pnl":      perf.PnL.String(),
		"trades":   perf.Trades,
		"win_rate": perf.WinRate.String(),
	})
	return orb, nil
}

// DeleteOrb removes a published orb.
func (s *Service) DeleteOrb(ctx context.Context, id string) error {
	if err := s.store.DeleteOrb(ctx, id); err != nil {
		return fmt.Errorf("delete orb %s: %w", id, err)
	}
	events.Emit("info", "orb.deleted", "", map[string]interface{}{"orb_id": id})
	if s.notifier != nil {
		if err := s.notifier.OrbRemoved(ctx, id); err != nil {
			log.Printf("studio: notify orb %s removed: %v", id, err)
		}
	}
	return nil
}

func (s *Service) notifyChanged(ctx context.Context, orb *storage.Orb) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrbChanged(ctx, orb); err != nil {
		log.Printf("studio: notify orb %s: %v", orb.ID, err)
	}
}
