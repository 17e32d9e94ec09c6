// Package storage defines strategy drafts and published orbs and the store
// that keeps them.
package storage

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is an in-progress, unpublished strategy.
type Draft struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Prompt       string    `json:"prompt"`
	Template     string    `json:"template,omitempty"`
	Document     string    `json:"document,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
}

// NewDraft is the input for CreateDraft. An empty Name gets the default.
type NewDraft struct {
	Name     string
	Prompt   string
	Template string
	Document string
}

// DraftUpdate changes the non-nil fields of a draft.
type DraftUpdate struct {
	Name     *string `json:"name,omitempty"`
	Document *string `json:"document,omitempty"`
}

// OrbStatus is the run state of a published orb.
type OrbStatus string

const (
	OrbActive OrbStatus = "active"
	OrbPaused OrbStatus = "paused"
	OrbFailed OrbStatus = "failed"
)

// Valid reports whether s is a known status.
func (s OrbStatus) Valid() bool {
	switch s {
	case OrbActive, OrbPaused, OrbFailed:
		return true
	}
	return false
}

// Performance is the simulated track record of an orb.
type Performance struct {
	PnL        decimal.Decimal `json:"pnl"`
	PnLPercent decimal.Decimal `json:"pnlPercent"`
	Trades     int             `json:"trades"`
	WinRate    decimal.Decimal `json:"winRate"`
}

// Orb is a published strategy.
type Orb struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Emoji        string      `json:"emoji"`
	Status       OrbStatus   `json:"status"`
	Prompt       string      `json:"prompt"`
	Template     string      `json:"template,omitempty"`
	Document     string      `json:"document,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	LastModified time.Time   `json:"lastModified"`
	Performance  Performance `json:"performance"`
}

// OrbUpdate changes the non-nil fields of an orb.
type OrbUpdate struct {
	Name        *string      `json:"name,omitempty"`
	Status      *OrbStatus   `json:"status,omitempty"`
	Performance *Performance `json:"performance,omitempty"`
}

// Store keeps drafts and orbs. Writes are last-write-wins; applying the same
// DraftUpdate twice leaves the same result.
type Store interface {
	// CreateDraft stores a new draft with a fresh id.
	CreateDraft(ctx context.Context, d NewDraft) (*Draft, error)

	// UpdateDraft applies u and bumps LastModified. Returns ErrNotFound.
	UpdateDraft(ctx context.Context, id string, u DraftUpdate) (*Draft, error)

	// GetDraft returns ErrNotFound if the draft does not exist.
	GetDraft(ctx context.Context, id string) (*Draft, error)

	// ListDrafts returns drafts ordered by CreatedAt, oldest first.
	ListDrafts(ctx context.Context) ([]*Draft, error)

	// DeleteDraft returns ErrNotFound if the draft does not exist.
	DeleteDraft(ctx context.Context, id string) error

	// Publish turns a draft into an active orb and removes the draft in the
	// same step. A nil or empty document means the draft's own document.
	Publish(ctx context.Context, draftID string, document *string) (*Orb, error)

	GetOrb(ctx context.Context, id string) (*Orb, error)

	// ListOrbs returns orbs ordered by CreatedAt, oldest first.
	ListOrbs(ctx context.Context) ([]*Orb, error)

	// UpdateOrb applies u and bumps LastModified. An invalid status is
	// ErrInvalidInput.
	UpdateOrb(ctx context.Context, id string, u OrbUpdate) (*Orb, error)

	DeleteOrb(ctx context.Context, id string) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// OrbEmojis are the badges an orb can be given at publish time.
var OrbEmojis = []string{"🟣", "🟠", "🔵", "🟢", "🟡"}

// RandomEmoji picks an orb badge.
func RandomEmoji() string {
	return OrbEmojis[rand.IntN(len(OrbEmojis))]
}

// DefaultDraftName names a draft after the last four characters of its id.
func DefaultDraftName(id string) string {
	suffix := id
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return "Untitled Orb " + suffix
}

// ResolveDocument picks the document an orb is published with.
func ResolveDocument(d *Draft, document *string) string {
	if document != nil && *document != "" {
		return *document
	}
	return d.Document
}
