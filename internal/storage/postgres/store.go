package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/AaronLay10/OrbFi/internal/storage"
)

// Store implements storage.Store using PostgreSQL.
type Store struct {
	pool *Pool
}

// NewStore creates a Store. The schema must already be migrated.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

const draftColumns = `id, name, prompt, template, document, created_at, last_modified`

// Performance figures are read as text so no precision is lost on the way
// into decimal.Decimal.
const orbColumns = `id, name, emoji, status, prompt, template, document, created_at, last_modified,
	pnl::text, pnl_percent::text, trades, win_rate::text`

func (s *Store) CreateDraft(ctx context.Context, d storage.NewDraft) (*storage.Draft, error) {
	id := uuid.NewString()
	name := d.Name
	if name == "" {
		name = storage.DefaultDraftName(id)
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO drafts (` + draftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + draftColumns

	draft, err := scanDraft(s.pool.QueryRow(ctx, query, id, name, d.Prompt, d.Template, d.Document, now))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert draft: %w", err)
	}
	return draft, nil
}

func (s *Store) UpdateDraft(ctx context.Context, id string, u storage.DraftUpdate) (*storage.Draft, error) {
	if u.Name != nil && *u.Name == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		UPDATE drafts SET
			name = COALESCE($2, name),
			document = COALESCE($3, document),
			last_modified = $4
		WHERE id = $1
		RETURNING ` + draftColumns

	draft, err := scanDraft(s.pool.QueryRow(ctx, query, id, u.Name, u.Document, time.Now().UTC()))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return draft, nil
}

func (s *Store) GetDraft(ctx context.Context, id string) (*storage.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = $1`

	draft, err := scanDraft(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return draft, nil
}

func (s *Store) ListDrafts(ctx context.Context) ([]*storage.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts ORDER BY created_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*storage.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft row: %w", err)
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate draft rows: %w", err)
	}
	return drafts, nil
}

func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM drafts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Publish moves the draft into orbs in one transaction.
func (s *Store) Publish(ctx context.Context, draftID string, document *string) (*storage.Orb, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := scanDraft(tx.QueryRow(ctx,
		`DELETE FROM drafts WHERE id = $1 RETURNING `+draftColumns, draftID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("take draft: %w", err)
	}

	query := `
		INSERT INTO orbs (id, name, emoji, status, prompt, template, document, created_at, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + orbColumns

	orb, err := scanOrb(tx.QueryRow(ctx, query,
		uuid.NewString(),
		d.Name,
		storage.RandomEmoji(),
		string(storage.OrbActive),
		d.Prompt,
		d.Template,
		storage.ResolveDocument(d, document),
		d.CreatedAt,
		time.Now().UTC(),
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert orb: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return orb, nil
}

func (s *Store) GetOrb(ctx context.Context, id string) (*storage.Orb, error) {
	orb, err := scanOrb(s.pool.QueryRow(ctx, `SELECT `+orbColumns+` FROM orbs WHERE id = $1`, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get orb: %w", err)
	}
	return orb, nil
}

func (s *Store) ListOrbs(ctx context.Context) ([]*storage.Orb, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+orbColumns+` FROM orbs ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list orbs: %w", err)
	}
	defer rows.Close()

	var orbs []*storage.Orb
	for rows.Next() {
		o, err := scanOrb(rows)
		if err != nil {
			return nil, fmt.Errorf("scan orb row: %w", err)
		}
		orbs = append(orbs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orb rows: %w", err)
	}
	return orbs, nil
}

func (s *Store) UpdateOrb(ctx context.Context, id string, u storage.OrbUpdate) (*storage.Orb, error) {
	if u.Status != nil && !u.Status.Valid() {
		return nil, storage.ErrInvalidInput
	}
	if u.Name != nil && *u.Name == "" {
		return nil, storage.ErrInvalidInput
	}

	var status *string
	if u.Status != nil {
		v := string(*u.Status)
		status = &v
	}
	var pnl, pnlPercent, winRate *string
	var trades *int
	if p := u.Performance; p != nil {
		pnl, pnlPercent, winRate = ptr(p.PnL.String()), ptr(p.PnLPercent.String()), ptr(p.WinRate.String())
		trades = &p.Trades
	}

	query := `
		UPDATE orbs SET
			name = COALESCE($2, name),
			status = COALESCE($3, status),
			pnl = COALESCE($4::numeric, pnl),
			pnl_percent = COALESCE($5::numeric, pnl_percent),
			trades = COALESCE($6, trades),
			win_rate = COALESCE($7::numeric, win_rate),
			last_modified = $8
		WHERE id = $1
		RETURNING ` + orbColumns

	orb, err := scanOrb(s.pool.QueryRow(ctx, query, id, u.Name, status, pnl, pnlPercent, trades, winRate, time.Now().UTC()))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("update orb: %w", err)
	}
	return orb, nil
}

func (s *Store) DeleteOrb(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM orbs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete orb: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanDraft(row pgx.Row) (*storage.Draft, error) {
	var d storage.Draft
	err := row.Scan(&d.ID, &d.Name, &d.Prompt, &d.Template, &d.Document, &d.CreatedAt, &d.LastModified)
	if err != nil {
		return nil, err
	}
	d.CreatedAt = d.CreatedAt.UTC()
	d.LastModified = d.LastModified.UTC()
	return &d, nil
}

func scanOrb(row pgx.Row) (*storage.Orb, error) {
	var o storage.Orb
	var status, pnl, pnlPercent, winRate string

	err := row.Scan(
		&o.ID,
		&o.Name,
		&o.Emoji,
		&status,
		&o.Prompt,
		&o.Template,
		&o.Document,
		&o.CreatedAt,
		&o.LastModified,
		&pnl,
		&pnlPercent,
		&o.Performance.Trades,
		&winRate,
	)
	if err != nil {
		return nil, err
	}

	o.Status = storage.OrbStatus(status)
	o.CreatedAt = o.CreatedAt.UTC()
	o.LastModified = o.LastModified.UTC()
	if o.Performance.PnL, err = decimal.NewFromString(pnl); err != nil {
		return nil, fmt.Errorf("parse pnl %q: %w", pnl, err)
	}
	if o.Performance.PnLPercent, err = decimal.NewFromString(pnlPercent); err != nil {
		return nil, fmt.Errorf("parse pnl_percent %q: %w", pnlPercent, err)
	}
	if o.Performance.WinRate, err = decimal.NewFromString(winRate); err != nil {
		return nil, fmt.Errorf("parse win_rate %q: %w", winRate, err)
	}
	return &o, nil
}

func ptr[T any](v T) *T {
	return &v
}
