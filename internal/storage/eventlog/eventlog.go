// Package eventlog persists the studio event stream to Postgres.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Row is an event as stored.
type Row struct {
	EventID    int64                  `json:"event_id"`
	Timestamp  time.Time              `json:"ts"`
	Level      string                 `json:"level"`
	Event      string                 `json:"event"`
	Message    *string                `json:"msg,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
	InstanceID string                 `json:"instance_id"`
	DraftID    *string                `json:"draft_id,omitempty"`
}

// Client writes events for one studio instance.
type Client struct {
	db         *sql.DB
	instanceID string
}

// Open connects with a lib/pq DSN and makes sure the events table exists.
func Open(ctx context.Context, dsn, instanceID string) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	c := &Client{db: db, instanceID: instanceID}
	if err := c.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create events table: %w", err)
	}

	return c, nil
}

func (c *Client) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS studio_events (
			event_id    BIGSERIAL PRIMARY KEY,
			ts          TIMESTAMPTZ NOT NULL,
			level       TEXT NOT NULL,
			event       TEXT NOT NULL,
			msg         TEXT,
			fields      JSONB,
			instance_id TEXT NOT NULL,
			draft_id    TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_studio_events_ts ON studio_events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_studio_events_draft ON studio_events(draft_id);
	`
	_, err := c.db.ExecContext(ctx, query)
	return err
}

// Append inserts one event. A draft_id field, when present, is also stored
// in its own column so a draft's history can be queried.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}) error {
	var fieldsJSON []byte
	var err error
	if fields != nil {
		fieldsJSON, err = json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
	}

	var msgPtr *string
	if msg != "" {
		msgPtr = &msg
	}

	var draftPtr *string
	if id, ok := fields["draft_id"].(string); ok && id != "" {
		draftPtr = &id
	}

	query := `
		INSERT INTO studio_events (ts, level, event, msg, fields, instance_id, draft_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = c.db.Exec(query, ts, level, event, msgPtr, fieldsJSON, c.instanceID, draftPtr)
	return err
}

// Query returns the most recent events for this instance, newest first.
// A non-empty draftID restricts the result to that draft.
func (c *Client) Query(ctx context.Context, limit int, draftID string) ([]Row, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 10000 {
		limit = 10000
	}

	query := `
		SELECT event_id, ts, level, event, msg, fields, instance_id, draft_id
		FROM studio_events
		WHERE instance_id = $1 AND ($2 = '' OR draft_id = $2)
		ORDER BY ts DESC
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, query, c.instanceID, draftID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var fieldsJSON []byte
		var msg, draft sql.NullString

		if err := rows.Scan(&r.EventID, &r.Timestamp, &r.Level, &r.Event, &msg, &fieldsJSON, &r.InstanceID, &draft); err != nil {
			return nil, err
		}

		if msg.Valid {
			r.Message = &msg.String
		}
		if draft.Valid {
			r.DraftID = &draft.String
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &r.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}

		out = append(out, r)
	}

	return out, rows.Err()
}

// Ping reports whether the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
