package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/hazyhaar/domsnap/domclone"
)

// Capture is one persisted capture: the page, the target that was
// cloned, the measured dimensions and the scroll-limit report.
type Capture struct {
	ID         string               `json:"id"`
	URL        string               `json:"url"`
	Target     string               `json:"target,omitempty"`
	Placement  string               `json:"placement"`
	Dimensions domclone.Dimensions  `json:"dimensions"`
	Limits     domclone.LimitReport `json:"limits"`
	CreatedAt  int64                `json:"created_at"`
}

// Put inserts a capture row.
func (s *Store) Put(ctx context.Context, c *Capture) error {
	limits, _ := json.Marshal(c.Limits)
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().UnixMilli()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO captures
			(id, url, target, placement, scroll_width, scroll_height,
			 offset_width, offset_height, limited, limits_json, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.URL, c.Target, c.Placement,
		c.Dimensions.ScrollWidth, c.Dimensions.ScrollHeight,
		c.Dimensions.OffsetWidth, c.Dimensions.OffsetHeight,
		boolInt(c.Limits.Limited), string(limits), c.CreatedAt,
	)
	return err
}

// Get retrieves a capture by ID. Returns (nil, nil) when no row exists.
func (s *Store) Get(ctx context.Context, id string) (*Capture, error) {
	c := &Capture{}
	var limited int
	var limitsJSON string

	err := s.DB.QueryRowContext(ctx, `
		SELECT id, url, target, placement, scroll_width, scroll_height,
		       offset_width, offset_height, limited, limits_json, created_at
		FROM captures WHERE id = ?`, id).Scan(
		&c.ID, &c.URL, &c.Target, &c.Placement,
		&c.Dimensions.ScrollWidth, &c.Dimensions.ScrollHeight,
		&c.Dimensions.OffsetWidth, &c.Dimensions.OffsetHeight,
		&limited, &limitsJSON, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(limitsJSON), &c.Limits)
	c.Limits.Limited = limited != 0
	return c, nil
}

// ListOptions filters List.
type ListOptions struct {
	URL   string // exact page URL match; empty matches all
	Limit int    // max rows; defaults to 100
}

// List returns captures newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Capture, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	query := `SELECT id, url, target, placement, scroll_width, scroll_height,
	                 offset_width, offset_height, limited, limits_json, created_at
	          FROM captures`
	var args []any
	if opts.URL != "" {
		query += ` WHERE url = ?`
		args = append(args, opts.URL)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, opts.Limit)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captures []*Capture
	for rows.Next() {
		c := &Capture{}
		var limited int
		var limitsJSON string

		if err := rows.Scan(
			&c.ID, &c.URL, &c.Target, &c.Placement,
			&c.Dimensions.ScrollWidth, &c.Dimensions.ScrollHeight,
			&c.Dimensions.OffsetWidth, &c.Dimensions.OffsetHeight,
			&limited, &limitsJSON, &c.CreatedAt,
		); err != nil {
			return nil, err
		}

		json.Unmarshal([]byte(limitsJSON), &c.Limits)
		c.Limits.Limited = limited != 0
		captures = append(captures, c)
	}
	return captures, rows.Err()
}

// Delete removes a capture by ID. Cascades to artifacts.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM captures WHERE id = ?`, id)
	return err
}

// IDsBefore returns the IDs of captures created strictly before the
// cutoff (milliseconds since epoch), oldest first.
func (s *Store) IDsBefore(ctx context.Context, cutoff int64) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id FROM captures WHERE created_at < ? ORDER BY created_at ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountCaptures returns the number of stored captures.
func (s *Store) CountCaptures(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM captures`).Scan(&n)
	return n, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
