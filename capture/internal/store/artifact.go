package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Artifact is one rendered output of a capture, stored on disk and
// indexed by (capture, format).
type Artifact struct {
	CaptureID string `json:"capture_id"`
	Format    string `json:"format"`
	Path      string `json:"path"`
	Bytes     int64  `json:"bytes"`
	CreatedAt int64  `json:"created_at"`
}

// AddArtifact records an artifact for a capture. Re-rendering the same
// format replaces the previous row.
func (s *Store) AddArtifact(ctx context.Context, a *Artifact) error {
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO artifacts (capture_id, format, path, bytes, created_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT (capture_id, format) DO UPDATE SET
			path = excluded.path, bytes = excluded.bytes, created_at = excluded.created_at`,
		a.CaptureID, a.Format, a.Path, a.Bytes, a.CreatedAt,
	)
	return err
}

// ArtifactsFor returns the artifacts of a capture ordered by format.
func (s *Store) ArtifactsFor(ctx context.Context, captureID string) ([]*Artifact, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT capture_id, format, path, bytes, created_at
		FROM artifacts WHERE capture_id = ? ORDER BY format ASC`, captureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		a := &Artifact{}
		if err := rows.Scan(&a.CaptureID, &a.Format, &a.Path, &a.Bytes, &a.CreatedAt); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

// CountArtifacts returns the number of indexed artifacts.
func (s *Store) CountArtifacts(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts`).Scan(&n)
	return n, err
}

// Artifact returns one artifact by capture and format, or (nil, nil).
func (s *Store) Artifact(ctx context.Context, captureID, format string) (*Artifact, error) {
	a := &Artifact{}
	err := s.DB.QueryRowContext(ctx, `
		SELECT capture_id, format, path, bytes, created_at
		FROM artifacts WHERE capture_id = ? AND format = ?`, captureID, format).Scan(
		&a.CaptureID, &a.Format, &a.Path, &a.Bytes, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
