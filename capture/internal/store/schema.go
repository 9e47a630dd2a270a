package store

// Schema contains the complete DDL for the capture tables.
const Schema = `
-- Captures: one row per captured page element, with the measured
-- dimensions and the scroll-limit report taken at capture time
CREATE TABLE IF NOT EXISTS captures (
    id            TEXT PRIMARY KEY,
    url           TEXT NOT NULL,
    target        TEXT NOT NULL DEFAULT '',
    placement     TEXT NOT NULL DEFAULT 'offscreen',
    scroll_width  INTEGER NOT NULL DEFAULT 0,
    scroll_height INTEGER NOT NULL DEFAULT 0,
    offset_width  INTEGER NOT NULL DEFAULT 0,
    offset_height INTEGER NOT NULL DEFAULT 0,
    limited       INTEGER NOT NULL DEFAULT 0,
    limits_json   TEXT NOT NULL DEFAULT '{}',
    created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_captures_created ON captures(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_captures_url ON captures(url);

-- Artifacts: rendered outputs (png, jpeg, pdf, md) stored on disk,
-- indexed here by capture and format
CREATE TABLE IF NOT EXISTS artifacts (
    capture_id TEXT NOT NULL,
    format     TEXT NOT NULL,
    path       TEXT NOT NULL,
    bytes      INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (capture_id, format),
    FOREIGN KEY (capture_id) REFERENCES captures(id) ON DELETE CASCADE
);
`
