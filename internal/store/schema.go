package store

const schema = `
CREATE TABLE IF NOT EXISTS passes (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    planned INTEGER NOT NULL,
    moved INTEGER NOT NULL,
    duplicates INTEGER NOT NULL,
    failed INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS moves (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    pass_id TEXT NOT NULL,
    source TEXT NOT NULL,
    target TEXT NOT NULL,
    category TEXT NOT NULL,
    from_category TEXT,
    is_dir BOOLEAN,
    size_bytes INTEGER,
    outcome TEXT NOT NULL,
    error TEXT,
    recorded_at TEXT NOT NULL,
    FOREIGN KEY (pass_id) REFERENCES passes(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_passes_started ON passes(started_at);
CREATE INDEX IF NOT EXISTS idx_moves_pass ON moves(pass_id);
CREATE INDEX IF NOT EXISTS idx_moves_outcome ON moves(outcome);
`
