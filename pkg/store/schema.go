package store

// schema is the SQLite layout for the relationship index. All JSON
// columns hold documents produced by encoding/json; timestamps are epoch
// milliseconds. A relationship's active status is not a column: the
// users table's pointer is the single source of truth.
const schema = `
-- Users table: one row per app user, tracks the active relationship
CREATE TABLE IF NOT EXISTS users (
    uid TEXT PRIMARY KEY,
    active_relationship_id TEXT,
    updated_at INTEGER NOT NULL
);

-- Relationships table: one row per imported chat history
CREATE TABLE IF NOT EXISTS relationships (
    uid TEXT NOT NULL,
    id TEXT NOT NULL,
    speakers TEXT NOT NULL,          -- JSON array
    total_messages INTEGER NOT NULL DEFAULT 0,
    total_chunks INTEGER NOT NULL DEFAULT 0,
    start_date INTEGER,              -- epoch ms of first message
    end_date INTEGER,                -- epoch ms of last message
    master_summary TEXT,             -- JSON document
    stats TEXT,                      -- JSON document
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (uid, id)
);

-- Chunk entries: searchable metadata, raw text lives at storage_path
CREATE TABLE IF NOT EXISTS chunk_entries (
    uid TEXT NOT NULL,
    relationship_id TEXT NOT NULL,
    chunk_id TEXT NOT NULL,
    date_range TEXT NOT NULL,
    start_date INTEGER NOT NULL,
    end_date INTEGER NOT NULL,
    message_count INTEGER NOT NULL,
    speakers TEXT NOT NULL,          -- JSON array
    keywords TEXT,                   -- JSON array
    topics TEXT,                     -- JSON array
    sentiment TEXT,
    summary TEXT,
    anchors TEXT,                    -- JSON array of anchor objects
    storage_path TEXT NOT NULL,
    PRIMARY KEY (uid, relationship_id, chunk_id),
    FOREIGN KEY (uid, relationship_id) REFERENCES relationships(uid, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chunk_entries_range ON chunk_entries(uid, relationship_id, start_date);
CREATE INDEX IF NOT EXISTS idx_relationships_updated ON relationships(uid, updated_at);

-- Store metadata: key-value pairs (schema version etc.)
CREATE TABLE IF NOT EXISTS store_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

type migration struct {
	Version    int
	Statements []string
}

var migrations = []migration{
	{
		// Participant mapping (which speaker is the app user) arrived
		// after the initial schema.
		Version: 1,
		Statements: []string{
			`ALTER TABLE relationships ADD COLUMN self_participant TEXT`,
			`ALTER TABLE relationships ADD COLUMN partner_participant TEXT`,
		},
	},
}
