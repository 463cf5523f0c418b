package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sevgi-app/memoir/pkg/indexing"
	"github.com/sevgi-app/memoir/pkg/stats"
)

// SQLiteStore implements DocumentStore on a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database and applies schema and
// migrations.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return s.runMigrations()
}

func (s *SQLiteStore) runMigrations() error {
	currentVersion, err := s.schemaVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		for _, stmt := range m.Statements {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := tx.Exec(stmt); err != nil && !isIgnorableMigrationError(err) {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d failed: %w", m.Version, err)
			}
		}

		now := time.Now().UnixMilli()
		if _, err := tx.Exec(`
			INSERT INTO store_metadata (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, "schema_version", strconv.Itoa(m.Version), now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema_version for migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
		currentVersion = m.Version
	}
	return nil
}

func (s *SQLiteStore) schemaVersion() (int, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM store_metadata WHERE key = ?`, "schema_version").Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid schema_version %q: %w", value, err)
	}
	return v, nil
}

func isIgnorableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate column name") ||
		strings.Contains(msg, "already exists")
}

// Ping runs a trivial query so the health endpoint exercises the actual
// database file, not just the lazy connection handle.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRelationship replaces a relationship's index in one transaction:
// stale entries go, the record is upserted, fresh entries come in and
// the user's active pointer moves to this relationship. A re-upload of
// the same relationship keeps its created_at and participant mapping.
func (s *SQLiteStore) SaveRelationship(ctx context.Context, uid string, rec *Relationship, entries []indexing.ChunkIndexEntry) error {
	masterJSON, err := json.Marshal(rec.MasterSummary)
	if err != nil {
		return fmt.Errorf("failed to encode master summary: %w", err)
	}
	statsJSON, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM chunk_entries WHERE uid = ? AND relationship_id = ?
	`, uid, rec.ID); err != nil {
		return fmt.Errorf("failed to clear old chunk entries: %w", err)
	}

	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO relationships (uid, id, speakers, total_messages, total_chunks,
			start_date, end_date, master_summary, stats, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid, id) DO UPDATE SET
			speakers = excluded.speakers,
			total_messages = excluded.total_messages,
			total_chunks = excluded.total_chunks,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			master_summary = excluded.master_summary,
			stats = excluded.stats,
			updated_at = excluded.updated_at
	`, uid, rec.ID, encodeStrings(rec.Speakers), rec.TotalMessages, rec.TotalChunks,
		epochMilli(rec.StartDate), epochMilli(rec.EndDate), string(masterJSON), string(statsJSON),
		now, now); err != nil {
		return fmt.Errorf("failed to upsert relationship: %w", err)
	}

	for _, e := range entries {
		anchorsJSON, err := json.Marshal(e.Anchors)
		if err != nil {
			return fmt.Errorf("failed to encode anchors for %s: %w", e.ChunkID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunk_entries (uid, relationship_id, chunk_id, date_range,
				start_date, end_date, message_count, speakers, keywords, topics,
				sentiment, summary, anchors, storage_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, uid, rec.ID, e.ChunkID, e.DateRange,
			epochMilli(e.StartDate), epochMilli(e.EndDate), e.MessageCount,
			encodeStrings(e.Speakers), encodeStrings(e.Keywords), encodeStrings(e.Topics),
			e.Sentiment, e.Summary, string(anchorsJSON), e.StoragePath); err != nil {
			return fmt.Errorf("failed to insert chunk entry %s: %w", e.ChunkID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (uid, active_relationship_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			active_relationship_id = excluded.active_relationship_id,
			updated_at = excluded.updated_at
	`, uid, rec.ID, now); err != nil {
		return fmt.Errorf("failed to update active relationship: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) Relationship(ctx context.Context, uid, id string) (*Relationship, error) {
	activeID, err := s.activeID(ctx, uid)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, relationshipColumns+`
		FROM relationships WHERE uid = ? AND id = ?
	`, uid, id)
	rec, err := scanRelationship(row, activeID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) Relationships(ctx context.Context, uid string) ([]*Relationship, error) {
	activeID, err := s.activeID(ctx, uid)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, relationshipColumns+`
		FROM relationships WHERE uid = ? ORDER BY updated_at DESC
	`, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var recs []*Relationship
	for rows.Next() {
		rec, err := scanRelationship(rows, activeID)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) ChunkEntries(ctx context.Context, uid, relationshipID string) ([]indexing.ChunkIndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, date_range, start_date, end_date, message_count,
			speakers, keywords, topics, sentiment, summary, anchors, storage_path
		FROM chunk_entries
		WHERE uid = ? AND relationship_id = ?
		ORDER BY start_date ASC
	`, uid, relationshipID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk entries: %w", err)
	}
	defer rows.Close()

	var entries []indexing.ChunkIndexEntry
	for rows.Next() {
		var e indexing.ChunkIndexEntry
		var startMS, endMS int64
		var speakers, keywords, topics, anchors sql.NullString
		var sentiment, summary sql.NullString
		if err := rows.Scan(&e.ChunkID, &e.DateRange, &startMS, &endMS, &e.MessageCount,
			&speakers, &keywords, &topics, &sentiment, &summary, &anchors, &e.StoragePath); err != nil {
			return nil, fmt.Errorf("failed to scan chunk entry: %w", err)
		}
		e.StartDate = fromEpochMilli(startMS)
		e.EndDate = fromEpochMilli(endMS)
		e.Speakers = parseStringArray(speakers.String)
		e.Keywords = parseStringArray(keywords.String)
		e.Topics = parseStringArray(topics.String)
		e.Sentiment = sentiment.String
		e.Summary = summary.String
		e.Anchors = parseAnchorArray(anchors.String)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteRelationship removes the record and, via the foreign key, its
// chunk entries. If the user's active pointer referenced it, the pointer
// is cleared in the same transaction.
func (s *SQLiteStore) DeleteRelationship(ctx context.Context, uid, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM relationships WHERE uid = ? AND id = ?
	`, uid, id)
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET active_relationship_id = NULL, updated_at = ?
		WHERE uid = ? AND active_relationship_id = ?
	`, time.Now().UnixMilli(), uid, id); err != nil {
		return fmt.Errorf("failed to clear active relationship: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) SetActive(ctx context.Context, uid, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM relationships WHERE uid = ? AND id = ?
	`, uid, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (uid, active_relationship_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			active_relationship_id = excluded.active_relationship_id,
			updated_at = excluded.updated_at
	`, uid, id, time.Now().UnixMilli())
	return err
}

// ClearActive deactivates a relationship by clearing the user's active
// pointer. Clearing one that is not the active relationship is a no-op,
// but the relationship itself must exist.
func (s *SQLiteStore) ClearActive(ctx context.Context, uid, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM relationships WHERE uid = ? AND id = ?
	`, uid, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET active_relationship_id = NULL, updated_at = ?
		WHERE uid = ? AND active_relationship_id = ?
	`, time.Now().UnixMilli(), uid, id)
	return err
}

func (s *SQLiteStore) SetParticipants(ctx context.Context, uid, id, self, partner string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE relationships
		SET self_participant = ?, partner_participant = ?, updated_at = ?
		WHERE uid = ? AND id = ?
	`, self, partner, time.Now().UnixMilli(), uid, id)
	if err != nil {
		return fmt.Errorf("failed to set participants: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveRelationship returns nil without error when the user has no
// active relationship.
func (s *SQLiteStore) ActiveRelationship(ctx context.Context, uid string) (*Relationship, error) {
	activeID, err := s.activeID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if activeID == "" {
		return nil, nil
	}
	rec, err := s.Relationship(ctx, uid, activeID)
	if err == ErrNotFound {
		return nil, nil
	}
	return rec, err
}

func (s *SQLiteStore) activeID(ctx context.Context, uid string) (string, error) {
	var id sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT active_relationship_id FROM users WHERE uid = ?
	`, uid).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id.String, nil
}

const relationshipColumns = `
	SELECT id, speakers, total_messages, total_chunks, start_date, end_date,
		master_summary, stats, self_participant, partner_participant,
		created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRelationship(row rowScanner, activeID string) (*Relationship, error) {
	var rec Relationship
	var speakers, masterJSON, statsJSON, self, partner sql.NullString
	var startMS, endMS sql.NullInt64
	var createdMS, updatedMS int64
	if err := row.Scan(&rec.ID, &speakers, &rec.TotalMessages, &rec.TotalChunks,
		&startMS, &endMS, &masterJSON, &statsJSON, &self, &partner,
		&createdMS, &updatedMS); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan relationship: %w", err)
	}

	rec.Speakers = parseStringArray(speakers.String)
	rec.StartDate = fromEpochMilli(startMS.Int64)
	rec.EndDate = fromEpochMilli(endMS.Int64)
	rec.SelfParticipant = self.String
	rec.PartnerParticipant = partner.String
	rec.CreatedAt = fromEpochMilli(createdMS)
	rec.UpdatedAt = fromEpochMilli(updatedMS)
	rec.IsActive = activeID != "" && rec.ID == activeID

	if masterJSON.String != "" {
		var ms indexing.MasterSummary
		if err := json.Unmarshal([]byte(masterJSON.String), &ms); err == nil {
			rec.MasterSummary = ms
		}
	}
	if statsJSON.String != "" {
		var st stats.Result
		if err := json.Unmarshal([]byte(statsJSON.String), &st); err == nil {
			rec.Stats = st
		}
	}
	return &rec, nil
}

func epochMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromEpochMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
