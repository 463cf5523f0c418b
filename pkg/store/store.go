// Package store persists relationship records and their chunk index
// entries. The index (small, scannable metadata) lives in SQLite; the
// raw chunk text lives in a blob store and is only fetched when a query
// actually needs verbatim content.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sevgi-app/memoir/pkg/indexing"
	"github.com/sevgi-app/memoir/pkg/stats"
)

// ErrNotFound is returned when a relationship or blob does not exist.
var ErrNotFound = errors.New("not found")

// Relationship is the top-level record for one imported chat history.
type Relationship struct {
	ID                 string                 `json:"id"`
	Speakers           []string               `json:"speakers"`
	TotalMessages      int                    `json:"totalMessages"`
	TotalChunks        int                    `json:"totalChunks"`
	StartDate          time.Time              `json:"startDate"`
	EndDate            time.Time              `json:"endDate"`
	MasterSummary      indexing.MasterSummary `json:"masterSummary"`
	Stats              stats.Result           `json:"stats"`
	IsActive           bool                   `json:"isActive"`
	SelfParticipant    string                 `json:"selfParticipant,omitempty"`
	PartnerParticipant string                 `json:"partnerParticipant,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

// DocumentStore is the index side of persistence. SaveRelationship is
// atomic: entries, the relationship record and the user's active pointer
// change together or not at all.
type DocumentStore interface {
	SaveRelationship(ctx context.Context, uid string, rec *Relationship, entries []indexing.ChunkIndexEntry) error
	Relationship(ctx context.Context, uid, id string) (*Relationship, error)
	Relationships(ctx context.Context, uid string) ([]*Relationship, error)
	ChunkEntries(ctx context.Context, uid, relationshipID string) ([]indexing.ChunkIndexEntry, error)
	DeleteRelationship(ctx context.Context, uid, id string) error
	SetActive(ctx context.Context, uid, id string) error
	ClearActive(ctx context.Context, uid, id string) error
	SetParticipants(ctx context.Context, uid, id, self, partner string) error
	ActiveRelationship(ctx context.Context, uid string) (*Relationship, error)
	Ping(ctx context.Context) error
	Close() error
}

// BlobStore holds raw chunk text addressed by relative path
// ("uid/relationshipID/chunkID.txt").
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	DeletePrefix(ctx context.Context, prefix string) error
}
