package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevgi-app/memoir/pkg/indexing"
	"github.com/sevgi-app/memoir/pkg/stats"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id string) *Relationship {
	return &Relationship{
		ID:            id,
		Speakers:      []string{"Ayşe", "Mehmet"},
		TotalMessages: 120,
		TotalChunks:   2,
		StartDate:     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 3, 20, 22, 0, 0, 0, time.UTC),
		MasterSummary: indexing.MasterSummary{
			ShortSummary: "İnişli çıkışlı bir ilişki.",
			Personalities: map[string]indexing.SpeakerProfile{
				"Ayşe": {Traits: []string{"sıcak"}},
			},
		},
		Stats: stats.Result{
			Counts:  stats.Counts{Messages: map[string]int{"Ayşe": 70, "Mehmet": 50}},
			Winners: stats.Winners{MoreMessages: "Ayşe"},
		},
	}
}

func testEntries(relID string) []indexing.ChunkIndexEntry {
	return []indexing.ChunkIndexEntry{
		{
			ChunkID:      "chunk_001",
			DateRange:    "01.01.2024 - 14.01.2024",
			StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:      time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
			MessageCount: 60,
			Speakers:     []string{"Ayşe", "Mehmet"},
			Keywords:     []string{"tatil"},
			Topics:       []string{"vacation"},
			Sentiment:    "positive",
			Summary:      "Tatil planladılar.",
			Anchors:      []indexing.Anchor{{Type: "plan", Quote: "tatile gidelim"}},
			StoragePath:  "u1/" + relID + "/chunk_001.txt",
		},
		{
			ChunkID:      "chunk_002",
			DateRange:    "15.01.2024 - 20.03.2024",
			StartDate:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			EndDate:      time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
			MessageCount: 60,
			Speakers:     []string{"Ayşe", "Mehmet"},
			Sentiment:    "mixed",
			Summary:      "Kavga ettiler.",
			StoragePath:  "u1/" + relID + "/chunk_002.txt",
		},
	}
}

func TestSaveAndLoadRelationship(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRelationship(ctx, "u1", testRecord("rel-1"), testEntries("rel-1")))

	rec, err := s.Relationship(ctx, "u1", "rel-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ayşe", "Mehmet"}, rec.Speakers)
	assert.Equal(t, 120, rec.TotalMessages)
	assert.Equal(t, "İnişli çıkışlı bir ilişki.", rec.MasterSummary.ShortSummary)
	assert.Equal(t, "Ayşe", rec.Stats.Winners.MoreMessages)
	assert.True(t, rec.IsActive, "a saved relationship becomes the active one")
	assert.True(t, rec.StartDate.Equal(testRecord("rel-1").StartDate))

	entries, err := s.ChunkEntries(ctx, "u1", "rel-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "chunk_001", entries[0].ChunkID, "entries ordered by start date")
	assert.Equal(t, []string{"tatil"}, entries[0].Keywords)
	require.Len(t, entries[0].Anchors, 1)
	assert.Equal(t, "plan", entries[0].Anchors[0].Type)
}

func TestRelationshipNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Relationship(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRelationshipsAreIsolatedByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRelationship(ctx, "u1", testRecord("rel-1"), nil))
	require.NoError(t, s.SaveRelationship(ctx, "u2", testRecord("rel-2"), nil))

	recs, err := s.Relationships(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "rel-1", recs[0].ID)

	_, err = s.Relationship(ctx, "u1", "rel-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReuploadReplacesEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRelationship(ctx, "u1", testRecord("rel-1"), testEntries("rel-1")))

	// Second upload of the same relationship with one chunk only.
	rec := testRecord("rel-1")
	rec.TotalChunks = 1
	require.NoError(t, s.SaveRelationship(ctx, "u1", rec, testEntries("rel-1")[:1]))

	entries, err := s.ChunkEntries(ctx, "u1", "rel-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	got, err := s.Relationship(ctx, "u1", "rel-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalChunks)
}

func TestDeleteRelationshipCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRelationship(ctx, "u1", testRecord("rel-1"), testEntries("rel-1")))
	require.NoError(t, s.DeleteRelationship(ctx, "u1", "rel-1"))

	_, err := s.Relationship(ctx, "u1", "rel-1")
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := s.ChunkEntries(ctx, "u1", "rel-1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Active pointer cleared too.
	active, err := s.ActiveRelationship(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, active)

	assert.ErrorIs(t, s.DeleteRelationship(ctx, "u1", "rel-1"), ErrNotFound)
}

func TestActivePointerFollowsUploadsAndSetActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRelationship(ctx, "u1", testRecord("rel-1"), nil))
	require.NoError(t, s.SaveRelationship(ctx, "u1", testRecord("rel-2"), nil))

	active, err := s.ActiveRelationship(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "rel-2", active.ID, "latest upload becomes active")

	require.NoError(t, s.SetActive(ctx, "u1", "rel-1"))
	active, err = s.ActiveRelationship(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "rel-1", active.ID)

	recs, err := s.Relationships(ctx, "u1")
	require.NoError(t, err)
	for _, rec := range recs {
		assert.Equal(t, rec.ID == "rel-1", rec.IsActive)
	}

	assert.ErrorIs(t, s.SetActive(ctx, "u1", "missing"), ErrNotFound)
}

func TestClearActiveDeactivates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRelationship(ctx, "u1", testRecord("rel-1"), nil))
	require.NoError(t, s.SaveRelationship(ctx, "u1", testRecord("rel-2"), nil))

	// Clearing a non-active relationship leaves the pointer alone.
	require.NoError(t, s.ClearActive(ctx, "u1", "rel-1"))
	active, err := s.ActiveRelationship(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "rel-2", active.ID)

	require.NoError(t, s.ClearActive(ctx, "u1", "rel-2"))
	active, err = s.ActiveRelationship(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, active)

	rec, err := s.Relationship(ctx, "u1", "rel-2")
	require.NoError(t, err)
	assert.False(t, rec.IsActive)

	assert.ErrorIs(t, s.ClearActive(ctx, "u1", "missing"), ErrNotFound)
}

func TestSetParticipantsSurvivesReupload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRelationship(ctx, "u1", testRecord("rel-1"), nil))
	require.NoError(t, s.SetParticipants(ctx, "u1", "rel-1", "Ayşe", "Mehmet"))

	// Re-upload must not wipe the mapping.
	require.NoError(t, s.SaveRelationship(ctx, "u1", testRecord("rel-1"), nil))

	rec, err := s.Relationship(ctx, "u1", "rel-1")
	require.NoError(t, err)
	assert.Equal(t, "Ayşe", rec.SelfParticipant)
	assert.Equal(t, "Mehmet", rec.PartnerParticipant)

	assert.ErrorIs(t, s.SetParticipants(ctx, "u1", "missing", "a", "b"), ErrNotFound)
}

func TestFileBlobStoreRoundTrip(t *testing.T) {
	blobs, err := NewFileBlobStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, blobs.Put(ctx, "u1/rel-1/chunk_001.txt", []byte("merhaba")))

	data, err := blobs.Get(ctx, "u1/rel-1/chunk_001.txt")
	require.NoError(t, err)
	assert.Equal(t, "merhaba", string(data))

	_, err = blobs.Get(ctx, "u1/rel-1/missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, blobs.DeletePrefix(ctx, "u1/rel-1"))
	_, err = blobs.Get(ctx, "u1/rel-1/chunk_001.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a prefix that never existed is fine.
	require.NoError(t, blobs.DeletePrefix(ctx, "u9/none"))
}

func TestFileBlobStoreRejectsEscapingPaths(t *testing.T) {
	blobs, err := NewFileBlobStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, blobs.Put(ctx, "../outside.txt", []byte("x")))
	assert.Error(t, blobs.Put(ctx, "/etc/passwd", []byte("x")))
	_, err = blobs.Get(ctx, "../../secret")
	assert.Error(t, err)
}
