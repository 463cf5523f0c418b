// Package pipeline runs a chat export end to end: parse, segment, index
// every chunk, aggregate the master summary, compute statistics and
// persist the result. Chunk indexing fans out over a bounded worker
// pool; everything else is sequential.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sevgi-app/memoir/pkg/chatlog"
	"github.com/sevgi-app/memoir/pkg/chunking"
	"github.com/sevgi-app/memoir/pkg/indexing"
	"github.com/sevgi-app/memoir/pkg/memconfig"
	"github.com/sevgi-app/memoir/pkg/stats"
	"github.com/sevgi-app/memoir/pkg/store"
)

type Pipeline struct {
	cfg   *memconfig.Config
	docs  store.DocumentStore
	blobs store.BlobStore
	idx   *indexing.Indexer
}

func New(cfg *memconfig.Config, docs store.DocumentStore, blobs store.BlobStore, idx *indexing.Indexer) *Pipeline {
	return &Pipeline{cfg: cfg, docs: docs, blobs: blobs, idx: idx}
}

// Result summarizes a processed upload for the API response.
type Result struct {
	RelationshipID string                 `json:"relationshipId"`
	Speakers       []string               `json:"speakers"`
	MessageCount   int                    `json:"messageCount"`
	ChunkCount     int                    `json:"chunkCount"`
	MasterSummary  indexing.MasterSummary `json:"masterSummary"`
	Stats          stats.Result           `json:"stats"`
}

// ProcessUpload imports one chat export for a user. Passing an existing
// relationshipID replaces that relationship's index and blobs; an empty
// one creates a new relationship. Analysis failures degrade to fallback
// entries, but a blob write failure aborts the upload: an index entry
// whose raw text is gone would poison retrieval later.
func (p *Pipeline) ProcessUpload(ctx context.Context, uid, chatText, relationshipID string) (*Result, error) {
	messages, err := chatlog.Parse(chatText)
	if err != nil {
		return nil, err
	}
	speakers := chatlog.DetectSpeakers(messages)
	chunks := chunking.Segment(messages, p.cfg)

	if relationshipID == "" {
		relationshipID = uuid.NewString()
	}

	log.Info().
		Str("uid", uid).
		Str("relationship", relationshipID).
		Int("messages", len(messages)).
		Int("chunks", len(chunks)).
		Strs("speakers", speakers).
		Msg("processing chat upload")

	// Re-uploads first drop the old blob directory so stale chunk files
	// from a previous, differently segmented import cannot linger.
	blobPrefix := path.Join(uid, relationshipID)
	if err := p.blobs.DeletePrefix(ctx, blobPrefix); err != nil {
		return nil, fmt.Errorf("failed to clear old chunk blobs: %w", err)
	}

	entries, err := p.indexChunks(ctx, uid, relationshipID, chunks)
	if err != nil {
		return nil, err
	}

	master := p.idx.BuildMasterSummary(ctx, entries, messages, speakers)
	st := stats.Compute(messages, speakers)

	rec := &store.Relationship{
		ID:            relationshipID,
		Speakers:      speakers,
		TotalMessages: len(messages),
		TotalChunks:   len(chunks),
		StartDate:     messages[0].Timestamp,
		EndDate:       messages[len(messages)-1].Timestamp,
		MasterSummary: master,
		Stats:         st,
	}
	if err := p.docs.SaveRelationship(ctx, uid, rec, entries); err != nil {
		return nil, fmt.Errorf("failed to save relationship: %w", err)
	}

	return &Result{
		RelationshipID: relationshipID,
		Speakers:       speakers,
		MessageCount:   len(messages),
		ChunkCount:     len(chunks),
		MasterSummary:  master,
		Stats:          st,
	}, nil
}

// indexChunks analyzes chunks concurrently and writes each chunk's raw
// text to the blob store. Entries come back in chunk order regardless of
// which worker finished first.
func (p *Pipeline) indexChunks(ctx context.Context, uid, relationshipID string, chunks []chunking.Chunk) ([]indexing.ChunkIndexEntry, error) {
	workers := p.cfg.Analysis.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	entries := make([]indexing.ChunkIndexEntry, len(chunks))
	jobs := make(chan int)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				chunk := chunks[i]
				entry := p.idx.IndexChunk(ctx, chunk)

				blobPath := path.Join(uid, relationshipID, chunk.ID+".txt")
				if err := p.blobs.Put(ctx, blobPath, []byte(chunk.RawText)); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("failed to store chunk %s: %w", chunk.ID, err)
					}
					mu.Unlock()
					continue
				}
				entry.StoragePath = blobPath
				entries[i] = entry
			}
		}()
	}

	for i := range chunks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return entries, nil
}
