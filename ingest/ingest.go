// Package ingest loads source documents from a corpus store, splits them
// into chunks and adds the chunks to a retrieval index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/docchat/corpus"
	"github.com/tailored-agentic-units/docchat/intent"
	"github.com/tailored-agentic-units/docchat/observability"
	"github.com/tailored-agentic-units/docchat/retrieval"
)

// Metadata keys attached to every chunk besides summary_type.
const (
	MetadataSource   = retrieval.MetadataSource
	MetadataFileName = "file_name"
	MetadataFileType = "file_type"
	MetadataChunk    = "chunk"
)

// Sink receives chunk documents and drops the chunks of removed sources.
// bleveindex.Index satisfies it.
type Sink interface {
	Add(ctx context.Context, docs ...retrieval.Document) error
	Delete(ctx context.Context, filter retrieval.Filter) (int, error)
}

// Config holds chunking and concurrency parameters.
type Config struct {
	ChunkSize    int `json:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap" mapstructure:"chunk_overlap"`
	Workers      int `json:"workers" mapstructure:"workers"`
}

// DefaultConfig returns 800-rune chunks with 100 runes of overlap and four
// workers.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Workers:      4,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.ChunkSize > 0 {
		c.ChunkSize = source.ChunkSize
	}
	if source.ChunkOverlap > 0 {
		c.ChunkOverlap = source.ChunkOverlap
	}
	if source.Workers > 0 {
		c.Workers = source.Workers
	}
}

// Stats summarizes an ingestion run.
type Stats struct {
	Documents int
	Chunks    int
	Duration  time.Duration
}

// Pipeline moves documents from a store into a sink.
type Pipeline struct {
	store    corpus.Store
	sink     Sink
	chunker  *Chunker
	workers  int
	observer observability.Observer
}

// New creates a Pipeline.
func New(store corpus.Store, sink Sink, cfg Config, observer observability.Observer) (*Pipeline, error) {
	chunker, err := NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, nil)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		store:    store,
		sink:     sink,
		chunker:  chunker,
		workers:  max(cfg.Workers, 1),
		observer: observability.OrNoOp(observer),
	}, nil
}

// Run ingests every key in the store. The first failure cancels the
// remaining work and is returned.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	started := time.Now()

	keys, err := p.store.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("ingest: list corpus: %w", err)
	}

	observability.Emit(ctx, p.observer, EventIngestStart, observability.LevelInfo, "ingest", map[string]any{
		"documents": len(keys),
	})

	var chunks atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, key := range keys {
		g.Go(func() error {
			n, err := p.ingest(gctx, key)
			if err != nil {
				return err
			}
			chunks.Add(int64(n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	stats := Stats{Documents: len(keys), Chunks: int(chunks.Load()), Duration: time.Since(started)}
	observability.Emit(ctx, p.observer, EventIngestComplete, observability.LevelInfo, "ingest", map[string]any{
		"documents": stats.Documents,
		"chunks":    stats.Chunks,
		"duration":  stats.Duration,
	})
	return stats, nil
}

// List returns the keys of the documents in the corpus.
func (p *Pipeline) List(ctx context.Context) ([]string, error) {
	return p.store.List(ctx)
}

// Upsert saves entries to the corpus and reindexes each of them, replacing
// any chunks indexed from the same key.
func (p *Pipeline) Upsert(ctx context.Context, entries ...corpus.Entry) (Stats, error) {
	started := time.Now()

	if err := p.store.Save(ctx, entries...); err != nil {
		return Stats{}, fmt.Errorf("ingest: save corpus: %w", err)
	}

	stats := Stats{Documents: len(entries)}
	for _, e := range entries {
		if _, err := p.sink.Delete(ctx, retrieval.Filter{MetadataSource: e.Key}); err != nil {
			return Stats{}, fmt.Errorf("ingest: unindex %s: %w", e.Key, err)
		}
		n, err := p.index(ctx, e)
		if err != nil {
			return Stats{}, err
		}
		stats.Chunks += n
	}
	stats.Duration = time.Since(started)
	return stats, nil
}

// Remove deletes keys from the corpus and their chunks from the sink.
func (p *Pipeline) Remove(ctx context.Context, keys ...string) error {
	if err := p.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("ingest: delete corpus: %w", err)
	}
	for _, key := range keys {
		n, err := p.sink.Delete(ctx, retrieval.Filter{MetadataSource: key})
		if err != nil {
			return fmt.Errorf("ingest: unindex %s: %w", key, err)
		}
		observability.Emit(ctx, p.observer, EventIngestRemove, observability.LevelVerbose, "ingest", map[string]any{
			"key":    key,
			"chunks": n,
		})
	}
	return nil
}

func (p *Pipeline) ingest(ctx context.Context, key string) (int, error) {
	entries, err := p.store.Load(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("ingest: load %s: %w", key, err)
	}
	return p.index(ctx, entries[0])
}

func (p *Pipeline) index(ctx context.Context, e corpus.Entry) (int, error) {
	key := e.Key
	docs, err := Documents(e, p.chunker)
	if errors.Is(err, ErrNoText) {
		observability.Emit(ctx, p.observer, EventIngestSkipped, observability.LevelWarning, "ingest", map[string]any{
			"key": key,
		})
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ingest: extract %s: %w", key, err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := p.sink.Add(ctx, docs...); err != nil {
		return 0, fmt.Errorf("ingest: index %s: %w", key, err)
	}

	observability.Emit(ctx, p.observer, EventIngestDocument, observability.LevelVerbose, "ingest", map[string]any{
		"key":    key,
		"chunks": len(docs),
	})
	return len(docs), nil
}

// Documents extracts and chunks one corpus entry. Chunk IDs are
// "<key>#<n>" and each chunk is passed through CleanText. summary_type is
// set when the entry's category is one of the summary categories.
func Documents(e corpus.Entry, chunker *Chunker) ([]retrieval.Document, error) {
	text, err := Extract(e.Key, e.Value)
	if err != nil {
		return nil, err
	}

	var parts []string
	for _, part := range chunker.Split(text) {
		if cleaned := CleanText(part); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	base := map[string]string{
		MetadataSource:   e.Key,
		MetadataFileName: path.Base(e.Key),
		MetadataFileType: strings.TrimPrefix(path.Ext(e.Key), "."),
	}
	if st := intent.SummaryType(e.Category()); st.Valid() {
		base[retrieval.MetadataSummaryType] = string(st)
	}

	docs := make([]retrieval.Document, len(parts))
	for i, part := range parts {
		meta := maps.Clone(base)
		meta[MetadataChunk] = strconv.Itoa(i)

		docs[i] = retrieval.Document{
			ID:       e.Key + "#" + strconv.Itoa(i),
			Content:  part,
			Metadata: meta,
		}
	}
	return docs, nil
}
