// Package bleveindex implements retrieval.Retriever on a bleve full-text
// index. Filtered searches constrain the summary_type keyword field and rank
// by BM25 over the content; MMR searches rerank the fetch_k best BM25
// candidates by term-set diversity.
package bleveindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/analysis/analyzer/standard"
	_ "github.com/blevesearch/bleve/analysis/lang/cjk"
	"github.com/blevesearch/bleve/mapping"
	"github.com/blevesearch/bleve/search"
	"github.com/blevesearch/bleve/search/query"
	"github.com/google/uuid"

	"github.com/tailored-agentic-units/docchat/retrieval"
)

const (
	fieldContent  = "content"
	fieldMetadata = "metadata"
	metadataPath  = fieldMetadata + "."
)

// ErrEmptyContent is returned by Add for documents without content.
var ErrEmptyContent = errors.New("bleveindex: document content is empty")

// Config selects where the index lives and how content is analyzed.
type Config struct {
	// Path is the on-disk index directory. Empty keeps the index in memory.
	Path string `json:"path" mapstructure:"path"`

	// Analyzer names the bleve analyzer for content: "standard" or "cjk".
	Analyzer string `json:"analyzer" mapstructure:"analyzer"`
}

// DefaultConfig returns an in-memory index with the standard analyzer.
func DefaultConfig() Config {
	return Config{Analyzer: standard.Name}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Analyzer != "" {
		c.Analyzer = source.Analyzer
	}
}

// Index is a bleve-backed retriever. Safe for concurrent use.
type Index struct {
	index    bleve.Index
	analyzer string
}

// New creates an in-memory index when cfg.Path is empty or opens the index
// at cfg.Path, creating it if the directory does not exist.
func New(cfg Config) (*Index, error) {
	if cfg.Analyzer == "" {
		cfg.Analyzer = standard.Name
	}

	if cfg.Path == "" {
		idx, err := bleve.NewMemOnly(newMapping(cfg.Analyzer))
		if err != nil {
			return nil, fmt.Errorf("bleveindex: create in-memory index: %w", err)
		}
		return &Index{index: idx, analyzer: cfg.Analyzer}, nil
	}

	idx, err := bleve.Open(cfg.Path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(cfg.Path, newMapping(cfg.Analyzer))
	}
	if err != nil {
		return nil, fmt.Errorf("bleveindex: open %s: %w", cfg.Path, err)
	}
	return &Index{index: idx, analyzer: cfg.Analyzer}, nil
}

// Recreate removes any index at cfg.Path and creates an empty one.
func Recreate(cfg Config) (*Index, error) {
	if cfg.Path != "" {
		if err := os.RemoveAll(cfg.Path); err != nil {
			return nil, fmt.Errorf("bleveindex: remove %s: %w", cfg.Path, err)
		}
	}
	return New(cfg)
}

func newMapping(analyzer string) *mapping.IndexMappingImpl {
	content := bleve.NewTextFieldMapping()
	content.Analyzer = analyzer
	content.Store = true

	metadata := bleve.NewDocumentMapping()
	for _, name := range []string{retrieval.MetadataSummaryType, retrieval.MetadataSource} {
		exact := bleve.NewTextFieldMapping()
		exact.Analyzer = keyword.Name
		exact.Store = true
		metadata.AddFieldMappingsAt(name, exact)
	}

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldContent, content)
	doc.AddSubDocumentMapping(fieldMetadata, metadata)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = analyzer
	return m
}

type record struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Add indexes docs in one batch. Documents without an ID get a random one;
// an existing ID is overwritten.
func (x *Index) Add(ctx context.Context, docs ...retrieval.Document) error {
	if len(docs) == 0 {
		return nil
	}

	batch := x.index.NewBatch()
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.TrimSpace(d.Content) == "" {
			return ErrEmptyContent
		}
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		if err := batch.Index(id, record{Content: d.Content, Metadata: d.Metadata}); err != nil {
			return fmt.Errorf("bleveindex: index %s: %w", id, err)
		}
	}

	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("bleveindex: apply batch: %w", err)
	}
	return nil
}

// Delete removes every document whose metadata matches filter and returns
// how many were removed. An empty filter removes nothing.
func (x *Index) Delete(ctx context.Context, filter retrieval.Filter) (int, error) {
	if len(filter) == 0 {
		return 0, nil
	}

	total, err := x.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("bleveindex: count: %w", err)
	}
	if total == 0 {
		return 0, nil
	}

	hits, err := x.search(ctx, query.NewConjunctionQuery(filterQueries(filter)), int(total))
	if err != nil {
		return 0, err
	}

	batch := x.index.NewBatch()
	for _, hit := range hits {
		if filter.Matches(toDocument(hit).Metadata) {
			batch.Delete(hit.ID)
		}
	}
	if batch.Size() == 0 {
		return 0, nil
	}
	removed := batch.Size()
	if err := x.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("bleveindex: apply batch: %w", err)
	}
	return removed, nil
}

// Count returns the number of indexed documents.
func (x *Index) Count() (uint64, error) {
	return x.index.DocCount()
}

// Close releases the underlying index.
func (x *Index) Close() error {
	return x.index.Close()
}

// SimilaritySearch returns the k best-scoring documents matching filter.
// When query shares no terms with a matching document the document still
// qualifies at a lower score, so a filter with matches always yields
// min(k, matches) results.
func (x *Index) SimilaritySearch(ctx context.Context, q string, k int, filter retrieval.Filter) ([]retrieval.Document, error) {
	must := filterQueries(filter)
	if len(must) == 0 {
		must = append(must, bleve.NewMatchAllQuery())
	}

	hits, err := x.search(ctx, x.relevance(q, must), k)
	if err != nil {
		return nil, err
	}

	docs := make([]retrieval.Document, 0, len(hits))
	for _, hit := range hits {
		doc := toDocument(hit)
		// Fields not mapped as keyword are analyzed; recheck the exact value.
		if filter.Matches(doc.Metadata) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// MMRSearch fetches the fetchK best BM25 candidates and selects k of them by
// maximal marginal relevance.
func (x *Index) MMRSearch(ctx context.Context, q string, k, fetchK int, lambdaMult float64) ([]retrieval.Document, error) {
	hits, err := x.search(ctx, x.relevance(q, []query.Query{bleve.NewMatchAllQuery()}), max(k, fetchK))
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []retrieval.Document{}, nil
	}

	top := hits[0].Score
	candidates := make([]retrieval.Candidate, 0, len(hits))
	for _, hit := range hits {
		doc := toDocument(hit)
		rel := 0.0
		if top > 0 {
			rel = hit.Score / top
		}
		candidates = append(candidates, retrieval.Candidate{
			Document:  doc,
			Relevance: rel,
			Terms:     x.terms(doc.Content),
		})
	}
	return retrieval.SelectMMR(candidates, k, lambdaMult), nil
}

// filterQueries turns each filter pair into an exact term query.
func filterQueries(filter retrieval.Filter) []query.Query {
	terms := make([]query.Query, 0, len(filter))
	for key, value := range filter {
		term := bleve.NewTermQuery(value)
		term.SetField(metadataPath + key)
		terms = append(terms, term)
	}
	return terms
}

// relevance requires every must clause and ranks by a content match on q.
func (x *Index) relevance(q string, must []query.Query) query.Query {
	var should []query.Query
	if strings.TrimSpace(q) != "" {
		match := bleve.NewMatchQuery(q)
		match.SetField(fieldContent)
		should = append(should, match)
	}
	return query.NewBooleanQuery(must, should, nil)
}

func (x *Index) search(ctx context.Context, q query.Query, size int) (search.DocumentMatchCollection, error) {
	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.Fields = []string{"*"}

	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleveindex: search: %w", err)
	}
	return res.Hits, nil
}

// terms returns the analyzed term set of text using the content analyzer.
func (x *Index) terms(text string) map[string]struct{} {
	set := make(map[string]struct{})
	analyzer := x.index.Mapping().AnalyzerNamed(x.analyzer)
	if analyzer == nil {
		for _, w := range strings.Fields(strings.ToLower(text)) {
			set[w] = struct{}{}
		}
		return set
	}
	for _, tok := range analyzer.Analyze([]byte(text)) {
		set[string(tok.Term)] = struct{}{}
	}
	return set
}

func toDocument(hit *search.DocumentMatch) retrieval.Document {
	doc := retrieval.Document{ID: hit.ID}
	for name, value := range hit.Fields {
		s, ok := value.(string)
		if !ok {
			continue
		}
		switch {
		case name == fieldContent:
			doc.Content = s
		case strings.HasPrefix(name, metadataPath):
			if doc.Metadata == nil {
				doc.Metadata = make(map[string]string)
			}
			doc.Metadata[strings.TrimPrefix(name, metadataPath)] = s
		}
	}
	return doc
}
