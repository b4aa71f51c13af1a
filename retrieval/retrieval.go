// Package retrieval picks passages for a question. The Router chooses
// between a metadata-filtered similarity search (for summary requests of a
// known category) and a diversity-aware MMR search (everything else); the
// actual index lives behind the Retriever interface.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// ErrSearchFailed wraps every retriever failure surfaced by the Router.
var ErrSearchFailed = errors.New("retrieval search failed")

// MetadataSummaryType is the metadata key filtered searches match on.
const MetadataSummaryType = "summary_type"

// MetadataSource names the corpus key a document was chunked from.
const MetadataSource = "source"

// Document is a retrieved passage. Treat it as read-only.
type Document struct {
	ID       string            `json:"id,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Clone returns a copy whose metadata map is not shared.
func (d Document) Clone() Document {
	d.Metadata = maps.Clone(d.Metadata)
	return d
}

// Filter restricts a search to documents whose metadata equals every entry.
type Filter map[string]string

// Matches reports whether metadata satisfies the filter.
func (f Filter) Matches(metadata map[string]string) bool {
	for k, v := range f {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// Retriever is the index the Router searches. Results are ordered best
// first; an empty slice is a valid result.
type Retriever interface {
	SimilaritySearch(ctx context.Context, query string, k int, filter Filter) ([]Document, error)
	MMRSearch(ctx context.Context, query string, k, fetchK int, lambdaMult float64) ([]Document, error)
}

// Config holds search parameters.
type Config struct {
	K          int     `json:"k" mapstructure:"k"`
	FetchK     int     `json:"fetch_k" mapstructure:"fetch_k"`
	LambdaMult float64 `json:"lambda_mult" mapstructure:"lambda_mult"`
}

// DefaultConfig returns k=3, fetch_k=20, lambda_mult=0.75.
func DefaultConfig() Config {
	return Config{
		K:          3,
		FetchK:     20,
		LambdaMult: 0.75,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.K > 0 {
		c.K = source.K
	}
	if source.FetchK > 0 {
		c.FetchK = source.FetchK
	}
	if source.LambdaMult > 0 {
		c.LambdaMult = source.LambdaMult
	}
}

// Validate requires k >= 1, fetch_k >= k and 0 <= lambda_mult <= 1.
func (c *Config) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("retrieval: k must be at least 1, got %d", c.K)
	}
	if c.FetchK < c.K {
		return fmt.Errorf("retrieval: fetch_k (%d) must be >= k (%d)", c.FetchK, c.K)
	}
	if c.LambdaMult < 0 || c.LambdaMult > 1 {
		return fmt.Errorf("retrieval: lambda_mult must be within [0, 1], got %v", c.LambdaMult)
	}
	return nil
}
