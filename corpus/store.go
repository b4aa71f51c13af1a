// Package corpus holds the source documents that ingestion chunks into the
// retrieval index. Documents live in a flat key-value namespace whose keys
// are /-separated paths; the first path segment names the document's
// category (resume, projects, workstyle, all).
package corpus

import "context"

// Store translates between external storage and the corpus namespace.
// Implementations perform I/O on each call without caching.
type Store interface {
	// List returns all available keys in lexical order.
	List(ctx context.Context) ([]string, error)
	// Load retrieves entries for the specified keys.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
	// Save persists entries, creating or overwriting as needed.
	Save(ctx context.Context, entries ...Entry) error
	// Delete removes entries. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
