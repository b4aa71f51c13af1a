package bleveindex_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tailored-agentic-units/docchat/retrieval"
	"github.com/tailored-agentic-units/docchat/retrieval/bleveindex"
)

var corpus = []retrieval.Document{
	{ID: "r1", Content: "Senior Go engineer with distributed systems experience", Metadata: map[string]string{"summary_type": "resume", "source": "resume/cv.md"}},
	{ID: "r2", Content: "Education: computer science degree", Metadata: map[string]string{"summary_type": "resume", "source": "resume/edu.md"}},
	{ID: "p1", Content: "Built a search engine in Go with bleve", Metadata: map[string]string{"summary_type": "projects", "source": "projects/search.md"}},
	{ID: "w1", Content: "Prefers asynchronous written communication", Metadata: map[string]string{"summary_type": "workstyle"}},
	{ID: "n1", Content: "Notes about Go generics and channels", Metadata: map[string]string{"source": "notes.md"}},
}

func newIndex(t *testing.T) *bleveindex.Index {
	t.Helper()
	idx, err := bleveindex.New(bleveindex.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	if err := idx.Add(context.Background(), corpus...); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return idx
}

func TestIndex_Count(t *testing.T) {
	idx := newIndex(t)

	n, err := idx.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != uint64(len(corpus)) {
		t.Errorf("Count() = %d, want %d", n, len(corpus))
	}
}

func TestIndex_SimilaritySearch_Filter(t *testing.T) {
	idx := newIndex(t)

	docs, err := idx.SimilaritySearch(context.Background(), "Go engineer", 3, retrieval.Filter{"summary_type": "resume"})
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0].ID != "r1" {
		t.Errorf("best match = %s, want r1", docs[0].ID)
	}
	for _, d := range docs {
		if d.Metadata["summary_type"] != "resume" {
			t.Errorf("doc %s has summary_type %q", d.ID, d.Metadata["summary_type"])
		}
		if d.Content == "" {
			t.Errorf("doc %s content not stored", d.ID)
		}
	}
	if docs[0].Metadata["source"] != "resume/cv.md" {
		t.Errorf("source = %q", docs[0].Metadata["source"])
	}
}

func TestIndex_SimilaritySearch_NoMatches(t *testing.T) {
	idx := newIndex(t)

	docs, err := idx.SimilaritySearch(context.Background(), "anything", 3, retrieval.Filter{"summary_type": "all"})
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d docs, want 0", len(docs))
	}
}

func TestIndex_MMRSearch(t *testing.T) {
	idx := newIndex(t)

	docs, err := idx.MMRSearch(context.Background(), "Go", 3, 20, 0.75)
	if err != nil {
		t.Fatalf("MMRSearch: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(docs))
	}

	seen := make(map[string]bool)
	for _, d := range docs {
		if seen[d.ID] {
			t.Errorf("duplicate doc %s", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestIndex_MMRSearch_Empty(t *testing.T) {
	idx, err := bleveindex.New(bleveindex.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Close()

	docs, err := idx.MMRSearch(context.Background(), "Go", 3, 20, 0.75)
	if err != nil {
		t.Fatalf("MMRSearch: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d docs, want 0", len(docs))
	}
}

func TestIndex_AddRejectsEmpty(t *testing.T) {
	idx, err := bleveindex.New(bleveindex.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Close()

	err = idx.Add(context.Background(), retrieval.Document{Content: "  "})
	if !errors.Is(err, bleveindex.ErrEmptyContent) {
		t.Errorf("error = %v, want ErrEmptyContent", err)
	}
}

func TestIndex_PersistAndRecreate(t *testing.T) {
	cfg := bleveindex.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "index.bleve")

	idx, err := bleveindex.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := idx.Add(context.Background(), corpus[0]); err != nil {
		t.Fatalf("Add: %v", err)
	}
	idx.Close()

	reopened, err := bleveindex.New(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if n, _ := reopened.Count(); n != 1 {
		t.Errorf("reopened Count() = %d, want 1", n)
	}
	reopened.Close()

	fresh, err := bleveindex.Recreate(cfg)
	if err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	defer fresh.Close()
	if n, _ := fresh.Count(); n != 0 {
		t.Errorf("recreated Count() = %d, want 0", n)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := bleveindex.DefaultConfig()
	cfg.Merge(&bleveindex.Config{Path: "data/index"})

	if cfg.Path != "data/index" || cfg.Analyzer != "standard" {
		t.Errorf("merged = %+v", cfg)
	}
}

func TestIndex_Delete(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()

	extra := retrieval.Document{ID: "r3", Content: "Go mentor", Metadata: map[string]string{"summary_type": "resume", "source": "resume/cv.md"}}
	if err := idx.Add(ctx, extra); err != nil {
		t.Fatalf("Add: %v", err)
	}

	removed, err := idx.Delete(ctx, retrieval.Filter{"source": "resume/cv.md"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	docs, err := idx.SimilaritySearch(ctx, "Go", 5, retrieval.Filter{"summary_type": "resume"})
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "r2" {
		t.Errorf("remaining resume docs = %v, want only r2", docs)
	}

	if removed, err := idx.Delete(ctx, retrieval.Filter{}); err != nil || removed != 0 {
		t.Errorf("empty filter Delete() = %d, %v", removed, err)
	}
}
