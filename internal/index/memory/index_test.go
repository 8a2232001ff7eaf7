package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/veritex-io/veritex/internal/domain"
)

func doc(id, content string) domain.ReferenceDocument {
	return domain.ReferenceDocument{ID: id, Title: id, Content: content, Type: domain.TypeReference}
}

func mustIndex(t *testing.T, ix *Index, d domain.ReferenceDocument) {
	t.Helper()
	if err := ix.Index(context.Background(), d); err != nil {
		t.Fatalf("Index %s: %v", d.ID, err)
	}
}

func TestIndex_QueryRanksRelevantFirst(t *testing.T) {
	ix := New()
	mustIndex(t, ix, doc("ml", "machine learning automates analytical model building"))
	mustIndex(t, ix, doc("cooking", "slow roasted vegetables with olive oil and garlic"))
	mustIndex(t, ix, doc("db", "relational databases store rows in tables"))

	hits, err := ix.Query(context.Background(), "machine learning model building", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].Document.ID != "ml" {
		t.Errorf("expected ml ranked first, got %s", hits[0].Document.ID)
	}
	for _, h := range hits {
		if h.Document.ID == "cooking" {
			t.Error("cooking document should not match the query")
		}
	}
}

func TestIndex_QueryRespectsK(t *testing.T) {
	ix := New()
	for i := 0; i < 500; i++ {
		mustIndex(t, ix, doc(fmt.Sprintf("d%03d", i), "machine learning paper number whatever"))
	}

	hits, err := ix.Query(context.Background(), "machine learning", 100)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) > 100 {
		t.Errorf("shortlist length %d exceeds k=100", len(hits))
	}
}

func TestIndex_QueryEmptyCorpus(t *testing.T) {
	ix := New()
	hits, err := ix.Query(context.Background(), "anything at all", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits on empty corpus, got %d", len(hits))
	}
}

func TestIndex_UpsertReplacesPostings(t *testing.T) {
	ix := New()
	mustIndex(t, ix, doc("d1", "quantum entanglement experiments"))
	mustIndex(t, ix, doc("d1", "medieval history of brewing"))

	n, err := ix.Size(context.Background())
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 document after upsert, got %d", n)
	}

	hits, err := ix.Query(context.Background(), "quantum entanglement", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("old postings still match after upsert: %+v", hits)
	}

	hits, err = ix.Query(context.Background(), "medieval brewing", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("expected new postings to match, got %d hits", len(hits))
	}
}

func TestIndex_IndexBatch(t *testing.T) {
	ix := New()
	err := ix.IndexBatch(context.Background(), []domain.ReferenceDocument{
		doc("d1", "first document text"),
		doc("d2", "second document text"),
	})
	if err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}

	n, err := ix.Size(context.Background())
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 documents, got %d", n)
	}
}

func TestIndex_Get(t *testing.T) {
	ix := New()
	mustIndex(t, ix, doc("d1", "solar panel efficiency"))

	got, err := ix.Get(context.Background(), "d1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != "solar panel efficiency" {
		t.Errorf("content = %q", got.Content)
	}

	if _, err := ix.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestIndex_Remove(t *testing.T) {
	ix := New()
	mustIndex(t, ix, doc("d1", "solar panel efficiency"))
	if err := ix.Remove(context.Background(), "d1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := ix.Remove(context.Background(), "missing"); err != nil {
		t.Fatalf("Remove missing: %v", err)
	}

	n, err := ix.Size(context.Background())
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty index, got %d docs", n)
	}
}

func TestIndex_ConcurrentReadersAndWriter(t *testing.T) {
	ix := New()
	for i := 0; i < 50; i++ {
		mustIndex(t, ix, doc(fmt.Sprintf("seed%d", i), "baseline corpus text about various topics"))
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if err := ix.Index(context.Background(), doc(fmt.Sprintf("w%d", i), "concurrent ingestion document text")); err != nil {
				t.Errorf("Index during queries: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := ix.Query(context.Background(), "corpus text topics", 10); err != nil {
				t.Errorf("Query during ingestion: %v", err)
				return
			}
		}
	}()

	wg.Wait()
}

func TestIndex_DeterministicTieBreak(t *testing.T) {
	ix := New()
	mustIndex(t, ix, doc("b", "identical content here"))
	mustIndex(t, ix, doc("a", "identical content here"))

	first, err := ix.Query(context.Background(), "identical content", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	second, err := ix.Query(context.Background(), "identical content", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 hits in both runs")
	}
	if first[0].Document.ID != "a" || second[0].Document.ID != "a" {
		t.Errorf("tie break is not deterministic: %s vs %s",
			first[0].Document.ID, second[0].Document.ID)
	}
}
