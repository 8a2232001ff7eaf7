// Package redisearch backs the shortlist index with a RediSearch full-text
// index over document hashes. Scoring and ranking happen server-side via
// BM25; this layer handles key layout, query shaping, and error mapping.
package redisearch

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/veritex-io/veritex/internal/db"
	"github.com/veritex-io/veritex/internal/domain"
	"github.com/veritex-io/veritex/internal/index"
)

// maxQueryTerms caps how many distinct terms go into one FT.SEARCH call.
// Long queries gain nothing past this point and the command grows unbounded.
const maxQueryTerms = 25

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

type store interface {
	db.HashStore
	db.Searcher
	db.IndexManager
}

// Index is a BM25 shortlist index over document hashes with keys
// <prefix><doc_id>, searchable through one FT index.
type Index struct {
	store  store
	name   string
	prefix string
}

// New creates a RediSearch-backed index. name is the FT index name, prefix
// the hash key prefix (for example "doc:").
func New(s store, name, prefix string) *Index {
	return &Index{store: s, name: name, prefix: prefix}
}

// EnsureIndex creates the FT index if it does not exist yet.
func (ix *Index) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:     ix.name,
		Prefixes: []string{ix.prefix},
		Fields: []db.IndexField{
			{Name: "content", Type: db.IndexFieldText},
			{Name: "title", Type: db.IndexFieldText, Weight: 2},
			{Name: "source", Type: db.IndexFieldTag},
			{Name: "type", Type: db.IndexFieldTag},
		},
	}
	err := ix.store.CreateIndex(ctx, def)
	if err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", ix.name, err)
	}
	return nil
}

// Index upserts one document hash. The FT index picks it up automatically
// through the key prefix.
func (ix *Index) Index(ctx context.Context, doc domain.ReferenceDocument) error {
	fields := map[string]string{
		"id":      doc.ID,
		"title":   doc.Title,
		"content": doc.Content,
		"source":  doc.Source,
		"type":    string(doc.Type),
	}
	if err := ix.store.HSet(ctx, ix.key(doc.ID), fields); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	return nil
}

// IndexBatch upserts multiple documents in one pipelined round-trip.
func (ix *Index) IndexBatch(ctx context.Context, docs []domain.ReferenceDocument) error {
	if len(docs) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(docs))
	for i, doc := range docs {
		items[i] = db.HashSetItem{
			Key: ix.key(doc.ID),
			Fields: map[string]string{
				"id":      doc.ID,
				"title":   doc.Title,
				"content": doc.Content,
				"source":  doc.Source,
				"type":    string(doc.Type),
			},
		}
	}
	if err := ix.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("index batch: %w", err)
	}
	return nil
}

// Remove deletes a document. Missing ids are a no-op.
func (ix *Index) Remove(ctx context.Context, id string) error {
	if err := ix.store.Del(ctx, ix.key(id)); err != nil {
		return fmt.Errorf("remove document %s: %w", id, err)
	}
	return nil
}

// Get fetches one document hash by id.
func (ix *Index) Get(ctx context.Context, id string) (domain.ReferenceDocument, error) {
	fields, err := ix.store.HGetAll(ctx, ix.key(id))
	if err != nil {
		return domain.ReferenceDocument{}, fmt.Errorf("get document %s: %w", id, err)
	}
	if len(fields) == 0 {
		return domain.ReferenceDocument{}, domain.ErrDocumentNotFound
	}
	return docFromFields(fields), nil
}

// Size returns the number of indexed documents.
func (ix *Index) Size(ctx context.Context) (int, error) {
	n, err := ix.store.SearchCount(ctx, ix.name, "*")
	if err != nil {
		return 0, indexUnavailable("count documents", err)
	}
	return n, nil
}

// Query runs the Stage 1 BM25 shortlist and returns up to k hits ranked by
// index-native relevance. A failing index is fatal for the whole run, so
// errors carry the unavailability sentinel.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]index.Hit, error) {
	terms := queryTerms(text)
	if len(terms) == 0 || k <= 0 {
		return nil, nil
	}

	res, err := ix.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    ix.name,
		Field:        "content",
		Query:        strings.Join(terms, " "),
		TopK:         k,
		ReturnFields: []string{"id", "title", "content", "source", "type"},
	})
	if err != nil {
		return nil, indexUnavailable("bm25 shortlist", err)
	}

	hits := make([]index.Hit, 0, len(res.Entries))
	for _, entry := range res.Entries {
		hits = append(hits, index.Hit{
			Document: docFromFields(entry.Fields),
			Score:    entry.Score,
		})
	}
	return hits, nil
}

func (ix *Index) key(id string) string {
	return ix.prefix + id
}

// queryTerms lowercases, splits into alphanumeric runs, dedupes, and caps
// the term count. Mirrors what the in-memory index tokenizer produces so
// both backends shortlist from the same vocabulary.
func queryTerms(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(matches))
	terms := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		terms = append(terms, m)
		if len(terms) == maxQueryTerms {
			break
		}
	}
	return terms
}

func docFromFields(fields map[string]string) domain.ReferenceDocument {
	return domain.ReferenceDocument{
		ID:      fields["id"],
		Title:   fields["title"],
		Content: fields["content"],
		Source:  fields["source"],
		Type:    domain.DocumentType(fields["type"]),
	}
}

func indexUnavailable(op string, err error) error {
	return fmt.Errorf("%s (%v): %w", op, err, domain.ErrIndexUnavailable)
}
