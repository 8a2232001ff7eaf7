// Package memory provides an in-process BM25 inverted index over the
// reference corpus. Reads are concurrent; writes (ingestion) take the
// exclusive lock so in-flight queries never observe a half-updated posting.
package memory

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/veritex-io/veritex/internal/domain"
	"github.com/veritex-io/veritex/internal/index"
)

// Okapi BM25 parameters, standard values.
const (
	paramK1 = 1.2
	paramB  = 0.75
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

type posting struct {
	doc      domain.ReferenceDocument
	termFreq map[string]int
	length   int
}

// Index is a BM25 index keyed by document id. Upserting an existing id
// replaces its postings.
type Index struct {
	mu       sync.RWMutex
	postings map[string]*posting
	docFreq  map[string]int
	totalLen int
}

// New creates an empty index.
func New() *Index {
	return &Index{
		postings: make(map[string]*posting),
		docFreq:  make(map[string]int),
	}
}

// Index adds or updates one document's searchable terms.
func (ix *Index) Index(_ context.Context, doc domain.ReferenceDocument) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.insertLocked(doc)
	return nil
}

// IndexBatch upserts multiple documents under one lock acquisition, so a
// concurrent query sees either none or all of the batch.
func (ix *Index) IndexBatch(_ context.Context, docs []domain.ReferenceDocument) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, doc := range docs {
		ix.insertLocked(doc)
	}
	return nil
}

func (ix *Index) insertLocked(doc domain.ReferenceDocument) {
	tokens := tokenize(doc.Content + " " + doc.Title)

	termFreq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		termFreq[tok]++
	}

	if old, ok := ix.postings[doc.ID]; ok {
		for term := range old.termFreq {
			ix.docFreq[term]--
			if ix.docFreq[term] == 0 {
				delete(ix.docFreq, term)
			}
		}
		ix.totalLen -= old.length
	}

	for term := range termFreq {
		ix.docFreq[term]++
	}
	ix.totalLen += len(tokens)
	ix.postings[doc.ID] = &posting{doc: doc, termFreq: termFreq, length: len(tokens)}
}

// Remove deletes a document from the index. Missing ids are a no-op.
func (ix *Index) Remove(_ context.Context, id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	old, ok := ix.postings[id]
	if !ok {
		return nil
	}
	for term := range old.termFreq {
		ix.docFreq[term]--
		if ix.docFreq[term] == 0 {
			delete(ix.docFreq, term)
		}
	}
	ix.totalLen -= old.length
	delete(ix.postings, id)
	return nil
}

// Get fetches one document by id.
func (ix *Index) Get(_ context.Context, id string) (domain.ReferenceDocument, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	p, ok := ix.postings[id]
	if !ok {
		return domain.ReferenceDocument{}, domain.ErrDocumentNotFound
	}
	return p.doc, nil
}

// Size returns the number of indexed documents.
func (ix *Index) Size(_ context.Context) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings), nil
}

// Query scores every document holding at least one query term and returns up
// to k hits ranked by BM25 relevance. Ties break on document id so repeated
// runs shortlist identically.
func (ix *Index) Query(_ context.Context, text string, k int) ([]index.Hit, error) {
	queryTokens := tokenize(text)
	if len(queryTokens) == 0 || k <= 0 {
		return nil, nil
	}
	// Dedupe query terms: shortlist relevance should not depend on how often
	// the query repeats a word, only on which documents contain it.
	seen := make(map[string]struct{}, len(queryTokens))
	terms := queryTokens[:0]
	for _, tok := range queryTokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	docCount := float64(len(ix.postings))
	if docCount == 0 {
		return nil, nil
	}
	avgLen := float64(ix.totalLen) / docCount

	hits := make([]index.Hit, 0, k)
	for _, p := range ix.postings {
		score := ix.score(p, terms, docCount, avgLen)
		if score > 0 {
			hits = append(hits, index.Hit{Document: p.doc, Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (ix *Index) score(p *posting, terms []string, docCount, avgLen float64) float64 {
	docLen := float64(p.length)

	var score float64
	for _, term := range terms {
		freq := float64(p.termFreq[term])
		if freq == 0 {
			continue
		}
		df := float64(ix.docFreq[term])
		idf := math.Log(1 + (docCount-df+0.5)/(df+0.5))
		if idf <= 0 {
			continue
		}
		score += idf * (freq * (paramK1 + 1)) / (freq + paramK1*(1-paramB+paramB*docLen/avgLen))
	}
	return score
}

// tokenize lowercases and splits into alphanumeric runs, discarding
// single-character tokens.
func tokenize(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := matches[:0]
	for _, m := range matches {
		if len(m) >= 2 {
			tokens = append(tokens, m)
		}
	}
	return tokens
}
