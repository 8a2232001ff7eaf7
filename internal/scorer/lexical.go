// Package scorer implements the Stage 2 similarity scorers: a TF-IDF
// vector-space scorer and an embedding-based semantic scorer. Both report
// segment-level matches so span localization can attribute exact ranges.
package scorer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/veritex-io/veritex/internal/domain"
	"github.com/veritex-io/veritex/internal/textseg"
)

const (
	// defaultMinTokens is the minimum count of meaningful tokens below which
	// vectorization is unstable and the score is pinned to 0.
	defaultMinTokens = 5
	// defaultMinSegmentLen filters out sentence fragments too short to match.
	defaultMinSegmentLen = 10
)

var lexTokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Lexical builds per-run TF-IDF vector spaces. A single Lexical instance is
// shared across runs; each Fit produces an immutable Run so every candidate
// in one request is scored against the same vocabulary.
type Lexical struct {
	minTokens     int
	minSegmentLen int
	stopwords     map[string]struct{}
}

// NewLexical creates a TF-IDF scorer with default thresholds.
func NewLexical() *Lexical {
	return &Lexical{
		minTokens:     defaultMinTokens,
		minSegmentLen: defaultMinSegmentLen,
		stopwords:     stopwordSet(),
	}
}

// Run is one request's fitted vector space. Read-only after Fit, safe for
// concurrent Score calls from the Stage 2 worker pool.
type Run struct {
	lex         *Lexical
	vocabulary  map[string]int
	idf         []float64
	queryText   string
	queryVec    []float64
	queryTokens int
	querySegs   []textseg.Segment
	querySegVec [][]float64
	docs        []string
	docVecs     [][]float64
	docTokens   []int
}

// Fit builds the vocabulary and IDF values over the query plus the whole
// shortlist, then vectorizes every text once.
func (l *Lexical) Fit(query string, docs []string) *Run {
	corpus := make([]string, 0, len(docs)+1)
	corpus = append(corpus, query)
	corpus = append(corpus, docs...)

	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range l.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	run := &Run{
		lex:        l,
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
		queryText:  query,
		docs:       docs,
		docVecs:    make([][]float64, len(docs)),
		docTokens:  make([]int, len(docs)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		run.vocabulary[term] = i
		run.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	run.queryVec, run.queryTokens = run.vectorize(query)
	for i, doc := range docs {
		run.docVecs[i], run.docTokens[i] = run.vectorize(doc)
	}

	run.querySegs = textseg.SentencesMinLen(query, l.minSegmentLen)
	run.querySegVec = make([][]float64, len(run.querySegs))
	for i, seg := range run.querySegs {
		run.querySegVec[i], _ = run.vectorize(seg.Text)
	}

	return run
}

// Score returns the cosine similarity between the query and shortlist
// document i. Near-empty texts score 0 instead of producing noise.
func (r *Run) Score(i int) float64 {
	if i < 0 || i >= len(r.docVecs) {
		return 0
	}
	if r.queryTokens < r.lex.minTokens || r.docTokens[i] < r.lex.minTokens {
		return 0
	}
	return cosine64(r.queryVec, r.docVecs[i])
}

// MatchSegments compares each query sentence against every sentence of
// shortlist document i within the fitted vector space and reports query
// segments whose best match reaches the threshold.
func (r *Run) MatchSegments(i int, threshold float64) []domain.SegmentMatch {
	if i < 0 || i >= len(r.docs) || len(r.querySegs) == 0 {
		return nil
	}

	docSegs := textseg.SentencesMinLen(r.docs[i], r.lex.minSegmentLen)
	if len(docSegs) == 0 {
		return nil
	}
	docSegVecs := make([][]float64, len(docSegs))
	for j, seg := range docSegs {
		docSegVecs[j], _ = r.vectorize(seg.Text)
	}

	var matches []domain.SegmentMatch
	for qi, qSeg := range r.querySegs {
		best := 0.0
		for _, dVec := range docSegVecs {
			if sim := cosine64(r.querySegVec[qi], dVec); sim > best {
				best = sim
			}
		}
		if best >= threshold {
			matches = append(matches, domain.SegmentMatch{
				Start:      qSeg.Start,
				End:        qSeg.End,
				Similarity: best,
			})
		}
	}
	return matches
}

// vectorize builds an L2-normalized TF-IDF vector and reports how many
// in-vocabulary tokens the text produced.
func (r *Run) vectorize(text string) ([]float64, int) {
	vec := make([]float64, len(r.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range r.lex.tokenize(text) {
		if idx, ok := r.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, 0
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * r.idf[idx]
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, total
}

func (l *Lexical) tokenize(text string) []string {
	raw := lexTokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, isStop := l.stopwords[tok]; isStop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func stopwordSet() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to",
		"of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were",
		"be", "been", "being", "it", "this", "that", "these", "those", "from",
		"up", "down", "over", "under", "again", "further", "than", "so", "such",
		"into", "about", "between", "through", "during", "before", "after",
		"above", "below", "out", "off", "own", "same", "too", "very", "can",
		"will", "just", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
