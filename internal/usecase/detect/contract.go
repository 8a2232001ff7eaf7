package detect

import (
	"context"

	"github.com/veritex-io/veritex/internal/domain"
	"github.com/veritex-io/veritex/internal/index"
)

// Shortlister runs the Stage 1 retrieval that narrows the corpus to a
// bounded candidate set.
type Shortlister interface {
	Query(ctx context.Context, text string, k int) ([]index.Hit, error)
}

// LexicalScorer fits one request's TF-IDF vector space over the query plus
// the whole shortlist.
type LexicalScorer interface {
	Fit(query string, docs []string) LexicalRun
}

// LexicalRun scores shortlist documents inside one fitted vector space.
// Implementations must be safe for concurrent Score calls.
type LexicalRun interface {
	Score(i int) float64
	MatchSegments(i int, threshold float64) []domain.SegmentMatch
}

// SemanticScorer prepares the embedding side of a run. Prepare failing with
// ErrModelUnavailable degrades the whole run to lexical-only.
type SemanticScorer interface {
	Prepare(ctx context.Context, queryText string) (SemanticQuery, error)
}

// SemanticQuery scores candidate documents against the encoded query.
// Implementations must be safe for concurrent Score calls.
type SemanticQuery interface {
	Score(ctx context.Context, docText string) (float64, []domain.SegmentMatch, error)
}

// Assembly carries everything the report builder needs from a finished run.
type Assembly struct {
	Query      domain.Query
	Candidates []domain.Candidate
	Spans      []domain.PlagiarizedSpan
	Weights    domain.FusionWeights
	Degraded   bool
}

// Assembler turns a finished run into an immutable report.
type Assembler interface {
	Assemble(a Assembly) (domain.Report, error)
}
