// Package index defines the shared result type returned by lexical index
// backends. Ranking here is index-native relevance (BM25), not the cosine
// similarity computed later in Stage 2.
package index

import "github.com/veritex-io/veritex/internal/domain"

// Hit is one ranked match from a shortlist query.
type Hit struct {
	Document domain.ReferenceDocument
	Score    float64
}
