package domain

// Score is a similarity value in [0,1] that distinguishes "computed zero"
// from "not computed". Fusion must never treat a skipped method as a
// legitimate zero match.
type Score struct {
	Value    float64
	Computed bool
}

// NewScore builds a computed score clamped to [0,1].
func NewScore(v float64) Score {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return Score{Value: v, Computed: true}
}

// Candidate is one shortlist entry moving through Stage 2. The lexical and
// semantic scorers each fill in their own field only.
type Candidate struct {
	Document      ReferenceDocument
	RetrievalRank int
	Lexical       Score
	Semantic      Score
	Fused         Score
}
