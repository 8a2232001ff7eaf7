package detect

import "github.com/veritex-io/veritex/internal/domain"

// fuse combines a candidate's method scores under the run weights. A method
// that never computed contributes nothing and its weight moves to the other
// side, so a missing score is never confused with a measured zero.
func fuse(c domain.Candidate, w domain.FusionWeights) domain.Score {
	switch {
	case c.Lexical.Computed && c.Semantic.Computed:
		return domain.NewScore(w.Lexical*c.Lexical.Value + w.Semantic*c.Semantic.Value)
	case c.Lexical.Computed:
		return domain.NewScore(c.Lexical.Value)
	case c.Semantic.Computed:
		return domain.NewScore(c.Semantic.Value)
	default:
		return domain.Score{}
	}
}
