package scorer

import (
	"context"
	"fmt"

	"github.com/veritex-io/veritex/internal/domain"
	"github.com/veritex-io/veritex/internal/textseg"
)

// Semantic scores query/candidate pairs with sentence embeddings. It works
// at sentence granularity so partial overlaps surface even when the whole
// documents differ; the per-segment best matches feed span localization.
type Semantic struct {
	embed         domain.BatchEmbedder
	minSegmentLen int
}

// NewSemantic creates a semantic scorer over the given embedding backend.
func NewSemantic(embed domain.BatchEmbedder) *Semantic {
	return &Semantic{embed: embed, minSegmentLen: defaultMinSegmentLen}
}

// Query holds the encoded query segments for one run. Read-only after
// Prepare, safe for concurrent Score calls.
type Query struct {
	sem  *Semantic
	segs []textseg.Segment
	vecs [][]float32
}

// Prepare segments and batch-encodes the query once per run. A failing
// embedding backend surfaces here so the orchestrator can degrade the whole
// run to lexical-only before any candidate work starts.
func (s *Semantic) Prepare(ctx context.Context, queryText string) (*Query, error) {
	segs := textseg.SentencesMinLen(queryText, s.minSegmentLen)
	if len(segs) == 0 {
		segs = textseg.Sentences(queryText)
	}
	if len(segs) == 0 {
		return &Query{sem: s}, nil
	}

	texts := make([]string, len(segs))
	for i, seg := range segs {
		texts[i] = seg.Text
	}

	res, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encode query segments: %w", err)
	}
	if len(res.Embeddings) != len(segs) {
		return nil, fmt.Errorf("encode query segments: got %d vectors for %d segments: %w",
			len(res.Embeddings), len(segs), domain.ErrModelUnavailable)
	}

	return &Query{sem: s, segs: segs, vecs: res.Embeddings}, nil
}

// Score batch-encodes the candidate's sentences and aligns each query
// segment with its best counterpart. The document score is the mean of the
// per-segment maxima: full copies score near 1 while a single lifted
// paragraph still registers proportionally.
func (q *Query) Score(ctx context.Context, docText string) (float64, []domain.SegmentMatch, error) {
	if len(q.segs) == 0 {
		return 0, nil, nil
	}

	docSegs := textseg.SentencesMinLen(docText, q.sem.minSegmentLen)
	if len(docSegs) == 0 {
		docSegs = textseg.Sentences(docText)
	}
	if len(docSegs) == 0 {
		return 0, nil, nil
	}

	texts := make([]string, len(docSegs))
	for i, seg := range docSegs {
		texts[i] = seg.Text
	}
	res, err := q.sem.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, nil, fmt.Errorf("encode candidate segments: %w", err)
	}
	if len(res.Embeddings) != len(docSegs) {
		return 0, nil, fmt.Errorf("encode candidate segments: got %d vectors for %d segments: %w",
			len(res.Embeddings), len(docSegs), domain.ErrModelUnavailable)
	}

	matches := make([]domain.SegmentMatch, 0, len(q.segs))
	var sum float64
	for i, qSeg := range q.segs {
		best := 0.0
		for _, dVec := range res.Embeddings {
			if sim := Cosine32(q.vecs[i], dVec); sim > best {
				best = sim
			}
		}
		sum += best
		matches = append(matches, domain.SegmentMatch{
			Start:      qSeg.Start,
			End:        qSeg.End,
			Similarity: best,
		})
	}

	return clamp01(sum / float64(len(q.segs))), matches, nil
}
