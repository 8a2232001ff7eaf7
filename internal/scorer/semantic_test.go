package scorer

import (
	"context"
	"errors"
	"testing"

	"github.com/veritex-io/veritex/internal/domain"
)

// stubEmbedder returns preset vectors per exact text; unknown texts get a
// zero vector. batchErr fails every call.
type stubEmbedder struct {
	vecs     map[string][]float32
	batchErr error
	calls    int
}

func (s *stubEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	s.calls++
	if s.batchErr != nil {
		return domain.BatchEmbeddingResult{}, s.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := s.vecs[text]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 0}
		}
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

func TestSemantic_IdenticalSentenceScoresOne(t *testing.T) {
	sentence := "Machine learning automates analytical model building."
	embed := &stubEmbedder{vecs: map[string][]float32{
		sentence: {1, 0, 0},
	}}
	sem := NewSemantic(embed)

	q, err := sem.Prepare(context.Background(), sentence)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	score, matches, err := q.Score(context.Background(), sentence)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score < 0.99 {
		t.Errorf("identical sentence scored %g, want ~1", score)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 segment match, got %d", len(matches))
	}
	if matches[0].Start != 0 || matches[0].End != len(sentence) {
		t.Errorf("match should cover the full sentence: %+v", matches[0])
	}
}

func TestSemantic_PartialOverlap(t *testing.T) {
	shared := "Neural networks approximate arbitrary continuous functions."
	unique := "Volcanic soil grows exceptional coffee beans."
	embed := &stubEmbedder{vecs: map[string][]float32{
		shared: {1, 0, 0},
		unique: {0, 1, 0},
	}}
	sem := NewSemantic(embed)

	q, err := sem.Prepare(context.Background(), shared+" "+unique)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	score, matches, err := q.Score(context.Background(), shared)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// One of two query segments matches perfectly, the other not at all.
	if score < 0.49 || score > 0.51 {
		t.Errorf("half overlap scored %g, want ~0.5", score)
	}
	if len(matches) != 2 {
		t.Fatalf("expected per-segment matches for both segments, got %d", len(matches))
	}
	if matches[0].Similarity < 0.99 {
		t.Errorf("shared segment similarity = %g, want ~1", matches[0].Similarity)
	}
	if matches[1].Similarity != 0 {
		t.Errorf("unique segment similarity = %g, want 0", matches[1].Similarity)
	}
}

func TestSemantic_PrepareSurfacesBackendFailure(t *testing.T) {
	embed := &stubEmbedder{batchErr: domain.ErrModelUnavailable}
	sem := NewSemantic(embed)

	_, err := sem.Prepare(context.Background(), "Some document text that needs encoding.")
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestSemantic_BatchesPerDocument(t *testing.T) {
	embed := &stubEmbedder{vecs: map[string][]float32{}}
	sem := NewSemantic(embed)

	q, err := sem.Prepare(context.Background(), "First sentence of the query. Second sentence of the query.")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if embed.calls != 1 {
		t.Fatalf("Prepare should encode all query segments in one batch, made %d calls", embed.calls)
	}

	if _, _, err := q.Score(context.Background(), "Candidate sentence one. Candidate sentence two. Candidate sentence three."); err != nil {
		t.Fatalf("Score: %v", err)
	}
	if embed.calls != 2 {
		t.Errorf("Score should encode candidate segments in one batch, total calls = %d", embed.calls)
	}
}

func TestSemantic_EmptyDoc(t *testing.T) {
	embed := &stubEmbedder{vecs: map[string][]float32{}}
	sem := NewSemantic(embed)

	q, err := sem.Prepare(context.Background(), "A query sentence that is long enough.")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	score, matches, err := q.Score(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score != 0 || matches != nil {
		t.Errorf("empty candidate: score=%g matches=%v, want 0 and nil", score, matches)
	}
}
