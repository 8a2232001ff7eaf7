package domain

import (
	"reflect"
	"strings"
	"testing"
)

func TestMergeSpans_SameSourceOverlap(t *testing.T) {
	text := strings.Repeat("x", 90)
	spans := []PlagiarizedSpan{
		{Start: 0, End: 50, SourceID: "a", Similarity: 0.6, Risk: RiskMedium, Method: MethodLexical},
		{Start: 40, End: 90, SourceID: "a", Similarity: 0.9, Risk: RiskHigh, Method: MethodSemantic},
	}

	got := MergeSpans(text, spans)
	if len(got) != 1 {
		t.Fatalf("expected 1 merged span, got %d", len(got))
	}
	want := PlagiarizedSpan{Start: 0, End: 90, SourceID: "a", Similarity: 0.9, Risk: RiskHigh, Method: MethodSemantic}
	if !reflect.DeepEqual(got[0], want) {
		t.Errorf("merged span = %+v, want %+v", got[0], want)
	}
}

func TestMergeSpans_WhitespaceGapSameSource(t *testing.T) {
	// Sentence segmentation trims the separating space, leaving a 1-byte
	// gap between consecutive sentences of the same source.
	text := "First sentence here. Second sentence follows."
	spans := []PlagiarizedSpan{
		{Start: 0, End: 20, SourceID: "a", Similarity: 1, Risk: RiskHigh, Method: MethodLexical},
		{Start: 21, End: 45, SourceID: "a", Similarity: 1, Risk: RiskHigh, Method: MethodLexical},
	}

	got := MergeSpans(text, spans)
	if len(got) != 1 {
		t.Fatalf("expected 1 merged span across the whitespace gap, got %d", len(got))
	}
	if got[0].Start != 0 || got[0].End != 45 {
		t.Errorf("merged span = [%d,%d), want [0,45)", got[0].Start, got[0].End)
	}
}

func TestMergeSpans_IdenticalDocumentCoversMostText(t *testing.T) {
	// A document identical to a corpus entry must end up with one span
	// covering at least 90% of its text, not one span per sentence.
	sentences := []string{
		"The quick brown fox jumps over the lazy dog near the river bank today.",
		"Machine learning models require careful evaluation on held out data.",
		"Sentence segmentation preserves byte offsets into the original text.",
		"Weighted fusion combines lexical and semantic similarity evidence.",
	}
	text := strings.Join(sentences, " ")

	var spans []PlagiarizedSpan
	pos := 0
	for _, s := range sentences {
		spans = append(spans, PlagiarizedSpan{
			Start: pos, End: pos + len(s), SourceID: "d1",
			Similarity: 1, Risk: RiskHigh, Method: MethodLexical,
		})
		pos += len(s) + 1
	}

	got := MergeSpans(text, spans)
	if len(got) != 1 {
		t.Fatalf("expected 1 span for an identical document, got %d", len(got))
	}
	covered := got[0].End - got[0].Start
	if ratio := float64(covered) / float64(len(text)); ratio < 0.9 {
		t.Errorf("largest span covers %d of %d bytes (%.0f%%), want >= 90%%",
			covered, len(text), ratio*100)
	}
}

func TestMergeSpans_CrossSourceOverlapRetained(t *testing.T) {
	text := strings.Repeat("x", 60)
	spans := []PlagiarizedSpan{
		{Start: 0, End: 50, SourceID: "a", Similarity: 0.8},
		{Start: 10, End: 60, SourceID: "b", Similarity: 0.7},
	}

	got := MergeSpans(text, spans)
	if len(got) != 2 {
		t.Fatalf("expected 2 spans (different sources), got %d", len(got))
	}
}

func TestMergeSpans_DisjointSameSource(t *testing.T) {
	// The gap between the spans holds real text, so they stay separate.
	text := strings.Repeat("a", 40) + " unmatched middle text " +
		strings.Repeat("b", 87)
	spans := []PlagiarizedSpan{
		{Start: 100, End: 150, SourceID: "a", Similarity: 0.5},
		{Start: 0, End: 40, SourceID: "a", Similarity: 0.6},
	}

	got := MergeSpans(text, spans)
	if len(got) != 2 {
		t.Fatalf("expected 2 disjoint spans, got %d", len(got))
	}
	if got[0].Start != 0 || got[1].Start != 100 {
		t.Errorf("spans not ordered by start: %+v", got)
	}
}

func TestMergeSpans_Empty(t *testing.T) {
	if got := MergeSpans("", nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}
