package domain

import (
	"sort"
	"strings"
)

// Method identifies which scorer drove a span match.
type Method string

const (
	// MethodLexical marks a TF-IDF driven match.
	MethodLexical Method = "lexical"
	// MethodSemantic marks an embedding driven match.
	MethodSemantic Method = "semantic"
)

// SegmentMatch is one query segment matched against its best counterpart in
// a candidate document. Offsets are byte indices into the query text. Span
// localization turns these into attributed spans.
type SegmentMatch struct {
	Start      int
	End        int
	Similarity float64
}

// PlagiarizedSpan is a contiguous range of the query text attributed to one
// source. Offsets are byte indices into the query text, Start < End.
type PlagiarizedSpan struct {
	Start      int       `json:"start"`
	End        int       `json:"end"`
	SourceID   string    `json:"source_id"`
	Similarity float64   `json:"similarity"`
	Risk       RiskLevel `json:"risk"`
	Method     Method    `json:"method"`
}

// MergeSpans collapses overlapping or touching spans that point at the same
// source into one contiguous span, keeping the strongest match's similarity
// and method. Spans separated only by whitespace in text merge as well:
// sentence segmentation trims the separators, so consecutive matched
// sentences would otherwise never touch. Overlaps across different sources
// are retained: a passage can resemble multiple sources at once. Output
// ordering is deterministic (by start offset, then source id).
func MergeSpans(text string, spans []PlagiarizedSpan) []PlagiarizedSpan {
	if len(spans) == 0 {
		return nil
	}

	bySource := make(map[string][]PlagiarizedSpan)
	for _, sp := range spans {
		bySource[sp.SourceID] = append(bySource[sp.SourceID], sp)
	}

	merged := make([]PlagiarizedSpan, 0, len(spans))
	for _, group := range bySource {
		sort.Slice(group, func(i, j int) bool {
			if group[i].Start != group[j].Start {
				return group[i].Start < group[j].Start
			}
			return group[i].End < group[j].End
		})

		cur := group[0]
		for _, sp := range group[1:] {
			if sp.Start <= cur.End || whitespaceGap(text, cur.End, sp.Start) {
				if sp.End > cur.End {
					cur.End = sp.End
				}
				if sp.Similarity > cur.Similarity {
					cur.Similarity = sp.Similarity
					cur.Risk = sp.Risk
					cur.Method = sp.Method
				}
				continue
			}
			merged = append(merged, cur)
			cur = sp
		}
		merged = append(merged, cur)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Start != merged[j].Start {
			return merged[i].Start < merged[j].Start
		}
		return merged[i].SourceID < merged[j].SourceID
	})
	return merged
}

// whitespaceGap reports whether text between from and to holds nothing but
// whitespace.
func whitespaceGap(text string, from, to int) bool {
	if from < 0 || to > len(text) || from >= to {
		return false
	}
	return strings.TrimSpace(text[from:to]) == ""
}
