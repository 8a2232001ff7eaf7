// Package textseg splits documents into sentence segments while preserving
// byte offsets into the original text, so downstream span attribution can
// point back at the exact query range.
package textseg

import (
	"regexp"
	"strings"
	"unicode"
)

// Segment is one sentence with its location in the source text.
type Segment struct {
	Start int
	End   int
	Text  string
}

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)

// Sentences splits text on sentence terminators. Offsets are trimmed of
// surrounding whitespace; a text without terminators yields one segment.
func Sentences(text string) []Segment {
	locs := sentencePattern.FindAllStringIndex(text, -1)
	segments := make([]Segment, 0, len(locs))
	for _, loc := range locs {
		start, end := trimOffsets(text, loc[0], loc[1])
		if start >= end {
			continue
		}
		segments = append(segments, Segment{
			Start: start,
			End:   end,
			Text:  text[start:end],
		})
	}
	return segments
}

// SentencesMinLen returns sentences whose trimmed text is at least minLen
// bytes long. Very short fragments destabilize both vectorization and
// embedding-based matching.
func SentencesMinLen(text string, minLen int) []Segment {
	all := Sentences(text)
	out := all[:0]
	for _, s := range all {
		if len(s.Text) >= minLen {
			out = append(out, s)
		}
	}
	return out
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func trimOffsets(text string, start, end int) (int, int) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return start, end
}

func isSpace(b byte) bool {
	return unicode.IsSpace(rune(b))
}
