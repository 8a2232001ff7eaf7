package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Query is the submitted document under inspection. It lives only for the
// duration of one detection run.
type Query struct {
	ID   string
	Text string
}

// NewQuery validates the submitted text. Empty or non-UTF-8 input is rejected
// before any retrieval work happens.
func NewQuery(id, text string) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, fmt.Errorf("%w: query text is empty", ErrMalformedInput)
	}
	if !utf8.ValidString(text) {
		return Query{}, fmt.Errorf("%w: query text is not valid UTF-8", ErrMalformedInput)
	}
	return Query{ID: id, Text: text}, nil
}
