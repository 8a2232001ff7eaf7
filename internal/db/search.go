package db

// TextQuery is the input for a BM25 shortlist search.
type TextQuery struct {
	IndexName string

	// Field is the text field searched, defaulting to "content".
	Field string

	Query string
	TopK  int

	// ReturnFields limits which hash fields come back with each hit.
	// Empty returns every field.
	ReturnFields []string
}

// SearchResult carries the total match count and the returned page.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one document hit with its BM25 score.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
