package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/veritex-io/veritex/internal/db"
)

// SearchBM25 runs an FT.SEARCH text query and returns scored hits.
func (s *Store) SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if q.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	args := []string{q.IndexName, bm25QueryString(q)}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}
	args = append(args,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.TopK),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseBM25Result(raw)
}

// bm25QueryString builds the field-scoped query expression. Terms are
// OR-joined: a shortlist favors recall, BM25 ranking handles precision.
// AND semantics would drop documents sharing only part of the query
// vocabulary.
func bm25QueryString(q *db.TextQuery) string {
	field := q.Field
	if field == "" {
		field = "content"
	}

	terms := strings.Fields(q.Query)
	escaped := make([]string, len(terms))
	for i, term := range terms {
		escaped[i] = queryEscaper.Replace(term)
	}
	return fmt.Sprintf("@%s:(%s)", field, strings.Join(escaped, "|"))
}

// SearchCount returns the match count for a query without fetching hits.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// parseBM25Result walks the RESP2 reply, which interleaves keys, scores
// and field arrays after the leading total: [total, key1, score1,
// fields1, key2, ...]. Entries that fail to parse are skipped rather
// than failing the whole page.
func parseBM25Result(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	result := &db.SearchResult{Total: int(total)}
	for i := 1; i+2 < len(raw); i += 3 {
		entry, ok := parseBM25Entry(raw[i], raw[i+1], raw[i+2])
		if ok {
			result.Entries = append(result.Entries, entry)
		}
	}
	return result, nil
}

func parseBM25Entry(keyMsg, scoreMsg, fieldsMsg rueidis.RedisMessage) (db.SearchEntry, bool) {
	key, err := keyMsg.ToString()
	if err != nil {
		return db.SearchEntry{}, false
	}
	scoreStr, err := scoreMsg.ToString()
	if err != nil {
		return db.SearchEntry{}, false
	}
	score, err := strconv.ParseFloat(scoreStr, 64)
	if err != nil {
		return db.SearchEntry{}, false
	}
	rawFields, err := fieldsMsg.ToArray()
	if err != nil {
		return db.SearchEntry{}, false
	}

	fields := make(map[string]string, len(rawFields)/2)
	for j := 0; j+1 < len(rawFields); j += 2 {
		name, err := rawFields[j].ToString()
		if err != nil {
			continue
		}
		value, err := rawFields[j+1].ToString()
		if err != nil {
			continue
		}
		fields[name] = value
	}

	return db.SearchEntry{Key: key, Score: score, Fields: fields}, true
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
