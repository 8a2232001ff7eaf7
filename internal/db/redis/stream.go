package redis

import (
	"context"

	"github.com/veritex-io/veritex/internal/db"
)

// XAdd appends an entry to a stream with a server-assigned ID and returns
// that ID. Stream entries are immutable once written, giving the anchor
// ledger its append-only guarantee.
func (s *Store) XAdd(ctx context.Context, stream string, fields map[string]string) (string, error) {
	cmd := s.b().Xadd().Key(stream).Id("*").FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	id, err := s.do(ctx, cmd.Build()).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpXAdd, Err: err}
	}
	return id, nil
}

// XLen returns the number of entries in a stream.
func (s *Store) XLen(ctx context.Context, stream string) (int64, error) {
	cmd := s.b().Xlen().Key(stream).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpXLen, Err: err}
	}
	return n, nil
}
