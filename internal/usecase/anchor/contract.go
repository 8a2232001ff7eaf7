package anchor

import (
	"context"

	"github.com/veritex-io/veritex/internal/domain"
)

// BlobStore is content-addressed storage: Put returns the CID derived from
// the bytes, the same bytes always land at the same CID.
type BlobStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, cid string) ([]byte, error)
}

// Ledger is the append-only anchor log.
type Ledger interface {
	Append(ctx context.Context, rec domain.AnchorRecord) error
	Get(ctx context.Context, reportID string) (domain.AnchorRecord, error)
}
