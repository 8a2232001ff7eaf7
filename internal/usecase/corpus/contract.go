package corpus

import (
	"context"

	"github.com/veritex-io/veritex/internal/domain"
)

// Indexer is the searchable document store behind ingestion.
type Indexer interface {
	Index(ctx context.Context, doc domain.ReferenceDocument) error
	IndexBatch(ctx context.Context, docs []domain.ReferenceDocument) error
	Remove(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domain.ReferenceDocument, error)
	Size(ctx context.Context) (int, error)
}
