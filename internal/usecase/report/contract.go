package report

import (
	"context"

	"github.com/veritex-io/veritex/internal/domain"
)

// Repository persists finished reports, addressable by id or by the
// content digest written at save time.
type Repository interface {
	Save(ctx context.Context, r domain.Report) error
	Get(ctx context.Context, id string) (domain.Report, error)
	GetByDigest(ctx context.Context, digest string) (domain.Report, error)
}
