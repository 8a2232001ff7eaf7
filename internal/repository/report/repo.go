// Package report persists reports as canonical JSON under report:<id> keys.
package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/veritex-io/veritex/internal/db"
	"github.com/veritex-io/veritex/internal/domain"
)

// store is the consumer interface for report persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/report.Repository.
type Repo struct {
	store store
}

// New creates a report repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save writes the report's canonical serialization. Storing the exact bytes
// that were digested keeps reads verifiable against the anchor. A secondary
// digest key points back at the id so verification clients holding only the
// anchored digest can still find the report.
func (r *Repo) Save(ctx context.Context, rep domain.Report) error {
	data, err := rep.CanonicalJSON()
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, key(rep.ReportID), data); err != nil {
		return fmt.Errorf("set report %s: %w", rep.ReportID, err)
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if err := r.store.Set(ctx, digestKey(digest), []byte(rep.ReportID)); err != nil {
		return fmt.Errorf("set digest index for report %s: %w", rep.ReportID, err)
	}
	return nil
}

// Get loads a report by id.
func (r *Repo) Get(ctx context.Context, id string) (domain.Report, error) {
	data, err := r.store.Get(ctx, key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Report{}, domain.ErrReportNotFound
		}
		return domain.Report{}, fmt.Errorf("get report %s: %w", id, err)
	}
	return domain.ReportFromJSON(data)
}

// GetByDigest loads a report by the content digest recorded at save time.
func (r *Repo) GetByDigest(ctx context.Context, digest string) (domain.Report, error) {
	id, err := r.store.Get(ctx, digestKey(digest))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Report{}, domain.ErrReportNotFound
		}
		return domain.Report{}, fmt.Errorf("resolve report digest %s: %w", digest, err)
	}
	return r.Get(ctx, string(id))
}

func key(id string) string {
	return "report:" + id
}

func digestKey(digest string) string {
	return "report:digest:" + digest
}
