// Package ledger records anchor entries on a Redis stream. The stream is the
// append-only log; a KV mirror under anchor:<report_id> serves lookups.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/veritex-io/veritex/internal/db"
	"github.com/veritex-io/veritex/internal/domain"
)

const streamKey = "ledger:anchors"

// store is the consumer interface for the anchor ledger (ISP).
type store interface {
	XAdd(ctx context.Context, stream string, fields map[string]string) (string, error)
	XLen(ctx context.Context, stream string) (int64, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/anchor.Ledger.
type Repo struct {
	store store
}

// New creates a ledger repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Append writes the record to the stream first, then mirrors it for lookup.
// The stream entry is the source of truth; a crash between the two writes
// loses only the lookup shortcut, never the anchor itself.
func (r *Repo) Append(ctx context.Context, rec domain.AnchorRecord) error {
	fields := map[string]string{
		"report_id":   rec.ReportID,
		"digest":      rec.Digest,
		"cid":         rec.CID,
		"anchored_at": rec.AnchoredAt.UTC().Format(time.RFC3339Nano),
	}
	if _, err := r.store.XAdd(ctx, streamKey, fields); err != nil {
		return fmt.Errorf("append anchor %s: %w", rec.ReportID, err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal anchor %s: %w", rec.ReportID, err)
	}
	if err := r.store.Set(ctx, lookupKey(rec.ReportID), data); err != nil {
		return fmt.Errorf("mirror anchor %s: %w", rec.ReportID, err)
	}
	return nil
}

// Get returns the anchor record for a report.
func (r *Repo) Get(ctx context.Context, reportID string) (domain.AnchorRecord, error) {
	data, err := r.store.Get(ctx, lookupKey(reportID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.AnchorRecord{}, domain.ErrAnchorNotFound
		}
		return domain.AnchorRecord{}, fmt.Errorf("get anchor %s: %w", reportID, err)
	}

	var rec domain.AnchorRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.AnchorRecord{}, fmt.Errorf("unmarshal anchor %s: %w", reportID, err)
	}
	return rec, nil
}

// Len returns the number of ledger entries.
func (r *Repo) Len(ctx context.Context) (int64, error) {
	n, err := r.store.XLen(ctx, streamKey)
	if err != nil {
		return 0, fmt.Errorf("ledger length: %w", err)
	}
	return n, nil
}

func lookupKey(reportID string) string {
	return "anchor:" + reportID
}
