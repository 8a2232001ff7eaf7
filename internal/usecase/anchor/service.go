// Package anchor binds finished reports to an append-only ledger so later
// tampering with a stored report is detectable.
package anchor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/veritex-io/veritex/internal/domain"
)

// Service anchors reports and verifies them against their anchors.
type Service struct {
	blobs  BlobStore
	ledger Ledger
	now    func() time.Time
}

// Option tweaks a Service.
type Option func(*Service)

// WithClock injects the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates an anchoring service.
func New(blobs BlobStore, ledger Ledger, opts ...Option) *Service {
	s := &Service{blobs: blobs, ledger: ledger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Anchor serializes the report canonically, stores the bytes content-addressed,
// and appends the digest binding to the ledger.
func (s *Service) Anchor(ctx context.Context, r domain.Report) (domain.AnchorRecord, error) {
	data, err := r.CanonicalJSON()
	if err != nil {
		return domain.AnchorRecord{}, err
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	cid, err := s.blobs.Put(ctx, data)
	if err != nil {
		return domain.AnchorRecord{}, fmt.Errorf("store report blob %s: %w", r.ReportID, err)
	}

	rec := domain.AnchorRecord{
		ReportID:   r.ReportID,
		Digest:     digest,
		CID:        cid,
		AnchoredAt: s.now().UTC(),
	}
	if err := s.ledger.Append(ctx, rec); err != nil {
		return domain.AnchorRecord{}, fmt.Errorf("append anchor %s: %w", r.ReportID, err)
	}
	return rec, nil
}

// Verify recomputes the report's digest and compares it to the anchored one.
// A mismatch means the stored report changed after anchoring.
func (s *Service) Verify(ctx context.Context, r domain.Report) (domain.AnchorRecord, error) {
	rec, err := s.ledger.Get(ctx, r.ReportID)
	if err != nil {
		return domain.AnchorRecord{}, fmt.Errorf("load anchor %s: %w", r.ReportID, err)
	}

	digest, err := r.Digest()
	if err != nil {
		return domain.AnchorRecord{}, err
	}
	if digest != rec.Digest {
		return rec, fmt.Errorf("report %s: %w", r.ReportID, domain.ErrDigestMismatch)
	}
	return rec, nil
}

// Get returns the anchor record for a report.
func (s *Service) Get(ctx context.Context, reportID string) (domain.AnchorRecord, error) {
	rec, err := s.ledger.Get(ctx, reportID)
	if err != nil {
		return domain.AnchorRecord{}, fmt.Errorf("load anchor %s: %w", reportID, err)
	}
	return rec, nil
}
