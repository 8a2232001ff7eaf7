package domain

import "time"

// AnchorRecord is one ledger entry binding a report digest to its
// content-addressed storage location. Append-only; never updated.
type AnchorRecord struct {
	ReportID   string    `json:"report_id"`
	Digest     string    `json:"digest"`
	CID        string    `json:"cid"`
	AnchoredAt time.Time `json:"anchored_at"`
}
