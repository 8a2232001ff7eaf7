package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FusionWeights are the per-method weights used in one run. They always sum
// to 1, including degraded runs where the semantic weight is redistributed.
type FusionWeights struct {
	Lexical  float64 `json:"lexical"`
	Semantic float64 `json:"semantic"`
}

// Normalize rescales the weights to sum to 1. When semantic scoring was
// unavailable the full weight moves to lexical.
func (w FusionWeights) Normalize(degraded bool) FusionWeights {
	if degraded {
		return FusionWeights{Lexical: 1, Semantic: 0}
	}
	sum := w.Lexical + w.Semantic
	if sum <= 0 {
		return FusionWeights{Lexical: 0.5, Semantic: 0.5}
	}
	return FusionWeights{Lexical: w.Lexical / sum, Semantic: w.Semantic / sum}
}

// SourceSummary is one ranked source on the report. Scores not computed in
// this run (degraded semantic path) serialize as null, never as zero.
type SourceSummary struct {
	DocumentID    string    `json:"document_id"`
	Title         string    `json:"title"`
	Source        string    `json:"source"`
	LexicalScore  *float64  `json:"lexical_score"`
	SemanticScore *float64  `json:"semantic_score"`
	FusedScore    float64   `json:"fused_score"`
	Risk          RiskLevel `json:"risk"`
	Excerpt       string    `json:"excerpt"`
}

// DocumentStats summarizes the query document.
type DocumentStats struct {
	Words      int `json:"words"`
	Sentences  int `json:"sentences"`
	Characters int `json:"characters"`
}

// Report is the immutable outcome of one completed detection run. It is the
// only entity crossing the core boundary; collaborators receive it by value.
type Report struct {
	ReportID     string            `json:"report_id"`
	CreatedAt    time.Time         `json:"created_at"`
	OverallScore float64           `json:"overall_score"`
	Risk         RiskLevel         `json:"risk"`
	Degraded     bool              `json:"degraded"`
	Weights      FusionWeights     `json:"weights"`
	Sources      []SourceSummary   `json:"sources"`
	Spans        []PlagiarizedSpan `json:"spans"`
	QueryText    string            `json:"query_text"`
	Stats        DocumentStats     `json:"stats"`
}

// NewReportID builds a timestamp + random-suffix token. Unique enough as a
// lookup key under expected load; tamper evidence comes from the anchored
// digest, not from this identifier.
func NewReportID(now time.Time) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("RPT_%s_%s", now.UTC().Format("20060102T150405"), suffix)
}

// CanonicalJSON serializes the report deterministically: fixed struct field
// order, UTC timestamp. Hashing the same logical report always yields the
// same bytes; anchoring verification depends on this.
func (r Report) CanonicalJSON() ([]byte, error) {
	r.CreatedAt = r.CreatedAt.UTC()
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report %s: %w", r.ReportID, err)
	}
	return data, nil
}

// Digest returns the SHA-256 hex digest of the canonical serialization.
func (r Report) Digest() (string, error) {
	data, err := r.CanonicalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ReportFromJSON decodes a canonically serialized report.
func ReportFromJSON(data []byte) (Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return r, nil
}
