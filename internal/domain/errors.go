package domain

import "errors"

var (
	// ErrIndexUnavailable signals that the lexical index backing store cannot
	// be reached. Fatal for the current run: an empty-result fallback would be
	// indistinguishable from a clean document.
	ErrIndexUnavailable = errors.New("lexical index unavailable")
	// ErrModelUnavailable signals that the embedding backend cannot be used.
	// Recoverable: the run degrades to lexical-only scoring.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrMalformedInput signals empty or non-text query input.
	ErrMalformedInput = errors.New("malformed input")
	// ErrScoringTimeout signals that scoring a single candidate exceeded its budget.
	ErrScoringTimeout = errors.New("candidate scoring timed out")

	// ErrDocumentNotFound signals a missing reference document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrReportNotFound signals a missing report.
	ErrReportNotFound = errors.New("report not found")
	// ErrAnchorNotFound signals that a report has no ledger anchor.
	ErrAnchorNotFound = errors.New("anchor not found")
	// ErrDigestMismatch signals that a stored report no longer matches its anchored digest.
	ErrDigestMismatch = errors.New("digest mismatch")
)
