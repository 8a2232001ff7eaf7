package chi

import (
	"time"

	"github.com/veritex-io/veritex/internal/domain"
	"github.com/veritex-io/veritex/internal/usecase/corpus"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeDocumentNotFound = "document_not_found"
	codeReportNotFound   = "report_not_found"
	codeAnchorNotFound   = "anchor_not_found"
	codeIndexUnavailable = "index_unavailable"
	codeModelUnavailable = "model_unavailable"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type documentRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
	Type    string `json:"type,omitempty"`
}

type documentResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
	Type   string `json:"type"`
}

type batchDocumentsRequest struct {
	Documents []documentRequest `json:"documents"`
}

type batchDocumentsResponse struct {
	Ingested int `json:"ingested"`
}

type corpusStatsResponse struct {
	Documents int `json:"documents"`
}

type detectionRequest struct {
	Text string `json:"text"`
}

type detectionResponse struct {
	Report domain.Report        `json:"report"`
	Anchor *domain.AnchorRecord `json:"anchor,omitempty"`
}

type verifyResponse struct {
	ReportID   string     `json:"report_id"`
	Verified   bool       `json:"verified"`
	Digest     string     `json:"digest,omitempty"`
	CID        string     `json:"cid,omitempty"`
	AnchoredAt *time.Time `json:"anchored_at,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func documentToResponse(doc domain.ReferenceDocument) documentResponse {
	return documentResponse{
		ID:     doc.ID,
		Title:  doc.Title,
		Source: doc.Source,
		Type:   string(doc.Type),
	}
}

func documentFromRequest(req documentRequest) corpus.Input {
	return corpus.Input{
		ID:      req.ID,
		Title:   req.Title,
		Content: req.Content,
		Source:  req.Source,
		Type:    domain.DocumentType(req.Type),
	}
}
