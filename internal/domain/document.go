package domain

import (
	"fmt"
	"strings"
)

// DocumentType tags the origin class of a reference document.
type DocumentType string

const (
	// TypeReference marks corpus documents ingested as comparison material.
	TypeReference DocumentType = "reference"
	// TypeSuspicious marks documents previously flagged by a detection run.
	TypeSuspicious DocumentType = "suspicious"
	// TypeOriginal marks documents registered by their authors.
	TypeOriginal DocumentType = "original"
)

// ReferenceDocument is one corpus entry. Immutable once ingested; the
// detection core only ever reads it.
type ReferenceDocument struct {
	ID      string
	Title   string
	Content string
	Source  string
	Type    DocumentType
}

// NewReferenceDocument validates and builds a corpus entry.
// Type defaults to TypeReference when empty.
func NewReferenceDocument(id, title, content, source string, docType DocumentType) (ReferenceDocument, error) {
	if strings.TrimSpace(id) == "" {
		return ReferenceDocument{}, fmt.Errorf("document id is required")
	}
	if strings.TrimSpace(content) == "" {
		return ReferenceDocument{}, fmt.Errorf("document %s: content is required", id)
	}
	switch docType {
	case "":
		docType = TypeReference
	case TypeReference, TypeSuspicious, TypeOriginal:
	default:
		return ReferenceDocument{}, fmt.Errorf("document %s: unknown type %q", id, docType)
	}
	return ReferenceDocument{
		ID:      id,
		Title:   title,
		Content: content,
		Source:  source,
		Type:    docType,
	}, nil
}
