// Package corpus manages the reference document collection that Stage 1
// retrieval runs against.
package corpus

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/veritex-io/veritex/internal/domain"
	"github.com/veritex-io/veritex/internal/logger"
)

// Input is one document submitted for ingestion.
type Input struct {
	ID      string
	Title   string
	Content string
	Source  string
	Type    domain.DocumentType
}

// Service handles corpus ingestion and lookup.
type Service struct {
	index Indexer
}

// New creates a corpus service.
func New(index Indexer) *Service {
	return &Service{index: index}
}

// Add validates and indexes one document. Re-ingesting an existing id
// replaces it.
func (s *Service) Add(ctx context.Context, in Input) (domain.ReferenceDocument, error) {
	doc, err := domain.NewReferenceDocument(in.ID, in.Title, in.Content, in.Source, in.Type)
	if err != nil {
		return domain.ReferenceDocument{}, fmt.Errorf("%w: %w", domain.ErrMalformedInput, err)
	}
	if err := s.index.Index(ctx, doc); err != nil {
		return domain.ReferenceDocument{}, err
	}
	logger.FromContext(ctx).Info("document ingested",
		zap.String("document_id", doc.ID), zap.String("type", string(doc.Type)))
	return doc, nil
}

// AddBatch validates every document first, then indexes them in one
// pipelined write. One invalid document rejects the whole batch.
func (s *Service) AddBatch(ctx context.Context, inputs []Input) ([]domain.ReferenceDocument, error) {
	docs := make([]domain.ReferenceDocument, 0, len(inputs))
	for _, in := range inputs {
		doc, err := domain.NewReferenceDocument(in.ID, in.Title, in.Content, in.Source, in.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrMalformedInput, err)
		}
		docs = append(docs, doc)
	}
	if err := s.index.IndexBatch(ctx, docs); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("batch ingested", zap.Int("documents", len(docs)))
	return docs, nil
}

// Get fetches one document by id.
func (s *Service) Get(ctx context.Context, id string) (domain.ReferenceDocument, error) {
	return s.index.Get(ctx, id)
}

// Remove deletes one document from the corpus.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.index.Remove(ctx, id)
}

// Count returns the corpus size.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.index.Size(ctx)
}
