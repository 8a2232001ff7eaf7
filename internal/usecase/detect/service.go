// Package detect orchestrates one detection run: Stage 1 shortlist, Stage 2
// concurrent scoring, fusion, span localization, and report assembly.
package detect

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veritex-io/veritex/internal/domain"
	"github.com/veritex-io/veritex/internal/index"
	"github.com/veritex-io/veritex/internal/logger"
)

// Options tune one service instance. Zero values fall back to defaults.
type Options struct {
	// ShortlistK bounds the Stage 1 candidate set.
	ShortlistK int
	// Workers bounds concurrent Stage 2 scoring goroutines.
	Workers int
	// CandidateTimeout is the per-candidate budget for semantic scoring.
	// A candidate blowing it is dropped, the run continues.
	CandidateTimeout time.Duration
	// SpanThreshold is the minimum segment similarity for span reporting.
	SpanThreshold float64
	// SpanFloor is the minimum fused score a candidate needs before its
	// segment matches are localized at all.
	SpanFloor float64
	// Weights are the fusion weights before normalization.
	Weights domain.FusionWeights
	// Bands classify fused scores into risk levels.
	Bands domain.RiskBands
}

func (o Options) withDefaults() Options {
	if o.ShortlistK <= 0 {
		o.ShortlistK = 100
	}
	if o.Workers <= 0 {
		o.Workers = 8
	}
	if o.CandidateTimeout <= 0 {
		o.CandidateTimeout = 2 * time.Second
	}
	if o.SpanThreshold <= 0 {
		o.SpanThreshold = 0.5
	}
	if o.SpanFloor <= 0 {
		o.SpanFloor = 0.15
	}
	if o.Weights.Lexical == 0 && o.Weights.Semantic == 0 {
		o.Weights = domain.FusionWeights{Lexical: 0.4, Semantic: 0.6}
	}
	if o.Bands == (domain.RiskBands{}) {
		o.Bands = domain.DefaultRiskBands()
	}
	return o
}

// Service runs the detection pipeline.
type Service struct {
	index     Shortlister
	lexical   LexicalScorer
	semantic  SemanticScorer
	assembler Assembler
	opts      Options
}

// New creates a detection service.
func New(ix Shortlister, lex LexicalScorer, sem SemanticScorer, asm Assembler, opts Options) *Service {
	return &Service{
		index:     ix,
		lexical:   lex,
		semantic:  sem,
		assembler: asm,
		opts:      opts.withDefaults(),
	}
}

// candidateResult is one candidate's Stage 2 outcome, including the segment
// matches both scorers produced for span localization.
type candidateResult struct {
	cand       domain.Candidate
	lexMatches []domain.SegmentMatch
	semMatches []domain.SegmentMatch
	dropped    bool
}

// Detect runs the full pipeline for one query text and returns the
// assembled report. Malformed input and an unreachable index are fatal;
// an unavailable embedding model degrades the run to lexical-only.
func (s *Service) Detect(ctx context.Context, queryText string) (domain.Report, error) {
	log := logger.FromContext(ctx)

	query, err := domain.NewQuery(uuid.NewString(), queryText)
	if err != nil {
		return domain.Report{}, err
	}

	hits, err := s.index.Query(ctx, query.Text, s.opts.ShortlistK)
	if err != nil {
		return domain.Report{}, fmt.Errorf("shortlist: %w", err)
	}
	log.Debug("shortlist complete", zap.String("query_id", query.ID), zap.Int("candidates", len(hits)))

	if len(hits) == 0 {
		return s.assembler.Assemble(Assembly{
			Query:   query,
			Weights: s.opts.Weights.Normalize(false),
		})
	}

	docs := make([]string, len(hits))
	for i, hit := range hits {
		docs[i] = hit.Document.Content
	}
	run := s.lexical.Fit(query.Text, docs)

	semQuery, degraded := s.prepareSemantic(ctx, query)
	if degraded {
		log.Warn("embedding model unavailable, run degraded to lexical-only",
			zap.String("query_id", query.ID))
	}

	results := s.scoreAll(ctx, run, semQuery, hits)

	weights := s.opts.Weights.Normalize(degraded)

	candidates := make([]domain.Candidate, 0, len(results))
	var spans []domain.PlagiarizedSpan
	for i := range results {
		res := &results[i]
		if res.dropped {
			continue
		}
		res.cand.Fused = fuse(res.cand, weights)
		candidates = append(candidates, res.cand)

		if res.cand.Fused.Computed && res.cand.Fused.Value >= s.opts.SpanFloor {
			spans = append(spans, s.localize(run, i, res)...)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Fused.Value != candidates[j].Fused.Value {
			return candidates[i].Fused.Value > candidates[j].Fused.Value
		}
		return candidates[i].Document.ID < candidates[j].Document.ID
	})

	report, err := s.assembler.Assemble(Assembly{
		Query:      query,
		Candidates: candidates,
		Spans:      domain.MergeSpans(query.Text, spans),
		Weights:    weights,
		Degraded:   degraded,
	})
	if err != nil {
		return domain.Report{}, fmt.Errorf("assemble report: %w", err)
	}

	log.Info("detection complete",
		zap.String("query_id", query.ID),
		zap.String("report_id", report.ReportID),
		zap.Float64("overall_score", report.OverallScore),
		zap.String("risk", string(report.Risk)),
		zap.Bool("degraded", report.Degraded))
	return report, nil
}

// prepareSemantic encodes the query once per run. Model unavailability is
// the designed degradation path, anything else still degrades but is logged
// at error level since it points at a bug rather than an outage.
func (s *Service) prepareSemantic(ctx context.Context, query domain.Query) (SemanticQuery, bool) {
	semQuery, err := s.semantic.Prepare(ctx, query.Text)
	if err == nil {
		return semQuery, false
	}
	log := logger.FromContext(ctx)
	if !errors.Is(err, domain.ErrModelUnavailable) {
		log.Error("semantic prepare failed", zap.String("query_id", query.ID), zap.Error(err))
	}
	return nil, true
}

// scoreAll fans candidates out over a bounded worker pool. Each worker
// writes only its own slot, so no further synchronization is needed.
func (s *Service) scoreAll(ctx context.Context, run LexicalRun, semQuery SemanticQuery, hits []index.Hit) []candidateResult {
	results := make([]candidateResult, len(hits))

	sem := make(chan struct{}, s.opts.Workers)
	var wg sync.WaitGroup
	for i := range hits {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.scoreCandidate(ctx, run, semQuery, i, hits[i])
		}(i)
	}
	wg.Wait()

	return results
}

func (s *Service) scoreCandidate(ctx context.Context, run LexicalRun, semQuery SemanticQuery, i int, hit index.Hit) candidateResult {
	res := candidateResult{cand: domain.Candidate{
		Document:      hit.Document,
		RetrievalRank: i + 1,
	}}
	res.cand.Lexical = domain.NewScore(run.Score(i))

	if semQuery == nil {
		return res
	}

	scoreCtx, cancel := context.WithTimeout(ctx, s.opts.CandidateTimeout)
	defer cancel()

	value, matches, err := semQuery.Score(scoreCtx, hit.Document.Content)
	if err != nil {
		log := logger.FromContext(ctx)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrScoringTimeout) {
			log.Warn("candidate dropped on scoring timeout",
				zap.String("document_id", hit.Document.ID))
			res.dropped = true
			return res
		}
		// Keep the lexical side: one candidate's embedding failure should
		// not erase evidence the other method already produced.
		log.Warn("semantic scoring failed for candidate",
			zap.String("document_id", hit.Document.ID), zap.Error(err))
		return res
	}

	res.cand.Semantic = domain.NewScore(value)
	res.semMatches = matches
	return res
}

// localize collects segment matches above the reporting threshold from both
// methods and tags each with its origin. When both methods flag the same
// range the merge step keeps the stronger one.
func (s *Service) localize(run LexicalRun, i int, res *candidateResult) []domain.PlagiarizedSpan {
	var spans []domain.PlagiarizedSpan

	for _, m := range run.MatchSegments(i, s.opts.SpanThreshold) {
		spans = append(spans, s.span(m, res.cand.Document.ID, domain.MethodLexical))
	}
	for _, m := range res.semMatches {
		if m.Similarity < s.opts.SpanThreshold {
			continue
		}
		spans = append(spans, s.span(m, res.cand.Document.ID, domain.MethodSemantic))
	}
	return spans
}

func (s *Service) span(m domain.SegmentMatch, sourceID string, method domain.Method) domain.PlagiarizedSpan {
	return domain.PlagiarizedSpan{
		Start:      m.Start,
		End:        m.End,
		SourceID:   sourceID,
		Similarity: m.Similarity,
		Risk:       s.opts.Bands.Classify(m.Similarity),
		Method:     method,
	}
}
