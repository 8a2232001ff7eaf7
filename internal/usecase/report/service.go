// Package report assembles immutable detection reports and handles their
// persistence.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veritex-io/veritex/internal/domain"
	"github.com/veritex-io/veritex/internal/textseg"
	"github.com/veritex-io/veritex/internal/usecase/detect"
)

const (
	defaultMaxSources = 10
	defaultExcerptLen = 200
)

// Service builds reports from finished runs and reads them back.
type Service struct {
	repo       Repository
	bands      domain.RiskBands
	maxSources int
	excerptLen int

	// injected for deterministic tests
	now   func() time.Time
	newID func(time.Time) string
}

// Option tweaks a Service.
type Option func(*Service)

// WithBands overrides the risk banding thresholds.
func WithBands(b domain.RiskBands) Option {
	return func(s *Service) { s.bands = b }
}

// WithMaxSources caps the ranked source list on a report.
func WithMaxSources(n int) Option {
	return func(s *Service) { s.maxSources = n }
}

// WithClock injects the timestamp and id generators.
func WithClock(now func() time.Time, newID func(time.Time) string) Option {
	return func(s *Service) {
		s.now = now
		s.newID = newID
	}
}

// New creates a report service.
func New(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		bands:      domain.DefaultRiskBands(),
		maxSources: defaultMaxSources,
		excerptLen: defaultExcerptLen,
		now:        time.Now,
		newID:      domain.NewReportID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assemble turns one finished run into a report. The overall score is the
// strongest fused candidate; an empty candidate set yields a clean report
// with score 0.
func (s *Service) Assemble(a detect.Assembly) (domain.Report, error) {
	now := s.now().UTC()

	overall := 0.0
	for _, c := range a.Candidates {
		if c.Fused.Computed && c.Fused.Value > overall {
			overall = c.Fused.Value
		}
	}

	report := domain.Report{
		ReportID:     s.newID(now),
		CreatedAt:    now,
		OverallScore: overall,
		Risk:         s.bands.Classify(overall),
		Degraded:     a.Degraded,
		Weights:      a.Weights,
		Sources:      s.sources(a.Candidates),
		Spans:        a.Spans,
		QueryText:    a.Query.Text,
		Stats:        stats(a.Query.Text),
	}
	return report, nil
}

// Save persists a report.
func (s *Service) Save(ctx context.Context, r domain.Report) error {
	if err := s.repo.Save(ctx, r); err != nil {
		return fmt.Errorf("save report %s: %w", r.ReportID, err)
	}
	return nil
}

// Get loads a report by id.
func (s *Service) Get(ctx context.Context, id string) (domain.Report, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Report{}, fmt.Errorf("get report %s: %w", id, err)
	}
	return r, nil
}

// Lookup loads a report by id, falling back to a content-digest lookup
// when ref has the shape of a SHA-256 hex digest. Verification clients
// often hold only the digest they saw anchored.
func (s *Service) Lookup(ctx context.Context, ref string) (domain.Report, error) {
	r, err := s.repo.Get(ctx, ref)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, domain.ErrReportNotFound) || !isHexDigest(ref) {
		return domain.Report{}, fmt.Errorf("get report %s: %w", ref, err)
	}

	r, err = s.repo.GetByDigest(ctx, ref)
	if err != nil {
		return domain.Report{}, fmt.Errorf("get report by digest %s: %w", ref, err)
	}
	return r, nil
}

func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

// sources ranks matched documents for the report. Candidates with no fused
// evidence are left out; the list is capped so a huge shortlist does not
// bloat the report. Method scores that never computed stay nil and
// serialize as null.
func (s *Service) sources(candidates []domain.Candidate) []domain.SourceSummary {
	sources := make([]domain.SourceSummary, 0, min(len(candidates), s.maxSources))
	for _, c := range candidates {
		if !c.Fused.Computed || c.Fused.Value == 0 {
			continue
		}
		sources = append(sources, domain.SourceSummary{
			DocumentID:    c.Document.ID,
			Title:         c.Document.Title,
			Source:        c.Document.Source,
			LexicalScore:  scorePtr(c.Lexical),
			SemanticScore: scorePtr(c.Semantic),
			FusedScore:    c.Fused.Value,
			Risk:          s.bands.Classify(c.Fused.Value),
			Excerpt:       excerpt(c.Document.Content, s.excerptLen),
		})
		if len(sources) == s.maxSources {
			break
		}
	}
	if len(sources) == 0 {
		return nil
	}
	return sources
}

func scorePtr(sc domain.Score) *float64 {
	if !sc.Computed {
		return nil
	}
	v := sc.Value
	return &v
}

// excerpt cuts content to maxLen runes on a rune boundary.
func excerpt(content string, maxLen int) string {
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen]) + "..."
}

func stats(text string) domain.DocumentStats {
	return domain.DocumentStats{
		Words:      textseg.WordCount(text),
		Sentences:  len(textseg.Sentences(text)),
		Characters: len([]rune(text)),
	}
}
