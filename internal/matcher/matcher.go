// Package matcher compares a presented biometric template against every
// enrolled template. The scan is O(number of enrolled templates) per attempt;
// that bounds how far the system scales and is a deliberate, documented
// limitation rather than something hidden behind caching.
package matcher

import (
	"bioledger/internal/repository"
	"context"
	"fmt"
	"log/slog"
)

type Outcome int

const (
	NoMatch Outcome = iota
	Matched
	// Ambiguous means two or more enrolled identities scored above the
	// threshold within the configured margin of each other. Ties are a
	// reported failure, never a coin-flip.
	Ambiguous
)

type Result struct {
	Outcome   Outcome
	AccountID string
	Score     float64
}

type Matcher struct {
	templates  repository.TemplateRepository
	similarity SimilarityFunc
	threshold  float64
	margin     float64
	logger     *slog.Logger
}

func New(templates repository.TemplateRepository, similarity SimilarityFunc, threshold, margin float64, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Matcher{
		templates:  templates,
		similarity: similarity,
		threshold:  threshold,
		margin:     margin,
		logger:     logger,
	}
}

// Match scans enrolled templates in account-ID order, so repeated runs over
// the same enrollment set are reproducible.
func (m *Matcher) Match(ctx context.Context, candidate []byte) (Result, error) {
	templates, err := m.templates.All(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load templates: %w", err)
	}

	var best, second Result
	for _, tpl := range templates {
		score := m.similarity(candidate, tpl.Vector)
		if score > best.Score {
			second = best
			best = Result{AccountID: tpl.AccountID, Score: score}
		} else if score > second.Score {
			second = Result{AccountID: tpl.AccountID, Score: score}
		}
	}

	if best.Score < m.threshold {
		m.logger.DebugContext(ctx, "No template above threshold",
			slog.Float64("best_score", best.Score),
			slog.Float64("threshold", m.threshold))
		return Result{Outcome: NoMatch}, nil
	}

	if second.Score >= m.threshold && best.Score-second.Score < m.margin {
		m.logger.WarnContext(ctx, "Ambiguous match rejected",
			slog.Float64("best_score", best.Score),
			slog.Float64("second_score", second.Score),
			slog.Float64("margin", m.margin))
		return Result{Outcome: Ambiguous}, nil
	}

	best.Outcome = Matched
	return best, nil
}
