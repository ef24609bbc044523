package simulation

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/pkg/models"
)

type RunReader interface {
	GetRunsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.SimulationRun, error)
}

type SummaryWriter interface {
	CreateSummary(ctx context.Context, s *models.TestSummary) error
}

// Aggregator turns a closed set of run ids into one persisted TestSummary.
type Aggregator struct {
	runs      RunReader
	summaries SummaryWriter
}

func NewAggregator(runs RunReader, summaries SummaryWriter) *Aggregator {
	return &Aggregator{runs: runs, summaries: summaries}
}

// Summarize loads the rows for ids and persists their summary. Ids that do not
// resolve are skipped; if none resolve the call fails with ErrRunsNotFound.
// Callers must only pass ids of runs that have reached a terminal state.
func (a *Aggregator) Summarize(ctx context.Context, ids []uuid.UUID, concurrency int) (*models.TestSummary, error) {
	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return nil, ErrEmptyRunSet
	}

	runs, err := a.runs.GetRunsByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w (%d ids supplied)", ErrRunsNotFound, len(unique))
	}

	summary := BuildSummary(runs, len(unique), concurrency)
	if err := a.summaries.CreateSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("persist summary: %w", err)
	}
	return summary, nil
}

// BuildSummary computes a summary over runs. The result depends only on the
// set of runs, never on their order. requested is the number of distinct ids
// the caller asked for. runs must be non-empty.
func BuildSummary(runs []*models.SimulationRun, requested, concurrency int) *models.TestSummary {
	seen := make(map[uuid.UUID]bool, len(runs))
	companySet := make(map[string]bool)
	var (
		grades []float64
		ids    []uuid.UUID
		sum    = &models.TestSummary{TotalRequests: requested, ConcurrencyLevel: concurrency}
	)

	for _, r := range runs {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		ids = append(ids, r.ID)

		if name := strings.TrimSpace(r.CompanyName); name != "" {
			companySet[name] = true
		}
		if r.Grade != nil {
			grades = append(grades, *r.Grade)
		}
		if sum.StartedAt.IsZero() || r.CreatedAt.Before(sum.StartedAt) {
			sum.StartedAt = r.CreatedAt
		}
		if r.CreatedAt.After(sum.FinishedAt) {
			sum.FinishedAt = r.CreatedAt
		}
	}

	sum.NumEmails = len(ids)

	sum.Companies = make([]string, 0, len(companySet))
	for name := range companySet {
		sum.Companies = append(sum.Companies, name)
	}
	slices.Sort(sum.Companies)

	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	sum.RunIDs = ids

	if len(grades) > 0 {
		// Sorted summation keeps the float result independent of row order.
		slices.Sort(grades)
		var total float64
		for _, g := range grades {
			total += g
		}
		avg := total / float64(len(grades))
		sum.AvgReplyGrade = &avg
	}

	return sum
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
