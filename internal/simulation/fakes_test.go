package simulation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/internal/store"
	"github.com/kiranshivaraju/replysim/pkg/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory store.Store safe for concurrent tasks.
type memStore struct {
	mu        sync.Mutex
	companies []*models.Company
	runs      map[uuid.UUID]models.SimulationRun
	summaries []*models.TestSummary
	inserts   int
	clock     time.Time

	// createRunErr, when set, fails every CreateRun.
	createRunErr error
}

var _ store.Store = (*memStore)(nil)

func newMemStore(companies ...string) *memStore {
	s := &memStore{
		runs:  make(map[uuid.UUID]models.SimulationRun),
		clock: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	for _, c := range companies {
		s.companies = append(s.companies, &models.Company{ID: int64(len(s.companies) + 1), Name: c})
	}
	return s
}

func (s *memStore) Ping(context.Context) error { return nil }
func (s *memStore) Close() error               { return nil }

func (s *memStore) RandomCompanyName(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.companies) == 0 {
		return "", store.ErrNotFound
	}
	return s.companies[rand.IntN(len(s.companies))].Name, nil
}

func (s *memStore) GetCompanyByName(_ context.Context, name string) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) CreateCompany(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.companies {
		if existing.Name == c.Name {
			return store.ErrDuplicateKey
		}
	}
	c.ID = int64(len(s.companies) + 1)
	cp := *c
	s.companies = append(s.companies, &cp)
	return nil
}

func (s *memStore) ListCompanies(context.Context) ([]*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Company, len(s.companies))
	copy(out, s.companies)
	return out, nil
}

func (s *memStore) CreateRun(_ context.Context, run *models.SimulationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createRunErr != nil {
		return s.createRunErr
	}
	s.clock = s.clock.Add(time.Millisecond)
	run.ID = uuid.New()
	run.CreatedAt = s.clock
	s.runs[run.ID] = *run
	s.inserts++
	return nil
}

func (s *memStore) GetRun(_ context.Context, id uuid.UUID) (*models.SimulationRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (s *memStore) GetRunsByIDs(_ context.Context, ids []uuid.UUID) ([]*models.SimulationRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.SimulationRun
	for _, id := range ids {
		if r, ok := s.runs[id]; ok {
			out = append(out, &r)
		}
	}
	return out, nil
}

func (s *memStore) UpdateRunGrade(_ context.Context, id uuid.UUID, grade float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Grade = &grade
	s.runs[id] = r
	return nil
}

func (s *memStore) CreateSummary(_ context.Context, sum *models.TestSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum.ID = int64(len(s.summaries) + 1)
	sum.CreatedAt = s.clock
	cp := *sum
	s.summaries = append(s.summaries, &cp)
	return nil
}

func (s *memStore) GetSummary(_ context.Context, id int64) (*models.TestSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id <= 0 || int(id) > len(s.summaries) {
		return nil, store.ErrNotFound
	}
	cp := *s.summaries[id-1]
	return &cp, nil
}

func (s *memStore) ListSummaries(_ context.Context, limit int) ([]*models.TestSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.TestSummary, 0, len(s.summaries))
	for i := len(s.summaries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.summaries[i])
	}
	return out, nil
}

func (s *memStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

func (s *memStore) allRuns() []models.SimulationRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SimulationRun, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

var errBoom = errors.New("boom")
