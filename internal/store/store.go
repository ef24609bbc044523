package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// CompanyStore reads and writes the company catalog.
type CompanyStore interface {
	// RandomCompanyName returns ErrNotFound when the catalog is empty.
	RandomCompanyName(ctx context.Context) (string, error)
	GetCompanyByName(ctx context.Context, name string) (*models.Company, error)
	CreateCompany(ctx context.Context, c *models.Company) error
	ListCompanies(ctx context.Context) ([]*models.Company, error)
}

// RunStore persists SimulationRun records.
type RunStore interface {
	// CreateRun inserts run and sets its ID and CreatedAt from the database.
	CreateRun(ctx context.Context, run *models.SimulationRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.SimulationRun, error)
	// GetRunsByIDs returns the runs that exist among ids. Missing ids are
	// silently omitted.
	GetRunsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.SimulationRun, error)
	UpdateRunGrade(ctx context.Context, id uuid.UUID, grade float64) error
}

// SummaryStore persists TestSummary records.
type SummaryStore interface {
	// CreateSummary inserts s and sets its ID and CreatedAt.
	CreateSummary(ctx context.Context, s *models.TestSummary) error
	GetSummary(ctx context.Context, id int64) (*models.TestSummary, error)
	// ListSummaries returns the newest summaries first.
	ListSummaries(ctx context.Context, limit int) ([]*models.TestSummary, error)
}

// Store is the data access interface. All database operations go through here.
type Store interface {
	CompanyStore
	RunStore
	SummaryStore
	Ping(ctx context.Context) error
	Close() error
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(ss []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
