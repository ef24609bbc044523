package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/replysim/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Companies ---

func (s *PostgresStore) RandomCompanyName(ctx context.Context) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx, `SELECT name FROM companies ORDER BY random() LIMIT 1`).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("random company: %w", err)
	}
	return name, nil
}

func (s *PostgresStore) GetCompanyByName(ctx context.Context, name string) (*models.Company, error) {
	var c models.Company
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, url, description, created_at FROM companies WHERE name = $1`, name,
	).Scan(&c.ID, &c.Name, &c.URL, &c.Description, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateCompany(ctx context.Context, c *models.Company) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO companies (name, url, description) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.Name, c.URL, c.Description,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]*models.Company, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, url, description, created_at FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []*models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.URL, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// --- Simulation runs ---

const runColumns = `id, company_name, scenario, input_email, generated_subject, generated_body,
	model_name, latency_ms, sent_ok, reply_grade, error_message, created_at`

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.SimulationRun) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO simulation_runs (company_name, scenario, input_email, generated_subject, generated_body,
		   model_name, latency_ms, sent_ok, reply_grade, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		run.CompanyName, run.Scenario, run.InputEmail, run.GeneratedSubject, run.GeneratedBody,
		run.ModelName, run.LatencyMs, run.SentOK, run.Grade, run.ErrorMessage,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("create simulation run: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*models.SimulationRun, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM simulation_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get simulation run: %w", err)
	}
	return run, nil
}

func (s *PostgresStore) GetRunsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.SimulationRun, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM simulation_runs WHERE id = ANY($1::text[]::uuid[])`,
		uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("get simulation runs: %w", err)
	}
	defer rows.Close()

	var out []*models.SimulationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan simulation run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateRunGrade(ctx context.Context, id uuid.UUID, grade float64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE simulation_runs SET reply_grade = $2 WHERE id = $1`, id, grade)
	if err != nil {
		return fmt.Errorf("update run grade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRun(row pgx.Row) (*models.SimulationRun, error) {
	var r models.SimulationRun
	err := row.Scan(&r.ID, &r.CompanyName, &r.Scenario, &r.InputEmail, &r.GeneratedSubject, &r.GeneratedBody,
		&r.ModelName, &r.LatencyMs, &r.SentOK, &r.Grade, &r.ErrorMessage, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// --- Test summaries ---

const summaryColumns = `test_id, companies, num_emails, total_requests, concurrency_level,
	started_at, finished_at, avg_reply_grade, run_ids, created_at`

func (s *PostgresStore) CreateSummary(ctx context.Context, sum *models.TestSummary) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tests (companies, num_emails, total_requests, concurrency_level,
		   started_at, finished_at, avg_reply_grade, run_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING test_id, created_at`,
		nonNil(sum.Companies), sum.NumEmails, sum.TotalRequests, sum.ConcurrencyLevel,
		sum.StartedAt, sum.FinishedAt, sum.AvgReplyGrade, uuidStrings(sum.RunIDs),
	).Scan(&sum.ID, &sum.CreatedAt)
	if err != nil {
		return fmt.Errorf("create test summary: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSummary(ctx context.Context, id int64) (*models.TestSummary, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+summaryColumns+` FROM tests WHERE test_id = $1`, id)
	sum, err := scanSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get test summary: %w", err)
	}
	return sum, nil
}

func (s *PostgresStore) ListSummaries(ctx context.Context, limit int) ([]*models.TestSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+summaryColumns+` FROM tests ORDER BY test_id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list test summaries: %w", err)
	}
	defer rows.Close()

	var out []*models.TestSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan test summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func scanSummary(row pgx.Row) (*models.TestSummary, error) {
	var (
		sum    models.TestSummary
		runIDs []string
	)
	err := row.Scan(&sum.ID, &sum.Companies, &sum.NumEmails, &sum.TotalRequests, &sum.ConcurrencyLevel,
		&sum.StartedAt, &sum.FinishedAt, &sum.AvgReplyGrade, &runIDs, &sum.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sum.RunIDs, err = parseUUIDs(runIDs); err != nil {
		return nil, fmt.Errorf("parse run ids: %w", err)
	}
	return &sum, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
