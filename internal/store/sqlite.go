package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/pkg/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on an embedded SQLite file. Intended for the
// CLI and single-node runs where Postgres is not available.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// embedded schema migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer; serialize all access through one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *SQLiteStore) Close() error                   { return s.db.Close() }

// --- Companies ---

func (s *SQLiteStore) RandomCompanyName(ctx context.Context) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM companies ORDER BY RANDOM() LIMIT 1`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("random company: %w", err)
	}
	return name, nil
}

func (s *SQLiteStore) GetCompanyByName(ctx context.Context, name string) (*models.Company, error) {
	var (
		c       models.Company
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, url, description, created_at FROM companies WHERE name = ?`, name,
	).Scan(&c.ID, &c.Name, &c.URL, &c.Description, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *models.Company) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (name, url, description, created_at) VALUES (?, ?, ?, ?)`,
		c.Name, c.URL, c.Description, formatTime(now))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create company: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]*models.Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, url, description, created_at FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []*models.Company
	for rows.Next() {
		var (
			c       models.Company
			created string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.URL, &c.Description, &created); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// --- Simulation runs ---

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.SimulationRun) error {
	id := uuid.New()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO simulation_runs (id, company_name, scenario, input_email, generated_subject, generated_body,
		   model_name, latency_ms, sent_ok, reply_grade, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), run.CompanyName, run.Scenario, run.InputEmail, run.GeneratedSubject, run.GeneratedBody,
		run.ModelName, run.LatencyMs, run.SentOK, run.Grade, run.ErrorMessage, formatTime(now))
	if err != nil {
		return fmt.Errorf("create simulation run: %w", err)
	}
	run.ID = id
	run.CreatedAt = now
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id uuid.UUID) (*models.SimulationRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM simulation_runs WHERE id = ?`, id.String())
	run, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get simulation run: %w", err)
	}
	return run, nil
}

// sqliteMaxIDsPerQuery keeps IN lists well under SQLite's bound-variable limit.
const sqliteMaxIDsPerQuery = 500

func (s *SQLiteStore) GetRunsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.SimulationRun, error) {
	var out []*models.SimulationRun
	for chunk := range slices.Chunk(ids, sqliteMaxIDsPerQuery) {
		runs, err := s.getRunsChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, runs...)
	}
	return out, nil
}

func (s *SQLiteStore) getRunsChunk(ctx context.Context, ids []uuid.UUID) ([]*models.SimulationRun, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM simulation_runs WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get simulation runs: %w", err)
	}
	defer rows.Close()

	var out []*models.SimulationRun
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan simulation run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateRunGrade(ctx context.Context, id uuid.UUID, grade float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE simulation_runs SET reply_grade = ? WHERE id = ?`, grade, id.String())
	if err != nil {
		return fmt.Errorf("update run grade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run grade: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row scanner) (*models.SimulationRun, error) {
	var (
		r         models.SimulationRun
		id        string
		subject   sql.NullString
		body      sql.NullString
		modelName sql.NullString
		latency   sql.NullInt64
		grade     sql.NullFloat64
		errMsg    sql.NullString
		created   string
	)
	if err := row.Scan(&id, &r.CompanyName, &r.Scenario, &r.InputEmail, &subject, &body,
		&modelName, &latency, &r.SentOK, &grade, &errMsg, &created); err != nil {
		return nil, err
	}

	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse run id: %w", err)
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	r.GeneratedSubject = nullString(subject)
	r.GeneratedBody = nullString(body)
	r.ModelName = nullString(modelName)
	r.ErrorMessage = nullString(errMsg)
	if latency.Valid {
		v := int(latency.Int64)
		r.LatencyMs = &v
	}
	if grade.Valid {
		r.Grade = &grade.Float64
	}
	return &r, nil
}

// --- Test summaries ---

func (s *SQLiteStore) CreateSummary(ctx context.Context, sum *models.TestSummary) error {
	companies, err := json.Marshal(nonNil(sum.Companies))
	if err != nil {
		return fmt.Errorf("encode companies: %w", err)
	}
	runIDs, err := json.Marshal(uuidStrings(sum.RunIDs))
	if err != nil {
		return fmt.Errorf("encode run ids: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tests (companies, num_emails, total_requests, concurrency_level,
		   started_at, finished_at, avg_reply_grade, run_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(companies), sum.NumEmails, sum.TotalRequests, sum.ConcurrencyLevel,
		formatTime(sum.StartedAt), formatTime(sum.FinishedAt), sum.AvgReplyGrade, string(runIDs), formatTime(now))
	if err != nil {
		return fmt.Errorf("create test summary: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create test summary: %w", err)
	}
	sum.ID = id
	sum.CreatedAt = now
	return nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context, id int64) (*models.TestSummary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM tests WHERE test_id = ?`, id)
	sum, err := scanSQLiteSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get test summary: %w", err)
	}
	return sum, nil
}

func (s *SQLiteStore) ListSummaries(ctx context.Context, limit int) ([]*models.TestSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+summaryColumns+` FROM tests ORDER BY test_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list test summaries: %w", err)
	}
	defer rows.Close()

	var out []*models.TestSummary
	for rows.Next() {
		sum, err := scanSQLiteSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan test summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func scanSQLiteSummary(row scanner) (*models.TestSummary, error) {
	var (
		sum                        models.TestSummary
		companies, runIDs          string
		started, finished, created string
		avg                        sql.NullFloat64
	)
	if err := row.Scan(&sum.ID, &companies, &sum.NumEmails, &sum.TotalRequests, &sum.ConcurrencyLevel,
		&started, &finished, &avg, &runIDs, &created); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(companies), &sum.Companies); err != nil {
		return nil, fmt.Errorf("decode companies: %w", err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(runIDs), &ids); err != nil {
		return nil, fmt.Errorf("decode run ids: %w", err)
	}

	var err error
	if sum.RunIDs, err = parseUUIDs(ids); err != nil {
		return nil, fmt.Errorf("parse run ids: %w", err)
	}
	if sum.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if sum.FinishedAt, err = parseTime(finished); err != nil {
		return nil, err
	}
	if sum.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if avg.Valid {
		sum.AvgReplyGrade = &avg.Float64
	}
	return &sum, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

var _ Store = (*SQLiteStore)(nil)
