package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/internal/cache"
	"github.com/kiranshivaraju/replysim/internal/config"
	"github.com/kiranshivaraju/replysim/internal/store"
	"github.com/kiranshivaraju/replysim/pkg/models"
)

const (
	summaryCacheTTL = time.Hour
	runCacheTTL     = 10 * time.Minute
)

// TestRequest is a caller request to run and summarize one batch.
type TestRequest struct {
	NumEmails   int    `json:"num_emails"`
	Concurrency int    `json:"concurrency_level"`
	CompanyName string `json:"company_name,omitempty"`
}

// TestResult is the outcome of RunTest.
type TestResult struct {
	Summary *models.TestSummary `json:"summary"`
	Batch   *BatchResult        `json:"batch"`
}

// ServiceDeps wires a Service. Cache may be nil.
type ServiceDeps struct {
	Store       store.Store
	Cache       cache.Cache
	Generator   models.ReplyGenerator
	Judge       models.ReplyJudge
	Scenarios   *ScenarioSource
	Limits      config.SimulationConfig
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// Service is the entry point used by the HTTP API and the CLI.
type Service struct {
	scheduler   *Scheduler
	aggregator  *Aggregator
	store       store.Store
	cache       cache.Cache
	judge       models.ReplyJudge
	limits      config.SimulationConfig
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewService(deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	task := NewTask(TaskDeps{
		Companies:   deps.Store,
		Scenarios:   deps.Scenarios,
		Generator:   deps.Generator,
		Judge:       deps.Judge,
		Runs:        deps.Store,
		CallTimeout: deps.CallTimeout,
		Logger:      logger,
	})
	return &Service{
		scheduler:   NewScheduler(task, logger),
		aggregator:  NewAggregator(deps.Store, deps.Store),
		store:       deps.Store,
		cache:       deps.Cache,
		judge:       deps.Judge,
		limits:      deps.Limits,
		callTimeout: deps.CallTimeout,
		logger:      logger,
	}
}

// RunTest validates req, runs the batch and summarizes the runs it produced.
// A configured batch timeout only limits admission of new tasks.
func (s *Service) RunTest(ctx context.Context, req TestRequest) (*TestResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	batchCtx := ctx
	if s.limits.BatchTimeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, s.limits.BatchTimeout)
		defer cancel()
	}

	batch, err := s.scheduler.RunBatch(batchCtx, req.NumEmails, req.Concurrency, req.CompanyName)
	if err != nil {
		return nil, err
	}

	// The run set is closed at this point; record its summary even if the
	// caller has gone away.
	summary, err := s.aggregator.Summarize(context.WithoutCancel(ctx), batch.RunIDs, req.Concurrency)
	if err != nil {
		return &TestResult{Batch: batch}, fmt.Errorf("summarize batch (%d failed, %d skipped): %w",
			batch.Failed, batch.Skipped, err)
	}
	s.cacheSummary(ctx, summary)

	s.logger.Info("test summary recorded",
		"test_id", summary.ID,
		"batch_id", batch.ID,
		"num_emails", summary.NumEmails,
		"avg_reply_grade", summary.AvgReplyGrade,
	)
	return &TestResult{Summary: summary, Batch: batch}, nil
}

func (s *Service) validate(req TestRequest) error {
	if req.NumEmails <= 0 || req.NumEmails > s.limits.MaxEmails {
		return fmt.Errorf("%w: num_emails must be between 1 and %d, got %d",
			ErrInvalidBatchParameters, s.limits.MaxEmails, req.NumEmails)
	}
	if req.Concurrency <= 0 || req.Concurrency > s.limits.MaxConcurrency {
		return fmt.Errorf("%w: concurrency_level must be between 1 and %d, got %d",
			ErrInvalidBatchParameters, s.limits.MaxConcurrency, req.Concurrency)
	}
	return nil
}

// Summarize builds a summary over an arbitrary set of existing run ids.
func (s *Service) Summarize(ctx context.Context, ids []uuid.UUID, concurrency int) (*models.TestSummary, error) {
	summary, err := s.aggregator.Summarize(ctx, ids, concurrency)
	if err != nil {
		return nil, err
	}
	s.cacheSummary(ctx, summary)
	return summary, nil
}

func (s *Service) GetSummary(ctx context.Context, id int64) (*models.TestSummary, error) {
	if s.cache != nil {
		cached, found, err := s.cache.GetSummary(ctx, id)
		if err != nil {
			s.logger.Warn("summary cache read failed", "test_id", id, "error", err)
		} else if found {
			return cached, nil
		}
	}

	summary, err := s.store.GetSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSummary(ctx, summary)
	return summary, nil
}

func (s *Service) ListSummaries(ctx context.Context, limit int) ([]*models.TestSummary, error) {
	return s.store.ListSummaries(ctx, limit)
}

func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*models.SimulationRun, error) {
	if s.cache != nil {
		cached, found, err := s.cache.GetRun(ctx, id)
		if err != nil {
			s.logger.Warn("run cache read failed", "run_id", id, "error", err)
		} else if found {
			return cached, nil
		}
	}

	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetRun(ctx, run, runCacheTTL); err != nil {
			s.logger.Warn("run cache write failed", "run_id", id, "error", err)
		}
	}
	return run, nil
}

// Regrade re-judges a stored run and updates only its grade. Summaries that
// already include the run are not recomputed.
func (s *Service) Regrade(ctx context.Context, id uuid.UUID) (*models.SimulationRun, error) {
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}

	grade, err := judgeRun(ctx, s.judge, s.callTimeout, run)
	if errors.Is(err, ErrNothingToGrade) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJudgingFailed, err)
	}

	if err := s.store.UpdateRunGrade(ctx, id, grade); err != nil {
		return nil, err
	}
	run.Grade = &grade

	if s.cache != nil {
		if err := s.cache.DeleteRun(ctx, id); err != nil {
			s.logger.Warn("run cache invalidation failed", "run_id", id, "error", err)
		}
	}
	s.logger.Info("run regraded", "run_id", id, "grade", grade)
	return run, nil
}

func (s *Service) cacheSummary(ctx context.Context, summary *models.TestSummary) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetSummary(ctx, summary, summaryCacheTTL); err != nil {
		s.logger.Warn("summary cache write failed", "test_id", summary.ID, "error", err)
	}
}
