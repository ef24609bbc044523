package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/pkg/models"
	"golang.org/x/sync/semaphore"
)

// TaskRunner is satisfied by *Task.
type TaskRunner interface {
	Run(ctx context.Context, companyOverride string) (*models.SimulationRun, error)
}

// BatchResult reports what a batch produced. RunIDs includes rows from failed
// generations. Skipped counts tasks never admitted because the context ended.
type BatchResult struct {
	ID        uuid.UUID   `json:"batch_id"`
	Requested int         `json:"requested"`
	RunIDs    []uuid.UUID `json:"run_ids"`
	Failed    int         `json:"failed"`
	Skipped   int         `json:"skipped"`
}

// Scheduler runs batches of tasks behind a counting semaphore.
type Scheduler struct {
	tasks  TaskRunner
	logger *slog.Logger
}

func NewScheduler(tasks TaskRunner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{tasks: tasks, logger: logger}
}

type taskOutcome struct {
	id  uuid.UUID
	err error
}

// RunBatch runs n tasks with at most concurrency executing at once and waits
// for all of them. Individual task failures never fail the batch.
//
// When ctx ends, no further tasks are admitted. Tasks already admitted run on a
// context detached from ctx's cancellation and always finish.
func (s *Scheduler) RunBatch(ctx context.Context, n, concurrency int, companyOverride string) (*BatchResult, error) {
	if n <= 0 || concurrency <= 0 {
		return nil, fmt.Errorf("%w: num_emails=%d concurrency=%d (both must be positive)",
			ErrInvalidBatchParameters, n, concurrency)
	}

	res := &BatchResult{ID: uuid.New(), Requested: n}
	logger := s.logger.With("batch_id", res.ID)
	logger.Info("batch started", "num_emails", n, "concurrency", concurrency, "company", companyOverride)
	start := time.Now()

	gate := semaphore.NewWeighted(int64(concurrency))
	taskCtx := context.WithoutCancel(ctx)
	outcomes := make([]taskOutcome, n)

	var wg sync.WaitGroup
	admitted := 0
	for i := range n {
		if err := gate.Acquire(ctx, 1); err != nil {
			logger.Warn("batch context ended, not admitting remaining tasks", "skipped", n-i, "error", err)
			break
		}
		admitted++
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			defer gate.Release(1)
			outcomes[slot] = s.runOne(taskCtx, logger, companyOverride)
		}(i)
	}
	wg.Wait()

	res.Skipped = n - admitted
	res.RunIDs = make([]uuid.UUID, 0, admitted)
	for _, o := range outcomes[:admitted] {
		if o.err != nil {
			res.Failed++
		}
		if o.id != uuid.Nil {
			res.RunIDs = append(res.RunIDs, o.id)
		}
	}

	logger.Info("batch finished",
		"runs", len(res.RunIDs),
		"failed", res.Failed,
		"skipped", res.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (s *Scheduler) runOne(ctx context.Context, logger *slog.Logger, companyOverride string) (out taskOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("simulation task panicked", "panic", r, "stack", string(debug.Stack()))
			out = taskOutcome{err: fmt.Errorf("task panic: %v", r)}
		}
	}()

	run, err := s.tasks.Run(ctx, companyOverride)
	if run != nil {
		out.id = run.ID
	}
	if err != nil {
		out.err = err
		logger.Warn("simulation task failed", "run_id", out.id, "error", err)
	}
	return out
}
