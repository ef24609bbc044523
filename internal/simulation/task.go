package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/kiranshivaraju/replysim/internal/llm"
	"github.com/kiranshivaraju/replysim/pkg/models"
)

// RunWriter persists a new run and assigns its ID.
type RunWriter interface {
	CreateRun(ctx context.Context, run *models.SimulationRun) error
}

// TaskDeps are the collaborators a Task is built from. They are constructed
// once at startup and shared by every task.
type TaskDeps struct {
	Companies CompanyFinder
	Scenarios *ScenarioSource
	Generator models.ReplyGenerator
	Judge     models.ReplyJudge
	Runs      RunWriter
	// CallTimeout bounds each generator and judge call. Zero means no bound.
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// Task runs one select -> generate -> grade -> persist pipeline.
type Task struct {
	selector    *CompanySelector
	scenarios   *ScenarioSource
	generator   models.ReplyGenerator
	judge       models.ReplyJudge
	runs        RunWriter
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewTask(deps TaskDeps) *Task {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Task{
		selector:    NewCompanySelector(deps.Companies),
		scenarios:   deps.Scenarios,
		generator:   deps.Generator,
		judge:       deps.Judge,
		runs:        deps.Runs,
		callTimeout: deps.CallTimeout,
		logger:      logger,
	}
}

// Run executes the pipeline once.
//
// Company selection failure returns no run and writes nothing. A generation
// failure still persists an audit row and returns it alongside an error
// wrapping ErrGenerationFailed. A judge failure is logged and leaves the grade
// unset. Persistence errors are returned with a nil run.
func (t *Task) Run(ctx context.Context, companyOverride string) (*models.SimulationRun, error) {
	company, err := t.selector.Select(ctx, companyOverride)
	if err != nil {
		return nil, err
	}

	sc := t.scenarios.Next()
	run := &models.SimulationRun{
		CompanyName: company,
		Scenario:    sc.Label,
		InputEmail:  sc.Email,
		SentOK:      false,
	}

	reply, latency, err := t.generate(ctx, company, sc.Email)
	if err != nil {
		msg := err.Error()
		run.ErrorMessage = &msg
		if perr := t.runs.CreateRun(ctx, run); perr != nil {
			return nil, fmt.Errorf("%w: %v; persist run: %w", ErrGenerationFailed, err, perr)
		}
		return run, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	run.GeneratedSubject = &reply.Subject
	run.GeneratedBody = &reply.Body
	if reply.Model != "" {
		run.ModelName = &reply.Model
	}
	run.LatencyMs = &latency

	if grade, err := t.grade(ctx, run); err != nil {
		t.logger.Warn("reply judging failed, leaving run ungraded",
			"company", company,
			"scenario", sc.Label,
			"error", fmt.Errorf("%w: %w", ErrJudgingFailed, err),
		)
	} else {
		run.Grade = &grade
	}

	if err := t.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}

	t.logger.Debug("simulation run recorded", "run_id", run.ID, "company", company, "latency_ms", latency)
	return run, nil
}

func (t *Task) generate(ctx context.Context, company, email string) (models.GeneratedReply, int, error) {
	callCtx, cancel := withCallTimeout(ctx, t.callTimeout)
	defer cancel()

	start := time.Now()
	reply, err := t.generator.GenerateReply(callCtx, models.GenerateRequest{
		CompanyName: company,
		InputEmail:  email,
	})
	elapsed := int(time.Since(start).Milliseconds())
	if err != nil {
		return models.GeneratedReply{}, 0, err
	}
	if strings.TrimSpace(reply.Body) == "" {
		return models.GeneratedReply{}, 0, llm.ErrEmptyReply
	}

	latency := reply.LatencyMs
	if latency <= 0 {
		latency = elapsed
	}
	return reply, latency, nil
}

func (t *Task) grade(ctx context.Context, run *models.SimulationRun) (float64, error) {
	return judgeRun(ctx, t.judge, t.callTimeout, run)
}

// judgeRun grades run's body and clamps the score. Shared with Regrade.
func judgeRun(ctx context.Context, judge models.ReplyJudge, timeout time.Duration, run *models.SimulationRun) (float64, error) {
	if !run.HasBody() {
		return 0, ErrNothingToGrade
	}

	callCtx, cancel := withCallTimeout(ctx, timeout)
	defer cancel()

	g, err := judge.GradeReply(callCtx, models.GradeRequest{
		CompanyName:   run.CompanyName,
		Scenario:      run.Scenario,
		InputEmail:    run.InputEmail,
		GeneratedBody: *run.GeneratedBody,
	})
	if err != nil {
		return 0, err
	}
	if math.IsNaN(g.Score) || math.IsInf(g.Score, 0) {
		return 0, fmt.Errorf("%w: non-finite score %v", llm.ErrNoScore, g.Score)
	}
	return models.ClampGrade(g.Score), nil
}

func withCallTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
