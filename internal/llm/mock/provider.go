package mock

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/replysim/internal/llm"
	"github.com/kiranshivaraju/replysim/pkg/models"
)

// Generator satisfies models.ReplyGenerator for tests and offline runs.
type Generator struct {
	GenerateFunc func(ctx context.Context, req models.GenerateRequest) (models.GeneratedReply, error)
}

func (g *Generator) Name() string { return "mock" }

func (g *Generator) GenerateReply(ctx context.Context, req models.GenerateRequest) (models.GeneratedReply, error) {
	if g.GenerateFunc != nil {
		return g.GenerateFunc(ctx, req)
	}
	return models.GeneratedReply{}, nil
}

// Judge satisfies models.ReplyJudge for tests and offline runs.
type Judge struct {
	GradeFunc func(ctx context.Context, req models.GradeRequest) (models.Grade, error)
}

func (j *Judge) Name() string { return "mock" }

func (j *Judge) GradeReply(ctx context.Context, req models.GradeRequest) (models.Grade, error) {
	if j.GradeFunc != nil {
		return j.GradeFunc(ctx, req)
	}
	return models.Grade{}, nil
}

// NewGenerator returns a Generator that answers every email with a fixed
// polite reply addressed from the company.
func NewGenerator() *Generator {
	return &Generator{
		GenerateFunc: func(_ context.Context, req models.GenerateRequest) (models.GeneratedReply, error) {
			return models.GeneratedReply{
				Subject: "Re: your message",
				Body:    fmt.Sprintf("Hello,\n\nThank you for contacting %s. We are looking into your request and will follow up shortly.\n\nBest regards,\n%s Support", req.CompanyName, req.CompanyName),
				Model:   "mock-v1",
			}, nil
		},
	}
}

// NewJudge returns a Judge that always awards score.
func NewJudge(score float64) *Judge {
	return &Judge{
		GradeFunc: func(_ context.Context, _ models.GradeRequest) (models.Grade, error) {
			return models.Grade{Score: models.ClampGrade(score)}, nil
		},
	}
}

// NewFailingGenerator returns a Generator that always returns err.
func NewFailingGenerator(err error) *Generator {
	return &Generator{
		GenerateFunc: func(_ context.Context, _ models.GenerateRequest) (models.GeneratedReply, error) {
			return models.GeneratedReply{}, err
		},
	}
}

// NewFailingJudge returns a Judge that always returns err.
func NewFailingJudge(err error) *Judge {
	return &Judge{
		GradeFunc: func(_ context.Context, _ models.GradeRequest) (models.Grade, error) {
			return models.Grade{}, err
		},
	}
}

// NewTimeoutGenerator returns a Generator that blocks until ctx is done.
func NewTimeoutGenerator() *Generator {
	return &Generator{
		GenerateFunc: func(ctx context.Context, _ models.GenerateRequest) (models.GeneratedReply, error) {
			<-ctx.Done()
			return models.GeneratedReply{}, llm.ErrInferenceTimeout
		},
	}
}

var (
	_ models.ReplyGenerator = (*Generator)(nil)
	_ models.ReplyJudge     = (*Judge)(nil)
)
