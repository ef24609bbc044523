package llm

import (
	"context"
	"time"

	"github.com/kiranshivaraju/replysim/pkg/models"
)

const (
	replyTemperature = 0.7
	replyMaxTokens   = 600
	gradeTemperature = 0.0
	gradeMaxTokens   = 10
)

// Client turns a provider Completer into a reply generator and judge.
type Client struct {
	completer Completer
}

// NewClient wraps c. The same Client may serve as both generator and judge.
func NewClient(c Completer) *Client {
	return &Client{completer: c}
}

func (c *Client) Name() string { return c.completer.Name() }

// GenerateReply asks the model for a JSON {subject, body} reply and measures the
// call latency.
func (c *Client) GenerateReply(ctx context.Context, req models.GenerateRequest) (models.GeneratedReply, error) {
	start := time.Now()
	raw, err := c.completer.Complete(ctx, CompletionRequest{
		Prompt:      replyPrompt(req.CompanyName, req.InputEmail),
		Temperature: replyTemperature,
		MaxTokens:   replyMaxTokens,
		JSON:        true,
	})
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		return models.GeneratedReply{}, err
	}

	subject, body, err := ParseReply(raw)
	if err != nil {
		return models.GeneratedReply{}, err
	}

	return models.GeneratedReply{
		Subject:   subject,
		Body:      body,
		Model:     c.completer.Model(),
		LatencyMs: latency,
	}, nil
}

// GradeReply asks the model for a single 1–10 score. Out-of-range scores are clamped.
func (c *Client) GradeReply(ctx context.Context, req models.GradeRequest) (models.Grade, error) {
	start := time.Now()
	raw, err := c.completer.Complete(ctx, CompletionRequest{
		Prompt:      gradePrompt(req.CompanyName, req.Scenario, req.InputEmail, req.GeneratedBody),
		Temperature: gradeTemperature,
		MaxTokens:   gradeMaxTokens,
	})
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		return models.Grade{}, err
	}

	score, err := ParseScore(raw)
	if err != nil {
		return models.Grade{}, err
	}

	return models.Grade{Score: models.ClampGrade(score), LatencyMs: latency}, nil
}

// Compile-time checks that Client implements both collaborator interfaces.
var (
	_ models.ReplyGenerator = (*Client)(nil)
	_ models.ReplyJudge     = (*Client)(nil)
)
