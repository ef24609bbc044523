// Package models contains shared data models used across the ReplySim codebase.
package models

import "context"

// ReplyGenerator produces a customer-support reply for an inbound email.
// Never call specific LLM providers directly; inject this interface.
type ReplyGenerator interface {
	// GenerateReply drafts a subject and body on behalf of req.CompanyName.
	// Implementations must fail when the model returns an empty or malformed body.
	GenerateReply(ctx context.Context, req GenerateRequest) (GeneratedReply, error)
}

// ReplyJudge scores a generated reply on a 1–10 scale.
type ReplyJudge interface {
	// GradeReply must fail when no numeric score can be parsed from the model output.
	GradeReply(ctx context.Context, req GradeRequest) (Grade, error)
}

// GenerateRequest is the input to a reply generation call.
type GenerateRequest struct {
	CompanyName string
	InputEmail  string
}

// GeneratedReply is the output of a reply generation call.
type GeneratedReply struct {
	Subject   string
	Body      string
	Model     string
	LatencyMs int
}

// GradeRequest is the input to a judging call.
type GradeRequest struct {
	CompanyName   string
	Scenario      string
	InputEmail    string
	GeneratedBody string
}

// Grade is the output of a judging call.
type Grade struct {
	Score     float64
	LatencyMs int
}
