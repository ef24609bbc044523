package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinGrade = 1.0
	MaxGrade = 10.0
)

// SimulationRun is one generate+grade attempt for one simulated customer email.
// Generated fields are nil when generation failed; Grade is nil when judging
// failed or was skipped. A run without a body never carries a grade.
type SimulationRun struct {
	ID               uuid.UUID `db:"id"                json:"id"`
	CompanyName      string    `db:"company_name"      json:"company_name"`
	Scenario         string    `db:"scenario"          json:"scenario"`
	InputEmail       string    `db:"input_email"       json:"input_email"`
	GeneratedSubject *string   `db:"generated_subject" json:"generated_subject,omitempty"`
	GeneratedBody    *string   `db:"generated_body"    json:"generated_body,omitempty"`
	ModelName        *string   `db:"model_name"        json:"model_name,omitempty"`
	LatencyMs        *int      `db:"latency_ms"        json:"latency_ms,omitempty"`
	SentOK           bool      `db:"sent_ok"           json:"sent_ok"`
	Grade            *float64  `db:"reply_grade"       json:"reply_grade,omitempty"`
	ErrorMessage     *string   `db:"error_message"     json:"error_message,omitempty"`
	CreatedAt        time.Time `db:"created_at"        json:"created_at"`
}

// HasBody reports whether the run carries a non-empty generated body.
func (r *SimulationRun) HasBody() bool {
	return r.GeneratedBody != nil && *r.GeneratedBody != ""
}

// ClampGrade bounds a judge score to [MinGrade, MaxGrade].
func ClampGrade(g float64) float64 {
	if g < MinGrade {
		return MinGrade
	}
	if g > MaxGrade {
		return MaxGrade
	}
	return g
}
