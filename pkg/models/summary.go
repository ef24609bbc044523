package models

import (
	"time"

	"github.com/google/uuid"
)

// TestSummary aggregates one closed set of simulation runs. It is written once
// and never mutated.
type TestSummary struct {
	ID               int64       `db:"test_id"           json:"test_id"`
	Companies        []string    `db:"companies"         json:"companies"`
	NumEmails        int         `db:"num_emails"        json:"num_emails"`
	TotalRequests    int         `db:"total_requests"    json:"total_requests"`
	ConcurrencyLevel int         `db:"concurrency_level" json:"concurrency_level"`
	StartedAt        time.Time   `db:"started_at"        json:"started_at"`
	FinishedAt       time.Time   `db:"finished_at"       json:"finished_at"`
	AvgReplyGrade    *float64    `db:"avg_reply_grade"   json:"avg_reply_grade"`
	RunIDs           []uuid.UUID `db:"run_ids"           json:"run_ids"`
	CreatedAt        time.Time   `db:"created_at"        json:"created_at"`
}
