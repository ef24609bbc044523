package simulation

import "errors"

var (
	ErrInvalidBatchParameters = errors.New("invalid batch parameters")
	ErrNoCompaniesAvailable   = errors.New("no companies available")
	ErrGenerationFailed       = errors.New("reply generation failed")
	ErrJudgingFailed          = errors.New("reply judging failed")
	ErrEmptyRunSet            = errors.New("run id set is empty")
	ErrRunsNotFound           = errors.New("no runs found for the supplied ids")
	ErrNothingToGrade         = errors.New("run has no generated body to grade")
)
