package llm

import "errors"

var (
	ErrProviderUnavailable = errors.New("llm provider unavailable")
	ErrInferenceTimeout    = errors.New("llm inference timeout")
	ErrInvalidResponse     = errors.New("llm provider returned invalid response")
	ErrEmptyReply          = errors.New("llm returned an empty reply body")
	ErrNoScore             = errors.New("llm judge returned no numeric score")
)
