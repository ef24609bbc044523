package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func SummaryKey(testID int64) string {
	return fmt.Sprintf("summary:%d", testID)
}

func RunKey(runID uuid.UUID) string {
	return fmt.Sprintf("run:%s", runID)
}

// RateLimitKey is keyed by client address.
func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}
