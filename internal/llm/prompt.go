package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var reScore = regexp.MustCompile(`\d+(\.\d+)?`)

func replyPrompt(companyName, inputEmail string) string {
	return fmt.Sprintf(`You are a representative of the company %q.

You received the following email from a customer:

%s

1) First, infer an appropriate email subject line.
2) Then, write a professional, friendly email reply.

Return your result in JSON with the fields:
- subject
- body
`, companyName, inputEmail)
}

func gradePrompt(companyName, scenario, inputEmail, generatedBody string) string {
	return fmt.Sprintf(`You are a strict reviewer grading an automatic customer support email reply.

COMPANY:
%s

SCENARIO:
%s

CUSTOMER EMAIL:
%s

MODEL-GENERATED REPLY:
%s

Give a single numeric score from 1 to 10 indicating how good this reply is in terms of
correctness, helpfulness, tone, and whether it fully answers the customer's request.

Respond ONLY with the number, for example: 7.5
`, companyName, scenario, inputEmail, generatedBody)
}

// ParseReply extracts subject and body from a JSON reply. Models sometimes wrap
// the object in a markdown fence, which is stripped first.
func ParseReply(raw string) (subject, body string, err error) {
	raw = stripFence(raw)

	var parsed struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", "", fmt.Errorf("%w: decoding reply json: %v", ErrInvalidResponse, err)
	}

	body = strings.TrimSpace(parsed.Body)
	if body == "" {
		return "", "", ErrEmptyReply
	}
	return strings.TrimSpace(parsed.Subject), body, nil
}

// ParseScore returns the first number found in a judge response. The value is
// not clamped.
func ParseScore(raw string) (float64, error) {
	m := reScore.FindString(raw)
	if m == "" {
		return 0, fmt.Errorf("%w: %q", ErrNoScore, truncate(raw, 80))
	}
	score, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoScore, m)
	}
	return score, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
