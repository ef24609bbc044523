package simulation

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed scenarios.yaml
var defaultScenarios []byte

// Scenario is one simulated inbound customer email.
type Scenario struct {
	Label string
	Email string
}

type scenarioFile struct {
	Scenarios []string `yaml:"scenarios"`
}

// ScenarioLabel derives a label from the first non-blank line of email.
func ScenarioLabel(email string) string {
	for _, line := range strings.Split(email, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			return l
		}
	}
	return ""
}

// ParseScenarios decodes a YAML corpus of the form {scenarios: [email, ...]}.
// Blank entries are dropped.
func ParseScenarios(data []byte) ([]Scenario, error) {
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}

	out := make([]Scenario, 0, len(f.Scenarios))
	for _, email := range f.Scenarios {
		if strings.TrimSpace(email) == "" {
			continue
		}
		out = append(out, Scenario{Label: ScenarioLabel(email), Email: email})
	}
	return out, nil
}

// LoadScenarios reads the corpus at path, or the built-in corpus when path is empty.
func LoadScenarios(path string) ([]Scenario, error) {
	if path == "" {
		return ParseScenarios(defaultScenarios)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios file: %w", err)
	}
	return ParseScenarios(data)
}

// ScenarioSource draws scenarios uniformly at random. It holds no mutable
// state and is safe for concurrent use.
type ScenarioSource struct {
	corpus []Scenario
}

func NewScenarioSource(corpus []Scenario) (*ScenarioSource, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("scenario corpus is empty")
	}
	return &ScenarioSource{corpus: corpus}, nil
}

func (s *ScenarioSource) Next() Scenario {
	return s.corpus[rand.IntN(len(s.corpus))]
}

func (s *ScenarioSource) Len() int { return len(s.corpus) }
