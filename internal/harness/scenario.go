package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/link-foundation/link-cli/internal/doublet"
)

// Scenario is a query test case.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// QueryIDs are handed out to setup and step queries in order.
	QueryIDs []string `yaml:"query_ids,omitempty"`

	// Setup queries run first and must succeed.
	Setup []string `yaml:"setup,omitempty"`

	// Steps are the queries under test.
	Steps []Step `yaml:"steps"`

	// Assertions check the final store.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one query with an optional expectation.
type Step struct {
	Query  string  `yaml:"query"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome of a step. When Error is set the query must
// fail with that code; otherwise its changes must equal Changes exactly.
type Expect struct {
	Changes []string `yaml:"changes,omitempty"`
	Error   string   `yaml:"error,omitempty"`
}

// Assertion checks the final store.
type Assertion struct {
	// Type is one of links_equal, link_exists, name_is, count.
	Type string `yaml:"type"`

	// Links is the complete expected store (links_equal).
	Links []string `yaml:"links,omitempty"`

	// Link must be present (link_exists).
	Link string `yaml:"link,omitempty"`

	// Name must resolve to Index (name_is).
	Name  string `yaml:"name,omitempty"`
	Index uint32 `yaml:"index,omitempty"`

	// Count is the expected number of doublets (count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertLinksEqual = "links_equal"
	AssertLinkExists = "link_exists"
	AssertNameIs     = "name_is"
	AssertCount      = "count"
)

var errorCodes = map[string]bool{
	string(doublet.CodeNotFound):      true,
	string(doublet.CodeInvalidFormat): true,
	string(doublet.CodeParseError):    true,
	string(doublet.CodeStorageError):  true,
}

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos like "assertion:" fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files under path, sorted. A
// file path is returned as is. filter is a glob matched against the file
// name without its extension.
func FindScenarios(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	sort.Strings(files)
	return files, err
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, q := range s.Setup {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("setup[%d]: query is empty", i)
		}
	}
	for i, step := range s.Steps {
		if step.Expect != nil && step.Expect.Error != "" {
			if !errorCodes[step.Expect.Error] {
				return fmt.Errorf("steps[%d].expect: unknown error code %q", i, step.Expect.Error)
			}
			if len(step.Expect.Changes) > 0 {
				return fmt.Errorf("steps[%d].expect: changes and error are mutually exclusive", i)
			}
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertLinksEqual:
		// An empty list asserts an empty store.
	case AssertLinkExists:
		if a.Link == "" {
			return fmt.Errorf("assertions[%d]: link is required for link_exists", index)
		}
	case AssertNameIs:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for name_is", index)
		}
	case AssertCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
