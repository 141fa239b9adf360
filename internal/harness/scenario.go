package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pagecloud/internal/ir"
)

// Scenario is a scripted sequence of page cloud operations with
// expectations on each outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Page is the default page for page operations. Steps may override it.
	Page string `yaml:"page,omitempty"`

	// Steps run in order against one fresh cloud.
	Steps []Step `yaml:"steps"`
}

// Step is one operation and what it should produce.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Page overrides Scenario.Page.
	Page string `yaml:"page,omitempty"`

	// Commits is the upload for add_commits, in order.
	Commits []CommitSpec `yaml:"commits,omitempty"`

	// From is the position for get_commits. Negative reads from the start.
	From int `yaml:"from,omitempty"`

	// Commit and Bases are the arguments of get_diff.
	Commit string   `yaml:"commit,omitempty"`
	Bases  []string `yaml:"bases,omitempty"`

	// Object and Data are the arguments of add_object and get_object.
	Object string `yaml:"object,omitempty"`
	Data   string `yaml:"data,omitempty"`

	// Fingerprint is the argument of set_fingerprint and
	// check_fingerprint. When empty, set_fingerprint generates one.
	Fingerprint string `yaml:"fingerprint,omitempty"`

	// ExpectError is the expected error code (NOT_FOUND, ARGUMENT_ERROR).
	// When empty the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`

	ExpectAccepted *int `yaml:"expect_accepted,omitempty"`
	ExpectToken    *int `yaml:"expect_token,omitempty"`

	// ExpectCommits lists commit ids returned by get_commits, in order.
	ExpectCommits []string `yaml:"expect_commits,omitempty"`

	// ExpectBase is the base of a get_diff result: a commit id, or
	// "<empty>" for the empty page.
	ExpectBase *string `yaml:"expect_base,omitempty"`

	// ExpectChanges is compared as a set.
	ExpectChanges []ChangeSpec `yaml:"expect_changes,omitempty"`

	// ExpectFound applies to get_object and check_fingerprint.
	ExpectFound *bool `yaml:"expect_found,omitempty"`
}

// CommitSpec is a commit in an add_commits step.
type CommitSpec struct {
	ID   string    `yaml:"id"`
	Data string    `yaml:"data,omitempty"`
	Diff *DiffSpec `yaml:"diff,omitempty"`
}

// DiffSpec is a commit's diff. An empty Base means the empty page.
type DiffSpec struct {
	Base    string       `yaml:"base,omitempty"`
	Changes []ChangeSpec `yaml:"changes"`
}

// ChangeSpec is one diff entry.
type ChangeSpec struct {
	ID   string `yaml:"id"`
	Data string `yaml:"data"`
	Op   string `yaml:"op"`
}

// Step operations.
const (
	OpAddCommits       = "add_commits"
	OpGetCommits       = "get_commits"
	OpGetDiff          = "get_diff"
	OpAddObject        = "add_object"
	OpGetObject        = "get_object"
	OpSetFingerprint   = "set_fingerprint"
	OpCheckFingerprint = "check_fingerprint"
	OpErase            = "erase"
)

func isPageOp(op string) bool {
	switch op {
	case OpAddCommits, OpGetCommits, OpGetDiff, OpAddObject, OpGetObject:
		return true
	}
	return false
}

func isDeviceOp(op string) bool {
	switch op {
	case OpSetFingerprint, OpCheckFingerprint, OpErase:
		return true
	}
	return false
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields so that a misspelled expectation is not
	// silently ignored
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

// validateScenario checks that required fields are present and valid.
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

	for i, step := range s.Steps {
		if err := validateStep(s, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}

	return nil
}

func validateStep(s *Scenario, step Step) error {
	switch {
	case step.Op == "":
		return fmt.Errorf("op is required")
	case isPageOp(step.Op):
		if step.Page == "" && s.Page == "" {
			return fmt.Errorf("page is required")
		}
	case isDeviceOp(step.Op):
		if step.Page != "" {
			return fmt.Errorf("page is not allowed on device operations")
		}
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	switch step.ExpectError {
	case "", "NOT_FOUND", "ARGUMENT_ERROR":
	default:
		return fmt.Errorf("unknown error code %q", step.ExpectError)
	}

	switch step.Op {
	case OpAddCommits:
		if len(step.Commits) == 0 {
			return fmt.Errorf("commits list is required")
		}
		for j, c := range step.Commits {
			if c.ID == "" {
				return fmt.Errorf("commits[%d]: id is required", j)
			}
			if c.Diff == nil {
				continue
			}
			for k, ch := range c.Diff.Changes {
				if err := validateChange(ch); err != nil {
					return fmt.Errorf("commits[%d].diff.changes[%d]: %w", j, k, err)
				}
			}
		}
	case OpGetDiff:
		if step.Commit == "" {
			return fmt.Errorf("commit is required")
		}
	case OpAddObject, OpGetObject:
		if step.Object == "" {
			return fmt.Errorf("object is required")
		}
	case OpCheckFingerprint:
		if step.Fingerprint == "" {
			return fmt.Errorf("fingerprint is required")
		}
	}

	for k, ch := range step.ExpectChanges {
		if err := validateChange(ch); err != nil {
			return fmt.Errorf("expect_changes[%d]: %w", k, err)
		}
	}

	return nil
}

func validateChange(ch ChangeSpec) error {
	if ch.ID == "" {
		return fmt.Errorf("id is required")
	}
	if _, ok := ir.ParseOperation(ch.Op); !ok {
		return fmt.Errorf("unknown op %q", ch.Op)
	}
	return nil
}

// pageFor returns the page a step addresses.
func (s *Scenario) pageFor(step Step) ir.PageID {
	if step.Page != "" {
		return ir.PageID(step.Page)
	}
	return ir.PageID(s.Page)
}

// upload converts the step's commits to an upload.
func (step Step) upload() []ir.CommitUpload {
	uploads := make([]ir.CommitUpload, len(step.Commits))
	for i, c := range step.Commits {
		u := ir.CommitUpload{Commit: ir.Commit{ID: ir.CommitID(c.ID), Data: []byte(c.Data)}}
		if c.Diff != nil {
			d := &ir.Diff{BaseState: ir.EmptyPage, Changes: make([]ir.DiffEntry, len(c.Diff.Changes))}
			if c.Diff.Base != "" {
				d.BaseState = ir.At(ir.CommitID(c.Diff.Base))
			}
			for j, ch := range c.Diff.Changes {
				d.Changes[j] = ch.entry()
			}
			u.Diff = d
		}
		uploads[i] = u
	}
	return uploads
}

func (ch ChangeSpec) entry() ir.DiffEntry {
	op, _ := ir.ParseOperation(ch.Op)
	return ir.DiffEntry{EntryID: []byte(ch.ID), Data: []byte(ch.Data), Operation: op}
}

// changeKey renders an entry as "insert k=v".
func changeKey(e ir.DiffEntry) string {
	return fmt.Sprintf("%s %s=%s", e.Operation, e.EntryID, e.Data)
}
