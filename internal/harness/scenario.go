package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cadence/internal/calendar"
	"github.com/roach88/cadence/internal/store"
)

// Scenario defines one end-to-end engine scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Today is the logical day of the first run (YYYY-MM-DD).
	Today string `yaml:"today"`

	// Timezone is the reference zone. Defaults to UTC.
	Timezone string `yaml:"timezone,omitempty"`

	// Runs lists the day of each engine run, in order. Defaults to [Today].
	Runs []string `yaml:"runs,omitempty"`

	// Seed is written to the store before the first run.
	Seed store.Fixture `yaml:"seed"`

	// Assertions validate reports and final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates a report or the final store state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// ID names the item or control (item, control).
	ID string `yaml:"id,omitempty"`

	// ReferenceID selects items by metadata reference (item_count).
	ReferenceID string `yaml:"reference_id,omitempty"`

	// AlertType and ActionItemID filter alerts (alert_count).
	AlertType    string `yaml:"alert_type,omitempty"`
	ActionItemID string `yaml:"action_item_id,omitempty"`

	// Count is the expected number of matches (item_count, alert_count).
	Count int `yaml:"count,omitempty"`

	// Expect holds expected field values (item, control). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Types is the expected alert type order (alert_order).
	Types []string `yaml:"types,omitempty"`

	// Run is the 1-based run index (report).
	Run int `yaml:"run,omitempty"`

	// Contains is a line the report must contain (report).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion types.
const (
	AssertItemCount  = "item_count"
	AssertItem       = "item"
	AssertControl    = "control"
	AssertAlertCount = "alert_count"
	AssertAlertOrder = "alert_order"
	AssertReport     = "report"
)

// LoadScenario reads and validates a scenario file. Unknown keys are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// RunDays returns the run days, defaulting to Today.
func (s *Scenario) RunDays() []string {
	if len(s.Runs) == 0 {
		return []string{s.Today}
	}
	return s.Runs
}

// Validate checks required fields and assertion shapes.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Today == "" {
		return fmt.Errorf("scenario %s: today is required", s.Name)
	}
	for _, day := range append([]string{s.Today}, s.Runs...) {
		if _, err := calendar.ParseDay(day, nil); err != nil {
			return fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	for i, a := range s.Assertions {
		if err := a.validate(i, len(s.RunDays())); err != nil {
			return fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	return nil
}

func (a Assertion) validate(index, runs int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertItemCount:
		if a.ReferenceID == "" {
			return fmt.Errorf("assertions[%d]: reference_id is required for item_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for item_count", index)
		}
	case AssertItem, AssertControl:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for %s", index, a.Type)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
		}
	case AssertAlertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for alert_count", index)
		}
	case AssertAlertOrder:
		if len(a.Types) == 0 {
			return fmt.Errorf("assertions[%d]: types list is required for alert_order", index)
		}
	case AssertReport:
		if a.Run < 1 || a.Run > runs {
			return fmt.Errorf("assertions[%d]: run must be between 1 and %d", index, runs)
		}
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for report", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
