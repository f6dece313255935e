package harness

import (
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: nothing to do
today: "2023-06-15"
`

func TestParseScenarioMinimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, []string{"2023-06-15"}, s.RunDays())
	assert.Empty(t, s.Seed.ActionItems)
}

func TestParseScenarioRuns(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario + `runs: ["2023-06-15", "2023-06-22"]` + "\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-06-15", "2023-06-22"}, s.RunDays())
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", `today: "2023-06-15"`, "name is required"},
		{"missing today", `name: x`, "today is required"},
		{"bad today", "name: x\ntoday: June", "parse day"},
		{"bad run day", "name: x\ntoday: \"2023-06-15\"\nruns: [\"15/06/2023\"]", "parse day"},
		{"unknown key", minimalScenario + "flow: []\n", "failed to parse scenario YAML"},
		{"unknown seed key", minimalScenario + "seed:\n  tags: []\n", "failed to parse scenario YAML"},
		{"unknown assertion", minimalScenario + "assertions:\n  - type: trace_contains\n", "unknown assertion type"},
		{"missing type", minimalScenario + "assertions:\n  - id: x\n", "type is required"},
		{"item_count without reference", minimalScenario + "assertions:\n  - type: item_count\n    count: 1\n", "reference_id is required"},
		{"item without expect", minimalScenario + "assertions:\n  - type: item\n    id: ai-1\n", "expect is required"},
		{"control without id", minimalScenario + "assertions:\n  - type: control\n    expect: {has_new_action_items: true}\n", "id is required"},
		{"alert_order without types", minimalScenario + "assertions:\n  - type: alert_order\n", "types list is required"},
		{"report run out of range", minimalScenario + "assertions:\n  - type: report\n    run: 2\n    contains: x\n", "run must be between 1 and 1"},
		{"report without contains", minimalScenario + "assertions:\n  - type: report\n    run: 1\n", "contains is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarioFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o600))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
}

func TestRunRejectsBadTimezone(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario + "timezone: Mars/Olympus\n"))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario timezone")
}

func TestRunEmptyScenario(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	r, err := Run(s)
	require.NoError(t, err)
	assert.True(t, r.Pass)
	require.Len(t, r.Runs, 1)
	assert.Equal(t, "2023-06-15", r.Runs[0].Report.Today)
	assert.Empty(t, r.Runs[0].Err)
	assert.Empty(t, r.State.Items)
}

func TestRunInReferenceZone(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: tz
today: "2023-06-15"
timezone: America/New_York
seed:
  users: [{id: u-1, organization_id: org-1}]
  action_items:
    - id: ai-1
      schedule: weekly
      due_date: "2023-06-10"
      reference_id: ref-1
      organization_id: org-1
      assignees: [u-1]
assertions:
  - type: item
    id: gen-1
    expect: {due_date: "2023-06-17", parent: ai-1}
`))
	require.NoError(t, err)

	r, err := Run(s)
	require.NoError(t, err)
	assert.True(t, r.Pass, "errors: %v", r.Errors)
}
