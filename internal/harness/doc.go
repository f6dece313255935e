// Package harness runs end-to-end engine scenarios.
//
// A scenario seeds a fresh in-memory store, runs the engine on one or more
// logical days and checks the resulting reports and store state.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: weekly_first_generation
//	description: "What this scenario validates"
//	today: "2023-06-15"
//	timezone: UTC            # optional reference zone
//	runs: ["2023-06-15"]     # optional; defaults to [today]
//	seed:
//	  users:    [{id: u-1, organization_id: org-1}]
//	  controls: [{id: c-1, organization_id: org-1}]
//	  action_items:
//	    - id: ai-1
//	      schedule: weekly
//	      due_date: "2023-06-10"
//	      reference_id: ref-1
//	      organization_id: org-1
//	      assignees: [u-1]
//	      controls: [c-1]
//	assertions:
//	  - type: item_count
//	    reference_id: ref-1
//	    count: 2
//	  - type: item
//	    id: gen-1
//	    expect: {due_date: "2023-06-17", status: NEW, parent: ai-1}
//
// # Assertion Types
//
//   - item_count: number of items sharing reference_id
//   - item: field values of one item (subset match)
//   - control: field values of one control (subset match)
//   - alert_count: number of alerts, optionally filtered by alert_type and action_item_id
//   - alert_order: alert types in emission order
//   - report: a line the text report of run N (1-based) must contain
//
// # Determinism
//
// Runs use testutil.FixedClock set to each run day and testutil.SequentialIDs
// with the "gen" prefix, so successor and alert ids are gen-1, gen-2, ... in
// creation order. Snapshots are therefore stable for golden comparison.
package harness
