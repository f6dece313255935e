package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/calendar"
	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/store"
	"github.com/roach88/cadence/internal/testutil"
)

// IDPrefix prefixes every id the engine generates inside a scenario.
const IDPrefix = "gen"

// RunReport is the report of one engine run.
type RunReport struct {
	Day    string        `json:"day"`
	Report engine.Report `json:"report"`
	Err    string        `json:"error,omitempty"`
}

// State is the store content after the last run.
type State struct {
	Items    []actionitem.ActionItem `json:"items"`
	Alerts   []actionitem.Alert      `json:"alerts"`
	Controls []actionitem.Control    `json:"controls"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion and invariant held.
	Pass bool `json:"pass"`

	// Runs holds one report per engine run, in order.
	Runs []RunReport `json:"runs"`

	// State is the final store content.
	State State `json:"state"`

	// Errors contains assertion and invariant failures.
	Errors []string `json:"errors,omitempty"`

	loc *time.Location
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario in a fresh in-memory store.
//
// Execution flow:
//  1. Open an in-memory store in the scenario's reference zone
//  2. Seed users, controls and action items
//  3. Run the engine once per run day with the clock set to that day
//  4. Read the final state, check invariants and evaluate assertions
func Run(s *Scenario) (*Result, error) {
	loc := time.UTC
	if s.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(s.Timezone); err != nil {
			return nil, fmt.Errorf("scenario timezone: %w", err)
		}
	}

	st, err := store.Open(":memory:", store.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Seed(ctx, s.Seed); err != nil {
		return nil, fmt.Errorf("failed to seed: %w", err)
	}
	before, err := readState(ctx, st)
	if err != nil {
		return nil, err
	}

	clock := testutil.NewFixedClock(time.Time{})
	eng := engine.New(st, st, st,
		engine.WithClock(clock),
		engine.WithIDGenerator(testutil.NewSequentialIDs(IDPrefix)),
		engine.WithLocation(loc),
		engine.WithLogger(zerolog.Nop()),
	)

	result := &Result{Pass: true, loc: loc}
	for _, raw := range s.RunDays() {
		day, err := calendar.ParseDay(raw, loc)
		if err != nil {
			return nil, err
		}
		clock.Set(day)
		rep, err := eng.Run(ctx, day)
		run := RunReport{Day: raw, Report: rep}
		if err != nil {
			run.Err = err.Error()
		}
		result.Runs = append(result.Runs, run)
	}

	if result.State, err = readState(ctx, st); err != nil {
		return nil, err
	}

	for _, msg := range CheckInvariants(before, result.State) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func readState(ctx context.Context, st *store.Store) (State, error) {
	var (
		state State
		err   error
	)
	if state.Items, err = st.ListActionItems(ctx); err != nil {
		return State{}, err
	}
	if state.Alerts, err = st.ListAlerts(ctx, ""); err != nil {
		return State{}, err
	}
	if state.Controls, err = st.ListControls(ctx); err != nil {
		return State{}, err
	}
	return state, nil
}
