package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/store"
)

// SeedSummary is the output of the seed command.
type SeedSummary struct {
	Users       int `json:"users"`
	Controls    int `json:"controls"`
	ActionItems int `json:"action_items"`
}

func (s SeedSummary) String() string {
	return fmt.Sprintf("Seeded %d users, %d controls, %d action items", s.Users, s.Controls, s.ActionItems)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load users, controls and action items from a YAML file",
		Long: `Load a YAML fixture of users, controls and action items in one transaction.
Users and controls are upserted; action items must not exist yet.

Example:
  cadence seed --db ./cadence.db ./testdata/demo.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return seed(opts, args[0], cmd)
		},
	}
}

func seed(opts *RootOptions, path string, cmd *cobra.Command) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read seed file", err)
	}
	defer f.Close()

	fixture, err := store.LoadFixture(f)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid seed file", err)
	}

	a, err := opts.openApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Seed(commandContext(cmd), fixture); err != nil {
		return WrapExitError(ExitFailure, "seed failed", err)
	}

	return opts.formatter(cmd).Success(SeedSummary{
		Users:       len(fixture.Users),
		Controls:    len(fixture.Controls),
		ActionItems: len(fixture.ActionItems),
	})
}
