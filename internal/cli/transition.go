package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/actionitem"
)

// NewTransitionCommand creates the transition command.
func NewTransitionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transition <action-item-id> <status>",
		Short: "Move an action item to a new status",
		Long: `Move an action item through its lifecycle. Allowed moves are
NEW -> PENDING | COMPLETED | NOT_APPLICABLE and PENDING -> COMPLETED | NOT_APPLICABLE.
Completing an item stamps its completion date.

Example:
  cadence transition ai-42 COMPLETED`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transition(opts, args[0], actionitem.Status(args[1]), cmd)
		},
	}
}

func transition(opts *RootOptions, id string, to actionitem.Status, cmd *cobra.Command) error {
	a, err := opts.openApp()
	if err != nil {
		return err
	}
	defer a.close()

	out := opts.formatter(cmd)
	item, err := a.store.TransitionStatus(commandContext(cmd), id, to, a.clock.Now())
	if err != nil {
		_ = out.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "transition failed", err)
	}
	return out.Success(itemView(item, a))
}
