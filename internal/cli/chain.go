package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/calendar"
)

// ItemView is the CLI rendering of one action item.
type ItemView struct {
	actionitem.ActionItem
	Due string `json:"due_day"`
}

func itemView(item actionitem.ActionItem, a *app) ItemView {
	return ItemView{ActionItem: item, Due: calendar.FormatDay(item.DueDate, a.loc)}
}

func (v ItemView) String() string {
	parent := "-"
	if v.ParentActionItemID != nil && *v.ParentActionItemID != "" {
		parent = *v.ParentActionItemID
	}
	sched := string(v.RecurrentSchedule)
	if sched == "" {
		sched = "-"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\tparent=%s\t%s", v.ID, v.Due, v.Status, sched, parent, v.Name)
}

// Chain is the CLI rendering of a recurrence chain, oldest first.
type Chain []ItemView

func (c Chain) String() string {
	var b strings.Builder
	for _, v := range c {
		b.WriteString(v.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// NewChainCommand creates the chain command.
func NewChainCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chain <action-item-id>",
		Short: "List every occurrence in an action item's recurrence chain",
		Long: `List the head of the recurrence chain containing the given action item and
every occurrence generated from it, oldest first.

Example:
  cadence chain ai-42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return chain(opts, args[0], cmd)
		},
	}
}

func chain(opts *RootOptions, id string, cmd *cobra.Command) error {
	a, err := opts.openApp()
	if err != nil {
		return err
	}
	defer a.close()

	out := opts.formatter(cmd)
	items, err := a.store.ListChain(commandContext(cmd), id)
	if err != nil {
		_ = out.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "chain lookup failed", err)
	}

	views := make(Chain, 0, len(items))
	for _, item := range items {
		views = append(views, itemView(item, a))
	}
	return out.Success(views)
}
