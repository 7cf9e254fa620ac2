package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/link-foundation/link-cli/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show applied queries (sqlite backend)",
		Long: `Show the queries recorded by the sqlite backend, oldest first, with
the changes each one applied.

Examples:
  clink -d links.db history
  clink -d links.db history --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent N queries (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	entries, err := st.History(ctx, opts.Limit)
	if errors.Is(err, store.ErrHistoryUnsupported) {
		return WrapExitError(ExitCommandError,
			fmt.Sprintf("%s backend has no query history", st.Backend().Kind()), err)
	}
	if err != nil {
		return err
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		if entries == nil {
			entries = []store.HistoryEntry{}
		}
		return out.Success(entries)
	}

	if len(entries) == 0 {
		out.Line("No queries recorded.")
		return nil
	}
	for _, e := range entries {
		out.Line(fmt.Sprintf("#%d %s %s", e.Seq, e.QueryID, e.Query))
		for _, t := range e.Transitions {
			out.Change(t.Kind(), "  "+st.FormatChange(t))
		}
	}
	return nil
}
