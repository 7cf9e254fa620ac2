package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/link-foundation/link-cli/internal/doublet"
	"github.com/link-foundation/link-cli/internal/store"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Index string
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <source> <target>",
		Short: "Find doublets by source and target",
		Long: `Find doublets matching a (source, target) pattern.

References are indices, names, or * for any value.

Examples:
  clink search 1 2
  clink search father '*'
  clink search '*' '*' --index 3`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Index, "index", "*", "index to match (number, name or *)")

	return cmd
}

func runSearch(opts *SearchOptions, cmd *cobra.Command, source, target string) error {
	st, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	var pattern doublet.Doublet
	for _, ref := range []struct {
		text string
		dst  *uint32
	}{
		{opts.Index, &pattern.Index},
		{source, &pattern.Source},
		{target, &pattern.Target},
	} {
		v, err := resolveReference(st, ref.text)
		if err != nil {
			return err
		}
		*ref.dst = v
	}

	matches := st.Query(pattern)
	out := opts.formatter(cmd)
	if out.JSON() {
		return out.Success(linkViews(st, matches))
	}
	printLinks(out, st, matches)
	return nil
}

// resolveReference reads "*", a number, or an existing name.
func resolveReference(st *store.Store, s string) (uint32, error) {
	if s == "*" {
		return doublet.Any, nil
	}
	if v, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(v), nil
	}
	if index, ok := st.Lookup(s); ok {
		return index, nil
	}
	return 0, NewExitError(ExitFailure, fmt.Sprintf("unknown name %q", s))
}
