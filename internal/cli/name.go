package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/spf13/cobra"
)

// NameOptions holds flags for the name command.
type NameOptions struct {
	*RootOptions
	Set    uint32
	Remove bool
}

// NameOutput is the JSON payload of the name command.
type NameOutput struct {
	Name        string   `json:"name"`
	Index       uint32   `json:"index,omitempty"`
	Found       bool     `json:"found"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// maxSuggestions bounds the "did you mean" list.
const maxSuggestions = 3

// NewNameCommand creates the name command.
func NewNameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NameOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "name <name>",
		Short: "Look up, assign or remove a name",
		Long: `Print the index bound to a name. Unknown names list close matches.

With --set the name is bound to an existing doublet, moving it away from
its previous holder. With --remove the name is dropped.

Examples:
  clink name father
  clink name root --set 3
  clink name root --remove`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runName(opts, cmd, args[0])
		},
	}

	cmd.Flags().Uint32Var(&opts.Set, "set", 0, "bind the name to this index")
	cmd.Flags().BoolVar(&opts.Remove, "remove", false, "remove the name")
	cmd.MarkFlagsMutuallyExclusive("set", "remove")

	return cmd
}

func runName(opts *NameOptions, cmd *cobra.Command, name string) error {
	ctx := cmd.Context()
	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	out := opts.formatter(cmd)

	switch {
	case cmd.Flags().Changed("set"):
		if err := st.SetName(opts.Set, name); err != nil {
			return err
		}
		if err := st.Save(ctx); err != nil {
			return err
		}
		if out.JSON() {
			return out.Success(NameOutput{Name: name, Index: opts.Set, Found: true})
		}
		out.Line(fmt.Sprintf("%s = %d", name, opts.Set))
		return nil

	case opts.Remove:
		index, ok := st.Lookup(name)
		if !ok {
			return nameNotFound(out, name, st.Names())
		}
		st.RemoveName(index)
		if err := st.Save(ctx); err != nil {
			return err
		}
		if out.JSON() {
			return out.Success(NameOutput{Name: name, Index: index, Found: true})
		}
		out.Line(fmt.Sprintf("removed %s (was %d)", name, index))
		return nil
	}

	index, ok := st.Lookup(name)
	if !ok {
		return nameNotFound(out, name, st.Names())
	}
	if out.JSON() {
		return out.Success(NameOutput{Name: name, Index: index, Found: true})
	}
	out.Line(strconv.FormatUint(uint64(index), 10))
	return nil
}

func nameNotFound(out *OutputFormatter, name string, names []string) error {
	suggestions := suggestNames(name, names)
	msg := fmt.Sprintf("name %q not found", name)
	if len(suggestions) > 0 {
		msg += "; did you mean " + strings.Join(suggestions, ", ") + "?"
	}
	if out.JSON() {
		if err := out.Success(NameOutput{Name: name, Suggestions: suggestions}); err != nil {
			return err
		}
	}
	return NewExitError(ExitFailure, msg)
}

// suggestNames returns up to maxSuggestions names within edit distance
// max(2, len(name)/3) of name, closest first.
func suggestNames(name string, names []string) []string {
	limit := len([]rune(name)) / 3
	if limit < 2 {
		limit = 2
	}

	type candidate struct {
		name     string
		distance int
	}
	var candidates []candidate
	for _, n := range names {
		if d := levenshtein.Distance(name, n, nil); d <= limit {
			candidates = append(candidates, candidate{n, d})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].name < candidates[j].name
	})

	var out []string
	for i := 0; i < len(candidates) && i < maxSuggestions; i++ {
		out = append(out, candidates[i].name)
	}
	return out
}
