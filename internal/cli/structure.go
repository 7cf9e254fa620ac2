package cli

import (
	"github.com/spf13/cobra"
)

// NewStructureCommand creates the structure command.
func NewStructureCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "structure <index>",
		Short: "Print the nested structure of a doublet",
		Long: `Print a doublet as a nested (source target) expression, expanding
references until points are reached. Same as clink --structure <index>.

Example:
  clink structure 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStructure(rootOpts, cmd, args[0])
		},
	}
}

// StructureOutput is the JSON payload of the structure command.
type StructureOutput struct {
	Index     uint32 `json:"index"`
	Structure string `json:"structure"`
}

func runStructure(opts *RootOptions, cmd *cobra.Command, arg string) error {
	index, err := parseIndex(arg)
	if err != nil {
		return err
	}

	st, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	text, err := st.FormatStructure(index)
	if err != nil {
		return err
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		return out.Success(StructureOutput{Index: index, Structure: text})
	}
	out.Line(text)
	return nil
}
