package cli

import (
	"github.com/spf13/cobra"

	"github.com/link-foundation/link-cli/internal/doublet"
	"github.com/link-foundation/link-cli/internal/store"
)

// LinkView is the JSON form of one doublet.
type LinkView struct {
	Index  uint32 `json:"index"`
	Source uint32 `json:"source"`
	Target uint32 `json:"target"`
	Name   string `json:"name,omitempty"`
	Text   string `json:"text"`
}

func linkViews(st *store.Store, ds []doublet.Doublet) []LinkView {
	out := make([]LinkView, 0, len(ds))
	for _, d := range ds {
		name, _ := st.Name(d.Index)
		out = append(out, LinkView{
			Index:  d.Index,
			Source: d.Source,
			Target: d.Target,
			Name:   name,
			Text:   st.FormatDoublet(d),
		})
	}
	return out
}

// NewLinksCommand creates the links command.
func NewLinksCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "links",
		Short:         "Print every doublet in the store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinks(rootOpts, cmd)
		},
	}
}

func runLinks(opts *RootOptions, cmd *cobra.Command) error {
	st, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	out := opts.formatter(cmd)
	if out.JSON() {
		return out.Success(linkViews(st, st.All()))
	}
	printLinks(out, st, st.All())
	return nil
}
