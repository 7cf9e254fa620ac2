package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/link-foundation/link-cli/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	ToBackend string
}

// ExportOutput is the JSON payload of the export command.
type ExportOutput struct {
	Path     string `json:"path"`
	Backend  string `json:"backend"`
	Doublets int    `json:"doublets"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Copy the store into another backend",
		Long: `Write every doublet and name into a new store at path. The target
backend is inferred from the path unless --to-backend is given.

Examples:
  clink export links.db
  clink -d links.db export backup.links
  clink export snapshot --to-backend badger`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.ToBackend, "to-backend", "", "target backend (lino|sqlite|leveldb|badger)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command, path string) error {
	kind, err := store.ParseKind(opts.ToBackend)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid target backend", err)
	}
	if kind == "" {
		kind = store.KindFromPath(path)
	}
	if filepath.Clean(path) == filepath.Clean(opts.Database) {
		return NewExitError(ExitCommandError, "export target is the source database")
	}

	ctx := cmd.Context()
	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	dst, err := store.OpenBackend(kind, path, opts.Logger())
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("open %s", path), err)
	}
	if err := st.Export(ctx, dst); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("close %s", path), err)
	}

	result := ExportOutput{Path: path, Backend: string(kind), Doublets: st.Count()}
	out := opts.formatter(cmd)
	if out.JSON() {
		return out.Success(result)
	}
	out.Line(fmt.Sprintf("exported %d doublets to %s (%s)", result.Doublets, result.Path, result.Backend))
	return nil
}
