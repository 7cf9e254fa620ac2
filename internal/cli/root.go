package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/link-foundation/link-cli/internal/config"
	"github.com/link-foundation/link-cli/internal/doublet"
	"github.com/link-foundation/link-cli/internal/engine"
	"github.com/link-foundation/link-cli/internal/metrics"
	"github.com/link-foundation/link-cli/internal/store"
)

// RootOptions holds global settings for all commands. After
// PersistentPreRunE the fields hold the resolved configuration: defaults,
// then the config file, then the environment, then explicit flags.
type RootOptions struct {
	ConfigPath  string
	Database    string
	Backend     string
	Trace       bool
	Format      string // "json" | "text"
	Color       string // "auto" | "always" | "never"
	CacheSize   int
	MetricsFile string

	// IDs overrides the query id generator. See WithIDGenerator.
	IDs engine.IDGenerator

	logger  *slog.Logger
	metrics *metrics.Recorder
}

// QueryOptions holds the flags of the root query command.
type QueryOptions struct {
	*RootOptions
	Query     string
	Structure uint32
	Before    bool
	Changes   bool
	After     bool
}

// QueryOutput is the JSON payload of the root command.
type QueryOutput struct {
	Structure string               `json:"structure,omitempty"`
	Before    []doublet.Doublet    `json:"before,omitempty"`
	Changes   []doublet.Transition `json:"changes,omitempty"`
	After     []doublet.Doublet    `json:"after,omitempty"`
}

// CommandOption customizes the RootOptions shared by every command.
type CommandOption func(*RootOptions)

// WithIDGenerator makes queries run by the command tree take their ids from
// ids instead of fresh UUIDv7 values.
func WithIDGenerator(ids engine.IDGenerator) CommandOption {
	return func(o *RootOptions) {
		o.IDs = ids
	}
}

// NewRootCommand creates the clink command.
func NewRootCommand(options ...CommandOption) *cobra.Command {
	defaults := config.Default()
	rootOpts := &RootOptions{}
	for _, opt := range options {
		opt(rootOpts)
	}
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clink [query]",
		Short: "LiNo CLI tool for managing a links data store",
		Long: `clink applies LiNo substitution queries to a doublet store.

A query is a pair (restriction substitution):
  (() ((1 2)))                 create a doublet from 1 to 2
  (((1: 1 2)) ((1: 2 1)))      rewire doublet 1
  (((1: 1 2)) ())              delete doublet 1
  (((1: $s $t)) ((1: $t $s)))  swap through variables

Names such as (child: father mother) become named points on first use.

Exit codes:
  0 - Success
  1 - Query failed (parse error, invalid format)
  2 - Command error (bad config, storage failure)

Examples:
  clink '(() ((1 2)))' --changes --after
  clink -q '(((1: 1 2)) ())' -d links.db -c
  clink --structure 3
  clink --format json -a`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.resolve(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&rootOpts.ConfigPath, "config", "", "config file (default $CLINK_CONFIG or ./clink.yaml)")
	pf.StringVarP(&rootOpts.Database, "db", "d", defaults.Database, "path to the links database")
	pf.StringVar(&rootOpts.Database, "data-source", defaults.Database, "alias for --db")
	pf.StringVar(&rootOpts.Database, "data", defaults.Database, "alias for --db")
	pf.StringVar(&rootOpts.Backend, "backend", "", "storage backend (lino|sqlite|leveldb|badger), inferred from the path when empty")
	pf.BoolVarP(&rootOpts.Trace, "trace", "t", false, "enable trace (debug logging to stderr)")
	pf.StringVar(&rootOpts.Format, "format", defaults.Format, "output format (json|text)")
	pf.StringVar(&rootOpts.Color, "color", defaults.Color, "color output (auto|always|never)")
	pf.StringVar(&rootOpts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the command")
	_ = pf.MarkHidden("data-source")
	_ = pf.MarkHidden("data")

	f := cmd.Flags()
	f.StringVarP(&opts.Query, "query", "q", "", "LiNo query for a CRUD operation")
	f.StringVar(&opts.Query, "apply", "", "alias for --query")
	f.StringVar(&opts.Query, "do", "", "alias for --query")
	f.Uint32VarP(&opts.Structure, "structure", "s", 0, "print the nested structure of the doublet with this index")
	f.BoolVarP(&opts.Before, "before", "b", false, "print the database before applying the query")
	f.BoolVarP(&opts.Changes, "changes", "c", false, "print the changes applied by the query")
	f.BoolVarP(&opts.After, "after", "a", false, "print the database after applying the query")
	f.BoolVar(&opts.After, "links", false, "alias for --after")
	_ = f.MarkHidden("apply")
	_ = f.MarkHidden("do")
	_ = f.MarkHidden("links")

	cmd.AddCommand(NewStructureCommand(rootOpts))
	cmd.AddCommand(NewLinksCommand(rootOpts))
	cmd.AddCommand(NewSearchCommand(rootOpts))
	cmd.AddCommand(NewNameCommand(rootOpts))
	cmd.AddCommand(NewStatsCommand(rootOpts))
	cmd.AddCommand(NewExportCommand(rootOpts))
	cmd.AddCommand(NewHistoryCommand(rootOpts))
	cmd.AddCommand(NewTestCommand(rootOpts))

	return cmd
}

// resolve merges config sources into o. Flags win only when set
// explicitly, so their defaults never mask the file or the environment.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := (&config.Loader{Path: o.ConfigPath}).Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if changed(flags, "db", "data-source", "data") {
		cfg.Database = o.Database
	}
	if changed(flags, "backend") {
		cfg.Backend = o.Backend
	}
	if changed(flags, "trace") {
		cfg.Trace = o.Trace
	}
	if changed(flags, "format") {
		cfg.Format = o.Format
	}
	if changed(flags, "color") {
		cfg.Color = o.Color
	}
	if changed(flags, "metrics-file") {
		cfg.MetricsFile = o.MetricsFile
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	o.Database = cfg.Database
	o.Backend = cfg.Backend
	o.Trace = cfg.Trace
	o.Format = cfg.Format
	o.Color = cfg.Color
	o.CacheSize = cfg.CacheSize
	o.MetricsFile = cfg.MetricsFile

	o.logger = newLogger(cmd.ErrOrStderr(), o.Trace)
	if o.MetricsFile != "" {
		o.metrics = metrics.NewRecorder()
	}
	return nil
}

func changed(flags *pflag.FlagSet, names ...string) bool {
	for _, name := range names {
		if f := flags.Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	return false
}

func newLogger(w io.Writer, trace bool) *slog.Logger {
	level := slog.LevelWarn
	if trace {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Logger returns the configured logger. Commands built without the root
// command log warnings to stderr.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		o.logger = newLogger(os.Stderr, o.Trace)
	}
	return o.logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return NewOutputFormatter(o.Format, o.Color, cmd.OutOrStdout())
}

// openStore opens the configured database.
func (o *RootOptions) openStore(ctx context.Context) (*store.Store, error) {
	kind, err := store.ParseKind(o.Backend)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid backend", err)
	}
	opts := []store.Option{store.WithLogger(o.Logger())}
	if kind != "" {
		opts = append(opts, store.WithBackend(kind))
	}
	return store.Open(ctx, o.Database, opts...)
}

func (o *RootOptions) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		o.Logger().Error("error closing database", "path", o.Database, "error", err)
	}
}

func (o *RootOptions) newEngine() *engine.Engine {
	opts := []engine.Option{
		engine.WithLogger(o.Logger()),
		engine.WithCacheSize(o.CacheSize),
	}
	if o.IDs != nil {
		opts = append(opts, engine.WithIDGenerator(o.IDs))
	}
	if o.metrics != nil {
		opts = append(opts, engine.WithObserver(o.metrics))
	}
	return engine.New(opts...)
}

// flushMetrics writes the metrics textfile when --metrics-file is set.
// Failures are logged; they never fail the command.
func (o *RootOptions) flushMetrics(st *store.Store) {
	if o.metrics == nil || o.MetricsFile == "" {
		return
	}
	o.metrics.SetDoublets(st.Count())
	if err := o.metrics.WriteTextfile(o.MetricsFile); err != nil {
		o.Logger().Warn("failed to write metrics", "error", err)
	}
}

func runQuery(opts *QueryOptions, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	out := opts.formatter(cmd)
	var result QueryOutput

	if cmd.Flags().Changed("structure") {
		text, err := st.FormatStructure(opts.Structure)
		if err != nil {
			return err
		}
		if out.JSON() {
			return out.Success(QueryOutput{Structure: text})
		}
		out.Line(text)
		return nil
	}

	if opts.Before {
		result.Before = st.All()
		if !out.JSON() {
			printLinks(out, st, result.Before)
		}
	}

	query := opts.Query
	if query == "" && len(args) > 0 {
		query = args[0]
	}

	var queryID string
	if query != "" {
		res, err := opts.newEngine().Run(ctx, st, query)
		opts.flushMetrics(st)
		if err != nil {
			return err
		}
		queryID = res.QueryID
		if opts.Changes {
			result.Changes = res.Transitions
		}
	}

	if !out.JSON() {
		for _, t := range result.Changes {
			out.Change(t.Kind(), st.FormatChange(t))
		}
	}

	if opts.After {
		result.After = st.All()
		if !out.JSON() {
			printLinks(out, st, result.After)
		}
	}

	if out.JSON() {
		return out.writeJSON(CLIResponse{Status: "ok", Data: result, QueryID: queryID})
	}
	return nil
}

func printLinks(out *OutputFormatter, st *store.Store, links []doublet.Doublet) {
	for _, d := range links {
		out.Line(st.FormatDoublet(d))
	}
}

// parseIndex parses a doublet index argument.
func parseIndex(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid index %q", s), err)
	}
	return uint32(v), nil
}
