package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// StatsOutput is the JSON payload of the stats command.
type StatsOutput struct {
	Database string `json:"database"`
	Backend  string `json:"backend"`
	Doublets int    `json:"doublets"`
	Points   int    `json:"points"`
	Names    int    `json:"names"`
	NextID   uint32 `json:"next_id"`
	Bytes    int64  `json:"bytes,omitempty"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Summarize the store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	st, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	stats := StatsOutput{
		Database: opts.Database,
		Backend:  string(st.Backend().Kind()),
		Doublets: st.Count(),
		Names:    len(st.Names()),
		NextID:   st.NextID(),
	}
	for _, d := range st.All() {
		if d.IsPoint() {
			stats.Points++
		}
	}
	if info, err := os.Stat(opts.Database); err == nil && !info.IsDir() {
		stats.Bytes = info.Size()
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		return out.Success(stats)
	}

	out.Line(fmt.Sprintf("database: %s (%s)", stats.Database, stats.Backend))
	out.Line(fmt.Sprintf("doublets: %s", humanize.Comma(int64(stats.Doublets))))
	out.Line(fmt.Sprintf("points:   %s", humanize.Comma(int64(stats.Points))))
	out.Line(fmt.Sprintf("names:    %s", humanize.Comma(int64(stats.Names))))
	out.Line(fmt.Sprintf("next id:  %s", humanize.Comma(int64(stats.NextID))))
	if stats.Bytes > 0 {
		out.Line(fmt.Sprintf("size:     %s", humanize.Bytes(uint64(stats.Bytes))))
	}
	return nil
}
