package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/civic-analytics/streetmatch/internal/match"
	"github.com/civic-analytics/streetmatch/internal/report"
	"github.com/civic-analytics/streetmatch/internal/store"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Resolve every address to a single street segment",
	Long: `Partitions stored candidate sets into single-candidate and ambiguous
addresses, settles the ambiguous ones by nearest-vertex search over candidate
geometry, and stores the complete resolved mapping. Addresses with no usable
candidate get the no-match sentinel.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		workers, _ := cmd.Flags().GetInt("workers")
		if workers == 0 {
			workers = cfg.Match.Workers
		}
		out, _ := cmd.Flags().GetString("out")

		addresses, err := st.ListAddresses(ctx)
		if err != nil {
			return eris.Wrap(err, "match: load addresses")
		}
		candidates, err := st.GetCandidates(ctx)
		if err != nil {
			return eris.Wrap(err, "match: load candidates")
		}
		segments, err := st.ListSegments(ctx, false)
		if err != nil {
			return eris.Wrap(err, "match: load segments")
		}

		partition := match.Split(addresses, candidates)
		geoms := match.BuildGeometryCache(partition, store.SegmentsByTLID(segments))

		matches, stats, err := match.ResolveAll(ctx, partition, geoms, workers)
		if err != nil {
			return eris.Wrap(err, "match: resolve")
		}
		if err := st.SaveMatches(ctx, matches); err != nil {
			return eris.Wrap(err, "match: save")
		}

		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return eris.Wrap(err, "match: create output file")
			}
			defer f.Close() //nolint:errcheck
			if err := report.WriteMatches(f, matches); err != nil {
				return err
			}
		}

		fmt.Printf("Resolved %d addresses: %d single, %d geometric, %d unmatched\n",
			len(matches), stats.Single, stats.Geometric, stats.Unmatched)
		return nil
	},
}

func init() {
	matchCmd.Flags().Int("workers", 0, "concurrent geometric resolutions (default: from config)")
	matchCmd.Flags().String("out", "", "also write the resolved mapping to this CSV file")
	rootCmd.AddCommand(matchCmd)
}
