package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/civic-analytics/streetmatch/internal/xwalk"
)

var xwalkCmd = &cobra.Command{
	Use:   "xwalk",
	Short: "Build block-level candidate segment sets for all addresses",
	Long: `Joins loaded segments to faces to build the block crosswalk, fuzzy-matches
each address's street name against the names bordering its block, and stores
the resulting candidate TLID lists.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		cutoff, _ := cmd.Flags().GetFloat64("cutoff")
		if cutoff == 0 {
			cutoff = cfg.Xwalk.NameCutoff
		}

		segments, err := st.ListSegments(ctx, cfg.Xwalk.RoadsOnly)
		if err != nil {
			return eris.Wrap(err, "xwalk: load segments")
		}
		faces, err := st.ListFaces(ctx)
		if err != nil {
			return eris.Wrap(err, "xwalk: load faces")
		}
		addresses, err := st.ListAddresses(ctx)
		if err != nil {
			return eris.Wrap(err, "xwalk: load addresses")
		}

		idx := xwalk.Build(segments, faces, cfg.Xwalk.RoadsOnly)
		candidates := xwalk.BuildCandidates(addresses, idx, xwalk.Options{NameCutoff: cutoff})

		if err := st.SaveCandidates(ctx, candidates); err != nil {
			return eris.Wrap(err, "xwalk: save candidates")
		}

		fmt.Printf("Built candidate sets for %d addresses across %d blocks\n",
			len(candidates), idx.Blocks())
		return nil
	},
}

func init() {
	xwalkCmd.Flags().Float64("cutoff", 0, "minimum street-name similarity (default: from config)")
	rootCmd.AddCommand(xwalkCmd)
}
